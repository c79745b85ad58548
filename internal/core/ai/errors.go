package ai

import (
	"errors"
	"fmt"
)

// AuthConfigError 部署設定錯誤：缺少端點或憑證
type AuthConfigError struct {
	Reason string
	Err    error
}

func (e *AuthConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation not configured: %s: %v", e.Reason, e.Err)
	}
	return "generation not configured: " + e.Reason
}

func (e *AuthConfigError) Unwrap() error { return e.Err }

// UpstreamError 上游回傳非成功狀態碼
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Body)
}

// TransportError 網路層失敗
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsGenerationError 是否為生成階段錯誤
func IsGenerationError(err error) bool {
	var authErr *AuthConfigError
	var upErr *UpstreamError
	var tErr *TransportError
	return errors.As(err, &authErr) || errors.As(err, &upErr) || errors.As(err, &tErr)
}
