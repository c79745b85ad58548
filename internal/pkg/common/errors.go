package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WithMessage 複製錯誤並替換對外訊息
func (e *CustomError) WithMessage(message string) *CustomError {
	return NewError(e.Code, message, e.Status, e.Err)
}

// Wrap 複製錯誤並附上原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError  = "INTERNAL_ERROR"  // 500
	ErrCodeGatewayTimeout = "GATEWAY_TIMEOUT" // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "Invalid request format", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "Authentication required", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError  = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrGatewayTimeout = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrGenerationFailed        = NewError("GENERATION_FAILED", "Failed to generate recipes. Please try again.", http.StatusBadGateway, nil)
	ErrGenerationNotConfigured = NewError("GENERATION_NOT_CONFIGURED", "Recipe generation is not configured. Please contact administrator.", http.StatusInternalServerError, nil)
	ErrGenerationInProgress    = NewError("GENERATION_IN_PROGRESS", "A recipe generation is already in progress", http.StatusConflict, nil)
	ErrInvalidPreferences      = NewError("INVALID_PREFERENCES", "Invalid recipe preferences", http.StatusBadRequest, nil)
	ErrCacheFull               = NewError("CACHE_FULL", "Cache is full", http.StatusServiceUnavailable, nil)
	ErrCacheMiss               = NewError("CACHE_MISS", "Cache miss", http.StatusNotFound, nil)
)

// WriteError 以統一格式輸出錯誤，debug 模式下附帶原始錯誤
func WriteError(c *gin.Context, e *CustomError, debug bool) {
	resp := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
	}
	if debug && e.Err != nil {
		resp.Details = e.Err.Error()
	}
	c.AbortWithStatusJSON(e.Status, resp)
}
