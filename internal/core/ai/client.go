package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// maxErrorBody 錯誤訊息中保留的上游回應長度
const maxErrorBody = 512

// CredentialSource 憑證來源
type CredentialSource interface {
	Fetch(ctx context.Context) (string, error)
}

// Client 模型端點客戶端，依設定走 direct 或 relay
type Client struct {
	config  config.AIConfig
	secrets CredentialSource
	http    *resty.Client
}

// NewClient 創建新的生成客戶端
func NewClient(cfg config.AIConfig, secrets CredentialSource) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		config:  cfg,
		secrets: secrets,
		http:    client,
	}
}

// Mode 目前的傳輸模式
func (c *Client) Mode() string {
	return c.config.Mode
}

// Generate 發送單次請求，不做重試
func (c *Client) Generate(ctx context.Context, prompt Prompt) (*RawResponse, error) {
	start := time.Now()
	var (
		raw *RawResponse
		err error
	)
	switch c.config.Mode {
	case config.ModeRelay:
		raw, err = c.generateViaRelay(ctx, prompt)
	case config.ModeDirect:
		raw, err = c.generateDirect(ctx, prompt)
	default:
		err = &AuthConfigError{Reason: fmt.Sprintf("unknown mode %q", c.config.Mode)}
	}
	common.LogAICall(c.config.Mode, time.Since(start), err, RequestIDFrom(ctx))
	return raw, err
}

// generateDirect 直接呼叫 chat completions，憑證由 secrets 取得
func (c *Client) generateDirect(ctx context.Context, prompt Prompt) (*RawResponse, error) {
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return nil, &AuthConfigError{Reason: "no model endpoint configured"}
	}
	if c.secrets == nil {
		return nil, &AuthConfigError{Reason: "no credential source configured"}
	}

	apiKey, err := c.secrets.Fetch(ctx)
	if err != nil {
		return nil, &AuthConfigError{Reason: "credential lookup failed", Err: err}
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, &AuthConfigError{Reason: "empty credential"}
	}

	req := ChatRequest{
		Model: c.config.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: prompt.System},
			{Role: RoleUser, Content: prompt.User},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	common.LogDebug("Sending request to model endpoint",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("max_tokens", req.MaxTokens),
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetBody(req).
		Post(strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions")
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode(),
			Body:       truncate(resp.String(), maxErrorBody),
		}
	}

	return &RawResponse{Body: resp.Body(), Mode: config.ModeDirect}, nil
}

// generateViaRelay 呼叫持有憑證的伺服器端中繼函式
func (c *Client) generateViaRelay(ctx context.Context, prompt Prompt) (*RawResponse, error) {
	if strings.TrimSpace(c.config.RelayURL) == "" {
		return nil, &AuthConfigError{Reason: "no relay endpoint configured"}
	}

	r := c.http.R().
		SetContext(ctx).
		SetBody(prompt.Request)
	if c.config.RelayToken != "" {
		r.SetAuthToken(c.config.RelayToken)
	}

	resp, err := r.Post(c.config.RelayURL)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if !resp.IsSuccess() {
		body := resp.String()
		var relayErr RelayError
		if jsonErr := json.Unmarshal(resp.Body(), &relayErr); jsonErr == nil && relayErr.Error != "" {
			body = relayErr.Error
		}
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode(),
			Body:       truncate(body, maxErrorBody),
		}
	}

	// 中繼回傳已拆封的食譜陣列，重新包回 chat completions 信封
	envelope := ChatResponse{
		Choices: []Choice{{
			Message: Message{
				Role:    "assistant",
				Content: `{"recipes":` + string(resp.Body()) + `}`,
			},
		}},
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap relay response: %w", err)
	}

	return &RawResponse{Body: body, Mode: config.ModeRelay}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

// truncate 截斷至 n 位元組以內，不切開多位元組字元
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

type requestIDKey struct{}

// WithRequestID 將請求 ID 放入 context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom 從 context 取出請求 ID
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
