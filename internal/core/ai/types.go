package ai

import "context"

// 訊息角色
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message 聊天訊息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest chat completions 請求
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// ChatResponse chat completions 回應
type ChatResponse struct {
	ID      string   `json:"id,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice 選擇
type Choice struct {
	Message Message `json:"message"`
}

// Usage 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RelayRequest 中繼函式的請求格式
type RelayRequest struct {
	DishType    string   `json:"dish_type"`
	Cuisines    []string `json:"cuisines"`
	DietaryTags []string `json:"dietary_tags"`
}

// RelayError 中繼函式的錯誤格式
type RelayError struct {
	Error string `json:"error"`
}

// Prompt 已渲染的提示詞
//
// Request 保留原始偏好，relay 模式只傳送偏好，由中繼端自行組裝提示詞。
type Prompt struct {
	System  string
	User    string
	Request RelayRequest
}

// RawResponse 上游原始回應（chat completions 信封）
type RawResponse struct {
	Body []byte
	Mode string
}

// Generator 生成客戶端介面
type Generator interface {
	// Generate 單次呼叫，不重試
	Generate(ctx context.Context, prompt Prompt) (*RawResponse, error)

	// Mode 目前的傳輸模式
	Mode() string
}
