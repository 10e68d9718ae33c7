package ai

import (
	"encoding/json"

	"citron/internal/pkg/fileproc"
)

// ChatInput 归一化后的对话请求
// 各 provider 的 payload builder 均以此为输入
type ChatInput struct {
	// Prompt 用户本轮输入，必须非空
	Prompt string

	// History 对话历史，原样透传给上游
	// OpenAI 侧应为 {role, content}，Gemini 侧应为 {role, parts}
	History []json.RawMessage

	// Attachments 已编码的附件（图片 base64 / 文档提取文本）
	Attachments []fileproc.Attachment

	// Options 模型参数，未提供的字段使用 provider 默认值
	Options Options
}

// Options 模型参数
// 指针字段区分“未提供”与“零值”
type Options struct {
	ModelID        string          `json:"model_id,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	TopP           *float64        `json:"top_p,omitempty"`
	TopK           *int            `json:"top_k,omitempty"`
	SafetySettings []SafetySetting `json:"safety_settings,omitempty"`
}

// SafetySetting Gemini 安全过滤配置项
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// TokenUsage Token 使用统计
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Reply 统一的响应信封
// 两个 provider 的响应都归一化成这个形状返回给调用方
type Reply struct {
	ModelName        string      `json:"model_name"`
	Response         string      `json:"response"`
	Usage            *TokenUsage `json:"usage,omitempty"`
	FinishReason     string      `json:"finish_reason,omitempty"`
	ProcessedRequest any         `json:"processed_request,omitempty"`
}

// 各 provider 共用的默认参数
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
	defaultTopP        = 1.0
	defaultTopK        = 40
)
