package model

import (
	"encoding/json"

	"citron/internal/ai"
)

// AIChatRequest AI 对话请求（JSON body 或 multipart 的 json_data/payload 字段）
type AIChatRequest struct {
	Prompt              string            `json:"prompt"`
	ConversationHistory []json.RawMessage `json:"conversation_history,omitempty"`
	Params              ai.Options        `json:"params,omitempty"`
}

// ContactRequest 联系表单请求
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// NewsletterRequest 邮件群发请求
type NewsletterRequest struct {
	Subject            string         `json:"subject" binding:"required"`
	MessageContent     string         `json:"message_content" binding:"required"`
	Subscribers        []string       `json:"subscribers"`
	CustomTemplateVars map[string]any `json:"custom_template_vars,omitempty"`
}

// PDFRequest Markdown 转 PDF 请求
type PDFRequest struct {
	MarkdownContent string `json:"markdown_content"`
	CustomCSS       string `json:"custom_css,omitempty"`
}
