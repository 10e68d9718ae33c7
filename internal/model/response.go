package model

import "citron/internal/ai"

// StatusResponse 通用状态响应 {status, message}
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewStatusError 创建错误状态响应
func NewStatusError(message string) StatusResponse {
	return StatusResponse{Status: "error", Message: message}
}

// NewStatusSuccess 创建成功状态响应
func NewStatusSuccess(message string) StatusResponse {
	return StatusResponse{Status: "success", Message: message}
}

// AIErrorResponse AI 对话错误响应（附带模型名）
type AIErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ModelName string `json:"model_name,omitempty"`
}

// ChatReply 简单对话响应（POST /chat）
type ChatReply struct {
	Reply string         `json:"reply"`
	Usage *ai.TokenUsage `json:"usage,omitempty"`
}

// NewsletterReport 邮件群发报告
// 单封失败不中断，失败的地址集中汇报
type NewsletterReport struct {
	TotalSent   int      `json:"total_sent"`
	TotalFailed int      `json:"total_failed"`
	Errors      []string `json:"errors"`
}
