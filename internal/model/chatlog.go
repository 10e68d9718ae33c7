package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatLog 一次 AI 对话的落库记录（Mongo 配置可用时写入）
type ChatLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID    string             `bson:"request_id" json:"request_id"`
	Provider     string             `bson:"provider" json:"provider"`
	ModelName    string             `bson:"model_name" json:"model_name"`
	Prompt       string             `bson:"prompt" json:"prompt"`
	Response     string             `bson:"response" json:"response"`
	FinishReason string             `bson:"finish_reason,omitempty" json:"finish_reason,omitempty"`
	PromptTokens int                `bson:"prompt_tokens" json:"prompt_tokens"`
	TotalTokens  int                `bson:"total_tokens" json:"total_tokens"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
