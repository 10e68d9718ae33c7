package ai

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownProvider 路由参数不是已知的 provider
var ErrUnknownProvider = errors.New("unknown provider")

// ErrNoAPIKey provider 未配置 API key
var ErrNoAPIKey = errors.New("API key not configured")

// UpstreamError 上游通信失败（网络错误、超时或非 2xx 响应）
// 不重试，直接上抛给调用方
type UpstreamError struct {
	Provider string // 展示名，如 "OpenAI"
	Status   int    // HTTP 状态码，传输层失败时为 0
	Detail   string // 上游响应体或传输错误描述
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Erreur de communication avec l'API %s: %s", e.Provider, e.Detail)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// BlockedError 上游安全过滤拒绝生成
// 有别于通信失败：HTTP 调用成功，但没有候选结果
type BlockedError struct {
	Provider      string
	Reason        string
	SafetyRatings json.RawMessage
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Contenu bloqué par %s. Raison: %s. Détails: %s",
		e.Provider, e.Reason, string(e.SafetyRatings))
}

// ShapeError 上游响应不符合任何已知形状
type ShapeError struct {
	Provider string
	Detail   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("Format de réponse inattendu de %s: %s", e.Provider, e.Detail)
}
