package ai

import (
	"context"
	"fmt"
)

// Provider 单个上游 AI 服务
// 三步契约：构建 payload → 发起调用 → 归一化响应
// 实现必须无状态，可被并发请求共享
type Provider interface {
	// Name 返回路由标识（gpt / gemini）
	Name() string

	// BuildPayload 从归一化请求构建上游专属的 JSON body
	BuildPayload(in *ChatInput) (any, error)

	// Invoke 单次出站调用，固定超时，不重试
	// 2xx 返回原始响应体，否则返回 *UpstreamError
	Invoke(ctx context.Context, in *ChatInput, payload any) ([]byte, error)

	// Normalize 将上游响应解析为统一信封
	// 安全拦截返回 *BlockedError，未知形状返回 *ShapeError
	Normalize(in *ChatInput, raw []byte) (*Reply, error)
}

// Registry provider 注册表，按路由标识选择
type Registry struct {
	providers map[string]Provider
}

// NewRegistry 创建注册表
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get 按标识查找 provider
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Chat 完整执行一次对话：构建、调用、归一化
// 返回归一化响应和实际发送的 payload（供调试回显）
func Chat(ctx context.Context, p Provider, in *ChatInput) (*Reply, any, error) {
	payload, err := p.BuildPayload(in)
	if err != nil {
		return nil, nil, err
	}

	raw, err := p.Invoke(ctx, in, payload)
	if err != nil {
		return nil, payload, err
	}

	reply, err := p.Normalize(in, raw)
	if err != nil {
		return nil, payload, err
	}

	return reply, payload, nil
}
