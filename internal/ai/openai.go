package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"citron/internal/config"
	"citron/internal/pkg/fileproc"
)

// 文档附件提取文本拼接到 prompt 时使用的分隔符
const attachedFileSeparator = "\n\n--- Contenu du fichier joint ---\n"

// OpenAI OpenAI chat/completions 上游
type OpenAI struct {
	cfg        *config.OpenAIConfig
	httpClient *http.Client
}

// NewOpenAI 创建 OpenAI provider
func NewOpenAI(cfg *config.OpenAIConfig, timeout time.Duration) *OpenAI {
	return &OpenAI{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name 路由标识
func (p *OpenAI) Name() string {
	return "gpt"
}

// openaiPayload chat/completions 请求体
type openaiPayload struct {
	Model       string  `json:"model"`
	Messages    []any   `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type openaiTextPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openaiImagePart struct {
	Type     string         `json:"type"`
	ImageURL openaiImageURL `json:"image_url"`
}

type openaiImageURL struct {
	URL string `json:"url"`
}

type openaiUserMessage struct {
	Role    string `json:"role"`
	Content []any  `json:"content"`
}

// BuildPayload 构建 OpenAI 请求体
// 历史消息原样透传（{role, content} 形状），新的 user 消息由
// 文本 part 加图片 part 组成；文档附件的提取文本不作为独立 part，
// 而是拼接进 prompt 文本
func (p *OpenAI) BuildPayload(in *ChatInput) (any, error) {
	prompt := in.Prompt
	parts := []any{}

	var imageParts []any
	for _, att := range in.Attachments {
		switch a := att.(type) {
		case fileproc.Image:
			imageParts = append(imageParts, openaiImagePart{
				Type: "image_url",
				ImageURL: openaiImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", a.MimeType, a.Data),
				},
			})
		case fileproc.ExtractedText:
			prompt += attachedFileSeparator + a.Text
		}
	}

	parts = append(parts, openaiTextPart{Type: "text", Text: prompt})
	parts = append(parts, imageParts...)

	messages := make([]any, 0, len(in.History)+1)
	for _, msg := range in.History {
		messages = append(messages, msg)
	}
	messages = append(messages, openaiUserMessage{Role: "user", Content: parts})

	payload := openaiPayload{
		Model:       p.modelID(in),
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	if in.Options.Temperature != nil {
		payload.Temperature = *in.Options.Temperature
	}
	if in.Options.MaxTokens != nil {
		payload.MaxTokens = *in.Options.MaxTokens
	}

	return payload, nil
}

// Invoke 单次出站调用
func (p *OpenAI) Invoke(ctx context.Context, in *ChatInput, payload any) ([]byte, error) {
	if p.cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI: %w", ErrNoAPIKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: "OpenAI", Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: "OpenAI", Status: resp.StatusCode, Detail: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Provider: "OpenAI", Status: resp.StatusCode, Detail: string(raw)}
	}

	return raw, nil
}

// openaiResponse chat/completions 响应体
type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *TokenUsage `json:"usage"`
}

// Normalize 将响应解析为统一信封
func (p *OpenAI) Normalize(in *ChatInput, raw []byte) (*Reply, error) {
	var resp openaiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ShapeError{Provider: "OpenAI", Detail: err.Error()}
	}

	if len(resp.Choices) == 0 {
		return nil, &ShapeError{Provider: "OpenAI", Detail: "no choices in response"}
	}

	return &Reply{
		ModelName:    "OpenAI " + p.modelID(in),
		Response:     resp.Choices[0].Message.Content,
		Usage:        resp.Usage,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}

func (p *OpenAI) modelID(in *ChatInput) string {
	if in.Options.ModelID != "" {
		return in.Options.ModelID
	}
	return p.cfg.DefaultModel
}
