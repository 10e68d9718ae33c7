package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"citron/internal/config"
	"citron/internal/pkg/fileproc"
)

// Gemini Google Generative Language (REST v1beta) 上游
type Gemini struct {
	cfg        *config.GeminiConfig
	httpClient *http.Client
}

// NewGemini 创建 Gemini provider
func NewGemini(cfg *config.GeminiConfig, timeout time.Duration) *Gemini {
	return &Gemini{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name 路由标识
func (p *Gemini) Name() string {
	return "gemini"
}

// geminiPayload generateContent 请求体
// 字段拼写沿用 REST v1beta：generationConfig/safetySettings 驼峰，
// inline_data/mime_type 蛇形
type geminiPayload struct {
	Contents         []any                  `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []SafetySetting        `json:"safetySettings"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type geminiTextPart struct {
	Text string `json:"text"`
}

type geminiInlineDataPart struct {
	InlineData geminiInlineData `json:"inline_data"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiUserContent struct {
	Role  string `json:"role"`
	Parts []any  `json:"parts"`
}

// 未被请求覆盖时使用的安全过滤配置
var defaultSafetySettings = []SafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// BuildPayload 构建 Gemini 请求体
// 历史消息原样透传（{role, parts} 形状），新的 user 条目由文本 part
// 加 inline_data part 组成；文档附件的提取文本拼接进 prompt 文本
func (p *Gemini) BuildPayload(in *ChatInput) (any, error) {
	prompt := in.Prompt
	parts := []any{}

	var inlineParts []any
	for _, att := range in.Attachments {
		switch a := att.(type) {
		case fileproc.Image:
			inlineParts = append(inlineParts, geminiInlineDataPart{
				InlineData: geminiInlineData{MimeType: a.MimeType, Data: a.Data},
			})
		case fileproc.ExtractedText:
			prompt += attachedFileSeparator + a.Text
		}
	}

	parts = append(parts, geminiTextPart{Text: prompt})
	parts = append(parts, inlineParts...)

	contents := make([]any, 0, len(in.History)+1)
	for _, msg := range in.History {
		contents = append(contents, msg)
	}
	contents = append(contents, geminiUserContent{Role: "user", Parts: parts})

	genConfig := geminiGenerationConfig{
		Temperature:     defaultTemperature,
		MaxOutputTokens: defaultMaxTokens,
		TopP:            defaultTopP,
		TopK:            defaultTopK,
	}
	if in.Options.Temperature != nil {
		genConfig.Temperature = *in.Options.Temperature
	}
	if in.Options.MaxTokens != nil {
		genConfig.MaxOutputTokens = *in.Options.MaxTokens
	}
	if in.Options.TopP != nil {
		genConfig.TopP = *in.Options.TopP
	}
	if in.Options.TopK != nil {
		genConfig.TopK = *in.Options.TopK
	}

	safety := defaultSafetySettings
	if len(in.Options.SafetySettings) > 0 {
		safety = in.Options.SafetySettings
	}

	return geminiPayload{
		Contents:         contents,
		GenerationConfig: genConfig,
		SafetySettings:   safety,
	}, nil
}

// Invoke 单次出站调用
// endpoint 模板中的 {model} 以请求的 model_id（或默认模型）替换，
// API key 作为查询参数传递
func (p *Gemini) Invoke(ctx context.Context, in *ChatInput, payload any) ([]byte, error) {
	if p.cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini: %w", ErrNoAPIKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := strings.Replace(p.cfg.Endpoint, "{model}", p.modelID(in), 1)
	endpoint += "?key=" + p.cfg.APIKey

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: "Gemini", Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: "Gemini", Status: resp.StatusCode, Detail: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Provider: "Gemini", Status: resp.StatusCode, Detail: string(raw)}
	}

	return raw, nil
}

// geminiResponse generateContent 响应体
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason   string          `json:"blockReason"`
		SafetyRatings json.RawMessage `json:"safetyRatings"`
	} `json:"promptFeedback"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Normalize 将响应解析为统一信封
// candidates 缺失且 promptFeedback.blockReason 存在时是安全拦截，
// 不是成功；文本是 candidates[0].content.parts 中所有 text 的顺序拼接，
// 缺失字段按空字符串处理
func (p *Gemini) Normalize(in *ChatInput, raw []byte) (*Reply, error) {
	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ShapeError{Provider: "Gemini", Detail: err.Error()}
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, &BlockedError{
				Provider:      "Gemini",
				Reason:        resp.PromptFeedback.BlockReason,
				SafetyRatings: resp.PromptFeedback.SafetyRatings,
			}
		}
		return nil, &ShapeError{Provider: "Gemini", Detail: "no candidates in response"}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	var usage *TokenUsage
	if resp.UsageMetadata != nil {
		usage = &TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	return &Reply{
		ModelName:    "Gemini " + p.modelID(in),
		Response:     sb.String(),
		Usage:        usage,
		FinishReason: resp.Candidates[0].FinishReason,
	}, nil
}

func (p *Gemini) modelID(in *ChatInput) string {
	if in.Options.ModelID != "" {
		return in.Options.ModelID
	}
	return p.cfg.DefaultModel
}
