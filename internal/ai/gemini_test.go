package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"citron/internal/config"
	"citron/internal/pkg/fileproc"
)

func newTestGemini(endpoint, apiKey string) *Gemini {
	return NewGemini(&config.GeminiConfig{
		APIKey:       apiKey,
		Endpoint:     endpoint,
		DefaultModel: "gemini-1.5-flash-latest",
	}, 5*time.Second)
}

// TestGeminiBuildPayload 测试 Gemini 请求体构建
func TestGeminiBuildPayload(t *testing.T) {
	Convey("Gemini 请求体构建测试", t, func() {
		p := newTestGemini("http://unused/{model}", "key")

		Convey("纯文本请求使用默认生成参数", func() {
			raw, err := p.BuildPayload(&ChatInput{Prompt: "Salut"})
			So(err, ShouldBeNil)

			payload, ok := raw.(geminiPayload)
			So(ok, ShouldBeTrue)
			So(payload.GenerationConfig.Temperature, ShouldEqual, 0.7)
			So(payload.GenerationConfig.MaxOutputTokens, ShouldEqual, 1024)
			So(payload.GenerationConfig.TopP, ShouldEqual, 1.0)
			So(payload.GenerationConfig.TopK, ShouldEqual, 40)
			So(payload.Contents, ShouldHaveLength, 1)

			content := payload.Contents[0].(geminiUserContent)
			So(content.Role, ShouldEqual, "user")
			So(content.Parts[0], ShouldResemble, any(geminiTextPart{Text: "Salut"}))
		})

		Convey("默认安全过滤配置", func() {
			raw, _ := p.BuildPayload(&ChatInput{Prompt: "x"})
			payload := raw.(geminiPayload)
			So(payload.SafetySettings, ShouldHaveLength, 2)
			So(payload.SafetySettings[0].Category, ShouldEqual, "HARM_CATEGORY_HARASSMENT")
			So(payload.SafetySettings[0].Threshold, ShouldEqual, "BLOCK_MEDIUM_AND_ABOVE")
		})

		Convey("请求可覆盖安全过滤配置", func() {
			custom := []SafetySetting{{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"}}
			raw, _ := p.BuildPayload(&ChatInput{
				Prompt:  "x",
				Options: Options{SafetySettings: custom},
			})
			payload := raw.(geminiPayload)
			So(payload.SafetySettings, ShouldResemble, custom)
		})

		Convey("图片附件编码为 inline_data", func() {
			raw, _ := p.BuildPayload(&ChatInput{
				Prompt: "décris",
				Attachments: []fileproc.Attachment{
					fileproc.Image{MimeType: "image/jpeg", Data: "QUJD"},
				},
			})

			content := raw.(geminiPayload).Contents[0].(geminiUserContent)
			So(content.Parts, ShouldHaveLength, 2)

			inline, ok := content.Parts[1].(geminiInlineDataPart)
			So(ok, ShouldBeTrue)
			So(inline.InlineData.MimeType, ShouldEqual, "image/jpeg")
			So(inline.InlineData.Data, ShouldEqual, "QUJD")
		})

		Convey("文档提取文本拼接进 prompt", func() {
			raw, _ := p.BuildPayload(&ChatInput{
				Prompt: "résume",
				Attachments: []fileproc.Attachment{
					fileproc.ExtractedText{Name: "doc.docx", Text: "texte extrait"},
				},
			})

			content := raw.(geminiPayload).Contents[0].(geminiUserContent)
			So(content.Parts, ShouldHaveLength, 1)
			So(content.Parts[0].(geminiTextPart).Text,
				ShouldEqual, "résume\n\n--- Contenu du fichier joint ---\ntexte extrait")
		})

		Convey("历史条目原样透传", func() {
			history := []json.RawMessage{
				json.RawMessage(`{"role":"user","parts":[{"text":"avant"}]}`),
			}
			raw, _ := p.BuildPayload(&ChatInput{Prompt: "suite", History: history})
			payload := raw.(geminiPayload)
			So(payload.Contents, ShouldHaveLength, 2)
			So(payload.Contents[0], ShouldResemble, any(history[0]))
		})

		Convey("序列化字段名符合 REST v1beta", func() {
			raw, _ := p.BuildPayload(&ChatInput{
				Prompt: "x",
				Attachments: []fileproc.Attachment{
					fileproc.Image{MimeType: "image/png", Data: "QQ=="},
				},
			})
			data, err := json.Marshal(raw)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"generationConfig"`)
			So(string(data), ShouldContainSubstring, `"maxOutputTokens"`)
			So(string(data), ShouldContainSubstring, `"safetySettings"`)
			So(string(data), ShouldContainSubstring, `"inline_data"`)
			So(string(data), ShouldContainSubstring, `"mime_type"`)
		})
	})
}

// TestGeminiNormalize 测试 Gemini 响应归一化
func TestGeminiNormalize(t *testing.T) {
	Convey("Gemini 响应归一化测试", t, func() {
		p := newTestGemini("http://unused/{model}", "key")
		in := &ChatInput{Prompt: "x"}

		Convey("多 part 文本按顺序拼接", func() {
			raw := []byte(`{
				"candidates": [{
					"content": {"parts": [{"text": "a"}, {"text": "b"}]},
					"finishReason": "STOP"
				}],
				"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 2, "totalTokenCount": 6}
			}`)
			reply, err := p.Normalize(in, raw)
			So(err, ShouldBeNil)
			So(reply.ModelName, ShouldEqual, "Gemini gemini-1.5-flash-latest")
			So(reply.Response, ShouldEqual, "ab")
			So(reply.FinishReason, ShouldEqual, "STOP")
			So(reply.Usage, ShouldNotBeNil)
			So(reply.Usage.PromptTokens, ShouldEqual, 4)
			So(reply.Usage.CompletionTokens, ShouldEqual, 2)
			So(reply.Usage.TotalTokens, ShouldEqual, 6)
		})

		Convey("安全拦截返回 BlockedError 而非成功", func() {
			raw := []byte(`{
				"promptFeedback": {
					"blockReason": "SAFETY",
					"safetyRatings": [{"category": "HARM_CATEGORY_HARASSMENT", "probability": "HIGH"}]
				}
			}`)
			_, err := p.Normalize(in, raw)
			So(err, ShouldNotBeNil)

			var blocked *BlockedError
			So(errors.As(err, &blocked), ShouldBeTrue)
			So(blocked.Reason, ShouldEqual, "SAFETY")
			So(err.Error(), ShouldContainSubstring, "Contenu bloqué par Gemini. Raison: SAFETY")
			So(err.Error(), ShouldContainSubstring, "HARM_CATEGORY_HARASSMENT")
		})

		Convey("无 candidates 且无 blockReason 返回 ShapeError", func() {
			_, err := p.Normalize(in, []byte(`{}`))
			var shapeErr *ShapeError
			So(errors.As(err, &shapeErr), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Format de réponse inattendu de Gemini")
		})

		Convey("parts 缺失按空文本处理", func() {
			raw := []byte(`{"candidates": [{"content": {}, "finishReason": "STOP"}]}`)
			reply, err := p.Normalize(in, raw)
			So(err, ShouldBeNil)
			So(reply.Response, ShouldEqual, "")
		})
	})
}

// TestGeminiInvoke 测试 Gemini 出站调用
func TestGeminiInvoke(t *testing.T) {
	Convey("Gemini 出站调用测试", t, func() {
		Convey("endpoint 模板替换与查询参数认证", func() {
			var gotPath, gotKey string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotKey = r.URL.Query().Get("key")
				w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
			}))
			defer srv.Close()

			p := newTestGemini(srv.URL+"/v1beta/models/{model}:generateContent", "secret")
			payload, _ := p.BuildPayload(&ChatInput{Prompt: "x"})
			raw, err := p.Invoke(context.Background(), &ChatInput{Prompt: "x"}, payload)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, "ok")
			So(gotPath, ShouldContainSubstring, "gemini-1.5-flash-latest")
			So(gotKey, ShouldEqual, "secret")
		})

		Convey("model_id 参数替换默认模型", func() {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
			}))
			defer srv.Close()

			p := newTestGemini(srv.URL+"/models/{model}:generateContent", "secret")
			in := &ChatInput{Prompt: "x", Options: Options{ModelID: "gemini-1.5-pro"}}
			_, err := p.Invoke(context.Background(), in, map[string]any{})
			So(err, ShouldBeNil)
			So(gotPath, ShouldContainSubstring, "gemini-1.5-pro")
		})

		Convey("非 2xx 返回 UpstreamError", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error": {"message": "invalid"}}`))
			}))
			defer srv.Close()

			p := newTestGemini(srv.URL+"/{model}", "secret")
			_, err := p.Invoke(context.Background(), &ChatInput{Prompt: "x"}, map[string]any{})

			var upErr *UpstreamError
			So(errors.As(err, &upErr), ShouldBeTrue)
			So(upErr.Status, ShouldEqual, http.StatusBadRequest)
			So(err.Error(), ShouldContainSubstring, "Erreur de communication avec l'API Gemini")
		})

		Convey("未配置 API key 直接失败", func() {
			p := newTestGemini("http://unused/{model}", "")
			_, err := p.Invoke(context.Background(), &ChatInput{Prompt: "x"}, map[string]any{})
			So(errors.Is(err, ErrNoAPIKey), ShouldBeTrue)
		})
	})
}

// TestRegistry 测试 provider 注册表
func TestRegistry(t *testing.T) {
	Convey("Provider 注册表测试", t, func() {
		registry := NewRegistry(
			newTestOpenAI("http://unused", "k"),
			newTestGemini("http://unused/{model}", "k"),
		)

		Convey("按标识查找", func() {
			p, err := registry.Get("gpt")
			So(err, ShouldBeNil)
			So(p.Name(), ShouldEqual, "gpt")

			p, err = registry.Get("gemini")
			So(err, ShouldBeNil)
			So(p.Name(), ShouldEqual, "gemini")
		})

		Convey("未知标识返回 ErrUnknownProvider", func() {
			_, err := registry.Get("claude")
			So(errors.Is(err, ErrUnknownProvider), ShouldBeTrue)
		})
	})
}
