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

func newTestOpenAI(endpoint, apiKey string) *OpenAI {
	return NewOpenAI(&config.OpenAIConfig{
		APIKey:       apiKey,
		Endpoint:     endpoint,
		DefaultModel: "gpt-4-turbo-preview",
	}, 5*time.Second)
}

// TestOpenAIBuildPayload 测试 OpenAI 请求体构建
func TestOpenAIBuildPayload(t *testing.T) {
	Convey("OpenAI 请求体构建测试", t, func() {
		p := newTestOpenAI("http://unused", "sk-test")

		Convey("纯文本请求使用默认参数", func() {
			raw, err := p.BuildPayload(&ChatInput{Prompt: "Salut"})
			So(err, ShouldBeNil)

			payload, ok := raw.(openaiPayload)
			So(ok, ShouldBeTrue)
			So(payload.Model, ShouldEqual, "gpt-4-turbo-preview")
			So(payload.Temperature, ShouldEqual, 0.7)
			So(payload.MaxTokens, ShouldEqual, 1024)
			So(payload.Messages, ShouldHaveLength, 1)

			msg, ok := payload.Messages[0].(openaiUserMessage)
			So(ok, ShouldBeTrue)
			So(msg.Role, ShouldEqual, "user")
			So(msg.Content, ShouldHaveLength, 1)
			So(msg.Content[0], ShouldResemble, openaiTextPart{Type: "text", Text: "Salut"})
		})

		Convey("参数覆盖默认值", func() {
			temp := 0.2
			maxTokens := 64
			raw, err := p.BuildPayload(&ChatInput{
				Prompt: "x",
				Options: Options{
					ModelID:     "gpt-4o",
					Temperature: &temp,
					MaxTokens:   &maxTokens,
				},
			})
			So(err, ShouldBeNil)

			payload := raw.(openaiPayload)
			So(payload.Model, ShouldEqual, "gpt-4o")
			So(payload.Temperature, ShouldEqual, 0.2)
			So(payload.MaxTokens, ShouldEqual, 64)
		})

		Convey("图片附件编码为 data URL", func() {
			raw, err := p.BuildPayload(&ChatInput{
				Prompt: "décris cette image",
				Attachments: []fileproc.Attachment{
					fileproc.Image{MimeType: "image/png", Data: "QUJD"},
				},
			})
			So(err, ShouldBeNil)

			msg := raw.(openaiPayload).Messages[0].(openaiUserMessage)
			So(msg.Content, ShouldHaveLength, 2)

			imgPart, ok := msg.Content[1].(openaiImagePart)
			So(ok, ShouldBeTrue)
			So(imgPart.Type, ShouldEqual, "image_url")
			So(imgPart.ImageURL.URL, ShouldEqual, "data:image/png;base64,QUJD")
		})

		Convey("文档提取文本拼接进 prompt", func() {
			raw, err := p.BuildPayload(&ChatInput{
				Prompt: "résume",
				Attachments: []fileproc.Attachment{
					fileproc.ExtractedText{Name: "doc.pdf", Text: "contenu du document"},
				},
			})
			So(err, ShouldBeNil)

			msg := raw.(openaiPayload).Messages[0].(openaiUserMessage)
			So(msg.Content, ShouldHaveLength, 1)

			textPart := msg.Content[0].(openaiTextPart)
			So(textPart.Text, ShouldEqual, "résume\n\n--- Contenu du fichier joint ---\ncontenu du document")
		})

		Convey("历史消息原样透传且在新消息之前", func() {
			history := []json.RawMessage{
				json.RawMessage(`{"role":"user","content":"avant"}`),
				json.RawMessage(`{"role":"assistant","content":"réponse"}`),
			}
			raw, err := p.BuildPayload(&ChatInput{Prompt: "suite", History: history})
			So(err, ShouldBeNil)

			payload := raw.(openaiPayload)
			So(payload.Messages, ShouldHaveLength, 3)
			So(payload.Messages[0], ShouldResemble, any(history[0]))
			So(payload.Messages[1], ShouldResemble, any(history[1]))
		})
	})
}

// TestOpenAINormalize 测试 OpenAI 响应归一化
func TestOpenAINormalize(t *testing.T) {
	Convey("OpenAI 响应归一化测试", t, func() {
		p := newTestOpenAI("http://unused", "sk-test")
		in := &ChatInput{Prompt: "x"}

		Convey("正常响应", func() {
			raw := []byte(`{
				"choices": [{"message": {"content": "Bonjour!"}, "finish_reason": "stop"}],
				"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
			}`)
			reply, err := p.Normalize(in, raw)
			So(err, ShouldBeNil)
			So(reply.ModelName, ShouldEqual, "OpenAI gpt-4-turbo-preview")
			So(reply.Response, ShouldEqual, "Bonjour!")
			So(reply.FinishReason, ShouldEqual, "stop")
			So(reply.Usage, ShouldNotBeNil)
			So(reply.Usage.TotalTokens, ShouldEqual, 8)
		})

		Convey("choices 为空时返回 ShapeError", func() {
			_, err := p.Normalize(in, []byte(`{"choices": []}`))
			So(err, ShouldNotBeNil)

			var shapeErr *ShapeError
			So(errors.As(err, &shapeErr), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Format de réponse inattendu de OpenAI")
		})

		Convey("非 JSON 响应返回 ShapeError", func() {
			_, err := p.Normalize(in, []byte("<html>oops</html>"))
			var shapeErr *ShapeError
			So(errors.As(err, &shapeErr), ShouldBeTrue)
		})
	})
}

// TestOpenAIInvoke 测试 OpenAI 出站调用
func TestOpenAIInvoke(t *testing.T) {
	Convey("OpenAI 出站调用测试", t, func() {
		Convey("成功调用携带 Bearer 认证", func() {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
			}))
			defer srv.Close()

			p := newTestOpenAI(srv.URL, "sk-test")
			payload, _ := p.BuildPayload(&ChatInput{Prompt: "x"})
			raw, err := p.Invoke(context.Background(), &ChatInput{Prompt: "x"}, payload)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, "ok")
			So(gotAuth, ShouldEqual, "Bearer sk-test")
		})

		Convey("非 2xx 返回 UpstreamError", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error": "rate limited"}`))
			}))
			defer srv.Close()

			p := newTestOpenAI(srv.URL, "sk-test")
			_, err := p.Invoke(context.Background(), &ChatInput{Prompt: "x"}, map[string]any{})
			So(err, ShouldNotBeNil)

			var upErr *UpstreamError
			So(errors.As(err, &upErr), ShouldBeTrue)
			So(upErr.Status, ShouldEqual, http.StatusTooManyRequests)
			So(err.Error(), ShouldContainSubstring, "Erreur de communication avec l'API OpenAI")
		})

		Convey("未配置 API key 直接失败", func() {
			p := newTestOpenAI("http://unused", "")
			_, err := p.Invoke(context.Background(), &ChatInput{Prompt: "x"}, map[string]any{})
			So(errors.Is(err, ErrNoAPIKey), ShouldBeTrue)
		})
	})
}
