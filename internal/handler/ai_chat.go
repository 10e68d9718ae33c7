package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"citron/internal/ai"
	"citron/internal/config"
	"citron/internal/model"
	"citron/internal/pkg/fileproc"
	"citron/internal/pkg/id"
	"citron/internal/pkg/logger"
	"citron/internal/pkg/storage"
	"citron/internal/repository"
)

// AIChatHandler 多模型 AI 对话处理器
type AIChatHandler struct {
	registry *ai.Registry
	cfg      *config.Config
	store    storage.Storage      // 附件归档，可为 nil
	chatLogs *repository.ChatLogRepo // 对话落库，可为 nil
	debug    bool
}

// NewAIChatHandler 创建 AI 对话处理器
func NewAIChatHandler(registry *ai.Registry, cfg *config.Config, store storage.Storage, chatLogs *repository.ChatLogRepo) *AIChatHandler {
	return &AIChatHandler{
		registry: registry,
		cfg:      cfg,
		store:    store,
		chatLogs: chatLogs,
		debug:    cfg.Server.Mode == "debug",
	}
}

// Chat AI 对话接口
// @Summary      AI 对话
// @Description  与 GPT 或 Gemini 模型对话，支持历史、附件与模型参数。JSON body 直接传，multipart 时 JSON 放在 json_data 或 payload 字段
// @Tags         AI对话
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Param        provider  path      string               true  "模型选择（gpt 或 gemini）"
// @Param        request   body      model.AIChatRequest  true  "对话请求"
// @Success      200  {object}  ai.Reply
// @Failure      400  {object}  model.StatusResponse
// @Failure      404  {object}  model.StatusResponse
// @Failure      500  {object}  model.AIErrorResponse
// @Router       /api/ai/chat/{provider} [post]
func (h *AIChatHandler) Chat(c *gin.Context) {
	providerName := strings.ToLower(c.Param("provider"))

	provider, err := h.registry.Get(providerName)
	if err != nil {
		c.JSON(http.StatusNotFound, model.NewStatusError(
			fmt.Sprintf("Modèle IA '%s' non supporté. Choisissez 'gpt' ou 'gemini'.", c.Param("provider"))))
		return
	}

	req, ok := h.parseRequest(c)
	if !ok {
		return
	}

	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, model.NewStatusError(`Le champ "prompt" est requis.`))
		return
	}

	in := &ai.ChatInput{
		Prompt:      req.Prompt,
		History:     req.ConversationHistory,
		Options:     req.Params,
		Attachments: h.collectAttachments(c),
	}

	reply, payload, err := ai.Chat(c.Request.Context(), provider, in)
	if err != nil {
		logger.Get().Error().Err(err).Str("provider", providerName).Msg("ai chat failed")
		c.JSON(http.StatusInternalServerError, model.AIErrorResponse{
			Status:    "error",
			Message:   err.Error(),
			ModelName: h.modelID(providerName, &req.Params),
		})
		return
	}

	if h.debug {
		reply.ProcessedRequest = payload
	} else {
		reply.ProcessedRequest = "hidden"
	}

	h.logChat(c, providerName, req.Prompt, reply)

	c.JSON(http.StatusOK, reply)
}

// parseRequest 解析对话请求
// JSON body 直接绑定，multipart 时从 json_data 或 payload 表单字段读取
func (h *AIChatHandler) parseRequest(c *gin.Context) (*model.AIChatRequest, bool) {
	var req model.AIChatRequest

	if strings.Contains(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.NewStatusError("Payload JSON invalide dans les données du formulaire."))
			return nil, false
		}
		return &req, true
	}

	jsonStr := c.PostForm("json_data")
	if jsonStr == "" {
		jsonStr = c.PostForm("payload")
	}
	if jsonStr != "" {
		if err := json.Unmarshal([]byte(jsonStr), &req); err != nil {
			c.JSON(http.StatusBadRequest, model.NewStatusError("Payload JSON invalide dans les données du formulaire."))
			return nil, false
		}
	}
	return &req, true
}

// collectAttachments 处理上传的附件，单个文件失败只跳过不中断
func (h *AIChatHandler) collectAttachments(c *gin.Context) []fileproc.Attachment {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}

	var attachments []fileproc.Attachment
	for _, headers := range form.File {
		for _, fh := range headers {
			if fh.Filename == "" {
				continue
			}

			ext := fileproc.Ext(fh.Filename)
			if !h.cfg.Upload.AllowedExtension(ext) {
				logger.Get().Warn().Str("filename", fh.Filename).Msg("file extension not allowed")
				continue
			}

			data, err := readFile(fh)
			if err != nil {
				logger.Get().Error().Err(err).Str("filename", fh.Filename).Msg("failed to read uploaded file")
				continue
			}

			att, err := fileproc.Process(fh.Filename, data)
			if err != nil {
				var extractErr *fileproc.ExtractionError
				switch {
				case errors.As(err, &extractErr):
					logger.Get().Error().Err(err).Str("filename", fh.Filename).Msg("attachment extraction failed")
				case errors.Is(err, fileproc.ErrUnsupported):
					logger.Get().Warn().Str("filename", fh.Filename).Msg("unsupported attachment type")
				default:
					logger.Get().Error().Err(err).Str("filename", fh.Filename).Msg("attachment processing failed")
				}
				continue
			}

			attachments = append(attachments, att)
			h.archive(c, fh.Filename, ext, data)
		}
	}
	return attachments
}

// archive 异步无关紧要的归档，失败只记日志
func (h *AIChatHandler) archive(c *gin.Context, filename, ext string, data []byte) {
	if h.store == nil {
		return
	}

	contentType, ok := fileproc.ImageMimeType(filename)
	if !ok {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("uploads/%s.%s", id.New(), ext)
	if _, err := h.store.Upload(c.Request.Context(), key, bytes.NewReader(data), contentType); err != nil {
		logger.Get().Error().Err(err).Str("filename", filename).Str("key", key).Msg("failed to archive upload")
	}
}

// logChat Mongo 可用时落一条对话记录，失败只记日志
func (h *AIChatHandler) logChat(c *gin.Context, providerName, prompt string, reply *ai.Reply) {
	if h.chatLogs == nil {
		return
	}

	entry := &model.ChatLog{
		RequestID:    c.GetString("request_id"),
		Provider:     providerName,
		ModelName:    reply.ModelName,
		Prompt:       prompt,
		Response:     reply.Response,
		FinishReason: reply.FinishReason,
	}
	if reply.Usage != nil {
		entry.PromptTokens = reply.Usage.PromptTokens
		entry.TotalTokens = reply.Usage.TotalTokens
	}

	if err := h.chatLogs.Create(c.Request.Context(), entry); err != nil {
		logger.Get().Error().Err(err).Msg("failed to persist chat log")
	}
}

// modelID 错误响应里回显的模型标识
func (h *AIChatHandler) modelID(providerName string, opts *ai.Options) string {
	if opts.ModelID != "" {
		return opts.ModelID
	}
	if providerName == "gpt" {
		return h.cfg.AI.OpenAI.DefaultModel
	}
	return h.cfg.AI.Gemini.DefaultModel
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
