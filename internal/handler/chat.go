package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"citron/internal/ai"
	"citron/internal/model"
	"citron/internal/pkg/fileproc"
	"citron/internal/pkg/logger"
)

// ChatHandler 简单对话处理器（固定走 Gemini，表单直传）
type ChatHandler struct {
	registry *ai.Registry
}

// NewChatHandler 创建简单对话处理器
func NewChatHandler(registry *ai.Registry) *ChatHandler {
	return &ChatHandler{registry: registry}
}

// Chat 简单对话接口
// @Summary      简单对话
// @Description  表单字段 message 为用户输入，可附带单个文件（图片或文档）
// @Tags         对话
// @Accept       mpfd
// @Produce      json
// @Param        message  formData  string  true   "用户消息"
// @Param        file     formData  file    false  "附件"
// @Success      200  {object}  model.ChatReply
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	message := c.PostForm("message")
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le champ 'message' est manquant."})
		return
	}

	in := &ai.ChatInput{Prompt: message}

	if fh, err := c.FormFile("file"); err == nil && fh.Filename != "" {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Impossible de lire le fichier image: %s", err)})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Impossible de lire le fichier image: %s", err)})
			return
		}

		att, err := fileproc.Process(fh.Filename, data)
		if err != nil {
			// 不支持或解析失败的附件直接忽略，仅发送文本
			logger.Get().Warn().Err(err).Str("filename", fh.Filename).Msg("skip unusable attachment")
		} else {
			in.Attachments = append(in.Attachments, att)
		}
	}

	provider, err := h.registry.Get("gemini")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Impossible de communiquer avec le service Gemini."})
		return
	}

	reply, _, err := ai.Chat(c.Request.Context(), provider, in)
	if err != nil {
		logger.Get().Error().Err(err).Msg("gemini chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Impossible de communiquer avec le service Gemini."})
		return
	}

	c.JSON(http.StatusOK, model.ChatReply{
		Reply: reply.Response,
		Usage: reply.Usage,
	})
}
