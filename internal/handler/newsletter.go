package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"citron/internal/model"
	"citron/internal/pkg/logger"
	"citron/internal/service"
)

// NewsletterHandler 邮件群发处理器
type NewsletterHandler struct {
	emails *service.EmailService
}

// NewNewsletterHandler 创建邮件群发处理器
func NewNewsletterHandler(emails *service.EmailService) *NewsletterHandler {
	return &NewsletterHandler{emails: emails}
}

// Send 群发邮件
// @Summary      发送 Newsletter
// @Description  将 Markdown 或 HTML 正文包装后逐一发送给订阅者，返回发送报告
// @Tags         Newsletter
// @Accept       json
// @Produce      json
// @Param        request  body      model.NewsletterRequest  true  "群发请求"
// @Success      200  {object}  model.NewsletterReport
// @Failure      400  {object}  model.StatusResponse
// @Failure      500  {object}  model.StatusResponse
// @Router       /api/newsletter/send [post]
func (h *NewsletterHandler) Send(c *gin.Context) {
	var req model.NewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewStatusError("Champs manquants: subject, message_content sont requis."))
		return
	}

	if len(req.Subscribers) == 0 {
		c.JSON(http.StatusBadRequest, model.NewStatusError("Aucun abonné fourni."))
		return
	}

	vars := make(map[string]any, len(req.CustomTemplateVars)+1)
	for k, v := range req.CustomTemplateVars {
		vars[k] = v
	}
	vars["subject"] = req.Subject

	// 邮件正文只包装一次，所有订阅者共用
	styled, err := h.emails.StyleNewsletter(req.MessageContent, vars)
	if err != nil {
		logger.Get().Error().Err(err).Msg("failed to style newsletter message")
		c.JSON(http.StatusInternalServerError, model.NewStatusError(
			fmt.Sprintf("Erreur de stylisation du message: %s", err)))
		return
	}

	report := h.emails.SendNewsletter(req.Subject, styled, req.Subscribers)
	logger.Get().Info().
		Int("sent", report.TotalSent).
		Int("failed", report.TotalFailed).
		Msg("newsletter send report")

	c.JSON(http.StatusOK, report)
}
