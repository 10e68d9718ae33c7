package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"citron/internal/model"
	"citron/internal/pkg/logger"
	"citron/internal/service"
)

// ContactHandler 联系表单处理器
type ContactHandler struct {
	emails *service.EmailService
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(emails *service.EmailService) *ContactHandler {
	return &ContactHandler{emails: emails}
}

// Send 发送联系表单邮件
// @Summary      联系表单
// @Description  接收联系表单数据并发送邮件给项目邮箱
// @Tags         联系
// @Accept       json
// @Produce      json
// @Param        request  body      model.ContactRequest  true  "联系表单"
// @Success      200  {object}  model.StatusResponse
// @Failure      400  {object}  model.StatusResponse
// @Failure      500  {object}  model.StatusResponse
// @Router       /api/contact [post]
func (h *ContactHandler) Send(c *gin.Context) {
	var req model.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewStatusError("Champs manquants: name, email, message sont requis."))
		return
	}

	if len(req.Message) < 10 {
		c.JSON(http.StatusBadRequest, model.NewStatusError("Le message doit contenir au moins 10 caractères."))
		return
	}

	statusMessage, err := h.emails.SendContact(req.Name, req.Email, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewStatusError(statusMessage))
		return
	}

	logger.Get().Info().Str("name", req.Name).Str("email", req.Email).Msg("contact email sent")
	c.JSON(http.StatusOK, model.NewStatusSuccess(statusMessage))
}
