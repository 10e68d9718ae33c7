package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"citron/internal/model"
	"citron/internal/pkg/logger"
	"citron/internal/service"
)

// PDFHandler Markdown 转 PDF 处理器
type PDFHandler struct {
	pdfs *service.PDFService
}

// NewPDFHandler 创建 PDF 处理器
func NewPDFHandler(pdfs *service.PDFService) *PDFHandler {
	return &PDFHandler{pdfs: pdfs}
}

// Generate 生成 PDF
// @Summary      Markdown 转 PDF
// @Description  将 Markdown 文本转换成 PDF 文件并作为附件返回
// @Tags         PDF
// @Accept       json
// @Produce      application/pdf
// @Param        request  body  model.PDFRequest  true  "转换请求"
// @Success      200  {file}    binary
// @Failure      400  {object}  model.StatusResponse
// @Failure      500  {object}  model.StatusResponse
// @Router       /api/pdf/markdown-to-pdf [post]
func (h *PDFHandler) Generate(c *gin.Context) {
	var req model.PDFRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MarkdownContent == "" {
		c.JSON(http.StatusBadRequest, model.NewStatusError(`Le champ "markdown_content" est requis.`))
		return
	}

	pdfBytes, err := h.pdfs.GenerateFromMarkdown(c.Request.Context(), req.MarkdownContent, req.CustomCSS)
	if err != nil {
		logger.Get().Error().Err(err).Msg("pdf generation failed")
		c.JSON(http.StatusInternalServerError, model.NewStatusError(
			fmt.Sprintf("Erreur lors de la génération du PDF: %s", err)))
		return
	}

	logger.Get().Info().Int("bytes", len(pdfBytes)).Msg("pdf generated from markdown")
	c.Header("Content-Disposition", `attachment; filename="rapport_genere.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
