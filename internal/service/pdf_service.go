package service

import (
	"context"
	"fmt"
	"strings"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"citron/internal/config"
	"citron/internal/pkg/markdown"
)

// basePDFCSS PDF 文档的基础样式，custom_css 追加在其后
const basePDFCSS = `
body {
    font-family: 'Arial', sans-serif;
    line-height: 1.5;
    color: #333;
}
h1, h2, h3, h4, h5, h6 {
    color: #1a1a1a;
    margin-top: 1.5em;
    margin-bottom: 0.5em;
    page-break-after: avoid;
}
h1 { font-size: 2.5em; border-bottom: 2px solid #eee; padding-bottom: 0.3em; }
h2 { font-size: 2em; border-bottom: 1px solid #eee; padding-bottom: 0.2em; }
h3 { font-size: 1.75em; }
p { margin-bottom: 1em; text-align: justify; }
a { color: #007bff; text-decoration: none; }
a:hover { text-decoration: underline; }
table {
    width: 100%;
    border-collapse: collapse;
    margin-bottom: 1em;
    page-break-inside: avoid;
}
th, td {
    border: 1px solid #ddd;
    padding: 8px;
    text-align: left;
}
th { background-color: #f2f2f2; font-weight: bold; }
pre {
    background-color: #f8f8f8;
    border: 1px solid #ddd;
    padding: 10px;
    overflow-x: auto;
    font-family: 'Courier New', monospace;
    white-space: pre-wrap;
    word-wrap: break-word;
    page-break-inside: avoid;
}
code {
    font-family: 'Courier New', monospace;
    background-color: #f0f0f0;
    padding: 0.2em 0.4em;
    border-radius: 3px;
}
blockquote {
    border-left: 4px solid #ccc;
    padding-left: 1em;
    margin-left: 0;
    color: #555;
    font-style: italic;
    page-break-inside: avoid;
}
img {
    max-width: 100%;
    height: auto;
    display: block;
    margin: 1em auto;
    page-break-inside: avoid;
}
ul, ol {
    margin-bottom: 1em;
    padding-left: 1.5em;
}
li {
    margin-bottom: 0.5em;
}
`

// PDFRenderer 将完整 HTML 文档渲染为 PDF 字节流
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// WkhtmltopdfRenderer 基于 wkhtmltopdf 的渲染器实现
type WkhtmltopdfRenderer struct{}

// NewWkhtmltopdfRenderer 创建渲染器，binPath 非空时指定 wkhtmltopdf 可执行文件路径
func NewWkhtmltopdfRenderer(cfg *config.PDFConfig) *WkhtmltopdfRenderer {
	if cfg != nil && cfg.BinPath != "" {
		wkhtmltopdf.SetPath(cfg.BinPath)
	}
	return &WkhtmltopdfRenderer{}
}

// RenderHTML 渲染 A4 页面，边距 20mm
func (r *WkhtmltopdfRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("init pdf generator: %w", err)
	}

	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.MarginTop.Set(20)
	pdfg.MarginBottom.Set(20)
	pdfg.MarginLeft.Set(20)
	pdfg.MarginRight.Set(20)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(html))
	page.EnableLocalFileAccess.Set(false)
	pdfg.AddPage(page)

	if err := pdfg.CreateContext(ctx); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdfg.Bytes(), nil
}

// PDFService Markdown 转 PDF 服务
type PDFService struct {
	renderer PDFRenderer
}

// NewPDFService 创建 PDF 服务
func NewPDFService(renderer PDFRenderer) *PDFService {
	return &PDFService{renderer: renderer}
}

// GenerateFromMarkdown 将 Markdown 渲染为带基础样式的 PDF
// customCSS 追加在基础样式之后，可覆盖默认样式
func (s *PDFService) GenerateFromMarkdown(ctx context.Context, markdownContent, customCSS string) ([]byte, error) {
	htmlBody, err := markdown.ToHTML(markdownContent)
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>")
	doc.WriteString(basePDFCSS)
	doc.WriteString("</style>\n")
	if customCSS != "" {
		doc.WriteString("<style>")
		doc.WriteString(customCSS)
		doc.WriteString("</style>\n")
	}
	doc.WriteString("</head>\n<body>\n")
	doc.WriteString(htmlBody)
	doc.WriteString("\n</body>\n</html>")

	return s.renderer.RenderHTML(ctx, doc.String())
}
