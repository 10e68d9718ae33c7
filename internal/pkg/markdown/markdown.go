package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// 转换器全局唯一，goldmark.Markdown 可并发使用
// GFM 提供表格与围栏代码块，Typographer 提供智能标点，
// WithUnsafe 允许输入中直接携带 HTML（newsletter 接受 Markdown 或 HTML）
var converter = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// ToHTML 将 Markdown 渲染为 HTML 片段
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
