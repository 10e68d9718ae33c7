package service

import (
	"context"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeRenderer 捕获收到的 HTML，返回固定字节
type fakeRenderer struct {
	gotHTML string
}

func (f *fakeRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.gotHTML = html
	return []byte("%PDF-1.4 fake"), nil
}

// TestGenerateFromMarkdown 测试 Markdown 转 PDF 的文档组装
func TestGenerateFromMarkdown(t *testing.T) {
	Convey("Markdown 转 PDF 测试", t, func() {
		renderer := &fakeRenderer{}
		svc := NewPDFService(renderer)
		ctx := context.Background()

		Convey("生成完整 HTML 文档", func() {
			out, err := svc.GenerateFromMarkdown(ctx, "# Rapport\n\nTexte du rapport.", "")
			So(err, ShouldBeNil)
			So(out, ShouldNotBeEmpty)

			So(renderer.gotHTML, ShouldContainSubstring, "<!DOCTYPE html>")
			So(renderer.gotHTML, ShouldContainSubstring, "<h1")
			So(renderer.gotHTML, ShouldContainSubstring, "Rapport")
			// 基础样式始终注入
			So(renderer.gotHTML, ShouldContainSubstring, "font-family: 'Arial', sans-serif;")
		})

		Convey("自定义 CSS 追加在基础样式之后", func() {
			_, err := svc.GenerateFromMarkdown(ctx, "texte", "body { color: red; }")
			So(err, ShouldBeNil)
			So(renderer.gotHTML, ShouldContainSubstring, "body { color: red; }")

			baseIdx := strings.Index(renderer.gotHTML, "font-family: 'Arial', sans-serif;")
			customIdx := strings.Index(renderer.gotHTML, "body { color: red; }")
			So(baseIdx, ShouldBeGreaterThan, -1)
			So(customIdx, ShouldBeGreaterThan, baseIdx)
		})

		Convey("GFM 表格进入文档", func() {
			_, err := svc.GenerateFromMarkdown(ctx, "| a | b |\n|---|---|\n| 1 | 2 |", "")
			So(err, ShouldBeNil)
			So(renderer.gotHTML, ShouldContainSubstring, "<table>")
		})
	})
}
