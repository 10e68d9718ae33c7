package markdown

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// TestToHTML 测试 Markdown 渲染
func TestToHTML(t *testing.T) {
	Convey("Markdown 渲染测试", t, func() {
		Convey("标题", func() {
			html, err := ToHTML("# Bonjour")
			So(err, ShouldBeNil)
			So(html, ShouldContainSubstring, "<h1")
			So(html, ShouldContainSubstring, "Bonjour")
		})

		Convey("GFM 表格", func() {
			src := "| a | b |\n|---|---|\n| 1 | 2 |"
			html, err := ToHTML(src)
			So(err, ShouldBeNil)
			So(html, ShouldContainSubstring, "<table>")
			So(html, ShouldContainSubstring, "<td>1</td>")
		})

		Convey("围栏代码块", func() {
			html, err := ToHTML("```\ncode here\n```")
			So(err, ShouldBeNil)
			So(html, ShouldContainSubstring, "<pre>")
			So(html, ShouldContainSubstring, "code here")
		})

		Convey("内嵌 HTML 原样保留", func() {
			html, err := ToHTML("<div class=\"x\">raw</div>")
			So(err, ShouldBeNil)
			So(html, ShouldContainSubstring, `<div class="x">raw</div>`)
		})
	})
}
