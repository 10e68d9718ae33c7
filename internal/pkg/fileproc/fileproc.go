package fileproc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Attachment 附件的封闭变体集合
// 图片走 base64 直传，PDF/DOCX 走文本提取，其余类型丢弃
type Attachment interface {
	attachment()
}

// Image 图片附件（base64 编码，进入多模态 payload）
type Image struct {
	MimeType string
	Data     string // base64 编码后的原始字节
}

func (Image) attachment() {}

// ExtractedText 从 PDF/DOCX 提取出的纯文本
type ExtractedText struct {
	Name string
	Text string
}

func (ExtractedText) attachment() {}

// ErrUnsupported 附件类型不在支持列表内（调用方丢弃并记录日志）
var ErrUnsupported = errors.New("unsupported attachment type")

// ExtractionError 文档解析失败
// 可恢复：调用方丢弃该附件继续处理请求
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %s: %v", e.Name, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// 文件扩展名到图片 MIME 类型的映射
var imageMIMETypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Ext 返回文件名的小写扩展名（不含点）
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ImageMimeType 根据扩展名返回图片 MIME 类型
func ImageMimeType(name string) (string, bool) {
	mime, ok := imageMIMETypes[Ext(name)]
	return mime, ok
}

// Process 将上传的文件字节分类为附件变体
//   - 图片扩展名：base64 编码，返回 Image
//   - pdf/docx：提取文本，返回 ExtractedText；解析失败返回 *ExtractionError
//   - 其他：返回 ErrUnsupported
func Process(name string, data []byte) (Attachment, error) {
	ext := Ext(name)

	if mime, ok := imageMIMETypes[ext]; ok {
		return Image{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(data),
		}, nil
	}

	switch ext {
	case "pdf":
		text, err := extractPDF(data)
		if err != nil {
			return nil, &ExtractionError{Name: name, Err: err}
		}
		return ExtractedText{Name: name, Text: text}, nil
	case "docx":
		text, err := extractDOCX(data)
		if err != nil {
			return nil, &ExtractionError{Name: name, Err: err}
		}
		return ExtractedText{Name: name, Text: text}, nil
	}

	return nil, ErrUnsupported
}
