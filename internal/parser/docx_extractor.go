package parser

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/ankurtiwari12/rjd-parser/internal/logger"

	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog"
)

// xmlTagPattern 匹配document.xml中的所有标签
var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// DocxTextExtractor 从Word文档(docx)中提取纯文本
type DocxTextExtractor struct {
	logger zerolog.Logger
}

// NewDocxTextExtractor 创建docx文本提取器
func NewDocxTextExtractor() *DocxTextExtractor {
	return &DocxTextExtractor{
		logger: logger.Logger.With().Str("component", "DocxExtractor").Logger(),
	}
}

// ExtractTextFromBytes 从字节数组提取docx文本
func (d *DocxTextExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	r := bytes.NewReader(data)
	doc, err := docx.ReadDocxFromMemory(r, int64(len(data)))
	if err != nil {
		d.logger.Error().Err(err).Str("uri", uri).Msg("解析docx失败")
		return "", NewExtractionError(uri, err.Error())
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	text := stripDocxMarkup(content)

	d.logger.Debug().Str("uri", uri).Int("text_length", len(text)).Msg("docx文本提取完成")
	return text, nil
}

// stripDocxMarkup 将document.xml内容转换为纯文本：
// 段落结束符转换为换行，其余标签全部剥离
func stripDocxMarkup(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = xmlTagPattern.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")
	return strings.TrimSpace(content)
}
