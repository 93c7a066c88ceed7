package parser

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ankurtiwari12/rjd-parser/internal/logger"

	"github.com/rs/zerolog"
)

// TextExtractor 根据文件扩展名将上传的文档分发给对应的提取器。
// 支持的格式: .pdf, .docx, .doc
type TextExtractor struct {
	pdfExtractor  *EinoPDFTextExtractor
	docxExtractor *DocxTextExtractor
	logger        zerolog.Logger
}

// NewTextExtractor 创建统一文本提取器
func NewTextExtractor(ctx context.Context) (*TextExtractor, error) {
	pdfExtractor, err := NewEinoPDFTextExtractor(ctx)
	if err != nil {
		return nil, err
	}

	return &TextExtractor{
		pdfExtractor:  pdfExtractor,
		docxExtractor: NewDocxTextExtractor(),
		logger:        logger.Logger.With().Str("component", "TextExtractor").Logger(),
	}, nil
}

// SupportedExtensions 返回支持的文件扩展名集合
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".doc"}
}

// ExtractText 从上传的文件内容中提取纯文本。
// filename 仅用于格式判断和日志，不会被读取。
func (t *TextExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = t.pdfExtractor.ExtractTextFromBytes(ctx, data, filename)
	case ".docx", ".doc":
		// 旧版.doc统一走docx读取器，无法解析的文件由其返回提取错误
		text, err = t.docxExtractor.ExtractTextFromBytes(ctx, data, filename)
	default:
		return "", NewUnsupportedFormatError(filename, "支持的格式: "+strings.Join(SupportedExtensions(), ", "))
	}

	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", NewEmptyDocumentError(filename)
	}

	t.logger.Debug().Str("filename", filename).Str("ext", ext).Int("text_length", len(text)).Msg("文档文本提取完成")
	return text, nil
}
