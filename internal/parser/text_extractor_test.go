package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf", ".docx", ".doc"}, SupportedExtensions())
}

// TestExtractTextRejectsUnsupportedExtensions 验证词表外的扩展名统一返回格式错误
func TestExtractTextRejectsUnsupportedExtensions(t *testing.T) {
	ctx := context.Background()
	extractor, err := NewTextExtractor(ctx)
	require.NoError(t, err)

	for _, filename := range []string{"notes.txt", "resume.png", "resume", "archive.zip"} {
		_, err := extractor.ExtractText(ctx, []byte("内容"), filename)
		require.Error(t, err, "扩展名 %s 应被拒绝", filename)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), "扩展名 %s 的错误应包装ErrUnsupportedFormat", filename)

		var docErr *DocumentError
		require.True(t, errors.As(err, &docErr))
		assert.Equal(t, filename, docErr.Filename)
	}
}

// TestExtractTextDocxGarbage 验证无法解析的docx内容返回提取错误
func TestExtractTextDocxGarbage(t *testing.T) {
	ctx := context.Background()
	extractor, err := NewTextExtractor(ctx)
	require.NoError(t, err)

	_, err = extractor.ExtractText(ctx, []byte("不是一个zip压缩包"), "resume.docx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionFailed))
}
