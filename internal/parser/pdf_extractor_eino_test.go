package parser

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEinoPDFTextExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err, "创建PDF提取器不应返回错误")
	require.NotNil(t, extractor, "创建的PDF提取器不应为nil")
	require.NotNil(t, extractor.parser, "PDF提取器内部的parser不应为nil")
}

// TestExtractTextFromReaderInvalidPDF 验证非PDF内容返回提取错误而非panic
func TestExtractTextFromReaderInvalidPDF(t *testing.T) {
	ctx := context.Background()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	garbage := bytes.NewReader([]byte("这不是一个PDF文件的内容"))
	text, err := extractor.ExtractTextFromReader(ctx, garbage, "broken.pdf")

	require.Error(t, err, "非PDF内容应返回错误")
	assert.Empty(t, text)
	assert.True(t, errors.Is(err, ErrExtractionFailed), "错误应包装ErrExtractionFailed")

	var docErr *DocumentError
	require.True(t, errors.As(err, &docErr), "错误应为DocumentError类型")
	assert.Equal(t, "broken.pdf", docErr.Filename)
	assert.Equal(t, "extract", docErr.Op)
}

// TestExtractTextFromBytesInvalidPDF 验证字节数组入口与Reader入口行为一致
func TestExtractTextFromBytesInvalidPDF(t *testing.T) {
	ctx := context.Background()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	_, err = extractor.ExtractTextFromBytes(ctx, []byte("%NOT-A-PDF"), "fake.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionFailed))
}

// TestExtractTextFromPDFFile 对真实PDF样例做端到端提取，样例缺失时跳过
func TestExtractTextFromPDFFile(t *testing.T) {
	samplePath := findSamplePDF(t)
	if samplePath == "" {
		t.Skip("找不到测试PDF文件，跳过测试")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(samplePath)
	require.NoError(t, err, "读取测试PDF文件不应返回错误")

	text, err := extractor.ExtractTextFromBytes(ctx, data, filepath.Base(samplePath))
	require.NoError(t, err, "PDF提取不应返回错误")
	assert.NotEmpty(t, strings.TrimSpace(text), "提取的文本不应为空")
}

// findSamplePDF 在testdata目录中查找任意PDF样例
func findSamplePDF(t *testing.T) string {
	t.Helper()
	for _, dir := range []string{"testdata", filepath.Join("..", "testdata"), filepath.Join("..", "..", "testdata")} {
		matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
		if err == nil && len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}
