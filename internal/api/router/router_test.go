package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ankurtiwari12/rjd-parser/internal/parser"

	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
)

// TestStatusForUploadError 验证文档处理错误到HTTP状态码的映射：
// 调用方造成的格式与内容错误返回400，其余返回500
func TestStatusForUploadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"不支持的格式", parser.NewUnsupportedFormatError("resume.txt", ".txt"), consts.StatusBadRequest},
		{"空文档", parser.NewEmptyDocumentError("empty.pdf"), consts.StatusBadRequest},
		{"提取失败", parser.NewExtractionError("broken.pdf", "坏文件"), consts.StatusBadRequest},
		{"包装后的格式错误", fmt.Errorf("处理失败: %w", parser.NewUnsupportedFormatError("a.gif", ".gif")), consts.StatusBadRequest},
		{"其他错误", errors.New("数据库不可用"), consts.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForUploadError(tt.err))
		})
	}
}
