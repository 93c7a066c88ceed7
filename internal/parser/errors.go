package parser

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrUnsupportedFormat = errors.New("不支持的文件格式")
	ErrExtractionFailed  = errors.New("提取文档文本失败")
	ErrModelUnavailable  = errors.New("模型服务不可用")
	ErrNERUnavailable    = errors.New("实体识别服务不可用")
	ErrEmptyDocument     = errors.New("文档内容为空")
)

// DocumentError 包含详细错误信息的自定义错误
type DocumentError struct {
	Filename string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *DocumentError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.Filename, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.Filename)
}

func (e *DocumentError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewUnsupportedFormatError(filename, detail string) error {
	return &DocumentError{
		Filename: filename,
		Op:       "detect_format",
		BaseErr:  ErrUnsupportedFormat,
		Detail:   detail,
	}
}

func NewExtractionError(filename, detail string) error {
	return &DocumentError{
		Filename: filename,
		Op:       "extract",
		BaseErr:  ErrExtractionFailed,
		Detail:   detail,
	}
}

func NewEmptyDocumentError(filename string) error {
	return &DocumentError{
		Filename: filename,
		Op:       "extract",
		BaseErr:  ErrEmptyDocument,
	}
}
