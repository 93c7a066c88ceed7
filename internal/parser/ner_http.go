package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ankurtiwari12/rjd-parser/internal/logger"
	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/rs/zerolog"
)

// EntityRecognizer 命名实体识别接口
type EntityRecognizer interface {
	// Recognize 对文本做命名实体识别，返回实体列表
	Recognize(ctx context.Context, text string) ([]types.Entity, error)
}

// NERClient 是基于HTTP NER服务的实体识别客户端
type NERClient struct {
	// NER服务地址，例如 http://localhost:8090
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 服务端加载的模型名
	model  string
	logger zerolog.Logger
}

// NEROption 定义配置选项函数
type NEROption func(*NERClient)

// WithNERTimeout 配置HTTP客户端超时时间
func WithNERTimeout(timeout time.Duration) NEROption {
	return func(c *NERClient) {
		c.Client.Timeout = timeout
	}
}

// WithNERModel 配置服务端模型名
func WithNERModel(model string) NEROption {
	return func(c *NERClient) {
		c.model = model
	}
}

// 确保NERClient实现了EntityRecognizer接口
var _ EntityRecognizer = (*NERClient)(nil)

// NewNERClient 创建一个新的NER客户端
func NewNERClient(serverURL string, options ...NEROption) *NERClient {
	// 设置默认的HTTP客户端，包含合理的超时设置
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	nerClient := &NERClient{
		ServerURL: serverURL,
		Client:    client,
		model:     "en_core_web_sm",
		logger:    logger.Logger.With().Str("component", "NERClient").Logger(),
	}

	// 应用选项
	for _, option := range options {
		option(nerClient)
	}

	return nerClient
}

// nerRequest NER服务请求结构
type nerRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// nerResponse NER服务响应结构
type nerResponse struct {
	Entities []types.Entity `json:"entities"`
	Error    string         `json:"error,omitempty"`
}

// Recognize 调用NER服务识别文本中的命名实体
func (c *NERClient) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	startTime := time.Now()

	reqBody, err := json.Marshal(nerRequest{Text: text, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("序列化NER请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/ner", c.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNERUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取NER响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: 状态码: %d, 响应: %s", ErrNERUnavailable, resp.StatusCode, string(body))
	}

	var parsed nerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析NER响应JSON失败: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("%w: 服务返回错误: %s", ErrNERUnavailable, parsed.Error)
	}

	c.logger.Debug().
		Int("text_length", len(text)).
		Int("entity_count", len(parsed.Entities)).
		Dur("duration", time.Since(startTime)).
		Msg("NER识别完成")

	return parsed.Entities, nil
}
