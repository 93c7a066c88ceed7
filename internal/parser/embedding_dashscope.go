package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ankurtiwari12/rjd-parser/internal/config"
	"github.com/ankurtiwari12/rjd-parser/internal/logger"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// DashScopeEmbedder 实现 embedding.Embedder 接口 (OpenAI compatible endpoint)
type DashScopeEmbedder struct {
	apiKey     string
	model      string // Default model
	dimensions int    // Default dimensions
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// NewDashScopeEmbedder 创建新的DashScope Embedder
func NewDashScopeEmbedder(apiKey string, embeddingCfg config.EmbeddingConfig) (*DashScopeEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}

	model := embeddingCfg.Model
	if model == "" {
		model = "text-embedding-v3" // Fallback default
	}
	dimensions := embeddingCfg.Dimensions
	baseURL := embeddingCfg.BaseURL
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings" // Fallback default
	}

	embedder := &DashScopeEmbedder{
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		logger:     logger.Logger.With().Str("component", "DashScopeEmbedder").Logger(),
	}

	return embedder, nil
}

// GetDimensions 返回嵌入器配置的维度 (helper, not part of eino.Embedder)
func (d *DashScopeEmbedder) GetDimensions() int {
	return d.dimensions
}

// ModelVersion 返回当前使用的embedding模型名，用于向量缓存的版本校验
func (d *DashScopeEmbedder) ModelVersion() string {
	return d.model
}

// dashScopeEmbeddingRequest DashScope Embedding请求结构 (OpenAI compatible)
type dashScopeEmbeddingRequest struct {
	Input          interface{} `json:"input"` // string or []string
	Model          string      `json:"model"`
	Dimensions     int         `json:"dimensions,omitempty"`      // Optional, for text-embedding-v3
	EncodingFormat string      `json:"encoding_format,omitempty"` // Optional, e.g., "float"
}

// dashScopeEmbeddingResponse DashScope Embedding响应结构 (OpenAI compatible)
type dashScopeEmbeddingResponse struct {
	Object string               `json:"object"` // e.g., "list"
	Data   []dashScopeDataEntry `json:"data"`
	Model  string               `json:"model"`
	Usage  dashScopeUsage       `json:"usage"`
	ID     string               `json:"id,omitempty"`
	Error  *dashScopeAPIError   `json:"error,omitempty"`
}

// dashScopeDataEntry part of the response
type dashScopeDataEntry struct {
	Object    string    `json:"object"` // e.g., "embedding"
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// dashScopeUsage part of the response
type dashScopeUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// dashScopeAPIError for API-level errors returned with 200 OK
type dashScopeAPIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Code    string `json:"code"`
}

// EmbedStrings 将文本转换为向量, 实现 cloudwego/eino embedding.Embedder 接口
func (d *DashScopeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	// 1. Handle options
	options := &embedding.Options{}
	embedding.GetCommonOptions(options, opts...)

	effectiveModel := d.model
	if options.Model != nil && *options.Model != "" {
		effectiveModel = *options.Model
	}
	effectiveDimensions := d.dimensions

	if len(texts) == 0 {
		d.logger.Debug().Msg("没有待嵌入的文本，返回空结果")
		return [][]float64{}, nil
	}

	var inputBody interface{}
	if len(texts) == 1 {
		inputBody = texts[0]
	} else {
		inputBody = texts
	}

	reqBody := dashScopeEmbeddingRequest{
		Input: inputBody,
		Model: effectiveModel,
	}
	if effectiveDimensions > 0 {
		reqBody.Dimensions = effectiveDimensions
	}

	d.logger.Debug().
		Str("model", reqBody.Model).
		Int("dimensions", reqBody.Dimensions).
		Int("text_count", len(texts)).
		Msg("发起embedding请求")

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 发送HTTP请求失败: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError dashScopeAPIError
		detailedError := fmt.Errorf("%w: API调用失败, 状态码: %d, 响应: %s", ErrModelUnavailable, resp.StatusCode, string(body))
		// 尝试从body中解析更详细的错误信息
		if json.Unmarshal(body, &apiError) == nil && apiError.Message != "" {
			detailedError = fmt.Errorf("%w: API调用失败, 状态码: %d, 类型: %s, 错误: %s, Code: %s",
				ErrModelUnavailable, resp.StatusCode, apiError.Type, apiError.Message, apiError.Code)
		}
		d.logger.Error().Err(detailedError).Msg("embedding API调用失败")
		return nil, detailedError
	}

	var parsedResp dashScopeEmbeddingResponse
	if err := json.Unmarshal(body, &parsedResp); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}

	// 检查响应中是否包含API级别的错误 (例如，输入文本过多)
	if parsedResp.Error != nil && parsedResp.Error.Message != "" {
		err = fmt.Errorf("%w: API返回错误: 类型=%s, 消息='%s', Code=%s",
			ErrModelUnavailable, parsedResp.Error.Type, parsedResp.Error.Message, parsedResp.Error.Code)
		d.logger.Error().Err(err).Msg("embedding响应包含API级错误")
		return nil, err
	}

	// 从响应中提取嵌入向量
	outputEmbeddings := make([][]float64, len(parsedResp.Data))
	for i, dataEntry := range parsedResp.Data {
		outputEmbeddings[i] = dataEntry.Embedding
	}

	d.logger.Debug().
		Int("text_count", len(texts)).
		Int("embedding_dim", firstEmbeddingDim(outputEmbeddings)).
		Int("prompt_tokens", parsedResp.Usage.PromptTokens).
		Int("total_tokens", parsedResp.Usage.TotalTokens).
		Str("preview", previewEmbedding(outputEmbeddings)).
		Msg("embedding完成")

	return outputEmbeddings, nil
}

// firstEmbeddingDim 安全获取第一个向量的维度，用于日志输出
func firstEmbeddingDim(embeddings [][]float64) int {
	if len(embeddings) > 0 && len(embeddings[0]) > 0 {
		return len(embeddings[0])
	}
	return 0
}

// previewEmbedding 生成第一个向量的截断字符串表示，用于日志输出
func previewEmbedding(embeddings [][]float64) string {
	if len(embeddings) == 0 {
		return "[]"
	}
	return truncateEmbedding(embeddings[0])
}

// truncateEmbedding 截断嵌入向量的字符串表示形式
func truncateEmbedding(vector []float64) string {
	const maxLen = 6       // 如果向量长度大于此值，则截断
	const showEachSide = 3 // 截断时每边显示多少元素

	if len(vector) <= maxLen {
		return fmt.Sprintf("%v", vector)
	}

	var truncated []string
	for i := 0; i < showEachSide; i++ {
		truncated = append(truncated, fmt.Sprintf("%.4f", vector[i]))
	}
	truncated = append(truncated, "...")
	for i := len(vector) - showEachSide; i < len(vector); i++ {
		truncated = append(truncated, fmt.Sprintf("%.4f", vector[i]))
	}
	return fmt.Sprintf("[%s]", strings.Join(truncated, ", "))
}
