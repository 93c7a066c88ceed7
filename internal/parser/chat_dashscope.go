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
	"github.com/ankurtiwari12/rjd-parser/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var chatTracer = otel.Tracer("rjd-parser/parser/chat")

// DashScopeChatModel 实现 model.ToolCallingChatModel 接口 (OpenAI compatible endpoint)。
// 报告生成只需要纯文本补全，工具调用按透传方式处理。
type DashScopeChatModel struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	tools      []*schema.ToolInfo
	logger     zerolog.Logger
}

// 确保DashScopeChatModel实现了eino的工具调用模型接口
var _ model.ToolCallingChatModel = (*DashScopeChatModel)(nil)

// NewDashScopeChatModel 创建新的DashScope聊天模型客户端
func NewDashScopeChatModel(apiKey, modelName, baseURL string) (*DashScopeChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}
	if modelName == "" {
		modelName = "qwen-plus" // Fallback default
	}
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions" // Fallback default
	}

	return &DashScopeChatModel{
		apiKey:     apiKey,
		model:      modelName,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    baseURL,
		logger:     logger.Logger.With().Str("component", "DashScopeChatModel").Logger(),
	}, nil
}

// dashScopeChatRequest DashScope Chat请求结构 (OpenAI compatible)
type dashScopeChatRequest struct {
	Model       string                 `json:"model"`
	Messages    []dashScopeChatMessage `json:"messages"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	Temperature *float32               `json:"temperature,omitempty"`
	TopP        *float32               `json:"top_p,omitempty"`
	Stop        []string               `json:"stop,omitempty"`
}

// dashScopeChatMessage 对话消息
type dashScopeChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// dashScopeChatResponse DashScope Chat响应结构 (OpenAI compatible)
type dashScopeChatResponse struct {
	ID      string                `json:"id,omitempty"`
	Model   string                `json:"model"`
	Choices []dashScopeChatChoice `json:"choices"`
	Usage   dashScopeUsage        `json:"usage"`
	Error   *dashScopeAPIError    `json:"error,omitempty"`
}

// dashScopeChatChoice part of the response
type dashScopeChatChoice struct {
	Index        int                  `json:"index"`
	Message      dashScopeChatMessage `json:"message"`
	FinishReason string               `json:"finish_reason"`
}

// Generate 发起一次对话补全, 实现 cloudwego/eino model.BaseChatModel 接口
func (d *DashScopeChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("消息列表不能为空")
	}

	ctx, span := chatTracer.Start(ctx, "DashScopeChatModel.Generate",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	options := model.GetCommonOptions(&model.Options{}, opts...)

	effectiveModel := d.model
	if options.Model != nil && *options.Model != "" {
		effectiveModel = *options.Model
	}

	span.SetAttributes(
		attribute.String("gen_ai.request.model", effectiveModel),
		attribute.Int("gen_ai.request.message_count", len(messages)),
		attribute.String("gen_ai.prompt.preview", tracing.SafeDocumentContent(messages[len(messages)-1].Content)),
	)

	reqBody := dashScopeChatRequest{
		Model:       effectiveModel,
		Messages:    toWireMessages(messages),
		Temperature: options.Temperature,
		TopP:        options.TopP,
		Stop:        options.Stop,
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		reqBody.MaxTokens = *options.MaxTokens
	}

	d.logger.Debug().
		Str("model", reqBody.Model).
		Int("message_count", len(messages)).
		Int("max_tokens", reqBody.MaxTokens).
		Msg("发起chat请求")

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
		err = fmt.Errorf("%w: 发送HTTP请求失败: %v", ErrModelUnavailable, err)
		tracing.RecordModelError(span, err, effectiveModel)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError dashScopeAPIError
		detailedError := fmt.Errorf("%w: API调用失败, 状态码: %d, 响应: %s", ErrModelUnavailable, resp.StatusCode, string(body))
		if json.Unmarshal(body, &apiError) == nil && apiError.Message != "" {
			detailedError = fmt.Errorf("%w: API调用失败, 状态码: %d, 类型: %s, 错误: %s, Code: %s",
				ErrModelUnavailable, resp.StatusCode, apiError.Type, apiError.Message, apiError.Code)
		}
		d.logger.Error().Err(detailedError).Msg("chat API调用失败")
		tracing.RecordHTTPError(span, detailedError, resp.StatusCode)
		return nil, detailedError
	}

	var parsedResp dashScopeChatResponse
	if err := json.Unmarshal(body, &parsedResp); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}

	if parsedResp.Error != nil && parsedResp.Error.Message != "" {
		err = fmt.Errorf("%w: API返回错误: 类型=%s, 消息='%s', Code=%s",
			ErrModelUnavailable, parsedResp.Error.Type, parsedResp.Error.Message, parsedResp.Error.Code)
		d.logger.Error().Err(err).Msg("chat响应包含API级错误")
		tracing.RecordModelError(span, err, effectiveModel)
		return nil, err
	}

	if len(parsedResp.Choices) == 0 {
		err = fmt.Errorf("%w: API响应中没有choices", ErrModelUnavailable)
		tracing.RecordModelError(span, err, effectiveModel)
		return nil, err
	}

	choice := parsedResp.Choices[0]
	d.logger.Debug().
		Str("finish_reason", choice.FinishReason).
		Int("prompt_tokens", parsedResp.Usage.PromptTokens).
		Int("total_tokens", parsedResp.Usage.TotalTokens).
		Msg("chat补全完成")

	span.SetAttributes(attribute.Int("gen_ai.usage.total_tokens", parsedResp.Usage.TotalTokens))
	span.SetStatus(codes.Ok, "")
	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
	}, nil
}

// Stream 实现 model.BaseChatModel 接口。
// 当前用非流式补全模拟：整段结果作为单元素流返回。
func (d *DashScopeChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := d.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools 实现 model.ToolCallingChatModel 接口，返回携带工具信息的副本
func (d *DashScopeChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *d
	clone.tools = tools
	return &clone, nil
}

// toWireMessages 将eino消息转换为OpenAI兼容的请求消息
func toWireMessages(messages []*schema.Message) []dashScopeChatMessage {
	wire := make([]dashScopeChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		wire = append(wire, dashScopeChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return wire
}
