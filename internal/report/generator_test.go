package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用LLM模型模拟器
type MockLLMModel struct {
	// 模拟响应
	mockResponse string
	// 记录绑定的工具 (可选，用于测试)
	boundTools []*schema.ToolInfo
	// 用于测试的错误
	Err error
	// 用于测试的调用次数
	CallCount int
}

// Generate 实现model.ChatModel接口
func (m *MockLLMModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	// 返回预设的模拟响应
	return &schema.Message{
		Role:    "assistant",
		Content: m.mockResponse,
	}, nil
}

// Stream 实现model.ChatModel接口
func (m *MockLLMModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	// 测试中不需要流式响应
	return nil, nil
}

// BindTools 实现model.ChatModel接口
func (m *MockLLMModel) BindTools(tools []*schema.ToolInfo) error {
	m.boundTools = tools
	return nil
}

// WithTools 实现 model.ToolCallingChatModel 接口
func (m *MockLLMModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if err := m.BindTools(tools); err != nil {
		return nil, err
	}
	return m, nil
}

// sampleMatchResult 构造用于报告测试的匹配结果
func sampleMatchResult() *types.MatchResult {
	return &types.MatchResult{
		OverallMatch: 72.5,
		CategoryScores: types.CategoryScores{
			TechnicalSkills: 50.0,
			SoftSkills:      100.0,
			Experience:      60.0,
			Education:       100.0,
		},
		MissingSkills:   []string{"kubernetes", "sql"},
		Strengths:       []string{"python"},
		Recommendations: []string{"Consider learning: kubernetes, sql."},
		SkillComparisonTable: []types.SkillComparisonRow{
			{Skill: "kubernetes", Required: true, Present: false},
			{Skill: "python", Required: true, Present: true},
			{Skill: "sql", Required: true, Present: false},
		},
	}
}

// TestGenerateWithValidLLMResponse 验证结构合规的LLM产出被原样采用
func TestGenerateWithValidLLMResponse(t *testing.T) {
	// 一份满足校验规则的模拟报告：超过10行且包含两个必需标记
	mockResponse := strings.Join([]string{
		"Resume-Job Match Report",
		"",
		"1. Overall Match:",
		"   - Score: 72.5%",
		"   - Explanation: solid fit overall.",
		"2. Category Scores:",
		"   - Technical Skills: 50.0%",
		"3. Good Points / Strengths:",
		"   - python",
		"4. Shortcomings / Missing Skills:",
		"   - kubernetes, sql",
		"5. Recommendations:",
		"   - Consider learning: kubernetes, sql.",
		"6. Feedback:",
		"   Keep going.",
	}, "\n")

	mockLLM := &MockLLMModel{mockResponse: mockResponse}
	generator := NewGenerator(mockLLM)

	report := generator.Generate(context.Background(), sampleMatchResult())

	assert.Equal(t, mockResponse, report, "合规的LLM产出应被原样返回")
	assert.Equal(t, 1, mockLLM.CallCount)
}

// TestGenerateStripsLeadingBOM 验证LLM产出打头的BOM被剥离后再参与校验
func TestGenerateStripsLeadingBOM(t *testing.T) {
	mockResponse := strings.Join([]string{
		"Resume-Job Match Report",
		"",
		"1. Overall Match:",
		"   - Score: 72.5%",
		"2. Category Scores:",
		"   - Technical Skills: 50.0%",
		"3. Good Points / Strengths:",
		"   - python",
		"4. Shortcomings / Missing Skills:",
		"   - kubernetes, sql",
		"5. Recommendations:",
		"   - Consider learning: kubernetes, sql.",
	}, "\n")

	mockLLM := &MockLLMModel{mockResponse: "\uFEFF" + mockResponse}
	generator := NewGenerator(mockLLM)

	report := generator.Generate(context.Background(), sampleMatchResult())

	assert.Equal(t, mockResponse, report, "BOM应被剥离且剩余产出原样返回")
	assert.False(t, strings.HasPrefix(report, "\uFEFF"))
}

// slowLLMModel 在固定延迟后才返回响应，用于超时行为测试
type slowLLMModel struct {
	MockLLMModel
	delay time.Duration
}

func (m *slowLLMModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.delay):
		return m.MockLLMModel.Generate(ctx, messages, options...)
	}
}

// TestGenerateFallbackOnTimeout 验证生成超时后降级到模板报告
func TestGenerateFallbackOnTimeout(t *testing.T) {
	slow := &slowLLMModel{
		MockLLMModel: MockLLMModel{mockResponse: "never returned in time"},
		delay:        500 * time.Millisecond,
	}
	generator := NewGenerator(slow, WithGenTimeout(10*time.Millisecond))

	result := sampleMatchResult()
	report := generator.Generate(context.Background(), result)

	assert.Equal(t, FallbackReport(result), report, "超时后应返回降级模板")
}

// TestGenerateFallbackOnShortResponse 验证行数不足的产出触发降级
func TestGenerateFallbackOnShortResponse(t *testing.T) {
	mockLLM := &MockLLMModel{mockResponse: "Overall Match and Recommendations in one line"}
	generator := NewGenerator(mockLLM)

	report := generator.Generate(context.Background(), sampleMatchResult())

	assert.Contains(t, report, "Resume-Job Match Report", "降级报告应包含标题")
	assert.Contains(t, report, "6. Feedback:", "降级报告应包含全部六个小节")
}

// TestGenerateFallbackOnMissingMarkers 验证缺少必需标记的产出触发降级
func TestGenerateFallbackOnMissingMarkers(t *testing.T) {
	// 够长但没有 Recommendations 标记
	longButInvalid := strings.Repeat("Overall Match is great\n", 12)
	mockLLM := &MockLLMModel{mockResponse: longButInvalid}
	generator := NewGenerator(mockLLM)

	report := generator.Generate(context.Background(), sampleMatchResult())
	assert.Contains(t, report, "5. Recommendations:")
}

// TestGenerateFallbackOnLLMError 验证LLM调用失败时降级而非报错
func TestGenerateFallbackOnLLMError(t *testing.T) {
	mockLLM := &MockLLMModel{Err: errors.New("model overloaded")}
	generator := NewGenerator(mockLLM)

	report := generator.Generate(context.Background(), sampleMatchResult())
	assert.Contains(t, report, "Resume-Job Match Report")
}

// TestGenerateWithoutLLM 验证未配置LLM时直接使用降级模板
func TestGenerateWithoutLLM(t *testing.T) {
	generator := NewGenerator(nil)
	report := generator.Generate(context.Background(), sampleMatchResult())
	assert.True(t, ValidateReport(report), "降级报告本身应通过结构校验")
}

// TestFallbackReportContent 验证降级报告的内容与分数格式
func TestFallbackReportContent(t *testing.T) {
	result := sampleMatchResult()
	report := FallbackReport(result)

	assert.Contains(t, report, "- Score: 72.5%")
	assert.Contains(t, report, "- Technical Skills: 50.0%")
	assert.Contains(t, report, "- Education: 100.0%")
	assert.Contains(t, report, "python")
	assert.Contains(t, report, "kubernetes, sql")

	// 空列表输出None
	empty := &types.MatchResult{}
	emptyReport := FallbackReport(empty)
	assert.Contains(t, emptyReport, "3. Good Points / Strengths:\n   - None")
	assert.Contains(t, emptyReport, "5. Recommendations:\n   - None")
}

// TestValidateReport 验证报告结构校验规则
func TestValidateReport(t *testing.T) {
	valid := strings.Repeat("line\n", 9) + "Overall Match\nRecommendations"
	assert.True(t, ValidateReport(valid))

	assert.False(t, ValidateReport("Overall Match Recommendations"), "行数不足应判定无效")
	assert.False(t, ValidateReport(strings.Repeat("Recommendations\n", 12)), "缺少Overall Match应判定无效")
}

// TestRenderPDF 验证PDF渲染产出非空且为PDF格式
func TestRenderPDF(t *testing.T) {
	result := sampleMatchResult()
	reportText := FallbackReport(result)

	data, err := RenderPDF(reportText, result.SkillComparisonTable)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"), "输出应为PDF文件")
}

// TestRenderPDFWithoutTable 验证不带对照表时也能渲染
func TestRenderPDFWithoutTable(t *testing.T) {
	data, err := RenderPDF(FallbackReport(&types.MatchResult{}), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
