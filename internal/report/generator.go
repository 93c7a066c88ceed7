// Package report 负责将匹配分析结果渲染为自然语言报告和PDF文件。
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ankurtiwari12/rjd-parser/internal/logger"
	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// 报告校验所需的结构标记
const (
	minReportLines     = 10
	requiredMarkOne    = "Overall Match"
	requiredMarkTwo    = "Recommendations"
	defaultMaxTokens   = 500
	defaultTemperature = 0.7
)

// Generator 结构体 (封装LLM客户端和Prompt逻辑)
type Generator struct {
	llmModel    model.ToolCallingChatModel
	maxTokens   int
	temperature float32
	genTimeout  time.Duration
	logger      zerolog.Logger
}

// GeneratorOption 是报告生成器的配置选项
type GeneratorOption func(*Generator)

// WithMaxTokens 设置生成报告的最大新token数
func WithMaxTokens(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature 设置采样温度
func WithTemperature(t float32) GeneratorOption {
	return func(g *Generator) {
		g.temperature = t
	}
}

// WithGenTimeout 设置单次生成调用的超时时间，超时后降级到模板报告
func WithGenTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		if d > 0 {
			g.genTimeout = d
		}
	}
}

// NewGenerator 创建一个新的报告生成器实例。
// llmModel 可以为nil，此时所有报告都使用确定性的降级模板。
func NewGenerator(llmModel model.ToolCallingChatModel, options ...GeneratorOption) *Generator {
	g := &Generator{
		llmModel:    llmModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		logger:      logger.Logger.With().Str("component", "ReportGenerator").Logger(),
	}

	// 应用选项
	for _, opt := range options {
		opt(g)
	}

	return g
}

// Generate 基于匹配结果生成自然语言报告。
// LLM不可用、调用失败或产出不符合结构要求时，降级到确定性模板，
// 因此该方法总是返回一份可用的报告。
func (g *Generator) Generate(ctx context.Context, result *types.MatchResult) string {
	if g.llmModel == nil {
		g.logger.Debug().Msg("未配置LLM，使用降级报告模板")
		return FallbackReport(result)
	}

	if g.genTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.genTimeout)
		defer cancel()
	}

	prompt := buildPrompt(result)
	messages := []*einoschema.Message{
		einoschema.SystemMessage("You are an expert career coach."),
		einoschema.UserMessage(prompt),
	}

	response, err := g.llmModel.Generate(ctx, messages,
		model.WithMaxTokens(g.maxTokens),
		model.WithTemperature(g.temperature),
	)
	if err != nil {
		g.logger.Warn().Err(err).Msg("LLM生成报告失败，使用降级模板")
		return FallbackReport(result)
	}
	if response == nil || response.Content == "" {
		g.logger.Warn().Msg("LLM返回空响应，使用降级模板")
		return FallbackReport(result)
	}

	// 去掉BOM和首尾空白
	reportText := strings.TrimSpace(strings.TrimPrefix(response.Content, "\uFEFF"))

	// 结构校验不通过时降级
	if !ValidateReport(reportText) {
		g.logger.Warn().Int("lines", len(strings.Split(reportText, "\n"))).Msg("LLM报告未通过结构校验，使用降级模板")
		return FallbackReport(result)
	}

	g.logger.Debug().Int("report_length", len(reportText)).Msg("LLM报告生成完成")
	return reportText
}

// ValidateReport 校验报告结构：至少10行且包含Overall Match与Recommendations标记
func ValidateReport(reportText string) bool {
	if len(strings.Split(reportText, "\n")) < minReportLines {
		return false
	}
	if !strings.Contains(reportText, requiredMarkOne) {
		return false
	}
	if !strings.Contains(reportText, requiredMarkTwo) {
		return false
	}
	return true
}

// buildPrompt 构建报告生成的Prompt
func buildPrompt(result *types.MatchResult) string {
	var sb strings.Builder

	sb.WriteString(`You are an expert career coach. Given the following resume-job match analysis, write a detailed, structured report for the candidate in the following format:

Title: Resume-Job Match Report

1. Overall Match:
   - Score: `)
	sb.WriteString(formatScore(result.OverallMatch))
	sb.WriteString(`%
   - Explanation: Explain what this score means for the candidate's fit for the job.

2. Category Scores:
   - Technical Skills: `)
	sb.WriteString(formatScore(result.CategoryScores.TechnicalSkills))
	sb.WriteString(`% (Explain this score)
   - Soft Skills: `)
	sb.WriteString(formatScore(result.CategoryScores.SoftSkills))
	sb.WriteString(`% (Explain this score)
   - Experience: `)
	sb.WriteString(formatScore(result.CategoryScores.Experience))
	sb.WriteString(`% (Explain this score)
   - Education: `)
	sb.WriteString(formatScore(result.CategoryScores.Education))
	sb.WriteString(`% (Explain this score)

3. Good Points / Strengths:
   - List the candidate's strengths and where they exceed requirements.

4. Shortcomings / Missing Skills:
   - List missing technical and soft skills, experience, or education.

5. Recommendations:
   - Provide actionable, specific suggestions for improvement.

6. Feedback:
   - Give a motivational, constructive paragraph to help the candidate improve their job fit.

Here is the analysis:
Overall Match: `)
	sb.WriteString(formatScore(result.OverallMatch))
	sb.WriteString("%\nCategory Scores: ")
	sb.WriteString(fmt.Sprintf("technical_skills=%s%%, soft_skills=%s%%, experience=%s%%, education=%s%%",
		formatScore(result.CategoryScores.TechnicalSkills),
		formatScore(result.CategoryScores.SoftSkills),
		formatScore(result.CategoryScores.Experience),
		formatScore(result.CategoryScores.Education)))
	sb.WriteString("\nMissing Skills: ")
	sb.WriteString(joinOrNone(result.MissingSkills))
	sb.WriteString("\nStrengths: ")
	sb.WriteString(joinOrNone(result.Strengths))
	sb.WriteString("\nRecommendations: ")
	sb.WriteString(bulletsOrNone(result.Recommendations))
	sb.WriteString("\n")

	return sb.String()
}

// formatScore 将分数格式化为一位小数
func formatScore(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// joinOrNone 逗号连接列表，空列表输出None
func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// bulletsOrNone 将列表格式化为项目符号行，空列表输出None
func bulletsOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
