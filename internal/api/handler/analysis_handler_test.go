package handler

import (
	"context"
	"testing"

	"github.com/ankurtiwari12/rjd-parser/internal/config"
	"github.com/ankurtiwari12/rjd-parser/internal/report"
	"github.com/ankurtiwari12/rjd-parser/internal/storage"
	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newReportOnlyHandler 构造只具备报告生成能力的处理器，存储组件全部缺席
func newReportOnlyHandler() *AnalysisHandler {
	return NewAnalysisHandler(&config.Config{}, &storage.Storage{}, nil, nil, report.NewGenerator(nil))
}

func sampleInlineResult() *types.MatchResult {
	return &types.MatchResult{
		OverallMatch: 64.0,
		CategoryScores: types.CategoryScores{
			TechnicalSkills: 50.0,
			SoftSkills:      100.0,
			Experience:      40.0,
			Education:       100.0,
		},
		MissingSkills:   []string{"docker"},
		Strengths:       []string{"python"},
		Recommendations: []string{"Consider learning: docker."},
		SkillComparisonTable: []types.SkillComparisonRow{
			{Skill: "docker", Required: true, Present: false},
			{Skill: "python", Required: true, Present: true},
		},
	}
}

// TestHandleReportGenerateInlineResult 验证内联匹配结果无需落库记录即可生成报告
func TestHandleReportGenerateInlineResult(t *testing.T) {
	h := newReportOnlyHandler()

	resp, err := h.HandleReportGenerate(context.Background(), &ReportRequest{Result: sampleInlineResult()})
	require.NoError(t, err, "内联匹配结果应能直接生成报告")

	assert.NotEmpty(t, resp.ReportID)
	assert.Empty(t, resp.AnalysisID, "内联结果的报告不关联分析记录")
	assert.Contains(t, resp.ReportText, "1. Overall Match:")
	assert.Contains(t, resp.ReportText, "5. Recommendations:")
}

// TestHandleReportGenerateRequiresInput 验证既无analysis_id也无内联结果时报错
func TestHandleReportGenerateRequiresInput(t *testing.T) {
	h := newReportOnlyHandler()

	_, err := h.HandleReportGenerate(context.Background(), &ReportRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis_id")
}

// TestHandleReportGenerateAnalysisIDWithoutDB 验证数据库缺席时按ID查询明确报错
func TestHandleReportGenerateAnalysisIDWithoutDB(t *testing.T) {
	h := newReportOnlyHandler()

	_, err := h.HandleReportGenerate(context.Background(), &ReportRequest{AnalysisID: "some-id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "数据库未配置")
}

// TestHandleSkillExtractEmptyText 验证空文本直接报错
func TestHandleSkillExtractEmptyText(t *testing.T) {
	h := newReportOnlyHandler()

	_, err := h.HandleSkillExtract(context.Background(), "   ")
	require.Error(t, err)
}
