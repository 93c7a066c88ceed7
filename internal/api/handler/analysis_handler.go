package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ankurtiwari12/rjd-parser/internal/config"
	"github.com/ankurtiwari12/rjd-parser/internal/extractor"
	"github.com/ankurtiwari12/rjd-parser/internal/logger"
	"github.com/ankurtiwari12/rjd-parser/internal/matcher"
	"github.com/ankurtiwari12/rjd-parser/internal/report"
	"github.com/ankurtiwari12/rjd-parser/internal/storage"
	"github.com/ankurtiwari12/rjd-parser/internal/storage/models"
	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/google/uuid"
)

// 报告预签名URL有效期
const reportURLExpiry = 24 * time.Hour

// AnalysisHandler 匹配分析处理器，负责技能抽取、打分和报告生成的协调
type AnalysisHandler struct {
	cfg       *config.Config
	storage   *storage.Storage
	extractor *extractor.Extractor
	matcher   *matcher.Matcher
	reportGen *report.Generator
}

// NewAnalysisHandler 创建匹配分析处理器
func NewAnalysisHandler(
	cfg *config.Config,
	storage *storage.Storage,
	skillExtractor *extractor.Extractor,
	skillMatcher *matcher.Matcher,
	reportGen *report.Generator,
) *AnalysisHandler {
	return &AnalysisHandler{
		cfg:       cfg,
		storage:   storage,
		extractor: skillExtractor,
		matcher:   skillMatcher,
		reportGen: reportGen,
	}
}

// SkillExtractResponse 技能抽取响应
type SkillExtractResponse struct {
	Skills   []string        `json:"skills"`
	Entities types.EntityBag `json:"entities"`
}

// HandleSkillExtract 对一段文本执行技能抽取
func (h *AnalysisHandler) HandleSkillExtract(ctx context.Context, text string) (*SkillExtractResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("文本不能为空")
	}

	result := h.extractor.Extract(ctx, text)
	return &SkillExtractResponse{
		Skills:   result.Skills,
		Entities: result.Entities,
	}, nil
}

// MatchRequest 匹配请求，文本可以内联提供或引用已上传的提交
type MatchRequest struct {
	ResumeSubmissionUUID string `json:"resume_submission_uuid"`
	JDSubmissionUUID     string `json:"jd_submission_uuid"`
	ResumeText           string `json:"resume_text"`
	JDText               string `json:"jd_text"`
}

// MatchResponse 匹配响应
type MatchResponse struct {
	AnalysisID string             `json:"analysis_id,omitempty"`
	Result     *types.MatchResult `json:"result"`
}

// HandleMatch 执行简历与JD的完整匹配流程。
// 两段文本分别抽取技能后打分；当双方都来自已上传的提交时，结果会落库。
func (h *AnalysisHandler) HandleMatch(ctx context.Context, req *MatchRequest) (*MatchResponse, error) {
	resumeText, err := h.resolveText(ctx, req.ResumeSubmissionUUID, req.ResumeText, models.DocTypeResume)
	if err != nil {
		return nil, err
	}
	jdText, err := h.resolveText(ctx, req.JDSubmissionUUID, req.JDText, models.DocTypeJobDescription)
	if err != nil {
		return nil, err
	}

	resumeExtract := h.extractor.Extract(ctx, resumeText)
	jdExtract := h.extractor.Extract(ctx, jdText)

	result, err := h.matcher.Match(ctx, resumeText, jdText, resumeExtract, jdExtract)
	if err != nil {
		return nil, fmt.Errorf("匹配打分失败: %w", err)
	}

	resp := &MatchResponse{Result: result}

	// 只有双方都来自已上传的提交时才落库，内联文本的匹配是一次性的
	if req.ResumeSubmissionUUID != "" && req.JDSubmissionUUID != "" {
		analysis, err := h.buildAnalysisRecord(req.ResumeSubmissionUUID, req.JDSubmissionUUID, result)
		if err != nil {
			return nil, err
		}
		if err := h.storage.MySQL.CreateAnalysis(ctx, analysis); err != nil {
			return nil, fmt.Errorf("保存分析结果失败: %w", err)
		}
		resp.AnalysisID = analysis.AnalysisID

		logger.Info().
			Str("analysis_id", analysis.AnalysisID).
			Float64("overall_match", result.OverallMatch).
			Msg("匹配分析已保存")
	}

	return resp, nil
}

// ReportRequest 报告生成请求。
// 匹配结果可以内联提供，也可以引用一条已保存的分析记录；
// 两者都给出时内联结果优先。
type ReportRequest struct {
	AnalysisID string             `json:"analysis_id,omitempty"`
	Result     *types.MatchResult `json:"result,omitempty"`
}

// ReportResponse 报告生成响应
type ReportResponse struct {
	ReportID   string `json:"report_id"`
	AnalysisID string `json:"analysis_id"`
	ReportText string `json:"report_text"`
	PDFURL     string `json:"pdf_url,omitempty"`
}

// HandleReportGenerate 为一次匹配分析生成自然语言报告和PDF。
// 分析结果来自请求内联的匹配结果或已保存的分析记录。
// LLM生成失败或输出不合格时自动降级为结构化报告，不会返回空报告。
func (h *AnalysisHandler) HandleReportGenerate(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	result, err := h.resolveMatchResult(ctx, req)
	if err != nil {
		return nil, err
	}

	reportText := h.reportGen.Generate(ctx, result)
	usedFallback := reportText == report.FallbackReport(result)

	reportID := uuid.NewString()

	resp := &ReportResponse{
		ReportID:   reportID,
		AnalysisID: req.AnalysisID,
		ReportText: reportText,
	}

	reportRecord := &models.Report{
		ReportID:     reportID,
		AnalysisID:   req.AnalysisID,
		ReportText:   reportText,
		ModelName:    h.cfg.Report.ModelName,
		UsedFallback: usedFallback,
	}

	// 渲染并上传PDF，PDF失败不影响文本报告的返回
	pdfBytes, err := report.RenderPDF(reportText, result.SkillComparisonTable)
	if err != nil {
		logger.Warn().Err(err).Str("report_id", reportID).Msg("渲染报告PDF失败")
	} else if h.storage.MinIO != nil {
		objectKey, err := h.storage.MinIO.UploadReportPDF(ctx, reportID, pdfBytes)
		if err != nil {
			logger.Warn().Err(err).Str("report_id", reportID).Msg("上传报告PDF失败")
		} else {
			reportRecord.PDFPathOSS = objectKey
			pdfURL, err := h.storage.MinIO.GetReportPresignedURL(ctx, objectKey, reportURLExpiry)
			if err != nil {
				logger.Warn().Err(err).Str("object_key", objectKey).Msg("生成报告PDF下载链接失败")
			} else {
				resp.PDFURL = pdfURL
			}
		}
	}

	if h.storage.MySQL != nil {
		if err := h.storage.MySQL.CreateReport(ctx, reportRecord); err != nil {
			return nil, fmt.Errorf("保存报告记录失败: %w", err)
		}
	}

	logger.Info().
		Str("report_id", reportID).
		Str("analysis_id", req.AnalysisID).
		Bool("used_fallback", usedFallback).
		Msg("报告生成完成")

	return resp, nil
}

// resolveMatchResult 解析报告请求中的匹配结果来源：内联结果优先，其次查分析记录
func (h *AnalysisHandler) resolveMatchResult(ctx context.Context, req *ReportRequest) (*types.MatchResult, error) {
	if req.Result != nil {
		return req.Result, nil
	}
	if req.AnalysisID == "" {
		return nil, fmt.Errorf("必须提供analysis_id或内联的匹配结果")
	}
	if h.storage.MySQL == nil {
		return nil, fmt.Errorf("数据库未配置，无法按analysis_id查询分析记录")
	}

	analysis, err := h.storage.MySQL.GetAnalysisByID(ctx, req.AnalysisID)
	if err != nil {
		return nil, fmt.Errorf("查询分析记录失败: %w", err)
	}

	result, err := restoreMatchResult(analysis)
	if err != nil {
		return nil, fmt.Errorf("还原分析结果失败: %w", err)
	}
	return result, nil
}

// HandleReportDownload 获取已生成报告的PDF下载链接
func (h *AnalysisHandler) HandleReportDownload(ctx context.Context, reportID string) (string, error) {
	reportRecord, err := h.storage.MySQL.GetReportByID(ctx, reportID)
	if err != nil {
		return "", fmt.Errorf("查询报告记录失败: %w", err)
	}
	if reportRecord.PDFPathOSS == "" {
		return "", fmt.Errorf("报告 %s 没有关联的PDF", reportID)
	}
	return h.storage.MinIO.GetReportPresignedURL(ctx, reportRecord.PDFPathOSS, reportURLExpiry)
}

// resolveText 解析请求中的文本来源：内联文本优先，其次查提交记录
func (h *AnalysisHandler) resolveText(ctx context.Context, submissionUUID, inlineText, expectedDocType string) (string, error) {
	if inlineText != "" {
		return inlineText, nil
	}
	if submissionUUID == "" {
		return "", fmt.Errorf("必须提供%s的文本或submission_uuid", expectedDocType)
	}

	submission, err := h.storage.MySQL.GetSubmissionByUUID(ctx, submissionUUID)
	if err != nil {
		return "", fmt.Errorf("查询提交 %s 失败: %w", submissionUUID, err)
	}
	if submission.DocType != expectedDocType {
		return "", fmt.Errorf("提交 %s 的类型是%s，期望%s", submissionUUID, submission.DocType, expectedDocType)
	}
	if submission.Status != models.SubmissionStatusExtracted || submission.ExtractedText == "" {
		return "", fmt.Errorf("提交 %s 的文本尚不可用，当前状态: %s", submissionUUID, submission.Status)
	}
	return submission.ExtractedText, nil
}

// buildAnalysisRecord 将匹配结果序列化为数据库记录
func (h *AnalysisHandler) buildAnalysisRecord(resumeUUID, jdUUID string, result *types.MatchResult) (*models.Analysis, error) {
	categoryScores, err := models.ToJSON(result.CategoryScores)
	if err != nil {
		return nil, fmt.Errorf("序列化分类分数失败: %w", err)
	}
	missingSkills, err := models.ToJSON(result.MissingSkills)
	if err != nil {
		return nil, fmt.Errorf("序列化缺失技能失败: %w", err)
	}
	strengths, err := models.ToJSON(result.Strengths)
	if err != nil {
		return nil, fmt.Errorf("序列化优势技能失败: %w", err)
	}
	recommendations, err := models.ToJSON(result.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("序列化改进建议失败: %w", err)
	}
	comparisonTable, err := models.ToJSON(result.SkillComparisonTable)
	if err != nil {
		return nil, fmt.Errorf("序列化技能对照表失败: %w", err)
	}

	return &models.Analysis{
		ResumeSubmissionUUID: resumeUUID,
		JDSubmissionUUID:     jdUUID,
		OverallMatch:         result.OverallMatch,
		CertificationScore:   result.CertificationScore,
		CategoryScoresJSON:   categoryScores,
		MissingSkillsJSON:    missingSkills,
		StrengthsJSON:        strengths,
		RecommendationsJSON:  recommendations,
		ComparisonTableJSON:  comparisonTable,
	}, nil
}

// restoreMatchResult 从数据库记录还原匹配结果
func restoreMatchResult(analysis *models.Analysis) (*types.MatchResult, error) {
	result := &types.MatchResult{
		OverallMatch:       analysis.OverallMatch,
		CertificationScore: analysis.CertificationScore,
	}

	if len(analysis.CategoryScoresJSON) > 0 {
		if err := json.Unmarshal(analysis.CategoryScoresJSON, &result.CategoryScores); err != nil {
			return nil, fmt.Errorf("解析分类分数失败: %w", err)
		}
	}
	if len(analysis.MissingSkillsJSON) > 0 {
		if err := json.Unmarshal(analysis.MissingSkillsJSON, &result.MissingSkills); err != nil {
			return nil, fmt.Errorf("解析缺失技能失败: %w", err)
		}
	}
	if len(analysis.StrengthsJSON) > 0 {
		if err := json.Unmarshal(analysis.StrengthsJSON, &result.Strengths); err != nil {
			return nil, fmt.Errorf("解析优势技能失败: %w", err)
		}
	}
	if len(analysis.RecommendationsJSON) > 0 {
		if err := json.Unmarshal(analysis.RecommendationsJSON, &result.Recommendations); err != nil {
			return nil, fmt.Errorf("解析改进建议失败: %w", err)
		}
	}
	if len(analysis.ComparisonTableJSON) > 0 {
		if err := json.Unmarshal(analysis.ComparisonTableJSON, &result.SkillComparisonTable); err != nil {
			return nil, fmt.Errorf("解析技能对照表失败: %w", err)
		}
	}

	return result, nil
}
