// Package matcher 计算简历与JD的多维匹配分数。
// 语义相似度来自文本向量的余弦相似度，其余维度基于抽取出的
// 技能集合、经验年限和学历关键词。
package matcher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ankurtiwari12/rjd-parser/internal/config"
	"github.com/ankurtiwari12/rjd-parser/internal/logger"
	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// VectorCache 缓存JD文本向量，避免对同一JD重复调用向量服务。
// 缓存记录携带模型版本，版本不一致时视为未命中。
type VectorCache interface {
	GetJDVector(ctx context.Context, jdHash string) ([]float64, string, error)
	SetJDVector(ctx context.Context, jdHash string, vector []float64, modelVersion string) error
}

// Matcher 匹配打分器
type Matcher struct {
	embedder     embedding.Embedder
	weights      config.WeightsConfig
	vectorCache  VectorCache
	modelVersion string
	logger       zerolog.Logger
}

// Option 打分器的配置选项
type Option func(*Matcher)

// WithWeights 设置自定义权重
func WithWeights(w config.WeightsConfig) Option {
	return func(m *Matcher) {
		m.weights = w
	}
}

// WithJDVectorCache 启用JD向量缓存。modelVersion用于校验缓存记录是否
// 由当前嵌入模型生成。
func WithJDVectorCache(cache VectorCache, modelVersion string) Option {
	return func(m *Matcher) {
		m.vectorCache = cache
		m.modelVersion = modelVersion
	}
}

// New 创建匹配打分器
func New(embedder embedding.Embedder, options ...Option) *Matcher {
	m := &Matcher{
		embedder: embedder,
		weights:  config.DefaultWeights(),
		logger:   logger.Logger.With().Str("component", "Matcher").Logger(),
	}

	for _, opt := range options {
		opt(m)
	}

	return m
}

// Match 计算简历与JD的匹配结果。
// 向量服务调用失败时返回错误，其余维度全部由本地规则计算。
func (m *Matcher) Match(
	ctx context.Context,
	resumeText, jdText string,
	resumeExtract, jdExtract *types.ExtractionResult,
) (*types.MatchResult, error) {
	// 语义相似度
	semanticScore, err := m.semanticScore(ctx, resumeText, jdText)
	if err != nil {
		return nil, err
	}

	// 技术技能
	resumeSkills := toSet(resumeExtract.Skills)
	jdSkills := toSet(jdExtract.Skills)
	techScore := setScore(resumeSkills, jdSkills)
	missingSkills := sortedDifference(jdSkills, resumeSkills)
	strengths := sortedIntersection(resumeSkills, jdSkills)

	// 软技能
	resumeSoft := toSet(resumeExtract.Entities.SoftSkills)
	jdSoft := toSet(jdExtract.Entities.SoftSkills)
	softScore := setScore(resumeSoft, jdSoft)
	missingSoft := sortedDifference(jdSoft, resumeSoft)

	// 证书
	resumeCert := toSet(resumeExtract.Entities.Certifications)
	jdCert := toSet(jdExtract.Entities.Certifications)
	certScore := setScore(resumeCert, jdCert)
	missingCert := sortedDifference(jdCert, resumeCert)

	// 经验年限
	resumeYears := extractYears(resumeText)
	jdYears := extractYears(jdText)
	expScore := experienceScore(resumeYears, jdYears)

	// 学历
	resumeDegree := hasDegree(resumeText)
	jdDegree := hasDegree(jdText)
	eduScore := educationScore(resumeDegree, jdDegree)

	// 加权总分使用未取整的维度分数
	weighted := m.weights.Semantic*semanticScore +
		m.weights.Technical*techScore +
		m.weights.Soft*softScore +
		m.weights.Experience*expScore +
		m.weights.Education*eduScore +
		m.weights.Certification*certScore

	result := &types.MatchResult{
		OverallMatch: roundScore(weighted),
		CategoryScores: types.CategoryScores{
			TechnicalSkills: roundScore(techScore),
			SoftSkills:      roundScore(softScore),
			Experience:      roundScore(expScore),
			Education:       roundScore(eduScore),
		},
		CertificationScore:   roundScore(certScore),
		MissingSkills:        missingSkills,
		Strengths:            strengths,
		Recommendations:      buildRecommendations(missingSkills, missingSoft, missingCert, resumeDegree, jdDegree, resumeYears, jdYears),
		SkillComparisonTable: buildComparisonTable(resumeSkills, jdSkills),
	}

	m.logger.Debug().
		Float64("overall_match", result.OverallMatch).
		Float64("semantic", semanticScore).
		Float64("technical", techScore).
		Int("missing_skills", len(missingSkills)).
		Msg("匹配打分完成")

	return result, nil
}

// semanticScore 计算两段文本的语义相似度分数(0-100)
func (m *Matcher) semanticScore(ctx context.Context, resumeText, jdText string) (float64, error) {
	if m.embedder == nil {
		return 0, nil
	}

	// JD向量优先走缓存，命中时只需要为简历文本计算向量
	if jdVector, ok := m.cachedJDVector(ctx, jdText); ok {
		vectors, err := m.embedder.EmbedStrings(ctx, []string{resumeText})
		if err != nil {
			return 0, fmt.Errorf("计算文本向量失败: %w", err)
		}
		if len(vectors) != 1 {
			return 0, fmt.Errorf("向量服务返回了%d个向量，期望1个", len(vectors))
		}
		return cosineSimilarity(vectors[0], jdVector) * 100, nil
	}

	vectors, err := m.embedder.EmbedStrings(ctx, []string{resumeText, jdText})
	if err != nil {
		return 0, fmt.Errorf("计算文本向量失败: %w", err)
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("向量服务返回了%d个向量，期望2个", len(vectors))
	}

	m.storeJDVector(ctx, jdText, vectors[1])
	return cosineSimilarity(vectors[0], vectors[1]) * 100, nil
}

// cachedJDVector 尝试从缓存获取JD向量，模型版本不匹配视为未命中
func (m *Matcher) cachedJDVector(ctx context.Context, jdText string) ([]float64, bool) {
	if m.vectorCache == nil {
		return nil, false
	}

	jdHash := textMD5(jdText)
	vector, cachedVersion, err := m.vectorCache.GetJDVector(ctx, jdHash)
	if err != nil {
		return nil, false
	}
	if len(vector) == 0 || cachedVersion != m.modelVersion {
		m.logger.Debug().
			Str("jd_hash", jdHash).
			Str("cached_version", cachedVersion).
			Str("current_version", m.modelVersion).
			Msg("JD向量缓存模型版本不匹配，重新计算")
		return nil, false
	}
	return vector, true
}

// storeJDVector 将JD向量写入缓存，失败只记录日志
func (m *Matcher) storeJDVector(ctx context.Context, jdText string, vector []float64) {
	if m.vectorCache == nil || len(vector) == 0 {
		return
	}
	jdHash := textMD5(jdText)
	if err := m.vectorCache.SetJDVector(ctx, jdHash, vector, m.modelVersion); err != nil {
		m.logger.Warn().Err(err).Str("jd_hash", jdHash).Msg("写入JD向量缓存失败")
	}
}

func textMD5(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// buildRecommendations 按固定顺序生成改进建议
func buildRecommendations(
	missingSkills, missingSoft, missingCert []string,
	resumeDegree, jdDegree bool,
	resumeYears, jdYears int,
) []string {
	recommendations := []string{}
	if len(missingSkills) > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Consider learning: %s.", strings.Join(missingSkills, ", ")))
	}
	if len(missingSoft) > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Develop soft skills: %s.", strings.Join(missingSoft, ", ")))
	}
	if len(missingCert) > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Certifications to pursue: %s.", strings.Join(missingCert, ", ")))
	}
	if !resumeDegree && jdDegree {
		recommendations = append(recommendations, "Consider obtaining the required degree.")
	}
	if resumeYears < jdYears {
		recommendations = append(recommendations, fmt.Sprintf("You have %d years experience, but %d required.", resumeYears, jdYears))
	}
	return recommendations
}

// buildComparisonTable 生成按技能字典序排列的对照表
func buildComparisonTable(resumeSkills, jdSkills map[string]bool) []types.SkillComparisonRow {
	union := make(map[string]bool, len(resumeSkills)+len(jdSkills))
	for skill := range resumeSkills {
		union[skill] = true
	}
	for skill := range jdSkills {
		union[skill] = true
	}

	allSkills := make([]string, 0, len(union))
	for skill := range union {
		allSkills = append(allSkills, skill)
	}
	sort.Strings(allSkills)

	table := make([]types.SkillComparisonRow, 0, len(allSkills))
	for _, skill := range allSkills {
		table = append(table, types.SkillComparisonRow{
			Skill:    skill,
			Required: jdSkills[skill],
			Present:  resumeSkills[skill],
		})
	}
	return table
}
