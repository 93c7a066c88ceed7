package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder 测试用向量服务模拟器，按调用顺序返回预设向量
type fakeEmbedder struct {
	vectors [][]float64
	err     error
	calls   [][]string
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.vectors) > len(texts) {
		return f.vectors[:len(texts)], nil
	}
	return f.vectors, nil
}

// fakeVectorCache 测试用JD向量缓存
type fakeVectorCache struct {
	vectors  map[string][]float64
	versions map[string]string
}

func newFakeVectorCache() *fakeVectorCache {
	return &fakeVectorCache{
		vectors:  make(map[string][]float64),
		versions: make(map[string]string),
	}
}

func (f *fakeVectorCache) GetJDVector(ctx context.Context, jdHash string) ([]float64, string, error) {
	vector, ok := f.vectors[jdHash]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return vector, f.versions[jdHash], nil
}

func (f *fakeVectorCache) SetJDVector(ctx context.Context, jdHash string, vector []float64, modelVersion string) error {
	f.vectors[jdHash] = vector
	f.versions[jdHash] = modelVersion
	return nil
}

// extractionWith 构造测试用抽取结果
func extractionWith(skills, soft, certs []string) *types.ExtractionResult {
	r := types.NewExtractionResult()
	r.Skills = skills
	r.Entities.SoftSkills = soft
	r.Entities.Certifications = certs
	r.Normalize()
	return r
}

// TestSetScoreFullMatch 验证技能集合完全覆盖时得100分
func TestSetScoreFullMatch(t *testing.T) {
	resume := toSet([]string{"python", "sql"})
	jd := toSet([]string{"python", "sql"})
	assert.Equal(t, 100.0, setScore(resume, jd))
}

// TestSetScoreEmptyJD 验证JD侧集合为空时得0分
func TestSetScoreEmptyJD(t *testing.T) {
	resume := toSet([]string{"python"})
	assert.Equal(t, 0.0, setScore(resume, map[string]bool{}))
}

// TestExtractYears 验证经验年限提取取首个匹配
func TestExtractYears(t *testing.T) {
	assert.Equal(t, 3, extractYears("I have 3 years of experience and later 7 years elsewhere"))
	assert.Equal(t, 5, extractYears("Requires 5 Years experience"))
	assert.Equal(t, 1, extractYears("1 year in backend development"))
	assert.Equal(t, 0, extractYears("fresh graduate"))
}

// TestExperienceScore 验证经验打分的封顶和JD未要求时的0分
func TestExperienceScore(t *testing.T) {
	assert.Equal(t, 60.0, experienceScore(3, 5))
	assert.Equal(t, 100.0, experienceScore(8, 5), "超出要求封顶100")
	assert.Equal(t, 0.0, experienceScore(3, 0), "JD未要求年限时得0分")
}

// TestHasDegree 验证学历关键词判定
func TestHasDegree(t *testing.T) {
	assert.True(t, hasDegree("Bachelor of Science in CS"))
	assert.True(t, hasDegree("holds a B.Tech degree"))
	assert.False(t, hasDegree("self-taught developer"))
}

// TestEducationScore 验证一致性二元打分
func TestEducationScore(t *testing.T) {
	assert.Equal(t, 100.0, educationScore(true, true))
	assert.Equal(t, 100.0, educationScore(false, false), "双方都未出现学历关键词也算一致")
	assert.Equal(t, 0.0, educationScore(false, true))
}

// TestCosineSimilarityClamped 验证余弦相似度截断到[0,1]
func TestCosineSimilarityClamped(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), "负相似度截断为0")
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0}, []float64{1, 0}), "零向量得0")
	assert.Equal(t, 0.0, cosineSimilarity([]float64{1}, []float64{1, 0}), "维度不一致得0")
}

// TestMatchEndToEnd 用固定向量验证完整打分流程
func TestMatchEndToEnd(t *testing.T) {
	// 两个相同向量 -> 语义相似度100
	embedder := &fakeEmbedder{vectors: [][]float64{{0.6, 0.8}, {0.6, 0.8}}}
	m := New(embedder)

	resumeText := "Bachelor graduate with 3 years experience in Python"
	jdText := "Requires bachelor degree and 5 years experience with Python and SQL"

	resumeExtract := extractionWith([]string{"python"}, []string{"communication"}, nil)
	jdExtract := extractionWith([]string{"python", "sql"}, []string{"communication"}, nil)

	result, err := m.Match(context.Background(), resumeText, jdText, resumeExtract, jdExtract)
	require.NoError(t, err)

	assert.Equal(t, 50.0, result.CategoryScores.TechnicalSkills, "1/2技能命中")
	assert.Equal(t, 100.0, result.CategoryScores.SoftSkills)
	assert.Equal(t, 60.0, result.CategoryScores.Experience, "3年对5年要求")
	assert.Equal(t, 100.0, result.CategoryScores.Education, "双方都有学历关键词")

	// 0.4*100 + 0.3*50 + 0.1*100 + 0.1*60 + 0.1*100 = 81.0
	assert.Equal(t, 81.0, result.OverallMatch)

	assert.Equal(t, []string{"sql"}, result.MissingSkills)
	assert.Equal(t, []string{"python"}, result.Strengths)
	require.NotEmpty(t, result.Recommendations)
	assert.Equal(t, "Consider learning: sql.", result.Recommendations[0])
	assert.Contains(t, result.Recommendations, "You have 3 years experience, but 5 required.")

	// 对照表按字典序覆盖并集
	require.Len(t, result.SkillComparisonTable, 2)
	assert.Equal(t, types.SkillComparisonRow{Skill: "python", Required: true, Present: true}, result.SkillComparisonTable[0])
	assert.Equal(t, types.SkillComparisonRow{Skill: "sql", Required: true, Present: false}, result.SkillComparisonTable[1])
}

// TestMatchRecommendationOrder 验证建议的固定顺序
func TestMatchRecommendationOrder(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float64{{1, 0}, {1, 0}}}
	m := New(embedder)

	resumeText := "2 years experience"                                       // 无学历关键词
	jdText := "Requires master degree and 5 years experience with aws certified staff" // 有学历关键词

	resumeExtract := extractionWith(nil, nil, nil)
	jdExtract := extractionWith([]string{"kubernetes", "docker"}, []string{"leadership"}, []string{"aws certified"})

	result, err := m.Match(context.Background(), resumeText, jdText, resumeExtract, jdExtract)
	require.NoError(t, err)

	require.Len(t, result.Recommendations, 5)
	assert.Equal(t, "Consider learning: docker, kubernetes.", result.Recommendations[0], "缺失技能按字典序")
	assert.Equal(t, "Develop soft skills: leadership.", result.Recommendations[1])
	assert.Equal(t, "Certifications to pursue: aws certified.", result.Recommendations[2])
	assert.Equal(t, "Consider obtaining the required degree.", result.Recommendations[3])
	assert.Equal(t, "You have 2 years experience, but 5 required.", result.Recommendations[4])
}

// TestMatchEmbedderFailure 验证向量服务失败时返回错误
func TestMatchEmbedderFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("service unavailable")}
	m := New(embedder)

	_, err := m.Match(context.Background(), "a", "b", types.NewExtractionResult(), types.NewExtractionResult())
	require.Error(t, err)
}

// TestMatchJDVectorCacheHit 验证缓存命中时只为简历文本计算向量
func TestMatchJDVectorCacheHit(t *testing.T) {
	jdText := "Requires Python"
	cache := newFakeVectorCache()
	require.NoError(t, cache.SetJDVector(context.Background(), textMD5(jdText), []float64{0.6, 0.8}, "text-embedding-v3"))

	embedder := &fakeEmbedder{vectors: [][]float64{{0.6, 0.8}}}
	m := New(embedder, WithJDVectorCache(cache, "text-embedding-v3"))

	result, err := m.Match(context.Background(), "Python developer", jdText,
		extractionWith([]string{"python"}, nil, nil),
		extractionWith([]string{"python"}, nil, nil))
	require.NoError(t, err)

	require.Len(t, embedder.calls, 1)
	assert.Len(t, embedder.calls[0], 1, "缓存命中时只嵌入简历文本")
	// 0.4*100 + 0.3*100 + 0.1*100(双方无学历关键词) = 80.0
	assert.Equal(t, 80.0, result.OverallMatch)
}

// TestMatchJDVectorCacheMissStores 验证缓存未命中时写入JD向量
func TestMatchJDVectorCacheMissStores(t *testing.T) {
	jdText := "Requires Python"
	cache := newFakeVectorCache()

	embedder := &fakeEmbedder{vectors: [][]float64{{0.6, 0.8}, {0.8, 0.6}}}
	m := New(embedder, WithJDVectorCache(cache, "text-embedding-v3"))

	_, err := m.Match(context.Background(), "Python developer", jdText,
		extractionWith(nil, nil, nil), extractionWith(nil, nil, nil))
	require.NoError(t, err)

	require.Len(t, embedder.calls, 1)
	assert.Len(t, embedder.calls[0], 2)
	assert.Equal(t, []float64{0.8, 0.6}, cache.vectors[textMD5(jdText)])
	assert.Equal(t, "text-embedding-v3", cache.versions[textMD5(jdText)])
}

// TestMatchJDVectorCacheVersionMismatch 验证模型版本不一致时重新计算并覆盖缓存
func TestMatchJDVectorCacheVersionMismatch(t *testing.T) {
	jdText := "Requires Python"
	cache := newFakeVectorCache()
	require.NoError(t, cache.SetJDVector(context.Background(), textMD5(jdText), []float64{1, 0}, "text-embedding-v1"))

	embedder := &fakeEmbedder{vectors: [][]float64{{0.6, 0.8}, {0.8, 0.6}}}
	m := New(embedder, WithJDVectorCache(cache, "text-embedding-v3"))

	_, err := m.Match(context.Background(), "Python developer", jdText,
		extractionWith(nil, nil, nil), extractionWith(nil, nil, nil))
	require.NoError(t, err)

	require.Len(t, embedder.calls, 1)
	assert.Len(t, embedder.calls[0], 2, "版本不一致需要重新嵌入两段文本")
	assert.Equal(t, "text-embedding-v3", cache.versions[textMD5(jdText)])
}

// TestMatchWithoutEmbedder 验证未配置向量服务时语义分记0
func TestMatchWithoutEmbedder(t *testing.T) {
	m := New(nil)

	resumeExtract := extractionWith([]string{"python"}, nil, nil)
	jdExtract := extractionWith([]string{"python"}, nil, nil)

	result, err := m.Match(context.Background(), "text", "text", resumeExtract, jdExtract)
	require.NoError(t, err)

	// 0.4*0 + 0.3*100 + 0.1*0 + 0.1*0 + 0.1*100(双方无学历关键词，一致) = 40.0
	assert.Equal(t, 40.0, result.OverallMatch)
}
