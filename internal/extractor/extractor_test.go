package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/ankurtiwari12/rjd-parser/internal/taxonomy"
	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecognizer 测试用NER模拟器
type fakeRecognizer struct {
	entities []types.Entity
	err      error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entities, nil
}

// TestFuzzySkillMatchExactToken 验证词表条目作为文本token出现时被命中
func TestFuzzySkillMatchExactToken(t *testing.T) {
	text := "I have experience with Python and Docker"
	found := FuzzySkillMatch(text, taxonomy.TechSkills, DefaultFuzzyThreshold)

	assert.Contains(t, found, "python", "大小写不敏感的token命中")
	assert.Contains(t, found, "docker")
}

// TestFuzzySkillMatchNoFalsePositive 验证相似但不同的词不会被误命中
func TestFuzzySkillMatchNoFalsePositive(t *testing.T) {
	found := FuzzySkillMatch("javascript developer", []string{"java"}, DefaultFuzzyThreshold)
	assert.NotContains(t, found, "java", "javascript不应命中java")
}

// TestFuzzySkillMatchMultiWordSkill 验证多词词表条目的全文匹配
func TestFuzzySkillMatchMultiWordSkill(t *testing.T) {
	text := "certified as an aws certified solutions architect"
	found := FuzzySkillMatch(text, taxonomy.Certifications, DefaultFuzzyThreshold)
	assert.Contains(t, found, "aws certified")
}

// TestExtractWithoutRecognizer 验证无NER时的纯词表抽取
func TestExtractWithoutRecognizer(t *testing.T) {
	e := New(nil)
	result := e.Extract(context.Background(), "Senior engineer skilled in Python, Kubernetes and teamwork")

	assert.Contains(t, result.Skills, "python")
	assert.Contains(t, result.Skills, "kubernetes")
	assert.Contains(t, result.Entities.SoftSkills, "teamwork")
	assert.Empty(t, result.Entities.Other)
}

// TestExtractOrgEntityRoutesToTechAndCert 验证ORG实体同时进入技术和证书词表匹配
func TestExtractOrgEntityRoutesToTechAndCert(t *testing.T) {
	recognizer := &fakeRecognizer{entities: []types.Entity{
		{Text: "AWS Certified", Label: "ORG"},
	}}
	e := New(recognizer)

	result := e.Extract(context.Background(), "holder of AWS Certified credentials")

	assert.Contains(t, result.Entities.Technologies, "aws")
	assert.Contains(t, result.Entities.Certifications, "aws certified")
}

// TestExtractPersonEntityRoutesToSoftSkills 验证PERSON实体进入软技能词表匹配
func TestExtractPersonEntityRoutesToSoftSkills(t *testing.T) {
	recognizer := &fakeRecognizer{entities: []types.Entity{
		{Text: "Leadership", Label: "PERSON"},
	}}
	e := New(recognizer)

	result := e.Extract(context.Background(), "demonstrated leadership qualities")
	assert.Contains(t, result.Entities.SoftSkills, "leadership")
}

// TestExtractUnknownLabelKeptVerbatim 验证未路由标签的实体原样进入other
func TestExtractUnknownLabelKeptVerbatim(t *testing.T) {
	recognizer := &fakeRecognizer{entities: []types.Entity{
		{Text: "Google LLC", Label: "GPE"},
	}}
	e := New(recognizer)

	result := e.Extract(context.Background(), "worked with various systems")
	assert.Contains(t, result.Entities.Other, "Google LLC", "未识别标签保留原始大小写文本")
}

// TestExtractDegradesOnNERFailure 验证NER失败时降级为纯词表匹配
func TestExtractDegradesOnNERFailure(t *testing.T) {
	recognizer := &fakeRecognizer{err: errors.New("connection refused")}
	e := New(recognizer)

	result := e.Extract(context.Background(), "Python developer with Redis experience")

	require.NotNil(t, result)
	assert.Contains(t, result.Skills, "python")
	assert.Contains(t, result.Skills, "redis")
}

// TestExtractResultIsNormalized 验证结果集合去重且按字典序排序
func TestExtractResultIsNormalized(t *testing.T) {
	recognizer := &fakeRecognizer{entities: []types.Entity{
		{Text: "Docker", Label: "PRODUCT"},
		{Text: "Docker", Label: "PRODUCT"},
	}}
	e := New(recognizer)

	result := e.Extract(context.Background(), "Docker and docker again, plus ansible")

	assert.Equal(t, []string{"docker"}, result.Entities.Technologies, "重复命中应被去重")
	assert.True(t, sortedStrings(result.Skills), "skills应按字典序排序")
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

// TestCustomThreshold 验证自定义阈值生效
func TestCustomThreshold(t *testing.T) {
	// 阈值100时只接受完全一致的token
	e := New(nil, WithFuzzyThreshold(100))
	result := e.Extract(context.Background(), "python")
	assert.Contains(t, result.Skills, "python")
}

// TestPolicyFromConfig 验证配置中的标签路由表转换规则
func TestPolicyFromConfig(t *testing.T) {
	policy := PolicyFromConfig(map[string][]string{
		"ORG":  {"tech_skill", "certification"},
		"MISC": {"not_a_category"},
	})

	require.NotNil(t, policy)
	assert.Equal(t, []taxonomy.Category{taxonomy.CategoryTechSkill, taxonomy.CategoryCertification}, policy["ORG"])
	_, hasMisc := policy["MISC"]
	assert.False(t, hasMisc, "只含未知类别的标签应被整体忽略")
}

// TestPolicyFromConfigEmpty 验证空或全无效的路由表返回nil以回退默认路由
func TestPolicyFromConfigEmpty(t *testing.T) {
	assert.Nil(t, PolicyFromConfig(nil))
	assert.Nil(t, PolicyFromConfig(map[string][]string{}))
	assert.Nil(t, PolicyFromConfig(map[string][]string{"ORG": {"bogus"}}))
}

// TestExtractWithConfiguredPolicy 验证配置路由接入抽取器后改变实体分类
func TestExtractWithConfiguredPolicy(t *testing.T) {
	policy := PolicyFromConfig(map[string][]string{"PRODUCT": {"certification"}})
	require.NotNil(t, policy)

	rec := &fakeRecognizer{entities: []types.Entity{{Text: "AWS Certified", Label: "PRODUCT"}}}
	e := New(rec, WithLabelPolicy(policy))

	result := e.Extract(context.Background(), "unrelated text")
	assert.Contains(t, result.Entities.Certifications, "aws certified")
	assert.Empty(t, result.Entities.Technologies, "PRODUCT不再路由到技术词表")
}
