package taxonomy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyEntriesAreLowercase(t *testing.T) {
	for _, list := range [][]string{TechSkills, SoftSkills, Certifications, DegreeKeywords} {
		for _, term := range list {
			assert.Equal(t, strings.ToLower(term), term, "词表条目应全部小写: %s", term)
		}
	}
}

func TestTaxonomyNoDuplicates(t *testing.T) {
	check := func(name string, list []string) {
		seen := make(map[string]bool, len(list))
		for _, term := range list {
			assert.False(t, seen[term], "%s 中出现重复条目: %s", name, term)
			seen[term] = true
		}
	}
	check("TechSkills", TechSkills)
	check("SoftSkills", SoftSkills)
	check("Certifications", Certifications)
}

func TestByCategory(t *testing.T) {
	assert.Equal(t, len(TechSkills), len(ByCategory(CategoryTechSkill)))
	assert.Equal(t, len(SoftSkills), len(ByCategory(CategorySoftSkill)))
	assert.Equal(t, len(Certifications), len(ByCategory(CategoryCertification)))
	assert.Nil(t, ByCategory("unknown"))
}

func TestTaxonomyContainsCoreTerms(t *testing.T) {
	assert.Contains(t, TechSkills, "python")
	assert.Contains(t, TechSkills, "kubernetes")
	assert.Contains(t, SoftSkills, "communication")
	assert.Contains(t, Certifications, "aws certified")
	assert.Contains(t, DegreeKeywords, "bachelor")
}

// TestExtendNormalizesAndDeduplicates 验证词表扩展条目被小写化、去空白并跳过已存在项
func TestExtendNormalizesAndDeduplicates(t *testing.T) {
	before := len(TechSkills)
	Extend(CategoryTechSkill, []string{" GraphQL ", "python", "", "graphql"})

	assert.Equal(t, before+1, len(TechSkills), "只有graphql是新条目")
	assert.Contains(t, TechSkills, "graphql")
	assert.True(t, Known(CategoryTechSkill))
	assert.False(t, Known("unknown"))
}

func TestExtendDegreeKeywords(t *testing.T) {
	before := len(DegreeKeywords)
	ExtendDegreeKeywords([]string{"Diploma", "bachelor"})

	assert.Equal(t, before+1, len(DegreeKeywords))
	assert.Contains(t, DegreeKeywords, "diploma")
}
