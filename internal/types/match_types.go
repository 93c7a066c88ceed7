package types

import "sort"

// EntityBag 按类别分桶的命名实体集合。
// technologies / certifications / soft_skills 中的成员一定是词表里的规范词条，
// other 中保留未能归类的原始实体文本。
type EntityBag struct {
	Technologies   []string `json:"technologies"`
	Certifications []string `json:"certifications"`
	SoftSkills     []string `json:"soft_skills"`
	Other          []string `json:"other"`
}

// ExtractionResult 单份文档的技能/实体提取结果
type ExtractionResult struct {
	// 全文中检出的规范技术技能词条
	Skills []string `json:"skills"`

	// NER实体经词表归一化后的分桶结果
	Entities EntityBag `json:"entities"`
}

// NewExtractionResult 返回各集合均已初始化为空的提取结果
func NewExtractionResult() *ExtractionResult {
	return &ExtractionResult{
		Skills: []string{},
		Entities: EntityBag{
			Technologies:   []string{},
			Certifications: []string{},
			SoftSkills:     []string{},
			Other:          []string{},
		},
	}
}

// Normalize 对所有集合去重并按字典序排序，保证序列化输出稳定
func (r *ExtractionResult) Normalize() {
	r.Skills = dedupeSorted(r.Skills)
	r.Entities.Technologies = dedupeSorted(r.Entities.Technologies)
	r.Entities.Certifications = dedupeSorted(r.Entities.Certifications)
	r.Entities.SoftSkills = dedupeSorted(r.Entities.SoftSkills)
	r.Entities.Other = dedupeSorted(r.Entities.Other)
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// CategoryScores 各类别的百分制子分数，输出时保留1位小数
type CategoryScores struct {
	TechnicalSkills float64 `json:"technical_skills"`
	SoftSkills      float64 `json:"soft_skills"`
	Experience      float64 `json:"experience"`
	Education       float64 `json:"education"`
}

// SkillComparisonRow 技能对照表的一行：该技能是否为JD要求、简历是否具备
type SkillComparisonRow struct {
	Skill    string `json:"skill"`
	Required bool   `json:"required"`
	Present  bool   `json:"present"`
}

// MatchResult 简历与JD的匹配评分结果
type MatchResult struct {
	// 加权综合分 (0-100)
	OverallMatch float64 `json:"overall_match"`

	// 各类别子分数
	CategoryScores CategoryScores `json:"category_scores"`

	// 证书子分数。默认不参与综合加权，仅作参考输出
	CertificationScore float64 `json:"certification_score"`

	// JD要求但简历缺失的技术技能（字典序）
	MissingSkills []string `json:"missing_skills"`

	// JD要求且简历具备的技术技能（字典序）
	Strengths []string `json:"strengths"`

	// 按固定顺序触发的改进建议：技能→软技能→证书→学历→经验
	Recommendations []string `json:"recommendations"`

	// 技术技能全集（简历∪JD）的逐项对照，按技能名字典序
	SkillComparisonTable []SkillComparisonRow `json:"skill_comparison_table"`
}
