// Package extractor 从简历和JD文本中抽取技术技能、软技能和证书。
// 抽取结合两条路径：命名实体识别产出的实体片段，以及对全文和
// 逐token的词表模糊匹配，结果统一归一化为小写有序集合。
package extractor

import (
	"context"

	"github.com/ankurtiwari12/rjd-parser/internal/logger"
	"github.com/ankurtiwari12/rjd-parser/internal/parser"
	"github.com/ankurtiwari12/rjd-parser/internal/taxonomy"
	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/rs/zerolog"
)

// LabelPolicy 定义NER标签到词表类别的路由。
// 同一标签可以路由到多个类别：ORG 实体既可能是技术产品也可能是认证机构。
type LabelPolicy map[string][]taxonomy.Category

// DefaultLabelPolicy 默认标签路由
func DefaultLabelPolicy() LabelPolicy {
	return LabelPolicy{
		"ORG":     {taxonomy.CategoryTechSkill, taxonomy.CategoryCertification},
		"PRODUCT": {taxonomy.CategoryTechSkill},
		"PERSON":  {taxonomy.CategorySoftSkill},
	}
}

// PolicyFromConfig 将配置中的标签路由表转换为LabelPolicy。
// 类别名与词表类别一致(tech_skill/soft_skill/certification)，
// 未知类别名被忽略。没有任何有效路由时返回nil，调用方应继续使用默认路由。
func PolicyFromConfig(raw map[string][]string) LabelPolicy {
	if len(raw) == 0 {
		return nil
	}

	policy := LabelPolicy{}
	for label, names := range raw {
		var categories []taxonomy.Category
		for _, name := range names {
			c := taxonomy.Category(name)
			if taxonomy.Known(c) {
				categories = append(categories, c)
			}
		}
		if len(categories) > 0 {
			policy[label] = categories
		}
	}

	if len(policy) == 0 {
		return nil
	}
	return policy
}

// Extractor 技能抽取器
type Extractor struct {
	recognizer  parser.EntityRecognizer
	labelPolicy LabelPolicy
	threshold   int
	logger      zerolog.Logger
}

// Option 抽取器的配置选项
type Option func(*Extractor)

// WithFuzzyThreshold 设置模糊匹配阈值
func WithFuzzyThreshold(threshold int) Option {
	return func(e *Extractor) {
		if threshold > 0 {
			e.threshold = threshold
		}
	}
}

// WithLabelPolicy 设置自定义标签路由
func WithLabelPolicy(policy LabelPolicy) Option {
	return func(e *Extractor) {
		if policy != nil {
			e.labelPolicy = policy
		}
	}
}

// New 创建技能抽取器。
// recognizer 可以为nil，此时只做词表模糊匹配，不做实体识别。
func New(recognizer parser.EntityRecognizer, options ...Option) *Extractor {
	e := &Extractor{
		recognizer:  recognizer,
		labelPolicy: DefaultLabelPolicy(),
		threshold:   DefaultFuzzyThreshold,
		logger:      logger.Logger.With().Str("component", "Extractor").Logger(),
	}

	for _, opt := range options {
		opt(e)
	}

	return e
}

// Extract 从文本中抽取技能和实体。
// NER服务不可用时降级为纯词表匹配，不返回错误。
func (e *Extractor) Extract(ctx context.Context, text string) *types.ExtractionResult {
	result := types.NewExtractionResult()

	// 实体识别路径
	if e.recognizer != nil {
		entities, err := e.recognizer.Recognize(ctx, text)
		if err != nil {
			e.logger.Warn().Err(err).Msg("实体识别失败，降级为纯词表匹配")
		} else {
			e.classifyEntities(entities, result)
		}
	}

	// 全文词表匹配路径
	for _, skill := range FuzzySkillMatch(text, taxonomy.TechSkills, e.threshold) {
		result.Skills = append(result.Skills, skill)
	}
	for _, skill := range FuzzySkillMatch(text, taxonomy.SoftSkills, e.threshold) {
		result.Entities.SoftSkills = append(result.Entities.SoftSkills, skill)
	}
	for _, cert := range FuzzySkillMatch(text, taxonomy.Certifications, e.threshold) {
		result.Entities.Certifications = append(result.Entities.Certifications, cert)
	}

	result.Normalize()
	return result
}

// classifyEntities 按标签路由将实体片段匹配进对应词表类别
func (e *Extractor) classifyEntities(entities []types.Entity, result *types.ExtractionResult) {
	for _, ent := range entities {
		categories, known := e.labelPolicy[ent.Label]
		if !known {
			// 未路由的标签保留原始文本
			result.Entities.Other = append(result.Entities.Other, ent.Text)
			continue
		}

		for _, category := range categories {
			matches := FuzzySkillMatch(ent.Text, taxonomy.ByCategory(category), e.threshold)
			switch category {
			case taxonomy.CategoryTechSkill:
				result.Entities.Technologies = append(result.Entities.Technologies, matches...)
			case taxonomy.CategorySoftSkill:
				result.Entities.SoftSkills = append(result.Entities.SoftSkills, matches...)
			case taxonomy.CategoryCertification:
				result.Entities.Certifications = append(result.Entities.Certifications, matches...)
			}
		}
	}
}
