package extractor

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// DefaultFuzzyThreshold token_set_ratio 匹配的默认阈值
const DefaultFuzzyThreshold = 85

// FuzzySkillMatch 在文本中查找词表命中，匹配在两个粒度上进行：
//  1. 词表条目对整段文本做 token_set_ratio；
//  2. 文本的每个空白分隔token在词表中找最佳匹配。
//
// 两个方向的命中合并为一个去重集合。token_set_ratio 本身做小写归一，
// 因此匹配是大小写不敏感的。
func FuzzySkillMatch(text string, skillList []string, threshold int) []string {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}

	found := make(map[string]bool)

	// 词表条目对整段文本
	for _, skill := range skillList {
		if fuzzy.TokenSetRatio(skill, text) >= threshold {
			found[skill] = true
		}
	}

	// 文本token在词表中的最佳匹配
	for _, word := range strings.Fields(strings.ToLower(text)) {
		best, bestScore := "", -1
		for _, skill := range skillList {
			score := fuzzy.TokenSetRatio(word, skill)
			if score > bestScore {
				best, bestScore = skill, score
			}
		}
		if bestScore >= threshold {
			found[best] = true
		}
	}

	result := make([]string, 0, len(found))
	for skill := range found {
		result = append(result, skill)
	}
	return result
}
