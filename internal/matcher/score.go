package matcher

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ankurtiwari12/rjd-parser/internal/taxonomy"
)

// yearsPattern 匹配"N years"形式的经验年限表述
var yearsPattern = regexp.MustCompile(`(\d+)\s+years?`)

// roundScore 分数统一保留一位小数
func roundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

// setScore 集合重合度打分: |交集|/max(1,|目标集|)*100，目标集为空时得0分
func setScore(resume, jd map[string]bool) float64 {
	if len(jd) == 0 {
		return 0
	}
	matched := 0
	for item := range jd {
		if resume[item] {
			matched++
		}
	}
	return float64(matched) / float64(max(1, len(jd))) * 100
}

// toSet 切片转集合
func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// sortedDifference 返回 a-b 的有序切片
func sortedDifference(a, b map[string]bool) []string {
	var out []string
	for item := range a {
		if !b[item] {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

// sortedIntersection 返回 a∩b 的有序切片
func sortedIntersection(a, b map[string]bool) []string {
	var out []string
	for item := range a {
		if b[item] {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

// extractYears 提取文本中第一处"N years"的年限，未出现时返回0
func extractYears(text string) int {
	m := yearsPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0
	}
	years, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return years
}

// experienceScore 经验年限打分: min(100, 简历年限/max(1,JD年限)*100)，JD未要求年限时得0分
func experienceScore(resumeYears, jdYears int) float64 {
	if jdYears == 0 {
		return 0
	}
	return math.Min(100, float64(resumeYears)/float64(max(1, jdYears))*100)
}

// hasDegree 判断文本是否出现学历关键词(子串匹配，大小写不敏感)
func hasDegree(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range taxonomy.DegreeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// educationScore 学历打分: 双方学历关键词出现情况一致得100分，否则0分
func educationScore(resumeDegree, jdDegree bool) float64 {
	if resumeDegree == jdDegree {
		return 100
	}
	return 0
}

// cosineSimilarity 余弦相似度，结果截断到[0,1]区间。
// 任一向量为零向量时返回0。
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
