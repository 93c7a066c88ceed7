// Package taxonomy 定义技能匹配所用的固定词表。
// 三张词表在进程启动时加载，可经配置在启动阶段扩展，
// 开始处理请求后保持只读，可被并发访问。
package taxonomy

import "strings"

// TechSkills 技术技能规范词表
var TechSkills = []string{
	// 编程语言
	"python", "java", "c", "c++", "c#", "javascript", "typescript", "go", "ruby", "php",
	"swift", "kotlin", "scala", "rust", "perl", "matlab", "r", "objective-c", "bash",
	"shell", "powershell",
	// Web/前端
	"html", "css", "sass", "less", "react", "angular", "vue.js", "next.js", "nuxt.js",
	"redux", "jquery", "bootstrap", "tailwindcss", "material-ui",
	// 后端/框架
	"node.js", "express", "django", "flask", "spring", "spring boot", "dotnet", ".net",
	"laravel", "rails", "fastapi", "gin", "hapi", "symfony", "cakephp",
	// 数据库
	"mysql", "postgresql", "sqlite", "mongodb", "redis", "cassandra", "oracle", "mariadb",
	"dynamodb", "elasticsearch", "firebase", "couchdb", "neo4j",
	// 云/DevOps
	"aws", "azure", "gcp", "google cloud", "heroku", "docker", "kubernetes", "jenkins",
	"travis ci", "circleci", "gitlab ci", "terraform", "ansible", "puppet", "chef",
	"vagrant", "openshift", "cloudformation", "helm",
	// 数据/机器学习
	"pandas", "numpy", "scipy", "scikit-learn", "tensorflow", "keras", "pytorch",
	"matplotlib", "seaborn", "xgboost", "lightgbm", "nltk", "spacy", "opencv", "hadoop",
	"spark", "hive", "pig", "tableau", "power bi", "qlikview",
	// 工具/其他
	"git", "svn", "jira", "confluence", "slack", "trello", "microsoft office", "excel",
	"word", "powerpoint", "visio", "outlook", "figma", "adobe xd", "photoshop",
	"illustrator", "after effects", "premiere pro", "unity", "unreal engine", "blender",
	"autocad", "solidworks", "sap", "salesforce", "zoho", "hubspot", "mailchimp",
	"wordpress", "shopify", "magento", "woocommerce",
}

// SoftSkills 软技能规范词表
var SoftSkills = []string{
	"leadership", "communication", "teamwork", "problem solving", "adaptability",
	"creativity", "time management", "critical thinking", "collaboration", "initiative",
	"work ethic", "empathy", "conflict resolution", "negotiation", "public speaking",
	"presentation", "decision making", "organization", "attention to detail",
	"customer service", "emotional intelligence", "resilience", "stress management",
	"self-motivation", "accountability", "flexibility", "active listening", "mentoring",
	"coaching", "delegation", "influencing", "networking", "strategic thinking",
	"goal setting", "multitasking", "resourcefulness",
}

// Certifications 证书规范词表
var Certifications = []string{
	"aws certified", "pmp", "scrum master", "oracle certified", "microsoft certified",
	"gcp certified", "azure certified",
}

// DegreeKeywords 学历关键词，用于教育背景的二元判定（子串匹配，大小写不敏感）
var DegreeKeywords = []string{
	"bachelor", "master", "phd", "b.sc", "m.sc", "b.tech", "m.tech",
}

// Category 词表类别
type Category string

const (
	CategoryTechSkill     Category = "tech_skill"
	CategorySoftSkill     Category = "soft_skill"
	CategoryCertification Category = "certification"
)

// ByCategory 返回指定类别的词表，未知类别返回nil
func ByCategory(c Category) []string {
	switch c {
	case CategoryTechSkill:
		return TechSkills
	case CategorySoftSkill:
		return SoftSkills
	case CategoryCertification:
		return Certifications
	}
	return nil
}

// Known 判断类别是否为已知词表类别
func Known(c Category) bool {
	return ByCategory(c) != nil
}

// Extend 向指定类别的词表追加自定义条目。
// 条目统一转为小写并去掉首尾空白，已存在的条目被跳过。
// 只能在开始处理请求前调用，之后词表保持只读。
func Extend(c Category, terms []string) {
	switch c {
	case CategoryTechSkill:
		TechSkills = appendTerms(TechSkills, terms)
	case CategorySoftSkill:
		SoftSkills = appendTerms(SoftSkills, terms)
	case CategoryCertification:
		Certifications = appendTerms(Certifications, terms)
	}
}

// ExtendDegreeKeywords 追加学历关键词，约束与Extend相同
func ExtendDegreeKeywords(terms []string) {
	DegreeKeywords = appendTerms(DegreeKeywords, terms)
}

func appendTerms(existing []string, terms []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		existing = append(existing, t)
		seen[t] = true
	}
	return existing
}
