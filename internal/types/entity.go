package types

// Entity 命名实体识别结果中的单个实体
type Entity struct {
	Text  string `json:"text"`  // 实体文本片段
	Label string `json:"label"` // 实体标签，例如 ORG / PRODUCT / PERSON
	Start int    `json:"start"` // 在原文中的起始偏移(字符)
	End   int    `json:"end"`   // 在原文中的结束偏移(字符)
}
