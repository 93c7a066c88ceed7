package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// JDModulePrefix 职位描述模块
	JDModulePrefix = "jd"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"
	// AnalysisModulePrefix 匹配分析模块
	AnalysisModulePrefix = "analysis"

	// EntityVector 向量实体
	EntityVector = "vector"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"

	// KeyJDVector JD向量缓存 (HASH，字段: vector/model_version/dimension)
	// 格式: app:jd:vector:{jdHash}
	KeyJDVector = AppPrefix + ":" + JDModulePrefix + ":" + EntityVector + ":%s"

	// KeyFileMD5Set 上传文件MD5集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToSubmissionUUID MD5到SubmissionUUID的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}
	KeyFileMD5ToSubmissionUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"
)
