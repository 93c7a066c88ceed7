package constants

import "time"

const (
	// Application-level constants
	DefaultModelVersion = "text-embedding-v3" // 向量缓存校验使用的默认模型版本

	// Storage-related constants
	JDVectorCacheDuration = 7 * 24 * time.Hour // JD向量缓存默认过期时间
	MD5RecordDuration     = 365 * 24 * time.Hour
)
