package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// 文档类型常量
const (
	DocTypeResume         = "RESUME"
	DocTypeJobDescription = "JOB_DESCRIPTION"
)

// 提交处理状态常量
const (
	SubmissionStatusUploaded  = "UPLOADED"
	SubmissionStatusExtracted = "TEXT_EXTRACTED"
	SubmissionStatusFailed    = "EXTRACTION_FAILED"
)

// Submission 上传文档快照表，简历和职位描述共用
type Submission struct {
	SubmissionUUID      string    `gorm:"type:char(36);primaryKey"`
	DocType             string    `gorm:"type:varchar(20);not null;index:idx_submissions_doc_type"`
	OriginalFilename    string    `gorm:"type:varchar(255)"`
	OriginalFilePathOSS string    `gorm:"type:varchar(1024)"`
	FileMD5             string    `gorm:"type:char(32);index:idx_submissions_file_md5"`
	ExtractedText       string    `gorm:"type:mediumtext"`
	TextChars           int       `gorm:"type:int"`
	Status              string    `gorm:"type:varchar(50);default:'UPLOADED';index:idx_submissions_status"`
	CreatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Submission) TableName() string {
	return "submissions"
}

// Analysis 简历与职位描述的匹配评估表
type Analysis struct {
	AnalysisID           string         `gorm:"type:char(36);primaryKey"`
	ResumeSubmissionUUID string         `gorm:"type:char(36);not null;index:idx_analyses_resume_uuid"`
	JDSubmissionUUID     string         `gorm:"type:char(36);not null;index:idx_analyses_jd_uuid"`
	OverallMatch         float64        `gorm:"type:float;index:idx_analyses_overall_match"`
	CertificationScore   float64        `gorm:"type:float"`
	CategoryScoresJSON   datatypes.JSON `gorm:"type:json"`
	MissingSkillsJSON    datatypes.JSON `gorm:"type:json"`
	StrengthsJSON        datatypes.JSON `gorm:"type:json"`
	RecommendationsJSON  datatypes.JSON `gorm:"type:json"`
	ComparisonTableJSON  datatypes.JSON `gorm:"type:json"`
	CreatedAt            time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt            time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	ResumeSubmission *Submission `gorm:"foreignKey:ResumeSubmissionUUID;references:SubmissionUUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	JDSubmission     *Submission `gorm:"foreignKey:JDSubmissionUUID;references:SubmissionUUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Analysis) TableName() string {
	return "analyses"
}

// Report 匹配报告表，记录生成的报告文本与PDF对象位置
type Report struct {
	ReportID     string    `gorm:"type:char(36);primaryKey"`
	AnalysisID   string    `gorm:"type:char(36);not null;index:idx_reports_analysis_id"`
	ReportText   string    `gorm:"type:mediumtext;not null"`
	PDFPathOSS   string    `gorm:"type:varchar(1024)"`
	ModelName    string    `gorm:"type:varchar(100)"`
	UsedFallback bool      `gorm:"default:false"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Analysis *Analysis `gorm:"foreignKey:AnalysisID;references:AnalysisID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Report) TableName() string {
	return "reports"
}

// StringToJSON Helper function to convert string to datatypes.JSON
func StringToJSON(s string) datatypes.JSON {
	return datatypes.JSON(s)
}

// ToJSON Helper function to marshal any value to datatypes.JSON
func ToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
