package constants

import "time"

// 简历文件约束（客户端与服务端共同执行）
const (
	// MaxResumeFileSize 简历文件大小上限（5 MiB）
	MaxResumeFileSize = 5 * 1024 * 1024

	// ResumeUploadFieldName multipart表单中简历文件的字段名
	ResumeUploadFieldName = "resume"
)

// AllowedResumeMIMETypes 允许上传的简历MIME类型
var AllowedResumeMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// AllowedResumeExtensions 允许上传的简历文件扩展名（小写）
var AllowedResumeExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// 表单校验边界
const (
	// ResumeURLMinLength 手动填写的简历URL最小长度
	ResumeURLMinLength = 10
	// ResumeURLMaxLength 手动填写的简历URL最大长度
	ResumeURLMaxLength = 500

	// CoverLetterMinLength 求职信非空时的最小长度
	CoverLetterMinLength = 50
	// CoverLetterMaxLength 求职信最大长度
	CoverLetterMaxLength = 1000

	// AvailableFromDateLayout 到岗日期的格式（ISO日历日期）
	AvailableFromDateLayout = "2006-01-02"
)

// 申请记录处理状态
const (
	ApplicationStatusSubmitted = "SUBMITTED" // 已提交，等待通知
	ApplicationStatusNotified  = "NOTIFIED"  // 招聘方已收到通知
)

// 岗位状态
const (
	JobStatusActive = "ACTIVE"
	JobStatusClosed = "CLOSED"
)

// DefaultFileMD5ExpireDuration 文件MD5去重记录的默认过期时间
const DefaultFileMD5ExpireDuration = 30 * 24 * time.Hour
