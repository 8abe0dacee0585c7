package models

import (
	"time"

	"gorm.io/datatypes"
)

// Applicant 求职者主表
type Applicant struct {
	ApplicantID  string    `gorm:"type:char(36);primaryKey"`
	DisplayName  string    `gorm:"type:varchar(255)"`
	PrimaryEmail string    `gorm:"type:varchar(255);uniqueIndex:idx_applicants_primary_email_unique"`
	PrimaryPhone string    `gorm:"type:varchar(50)"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Applicant) TableName() string {
	return "applicants"
}

// Job 岗位信息表
type Job struct {
	JobID              string         `gorm:"type:char(36);primaryKey"`
	JobTitle           string         `gorm:"type:varchar(255);not null"`
	CompanyName        string         `gorm:"type:varchar(255);not null"`
	Location           string         `gorm:"type:varchar(255)"`
	SalaryDisplayText  string         `gorm:"type:varchar(100)"` // 展示用薪资文案，例如 "20k-35k"
	JobDescriptionText string         `gorm:"type:text"`
	RequirementsJSON   datatypes.JSON `gorm:"type:json"`
	Status             string         `gorm:"type:varchar(50);default:'ACTIVE';index:idx_jobs_status"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// UploadedResume 已上传简历文件的元数据表，文件本体存放在对象存储
type UploadedResume struct {
	ResumeUUID       string    `gorm:"type:char(36);primaryKey"`
	ApplicantID      *string   `gorm:"type:char(36);index:idx_ur_applicant_id"`
	OriginalFilename string    `gorm:"type:varchar(255)"`
	ContentType      string    `gorm:"type:varchar(100)"`
	FileSizeBytes    int64     `gorm:"type:bigint;not null"`
	FileMD5          string    `gorm:"type:char(32);index:idx_ur_file_md5"`
	ObjectKey        string    `gorm:"type:varchar(1024);not null"`
	StorageURL       string    `gorm:"type:varchar(1024);not null"`
	UploadedAt       time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Applicant *Applicant `gorm:"foreignKey:ApplicantID;references:ApplicantID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (UploadedResume) TableName() string {
	return "uploaded_resumes"
}

// JobApplication 岗位申请记录表
// (applicant_id, job_id) 唯一，重复提交依赖该约束做幂等去重
type JobApplication struct {
	ApplicationUUID string          `gorm:"type:char(36);primaryKey"`
	ApplicantID     string          `gorm:"type:char(36);not null;index:idx_ja_applicant_id;uniqueIndex:idx_ja_applicant_job_unique,priority:1"`
	JobID           string          `gorm:"type:char(36);not null;index:idx_ja_job_id;uniqueIndex:idx_ja_applicant_job_unique,priority:2"`
	ResumeURL       string          `gorm:"type:varchar(1024);not null"`
	CoverLetter     string          `gorm:"type:text"`
	AvailableFrom   *datatypes.Date `gorm:"type:date;not null"`
	Status          string          `gorm:"type:varchar(50);default:'SUBMITTED';index:idx_ja_status"`
	SubmittedAt     time.Time       `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_ja_submitted_at"`
	NotifiedAt      *time.Time      `gorm:"type:datetime(6)"`
	CreatedAt       time.Time       `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time       `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Applicant *Applicant `gorm:"foreignKey:ApplicantID;references:ApplicantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Job       *Job       `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (JobApplication) TableName() string {
	return "job_applications"
}
