package storage

import "time"

// ApplicationSubmittedMessage 岗位申请提交事件
// 发布到 application_events 交换机，通知消费者据此向招聘方推送提醒
type ApplicationSubmittedMessage struct {
	EventID         string    `json:"event_id"`
	ApplicationUUID string    `json:"application_uuid"`
	ApplicantID     string    `json:"applicant_id"`
	JobID           string    `json:"job_id"`
	ResumeURL       string    `json:"resume_url"`
	AvailableFrom   string    `json:"available_from"` // ISO日历日期，例如 "2026-09-01"
	SubmittedAt     time.Time `json:"submitted_at"`
}
