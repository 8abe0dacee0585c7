package applyflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"job-board-go/internal/logger"
)

// SubmitRequest 提交申请的请求体
type SubmitRequest struct {
	JobID         string `json:"jobId"`
	ResumeURL     string `json:"resumeUrl"`
	CoverLetter   string `json:"coverLetter,omitempty"`
	AvailableFrom string `json:"availableFrom"`
}

// submitErrorResponse 服务端拒绝时的响应体
type submitErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// 服务端拒绝且未给出可用消息时的兜底文案
const msgSubmitFailedGeneric = "提交申请失败，请稍后重试"

// Submit 提交岗位申请
//
// 前置检查顺序：登录状态 -> 岗位ID解析 -> 表单校验。
// 未登录返回ErrLoginRequired；岗位信息解析不出ID返回
// ErrInvalidJobDetails；表单校验失败返回带FieldErrors的结果。
// 三者任一失败都不发起网络请求。
//
// 简历URL以已上传文件为准，仅当草稿无上传文件时才使用手动链接。
// 服务端拒绝（含网络故障）不作为error返回，而是Accepted为false、
// Message携带拒绝原因的结果，调用方据此保留草稿供用户重试。
func (c *Client) Submit(ctx context.Context, draft *ApplicationDraft, job *JobDetails, user *User) (*SubmissionResult, error) {
	if user == nil || user.ApplicantID == "" {
		return nil, ErrLoginRequired
	}

	jobID := job.ResolveJobID()
	if jobID == "" {
		logger.Error().Msg("Job details missing usable job ID, refusing to submit")
		return nil, ErrInvalidJobDetails
	}

	validation := ValidateForm(draft, draft.HasUploadedFile())
	if !validation.IsValid {
		return &SubmissionResult{Accepted: false, FieldErrors: validation.Errors}, nil
	}

	payload := SubmitRequest{
		JobID:         jobID,
		ResumeURL:     draft.AuthoritativeResumeURL(),
		CoverLetter:   draft.CoverLetter,
		AvailableFrom: draft.AvailableFrom,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化申请请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构建申请请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user.Token != "" {
		req.Header.Set("Authorization", "Bearer "+user.Token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("job_id", jobID).Msg("Application submit request failed")
		return &SubmissionResult{Accepted: false, Message: msgSubmitFailedGeneric}, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to read submit response")
		return &SubmissionResult{Accepted: false, Message: msgSubmitFailedGeneric}, nil
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		logger.Info().
			Str("job_id", jobID).
			Str("applicant_id", user.ApplicantID).
			Msg("Application submitted successfully")
		return &SubmissionResult{Accepted: true}, nil
	}

	logger.Warn().
		Int("status_code", resp.StatusCode).
		Str("job_id", jobID).
		Msg("Application rejected by server")
	return &SubmissionResult{Accepted: false, Message: extractSubmitError(respBody)}, nil
}

// extractSubmitError 从拒绝响应中提取展示给用户的消息
func extractSubmitError(body []byte) string {
	var errResp submitErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}
	return msgSubmitFailedGeneric
}
