package handler

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"job-board-go/internal/applyflow"
	"job-board-go/internal/config"
	"job-board-go/internal/constants"
	"job-board-go/internal/logger"
	"job-board-go/internal/storage"
	"job-board-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
	googleuuid "github.com/google/uuid"
	"gorm.io/datatypes"
)

// ApplicantIDContextKey 鉴权中间件写入请求上下文的申请人ID键名
const ApplicantIDContextKey = "applicant_id"

// ApplicationStore 申请流程处理器依赖的数据库操作集合
type ApplicationStore interface {
	GetJobByID(ctx context.Context, jobID string) (*models.Job, error)
	ListActiveJobs(ctx context.Context, limit, offset int) ([]models.Job, error)
	GetApplicantByID(ctx context.Context, applicantID string) (*models.Applicant, error)
	CreateUploadedResume(ctx context.Context, resume *models.UploadedResume) error
	FindUploadedResumeByMD5(ctx context.Context, md5Hex string) (*models.UploadedResume, error)
	GetUploadedResumeByUUID(ctx context.Context, resumeUUID string) (*models.UploadedResume, error)
	CreateJobApplication(ctx context.Context, application *models.JobApplication) (bool, error)
	GetApplicationByApplicantAndJob(ctx context.Context, applicantID, jobID string) (*models.JobApplication, error)
}

var _ ApplicationStore = (*storage.MySQL)(nil)

// ApplicationHandler 申请流程处理器，承载上传预检、简历上传与申请提交
type ApplicationHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	db      ApplicationStore
}

// NewApplicationHandler 创建申请流程处理器
func NewApplicationHandler(cfg *config.Config, storage *storage.Storage) *ApplicationHandler {
	return &ApplicationHandler{
		cfg:     cfg,
		storage: storage,
		db:      storage.MySQL,
	}
}

// UploadStatusResponse 上传能力预检响应
type UploadStatusResponse struct {
	UploadEnabled bool `json:"uploadEnabled"`
}

// HandleUploadStatus 返回简历直传能力是否可用
// 三个条件全部满足才返回可用：配置开关开启、对象存储健康、
// Redis中的运维开关未关闭。任一依赖不可达都按不可用处理。
func (h *ApplicationHandler) HandleUploadStatus(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, UploadStatusResponse{UploadEnabled: h.uploadEnabled(c)})
}

func (h *ApplicationHandler) uploadEnabled(ctx context.Context) bool {
	if !h.cfg.Upload.Enabled {
		return false
	}
	if h.storage.MinIO == nil || !h.storage.MinIO.Healthy(ctx) {
		logger.Warn().Msg("Object storage unhealthy, reporting upload as unavailable")
		return false
	}
	if h.storage.Redis != nil {
		disabled, err := h.storage.Redis.IsUploadGateDisabled(ctx)
		if err != nil {
			// 开关状态查不到时宁可关闭直传
			logger.Warn().Err(err).Msg("Failed to read upload gate switch, reporting upload as unavailable")
			return false
		}
		if disabled {
			return false
		}
	}
	return true
}

// UploadResumeData 简历上传成功响应中的数据部分
type UploadResumeData struct {
	URL        string `json:"url"`
	ResumeUUID string `json:"resumeUuid"`
	Duplicate  bool   `json:"duplicate"`
}

// HandleUploadResume 处理简历文件上传
// 服务端独立执行类型与大小检查，不信任客户端的前置校验；
// 文件MD5命中去重记录时直接复用已存储对象的URL，不重复写入MinIO。
func (h *ApplicationHandler) HandleUploadResume(c context.Context, ctx *app.RequestContext) {
	if !h.uploadEnabled(c) {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": "简历直传当前不可用"})
		return
	}

	fileHeader, err := ctx.FormFile(constants.ResumeUploadFieldName)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "未找到上传的简历文件"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := applyflow.CheckResumeFile(fileHeader.Filename, contentType, fileHeader.Size); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开上传文件失败"})
		return
	}
	defer file.Close()

	// MD5去重和MinIO上传都需要完整内容，一次读入（大小已被前置检查限定）
	fileBytes, err := io.ReadAll(io.LimitReader(file, constants.MaxResumeFileSize+1))
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取上传文件失败"})
		return
	}
	if int64(len(fileBytes)) > constants.MaxResumeFileSize {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": applyflow.MsgFileTooLarge})
		return
	}

	sum := md5.Sum(fileBytes)
	fileMD5Hex := hex.EncodeToString(sum[:])

	if data, ok := h.findDuplicateResume(c, fileMD5Hex); ok {
		logger.Info().
			Str("md5", fileMD5Hex).
			Str("filename", fileHeader.Filename).
			Msg("Duplicate resume file detected, reusing stored object")
		ctx.JSON(consts.StatusOK, utils.H{"data": data})
		return
	}

	resp, err := h.storeResume(c, fileHeader.Filename, contentType, fileMD5Hex, fileBytes)
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Resume upload failed")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "简历上传失败"})
		return
	}

	ctx.JSON(consts.StatusOK, utils.H{"data": resp})
}

// findDuplicateResume 按文件MD5查找既有的简历对象
// 先查Redis去重记录，未命中再回退MySQL元数据表
func (h *ApplicationHandler) findDuplicateResume(ctx context.Context, fileMD5Hex string) (*UploadResumeData, bool) {
	if h.storage.Redis != nil {
		exists, err := h.storage.Redis.CheckResumeFileMD5Exists(ctx, fileMD5Hex)
		if err != nil {
			logger.Warn().Err(err).Str("md5", fileMD5Hex).Msg("Redis MD5 dedup check failed, falling back to MySQL")
		} else if exists {
			url, err := h.storage.Redis.GetResumeURLByMD5(ctx, fileMD5Hex)
			if err == nil && url != "" {
				return &UploadResumeData{URL: url, Duplicate: true}, true
			}
			if err != nil && err != storage.ErrNotFound {
				logger.Warn().Err(err).Str("md5", fileMD5Hex).Msg("Failed to read MD5 to URL mapping")
			}
		}
	}

	resume, err := h.db.FindUploadedResumeByMD5(ctx, fileMD5Hex)
	if err != nil {
		if !storage.IsRecordNotFound(err) {
			logger.Warn().Err(err).Str("md5", fileMD5Hex).Msg("MySQL MD5 dedup lookup failed")
		}
		return nil, false
	}
	return &UploadResumeData{URL: resume.StorageURL, ResumeUUID: resume.ResumeUUID, Duplicate: true}, true
}

// storeResume 上传新文件到MinIO并落库元数据、写入去重记录
func (h *ApplicationHandler) storeResume(ctx context.Context, filename, contentType, fileMD5Hex string, fileBytes []byte) (*UploadResumeData, error) {
	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成简历UUID失败: %w", err)
	}
	resumeUUID := uuidV7.String()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".pdf"
	}

	objectKey, storageURL, err := h.storage.MinIO.UploadResumeFile(ctx, resumeUUID, ext,
		bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("上传简历到MinIO失败: %w", err)
	}

	record := &models.UploadedResume{
		ResumeUUID:       resumeUUID,
		OriginalFilename: filename,
		ContentType:      contentType,
		FileSizeBytes:    int64(len(fileBytes)),
		FileMD5:          fileMD5Hex,
		ObjectKey:        objectKey,
		StorageURL:       storageURL,
	}
	if err := h.db.CreateUploadedResume(ctx, record); err != nil {
		// 元数据落库失败时回收已写入的对象，避免MinIO中留下孤儿文件
		if delErr := h.storage.MinIO.DeleteFile(ctx, objectKey); delErr != nil {
			logger.Warn().
				Err(delErr).
				Str("object_key", objectKey).
				Msg("Failed to clean up orphaned resume object")
		}
		return nil, err
	}

	if h.storage.Redis != nil {
		if err := h.storage.Redis.AddResumeFileMD5(ctx, fileMD5Hex, storageURL); err != nil {
			logger.Warn().
				Err(err).
				Str("md5", fileMD5Hex).
				Str("object_key", objectKey).
				Msg("Failed to record MD5 dedup entry, file already stored")
		}
	}

	logger.Info().
		Str("resume_uuid", resumeUUID).
		Str("object_key", objectKey).
		Int("size", len(fileBytes)).
		Msg("Resume file stored")
	return &UploadResumeData{URL: storageURL, ResumeUUID: resumeUUID}, nil
}

// SubmitApplicationRequest 申请提交请求体
type SubmitApplicationRequest struct {
	JobID         string `json:"jobId"`
	ResumeURL     string `json:"resumeUrl"`
	CoverLetter   string `json:"coverLetter"`
	AvailableFrom string `json:"availableFrom"`
}

// HandleSubmit 处理申请提交
// 服务端重新执行全部表单校验，不信任客户端结果；
// (applicant_id, job_id) 唯一约束保证重复提交幂等地被拒绝。
// applicant_id 由鉴权中间件写入请求上下文。
func (h *ApplicationHandler) HandleSubmit(c context.Context, ctx *app.RequestContext) {
	applicantID := ctx.GetString(ApplicantIDContextKey)
	if applicantID == "" {
		ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "请先登录后再提交申请"})
		return
	}

	var req SubmitApplicationRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式无效"})
		return
	}
	if req.JobID == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "岗位ID不能为空"})
		return
	}

	// 与客户端使用同一套校验规则
	draft := &applyflow.ApplicationDraft{
		ResumeURL:     req.ResumeURL,
		CoverLetter:   req.CoverLetter,
		AvailableFrom: req.AvailableFrom,
	}
	validation := applyflow.ValidateForm(draft, false)
	if !validation.IsValid {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "表单校验失败", "fieldErrors": validation.Errors})
		return
	}

	// 令牌映射到的申请人必须真实存在，账号已注销时令牌映射可能仍残留
	if _, err := h.db.GetApplicantByID(c, applicantID); err != nil {
		if storage.IsRecordNotFound(err) {
			ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "请先登录后再提交申请"})
			return
		}
		logger.Error().Err(err).Str("applicant_id", applicantID).Msg("Failed to load applicant")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询申请人信息失败"})
		return
	}

	job, err := h.db.GetJobByID(c, req.JobID)
	if err != nil {
		if storage.IsRecordNotFound(err) {
			ctx.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
			return
		}
		logger.Error().Err(err).Str("job_id", req.JobID).Msg("Failed to load job")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询岗位信息失败"})
		return
	}
	if job.Status != constants.JobStatusActive {
		ctx.JSON(consts.StatusConflict, utils.H{"error": "岗位已关闭"})
		return
	}

	availableFrom, err := time.ParseInLocation(constants.AvailableFromDateLayout, req.AvailableFrom, time.Local)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": applyflow.MsgAvailableFromInvalid})
		return
	}
	availableFromDate := datatypes.Date(availableFrom)

	uuidV7, err := uuid.NewV7()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate application UUID")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "提交申请失败"})
		return
	}

	application := &models.JobApplication{
		ApplicationUUID: uuidV7.String(),
		ApplicantID:     applicantID,
		JobID:           req.JobID,
		ResumeURL:       req.ResumeURL,
		CoverLetter:     req.CoverLetter,
		AvailableFrom:   &availableFromDate,
		Status:          constants.ApplicationStatusSubmitted,
		SubmittedAt:     time.Now(),
	}

	created, err := h.db.CreateJobApplication(c, application)
	if err != nil {
		logger.Error().
			Err(err).
			Str("applicant_id", applicantID).
			Str("job_id", req.JobID).
			Msg("Failed to persist application")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "提交申请失败"})
		return
	}
	if !created {
		// 返回既有申请的UUID，客户端可据此定位先前的提交
		resp := utils.H{"error": "您已申请过该岗位"}
		if existing, err := h.db.GetApplicationByApplicantAndJob(c, applicantID, req.JobID); err == nil {
			resp["applicationUuid"] = existing.ApplicationUUID
		}
		ctx.JSON(consts.StatusConflict, resp)
		return
	}

	h.publishSubmittedEvent(c, application)

	logger.Info().
		Str("application_uuid", application.ApplicationUUID).
		Str("applicant_id", applicantID).
		Str("job_id", req.JobID).
		Msg("Application submitted")
	ctx.JSON(consts.StatusCreated, utils.H{"applicationUuid": application.ApplicationUUID})
}

// publishSubmittedEvent 发布申请提交事件
// 事件用于下游通知，发布失败只记录不影响已落库的申请
func (h *ApplicationHandler) publishSubmittedEvent(ctx context.Context, application *models.JobApplication) {
	if h.storage.RabbitMQ == nil {
		return
	}

	message := &storage.ApplicationSubmittedMessage{
		EventID:         googleuuid.NewString(),
		ApplicationUUID: application.ApplicationUUID,
		ApplicantID:     application.ApplicantID,
		JobID:           application.JobID,
		ResumeURL:       application.ResumeURL,
		AvailableFrom:   time.Time(*application.AvailableFrom).Format(constants.AvailableFromDateLayout),
		SubmittedAt:     application.SubmittedAt,
	}

	if err := h.storage.RabbitMQ.PublishApplicationSubmitted(ctx, message); err != nil {
		logger.Warn().
			Err(err).
			Str("application_uuid", application.ApplicationUUID).
			Msg("Failed to publish application submitted event")
		return
	}
	logger.Debug().
		Str("application_uuid", application.ApplicationUUID).
		Str("event_id", message.EventID).
		Msg("Application submitted event published")
}

// HandleDownloadResume 回源下载已上传的简历文件
// 文件本体从MinIO读出，按上传时记录的内容类型返回
func (h *ApplicationHandler) HandleDownloadResume(c context.Context, ctx *app.RequestContext) {
	resumeUUID := ctx.Param("resume_uuid")

	record, err := h.db.GetUploadedResumeByUUID(c, resumeUUID)
	if err != nil {
		if storage.IsRecordNotFound(err) {
			ctx.JSON(consts.StatusNotFound, utils.H{"error": "简历不存在"})
			return
		}
		logger.Error().Err(err).Str("resume_uuid", resumeUUID).Msg("Failed to load resume metadata")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询简历信息失败"})
		return
	}

	if h.storage.MinIO == nil {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": "对象存储不可用"})
		return
	}

	data, err := h.storage.MinIO.DownloadFile(c, record.ObjectKey)
	if err != nil {
		logger.Error().Err(err).Str("object_key", record.ObjectKey).Msg("Failed to download resume object")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "下载简历文件失败"})
		return
	}

	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.OriginalFilename))
	ctx.Data(consts.StatusOK, contentType, data)
}

// HandleDisableUploadGate 运维操作：临时关闭简历直传
// 写入Redis开关后，上传预检立即开始返回不可用
func (h *ApplicationHandler) HandleDisableUploadGate(c context.Context, ctx *app.RequestContext) {
	if h.storage.Redis == nil {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": "运维开关存储不可用"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// 请求体可省略，reason仅用于排查记录
	_ = ctx.BindJSON(&req)
	if req.Reason == "" {
		req.Reason = "manual"
	}

	if err := h.storage.Redis.DisableUploadGate(c, req.Reason); err != nil {
		logger.Error().Err(err).Msg("Failed to disable upload gate")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "关闭直传开关失败"})
		return
	}

	logger.Warn().
		Str("reason", req.Reason).
		Str("operator", ctx.GetString(ApplicantIDContextKey)).
		Msg("Upload gate disabled")
	ctx.JSON(consts.StatusOK, utils.H{"uploadGateDisabled": true})
}

// HandleEnableUploadGate 运维操作：重新开启简历直传
func (h *ApplicationHandler) HandleEnableUploadGate(c context.Context, ctx *app.RequestContext) {
	if h.storage.Redis == nil {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": "运维开关存储不可用"})
		return
	}

	if err := h.storage.Redis.EnableUploadGate(c); err != nil {
		logger.Error().Err(err).Msg("Failed to enable upload gate")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "开启直传开关失败"})
		return
	}

	logger.Info().
		Str("operator", ctx.GetString(ApplicantIDContextKey)).
		Msg("Upload gate enabled")
	ctx.JSON(consts.StatusOK, utils.H{"uploadGateDisabled": false})
}

// JobResponse 岗位信息响应，字段名与客户端JobDetails对齐
type JobResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

func toJobResponse(job *models.Job, withDescription bool) JobResponse {
	resp := JobResponse{
		ID:       job.JobID,
		Title:    job.JobTitle,
		Company:  job.CompanyName,
		Location: job.Location,
		Salary:   job.SalaryDisplayText,
		Status:   job.Status,
	}
	if withDescription {
		resp.Description = job.JobDescriptionText
	}
	return resp
}

// HandleListJobs 分页返回处于招聘中的岗位
func (h *ApplicationHandler) HandleListJobs(c context.Context, ctx *app.RequestContext) {
	limit := ctx.DefaultQuery("limit", "20")
	offset := ctx.DefaultQuery("offset", "0")

	jobs, err := h.db.ListActiveJobs(c, atoiOrDefault(limit, 20), atoiOrDefault(offset, 0))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list jobs")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询岗位列表失败"})
		return
	}

	items := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, toJobResponse(&jobs[i], false))
	}
	ctx.JSON(consts.StatusOK, utils.H{"data": items})
}

// HandleGetJob 返回单个岗位详情
func (h *ApplicationHandler) HandleGetJob(c context.Context, ctx *app.RequestContext) {
	jobID := ctx.Param("job_id")
	job, err := h.db.GetJobByID(c, jobID)
	if err != nil {
		if storage.IsRecordNotFound(err) {
			ctx.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
			return
		}
		logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询岗位信息失败"})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"data": toJobResponse(job, true)})
}

// HandleHealth 健康检查，报告各存储组件状态
func (h *ApplicationHandler) HandleHealth(c context.Context, ctx *app.RequestContext) {
	components := utils.H{
		"mysql": h.storage.MySQL != nil,
		"minio": h.storage.MinIO != nil && h.storage.MinIO.Healthy(c),
		"redis": h.storage.Redis != nil,
		"mq":    h.storage.RabbitMQ != nil,
	}
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok", "components": components})
}

func atoiOrDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
