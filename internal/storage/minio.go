package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"job-board-go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadResumeFile 上传简历文件，返回对象键和对外可访问的持久URL
	UploadResumeFile(ctx context.Context, resumeUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)

	// DownloadFile 下载文件
	DownloadFile(ctx context.Context, objectName string) ([]byte, error)

	// DeleteFile 删除文件
	DeleteFile(ctx context.Context, objectName string) error

	// ResumeURL 根据对象键计算对外可访问的持久URL
	ResumeURL(ctx context.Context, objectName string) (string, error)

	// Healthy 检查对象存储是否可用
	Healthy(ctx context.Context) bool
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	resumesBucket string
	logger        *log.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf("[MinIO] Initializing MinIO client with endpoint: %s, resumesBucket: %s", cfg.Endpoint, cfg.ResumesBucket)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		logger.Printf("[MinIO] Initialization failed: %v", err)
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		resumesBucket: cfg.ResumesBucket,
		logger:        logger,
	}

	// 确保存储桶存在
	if err := m.ensureBucketExists(m.resumesBucket, cfg.Location); err != nil {
		logger.Printf("[MinIO] Failed to ensure resumes bucket %s exists: %v", m.resumesBucket, err)
		return nil, fmt.Errorf("确保简历存储桶 %s 存在失败: %w", m.resumesBucket, err)
	}

	// 设置生命周期规则
	if cfg.ResumeFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(context.Background(), m.resumesBucket, "expire-resumes", cfg.ResumeFileExpireDays); err != nil {
			logger.Printf("[MinIO] Warning: Failed to set up lifecycle rules: %v", err)
		}
	}

	logger.Printf("[MinIO] Client initialized successfully for endpoint: %s", cfg.Endpoint)
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		m.logger.Printf("[MinIO] Bucket %s does not exist, attempting to create...", bucketName)
		if err := m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.logger.Printf("[MinIO] Bucket %s created successfully.", bucketName)
	}
	return nil
}

// setupBucketLifecycle 为指定存储桶设置生命周期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	m.logger.Printf("[MinIO] Setting lifecycle rule for bucket %s: ID=%s, ExpiryDays=%d", bucketName, ruleID, expiryDays)
	lcCfg := lifecycle.NewConfiguration()
	lcCfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	if err := m.client.SetBucketLifecycle(ctx, bucketName, lcCfg); err != nil {
		return err
	}
	m.logger.Printf("[MinIO] Successfully set lifecycle for bucket %s.", bucketName)
	return nil
}

// UploadResumeFile 上传简历文件到resumesBucket
// 对象键格式: resume/{resumeUUID}/original{ext}，返回对象键和持久URL
func (m *MinIO) UploadResumeFile(ctx context.Context, resumeUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error) {
	objectName := fmt.Sprintf("resume/%s/original%s", resumeUUID, fileExt)
	contentType := getContentType(fileExt)

	info, err := m.client.PutObject(ctx, m.resumesBucket, objectName, reader, fileSize,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Printf("[MinIO-UploadResumeFile] Error uploading %s: %v", objectName, err)
		return "", "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.resumesBucket, objectName, err)
	}
	m.logger.Printf("[MinIO-UploadResumeFile] Successfully uploaded %s, ETag: %s, Size: %d", objectName, info.ETag, info.Size)

	url, err := m.ResumeURL(ctx, objectName)
	if err != nil {
		return "", "", err
	}
	return objectName, url, nil
}

// ResumeURL 计算简历对象的持久访问URL
// 配置了PublicBaseURL时直接拼接公开地址，否则生成预签名URL
func (m *MinIO) ResumeURL(ctx context.Context, objectName string) (string, error) {
	if m.cfg.PublicBaseURL != "" {
		base := strings.TrimRight(m.cfg.PublicBaseURL, "/")
		return fmt.Sprintf("%s/%s/%s", base, m.resumesBucket, objectName), nil
	}

	expiry := time.Duration(m.cfg.PresignedURLExpiryHours) * time.Hour
	presignedURL, err := m.client.PresignedGetObject(ctx, m.resumesBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成MinIO预签名URL失败: %w", err)
	}
	return presignedURL.String(), nil
}

// DownloadFile 下载文件
func (m *MinIO) DownloadFile(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.resumesBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.resumesBucket, objectName, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", m.resumesBucket, objectName, err)
	}
	m.logger.Printf("[MinIO] Object %s/%s stats: Size=%d, ContentType=%s", m.resumesBucket, objectName, stat.Size, stat.ContentType)

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", m.resumesBucket, objectName, err)
	}
	return data, nil
}

// DeleteFile 删除文件
func (m *MinIO) DeleteFile(ctx context.Context, objectName string) error {
	if err := m.client.RemoveObject(ctx, m.resumesBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", objectName, err)
	}
	return nil
}

// Healthy 检查对象存储是否可用（存储桶可达即视为健康）
func (m *MinIO) Healthy(ctx context.Context) bool {
	exists, err := m.client.BucketExists(ctx, m.resumesBucket)
	if err != nil {
		m.logger.Printf("[MinIO] Health check failed: %v", err)
		return false
	}
	return exists
}

// getContentType 根据扩展名获取内容类型
func getContentType(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
