package storage

import (
	"context"
	"fmt"
	"time"

	"job-board-go/internal/config"
	"job-board-go/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is not found in Redis.
// It wraps the underlying redis.Nil error for abstraction.
var ErrNotFound = redis.Nil

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	// Ping to check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	return r.Client.Close()
}

// GetMD5ExpireDuration 返回文件MD5去重记录的过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	if r.config.FileMD5ExpireDays > 0 {
		return time.Duration(r.config.FileMD5ExpireDays) * 24 * time.Hour
	}
	return constants.DefaultFileMD5ExpireDuration
}

// IsUploadGateDisabled 查询上传能力的运维开关是否被关闭
// Key存在即表示直传被临时关闭
func (r *Redis) IsUploadGateDisabled(ctx context.Context) (bool, error) {
	n, err := r.Client.Exists(ctx, constants.KeyUploadGateDisabled).Result()
	if err != nil {
		return false, fmt.Errorf("查询上传开关失败: %w", err)
	}
	return n > 0, nil
}

// DisableUploadGate 临时关闭简历直传（运维操作）
func (r *Redis) DisableUploadGate(ctx context.Context, reason string) error {
	return r.Client.Set(ctx, constants.KeyUploadGateDisabled, reason, 0).Err()
}

// EnableUploadGate 重新开启简历直传（运维操作）
func (r *Redis) EnableUploadGate(ctx context.Context) error {
	return r.Client.Del(ctx, constants.KeyUploadGateDisabled).Err()
}

// CheckResumeFileMD5Exists 检查简历文件MD5是否已存在于去重集合
func (r *Redis) CheckResumeFileMD5Exists(ctx context.Context, md5Hex string) (bool, error) {
	exists, err := r.Client.SIsMember(ctx, constants.KeyResumeFileMD5Set, md5Hex).Result()
	if err != nil {
		return false, fmt.Errorf("查询文件MD5去重集合失败: %w", err)
	}
	return exists, nil
}

// AddResumeFileMD5 将简历文件MD5加入去重集合，并记录MD5到存储URL的映射
func (r *Redis) AddResumeFileMD5(ctx context.Context, md5Hex, storageURL string) error {
	expiry := r.GetMD5ExpireDuration()

	pipe := r.Client.TxPipeline()
	pipe.SAdd(ctx, constants.KeyResumeFileMD5Set, md5Hex)
	pipe.Expire(ctx, constants.KeyResumeFileMD5Set, expiry)
	pipe.Set(ctx, fmt.Sprintf(constants.KeyResumeFileMD5ToURL, md5Hex), storageURL, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入文件MD5去重记录失败: %w", err)
	}
	return nil
}

// GetResumeURLByMD5 根据文件MD5获取已存储简历的URL
// 未找到时返回 ErrNotFound
func (r *Redis) GetResumeURLByMD5(ctx context.Context, md5Hex string) (string, error) {
	url, err := r.Client.Get(ctx, fmt.Sprintf(constants.KeyResumeFileMD5ToURL, md5Hex)).Result()
	if err != nil {
		return "", err
	}
	return url, nil
}
