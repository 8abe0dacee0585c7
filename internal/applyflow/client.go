package applyflow

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// 申请流程相关的后端接口路径
const (
	uploadStatusPath = "/api/applications/upload-status"
	uploadResumePath = "/api/applications/upload-resume"
	submitPath       = "/api/applications/submit"
)

// Client 申请提交流程的后端客户端
// 一个Client对应一个申请对话框的生命周期，同一Client同一时刻
// 至多允许一个简历上传进行中
type Client struct {
	baseURL string
	httpc   *http.Client

	// uploading 上传互斥标记，CAS失败说明已有上传在途
	uploading atomic.Bool
}

// Option Client的可选配置
type Option func(*Client)

// WithHTTPClient 替换底层HTTP客户端，主要用于测试注入
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpc = hc
	}
}

// WithTimeout 设置默认HTTP客户端的请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpc.Timeout = d
	}
}

// NewClient 创建申请流程客户端
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
