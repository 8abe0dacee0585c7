package applyflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"job-board-go/internal/constants"
	"job-board-go/internal/logger"
)

// LocalFile 待上传的本地简历文件
type LocalFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ProgressFunc 上传进度回调，percent取值0到100
// 回调在上传goroutine中同步执行，实现方不应阻塞
type ProgressFunc func(percent int)

// UploadResume 上传简历文件，成功后将文件引用写入草稿并返回服务端URL
//
// 流程：本地前置检查（类型、大小）-> multipart流式上传 -> 解析响应中的URL。
// 前置检查失败返回*FieldError且不发起网络请求；上传失败返回
// *UploadFailedError，草稿中的文件引用保持调用前的状态不变。
// 进度回调保证单调不减，起始为0，仅在上传成功后才报告100。
func (c *Client) UploadResume(ctx context.Context, draft *ApplicationDraft, file *LocalFile, onProgress ProgressFunc) (string, error) {
	if file == nil || file.Content == nil {
		return "", &FieldError{Field: FieldResume, Message: MsgResumeRequired}
	}

	// 本地检查不通过的文件不消耗网络和服务端资源
	if err := CheckResumeFile(file.Name, file.ContentType, file.Size); err != nil {
		logger.Debug().
			Str("file_name", file.Name).
			Str("content_type", file.ContentType).
			Int64("size", file.Size).
			Msg("Resume file rejected by local precheck")
		return "", err
	}

	// 同一草稿同一时刻至多一个上传在途
	if !c.uploading.CompareAndSwap(false, true) {
		return "", ErrUploadInFlight
	}
	defer c.uploading.Store(false)

	if onProgress == nil {
		onProgress = func(int) {}
	}
	progress := newProgressTracker(file.Size, onProgress)
	progress.report(0)

	// 通过管道流式构造multipart请求体，避免将整个文件读入内存
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)

	go func() {
		part, err := writer.CreateFormFile(constants.ResumeUploadFieldName, file.Name)
		if err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("创建multipart字段失败: %w", err))
			return
		}
		if _, err := io.Copy(part, progress.wrap(file.Content)); err != nil {
			pipeWriter.CloseWithError(fmt.Errorf("写入文件内容失败: %w", err))
			return
		}
		pipeWriter.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadResumePath, pipeReader)
	if err != nil {
		return "", &UploadFailedError{Reason: "构建上传请求失败", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("file_name", file.Name).Msg("Resume upload request failed")
		return "", &UploadFailedError{Reason: "上传请求失败", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &UploadFailedError{Reason: "读取上传响应失败", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error().
			Int("status_code", resp.StatusCode).
			Str("file_name", file.Name).
			Msg("Resume upload rejected by server")
		return "", &UploadFailedError{Reason: fmt.Sprintf("服务端返回状态码 %d", resp.StatusCode)}
	}

	fileURL, ok := extractUploadURL(body)
	if !ok {
		logger.Error().Str("file_name", file.Name).Msg("Upload response missing file URL")
		return "", &UploadFailedError{Reason: "上传响应中缺少文件URL"}
	}

	// 只有完全成功才报告100并更新草稿
	progress.report(100)
	draft.SetUploadedFile(file.Name, file.Size, fileURL)

	logger.Info().
		Str("file_name", file.Name).
		Int64("size", file.Size).
		Str("file_url", fileURL).
		Msg("Resume uploaded successfully")
	return fileURL, nil
}

// extractUploadURL 从上传响应中提取文件URL
// 兼容三种历史响应结构，按顺序尝试：
//
//	{"data": {"data": {"url": ...}}}
//	{"data": {"url": ...}}
//	{"url": ...}
//
// 提取到的URL必须是非空字符串，否则视为失败。
func extractUploadURL(body []byte) (string, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}

	if data, ok := payload["data"].(map[string]interface{}); ok {
		if inner, ok := data["data"].(map[string]interface{}); ok {
			if u, ok := stringField(inner, "url"); ok {
				return u, true
			}
		}
		if u, ok := stringField(data, "url"); ok {
			return u, true
		}
	}
	return stringField(payload, "url")
}

func stringField(m map[string]interface{}, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// progressTracker 根据已写入传输层的字节数换算百分比
// 保证回调序列单调不减；100由上传成功路径显式报告，
// 字节计数换算的百分比封顶在99，防止响应未确认就提前报完成
type progressTracker struct {
	total    int64
	sent     int64
	lastPct  int
	callback ProgressFunc
}

func newProgressTracker(total int64, callback ProgressFunc) *progressTracker {
	return &progressTracker{total: total, lastPct: -1, callback: callback}
}

func (p *progressTracker) report(pct int) {
	if pct <= p.lastPct {
		return
	}
	p.lastPct = pct
	p.callback(pct)
}

func (p *progressTracker) add(n int) {
	p.sent += int64(n)
	if p.total <= 0 {
		return
	}
	pct := int(p.sent * 100 / p.total)
	if pct > 99 {
		pct = 99
	}
	p.report(pct)
}

func (p *progressTracker) wrap(r io.Reader) io.Reader {
	return &progressReader{inner: r, tracker: p}
}

type progressReader struct {
	inner   io.Reader
	tracker *progressTracker
}

func (r *progressReader) Read(buf []byte) (int, error) {
	n, err := r.inner.Read(buf)
	if n > 0 {
		r.tracker.add(n)
	}
	return n, err
}
