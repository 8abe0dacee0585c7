package applyflow

import (
	"context"
	"encoding/json"
	"net/http"

	"job-board-go/internal/logger"
)

// uploadStatusResponse 上传能力预检接口的响应体
type uploadStatusResponse struct {
	UploadEnabled bool `json:"uploadEnabled"`
}

// CheckUploadStatus 查询后端是否接受简历直传
// 返回false时界面应隐藏上传入口，仅保留手动填写简历链接的方式。
// 失败关闭：任何网络错误、非200响应或响应体解析失败都视为不可用，
// 绝不因探测失败而放开上传入口。该方法幂等，可在对话框每次打开时调用。
func (c *Client) CheckUploadStatus(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+uploadStatusPath, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to build upload status request, treating upload as unavailable")
		return false
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("Upload status check failed, treating upload as unavailable")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn().Int("status_code", resp.StatusCode).Msg("Upload status check returned non-200, treating upload as unavailable")
		return false
	}

	var status uploadStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode upload status response, treating upload as unavailable")
		return false
	}

	return status.UploadEnabled
}
