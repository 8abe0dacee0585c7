package applyflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *User {
	return &User{ApplicantID: "applicant-001", DisplayName: "Alice", Token: "test-token"}
}

func testJob() *JobDetails {
	return &JobDetails{ID: "job-42", Title: "后端工程师", Company: "Example Inc"}
}

// submittableDraft 构造一份能通过校验的草稿（以真实当前时间为基准）
func submittableDraft() *ApplicationDraft {
	return &ApplicationDraft{
		ResumeURL:     "https://cdn.example.com/resumes/alice.pdf",
		AvailableFrom: time.Now().AddDate(0, 0, 14).Format("2006-01-02"),
	}
}

// TestSubmitSuccess 验证完整的成功提交路径（场景A：手动链接）
func TestSubmitSuccess(t *testing.T) {
	var received SubmitRequest
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/applications/submit", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"applicationUuid":"uuid-1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	draft := submittableDraft()

	result, err := client.Submit(context.Background(), draft, testJob(), testUser())

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, "job-42", received.JobID)
	assert.Equal(t, draft.ResumeURL, received.ResumeURL)
	assert.Equal(t, draft.AvailableFrom, received.AvailableFrom)
	assert.Equal(t, "Bearer test-token", authHeader, "提交请求应携带用户令牌")
}

// TestSubmitUsesUploadedFileURL 验证已上传文件的URL优先于手动链接（场景B）
func TestSubmitUsesUploadedFileURL(t *testing.T) {
	var received SubmitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	draft := submittableDraft()
	draft.ResumeURL = "https://manual.example.com/should-be-ignored.pdf"
	draft.SetUploadedFile("resume.pdf", 2048, "https://cdn.example.com/uploaded.pdf")

	result, err := client.Submit(context.Background(), draft, testJob(), testUser())

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, "https://cdn.example.com/uploaded.pdf", received.ResumeURL, "提交应使用已上传文件的URL")
}

// TestSubmitLoginRequired 验证未登录用户立即失败且不发起网络请求
func TestSubmitLoginRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("未登录时不应发起任何网络请求")
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Submit(context.Background(), submittableDraft(), testJob(), nil)
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = client.Submit(context.Background(), submittableDraft(), testJob(), &User{})
	assert.ErrorIs(t, err, ErrLoginRequired, "无applicant ID的用户视为未登录")
}

// TestSubmitInvalidJobDetails 验证岗位信息缺ID时立即失败（集成错误）
func TestSubmitInvalidJobDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("岗位信息无效时不应发起任何网络请求")
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Submit(context.Background(), submittableDraft(), &JobDetails{Title: "无ID岗位"}, testUser())
	assert.ErrorIs(t, err, ErrInvalidJobDetails)

	_, err = client.Submit(context.Background(), submittableDraft(), nil, testUser())
	assert.ErrorIs(t, err, ErrInvalidJobDetails, "nil岗位信息同样视为集成错误")
}

// TestSubmitJobIDFallback 验证岗位ID从备选字段解析后正常提交
func TestSubmitJobIDFallback(t *testing.T) {
	var received SubmitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Submit(context.Background(), submittableDraft(), &JobDetails{PostID: "legacy-7"}, testUser())

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, "legacy-7", received.JobID, "应回退到postId字段")
}

// TestSubmitValidationFailure 验证校验失败时返回字段错误且不发起网络请求（场景C）
func TestSubmitValidationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("校验失败时不应发起任何网络请求")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	draft := &ApplicationDraft{} // 简历缺失、到岗日期缺失

	result, err := client.Submit(context.Background(), draft, testJob(), testUser())

	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, MsgResumeRequired, result.FieldErrors[FieldResume])
	assert.Equal(t, MsgAvailableFromInvalid, result.FieldErrors[FieldAvailableFrom])
}

// TestSubmitServerRejection 验证服务端拒绝时返回携带消息的结果而非error（场景D）
func TestSubmitServerRejection(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"error字段", http.StatusConflict, `{"error":"您已申请过该岗位"}`, "您已申请过该岗位"},
		{"message字段", http.StatusBadRequest, `{"message":"岗位已关闭"}`, "岗位已关闭"},
		{"无可用消息", http.StatusInternalServerError, `{}`, msgSubmitFailedGeneric},
		{"响应非JSON", http.StatusBadGateway, `gateway error`, msgSubmitFailedGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			result, err := client.Submit(context.Background(), submittableDraft(), testJob(), testUser())

			require.NoError(t, err, "服务端拒绝不是error，调用方需要结果中的消息")
			assert.False(t, result.Accepted)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}

// TestSubmitNetworkFailure 验证网络故障按服务端拒绝处理，草稿保留供重试
func TestSubmitNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 模拟网络不可达

	client := NewClient(server.URL)
	draft := submittableDraft()

	result, err := client.Submit(context.Background(), draft, testJob(), testUser())

	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, msgSubmitFailedGeneric, result.Message)
	assert.NotEmpty(t, draft.ResumeURL, "失败后草稿应原样保留")
}

// TestSubmitThenReset 验证成功后重置草稿的端到端序列（场景E的提交侧）
func TestSubmitThenReset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	draft := submittableDraft()
	draft.SetUploadedFile("resume.pdf", 1024, "https://cdn.example.com/r.pdf")

	result, err := client.Submit(context.Background(), draft, testJob(), testUser())
	require.NoError(t, err)
	require.True(t, result.Accepted)

	draft.Reset()
	assert.Equal(t, ApplicationDraft{}, *draft, "重置后草稿应回到空状态")
	assert.False(t, draft.HasUploadedFile())
}
