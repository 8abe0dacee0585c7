package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"job-board-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeMarker 记录回写调用并返回预设错误
type fakeMarker struct {
	err    error
	calls  int
	lastID string
}

func (f *fakeMarker) MarkApplicationNotified(ctx context.Context, applicationUUID string) error {
	f.calls++
	f.lastID = applicationUUID
	return f.err
}

// fakeStream 捕获消费回调，便于直接驱动消息处理
type fakeStream struct {
	handler func(body []byte) bool
}

func (f *fakeStream) ConsumeApplicationEvents(handler func(body []byte) bool) (chan struct{}, error) {
	f.handler = handler
	return make(chan struct{}), nil
}

func submittedEventBody(t *testing.T, applicationUUID string) []byte {
	t.Helper()
	body, err := json.Marshal(storage.ApplicationSubmittedMessage{
		EventID:         "evt-001",
		ApplicationUUID: applicationUUID,
		ApplicantID:     "applicant-001",
		JobID:           "job-001",
		ResumeURL:       "https://files.example.com/resumes/r.pdf",
		AvailableFrom:   "2026-09-15",
		SubmittedAt:     time.Now(),
	})
	require.NoError(t, err, "构造事件消息体不应失败")
	return body
}

// TestHandleMessageSuccess 验证回写成功时消息被确认
func TestHandleMessageSuccess(t *testing.T) {
	marker := &fakeMarker{}
	n := New(&fakeStream{}, marker)

	acked := n.handleMessage(context.Background(), submittedEventBody(t, "app-uuid-1"))

	assert.True(t, acked, "回写成功的消息应被确认")
	assert.Equal(t, 1, marker.calls)
	assert.Equal(t, "app-uuid-1", marker.lastID, "回写应使用事件中的申请UUID")
}

// TestHandleMessagePoisonDropped 验证无法解析的消息被确认丢弃而非重投
func TestHandleMessagePoisonDropped(t *testing.T) {
	marker := &fakeMarker{}
	n := New(&fakeStream{}, marker)

	acked := n.handleMessage(context.Background(), []byte("{not json"))

	assert.True(t, acked, "毒消息应被确认丢弃，避免无限重投")
	assert.Equal(t, 0, marker.calls, "毒消息不应触发状态回写")
}

// TestHandleMessageMissingApplicationDropped 验证申请记录不存在时消息被丢弃
func TestHandleMessageMissingApplicationDropped(t *testing.T) {
	marker := &fakeMarker{err: fmt.Errorf("申请记录不存在: app-uuid-2: %w", gorm.ErrRecordNotFound)}
	n := New(&fakeStream{}, marker)

	acked := n.handleMessage(context.Background(), submittedEventBody(t, "app-uuid-2"))

	assert.True(t, acked, "申请不存在的事件应被确认丢弃")
}

// TestHandleMessageTransientFailureRequeued 验证暂时性回写失败的消息被重新入队
func TestHandleMessageTransientFailureRequeued(t *testing.T) {
	marker := &fakeMarker{err: errors.New("connection refused")}
	n := New(&fakeStream{}, marker)

	acked := n.handleMessage(context.Background(), submittedEventBody(t, "app-uuid-3"))

	assert.False(t, acked, "暂时性失败的消息应被拒绝并重新入队")
}

// TestStartRoutesEventsToHandler 验证Start注册的回调会驱动消息处理
func TestStartRoutesEventsToHandler(t *testing.T) {
	marker := &fakeMarker{}
	stream := &fakeStream{}
	n := New(stream, marker)

	require.NoError(t, n.Start(context.Background()))
	require.NotNil(t, stream.handler, "Start应向事件流注册处理回调")

	assert.True(t, stream.handler(submittedEventBody(t, "app-uuid-4")))
	assert.Equal(t, "app-uuid-4", marker.lastID)

	n.Stop()
	n.Stop() // 重复Stop应安全
}
