// Package notifier 消费申请提交事件，向招聘方侧投递通知并回写申请状态。
package notifier

import (
	"context"
	"encoding/json"

	"job-board-go/internal/logger"
	"job-board-go/internal/storage"
)

// EventStream 申请事件的消费入口
type EventStream interface {
	ConsumeApplicationEvents(handler func(body []byte) bool) (chan struct{}, error)
}

// ApplicationMarker 通知完成后的申请状态回写
type ApplicationMarker interface {
	MarkApplicationNotified(ctx context.Context, applicationUUID string) error
}

var (
	_ EventStream       = (*storage.RabbitMQ)(nil)
	_ ApplicationMarker = (*storage.MySQL)(nil)
)

// Notifier 申请提交通知消费者
type Notifier struct {
	events EventStream
	store  ApplicationMarker
	stopCh chan struct{}
}

// New 创建通知消费者
func New(events EventStream, store ApplicationMarker) *Notifier {
	return &Notifier{
		events: events,
		store:  store,
	}
}

// Start 启动消费
// 处理失败的消息会被nack重新入队，由Broker按序重投
func (n *Notifier) Start(ctx context.Context) error {
	stopCh, err := n.events.ConsumeApplicationEvents(func(body []byte) bool {
		return n.handleMessage(ctx, body)
	})
	if err != nil {
		return err
	}
	n.stopCh = stopCh

	logger.Info().Msg("Application notification consumer started")
	return nil
}

// Stop 停止消费
func (n *Notifier) Stop() {
	if n.stopCh != nil {
		close(n.stopCh)
		n.stopCh = nil
	}
}

// handleMessage 处理一条申请提交事件
// 无法解析的消息直接确认丢弃，避免毒消息无限重投；
// 状态回写失败则nack重试
func (n *Notifier) handleMessage(ctx context.Context, body []byte) bool {
	var msg storage.ApplicationSubmittedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Error().Err(err).Msg("Failed to decode application submitted event, dropping message")
		return true
	}

	// 实际的对外投递渠道（邮件、站内信）在这里接入；
	// 当前实现记录通知日志并回写申请状态
	logger.Ctx(ctx).Info().
		Str("event_id", msg.EventID).
		Str("application_uuid", msg.ApplicationUUID).
		Str("applicant_id", msg.ApplicantID).
		Str("job_id", msg.JobID).
		Msg("Dispatching application notification")

	if err := n.store.MarkApplicationNotified(ctx, msg.ApplicationUUID); err != nil {
		if storage.IsRecordNotFound(err) {
			// 申请记录不存在，多半是事件重放或测试数据，确认丢弃
			logger.Warn().
				Str("application_uuid", msg.ApplicationUUID).
				Msg("Application not found for notification event, dropping message")
			return true
		}
		logger.Error().
			Err(err).
			Str("application_uuid", msg.ApplicationUUID).
			Msg("Failed to mark application notified, requeueing")
		return false
	}
	return true
}
