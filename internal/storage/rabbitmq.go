package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"job-board-go/internal/config"
	"job-board-go/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventBus 申请事件总线：提交侧发布事件，通知侧消费事件
type EventBus interface {
	// PublishApplicationSubmitted 发布一条申请提交事件（持久化投递）
	PublishApplicationSubmitted(ctx context.Context, msg *ApplicationSubmittedMessage) error

	// ConsumeApplicationEvents 从通知队列消费事件
	// handler返回true确认消息，返回false拒绝并重新入队；
	// 关闭返回的channel可停止消费
	ConsumeApplicationEvents(handler func(body []byte) bool) (chan struct{}, error)

	// Close 关闭连接
	Close() error
}

// 确保RabbitMQ实现了EventBus接口
var _ EventBus = (*RabbitMQ)(nil)

// RabbitMQ 申请事件总线的RabbitMQ实现
// 独占管理申请事件交换机、通知队列及两者的绑定，拓扑参数全部来自配置：
// topic交换机 + submitted路由键 + 通知队列，三者在首次发布或消费前声明一次
type RabbitMQ struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQConfig

	// amqp的Channel非并发安全，发布共用一条通道并加锁串行化
	publishMu sync.Mutex
	publishCh *amqp.Channel

	topologyOnce sync.Once
	topologyErr  error
}

// NewRabbitMQ 连接RabbitMQ并准备发布通道
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器 (%s): %w", cfg.URL, err)
	}

	publishCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("创建RabbitMQ发布通道失败: %w", err)
	}

	logger.Info().
		Str("exchange", cfg.ApplicationEventsExchange).
		Str("routing_key", cfg.SubmittedRoutingKey).
		Msg("Connected to RabbitMQ")

	return &RabbitMQ{
		conn:      conn,
		cfg:       cfg,
		publishCh: publishCh,
	}, nil
}

// ensureTopology 声明申请事件的交换机、通知队列和绑定，进程内只执行一次
// 声明失败的错误被缓存，后续发布和消费都会快速失败
func (r *RabbitMQ) ensureTopology() error {
	r.topologyOnce.Do(func() {
		ch, err := r.conn.Channel()
		if err != nil {
			r.topologyErr = fmt.Errorf("创建拓扑声明通道失败: %w", err)
			return
		}
		defer ch.Close()

		if err := ch.ExchangeDeclare(
			r.cfg.ApplicationEventsExchange,
			"topic",
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		); err != nil {
			r.topologyErr = fmt.Errorf("声明申请事件交换机 %s 失败: %w", r.cfg.ApplicationEventsExchange, err)
			return
		}

		if _, err := ch.QueueDeclare(
			r.cfg.NotificationQueue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			r.topologyErr = fmt.Errorf("声明通知队列 %s 失败: %w", r.cfg.NotificationQueue, err)
			return
		}

		if err := ch.QueueBind(
			r.cfg.NotificationQueue,
			r.cfg.SubmittedRoutingKey,
			r.cfg.ApplicationEventsExchange,
			false, // no-wait
			nil,
		); err != nil {
			r.topologyErr = fmt.Errorf("绑定通知队列到申请事件交换机失败: %w", err)
			return
		}

		logger.Info().
			Str("exchange", r.cfg.ApplicationEventsExchange).
			Str("queue", r.cfg.NotificationQueue).
			Str("routing_key", r.cfg.SubmittedRoutingKey).
			Msg("Application event topology declared")
	})
	return r.topologyErr
}

// PublishApplicationSubmitted 发布申请提交事件
// 消息持久化投递，EventID作为MessageId便于下游去重排查
func (r *RabbitMQ) PublishApplicationSubmitted(ctx context.Context, msg *ApplicationSubmittedMessage) error {
	if msg == nil {
		return fmt.Errorf("申请提交事件不能为空")
	}
	if err := r.ensureTopology(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化申请提交事件失败: %w", err)
	}

	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	return r.publishCh.PublishWithContext(
		ctx,
		r.cfg.ApplicationEventsExchange,
		r.cfg.SubmittedRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    msg.EventID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// ConsumeApplicationEvents 启动通知队列的消费循环
// 消费者独占一条通道，按配置的预取数量拉取；通道由消费协程退出时关闭
func (r *RabbitMQ) ConsumeApplicationEvents(handler func(body []byte) bool) (chan struct{}, error) {
	if err := r.ensureTopology(); err != nil {
		return nil, err
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("创建消费通道失败: %w", err)
	}

	prefetch := r.cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("设置QoS失败: %w", err)
	}

	deliveries, err := ch.Consume(
		r.cfg.NotificationQueue,
		"",    // 消费者标签由server生成
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("注册通知队列消费者失败: %w", err)
	}

	stopCh := make(chan struct{})
	go func() {
		defer ch.Close()
		logger.Info().
			Str("queue", r.cfg.NotificationQueue).
			Int("prefetch", prefetch).
			Msg("Application event consumer started")

		for {
			select {
			case <-stopCh:
				logger.Info().Str("queue", r.cfg.NotificationQueue).Msg("Application event consumer stopped")
				return
			case delivery, ok := <-deliveries:
				if !ok {
					logger.Warn().Str("queue", r.cfg.NotificationQueue).Msg("Consumer channel closed by broker")
					return
				}
				if handler(delivery.Body) {
					if err := delivery.Ack(false); err != nil {
						logger.Error().Err(err).Msg("Failed to ack application event")
					}
				} else {
					if err := delivery.Nack(false, true); err != nil {
						logger.Error().Err(err).Msg("Failed to nack application event")
					}
				}
			}
		}
	}()

	return stopCh, nil
}

// Close 关闭连接，连接上的所有通道随之关闭
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}
