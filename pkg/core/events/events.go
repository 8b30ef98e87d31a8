// Package events 提供基于 Watermill 的任务状态事件总线
// 调度器在每次任务状态迁移时发布事件；存储镜像与API事件流作为订阅方消费
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TopicTaskStatus 任务状态事件主题
const TopicTaskStatus = "task.status"

// EventType 事件类型（对外导出）
type EventType string

const (
	EventTaskScheduled EventType = "task.scheduled"
	EventTaskStarted   EventType = "task.started"
	EventTaskCompleted EventType = "task.completed"
	EventTaskFailed    EventType = "task.failed"
	EventTaskCancelled EventType = "task.cancelled"
	EventTaskTimeout   EventType = "task.timeout"
)

// TaskStatusEvent 任务状态事件（对外导出）
type TaskStatusEvent struct {
	Type       EventType              `json:"type"`
	TaskID     string                 `json:"task_id"`
	Name       string                 `json:"name"`
	Category   string                 `json:"category"`
	Status     string                 `json:"status"`
	Priority   string                 `json:"priority"`
	Error      string                 `json:"error,omitempty"`
	Result     interface{}            `json:"result,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	DurationMs int64                  `json:"duration_ms"` // 执行时长（毫秒，未执行为0）
}

// Bus 任务状态事件总线（对外导出）
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus 创建事件总线（对外导出的工厂方法）
func NewBus(debug bool) *Bus {
	logger := watermill.NewStdLogger(debug, false)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            256,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)
	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish 发布任务状态事件（对外导出）
// 发布失败只记录日志，不阻塞调度循环
func (b *Bus) Publish(event *TaskStatusEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ [事件总线] 序列化事件失败: TaskID=%s, Error=%v", event.TaskID, err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicTaskStatus, msg); err != nil {
		log.Printf("⚠️ [事件总线] 发布事件失败: TaskID=%s, Error=%v", event.TaskID, err)
	}
}

// Subscribe 订阅任务状态事件（对外导出）
// 返回解码后的事件channel；ctx取消时订阅随之关闭
func (b *Bus) Subscribe(ctx context.Context) (<-chan *TaskStatusEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicTaskStatus)
	if err != nil {
		return nil, fmt.Errorf("订阅任务状态事件失败: %w", err)
	}

	out := make(chan *TaskStatusEvent, 64)
	go func() {
		defer close(out)
		for msg := range messages {
			var event TaskStatusEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Printf("⚠️ [事件总线] 解码事件失败: %v", err)
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close 关闭事件总线（对外导出）
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
