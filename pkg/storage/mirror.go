package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/LENAX/crawl-engine/pkg/core/events"
)

// Mirror 任务状态镜像
// 订阅事件总线并把每次状态迁移落库，调度器自身不感知存储层
type Mirror struct {
	repo TaskRepository
	bus  *events.Bus

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMirror 创建任务状态镜像
func NewMirror(repo TaskRepository, bus *events.Bus) *Mirror {
	return &Mirror{repo: repo, bus: bus}
}

// Start 启动镜像循环
func (m *Mirror) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	eventCh, err := m.bus.Subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for event := range eventCh {
			if err := m.apply(ctx, event); err != nil {
				log.Printf("⚠️ [状态镜像] 落库失败: TaskID=%s, Error=%v", event.TaskID, err)
			}
		}
	}()
	log.Println("✅ [状态镜像] 已启动")
	return nil
}

// Stop 停止镜像循环
func (m *Mirror) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	log.Println("✅ [状态镜像] 已停止")
}

// apply 把单个事件合并进执行记录（内部方法）
func (m *Mirror) apply(ctx context.Context, event *events.TaskStatusEvent) error {
	record, err := m.repo.GetByID(ctx, event.TaskID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		record = &TaskExecution{
			ID:         event.TaskID,
			CreateTime: event.Timestamp,
		}
	}

	record.Name = event.Name
	record.Category = event.Category
	record.Status = event.Status
	record.Priority = event.Priority
	record.ErrorMessage = event.Error

	switch event.Type {
	case events.EventTaskStarted:
		t := event.Timestamp
		record.StartTime = &t
	case events.EventTaskCompleted, events.EventTaskFailed, events.EventTaskCancelled, events.EventTaskTimeout:
		t := event.Timestamp
		record.EndTime = &t
		record.DurationMs = event.DurationMs
		if event.Result != nil {
			if payload, err := json.Marshal(event.Result); err == nil {
				record.Result = string(payload)
			}
		}
	}

	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.repo.Save(saveCtx, record)
}
