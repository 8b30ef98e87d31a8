// Package storage 定义任务执行记录的持久化接口与领域模型
// 调度器本身只在内存中运转；存储层通过事件总线镜像任务状态，供查询与审计
package storage

import (
	"context"
	"time"
)

// TaskExecution 任务执行记录（持久化领域模型）
type TaskExecution struct {
	ID           string
	Name         string
	Category     string
	Status       string
	Priority     string
	Params       map[string]interface{}
	Dependencies []string
	ErrorMessage string
	Result       string // JSON序列化后的任务结果
	CreateTime   time.Time
	StartTime    *time.Time
	EndTime      *time.Time
	DurationMs   int64
}

// TaskRepository 任务执行记录存储接口
type TaskRepository interface {
	// Save 保存或更新执行记录（按ID幂等覆盖）
	Save(ctx context.Context, task *TaskExecution) error
	// GetByID 按ID查询，不存在返回ErrNotFound
	GetByID(ctx context.Context, id string) (*TaskExecution, error)
	// ListByStatus 按状态查询，按创建时间倒序
	ListByStatus(ctx context.Context, status string, limit int) ([]*TaskExecution, error)
	// ListRecent 查询最近的执行记录，按创建时间倒序
	ListRecent(ctx context.Context, limit int) ([]*TaskExecution, error)
	// DeleteBefore 删除结束时间早于cutoff的终态记录，返回删除数量
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// Close 关闭底层连接
	Close() error
}
