package scheduler

import (
	"context"
	"fmt"
	"time"
)

// TaskStatus 任务状态（对外导出）
// 封闭枚举：pending -> running -> {completed, failed, cancelled}，
// pending -> cancelled（派发前取消）也是合法迁移
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

// IsTerminal 是否为终态
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	case TaskStatusPending, TaskStatusRunning:
		return false
	default:
		return false
	}
}

// Priority 任务优先级（对外导出）
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// String 优先级的可读名称
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(p))
	}
}

// ParsePriority 解析优先级名称（对外导出）
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "LOW", "low":
		return PriorityLow, nil
	case "NORMAL", "normal", "":
		return PriorityNormal, nil
	case "HIGH", "high":
		return PriorityHigh, nil
	case "CRITICAL", "critical":
		return PriorityCritical, nil
	default:
		return PriorityNormal, fmt.Errorf("未知的优先级: %s", s)
	}
}

// JobFunc 任务体函数类型（对外导出）
// 取消与超时通过ctx协作式传递，任务体应在合适的挂起点检查ctx
type JobFunc func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// TaskSpec 任务注册参数（对外导出）
type TaskSpec struct {
	ID           string                 // 任务ID（为空则自动生成）
	Name         string                 // 任务名称（人类可读）
	Category     string                 // 任务类别（资源限流的许可门维度）
	Func         JobFunc                // 任务体
	Params       map[string]interface{} // 任务体参数
	Priority     Priority               // 优先级
	Dependencies []string               // 依赖的任务ID列表（注册顺序不限，未知ID自动创建占位节点）
	Timeout      time.Duration          // 超时时间（0表示不限制）
	Metadata     map[string]interface{} // 自由元数据
	Blocking     bool                   // 阻塞型任务体派发到有界工作池，不占用调度循环
}

// TaskRecord 任务记录（内部结构，通过TaskInfo对外暴露快照）
type TaskRecord struct {
	ID           string
	Name         string
	Category     string
	Func         JobFunc
	Params       map[string]interface{}
	Priority     Priority
	Dependencies []string
	Timeout      time.Duration
	Metadata     map[string]interface{}
	Blocking     bool

	Status     TaskStatus
	CreateTime time.Time
	StartTime  *time.Time
	EndTime    *time.Time
	Result     interface{}
	Err        error

	seq             uint64             // 提交序号（队列排序的到达序）
	enqueueTime     time.Time          // 最近一次入队时间（FAIR/ADAPTIVE策略使用）
	enqueued        bool               // 是否已在队列中
	cancelRequested bool               // 是否已请求取消
	cancel          context.CancelFunc // 运行中任务的取消函数
}

// TaskInfo 任务信息快照（对外导出）
type TaskInfo struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Category     string                 `json:"category"`
	Priority     string                 `json:"priority"`
	Status       TaskStatus             `json:"status"`
	Dependencies []string               `json:"dependencies,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreateTime   time.Time              `json:"create_time"`
	StartTime    *time.Time             `json:"start_time,omitempty"`
	EndTime      *time.Time             `json:"end_time,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// snapshot 生成任务信息快照（内部方法，调用方需持调度器锁）
func (r *TaskRecord) snapshot() *TaskInfo {
	info := &TaskInfo{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Priority:     r.Priority.String(),
		Status:       r.Status,
		Dependencies: append([]string(nil), r.Dependencies...),
		CreateTime:   r.CreateTime,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
	}
	if len(r.Metadata) > 0 {
		info.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			info.Metadata[k] = v
		}
	}
	if r.Err != nil {
		info.Error = r.Err.Error()
	}
	return info
}
