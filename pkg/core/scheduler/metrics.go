package scheduler

import (
	"sync"
	"time"
)

// SchedulerMetrics 调度器运行指标快照（对外导出）
type SchedulerMetrics struct {
	Strategy       string             `json:"strategy"`
	QueueLength    int                `json:"queue_length"`
	MaxConcurrency int                `json:"max_concurrency"` // 当前全局并发上限（自适应调节后的值）
	RunningTasks   int                `json:"running_tasks"`
	StatusCounts   map[TaskStatus]int `json:"status_counts"`
	LoadFactor     float64            `json:"load_factor"`

	TotalExecutions int64   `json:"total_executions"`
	TotalExecTimeMs int64   `json:"total_exec_time_ms"`
	MinExecTimeMs   int64   `json:"min_exec_time_ms"`
	MaxExecTimeMs   int64   `json:"max_exec_time_ms"`
	AvgExecTimeMs   float64 `json:"avg_exec_time_ms"`

	// TasksAbandoned 超时/取消后任务体仍未返回、协程被放弃的累计次数
	// 持续增长说明任务体没有遵守ctx协作取消约定
	TasksAbandoned int64 `json:"tasks_abandoned"`
}

// execStats 执行耗时统计（内部结构）
type execStats struct {
	mu        sync.Mutex
	count     int64
	totalMs   int64
	minMs     int64
	maxMs     int64
	abandoned int64
}

func (s *execStats) record(d time.Duration) {
	ms := d.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 || ms < s.minMs {
		s.minMs = ms
	}
	if ms > s.maxMs {
		s.maxMs = ms
	}
	s.count++
	s.totalMs += ms
}

func (s *execStats) recordAbandoned() {
	s.mu.Lock()
	s.abandoned++
	s.mu.Unlock()
}

func (s *execStats) fill(m *SchedulerMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.TotalExecutions = s.count
	m.TotalExecTimeMs = s.totalMs
	m.MinExecTimeMs = s.minMs
	m.MaxExecTimeMs = s.maxMs
	if s.count > 0 {
		m.AvgExecTimeMs = float64(s.totalMs) / float64(s.count)
	}
	m.TasksAbandoned = s.abandoned
}
