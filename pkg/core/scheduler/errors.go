package scheduler

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTaskNotFound 任务不存在
	ErrTaskNotFound = errors.New("任务不存在")

	// ErrDuplicateTask 任务ID已存在
	ErrDuplicateTask = errors.New("任务ID已存在")

	// ErrNilJobFunc 任务体为空
	ErrNilJobFunc = errors.New("任务体函数不能为空")

	// ErrSchedulerStopped 调度器已停止
	ErrSchedulerStopped = errors.New("调度器已停止")

	// ErrTaskNotFinished 任务尚未结束（查询结果时使用）
	ErrTaskNotFinished = errors.New("任务尚未结束")
)

// TimeoutError 任务执行超时
type TimeoutError struct {
	TaskID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("任务 %s 执行超时（限制 %v）", e.TaskID, e.Timeout)
}

// CancelledError 任务被取消
type CancelledError struct {
	TaskID string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("任务 %s 已被取消", e.TaskID)
}

// CascadeError 依赖级联失败：上游任务失败导致本任务不再执行
type CascadeError struct {
	TaskID string
	Origin string // 失败源头的任务ID
}

func (e *CascadeError) Error() string {
	if e.Origin == "" {
		return fmt.Sprintf("任务 %s 因上游依赖失败被跳过", e.TaskID)
	}
	return fmt.Sprintf("任务 %s 因上游任务 %s 失败被跳过", e.TaskID, e.Origin)
}

// ExecutionError 任务体执行失败（保留原始错误）
type ExecutionError struct {
	TaskID string
	Cause  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("任务 %s 执行失败: %v", e.TaskID, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }
