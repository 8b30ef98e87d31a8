package dto

import "time"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// ScheduleTaskResponse 任务注册响应
type ScheduleTaskResponse struct {
	TaskID string `json:"task_id"`
}

// TaskHistoryItem 历史执行记录
type TaskHistoryItem struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	Error        string     `json:"error,omitempty"`
	Result       string     `json:"result,omitempty"`
	CreateTime   time.Time  `json:"create_time"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationMs   int64      `json:"duration_ms"`
	Dependencies []string   `json:"dependencies,omitempty"`
}
