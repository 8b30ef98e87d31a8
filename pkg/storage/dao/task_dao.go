// Package dao 定义数据库表结构映射对象
package dao

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LENAX/crawl-engine/pkg/storage"
)

// TaskExecutionDAO task_execution表的数据访问对象（内部使用）
type TaskExecutionDAO struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Category     string         `db:"category"`
	Status       string         `db:"status"`
	Priority     string         `db:"priority"`
	Params       string         `db:"params"`       // JSON格式存储
	Dependencies string         `db:"dependencies"` // JSON格式存储
	ErrorMessage sql.NullString `db:"error_msg"`
	Result       sql.NullString `db:"result"`
	CreateTime   time.Time      `db:"create_time"`
	StartTime    sql.NullTime   `db:"start_time"`
	EndTime      sql.NullTime   `db:"end_time"`
	DurationMs   int64          `db:"duration_ms"`
}

// FromModel 领域模型转DAO
func FromModel(task *storage.TaskExecution) (*TaskExecutionDAO, error) {
	paramsJSON, err := json.Marshal(task.Params)
	if err != nil {
		return nil, fmt.Errorf("序列化参数失败: %w", err)
	}
	depsJSON, err := json.Marshal(task.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("序列化依赖列表失败: %w", err)
	}

	d := &TaskExecutionDAO{
		ID:           task.ID,
		Name:         task.Name,
		Category:     task.Category,
		Status:       task.Status,
		Priority:     task.Priority,
		Params:       string(paramsJSON),
		Dependencies: string(depsJSON),
		CreateTime:   task.CreateTime,
		DurationMs:   task.DurationMs,
	}
	if task.ErrorMessage != "" {
		d.ErrorMessage = sql.NullString{String: task.ErrorMessage, Valid: true}
	}
	if task.Result != "" {
		d.Result = sql.NullString{String: task.Result, Valid: true}
	}
	if task.StartTime != nil {
		d.StartTime = sql.NullTime{Time: *task.StartTime, Valid: true}
	}
	if task.EndTime != nil {
		d.EndTime = sql.NullTime{Time: *task.EndTime, Valid: true}
	}
	return d, nil
}

// ToModel DAO转领域模型
func (d *TaskExecutionDAO) ToModel() (*storage.TaskExecution, error) {
	task := &storage.TaskExecution{
		ID:         d.ID,
		Name:       d.Name,
		Category:   d.Category,
		Status:     d.Status,
		Priority:   d.Priority,
		CreateTime: d.CreateTime,
		DurationMs: d.DurationMs,
	}
	if d.Params != "" {
		if err := json.Unmarshal([]byte(d.Params), &task.Params); err != nil {
			return nil, fmt.Errorf("解析参数失败: %w", err)
		}
	}
	if d.Dependencies != "" {
		if err := json.Unmarshal([]byte(d.Dependencies), &task.Dependencies); err != nil {
			return nil, fmt.Errorf("解析依赖列表失败: %w", err)
		}
	}
	if d.ErrorMessage.Valid {
		task.ErrorMessage = d.ErrorMessage.String
	}
	if d.Result.Valid {
		task.Result = d.Result.String
	}
	if d.StartTime.Valid {
		t := d.StartTime.Time
		task.StartTime = &t
	}
	if d.EndTime.Valid {
		t := d.EndTime.Time
		task.EndTime = &t
	}
	return task, nil
}
