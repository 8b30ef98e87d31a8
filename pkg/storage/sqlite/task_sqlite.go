package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/crawl-engine/pkg/storage"
	"github.com/LENAX/crawl-engine/pkg/storage/dao"
)

// taskRepo SQLite实现（小写，不导出）
type taskRepo struct {
	db *sqlx.DB
}

// NewTaskRepo 基于已有连接创建存储实例
func NewTaskRepo(db *sqlx.DB) (storage.TaskRepository, error) {
	repo := &taskRepo{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化SQLite表结构失败: %w", err)
	}
	return repo, nil
}

// NewTaskRepoFromDSN 按DSN创建存储实例（如 ./crawl-engine.db 或 :memory:）
func NewTaskRepoFromDSN(dsn string) (storage.TaskRepository, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开SQLite失败: %w", err)
	}
	// SQLite单写者，多连接并发写会报database is locked
	db.SetMaxOpenConns(1)
	return NewTaskRepo(db)
}

// initSchema 初始化数据库表结构（内部方法）
func (r *taskRepo) initSchema() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS task_execution (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'default',
		status TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT 'NORMAL',
		params TEXT,
		dependencies TEXT,
		error_msg TEXT,
		result TEXT,
		create_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		start_time DATETIME,
		end_time DATETIME,
		duration_ms INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_task_execution_status ON task_execution(status);
	CREATE INDEX IF NOT EXISTS idx_task_execution_category ON task_execution(category);
	CREATE INDEX IF NOT EXISTS idx_task_execution_create_time ON task_execution(create_time);
	`
	_, err := r.db.Exec(createTableSQL)
	return err
}

// Save 保存或更新执行记录
func (r *taskRepo) Save(ctx context.Context, task *storage.TaskExecution) error {
	d, err := dao.FromModel(task)
	if err != nil {
		return err
	}

	query := `
	INSERT OR REPLACE INTO task_execution
	(id, name, category, status, priority, params, dependencies, error_msg, result,
	 create_time, start_time, end_time, duration_ms)
	VALUES (:id, :name, :category, :status, :priority, :params, :dependencies, :error_msg, :result,
	 :create_time, :start_time, :end_time, :duration_ms)
	`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("保存执行记录失败: %w", err)
	}
	return nil
}

// GetByID 按ID查询执行记录
func (r *taskRepo) GetByID(ctx context.Context, id string) (*storage.TaskExecution, error) {
	var d dao.TaskExecutionDAO
	query := `SELECT * FROM task_execution WHERE id = ?`
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return nil, fmt.Errorf("查询执行记录失败: %w", err)
	}
	return d.ToModel()
}

// ListByStatus 按状态查询执行记录
func (r *taskRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*storage.TaskExecution, error) {
	if limit <= 0 {
		limit = 100
	}
	var daos []dao.TaskExecutionDAO
	query := `SELECT * FROM task_execution WHERE status = ? ORDER BY create_time DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &daos, query, status, limit); err != nil {
		return nil, fmt.Errorf("按状态查询执行记录失败: %w", err)
	}
	return toModels(daos)
}

// ListRecent 查询最近的执行记录
func (r *taskRepo) ListRecent(ctx context.Context, limit int) ([]*storage.TaskExecution, error) {
	if limit <= 0 {
		limit = 100
	}
	var daos []dao.TaskExecutionDAO
	query := `SELECT * FROM task_execution ORDER BY create_time DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &daos, query, limit); err != nil {
		return nil, fmt.Errorf("查询最近执行记录失败: %w", err)
	}
	return toModels(daos)
}

// DeleteBefore 删除结束时间早于cutoff的终态记录
func (r *taskRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM task_execution WHERE end_time IS NOT NULL AND end_time < ?`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("清理执行记录失败: %w", err)
	}
	return result.RowsAffected()
}

// Close 关闭数据库连接
func (r *taskRepo) Close() error {
	return r.db.Close()
}

func toModels(daos []dao.TaskExecutionDAO) ([]*storage.TaskExecution, error) {
	tasks := make([]*storage.TaskExecution, 0, len(daos))
	for i := range daos {
		task, err := daos[i].ToModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
