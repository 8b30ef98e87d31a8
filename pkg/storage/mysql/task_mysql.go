package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/LENAX/crawl-engine/pkg/storage"
	"github.com/LENAX/crawl-engine/pkg/storage/dao"
)

// taskRepo MySQL实现（小写，不导出）
type taskRepo struct {
	db *sqlx.DB
}

// NewTaskRepo 基于已有连接创建存储实例
func NewTaskRepo(db *sqlx.DB) (storage.TaskRepository, error) {
	repo := &taskRepo{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化MySQL表结构失败: %w", err)
	}
	return repo, nil
}

// NewTaskRepoFromDSN 按DSN创建存储实例
// DSN格式: user:password@tcp(host:port)/dbname?parseTime=true
func NewTaskRepoFromDSN(dsn string) (storage.TaskRepository, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开MySQL失败: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return NewTaskRepo(db)
}

// initSchema 初始化数据库表结构（内部方法）
func (r *taskRepo) initSchema() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS task_execution (
		id VARCHAR(191) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(64) NOT NULL DEFAULT 'default',
		status VARCHAR(32) NOT NULL,
		priority VARCHAR(16) NOT NULL DEFAULT 'NORMAL',
		params TEXT,
		dependencies TEXT,
		error_msg TEXT,
		result TEXT,
		create_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		start_time DATETIME NULL,
		end_time DATETIME NULL,
		duration_ms BIGINT DEFAULT 0,
		INDEX idx_task_execution_status (status),
		INDEX idx_task_execution_category (category),
		INDEX idx_task_execution_create_time (create_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
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
	INSERT INTO task_execution
	(id, name, category, status, priority, params, dependencies, error_msg, result,
	 create_time, start_time, end_time, duration_ms)
	VALUES (:id, :name, :category, :status, :priority, :params, :dependencies, :error_msg, :result,
	 :create_time, :start_time, :end_time, :duration_ms)
	ON DUPLICATE KEY UPDATE
	 name = VALUES(name), category = VALUES(category), status = VALUES(status),
	 priority = VALUES(priority), params = VALUES(params), dependencies = VALUES(dependencies),
	 error_msg = VALUES(error_msg), result = VALUES(result),
	 start_time = VALUES(start_time), end_time = VALUES(end_time), duration_ms = VALUES(duration_ms)
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
