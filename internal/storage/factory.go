package storage

import (
	"fmt"

	"github.com/LENAX/crawl-engine/pkg/config"
	"github.com/LENAX/crawl-engine/pkg/storage"
	"github.com/LENAX/crawl-engine/pkg/storage/mysql"
	"github.com/LENAX/crawl-engine/pkg/storage/postgres"
	"github.com/LENAX/crawl-engine/pkg/storage/sqlite"
)

// NewTaskRepository 按数据库类型创建任务执行记录存储（内部工厂方法）
// dbType: sqlite / mysql / postgres
func NewTaskRepository(dbType, dsn string) (storage.TaskRepository, error) {
	switch dbType {
	case "sqlite":
		return sqlite.NewTaskRepoFromDSN(dsn)
	case "mysql":
		return mysql.NewTaskRepoFromDSN(dsn)
	case "postgres", "postgresql":
		return postgres.NewTaskRepoFromDSN(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", dbType)
	}
}

// BuildDSN 根据配置拼接连接字符串（内部辅助函数）
func BuildDSN(cfg *config.Config) string {
	switch cfg.Database.Type {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			cfg.Database.User, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	case "postgres", "postgresql":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.Database.User, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	default:
		return cfg.Database.Path
	}
}
