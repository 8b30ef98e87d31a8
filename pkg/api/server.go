// Package api 提供调度器的HTTP管理接口
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/LENAX/crawl-engine/pkg/core/events"
	"github.com/LENAX/crawl-engine/pkg/core/resource"
	"github.com/LENAX/crawl-engine/pkg/core/scheduler"
	"github.com/LENAX/crawl-engine/pkg/storage"
)

// Dependencies API服务依赖的运行组件
type Dependencies struct {
	Scheduler *scheduler.TaskScheduler
	Registry  *scheduler.JobRegistry
	Resources *resource.ResourceManager // 可为nil
	Repo      storage.TaskRepository    // 可为nil
	Bus       *events.Bus               // 可为nil（事件流接口不注册）
}

// ServerConfig API服务器配置
type ServerConfig struct {
	Host         string        // 监听地址
	Port         int           // 监听端口
	ReadTimeout  time.Duration // 读取超时
	WriteTimeout time.Duration // 写入超时
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// APIServer HTTP API服务器
type APIServer struct {
	deps       Dependencies
	httpServer *http.Server
	config     ServerConfig
	version    string
}

// NewAPIServer 创建API服务器
func NewAPIServer(deps Dependencies, config ServerConfig, version string) *APIServer {
	return &APIServer{
		deps:    deps,
		config:  config,
		version: version,
	}
}

// Start 启动服务器（阻塞直到关闭）
func (s *APIServer) Start() error {
	router := SetupRouter(s.deps, s.version)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	log.Printf("🚀 [API] 服务启动于 %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API服务监听失败: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭服务器
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	log.Println("✅ [API] 服务关闭中")
	return s.httpServer.Shutdown(ctx)
}
