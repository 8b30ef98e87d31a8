// Package app 负责按配置组装调度器整套运行时
// 存储、事件总线、资源管理、调度器、周期任务与HTTP服务统一在这里接线
package app

import (
	"context"
	"fmt"
	"log"

	istorage "github.com/LENAX/crawl-engine/internal/storage"
	"github.com/LENAX/crawl-engine/pkg/api"
	"github.com/LENAX/crawl-engine/pkg/config"
	"github.com/LENAX/crawl-engine/pkg/core/depgraph"
	"github.com/LENAX/crawl-engine/pkg/core/events"
	"github.com/LENAX/crawl-engine/pkg/core/resource"
	"github.com/LENAX/crawl-engine/pkg/core/scheduler"
	"github.com/LENAX/crawl-engine/pkg/pipeline"
	"github.com/LENAX/crawl-engine/pkg/storage"
)

// App 组装完成的运行时
type App struct {
	cfg       *config.Config
	repo      storage.TaskRepository
	bus       *events.Bus
	mirror    *storage.Mirror
	resources *resource.ResourceManager
	scheduler *scheduler.TaskScheduler
	registry  *scheduler.JobRegistry
	cron      *scheduler.CronScheduler
	server    *api.APIServer
}

// New 按配置组装运行时（不启动任何组件）
func New(cfg *config.Config, version string) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	repo, err := istorage.NewTaskRepository(cfg.Database.Type, istorage.BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("初始化存储失败: %w", err)
	}

	bus := events.NewBus(cfg.Mode == "dev")
	mirror := storage.NewMirror(repo, bus)

	rm := resource.NewResourceManager(resource.ManagerConfig{
		SampleInterval:         cfg.Resource.SampleInterval.Std(),
		HistorySize:            cfg.Resource.HistorySize,
		CPUMediumThreshold:     cfg.Resource.CPUMediumThreshold,
		CPUHighThreshold:       cfg.Resource.CPUHighThreshold,
		MemoryMediumThreshold:  cfg.Resource.MemoryMediumThreshold,
		MemoryHighThreshold:    cfg.Resource.MemoryHighThreshold,
		DefaultBaseConcurrency: cfg.Scheduler.MaxConcurrency,
	}, resource.NewSystemSampler())
	for category, base := range cfg.Resource.Categories {
		rm.RegisterCategory(category, base, resource.ResourceQuota{})
	}

	strategy, err := scheduler.ParseStrategy(cfg.Scheduler.Strategy)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	sched := scheduler.NewTaskScheduler(scheduler.Options{
		MaxConcurrentTasks:     cfg.Scheduler.MaxConcurrency,
		Strategy:               strategy,
		CheckInterval:          cfg.Scheduler.CheckInterval.Std(),
		TimeoutCheckInterval:   cfg.Scheduler.TimeoutCheckInterval.Std(),
		WorkerPoolSize:         cfg.Scheduler.WorkerPoolSize,
		FairWindow:             cfg.Scheduler.FairWindow,
		LoadBalancingEnabled:   cfg.Scheduler.LoadBalancing.Enabled,
		LoadBalancingThreshold: cfg.Scheduler.LoadBalancing.Threshold,
		LoadBalancingInterval:  cfg.Scheduler.LoadBalancing.Interval.Std(),
	}, depgraph.NewDependencyGraph(), rm, bus)

	registry := scheduler.NewJobRegistry()
	pipeline.RegisterBuiltins(registry)

	serverCfg := api.DefaultServerConfig()
	serverCfg.Port = cfg.HTTPPort
	apiServer := api.NewAPIServer(api.Dependencies{
		Scheduler: sched,
		Registry:  registry,
		Resources: rm,
		Repo:      repo,
		Bus:       bus,
	}, serverCfg, version)

	return &App{
		cfg:       cfg,
		repo:      repo,
		bus:       bus,
		mirror:    mirror,
		resources: rm,
		scheduler: sched,
		registry:  registry,
		cron:      scheduler.NewCronScheduler(sched),
		server:    apiServer,
	}, nil
}

// Registry 返回任务体注册表，便于调用方追加自定义任务体
func (a *App) Registry() *scheduler.JobRegistry {
	return a.registry
}

// Scheduler 返回调度器
func (a *App) Scheduler() *scheduler.TaskScheduler {
	return a.scheduler
}

// Start 启动全部组件，HTTP服务在独立goroutine中运行
// 返回的channel在HTTP服务退出时收到错误
func (a *App) Start() (<-chan error, error) {
	if err := a.mirror.Start(); err != nil {
		return nil, fmt.Errorf("启动持久化镜像失败: %w", err)
	}
	a.resources.Start()
	a.scheduler.Start()

	if a.cfg.Cleanup.Enabled {
		if err := a.cron.ScheduleCleanup(a.cfg.Cleanup.Retention.Std(), a.cfg.Cleanup.Interval.Std()); err != nil {
			return nil, fmt.Errorf("注册清理任务失败: %w", err)
		}
	}
	a.cron.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()
	log.Printf("🚀 [服务] Crawl Engine已启动 port=%d strategy=%s db=%s",
		a.cfg.HTTPPort, a.cfg.Scheduler.Strategy, a.cfg.Database.Type)
	return errCh, nil
}

// Shutdown 按依赖逆序关闭组件
func (a *App) Shutdown(ctx context.Context) {
	if err := a.server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ [服务] HTTP关闭异常: %v", err)
	}
	a.cron.Stop()
	a.scheduler.Stop()
	a.resources.Stop()
	a.mirror.Stop()
	a.bus.Close()
	if err := a.repo.Close(); err != nil {
		log.Printf("⚠️ [服务] 关闭存储异常: %v", err)
	}
	log.Println("✅ [服务] 已退出")
}
