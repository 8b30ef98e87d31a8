package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/crawl-engine/pkg/api/handler"
	"github.com/LENAX/crawl-engine/pkg/api/middleware"
)

// SetupRouter 设置路由
func SetupRouter(deps Dependencies, version string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	taskHandler := handler.NewTaskHandler(deps.Scheduler, deps.Registry, deps.Repo)
	metricsHandler := handler.NewMetricsHandler(deps.Scheduler, deps.Resources)
	healthHandler := handler.NewHealthHandler(version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", taskHandler.List)
			tasks.POST("", taskHandler.Create)
			tasks.GET("/funcs", taskHandler.Funcs)
			tasks.GET("/history", taskHandler.History)
			tasks.GET("/:id", taskHandler.Get)
			tasks.GET("/:id/result", taskHandler.Result)
			tasks.POST("/:id/cancel", taskHandler.Cancel)
		}

		v1.GET("/metrics", metricsHandler.Metrics)
		v1.GET("/resources", metricsHandler.Resources)
		v1.PUT("/resources/quota/:category", metricsHandler.SetQuota)

		if deps.Bus != nil {
			eventsHandler := handler.NewEventsHandler(deps.Bus)
			v1.GET("/events/stream", eventsHandler.Stream)
		}
	}

	return router
}
