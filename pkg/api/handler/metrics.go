package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/crawl-engine/pkg/api/dto"
	"github.com/LENAX/crawl-engine/pkg/core/resource"
	"github.com/LENAX/crawl-engine/pkg/core/scheduler"
)

// MetricsHandler 运行指标与资源快照处理器
type MetricsHandler struct {
	scheduler *scheduler.TaskScheduler
	resources *resource.ResourceManager // 可为nil
}

// NewMetricsHandler 创建MetricsHandler
func NewMetricsHandler(s *scheduler.TaskScheduler, rm *resource.ResourceManager) *MetricsHandler {
	return &MetricsHandler{scheduler: s, resources: rm}
}

// Metrics 调度器运行指标
// GET /api/v1/metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.scheduler.GetMetrics()))
}

// Resources 资源使用快照
// GET /api/v1/resources
func (h *MetricsHandler) Resources(c *gin.Context) {
	if h.resources == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "资源管理器未启用"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.resources.GetUsageSnapshot()))
}

// SetQuota 设置类别配额
// PUT /api/v1/resources/quota/:category
func (h *MetricsHandler) SetQuota(c *gin.Context) {
	if h.resources == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "资源管理器未启用"))
		return
	}

	var req dto.QuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}
	category := c.Param("category")
	quota := resource.ResourceQuota{
		MaxCPUPercent:    req.MaxCPUPercent,
		MaxMemoryPercent: req.MaxMemoryPercent,
		MaxDiskPercent:   req.MaxDiskPercent,
		MaxNetworkMbps:   req.MaxNetworkMbps,
		MaxIOPS:          req.MaxIOPS,
	}
	if req.BaseConcurrency > 0 {
		h.resources.RegisterCategory(category, req.BaseConcurrency, quota)
	} else {
		h.resources.SetQuota(category, quota)
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"category": category}))
}
