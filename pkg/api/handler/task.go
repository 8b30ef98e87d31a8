package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/crawl-engine/pkg/api/dto"
	"github.com/LENAX/crawl-engine/pkg/core/scheduler"
	"github.com/LENAX/crawl-engine/pkg/storage"
)

// TaskHandler 任务API处理器
type TaskHandler struct {
	scheduler *scheduler.TaskScheduler
	registry  *scheduler.JobRegistry
	repo      storage.TaskRepository // 可为nil（未配置持久化）
}

// NewTaskHandler 创建TaskHandler
func NewTaskHandler(s *scheduler.TaskScheduler, registry *scheduler.JobRegistry, repo storage.TaskRepository) *TaskHandler {
	return &TaskHandler{scheduler: s, registry: registry, repo: repo}
}

// Create 注册任务
// POST /api/v1/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.ScheduleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求解析失败: %v", err)))
		return
	}

	fn, exists := h.registry.Get(req.Func)
	if !exists {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("任务体 %s 未注册", req.Func)))
		return
	}
	priority, err := scheduler.ParsePriority(req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}
	var timeout time.Duration
	if req.Timeout != "" {
		timeout, err = time.ParseDuration(req.Timeout)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("无效的超时时间: %v", err)))
			return
		}
	}

	id, err := h.scheduler.Schedule(scheduler.TaskSpec{
		ID:           req.ID,
		Name:         req.Name,
		Category:     req.Category,
		Func:         fn,
		Params:       req.Params,
		Priority:     priority,
		Dependencies: req.Dependencies,
		Timeout:      timeout,
		Blocking:     req.Blocking,
		Metadata:     map[string]interface{}{"func": req.Func},
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrDuplicateTask) {
			status = http.StatusConflict
		}
		c.JSON(status, dto.NewErrorResponse(status, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.ScheduleTaskResponse{TaskID: id}))
}

// Get 查询任务
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id := c.Param("id")

	info, err := h.scheduler.GetTask(id)
	if err == nil {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
		return
	}

	// 内存中已清理的任务从持久化记录补查
	if h.repo != nil {
		record, repoErr := h.repo.GetByID(c.Request.Context(), id)
		if repoErr == nil {
			c.JSON(http.StatusOK, dto.NewSuccessResponse(toHistoryItem(record)))
			return
		}
	}
	c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, err.Error()))
}

// List 列出内存中的全部任务
// GET /api/v1/tasks
func (h *TaskHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.scheduler.ListTasks()))
}

// Cancel 取消任务
// POST /api/v1/tasks/:id/cancel
func (h *TaskHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if err := h.scheduler.Cancel(id); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, scheduler.ErrTaskNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, dto.NewErrorResponse(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"task_id": id}))
}

// Result 查询任务结果
// GET /api/v1/tasks/:id/result
func (h *TaskHandler) Result(c *gin.Context) {
	id := c.Param("id")

	result, err := h.scheduler.GetResult(id)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, err.Error()))
		case errors.Is(err, scheduler.ErrTaskNotFinished):
			c.JSON(http.StatusAccepted, dto.NewErrorResponse(202, err.Error()))
		default:
			// 任务已结束但以失败/取消告终
			c.JSON(http.StatusOK, dto.NewErrorResponse(500, err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// History 查询历史执行记录
// GET /api/v1/tasks/history?status=COMPLETED&limit=50
func (h *TaskHandler) History(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "持久化存储未配置"))
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "limit必须是正整数"))
			return
		}
		limit = parsed
	}

	var records []*storage.TaskExecution
	var err error
	if status := c.Query("status"); status != "" {
		records, err = h.repo.ListByStatus(c.Request.Context(), status, limit)
	} else {
		records, err = h.repo.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}

	items := make([]dto.TaskHistoryItem, 0, len(records))
	for _, record := range records {
		items = append(items, toHistoryItem(record))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(items))
}

// Funcs 列出已注册的任务体名称
// GET /api/v1/tasks/funcs
func (h *TaskHandler) Funcs(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.registry.Names()))
}

func toHistoryItem(record *storage.TaskExecution) dto.TaskHistoryItem {
	return dto.TaskHistoryItem{
		ID:           record.ID,
		Name:         record.Name,
		Category:     record.Category,
		Status:       record.Status,
		Priority:     record.Priority,
		Error:        record.ErrorMessage,
		Result:       record.Result,
		CreateTime:   record.CreateTime,
		StartTime:    record.StartTime,
		EndTime:      record.EndTime,
		DurationMs:   record.DurationMs,
		Dependencies: record.Dependencies,
	}
}
