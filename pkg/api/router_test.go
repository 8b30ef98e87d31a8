package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/crawl-engine/pkg/core/scheduler"
)

func newTestRouter(t *testing.T) (*scheduler.TaskScheduler, http.Handler) {
	t.Helper()

	opts := scheduler.DefaultOptions()
	opts.CheckInterval = 10 * time.Millisecond
	s := scheduler.NewTaskScheduler(opts, nil, nil, nil)

	registry := scheduler.NewJobRegistry()
	require.NoError(t, registry.Register("noop", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return "ok", nil
	}))

	router := SetupRouter(Dependencies{Scheduler: s, Registry: registry}, "test")
	return s, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	_, router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouter_CreateAndGetTask(t *testing.T) {
	_, router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"id":       "t1",
		"name":     "抓取首页",
		"category": "crawl",
		"func":     "noop",
		"priority": "HIGH",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"task_id":"t1"`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/t1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PENDING"`)

	// 重复ID冲突
	w = doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"id": "t1", "func": "noop",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_CreateTaskValidation(t *testing.T) {
	_, router := newTestRouter(t)

	// 缺少func
	w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{"id": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 未注册的任务体
	w = doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"id": "x", "func": "missing",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 非法超时
	w = doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"id": "x", "func": "noop", "timeout": "fast",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CancelTask(t *testing.T) {
	_, router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"id": "t1", "func": "noop", "dependencies": []string{"never"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/tasks/t1/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/t1", nil)
	assert.Contains(t, w.Body.String(), `"status":"CANCELLED"`)

	w = doJSON(t, router, http.MethodPost, "/api/v1/tasks/missing/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_TaskResultLifecycle(t *testing.T) {
	s, router := newTestRouter(t)
	s.Start()
	defer s.Stop()

	w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"id": "t1", "func": "noop",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := s.WaitForTask(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, scheduler.TaskStatusCompleted, status)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/t1/result", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":"ok"`)
}

func TestRouter_MetricsAndFuncs(t *testing.T) {
	_, router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"strategy"`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/funcs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "noop")

	// 资源管理器未启用
	w = doJSON(t, router, http.MethodGet, "/api/v1/resources", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// 持久化未配置
	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
