package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/crawl-engine/pkg/core/events"
	"github.com/LENAX/crawl-engine/pkg/storage"
	"github.com/LENAX/crawl-engine/pkg/storage/sqlite"
)

func TestMirror_PersistsStatusTransitions(t *testing.T) {
	repo, err := sqlite.NewTaskRepoFromDSN(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	bus := events.NewBus(false)
	defer bus.Close()

	mirror := storage.NewMirror(repo, bus)
	require.NoError(t, mirror.Start())
	defer mirror.Stop()

	now := time.Now().UTC()
	bus.Publish(&events.TaskStatusEvent{
		Type: events.EventTaskScheduled, TaskID: "t1", Name: "抓取列表页",
		Category: "crawl", Status: "PENDING", Priority: "NORMAL", Timestamp: now,
	})
	bus.Publish(&events.TaskStatusEvent{
		Type: events.EventTaskStarted, TaskID: "t1", Name: "抓取列表页",
		Category: "crawl", Status: "RUNNING", Priority: "NORMAL", Timestamp: now.Add(time.Second),
	})
	bus.Publish(&events.TaskStatusEvent{
		Type: events.EventTaskCompleted, TaskID: "t1", Name: "抓取列表页",
		Category: "crawl", Status: "COMPLETED", Priority: "NORMAL",
		Result: map[string]interface{}{"pages": 3}, Timestamp: now.Add(2 * time.Second), DurationMs: 1000,
	})

	assert.Eventually(t, func() bool {
		record, err := repo.GetByID(context.Background(), "t1")
		return err == nil && record.Status == "COMPLETED"
	}, 3*time.Second, 20*time.Millisecond)

	record, err := repo.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "抓取列表页", record.Name)
	assert.NotNil(t, record.StartTime)
	assert.NotNil(t, record.EndTime)
	assert.Equal(t, int64(1000), record.DurationMs)
	assert.Contains(t, record.Result, "pages")
}

func TestMirror_RecordsFailureReason(t *testing.T) {
	repo, err := sqlite.NewTaskRepoFromDSN(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	bus := events.NewBus(false)
	defer bus.Close()

	mirror := storage.NewMirror(repo, bus)
	require.NoError(t, mirror.Start())
	defer mirror.Stop()

	bus.Publish(&events.TaskStatusEvent{
		Type: events.EventTaskFailed, TaskID: "t2", Name: "解析详情页",
		Category: "extract", Status: "FAILED", Priority: "HIGH",
		Error: "任务 t2 因上游任务 t1 失败被跳过", Timestamp: time.Now().UTC(),
	})

	assert.Eventually(t, func() bool {
		record, err := repo.GetByID(context.Background(), "t2")
		return err == nil && record.Status == "FAILED" && record.ErrorMessage != ""
	}, 3*time.Second, 20*time.Millisecond)
}
