package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/crawl-engine/pkg/storage"
)

func newTestRepo(t *testing.T) storage.TaskRepository {
	t.Helper()
	repo, err := NewTaskRepoFromDSN(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleExecution(id string) *storage.TaskExecution {
	return &storage.TaskExecution{
		ID:           id,
		Name:         "抓取商品页",
		Category:     "crawl",
		Status:       "PENDING",
		Priority:     "HIGH",
		Params:       map[string]interface{}{"url": "https://example.com/item/1"},
		Dependencies: []string{"seed"},
		CreateTime:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestTaskRepo_SaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := sampleExecution("t1")
	require.NoError(t, repo.Save(ctx, task))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "抓取商品页", got.Name)
	assert.Equal(t, "crawl", got.Category)
	assert.Equal(t, "HIGH", got.Priority)
	assert.Equal(t, "https://example.com/item/1", got.Params["url"])
	assert.Equal(t, []string{"seed"}, got.Dependencies)
	assert.Nil(t, got.StartTime)
}

func TestTaskRepo_SaveIsUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	task := sampleExecution("t1")
	require.NoError(t, repo.Save(ctx, task))

	start := time.Now().UTC().Truncate(time.Second)
	end := start.Add(2 * time.Second)
	task.Status = "COMPLETED"
	task.StartTime = &start
	task.EndTime = &end
	task.DurationMs = 2000
	task.Result = `{"items":12}`
	require.NoError(t, repo.Save(ctx, task))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", got.Status)
	assert.Equal(t, int64(2000), got.DurationMs)
	assert.Equal(t, `{"items":12}`, got.Result)
	require.NotNil(t, got.EndTime)
}

func TestTaskRepo_GetMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTaskRepo_ListByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, status := range []string{"COMPLETED", "FAILED", "COMPLETED"} {
		task := sampleExecution(string(rune('a' + i)))
		task.Status = status
		task.CreateTime = time.Now().UTC().Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Save(ctx, task))
	}

	completed, err := repo.ListByStatus(ctx, "COMPLETED", 10)
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// 按创建时间倒序
	assert.Equal(t, "c", recent[0].ID)
}

func TestTaskRepo_DeleteBefore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := sampleExecution("old")
	oldEnd := time.Now().UTC().Add(-48 * time.Hour)
	old.Status = "COMPLETED"
	old.EndTime = &oldEnd
	require.NoError(t, repo.Save(ctx, old))

	fresh := sampleExecution("fresh")
	freshEnd := time.Now().UTC()
	fresh.Status = "COMPLETED"
	fresh.EndTime = &freshEnd
	require.NoError(t, repo.Save(ctx, fresh))

	running := sampleExecution("running")
	running.Status = "RUNNING"
	require.NoError(t, repo.Save(ctx, running))

	deleted, err := repo.DeleteBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByID(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetByID(ctx, "fresh")
	assert.NoError(t, err)
	_, err = repo.GetByID(ctx, "running")
	assert.NoError(t, err, "未结束的记录不受清理影响")
}
