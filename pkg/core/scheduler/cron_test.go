package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronScheduler_Validation(t *testing.T) {
	s := NewTaskScheduler(testOptions(), nil, nil, nil)
	c := NewCronScheduler(s)

	assert.Error(t, c.RegisterRecurring("", "@every 1s", TaskSpec{Func: noopJob}))
	assert.Error(t, c.RegisterRecurring("bad-expr", "not-a-cron", TaskSpec{Func: noopJob}))
	assert.ErrorIs(t, c.RegisterRecurring("nil-func", "@every 1s", TaskSpec{}), ErrNilJobFunc)

	require.NoError(t, c.RegisterRecurring("ok", "@every 1s", TaskSpec{Func: noopJob}))
	assert.Error(t, c.RegisterRecurring("ok", "@every 1s", TaskSpec{Func: noopJob}), "重复注册应报错")
	assert.Equal(t, []string{"ok"}, c.Names())

	require.NoError(t, c.UnregisterRecurring("ok"))
	assert.Error(t, c.UnregisterRecurring("ok"))
}

func TestCronScheduler_TriggersInstances(t *testing.T) {
	s := NewTaskScheduler(testOptions(), nil, nil, nil)
	c := NewCronScheduler(s)

	var runs int64
	require.NoError(t, c.RegisterRecurring("heartbeat", "@every 50ms", TaskSpec{
		Category: "cron",
		Func: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			atomic.AddInt64(&runs, 1)
			return nil, nil
		},
	}))

	s.Start()
	c.Start()
	defer s.Stop()
	defer c.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 2
	}, 3*time.Second, 20*time.Millisecond, "周期任务应至少触发两次")

	// 每次触发生成独立实例
	instances := 0
	for _, info := range s.ListTasks() {
		if info.Category == "cron" {
			instances++
		}
	}
	assert.GreaterOrEqual(t, instances, 2)
}

func TestCronScheduler_InstanceParamsIsolated(t *testing.T) {
	s := NewTaskScheduler(testOptions(), nil, nil, nil)
	c := NewCronScheduler(s)

	var runs, dirty int64
	require.NoError(t, c.RegisterRecurring("crawl-list", "@every 50ms", TaskSpec{
		Params:   map[string]interface{}{"url": "https://example.com/list"},
		Metadata: map[string]interface{}{"source": "cron"},
		Func: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			// 任务体改写自己的参数副本，不能泄漏给后续实例
			if params["url"] != "https://example.com/list" || params["cursor"] != nil {
				atomic.AddInt64(&dirty, 1)
			}
			params["cursor"] = "page-2"
			atomic.AddInt64(&runs, 1)
			return nil, nil
		},
	}))

	s.Start()
	c.Start()
	defer s.Stop()
	defer c.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 3
	}, 3*time.Second, 20*time.Millisecond, "周期任务应至少触发三次")
	assert.Zero(t, atomic.LoadInt64(&dirty), "实例之间不应共享参数表")
}

func TestJobRegistry(t *testing.T) {
	r := NewJobRegistry()

	require.NoError(t, r.Register("scrape", noopJob))
	assert.Error(t, r.Register("scrape", noopJob), "重复注册应报错")
	assert.Error(t, r.Register("", noopJob))
	assert.ErrorIs(t, r.Register("nil", nil), ErrNilJobFunc)

	fn, ok := r.Get("scrape")
	assert.True(t, ok)
	assert.NotNil(t, fn)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	require.NoError(t, r.Register("extract", noopJob))
	assert.Equal(t, []string{"extract", "scrape"}, r.Names())
}
