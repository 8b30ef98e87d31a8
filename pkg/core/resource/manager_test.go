package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSampler 合成采样器（测试用）
type fakeSampler struct {
	cpu    float64
	memory float64
}

func (s *fakeSampler) Sample(ctx context.Context) (*ResourceSample, error) {
	return &ResourceSample{
		CPUPercent:    s.cpu,
		MemoryPercent: s.memory,
		Timestamp:     time.Now(),
	}, nil
}

func newTestManager(cpu, memory float64) *ResourceManager {
	return NewResourceManager(ManagerConfig{
		SampleInterval:        10 * time.Millisecond,
		HistorySize:           8,
		CPUMediumThreshold:    60,
		CPUHighThreshold:      80,
		MemoryMediumThreshold: 60,
		MemoryHighThreshold:   85,
	}, &fakeSampler{cpu: cpu, memory: memory})
}

func TestManager_HighLoadHalvesConcurrency(t *testing.T) {
	// CPU均值85%（> cpu_high=80）：负载因子1.0，基准4的类别降到2
	m := newTestManager(85, 30)
	m.RegisterCategory("crawl", 4, ResourceQuota{MaxCPUPercent: 50})

	m.Start()
	defer m.Stop()

	assert.Eventually(t, func() bool {
		snapshot := m.GetUsageSnapshot()
		return snapshot.Categories["crawl"].MaxConcurrency == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.InDelta(t, 1.0, m.LoadFactor(), 0.001)
}

func TestManager_MediumLoadShrinksToThreeQuarters(t *testing.T) {
	// CPU均值73%：负载因子=(73-60)/(80-60)=0.65，基准4降到3
	m := newTestManager(73, 30)
	m.RegisterCategory("extract", 4, ResourceQuota{})

	m.Start()
	defer m.Stop()

	assert.Eventually(t, func() bool {
		return m.GetUsageSnapshot().Categories["extract"].MaxConcurrency == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_LowLoadKeepsBase(t *testing.T) {
	m := newTestManager(20, 30)
	m.RegisterCategory("store", 4, ResourceQuota{})

	m.Start()
	defer m.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 4, m.GetUsageSnapshot().Categories["store"].MaxConcurrency)
	assert.Equal(t, 0.0, m.LoadFactor())
}

func TestManager_ConcurrencyFlooredAtOne(t *testing.T) {
	m := newTestManager(95, 95)
	m.RegisterCategory("tiny", 1, ResourceQuota{})

	m.Start()
	defer m.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, m.GetUsageSnapshot().Categories["tiny"].MaxConcurrency)
}

func TestManager_MemoryFactorDominates(t *testing.T) {
	// CPU低但内存高：load_factor = max(cpu_factor, memory_factor)
	m := newTestManager(10, 90)
	m.Start()
	defer m.Stop()

	assert.Eventually(t, func() bool {
		return m.LoadFactor() == 1.0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_AcquireRelease(t *testing.T) {
	m := newTestManager(10, 10)
	m.RegisterCategory("crawl", 2, ResourceQuota{})
	m.Start()
	defer m.Stop()

	require.NoError(t, m.Acquire(context.Background(), "crawl", "t1"))
	require.NoError(t, m.Acquire(context.Background(), "crawl", "t2"))
	assert.Equal(t, 2, m.ActiveTasks("crawl"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, m.Acquire(ctx, "crawl", "t3"))

	m.Release("crawl", "t1")
	m.Release("crawl", "t1") // 幂等
	assert.Equal(t, 1, m.ActiveTasks("crawl"))
}

func TestManager_AcquireUnknownCategoryAutoCreates(t *testing.T) {
	m := newTestManager(10, 10)
	m.Start()
	defer m.Stop()

	require.NoError(t, m.Acquire(context.Background(), "adhoc", "t1"))
	assert.Equal(t, 1, m.ActiveTasks("adhoc"))
	m.Release("adhoc", "t1")
}

func TestManager_StopFailsPendingAcquire(t *testing.T) {
	m := newTestManager(10, 10)
	m.RegisterCategory("crawl", 1, ResourceQuota{})
	m.Start()

	require.NoError(t, m.Acquire(context.Background(), "crawl", "holder"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Acquire(context.Background(), "crawl", "waiter")
	}()
	assert.Eventually(t, func() bool { return m.ActiveTasks("crawl") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	m.Stop()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrGateClosed)
	case <-time.After(time.Second):
		t.Fatal("管理器停止后等待中的获取应失败")
	}

	// 停止后的新获取同样失败
	assert.ErrorIs(t, m.Acquire(context.Background(), "crawl", "late"), ErrGateClosed)
}
