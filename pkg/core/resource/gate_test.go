package resource

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_AdmissionBound(t *testing.T) {
	// k=4，提交k+10个任务，任意时刻持有许可的任务数不得超过k
	const k = 4
	gate := NewConcurrencyGate(k)

	var active int32
	var peak int32
	var wg sync.WaitGroup

	for i := 0; i < k+10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			taskID := fmt.Sprintf("task-%d", id)
			require.NoError(t, gate.Acquire(context.Background(), taskID))

			cur := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			gate.Release(taskID)
		}(i)
	}

	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(k))
	assert.Equal(t, 0, gate.Active())
}

func TestGate_IdempotentRelease(t *testing.T) {
	gate := NewConcurrencyGate(2)

	require.NoError(t, gate.Acquire(context.Background(), "a"))
	require.NoError(t, gate.Acquire(context.Background(), "b"))
	assert.Equal(t, 2, gate.Active())

	gate.Release("a")
	// 第二次释放同一ID是空操作，不会超发许可
	gate.Release("a")
	assert.Equal(t, 1, gate.Active())

	require.NoError(t, gate.Acquire(context.Background(), "c"))
	assert.Equal(t, 2, gate.Active())

	// 容量已满，第三个获取应阻塞
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := gate.Acquire(ctx, "d")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGate_GracefulShrink(t *testing.T) {
	gate := NewConcurrencyGate(4)

	for i := 0; i < 4; i++ {
		require.NoError(t, gate.Acquire(context.Background(), fmt.Sprintf("t%d", i)))
	}

	// 缩容不回收已发放的许可
	gate.SetCapacity(2)
	assert.Equal(t, 4, gate.Active())
	assert.Equal(t, 2, gate.Capacity())

	// 归还两个后占用量仍在新上限，新的获取继续等待
	gate.Release("t0")
	gate.Release("t1")
	assert.Equal(t, 2, gate.Active())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, gate.Acquire(ctx, "blocked"))

	// 降到上限以下后恢复发放
	gate.Release("t2")
	require.NoError(t, gate.Acquire(context.Background(), "t4"))
}

func TestGate_GrowWakesWaiters(t *testing.T) {
	gate := NewConcurrencyGate(1)
	require.NoError(t, gate.Acquire(context.Background(), "holder"))

	acquired := make(chan error, 1)
	go func() {
		acquired <- gate.Acquire(context.Background(), "waiter")
	}()

	// 等待者进入队列
	assert.Eventually(t, func() bool { return gate.Waiting() == 1 }, time.Second, 5*time.Millisecond)

	// 扩容立即唤醒
	gate.SetCapacity(2)
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("扩容后等待者应立即获得许可")
	}
	assert.Equal(t, 2, gate.Active())
}

func TestGate_CloseFailsWaiters(t *testing.T) {
	gate := NewConcurrencyGate(1)
	require.NoError(t, gate.Acquire(context.Background(), "holder"))

	acquired := make(chan error, 1)
	go func() {
		acquired <- gate.Acquire(context.Background(), "waiter")
	}()
	assert.Eventually(t, func() bool { return gate.Waiting() == 1 }, time.Second, 5*time.Millisecond)

	gate.Close()
	select {
	case err := <-acquired:
		assert.ErrorIs(t, err, ErrGateClosed)
	case <-time.After(time.Second):
		t.Fatal("关闭后等待者应立即失败")
	}

	// 关闭后的新获取同样失败
	assert.ErrorIs(t, gate.Acquire(context.Background(), "late"), ErrGateClosed)
}
