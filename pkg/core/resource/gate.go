package resource

import (
	"context"
	"fmt"
	"sync"
)

// ErrGateClosed 许可门已关闭（管理器停止时等待中的获取操作以此失败）
var ErrGateClosed = fmt.Errorf("资源管理器已关闭")

// gateWaiter 等待许可的排队项（内部结构）
// granted 在持锁状态下、关闭ready之前写入，唤醒方以此区分发放与关闭
type gateWaiter struct {
	taskID  string
	ready   chan struct{}
	granted bool
}

// ConcurrencyGate 任务类别的计数信号量（对外导出）
// 容量可在运行时调整：扩容立即唤醒等待者；缩容从不回收已发放的许可，
// 只停止发放新许可直到占用量降到新上限以下（优雅收缩，绝不抢占）
type ConcurrencyGate struct {
	mu       sync.Mutex
	capacity int
	active   map[string]struct{} // 当前持有许可的任务ID
	waiters  []*gateWaiter       // FIFO等待队列
	closed   bool
}

// NewConcurrencyGate 创建许可门（对外导出）
func NewConcurrencyGate(capacity int) *ConcurrencyGate {
	if capacity < 1 {
		capacity = 1
	}
	return &ConcurrencyGate{
		capacity: capacity,
		active:   make(map[string]struct{}),
	}
}

// Acquire 获取一个许可（对外导出）
// 阻塞直到许可可用、ctx取消或门关闭；成功后taskID进入活跃集合
func (g *ConcurrencyGate) Acquire(ctx context.Context, taskID string) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGateClosed
	}
	if _, held := g.active[taskID]; held {
		// 同一任务重复获取视为幂等
		g.mu.Unlock()
		return nil
	}
	if len(g.active) < g.capacity {
		g.active[taskID] = struct{}{}
		g.mu.Unlock()
		return nil
	}

	w := &gateWaiter{taskID: taskID, ready: make(chan struct{})}
	g.waiters = append(g.waiters, w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		if !w.granted {
			return ErrGateClosed
		}
		return nil
	case <-ctx.Done():
		g.removeWaiter(w)
		return ctx.Err()
	}
}

// Release 归还许可（对外导出）
// taskID不在活跃集合时为空操作（幂等），绝不超发许可
func (g *ConcurrencyGate) Release(taskID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.active[taskID]; !held {
		return
	}
	delete(g.active, taskID)
	g.wakeWaitersLocked()
}

// SetCapacity 调整容量（对外导出）
// 扩容时立即唤醒可容纳的等待者；缩容只影响后续获取
func (g *ConcurrencyGate) SetCapacity(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.capacity = capacity
	g.wakeWaitersLocked()
}

// Close 关闭许可门（对外导出）
// 所有等待者立即以 ErrGateClosed 失败；已持有的许可不受影响
func (g *ConcurrencyGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	for _, w := range g.waiters {
		close(w.ready)
	}
	g.waiters = nil
}

// Active 当前持有许可的任务数（对外导出）
func (g *ConcurrencyGate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

// Waiting 当前排队等待的任务数（对外导出）
func (g *ConcurrencyGate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}

// Capacity 当前容量（对外导出）
func (g *ConcurrencyGate) Capacity() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capacity
}

// wakeWaitersLocked 唤醒可容纳的等待者（内部方法，需持锁调用）
// 许可在此直接移交给等待者，避免唤醒与新获取之间的竞争
func (g *ConcurrencyGate) wakeWaitersLocked() {
	for len(g.waiters) > 0 && len(g.active) < g.capacity {
		w := g.waiters[0]
		g.waiters = g.waiters[1:]
		g.active[w.taskID] = struct{}{}
		w.granted = true
		close(w.ready)
	}
}

// removeWaiter 从等待队列移除（内部方法）
// ctx取消与唤醒可能竞争：若已被唤醒（进入活跃集合）则归还许可
func (g *ConcurrencyGate) removeWaiter(target *gateWaiter) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, w := range g.waiters {
		if w == target {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			return
		}
	}
	// 不在队列中说明已被唤醒，发放过的许可需要归还
	if target.granted {
		if _, held := g.active[target.taskID]; held {
			delete(g.active, target.taskID)
			g.wakeWaitersLocked()
		}
	}
}
