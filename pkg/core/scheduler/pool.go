package scheduler

import (
	"context"
	"log"
	"sync"
)

// workerPool 有界工作池
// 阻塞型任务体在固定数量的工作协程中执行，避免无限开协程拖垮进程
type workerPool struct {
	jobs     chan func()
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newWorkerPool(size, queueSize int) *workerPool {
	if size <= 0 {
		size = 4
	}
	if queueSize <= 0 {
		queueSize = size * 4
	}

	p := &workerPool{jobs: make(chan func(), queueSize)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Printf("🔧 [工作池] 已启动: Workers=%d, QueueSize=%d", size, queueSize)
	return p
}

func (p *workerPool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Submit 提交任务体，队列满时阻塞直到有空位或ctx取消
func (p *workerPool) Submit(ctx context.Context, job func()) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop 关闭工作池并等待在执行的任务体返回
func (p *workerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
