package scheduler

import (
	"container/heap"
	"fmt"
	"time"
)

// Strategy 调度策略（对外导出）
type Strategy string

const (
	// StrategyFIFO 按提交顺序派发
	StrategyFIFO Strategy = "fifo"
	// StrategyPriority 高优先级优先，同优先级按提交顺序
	StrategyPriority Strategy = "priority"
	// StrategyFair 按提交窗口分批，批内按优先级，防止低优先级饿死
	StrategyFair Strategy = "fair"
	// StrategyAdaptive 按负载因子在到达序与优先级序之间加权
	StrategyAdaptive Strategy = "adaptive"
)

// ParseStrategy 解析调度策略名称（对外导出）
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyFIFO, StrategyPriority, StrategyFair, StrategyAdaptive:
		return Strategy(s), nil
	case "":
		return StrategyPriority, nil
	default:
		return StrategyPriority, fmt.Errorf("未知的调度策略: %s", s)
	}
}

// starvationWindow ADAPTIVE策略下等待得分达到满值的时间
const starvationWindow = 30 * time.Second

// taskQueue 就绪任务队列（container/heap实现）
// 比较器随策略切换；ADAPTIVE策略的负载因子变化后需调用Reorder重建堆
type taskQueue struct {
	items      []*TaskRecord
	strategy   Strategy
	fairWindow uint64  // FAIR策略的提交窗口大小（按seq分批）
	loadFactor float64 // ADAPTIVE策略当前负载因子
}

func newTaskQueue(strategy Strategy, fairWindow int) *taskQueue {
	if fairWindow <= 0 {
		fairWindow = 16
	}
	q := &taskQueue{
		strategy:   strategy,
		fairWindow: uint64(fairWindow),
	}
	heap.Init(q)
	return q
}

func (q *taskQueue) Len() int { return len(q.items) }

func (q *taskQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	switch q.strategy {
	case StrategyFIFO:
		return a.seq < b.seq

	case StrategyPriority:
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.seq < b.seq

	case StrategyFair:
		// 先比提交窗口（老批次优先），批内再比优先级
		batchA, batchB := a.seq/q.fairWindow, b.seq/q.fairWindow
		if batchA != batchB {
			return batchA < batchB
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.seq < b.seq

	case StrategyAdaptive:
		scoreA, scoreB := q.adaptiveScore(a), q.adaptiveScore(b)
		if scoreA != scoreB {
			return scoreA > scoreB
		}
		return a.seq < b.seq

	default:
		return a.seq < b.seq
	}
}

// adaptiveScore 负载加权得分：负载越高越偏向优先级，负载越低越偏向到达序
// 等待分随排队时长线性增长并封顶，保证低优先级任务不会无限期滞留
func (q *taskQueue) adaptiveScore(r *TaskRecord) float64 {
	priorityScore := float64(r.Priority) / float64(PriorityCritical)
	waitScore := float64(time.Since(r.enqueueTime)) / float64(starvationWindow)
	if waitScore > 1 {
		waitScore = 1
	}
	return q.loadFactor*priorityScore + (1-q.loadFactor)*waitScore
}

func (q *taskQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *taskQueue) Push(x interface{}) {
	q.items = append(q.items, x.(*TaskRecord))
}

func (q *taskQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}

// PushTask 入队
func (q *taskQueue) PushTask(r *TaskRecord) {
	heap.Push(q, r)
}

// PopTask 取出当前策略下的队首任务，空队列返回nil
func (q *taskQueue) PopTask() *TaskRecord {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*TaskRecord)
}

// SetLoadFactor 更新负载因子并重建堆（ADAPTIVE策略）
func (q *taskQueue) SetLoadFactor(lf float64) {
	if lf < 0 {
		lf = 0
	} else if lf > 1 {
		lf = 1
	}
	q.loadFactor = lf
	heap.Init(q)
}

// Reorder 重建堆
// ADAPTIVE策略的等待分随时间变化，每个调度tick重建一次保证堆序
func (q *taskQueue) Reorder() {
	heap.Init(q)
}

// Drain 清空队列并返回全部滞留任务（停机时使用）
func (q *taskQueue) Drain() []*TaskRecord {
	drained := q.items
	q.items = nil
	return drained
}
