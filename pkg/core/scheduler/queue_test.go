package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedRecord(id string, seq uint64, priority Priority, waited time.Duration) *TaskRecord {
	return &TaskRecord{
		ID:          id,
		Priority:    priority,
		Status:      TaskStatusPending,
		seq:         seq,
		enqueueTime: time.Now().Add(-waited),
	}
}

func popOrder(q *taskQueue) []string {
	var order []string
	for {
		rec := q.PopTask()
		if rec == nil {
			return order
		}
		order = append(order, rec.ID)
	}
}

func TestQueue_FIFOIgnoresPriority(t *testing.T) {
	q := newTaskQueue(StrategyFIFO, 0)
	q.PushTask(queuedRecord("a", 0, PriorityLow, 0))
	q.PushTask(queuedRecord("b", 1, PriorityCritical, 0))
	q.PushTask(queuedRecord("c", 2, PriorityHigh, 0))

	assert.Equal(t, []string{"a", "b", "c"}, popOrder(q))
}

func TestQueue_PriorityOrdering(t *testing.T) {
	q := newTaskQueue(StrategyPriority, 0)
	q.PushTask(queuedRecord("low", 0, PriorityLow, 0))
	q.PushTask(queuedRecord("critical", 1, PriorityCritical, 0))
	q.PushTask(queuedRecord("high", 2, PriorityHigh, 0))
	q.PushTask(queuedRecord("normal", 3, PriorityNormal, 0))

	assert.Equal(t, []string{"critical", "high", "normal", "low"}, popOrder(q))
}

func TestQueue_PrioritySamePriorityKeepsArrival(t *testing.T) {
	q := newTaskQueue(StrategyPriority, 0)
	q.PushTask(queuedRecord("first", 0, PriorityNormal, 0))
	q.PushTask(queuedRecord("second", 1, PriorityNormal, 0))
	q.PushTask(queuedRecord("third", 2, PriorityNormal, 0))

	assert.Equal(t, []string{"first", "second", "third"}, popOrder(q))
}

func TestQueue_FairOldBatchBeatsPriority(t *testing.T) {
	// 窗口为2：seq 0/1属于第0批，seq 2的CRITICAL属于第1批，老批次先派发
	q := newTaskQueue(StrategyFair, 2)
	q.PushTask(queuedRecord("old-low", 0, PriorityLow, 0))
	q.PushTask(queuedRecord("old-high", 1, PriorityHigh, 0))
	q.PushTask(queuedRecord("new-critical", 2, PriorityCritical, 0))

	assert.Equal(t, []string{"old-high", "old-low", "new-critical"}, popOrder(q))
}

func TestQueue_AdaptiveHighLoadFavorsPriority(t *testing.T) {
	q := newTaskQueue(StrategyAdaptive, 0)
	q.PushTask(queuedRecord("old-low", 0, PriorityLow, time.Second))
	q.PushTask(queuedRecord("new-critical", 1, PriorityCritical, 0))
	q.SetLoadFactor(1.0)

	assert.Equal(t, []string{"new-critical", "old-low"}, popOrder(q))
}

func TestQueue_AdaptiveLowLoadFavorsArrival(t *testing.T) {
	// 负载为0时只看等待时长，先到的低优先级任务先派发
	q := newTaskQueue(StrategyAdaptive, 0)
	q.PushTask(queuedRecord("old-low", 0, PriorityLow, 10*time.Second))
	q.PushTask(queuedRecord("new-critical", 1, PriorityCritical, 0))
	q.SetLoadFactor(0.0)

	assert.Equal(t, []string{"old-low", "new-critical"}, popOrder(q))
}

func TestQueue_Drain(t *testing.T) {
	q := newTaskQueue(StrategyPriority, 0)
	q.PushTask(queuedRecord("a", 0, PriorityLow, 0))
	q.PushTask(queuedRecord("b", 1, PriorityHigh, 0))

	drained := q.Drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.PopTask())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("fair")
	require.NoError(t, err)
	assert.Equal(t, StrategyFair, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyPriority, s)

	_, err = ParseStrategy("round-robin")
	assert.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("CRITICAL")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, p)

	p, err = ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}
