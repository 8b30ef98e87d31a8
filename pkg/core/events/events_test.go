package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bus.Publish(&TaskStatusEvent{
		Type:       EventTaskCompleted,
		TaskID:     "task-1",
		Name:       "抓取首页",
		Category:   "crawl",
		Status:     "COMPLETED",
		Priority:   "HIGH",
		Timestamp:  time.Now(),
		DurationMs: 42,
	})

	select {
	case event := <-events:
		assert.Equal(t, EventTaskCompleted, event.Type)
		assert.Equal(t, "task-1", event.TaskID)
		assert.Equal(t, "crawl", event.Category)
		assert.Equal(t, int64(42), event.DurationMs)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到发布的事件")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bus.Publish(&TaskStatusEvent{Type: EventTaskFailed, TaskID: "task-2", Timestamp: time.Now()})

	for i, sub := range []<-chan *TaskStatusEvent{sub1, sub2} {
		select {
		case event := <-sub:
			assert.Equal(t, "task-2", event.TaskID, "订阅者%d", i)
		case <-time.After(2 * time.Second):
			t.Fatalf("订阅者%d未收到事件", i)
		}
	}
}

func TestBus_SubscribeCancelledContext(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
