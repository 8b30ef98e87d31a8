package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricHistory_DefaultCapacity(t *testing.T) {
	h := NewMetricHistory(0)
	assert.Equal(t, 60, h.Cap())
}

func TestMetricHistory_Average(t *testing.T) {
	h := NewMetricHistory(4)
	assert.Equal(t, 0.0, h.Average())

	h.Add(10)
	h.Add(20)
	h.Add(30)
	assert.InDelta(t, 20.0, h.Average(), 0.001)
}

func TestMetricHistory_EvictsOldest(t *testing.T) {
	h := NewMetricHistory(3)
	h.Add(1)
	h.Add(2)
	h.Add(3)
	h.Add(4) // 淘汰1

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{2, 3, 4}, h.Values())
	assert.InDelta(t, 3.0, h.Average(), 0.001)

	latest, ok := h.Latest()
	assert.True(t, ok)
	assert.Equal(t, 4.0, latest)
}

func TestMetricHistory_EmptyLatest(t *testing.T) {
	h := NewMetricHistory(3)
	_, ok := h.Latest()
	assert.False(t, ok)
	assert.Empty(t, h.Values())
}
