package resource

import "sync"

// MetricHistory 定长滚动历史（每个指标一个环）
// 超出容量时淘汰最旧样本，用于计算移动平均
type MetricHistory struct {
	mu       sync.RWMutex
	values   []float64
	capacity int
	head     int // 下一个写入位置
	size     int
}

// NewMetricHistory 创建指标历史环（对外导出）
func NewMetricHistory(capacity int) *MetricHistory {
	if capacity <= 0 {
		capacity = 60
	}
	return &MetricHistory{
		values:   make([]float64, capacity),
		capacity: capacity,
	}
}

// Add 写入一个样本，必要时淘汰最旧样本
func (h *MetricHistory) Add(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.values[h.head] = v
	h.head = (h.head + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// Average 获取移动平均（空历史返回0）
func (h *MetricHistory) Average() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < h.size; i++ {
		sum += h.values[i]
	}
	return sum / float64(h.size)
}

// Latest 获取最近一个样本（空历史返回0与false）
func (h *MetricHistory) Latest() (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 {
		return 0, false
	}
	idx := (h.head - 1 + h.capacity) % h.capacity
	return h.values[idx], true
}

// Len 当前样本数
func (h *MetricHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Cap 历史容量
func (h *MetricHistory) Cap() int {
	return h.capacity
}

// Values 按时间先后顺序返回所有样本副本
func (h *MetricHistory) Values() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]float64, 0, h.size)
	if h.size < h.capacity {
		result = append(result, h.values[:h.size]...)
		return result
	}
	// 环已满，从最旧样本（head位置）开始
	for i := 0; i < h.capacity; i++ {
		result = append(result, h.values[(h.head+i)%h.capacity])
	}
	return result
}
