// Package resource 提供系统资源监控与按任务类别的自适应并发限流
// 采样循环维护定长滚动历史并计算负载因子，负载升高时优雅收缩各类别的并发许可
package resource

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// ManagerConfig 资源管理器配置（对外导出）
type ManagerConfig struct {
	SampleInterval        time.Duration // 采样间隔
	HistorySize           int           // 每个指标的滚动历史容量
	CPUMediumThreshold    float64       // CPU中位阈值（负载因子起算点）
	CPUHighThreshold      float64       // CPU高位阈值（负载因子饱和点）
	MemoryMediumThreshold float64       // 内存中位阈值
	MemoryHighThreshold   float64       // 内存高位阈值
	DefaultBaseConcurrency int          // 未注册类别的默认基准并发
}

// DefaultManagerConfig 默认配置（对外导出）
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		SampleInterval:         5 * time.Second,
		HistorySize:            60,
		CPUMediumThreshold:     60,
		CPUHighThreshold:       80,
		MemoryMediumThreshold:  60,
		MemoryHighThreshold:    85,
		DefaultBaseConcurrency: 4,
	}
}

// categoryState 类别状态（内部结构）
type categoryState struct {
	gate  *ConcurrencyGate
	base  int
	quota ResourceQuota
}

// ResourceManager 资源管理器核心结构体（对外导出）
type ResourceManager struct {
	mu      sync.RWMutex
	cfg     ManagerConfig
	sampler Sampler

	cpuHistory    *MetricHistory
	memoryHistory *MetricHistory
	diskHistory   *MetricHistory

	lastSample *ResourceSample // 上一次采样（用于计算网络/IO速率）
	netSentRate float64
	netRecvRate float64
	diskOpsRate float64
	loadFactor  float64

	categories map[string]*categoryState

	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewResourceManager 创建资源管理器（对外导出的工厂方法）
// sampler为nil时使用gopsutil系统采样器
func NewResourceManager(cfg ManagerConfig, sampler Sampler) *ResourceManager {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 5 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 60
	}
	if cfg.CPUHighThreshold <= cfg.CPUMediumThreshold {
		cfg.CPUMediumThreshold = 60
		cfg.CPUHighThreshold = 80
	}
	if cfg.MemoryHighThreshold <= cfg.MemoryMediumThreshold {
		cfg.MemoryMediumThreshold = 60
		cfg.MemoryHighThreshold = 85
	}
	if cfg.DefaultBaseConcurrency < 1 {
		cfg.DefaultBaseConcurrency = 4
	}
	if sampler == nil {
		sampler = NewSystemSampler()
	}

	return &ResourceManager{
		cfg:           cfg,
		sampler:       sampler,
		cpuHistory:    NewMetricHistory(cfg.HistorySize),
		memoryHistory: NewMetricHistory(cfg.HistorySize),
		diskHistory:   NewMetricHistory(cfg.HistorySize),
		categories:    make(map[string]*categoryState),
	}
}

// RegisterCategory 注册任务类别（对外导出）
// base为基准并发，quota为软配额；重复注册更新基准与配额
func (m *ResourceManager) RegisterCategory(category string, base int, quota ResourceQuota) {
	if base < 1 {
		base = m.cfg.DefaultBaseConcurrency
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, exists := m.categories[category]; exists {
		state.base = base
		state.quota = quota
		state.gate.SetCapacity(m.targetConcurrencyLocked(base))
		return
	}
	m.categories[category] = &categoryState{
		gate:  NewConcurrencyGate(base),
		base:  base,
		quota: quota,
	}
}

// Start 启动采样循环（对外导出，幂等）
func (m *ResourceManager) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.mu.Unlock()

	m.wg.Add(1)
	go m.sampleLoop()
	log.Printf("✅ [资源管理器] 已启动, SampleInterval=%v, HistorySize=%d", m.cfg.SampleInterval, m.cfg.HistorySize)
}

// Stop 停止采样循环并关闭所有许可门（对外导出，幂等）
// 等待许可的获取操作以 ErrGateClosed 失败；已持有的许可不回收
func (m *ResourceManager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.cancel()
	gates := make([]*ConcurrencyGate, 0, len(m.categories))
	for _, state := range m.categories {
		gates = append(gates, state.gate)
	}
	m.mu.Unlock()

	for _, gate := range gates {
		gate.Close()
	}
	m.wg.Wait()
	log.Println("✅ [资源管理器] 已停止")
}

// Acquire 获取指定类别的并发许可（对外导出）
// 协作式阻塞直到许可可用；仅在管理器关闭或ctx取消时失败
func (m *ResourceManager) Acquire(ctx context.Context, category, taskID string) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrGateClosed
	}
	state, exists := m.categories[category]
	if !exists {
		// 未注册类别按默认基准并发自动创建
		state = &categoryState{
			gate: NewConcurrencyGate(m.targetConcurrencyLocked(m.cfg.DefaultBaseConcurrency)),
			base: m.cfg.DefaultBaseConcurrency,
		}
		m.categories[category] = state
	}
	m.mu.Unlock()

	if err := state.gate.Acquire(ctx, taskID); err != nil {
		return fmt.Errorf("获取类别 %s 的并发许可失败: %w", category, err)
	}
	return nil
}

// Release 归还并发许可（对外导出，幂等）
func (m *ResourceManager) Release(category, taskID string) {
	m.mu.RLock()
	state, exists := m.categories[category]
	m.mu.RUnlock()
	if !exists {
		return
	}
	state.gate.Release(taskID)
}

// SetQuota 设置类别配额（对外导出）
func (m *ResourceManager) SetQuota(category string, quota ResourceQuota) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, exists := m.categories[category]; exists {
		state.quota = quota
		return
	}
	m.categories[category] = &categoryState{
		gate:  NewConcurrencyGate(m.cfg.DefaultBaseConcurrency),
		base:  m.cfg.DefaultBaseConcurrency,
		quota: quota,
	}
}

// GetQuota 获取类别配额（对外导出）
func (m *ResourceManager) GetQuota(category string) (ResourceQuota, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.categories[category]
	if !exists {
		return ResourceQuota{}, false
	}
	return state.quota, true
}

// LoadFactor 获取当前负载因子（对外导出，0-1）
func (m *ResourceManager) LoadFactor() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadFactor
}

// GetUsageSnapshot 获取资源使用快照（对外导出）
func (m *ResourceManager) GetUsageSnapshot() UsageSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := UsageSnapshot{
		CPUAverage:         m.cpuHistory.Average(),
		MemoryAverage:      m.memoryHistory.Average(),
		DiskAverage:        m.diskHistory.Average(),
		NetSentBytesPerSec: m.netSentRate,
		NetRecvBytesPerSec: m.netRecvRate,
		DiskOpsPerSec:      m.diskOpsRate,
		LoadFactor:         m.loadFactor,
		Categories:         make(map[string]CategoryStatus, len(m.categories)),
		SampledAt:          time.Now(),
	}
	if v, ok := m.cpuHistory.Latest(); ok {
		snapshot.CPUPercent = v
	}
	if v, ok := m.memoryHistory.Latest(); ok {
		snapshot.MemoryPercent = v
	}
	if v, ok := m.diskHistory.Latest(); ok {
		snapshot.DiskPercent = v
	}
	for category, state := range m.categories {
		snapshot.Categories[category] = CategoryStatus{
			Category:        category,
			MaxConcurrency:  state.gate.Capacity(),
			BaseConcurrency: state.base,
			ActiveTasks:     state.gate.Active(),
			WaitingTasks:    state.gate.Waiting(),
		}
	}
	return snapshot
}

// ActiveTasks 获取类别的活跃任务数（对外导出）
func (m *ResourceManager) ActiveTasks(category string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.categories[category]
	if !exists {
		return 0
	}
	return state.gate.Active()
}

// sampleLoop 采样循环（内部方法）
func (m *ResourceManager) sampleLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sampleOnce()
		case <-m.ctx.Done():
			return
		}
	}
}

// sampleOnce 执行一次采样并重算负载因子与各类别并发上限（内部方法）
func (m *ResourceManager) sampleOnce() {
	sample, err := m.sampler.Sample(m.ctx)
	if err != nil {
		log.Printf("⚠️ [资源管理器] 采样失败: %v", err)
		return
	}

	m.cpuHistory.Add(sample.CPUPercent)
	m.memoryHistory.Add(sample.MemoryPercent)
	m.diskHistory.Add(sample.DiskPercent)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastSample != nil {
		elapsed := sample.Timestamp.Sub(m.lastSample.Timestamp).Seconds()
		if elapsed > 0 {
			m.netSentRate = float64(sample.NetSentBytes-m.lastSample.NetSentBytes) / elapsed
			m.netRecvRate = float64(sample.NetRecvBytes-m.lastSample.NetRecvBytes) / elapsed
			readDelta := sample.DiskReadOps - m.lastSample.DiskReadOps
			writeDelta := sample.DiskWriteOps - m.lastSample.DiskWriteOps
			m.diskOpsRate = float64(readDelta+writeDelta) / elapsed
		}
	}
	m.lastSample = sample

	old := m.loadFactor
	m.loadFactor = m.computeLoadFactorLocked()
	if (old < 0.5) != (m.loadFactor < 0.5) || (old >= 0.8) != (m.loadFactor >= 0.8) {
		log.Printf("📊 [资源管理器] 负载因子变化: %.2f -> %.2f (CPU均值=%.1f%%, 内存均值=%.1f%%)",
			old, m.loadFactor, m.cpuHistory.Average(), m.memoryHistory.Average())
	}

	for category, state := range m.categories {
		target := m.targetConcurrencyLocked(state.base)
		if target != state.gate.Capacity() {
			log.Printf("🔧 [资源管理器] 调整类别并发: Category=%s, %d -> %d (负载因子=%.2f)",
				category, state.gate.Capacity(), target, m.loadFactor)
			state.gate.SetCapacity(target)
		}
	}
}

// computeLoadFactorLocked 计算负载因子（内部方法，需持锁调用）
// cpu_factor = clamp((avg-medium)/(high-medium), 0, 1)，内存同理，取两者较大值
func (m *ResourceManager) computeLoadFactorLocked() float64 {
	cpuFactor := clamp((m.cpuHistory.Average()-m.cfg.CPUMediumThreshold)/
		(m.cfg.CPUHighThreshold-m.cfg.CPUMediumThreshold), 0, 1)
	memoryFactor := clamp((m.memoryHistory.Average()-m.cfg.MemoryMediumThreshold)/
		(m.cfg.MemoryHighThreshold-m.cfg.MemoryMediumThreshold), 0, 1)
	if cpuFactor > memoryFactor {
		return cpuFactor
	}
	return memoryFactor
}

// targetConcurrencyLocked 根据负载因子计算目标并发（内部方法，需持锁调用）
// 负载<0.5取基准；0.5-0.8取0.75倍；≥0.8取0.5倍，下限为1
func (m *ResourceManager) targetConcurrencyLocked(base int) int {
	var target int
	switch {
	case m.loadFactor < 0.5:
		target = base
	case m.loadFactor < 0.8:
		target = int(float64(base) * 0.75)
	default:
		target = int(float64(base) * 0.5)
	}
	if target < 1 {
		target = 1
	}
	return target
}

// clamp 将v限制在[lo, hi]区间（内部辅助函数）
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
