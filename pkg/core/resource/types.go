package resource

import "time"

// ResourceSample 某一时刻的系统资源采样（对外导出）
type ResourceSample struct {
	CPUPercent    float64   `json:"cpu_percent"`    // CPU使用率（0-100）
	MemoryPercent float64   `json:"memory_percent"` // 内存使用率（0-100）
	DiskPercent   float64   `json:"disk_percent"`   // 磁盘使用率（0-100）
	NetSentBytes  uint64    `json:"net_sent_bytes"` // 网络累计发送字节数（原始计数器）
	NetRecvBytes  uint64    `json:"net_recv_bytes"` // 网络累计接收字节数（原始计数器）
	DiskReadOps   uint64    `json:"disk_read_ops"`  // 磁盘累计读操作数（原始计数器）
	DiskWriteOps  uint64    `json:"disk_write_ops"` // 磁盘累计写操作数（原始计数器）
	Timestamp     time.Time `json:"timestamp"`      // 采样时间
}

// ResourceQuota 任务类别的资源配额（对外导出）
// 软策略：仅作为运维参考与调参输入，实际限流只控制并发数
type ResourceQuota struct {
	MaxCPUPercent    float64 `json:"max_cpu_percent" yaml:"max_cpu_percent"`
	MaxMemoryPercent float64 `json:"max_memory_percent" yaml:"max_memory_percent"`
	MaxDiskPercent   float64 `json:"max_disk_percent" yaml:"max_disk_percent"`
	MaxNetworkMbps   float64 `json:"max_network_mbps" yaml:"max_network_mbps"`
	MaxIOPS          float64 `json:"max_iops" yaml:"max_iops"`
}

// CategoryStatus 任务类别的并发状态（对外导出）
type CategoryStatus struct {
	Category       string `json:"category"`
	MaxConcurrency int    `json:"max_concurrency"` // 当前并发上限（随负载自适应）
	BaseConcurrency int   `json:"base_concurrency"` // 配置的基准并发
	ActiveTasks    int    `json:"active_tasks"`     // 当前持有许可的任务数
	WaitingTasks   int    `json:"waiting_tasks"`    // 正在等待许可的任务数
}

// UsageSnapshot 资源使用快照（对外导出）
// 瞬时值 + 移动平均 + 各类别并发状态，供指标接口对外暴露
type UsageSnapshot struct {
	CPUPercent        float64                   `json:"cpu_percent"`
	CPUAverage        float64                   `json:"cpu_average"`
	MemoryPercent     float64                   `json:"memory_percent"`
	MemoryAverage     float64                   `json:"memory_average"`
	DiskPercent       float64                   `json:"disk_percent"`
	DiskAverage       float64                   `json:"disk_average"`
	NetSentBytesPerSec float64                  `json:"net_sent_bytes_per_sec"`
	NetRecvBytesPerSec float64                  `json:"net_recv_bytes_per_sec"`
	DiskOpsPerSec     float64                   `json:"disk_ops_per_sec"`
	LoadFactor        float64                   `json:"load_factor"`
	Categories        map[string]CategoryStatus `json:"categories"`
	SampledAt         time.Time                 `json:"sampled_at"`
}
