package dto

// ScheduleTaskRequest 任务注册请求
// Func是任务体注册表中的名称，任务体本身只能在进程内注册
type ScheduleTaskRequest struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Category     string                 `json:"category"`
	Func         string                 `json:"func" binding:"required"`
	Params       map[string]interface{} `json:"params"`
	Priority     string                 `json:"priority"`     // LOW / NORMAL / HIGH / CRITICAL
	Dependencies []string               `json:"dependencies"` // 依赖的任务ID列表
	Timeout      string                 `json:"timeout"`      // 如 "30s"，空表示不限制
	Blocking     bool                   `json:"blocking"`
}

// QuotaRequest 类别配额设置请求
// BaseConcurrency大于0时同步更新类别的基准并发
type QuotaRequest struct {
	MaxCPUPercent    float64 `json:"max_cpu_percent"`
	MaxMemoryPercent float64 `json:"max_memory_percent"`
	MaxDiskPercent   float64 `json:"max_disk_percent"`
	MaxNetworkMbps   float64 `json:"max_network_mbps"`
	MaxIOPS          float64 `json:"max_iops"`
	BaseConcurrency  int     `json:"base_concurrency"`
}
