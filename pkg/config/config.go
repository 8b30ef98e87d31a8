package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 支持"5s"、"100ms"等人类可读写法的时长字段
type Duration time.Duration

// UnmarshalYAML 解析字符串时长或纳秒整数
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asString string
	if err := value.Decode(&asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("无效的时长 %q: %w", asString, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var asInt int64
	if err := value.Decode(&asInt); err == nil {
		*d = Duration(asInt)
		return nil
	}
	return fmt.Errorf("无效的时长字段: %s", value.Value)
}

// MarshalYAML 输出为字符串时长
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std 转为标准库时长
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config 引擎核心配置
type Config struct {
	Mode     string `yaml:"mode"`      // dev / prod
	HTTPPort int    `yaml:"http_port"` // API服务端口

	Database struct {
		Type     string `yaml:"type"` // sqlite / mysql / postgres
		Path     string `yaml:"path"` // sqlite文件路径
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
	} `yaml:"database"`

	Scheduler struct {
		MaxConcurrency       int      `yaml:"max_concurrency"`        // 全局并发上限
		Strategy             string   `yaml:"strategy"`               // fifo / priority / fair / adaptive
		CheckInterval        Duration `yaml:"check_interval"`         // 调度循环tick间隔
		TimeoutCheckInterval Duration `yaml:"timeout_check_interval"` // 超时兜底清扫间隔
		WorkerPoolSize       int      `yaml:"worker_pool_size"`       // 阻塞型任务体的工作池大小
		FairWindow           int      `yaml:"fair_window"`            // FAIR策略的提交窗口大小

		LoadBalancing struct {
			Enabled   bool     `yaml:"enabled"`
			Threshold float64  `yaml:"threshold"` // 负载因子低于该值时维持基准并发
			Interval  Duration `yaml:"interval"`
		} `yaml:"load_balancing"`
	} `yaml:"scheduler"`

	Resource struct {
		SampleInterval        Duration `yaml:"sample_interval"`
		HistorySize           int      `yaml:"history_size"`
		CPUMediumThreshold    float64  `yaml:"cpu_medium_threshold"`
		CPUHighThreshold      float64  `yaml:"cpu_high_threshold"`
		MemoryMediumThreshold float64  `yaml:"memory_medium_threshold"`
		MemoryHighThreshold   float64  `yaml:"memory_high_threshold"`

		// 各任务类别的基准并发，如 crawl: 8
		Categories map[string]int `yaml:"categories"`
	} `yaml:"resource"`

	Cleanup struct {
		Enabled   bool     `yaml:"enabled"`
		Retention Duration `yaml:"retention"` // 终态任务保留期
		Interval  Duration `yaml:"interval"`  // 清理周期
	} `yaml:"cleanup"`
}
