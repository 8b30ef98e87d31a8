package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load 加载配置文件
// 文件不存在时返回默认配置；存在但解析失败时报错
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default 默认配置
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults 为未设置的字段填充默认值
func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = "dev"
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./crawl-engine.db"
	}

	if cfg.Scheduler.MaxConcurrency == 0 {
		cfg.Scheduler.MaxConcurrency = 10
	}
	if cfg.Scheduler.Strategy == "" {
		cfg.Scheduler.Strategy = "priority"
	}
	if cfg.Scheduler.CheckInterval == 0 {
		cfg.Scheduler.CheckInterval = Duration(100 * time.Millisecond)
	}
	if cfg.Scheduler.TimeoutCheckInterval == 0 {
		cfg.Scheduler.TimeoutCheckInterval = Duration(time.Second)
	}
	if cfg.Scheduler.WorkerPoolSize == 0 {
		cfg.Scheduler.WorkerPoolSize = 8
	}
	if cfg.Scheduler.FairWindow == 0 {
		cfg.Scheduler.FairWindow = 16
	}
	if cfg.Scheduler.LoadBalancing.Threshold == 0 {
		cfg.Scheduler.LoadBalancing.Threshold = 0.5
	}
	if cfg.Scheduler.LoadBalancing.Interval == 0 {
		cfg.Scheduler.LoadBalancing.Interval = Duration(5 * time.Second)
	}

	if cfg.Resource.SampleInterval == 0 {
		cfg.Resource.SampleInterval = Duration(5 * time.Second)
	}
	if cfg.Resource.HistorySize == 0 {
		cfg.Resource.HistorySize = 60
	}
	if cfg.Resource.CPUMediumThreshold == 0 {
		cfg.Resource.CPUMediumThreshold = 60
	}
	if cfg.Resource.CPUHighThreshold == 0 {
		cfg.Resource.CPUHighThreshold = 80
	}
	if cfg.Resource.MemoryMediumThreshold == 0 {
		cfg.Resource.MemoryMediumThreshold = 60
	}
	if cfg.Resource.MemoryHighThreshold == 0 {
		cfg.Resource.MemoryHighThreshold = 85
	}

	if cfg.Cleanup.Retention == 0 {
		cfg.Cleanup.Retention = Duration(24 * time.Hour)
	}
	if cfg.Cleanup.Interval == 0 {
		cfg.Cleanup.Interval = Duration(time.Hour)
	}
}
