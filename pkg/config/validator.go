package config

import "fmt"

// Validate 校验配置合法性
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}

	validModes := map[string]bool{"dev": true, "prod": true}
	if !validModes[cfg.Mode] {
		return fmt.Errorf("mode必须是dev/prod之一")
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port必须在1-65535之间")
	}

	validDBTypes := map[string]bool{"sqlite": true, "mysql": true, "postgres": true}
	if !validDBTypes[cfg.Database.Type] {
		return fmt.Errorf("database.type必须是sqlite/mysql/postgres之一")
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		return fmt.Errorf("database.path不能为空")
	}
	if cfg.Database.Type != "sqlite" {
		if cfg.Database.Host == "" {
			return fmt.Errorf("database.host不能为空")
		}
		if cfg.Database.DBName == "" {
			return fmt.Errorf("database.dbname不能为空")
		}
	}

	if cfg.Scheduler.MaxConcurrency <= 0 {
		return fmt.Errorf("scheduler.max_concurrency必须大于0")
	}
	validStrategies := map[string]bool{"fifo": true, "priority": true, "fair": true, "adaptive": true}
	if !validStrategies[cfg.Scheduler.Strategy] {
		return fmt.Errorf("scheduler.strategy必须是fifo/priority/fair/adaptive之一")
	}
	if cfg.Scheduler.CheckInterval <= 0 {
		return fmt.Errorf("scheduler.check_interval必须大于0")
	}
	if cfg.Scheduler.WorkerPoolSize <= 0 {
		return fmt.Errorf("scheduler.worker_pool_size必须大于0")
	}
	if cfg.Scheduler.LoadBalancing.Enabled {
		if cfg.Scheduler.LoadBalancing.Threshold <= 0 || cfg.Scheduler.LoadBalancing.Threshold >= 1 {
			return fmt.Errorf("scheduler.load_balancing.threshold必须在0-1之间")
		}
	}

	if cfg.Resource.CPUHighThreshold <= cfg.Resource.CPUMediumThreshold {
		return fmt.Errorf("resource.cpu_high_threshold必须大于cpu_medium_threshold")
	}
	if cfg.Resource.MemoryHighThreshold <= cfg.Resource.MemoryMediumThreshold {
		return fmt.Errorf("resource.memory_high_threshold必须大于memory_medium_threshold")
	}
	for category, base := range cfg.Resource.Categories {
		if base <= 0 {
			return fmt.Errorf("resource.categories.%s必须大于0", category)
		}
	}

	if cfg.Cleanup.Enabled {
		if cfg.Cleanup.Retention <= 0 {
			return fmt.Errorf("cleanup.retention必须大于0")
		}
		if cfg.Cleanup.Interval <= 0 {
			return fmt.Errorf("cleanup.interval必须大于0")
		}
	}

	return nil
}
