package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "默认配置",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "无效的模式",
			mutate:  func(cfg *Config) { cfg.Mode = "staging" },
			wantErr: true,
		},
		{
			name:    "端口越界",
			mutate:  func(cfg *Config) { cfg.HTTPPort = 70000 },
			wantErr: true,
		},
		{
			name:    "无效的数据库类型",
			mutate:  func(cfg *Config) { cfg.Database.Type = "oracle" },
			wantErr: true,
		},
		{
			name: "mysql缺少host",
			mutate: func(cfg *Config) {
				cfg.Database.Type = "mysql"
				cfg.Database.DBName = "crawl"
			},
			wantErr: true,
		},
		{
			name:    "无效的调度策略",
			mutate:  func(cfg *Config) { cfg.Scheduler.Strategy = "round-robin" },
			wantErr: true,
		},
		{
			name:    "并发上限为0",
			mutate:  func(cfg *Config) { cfg.Scheduler.MaxConcurrency = 0 },
			wantErr: true,
		},
		{
			name: "负载阈值越界",
			mutate: func(cfg *Config) {
				cfg.Scheduler.LoadBalancing.Enabled = true
				cfg.Scheduler.LoadBalancing.Threshold = 1.5
			},
			wantErr: true,
		},
		{
			name: "CPU阈值顺序颠倒",
			mutate: func(cfg *Config) {
				cfg.Resource.CPUMediumThreshold = 90
				cfg.Resource.CPUHighThreshold = 80
			},
			wantErr: true,
		},
		{
			name: "类别基准并发非法",
			mutate: func(cfg *Config) {
				cfg.Resource.Categories = map[string]int{"crawl": 0}
			},
			wantErr: true,
		},
		{
			name: "清理保留期非法",
			mutate: func(cfg *Config) {
				cfg.Cleanup.Enabled = true
				cfg.Cleanup.Retention = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NilConfig(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("空配置应报错")
	}
}
