package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != "dev" {
		t.Errorf("Mode = %s, want dev", cfg.Mode)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.Scheduler.Strategy != "priority" {
		t.Errorf("Strategy = %s, want priority", cfg.Scheduler.Strategy)
	}
	if cfg.Scheduler.CheckInterval.Std() != 100*time.Millisecond {
		t.Errorf("CheckInterval = %v, want 100ms", cfg.Scheduler.CheckInterval.Std())
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("默认配置应通过校验: %v", err)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	content := `
mode: prod
http_port: 9090
database:
  type: mysql
  host: db.internal
  port: 3306
  user: crawler
  dbname: crawl_engine
scheduler:
  max_concurrency: 32
  strategy: adaptive
  check_interval: 250ms
  load_balancing:
    enabled: true
    threshold: 0.6
    interval: 10s
resource:
  sample_interval: 3s
  categories:
    crawl: 8
    extract: 4
cleanup:
  enabled: true
  retention: 48h
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != "prod" {
		t.Errorf("Mode = %s, want prod", cfg.Mode)
	}
	if cfg.Database.Type != "mysql" || cfg.Database.Host != "db.internal" {
		t.Errorf("Database解析错误: %+v", cfg.Database)
	}
	if cfg.Scheduler.MaxConcurrency != 32 {
		t.Errorf("MaxConcurrency = %d, want 32", cfg.Scheduler.MaxConcurrency)
	}
	if cfg.Scheduler.CheckInterval.Std() != 250*time.Millisecond {
		t.Errorf("CheckInterval = %v, want 250ms", cfg.Scheduler.CheckInterval.Std())
	}
	if !cfg.Scheduler.LoadBalancing.Enabled || cfg.Scheduler.LoadBalancing.Threshold != 0.6 {
		t.Errorf("LoadBalancing解析错误: %+v", cfg.Scheduler.LoadBalancing)
	}
	if cfg.Resource.Categories["crawl"] != 8 {
		t.Errorf("Categories解析错误: %+v", cfg.Resource.Categories)
	}
	if cfg.Cleanup.Retention.Std() != 48*time.Hour {
		t.Errorf("Retention = %v, want 48h", cfg.Cleanup.Retention.Std())
	}
	// 未显式配置的字段保留默认值
	if cfg.Scheduler.WorkerPoolSize != 8 {
		t.Errorf("WorkerPoolSize = %d, want 8", cfg.Scheduler.WorkerPoolSize)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("非法YAML应报错")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  check_interval: fast\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("非法时长应报错")
	}
}
