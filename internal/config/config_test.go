package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("默认配置未通过验证: %v", err)
	}
	if cfg.GetMonitorInterval() != 2*time.Second {
		t.Errorf("默认轮询间隔 = %v, want 2s", cfg.GetMonitorInterval())
	}
	if cfg.GetGeoTimeout() != 4*time.Second {
		t.Errorf("默认查询超时 = %v, want 4s", cfg.GetGeoTimeout())
	}
	if cfg.GetCacheTTL() != 0 {
		t.Errorf("默认缓存过期 = %v, want 0", cfg.GetCacheTTL())
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"轮询间隔为零", func(c *Config) { c.Monitor.Interval = 0 }},
		{"轮询间隔为负", func(c *Config) { c.Monitor.Interval = -1 }},
		{"查询超时过小", func(c *Config) { c.Geo.Timeout = 2 }},
		{"查询超时过大", func(c *Config) { c.Geo.Timeout = 6 }},
		{"未知后端", func(c *Config) { c.Geo.Provider = "dns" }},
		{"mmdb 缺少路径", func(c *Config) { c.Geo.Provider = GeoProviderMMDB; c.Geo.MMDBPath = "" }},
		{"缓存过期为负", func(c *Config) { c.Geo.CacheTTL = -1 }},
		{"定时表达式错误", func(c *Config) { c.Export.Schedule = "not a cron" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("%s 应验证失败", tt.name)
			}
		})
	}
}

func TestValidateOffProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Geo.Provider = GeoProviderOff
	cfg.Geo.Timeout = 0 // off 后端不检查超时
	if err := cfg.Validate(); err != nil {
		t.Fatalf("off 后端应通过验证: %v", err)
	}
}

func TestValidateSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Export.Schedule = "*/5 * * * *"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("合法 cron 表达式应通过验证: %v", err)
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Monitor.Interval != 2 || cfg.Geo.Provider != GeoProviderHTTP {
		t.Errorf("应返回默认配置: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("默认配置文件未创建: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Monitor.Interval = 5
	cfg.Geo.CacheTTL = 3600
	cfg.Export.Directory = "/tmp/exports"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if loaded.Monitor.Interval != 5 || loaded.Geo.CacheTTL != 3600 || loaded.Export.Directory != "/tmp/exports" {
		t.Errorf("回读结果不一致: %+v", loaded)
	}
	if loaded.Path != path {
		t.Errorf("Path = %q, want %q", loaded.Path, path)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("monitor:\n  interval: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("非法配置应加载失败")
	}
}
