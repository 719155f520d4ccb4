package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// 地理位置解析后端
const (
	GeoProviderHTTP = "http"
	GeoProviderMMDB = "mmdb"
	GeoProviderOff  = "off"
)

// Config 监视器配置
type Config struct {
	// 配置文件路径
	Path string `yaml:"-"`

	// 监控配置
	Monitor MonitorConfig `yaml:"monitor"`

	// 地理位置解析配置
	Geo GeoConfig `yaml:"geo"`

	// 导出配置
	Export ExportConfig `yaml:"export"`

	// 日志配置
	Logging LoggingConfig `yaml:"logging"`
}

// MonitorConfig 监控配置
type MonitorConfig struct {
	// 轮询间隔（秒）
	Interval int `yaml:"interval"`

	// 快照投递通道的缓冲大小，写满时丢弃最旧快照
	DeliveryBuffer int `yaml:"delivery_buffer"`
}

// GeoConfig 地理位置解析配置
type GeoConfig struct {
	// 解析后端：http（在线查询）、mmdb（本地数据库）或 off（关闭）
	Provider string `yaml:"provider"`

	// http 后端的服务地址
	Endpoint string `yaml:"endpoint"`

	// 单次查询超时（秒），必须在 3-5 秒之间
	Timeout int `yaml:"timeout"`

	// 缓存过期时间（秒），0 表示进程生命周期内不过期。
	// 查询失败的占位结果与成功结果使用同一过期策略。
	CacheTTL int `yaml:"cache_ttl"`

	// mmdb 后端的数据库文件路径
	MMDBPath string `yaml:"mmdb_path"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	// 导出目录，默认当前目录
	Directory string `yaml:"directory"`

	// 文件名模板，支持 {{date}} 和 {{time}} 占位符
	FilenamePattern string `yaml:"filename_pattern"`

	// 定时导出的 cron 表达式，空表示不启用
	Schedule string `yaml:"schedule"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	// 日志级别：debug/info/warn/error
	Level string `yaml:"level"`

	// 日志文件路径，空表示只输出到控制台
	File string `yaml:"file"`

	// 单个日志文件的最大体积（MB）
	MaxSizeMB int `yaml:"max_size_mb"`

	// 保留的历史日志文件数量
	MaxBackups int `yaml:"max_backups"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Interval:       2,
			DeliveryBuffer: 16,
		},
		Geo: GeoConfig{
			Provider: GeoProviderHTTP,
			Endpoint: "https://ipapi.co",
			Timeout:  4,
			CacheTTL: 0,
		},
		Export: ExportConfig{
			Directory:       ".",
			FilenamePattern: "connections_{{date}}_{{time}}.json",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".cybernetmon", "config.yaml")
}

// Load 加载配置文件。文件不存在时创建并返回默认配置。
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetDefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.Save(path); err != nil {
				return nil, fmt.Errorf("创建默认配置文件失败: %w", err)
			}
			cfg.Path = path
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	cfg.Path = path
	return cfg, nil
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	if path == "" {
		path = GetDefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("轮询间隔必须大于 0")
	}

	switch c.Geo.Provider {
	case GeoProviderHTTP:
		if c.Geo.Timeout < 3 || c.Geo.Timeout > 5 {
			return fmt.Errorf("地理位置查询超时必须在 3-5 秒之间")
		}
	case GeoProviderMMDB:
		if c.Geo.MMDBPath == "" {
			return fmt.Errorf("使用 mmdb 后端时必须配置数据库路径")
		}
	case GeoProviderOff:
	default:
		return fmt.Errorf("未知的地理位置后端: %s", c.Geo.Provider)
	}

	if c.Geo.CacheTTL < 0 {
		return fmt.Errorf("缓存过期时间不能为负数")
	}

	if c.Export.Schedule != "" {
		if _, err := cron.ParseStandard(c.Export.Schedule); err != nil {
			return fmt.Errorf("定时导出表达式格式错误: %w", err)
		}
	}

	return nil
}

// GetMonitorInterval 获取轮询间隔时长
func (c *Config) GetMonitorInterval() time.Duration {
	return time.Duration(c.Monitor.Interval) * time.Second
}

// GetGeoTimeout 获取地理位置查询超时时长
func (c *Config) GetGeoTimeout() time.Duration {
	return time.Duration(c.Geo.Timeout) * time.Second
}

// GetCacheTTL 获取缓存过期时长，0 表示不过期
func (c *Config) GetCacheTTL() time.Duration {
	return time.Duration(c.Geo.CacheTTL) * time.Second
}
