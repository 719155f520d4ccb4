package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/CyberNilsen/CyberNetMon/internal/collector"
	"github.com/CyberNilsen/CyberNetMon/internal/config"
	"github.com/CyberNilsen/CyberNetMon/internal/export"
	"github.com/CyberNilsen/CyberNetMon/internal/geo"
	"github.com/CyberNilsen/CyberNetMon/internal/logging"
	"github.com/CyberNilsen/CyberNetMon/internal/model"
	"github.com/CyberNilsen/CyberNetMon/internal/monitor"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version 版本号
const Version = "1.0.0"

var (
	configPath string
	outputPath string
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "cybernetmon",
	Short: "CyberNetMon 网络连接监视器",
	Long:  `CyberNetMon 持续观察本机的活动网络连接，为每个远端附加进程与地理归属信息，支持周期快照、统计汇总和 JSON 导出。`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// versionCmd 版本命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("CyberNetMon v%s\n", Version)
		fmt.Printf("OS: %s\n", runtime.GOOS)
		fmt.Printf("Arch: %s\n", runtime.GOARCH)
		fmt.Printf("Go Version: %s\n", runtime.Version())
	},
}

// runCmd 持续监控命令
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "启动持续监控",
	Long:  `按配置的间隔周期性采集连接快照并输出到终端，Ctrl+C 停止`,
	Run:   runMonitor,
}

// snapshotCmd 单次快照命令
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "采集一次连接快照",
	Long:  `立即执行一次 快照→富化 并以表格形式输出`,
	Run:   runSnapshot,
}

// statsCmd 统计命令
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "显示当前连接统计",
	Long:  `基于调用时刻的新快照计算汇总计数`,
	Run:   runStats,
}

// exportCmd 导出命令
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出当前连接快照",
	Long:  `采集一次快照并序列化为 JSON 文件，默认文件名包含当前日期和时间`,
	Run:   runExport,
}

// configCmd 配置命令
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置管理",
}

// configInitCmd 初始化配置命令
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化配置文件",
	Run: func(cmd *cobra.Command, args []string) {
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "❌ 保存配置文件失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ 配置文件已创建: %s\n", configPath)
	},
}

// configShowCmd 显示配置命令
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示配置文件路径",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("配置文件路径: %s\n", configPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认: ~/.cybernetmon/config.yaml）")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "导出文件路径（默认按日期时间生成）")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// core 核心组件集合
type core struct {
	scheduler *monitor.Scheduler
	resolver  *geo.Resolver
	exporter  *export.Exporter
	logger    *zap.Logger
	closeFn   func()
}

// buildCore 按配置组装核心组件
func buildCore(cfg *config.Config) (*core, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	var provider geo.Provider
	closeFn := func() { _ = logger.Sync() }
	switch cfg.Geo.Provider {
	case config.GeoProviderHTTP:
		provider = geo.NewHTTPProvider(cfg.Geo.Endpoint, cfg.GetGeoTimeout())
	case config.GeoProviderMMDB:
		mmdb, err := geo.NewMMDBProvider(cfg.Geo.MMDBPath)
		if err != nil {
			return nil, err
		}
		provider = mmdb
		closeFn = func() {
			_ = mmdb.Close()
			_ = logger.Sync()
		}
	case config.GeoProviderOff:
		// 公网地址一律 Unknown，不发起任何查询
	}

	resolver := geo.NewResolver(logger, provider, cfg.GetCacheTTL())
	enricher := monitor.NewEnricher(collector.NewProcessResolver(), resolver)
	scheduler := monitor.NewScheduler(logger, collector.NewConnectionCollector(), enricher, cfg.Monitor.DeliveryBuffer)
	exporter := export.NewExporter(nil, cfg.Export.Directory, cfg.Export.FilenamePattern)

	return &core{
		scheduler: scheduler,
		resolver:  resolver,
		exporter:  exporter,
		logger:    logger,
		closeFn:   closeFn,
	}, nil
}

// loadCore 加载配置并组装核心组件
func loadCore() *core {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}

	c, err := buildCore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 初始化失败: %v\n", err)
		os.Exit(1)
	}
	return c
}

// runMonitor 持续监控
func runMonitor(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}

	c, err := buildCore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer c.closeFn()

	// 消费方维护最新快照，供定时导出使用
	var (
		latestMu sync.Mutex
		latest   []model.ConnectionRecord
	)

	c.scheduler.Start(cfg.GetMonitorInterval())
	defer c.scheduler.Stop()

	// 定时导出
	if cfg.Export.Schedule != "" {
		cronRunner := cron.New()
		_, err := cronRunner.AddFunc(cfg.Export.Schedule, func() {
			latestMu.Lock()
			records := latest
			latestMu.Unlock()

			path, err := c.exporter.Export(records, "")
			if err != nil {
				c.logger.Error("定时导出失败", zap.Error(err))
				return
			}
			c.logger.Info("定时导出完成", zap.String("path", path), zap.Int("records", len(records)))
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ 注册定时导出失败: %v\n", err)
			os.Exit(1)
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case records := <-c.scheduler.Records():
			latestMu.Lock()
			latest = records
			latestMu.Unlock()

			stats := monitor.Aggregate(records)
			c.logger.Info("连接快照",
				zap.Int("total", stats.Total),
				zap.Int("tcp", stats.TCP),
				zap.Int("udp", stats.UDP),
				zap.Int("established", stats.Established),
				zap.Int("uniqueIPs", stats.UniqueIPs),
				zap.Int("uniqueCountries", stats.UniqueCountries))
		case <-sigCh:
			fmt.Println()
			c.logger.Info("收到退出信号，正在停止监控")
			return
		}
	}
}

// runSnapshot 单次快照
func runSnapshot(cmd *cobra.Command, args []string) {
	c := loadCore()
	defer c.closeFn()

	records, err := c.scheduler.Refresh(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  采集失败: %v\n", err)
		os.Exit(1)
	}

	printRecords(records)
}

// runStats 连接统计
func runStats(cmd *cobra.Command, args []string) {
	c := loadCore()
	defer c.closeFn()

	records, err := c.scheduler.Refresh(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  采集失败: %v\n", err)
		os.Exit(1)
	}

	stats := monitor.Aggregate(records)
	fmt.Printf("总连接数:   %d\n", stats.Total)
	fmt.Printf("TCP:        %d\n", stats.TCP)
	fmt.Printf("UDP:        %d\n", stats.UDP)
	fmt.Printf("已建立:     %d\n", stats.Established)
	fmt.Printf("远端 IP 数: %d\n", stats.UniqueIPs)
	fmt.Printf("国家数:     %d\n", stats.UniqueCountries)
}

// runExport 导出快照
func runExport(cmd *cobra.Command, args []string) {
	c := loadCore()
	defer c.closeFn()

	records, err := c.scheduler.Refresh(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  采集失败: %v\n", err)
		os.Exit(1)
	}

	path, err := c.exporter.Export(records, outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 导出失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ 已导出 %d 条连接记录: %s\n", len(records), path)
}

// printRecords 以表格形式输出连接记录
func printRecords(records []model.ConnectionRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPROCESS\tPID\tPROTO\tLOCAL\tREMOTE\tSTATUS\tCOUNTRY\tCITY\tISP")
	for _, r := range records {
		pid := "N/A"
		if r.PID > 0 {
			pid = fmt.Sprintf("%d", r.PID)
		}
		country, city, isp := "Unknown", "Unknown", "Unknown"
		if r.Geo != nil {
			country = fmt.Sprintf("%s %s", r.Geo.Flag, r.Geo.Country)
			city = r.Geo.City
			isp = r.Geo.Org
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Format("15:04:05"), r.Process, pid, r.Protocol,
			r.LocalAddr, r.RemoteAddr, r.State, country, city, isp)
	}
	_ = w.Flush()
}
