package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/CyberNilsen/CyberNetMon/internal/model"
	"github.com/spf13/afero"
	"github.com/valyala/fasttemplate"
)

// DefaultFilenamePattern 默认导出文件名模板
const DefaultFilenamePattern = "connections_{{date}}_{{time}}.json"

// entry 导出文件中的单条记录
type entry struct {
	Timestamp     string `json:"timestamp"`
	Process       string `json:"process"`
	PID           any    `json:"pid"`
	Protocol      string `json:"protocol"`
	LocalAddress  string `json:"local_address"`
	RemoteAddress string `json:"remote_address"`
	Status        string `json:"status"`
	Country       string `json:"country"`
	City          string `json:"city"`
	ISP           string `json:"isp"`
}

// Exporter 连接快照导出器，将快照序列化为单个 JSON 数组文件
type Exporter struct {
	fs      afero.Fs
	dir     string
	pattern string
}

// NewExporter 创建导出器。fs 为 nil 时使用操作系统文件系统；
// pattern 为空时使用默认文件名模板。
func NewExporter(fs afero.Fs, dir, pattern string) *Exporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if pattern == "" {
		pattern = DefaultFilenamePattern
	}
	return &Exporter{fs: fs, dir: dir, pattern: pattern}
}

// Filename 按模板渲染导出文件名，支持 {{date}} 和 {{time}} 占位符
func (e *Exporter) Filename(now time.Time) string {
	t := fasttemplate.New(e.pattern, "{{", "}}")
	return t.ExecuteString(map[string]interface{}{
		"date": now.Format("20060102"),
		"time": now.Format("150405"),
	})
}

// Export 将快照写入 path，返回实际写入的路径。
// path 为空时在导出目录下按当前时间生成文件名。
// 写入失败原样返回给调用方，不影响监控循环。
func (e *Exporter) Export(records []model.ConnectionRecord, path string) (string, error) {
	if path == "" {
		path = filepath.Join(e.dir, e.Filename(time.Now()))
	}

	entries := make([]entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, toEntry(r))
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化导出数据失败: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("创建导出目录失败: %w", err)
		}
	}

	if err := afero.WriteFile(e.fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("写入导出文件失败: %w", err)
	}
	return path, nil
}

// toEntry 转换为导出条目，缺失地理信息时国家/城市/ISP 填 Unknown
func toEntry(r model.ConnectionRecord) entry {
	out := entry{
		Timestamp:     r.Timestamp.Format(time.RFC3339),
		Process:       r.Process,
		PID:           "N/A",
		Protocol:      string(r.Protocol),
		LocalAddress:  r.LocalAddr,
		RemoteAddress: r.RemoteAddr,
		Status:        string(r.State),
		Country:       "Unknown",
		City:          "Unknown",
		ISP:           "Unknown",
	}
	if r.PID > 0 {
		out.PID = r.PID
	}
	if r.Geo != nil {
		out.Country = r.Geo.Country
		out.City = r.Geo.City
		out.ISP = r.Geo.Org
	}
	return out
}
