package monitor

import (
	"context"
	"time"

	"github.com/CyberNilsen/CyberNetMon/internal/model"
)

// ProcessNamer 进程名解析
type ProcessNamer interface {
	Resolve(pid int32) string
}

// GeoResolver 地理信息解析
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) model.GeoInfo
}

// Enricher 将原始套接字补全为完整连接记录。
// 策略：所有远端都走解析器，非公网地址由解析器返回固定的 Local 结果
// 且不产生网络查询，因此本机流量同样出现在导出和统计里。
type Enricher struct {
	procs ProcessNamer
	geo   GeoResolver
}

// NewEnricher 创建富化器
func NewEnricher(procs ProcessNamer, geo GeoResolver) *Enricher {
	return &Enricher{procs: procs, geo: geo}
}

// Enrich 为单条原始连接打上采集时间戳、进程名和地理信息
func (e *Enricher) Enrich(ctx context.Context, raw model.RawConnection) model.ConnectionRecord {
	record := model.ConnectionRecord{
		Timestamp:  time.Now(),
		Process:    e.procs.Resolve(raw.PID),
		PID:        raw.PID,
		Protocol:   raw.Protocol,
		LocalAddr:  raw.LocalAddr,
		RemoteAddr: raw.RemoteAddr,
		RemoteIP:   raw.RemoteIP,
		State:      raw.State,
	}

	info := e.geo.Resolve(ctx, raw.RemoteIP)
	record.Geo = &info
	return record
}

// EnrichAll 逐条富化，保持枚举顺序
func (e *Enricher) EnrichAll(ctx context.Context, raws []model.RawConnection) []model.ConnectionRecord {
	records := make([]model.ConnectionRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, e.Enrich(ctx, raw))
	}
	return records
}
