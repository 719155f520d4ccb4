package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/CyberNilsen/CyberNetMon/internal/model"
	"github.com/oschwald/geoip2-golang"
)

// MMDBProvider 基于本地 GeoLite2 City 数据库的离线查询后端
type MMDBProvider struct {
	reader *geoip2.Reader
}

// NewMMDBProvider 打开 mmdb 数据库文件
func NewMMDBProvider(path string) (*MMDBProvider, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开 GeoIP 数据库失败: %w", err)
	}
	return &MMDBProvider{reader: reader}, nil
}

// Lookup 查询单个 IP 的地理信息
func (p *MMDBProvider) Lookup(_ context.Context, ip string) (model.GeoInfo, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return model.GeoInfo{}, fmt.Errorf("无效的 IP 地址: %s", ip)
	}

	record, err := p.reader.City(addr)
	if err != nil {
		return model.GeoInfo{}, fmt.Errorf("GeoIP 数据库查询失败: %w", err)
	}

	// City 数据库不包含 ISP 信息
	return model.GeoInfo{
		Country: orDefault(record.Country.Names["en"], "Unknown"),
		City:    orDefault(record.City.Names["en"], "Unknown"),
		Org:     "Unknown ISP",
		Flag:    CountryFlag(record.Country.IsoCode),
	}, nil
}

// Close 关闭数据库文件
func (p *MMDBProvider) Close() error {
	return p.reader.Close()
}
