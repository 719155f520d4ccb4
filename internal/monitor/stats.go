package monitor

import "github.com/CyberNilsen/CyberNetMon/internal/model"

// Aggregate 对一次快照计算汇总计数。
// 统计总是基于调用时刻拿到的新快照，相邻两次调用的结果可能不同。
func Aggregate(records []model.ConnectionRecord) model.Stats {
	stats := model.Stats{Total: len(records)}

	ips := make(map[string]struct{})
	countries := make(map[string]struct{})
	for _, r := range records {
		switch r.Protocol {
		case model.ProtocolTCP:
			stats.TCP++
		case model.ProtocolUDP:
			stats.UDP++
		}
		if r.State == model.StateEstablished {
			stats.Established++
		}
		ips[r.RemoteIP] = struct{}{}
		if r.Geo != nil {
			countries[r.Geo.Country] = struct{}{}
		}
	}

	stats.UniqueIPs = len(ips)
	stats.UniqueCountries = len(countries)
	return stats
}
