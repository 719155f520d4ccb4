package monitor

import (
	"testing"

	"github.com/CyberNilsen/CyberNetMon/internal/model"
)

func record(proto model.Protocol, state model.ConnState, ip, country string) model.ConnectionRecord {
	return model.ConnectionRecord{
		Protocol: proto,
		RemoteIP: ip,
		State:    state,
		Geo:      &model.GeoInfo{Country: country},
	}
}

func TestAggregate(t *testing.T) {
	records := []model.ConnectionRecord{
		record(model.ProtocolTCP, model.StateEstablished, "1.1.1.1", "Australia"),
		record(model.ProtocolTCP, model.StateEstablished, "2.2.2.2", "France"),
		record(model.ProtocolTCP, model.StateTimeWait, "1.1.1.1", "Australia"),
		record(model.ProtocolUDP, model.StateEstablished, "3.3.3.3", "Norway"),
		record(model.ProtocolUDP, model.StateUnknown, "4.4.4.4", "Norway"),
	}

	stats := Aggregate(records)
	if stats.Total != 5 {
		t.Errorf("Total = %d, want 5", stats.Total)
	}
	if stats.TCP != 3 {
		t.Errorf("TCP = %d, want 3", stats.TCP)
	}
	if stats.UDP != 2 {
		t.Errorf("UDP = %d, want 2", stats.UDP)
	}
	if stats.Established != 3 {
		t.Errorf("Established = %d, want 3", stats.Established)
	}
	if stats.UniqueIPs != 4 {
		t.Errorf("UniqueIPs = %d, want 4", stats.UniqueIPs)
	}
	if stats.UniqueCountries != 3 {
		t.Errorf("UniqueCountries = %d, want 3", stats.UniqueCountries)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil); got != (model.Stats{}) {
		t.Errorf("空快照应返回全零统计, got %+v", got)
	}
}

func TestAggregateMissingGeo(t *testing.T) {
	records := []model.ConnectionRecord{
		{Protocol: model.ProtocolTCP, RemoteIP: "1.1.1.1", State: model.StateEstablished},
		record(model.ProtocolTCP, model.StateEstablished, "2.2.2.2", "France"),
	}

	stats := Aggregate(records)
	if stats.UniqueCountries != 1 {
		t.Errorf("缺失地理信息的记录不应计入国家数, got %d", stats.UniqueCountries)
	}
	if stats.UniqueIPs != 2 {
		t.Errorf("UniqueIPs = %d, want 2", stats.UniqueIPs)
	}
}
