package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/CyberNilsen/CyberNetMon/internal/model"
)

// fakeNamer 固定返回 PID 对应的测试进程名
type fakeNamer struct{ names map[int32]string }

func (f *fakeNamer) Resolve(pid int32) string {
	if name, ok := f.names[pid]; ok {
		return name
	}
	return "Unknown"
}

// fakeGeo 按 IP 返回预置结果，记录查询顺序
type fakeGeo struct {
	infos   map[string]model.GeoInfo
	lookups []string
}

func (f *fakeGeo) Resolve(_ context.Context, ip string) model.GeoInfo {
	f.lookups = append(f.lookups, ip)
	return f.infos[ip]
}

func TestEnrich(t *testing.T) {
	namer := &fakeNamer{names: map[int32]string{42: "firefox"}}
	geo := &fakeGeo{infos: map[string]model.GeoInfo{
		"8.8.8.8": {Country: "United States", City: "Mountain View", Org: "Google LLC", Flag: "\U0001F1FA\U0001F1F8"},
	}}
	e := NewEnricher(namer, geo)

	before := time.Now()
	record := e.Enrich(context.Background(), model.RawConnection{
		Protocol:   model.ProtocolTCP,
		LocalAddr:  "192.168.1.5:51234",
		RemoteAddr: "8.8.8.8:443",
		RemoteIP:   "8.8.8.8",
		PID:        42,
		State:      model.StateEstablished,
	})

	if record.Process != "firefox" {
		t.Errorf("Process = %q, want firefox", record.Process)
	}
	if record.Geo == nil || record.Geo.Country != "United States" {
		t.Errorf("地理信息未附加: %+v", record.Geo)
	}
	if record.Timestamp.Before(before) {
		t.Errorf("时间戳应为富化时刻, got %v", record.Timestamp)
	}
	if record.Protocol != model.ProtocolTCP || record.RemoteAddr != "8.8.8.8:443" || record.State != model.StateEstablished {
		t.Errorf("原始字段未原样保留: %+v", record)
	}
}

func TestEnrichAllPreservesOrder(t *testing.T) {
	namer := &fakeNamer{names: map[int32]string{}}
	geo := &fakeGeo{infos: map[string]model.GeoInfo{}}
	e := NewEnricher(namer, geo)

	raws := []model.RawConnection{
		{RemoteIP: "1.1.1.1", RemoteAddr: "1.1.1.1:443"},
		{RemoteIP: "2.2.2.2", RemoteAddr: "2.2.2.2:443"},
		{RemoteIP: "3.3.3.3", RemoteAddr: "3.3.3.3:443"},
	}

	records := e.EnrichAll(context.Background(), raws)
	if len(records) != len(raws) {
		t.Fatalf("富化后 %d 条, want %d", len(records), len(raws))
	}
	for i, r := range records {
		if r.RemoteIP != raws[i].RemoteIP {
			t.Errorf("第 %d 条顺序不一致: %q != %q", i, r.RemoteIP, raws[i].RemoteIP)
		}
	}
	if len(geo.lookups) != 3 || geo.lookups[0] != "1.1.1.1" || geo.lookups[2] != "3.3.3.3" {
		t.Errorf("查询顺序不一致: %v", geo.lookups)
	}
}
