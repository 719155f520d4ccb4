package model

import "time"

// Protocol 传输层协议
type Protocol string

const (
	ProtocolTCP Protocol = "TCP"
	ProtocolUDP Protocol = "UDP"
)

// ConnState 连接状态
type ConnState string

const (
	StateEstablished ConnState = "ESTABLISHED"
	StateSynSent     ConnState = "SYN_SENT"
	StateSynRecv     ConnState = "SYN_RECV"
	StateFinWait1    ConnState = "FIN_WAIT1"
	StateFinWait2    ConnState = "FIN_WAIT2"
	StateTimeWait    ConnState = "TIME_WAIT"
	StateClose       ConnState = "CLOSE"
	StateCloseWait   ConnState = "CLOSE_WAIT"
	StateLastAck     ConnState = "LAST_ACK"
	StateListen      ConnState = "LISTEN"
	StateClosing     ConnState = "CLOSING"
	StateUnknown     ConnState = "Unknown"
)

// knownStates 操作系统可能上报的全部连接状态
var knownStates = map[ConnState]struct{}{
	StateEstablished: {},
	StateSynSent:     {},
	StateSynRecv:     {},
	StateFinWait1:    {},
	StateFinWait2:    {},
	StateTimeWait:    {},
	StateClose:       {},
	StateCloseWait:   {},
	StateLastAck:     {},
	StateListen:      {},
	StateClosing:     {},
}

// ParseConnState 将系统上报的状态字符串归一化为封闭枚举，未知值归为 Unknown
func ParseConnState(s string) ConnState {
	state := ConnState(s)
	if _, ok := knownStates[state]; ok {
		return state
	}
	return StateUnknown
}

// GeoInfo 公网 IP 的地理与归属信息
type GeoInfo struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Org     string `json:"org"`
	Flag    string `json:"flag"`
}

// RawConnection 枚举得到的原始套接字信息
type RawConnection struct {
	Protocol   Protocol
	LocalAddr  string
	RemoteAddr string
	RemoteIP   string
	PID        int32 // 0 表示无归属进程
	State      ConnState
}

// ConnectionRecord 一条富化完成的连接记录。
// 每轮采集都会构建新的记录，构建后不再修改。
type ConnectionRecord struct {
	Timestamp  time.Time
	Process    string
	PID        int32
	Protocol   Protocol
	LocalAddr  string
	RemoteAddr string
	RemoteIP   string
	State      ConnState
	Geo        *GeoInfo
}

// Stats 一次快照的汇总计数
type Stats struct {
	Total           int `json:"total"`
	TCP             int `json:"tcp"`
	UDP             int `json:"udp"`
	Established     int `json:"established"`
	UniqueIPs       int `json:"unique_ips"`
	UniqueCountries int `json:"unique_countries"`
}
