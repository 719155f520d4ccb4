package geo

import (
	"net"
	"strings"
)

// Classification IP 地址归类结果
type Classification int

const (
	// ClassPublic 可路由的公网地址
	ClassPublic Classification = iota
	// ClassPrivate RFC 1918 / ULA 等私有地址
	ClassPrivate
	// ClassLoopback 回环地址
	ClassLoopback
	// ClassLinkLocal 链路本地地址
	ClassLinkLocal
	// ClassInvalid 无法解析的输入，按非公网处理
	ClassInvalid
)

// String 返回分类名称
func (c Classification) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassPrivate:
		return "private"
	case ClassLoopback:
		return "loopback"
	case ClassLinkLocal:
		return "link-local"
	default:
		return "invalid"
	}
}

// IsPublic 是否为公网地址，只有公网地址才允许发起地理位置查询
func (c Classification) IsPublic() bool {
	return c == ClassPublic
}

// Classify 对 IP 地址归类。无副作用；解析失败视为非公网，
// 保证不会对无效输入发起网络查询。
func Classify(ip string) Classification {
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil {
		return ClassInvalid
	}

	switch {
	case addr.IsLoopback():
		return ClassLoopback
	case addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast():
		return ClassLinkLocal
	case addr.IsPrivate() || addr.IsUnspecified() || addr.IsMulticast():
		return ClassPrivate
	default:
		return ClassPublic
	}
}
