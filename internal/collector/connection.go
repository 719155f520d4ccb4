package collector

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/CyberNilsen/CyberNetMon/internal/model"
	goerrors "github.com/go-errors/errors"
	gopsutilnet "github.com/shirou/gopsutil/v4/net"
)

// ErrPermissionDenied 系统拒绝枚举套接字。
// 调用方应按"本轮无数据"处理并继续监控，而不是终止。
var ErrPermissionDenied = goerrors.New("枚举网络连接被系统拒绝")

// ConnectionCollector 套接字快照采集器
type ConnectionCollector struct{}

// NewConnectionCollector 创建套接字快照采集器
func NewConnectionCollector() *ConnectionCollector {
	return &ConnectionCollector{}
}

// Snapshot 枚举当前全部 inet 套接字，只保留带远端地址的连接
// （排除纯监听套接字）。权限不足时返回空快照和 ErrPermissionDenied。
func (c *ConnectionCollector) Snapshot(ctx context.Context) ([]model.RawConnection, error) {
	conns, err := gopsutilnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		if isPermissionError(err) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("枚举网络连接失败: %w", err)
	}

	return filterRemote(conns), nil
}

// filterRemote 过滤出带远端地址的连接并转换为原始记录，保持枚举顺序
func filterRemote(conns []gopsutilnet.ConnectionStat) []model.RawConnection {
	raws := make([]model.RawConnection, 0, len(conns))
	for _, conn := range conns {
		if conn.Raddr.IP == "" {
			continue
		}

		raws = append(raws, model.RawConnection{
			Protocol:   protocolOf(conn.Type),
			LocalAddr:  formatAddr(conn.Laddr),
			RemoteAddr: formatAddr(conn.Raddr),
			RemoteIP:   conn.Raddr.IP,
			PID:        conn.Pid,
			State:      model.ParseConnState(conn.Status),
		})
	}
	return raws
}

// protocolOf 根据套接字类型确定协议
func protocolOf(sockType uint32) model.Protocol {
	if sockType == 2 { // SOCK_DGRAM
		return model.ProtocolUDP
	}
	return model.ProtocolTCP
}

// formatAddr 将地址格式化为 ip:port
func formatAddr(addr gopsutilnet.Addr) string {
	if addr.IP == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", addr.IP, addr.Port)
}

// isPermissionError 识别权限不足类错误
func isPermissionError(err error) bool {
	if os.IsPermission(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") || strings.Contains(msg, "access is denied") || strings.Contains(msg, "operation not permitted")
}
