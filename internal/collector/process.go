package collector

import (
	"github.com/shirou/gopsutil/v4/process"
)

const (
	// ProcessNameSystem 无归属进程的套接字（内核持有）
	ProcessNameSystem = "System"
	// ProcessNameUnknown 进程已退出或无权访问
	ProcessNameUnknown = "Unknown"
)

// ProcessResolver 进程名解析器。
// 不做缓存：pid 可能被复用，每次调用都重新查询。
type ProcessResolver struct{}

// NewProcessResolver 创建进程名解析器
func NewProcessResolver() *ProcessResolver {
	return &ProcessResolver{}
}

// Resolve 根据 pid 解析进程名。pid 为 0 时返回 System；
// 进程已退出或无权访问时返回 Unknown。
func (r *ProcessResolver) Resolve(pid int32) string {
	if pid <= 0 {
		return ProcessNameSystem
	}

	proc, err := process.NewProcess(pid)
	if err != nil {
		return ProcessNameUnknown
	}

	name, err := proc.Name()
	if err != nil || name == "" {
		return ProcessNameUnknown
	}
	return name
}
