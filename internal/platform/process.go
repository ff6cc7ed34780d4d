package platform

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo 运行中的进程
type ProcessInfo struct {
	Name string  `json:"name"`
	PID  int32   `json:"pid"`
	CPU  float64 `json:"cpu"`
}

// Processes 列出运行中的进程
type Processes interface {
	List(ctx context.Context) ([]ProcessInfo, error)
}

// SystemProcesses 基于 gopsutil 的进程列表
type SystemProcesses struct{}

// List 读取全部进程；单个进程读取失败（已退出、无权限）时跳过
func (SystemProcesses) List(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取进程列表失败: %v", ErrUnavailable, err)
	}

	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		cpu, err := p.CPUPercentWithContext(ctx)
		if err != nil {
			continue
		}
		out = append(out, ProcessInfo{Name: name, PID: p.Pid, CPU: round1(cpu)})
	}
	return out, nil
}
