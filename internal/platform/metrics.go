package platform

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// SystemMetrics 基于 gopsutil 的系统指标采集
type SystemMetrics struct {
	diskPath    string
	cpuInterval time.Duration
	logger      *zap.Logger
}

// NewSystemMetrics 创建系统指标采集器
func NewSystemMetrics(logger *zap.Logger) *SystemMetrics {
	return &SystemMetrics{
		diskPath:    primaryVolume(),
		cpuInterval: 500 * time.Millisecond,
		logger:      logger,
	}
}

// Snapshot 采集一次系统状态。CPU、内存、磁盘任一失败即返回错误；主机信息失败只记录日志。
func (m *SystemMetrics) Snapshot(ctx context.Context) (SystemSnapshot, error) {
	snap := SystemSnapshot{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		CollectedAt: time.Now(),
	}

	percents, err := cpu.PercentWithContext(ctx, m.cpuInterval, false)
	if err != nil {
		return snap, fmt.Errorf("获取 CPU 使用率失败: %w", err)
	}
	if len(percents) > 0 {
		snap.CPUPercent = round1(percents[0])
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snap, fmt.Errorf("获取内存信息失败: %w", err)
	}
	snap.MemoryPercent = round1(vm.UsedPercent)
	snap.MemoryAvailable = vm.Available

	du, err := disk.UsageWithContext(ctx, m.diskPath)
	if err != nil {
		return snap, fmt.Errorf("获取磁盘信息失败: %w", err)
	}
	snap.DiskPercent = round1(du.UsedPercent)
	snap.DiskFree = du.Free

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		m.logger.Warn("获取主机信息失败", zap.Error(err))
		snap.Hostname, _ = os.Hostname()
		return snap, nil
	}
	snap.Hostname = info.Hostname
	snap.Platform = info.Platform
	snap.PlatformVersion = info.PlatformVersion
	snap.KernelVersion = info.KernelVersion
	snap.Uptime = info.Uptime
	return snap, nil
}

func primaryVolume() string {
	if runtime.GOOS == "windows" {
		if drive := os.Getenv("SystemDrive"); drive != "" {
			return drive + `\`
		}
		return `C:\`
	}
	return "/"
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
