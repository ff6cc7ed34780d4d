// Package platform 定义执行器依赖的操作系统能力，以及各平台的实现。
//
// 执行器只依赖这里的接口；具体实现按 runtime.GOOS 选择，测试中用假实现替换。
package platform

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

var (
	// ErrUnavailable 能力存在但当前不可用（设备缺失、命令执行失败等）
	ErrUnavailable = errors.New("platform capability unavailable")
	// ErrUnsupported 当前平台不支持该能力
	ErrUnsupported = errors.New("platform capability unsupported")
	// ErrNotAllowed 可执行文件不在白名单中
	ErrNotAllowed = errors.New("executable not in allow-list")
)

// SystemSnapshot 系统状态快照
type SystemSnapshot struct {
	CPUPercent      float64   `json:"cpu_percent"`
	MemoryPercent   float64   `json:"memory_percent"`
	MemoryAvailable uint64    `json:"memory_available"`
	DiskPercent     float64   `json:"disk_percent"`
	DiskFree        uint64    `json:"disk_free"`
	OS              string    `json:"os"`
	Platform        string    `json:"platform"`
	PlatformVersion string    `json:"platform_version"`
	KernelVersion   string    `json:"kernel_version"`
	Arch            string    `json:"arch"`
	Hostname        string    `json:"hostname"`
	Uptime          uint64    `json:"uptime"`
	CollectedAt     time.Time `json:"collected_at"`
}

// Interface 网卡信息
type Interface struct {
	Name   string `json:"name"`
	IP     string `json:"ip"`
	Status string `json:"status"` // up, down
}

// NetworkSnapshot 网络状态快照
type NetworkSnapshot struct {
	Internet    bool        `json:"internet"`
	Interfaces  []Interface `json:"interfaces"`
	CollectedAt time.Time   `json:"collected_at"`
}

// Metrics 系统指标
type Metrics interface {
	Snapshot(ctx context.Context) (SystemSnapshot, error)
}

// Network 网络信息与连通性探测
type Network interface {
	Snapshot(ctx context.Context) (NetworkSnapshot, error)
}

// Audio 系统音量。音量取值 0-100，静音与音量相互独立。
type Audio interface {
	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, level int) error
	Muted(ctx context.Context) (bool, error)
	SetMuted(ctx context.Context, muted bool) error
}

// Launcher 启动白名单中的应用
type Launcher interface {
	Launch(ctx context.Context, executable string) error
}

// Power 电源操作。执行器永远不会调用它。
type Power interface {
	Shutdown(ctx context.Context) error
	Restart(ctx context.Context) error
	Sleep(ctx context.Context) error
}

// Runner 执行外部命令并返回标准输出，参数以 argv 形式传入，不经过 shell
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner 基于 os/exec 的 Runner
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// NoPower 拒绝一切电源操作
type NoPower struct{}

func (NoPower) Shutdown(context.Context) error { return ErrUnsupported }
func (NoPower) Restart(context.Context) error { return ErrUnsupported }
func (NoPower) Sleep(context.Context) error { return ErrUnsupported }
