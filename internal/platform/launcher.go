package platform

import (
	"context"
	"fmt"
	"maps"
	"os/exec"
	"slices"

	"go.uber.org/zap"
)

// AppTable 应用白名单：口语名称 -> 可执行文件（macOS 上为应用名）
type AppTable map[string]string

// DefaultApps 各平台默认白名单
func DefaultApps(goos string) AppTable {
	switch goos {
	case "windows":
		return AppTable{
			"notepad":        "notepad.exe",
			"calculator":     "calc.exe",
			"paint":          "mspaint.exe",
			"browser":        "msedge.exe",
			"edge":           "msedge.exe",
			"chrome":         "chrome.exe",
			"firefox":        "firefox.exe",
			"explorer":       "explorer.exe",
			"file manager":   "explorer.exe",
			"control panel":  "control.exe",
			"command prompt": "cmd.exe",
			"powershell":     "powershell.exe",
		}
	case "darwin":
		return AppTable{
			"calculator":   "Calculator",
			"notes":        "Notes",
			"notepad":      "TextEdit",
			"textedit":     "TextEdit",
			"safari":       "Safari",
			"browser":      "Safari",
			"chrome":       "Google Chrome",
			"firefox":      "Firefox",
			"finder":       "Finder",
			"file manager": "Finder",
			"terminal":     "Terminal",
		}
	default:
		return AppTable{
			"calculator":   "gnome-calculator",
			"notepad":      "gedit",
			"text editor":  "gedit",
			"browser":      "firefox",
			"firefox":      "firefox",
			"chrome":       "google-chrome",
			"file manager": "nautilus",
			"terminal":     "gnome-terminal",
		}
	}
}

// Merge 返回合并后的新表，extra 中的条目覆盖默认值
func (t AppTable) Merge(extra map[string]string) AppTable {
	out := maps.Clone(t)
	if out == nil {
		out = AppTable{}
	}
	maps.Copy(out, extra)
	return out
}

// Names 按名称长度降序（同长度按字典序）返回，保证 "file manager" 先于 "manager" 之类的短名匹配
func (t AppTable) Names() []string {
	names := slices.Collect(maps.Keys(t))
	slices.SortFunc(names, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return names
}

// ExecLauncher 直接创建进程启动应用，不经过 shell；只接受白名单内的可执行文件
type ExecLauncher struct {
	goos    string
	allowed map[string]bool
	start   func(cmd *exec.Cmd) error
	logger  *zap.Logger
}

// NewExecLauncher 创建启动器
func NewExecLauncher(goos string, apps AppTable, logger *zap.Logger) *ExecLauncher {
	allowed := make(map[string]bool, len(apps))
	for _, exe := range apps {
		allowed[exe] = true
	}
	return &ExecLauncher{
		goos:    goos,
		allowed: allowed,
		start:   startDetached,
		logger:  logger,
	}
}

// Launch 启动应用，不等待其退出
func (l *ExecLauncher) Launch(ctx context.Context, executable string) error {
	if !l.allowed[executable] {
		return fmt.Errorf("%w: %s", ErrNotAllowed, executable)
	}

	var cmd *exec.Cmd
	if l.goos == "darwin" {
		cmd = exec.Command("open", "-a", executable)
	} else {
		cmd = exec.Command(executable)
	}

	if err := l.start(cmd); err != nil {
		return fmt.Errorf("启动 %s 失败: %w", executable, err)
	}
	l.logger.Info("应用已启动", zap.String("executable", executable))
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	// 回收子进程
	go cmd.Wait()
	return nil
}
