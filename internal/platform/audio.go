package platform

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NewAudio 按操作系统选择音量控制实现
func NewAudio(goos string, run Runner) Audio {
	switch goos {
	case "linux":
		return &AmixerAudio{run: run, control: "Master"}
	case "darwin":
		return &OSAScriptAudio{run: run}
	case "windows":
		return NewWCAAudio(defaultEndpoint)
	default:
		return UnsupportedAudio{}
	}
}

// AmixerAudio 通过 ALSA amixer 控制音量
type AmixerAudio struct {
	run     Runner
	control string
}

var amixerLevel = regexp.MustCompile(`\[(\d{1,3})%\](?:.*?\[(on|off)\])?`)

func (a *AmixerAudio) state(ctx context.Context) (int, bool, error) {
	out, err := a.run(ctx, "amixer", "-M", "get", a.control)
	if err != nil {
		return 0, false, fmt.Errorf("%w: amixer get: %v", ErrUnavailable, err)
	}
	return parseAmixer(string(out))
}

func parseAmixer(out string) (int, bool, error) {
	m := amixerLevel.FindStringSubmatch(out)
	if m == nil {
		return 0, false, fmt.Errorf("%w: 无法解析 amixer 输出", ErrUnavailable)
	}
	level, _ := strconv.Atoi(m[1])
	return level, m[2] == "off", nil
}

// Volume 当前音量
func (a *AmixerAudio) Volume(ctx context.Context) (int, error) {
	level, _, err := a.state(ctx)
	return level, err
}

// SetVolume 设置音量
func (a *AmixerAudio) SetVolume(ctx context.Context, level int) error {
	if _, err := a.run(ctx, "amixer", "-q", "-M", "set", a.control, fmt.Sprintf("%d%%", clampLevel(level))); err != nil {
		return fmt.Errorf("%w: amixer set: %v", ErrUnavailable, err)
	}
	return nil
}

// Muted 是否静音
func (a *AmixerAudio) Muted(ctx context.Context) (bool, error) {
	_, muted, err := a.state(ctx)
	return muted, err
}

// SetMuted 设置静音
func (a *AmixerAudio) SetMuted(ctx context.Context, muted bool) error {
	arg := "unmute"
	if muted {
		arg = "mute"
	}
	if _, err := a.run(ctx, "amixer", "-q", "set", a.control, arg); err != nil {
		return fmt.Errorf("%w: amixer %s: %v", ErrUnavailable, arg, err)
	}
	return nil
}

// OSAScriptAudio 通过 AppleScript 控制 macOS 音量
type OSAScriptAudio struct {
	run Runner
}

func (a *OSAScriptAudio) eval(ctx context.Context, script string) (string, error) {
	out, err := a.run(ctx, "osascript", "-e", script)
	if err != nil {
		return "", fmt.Errorf("%w: osascript: %v", ErrUnavailable, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Volume 当前音量
func (a *OSAScriptAudio) Volume(ctx context.Context) (int, error) {
	out, err := a.eval(ctx, "output volume of (get volume settings)")
	if err != nil {
		return 0, err
	}
	level, err := strconv.Atoi(out)
	if err != nil {
		// 没有输出设备时返回 "missing value"
		return 0, fmt.Errorf("%w: 无法解析音量 %q", ErrUnavailable, out)
	}
	return level, nil
}

// SetVolume 设置音量
func (a *OSAScriptAudio) SetVolume(ctx context.Context, level int) error {
	_, err := a.eval(ctx, fmt.Sprintf("set volume output volume %d", clampLevel(level)))
	return err
}

// Muted 是否静音
func (a *OSAScriptAudio) Muted(ctx context.Context) (bool, error) {
	out, err := a.eval(ctx, "output muted of (get volume settings)")
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

// SetMuted 设置静音
func (a *OSAScriptAudio) SetMuted(ctx context.Context, muted bool) error {
	_, err := a.eval(ctx, fmt.Sprintf("set volume output muted %t", muted))
	return err
}

// UnsupportedAudio 不支持音量控制的平台
type UnsupportedAudio struct{}

func (UnsupportedAudio) Volume(context.Context) (int, error) { return 0, ErrUnsupported }
func (UnsupportedAudio) SetVolume(context.Context, int) error { return ErrUnsupported }
func (UnsupportedAudio) Muted(context.Context) (bool, error) { return false, ErrUnsupported }
func (UnsupportedAudio) SetMuted(context.Context, bool) error { return ErrUnsupported }

func clampLevel(level int) int {
	return max(0, min(100, level))
}
