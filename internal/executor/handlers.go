package executor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mac-assistant/mac-assistant-go/internal/intent"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/mac-assistant/mac-assistant-go/internal/platform"
	"go.uber.org/zap"
)

const (
	volumeStep   = 10
	topProcesses = 10
)

// 面向用户的固定文案
const (
	msgAppNotFound        = "I couldn't identify which application to open. Try saying 'open notepad' or 'launch calculator'."
	msgVolumeUnavailable  = "Volume control is not available on this device."
	msgSystemUnavailable  = "I couldn't read the system status right now."
	msgNetworkUnavailable = "I couldn't check the network right now."
	msgFilesUnavailable   = "I couldn't list your files right now."
	msgFilesRestricted    = "File operations are limited for security. I can only list files in safe directories."
	msgAppCloseDisabled   = "Application closing is not yet implemented for safety reasons."
	msgProcessUnavailable = "I couldn't list the running applications right now."
	msgWeatherNotSetUp    = "Weather information requires an API key. This feature is not yet configured."
	msgWeatherUnavailable = "I couldn't get the weather right now. Please try again later."
)

func (e *Executor) handleGreeting(ctx context.Context, text string) model.Result {
	now := e.opts.Now()
	greeting := greetingFor(now.Hour())
	message := fmt.Sprintf("%s, %s! I'm %s, your voice assistant. How can I help you today?",
		greeting, e.opts.User, e.opts.AssistantName)

	return model.Success(message, map[string]any{
		"greeting": greeting,
		"time":     now.Format("15:04:05"),
		"user":     e.opts.User,
	})
}

// greetingFor 05-11 上午，12-16 下午，17-21 晚上，其余 Good night
func greetingFor(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good morning"
	case hour >= 12 && hour < 17:
		return "Good afternoon"
	case hour >= 17 && hour < 22:
		return "Good evening"
	default:
		return "Good night"
	}
}

func (e *Executor) handleTime(ctx context.Context, text string) model.Result {
	now := e.opts.Now()
	t := now.Format("03:04 PM")
	d := now.Format("Monday, January 02, 2006")

	return model.Success(fmt.Sprintf("The current time is %s on %s", t, d), map[string]any{
		"time":      t,
		"date":      d,
		"timestamp": model.UnixSeconds(now),
	})
}

func (e *Executor) handleSystemInfo(ctx context.Context, text string) model.Result {
	snap, err := e.SystemSnapshot(ctx)
	if err != nil {
		return model.Failure(model.ErrServiceUnavailable, msgSystemUnavailable, "system metrics unavailable", err)
	}

	info := map[string]any{
		"cpu_usage":        fmt.Sprintf("%.1f%%", snap.CPUPercent),
		"memory_usage":     fmt.Sprintf("%.1f%%", snap.MemoryPercent),
		"memory_available": gigabytes(snap.MemoryAvailable),
		"disk_usage":       fmt.Sprintf("%.1f%%", snap.DiskPercent),
		"disk_free":        gigabytes(snap.DiskFree),
		"os":               snap.OS,
		"platform":         snap.Platform,
		"version":          snap.PlatformVersion,
		"machine":          snap.Arch,
		"hostname":         snap.Hostname,
	}
	message := fmt.Sprintf("System Status: CPU %s, RAM %s, Disk %s",
		info["cpu_usage"], info["memory_usage"], info["disk_usage"])
	return model.Success(message, info)
}

func gigabytes(b uint64) string {
	return fmt.Sprintf("%.1f GB", float64(b)/(1<<30))
}

type volumeAction int

const (
	volumeQuery volumeAction = iota
	volumeUp
	volumeDown
	volumeMute
	volumeUnmute
)

func parseVolumeAction(text string) volumeAction {
	words := strings.Fields(intent.Normalize(text))
	has := func(candidates ...string) bool {
		for _, c := range candidates {
			if slices.Contains(words, c) {
				return true
			}
		}
		return false
	}

	switch {
	case has("unmute"):
		return volumeUnmute
	case has("mute", "silence"):
		return volumeMute
	case has("up", "increase", "louder", "raise"):
		return volumeUp
	case has("down", "decrease", "quieter", "lower", "reduce"):
		return volumeDown
	default:
		return volumeQuery
	}
}

func (e *Executor) handleVolume(ctx context.Context, text string) model.Result {
	e.volMu.Lock()
	defer e.volMu.Unlock()

	var (
		res model.Result
		err error
	)
	switch parseVolumeAction(text) {
	case volumeUp:
		res, err = e.changeVolume(ctx, volumeStep)
	case volumeDown:
		res, err = e.changeVolume(ctx, -volumeStep)
	case volumeMute:
		res, err = e.mute(ctx)
	case volumeUnmute:
		res, err = e.unmute(ctx)
	default:
		res, err = e.volumeInfo(ctx)
	}
	if err != nil {
		return audioFailure(err)
	}
	return res
}

func audioFailure(err error) model.Result {
	switch {
	case errors.Is(err, platform.ErrUnsupported):
		return model.Failure(model.ErrServiceUnavailable, msgVolumeUnavailable, "audio control unsupported on this platform", err)
	case errors.Is(err, platform.ErrUnavailable):
		return model.Failure(model.ErrServiceUnavailable, msgVolumeUnavailable, "audio device unavailable", err)
	default:
		return model.Failure(model.ErrSystem, "", "audio control failed", err)
	}
}

func (e *Executor) changeVolume(ctx context.Context, delta int) (model.Result, error) {
	level, err := e.deps.Audio.Volume(ctx)
	if err != nil {
		return model.Result{}, err
	}
	next := max(0, min(100, level+delta))
	if err := e.deps.Audio.SetVolume(ctx, next); err != nil {
		return model.Result{}, err
	}
	if e.hasPreMute {
		e.preMuteLevel = next
	}

	action := "increased"
	if delta < 0 {
		action = "decreased"
	}
	return model.Success(fmt.Sprintf("Volume %s to %d%%", action, next), map[string]any{
		"volume": next,
		"action": action,
	}), nil
}

func (e *Executor) mute(ctx context.Context) (model.Result, error) {
	level, err := e.deps.Audio.Volume(ctx)
	if err != nil {
		return model.Result{}, err
	}
	if err := e.deps.Audio.SetMuted(ctx, true); err != nil {
		return model.Result{}, err
	}
	e.preMuteLevel, e.hasPreMute = level, true

	return model.Success("Volume muted", map[string]any{"action": "muted", "volume": level}), nil
}

// unmute 取消静音并恢复静音前的音量（部分平台静音时会把音量置零）
func (e *Executor) unmute(ctx context.Context) (model.Result, error) {
	if err := e.deps.Audio.SetMuted(ctx, false); err != nil {
		return model.Result{}, err
	}
	level, err := e.deps.Audio.Volume(ctx)
	if err != nil {
		return model.Result{}, err
	}
	if e.hasPreMute && level != e.preMuteLevel {
		if err := e.deps.Audio.SetVolume(ctx, e.preMuteLevel); err != nil {
			return model.Result{}, err
		}
		level = e.preMuteLevel
	}
	e.hasPreMute = false

	return model.Success("Volume unmuted", map[string]any{"action": "unmuted", "volume": level}), nil
}

func (e *Executor) volumeInfo(ctx context.Context) (model.Result, error) {
	level, err := e.deps.Audio.Volume(ctx)
	if err != nil {
		return model.Result{}, err
	}
	muted, err := e.deps.Audio.Muted(ctx)
	if err != nil {
		return model.Result{}, err
	}
	status := "unmuted"
	if muted {
		status = "muted"
	}
	return model.Success(fmt.Sprintf("Current volume is %d%% (%s)", level, status), map[string]any{
		"volume":   level,
		"is_muted": muted,
		"status":   status,
	}), nil
}

// resolveApp 在白名单中按整词查找应用名，长名称优先
func (e *Executor) resolveApp(text string) (string, string, bool) {
	padded := " " + intent.Normalize(text) + " "
	for _, name := range e.appNames {
		key := intent.Normalize(name)
		if key != "" && strings.Contains(padded, " "+key+" ") {
			return name, e.deps.Apps[name], true
		}
	}
	return "", "", false
}

// hasWord 规范化后的文本是否包含任一单词
func hasWord(text string, words ...string) bool {
	for _, w := range strings.Fields(intent.Normalize(text)) {
		if slices.Contains(words, w) {
			return true
		}
	}
	return false
}

// handleAppLaunch 打开白名单应用；关闭应用一律拒绝；其余列出运行中的进程
func (e *Executor) handleAppLaunch(ctx context.Context, text string) model.Result {
	switch {
	case hasWord(text, "open", "launch", "start", "run"):
		return e.openApp(ctx, text)
	case hasWord(text, "close", "kill", "terminate", "quit", "exit"):
		return model.Failure(model.ErrPermissionDenied, msgAppCloseDisabled, "closing applications is disabled", nil)
	default:
		return e.listProcesses(ctx)
	}
}

func (e *Executor) openApp(ctx context.Context, text string) model.Result {
	name, exe, ok := e.resolveApp(text)
	if !ok {
		return model.Failure(model.ErrNotRecognized, msgAppNotFound, "application not in allow-list", nil)
	}

	if err := e.deps.Launcher.Launch(ctx, exe); err != nil {
		return model.Failure(model.ErrServiceUnavailable,
			fmt.Sprintf("I couldn't open %s.", name), "application launch failed", err)
	}

	return model.Success(fmt.Sprintf("Opening %s", name), map[string]any{
		"application": exe,
		"action":      "opened",
	})
}

func (e *Executor) listProcesses(ctx context.Context) model.Result {
	if e.deps.Processes == nil {
		return model.Failure(model.ErrServiceUnavailable, msgProcessUnavailable, "process listing not available", nil)
	}
	procs, err := e.deps.Processes.List(ctx)
	if err != nil {
		return model.Failure(model.ErrServiceUnavailable, msgProcessUnavailable, "process listing failed", err)
	}

	slices.SortStableFunc(procs, func(a, b platform.ProcessInfo) int {
		return cmp.Compare(b.CPU, a.CPU)
	})
	total := len(procs)
	top := procs[:min(total, topProcesses)]

	return model.Success(fmt.Sprintf("Found %d running processes. Top processes by CPU usage.", total), map[string]any{
		"processes":   top,
		"total_count": total,
	})
}

func (e *Executor) handleNetwork(ctx context.Context, text string) model.Result {
	snap, err := e.NetworkSnapshot(ctx)
	if err != nil {
		return model.Failure(model.ErrServiceUnavailable, msgNetworkUnavailable, "network information unavailable", err)
	}

	status := "Disconnected"
	if snap.Internet {
		status = "Connected"
	}
	return model.Success(
		fmt.Sprintf("Network Status: %s. Found %d active interfaces.", status, len(snap.Interfaces)),
		map[string]any{
			"internet_status": status,
			"interfaces":      snap.Interfaces,
		})
}

// FileEntry 文件列表条目
type FileEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // file, directory
	Location string `json:"location"`
}

// handleFileList 只支持列出安全目录，其它文件操作一律拒绝
func (e *Executor) handleFileList(ctx context.Context, text string) model.Result {
	if hasWord(text, "create", "delete", "remove", "find", "copy", "move", "rename", "edit") {
		return model.Failure(model.ErrPermissionDenied, msgFilesRestricted, "only listing is allowed", nil)
	}
	if e.opts.HomeDir == "" {
		return model.Failure(model.ErrServiceUnavailable, msgFilesUnavailable, "home directory unknown", nil)
	}

	files := make([]FileEntry, 0)
	var safe, scanned []string
	for _, folder := range e.opts.SafeFolders {
		if !filepath.IsLocal(folder) {
			e.logger.Warn("跳过不安全的目录配置", zap.String("folder", folder))
			continue
		}
		safe = append(safe, folder)
		dir := filepath.Join(e.opts.HomeDir, folder)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				e.logger.Warn("读取目录失败", zap.String("dir", dir), zap.Error(err))
			}
			continue
		}
		scanned = append(scanned, folder)
		for _, entry := range entries {
			typ := "file"
			if entry.IsDir() {
				typ = "directory"
			}
			files = append(files, FileEntry{
				Name:     entry.Name(),
				Path:     filepath.Join(dir, entry.Name()),
				Type:     typ,
				Location: folder,
			})
		}
	}

	total := len(files)
	if e.opts.MaxFiles > 0 && len(files) > e.opts.MaxFiles {
		files = files[:e.opts.MaxFiles]
	}

	where := strings.Join(safe, " and ")
	return model.Success(fmt.Sprintf("Found %d items in %s folders.", total, where), map[string]any{
		"files":   files,
		"total":   total,
		"scanned": scanned,
	})
}

func (e *Executor) handlePower(ctx context.Context, text string) model.Result {
	words := " " + intent.Normalize(text) + " "
	var message string
	switch {
	case strings.Contains(words, " restart ") || strings.Contains(words, " reboot "):
		message = "I can't restart the system for safety reasons. Please restart manually."
	case strings.Contains(words, " shutdown ") || strings.Contains(words, " shut down ") || strings.Contains(words, " power off "):
		message = "I can't shutdown the system for safety reasons. Please shutdown manually."
	case strings.Contains(words, " sleep ") || strings.Contains(words, " hibernate "):
		message = "I can't put the system to sleep for safety reasons. Please use the power button."
	default:
		message = "Power management commands are disabled for safety."
	}
	return model.Failure(model.ErrPermissionDenied, message, "power actions are disabled", nil)
}

var weatherCity = regexp.MustCompile(`\b(?:in|for|at)\s+(\p{L}[\p{L}\p{M} ]*)$`)

var weatherTrailing = []string{"today", "tonight", "right now", "now", "tomorrow", "please", "like"}

// extractCity 从 "weather in paris today" 之类的文本中取城市名
func extractCity(text string) string {
	norm := intent.Normalize(text)
	m := weatherCity.FindStringSubmatch(norm)
	if m == nil {
		return ""
	}
	city := m[1]
	for changed := true; changed; {
		changed = false
		for _, w := range weatherTrailing {
			if trimmed, ok := strings.CutSuffix(city, " "+w); ok {
				city, changed = trimmed, true
			}
		}
	}
	if city == "" || slices.Contains(weatherTrailing, city) {
		return ""
	}
	return titleCase(city)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func (e *Executor) handleWeather(ctx context.Context, text string) model.Result {
	if e.deps.Weather == nil {
		return model.Failure(model.ErrServiceUnavailable, msgWeatherNotSetUp, "weather provider not configured", nil)
	}

	city := extractCity(text)
	if city == "" {
		city = e.opts.DefaultCity
	}

	report, err := e.deps.Weather.Current(ctx, city)
	if err != nil {
		return model.Failure(model.ErrServiceUnavailable, msgWeatherUnavailable, "weather provider request failed", err)
	}

	unit := "°C"
	if report.Units == "imperial" {
		unit = "°F"
	}
	message := fmt.Sprintf("It's %.0f%s with %s in %s.", report.Temperature, unit, report.Description, report.City)
	return model.Success(message, map[string]any{
		"city":        report.City,
		"country":     report.Country,
		"temperature": report.Temperature,
		"feels_like":  report.FeelsLike,
		"humidity":    report.Humidity,
		"description": report.Description,
		"units":       report.Units,
	})
}
