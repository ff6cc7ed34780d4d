// Package tts 把回复朗读出来，具体引擎通过固定 argv 调用系统命令。
package tts

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/mac-assistant/mac-assistant-go/internal/platform"
	"go.uber.org/zap"
)

// ErrNoEngine 当前系统没有可用的语音合成引擎
var ErrNoEngine = errors.New("没有可用的语音合成引擎")

// 引擎名
const (
	EngineAuto   = "auto"
	EngineEspeak = "espeak"
	EngineSay    = "say"
	EngineSAPI   = "sapi"
	EngineNone   = "none"
)

// Speaker 语音输出
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Name() string
}

// Options 语音参数
type Options struct {
	Engine string
	Rate   int     // 每分钟词数
	Volume float64 // 0.0 - 1.0
	Voice  string
}

// LookPath 查找可执行文件
type LookPath func(file string) (string, error)

// New 按配置和操作系统选择引擎；engine 为 none 时返回 NopSpeaker
func New(goos string, opts Options, run platform.Runner, lookPath LookPath, logger *zap.Logger) (Speaker, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	engine := strings.ToLower(strings.TrimSpace(opts.Engine))
	if engine == "" {
		engine = EngineAuto
	}

	if engine == EngineNone {
		return NopSpeaker{}, nil
	}

	candidates := []string{engine}
	if engine == EngineAuto {
		switch goos {
		case "darwin":
			candidates = []string{EngineSay, EngineEspeak}
		case "windows":
			candidates = []string{EngineSAPI}
		default:
			candidates = []string{EngineEspeak}
		}
	}

	for _, name := range candidates {
		bin, ok := binaries[name]
		if !ok {
			return nil, fmt.Errorf("未知语音引擎: %s", name)
		}
		for _, exe := range bin {
			if _, err := lookPath(exe); err == nil {
				logger.Info("语音合成引擎已选择", zap.String("engine", name), zap.String("exe", exe))
				return &CommandSpeaker{engine: name, exe: exe, opts: opts, run: run, logger: logger}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoEngine, strings.Join(candidates, ","))
}

var binaries = map[string][]string{
	EngineEspeak: {"espeak-ng", "espeak"},
	EngineSay:    {"say"},
	EngineSAPI:   {"powershell.exe", "powershell"},
}

// CommandSpeaker 调用系统命令朗读
type CommandSpeaker struct {
	engine string
	exe    string
	opts   Options
	run    platform.Runner
	logger *zap.Logger
}

// Name 引擎名
func (s *CommandSpeaker) Name() string {
	return s.engine
}

// Speak 朗读文本，阻塞到朗读结束或 ctx 取消
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if _, err := s.run(ctx, s.exe, s.Args(text)...); err != nil {
		return fmt.Errorf("%s 朗读失败: %w", s.engine, err)
	}
	return nil
}

// Args 构造命令参数，文本只作为单独的 argv 元素传入
func (s *CommandSpeaker) Args(text string) []string {
	switch s.engine {
	case EngineSay:
		args := []string{"-r", strconv.Itoa(s.opts.Rate)}
		if s.opts.Voice != "" {
			args = append(args, "-v", s.opts.Voice)
		}
		return append(args, "--", text)

	case EngineSAPI:
		script := "Add-Type -AssemblyName System.Speech; " +
			"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; " +
			"$s.Rate = " + strconv.Itoa(sapiRate(s.opts.Rate)) + "; " +
			"$s.Volume = " + strconv.Itoa(percent(s.opts.Volume)) + "; "
		if s.opts.Voice != "" {
			script += "$s.SelectVoice(" + psQuote(s.opts.Voice) + "); "
		}
		script += "$s.Speak(" + psQuote(text) + ")"
		return []string{"-NoProfile", "-NonInteractive", "-EncodedCommand", encodePS(script)}

	default:
		args := []string{"-s", strconv.Itoa(s.opts.Rate), "-a", strconv.Itoa(percent(s.opts.Volume) * 2)}
		if s.opts.Voice != "" {
			args = append(args, "-v", s.opts.Voice)
		}
		return append(args, "--", text)
	}
}

// sapiRate 把每分钟词数映射到 SAPI 的 -10..10
func sapiRate(wpm int) int {
	return max(-10, min(10, (wpm-180)/20))
}

// psQuote PowerShell 单引号字符串，内部单引号加倍
func psQuote(v string) string {
	v = strings.NewReplacer("'", "''", "\u2018", "''", "\u2019", "''").Replace(v)
	return "'" + v + "'"
}

// encodePS -EncodedCommand 需要 UTF-16LE 的 base64
func encodePS(script string) string {
	units := utf16.Encode([]rune(script))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func percent(v float64) int {
	return max(0, min(100, int(v*100+0.5)))
}

// NopSpeaker 静默输出
type NopSpeaker struct{}

func (NopSpeaker) Speak(context.Context, string) error { return nil }
func (NopSpeaker) Name() string { return EngineNone }
