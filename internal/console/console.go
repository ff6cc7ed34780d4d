// Package console 本地交互循环：读取一行（键盘或语音），处理，打印并朗读回复。
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mac-assistant/mac-assistant-go/internal/intent"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/mac-assistant/mac-assistant-go/internal/voice/tts"
	"go.uber.org/zap"
)

// State 循环状态
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateProcessing
	StateSpeaking
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// 固定文案
const (
	GreetingText = "Hello! I'm MAC, your voice assistant. How can I help you?"
	GoodbyeText  = "Goodbye! Have a great day!"
	ErrorText    = "I encountered an error and need to stop."
)

var quitTokens = []string{"quit", "exit", "goodbye", "bye"}

// Processor 命令处理
type Processor interface {
	ProcessCommand(ctx context.Context, text, clientID string) model.CommandResponse
}

// LineSource 输入源，io.EOF 表示正常结束
type LineSource interface {
	Next(ctx context.Context) (string, error)
}

// Options 循环配置
type Options struct {
	ClientID string
	Muted    bool // 启动时是否静音
	// WordQuit 为 true 时只要包含退出词就退出（语音输入），否则需整句匹配
	WordQuit bool
	// OnState 状态变化回调
	OnState func(State)
}

// Loop 交互循环，单线程阻塞执行
type Loop struct {
	proc    Processor
	source  LineSource
	speaker tts.Speaker
	ui      *Renderer
	opts    Options
	muted   bool
	state   State
	logger  *zap.Logger
}

// NewLoop 创建交互循环
func NewLoop(proc Processor, source LineSource, speaker tts.Speaker, ui *Renderer, opts Options, logger *zap.Logger) *Loop {
	if speaker == nil {
		speaker = tts.NopSpeaker{}
	}
	if opts.ClientID == "" {
		opts.ClientID = "console"
	}
	return &Loop{
		proc:    proc,
		source:  source,
		speaker: speaker,
		ui:      ui,
		opts:    opts,
		muted:   opts.Muted,
		state:   StateIdle,
		logger:  logger,
	}
}

// State 当前状态
func (l *Loop) State() State {
	return l.state
}

// Muted 是否静音
func (l *Loop) Muted() bool {
	return l.muted
}

func (l *Loop) setState(s State) {
	l.state = s
	if l.opts.OnState != nil {
		l.opts.OnState(s)
	}
}

// Run 运行到退出词、输入结束或 ctx 取消；输入源失败时返回错误
func (l *Loop) Run(ctx context.Context) error {
	defer l.setState(StateStopped)

	l.ui.Banner(l.muted)
	l.say(ctx, GreetingText)

	for {
		l.setState(StateAwaitingInput)
		line, err := l.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			l.logger.Error("读取输入失败", zap.Error(err))
			l.ui.Error(ErrorText)
			l.speak(context.WithoutCancel(ctx), ErrorText)
			return fmt.Errorf("读取输入失败: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		l.ui.User(line)

		switch strings.ToLower(line) {
		case "mute":
			l.muted = true
			l.ui.Notice("Text-to-speech disabled")
			continue
		case "unmute":
			l.muted = false
			l.ui.Notice("Text-to-speech enabled")
			l.speak(ctx, "Text to speech is now enabled")
			continue
		}

		if l.isQuit(line) {
			l.say(ctx, GoodbyeText)
			return nil
		}

		l.setState(StateProcessing)
		resp := l.proc.ProcessCommand(ctx, line, l.opts.ClientID)
		if resp.Status == model.StatusError {
			l.ui.Error(resp.Message)
		} else {
			l.ui.Assistant(resp.Message)
		}
		l.speak(ctx, resp.Message)
	}
}

func (l *Loop) isQuit(line string) bool {
	normalized := intent.Normalize(line)
	if !l.opts.WordQuit {
		return slices.Contains(quitTokens, normalized)
	}
	for _, w := range strings.Fields(normalized) {
		if slices.Contains(quitTokens, w) {
			return true
		}
	}
	return false
}

// say 打印并朗读
func (l *Loop) say(ctx context.Context, text string) {
	l.ui.Assistant(text)
	l.speak(ctx, text)
}

// speak 静音时跳过，朗读失败只记日志
func (l *Loop) speak(ctx context.Context, text string) {
	if l.muted {
		return
	}
	l.setState(StateSpeaking)
	if err := l.speaker.Speak(ctx, text); err != nil {
		l.logger.Warn("朗读失败", zap.String("engine", l.speaker.Name()), zap.Error(err))
	}
}
