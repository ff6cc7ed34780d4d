package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mac-assistant/mac-assistant-go/internal/app"
	"github.com/mac-assistant/mac-assistant-go/internal/config"
	"github.com/mac-assistant/mac-assistant-go/internal/console"
	"github.com/mac-assistant/mac-assistant-go/internal/platform"
	"github.com/mac-assistant/mac-assistant-go/internal/voice/stt"
	"github.com/mac-assistant/mac-assistant-go/internal/voice/tts"
	"github.com/mac-assistant/mac-assistant-go/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	envFile    string
	logLevel   string
	muted      bool
)

func main() {
	root := &cobra.Command{
		Use:           "assistant",
		Short:         "MAC Assistant interactive console",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runText,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/assistant.yaml", "config file path")
	root.PersistentFlags().StringVarP(&envFile, "env", "e", ".env", "env file path")
	root.PersistentFlags().StringVarP(&logLevel, "log", "l", "", "override log.level")
	root.PersistentFlags().BoolVar(&muted, "mute", false, "start with text-to-speech disabled")

	root.AddCommand(
		&cobra.Command{
			Use:   "text",
			Short: "Type commands on the keyboard",
			RunE:  runText,
		},
		&cobra.Command{
			Use:   "voice",
			Short: "Speak commands, recognized by a Vosk server",
			RunE:  runVoice,
		},
		&cobra.Command{
			Use:   "once <command...>",
			Short: "Run a single command and print the JSON response",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runOnce,
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env 加载配置和日志，交互模式日志写到 stderr
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	app    *app.App
}

func setup(ctx context.Context) (*env, error) {
	_ = godotenv.Load(envFile)

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	zapLogger, err := logger.NewConsoleLogger(level)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	a, err := app.Build(ctx, cfg, zapLogger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: zapLogger, app: a}, nil
}

func (e *env) close() {
	e.app.Close()
	_ = e.logger.Sync()
}

func (e *env) speaker() tts.Speaker {
	if !e.cfg.Voice.TTS.Enabled {
		return tts.NopSpeaker{}
	}
	t := e.cfg.Voice.TTS
	s, err := tts.New(runtime.GOOS, tts.Options{Engine: t.Engine, Rate: t.Rate, Volume: t.Volume, Voice: t.Voice},
		platform.ExecRunner, nil, e.logger)
	if err != nil {
		e.logger.Warn("语音合成不可用，只输出文字", zap.Error(err))
		return tts.NopSpeaker{}
	}
	return s
}

func runText(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	ui := console.NewRenderer(os.Stdout, "Text")
	loop := console.NewLoop(e.app.Assistant, console.NewScannerSource(os.Stdin, ui), e.speaker(), ui,
		console.Options{Muted: muted}, e.logger)
	return loop.Run(ctx)
}

func runVoice(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	audio, wait, err := stt.CommandSource(ctx, e.cfg.Voice.AudioSource)
	if err != nil {
		return err
	}
	defer func() {
		stop()
		_ = wait()
	}()

	ui := console.NewRenderer(os.Stdout, "Voice")
	rec := stt.NewVoskRecognizer(e.cfg.Voice.STT.URL, e.cfg.Voice.STT.SampleRate, e.logger)
	src, err := console.NewVoiceSource(ctx, rec, audio, func(partial string) {
		fmt.Fprintf(os.Stdout, "\r... %s", partial)
	})
	if err != nil {
		return fmt.Errorf("语音识别不可用: %w", err)
	}

	loop := console.NewLoop(e.app.Assistant, src, e.speaker(), ui,
		console.Options{Muted: muted, WordQuit: true}, e.logger)
	return loop.Run(ctx)
}

func runOnce(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	resp := e.app.Assistant.ProcessCommand(cmd.Context(), strings.Join(args, " "), "cli")
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
