package service

import (
	"context"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mac-assistant/mac-assistant-go/internal/history"
	"github.com/mac-assistant/mac-assistant-go/internal/intent"
	"github.com/mac-assistant/mac-assistant-go/internal/metrics"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/mac-assistant/mac-assistant-go/internal/platform"
	"go.uber.org/zap"
)

// CommandExecutor 本地命令执行
type CommandExecutor interface {
	Handles(category intent.Category) bool
	Execute(ctx context.Context, category intent.Category, text string) model.Result
	Categories() []intent.Category
}

// Resolver 没有本地处理函数时的兜底
type Resolver interface {
	Resolve(ctx context.Context, category intent.Category, text string) model.Result
}

// Snapshots 缓存的系统与网络状态
type Snapshots interface {
	SystemSnapshot(ctx context.Context) (platform.SystemSnapshot, error)
	NetworkSnapshot(ctx context.Context) (platform.NetworkSnapshot, error)
}

// VoiceInfo 语音引擎信息，用于状态展示
type VoiceInfo struct {
	TTSEngine  string `json:"tts_engine"`
	TTSEnabled bool   `json:"tts_enabled"`
	STTURL     string `json:"stt_url"`
}

// AssistantOptions 助手服务配置
type AssistantOptions struct {
	Name     string
	Version  string
	Voice    VoiceInfo
	Fallback map[string][]string // 路由 -> 策略名，仅用于展示
	Now      func() time.Time
}

// AssistantService 命令处理流水线：分类 -> 执行或兜底 -> 格式化 -> 记录
type AssistantService struct {
	executor  CommandExecutor
	resolver  Resolver
	snapshots Snapshots
	history   history.Store
	opts      AssistantOptions
	startedAt time.Time
	logger    *zap.Logger
}

// NewAssistantService 创建助手服务，history 为 nil 时不记录历史
func NewAssistantService(exec CommandExecutor, resolver Resolver, snapshots Snapshots, store history.Store, opts AssistantOptions, logger *zap.Logger) *AssistantService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Name == "" {
		opts.Name = "MAC Assistant API"
	}
	return &AssistantService{
		executor:  exec,
		resolver:  resolver,
		snapshots: snapshots,
		history:   store,
		opts:      opts,
		startedAt: opts.Now(),
		logger:    logger,
	}
}

// ValidateText 校验命令文本
func ValidateText(text string) *model.CommandError {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return &model.CommandError{Code: model.ErrValidation, Detail: "text must not be empty"}
	case utf8.RuneCountInString(text) > model.MaxTextLength:
		return &model.CommandError{Code: model.ErrValidation, Detail: "text must be at most 1000 characters"}
	}
	return nil
}

// ProcessCommand 处理一条命令，除校验失败外永远返回 status 合法且 message 非空的响应
func (s *AssistantService) ProcessCommand(ctx context.Context, text, clientID string) model.CommandResponse {
	startedAt := s.opts.Now()

	if verr := ValidateText(text); verr != nil {
		res := model.Result{Message: "Please provide a command between 1 and 1000 characters.", Err: verr}
		return model.Format(res, startedAt, s.opts.Now())
	}

	text = strings.TrimSpace(text)
	category, phrase := intent.Match(text)

	var res model.Result
	if s.executor.Handles(category) {
		res = s.executor.Execute(ctx, category, text)
	} else {
		res = s.resolver.Resolve(ctx, category, text)
	}

	now := s.opts.Now()
	resp := model.Format(res, startedAt, now)
	if res.Message == "" {
		s.logger.Error("处理结果缺少消息", zap.String("category", string(category)))
	}

	s.logger.Info("命令处理完成",
		zap.String("clientId", clientID),
		zap.String("category", string(category)),
		zap.String("phrase", phrase),
		zap.String("status", resp.Status),
		zap.Float64("executionMs", resp.ExecutionTime))
	metrics.ObserveCommand(string(category), resp.Status, now.Sub(startedAt))

	s.record(ctx, clientID, text, category, resp)
	return resp
}

// record 写入命令历史，失败只记日志
func (s *AssistantService) record(ctx context.Context, clientID, text string, category intent.Category, resp model.CommandResponse) {
	if s.history == nil {
		return
	}
	entry := model.HistoryEntry{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Text:      text,
		Category:  string(category),
		Status:    resp.Status,
		Message:   resp.Message,
		Timestamp: resp.Timestamp,
	}
	if err := s.history.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("保存命令历史失败", zap.String("clientId", clientID), zap.Error(err))
	}
}

// History 最近的命令
func (s *AssistantService) History(ctx context.Context, clientID string, n int) ([]model.HistoryEntry, error) {
	if s.history == nil {
		return []model.HistoryEntry{}, nil
	}
	return s.history.Recent(ctx, clientID, n)
}

// StatusReport /status 的响应
type StatusReport struct {
	APIStatus  string         `json:"api_status"`
	SystemInfo map[string]any `json:"system_info"`
	Voice      VoiceInfo      `json:"voice_engine"`
	Network    map[string]any `json:"network"`
	Timestamp  float64        `json:"timestamp"`
}

// Status 汇总系统、语音与网络状态，单项失败不影响整体
func (s *AssistantService) Status(ctx context.Context) StatusReport {
	report := StatusReport{
		APIStatus: "running",
		Voice:     s.opts.Voice,
		Timestamp: model.UnixSeconds(s.opts.Now()),
	}

	if snap, err := s.snapshots.SystemSnapshot(ctx); err != nil {
		s.logger.Warn("获取系统状态失败", zap.Error(err))
		report.SystemInfo = map[string]any{"available": false}
	} else {
		report.SystemInfo = map[string]any{
			"available":      true,
			"platform":       snap.OS,
			"version":        snap.PlatformVersion,
			"hostname":       snap.Hostname,
			"cpu_usage":      snap.CPUPercent,
			"memory_usage":   snap.MemoryPercent,
			"disk_usage":     snap.DiskPercent,
			"uptime_seconds": snap.Uptime,
		}
	}

	if snap, err := s.snapshots.NetworkSnapshot(ctx); err != nil {
		s.logger.Warn("获取网络状态失败", zap.Error(err))
		report.Network = map[string]any{"available": false}
	} else {
		internet := "disconnected"
		if snap.Internet {
			internet = "connected"
		}
		report.Network = map[string]any{
			"available":       true,
			"internet_status": internet,
			"interfaces":      len(snap.Interfaces),
		}
	}
	return report
}

// Health /health 的响应
func (s *AssistantService) Health() map[string]any {
	return map[string]any{
		"status":   "healthy",
		"message":  s.opts.Name + " is running",
		"platform": runtime.GOOS,
		"uptime":   s.Uptime().Seconds(),
		"version":  s.opts.Version,
	}
}

// Info /info 的响应
func (s *AssistantService) Info() map[string]any {
	local := s.executor.Categories()
	handled := make([]string, 0, len(local))
	for _, c := range local {
		handled = append(handled, string(c))
	}
	all := intent.Categories()
	categories := make([]string, 0, len(all))
	for _, c := range all {
		categories = append(categories, string(c))
	}
	return map[string]any{
		"name":       s.opts.Name,
		"version":    s.opts.Version,
		"platform":   runtime.GOOS,
		"arch":       runtime.GOARCH,
		"categories": categories,
		"local":      handled,
		"fallback":   s.opts.Fallback,
		"uptime":     s.Uptime().Seconds(),
	}
}

// Commands 规则表
func (s *AssistantService) Commands() []intent.Rule {
	return intent.Rules()
}

// Uptime 服务运行时长
func (s *AssistantService) Uptime() time.Duration {
	return max(0, s.opts.Now().Sub(s.startedAt))
}

// Version 服务版本
func (s *AssistantService) Version() string {
	return s.opts.Version
}

// Name 服务名
func (s *AssistantService) Name() string {
	return s.opts.Name
}
