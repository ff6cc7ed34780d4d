// Package executor 把命令类别分派给对应的本地处理函数。
package executor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mac-assistant/mac-assistant-go/internal/cache"
	"github.com/mac-assistant/mac-assistant-go/internal/intent"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/mac-assistant/mac-assistant-go/internal/platform"
	"go.uber.org/zap"
)

// WeatherProvider 天气服务
type WeatherProvider interface {
	Current(ctx context.Context, city string) (model.WeatherReport, error)
}

// Deps 执行器依赖的平台能力
type Deps struct {
	Metrics   platform.Metrics
	Network   platform.Network
	Audio     platform.Audio
	Launcher  platform.Launcher
	Processes platform.Processes // 为 nil 时不支持列出进程
	Power     platform.Power
	Weather   WeatherProvider // 为 nil 表示未配置
	Apps      platform.AppTable
}

// Options 执行器行为配置
type Options struct {
	AssistantName string
	User          string
	HomeDir       string
	SafeFolders   []string
	MaxFiles      int
	DefaultCity   string
	SystemInfoTTL time.Duration
	NetworkTTL    time.Duration
	Now           func() time.Time
}

// Executor 命令执行器
type Executor struct {
	registry *Registry
	deps     Deps
	opts     Options
	appNames []string
	sysCache *cache.TTL[platform.SystemSnapshot]
	netCache *cache.TTL[platform.NetworkSnapshot]
	logger   *zap.Logger

	volMu        sync.Mutex
	preMuteLevel int
	hasPreMute   bool
}

// New 创建执行器并注册内置处理函数
func New(deps Deps, opts Options, logger *zap.Logger) (*Executor, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AssistantName == "" {
		opts.AssistantName = "MAC"
	}
	if opts.User == "" {
		opts.User = currentUser()
	}
	if opts.HomeDir == "" {
		opts.HomeDir, _ = os.UserHomeDir()
	}
	if deps.Power == nil {
		deps.Power = platform.NoPower{}
	}

	e := &Executor{
		registry: NewRegistry(logger),
		deps:     deps,
		opts:     opts,
		appNames: deps.Apps.Names(),
		sysCache: cache.New[platform.SystemSnapshot](opts.SystemInfoTTL),
		netCache: cache.New[platform.NetworkSnapshot](opts.NetworkTTL),
		logger:   logger,
	}

	if err := e.registerBuiltins(); err != nil {
		return nil, err
	}
	logger.Info("命令执行器初始化完成", zap.Int("handlers", e.registry.Count()))
	return e, nil
}

func (e *Executor) registerBuiltins() error {
	builtins := []struct {
		category intent.Category
		handler  Handler
	}{
		{intent.Greeting, e.handleGreeting},
		{intent.Power, e.handlePower},
		{intent.Time, e.handleTime},
		{intent.SystemInfo, e.handleSystemInfo},
		{intent.Volume, e.handleVolume},
		{intent.AppLaunch, e.handleAppLaunch},
		{intent.NetworkStatus, e.handleNetwork},
		{intent.FileList, e.handleFileList},
		{intent.Weather, e.handleWeather},
	}
	for _, b := range builtins {
		if err := e.registry.Register(b.category, b.handler); err != nil {
			return fmt.Errorf("注册 %s 失败: %w", b.category, err)
		}
	}
	return nil
}

// Handles 是否有本地处理函数
func (e *Executor) Handles(category intent.Category) bool {
	_, ok := e.registry.Get(category)
	return ok
}

// Execute 执行命令
func (e *Executor) Execute(ctx context.Context, category intent.Category, text string) model.Result {
	return e.registry.Execute(ctx, category, text)
}

// Categories 本地处理的类别
func (e *Executor) Categories() []intent.Category {
	return e.registry.Categories()
}

// SystemSnapshot 读取缓存的系统状态
func (e *Executor) SystemSnapshot(ctx context.Context) (platform.SystemSnapshot, error) {
	return e.sysCache.Get(ctx, "system", e.deps.Metrics.Snapshot)
}

// NetworkSnapshot 读取缓存的网络状态
func (e *Executor) NetworkSnapshot(ctx context.Context) (platform.NetworkSnapshot, error) {
	return e.netCache.Get(ctx, "network", e.deps.Network.Snapshot)
}

func currentUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return "there"
}
