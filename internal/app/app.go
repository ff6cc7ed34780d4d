// Package app 按配置组装命令处理流水线，api-server 与 assistant 共用。
package app

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"github.com/mac-assistant/mac-assistant-go/internal/client"
	"github.com/mac-assistant/mac-assistant-go/internal/config"
	"github.com/mac-assistant/mac-assistant-go/internal/executor"
	"github.com/mac-assistant/mac-assistant-go/internal/fallback"
	"github.com/mac-assistant/mac-assistant-go/internal/history"
	"github.com/mac-assistant/mac-assistant-go/internal/metrics"
	"github.com/mac-assistant/mac-assistant-go/internal/platform"
	"github.com/mac-assistant/mac-assistant-go/internal/service"
	pkgredis "github.com/mac-assistant/mac-assistant-go/pkg/redis"
	"go.uber.org/zap"
)

// App 组装好的组件
type App struct {
	Assistant   *service.AssistantService
	Executor    *executor.Executor
	Coordinator *fallback.Coordinator
	closers     []func() error
}

// Close 释放外部连接
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// Build 按配置组装；Redis 不可用时退回内存历史
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}

	hc, err := client.NewHTTPClient(cfg.Providers.Proxy, cfg.Providers.Timeout)
	if err != nil {
		return nil, err
	}

	a.Coordinator = fallback.NewCoordinator(cfg.Providers.Timeout, cfg.Providers.FallbackBudget, logger,
		FallbackRoutes(cfg.Providers, hc, logger)...)

	deps := executor.Deps{
		Metrics:   platform.NewSystemMetrics(logger),
		Network:   platform.NewSystemNetwork(cfg.Assistant.ProbeAddr),
		Audio:     platform.NewAudio(runtime.GOOS, platform.ExecRunner),
		Processes: platform.SystemProcesses{},
		Power:     platform.NoPower{},
		Apps:      platform.DefaultApps(runtime.GOOS).Merge(cfg.Apps),
	}
	deps.Launcher = platform.NewExecLauncher(runtime.GOOS, deps.Apps, logger)
	if w := cfg.Providers.Weather; w.APIKey != "" {
		deps.Weather = client.NewWeatherClient(w.APIKey, w.BaseURL, w.Units, hc, logger)
	}

	a.Executor, err = executor.New(deps, executor.Options{
		AssistantName: cfg.Assistant.Name,
		User:          cfg.Assistant.User,
		SafeFolders:   cfg.Assistant.SafeFolders,
		MaxFiles:      cfg.Assistant.MaxFiles,
		DefaultCity:   cfg.Providers.Weather.DefaultCity,
		SystemInfoTTL: cfg.Cache.SystemInfoTTL,
		NetworkTTL:    cfg.Cache.NetworkTTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化执行器失败: %w", err)
	}

	store := a.historyStore(ctx, cfg, logger)

	routes := map[string][]string{}
	for _, r := range []fallback.Route{fallback.RouteGeneral, fallback.RouteSearch, fallback.RouteVideo} {
		routes[string(r)] = a.Coordinator.Strategies(r)
	}

	a.Assistant = service.NewAssistantService(a.Executor, a.Coordinator, a.Executor, store, service.AssistantOptions{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
		Voice: service.VoiceInfo{
			TTSEngine:  cfg.Voice.TTS.Engine,
			TTSEnabled: cfg.Voice.TTS.Enabled,
			STTURL:     cfg.Voice.STT.URL,
		},
		Fallback: routes,
	}, logger)
	return a, nil
}

func (a *App) historyStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) history.Store {
	if cfg.Redis.Enabled {
		rdb, err := pkgredis.NewRedisClient(ctx, cfg.Redis)
		if err == nil {
			a.closers = append(a.closers, rdb.Close)
			logger.Info("命令历史使用 Redis", zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
			return history.NewRedisStore(rdb, cfg.History.Limit, cfg.History.TTL, logger)
		}
		logger.Warn("Redis 不可用，命令历史改用内存", zap.Error(err))
	}
	return history.NewMemoryStore(cfg.History.Limit)
}

// FallbackRoutes 按配置生成兜底路由，未启用或缺少密钥的服务不加入
func FallbackRoutes(p config.ProvidersConfig, hc *http.Client, logger *zap.Logger) []fallback.Option {
	var general, search, video []fallback.Strategy

	if p.OpenAI.Enabled && p.OpenAI.APIKey != "" {
		oa := client.NewOpenAIClient(client.OpenAIOptions{
			APIKey:    p.OpenAI.APIKey,
			Model:     p.OpenAI.Model,
			BaseURL:   p.OpenAI.BaseURL,
			MaxTokens: p.OpenAI.MaxTokens,
		}, hc, logger)
		general = append(general, fallback.NewAIStrategy(oa))
	}
	if p.DashScope.Enabled && p.DashScope.APIKey != "" {
		ds := client.NewDashScopeClient(p.DashScope.APIKey, p.DashScope.Model, p.DashScope.BaseURL, hc, logger)
		general = append(general, fallback.NewAIStrategy(ds))
	}
	if p.DuckDuckGo.Enabled {
		ddg := client.NewDuckDuckGoClient(p.DuckDuckGo.BaseURL, p.DuckDuckGo.HTMLURL, hc, logger)
		general = append(general, fallback.NewInstantAnswerStrategy(ddg))
		search = append(search, fallback.NewInstantAnswerStrategy(ddg), fallback.NewWebResultsStrategy(ddg, 3))
	}
	if p.YouTube.Enabled && p.YouTube.APIKey != "" {
		yt := client.NewYouTubeClient(p.YouTube.APIKey, p.YouTube.BaseURL, p.YouTube.MaxResults, hc, logger)
		video = append(video, fallback.NewVideoStrategy(yt))
	}

	return []fallback.Option{
		fallback.WithRoute(fallback.RouteGeneral, general...),
		fallback.WithRoute(fallback.RouteSearch, search...),
		fallback.WithRoute(fallback.RouteVideo, video...),
		fallback.WithObserver(metrics.ObserveFallback),
	}
}
