package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mac-assistant/mac-assistant-go/internal/app"
	"github.com/mac-assistant/mac-assistant-go/internal/config"
	"github.com/mac-assistant/mac-assistant-go/internal/discovery"
	"github.com/mac-assistant/mac-assistant-go/internal/handler"
	"github.com/mac-assistant/mac-assistant-go/internal/service"
	"github.com/mac-assistant/mac-assistant-go/pkg/logger"
	cli "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := cli.StringP("config", "c", "configs/api-server.yaml", "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	port := cli.IntP("port", "p", 0, "Override server.port")
	logLevel := cli.StringP("log", "l", "", "Override log.level")
	noMDNS := cli.Bool("no-mdns", false, "Disable LAN discovery")
	cli.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load(*envFile)

	// 加载配置
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("api-server 服务启动中...", zap.String("version", cfg.Server.Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化服务
	assembled, err := app.Build(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("初始化失败", zap.Error(err))
	}
	defer assembled.Close()

	sessionService := service.NewSessionService(service.DefaultHeartbeatInterval, service.DefaultHeartbeatTimeout, zapLogger)
	defer sessionService.Close()

	// 初始化路由
	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(assembled.Assistant, sessionService, handler.RouterOptions{
		ExtraOrigins: cfg.CORS.ExtraOrigins,
	}, zapLogger)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Discovery.Enabled && !*noMDNS {
		adv, err := discovery.Register(discovery.Options{
			Instance: cfg.Discovery.Instance,
			Service:  cfg.Discovery.Service,
			Domain:   cfg.Discovery.Domain,
			Port:     cfg.Server.Port,
			Version:  cfg.Server.Version,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("mDNS 广播失败，移动端需手动填写地址", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	// 启动服务
	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("api-server 服务启动成功", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zapLogger.Info("收到退出信号，正在关闭服务")
	case err := <-errCh:
		zapLogger.Error("服务启动失败", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("服务关闭失败", zap.Error(err))
	}
	zapLogger.Info("api-server 已停止")
}
