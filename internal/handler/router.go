package handler

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/mac-assistant/mac-assistant-go/internal/middleware"
	"github.com/mac-assistant/mac-assistant-go/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions 路由配置
type RouterOptions struct {
	ExtraOrigins []string
}

// NewRouter 注册全部路由
func NewRouter(assistant *service.AssistantService, sessions *service.SessionService, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(),
		middleware.Recovery(logger),
		middleware.CORS(opts.ExtraOrigins),
	)

	api := NewAPIHandler(assistant, logger)
	ws := NewWebSocketHandler(sessions, assistant, middleware.CheckOrigin(opts.ExtraOrigins), logger)

	r.GET("/", api.Root)
	r.POST("/command", api.Command)
	r.GET("/status", api.Status)
	r.GET("/health", api.Health)
	r.GET("/info", api.Info)
	r.GET("/commands", api.Commands)
	r.GET("/history", api.History)
	r.GET("/ws", ws.HandleWebSocket)
	r.GET("/metrics", middleware.LocalOnly(), gin.WrapH(promhttp.Handler()))
	r.NoRoute(api.NotFound(routePaths(r)))

	return r
}

// routePaths 已注册的路径，去重并排序
func routePaths(r *gin.Engine) []string {
	var paths []string
	for _, route := range r.Routes() {
		paths = append(paths, route.Path)
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}
