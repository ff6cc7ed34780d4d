// Package fallback 在本地没有处理函数时，按顺序尝试外部服务，最后给出固定的降级回复。
package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mac-assistant/mac-assistant-go/internal/intent"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"go.uber.org/zap"
)

// ErrNotConfigured 该路由没有可用的外部服务
var ErrNotConfigured = errors.New("fallback provider not configured")

// Route 兜底路由
type Route string

const (
	RouteGeneral Route = "general" // unknown 与 ai_question
	RouteSearch  Route = "search"
	RouteVideo   Route = "youtube"
)

// 尝试结果，用于观测
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
)

// Observer 每次策略尝试后回调
type Observer func(strategy, outcome string, elapsed time.Duration)

// Coordinator 兜底协调器
type Coordinator struct {
	routes   map[Route][]Strategy
	timeout  time.Duration
	budget   time.Duration
	observer Observer
	logger   *zap.Logger
}

// Option 协调器选项
type Option func(*Coordinator)

// WithRoute 设置某条路由的有序策略列表
func WithRoute(route Route, strategies ...Strategy) Option {
	return func(c *Coordinator) {
		c.routes[route] = append([]Strategy(nil), strategies...)
	}
}

// WithObserver 设置观测回调
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// NewCoordinator 创建协调器。timeout 为单个策略超时，budget 为整条链路的总时限。
func NewCoordinator(timeout, budget time.Duration, logger *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		routes:  make(map[Route][]Strategy),
		timeout: timeout,
		budget:  budget,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RouteFor 类别对应的兜底路由
func RouteFor(category intent.Category) Route {
	switch category {
	case intent.Search:
		return RouteSearch
	case intent.YouTube:
		return RouteVideo
	default:
		return RouteGeneral
	}
}

// Strategies 返回路由上的策略名（用于状态展示）
func (c *Coordinator) Strategies(route Route) []string {
	names := make([]string, 0, len(c.routes[route]))
	for _, s := range c.routes[route] {
		names = append(names, s.Name())
	}
	return names
}

// Resolve 处理没有本地处理函数的类别，永远返回非空消息
func (c *Coordinator) Resolve(ctx context.Context, category intent.Category, text string) model.Result {
	query := ExtractQuery(category, text)
	if query == "" {
		return model.Failure(model.ErrNotRecognized,
			"Please tell me what you want me to look up.", "empty query", nil)
	}
	return c.Run(ctx, RouteFor(category), query)
}

// Run 依次执行路由上的策略，第一个成功的结果胜出
func (c *Coordinator) Run(ctx context.Context, route Route, query string) model.Result {
	strategies := c.routes[route]
	if len(strategies) == 0 {
		c.logger.Debug("兜底路由未配置外部服务", zap.String("route", string(route)), zap.Error(ErrNotConfigured))
		return NoAnswer(query)
	}

	if c.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.budget)
		defer cancel()
	}

	for _, s := range strategies {
		if ctx.Err() != nil {
			c.observe(s.Name(), OutcomeSkipped, 0)
			continue
		}

		res, err := c.attempt(ctx, s, query)
		if err == nil && res.Message != "" && !res.Failed() {
			return res
		}
		if err == nil {
			err = fmt.Errorf("strategy %s returned no message", s.Name())
		}
		c.logger.Info("兜底策略失败，尝试下一个",
			zap.String("route", string(route)),
			zap.String("strategy", s.Name()),
			zap.Error(err))
	}

	return NoAnswer(query)
}

func (c *Coordinator) attempt(ctx context.Context, s Strategy, query string) (res model.Result, err error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		outcome := OutcomeSuccess
		switch {
		case err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
			outcome = OutcomeTimeout
		case err != nil:
			outcome = OutcomeError
		}
		c.observe(s.Name(), outcome, time.Since(start))
	}()

	// 策略本身不响应 ctx 时也按超时返回
	type result struct {
		res model.Result
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		r, e := s.Attempt(attemptCtx, query)
		done <- result{res: r, err: e}
	}()

	select {
	case r := <-done:
		return r.res, r.err
	case <-attemptCtx.Done():
		return model.Result{}, attemptCtx.Err()
	}
}

func (c *Coordinator) observe(strategy, outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer(strategy, outcome, elapsed)
	}
}

// NoAnswer 最后的降级回复
func NoAnswer(query string) model.Result {
	return model.Success(
		fmt.Sprintf("I searched for '%s' but couldn't find a specific instant answer. You might want to try a web search engine for more detailed results.", query),
		map[string]any{
			"source": "fallback",
			"query":  query,
			"status": "no_instant_answer",
		})
}
