package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/mac-assistant/mac-assistant-go/internal/intent"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"go.uber.org/zap"
)

// Handler 命令处理函数，text 为原始命令文本
type Handler func(ctx context.Context, text string) model.Result

// Registry 类别 -> 处理函数的注册中心
type Registry struct {
	handlers map[intent.Category]Handler
	order    []intent.Category
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewRegistry 创建注册中心
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[intent.Category]Handler),
		logger:   logger,
	}
}

// Register 注册处理函数
func (r *Registry) Register(category intent.Category, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category == "" || category == intent.Unknown {
		return fmt.Errorf("invalid category: %q", category)
	}
	if h == nil {
		return fmt.Errorf("handler for %s is nil", category)
	}
	if _, exists := r.handlers[category]; exists {
		return fmt.Errorf("handler already registered: %s", category)
	}

	r.handlers[category] = h
	r.order = append(r.order, category)
	r.logger.Debug("处理函数已注册", zap.String("category", string(category)))
	return nil
}

// Get 获取处理函数
func (r *Registry) Get(category intent.Category) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[category]
	return h, ok
}

// Categories 按注册顺序列出类别
func (r *Registry) Categories() []intent.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]intent.Category(nil), r.order...)
}

// Count 注册的处理函数数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Execute 执行处理函数，panic 会被转换为 SYSTEM_ERROR
func (r *Registry) Execute(ctx context.Context, category intent.Category, text string) (res model.Result) {
	h, ok := r.Get(category)
	if !ok {
		return model.Failure(model.ErrNotRecognized,
			"I'm not sure how to help with that. Try asking for the time, system status or volume.",
			fmt.Sprintf("no handler for category %s", category), nil)
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("处理函数 panic",
				zap.String("category", string(category)),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			res = model.Failure(model.ErrSystem, "", "handler panicked", fmt.Errorf("panic: %v", p))
		}
	}()

	res = h(ctx, text)
	if res.Err != nil {
		r.logger.Warn("命令执行失败",
			zap.String("category", string(category)),
			zap.String("code", string(res.Err.Code)),
			zap.Error(res.Err))
	}
	return res
}
