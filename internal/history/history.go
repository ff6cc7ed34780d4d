// Package history 按客户端保存最近执行的命令。
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AnonymousClient 请求未带客户端标识时使用
const AnonymousClient = "anonymous"

// Store 命令历史存储
type Store interface {
	Append(ctx context.Context, entry model.HistoryEntry) error
	Recent(ctx context.Context, clientID string, n int) ([]model.HistoryEntry, error)
}

// RedisStore 每个客户端一个 list，RPush 追加，LTrim 保留最近 limit 条
type RedisStore struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore 创建 Redis 历史存储
func NewRedisStore(client *redis.Client, limit int, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, limit: limit, ttl: ttl, logger: logger}
}

func historyKey(clientID string) string {
	if clientID == "" {
		clientID = AnonymousClient
	}
	return fmt.Sprintf("command_history:%s", clientID)
}

// Append 追加一条记录
func (s *RedisStore) Append(ctx context.Context, entry model.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化历史记录失败: %w", err)
	}

	key := historyKey(entry.ClientID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-s.limit), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入历史记录失败: %w", err)
	}
	return nil
}

// Recent 最近 n 条，最新的在前
func (s *RedisStore) Recent(ctx context.Context, clientID string, n int) ([]model.HistoryEntry, error) {
	if n <= 0 || n > s.limit {
		n = s.limit
	}
	raw, err := s.client.LRange(ctx, historyKey(clientID), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("读取历史记录失败: %w", err)
	}

	entries := make([]model.HistoryEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var e model.HistoryEntry
		if err := json.Unmarshal([]byte(raw[i]), &e); err != nil {
			s.logger.Warn("跳过损坏的历史记录", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MemoryStore 进程内历史存储，未启用 Redis 时使用
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]model.HistoryEntry
}

// NewMemoryStore 创建内存历史存储
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: limit, entries: make(map[string][]model.HistoryEntry)}
}

// Append 追加一条记录
func (s *MemoryStore) Append(_ context.Context, entry model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKey(entry.ClientID)
	list := append(s.entries[key], entry)
	if len(list) > s.limit {
		list = append([]model.HistoryEntry(nil), list[len(list)-s.limit:]...)
	}
	s.entries[key] = list
	return nil
}

// Recent 最近 n 条，最新的在前
func (s *MemoryStore) Recent(_ context.Context, clientID string, n int) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.entries[historyKey(clientID)]
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	out := make([]model.HistoryEntry, 0, n)
	for i := len(list) - 1; i >= len(list)-n; i-- {
		out = append(out, list[i])
	}
	return out, nil
}
