package model

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientSession 移动端 WebSocket 会话
type ClientSession struct {
	SessionID     string
	ClientID      string
	Conn          *websocket.Conn
	ClientIP      string
	LastHeartbeat time.Time
	MissedBeats   int
	mu            sync.RWMutex // 保护会话字段
	writeMu       sync.Mutex   // 串行化写入
}

// UpdateHeartbeat 更新心跳时间
func (s *ClientSession) UpdateHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastHeartbeat = time.Now()
	s.MissedBeats = 0
}

// SinceHeartbeat 距离上次心跳的时长
func (s *ClientSession) SinceHeartbeat(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.LastHeartbeat)
}

// IncrementMissedBeats 增加丢失心跳次数，返回当前次数
func (s *ClientSession) IncrementMissedBeats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MissedBeats++
	return s.MissedBeats
}

// ShouldBeCleaned 判断是否应该清理
func (s *ClientSession) ShouldBeCleaned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MissedBeats >= 3
}

// WriteMessage 向 WebSocket 写入消息（线程安全）
func (s *ClientSession) WriteMessage(message interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.Conn.WriteJSON(message)
}
