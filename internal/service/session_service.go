package service

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mac-assistant/mac-assistant-go/internal/metrics"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"go.uber.org/zap"
)

var (
	ErrClientOffline = errors.New("客户端不在线")
)

// 心跳参数
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultHeartbeatTimeout  = 60 * time.Second
)

// SessionService 移动端会话管理
type SessionService struct {
	clientSessions  map[string]*model.ClientSession // clientId -> session
	sessionToClient map[string]string               // sessionId -> clientId
	mu              sync.RWMutex
	interval        time.Duration
	timeout         time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
	logger          *zap.Logger
}

// NewSessionService 创建会话管理服务并启动心跳检测
func NewSessionService(interval, timeout time.Duration, logger *zap.Logger) *SessionService {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if timeout <= 0 {
		timeout = DefaultHeartbeatTimeout
	}
	s := &SessionService{
		clientSessions:  make(map[string]*model.ClientSession),
		sessionToClient: make(map[string]string),
		interval:        interval,
		timeout:         timeout,
		stop:            make(chan struct{}),
		logger:          logger,
	}

	go s.heartbeatChecker()

	return s
}

// Register 注册客户端会话，同一客户端重连时关闭旧连接
func (s *SessionService) Register(clientID string, conn *websocket.Conn, sessionID, clientIP string) *model.ClientSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.clientSessions[clientID]; ok {
		s.logger.Info("客户端重新连接，关闭旧连接",
			zap.String("clientId", clientID),
			zap.String("oldSessionId", existing.SessionID))
		existing.Conn.Close()
		delete(s.sessionToClient, existing.SessionID)
	}

	session := &model.ClientSession{
		SessionID:     sessionID,
		ClientID:      clientID,
		Conn:          conn,
		ClientIP:      clientIP,
		LastHeartbeat: time.Now(),
	}
	s.clientSessions[clientID] = session
	s.sessionToClient[sessionID] = clientID
	metrics.ActiveSessions.Set(float64(len(s.clientSessions)))

	s.logger.Info("客户端会话注册成功",
		zap.String("clientId", clientID),
		zap.String("sessionId", sessionID),
		zap.String("clientIp", clientIP))
	return session
}

// Send 向指定客户端发送消息
func (s *SessionService) Send(clientID string, message any) error {
	s.mu.RLock()
	session, ok := s.clientSessions[clientID]
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("客户端不在线，消息发送失败", zap.String("clientId", clientID))
		return ErrClientOffline
	}

	if err := session.WriteMessage(message); err != nil {
		s.logger.Error("消息发送失败", zap.String("clientId", clientID), zap.Error(err))
		go s.RemoveBySessionID(session.SessionID)
		return err
	}
	return nil
}

// UpdateHeartbeat 更新心跳时间
func (s *SessionService) UpdateHeartbeat(clientID string) bool {
	s.mu.RLock()
	session, ok := s.clientSessions[clientID]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	session.UpdateHeartbeat()
	return true
}

// RemoveBySessionID 根据 sessionId 移除会话，旧会话被替换后不影响新会话
func (s *SessionService) RemoveBySessionID(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clientID, ok := s.sessionToClient[sessionID]
	if !ok {
		return
	}
	delete(s.sessionToClient, sessionID)
	if current, ok := s.clientSessions[clientID]; ok && current.SessionID == sessionID {
		delete(s.clientSessions, clientID)
	}
	metrics.ActiveSessions.Set(float64(len(s.clientSessions)))
	s.logger.Info("客户端会话已移除",
		zap.String("clientId", clientID),
		zap.String("sessionId", sessionID))
}

// OnlineCount 在线客户端数
func (s *SessionService) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clientSessions)
}

// Close 停止心跳检测并关闭所有连接
func (s *SessionService) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)

		s.mu.Lock()
		defer s.mu.Unlock()
		for clientID, session := range s.clientSessions {
			session.Conn.Close()
			delete(s.clientSessions, clientID)
		}
		clear(s.sessionToClient)
		metrics.ActiveSessions.Set(0)
	})
}

// heartbeatChecker 心跳检测器
func (s *SessionService) heartbeatChecker() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep 连续丢失 3 次心跳的会话被清理
func (s *SessionService) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for clientID, session := range s.clientSessions {
		if session.SinceHeartbeat(now) <= s.timeout {
			continue
		}
		missed := session.IncrementMissedBeats()
		if !session.ShouldBeCleaned() {
			s.logger.Warn("客户端心跳丢失",
				zap.String("clientId", clientID),
				zap.Int("missedBeats", missed))
			continue
		}

		s.logger.Info("清理无效会话",
			zap.String("clientId", clientID),
			zap.Int("missedBeats", missed))
		session.Conn.Close()
		delete(s.clientSessions, clientID)
		delete(s.sessionToClient, session.SessionID)
	}
	metrics.ActiveSessions.Set(float64(len(s.clientSessions)))
}
