package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/mac-assistant/mac-assistant-go/internal/service"
	"go.uber.org/zap"
)

// commandTimeout 单条 websocket 命令的处理时限
const commandTimeout = 20 * time.Second

// WebSocketHandler 移动端 WebSocket 处理器
type WebSocketHandler struct {
	sessionService *service.SessionService
	assistant      *service.AssistantService
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewWebSocketHandler 创建 WebSocket 处理器，checkOrigin 为 nil 时只接受同源请求
func NewWebSocketHandler(sessionService *service.SessionService, assistant *service.AssistantService, checkOrigin func(*http.Request) bool, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		sessionService: sessionService,
		assistant:      assistant,
		upgrader:       websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:         logger,
	}
}

// HandleWebSocket WebSocket 连接入口
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		clientID = c.GetHeader(ClientIDHeader)
	}
	if clientID == "" || len(clientID) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(16 * 1024)

	sessionID := uuid.New().String()
	h.sessionService.Register(clientID, conn, sessionID, c.ClientIP())
	defer h.sessionService.RemoveBySessionID(sessionID)

	h.logger.Info("WebSocket 连接建立",
		zap.String("clientId", clientID),
		zap.String("sessionId", sessionID))

	// 连接断开时取消正在处理的命令
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		var msg model.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket 读取错误", zap.Error(err))
			}
			break
		}
		h.handleMessage(ctx, clientID, &msg)
	}

	h.logger.Info("WebSocket 连接断开", zap.String("clientId", clientID))
}

// handleMessage 处理客户端消息
func (h *WebSocketHandler) handleMessage(ctx context.Context, clientID string, msg *model.ClientMessage) {
	switch msg.Type {
	case model.MessageCommand:
		h.send(clientID, model.ServerMessage{
			MessageID: uuid.New().String(),
			ReplyTo:   msg.MessageID,
			Type:      model.MessageAck,
			Timestamp: time.Now(),
		})

		// 异步处理，读循环继续接收心跳
		go func() {
			cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
			defer cancel()

			id := clientID
			if meta := (&model.CommandRequest{Metadata: msg.Metadata}).ClientID(); meta != "" {
				id = meta
			}
			resp := h.assistant.ProcessCommand(cmdCtx, msg.Text, id)
			h.send(clientID, model.ServerMessage{
				MessageID: uuid.New().String(),
				ReplyTo:   msg.MessageID,
				Type:      model.MessageResponse,
				Response:  &resp,
				Timestamp: time.Now(),
			})
		}()

	case model.MessageHeartbeat:
		h.sessionService.UpdateHeartbeat(clientID)

	default:
		h.logger.Warn("未知消息类型",
			zap.String("clientId", clientID),
			zap.String("type", msg.Type))
		h.send(clientID, model.ServerMessage{
			MessageID: uuid.New().String(),
			ReplyTo:   msg.MessageID,
			Type:      model.MessageError,
			Message:   "unknown message type",
			Timestamp: time.Now(),
		})
	}
}

func (h *WebSocketHandler) send(clientID string, msg model.ServerMessage) {
	if err := h.sessionService.Send(clientID, msg); err != nil {
		h.logger.Debug("WebSocket 消息未送达", zap.String("clientId", clientID), zap.Error(err))
	}
}
