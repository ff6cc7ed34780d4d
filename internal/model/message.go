package model

import "time"

// WebSocket 消息类型
const (
	MessageCommand   = "COMMAND"
	MessageHeartbeat = "HEARTBEAT"
	MessageResponse  = "RESPONSE"
	MessageAck       = "ACK"
	MessageError     = "ERROR"
)

// ClientMessage 移动端通过 WebSocket 发来的消息
type ClientMessage struct {
	MessageID string         `json:"messageId"`
	Type      string         `json:"type"` // COMMAND, HEARTBEAT
	Text      string         `json:"text,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ServerMessage 服务端推送给移动端的消息
type ServerMessage struct {
	MessageID string           `json:"messageId"`
	ReplyTo   string           `json:"replyTo,omitempty"`
	Type      string           `json:"type"` // RESPONSE, ACK, ERROR
	Response  *CommandResponse `json:"response,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// HistoryEntry 命令历史记录
type HistoryEntry struct {
	ID        string  `json:"id"`
	ClientID  string  `json:"client_id"`
	Text      string  `json:"text"`
	Category  string  `json:"category"`
	Status    string  `json:"status"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}
