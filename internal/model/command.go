package model

import (
	"fmt"
	"time"
)

// 文本长度限制
const (
	MinTextLength = 1
	MaxTextLength = 1000
)

// 响应状态
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorCode 错误码
type ErrorCode string

const (
	ErrValidation         ErrorCode = "VALIDATION_ERROR"
	ErrNotRecognized      ErrorCode = "COMMAND_NOT_RECOGNIZED"
	ErrPermissionDenied   ErrorCode = "PERMISSION_DENIED"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrSystem             ErrorCode = "SYSTEM_ERROR"
)

// 消息为空时的兜底文案
const (
	fallbackSuccessMessage = "Done."
	fallbackErrorMessage   = "Sorry, something went wrong while processing your command."
)

// CommandRequest 命令请求
type CommandRequest struct {
	Text      string         `json:"text" binding:"required,min=1,max=1000"`
	Timestamp *float64       `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ClientID 从 metadata 中取客户端标识
func (r *CommandRequest) ClientID() string {
	if r.Metadata == nil {
		return ""
	}
	if id, ok := r.Metadata["client_id"].(string); ok {
		return id
	}
	return ""
}

// CommandResponse 统一响应信封，出错时附带 error_code 与 details
type CommandResponse struct {
	Message       string         `json:"message"`
	Data          map[string]any `json:"data"`
	Status        string         `json:"status"`
	Timestamp     float64        `json:"timestamp"`
	ExecutionTime float64        `json:"execution_time"`
	ErrorCode     ErrorCode      `json:"error_code,omitempty"`
	Details       string         `json:"details,omitempty"`
}

// CommandError 命令执行错误
type CommandError struct {
	Code   ErrorCode
	Detail string // 诊断信息，不作为面向用户的消息
	Cause  error  // 原始错误，只写日志
}

func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// Result 执行器或兜底链路的结果
type Result struct {
	Message string
	Data    map[string]any
	Err     *CommandError
}

// Success 成功结果
func Success(message string, data map[string]any) Result {
	return Result{Message: message, Data: data}
}

// Failure 失败结果，message 必须是可以直接展示给用户的文案
func Failure(code ErrorCode, message, detail string, cause error) Result {
	return Result{
		Message: message,
		Err:     &CommandError{Code: code, Detail: detail, Cause: cause},
	}
}

// Failed 是否失败
func (r Result) Failed() bool {
	return r.Err != nil
}

// Format 把结果包装成响应信封
func Format(r Result, startedAt, now time.Time) CommandResponse {
	elapsed := now.Sub(startedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	resp := CommandResponse{
		Message:       r.Message,
		Data:          r.Data,
		Status:        StatusSuccess,
		Timestamp:     UnixSeconds(now),
		ExecutionTime: float64(elapsed.Microseconds()) / 1000.0,
	}

	if r.Err != nil {
		resp.Status = StatusError
		resp.Data = nil
		resp.ErrorCode = r.Err.Code
		resp.Details = r.Err.Detail
	}

	if resp.Message == "" {
		if resp.Status == StatusError {
			resp.Message = fallbackErrorMessage
		} else {
			resp.Message = fallbackSuccessMessage
		}
	}
	return resp
}

// UnixSeconds 浮点秒级时间戳
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
