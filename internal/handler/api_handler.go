package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/mac-assistant/mac-assistant-go/internal/service"
	"go.uber.org/zap"
)

// ClientIDHeader 客户端标识头，优先级低于 metadata.client_id
const ClientIDHeader = "X-Client-ID"

// APIHandler HTTP API 处理器
type APIHandler struct {
	assistant *service.AssistantService
	logger    *zap.Logger
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(assistant *service.AssistantService, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		assistant: assistant,
		logger:    logger,
	}
}

// Root 服务信息
func (h *APIHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   h.assistant.Name() + " is running",
		"version":   h.assistant.Version(),
		"status":    "online",
		"timestamp": model.UnixSeconds(time.Now()),
	})
}

// Command 处理一条文本命令
func (h *APIHandler) Command(c *gin.Context) {
	startedAt := time.Now()

	var req model.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		code, detail := bindErrorStatus(err)
		h.logger.Info("命令请求校验失败",
			zap.String("requestId", c.GetString("request_id")),
			zap.Int("status", code),
			zap.Error(err))
		c.JSON(code, validationResponse(detail, startedAt))
		return
	}
	if verr := service.ValidateText(req.Text); verr != nil {
		c.JSON(http.StatusUnprocessableEntity, validationResponse(verr.Detail, startedAt))
		return
	}

	clientID := req.ClientID()
	if clientID == "" {
		clientID = c.GetHeader(ClientIDHeader)
	}

	resp := h.assistant.ProcessCommand(c.Request.Context(), req.Text, clientID)
	c.JSON(http.StatusOK, resp)
}

// bindErrorStatus JSON 格式错误返回 400，字段校验失败返回 422
func bindErrorStatus(err error) (int, string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fe := verrs[0]
		switch fe.Tag() {
		case "required", "min":
			return http.StatusUnprocessableEntity, "text must not be empty"
		case "max":
			return http.StatusUnprocessableEntity, "text must be at most " + strconv.Itoa(model.MaxTextLength) + " characters"
		default:
			return http.StatusUnprocessableEntity, fe.Error()
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return http.StatusUnprocessableEntity, "field " + typeErr.Field + " has the wrong type"
	}
	return http.StatusBadRequest, "request body must be a valid JSON object"
}

func validationResponse(detail string, startedAt time.Time) model.CommandResponse {
	res := model.Failure(model.ErrValidation, "Please provide a command between 1 and 1000 characters.", detail, nil)
	return model.Format(res, startedAt, time.Now())
}

// Status 系统、语音与网络状态
func (h *APIHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.Status(c.Request.Context()))
}

// Health 健康检查
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.Health())
}

// Info 服务与平台信息
func (h *APIHandler) Info(c *gin.Context) {
	info := h.assistant.Info()
	info["go_version"] = runtime.Version()
	c.JSON(http.StatusOK, info)
}

// Commands 可识别的命令类别与短语
func (h *APIHandler) Commands(c *gin.Context) {
	rules := h.assistant.Commands()
	c.JSON(http.StatusOK, gin.H{
		"categories": rules,
		"total":      len(rules),
		"note":       "Anything that matches no category is answered by the AI and web search fallback.",
	})
}

// History 最近的命令
func (h *APIHandler) History(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		clientID = c.GetHeader(ClientIDHeader)
	}
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	entries, err := h.assistant.History(c.Request.Context(), clientID, limit)
	if err != nil {
		h.logger.Error("读取命令历史失败", zap.String("clientId", clientID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"client_id": clientID,
		"history":   entries,
		"count":     len(entries),
	})
}

// NotFound 未知路径返回 JSON 错误和可用端点
func (h *APIHandler) NotFound(endpoints []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":              model.StatusError,
			"message":             "Endpoint not found: " + c.Request.URL.Path,
			"available_endpoints": endpoints,
		})
	}
}
