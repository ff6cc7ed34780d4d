package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DashScopeClient 通义千问客户端
type DashScopeClient struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDashScopeClient 创建通义千问客户端
func NewDashScopeClient(apiKey, model, url string, hc *http.Client, logger *zap.Logger) *DashScopeClient {
	return &DashScopeClient{
		apiKey:     apiKey,
		model:      model,
		url:        url,
		httpClient: hc,
		logger:     logger,
	}
}

// Message 消息
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

type dashScopeRequest struct {
	Model      string              `json:"model"`
	Input      dashScopeInput      `json:"input"`
	Parameters dashScopeParameters `json:"parameters"`
}

type dashScopeInput struct {
	Messages []Message `json:"messages"`
}

type dashScopeParameters struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type dashScopeResponse struct {
	Output struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Name 服务名
func (c *DashScopeClient) Name() string { return "dashscope" }

// Chat 调用通义千问聊天接口
func (c *DashScopeClient) Chat(ctx context.Context, messages []Message) (string, error) {
	reqBody := dashScopeRequest{
		Model: c.model,
		Input: dashScopeInput{Messages: messages},
		Parameters: dashScopeParameters{
			Temperature: 0.7,
			MaxTokens:   300,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	body, err := do(c.httpClient, req)
	if err != nil {
		return "", err
	}

	var chatResp dashScopeResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}
	if chatResp.Code != "" {
		return "", fmt.Errorf("%w: %s %s", ErrStatus, chatResp.Code, chatResp.Message)
	}

	text := strings.TrimSpace(chatResp.Output.Text)
	if text == "" {
		return "", ErrEmptyAnswer
	}

	c.logger.Debug("通义千问回答完成",
		zap.String("requestId", chatResp.RequestID),
		zap.Int("outputTokens", chatResp.Usage.OutputTokens))
	return text, nil
}

// Ask 单轮问答
func (c *DashScopeClient) Ask(ctx context.Context, question string) (string, error) {
	return c.Chat(ctx, []Message{
		{Role: "system", Content: AssistantPrompt},
		{Role: "user", Content: question},
	})
}
