package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// AssistantPrompt 对话模型的系统提示词
const AssistantPrompt = "You are MAC, a concise voice assistant. Answer in at most three short sentences that sound natural when read aloud. Do not use markdown."

// OpenAIClient OpenAI Chat Completions 客户端
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

// OpenAIOptions 客户端参数
type OpenAIOptions struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
}

// NewOpenAIClient 创建 OpenAI 客户端，重试交给调用方的超时控制
func NewOpenAIClient(opts OpenAIOptions, hc *http.Client, logger *zap.Logger) *OpenAIClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAIClient{
		client:    openai.NewClient(reqOpts...),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		logger:    logger,
	}
}

// Name 服务名
func (c *OpenAIClient) Name() string { return "openai" }

// Ask 单轮问答
func (c *OpenAIClient) Ask(ctx context.Context, question string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(AssistantPrompt),
			openai.UserMessage(question),
		},
		Model:               openai.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(c.maxTokens),
		Temperature:         openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyAnswer)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty message content", ErrEmptyAnswer)
	}

	c.logger.Debug("OpenAI 回答完成",
		zap.String("model", c.model),
		zap.Int64("totalTokens", resp.Usage.TotalTokens))
	return content, nil
}
