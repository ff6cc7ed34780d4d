package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// YouTubeClient YouTube Data API v3 搜索
type YouTubeClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewYouTubeClient 创建客户端
func NewYouTubeClient(apiKey, baseURL string, maxResults int, hc *http.Client, logger *zap.Logger) *YouTubeClient {
	return &YouTubeClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		maxResults: maxResults,
		httpClient: hc,
		logger:     logger,
	}
}

// Name 服务名
func (c *YouTubeClient) Name() string { return "youtube" }

// Search 搜索视频
func (c *YouTubeClient) Search(ctx context.Context, query string) ([]model.Video, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(c.maxResults))
	params.Set("key", c.apiKey)

	body, err := doGet(ctx, c.httpClient, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
			return nil, fmt.Errorf("%w (%s)", err, msg)
		}
		return nil, err
	}

	var videos []model.Video
	gjson.GetBytes(body, "items").ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id.videoId").String()
		if id == "" {
			return true
		}
		videos = append(videos, model.Video{
			Title:   item.Get("snippet.title").String(),
			Channel: item.Get("snippet.channelTitle").String(),
			URL:     "https://www.youtube.com/watch?v=" + id,
		})
		return len(videos) < c.maxResults
	})

	if len(videos) == 0 {
		return nil, ErrEmptyAnswer
	}
	c.logger.Debug("YouTube 搜索完成", zap.String("query", query), zap.Int("results", len(videos)))
	return videos, nil
}
