package fallback

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mac-assistant/mac-assistant-go/internal/model"
)

// Answerer 对话模型
type Answerer interface {
	Name() string
	Ask(ctx context.Context, question string) (string, error)
}

// InstantAnswerer 即时答案服务
type InstantAnswerer interface {
	InstantAnswer(ctx context.Context, query string) (model.InstantAnswer, error)
}

// WebSearcher 网页搜索
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
}

// VideoSearcher 视频搜索
type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]model.Video, error)
}

// Strategy 一次兜底尝试。返回错误表示交给下一个策略。
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, query string) (model.Result, error)
}

// AIStrategy 对话模型回答
type AIStrategy struct {
	answerer Answerer
}

// NewAIStrategy 创建对话模型策略
func NewAIStrategy(a Answerer) *AIStrategy {
	return &AIStrategy{answerer: a}
}

func (s *AIStrategy) Name() string { return "ai:" + s.answerer.Name() }

func (s *AIStrategy) Attempt(ctx context.Context, query string) (model.Result, error) {
	answer, err := s.answerer.Ask(ctx, query)
	if err != nil {
		return model.Result{}, err
	}
	return model.Success(answer, map[string]any{
		"source": s.answerer.Name(),
		"query":  query,
	}), nil
}

// InstantAnswerStrategy DuckDuckGo 即时答案
type InstantAnswerStrategy struct {
	provider InstantAnswerer
}

// NewInstantAnswerStrategy 创建即时答案策略
func NewInstantAnswerStrategy(p InstantAnswerer) *InstantAnswerStrategy {
	return &InstantAnswerStrategy{provider: p}
}

func (s *InstantAnswerStrategy) Name() string { return "instant_answer" }

func (s *InstantAnswerStrategy) Attempt(ctx context.Context, query string) (model.Result, error) {
	ans, err := s.provider.InstantAnswer(ctx, query)
	if err != nil {
		return model.Result{}, err
	}
	return model.Success(truncate(ans.Text, 200), map[string]any{
		"source":  "DuckDuckGo",
		"query":   query,
		"heading": ans.Heading,
		"url":     ans.URL,
	}), nil
}

// WebResultsStrategy 网页搜索结果摘要
type WebResultsStrategy struct {
	searcher WebSearcher
	limit    int
}

// NewWebResultsStrategy 创建网页搜索策略
func NewWebResultsStrategy(s WebSearcher, limit int) *WebResultsStrategy {
	return &WebResultsStrategy{searcher: s, limit: limit}
}

func (s *WebResultsStrategy) Name() string { return "web_results" }

func (s *WebResultsStrategy) Attempt(ctx context.Context, query string) (model.Result, error) {
	results, err := s.searcher.Search(ctx, query, s.limit)
	if err != nil {
		return model.Result{}, err
	}
	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Title)
	}
	message := fmt.Sprintf("Here's what I found for '%s': %s.", query, strings.Join(titles, "; "))
	return model.Success(message, map[string]any{
		"source":  "DuckDuckGo",
		"query":   query,
		"results": results,
	}), nil
}

// VideoStrategy YouTube 视频搜索摘要
type VideoStrategy struct {
	searcher VideoSearcher
}

// NewVideoStrategy 创建视频搜索策略
func NewVideoStrategy(s VideoSearcher) *VideoStrategy {
	return &VideoStrategy{searcher: s}
}

func (s *VideoStrategy) Name() string { return "youtube" }

func (s *VideoStrategy) Attempt(ctx context.Context, query string) (model.Result, error) {
	videos, err := s.searcher.Search(ctx, query)
	if err != nil {
		return model.Result{}, err
	}

	// 消息里只念前两个，完整列表放在 data 里
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d YouTube videos for '%s': ", len(videos), query)
	for i, v := range videos[:min(2, len(videos))] {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%q by %s", v.Title, v.Channel)
	}
	if len(videos) > 2 {
		fmt.Fprintf(&b, " and %d more.", len(videos)-2)
	}

	return model.Success(b.String(), map[string]any{
		"source": "YouTube",
		"query":  query,
		"videos": videos,
	}), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}
