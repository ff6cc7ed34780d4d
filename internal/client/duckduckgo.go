package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (compatible; mac-assistant/1.0)"

// DuckDuckGoClient DuckDuckGo 即时答案 + HTML 搜索结果
type DuckDuckGoClient struct {
	apiURL     string
	htmlURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDuckDuckGoClient 创建客户端
func NewDuckDuckGoClient(apiURL, htmlURL string, hc *http.Client, logger *zap.Logger) *DuckDuckGoClient {
	return &DuckDuckGoClient{
		apiURL:     apiURL,
		htmlURL:    htmlURL,
		httpClient: hc,
		logger:     logger,
	}
}

// Name 服务名
func (c *DuckDuckGoClient) Name() string { return "duckduckgo" }

// InstantAnswer 查询即时答案，依次取 Answer、AbstractText、Definition、第一个相关主题
func (c *DuckDuckGoClient) InstantAnswer(ctx context.Context, query string) (model.InstantAnswer, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	body, err := doGet(ctx, c.httpClient, c.apiURL+"?"+params.Encode(), http.Header{"User-Agent": {userAgent}})
	if err != nil {
		return model.InstantAnswer{}, err
	}
	if !gjson.ValidBytes(body) {
		return model.InstantAnswer{}, fmt.Errorf("解析即时答案失败: invalid json")
	}

	doc := gjson.ParseBytes(body)
	heading := doc.Get("Heading").String()

	if answer := strings.TrimSpace(doc.Get("Answer").String()); answer != "" {
		return model.InstantAnswer{Heading: heading, Text: answer, Source: "DuckDuckGo"}, nil
	}
	if abstract := strings.TrimSpace(doc.Get("AbstractText").String()); abstract != "" {
		return model.InstantAnswer{
			Heading: heading,
			Text:    abstract,
			Source:  doc.Get("AbstractSource").String(),
			URL:     doc.Get("AbstractURL").String(),
		}, nil
	}
	if def := strings.TrimSpace(doc.Get("Definition").String()); def != "" {
		return model.InstantAnswer{
			Heading: heading,
			Text:    def,
			Source:  doc.Get("DefinitionSource").String(),
			URL:     doc.Get("DefinitionURL").String(),
		}, nil
	}

	// RelatedTopics 里可能嵌套 Topics 分组，只取带 Text 的条目
	var topic model.InstantAnswer
	doc.Get("RelatedTopics").ForEach(func(_, v gjson.Result) bool {
		if text := strings.TrimSpace(v.Get("Text").String()); text != "" {
			topic = model.InstantAnswer{Heading: heading, Text: text, Source: "DuckDuckGo", URL: v.Get("FirstURL").String()}
			return false
		}
		return true
	})
	if topic.Text != "" {
		return topic, nil
	}
	return model.InstantAnswer{}, ErrEmptyAnswer
}

// Search 抓取 HTML 结果页，返回至多 limit 条结果
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	body, err := doGet(ctx, c.httpClient, c.htmlURL+"?q="+url.QueryEscape(query), http.Header{"User-Agent": {userAgent}})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析搜索结果失败: %w", err)
	}

	var results []model.SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		results = append(results, model.SearchResult{
			Title:   title,
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return limit <= 0 || len(results) < limit
	})

	if len(results) == 0 {
		return nil, ErrEmptyAnswer
	}
	c.logger.Debug("DuckDuckGo 搜索完成", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

// resolveRedirect 还原 //duckduckgo.com/l/?uddg=<目标地址> 形式的跳转链接
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
