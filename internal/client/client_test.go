package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDuckDuckGoInstantAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{"Heading":"Go","AbstractText":"Go is a programming language.","AbstractSource":"Wikipedia","AbstractURL":"https://en.wikipedia.org/wiki/Go"}`))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient(srv.URL, srv.URL, srv.Client(), zap.NewNop())
	ans, err := c.InstantAnswer(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, "Go is a programming language.", ans.Text)
	assert.Equal(t, "Wikipedia", ans.Source)
}

func TestDuckDuckGoRelatedTopicFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AbstractText":"","RelatedTopics":[{"Name":"group","Topics":[]},{"Text":"Sourdough is bread.","FirstURL":"https://duckduckgo.com/Sourdough"}]}`))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient(srv.URL, srv.URL, srv.Client(), zap.NewNop())
	ans, err := c.InstantAnswer(context.Background(), "sourdough")
	require.NoError(t, err)
	assert.Equal(t, "Sourdough is bread.", ans.Text)
}

func TestDuckDuckGoNoAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AbstractText":"","RelatedTopics":[]}`))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient(srv.URL, srv.URL, srv.Client(), zap.NewNop())
	_, err := c.InstantAnswer(context.Background(), "zzz")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestDuckDuckGoHTMLSearch(t *testing.T) {
	page := `<html><body>
<div class="result"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=abc">The Go Programming Language</a>
<a class="result__snippet">Go is an open source programming language.</a></div>
<div class="result"><a class="result__a" href="https://gobyexample.com/">Go by Example</a></div>
<div class="result"><a class="result__a" href="https://example.com/3">Third</a></div>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang tutorials", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	c := NewDuckDuckGoClient(srv.URL, srv.URL, srv.Client(), zap.NewNop())
	results, err := c.Search(context.Background(), "golang tutorials", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "The Go Programming Language", results[0].Title)
	assert.Equal(t, "https://go.dev/", results[0].URL)
	assert.Equal(t, "Go is an open source programming language.", results[0].Snippet)
	assert.Equal(t, "https://gobyexample.com/", results[1].URL)
}

func TestYouTubeSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("key"))
		assert.Equal(t, "3", q.Get("maxResults"))
		w.Write([]byte(`{"items":[
			{"id":{"videoId":"a1"},"snippet":{"title":"Sourdough 101","channelTitle":"Bakers"}},
			{"id":{"channelId":"c1"},"snippet":{"title":"A channel"}},
			{"id":{"videoId":"b2"},"snippet":{"title":"Starter","channelTitle":"Kitchen"}},
			{"id":{"videoId":"c3"},"snippet":{"title":"Shaping","channelTitle":"Kitchen"}},
			{"id":{"videoId":"d4"},"snippet":{"title":"Extra","channelTitle":"Kitchen"}}
		]}`))
	}))
	defer srv.Close()

	c := NewYouTubeClient("secret", srv.URL, 3, srv.Client(), zap.NewNop())
	videos, err := c.Search(context.Background(), "sourdough")
	require.NoError(t, err)
	require.Len(t, videos, 3)
	assert.Equal(t, "Sourdough 101", videos[0].Title)
	assert.Equal(t, "Bakers", videos[0].Channel)
	assert.Equal(t, "https://www.youtube.com/watch?v=a1", videos[0].URL)
}

func TestYouTubeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := NewYouTubeClient("secret", srv.URL, 3, srv.Client(), zap.NewNop())
	_, err := c.Search(context.Background(), "x")
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestWeatherCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Paris", q.Get("q"))
		assert.Equal(t, "metric", q.Get("units"))
		w.Write([]byte(`{"name":"Paris","sys":{"country":"FR"},"main":{"temp":18.4,"feels_like":17.9,"humidity":72},"weather":[{"description":"light rain"}]}`))
	}))
	defer srv.Close()

	c := NewWeatherClient("key", srv.URL, "metric", srv.Client(), zap.NewNop())
	report, err := c.Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", report.City)
	assert.Equal(t, "FR", report.Country)
	assert.InDelta(t, 18.4, report.Temperature, 0.001)
	assert.Equal(t, 72, report.Humidity)
	assert.Equal(t, "light rain", report.Description)
}

func TestWeatherCityNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	c := NewWeatherClient("key", srv.URL, "metric", srv.Client(), zap.NewNop())
	_, err := c.Current(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "city not found")
}

func TestDashScopeAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer dash-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		var req dashScopeRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "qwen-turbo", req.Model)
		require.Len(t, req.Input.Messages, 2)
		assert.Equal(t, "why is the sky blue", req.Input.Messages[1].Content)
		w.Write([]byte(`{"output":{"text":"Rayleigh scattering.","finish_reason":"stop"},"request_id":"r1"}`))
	}))
	defer srv.Close()

	c := NewDashScopeClient("dash-key", "qwen-turbo", srv.URL, srv.Client(), zap.NewNop())
	answer, err := c.Ask(context.Background(), "why is the sky blue")
	require.NoError(t, err)
	assert.Equal(t, "Rayleigh scattering.", answer)
}

func TestDashScopeErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"InvalidApiKey","message":"Invalid API-key provided."}`))
	}))
	defer srv.Close()

	c := NewDashScopeClient("bad", "qwen-turbo", srv.URL, srv.Client(), zap.NewNop())
	_, err := c.Ask(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrStatus)
}

func TestOpenAIAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.EqualValues(t, 150, body["max_completion_tokens"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Paris is the capital of France. "}}],
			"usage":{"prompt_tokens":10,"completion_tokens":8,"total_tokens":18}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIOptions{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL, MaxTokens: 150}, srv.Client(), zap.NewNop())
	answer, err := c.Ask(context.Background(), "capital of france")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", answer)
}

func TestOpenAIHonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIOptions{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL, MaxTokens: 150}, srv.Client(), zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Ask(ctx, "slow question")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewHTTPClient(t *testing.T) {
	hc, err := NewHTTPClient("", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, hc.Timeout)

	hc, err = NewHTTPClient("127.0.0.1:1080", 5*time.Second)
	require.NoError(t, err)
	assert.NotNil(t, hc.Transport)
}
