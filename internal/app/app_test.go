package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/mac-assistant/mac-assistant-go/internal/config"
	"github.com/mac-assistant/mac-assistant-go/internal/fallback"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFallbackRoutesFollowConfig(t *testing.T) {
	cfg := config.Default()
	p := cfg.Providers
	p.OpenAI.Enabled = true
	p.OpenAI.APIKey = "sk-test"
	p.DashScope.Enabled = true // 没有密钥，不加入
	p.DuckDuckGo.Enabled = true
	p.YouTube.Enabled = true
	p.YouTube.APIKey = "yt"

	c := fallback.NewCoordinator(p.Timeout, p.FallbackBudget, zap.NewNop(), FallbackRoutes(p, http.DefaultClient, zap.NewNop())...)

	assert.Equal(t, []string{"ai:openai", "instant_answer"}, c.Strategies(fallback.RouteGeneral))
	assert.Equal(t, []string{"instant_answer", "web_results"}, c.Strategies(fallback.RouteSearch))
	assert.Equal(t, []string{"youtube"}, c.Strategies(fallback.RouteVideo))
}

func TestFallbackRoutesAllDisabled(t *testing.T) {
	p := config.Default().Providers
	c := fallback.NewCoordinator(p.Timeout, p.FallbackBudget, zap.NewNop(), FallbackRoutes(p, http.DefaultClient, zap.NewNop())...)

	assert.Empty(t, c.Strategies(fallback.RouteGeneral))
	assert.Empty(t, c.Strategies(fallback.RouteSearch))
	assert.Empty(t, c.Strategies(fallback.RouteVideo))
}

func TestBuildWithDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Assistant.ProbeAddr = "127.0.0.1:1"

	a, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	resp := a.Assistant.ProcessCommand(context.Background(), "shut down the computer", "test")
	assert.Equal(t, model.StatusError, resp.Status)
	assert.Equal(t, model.ErrPermissionDenied, resp.ErrorCode)

	resp = a.Assistant.ProcessCommand(context.Background(), "blorp zzz", "test")
	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.Message)

	entries, err := a.Assistant.History(context.Background(), "test", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
