package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mac-assistant/mac-assistant-go/internal/intent"
	"github.com/mac-assistant/mac-assistant-go/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStrategy struct {
	name  string
	res   model.Result
	err   error
	delay time.Duration
	block bool
	calls int
	got   string
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Attempt(ctx context.Context, query string) (model.Result, error) {
	s.calls++
	s.got = query
	if s.block {
		// 不响应 ctx 的慢服务
		time.Sleep(time.Second)
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return model.Result{}, ctx.Err()
		}
	}
	return s.res, s.err
}

type observed struct {
	mu     sync.Mutex
	events []string
}

func (o *observed) record(strategy, outcome string, _ time.Duration) {
	o.mu.Lock()
	o.events = append(o.events, strategy+":"+outcome)
	o.mu.Unlock()
}

func TestNoStrategiesGivesDegradedMessage(t *testing.T) {
	c := NewCoordinator(time.Second, 2*time.Second, zap.NewNop())

	res := c.Resolve(context.Background(), intent.Unknown, "blorp zzz")
	require.False(t, res.Failed())
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, "fallback", res.Data["source"])
	assert.Equal(t, "no_instant_answer", res.Data["status"])
}

func TestFirstSuccessWins(t *testing.T) {
	a := &stubStrategy{name: "a", err: errors.New("down")}
	b := &stubStrategy{name: "b", res: model.Success("from b", nil)}
	cc := &stubStrategy{name: "c", res: model.Success("from c", nil)}
	obs := &observed{}

	c := NewCoordinator(time.Second, 2*time.Second, zap.NewNop(),
		WithRoute(RouteGeneral, a, b, cc),
		WithObserver(obs.record))

	res := c.Run(context.Background(), RouteGeneral, "question")
	assert.Equal(t, "from b", res.Message)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 0, cc.calls)
	assert.Equal(t, []string{"a:error", "b:success"}, obs.events)
}

func TestEmptyOrFailedResultFallsThrough(t *testing.T) {
	a := &stubStrategy{name: "a", res: model.Success("", nil)}
	b := &stubStrategy{name: "b", res: model.Failure(model.ErrServiceUnavailable, "nope", "", nil)}

	c := NewCoordinator(time.Second, 2*time.Second, zap.NewNop(), WithRoute(RouteGeneral, a, b))
	res := c.Run(context.Background(), RouteGeneral, "q")
	assert.Equal(t, "no_instant_answer", res.Data["status"])
}

func TestPerStrategyTimeout(t *testing.T) {
	slow := &stubStrategy{name: "slow", delay: time.Second, res: model.Success("late", nil)}
	fast := &stubStrategy{name: "fast", res: model.Success("fast answer", nil)}
	obs := &observed{}

	c := NewCoordinator(50*time.Millisecond, time.Second, zap.NewNop(),
		WithRoute(RouteGeneral, slow, fast),
		WithObserver(obs.record))

	start := time.Now()
	res := c.Run(context.Background(), RouteGeneral, "q")
	assert.Equal(t, "fast answer", res.Message)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, []string{"slow:timeout", "fast:success"}, obs.events)
}

func TestUncooperativeStrategyStillBounded(t *testing.T) {
	stuck := &stubStrategy{name: "stuck", block: true, res: model.Success("late", nil)}

	c := NewCoordinator(50*time.Millisecond, time.Second, zap.NewNop(), WithRoute(RouteGeneral, stuck))

	start := time.Now()
	res := c.Run(context.Background(), RouteGeneral, "q")
	assert.Equal(t, "no_instant_answer", res.Data["status"])
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBudgetSkipsRemaining(t *testing.T) {
	a := &stubStrategy{name: "a", delay: time.Second}
	b := &stubStrategy{name: "b", res: model.Success("b", nil)}
	obs := &observed{}

	c := NewCoordinator(time.Second, 60*time.Millisecond, zap.NewNop(),
		WithRoute(RouteGeneral, a, b),
		WithObserver(obs.record))

	res := c.Run(context.Background(), RouteGeneral, "q")
	assert.Equal(t, "no_instant_answer", res.Data["status"])
	assert.Equal(t, 0, b.calls)
	assert.Equal(t, []string{"a:timeout", "b:skipped"}, obs.events)
}

func TestPanicIsContained(t *testing.T) {
	p := &panicky{}
	ok := &stubStrategy{name: "ok", res: model.Success("fine", nil)}

	c := NewCoordinator(time.Second, 2*time.Second, zap.NewNop(), WithRoute(RouteGeneral, p, ok))
	res := c.Run(context.Background(), RouteGeneral, "q")
	assert.Equal(t, "fine", res.Message)
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }
func (panicky) Attempt(context.Context, string) (model.Result, error) {
	panic("provider bug")
}

func TestResolveRoutesByCategory(t *testing.T) {
	search := &stubStrategy{name: "search", res: model.Success("search hit", nil)}
	video := &stubStrategy{name: "video", res: model.Success("video hit", nil)}
	general := &stubStrategy{name: "general", res: model.Success("general hit", nil)}

	c := NewCoordinator(time.Second, 2*time.Second, zap.NewNop(),
		WithRoute(RouteSearch, search),
		WithRoute(RouteVideo, video),
		WithRoute(RouteGeneral, general))

	assert.Equal(t, "search hit", c.Resolve(context.Background(), intent.Search, "search for golang generics").Message)
	assert.Equal(t, "golang generics", search.got)

	assert.Equal(t, "video hit", c.Resolve(context.Background(), intent.YouTube, "find video about sourdough").Message)
	assert.Equal(t, "sourdough", video.got)

	assert.Equal(t, "general hit", c.Resolve(context.Background(), intent.AIQuestion, "ask chatgpt why is the sky blue").Message)
	assert.Equal(t, "why is the sky blue", general.got)

	assert.Equal(t, []string{"search"}, c.Strategies(RouteSearch))
}

func TestExtractQuery(t *testing.T) {
	cases := []struct {
		category intent.Category
		text     string
		want     string
	}{
		{intent.Search, "Search for Golang generics", "golang generics"},
		{intent.Search, "what is quantum computing?", "quantum computing"},
		{intent.Search, "tell me about the Roman empire", "roman empire"},
		{intent.Search, "search google for cheap flights", "cheap flights"},
		{intent.YouTube, "youtube lofi beats", "lofi beats"},
		{intent.YouTube, "find video about sourdough", "sourdough"},
		{intent.YouTube, "find a video of cats", "cats"},
		{intent.YouTube, "play me some videos about jazz", "jazz"},
		{intent.YouTube, "go tutorial video tutorial", "go tutorial"},
		{intent.AIQuestion, "ask ai about black holes", "black holes"},
		{intent.Unknown, "Blorp, zzz!", "blorp zzz"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractQuery(tc.category, tc.text), tc.text)
	}
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f fakeAnswerer) Name() string { return "fake" }
func (f fakeAnswerer) Ask(context.Context, string) (string, error) {
	return f.answer, f.err
}

type fakeVideos struct{ videos []model.Video }

func (f fakeVideos) Search(context.Context, string) ([]model.Video, error) {
	return f.videos, nil
}

type fakeInstant struct{ ans model.InstantAnswer }

func (f fakeInstant) InstantAnswer(context.Context, string) (model.InstantAnswer, error) {
	return f.ans, nil
}

type fakeWeb struct{ results []model.SearchResult }

func (f fakeWeb) Search(context.Context, string, int) ([]model.SearchResult, error) {
	return f.results, nil
}

func TestStrategyMessages(t *testing.T) {
	ctx := context.Background()

	res, err := NewAIStrategy(fakeAnswerer{answer: "42"}).Attempt(ctx, "meaning of life")
	require.NoError(t, err)
	assert.Equal(t, "42", res.Message)
	assert.Equal(t, "fake", res.Data["source"])

	_, err = NewAIStrategy(fakeAnswerer{err: errors.New("401")}).Attempt(ctx, "q")
	assert.Error(t, err)

	res, err = NewVideoStrategy(fakeVideos{videos: []model.Video{
		{Title: "One", Channel: "A", URL: "u1"},
		{Title: "Two", Channel: "B", URL: "u2"},
		{Title: "Three", Channel: "C", URL: "u3"},
	}}).Attempt(ctx, "jazz")
	require.NoError(t, err)
	assert.Equal(t, `I found 3 YouTube videos for 'jazz': "One" by A; "Two" by B and 1 more.`, res.Message)
	assert.Len(t, res.Data["videos"], 3)

	long := make([]rune, 250)
	for i := range long {
		long[i] = 'x'
	}
	res, err = NewInstantAnswerStrategy(fakeInstant{ans: model.InstantAnswer{Text: string(long)}}).Attempt(ctx, "x")
	require.NoError(t, err)
	assert.Len(t, res.Message, 203)

	res, err = NewWebResultsStrategy(fakeWeb{results: []model.SearchResult{{Title: "Go"}, {Title: "Go by Example"}}}, 3).Attempt(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, "Here's what I found for 'golang': Go; Go by Example.", res.Message)
}
