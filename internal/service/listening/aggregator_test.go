package listening

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/domain/query"
	"mirror/internal/domain/trend"
	"mirror/internal/service/enrich"
	"mirror/internal/service/interpreter"
)

type fakeSource struct {
	platform trend.Platform
	collect  func(ctx context.Context, q string, limit int) (Collection, error)

	mu      sync.Mutex
	queries []string
	calls   int
}

func (f *fakeSource) Platform() trend.Platform { return f.platform }

func (f *fakeSource) Query(fl query.Filter) string {
	if f.platform == trend.PlatformGitHub {
		return interpreter.Render(fl)
	}
	return interpreter.RenderKeywords(fl)
}

func (f *fakeSource) Collect(ctx context.Context, q string, limit int) (Collection, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.calls++
	f.mu.Unlock()
	return f.collect(ctx, q, limit)
}

func (f *fakeSource) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func returning(c Collection) func(context.Context, string, int) (Collection, error) {
	return func(context.Context, string, int) (Collection, error) { return c, nil }
}

func failing(err error) func(context.Context, string, int) (Collection, error) {
	return func(context.Context, string, int) (Collection, error) { return Collection{}, err }
}

// github: 100000*0.5/1000 = 50
var githubCollection = Collection{
	Repositories: []trend.Repository{{ID: 1, FullName: "acme/chat", Language: "Go", Stars: 100000}},
	Stats: trend.PlatformStats{
		Platform:   trend.PlatformGitHub,
		TotalItems: 1,
		Engagement: map[string]float64{enrich.KeyAvgStars: 100000},
	},
}

// twitter: (40*0.5 + 20*0.3 + 10*0.2)/10 = 2.8
var twitterCollection = Collection{
	MicroPosts: []trend.MicroPost{{ID: "t1", Text: "chat", Likes: 40, Retweets: 20, Replies: 10}},
	Stats: trend.PlatformStats{
		Platform:   trend.PlatformTwitter,
		TotalItems: 1,
		Engagement: map[string]float64{enrich.KeyAvgLikes: 40, enrich.KeyAvgRetweets: 20, enrich.KeyAvgReplies: 10},
	},
}

// reddit: (100*0.6 + 50*0.4)/10 = 8
var redditCollection = Collection{
	ForumPosts: []trend.ForumPost{{ID: "r1", Title: "chat", Score: 100, Comments: 50}},
	Stats: trend.PlatformStats{
		Platform:   trend.PlatformReddit,
		TotalItems: 1,
		Engagement: map[string]float64{enrich.KeyAvgScore: 100, enrich.KeyAvgComments: 50},
	},
}

type fakeExpander struct {
	out  string
	err  error
	seen []string
}

func (f *fakeExpander) Expand(_ context.Context, text string) (string, error) {
	f.seen = append(f.seen, text)
	return f.out, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []trend.AnalysisEvent
	err    error
}

func (f *fakePublisher) PublishAnalysis(_ context.Context, e trend.AnalysisEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func newTestAggregator(expander trend.Expander, publisher trend.EventPublisher, sources ...Source) *Aggregator {
	agg := NewAggregator(nil, expander, publisher, AggregatorConfig{
		FetchTimeout:         time.Second,
		ExpansionTimeout:     time.Second,
		MaxConcurrentSources: 3,
	}, zerolog.Nop())
	agg.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	for _, s := range sources {
		agg.Register(s)
	}
	return agg
}

func allPlatforms(q string) trend.AnalysisRequest {
	return trend.AnalysisRequest{Query: q, Platforms: trend.Platforms, Limit: 10}
}

func TestAnalyzeAllSourcesSucceed(t *testing.T) {
	agg := newTestAggregator(nil, nil,
		&fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)},
		&fakeSource{platform: trend.PlatformTwitter, collect: returning(twitterCollection)},
		&fakeSource{platform: trend.PlatformReddit, collect: returning(redditCollection)},
	)

	result, err := agg.Analyze(context.Background(), allPlatforms("realtime chat"))
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "realtime chat", result.Query)
	assert.Len(t, result.Stats, 3)
	assert.Empty(t, result.SourceErrors)
	assert.Len(t, result.Repositories, 1)
	assert.Len(t, result.MicroPosts, 1)
	assert.Len(t, result.ForumPosts, 1)

	assert.InDelta(t, 50.0, result.Stats[trend.PlatformGitHub].Score, 1e-9)
	assert.InDelta(t, 2.8, result.Stats[trend.PlatformTwitter].Score, 1e-9)
	assert.InDelta(t, 8.0, result.Stats[trend.PlatformReddit].Score, 1e-9)

	// weights sum to 1 so no renormalization
	assert.InDelta(t, 0.4*50+0.35*2.8+0.25*8, result.OverallScore, 1e-9)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), result.AnalyzedAt)
}

func TestAnalyzeIsolatesFailingSource(t *testing.T) {
	agg := newTestAggregator(nil, nil,
		&fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)},
		&fakeSource{platform: trend.PlatformTwitter, collect: failing(errors.New("rate limited"))},
		&fakeSource{platform: trend.PlatformReddit, collect: returning(redditCollection)},
	)

	result, err := agg.Analyze(context.Background(), allPlatforms("realtime chat"))
	require.NoError(t, err)

	assert.Contains(t, result.Stats, trend.PlatformGitHub)
	assert.Contains(t, result.Stats, trend.PlatformReddit)
	assert.NotContains(t, result.Stats, trend.PlatformTwitter)
	assert.Empty(t, result.MicroPosts)
	assert.Equal(t, "rate limited", result.SourceErrors[trend.PlatformTwitter])

	want := (0.4*50 + 0.25*8) / (0.4 + 0.25)
	assert.InDelta(t, want, result.OverallScore, 1e-9)
	assert.Equal(t, []trend.Platform{trend.PlatformGitHub, trend.PlatformReddit}, result.Succeeded())
	assert.Equal(t, []trend.Platform{trend.PlatformTwitter}, result.Failed())
}

func TestAnalyzeTotalFailure(t *testing.T) {
	agg := newTestAggregator(nil, nil,
		&fakeSource{platform: trend.PlatformGitHub, collect: failing(errors.New("unauthorized"))},
		&fakeSource{platform: trend.PlatformTwitter, collect: failing(errors.New("rate limited"))},
		&fakeSource{platform: trend.PlatformReddit, collect: failing(errors.New("unavailable"))},
	)

	result, err := agg.Analyze(context.Background(), allPlatforms("realtime chat"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.Contains(t, err.Error(), "github: unauthorized")
	assert.False(t, IsValidation(err))

	require.NotNil(t, result)
	assert.Equal(t, 0.0, result.OverallScore)
	assert.Empty(t, result.Stats)
	assert.Len(t, result.SourceErrors, 3)
}

func TestAnalyzeTimeoutOnlyFailsSlowSource(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := &fakeSource{platform: trend.PlatformTwitter, collect: func(context.Context, string, int) (Collection, error) {
		<-release
		return twitterCollection, nil
	}}

	agg := newTestAggregator(nil, nil,
		&fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)},
		slow,
	)
	agg.config.FetchTimeout = 50 * time.Millisecond

	start := time.Now()
	result, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     "chat",
		Platforms: []trend.Platform{trend.PlatformGitHub, trend.PlatformTwitter},
		Limit:     5,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Contains(t, result.Stats, trend.PlatformGitHub)
	assert.Contains(t, result.SourceErrors[trend.PlatformTwitter], "deadline exceeded")
	assert.InDelta(t, 50.0, result.OverallScore, 1e-9)
}

func TestAnalyzeRecoversPanickingSource(t *testing.T) {
	agg := newTestAggregator(nil, nil,
		&fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)},
		&fakeSource{platform: trend.PlatformReddit, collect: func(context.Context, string, int) (Collection, error) {
			panic("boom")
		}},
	)

	result, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     "chat",
		Platforms: []trend.Platform{trend.PlatformGitHub, trend.PlatformReddit},
		Limit:     5,
	})
	require.NoError(t, err)
	assert.Contains(t, result.SourceErrors[trend.PlatformReddit], "panicked")
	assert.Contains(t, result.Stats, trend.PlatformGitHub)
}

func TestAnalyzeValidation(t *testing.T) {
	src := &fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)}
	agg := newTestAggregator(nil, nil, src)

	tests := []struct {
		name string
		req  trend.AnalysisRequest
		want error
	}{
		{"empty query", trend.AnalysisRequest{Query: "", Platforms: trend.Platforms, Limit: 10}, ErrEmptyQuery},
		{"whitespace query", trend.AnalysisRequest{Query: "  \t ", Platforms: trend.Platforms, Limit: 10}, ErrEmptyQuery},
		{"no platforms", trend.AnalysisRequest{Query: "chat", Limit: 10}, ErrNoSources},
		{"zero limit", trend.AnalysisRequest{Query: "chat", Platforms: trend.Platforms, Limit: 0}, ErrInvalidLimit},
		{"limit too high", trend.AnalysisRequest{Query: "chat", Platforms: trend.Platforms, Limit: 101}, ErrInvalidLimit},
		{"unknown platform", trend.AnalysisRequest{Query: "chat", Platforms: []trend.Platform{"myspace"}, Limit: 10}, ErrUnknownSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := agg.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
	assert.Equal(t, 0, src.calls)
}

func TestAnalyzeDeduplicatesPlatforms(t *testing.T) {
	src := &fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)}
	agg := newTestAggregator(nil, nil, src)

	result, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     "chat",
		Platforms: []trend.Platform{"github", "GitHub", " github "},
		Limit:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, []trend.Platform{trend.PlatformGitHub}, result.Platforms)
	assert.Equal(t, 1, src.calls)
}

func TestAnalyzeUnconfiguredSource(t *testing.T) {
	agg := newTestAggregator(nil, nil,
		&fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)},
	)

	result, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     "chat",
		Platforms: []trend.Platform{trend.PlatformGitHub, trend.PlatformReddit},
		Limit:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, ErrSourceNotConfigured.Error(), result.SourceErrors[trend.PlatformReddit])
	assert.NotContains(t, result.Queries, trend.PlatformReddit)
	assert.InDelta(t, 50.0, result.OverallScore, 1e-9)
}

func TestAnalyzeRendersPerSourceQueries(t *testing.T) {
	gh := &fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)}
	rd := &fakeSource{platform: trend.PlatformReddit, collect: returning(redditCollection)}
	agg := newTestAggregator(nil, nil, gh, rd)

	result, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     "python projects with at least 50 forks created since 2023",
		Platforms: []trend.Platform{trend.PlatformGitHub, trend.PlatformReddit},
		Limit:     5,
	})
	require.NoError(t, err)

	assert.Equal(t, "language:python forks:>=50 created:>=2023-01-01", gh.lastQuery())
	assert.Equal(t, "python", rd.lastQuery())
	assert.Equal(t, gh.lastQuery(), result.Queries[trend.PlatformGitHub])
	assert.Equal(t, "language:python forks:>=50 created:>=2023-01-01", result.Interpretation.RenderedQuery)
}

func TestAnalyzeFallsBackToRawTextForEmptyQuery(t *testing.T) {
	rd := &fakeSource{platform: trend.PlatformReddit, collect: returning(redditCollection)}
	agg := newTestAggregator(nil, nil, rd)

	_, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     "repos with more than 100 stars",
		Platforms: []trend.Platform{trend.PlatformReddit},
		Limit:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, "repos with more than 100 stars", rd.lastQuery())
}

func TestAnalyzeAppliesExpansion(t *testing.T) {
	gh := &fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)}
	exp := &fakeExpander{out: " chat websocket messaging "}
	agg := newTestAggregator(exp, nil, gh)

	text := "realtime chat in go"
	result, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     text,
		Platforms: []trend.Platform{trend.PlatformGitHub},
		Limit:     5,
	})
	require.NoError(t, err)

	parsed := interpreter.Parse(text)
	require.Len(t, exp.seen, 1)
	assert.Equal(t, parsed.BaseText, exp.seen[0])
	assert.Equal(t, "chat websocket messaging", result.ExpandedText)
	assert.Equal(t, interpreter.Render(parsed.WithBaseText("chat websocket messaging")), gh.lastQuery())
	assert.Equal(t, "chat websocket messaging", result.Interpretation.BaseText)
}

func TestAnalyzeExpansionFailureFallsBack(t *testing.T) {
	gh := &fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)}
	exp := &fakeExpander{err: errors.New("quota exhausted")}
	agg := newTestAggregator(exp, nil, gh)

	text := "realtime chat in go"
	result, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     text,
		Platforms: []trend.Platform{trend.PlatformGitHub},
		Limit:     5,
	})
	require.NoError(t, err)
	assert.Empty(t, result.ExpandedText)
	assert.Equal(t, interpreter.Render(interpreter.Parse(text)), gh.lastQuery())
}

func TestAnalyzeSkipsExpansionWithoutFreeText(t *testing.T) {
	exp := &fakeExpander{out: "unused"}
	agg := newTestAggregator(exp, nil,
		&fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)},
	)

	_, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     "python projects with at least 50 forks",
		Platforms: []trend.Platform{trend.PlatformGitHub},
		Limit:     5,
	})
	require.NoError(t, err)
	assert.Empty(t, exp.seen)
}

func TestAnalyzePublishesEvent(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats down")}
	agg := newTestAggregator(nil, pub,
		&fakeSource{platform: trend.PlatformGitHub, collect: returning(githubCollection)},
		&fakeSource{platform: trend.PlatformTwitter, collect: failing(errors.New("rate limited"))},
	)

	result, err := agg.Analyze(context.Background(), trend.AnalysisRequest{
		Query:     "chat",
		Platforms: []trend.Platform{trend.PlatformGitHub, trend.PlatformTwitter},
		Limit:     5,
	})
	require.NoError(t, err, "publish failures are logged, not returned")

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.Equal(t, result.ID, e.ID)
	assert.Equal(t, "chat", e.Query)
	assert.Equal(t, result.OverallScore, e.OverallScore)
	assert.Equal(t, []trend.Platform{trend.PlatformGitHub}, e.Platforms)
	assert.Equal(t, []trend.Platform{trend.PlatformTwitter}, e.FailedPlatforms)
}

func TestAggregatorPlatforms(t *testing.T) {
	agg := newTestAggregator(nil, nil,
		&fakeSource{platform: trend.PlatformReddit},
		&fakeSource{platform: trend.PlatformGitHub},
	)
	assert.Equal(t, []trend.Platform{trend.PlatformGitHub, trend.PlatformReddit}, agg.Platforms())
}
