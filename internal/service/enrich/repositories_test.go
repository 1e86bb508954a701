package enrich

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/domain/trend"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func TestRepositoriesDerivedMetrics(t *testing.T) {
	repos := []trend.Repository{{
		FullName:     "acme/chat",
		Stars:        100,
		Forks:        50,
		OpenIssues:   30,
		Contributors: intPtr(4),
		CreatedAt:    now.Add(-10 * 24 * time.Hour),
		UpdatedAt:    now.Add(-2 * 24 * time.Hour),
	}}

	out := Repositories(repos, now, zerolog.Nop())
	require.Len(t, out, 1)
	r := out[0]

	require.NotNil(t, r.Velocity)
	assert.InDelta(t, 10.0, *r.Velocity, 1e-9)

	// 100*0.6 + 50*0.3 + (1/2)*100 - (30/150)*50
	require.NotNil(t, r.Health)
	assert.InDelta(t, 115.0, *r.Health, 1e-9)

	require.NotNil(t, r.PopularityPerContributor)
	assert.InDelta(t, 25.0, *r.PopularityPerContributor, 1e-9)

	assert.Nil(t, repos[0].Velocity, "input must not be modified")
}

func TestRepositoriesClampsFreshItems(t *testing.T) {
	out := Repositories([]trend.Repository{{
		Stars:     7,
		CreatedAt: now,
		UpdatedAt: now,
	}}, now, zerolog.Nop())

	require.NotNil(t, out[0].Velocity)
	assert.InDelta(t, 7.0, *out[0].Velocity, 1e-9)
	// 7*0.6 + 0 + 100 - 0
	require.NotNil(t, out[0].Health)
	assert.InDelta(t, 104.2, *out[0].Health, 1e-9)
	assert.Nil(t, out[0].PopularityPerContributor)
}

func TestRepositoriesMissingFieldsDoNotAbort(t *testing.T) {
	repos := []trend.Repository{
		{FullName: "a/no-dates", Stars: 10, Contributors: intPtr(0)},
		{FullName: "b/ok", Stars: 20, CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now},
	}

	out := Repositories(repos, now, zerolog.Nop())
	require.Len(t, out, 2)

	assert.Nil(t, out[0].Velocity)
	assert.Nil(t, out[0].Health)
	assert.Nil(t, out[0].PopularityPerContributor)

	require.NotNil(t, out[1].Velocity)
	assert.InDelta(t, 10.0, *out[1].Velocity, 1e-9)
}

func TestTopLanguages(t *testing.T) {
	repos := []trend.Repository{
		{Language: "Go", Stars: 100, Forks: 10},
		{Language: "Rust", Stars: 500, Forks: 40},
		{Language: "Go", Stars: 50, Forks: 5},
		{Language: "Python", Stars: 10},
		{Language: "", Stars: 1000},
		{Language: "Zig", Stars: 20},
	}

	got := TopLanguages(repos)
	require.Len(t, got, 4)
	assert.Equal(t, trend.LanguageStat{Language: "Go", Count: 2, TotalStars: 150, TotalForks: 15, AverageStars: 75}, got[0])
	assert.Equal(t, "Rust", got[1].Language)
	assert.Equal(t, "Zig", got[2].Language)
	assert.Equal(t, "Python", got[3].Language)
}

func TestTopLanguagesLimit(t *testing.T) {
	var repos []trend.Repository
	for i := 0; i < 15; i++ {
		repos = append(repos, trend.Repository{Language: fmt.Sprintf("lang%d", i), Stars: i})
	}
	got := TopLanguages(repos)
	assert.Len(t, got, 10)
	assert.Equal(t, "lang14", got[0].Language)
}

func TestTopContributors(t *testing.T) {
	repos := []trend.Repository{
		{FullName: "a/one", Stars: 10, Forks: 10},
		{FullName: "b/two", Stars: 100, Forks: 0},
		{FullName: "a/one", Stars: 999, Forks: 999},
		{FullName: "c/three", Stars: 1, Forks: 50},
	}

	got := TopContributors(repos)
	require.Len(t, got, 3)
	assert.Equal(t, "c/three", got[0].Identity)
	assert.Equal(t, 101, got[0].Score)
	assert.Equal(t, "b/two", got[1].Identity)
	assert.Equal(t, 30, got[2].Score)
}

func TestTopContributorsPrefersKnownCounts(t *testing.T) {
	repos := []trend.Repository{
		{FullName: "a/big", Stars: 5000, Forks: 500},
		{FullName: "b/counted", Stars: 10, Forks: 1, Contributors: intPtr(3)},
		{FullName: "c/empty", Stars: 900, Forks: 90, Contributors: intPtr(0)},
		{FullName: "d/counted", Stars: 20, Forks: 0, Contributors: intPtr(7)},
	}

	got := TopContributors(repos)
	require.Len(t, got, 2)
	assert.Equal(t, "d/counted", got[0].Identity)
	assert.Equal(t, "b/counted", got[1].Identity)
}

func TestRepositoryStats(t *testing.T) {
	repos := Repositories([]trend.Repository{
		{ID: 1, FullName: "a/chat", Name: "chat", Description: "Realtime chat server", Language: "Go",
			Stars: 300, Forks: 30, Contributors: intPtr(10), CreatedAt: now.Add(-30 * 24 * time.Hour), UpdatedAt: now},
		{ID: 2, FullName: "b/relay", Name: "relay", Description: "Chat relay", Language: "Go",
			Stars: 100, Forks: 10, CreatedAt: now.Add(-10 * 24 * time.Hour), UpdatedAt: now},
	}, now, zerolog.Nop())

	stats := RepositoryStats(repos)
	assert.Equal(t, trend.PlatformGitHub, stats.Platform)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, []trend.TopicCount{{Name: "Go", Count: 2}}, stats.TopTopics)
	assert.Equal(t, 200.0, stats.Engagement[KeyAvgStars])
	assert.Equal(t, 20.0, stats.Engagement[KeyAvgForks])
	assert.Equal(t, 5.0, stats.Engagement[KeyAvgContributors])
	assert.Equal(t, 400.0, stats.Engagement[KeyTotalStars])
	assert.Contains(t, stats.Engagement, KeyAvgVelocity)
	require.NotEmpty(t, stats.TopItems)
	assert.Equal(t, "a/chat", stats.TopItems[0].Title)
	require.NotEmpty(t, stats.TrendingKeywords)
	assert.Equal(t, "chat", stats.TrendingKeywords[0].Keyword)
}
