// internal/service/listening/sources.go

package listening

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mirror/internal/domain/query"
	"mirror/internal/domain/trend"
	"mirror/internal/service/enrich"
	"mirror/internal/service/interpreter"
)

// Source fetches and enriches one platform's items
type Source interface {
	// Platform returns the platform this source serves
	Platform() trend.Platform

	// Query renders the filter in the dialect the platform understands
	Query(f query.Filter) string

	// Collect searches the platform and returns enriched items with stats
	Collect(ctx context.Context, q string, limit int) (Collection, error)
}

// Collection is the enriched output of one source
type Collection struct {
	Repositories []trend.Repository
	MicroPosts   []trend.MicroPost
	ForumPosts   []trend.ForumPost
	Stats        trend.PlatformStats
}

type repositorySource struct {
	searcher trend.RepositorySearcher
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRepositorySource wraps a repository searcher; queries use qualifier syntax
func NewRepositorySource(searcher trend.RepositorySearcher, logger zerolog.Logger) Source {
	return &repositorySource{
		searcher: searcher,
		logger:   logger.With().Str("platform", string(trend.PlatformGitHub)).Logger(),
		now:      time.Now,
	}
}

func (s *repositorySource) Platform() trend.Platform { return trend.PlatformGitHub }

func (s *repositorySource) Query(f query.Filter) string { return interpreter.Render(f) }

func (s *repositorySource) Collect(ctx context.Context, q string, limit int) (Collection, error) {
	repos, err := s.searcher.Search(ctx, q, limit)
	if err != nil {
		return Collection{}, err
	}
	repos = enrich.Repositories(repos, s.now(), s.logger)
	return Collection{Repositories: repos, Stats: enrich.RepositoryStats(repos)}, nil
}

type microPostSource struct {
	searcher trend.MicroPostSearcher
}

// NewMicroPostSource wraps a micro-post searcher; queries are plain keywords
func NewMicroPostSource(searcher trend.MicroPostSearcher) Source {
	return &microPostSource{searcher: searcher}
}

func (s *microPostSource) Platform() trend.Platform { return trend.PlatformTwitter }

func (s *microPostSource) Query(f query.Filter) string { return interpreter.RenderKeywords(f) }

func (s *microPostSource) Collect(ctx context.Context, q string, limit int) (Collection, error) {
	posts, err := s.searcher.Search(ctx, q, limit)
	if err != nil {
		return Collection{}, err
	}
	return Collection{MicroPosts: posts, Stats: enrich.MicroPostStats(posts)}, nil
}

type forumSource struct {
	searcher trend.ForumSearcher
}

// NewForumSource wraps a forum searcher; queries are plain keywords
func NewForumSource(searcher trend.ForumSearcher) Source {
	return &forumSource{searcher: searcher}
}

func (s *forumSource) Platform() trend.Platform { return trend.PlatformReddit }

func (s *forumSource) Query(f query.Filter) string { return interpreter.RenderKeywords(f) }

func (s *forumSource) Collect(ctx context.Context, q string, limit int) (Collection, error) {
	posts, err := s.searcher.Search(ctx, q, limit)
	if err != nil {
		return Collection{}, err
	}
	return Collection{ForumPosts: posts, Stats: enrich.ForumStats(posts)}, nil
}
