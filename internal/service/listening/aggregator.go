// internal/service/listening/aggregator.go

package listening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"mirror/internal/domain/query"
	"mirror/internal/domain/trend"
	"mirror/internal/metrics"
	"mirror/internal/service/interpreter"
)

// MaxResultsPerPlatform bounds the per-source result cap
const MaxResultsPerPlatform = 100

// AggregatorConfig contains configuration for the aggregator
type AggregatorConfig struct {
	FetchTimeout         time.Duration
	ExpansionTimeout     time.Duration
	MaxConcurrentSources int
}

// Aggregator fans a query out to every requested source and combines the results
type Aggregator struct {
	sources   map[trend.Platform]Source
	mu        sync.RWMutex
	analyzer  *Analyzer
	expander  trend.Expander
	publisher trend.EventPublisher
	config    AggregatorConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAggregator creates an aggregator. expander and publisher may be nil.
func NewAggregator(
	analyzer *Analyzer,
	expander trend.Expander,
	publisher trend.EventPublisher,
	config AggregatorConfig,
	logger zerolog.Logger,
) *Aggregator {
	if analyzer == nil {
		analyzer = NewAnalyzer(nil)
	}
	return &Aggregator{
		sources:   make(map[trend.Platform]Source),
		analyzer:  analyzer,
		expander:  expander,
		publisher: publisher,
		config:    config,
		logger:    logger.With().Str("component", "aggregator").Logger(),
		now:       time.Now,
	}
}

// Register adds or replaces the source for its platform
func (a *Aggregator) Register(src Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sources[src.Platform()] = src
}

// Platforms lists the configured platforms in canonical order
func (a *Aggregator) Platforms() []trend.Platform {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []trend.Platform
	for _, p := range trend.Platforms {
		if _, ok := a.sources[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (a *Aggregator) source(p trend.Platform) (Source, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	src, ok := a.sources[p]
	return src, ok
}

// Interpret parses text into a filter, applying free-text expansion when available
func (a *Aggregator) Interpret(ctx context.Context, text string) (query.Filter, string) {
	filter := interpreter.Parse(text)
	expanded := a.expand(ctx, filter.BaseText)
	if expanded != "" {
		filter = filter.WithBaseText(expanded)
	}
	return filter, expanded
}

// RenderQueries renders f for every configured source
func (a *Aggregator) RenderQueries(f query.Filter) map[trend.Platform]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[trend.Platform]string, len(a.sources))
	for p, src := range a.sources {
		out[p] = src.Query(f)
	}
	return out
}

// Analyze runs one cross-source analysis.
// When every source fails the result is still returned, with an error wrapping ErrAllSourcesFailed.
func (a *Aggregator) Analyze(ctx context.Context, req trend.AnalysisRequest) (*trend.TrendingResult, error) {
	start := time.Now()

	platforms, err := validate(req)
	if err != nil {
		metrics.ObserveAnalysis(start, "invalid", 0)
		return nil, err
	}
	text := strings.TrimSpace(req.Query)

	filter, expanded := a.Interpret(ctx, text)

	result := &trend.TrendingResult{
		ID:             uuid.NewString(),
		Query:          text,
		ExpandedText:   expanded,
		Interpretation: interpreter.Explain(filter),
		Queries:        make(map[trend.Platform]string, len(platforms)),
		Platforms:      platforms,
		Stats:          make(map[trend.Platform]trend.PlatformStats, len(platforms)),
	}

	outcomes := make(map[trend.Platform]*outcome, len(platforms))
	var jobs []job
	for _, p := range platforms {
		out := &outcome{}
		outcomes[p] = out

		src, ok := a.source(p)
		if !ok {
			out.err = ErrSourceNotConfigured
			continue
		}
		q := src.Query(filter)
		if q == "" {
			q = text
		}
		result.Queries[p] = q
		jobs = append(jobs, job{src: src, query: q, out: out})
	}

	a.fetchAll(ctx, jobs, req.Limit)

	scores := make(map[trend.Platform]float64, len(platforms))
	for _, p := range platforms {
		out := outcomes[p]
		if out.err != nil {
			if result.SourceErrors == nil {
				result.SourceErrors = make(map[trend.Platform]string)
			}
			result.SourceErrors[p] = out.err.Error()
			a.logger.Warn().Err(out.err).Str("platform", string(p)).Str("query", text).Msg("Source failed")
			continue
		}

		stats := out.collection.Stats
		stats.Platform = p
		stats.Score = a.analyzer.SourceScore(stats)
		scores[p] = stats.Score
		result.Stats[p] = stats

		result.Repositories = append(result.Repositories, out.collection.Repositories...)
		result.MicroPosts = append(result.MicroPosts, out.collection.MicroPosts...)
		result.ForumPosts = append(result.ForumPosts, out.collection.ForumPosts...)
	}

	result.OverallScore = a.analyzer.OverallScore(scores)
	result.AnalyzedAt = a.now().UTC()

	outcomeLabel := "success"
	switch {
	case len(scores) == 0:
		outcomeLabel = "failed"
	case len(result.SourceErrors) > 0:
		outcomeLabel = "partial"
	}
	metrics.ObserveAnalysis(start, outcomeLabel, result.OverallScore)

	a.logger.Info().
		Str("id", result.ID).
		Str("query", text).
		Str("outcome", outcomeLabel).
		Float64("overall_score", result.OverallScore).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis completed")

	a.publish(ctx, result)

	if len(scores) == 0 {
		return result, fmt.Errorf("%w: %s", ErrAllSourcesFailed, joinSourceErrors(result))
	}
	return result, nil
}

func validate(req trend.AnalysisRequest) ([]trend.Platform, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, &ValidationError{Field: "query", Err: ErrEmptyQuery}
	}
	if len(req.Platforms) == 0 {
		return nil, &ValidationError{Field: "platforms", Err: ErrNoSources}
	}
	if req.Limit < 1 || req.Limit > MaxResultsPerPlatform {
		return nil, &ValidationError{Field: "max_results_per_platform", Err: ErrInvalidLimit}
	}

	seen := make(map[trend.Platform]bool, len(req.Platforms))
	platforms := make([]trend.Platform, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		p = trend.Platform(strings.ToLower(strings.TrimSpace(string(p))))
		if !p.Valid() {
			return nil, &ValidationError{Field: "platforms", Err: fmt.Errorf("%w: %q", ErrUnknownSource, p)}
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		platforms = append(platforms, p)
	}
	return platforms, nil
}

func (a *Aggregator) expand(ctx context.Context, text string) string {
	if a.expander == nil || text == "" {
		return ""
	}

	if a.config.ExpansionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.ExpansionTimeout)
		defer cancel()
	}

	expanded, err := a.expander.Expand(ctx, text)
	if err != nil {
		metrics.IncExpansion("failed")
		a.logger.Warn().Err(err).Str("text", text).Msg("Query expansion failed, using original text")
		return ""
	}
	expanded = strings.TrimSpace(expanded)
	if expanded == "" {
		metrics.IncExpansion("empty")
		return ""
	}
	metrics.IncExpansion("applied")
	a.logger.Debug().Str("text", text).Str("expanded", expanded).Msg("Query expanded")
	return expanded
}

type job struct {
	src   Source
	query string
	out   *outcome
}

// outcome is owned by exactly one fetch goroutine until fetchAll returns
type outcome struct {
	collection Collection
	err        error
}

func (a *Aggregator) fetchAll(ctx context.Context, jobs []job, limit int) {
	var g errgroup.Group
	if a.config.MaxConcurrentSources > 0 {
		g.SetLimit(a.config.MaxConcurrentSources)
	}

	for _, j := range jobs {
		g.Go(func() error {
			j.out.collection, j.out.err = a.fetch(ctx, j.src, j.query, limit)
			return nil
		})
	}
	_ = g.Wait()
}

// fetch runs one Collect call bounded by FetchTimeout
func (a *Aggregator) fetch(ctx context.Context, src Source, q string, limit int) (Collection, error) {
	start := time.Now()
	platform := src.Platform()

	if a.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.FetchTimeout)
		defer cancel()
	}

	type reply struct {
		collection Collection
		err        error
	}
	done := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("%s source panicked: %v", platform, r)}
			}
		}()
		c, err := src.Collect(ctx, q, limit)
		done <- reply{collection: c, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = fmt.Errorf("%s fetch aborted: %w", platform, ctx.Err())
	}

	metrics.ObserveSourceFetch(string(platform), start, r.err)
	if r.err == nil {
		a.logger.Debug().
			Str("platform", string(platform)).
			Str("query", q).
			Int("items", r.collection.Stats.TotalItems).
			Dur("elapsed", time.Since(start)).
			Msg("Source fetched")
	}
	return r.collection, r.err
}

func (a *Aggregator) publish(ctx context.Context, result *trend.TrendingResult) {
	if a.publisher == nil {
		return
	}

	event := trend.AnalysisEvent{
		ID:              result.ID,
		Query:           result.Query,
		OverallScore:    result.OverallScore,
		Platforms:       result.Succeeded(),
		FailedPlatforms: result.Failed(),
		AnalyzedAt:      result.AnalyzedAt,
	}
	if err := a.publisher.PublishAnalysis(ctx, event); err != nil {
		a.logger.Error().Err(err).Str("id", result.ID).Msg("Failed to publish analysis event")
	}
}

func joinSourceErrors(result *trend.TrendingResult) string {
	parts := make([]string, 0, len(result.SourceErrors))
	for _, p := range result.Failed() {
		parts = append(parts, fmt.Sprintf("%s: %s", p, result.SourceErrors[p]))
	}
	return strings.Join(parts, "; ")
}

// IsValidation reports whether err was caused by a rejected request
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
