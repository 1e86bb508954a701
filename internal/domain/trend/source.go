// internal/domain/trend/source.go

package trend

import (
	"context"
)

// Searcher fetches normalized items from one external source
type Searcher[T any] interface {
	// Search returns at most limit items matching query
	Search(ctx context.Context, query string, limit int) ([]T, error)
}

// RepositorySearcher searches code repositories
type RepositorySearcher = Searcher[Repository]

// MicroPostSearcher searches short social posts
type MicroPostSearcher = Searcher[MicroPost]

// ForumSearcher searches community forum posts
type ForumSearcher = Searcher[ForumPost]

// Expander rewrites free text into search keywords
type Expander interface {
	// Expand returns rewritten text, or an error when no rewrite is available
	Expand(ctx context.Context, text string) (string, error)
}

// EventPublisher announces completed analyses
type EventPublisher interface {
	// PublishAnalysis publishes an analysis-completed event
	PublishAnalysis(ctx context.Context, event AnalysisEvent) error
}
