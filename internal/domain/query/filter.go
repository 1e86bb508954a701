// internal/domain/query/filter.go

package query

import "slices"

// Flag is a tri-state boolean constraint: unset, required true, required false.
type Flag int8

const (
	FlagUnset Flag = iota
	FlagTrue
	FlagFalse
)

// FlagOf converts a bool into a set flag
func FlagOf(v bool) Flag {
	if v {
		return FlagTrue
	}
	return FlagFalse
}

// IsSet reports whether the flag carries a constraint
func (f Flag) IsSet() bool {
	return f != FlagUnset
}

// Ptr returns the flag as a *bool, nil when unset
func (f Flag) Ptr() *bool {
	switch f {
	case FlagTrue:
		v := true
		return &v
	case FlagFalse:
		v := false
		return &v
	default:
		return nil
	}
}

// Scope names a searchable part of a repository
type Scope string

const (
	ScopeName        Scope = "name"
	ScopeDescription Scope = "description"
	ScopeReadme      Scope = "readme"
	ScopeTopics      Scope = "topics"
)

// DefaultScope is used when the request names no scope
func DefaultScope() []Scope {
	return []Scope{ScopeName, ScopeDescription, ScopeReadme, ScopeTopics}
}

// Filter is the structured form of a natural-language request.
// It is a value: copy it, never mutate one that has been handed out.
type Filter struct {
	BaseText string

	MinStars        *int
	MaxStars        *int
	MinForks        *int
	MaxForks        *int
	MinContributors *int
	MaxContributors *int

	Language string

	// CreatedAfter and UpdatedAfter are YYYY-MM-DD
	CreatedAfter string
	UpdatedAfter string

	Topics []string

	HasIssues  Flag
	HasWiki    Flag
	IsArchived Flag
	IsFork     Flag

	SearchScope []Scope
}

// WithBaseText returns a copy of the filter with its free text replaced
func (f Filter) WithBaseText(text string) Filter {
	out := f.clone()
	out.BaseText = text
	return out
}

func (f Filter) clone() Filter {
	out := f
	out.MinStars = cloneInt(f.MinStars)
	out.MaxStars = cloneInt(f.MaxStars)
	out.MinForks = cloneInt(f.MinForks)
	out.MaxForks = cloneInt(f.MaxForks)
	out.MinContributors = cloneInt(f.MinContributors)
	out.MaxContributors = cloneInt(f.MaxContributors)
	out.Topics = slices.Clone(f.Topics)
	out.SearchScope = slices.Clone(f.SearchScope)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Explanation is the user-facing view of a filter. Only populated fields are present.
type Explanation struct {
	BaseText      string           `json:"base_text"`
	ParsedFilters ExplainedFilters `json:"parsed_filters"`
	RenderedQuery string           `json:"rendered_query"`
	SearchScope   []Scope          `json:"search_scope"`
}

// ExplainedFilters lists the constraints a filter carries
type ExplainedFilters struct {
	MinStars        *int     `json:"min_stars,omitempty"`
	MaxStars        *int     `json:"max_stars,omitempty"`
	MinForks        *int     `json:"min_forks,omitempty"`
	MaxForks        *int     `json:"max_forks,omitempty"`
	MinContributors *int     `json:"min_contributors,omitempty"`
	MaxContributors *int     `json:"max_contributors,omitempty"`
	Language        string   `json:"language,omitempty"`
	CreatedAfter    string   `json:"created_after,omitempty"`
	UpdatedAfter    string   `json:"updated_after,omitempty"`
	Topics          []string `json:"topics,omitempty"`
	HasIssues       *bool    `json:"has_issues,omitempty"`
	HasWiki         *bool    `json:"has_wiki,omitempty"`
	IsArchived      *bool    `json:"is_archived,omitempty"`
	IsFork          *bool    `json:"is_fork,omitempty"`
}
