// internal/service/interpreter/render.go

package interpreter

import (
	"slices"
	"strconv"
	"strings"

	"mirror/internal/domain/query"
)

// Render builds a repository search query in qualifier syntax.
// Parsing the rendered string again does not give back the same filter.
func Render(f query.Filter) string {
	var parts []string
	add := func(s string) { parts = append(parts, s) }

	if f.BaseText != "" {
		add(f.BaseText)
	}
	if f.Language != "" {
		add("language:" + f.Language)
	}

	bounds := []struct {
		qualifier string
		min, max  *int
	}{
		{"stars", f.MinStars, f.MaxStars},
		{"forks", f.MinForks, f.MaxForks},
		{"contributors", f.MinContributors, f.MaxContributors},
	}
	for _, b := range bounds {
		if b.min != nil {
			add(b.qualifier + ":>=" + strconv.Itoa(*b.min))
		}
		if b.max != nil {
			add(b.qualifier + ":<=" + strconv.Itoa(*b.max))
		}
	}

	if f.CreatedAfter != "" {
		add("created:>=" + f.CreatedAfter)
	}
	if f.UpdatedAfter != "" {
		add("pushed:>=" + f.UpdatedAfter)
	}

	switch f.HasIssues {
	case query.FlagTrue:
		add("has:issues")
	case query.FlagFalse:
		add("no:issues")
	}
	switch f.HasWiki {
	case query.FlagTrue:
		add("has:wiki")
	case query.FlagFalse:
		add("no:wiki")
	}
	if f.IsArchived.IsSet() {
		add("archived:" + strconv.FormatBool(f.IsArchived == query.FlagTrue))
	}
	if f.IsFork.IsSet() {
		add("fork:" + strconv.FormatBool(f.IsFork == query.FlagTrue))
	}

	for _, t := range f.Topics {
		add("topic:" + t)
	}

	if scope := renderScope(f.SearchScope); scope != "" {
		add(scope)
	}

	return strings.Join(parts, " ")
}

// renderScope emits an in: qualifier only for a narrowed scope
func renderScope(scope []query.Scope) string {
	if len(scope) == 0 || sameScope(scope, query.DefaultScope()) {
		return ""
	}
	names := make([]string, len(scope))
	for i, s := range scope {
		names[i] = string(s)
	}
	return "in:" + strings.Join(names, ",")
}

func sameScope(a, b []query.Scope) bool {
	if len(a) != len(b) {
		return false
	}
	for _, s := range b {
		if !slices.Contains(a, s) {
			return false
		}
	}
	return true
}

// RenderKeywords builds a plain keyword query for full-text sources that
// do not understand qualifiers: base text, language, then topics.
func RenderKeywords(f query.Filter) string {
	var words []string
	seen := make(map[string]struct{})
	add := func(s string) {
		for _, w := range strings.Fields(s) {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}

	add(f.BaseText)
	add(f.Language)
	for _, t := range f.Topics {
		add(t)
	}
	return strings.Join(words, " ")
}

// Explain lists the constraints a filter carries along with its rendered query
func Explain(f query.Filter) query.Explanation {
	scope := f.SearchScope
	if len(scope) == 0 {
		scope = query.DefaultScope()
	}

	return query.Explanation{
		BaseText: f.BaseText,
		ParsedFilters: query.ExplainedFilters{
			MinStars:        f.MinStars,
			MaxStars:        f.MaxStars,
			MinForks:        f.MinForks,
			MaxForks:        f.MaxForks,
			MinContributors: f.MinContributors,
			MaxContributors: f.MaxContributors,
			Language:        f.Language,
			CreatedAfter:    f.CreatedAfter,
			UpdatedAfter:    f.UpdatedAfter,
			Topics:          slices.Clone(f.Topics),
			HasIssues:       f.HasIssues.Ptr(),
			HasWiki:         f.HasWiki.Ptr(),
			IsArchived:      f.IsArchived.Ptr(),
			IsFork:          f.IsFork.Ptr(),
		},
		RenderedQuery: Render(f),
		SearchScope:   slices.Clone(scope),
	}
}
