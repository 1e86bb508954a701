package interpreter

import (
	"fmt"
	"strings"
)

const maxSuggestions = 5

var topicSuggestions = []struct {
	match       func(lower, raw string) bool
	suggestions []string
}{
	{
		match: func(lower, _ string) bool {
			return strings.Contains(lower, "mcp") || strings.Contains(lower, "model context protocol")
		},
		suggestions: []string{
			"mcp server implementation",
			"model context protocol tools",
			"mcp client libraries",
			"mcp integration examples",
		},
	},
	{
		match: func(lower, _ string) bool { return strings.Contains(lower, "notion") },
		suggestions: []string{
			"notion api integration",
			"notion database sync",
			"notion automation tools",
			"notion webhook handlers",
		},
	},
	{
		match: func(lower, raw string) bool {
			return strings.Contains(raw, "100") && strings.Contains(lower, "stars")
		},
		suggestions: []string{
			"highly starred repositories",
			"popular open source projects",
			"trending repositories",
			"well-maintained projects",
		},
	},
}

// Suggest proposes related searches for a request, topic-specific ones first.
// At most five unique suggestions are returned.
func Suggest(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var candidates []string
	for _, ts := range topicSuggestions {
		if ts.match(lower, text) {
			candidates = append(candidates, ts.suggestions...)
		}
	}
	candidates = append(candidates,
		fmt.Sprintf("repositories about %s", text),
		fmt.Sprintf("tools for %s", text),
		fmt.Sprintf("libraries related to %s", text),
		fmt.Sprintf("frameworks for %s", text),
	)

	out := make([]string, 0, maxSuggestions)
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
