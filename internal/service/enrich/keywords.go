// internal/service/enrich/keywords.go

package enrich

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"mirror/internal/domain/trend"
)

const (
	maxKeywords   = 15
	minKeywordLen = 4
)

// tokens are runs of Unicode letters, digits and underscores
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by is are was were
		be been have has had do does did will would could should may might can this that these
		those i you he she it we they me him her us them my your his its our their`) {
		stopWords[w] = struct{}{}
	}
}

// TrendingKeywords counts meaningful words across texts. Percentage is the
// count relative to itemCount, so a word repeated within one item can exceed 100.
func TrendingKeywords(texts []string, itemCount int) []trend.KeywordStat {
	if itemCount <= 0 {
		return []trend.KeywordStat{}
	}

	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
			if !isKeyword(tok) {
				continue
			}
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}

	out := make([]trend.KeywordStat, len(order))
	for i, w := range order {
		out[i] = trend.KeywordStat{
			Keyword:    w,
			Count:      counts[w],
			Percentage: round2(float64(counts[w]) / float64(itemCount) * 100),
		}
	}
	return out
}

func isKeyword(tok string) bool {
	if utf8.RuneCountInString(tok) < minKeywordLen {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	_, stop := stopWords[tok]
	return !stop
}

// topCounts ranks names by frequency, first-seen order breaking ties
func topCounts(names []string, n int) []trend.TopicCount {
	counts := make(map[string]int)
	var order []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}

	out := make([]trend.TopicCount, len(order))
	for i, name := range order {
		out[i] = trend.TopicCount{Name: name, Count: counts[name]}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func average(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}
