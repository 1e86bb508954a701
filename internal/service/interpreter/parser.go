// internal/service/interpreter/parser.go

package interpreter

import (
	"regexp"
	"strconv"
	"strings"

	"mirror/internal/domain/query"
)

// Parse turns a natural-language request into a structured filter.
// It never fails: text that matches nothing becomes the base text.
func Parse(text string) query.Filter {
	q := strings.ToLower(strings.TrimSpace(text))

	f := query.Filter{
		MinStars:        firstInt(starPatterns, q),
		MinForks:        firstInt(forkPatterns, q),
		MinContributors: firstInt(contributorPatterns, q),
		Language:        parseLanguage(q),
		CreatedAfter:    parseDate(q),
		Topics:          parseTopics(q),
		SearchScope:     parseScope(q),
	}

	// "created" phrasing is rewritten so the updated-date forms apply to it
	// too; only attempted when the request talks about updates at all.
	if strings.Contains(q, "updated") {
		f.UpdatedAfter = parseDate(strings.ReplaceAll(q, "created", "updated"))
	}

	for _, rule := range flagRules {
		if !rule.pattern.MatchString(q) {
			continue
		}
		v := query.FlagOf(rule.value)
		switch rule.field {
		case fieldIssues:
			f.HasIssues = v
		case fieldWiki:
			f.HasWiki = v
		case fieldArchived:
			f.IsArchived = v
		case fieldFork:
			f.IsFork = v
		}
	}

	f.BaseText = baseText(q)
	return f
}

// firstInt returns the first capture of the first matching pattern that parses
func firstInt(patterns []*regexp.Regexp, q string) *int {
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(q, -1) {
			n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
			if err != nil {
				continue
			}
			return &n
		}
	}
	return nil
}

func parseLanguage(q string) string {
	for _, p := range languagePatterns {
		for _, m := range p.FindAllStringSubmatch(q, -1) {
			if _, skip := notLanguage[m[1]]; skip {
				continue
			}
			return NormalizeLanguage(m[1])
		}
	}
	return ""
}

// NormalizeLanguage maps a language alias to its canonical name.
// Unknown names pass through unchanged.
func NormalizeLanguage(name string) string {
	name = strings.ToLower(name)
	if canonical, ok := languageAliases[name]; ok {
		return canonical
	}
	return name
}

func parseDate(q string) string {
	for _, p := range datePatterns {
		if m := p.FindStringSubmatch(q); m != nil {
			return toDate(m[1])
		}
	}
	return ""
}

// toDate converts "2023" or "jan 2023" into YYYY-MM-DD
func toDate(s string) string {
	if yearPrefix.MatchString(s) {
		return s[:4] + "-01-01"
	}

	parts := strings.Fields(s)
	if len(parts) != 2 {
		return ""
	}

	month := "01"
	if len(parts[0]) >= 3 {
		if mm, ok := months[parts[0][:3]]; ok {
			month = mm
		}
	}
	return parts[1] + "-" + month + "-01"
}

func parseTopics(q string) []string {
	var topics []string
	seen := make(map[string]struct{})

	for _, p := range topicPatterns {
		for _, m := range p.FindAllStringSubmatch(q, -1) {
			t := m[1]
			if !isTopic(t) {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			topics = append(topics, t)
		}
	}
	return topics
}

func isTopic(t string) bool {
	if digitsOnly.MatchString(t) {
		return false
	}
	_, skip := notTopic[t]
	return !skip
}

func parseScope(q string) []query.Scope {
	for _, rule := range scopeRules {
		if rule.pattern.MatchString(q) {
			return []query.Scope{rule.scope}
		}
	}
	return query.DefaultScope()
}

// baseText strips every recognized phrase from q and returns what is left
func baseText(q string) string {
	for _, group := range [][]*regexp.Regexp{starPatterns, forkPatterns, contributorPatterns, datePatterns} {
		for _, p := range group {
			q = p.ReplaceAllString(q, " ")
		}
	}

	for _, i := range flagRemovalOrder {
		q = flagRules[i].pattern.ReplaceAllString(q, " ")
	}

	for _, rule := range scopeRules {
		q = rule.pattern.ReplaceAllString(q, " ")
	}

	for _, p := range languagePatterns {
		q = removeAccepted(q, p, func(w string) bool {
			_, skip := notLanguage[w]
			return !skip
		})
	}

	for _, p := range topicRemovalPatterns {
		q = removeAccepted(q, p, isTopic)
	}

	words := strings.Fields(whitespace.ReplaceAllString(q, " "))
	for len(words) > 0 {
		if _, ok := fillers[words[0]]; !ok {
			break
		}
		words = words[1:]
	}
	for len(words) > 0 {
		if _, ok := fillers[words[len(words)-1]]; !ok {
			break
		}
		words = words[:len(words)-1]
	}

	return strings.Join(words, " ")
}

// removeAccepted blanks every match of p whose first capture passes accept
func removeAccepted(q string, p *regexp.Regexp, accept func(string) bool) string {
	matches := p.FindAllStringSubmatchIndex(q, -1)
	if len(matches) == 0 {
		return q
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if !accept(q[m[2]:m[3]]) {
			continue
		}
		b.WriteString(q[last:m[0]])
		b.WriteByte(' ')
		last = m[1]
	}
	b.WriteString(q[last:])
	return b.String()
}
