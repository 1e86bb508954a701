// internal/service/interpreter/patterns.go

package interpreter

import (
	"regexp"

	"mirror/internal/domain/query"
)

// Pattern tables are ordered: for singular fields the first match wins.
// They are compiled once and never modified.

var (
	starPatterns        = numericPatterns(`stars?`)
	forkPatterns        = numericPatterns(`forks?`)
	contributorPatterns = numericPatterns(`contributors?`)
)

// countExpr accepts plain digits or comma-grouped thousands ("1,000")
const countExpr = `(\d{1,3}(?:,\d{3})+|\d+)`

// numericPatterns lists the lower-bound phrasings for a counted noun.
// The bare "N noun" form is last so longer phrasings are consumed whole.
func numericPatterns(noun string) []*regexp.Regexp {
	return compile(
		`\bmore than `+countExpr+`\s*`+noun+`\b`,
		`\bat least `+countExpr+`\s*`+noun+`\b`,
		`\bminimum (?:of )?`+countExpr+`\s*`+noun+`\b`,
		`\b`+countExpr+`\s*`+noun+` or more\b`,
		`\b`+countExpr+`\s*\+?\s*`+noun+`\b`,
	)
}

const word = `([a-z][a-z0-9#+_-]*)`

var languagePatterns = compile(
	`\bin `+word,
	`\b`+word+` (?:projects?|repos?|repositories|repository)\b`,
	`\b`+word+` librar(?:y|ies)\b`,
	`\b`+word+` code\b`,
	`\b`+word+` language\b`,
)

var datePatterns = compile(
	`\bcreated (?:in|after|since) (\d{4})\b`,
	`\bcreated (?:in|after|since) (\w+ \d{4})\b`,
	`\bupdated (?:in|after|since) (\d{4})\b`,
	`\bupdated (?:in|after|since) (\w+ \d{4})\b`,
	`\bfrom (\d{4})\b`,
	`\bsince (\d{4})\b`,
)

const topicWord = `(\w+(?:-\w+)*)`

var (
	topicPrefixPatterns = compile(
		`\bwith `+topicWord,
		`\busing `+topicWord,
	)
	topicSuffixPatterns = compile(
		`\b`+topicWord+` integration\b`,
		`\b`+topicWord+` support\b`,
		`\b`+topicWord+` plugin\b`,
	)
	// extraction order
	topicPatterns = append(append([]*regexp.Regexp{}, topicPrefixPatterns...), topicSuffixPatterns...)
	// removal order: suffix forms first so "with x support" goes as one unit
	topicRemovalPatterns = append(append([]*regexp.Regexp{}, topicSuffixPatterns...), topicPrefixPatterns...)
)

type flagField int

const (
	fieldIssues flagField = iota
	fieldWiki
	fieldArchived
	fieldFork
)

type flagRule struct {
	pattern *regexp.Regexp
	field   flagField
	value   bool
}

// flagRules are applied in order; a later match overrides an earlier one,
// so each negated phrase follows its positive form.
var flagRules = []flagRule{
	{regexp.MustCompile(`\bwith issues?\b`), fieldIssues, true},
	{regexp.MustCompile(`\bwithout issues?\b`), fieldIssues, false},
	{regexp.MustCompile(`\bwith wiki\b`), fieldWiki, true},
	{regexp.MustCompile(`\bwithout wiki\b`), fieldWiki, false},
	{regexp.MustCompile(`\barchived\b`), fieldArchived, true},
	{regexp.MustCompile(`\bnot archived\b`), fieldArchived, false},
	{regexp.MustCompile(`\bforked\b`), fieldFork, true},
	{regexp.MustCompile(`\bnot forked\b`), fieldFork, false},
	{regexp.MustCompile(`\boriginal\b`), fieldFork, false},
}

// flagRemovalOrder removes negated phrases before their positive substrings
var flagRemovalOrder = []int{1, 0, 3, 2, 5, 4, 7, 6, 8}

type scopeRule struct {
	pattern *regexp.Regexp
	scope   query.Scope
}

var scopeRules = []scopeRule{
	{regexp.MustCompile(`\b(?:name|title) only\b`), query.ScopeName},
	{regexp.MustCompile(`\bdescription only\b`), query.ScopeDescription},
	{regexp.MustCompile(`\breadme only\b`), query.ScopeReadme},
	{regexp.MustCompile(`\btopics? only\b`), query.ScopeTopics},
}

var languageAliases = map[string]string{
	"js":         "javascript",
	"javascript": "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"py":         "python",
	"python":     "python",
	"rb":         "ruby",
	"ruby":       "ruby",
	"php":        "php",
	"java":       "java",
	"cpp":        "c++",
	"c++":        "c++",
	"csharp":     "c#",
	"c#":         "c#",
	"go":         "go",
	"golang":     "go",
	"rust":       "rust",
	"swift":      "swift",
	"kotlin":     "kotlin",
	"scala":      "scala",
}

var months = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// notLanguage holds words the language patterns catch that never name a language
var notLanguage = setOf(
	"a", "an", "the", "me", "us", "my", "our", "your", "its", "their",
	"this", "that", "these", "those", "some", "any", "all", "new", "old",
	"open", "source", "popular", "top", "best", "good", "great", "cool",
	"awesome", "trending", "more", "most", "last", "past", "recent", "and",
	"or", "with", "of", "for", "to", "other", "similar", "interesting",
	// months, so "created in jan 2023" is a date only
	"jan", "january", "feb", "february", "mar", "march", "apr", "april",
	"may", "jun", "june", "jul", "july", "aug", "august", "sep", "sept",
	"september", "oct", "october", "nov", "november", "dec", "december",
)

// notTopic holds words the topic patterns catch that never name a topic
var notTopic = setOf(
	"a", "an", "the", "at", "least", "more", "less", "than", "minimum",
	"over", "under", "no", "not", "and", "or", "some", "many", "lots",
	"issue", "issues", "wiki", "good", "great", "high", "low", "only",
	"any", "all", "it", "its", "their", "them", "this", "that",
)

// fillers are stripped from both ends of the base text
var fillers = setOf(
	"repo", "repos", "repository", "repositories", "project", "projects", "code",
	"with", "and", "or", "using", "that", "which", "have", "has", "having",
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	digitsOnly = regexp.MustCompile(`^\d+$`)
	yearPrefix = regexp.MustCompile(`^\d{4}`)
)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
