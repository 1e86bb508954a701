package trend

import (
	"time"

	"mirror/internal/domain/query"
)

// Platform identifies a content source
type Platform string

const (
	PlatformGitHub  Platform = "github"
	PlatformTwitter Platform = "twitter"
	PlatformReddit  Platform = "reddit"
)

// Platforms lists every supported source in presentation order
var Platforms = []Platform{PlatformGitHub, PlatformTwitter, PlatformReddit}

// Valid reports whether p is a supported source
func (p Platform) Valid() bool {
	switch p {
	case PlatformGitHub, PlatformTwitter, PlatformReddit:
		return true
	}
	return false
}

// Repository is a code repository returned by the repository source
type Repository struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	FullName     string    `json:"full_name"`
	Owner        string    `json:"owner"`
	Description  string    `json:"description,omitempty"`
	URL          string    `json:"url"`
	Language     string    `json:"language,omitempty"`
	Topics       []string  `json:"topics,omitempty"`
	Stars        int       `json:"stars"`
	Forks        int       `json:"forks"`
	Watchers     int       `json:"watchers"`
	OpenIssues   int       `json:"open_issues"`
	Contributors *int      `json:"contributors_count,omitempty"`
	Archived     bool      `json:"archived"`
	Fork         bool      `json:"fork"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Derived at enrichment
	Velocity                 *float64 `json:"trending_velocity,omitempty"`
	Health                   *float64 `json:"health_score,omitempty"`
	PopularityPerContributor *float64 `json:"stars_per_contributor,omitempty"`
}

// MicroPost is a short social post
type MicroPost struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id,omitempty"`
	Author    string    `json:"author,omitempty"`
	URL       string    `json:"url,omitempty"`
	Likes     int       `json:"likes"`
	Retweets  int       `json:"retweets"`
	Replies   int       `json:"replies"`
	Quotes    int       `json:"quotes"`
	Hashtags  []string  `json:"hashtags,omitempty"`
	Mentions  []string  `json:"mentions,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Engagement is the sum of all interaction counters
func (p MicroPost) Engagement() int {
	return p.Likes + p.Retweets + p.Replies + p.Quotes
}

// ForumPost is a community discussion post
type ForumPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Author      string    `json:"author,omitempty"`
	Subreddit   string    `json:"subreddit"`
	URL         string    `json:"url,omitempty"`
	Permalink   string    `json:"permalink,omitempty"`
	Score       int       `json:"score"`
	Comments    int       `json:"num_comments"`
	UpvoteRatio float64   `json:"upvote_ratio"`
	CreatedAt   time.Time `json:"created_at"`
}

// TopicCount is one entry of a per-source breakdown (language, hashtag, subreddit)
type TopicCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// KeywordStat is a frequent term across a corpus
type KeywordStat struct {
	Keyword    string  `json:"keyword"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// LanguageStat aggregates repositories sharing a language
type LanguageStat struct {
	Language     string  `json:"language"`
	Count        int     `json:"count"`
	TotalStars   int     `json:"total_stars"`
	TotalForks   int     `json:"total_forks"`
	AverageStars float64 `json:"avg_stars"`
}

// ContributorStat ranks an item by a popularity proxy
type ContributorStat struct {
	Identity string `json:"identity"`
	Language string `json:"language,omitempty"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
	Score    int    `json:"score"`
}

// RankedItem is one of a source's best performing items
type RankedItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Score int    `json:"score"`
}

// PlatformStats summarizes one source's corpus
type PlatformStats struct {
	Platform         Platform           `json:"platform"`
	TotalItems       int                `json:"total_items"`
	TopTopics        []TopicCount       `json:"top_topics"`
	TopItems         []RankedItem       `json:"top_items"`
	Engagement       map[string]float64 `json:"engagement_metrics"`
	TrendingKeywords []KeywordStat      `json:"trending_keywords"`
	Score            float64            `json:"score"`
}

// AnalysisRequest is an inbound trending analysis request
type AnalysisRequest struct {
	Query     string     `json:"query"`
	Platforms []Platform `json:"platforms"`
	Limit     int        `json:"max_results_per_platform"`
}

// TrendingResult is the outcome of one analysis.
// Sources that failed have no items and no stats; their error is in SourceErrors.
type TrendingResult struct {
	ID             string                     `json:"id"`
	Query          string                     `json:"query"`
	ExpandedText   string                     `json:"expanded_text,omitempty"`
	Interpretation query.Explanation          `json:"interpretation"`
	Queries        map[Platform]string        `json:"queries"`
	Platforms      []Platform                 `json:"platforms"`
	Repositories   []Repository               `json:"github_data,omitempty"`
	MicroPosts     []MicroPost                `json:"twitter_data,omitempty"`
	ForumPosts     []ForumPost                `json:"reddit_data,omitempty"`
	Stats          map[Platform]PlatformStats `json:"platform_stats"`
	SourceErrors   map[Platform]string        `json:"source_errors,omitempty"`
	OverallScore   float64                    `json:"overall_score"`
	AnalyzedAt     time.Time                  `json:"analyzed_at"`
}

// Succeeded lists the platforms that produced data, in request order
func (r *TrendingResult) Succeeded() []Platform {
	var out []Platform
	for _, p := range r.Platforms {
		if _, ok := r.Stats[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Failed lists the platforms that errored, in request order
func (r *TrendingResult) Failed() []Platform {
	var out []Platform
	for _, p := range r.Platforms {
		if _, ok := r.SourceErrors[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// AnalysisSummary is the condensed view of a result
type AnalysisSummary struct {
	Query           string            `json:"query"`
	OverallScore    float64           `json:"overall_score"`
	TotalRepos      int               `json:"total_repos"`
	TotalMicroPosts int               `json:"total_tweets"`
	TotalForumPosts int               `json:"total_reddit_posts"`
	TopLanguages    []LanguageStat    `json:"top_languages"`
	TopContributors []ContributorStat `json:"top_contributors"`
	PlatformStats   []PlatformStats   `json:"platform_stats"`
	AnalyzedAt      time.Time         `json:"analyzed_at"`
}

// AnalysisEvent is published when an analysis completes
type AnalysisEvent struct {
	ID              string     `json:"id"`
	Query           string     `json:"query"`
	OverallScore    float64    `json:"overall_score"`
	Platforms       []Platform `json:"platforms"`
	FailedPlatforms []Platform `json:"failed_platforms,omitempty"`
	AnalyzedAt      time.Time  `json:"analyzed_at"`
}
