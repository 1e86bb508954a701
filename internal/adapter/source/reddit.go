// internal/adapter/source/reddit.go

package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mirror/internal/domain/trend"
)

const (
	defaultRedditURL    = "https://www.reddit.com"
	redditPerSubreddit  = 20
	redditSort          = "hot"
	redditTimeRange     = "week"
	redditPermalinkBase = "https://reddit.com"
)

// DefaultSubreddits are searched in order until the limit is reached
var DefaultSubreddits = []string{
	"programming", "Python", "javascript", "webdev",
	"MachineLearning", "datascience", "technology",
	"coding", "learnprogramming", "opensource",
}

// RedditConfig configures the forum search client
type RedditConfig struct {
	BaseURL           string
	UserAgent         string
	Subreddits        []string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// RedditClient handles searches against the public Reddit JSON API
type RedditClient struct {
	baseURL    string
	userAgent  string
	subreddits []string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// RedditPost represents a post from Reddit
type RedditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	Subreddit   string  `json:"subreddit"`
	Created     float64 `json:"created_utc"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
}

// RedditResponse represents the structure of the Reddit API response
type RedditResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string     `json:"kind"`
			Data RedditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewRedditClient creates a new Reddit API client
func NewRedditClient(cfg RedditConfig, logger zerolog.Logger) *RedditClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRedditURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = userAgent
	}
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = DefaultSubreddits
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &RedditClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		subreddits: cfg.Subreddits,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:     logger.With().Str("client", "reddit").Logger(),
	}
}

// Search walks the configured subreddits, collecting up to limit posts.
// A failing subreddit is skipped; the call fails only when every subreddit failed.
func (c *RedditClient) Search(ctx context.Context, q string, limit int) ([]trend.ForumPost, error) {
	var (
		posts    []trend.ForumPost
		failures []error
	)

	for _, sub := range c.subreddits {
		if len(posts) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return posts, err
		}

		found, err := c.searchSubreddit(ctx, sub, q, min(redditPerSubreddit, limit-len(posts)))
		if err != nil {
			c.logger.Warn().Err(err).Str("subreddit", sub).Msg("Subreddit search failed")
			failures = append(failures, fmt.Errorf("r/%s: %w", sub, err))
			continue
		}
		for _, p := range found {
			if len(posts) >= limit {
				break
			}
			posts = append(posts, p)
		}
	}

	if len(posts) == 0 && len(failures) == len(c.subreddits) {
		return nil, errors.Join(failures...)
	}

	c.logger.Debug().Str("query", q).Int("returned", len(posts)).Int("failed_subreddits", len(failures)).Msg("Forum search completed")
	return posts, nil
}

func (c *RedditClient) searchSubreddit(ctx context.Context, sub, q string, limit int) ([]trend.ForumPost, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("restrict_sr", "1")
	params.Set("sort", redditSort)
	params.Set("t", redditTimeRange)
	params.Set("limit", strconv.Itoa(limit))

	u := fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, url.PathEscape(sub), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Reddit throttles requests without a descriptive User-Agent
	req.Header.Set("User-Agent", c.userAgent)

	var body RedditResponse
	if _, err := getJSON(ctx, c.httpClient, c.limiter, string(trend.PlatformReddit), req, &body); err != nil {
		return nil, err
	}

	posts := make([]trend.ForumPost, 0, len(body.Data.Children))
	for _, child := range body.Data.Children {
		posts = append(posts, child.Data.toDomain())
	}
	return posts, nil
}

func (p RedditPost) toDomain() trend.ForumPost {
	author := p.Author
	if author == "" {
		author = "deleted"
	}

	post := trend.ForumPost{
		ID:          p.ID,
		Title:       p.Title,
		Body:        p.SelfText,
		Author:      author,
		Subreddit:   p.Subreddit,
		URL:         p.URL,
		Score:       p.Score,
		Comments:    p.NumComments,
		UpvoteRatio: p.UpvoteRatio,
	}
	if p.Permalink != "" {
		post.Permalink = redditPermalinkBase + p.Permalink
	}
	if p.Created > 0 {
		post.CreatedAt = time.Unix(int64(p.Created), 0).UTC()
	}
	return post
}
