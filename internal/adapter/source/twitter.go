// internal/adapter/source/twitter.go

package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/g8rswimmer/go-twitter/v2/twitter"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mirror/internal/domain/trend"
)

const (
	defaultTwitterHost = "https://api.twitter.com"
	twitterMinResults  = 10
	twitterMaxResults  = 100
)

// TwitterConfig configures the micro-post search client
type TwitterConfig struct {
	Host              string
	BearerToken       string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// TwitterClient searches recent posts through the v2 API
type TwitterClient struct {
	client  *twitter.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewTwitterClient creates a new Twitter search client
func NewTwitterClient(cfg TwitterConfig, logger zerolog.Logger) *TwitterClient {
	if cfg.Host == "" {
		cfg.Host = defaultTwitterHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &TwitterClient{
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: cfg.BearerToken},
			Client:     &http.Client{Timeout: cfg.Timeout},
			Host:       strings.TrimRight(cfg.Host, "/"),
		},
		limiter: newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:  logger.With().Str("client", "twitter").Logger(),
	}
}

// Search returns recent posts matching q. The API only accepts page sizes of
// 10 to 100, so smaller limits are trimmed after the call.
func (c *TwitterClient) Search(ctx context.Context, q string, limit int) ([]trend.MicroPost, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := twitter.TweetRecentSearchOpts{
		Expansions:  []twitter.Expansion{twitter.ExpansionAuthorID},
		TweetFields: []twitter.TweetField{twitter.TweetFieldCreatedAt, twitter.TweetFieldPublicMetrics, twitter.TweetFieldEntities, twitter.TweetFieldAuthorID},
		UserFields:  []twitter.UserField{twitter.UserFieldUserName},
		MaxResults:  clamp(limit, twitterMinResults, twitterMaxResults),
	}

	resp, err := c.client.TweetRecentSearch(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("twitter recent search: %w", err)
	}
	if resp == nil || resp.Raw == nil {
		return nil, nil
	}

	usernames := make(map[string]string)
	if resp.Raw.Includes != nil {
		for _, u := range resp.Raw.Includes.Users {
			if u != nil {
				usernames[u.ID] = u.UserName
			}
		}
	}

	posts := make([]trend.MicroPost, 0, len(resp.Raw.Tweets))
	for _, t := range resp.Raw.Tweets {
		if t == nil {
			continue
		}
		posts = append(posts, c.toDomain(t, usernames))
		if len(posts) == limit {
			break
		}
	}

	c.logger.Debug().Str("query", q).Int("returned", len(posts)).Msg("Recent search completed")
	return posts, nil
}

func (c *TwitterClient) toDomain(t *twitter.TweetObj, usernames map[string]string) trend.MicroPost {
	post := trend.MicroPost{
		ID:       t.ID,
		Text:     t.Text,
		AuthorID: t.AuthorID,
		Author:   usernames[t.AuthorID],
	}

	if post.Author != "" {
		post.URL = fmt.Sprintf("https://twitter.com/%s/status/%s", post.Author, t.ID)
	} else {
		post.URL = fmt.Sprintf("https://twitter.com/i/web/status/%s", t.ID)
	}

	if t.PublicMetrics != nil {
		post.Likes = t.PublicMetrics.Likes
		post.Retweets = t.PublicMetrics.Retweets
		post.Replies = t.PublicMetrics.Replies
		post.Quotes = t.PublicMetrics.Quotes
	}

	if t.Entities != nil {
		for _, h := range t.Entities.HashTags {
			post.Hashtags = append(post.Hashtags, h.Tag)
		}
		for _, m := range t.Entities.Mentions {
			post.Mentions = append(post.Mentions, m.UserName)
		}
	}

	if t.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
			post.CreatedAt = ts
		} else {
			c.logger.Warn().Err(err).Str("id", t.ID).Msg("Unparseable created_at")
		}
	}
	return post
}
