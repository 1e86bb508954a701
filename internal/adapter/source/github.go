// internal/adapter/source/github.go

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"mirror/internal/domain/trend"
)

const (
	defaultGitHubURL     = "https://api.github.com"
	githubMaxPerPage     = 100
	contributorFetchers  = 4
	githubAPIVersion     = "2022-11-28"
	githubAcceptMimeType = "application/vnd.github+json"
)

var lastPage = regexp.MustCompile(`[?&]page=(\d+)[^>]*>;\s*rel="last"`)

// GitHubConfig configures the repository search client
type GitHubConfig struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	FetchContributors bool
}

// GitHubClient searches repositories through the GitHub REST API
type GitHubClient struct {
	baseURL           string
	token             string
	httpClient        *http.Client
	limiter           *rate.Limiter
	fetchContributors bool
	logger            zerolog.Logger
}

// NewGitHubClient creates a new GitHub search client
func NewGitHubClient(cfg GitHubConfig, logger zerolog.Logger) *GitHubClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGitHubURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &GitHubClient{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		token:             cfg.Token,
		httpClient:        &http.Client{Timeout: cfg.Timeout},
		limiter:           newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		fetchContributors: cfg.FetchContributors,
		logger:            logger.With().Str("client", "github").Logger(),
	}
}

type githubSearchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []githubRepo `json:"items"`
}

type githubRepo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Watchers    int       `json:"watchers_count"`
	OpenIssues  int       `json:"open_issues_count"`
	Archived    bool      `json:"archived"`
	Fork        bool      `json:"fork"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r githubRepo) toDomain() trend.Repository {
	return trend.Repository{
		ID:          r.ID,
		Name:        r.Name,
		FullName:    r.FullName,
		Owner:       r.Owner.Login,
		Description: r.Description,
		URL:         r.HTMLURL,
		Language:    r.Language,
		Topics:      r.Topics,
		Stars:       r.Stars,
		Forks:       r.Forks,
		Watchers:    r.Watchers,
		OpenIssues:  r.OpenIssues,
		Archived:    r.Archived,
		Fork:        r.Fork,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Search returns repositories matching q, most starred first
func (c *GitHubClient) Search(ctx context.Context, q string, limit int) ([]trend.Repository, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(clamp(limit, 1, githubMaxPerPage)))

	req, err := c.newRequest(ctx, "/search/repositories?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var body githubSearchResponse
	if _, err := getJSON(ctx, c.httpClient, c.limiter, string(trend.PlatformGitHub), req, &body); err != nil {
		return nil, err
	}

	items := body.Items
	if len(items) > limit {
		items = items[:limit]
	}
	repos := make([]trend.Repository, len(items))
	for i, item := range items {
		repos[i] = item.toDomain()
	}

	if c.fetchContributors {
		c.attachContributors(ctx, repos)
	}

	c.logger.Debug().Str("query", q).Int("total_count", body.TotalCount).Int("returned", len(repos)).Msg("Repository search completed")
	return repos, nil
}

// attachContributors fills in contributor counts; failures leave the count unset
func (c *GitHubClient) attachContributors(ctx context.Context, repos []trend.Repository) {
	var g errgroup.Group
	g.SetLimit(contributorFetchers)

	for i := range repos {
		r := &repos[i]
		g.Go(func() error {
			n, err := c.countContributors(ctx, r.FullName)
			if err != nil {
				c.logger.Warn().Err(err).Str("repo", r.FullName).Msg("Could not count contributors")
				return nil
			}
			r.Contributors = &n
			return nil
		})
	}
	_ = g.Wait()
}

// countContributors asks for one contributor per page and reads the last page number
func (c *GitHubClient) countContributors(ctx context.Context, fullName string) (int, error) {
	if fullName == "" {
		return 0, fmt.Errorf("repository has no full name")
	}

	req, err := c.newRequest(ctx, "/repos/"+fullName+"/contributors?per_page=1&anon=true")
	if err != nil {
		return 0, err
	}

	var page []struct {
		Login string `json:"login"`
	}
	resp, err := getJSON(ctx, c.httpClient, c.limiter, string(trend.PlatformGitHub), req, &page)
	if err != nil {
		return 0, err
	}

	if m := lastPage.FindStringSubmatch(resp.Header.Get("Link")); m != nil {
		return strconv.Atoi(m[1])
	}
	return len(page), nil
}

func (c *GitHubClient) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", githubAcceptMimeType)
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}
