// internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kelseyhightower/envconfig"

	"mirror/internal/domain/trend"
)

// Config holds all application configuration
type Config struct {
	Environment string          `envconfig:"APP_ENV" default:"development"`
	Server      ServerConfig    `envconfig:""`
	NATS        NATSConfig      `envconfig:""`
	GitHub      GitHubConfig    `envconfig:""`
	Twitter     TwitterConfig   `envconfig:""`
	Reddit      RedditConfig    `envconfig:""`
	Expansion   ExpansionConfig `envconfig:""`
	Analysis    AnalysisConfig  `envconfig:""`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"70s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	CorsOrigins     []string      `envconfig:"SERVER_CORS_ORIGINS" default:"*"`
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	Enabled        bool          `envconfig:"NATS_ENABLED" default:"true"`
	URL            string        `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	MaxReconnects  int           `envconfig:"NATS_MAX_RECONNECTS" default:"10"`
	ReconnectWait  time.Duration `envconfig:"NATS_RECONNECT_WAIT" default:"1s"`
	ConnectTimeout time.Duration `envconfig:"NATS_CONNECT_TIMEOUT" default:"2s"`
}

// GitHubConfig holds repository source configuration
type GitHubConfig struct {
	Enabled           bool          `envconfig:"GITHUB_ENABLED" default:"true"`
	Token             string        `envconfig:"GITHUB_TOKEN"`
	BaseURL           string        `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
	Timeout           time.Duration `envconfig:"GITHUB_TIMEOUT" default:"10s"`
	RequestsPerSecond float64       `envconfig:"GITHUB_RPS" default:"5"`
	Burst             int           `envconfig:"GITHUB_BURST" default:"10"`
	FetchContributors bool          `envconfig:"GITHUB_FETCH_CONTRIBUTORS" default:"false"`
}

// TwitterConfig holds micro-post source configuration; the source is off without a token
type TwitterConfig struct {
	BearerToken       string        `envconfig:"TWITTER_BEARER_TOKEN"`
	Host              string        `envconfig:"TWITTER_API_HOST" default:"https://api.twitter.com"`
	Timeout           time.Duration `envconfig:"TWITTER_TIMEOUT" default:"10s"`
	RequestsPerSecond float64       `envconfig:"TWITTER_RPS" default:"1"`
	Burst             int           `envconfig:"TWITTER_BURST" default:"5"`
}

// RedditConfig holds forum source configuration
type RedditConfig struct {
	Enabled           bool          `envconfig:"REDDIT_ENABLED" default:"true"`
	BaseURL           string        `envconfig:"REDDIT_API_URL" default:"https://www.reddit.com"`
	UserAgent         string        `envconfig:"REDDIT_USER_AGENT" default:"mirror-trending/1.0"`
	Subreddits        []string      `envconfig:"REDDIT_SUBREDDITS"`
	Timeout           time.Duration `envconfig:"REDDIT_TIMEOUT" default:"10s"`
	RequestsPerSecond float64       `envconfig:"REDDIT_RPS" default:"1"`
	Burst             int           `envconfig:"REDDIT_BURST" default:"5"`
}

// ExpansionConfig holds query expansion configuration; expansion is off without an API key
type ExpansionConfig struct {
	GeminiAPIKey string        `envconfig:"GEMINI_API_KEY"`
	Models       []string      `envconfig:"GEMINI_MODELS"`
	Timeout      time.Duration `envconfig:"EXPANSION_TIMEOUT" default:"5s"`
	CacheSize    int           `envconfig:"EXPANSION_CACHE_SIZE" default:"512"`
}

// AnalysisConfig holds aggregation configuration
type AnalysisConfig struct {
	FetchTimeout         time.Duration `envconfig:"ANALYSIS_FETCH_TIMEOUT" default:"30s"`
	MaxConcurrentSources int           `envconfig:"ANALYSIS_MAX_CONCURRENT_SOURCES" default:"3"`
	DefaultResults       int           `envconfig:"ANALYSIS_DEFAULT_RESULTS" default:"20"`
	QuickResults         int           `envconfig:"ANALYSIS_QUICK_RESULTS" default:"15"`
	EventsTopic          string        `envconfig:"ANALYSIS_EVENTS_TOPIC" default:"trending.analysis"`
	GitHubWeight         float64       `envconfig:"ANALYSIS_WEIGHT_GITHUB" default:"0.40"`
	TwitterWeight        float64       `envconfig:"ANALYSIS_WEIGHT_TWITTER" default:"0.35"`
	RedditWeight         float64       `envconfig:"ANALYSIS_WEIGHT_REDDIT" default:"0.25"`
}

// Weights returns the per-platform score weights
func (a AnalysisConfig) Weights() map[trend.Platform]float64 {
	return map[trend.Platform]float64{
		trend.PlatformGitHub:  a.GitHubWeight,
		trend.PlatformTwitter: a.TwitterWeight,
		trend.PlatformReddit:  a.RedditWeight,
	}
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, fmt.Errorf("failed to process environment: %w", err)
	}

	return config, validate(config)
}

// weightTolerance absorbs float rounding in the weight sum
const weightTolerance = 1e-9

// validate checks if config is valid
func validate(config Config) error {
	var errs []error

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", config.Server.Port))
	}
	if config.Analysis.FetchTimeout <= 0 {
		errs = append(errs, errors.New("analysis fetch timeout must be positive"))
	}
	for name, v := range map[string]int{
		"default results": config.Analysis.DefaultResults,
		"quick results":   config.Analysis.QuickResults,
	} {
		if v < 1 || v > 100 {
			errs = append(errs, fmt.Errorf("analysis %s must be between 1 and 100, got %d", name, v))
		}
	}

	var sum float64
	weights := config.Analysis.Weights()
	for _, p := range trend.Platforms {
		w := weights[p]
		if w <= 0 {
			errs = append(errs, fmt.Errorf("%s weight must be positive, got %g", p, w))
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		errs = append(errs, fmt.Errorf("platform weights must sum to 1, got %g", sum))
	}

	if config.GitHub.Enabled && config.GitHub.Token == "" && config.Environment == "production" {
		errs = append(errs, errors.New("github token must be set in production"))
	}
	if !config.GitHub.Enabled && !config.Reddit.Enabled && config.Twitter.BearerToken == "" {
		errs = append(errs, errors.New("no platform is enabled"))
	}

	return errors.Join(errs...)
}
