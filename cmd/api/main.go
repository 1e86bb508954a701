// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"mirror/internal/adapter/events"
	"mirror/internal/adapter/expander"
	"mirror/internal/adapter/source"
	"mirror/internal/catalog"
	"mirror/internal/config"
	"mirror/internal/domain/trend"
	"mirror/internal/logging"
	"mirror/internal/metrics"
	"mirror/internal/server"
	"mirror/internal/server/handlers"
	"mirror/internal/service/listening"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Environment)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load platform catalog")
	}

	// Events are optional; analyses run without NATS
	var (
		publisher  trend.EventPublisher
		subscriber handlers.AnalysisSubscriber
	)
	if cfg.NATS.Enabled {
		natsConn, err := initNATS(cfg.NATS, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("NATS unavailable, analysis events disabled")
		} else {
			defer natsConn.Close()
			publisher = events.NewNATSPublisher(natsConn, cfg.Analysis.EventsTopic)
			subscriber = events.NewNATSSubscriber(natsConn, cfg.Analysis.EventsTopic)
		}
	}

	var queryExpander trend.Expander
	if cfg.Expansion.GeminiAPIKey != "" {
		gemini, err := expander.NewGeminiExpander(ctx, expander.Config{
			APIKey:    cfg.Expansion.GeminiAPIKey,
			Models:    cfg.Expansion.Models,
			CacheSize: cfg.Expansion.CacheSize,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Query expansion disabled")
		} else {
			queryExpander = gemini
		}
	}

	// Initialize aggregator
	aggregator := listening.NewAggregator(
		listening.NewAnalyzer(cfg.Analysis.Weights()),
		queryExpander,
		publisher,
		listening.AggregatorConfig{
			FetchTimeout:         cfg.Analysis.FetchTimeout,
			ExpansionTimeout:     cfg.Expansion.Timeout,
			MaxConcurrentSources: cfg.Analysis.MaxConcurrentSources,
		},
		logger,
	)
	registerSources(aggregator, cfg, logger)

	if len(aggregator.Platforms()) == 0 {
		logger.Fatal().Msg("No source could be configured")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, server.Deps{
		Trending:   aggregator,
		Catalog:    cat,
		Subscriber: subscriber,
		Gatherer:   prometheus.DefaultGatherer,
		Analysis:   cfg.Analysis,
		Logger:     logger,
	})

	// Start HTTP server
	go func() {
		logger.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Interface("platforms", aggregator.Platforms()).
			Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info().Msg("Shutdown signal received")
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("Shutdown complete")
}

// registerSources wires every enabled platform into the aggregator
func registerSources(aggregator *listening.Aggregator, cfg config.Config, logger zerolog.Logger) {
	if cfg.GitHub.Enabled {
		client := source.NewGitHubClient(source.GitHubConfig{
			BaseURL:           cfg.GitHub.BaseURL,
			Token:             cfg.GitHub.Token,
			Timeout:           cfg.GitHub.Timeout,
			RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
			Burst:             cfg.GitHub.Burst,
			FetchContributors: cfg.GitHub.FetchContributors,
		}, logger)
		aggregator.Register(listening.NewRepositorySource(client, logger))
	}

	if cfg.Twitter.BearerToken != "" {
		client := source.NewTwitterClient(source.TwitterConfig{
			Host:              cfg.Twitter.Host,
			BearerToken:       cfg.Twitter.BearerToken,
			Timeout:           cfg.Twitter.Timeout,
			RequestsPerSecond: cfg.Twitter.RequestsPerSecond,
			Burst:             cfg.Twitter.Burst,
		}, logger)
		aggregator.Register(listening.NewMicroPostSource(client))
	} else {
		logger.Info().Msg("TWITTER_BEARER_TOKEN not set, twitter source disabled")
	}

	if cfg.Reddit.Enabled {
		client := source.NewRedditClient(source.RedditConfig{
			BaseURL:           cfg.Reddit.BaseURL,
			UserAgent:         cfg.Reddit.UserAgent,
			Subreddits:        cfg.Reddit.Subreddits,
			Timeout:           cfg.Reddit.Timeout,
			RequestsPerSecond: cfg.Reddit.RequestsPerSecond,
			Burst:             cfg.Reddit.Burst,
		}, logger)
		aggregator.Register(listening.NewForumSource(client))
	}
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger zerolog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
