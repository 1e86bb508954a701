// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"mirror/internal/catalog"
	"mirror/internal/config"
	"mirror/internal/server/handlers"
)

// requestTimeout bounds a single request, analyses included
const requestTimeout = 60 * time.Second

// Deps are the collaborators the HTTP layer serves
type Deps struct {
	Trending   handlers.TrendingService
	Catalog    *catalog.Catalog
	Subscriber handlers.AnalysisSubscriber
	Gatherer   prometheus.Gatherer
	Analysis   config.AnalysisConfig
	Logger     zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	router := NewRouter(cfg, deps)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// NewRouter builds the route tree
func NewRouter(cfg config.ServerConfig, deps Deps) *chi.Mux {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(deps.Logger))
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	trending := handlers.NewTrendingHandler(deps.Trending, deps.Catalog, handlers.TrendingHandlerConfig{
		DefaultResults: deps.Analysis.DefaultResults,
		QuickResults:   deps.Analysis.QuickResults,
	}, deps.Logger)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API version
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/trending", func(r chi.Router) {
			r.Post("/analyze", trending.Analyze)
			r.Post("/quick-analysis", trending.QuickAnalysis)
			r.Post("/parse", trending.Parse)
			r.Get("/suggestions", trending.Suggestions)
			r.Get("/platforms", trending.Platforms)
			r.Get("/example-queries", trending.ExampleQueries)
			r.Get("/health", trending.Health)
		})
	})

	// WebSocket feed of completed analyses
	router.Get("/ws/analyses", handlers.AnalysisWebSocketHandler(deps.Subscriber, handlers.DefaultWebSocketConfig(), deps.Logger))

	return router
}

// requestLogger logs one line per request with zerolog
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
