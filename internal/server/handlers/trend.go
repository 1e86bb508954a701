// internal/server/handlers/trend.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mirror/internal/catalog"
	"mirror/internal/domain/query"
	"mirror/internal/domain/trend"
	"mirror/internal/service/interpreter"
	"mirror/internal/service/listening"
)

const (
	maxBodyBytes    = 1 << 20
	quickTopN       = 5
	serviceName     = "Trending Analysis"
	defaultResults  = 20
	quickMaxResults = 15
)

// TrendingService is the analysis backend the handler drives
type TrendingService interface {
	Analyze(ctx context.Context, req trend.AnalysisRequest) (*trend.TrendingResult, error)
	Interpret(ctx context.Context, text string) (query.Filter, string)
	RenderQueries(f query.Filter) map[trend.Platform]string
	Platforms() []trend.Platform
}

// TrendingHandlerConfig holds request defaults
type TrendingHandlerConfig struct {
	DefaultResults int
	QuickResults   int
}

// TrendingHandler handles trending analysis HTTP requests
type TrendingHandler struct {
	service TrendingService
	catalog *catalog.Catalog
	config  TrendingHandlerConfig
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTrendingHandler creates a new trending handler
func NewTrendingHandler(service TrendingService, cat *catalog.Catalog, config TrendingHandlerConfig, logger zerolog.Logger) *TrendingHandler {
	if config.DefaultResults <= 0 {
		config.DefaultResults = defaultResults
	}
	if config.QuickResults <= 0 {
		config.QuickResults = quickMaxResults
	}
	return &TrendingHandler{
		service: service,
		catalog: cat,
		config:  config,
		logger:  logger.With().Str("handler", "trending").Logger(),
		now:     time.Now,
	}
}

// AnalysisResponse wraps a full analysis
type AnalysisResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    *trend.TrendingResult  `json:"data,omitempty"`
	Summary *trend.AnalysisSummary `json:"summary,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Analyze runs a full cross-platform analysis
func (h *TrendingHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req trend.AnalysisRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, AnalysisResponse{
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}
	if req.Limit == 0 {
		req.Limit = h.config.DefaultResults
	}

	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		code := statusFor(err)
		if code >= 500 {
			h.logger.Error().Err(err).Str("query", req.Query).Msg("Analysis failed")
		}
		resp := AnalysisResponse{Message: "Error analyzing trending topic", Error: err.Error(), Data: result}
		respondWithJSON(w, code, resp)
		return
	}

	summary := listening.Summarize(result)
	respondWithJSON(w, http.StatusOK, AnalysisResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully analyzed trending topic: %s", result.Query),
		Data:    result,
		Summary: &summary,
	})
}

type quickPlatformStat struct {
	Platform         trend.Platform      `json:"platform"`
	TotalItems       int                 `json:"total_items"`
	TrendingKeywords []trend.KeywordStat `json:"trending_keywords"`
}

type quickSummary struct {
	TotalRepos    int                  `json:"total_repos"`
	TopLanguages  []trend.LanguageStat `json:"top_languages"`
	PlatformStats []quickPlatformStat  `json:"platform_stats"`
}

type quickResponse struct {
	Success      bool          `json:"success"`
	Query        string        `json:"query,omitempty"`
	OverallScore float64       `json:"overall_score"`
	Summary      *quickSummary `json:"summary,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// QuickAnalysis runs a small analysis from query parameters; GitHub only unless platforms is given
func (h *TrendingHandler) QuickAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	platforms := parsePlatforms(r.URL.Query()["platforms"])
	if len(platforms) == 0 {
		platforms = []trend.Platform{trend.PlatformGitHub}
	}

	result, err := h.service.Analyze(r.Context(), trend.AnalysisRequest{
		Query:     q,
		Platforms: platforms,
		Limit:     h.config.QuickResults,
	})
	if err != nil {
		code := statusFor(err)
		if code >= 500 {
			h.logger.Error().Err(err).Str("query", q).Msg("Quick analysis failed")
		}
		respondWithJSON(w, code, quickResponse{Query: q, Error: err.Error()})
		return
	}

	summary := listening.Summarize(result)
	quick := &quickSummary{
		TotalRepos:   summary.TotalRepos,
		TopLanguages: firstN(summary.TopLanguages, quickTopN),
	}
	for _, s := range summary.PlatformStats {
		quick.PlatformStats = append(quick.PlatformStats, quickPlatformStat{
			Platform:         s.Platform,
			TotalItems:       s.TotalItems,
			TrendingKeywords: firstN(s.TrendingKeywords, quickTopN),
		})
	}

	respondWithJSON(w, http.StatusOK, quickResponse{
		Success:      true,
		Query:        result.Query,
		OverallScore: result.OverallScore,
		Summary:      quick,
	})
}

type parseRequest struct {
	Query string `json:"query"`
}

type parseResponse struct {
	Query        string                    `json:"query"`
	ExpandedText string                    `json:"expanded_text,omitempty"`
	Filters      query.Explanation         `json:"filters"`
	Queries      map[trend.Platform]string `json:"queries"`
}

// Parse interprets a query without fetching anything
func (h *TrendingHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	text := strings.TrimSpace(req.Query)
	if text == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, listening.ErrEmptyQuery.Error(), nil)
		return
	}

	filter, expanded := h.service.Interpret(r.Context(), text)
	respondWithJSON(w, http.StatusOK, parseResponse{
		Query:        text,
		ExpandedText: expanded,
		Filters:      interpreter.Explain(filter),
		Queries:      h.service.RenderQueries(filter),
	})
}

// Suggestions returns related search phrasings
func (h *TrendingHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "Missing query parameter", nil)
		return
	}

	suggestions := interpreter.Suggest(q)
	if suggestions == nil {
		suggestions = []string{}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"query":       q,
		"suggestions": suggestions,
	})
}

// Platforms lists the supported platforms and whether each is configured
func (h *TrendingHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"platforms": h.catalog.PlatformsWith(h.service.Platforms()),
	})
}

// ExampleQueries lists ready-made queries
func (h *TrendingHandler) ExampleQueries(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"example_queries": h.catalog.ExampleQueries,
	})
}

// Health reports service status
func (h *TrendingHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"service":             serviceName,
		"available_platforms": len(h.service.Platforms()),
		"timestamp":           h.now().UTC().Format(time.RFC3339),
	})
}

func statusFor(err error) int {
	switch {
	case listening.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, listening.ErrAllSourcesFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parsePlatforms accepts repeated and comma-separated values
func parsePlatforms(values []string) []trend.Platform {
	var out []trend.Platform
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, trend.Platform(strings.ToLower(p)))
			}
		}
	}
	return out
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
