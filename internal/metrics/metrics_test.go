package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposure(t *testing.T) {
	registry := prometheus.NewRegistry()
	MustRegister(registry)

	ObserveSourceFetch("github", time.Now().Add(-200*time.Millisecond), nil)
	ObserveSourceFetch("reddit", time.Now(), errors.New("boom"))
	ObserveAnalysis(time.Now().Add(-time.Second), "partial", 42)
	IncExpansion("fallback")
	IncEnrichmentError("github")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, m := range []string{
		`mirror_source_fetch_total{platform="github",status="success"}`,
		`mirror_source_fetch_total{platform="reddit",status="error"}`,
		"mirror_source_fetch_duration_seconds",
		"mirror_analysis_duration_seconds",
		`mirror_analyses_total{outcome="partial"}`,
		`mirror_query_expansion_total{outcome="fallback"}`,
		`mirror_enrichment_errors_total{platform="github"}`,
		"mirror_overall_score",
	} {
		assert.Contains(t, body, m)
	}
}
