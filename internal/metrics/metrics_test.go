package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndExposition(t *testing.T) {
	m := New()
	m.CatalogSearches.WithLabelValues("mock-data").Inc()
	m.CatalogSearches.WithLabelValues("mock-data").Inc()
	m.Forwarded.WithLabelValues("process", "timeout").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogSearches.WithLabelValues("mock-data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Forwarded.WithLabelValues("process", "timeout")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `aistudio_catalog_searches_total{source="mock-data"} 2`)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/download/{filename}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/api/download/a.zip")
	require.NoError(t, err)
	resp.Body.Close()

	n := testutil.CollectAndCount(m.RequestDuration, "aistudio_http_request_duration_seconds")
	assert.Equal(t, 1, n)
	var out strings.Builder
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out.WriteString(rec.Body.String())
	assert.Contains(t, out.String(), `route="/api/download/{filename}"`)
	assert.Contains(t, out.String(), `status="418"`)
}

func TestNilMetricsHelpers(t *testing.T) {
	var m *Metrics
	m.SearchServed("mock-data")
	m.Recommended("rules")
	m.Forward("process", "success")
	m.Imported("kaggle-api")

	live := New()
	live.Imported("kaggle-api")
	assert.Equal(t, 1.0, testutil.ToFloat64(live.Imports.WithLabelValues("kaggle-api")))
}
