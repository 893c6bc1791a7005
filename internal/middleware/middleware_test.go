package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/integrales/internal/httputil"
	"github.com/R3E-Network/integrales/internal/metrics"
	"github.com/R3E-Network/integrales/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"exact", []string{"http://localhost:3000"}, "http://localhost:3000", "http://localhost:3000"},
		{"wildcard", []string{"*"}, "http://any.test", "http://any.test"},
		{"suffix", []string{".example.com"}, "https://app.example.com", "https://app.example.com"},
		{"denied", []string{"http://localhost:3000"}, "http://evil.test", ""},
		{"no origin", []string{"*"}, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCORSMiddleware(tc.allowed).Handler(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/examples", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	h := NewCORSMiddleware([]string{"*"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, nil)
	h := rl.Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// another client has its own budget
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	now = now.Add(time.Hour)
	rl.getLimiter("b")

	assert.Equal(t, 1, rl.Cleanup(30*time.Minute))
	assert.Equal(t, 1, rl.Len())
}

func TestTracingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Component: "http", Level: "info", Output: &buf})

	var seen string
	h := NewTracingMiddleware(log).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set(httputil.TraceIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(httputil.TraceIDHeader))
	assert.True(t, strings.Contains(buf.String(), `"trace_id":"abc"`))
	assert.True(t, strings.Contains(buf.String(), `"status":201`))
}

func TestTracingMiddleware_GeneratesID(t *testing.T) {
	h := NewTracingMiddleware(nil).Handler(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get(httputil.TraceIDHeader))
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New("mw")
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Handle("/sessions/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/123", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() != "mw_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["path"] == "/sessions/{id}" && labels["status"] == "404" {
				found = true
			}
		}
	}
	assert.True(t, found)
}
