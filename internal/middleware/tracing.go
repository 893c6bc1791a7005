package middleware

import (
	"net/http"
	"time"

	"github.com/R3E-Network/integrales/internal/httputil"
	"github.com/R3E-Network/integrales/pkg/logger"
)

// TracingMiddleware adds trace ID to all requests
type TracingMiddleware struct {
	logger *logger.Logger
}

// NewTracingMiddleware creates a new tracing middleware
func NewTracingMiddleware(log *logger.Logger) *TracingMiddleware {
	if log == nil {
		log = logger.NewDefault("http")
	}
	return &TracingMiddleware{logger: log}
}

// Handler returns the tracing middleware handler
func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(httputil.TraceIDHeader)
		if traceID == "" {
			traceID = logger.NewTraceID()
		}

		ctx := logger.WithTraceID(r.Context(), traceID)
		w.Header().Set(httputil.TraceIDHeader, traceID)

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		start := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))

		m.logger.LogRequest(ctx, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
