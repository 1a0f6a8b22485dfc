// Package trace logs every HTTP request with the id assigned by chi's
// RequestID middleware and keeps request counters.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	applog "scontrini/internal/log"
)

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *applog.Logger
	extractIP func(*http.Request) string

	total         atomic.Int64
	totalDuration atomic.Int64 // microseconds
	failures      atomic.Int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	ServerErrors        int64
	AverageResponseTime int64 // in microseconds
}

// NewMiddleware creates a new trace middleware. extractIP may be nil.
func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		logger:    logger.WithComponent(applog.ComponentHTTP),
		extractIP: extractIP,
	}
}

// Handler installs a request-scoped logger carrying the request id into
// the context and logs the start and end of the request.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		logger := m.logger
		if id := chimw.GetReqID(r.Context()); id != "" {
			logger = logger.With(applog.FieldRequestID, id)
		}
		sl := applog.NewStructuredLogger(logger)
		sl.LogHTTPStart(r.Context(), r, clientIP)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(applog.NewContext(r.Context(), logger)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		m.total.Add(1)
		m.totalDuration.Add(duration.Microseconds())
		if status >= 500 {
			m.failures.Add(1)
		}

		sl.LogHTTPEnd(r.Context(), r, status, duration.Milliseconds(), clientIP)
	})
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := m.total.Load()
	var avg int64
	if total > 0 {
		avg = m.totalDuration.Load() / total
	}
	return Metrics{
		TotalRequests:       total,
		ServerErrors:        m.failures.Load(),
		AverageResponseTime: avg,
	}
}
