package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	applog "scontrini/internal/log"
)

func TestMiddleware_LogsAndCounts(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Format: "json", Output: &buf})
	m := NewMiddleware(logger, func(*http.Request) string { return "198.51.100.7" })

	var sawLogger bool
	h := chimw.RequestID(m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = applog.FromContext(r.Context()).Component() == applog.ComponentHTTP
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})))

	for _, path := range []string{"/", "/boom"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if !sawLogger {
		t.Error("handler should see the request-scoped logger")
	}
	metrics := m.GetMetrics()
	if metrics.TotalRequests != 2 || metrics.ServerErrors != 1 {
		t.Fatalf("metrics = %+v", metrics)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"HTTP request completed"`, `"request_id":`, `"client_ip":"198.51.100.7"`, `"status_code":500`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s", want)
		}
	}
}
