package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func decode(t *testing.T, line []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentCache, Output: &buf})

	logger.Info("entry refreshed", FieldCacheKey, "records/1")
	m := decode(t, buf.Bytes())

	if m["msg"] != "entry refreshed" {
		t.Errorf("msg = %v", m["msg"])
	}
	if m[FieldComponent] != ComponentCache {
		t.Errorf("component = %v, want %s", m[FieldComponent], ComponentCache)
	}
	if m[FieldCacheKey] != "records/1" {
		t.Errorf("cache_key = %v", m[FieldCacheKey])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: ParseLevel("warn"), Output: &buf})

	logger.Info("hidden")
	logger.Debug("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestWithComponentAndSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})
	if logger.Component() != ComponentApp {
		t.Fatalf("default component = %q, want %q", logger.Component(), ComponentApp)
	}

	sub := logger.WithComponent(ComponentMutation)
	if sub.Component() != ComponentMutation {
		t.Errorf("WithComponent = %q", sub.Component())
	}
	if logger.Component() != ComponentApp {
		t.Errorf("WithComponent must not change the parent")
	}

	sub.Slog().Info("settled")
	m := decode(t, buf.Bytes())
	if m[FieldComponent] != ComponentMutation {
		t.Errorf("slog component = %v, want %s", m[FieldComponent], ComponentMutation)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithUser("").
		WithRecord(3, 0, "2024-03-05", 2).
		WithError(nil).
		WithOperation(OpCreate)

	if _, ok := f[FieldUserID]; ok {
		t.Errorf("empty user must be omitted")
	}
	if _, ok := f[FieldRecordID]; ok {
		t.Errorf("zero record id must be omitted")
	}
	if _, ok := f[FieldError]; ok {
		t.Errorf("nil error must be omitted")
	}
	if f[FieldRestaurantID] != int64(3) || f[FieldAmountCount] != 2 || f[FieldOperation] != OpCreate {
		t.Errorf("unexpected fields: %v", f)
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("ToSlice length = %d, want %d", got, 2*len(f))
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	NewStructuredLogger(logger).LogError(context.Background(), "Add record failed",
		errors.New("boom"), ComponentRecords, OpCreate, NewFields().WithUser("u1"))

	m := decode(t, buf.Bytes())
	if m["level"] != "ERROR" {
		t.Errorf("level = %v", m["level"])
	}
	if m[FieldError] != "boom" || m[FieldOperation] != OpCreate || m[FieldUserID] != "u1" {
		t.Errorf("unexpected record: %v", m)
	}
	if m[FieldComponent] != ComponentRecords {
		t.Errorf("component = %v, want %s", m[FieldComponent], ComponentRecords)
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	var got *Logger
	h := Middleware(logger)(ComponentMiddleware(ComponentHTTP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger from context = %+v, want component %s", got, ComponentHTTP)
	}
	if FromContext(context.Background()).Component() != ComponentApp {
		t.Errorf("FromContext without a logger should fall back to the app component")
	}
}
