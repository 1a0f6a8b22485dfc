package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"scontrini/internal/core"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{" 42 ", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseID(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidID) {
			t.Fatalf("ParseID(%q) error = %v, want ErrInvalidID", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseRangeParams(t *testing.T) {
	tests := []struct {
		name         string
		query        url.Values
		wantErr      error
		wantComplete bool
		wantEnd      bool
	}{
		{name: "empty", query: url.Values{}},
		{name: "start only", query: url.Values{"from": {"2024-01-01"}}, wantEnd: true},
		{name: "complete", query: url.Values{"from": {"2024-01-01"}, "to": {"2024-01-31"}}, wantComplete: true, wantEnd: true},
		{name: "same day", query: url.Values{"from": {"2024-01-01"}, "to": {"2024-01-01"}}, wantComplete: true, wantEnd: true},
		{name: "end without start", query: url.Values{"to": {"2024-01-31"}}, wantErr: core.ErrEndWithoutStart},
		{name: "end before start", query: url.Values{"from": {"2024-02-01"}, "to": {"2024-01-31"}}, wantErr: core.ErrEndBeforeStart},
		{name: "malformed", query: url.Values{"from": {"01/02/2024"}}, wantErr: core.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ParseRangeParams(tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if statusFor(err) != http.StatusUnprocessableEntity {
					t.Fatalf("statusFor(%v) = %d, want 422", err, statusFor(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rng.IsComplete() != tt.wantComplete {
				t.Errorf("IsComplete() = %v, want %v", rng.IsComplete(), tt.wantComplete)
			}
			if rng.EndEnabled() != tt.wantEnd {
				t.Errorf("EndEnabled() = %v, want %v", rng.EndEnabled(), tt.wantEnd)
			}
		})
	}
}

func TestRangeQuery(t *testing.T) {
	rng, _ := core.NewDateRange("2024-01-01", "2024-01-31")
	if got := rangeQuery(rng); got != "?from=2024-01-01&to=2024-01-31" {
		t.Errorf("rangeQuery() = %q", got)
	}
	if got := rangeQuery(core.DateRange{}); got != "" {
		t.Errorf("rangeQuery(empty) = %q, want empty", got)
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_GetAll(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        []string
	}{
		{
			name:        "repeated form field",
			body:        "issued_at=2024-03-01&amount=5&amount=3.5&amount=",
			contentType: "application/x-www-form-urlencoded",
			want:        []string{"5", "3.5", ""},
		},
		{
			name:        "json array",
			body:        `{"issued_at":"2024-03-01","amount":["5",3.5]}`,
			contentType: "application/json",
			want:        []string{"5", "3.5"},
		},
		{
			name:        "json scalar",
			body:        `{"amount":7}`,
			contentType: "application/json",
			want:        []string{"7"},
		},
		{
			name:        "missing",
			body:        `{"issued_at":"2024-03-01"}`,
			contentType: "application/json",
			want:        []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			p := NewRequestBodyParser(req)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got := p.GetAll("amount")
			if len(got) != len(tt.want) {
				t.Fatalf("GetAll() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("GetAll() = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestRequestBodyParser_AddRecordInput(t *testing.T) {
	body := "issued_at=2024-03-01&amount=5&amount=3&from=2024-01-01"
	req := httptest.NewRequest(http.MethodPost, "/restaurants/3/records", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	in := p.AddRecordInput(3, "u1")
	rec, err := in.Complete()
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if rec.RestaurantID != 3 || rec.UserID != "u1" || rec.IssuedAt.String() != "2024-03-01" {
		t.Fatalf("record = %+v", rec)
	}
	if len(rec.Amounts) != 2 {
		t.Fatalf("amounts = %v, want 2", rec.Amounts)
	}
	if v := p.Values().Get("from"); v != "2024-01-01" {
		t.Errorf("Values().Get(from) = %q", v)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/restaurants", strings.NewReader(`{"name":`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Da\x00 Mario\t "); got != "Da Mario" {
		t.Errorf("sanitizeInput() = %q, want %q", got, "Da Mario")
	}
}
