// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// path ids, date-range filters and the add-record form, which may arrive as
// JSON or form-encoded from HTMX.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scontrini/internal/core"
)

// ErrInvalidID is returned for path ids that are not positive integers.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a positive path id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// ParseRangeParams reads the from/to filter. Empty values are unset; an
// end without a start or an end before the start is rejected.
func ParseRangeParams(values url.Values) (core.DateRange, error) {
	return core.NewDateRange(sanitizeInput(values.Get("from")), sanitizeInput(values.Get("to")))
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetAll returns every value of a repeated field: a JSON array, a single
// JSON scalar, or each occurrence of a form key.
func (p *RequestBodyParser) GetAll(key string) []string {
	var raw []string
	switch {
	case p.jsonData != nil:
		switch val := p.jsonData[key].(type) {
		case nil:
		case []any:
			for _, v := range val {
				raw = append(raw, stringValue(v))
			}
		default:
			raw = append(raw, stringValue(val))
		}
	case p.formData != nil:
		raw = p.formData[key]
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, sanitizeInput(v))
	}
	return out
}

// Values returns the parsed fields as url.Values, keeping the first value
// of JSON arrays.
func (p *RequestBodyParser) Values() url.Values {
	if p.jsonData == nil {
		if p.formData == nil {
			return url.Values{}
		}
		return p.formData
	}
	v := url.Values{}
	for key := range p.jsonData {
		v[key] = p.GetAll(key)
	}
	return v
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// AddRecordInput reads the add-record form. Empty amount rows are kept so
// that the form is reported as incomplete rather than silently shortened.
func (p *RequestBodyParser) AddRecordInput(restaurantID int64, userID string) core.AddRecordInput {
	return core.AddRecordInput{
		RestaurantID: restaurantID,
		UserID:       userID,
		IssuedAt:     p.Get("issued_at"),
		Amounts:      p.GetAll("amount"),
	}
}

// AddRestaurantInput reads the add-restaurant form.
func (p *RequestBodyParser) AddRestaurantInput(userID string) core.AddRestaurantInput {
	return core.AddRestaurantInput{Name: p.Get("name"), UserID: userID}
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
