package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"scontrini/internal/core"
	"scontrini/internal/store"
)

// HeaderUserID carries the id of the authenticated user, set by the
// fronting proxy.
const HeaderUserID = "X-User-ID"

// userIDFrom returns the requesting user, falling back to the configured
// default for single-user deployments.
func (s *Server) userIDFrom(r *http.Request) string {
	if id := sanitizeInput(r.Header.Get(HeaderUserID)); id != "" {
		return id
	}
	return s.defaultUserID
}

// pathID parses the named chi URL parameter as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	return ParseID(chi.URLParam(r, name))
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// isValidationError reports whether err describes unusable user input.
func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrZeroDate, core.ErrInvalidDate, core.ErrEmptyName, core.ErrNameTooLong,
		core.ErrNoRestaurant, core.ErrNoAmounts, core.ErrMissingDate,
		core.ErrEndWithoutStart, core.ErrEndBeforeStart,
		core.ErrInvalidAmount, core.ErrIncompleteAmount, ErrInvalidID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// rangeQuery re-encodes a range for links and hidden form fields.
func rangeQuery(rng core.DateRange) string {
	start, end := rng.Bounds()
	if start == "" && end == "" {
		return ""
	}
	q := make([]string, 0, 2)
	if start != "" {
		q = append(q, "from="+start)
	}
	if end != "" {
		q = append(q, "to="+end)
	}
	return "?" + strings.Join(q, "&")
}
