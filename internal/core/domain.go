package core

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// DateLayout is the wire and storage format of issued dates.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	Restaurant struct {
		ID        int64
		Name      string
		UserID    string
		CreatedAt time.Time
	}

	// Record is one expense entry for a restaurant on a given day.
	// At most one record exists per (RestaurantID, IssuedAt).
	Record struct {
		ID           int64
		UserID       string
		RestaurantID int64
		IssuedAt     Date
		Amounts      []Amount
	}

	// RecordDetail is a record joined with the name of its restaurant.
	RecordDetail struct {
		Record
		RestaurantName string
	}
)

var (
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty restaurant name")
	ErrNameTooLong     = errors.New("restaurant name too long (max 120 characters)")
	ErrNoRestaurant    = errors.New("missing restaurant")
	ErrNoAmounts       = errors.New("at least one amount is required")
	ErrMissingDate     = errors.New("missing date")
	ErrEndWithoutStart = errors.New("end date requires a start date")
	ErrEndBeforeStart  = errors.New("end date must not precede start date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// MustParseDate is ParseDate for literals; it panics on malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// Equal reports whether both dates denote the same day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (r Restaurant) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 120 {
		return ErrNameTooLong
	}
	return nil
}

func (r Record) Validate() error {
	if r.RestaurantID == 0 {
		return ErrNoRestaurant
	}
	if err := r.IssuedAt.Validate(); err != nil {
		return err
	}
	if len(r.Amounts) == 0 {
		return ErrNoAmounts
	}
	return nil
}

// Subtotal returns the sum of the record amounts.
func (r Record) Subtotal() Amount {
	return Sum(r.Amounts)
}

// Clone returns a copy of the record that shares no amount storage with r.
func (r Record) Clone() Record {
	r.Amounts = append([]Amount(nil), r.Amounts...)
	return r
}

var placeholderSeq atomic.Int64

// NewPlaceholderID returns a locally unique negative identifier for entries
// that have not been confirmed by the store yet.
func NewPlaceholderID() int64 {
	return -placeholderSeq.Add(1)
}

// IsPlaceholderID reports whether id was produced by NewPlaceholderID.
func IsPlaceholderID(id int64) bool {
	return id < 0
}
