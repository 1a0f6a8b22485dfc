package core

import "strings"

// DateRange is an optional inclusive filter on issued dates.
// The end date is only meaningful once a start date exists and never
// precedes it; a range with neither bound set means "no filter".
type DateRange struct {
	Start *Date
	End   *Date
}

// NewDateRange builds a range from form values; empty strings are unset.
func NewDateRange(start, end string) (DateRange, error) {
	var r DateRange
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start != "" {
		d, err := ParseDate(start)
		if err != nil {
			return DateRange{}, err
		}
		r.Start = &d
	}
	if end != "" {
		if r.Start == nil {
			return DateRange{}, ErrEndWithoutStart
		}
		d, err := ParseDate(end)
		if err != nil {
			return DateRange{}, err
		}
		if d.Before(*r.Start) {
			return DateRange{}, ErrEndBeforeStart
		}
		r.End = &d
	}
	return r, nil
}

// IsEmpty reports whether neither bound is set.
func (r DateRange) IsEmpty() bool {
	return r.Start == nil && r.End == nil
}

// IsComplete reports whether both bounds are set. Only complete ranges
// filter queries.
func (r DateRange) IsComplete() bool {
	return r.Start != nil && r.End != nil
}

// EndEnabled reports whether an end date may be chosen yet.
func (r DateRange) EndEnabled() bool {
	return r.Start != nil
}

// EndMin is the smallest selectable end date, empty while start is unset.
func (r DateRange) EndMin() string {
	if r.Start == nil {
		return ""
	}
	return r.Start.String()
}

// StartMax is the largest selectable start date, empty while end is unset.
func (r DateRange) StartMax() string {
	if r.End == nil {
		return ""
	}
	return r.End.String()
}

// Contains reports whether d falls inside a complete range. Incomplete
// ranges contain every date.
func (r DateRange) Contains(d Date) bool {
	if !r.IsComplete() {
		return true
	}
	return !d.Before(*r.Start) && !r.End.Before(d)
}

// Bounds returns the formatted bounds, empty for unset ones.
func (r DateRange) Bounds() (start, end string) {
	if r.Start != nil {
		start = r.Start.String()
	}
	if r.End != nil {
		end = r.End.String()
	}
	return start, end
}
