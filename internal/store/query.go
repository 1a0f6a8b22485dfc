// Package store defines the persistence contract shared by the memory,
// SQLite and Postgres backends: collections of restaurants and records
// read with filtered, ordered queries.
package store

import (
	"cmp"
	"fmt"
	"strings"

	"scontrini/internal/core"
)

// Field names a filterable column.
type Field string

const (
	FieldID           Field = "id"
	FieldUserID       Field = "user_id"
	FieldName         Field = "name"
	FieldRestaurantID Field = "restaurant_id"
	FieldIssuedAt     Field = "issued_at"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

// SQL returns the SQL operator of op.
func (o Op) SQL() string {
	switch o {
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	default:
		return "="
	}
}

type (
	Filter struct {
		Field Field
		Op    Op
		Value any
	}

	Order struct {
		Field     Field
		Ascending bool
	}

	// Query selects rows of a collection. Every filter must hold.
	Query struct {
		Filters []Filter
		Order   *Order
		Limit   int
	}
)

func Eq(field Field, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

func Gte(field Field, value any) Filter {
	return Filter{Field: field, Op: OpGte, Value: value}
}

func Lte(field Field, value any) Filter {
	return Filter{Field: field, Op: OpLte, Value: value}
}

// Where starts a query with the given filters.
func Where(filters ...Filter) Query {
	return Query{Filters: filters}
}

// And returns q with more filters.
func (q Query) And(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

// OrderBy returns q sorted by field.
func (q Query) OrderBy(field Field, ascending bool) Query {
	q.Order = &Order{Field: field, Ascending: ascending}
	return q
}

// WithLimit returns q capped at n rows. Zero means no limit.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// InRange adds the inclusive bounds of r on the issued date. Incomplete
// ranges add nothing.
func (q Query) InRange(r core.DateRange) Query {
	if !r.IsComplete() {
		return q
	}
	return q.And(Gte(FieldIssuedAt, *r.Start), Lte(FieldIssuedAt, *r.End))
}

func (q Query) String() string {
	parts := make([]string, 0, len(q.Filters)+2)
	for _, f := range q.Filters {
		parts = append(parts, fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value))
	}
	if q.Order != nil {
		dir := "desc"
		if q.Order.Ascending {
			dir = "asc"
		}
		parts = append(parts, fmt.Sprintf("order %s %s", q.Order.Field, dir))
	}
	if q.Limit > 0 {
		parts = append(parts, fmt.Sprintf("limit %d", q.Limit))
	}
	return strings.Join(parts, ", ")
}

// Validate checks every field against the columns of a collection.
func (q Query) Validate(collection string, allowed ...Field) error {
	ok := func(f Field) bool {
		for _, a := range allowed {
			if a == f {
				return true
			}
		}
		return false
	}
	for _, f := range q.Filters {
		if !ok(f.Field) {
			return &Error{Op: "select", Collection: collection, Message: fmt.Sprintf("unknown field %q", f.Field)}
		}
		switch f.Op {
		case OpEq, OpGte, OpLte:
		default:
			return &Error{Op: "select", Collection: collection, Message: fmt.Sprintf("unknown operator %q", f.Op)}
		}
	}
	if q.Order != nil && !ok(q.Order.Field) {
		return &Error{Op: "select", Collection: collection, Message: fmt.Sprintf("unknown order field %q", q.Order.Field)}
	}
	return nil
}

// Match reports whether the row exposed by get satisfies the filter.
// Values of different kinds never match.
func (f Filter) Match(get func(Field) any) bool {
	c, ok := Compare(get(f.Field), f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpGte:
		return c >= 0
	case OpLte:
		return c <= 0
	default:
		return c == 0
	}
}

// Compare orders two filter values of the same kind.
func Compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case int64:
		y, ok := toInt64(b)
		return cmp.Compare(x, y), ok
	case int:
		y, ok := toInt64(b)
		return cmp.Compare(int64(x), y), ok
	case string:
		switch y := b.(type) {
		case string:
			return cmp.Compare(x, y), true
		case core.Date:
			return cmp.Compare(x, y.String()), true
		}
	case core.Date:
		switch y := b.(type) {
		case core.Date:
			return x.Compare(y.Time), true
		case string:
			return cmp.Compare(x.String(), y), true
		}
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	}
	return 0, false
}
