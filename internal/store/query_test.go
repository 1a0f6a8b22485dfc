package store

import (
	"errors"
	"reflect"
	"testing"

	"scontrini/internal/core"
)

func TestQuerySQL(t *testing.T) {
	rng, _ := core.NewDateRange("2024-01-01", "2024-01-31")
	q := Where(Eq(FieldRestaurantID, int64(3))).InRange(rng).OrderBy(FieldIssuedAt, true).WithLimit(10)

	clause, args := q.SQL("r.")
	want := " WHERE r.restaurant_id = ? AND r.issued_at >= ? AND r.issued_at <= ? ORDER BY r.issued_at ASC, r.id ASC LIMIT 10"
	if clause != want {
		t.Fatalf("clause = %q\nwant     %q", clause, want)
	}
	if !reflect.DeepEqual(args, []any{int64(3), "2024-01-01", "2024-01-31"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestInRangeIgnoresIncompleteRange(t *testing.T) {
	rng, _ := core.NewDateRange("2024-01-01", "")
	if q := Where().InRange(rng); len(q.Filters) != 0 {
		t.Fatalf("a half-filled range must not filter: %v", q)
	}
}

func TestAndDoesNotAlias(t *testing.T) {
	base := Where(Eq(FieldUserID, "u1"))
	a := base.And(Eq(FieldID, int64(1)))
	b := base.And(Eq(FieldID, int64(2)))
	if a.Filters[1].Value == b.Filters[1].Value {
		t.Fatal("queries built from the same base share filters")
	}
}

func TestFilterMatch(t *testing.T) {
	d := core.MustParseDate("2024-01-10")
	get := func(f Field) any {
		if f == FieldIssuedAt {
			return d
		}
		return int64(7)
	}
	cases := []struct {
		f    Filter
		want bool
	}{
		{Eq(FieldID, int64(7)), true},
		{Eq(FieldID, 7), true},
		{Eq(FieldID, "7"), false},
		{Gte(FieldIssuedAt, core.MustParseDate("2024-01-10")), true},
		{Lte(FieldIssuedAt, core.MustParseDate("2024-01-09")), false},
		{Gte(FieldIssuedAt, "2024-01-01"), true},
	}
	for i, tc := range cases {
		if got := tc.f.Match(get); got != tc.want {
			t.Fatalf("case %d: %v = %v, want %v", i, tc.f, got, tc.want)
		}
	}
}

func TestWrapKeepsStoreErrors(t *testing.T) {
	inner := &Error{Op: "get", Collection: Records, Message: "gone", Err: ErrNotFound}
	if Wrap("select", Records, inner) != error(inner) {
		t.Fatal("Wrap should not re-wrap a store error")
	}
	err := Wrap("insert", Restaurants, errors.New("disk full"))
	var se *Error
	if !errors.As(err, &se) || se.Message != "disk full" || se.Op != "insert" {
		t.Fatalf("err = %v", err)
	}
	if Wrap("x", "y", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}
