package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("round trip: got %q", d.String())
	}
	for _, bad := range []string{"", "2024-13-01", "01/02/2024", "2024-02-30"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestRestaurantValidate(t *testing.T) {
	if err := (Restaurant{Name: "Trattoria"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Restaurant{Name: "   "}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	long := make([]byte, 121)
	for i := range long {
		long[i] = 'a'
	}
	if err := (Restaurant{Name: string(long)}).Validate(); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
}

func TestRecordValidateAndSubtotal(t *testing.T) {
	good := Record{RestaurantID: 1, IssuedAt: NewDate(2024, 1, 1), Amounts: []Amount{NewAmount(10), NewAmount(20)}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !good.Subtotal().Equal(NewAmount(30)) {
		t.Fatalf("subtotal = %s, want 30", good.Subtotal())
	}

	bads := []Record{
		{IssuedAt: NewDate(2024, 1, 1), Amounts: []Amount{NewAmount(1)}},
		{RestaurantID: 1, Amounts: []Amount{NewAmount(1)}},
		{RestaurantID: 1, IssuedAt: NewDate(2024, 1, 1)},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPlaceholderIDs(t *testing.T) {
	a, b := NewPlaceholderID(), NewPlaceholderID()
	if a == b {
		t.Fatalf("placeholder ids must be unique, got %d twice", a)
	}
	if !IsPlaceholderID(a) || !IsPlaceholderID(b) {
		t.Fatalf("expected placeholders, got %d and %d", a, b)
	}
	if IsPlaceholderID(42) {
		t.Fatalf("server id reported as placeholder")
	}
}

func TestCloneDoesNotShareAmounts(t *testing.T) {
	r := Record{Amounts: []Amount{NewAmount(1)}}
	c := r.Clone()
	c.Amounts[0] = NewAmount(99)
	if !r.Amounts[0].Equal(NewAmount(1)) {
		t.Fatalf("clone aliased the original amounts")
	}
}
