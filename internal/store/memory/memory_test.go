package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scontrini/internal/core"
	"scontrini/internal/store"
)

func seed(t *testing.T) (*Store, core.Restaurant) {
	t.Helper()
	s := New()
	r, err := s.InsertRestaurant(context.Background(), core.Restaurant{Name: "Da Mario", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{"2024-01-03", "2024-01-01", "2024-01-02"} {
		if _, err := s.InsertRecord(context.Background(), core.Record{
			RestaurantID: r.ID,
			UserID:       "u1",
			IssuedAt:     core.MustParseDate(d),
			Amounts:      []core.Amount{core.NewAmount(5)},
		}); err != nil {
			t.Fatal(err)
		}
	}
	return s, r
}

func TestSelectRecordsFilterAndOrder(t *testing.T) {
	s, r := seed(t)
	rng, _ := core.NewDateRange("2024-01-02", "2024-01-03")
	q := store.Where(store.Eq(store.FieldRestaurantID, r.ID)).
		InRange(rng).
		OrderBy(store.FieldIssuedAt, true)

	got, err := s.SelectRecords(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].IssuedAt.String() != "2024-01-02" || got[1].IssuedAt.String() != "2024-01-03" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestInsertRecordConflict(t *testing.T) {
	s, r := seed(t)
	_, err := s.InsertRecord(context.Background(), core.Record{
		RestaurantID: r.ID,
		IssuedAt:     core.MustParseDate("2024-01-01"),
		Amounts:      []core.Amount{core.NewAmount(1)},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s, r := seed(t)
	recs, _ := s.SelectRecords(context.Background(), store.Where(store.Eq(store.FieldIssuedAt, core.MustParseDate("2024-01-01"))))
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	id := recs[0].ID
	if err := s.UpdateRecordAmounts(context.Background(), id, []core.Amount{core.NewAmount(5), core.NewAmount(3)}); err != nil {
		t.Fatal(err)
	}
	details, _ := s.SelectRecordDetails(context.Background(), store.Where(store.Eq(store.FieldID, id)))
	if len(details) != 1 || details[0].RestaurantName != "Da Mario" || len(details[0].Amounts) != 2 {
		t.Fatalf("unexpected details: %+v", details)
	}

	n, err := s.DeleteRecords(context.Background(), store.Where(store.Eq(store.FieldRestaurantID, r.ID), store.Eq(store.FieldID, id)))
	if err != nil || n != 1 {
		t.Fatalf("deleted %d, err %v", n, err)
	}
	if err := s.UpdateRecordAmounts(context.Background(), id, nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUnknownFieldIsRejected(t *testing.T) {
	s := New()
	_, err := s.SelectRestaurants(context.Background(), store.Where(store.Eq(store.FieldIssuedAt, "x")))
	var se *store.Error
	if !errors.As(err, &se) || se.Collection != store.Restaurants {
		t.Fatalf("err = %v", err)
	}
}

func TestFailInjection(t *testing.T) {
	s, r := seed(t)
	s.Fail = errors.New("connection refused")
	err := s.UpdateRecordAmounts(context.Background(), 1, nil)
	var se *store.Error
	if !errors.As(err, &se) || se.Message != "connection refused" {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.GetRestaurant(context.Background(), r.ID); err != nil {
		t.Fatalf("reads should keep working: %v", err)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	if got, _ := NewFromFiles(dir, "u1").SelectRestaurants(context.Background(), store.Query{}); len(got) != 0 {
		t.Fatalf("expected no restaurants without a seed file, got %d", len(got))
	}

	content := "# header\nDa Mario\nRoma\nDa Mario\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_restaurants.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromFiles(dir, "u1")
	got, _ := s.SelectRestaurants(context.Background(), store.Where(store.Eq(store.FieldUserID, "u1")).OrderBy(store.FieldID, true))
	if len(got) != 2 || got[0].Name != "Da Mario" || got[1].Name != "Roma" {
		t.Fatalf("unexpected restaurants: %+v", got)
	}
}
