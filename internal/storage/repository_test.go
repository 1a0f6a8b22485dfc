package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"scontrini/internal/core"
	"scontrini/internal/store"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "scontrini.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func amounts(vals ...string) []core.Amount {
	out := make([]core.Amount, len(vals))
	for i, v := range vals {
		out[i] = core.MustParseAmount(v)
	}
	return out
}

func TestSQLiteRestaurantRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	created, err := repo.InsertRestaurant(ctx, core.Restaurant{Name: " Da Mario ", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.Name != "Da Mario" {
		t.Fatalf("unexpected restaurant: %+v", created)
	}

	got, err := repo.GetRestaurant(ctx, created.ID)
	if err != nil || got.Name != "Da Mario" || got.CreatedAt.IsZero() {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := repo.GetRestaurant(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	list, err := repo.SelectRestaurants(ctx, store.Where(store.Eq(store.FieldUserID, "u2")))
	if err != nil || len(list) != 0 {
		t.Fatalf("other users should see nothing: %v %v", list, err)
	}
}

func TestSQLiteRecords(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	rest, err := repo.InsertRestaurant(ctx, core.Restaurant{Name: "Roma", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}

	for _, d := range []string{"2024-01-03", "2024-01-01"} {
		if _, err := repo.InsertRecord(ctx, core.Record{
			UserID:       "u1",
			RestaurantID: rest.ID,
			IssuedAt:     core.MustParseDate(d),
			Amounts:      amounts("12.50", "3"),
		}); err != nil {
			t.Fatal(err)
		}
	}

	_, err = repo.InsertRecord(ctx, core.Record{
		UserID:       "u1",
		RestaurantID: rest.ID,
		IssuedAt:     core.MustParseDate("2024-01-01"),
		Amounts:      amounts("1"),
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate date err = %v, want conflict", err)
	}

	q := store.Where(store.Eq(store.FieldRestaurantID, rest.ID)).OrderBy(store.FieldIssuedAt, true)
	recs, err := repo.SelectRecords(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].IssuedAt.String() != "2024-01-01" {
		t.Fatalf("unexpected order: %+v", recs)
	}
	if recs[0].Subtotal().String() != "15.5" {
		t.Fatalf("amounts did not round trip: %v", recs[0].Amounts)
	}

	if err := repo.UpdateRecordAmounts(ctx, recs[0].ID, amounts("12.50", "3", "4")); err != nil {
		t.Fatal(err)
	}
	details, err := repo.SelectRecordDetails(ctx, store.Where(store.Eq(store.FieldID, recs[0].ID)))
	if err != nil || len(details) != 1 {
		t.Fatalf("details = %v, %v", details, err)
	}
	if details[0].RestaurantName != "Roma" || len(details[0].Amounts) != 3 {
		t.Fatalf("unexpected detail: %+v", details[0])
	}

	rng, _ := core.NewDateRange("2024-01-02", "2024-01-31")
	n, err := repo.DeleteRecords(ctx, store.Where(store.Eq(store.FieldRestaurantID, rest.ID)).InRange(rng))
	if err != nil || n != 1 {
		t.Fatalf("deleted %d, err %v", n, err)
	}
}

func TestSQLiteRecordNeedsRestaurant(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.InsertRecord(context.Background(), core.Record{
		RestaurantID: 42,
		IssuedAt:     core.MustParseDate("2024-01-01"),
		Amounts:      amounts("1"),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
