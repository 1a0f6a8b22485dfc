package services

import (
	"context"
	"testing"

	"scontrini/internal/cache"
	"scontrini/internal/core"
	"scontrini/internal/store/memory"
)

func newTestQueries(st *memory.Store) *Queries {
	qc := cache.NewQueryClient(cache.QueryClientConfig{})
	return NewQueries(qc, NewRestaurantService(st, nil), NewRecordService(st, nil, nil))
}

func TestQueries_RecordsServedFromCache(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	r := newRestaurant(t, st, "Trattoria", "u1")
	q := newTestQueries(st)

	if _, err := st.InsertRecord(ctx, record(r.ID, "u1", "2024-03-01", "5")); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	first, err := q.Records(ctx, r.ID, core.DateRange{})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if _, err := st.InsertRecord(ctx, record(r.ID, "u1", "2024-03-02", "5")); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	second, err := q.Records(ctx, r.ID, core.DateRange{})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected the cached single record, got %d then %d", len(first), len(second))
	}
}

func TestQueries_InvalidationRefetches(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	r := newRestaurant(t, st, "Trattoria", "u1")
	q := newTestQueries(st)

	start := core.MustParseDate("2024-01-01")
	end := core.MustParseDate("2024-12-31")
	ranged := core.DateRange{Start: &start, End: &end}

	if _, err := q.Records(ctx, r.ID, core.DateRange{}); err != nil {
		t.Fatalf("Records: %v", err)
	}
	if _, err := q.Records(ctx, r.ID, ranged); err != nil {
		t.Fatalf("Records: %v", err)
	}
	if _, err := q.AllRecords(ctx, "u1", core.DateRange{}); err != nil {
		t.Fatalf("AllRecords: %v", err)
	}
	if _, err := q.Restaurants(ctx, "u1"); err != nil {
		t.Fatalf("Restaurants: %v", err)
	}

	if _, err := st.InsertRecord(ctx, record(r.ID, "u1", "2024-03-01", "5")); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if _, err := st.InsertRestaurant(ctx, core.Restaurant{Name: "Osteria", UserID: "u1"}); err != nil {
		t.Fatalf("InsertRestaurant: %v", err)
	}

	if n := q.Cache().InvalidateQueries(cache.NewKey(cache.FamilyRecords)); n != 3 {
		t.Fatalf("invalidated %d record entries, want 3", n)
	}
	q.Cache().InvalidateQueries(cache.NewKey(cache.FamilyRestaurants))
	q.Cache().Wait()

	for _, key := range []cache.Key{RecordsKeyFor(r.ID, core.DateRange{}), RecordsKeyFor(r.ID, ranged)} {
		records, ok := cache.GetTyped[[]core.Record](q.Cache(), key)
		if !ok || len(records) != 1 {
			t.Fatalf("%s: refetched %d records (cached %v), want 1", key, len(records), ok)
		}
		if q.Cache().IsStale(key) {
			t.Fatalf("%s still stale after refetch", key)
		}
	}
	groups, ok := cache.GetTyped[core.DateGroups](q.Cache(), AllRecordsKeyFor("u1", core.DateRange{}))
	if !ok || groups.Len() != 1 {
		t.Fatalf("all records not refetched: %v %d", ok, groups.Len())
	}
	restaurants, ok := cache.GetTyped[[]core.Restaurant](q.Cache(), cache.RestaurantsKey("u1"))
	if !ok || len(restaurants) != 2 {
		t.Fatalf("restaurants not refetched: %v %d", ok, len(restaurants))
	}
}

func TestRecordsKeyFor(t *testing.T) {
	start := core.MustParseDate("2024-01-01")
	end := core.MustParseDate("2024-01-31")

	tests := []struct {
		name string
		rng  core.DateRange
		want cache.Key
	}{
		{name: "empty", rng: core.DateRange{}, want: cache.RecordsKey(4)},
		{name: "incomplete", rng: core.DateRange{Start: &start}, want: cache.RecordsKey(4)},
		{name: "complete", rng: core.DateRange{Start: &start, End: &end}, want: cache.NewKey("records", 4, "2024-01-01", "2024-01-31")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecordsKeyFor(4, tt.rng); got.String() != tt.want.String() {
				t.Fatalf("RecordsKeyFor = %s, want %s", got, tt.want)
			}
		})
	}
}
