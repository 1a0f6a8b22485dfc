package services

import (
	"context"
	"fmt"

	"scontrini/internal/cache"
	"scontrini/internal/core"
)

// Queries serves reads through the query cache. Invalidated entries are
// reloaded in the background by the refetchers registered in NewQueries.
type Queries struct {
	cache       *cache.QueryClient
	restaurants *RestaurantService
	records     *RecordService
}

func NewQueries(qc *cache.QueryClient, restaurants *RestaurantService, records *RecordService) *Queries {
	q := &Queries{cache: qc, restaurants: restaurants, records: records}
	qc.RegisterRefetch(cache.NewKey(cache.FamilyRestaurants), q.refetchRestaurants)
	qc.RegisterRefetch(cache.NewKey(cache.FamilyRestaurant), q.refetchRestaurant)
	qc.RegisterRefetch(cache.NewKey(cache.FamilyRecords), q.refetchRecords)
	return q
}

// Cache returns the underlying query cache.
func (q *Queries) Cache() *cache.QueryClient {
	return q.cache
}

func (q *Queries) Restaurants(ctx context.Context, userID string) ([]core.Restaurant, error) {
	return cache.FetchTyped(ctx, q.cache, cache.RestaurantsKey(userID), func(ctx context.Context) ([]core.Restaurant, error) {
		return q.restaurants.List(ctx, userID)
	})
}

func (q *Queries) Restaurant(ctx context.Context, id int64) (core.Restaurant, error) {
	return cache.FetchTyped(ctx, q.cache, cache.RestaurantKey(id), func(ctx context.Context) (core.Restaurant, error) {
		return q.restaurants.Get(ctx, id)
	})
}

// Records returns the records of a restaurant. Incomplete ranges read the
// unfiltered entry, the one mutations patch.
func (q *Queries) Records(ctx context.Context, restaurantID int64, rng core.DateRange) ([]core.Record, error) {
	return cache.FetchTyped(ctx, q.cache, RecordsKeyFor(restaurantID, rng), func(ctx context.Context) ([]core.Record, error) {
		return q.records.ListRecords(ctx, restaurantID, rng)
	})
}

// AllRecords returns the records of every restaurant of userID grouped by
// issued date.
func (q *Queries) AllRecords(ctx context.Context, userID string, rng core.DateRange) (core.DateGroups, error) {
	return cache.FetchTyped(ctx, q.cache, AllRecordsKeyFor(userID, rng), func(ctx context.Context) (core.DateGroups, error) {
		return q.records.ListAllRecords(ctx, userID, rng)
	})
}

// RecordsKeyFor is the cache key of the records of a restaurant read with rng.
func RecordsKeyFor(restaurantID int64, rng core.DateRange) cache.Key {
	if !rng.IsComplete() {
		return cache.RecordsKey(restaurantID)
	}
	start, end := rng.Bounds()
	return cache.FilteredRecordsKey(restaurantID, start, end)
}

// AllRecordsKeyFor is the cache key of the grouped records of userID.
func AllRecordsKeyFor(userID string, rng core.DateRange) cache.Key {
	if !rng.IsComplete() {
		return cache.AllRecordsKey(userID, "", "")
	}
	start, end := rng.Bounds()
	return cache.AllRecordsKey(userID, start, end)
}

func (q *Queries) refetchRestaurants(ctx context.Context, key cache.Key) (any, error) {
	if len(key) != 2 {
		return nil, fmt.Errorf("unexpected restaurants key %s", key)
	}
	userID, ok := key[1].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected restaurants key %s", key)
	}
	return q.restaurants.List(ctx, userID)
}

func (q *Queries) refetchRestaurant(ctx context.Context, key cache.Key) (any, error) {
	if len(key) != 2 {
		return nil, fmt.Errorf("unexpected restaurant key %s", key)
	}
	id, ok := key[1].(int64)
	if !ok {
		return nil, fmt.Errorf("unexpected restaurant key %s", key)
	}
	return q.restaurants.Get(ctx, id)
}

func (q *Queries) refetchRecords(ctx context.Context, key cache.Key) (any, error) {
	switch {
	case len(key) == 5 && key[1] == "all":
		userID, _ := key[2].(string)
		rng, err := rangeFromKey(key[3], key[4])
		if err != nil {
			return nil, err
		}
		return q.records.ListAllRecords(ctx, userID, rng)
	case len(key) == 2 || len(key) == 4:
		id, ok := key[1].(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected records key %s", key)
		}
		var rng core.DateRange
		if len(key) == 4 {
			var err error
			if rng, err = rangeFromKey(key[2], key[3]); err != nil {
				return nil, err
			}
		}
		return q.records.ListRecords(ctx, id, rng)
	}
	return nil, fmt.Errorf("unexpected records key %s", key)
}

func rangeFromKey(start, end any) (core.DateRange, error) {
	s, _ := start.(string)
	e, _ := end.(string)
	rng, err := core.NewDateRange(s, e)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("decode range of cache key: %w", err)
	}
	return rng, nil
}
