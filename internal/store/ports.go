package store

import (
	"context"

	"scontrini/internal/core"
)

// Collection names.
const (
	Restaurants = "restaurants"
	Records     = "records"
)

// Filterable fields per collection.
var (
	RestaurantFields = []Field{FieldID, FieldUserID, FieldName}
	RecordFields     = []Field{FieldID, FieldUserID, FieldRestaurantID, FieldIssuedAt}
)

// Ports implemented by every backend.
type (
	RestaurantStore interface {
		InsertRestaurant(ctx context.Context, r core.Restaurant) (core.Restaurant, error)
		SelectRestaurants(ctx context.Context, q Query) ([]core.Restaurant, error)
		GetRestaurant(ctx context.Context, id int64) (core.Restaurant, error)
	}

	RecordStore interface {
		InsertRecord(ctx context.Context, rec core.Record) (core.Record, error)
		SelectRecords(ctx context.Context, q Query) ([]core.Record, error)
		// SelectRecordDetails is SelectRecords joined with restaurant names.
		SelectRecordDetails(ctx context.Context, q Query) ([]core.RecordDetail, error)
		UpdateRecordAmounts(ctx context.Context, id int64, amounts []core.Amount) error
		// DeleteRecords removes the matching records and returns how many.
		DeleteRecords(ctx context.Context, q Query) (int64, error)
	}

	Backend interface {
		RestaurantStore
		RecordStore
		Ping(ctx context.Context) error
		Close() error
	}
)
