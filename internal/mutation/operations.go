package mutation

import (
	"context"

	"scontrini/internal/cache"
	"scontrini/internal/core"
)

// RestaurantCreator persists new restaurants.
type RestaurantCreator interface {
	Create(ctx context.Context, r core.Restaurant) (core.Restaurant, error)
}

// RecordWriter persists record changes.
type RecordWriter interface {
	AddRecord(ctx context.Context, rec core.Record) (core.Record, error)
	DeleteRecord(ctx context.Context, restaurantID, recordID int64) error
}

// AddRestaurant appends a placeholder restaurant to the user's list.
type AddRestaurant struct {
	Store RestaurantCreator
}

func (AddRestaurant) Name() string { return "add_restaurant" }

func (AddRestaurant) Key(in core.Restaurant) cache.Key {
	return cache.RestaurantsKey(in.UserID)
}

func (AddRestaurant) Apply(prev []core.Restaurant, in core.Restaurant) []core.Restaurant {
	placeholder := in
	placeholder.ID = core.NewPlaceholderID()
	next := make([]core.Restaurant, 0, len(prev)+1)
	next = append(next, prev...)
	return append(next, placeholder)
}

func (m AddRestaurant) Execute(ctx context.Context, in core.Restaurant) error {
	_, err := m.Store.Create(ctx, in)
	return err
}

func (AddRestaurant) Messages() Messages {
	return Messages{Success: "Restaurant successfully added", Failure: "Something went wrong"}
}

// AddRecord merges a submission into the cached records of its restaurant.
type AddRecord struct {
	Store RecordWriter
}

func (AddRecord) Name() string { return "add_record" }

func (AddRecord) Key(in core.Record) cache.Key {
	return cache.RecordsKey(in.RestaurantID)
}

func (AddRecord) Apply(prev []core.Record, in core.Record) []core.Record {
	return core.ResolveAdd(prev, in).Records
}

func (m AddRecord) Execute(ctx context.Context, in core.Record) error {
	_, err := m.Store.AddRecord(ctx, in)
	return err
}

func (AddRecord) Messages() Messages {
	return Messages{Success: "Record successfully added", Failure: "Something went wrong"}
}

// DeleteRecordInput identifies the record to delete.
type DeleteRecordInput struct {
	RestaurantID int64
	RecordID     int64
}

// DeleteRecord removes a record from the cached records of its restaurant.
type DeleteRecord struct {
	Store RecordWriter
}

func (DeleteRecord) Name() string { return "delete_record" }

func (DeleteRecord) Key(in DeleteRecordInput) cache.Key {
	return cache.RecordsKey(in.RestaurantID)
}

func (DeleteRecord) Apply(prev []core.Record, in DeleteRecordInput) []core.Record {
	next := make([]core.Record, 0, len(prev))
	for _, rec := range prev {
		if rec.ID != in.RecordID {
			next = append(next, rec)
		}
	}
	return next
}

func (m DeleteRecord) Execute(ctx context.Context, in DeleteRecordInput) error {
	return m.Store.DeleteRecord(ctx, in.RestaurantID, in.RecordID)
}

func (DeleteRecord) Messages() Messages {
	return Messages{Success: "Record deleted", Failure: "Something went wrong"}
}
