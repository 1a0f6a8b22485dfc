package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scontrini/internal/amqp"
	"scontrini/internal/core"
	applog "scontrini/internal/log"
	"scontrini/internal/store"
)

// Publisher sends record events to the mirror sync queue.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, e amqp.RecordEvent) error
}

// RecordService reads and writes records, publishing an event after every
// successful write. The publisher is optional; pass a nil interface to
// disable events.
type RecordService struct {
	store     store.RecordStore
	publisher Publisher
	logger    *slog.Logger
}

func NewRecordService(st store.RecordStore, publisher Publisher, logger *slog.Logger) *RecordService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService{
		store:     st,
		publisher: publisher,
		logger:    logger.With(applog.FieldComponent, applog.ComponentRecords),
	}
}

// AddRecord merges rec into the record of the same restaurant and date
// when one exists, and inserts it otherwise. The stored record is returned.
func (s *RecordService) AddRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}

	saved, merged, err := s.addRecord(ctx, rec)
	if errors.Is(err, store.ErrConflict) {
		// Another writer inserted the same day first; merge into it.
		s.logger.DebugContext(ctx, "Insert conflicted, retrying as merge",
			applog.FieldRestaurantID, rec.RestaurantID,
			applog.FieldIssuedAt, rec.IssuedAt.String())
		saved, merged, err = s.addRecord(ctx, rec)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}

	fields := applog.NewFields().
		WithRecord(saved.RestaurantID, saved.ID, saved.IssuedAt.String(), len(saved.Amounts)).
		WithOperation(applog.OpCreate).
		ToSlice()
	fields = append(fields, applog.FieldMerged, merged)
	s.logger.InfoContext(ctx, "Record saved", fields...)

	s.publish(ctx, amqp.RecordSaved, saved)
	return saved, nil
}

func (s *RecordService) addRecord(ctx context.Context, rec core.Record) (core.Record, bool, error) {
	q := store.Where(
		store.Eq(store.FieldRestaurantID, rec.RestaurantID),
		store.Eq(store.FieldIssuedAt, rec.IssuedAt),
	).WithLimit(1)
	existing, err := s.store.SelectRecords(ctx, q)
	if err != nil {
		return core.Record{}, false, err
	}

	res := core.ResolveAdd(existing, rec)
	saved := res.Records[res.Index]
	if res.Merged {
		if err := s.store.UpdateRecordAmounts(ctx, saved.ID, saved.Amounts); err != nil {
			return core.Record{}, false, err
		}
		return saved, true, nil
	}

	saved.ID = 0
	inserted, err := s.store.InsertRecord(ctx, saved)
	if err != nil {
		return core.Record{}, false, err
	}
	return inserted, false, nil
}

// DeleteRecord removes record id of restaurantID.
func (s *RecordService) DeleteRecord(ctx context.Context, restaurantID, id int64) error {
	q := store.Where(
		store.Eq(store.FieldID, id),
		store.Eq(store.FieldRestaurantID, restaurantID),
	)
	n, err := s.store.DeleteRecords(ctx, q)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete record: %w", store.NotFound(store.Records, id))
	}

	s.logger.InfoContext(ctx, "Record deleted",
		applog.FieldRestaurantID, restaurantID,
		applog.FieldRecordID, id)
	s.publish(ctx, amqp.RecordDeleted, core.Record{ID: id, RestaurantID: restaurantID})
	return nil
}

// ListRecords returns the records of a restaurant ordered by issued date.
// Only a complete range filters.
func (s *RecordService) ListRecords(ctx context.Context, restaurantID int64, rng core.DateRange) ([]core.Record, error) {
	q := store.Where(store.Eq(store.FieldRestaurantID, restaurantID)).
		InRange(rng).
		OrderBy(store.FieldIssuedAt, true)
	records, err := s.store.SelectRecords(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list records of restaurant %d: %w", restaurantID, err)
	}
	return records, nil
}

// ListAllRecords returns the records of every restaurant of userID grouped
// by issued date, oldest date first.
func (s *RecordService) ListAllRecords(ctx context.Context, userID string, rng core.DateRange) (core.DateGroups, error) {
	q := store.Where(store.Eq(store.FieldUserID, userID)).
		InRange(rng).
		OrderBy(store.FieldIssuedAt, true)
	details, err := s.store.SelectRecordDetails(ctx, q)
	if err != nil {
		return core.DateGroups{}, fmt.Errorf("list all records: %w", err)
	}
	return core.GroupByDate(details), nil
}

// GetRecordDetail returns one record joined with its restaurant name.
func (s *RecordService) GetRecordDetail(ctx context.Context, id int64) (core.RecordDetail, error) {
	details, err := s.store.SelectRecordDetails(ctx, store.Where(store.Eq(store.FieldID, id)).WithLimit(1))
	if err != nil {
		return core.RecordDetail{}, fmt.Errorf("get record %d: %w", id, err)
	}
	if len(details) == 0 {
		return core.RecordDetail{}, store.NotFound(store.Records, id)
	}
	return details[0], nil
}

// AllRecordDetails returns every stored record ordered by id.
func (s *RecordService) AllRecordDetails(ctx context.Context) ([]core.RecordDetail, error) {
	details, err := s.store.SelectRecordDetails(ctx, store.Query{}.OrderBy(store.FieldID, true))
	if err != nil {
		return nil, fmt.Errorf("list record details: %w", err)
	}
	return details, nil
}

// publish never fails the write; the record is already stored.
func (s *RecordService) publish(ctx context.Context, typ amqp.EventType, rec core.Record) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping record event", "type", typ)
		return
	}
	if err := s.publisher.PublishRecordEvent(ctx, amqp.NewRecordEvent(typ, rec)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record event",
			"type", typ,
			applog.FieldRecordID, rec.ID,
			applog.FieldError, err)
	}
}
