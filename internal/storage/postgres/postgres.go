// Package postgres is the Postgres store backend, built on gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"scontrini/internal/core"
	"scontrini/internal/store"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
)

type restaurantRow struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (restaurantRow) TableName() string { return store.Restaurants }

type recordRow struct {
	ID           int64         `gorm:"primaryKey"`
	UserID       string        `gorm:"not null;index:idx_records_user_issued"`
	RestaurantID int64         `gorm:"not null;uniqueIndex:idx_records_restaurant_day"`
	Restaurant   restaurantRow `gorm:"constraint:OnDelete:CASCADE"`
	IssuedAt     time.Time     `gorm:"type:date;not null;uniqueIndex:idx_records_restaurant_day;index:idx_records_user_issued"`
	Amounts      []string      `gorm:"serializer:json;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (recordRow) TableName() string { return store.Records }

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.Backend = (*Repository)(nil)

// Open connects to dsn and migrates the schema.
func Open(dsn string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(defaultMaxOpenConns)
	sqlDB.SetMaxIdleConns(defaultMaxIdleConns)
	sqlDB.SetConnMaxLifetime(defaultConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := db.AutoMigrate(&restaurantRow{}, &recordRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("Connected to Postgres")
	return New(db, logger), nil
}

// New wraps an open gorm handle. The schema must already exist.
func New(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger.With("component", "postgres")}
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) InsertRestaurant(ctx context.Context, rest core.Restaurant) (core.Restaurant, error) {
	if err := rest.Validate(); err != nil {
		return core.Restaurant{}, store.Wrap("insert", store.Restaurants, err)
	}
	row := restaurantRow{UserID: rest.UserID, Name: strings.TrimSpace(rest.Name), CreatedAt: rest.CreatedAt}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Restaurant{}, store.Wrap("insert", store.Restaurants, err)
	}
	r.logger.InfoContext(ctx, "Restaurant saved to Postgres", "id", row.ID, "user_id", row.UserID)
	return row.toCore(), nil
}

func (r *Repository) SelectRestaurants(ctx context.Context, q store.Query) ([]core.Restaurant, error) {
	if err := q.Validate(store.Restaurants, store.RestaurantFields...); err != nil {
		return nil, err
	}
	var rows []restaurantRow
	if err := apply(r.db.WithContext(ctx), q, "").Find(&rows).Error; err != nil {
		return nil, store.Wrap("select", store.Restaurants, err)
	}
	out := make([]core.Restaurant, len(rows))
	for i, row := range rows {
		out[i] = row.toCore()
	}
	return out, nil
}

func (r *Repository) GetRestaurant(ctx context.Context, id int64) (core.Restaurant, error) {
	var row restaurantRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Restaurant{}, store.NotFound(store.Restaurants, id)
		}
		return core.Restaurant{}, store.Wrap("get", store.Restaurants, err)
	}
	return row.toCore(), nil
}

func (r *Repository) InsertRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, store.Wrap("insert", store.Records, err)
	}
	row := fromRecord(rec)
	if err := r.db.WithContext(ctx).Omit("Restaurant").Create(&row).Error; err != nil {
		return core.Record{}, wrapWrite("insert", err)
	}
	r.logger.InfoContext(ctx, "Record saved to Postgres",
		"id", row.ID,
		"restaurant_id", row.RestaurantID,
		"issued_at", rec.IssuedAt.String())
	return row.toCore()
}

func (r *Repository) SelectRecords(ctx context.Context, q store.Query) ([]core.Record, error) {
	details, err := r.selectRecords(ctx, q, false)
	if err != nil {
		return nil, err
	}
	out := make([]core.Record, len(details))
	for i, d := range details {
		out[i] = d.Record
	}
	return out, nil
}

func (r *Repository) SelectRecordDetails(ctx context.Context, q store.Query) ([]core.RecordDetail, error) {
	return r.selectRecords(ctx, q, true)
}

func (r *Repository) selectRecords(ctx context.Context, q store.Query, withNames bool) ([]core.RecordDetail, error) {
	if err := q.Validate(store.Records, store.RecordFields...); err != nil {
		return nil, err
	}
	tx := r.db.WithContext(ctx)
	prefix := ""
	if withNames {
		tx = tx.Joins("Restaurant")
		prefix = "records."
	}

	var rows []recordRow
	if err := apply(tx, q, prefix).Find(&rows).Error; err != nil {
		return nil, store.Wrap("select", store.Records, err)
	}
	out := make([]core.RecordDetail, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toCore()
		if err != nil {
			return nil, store.Wrap("select", store.Records, err)
		}
		out = append(out, core.RecordDetail{Record: rec, RestaurantName: row.Restaurant.Name})
	}
	return out, nil
}

func (r *Repository) UpdateRecordAmounts(ctx context.Context, id int64, amounts []core.Amount) error {
	res := r.db.WithContext(ctx).
		Model(&recordRow{ID: id}).
		Select("Amounts", "UpdatedAt").
		Updates(recordRow{Amounts: amountStrings(amounts), UpdatedAt: time.Now().UTC()})
	if res.Error != nil {
		return wrapWrite("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return &store.Error{Op: "update", Collection: store.Records, Message: fmt.Sprintf("id %d not found", id), Err: store.ErrNotFound}
	}
	r.logger.InfoContext(ctx, "Record amounts updated", "id", id, "amounts", len(amounts))
	return nil
}

func (r *Repository) DeleteRecords(ctx context.Context, q store.Query) (int64, error) {
	if err := q.Validate(store.Records, store.RecordFields...); err != nil {
		return 0, err
	}
	if len(q.Filters) == 0 {
		return 0, &store.Error{Op: "delete", Collection: store.Records, Message: "refusing to delete without filters"}
	}
	res := applyFilters(r.db.WithContext(ctx), q, "").Delete(&recordRow{})
	if res.Error != nil {
		return 0, wrapWrite("delete", res.Error)
	}
	r.logger.InfoContext(ctx, "Records deleted", "filter", q.String(), "count", res.RowsAffected)
	return res.RowsAffected, nil
}

func applyFilters(tx *gorm.DB, q store.Query, prefix string) *gorm.DB {
	for _, f := range q.Filters {
		tx = tx.Where(prefix+string(f.Field)+" "+f.Op.SQL()+" ?", value(f.Value))
	}
	return tx
}

func apply(tx *gorm.DB, q store.Query, prefix string) *gorm.DB {
	tx = applyFilters(tx, q, prefix)
	if q.Order != nil {
		dir := " DESC"
		if q.Order.Ascending {
			dir = " ASC"
		}
		tx = tx.Order(prefix + string(q.Order.Field) + dir)
	}
	tx = tx.Order(prefix + "id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

// value converts filter values for the date column.
func value(v any) any {
	if d, ok := v.(core.Date); ok {
		return d.Time
	}
	return v
}

func (row restaurantRow) toCore() core.Restaurant {
	return core.Restaurant{ID: row.ID, Name: row.Name, UserID: row.UserID, CreatedAt: row.CreatedAt}
}

func fromRecord(rec core.Record) recordRow {
	return recordRow{
		ID:           rec.ID,
		UserID:       rec.UserID,
		RestaurantID: rec.RestaurantID,
		IssuedAt:     rec.IssuedAt.Time,
		Amounts:      amountStrings(rec.Amounts),
	}
}

func (row recordRow) toCore() (core.Record, error) {
	rec := core.Record{
		ID:           row.ID,
		UserID:       row.UserID,
		RestaurantID: row.RestaurantID,
		IssuedAt:     core.NewDate(row.IssuedAt.Year(), int(row.IssuedAt.Month()), row.IssuedAt.Day()),
		Amounts:      make([]core.Amount, 0, len(row.Amounts)),
	}
	for _, s := range row.Amounts {
		a, err := core.ParseAmount(s)
		if err != nil {
			return core.Record{}, fmt.Errorf("record %d amount %q: %w", row.ID, s, err)
		}
		rec.Amounts = append(rec.Amounts, a)
	}
	return rec, nil
}

func amountStrings(amounts []core.Amount) []string {
	out := make([]string, len(amounts))
	for i, a := range amounts {
		out[i] = a.String()
	}
	return out
}

func wrapWrite(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &store.Error{Op: op, Collection: store.Records, Message: err.Error(), Err: store.ErrConflict}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &store.Error{Op: op, Collection: store.Records, Message: err.Error(), Err: store.ErrNotFound}
	}
	return store.Wrap(op, store.Records, err)
}
