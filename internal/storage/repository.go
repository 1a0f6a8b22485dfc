// Package storage is the SQLite store backend.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scontrini/internal/core"
	"scontrini/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Backend = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens the database at dbPath, creating its directory
// and applying migrations.
func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := withPragmas(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger.With("component", "sqlite")}, nil
}

func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) InsertRestaurant(ctx context.Context, rest core.Restaurant) (core.Restaurant, error) {
	if err := rest.Validate(); err != nil {
		return core.Restaurant{}, store.Wrap("insert", store.Restaurants, err)
	}
	rest.Name = strings.TrimSpace(rest.Name)
	if rest.CreatedAt.IsZero() {
		rest.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO restaurants (user_id, name, created_at) VALUES (?, ?, ?)`,
		rest.UserID, rest.Name, rest.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Restaurant{}, store.Wrap("insert", store.Restaurants, err)
	}
	if rest.ID, err = res.LastInsertId(); err != nil {
		return core.Restaurant{}, store.Wrap("insert", store.Restaurants, err)
	}

	r.logger.InfoContext(ctx, "Restaurant saved to SQLite", "id", rest.ID, "user_id", rest.UserID)
	return rest, nil
}

func (r *SQLiteRepository) SelectRestaurants(ctx context.Context, q store.Query) ([]core.Restaurant, error) {
	if err := q.Validate(store.Restaurants, store.RestaurantFields...); err != nil {
		return nil, err
	}
	clause, args := q.SQL("")
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, name, created_at FROM restaurants`+clause, args...)
	if err != nil {
		return nil, store.Wrap("select", store.Restaurants, err)
	}
	defer rows.Close()

	var out []core.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, store.Wrap("select", store.Restaurants, err)
		}
		out = append(out, rest)
	}
	return out, store.Wrap("select", store.Restaurants, rows.Err())
}

func (r *SQLiteRepository) GetRestaurant(ctx context.Context, id int64) (core.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, name, created_at FROM restaurants WHERE id = ?`, id)
	rest, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Restaurant{}, store.NotFound(store.Restaurants, id)
	}
	if err != nil {
		return core.Restaurant{}, store.Wrap("get", store.Restaurants, err)
	}
	return rest, nil
}

func (r *SQLiteRepository) InsertRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, store.Wrap("insert", store.Records, err)
	}
	amounts, err := encodeAmounts(rec.Amounts)
	if err != nil {
		return core.Record{}, store.Wrap("insert", store.Records, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (user_id, restaurant_id, issued_at, amounts, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.RestaurantID, rec.IssuedAt.String(), amounts, now, now)
	if err != nil {
		return core.Record{}, wrapWrite("insert", err)
	}
	rec = rec.Clone()
	if rec.ID, err = res.LastInsertId(); err != nil {
		return core.Record{}, store.Wrap("insert", store.Records, err)
	}

	r.logger.InfoContext(ctx, "Record saved to SQLite",
		"id", rec.ID,
		"restaurant_id", rec.RestaurantID,
		"issued_at", rec.IssuedAt.String(),
		"amounts", len(rec.Amounts))
	return rec, nil
}

const recordColumns = `r.id, r.user_id, r.restaurant_id, r.issued_at, r.amounts`

func (r *SQLiteRepository) SelectRecords(ctx context.Context, q store.Query) ([]core.Record, error) {
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

func (r *SQLiteRepository) SelectRecordDetails(ctx context.Context, q store.Query) ([]core.RecordDetail, error) {
	return r.selectRecords(ctx, q, true)
}

func (r *SQLiteRepository) selectRecords(ctx context.Context, q store.Query, withNames bool) ([]core.RecordDetail, error) {
	if err := q.Validate(store.Records, store.RecordFields...); err != nil {
		return nil, err
	}
	clause, args := q.SQL("r.")
	query := `SELECT ` + recordColumns + `, '' FROM records r` + clause
	if withNames {
		query = `SELECT ` + recordColumns + `, s.name FROM records r JOIN restaurants s ON s.id = r.restaurant_id` + clause
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Wrap("select", store.Records, err)
	}
	defer rows.Close()

	var out []core.RecordDetail
	for rows.Next() {
		var (
			d        core.RecordDetail
			issuedAt string
			amounts  string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.RestaurantID, &issuedAt, &amounts, &d.RestaurantName); err != nil {
			return nil, store.Wrap("select", store.Records, err)
		}
		if d.IssuedAt, err = core.ParseDate(issuedAt); err != nil {
			return nil, store.Wrap("select", store.Records, err)
		}
		if d.Amounts, err = decodeAmounts(amounts); err != nil {
			return nil, store.Wrap("select", store.Records, err)
		}
		out = append(out, d)
	}
	return out, store.Wrap("select", store.Records, rows.Err())
}

func (r *SQLiteRepository) UpdateRecordAmounts(ctx context.Context, id int64, amounts []core.Amount) error {
	encoded, err := encodeAmounts(amounts)
	if err != nil {
		return store.Wrap("update", store.Records, err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET amounts = ?, updated_at = ? WHERE id = ?`,
		encoded, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return wrapWrite("update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &store.Error{Op: "update", Collection: store.Records, Message: fmt.Sprintf("id %d not found", id), Err: store.ErrNotFound}
	}

	r.logger.InfoContext(ctx, "Record amounts updated", "id", id, "amounts", len(amounts))
	return nil
}

func (r *SQLiteRepository) DeleteRecords(ctx context.Context, q store.Query) (int64, error) {
	if err := q.Validate(store.Records, store.RecordFields...); err != nil {
		return 0, err
	}
	// DELETE ... LIMIT needs a SQLite compile option; only filters apply.
	clause, args := q.WhereSQL("")

	res, err := r.db.ExecContext(ctx, `DELETE FROM records`+clause, args...)
	if err != nil {
		return 0, wrapWrite("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, store.Wrap("delete", store.Records, err)
	}
	r.logger.InfoContext(ctx, "Records deleted", "filter", q.String(), "count", n)
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(s scanner) (core.Restaurant, error) {
	var (
		rest    core.Restaurant
		created string
	)
	if err := s.Scan(&rest.ID, &rest.UserID, &rest.Name, &created); err != nil {
		return core.Restaurant{}, err
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		rest.CreatedAt = t
	}
	return rest, nil
}

func encodeAmounts(amounts []core.Amount) (string, error) {
	if amounts == nil {
		amounts = []core.Amount{}
	}
	b, err := json.Marshal(amounts)
	if err != nil {
		return "", fmt.Errorf("encode amounts: %w", err)
	}
	return string(b), nil
}

func decodeAmounts(s string) ([]core.Amount, error) {
	var amounts []core.Amount
	if err := json.Unmarshal([]byte(s), &amounts); err != nil {
		return nil, fmt.Errorf("decode amounts: %w", err)
	}
	return amounts, nil
}

func wrapWrite(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &store.Error{Op: op, Collection: store.Records, Message: msg, Err: store.ErrConflict}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &store.Error{Op: op, Collection: store.Records, Message: msg, Err: store.ErrNotFound}
	}
	return store.Wrap(op, store.Records, err)
}
