// Package memory is an in-process store backend for development and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"scontrini/internal/core"
	"scontrini/internal/store"
)

// Store keeps restaurants and records in maps guarded by a mutex.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	restaurants map[int64]core.Restaurant
	records     map[int64]core.Record
	// Fail, when set, makes every write return it. Tests use it to
	// exercise rollbacks.
	Fail error
}

var _ store.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		restaurants: make(map[int64]core.Restaurant),
		records:     make(map[int64]core.Record),
	}
}

// NewFromFiles seeds the restaurants of userID from base/seed_restaurants.txt,
// one name per line. Blank lines, comments and duplicates are skipped.
func NewFromFiles(base, userID string) *Store {
	s := New()
	for _, name := range readLines(filepath.Join(base, "seed_restaurants.txt")) {
		s.InsertRestaurant(context.Background(), core.Restaurant{Name: name, UserID: userID})
	}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) InsertRestaurant(_ context.Context, r core.Restaurant) (core.Restaurant, error) {
	if err := r.Validate(); err != nil {
		return core.Restaurant{}, store.Wrap("insert", store.Restaurants, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return core.Restaurant{}, store.Wrap("insert", store.Restaurants, s.Fail)
	}
	r.ID = s.id()
	r.Name = strings.TrimSpace(r.Name)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.restaurants[r.ID] = r
	return r, nil
}

func (s *Store) SelectRestaurants(_ context.Context, q store.Query) ([]core.Restaurant, error) {
	if err := q.Validate(store.Restaurants, store.RestaurantFields...); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Restaurant
	for _, r := range s.restaurants {
		if matchAll(q, restaurantField(r)) {
			out = append(out, r)
		}
	}
	sortRows(out, q, restaurantField, func(r core.Restaurant) int64 { return r.ID })
	return limit(out, q.Limit), nil
}

func (s *Store) GetRestaurant(_ context.Context, id int64) (core.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[id]
	if !ok {
		return core.Restaurant{}, store.NotFound(store.Restaurants, id)
	}
	return r, nil
}

func (s *Store) InsertRecord(_ context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, store.Wrap("insert", store.Records, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return core.Record{}, store.Wrap("insert", store.Records, s.Fail)
	}
	if _, ok := s.restaurants[rec.RestaurantID]; !ok {
		return core.Record{}, &store.Error{Op: "insert", Collection: store.Records,
			Message: fmt.Sprintf("restaurant %d does not exist", rec.RestaurantID), Err: store.ErrNotFound}
	}
	for _, existing := range s.records {
		if existing.RestaurantID == rec.RestaurantID && existing.IssuedAt.Equal(rec.IssuedAt) {
			return core.Record{}, &store.Error{Op: "insert", Collection: store.Records,
				Message: "a record already exists for this restaurant and date", Err: store.ErrConflict}
		}
	}
	rec = rec.Clone()
	rec.ID = s.id()
	s.records[rec.ID] = rec
	return rec.Clone(), nil
}

func (s *Store) SelectRecords(_ context.Context, q store.Query) ([]core.Record, error) {
	if err := q.Validate(store.Records, store.RecordFields...); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectRecords(q), nil
}

func (s *Store) selectRecords(q store.Query) []core.Record {
	var out []core.Record
	for _, rec := range s.records {
		if matchAll(q, recordField(rec)) {
			out = append(out, rec.Clone())
		}
	}
	sortRows(out, q, recordField, func(r core.Record) int64 { return r.ID })
	return limit(out, q.Limit)
}

func (s *Store) SelectRecordDetails(_ context.Context, q store.Query) ([]core.RecordDetail, error) {
	if err := q.Validate(store.Records, store.RecordFields...); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.selectRecords(q)
	out := make([]core.RecordDetail, len(records))
	for i, rec := range records {
		out[i] = core.RecordDetail{Record: rec, RestaurantName: s.restaurants[rec.RestaurantID].Name}
	}
	return out, nil
}

func (s *Store) UpdateRecordAmounts(_ context.Context, id int64, amounts []core.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return store.Wrap("update", store.Records, s.Fail)
	}
	rec, ok := s.records[id]
	if !ok {
		return &store.Error{Op: "update", Collection: store.Records, Message: fmt.Sprintf("id %d not found", id), Err: store.ErrNotFound}
	}
	rec.Amounts = append([]core.Amount(nil), amounts...)
	s.records[id] = rec
	return nil
}

func (s *Store) DeleteRecords(_ context.Context, q store.Query) (int64, error) {
	if err := q.Validate(store.Records, store.RecordFields...); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return 0, store.Wrap("delete", store.Records, s.Fail)
	}
	var n int64
	for id, rec := range s.records {
		if matchAll(q, recordField(rec)) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func restaurantField(r core.Restaurant) func(store.Field) any {
	return func(f store.Field) any {
		switch f {
		case store.FieldID:
			return r.ID
		case store.FieldUserID:
			return r.UserID
		case store.FieldName:
			return r.Name
		}
		return nil
	}
}

func recordField(r core.Record) func(store.Field) any {
	return func(f store.Field) any {
		switch f {
		case store.FieldID:
			return r.ID
		case store.FieldUserID:
			return r.UserID
		case store.FieldRestaurantID:
			return r.RestaurantID
		case store.FieldIssuedAt:
			return r.IssuedAt
		}
		return nil
	}
}

func matchAll(q store.Query, get func(store.Field) any) bool {
	for _, f := range q.Filters {
		if !f.Match(get) {
			return false
		}
	}
	return true
}

// sortRows applies the query order, falling back to ids so results are
// deterministic despite map iteration.
func sortRows[T any](rows []T, q store.Query, field func(T) func(store.Field) any, id func(T) int64) {
	sort.SliceStable(rows, func(i, j int) bool {
		if q.Order != nil {
			c, _ := store.Compare(field(rows[i])(q.Order.Field), field(rows[j])(q.Order.Field))
			if c != 0 {
				if q.Order.Ascending {
					return c < 0
				}
				return c > 0
			}
		}
		return id(rows[i]) < id(rows[j])
	})
}

func limit[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
