// Package services orchestrates store reads and writes, the query cache,
// optimistic mutations and the record event stream.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"scontrini/internal/core"
	applog "scontrini/internal/log"
	"scontrini/internal/store"
)

// RestaurantService manages the restaurants of a user.
type RestaurantService struct {
	store  store.RestaurantStore
	logger *slog.Logger
}

func NewRestaurantService(st store.RestaurantStore, logger *slog.Logger) *RestaurantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RestaurantService{
		store:  st,
		logger: logger.With(applog.FieldComponent, applog.ComponentRecords),
	}
}

// Create stores a new restaurant.
func (s *RestaurantService) Create(ctx context.Context, r core.Restaurant) (core.Restaurant, error) {
	if err := r.Validate(); err != nil {
		return core.Restaurant{}, fmt.Errorf("create restaurant: %w", err)
	}
	created, err := s.store.InsertRestaurant(ctx, r)
	if err != nil {
		return core.Restaurant{}, fmt.Errorf("create restaurant: %w", err)
	}
	s.logger.InfoContext(ctx, "Restaurant created",
		applog.FieldRestaurantID, created.ID,
		applog.FieldUserID, created.UserID)
	return created, nil
}

// List returns the restaurants of userID in creation order.
func (s *RestaurantService) List(ctx context.Context, userID string) ([]core.Restaurant, error) {
	q := store.Where(store.Eq(store.FieldUserID, userID)).OrderBy(store.FieldID, true)
	rs, err := s.store.SelectRestaurants(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return rs, nil
}

func (s *RestaurantService) Get(ctx context.Context, id int64) (core.Restaurant, error) {
	r, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return core.Restaurant{}, fmt.Errorf("get restaurant %d: %w", id, err)
	}
	return r, nil
}
