package services

import (
	"context"

	"scontrini/internal/core"
	"scontrini/internal/mutation"
)

// Mutations runs the optimistic writes of the application. Incomplete
// forms are rejected before the mutation layer is involved.
type Mutations struct {
	coordinator *mutation.Coordinator
	restaurants *RestaurantService
	records     *RecordService
}

func NewMutations(c *mutation.Coordinator, restaurants *RestaurantService, records *RecordService) *Mutations {
	return &Mutations{coordinator: c, restaurants: restaurants, records: records}
}

// AddRestaurant creates a restaurant. Notifications go to n in addition to
// the coordinator's notifier.
func (m *Mutations) AddRestaurant(ctx context.Context, in core.AddRestaurantInput, n mutation.Notifier) (mutation.Outcome, error) {
	r, err := in.Complete()
	if err != nil {
		return mutation.Outcome{}, err
	}
	op := mutation.AddRestaurant{Store: m.restaurants}
	return mutation.Run(ctx, m.coordinator.WithNotifier(n), op, r), nil
}

// AddRecord merges or inserts the submitted record.
func (m *Mutations) AddRecord(ctx context.Context, in core.AddRecordInput, n mutation.Notifier) (mutation.Outcome, error) {
	rec, err := in.Complete()
	if err != nil {
		return mutation.Outcome{}, err
	}
	op := mutation.AddRecord{Store: m.records}
	return mutation.Run(ctx, m.coordinator.WithNotifier(n), op, rec), nil
}

// DeleteRecord removes a record of a restaurant.
func (m *Mutations) DeleteRecord(ctx context.Context, restaurantID, recordID int64, n mutation.Notifier) mutation.Outcome {
	op := mutation.DeleteRecord{Store: m.records}
	in := mutation.DeleteRecordInput{RestaurantID: restaurantID, RecordID: recordID}
	return mutation.Run(ctx, m.coordinator.WithNotifier(n), op, in)
}
