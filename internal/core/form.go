package core

import "strings"

// AddRecordInput is the raw content of the add-record form.
type AddRecordInput struct {
	RestaurantID int64
	UserID       string
	IssuedAt     string
	Amounts      []string
}

// Complete checks the form the same way the submit button is gated:
// a date is required and every amount row must hold a non-zero value.
// It returns the record to submit when the form is complete.
func (in AddRecordInput) Complete() (Record, error) {
	if in.RestaurantID == 0 {
		return Record{}, ErrNoRestaurant
	}
	if strings.TrimSpace(in.IssuedAt) == "" {
		return Record{}, ErrMissingDate
	}
	date, err := ParseDate(in.IssuedAt)
	if err != nil {
		return Record{}, err
	}
	if len(in.Amounts) == 0 {
		return Record{}, ErrNoAmounts
	}
	amounts := make([]Amount, 0, len(in.Amounts))
	for _, raw := range in.Amounts {
		a, err := ParseAmount(raw)
		if err != nil {
			return Record{}, err
		}
		if a.IsZero() {
			return Record{}, ErrIncompleteAmount
		}
		amounts = append(amounts, a)
	}
	return Record{
		UserID:       in.UserID,
		RestaurantID: in.RestaurantID,
		IssuedAt:     date,
		Amounts:      amounts,
	}, nil
}

// AddRestaurantInput is the raw content of the add-restaurant form.
type AddRestaurantInput struct {
	Name   string
	UserID string
}

// Complete returns the restaurant to submit when the name is usable.
func (in AddRestaurantInput) Complete() (Restaurant, error) {
	r := Restaurant{Name: strings.TrimSpace(in.Name), UserID: in.UserID}
	if err := r.Validate(); err != nil {
		return Restaurant{}, err
	}
	return r, nil
}
