package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scontrini/internal/core"
)

// EventType names what happened to a record.
type EventType string

const (
	RecordSaved   EventType = "record.saved"
	RecordDeleted EventType = "record.deleted"
)

// RecordEvent is a lightweight notification that a record changed. The
// worker reads the current state of the record from the store, so the
// event carries only what is needed to find it again.
type RecordEvent struct {
	Type         EventType `json:"type"`
	RecordID     int64     `json:"record_id"`
	RestaurantID int64     `json:"restaurant_id"`
	UserID       string    `json:"user_id,omitempty"`
	IssuedAt     string    `json:"issued_at"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewRecordEvent creates an event of type typ for rec.
func NewRecordEvent(typ EventType, rec core.Record) RecordEvent {
	return RecordEvent{
		Type:         typ,
		RecordID:     rec.ID,
		RestaurantID: rec.RestaurantID,
		UserID:       rec.UserID,
		IssuedAt:     rec.IssuedAt.String(),
		Timestamp:    time.Now().UTC(),
	}
}

// Validate rejects events the worker could not act on.
func (e RecordEvent) Validate() error {
	switch e.Type {
	case RecordSaved, RecordDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.RecordID <= 0 {
		return errors.New("event without a record id")
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates an event.
func RecordEventFromJSON(data []byte) (RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RecordEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return RecordEvent{}, err
	}
	return e, nil
}
