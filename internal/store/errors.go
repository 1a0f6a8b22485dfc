package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Error is a failed store operation. Message carries the backend message.
type Error struct {
	Op         string
	Collection string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Collection, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap turns a backend error into an *Error. It returns nil for nil.
func Wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Collection: collection, Message: err.Error(), Err: err}
}

// NotFound builds the error returned when a row does not exist.
func NotFound(collection string, id int64) error {
	return &Error{Op: "get", Collection: collection, Message: fmt.Sprintf("id %d not found", id), Err: ErrNotFound}
}
