package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEventNotFound is returned when no event has the requested id.
var ErrEventNotFound = errors.New("event not found")

// ErrEventFull is returned when an event has no remaining seats.
var ErrEventFull = errors.New("event is full")

// ErrAlreadyRegistered is returned when the same email registers twice for one event.
var ErrAlreadyRegistered = errors.New("email already registered for this event")

// ErrNoRegistrations is returned by exports that match no registrations.
var ErrNoRegistrations = errors.New("no registrations found")

// ValidationError lists the input fields that were missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field(s): %s", strings.Join(e.Fields, ", "))
}

// StorageError wraps a failed load or save of a collection.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
