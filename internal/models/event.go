package models

// EventStatus is the lifecycle state of a catalog event.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventPast      EventStatus = "past"
	EventCancelled EventStatus = "cancelled"
)

type Event struct {
	ID          int         `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Date        string      `json:"date" yaml:"date"`
	Time        string      `json:"time" yaml:"time"`
	Description string      `json:"description" yaml:"description"`
	Location    string      `json:"location" yaml:"location"`
	Seats       int         `json:"seats" yaml:"seats"`
	Registered  int         `json:"registered" yaml:"registered"`
	Category    string      `json:"category" yaml:"category"`
	Status      EventStatus `json:"status" yaml:"status"`
}

// AvailableSeats returns the number of seats still open, never negative.
func (e *Event) AvailableSeats() int {
	if e.Registered >= e.Seats {
		return 0
	}
	return e.Seats - e.Registered
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.Registered >= e.Seats
}
