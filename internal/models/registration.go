package models

type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// TimestampLayout is the format of every persisted timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

type RegistrationFields struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Year       string `json:"year"`
	Message    string `json:"message"`
}

type Registration struct {
	ID         int    `json:"id"`
	EventID    int    `json:"event_id"`
	EventTitle string `json:"event_title"`
	RegistrationFields
	Timestamp string             `json:"timestamp"`
	Status    RegistrationStatus `json:"status"`
}
