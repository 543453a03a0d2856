package models

import "time"

// Booking statuses. Cancelled variants never participate in conflict checks.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
	StatusRejected  = "rejected"
)

// IsCancelledStatus reports whether the status is a cancelled variant.
func IsCancelledStatus(status string) bool {
	return status == StatusCanceled || status == StatusRejected
}

// Contact holds the channels a client can be reached on.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Booking is a persisted appointment.
type Booking struct {
	ID           string    `json:"id"`
	SpecialistID string    `json:"specialist_id"`
	ServiceID    string    `json:"service_id"`
	ClientID     string    `json:"client_id"`
	Contact      Contact   `json:"contact"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BookingInterval is the slice of a booking that matters for conflict checks.
type BookingInterval struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

// TimeRange is a half-open [start, end) absolute interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
func (r TimeRange) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && start.Before(r.End)
}

// Slot is a bookable time range covering a service's total occupied span.
// Slots are generated values, never persisted.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
