package models

import "time"

// Waitlist entry statuses.
const (
	WaitlistWaiting   = "waiting"
	WaitlistClaimed   = "claimed"
	WaitlistFulfilled = "fulfilled"
	WaitlistExpired   = "expired"
)

// waitlistTransitions lists the allowed status transitions. A claimed entry
// either completes (fulfilled), retries later (waiting) or is retired
// (expired) depending on the configured release policy.
var waitlistTransitions = map[string][]string{
	WaitlistWaiting: {WaitlistClaimed, WaitlistExpired},
	WaitlistClaimed: {WaitlistFulfilled, WaitlistWaiting, WaitlistExpired},
}

// CanTransitionWaitlist checks whether a status transition is allowed.
func CanTransitionWaitlist(from, to string) bool {
	for _, s := range waitlistTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// WaitlistEntry is a client's standing request to be booked into an opening.
// Candidates are consumed strictly in CreatedAt order.
type WaitlistEntry struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	Contact      Contact   `json:"contact"`
	ServiceID    string    `json:"service_id"`
	SpecialistID string    `json:"specialist_id"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
