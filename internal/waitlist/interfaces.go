package waitlist

import (
	"context"
	"time"

	"velora/internal/models"
)

// BookingStore is the persistence boundary the coordinator books against.
type BookingStore interface {
	// GetBooking returns the booking a cancellation trigger references.
	GetBooking(ctx context.Context, id string) (*models.Booking, error)

	// CreateIfFree inserts the booking only if its time range holds no other
	// active booking; returns an error matching store.ErrSlotTaken otherwise.
	CreateIfFree(ctx context.Context, b *models.Booking) error

	// CancelBooking compensates a partially completed fill.
	CancelBooking(ctx context.Context, id string) error

	// IsSlotBooked checks whether an active booking occupies [start, end).
	IsSlotBooked(ctx context.Context, specialistID string, start, end time.Time) (bool, error)

	// ClientHasBookingIn checks for an active booking held by the client in
	// the window.
	ClientHasBookingIn(ctx context.Context, clientID string, start, end time.Time) (bool, error)
}

// Store is the waitlist persistence boundary.
type Store interface {
	// WaitingEntries returns matching waiting entries in createdAt order.
	WaitingEntries(ctx context.Context, specialistID, serviceID string, start, end time.Time) ([]models.WaitlistEntry, error)

	// ClaimEntry atomically moves waiting -> claimed for one entry. Returns
	// false without error when the entry is already claimed elsewhere.
	ClaimEntry(ctx context.Context, id string) (bool, error)

	// ReleaseEntry moves a claimed entry to the given status.
	ReleaseEntry(ctx context.Context, id, status string) error

	// FulfillEntry marks a claimed entry fulfilled.
	FulfillEntry(ctx context.Context, id string) error
}

// Notifier delivers the fire-and-forget confirmations after a successful
// fill. Failures are logged, never propagated.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, b *models.Booking, contact models.Contact) error
	SendWaitlistFillNotice(ctx context.Context, b *models.Booking, contact models.Contact) error
}

// ClaimGuard optionally deduplicates concurrent fill runs for the same
// cancellation. The coordinator stays correct without one; the guard only
// saves wasted candidate scans.
type ClaimGuard interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (acquired bool, token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
