// Package waitlist converts booking cancellations into replacement bookings
// for waiting clients.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"velora/internal/metrics"
	"velora/internal/models"
	"velora/internal/store"
)

// Reason classifies how a fill run ended. Every value except ReasonFilled is
// a legitimate no-op, not an error.
type Reason string

const (
	ReasonFilled         Reason = "filled"
	ReasonNotCancelled   Reason = "appointment_not_cancelled"
	ReasonNoCandidates   Reason = "no_waitlist_candidates"
	ReasonNoEligible     Reason = "no_eligible_candidate"
	ReasonFillInProgress Reason = "fill_in_progress"
)

// ReleasePolicy decides what happens to a claimed entry whose re-checks
// fail: back to waiting (retryable) or retired as expired.
type ReleasePolicy string

const (
	ReleaseToWaiting ReleasePolicy = "waiting"
	ReleaseToExpired ReleasePolicy = "expired"
)

// Valid reports whether the policy names a known release target.
func (p ReleasePolicy) Valid() bool {
	return p == ReleaseToWaiting || p == ReleaseToExpired
}

// Outcome is the structured result of one fill run.
type Outcome struct {
	Reason       Reason
	SpecialistID string                // from the triggering booking
	Booking      *models.Booking       // set when Reason is ReasonFilled
	Entry        *models.WaitlistEntry // set when Reason is ReasonFilled
	Skipped      int                   // candidates passed over before the fill
}

// Coordinator fills a freed slot from the waitlist: FIFO candidate scan,
// atomic claim, conflict re-checks, conditional booking create, fulfill,
// then fire-and-forget notifications.
type Coordinator struct {
	bookings BookingStore
	entries  Store
	notifier Notifier
	guard    ClaimGuard // optional
	policy   ReleasePolicy
	guardTTL time.Duration
	log      zerolog.Logger
}

// NewCoordinator wires a coordinator. guard may be nil.
func NewCoordinator(bookings BookingStore, entries Store, notifier Notifier, guard ClaimGuard, policy ReleasePolicy, log zerolog.Logger) *Coordinator {
	if !policy.Valid() {
		policy = ReleaseToWaiting
	}
	return &Coordinator{
		bookings: bookings,
		entries:  entries,
		notifier: notifier,
		guard:    guard,
		policy:   policy,
		guardTTL: 30 * time.Second,
		log:      log,
	}
}

// SetGuardTTL overrides how long the claim guard holds the per-cancellation
// lock.
func (c *Coordinator) SetGuardTTL(ttl time.Duration) {
	if ttl > 0 {
		c.guardTTL = ttl
	}
}

// FillCancellation runs the auto-fill state machine for one cancelled
// booking. No-op outcomes come back as an Outcome with a reason code;
// only persistence failures surface as errors, and those always release
// the claim so a retry can re-attempt.
func (c *Coordinator) FillCancellation(ctx context.Context, bookingID string) (*Outcome, error) {
	cancelled, err := c.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load cancelled booking %s: %w", bookingID, err)
	}
	if !models.IsCancelledStatus(cancelled.Status) {
		// Duplicate or stale trigger.
		return c.noop(ReasonNotCancelled, cancelled), nil
	}

	if c.guard != nil {
		acquired, token, err := c.guard.TryLock(ctx, "waitlist:fill:"+bookingID, c.guardTTL)
		if err != nil {
			return nil, fmt.Errorf("claim guard: %w", err)
		}
		if !acquired {
			return c.noop(ReasonFillInProgress, cancelled), nil
		}
		defer func() {
			if err := c.guard.Unlock(ctx, "waitlist:fill:"+bookingID, token); err != nil {
				c.log.Warn().Err(err).Str("booking_id", bookingID).Msg("release claim guard failed")
			}
		}()
	}

	candidates, err := c.entries.WaitingEntries(ctx, cancelled.SpecialistID, cancelled.ServiceID, cancelled.StartTime, cancelled.EndTime)
	if err != nil {
		return nil, fmt.Errorf("scan waitlist candidates: %w", err)
	}
	if len(candidates) == 0 {
		return c.noop(ReasonNoCandidates, cancelled), nil
	}

	skipped := 0
	for i := range candidates {
		entry := &candidates[i]

		claimed, err := c.entries.ClaimEntry(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("claim entry %s: %w", entry.ID, err)
		}
		if !claimed {
			// Another invocation got there first.
			skipped++
			continue
		}

		eligible, err := c.recheck(ctx, cancelled, entry)
		if err != nil {
			c.releaseQuietly(ctx, entry.ID)
			return nil, err
		}
		if !eligible {
			if err := c.entries.ReleaseEntry(ctx, entry.ID, string(c.policy)); err != nil {
				return nil, fmt.Errorf("release entry %s: %w", entry.ID, err)
			}
			skipped++
			continue
		}

		booking, err := c.commit(ctx, cancelled, entry)
		if errors.Is(err, store.ErrSlotTaken) {
			// Lost a last-moment race with a direct booking.
			if err := c.entries.ReleaseEntry(ctx, entry.ID, string(c.policy)); err != nil {
				return nil, fmt.Errorf("release entry %s: %w", entry.ID, err)
			}
			skipped++
			continue
		}
		if err != nil {
			c.releaseQuietly(ctx, entry.ID)
			return nil, err
		}

		c.notify(ctx, booking, entry.Contact)
		metrics.IncWaitlistFill(string(ReasonFilled))
		metrics.AddWaitlistSkipped(skipped)
		c.log.Info().
			Str("booking_id", booking.ID).
			Str("cancelled_booking_id", bookingID).
			Str("entry_id", entry.ID).
			Int("skipped", skipped).
			Msg("waitlist fill committed")
		return &Outcome{Reason: ReasonFilled, SpecialistID: cancelled.SpecialistID, Booking: booking, Entry: entry, Skipped: skipped}, nil
	}

	out := c.noop(ReasonNoEligible, cancelled)
	out.Skipped = skipped
	return out, nil
}

// recheck verifies, after the claim, that the client isn't double-booked in
// the window and that the freed slot is still free.
func (c *Coordinator) recheck(ctx context.Context, cancelled *models.Booking, entry *models.WaitlistEntry) (bool, error) {
	selfConflict, err := c.bookings.ClientHasBookingIn(ctx, entry.ClientID, cancelled.StartTime, cancelled.EndTime)
	if err != nil {
		return false, fmt.Errorf("self-conflict check for %s: %w", entry.ID, err)
	}
	if selfConflict {
		return false, nil
	}
	taken, err := c.bookings.IsSlotBooked(ctx, cancelled.SpecialistID, cancelled.StartTime, cancelled.EndTime)
	if err != nil {
		return false, fmt.Errorf("slot-free check for %s: %w", entry.ID, err)
	}
	return !taken, nil
}

// commit creates the replacement booking and marks the entry fulfilled. A
// fulfill failure cancels the created booking so nothing half-done survives.
func (c *Coordinator) commit(ctx context.Context, cancelled *models.Booking, entry *models.WaitlistEntry) (*models.Booking, error) {
	booking := &models.Booking{
		ID:           uuid.NewString(),
		SpecialistID: cancelled.SpecialistID,
		ServiceID:    cancelled.ServiceID,
		ClientID:     entry.ClientID,
		Contact:      entry.Contact,
		StartTime:    cancelled.StartTime,
		EndTime:      cancelled.EndTime,
		Status:       models.StatusConfirmed,
	}
	if err := c.bookings.CreateIfFree(ctx, booking); err != nil {
		return nil, err
	}
	if err := c.entries.FulfillEntry(ctx, entry.ID); err != nil {
		if cerr := c.bookings.CancelBooking(ctx, booking.ID); cerr != nil {
			c.log.Error().Err(cerr).Str("booking_id", booking.ID).Msg("compensating cancel failed")
		}
		return nil, fmt.Errorf("fulfill entry %s: %w", entry.ID, err)
	}
	return booking, nil
}

// notify fires the confirmation email and the fill notice. The booking is
// already committed; delivery failures are logged and surfaced via metrics
// only.
func (c *Coordinator) notify(ctx context.Context, booking *models.Booking, contact models.Contact) {
	if err := c.notifier.SendBookingConfirmation(ctx, booking, contact); err != nil {
		c.log.Error().Err(err).Str("booking_id", booking.ID).Msg("booking confirmation failed")
	}
	if err := c.notifier.SendWaitlistFillNotice(ctx, booking, contact); err != nil {
		c.log.Error().Err(err).Str("booking_id", booking.ID).Msg("waitlist fill notice failed")
	}
}

func (c *Coordinator) releaseQuietly(ctx context.Context, entryID string) {
	if err := c.entries.ReleaseEntry(ctx, entryID, string(ReleaseToWaiting)); err != nil {
		c.log.Error().Err(err).Str("entry_id", entryID).Msg("release after failure failed")
	}
}

func (c *Coordinator) noop(reason Reason, cancelled *models.Booking) *Outcome {
	metrics.IncWaitlistFill(string(reason))
	c.log.Info().Str("booking_id", cancelled.ID).Str("reason", string(reason)).Msg("waitlist fill no-op")
	return &Outcome{Reason: reason, SpecialistID: cancelled.SpecialistID}
}
