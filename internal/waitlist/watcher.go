package waitlist

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"velora/internal/events"
)

// CancellationSource lists bookings that entered a cancelled status after a
// watermark.
type CancellationSource interface {
	BookingsCancelledSince(ctx context.Context, since time.Time) ([]string, error)
}

// Watcher polls for fresh cancellations and publishes a
// events.TypeBookingCancelled event per booking. Duplicate triggers are
// harmless: the coordinator's claim and conditional-create steps make the
// fill idempotent.
type Watcher struct {
	source   CancellationSource
	bus      *events.Bus
	interval time.Duration
	mark     time.Time
	log      zerolog.Logger
}

// NewWatcher wires a watcher polling at the given interval.
func NewWatcher(source CancellationSource, bus *events.Bus, interval time.Duration, log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		source:   source,
		bus:      bus,
		interval: interval,
		mark:     time.Now(),
		log:      log,
	}
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info().Dur("interval", w.interval).Msg("cancellation watcher started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("cancellation watcher stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	since := w.mark
	w.mark = time.Now()

	ids, err := w.source.BookingsCancelledSince(ctx, since)
	if err != nil {
		w.log.Error().Err(err).Msg("scan cancellations failed")
		w.mark = since // retry the same window next tick
		return
	}

	for _, id := range ids {
		if err := w.bus.PublishJSON(events.TypeBookingCancelled, events.BookingCancelled{BookingID: id}); err != nil {
			w.log.Error().Err(err).Str("booking_id", id).Msg("publish cancellation failed")
		}
	}
}
