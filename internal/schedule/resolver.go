// Package schedule resolves the working windows that apply on a given date.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"velora/internal/models"
)

// Snapshot is a read-only view of a specialist's recurring schedule and its
// date-keyed overrides, pre-fetched by the source.
type Snapshot struct {
	Weekly    models.WeeklySchedule
	Overrides models.ScheduleOverride
}

// Source supplies schedule snapshots per specialist.
type Source interface {
	ScheduleSnapshot(ctx context.Context, specialistID string) (*Snapshot, error)
}

// Resolver turns a (specialist, date) pair into the concrete working
// segments for that date. An override for the exact date wins outright, even
// when it is an empty list (explicitly closed); otherwise the weekly pattern
// for the date's day of week applies. An absent weekly entry means closed.
type Resolver struct {
	source Source
	cache  *Cache // optional
	log    zerolog.Logger
}

// NewResolver wires a resolver. cache may be nil to disable caching.
func NewResolver(source Source, cache *Cache, log zerolog.Logger) *Resolver {
	return &Resolver{source: source, cache: cache, log: log}
}

// Resolve returns zero or more segments to scan on the date. An empty result
// is a normal closed-day outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, specialistID string, date time.Time) ([]models.Segment, error) {
	snap, err := r.snapshot(ctx, specialistID)
	if err != nil {
		return nil, fmt.Errorf("schedule snapshot for %s: %w", specialistID, err)
	}

	windows, ok := snap.Overrides[date.Format(models.DateKey)]
	if !ok {
		day := int(date.Weekday()) // 0=Sunday .. 6=Saturday
		window, open := snap.Weekly[day]
		if !open {
			return nil, nil
		}
		windows = []models.DayWindow{window}
	}

	segments := make([]models.Segment, 0, len(windows))
	for _, w := range windows {
		seg, err := w.ResolveOnDate(date)
		if err != nil {
			return nil, fmt.Errorf("specialist %s on %s: %w", specialistID, date.Format(models.DateKey), err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// Invalidate drops any cached snapshot for the specialist. Call it after a
// schedule or override mutation.
func (r *Resolver) Invalidate(specialistID string) {
	if r.cache != nil {
		r.cache.Invalidate(specialistID)
	}
}

func (r *Resolver) snapshot(ctx context.Context, specialistID string) (*Snapshot, error) {
	if r.cache != nil {
		if snap, ok := r.cache.get(specialistID); ok {
			return snap, nil
		}
	}
	snap, err := r.source.ScheduleSnapshot(ctx, specialistID)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.set(specialistID, snap)
	}
	return snap, nil
}
