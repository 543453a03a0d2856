package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"velora/internal/metrics"
	"velora/internal/models"
)

// ScheduleSource resolves the working windows for a specialist on a date.
// An empty result means a closed day, which is a normal outcome.
type ScheduleSource interface {
	Resolve(ctx context.Context, specialistID string, date time.Time) ([]models.Segment, error)
}

// Request carries the pre-fetched snapshot the caller assembled for one
// availability lookup.
type Request struct {
	SpecialistID string
	Date         time.Time // any instant on the target date
	Requirement  models.ServiceRequirement
	TimeOff      []models.TimeRange
	Bookings     []models.BookingInterval
	StepMinutes  int // 0 means use the facade default
}

// Facade picks the generation mode per service configuration, runs it over a
// fresh interval index and filters out past slots when the target date is
// today in the salon's timezone.
type Facade struct {
	schedule ScheduleSource
	clock    Clock
	loc      *time.Location
	step     int
	log      zerolog.Logger
}

// NewFacade wires a facade. step is the default grid granularity in minutes.
func NewFacade(schedule ScheduleSource, clock Clock, loc *time.Location, step int, log zerolog.Logger) *Facade {
	return &Facade{schedule: schedule, clock: clock, loc: loc, step: step, log: log}
}

// Slots returns the bookable start times for the request, ordered by start.
// An empty result is a valid outcome: fully booked, closed, or an unbookable
// service (explicit empty fixed-time list).
func (f *Facade) Slots(ctx context.Context, req Request) ([]models.Slot, error) {
	date := f.midnight(req.Date)

	segments, err := f.schedule.Resolve(ctx, req.SpecialistID, date)
	if err != nil {
		return nil, fmt.Errorf("resolve schedule: %w", err)
	}

	var breaks []models.TimeRange
	for _, seg := range segments {
		breaks = append(breaks, seg.Breaks...)
	}
	idx := NewIndex(breaks, req.TimeOff, req.Bookings)

	var slots []models.Slot
	switch {
	case req.Requirement.UsesFixedTimes() && len(req.Requirement.FixedTimes) == 0:
		// Explicit empty list: service is not bookable.
		metrics.IncAvailabilityRequest("unbookable")
	case req.Requirement.UsesFixedTimes():
		metrics.IncAvailabilityRequest("fixed")
		slots, err = GenerateFixed(req.Requirement.FixedTimes, date, req.Requirement, idx)
		if err != nil {
			return nil, err
		}
	default:
		metrics.IncAvailabilityRequest("grid")
		step := req.StepMinutes
		if step == 0 {
			step = f.step
		}
		slots, err = GenerateGrid(segments, req.Requirement, step, idx)
		if err != nil {
			return nil, err
		}
	}

	slots = f.dropPastSlots(date, slots)
	metrics.AddSlotsGenerated(len(slots))
	f.log.Debug().
		Str("specialist_id", req.SpecialistID).
		Str("date", date.Format(models.DateKey)).
		Int("slots", len(slots)).
		Msg("availability computed")
	return slots, nil
}

// dropPastSlots removes slots that already started when the target date is
// today in the salon timezone. Other dates pass through verbatim.
func (f *Facade) dropPastSlots(date time.Time, slots []models.Slot) []models.Slot {
	now := f.clock.Now().In(f.loc)
	if !sameDate(now, date) {
		return slots
	}
	kept := slots[:0]
	for _, s := range slots {
		if s.StartTime.After(now) {
			kept = append(kept, s)
		}
	}
	return kept
}

// midnight normalizes any instant to 00:00 of its calendar date in the salon
// timezone.
func (f *Facade) midnight(t time.Time) time.Time {
	t = t.In(f.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, f.loc)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
