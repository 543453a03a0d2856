// Package availability generates bookable slots for a specialist and date.
package availability

import (
	"sort"
	"time"

	"velora/internal/models"
)

// Index holds the intervals that block candidate slots on a day: merged
// break ranges, time-off periods and active bookings. Each list is sorted by
// start and scanned with a forward-only pointer, so a full grid of candidates
// presented in non-decreasing start order is checked in amortized linear
// time. An Index is owned by a single scan; build a fresh one per call.
type Index struct {
	breaks   []models.TimeRange
	timeOff  []models.TimeRange
	bookings []models.TimeRange

	bp, tp, kp int // scan pointers
}

// NewIndex builds an index from unordered inputs. Adjacent and overlapping
// breaks are merged into disjoint ranges; time-off and bookings are kept
// individually. Bookings with a cancelled status are excluded entirely.
func NewIndex(breaks, timeOff []models.TimeRange, bookings []models.BookingInterval) *Index {
	active := make([]models.TimeRange, 0, len(bookings))
	for _, b := range bookings {
		if models.IsCancelledStatus(b.Status) {
			continue
		}
		active = append(active, models.TimeRange{Start: b.StartTime, End: b.EndTime})
	}

	return &Index{
		breaks:   mergeRanges(breaks),
		timeOff:  sortRanges(timeOff),
		bookings: sortRanges(active),
	}
}

// Overlaps reports whether the candidate [start, end) intersects any indexed
// interval. Candidates must be presented in non-decreasing start order; the
// scan pointers only move forward.
func (ix *Index) Overlaps(start, end time.Time) bool {
	var hit bool
	ix.bp, hit = scanForward(ix.breaks, ix.bp, start, end)
	if hit {
		return true
	}
	ix.tp, hit = scanForward(ix.timeOff, ix.tp, start, end)
	if hit {
		return true
	}
	ix.kp, hit = scanForward(ix.bookings, ix.kp, start, end)
	return hit
}

// OverlapsAt is the order-independent variant for candidates that arrive in
// arbitrary order, such as fixed time lists. It leaves the scan pointers
// untouched.
func (ix *Index) OverlapsAt(start, end time.Time) bool {
	return anyOverlap(ix.breaks, start, end) ||
		anyOverlap(ix.timeOff, start, end) ||
		anyOverlap(ix.bookings, start, end)
}

// scanForward advances the pointer past intervals that end at or before the
// candidate start, then checks the current interval for overlap.
func scanForward(ranges []models.TimeRange, pos int, start, end time.Time) (int, bool) {
	for pos < len(ranges) && !ranges[pos].End.After(start) {
		pos++
	}
	if pos < len(ranges) && ranges[pos].Start.Before(end) {
		return pos, true
	}
	return pos, false
}

func anyOverlap(ranges []models.TimeRange, start, end time.Time) bool {
	for _, r := range ranges {
		if !r.Start.Before(end) {
			break // sorted by start, nothing later can overlap
		}
		if r.End.After(start) {
			return true
		}
	}
	return false
}

func sortRanges(in []models.TimeRange) []models.TimeRange {
	out := make([]models.TimeRange, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// mergeRanges sorts and coalesces overlapping or touching ranges.
func mergeRanges(in []models.TimeRange) []models.TimeRange {
	if len(in) == 0 {
		return nil
	}
	sorted := sortRanges(in)
	merged := []models.TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
