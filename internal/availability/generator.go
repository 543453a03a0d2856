package availability

import (
	"errors"
	"fmt"
	"time"

	"velora/internal/models"
)

// ErrInvalidStep signals a non-positive grid step. That is a configuration
// bug in the calling layer, never a business condition.
var ErrInvalidStep = errors.New("grid step must be positive")

// GenerateGrid walks a stepped time grid across the resolved working
// segments and emits every candidate whose full span fits the segment and
// overlaps nothing in the index. Overlapping or touching segments are
// coalesced into one window first, so candidates always reach the index in
// strictly increasing start order (its scan pointers never rewind) and no
// start time is emitted twice.
//
// A span longer than a segment simply yields no slots from that segment.
func GenerateGrid(segments []models.Segment, req models.ServiceRequirement, stepMinutes int, idx *Index) ([]models.Slot, error) {
	if stepMinutes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStep, stepMinutes)
	}

	span := req.TotalSpan()
	step := time.Duration(stepMinutes) * time.Minute

	windows := make([]models.TimeRange, 0, len(segments))
	for _, seg := range segments {
		windows = append(windows, models.TimeRange{Start: seg.Start, End: seg.End})
	}
	windows = mergeRanges(windows)

	var slots []models.Slot
	for _, w := range windows {
		for cursor := w.Start; !cursor.Add(span).After(w.End); cursor = cursor.Add(step) {
			end := cursor.Add(span)
			if idx.Overlaps(cursor, end) {
				continue
			}
			slots = append(slots, models.Slot{StartTime: cursor, EndTime: end})
		}
	}
	return slots, nil
}
