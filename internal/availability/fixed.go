package availability

import (
	"fmt"
	"time"

	"velora/internal/models"
)

// GenerateFixed evaluates an explicit list of "HH:MM" start times on the
// target date instead of a stepped grid. Conflict rejection (breaks,
// time-off, bookings) is identical to the grid mode, but there is no
// containment check against working-hour segments: fixed times are defined
// independently of the weekly schedule.
//
// Times are evaluated in the order given, without sorting or de-duplication.
// A caller that supplies duplicates gets duplicate slots back.
func GenerateFixed(times []string, date time.Time, req models.ServiceRequirement, idx *Index) ([]models.Slot, error) {
	span := req.TotalSpan()

	var slots []models.Slot
	for _, clock := range times {
		start, err := models.TimeOnDate(date, clock)
		if err != nil {
			return nil, fmt.Errorf("fixed time %q: %w", clock, err)
		}
		end := start.Add(span)
		if idx.OverlapsAt(start, end) {
			continue
		}
		slots = append(slots, models.Slot{StartTime: start, EndTime: end})
	}
	return slots, nil
}
