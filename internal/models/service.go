package models

import "time"

// ServiceRequirement describes how much time a service occupies and how its
// start times are generated.
//
// FixedTimes switches the generation mode: nil means "use the computed grid",
// a non-nil empty list means the service is not bookable at all. The two are
// distinct on purpose.
type ServiceRequirement struct {
	DurationMinutes     int      `json:"duration_minutes"`
	BufferBeforeMinutes int      `json:"buffer_before_minutes"`
	BufferAfterMinutes  int      `json:"buffer_after_minutes"`
	FixedTimes          []string `json:"fixed_times,omitempty"` // "HH:MM"
}

// TotalSpan is the full occupied span: duration plus both buffers.
func (r ServiceRequirement) TotalSpan() time.Duration {
	total := r.DurationMinutes + r.BufferBeforeMinutes + r.BufferAfterMinutes
	return time.Duration(total) * time.Minute
}

// UsesFixedTimes reports whether the service declares an explicit time list.
func (r ServiceRequirement) UsesFixedTimes() bool {
	return r.FixedTimes != nil
}
