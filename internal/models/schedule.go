package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKey is the calendar-date format used to key schedule overrides.
const DateKey = "2006-01-02"

// BreakRange is a pause inside a working window, as wall-clock times.
type BreakRange struct {
	Start string `json:"start"` // "13:00"
	End   string `json:"end"`   // "14:00"
}

// DayWindow is a single working period on a date: start/end plus breaks.
type DayWindow struct {
	Start  string       `json:"start"` // "09:00"
	End    string       `json:"end"`   // "18:00"
	Breaks []BreakRange `json:"breaks,omitempty"`
}

// WeeklySchedule maps a numeric day of week (0=Sunday .. 6=Saturday) to the
// working window for that day. An absent day means closed.
type WeeklySchedule map[int]DayWindow

// ScheduleOverride maps a calendar date (DateKey format) to the explicit
// windows replacing the weekly pattern for that date only. An empty list
// means explicitly closed that day.
type ScheduleOverride map[string][]DayWindow

// Segment is a DayWindow resolved onto a concrete date.
type Segment struct {
	Start  time.Time
	End    time.Time
	Breaks []TimeRange
}

// TimeOnDate places an "HH:MM" wall-clock time onto the given date, in the
// date's location.
func TimeOnDate(date time.Time, clock string) (time.Time, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", clock, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", clock, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// ResolveOnDate converts the window to an absolute segment on the date.
func (w DayWindow) ResolveOnDate(date time.Time) (Segment, error) {
	start, err := TimeOnDate(date, w.Start)
	if err != nil {
		return Segment{}, fmt.Errorf("window start: %w", err)
	}
	end, err := TimeOnDate(date, w.End)
	if err != nil {
		return Segment{}, fmt.Errorf("window end: %w", err)
	}
	if !start.Before(end) {
		return Segment{}, fmt.Errorf("window start %s not before end %s", w.Start, w.End)
	}
	seg := Segment{Start: start, End: end}
	for _, b := range w.Breaks {
		bs, err := TimeOnDate(date, b.Start)
		if err != nil {
			return Segment{}, fmt.Errorf("break start: %w", err)
		}
		be, err := TimeOnDate(date, b.End)
		if err != nil {
			return Segment{}, fmt.Errorf("break end: %w", err)
		}
		seg.Breaks = append(seg.Breaks, TimeRange{Start: bs, End: be})
	}
	return seg, nil
}
