package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"velora/internal/models"
	"velora/internal/schedule"
)

// ScheduleSnapshot loads the specialist's weekly pattern and all of their
// date overrides as one read-only snapshot. Implements schedule.Source.
func (db *DB) ScheduleSnapshot(ctx context.Context, specialistID string) (*schedule.Snapshot, error) {
	weekly, err := db.weeklySchedule(ctx, specialistID)
	if err != nil {
		return nil, fmt.Errorf("weekly schedule: %w", err)
	}
	overrides, err := db.scheduleOverrides(ctx, specialistID)
	if err != nil {
		return nil, fmt.Errorf("schedule overrides: %w", err)
	}
	return &schedule.Snapshot{Weekly: weekly, Overrides: overrides}, nil
}

func (db *DB) weeklySchedule(ctx context.Context, specialistID string) (models.WeeklySchedule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT day_of_week, start_time, end_time, break_start, break_end
		FROM specialist_schedules
		WHERE specialist_id = ?
		ORDER BY day_of_week`,
		specialistID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	weekly := make(models.WeeklySchedule)
	for rows.Next() {
		var day int
		var start, end string
		var breakStart, breakEnd sql.NullString
		if err := rows.Scan(&day, &start, &end, &breakStart, &breakEnd); err != nil {
			return nil, err
		}
		w := models.DayWindow{Start: start, End: end}
		if breakStart.Valid && breakEnd.Valid {
			w.Breaks = []models.BreakRange{{Start: breakStart.String, End: breakEnd.String}}
		}
		weekly[day] = w
	}
	return weekly, rows.Err()
}

func (db *DB) scheduleOverrides(ctx context.Context, specialistID string) (models.ScheduleOverride, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, is_closed, start_time, end_time, break_start, break_end
		FROM schedule_overrides
		WHERE specialist_id = ?
		ORDER BY date`,
		specialistID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(models.ScheduleOverride)
	for rows.Next() {
		var date string
		var closed bool
		var start, end, breakStart, breakEnd sql.NullString
		if err := rows.Scan(&date, &closed, &start, &end, &breakStart, &breakEnd); err != nil {
			return nil, err
		}
		if closed {
			overrides[date] = []models.DayWindow{}
			continue
		}
		w := models.DayWindow{Start: start.String, End: end.String}
		if breakStart.Valid && breakEnd.Valid {
			w.Breaks = []models.BreakRange{{Start: breakStart.String, End: breakEnd.String}}
		}
		overrides[date] = []models.DayWindow{w}
	}
	return overrides, rows.Err()
}

// SetWeeklyHours upserts the working window for one day of week (0-6).
func (db *DB) SetWeeklyHours(ctx context.Context, specialistID string, dayOfWeek int, window models.DayWindow) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return fmt.Errorf("day of week out of range: %d", dayOfWeek)
	}
	var breakStart, breakEnd interface{}
	if len(window.Breaks) > 0 {
		breakStart = window.Breaks[0].Start
		breakEnd = window.Breaks[0].End
	}
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO specialist_schedules (
			specialist_id, day_of_week, start_time, end_time, break_start, break_end, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(specialist_id, day_of_week) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			break_start = excluded.break_start,
			break_end = excluded.break_end,
			updated_at = excluded.updated_at`,
		specialistID, dayOfWeek, window.Start, window.End, breakStart, breakEnd, now, now,
	)
	return err
}

// SetOverride upserts special working hours for one date.
func (db *DB) SetOverride(ctx context.Context, specialistID string, date time.Time, window models.DayWindow) error {
	var breakStart, breakEnd interface{}
	if len(window.Breaks) > 0 {
		breakStart = window.Breaks[0].Start
		breakEnd = window.Breaks[0].End
	}
	return db.upsertOverride(ctx, specialistID, date, false, window.Start, window.End, breakStart, breakEnd)
}

// SetDayOff marks one date as explicitly closed.
func (db *DB) SetDayOff(ctx context.Context, specialistID string, date time.Time) error {
	return db.upsertOverride(ctx, specialistID, date, true, "", "", nil, nil)
}

func (db *DB) upsertOverride(ctx context.Context, specialistID string, date time.Time, closed bool, start, end string, breakStart, breakEnd interface{}) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO schedule_overrides (
			specialist_id, date, is_closed, start_time, end_time, break_start, break_end, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(specialist_id, date) DO UPDATE SET
			is_closed = excluded.is_closed,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			break_start = excluded.break_start,
			break_end = excluded.break_end,
			updated_at = excluded.updated_at`,
		specialistID, date.Format(models.DateKey), closed, start, end, breakStart, breakEnd, now, now,
	)
	return err
}

// DeleteOverride removes an override for one date.
func (db *DB) DeleteOverride(ctx context.Context, specialistID string, date time.Time) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM schedule_overrides WHERE specialist_id = ? AND date = ?",
		specialistID, date.Format(models.DateKey),
	)
	return err
}

// SpecialistIDs lists every specialist with a configured weekly schedule.
func (db *DB) SpecialistIDs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT DISTINCT specialist_id FROM specialist_schedules ORDER BY specialist_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
