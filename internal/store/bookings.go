package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"velora/internal/models"
)

// GetBooking returns a booking by ID.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := db.QueryRowContext(ctx, `
		SELECT id, specialist_id, service_id, client_id, client_email, client_phone,
		       start_time, end_time, status, created_at, updated_at
		FROM bookings WHERE id = ?`,
		id,
	).Scan(
		&b.ID, &b.SpecialistID, &b.ServiceID, &b.ClientID, &b.Contact.Email, &b.Contact.Phone,
		&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ActiveBookingsOnDate returns the non-cancelled booking intervals for a
// specialist on a date, ordered by start time.
func (db *DB) ActiveBookingsOnDate(ctx context.Context, specialistID string, date time.Time) ([]models.BookingInterval, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	rows, err := db.QueryContext(ctx, `
		SELECT start_time, end_time, status FROM bookings
		WHERE specialist_id = ?
		AND start_time >= ? AND start_time < ?
		AND status NOT IN ('canceled', 'rejected')
		ORDER BY start_time`,
		specialistID, startOfDay, endOfDay,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []models.BookingInterval
	for rows.Next() {
		var iv models.BookingInterval
		if err := rows.Scan(&iv.StartTime, &iv.EndTime, &iv.Status); err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

// IsSlotBooked checks whether any active booking overlaps [start, end) for
// the specialist.
func (db *DB) IsSlotBooked(ctx context.Context, specialistID string, start, end time.Time) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE specialist_id = ?
		AND start_time < ? AND end_time > ?
		AND status NOT IN ('canceled', 'rejected')`,
		specialistID, end, start,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClientHasBookingIn checks whether the client already holds an active
// booking overlapping [start, end), with any specialist.
func (db *DB) ClientHasBookingIn(ctx context.Context, clientID string, start, end time.Time) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE client_id = ?
		AND start_time < ? AND end_time > ?
		AND status NOT IN ('canceled', 'rejected')`,
		clientID, end, start,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateIfFree inserts the booking only if no active booking overlaps its
// time range. The check and the insert run in one transaction; the partial
// unique index on (specialist_id, start_time, end_time) catches the exact
// duplicate an interleaved writer could still produce.
func (db *DB) CreateIfFree(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE specialist_id = ?
		AND start_time < ? AND end_time > ?
		AND status NOT IN ('canceled', 'rejected')`,
		b.SpecialistID, b.EndTime, b.StartTime,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("overlap check: %w", err)
	}
	if count > 0 {
		return ErrSlotTaken
	}

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, specialist_id, service_id, client_id, client_email, client_phone,
			start_time, end_time, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.SpecialistID, b.ServiceID, b.ClientID, b.Contact.Email, b.Contact.Phone,
		b.StartTime, b.EndTime, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return tx.Commit()
}

// UpdateBookingStatus sets the status of a booking.
func (db *DB) UpdateBookingStatus(ctx context.Context, id, status string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelBooking marks a booking canceled. Used as the compensating action
// when a waitlist fill fails after booking creation.
func (db *DB) CancelBooking(ctx context.Context, id string) error {
	return db.UpdateBookingStatus(ctx, id, models.StatusCanceled)
}

// TimeOffBetween returns the specialist's time-off periods overlapping
// [start, end).
func (db *DB) TimeOffBetween(ctx context.Context, specialistID string, start, end time.Time) ([]models.TimeRange, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT start_time, end_time FROM time_off
		WHERE specialist_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time`,
		specialistID, end, start,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []models.TimeRange
	for rows.Next() {
		var r models.TimeRange
		if err := rows.Scan(&r.Start, &r.End); err != nil {
			return nil, err
		}
		periods = append(periods, r)
	}
	return periods, rows.Err()
}

// AddTimeOff records a time-off period for a specialist.
func (db *DB) AddTimeOff(ctx context.Context, specialistID string, start, end time.Time, reason string) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO time_off (specialist_id, start_time, end_time, reason) VALUES (?, ?, ?, ?)",
		specialistID, start, end, reason,
	)
	return err
}

// BookingsCancelledSince returns IDs of bookings that moved to a cancelled
// status after the watermark, oldest first.
func (db *DB) BookingsCancelledSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id FROM bookings
		WHERE status IN ('canceled', 'rejected') AND updated_at > ?
		ORDER BY updated_at`,
		since,
	)
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

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
