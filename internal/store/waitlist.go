package store

import (
	"context"
	"fmt"
	"time"

	"velora/internal/models"
)

// AddWaitlistEntry inserts a new waiting entry.
func (db *DB) AddWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error {
	if e.Status == "" {
		e.Status = models.WaitlistWaiting
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	_, err := db.ExecContext(ctx, `
		INSERT INTO waitlist_entries (
			id, client_id, client_email, client_phone, service_id, specialist_id,
			window_start, window_end, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ClientID, e.Contact.Email, e.Contact.Phone, e.ServiceID, e.SpecialistID,
		e.WindowStart, e.WindowEnd, e.Status, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// WaitingEntries returns the waiting entries whose desired window covers the
// freed [start, end) slot for the specialist and service, in FIFO order.
func (db *DB) WaitingEntries(ctx context.Context, specialistID, serviceID string, start, end time.Time) ([]models.WaitlistEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, client_id, client_email, client_phone, service_id, specialist_id,
		       window_start, window_end, status, created_at, updated_at
		FROM waitlist_entries
		WHERE specialist_id = ? AND service_id = ?
		AND status = 'waiting'
		AND window_start <= ? AND window_end >= ?
		ORDER BY created_at`,
		specialistID, serviceID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var e models.WaitlistEntry
		if err := rows.Scan(
			&e.ID, &e.ClientID, &e.Contact.Email, &e.Contact.Phone, &e.ServiceID, &e.SpecialistID,
			&e.WindowStart, &e.WindowEnd, &e.Status, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClaimEntry atomically transitions an entry from waiting to claimed.
// Returns false without error when the entry is no longer waiting, so
// concurrent claim attempts fail harmlessly.
func (db *DB) ClaimEntry(ctx context.Context, id string) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE waitlist_entries SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		models.WaitlistClaimed, time.Now(), id, models.WaitlistWaiting,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseEntry moves a claimed entry to the given status (waiting or
// expired, per the configured release policy).
func (db *DB) ReleaseEntry(ctx context.Context, id, status string) error {
	if !models.CanTransitionWaitlist(models.WaitlistClaimed, status) {
		return fmt.Errorf("release to %q: invalid transition", status)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE waitlist_entries SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		status, time.Now(), id, models.WaitlistClaimed,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotClaimed
	}
	return nil
}

// FulfillEntry marks a claimed entry fulfilled after its replacement booking
// is durably created.
func (db *DB) FulfillEntry(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE waitlist_entries SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		models.WaitlistFulfilled, time.Now(), id, models.WaitlistClaimed,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotClaimed
	}
	return nil
}

// GetWaitlistEntry returns an entry by ID.
func (db *DB) GetWaitlistEntry(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	err := db.QueryRowContext(ctx, `
		SELECT id, client_id, client_email, client_phone, service_id, specialist_id,
		       window_start, window_end, status, created_at, updated_at
		FROM waitlist_entries WHERE id = ?`,
		id,
	).Scan(
		&e.ID, &e.ClientID, &e.Contact.Email, &e.Contact.Phone, &e.ServiceID, &e.SpecialistID,
		&e.WindowStart, &e.WindowEnd, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
