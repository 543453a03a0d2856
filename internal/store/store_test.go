package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testBooking(id, specialistID, clientID string, start time.Time, dur time.Duration) *models.Booking {
	return &models.Booking{
		ID:           id,
		SpecialistID: specialistID,
		ServiceID:    "svc-1",
		ClientID:     clientID,
		Contact:      models.Contact{Email: clientID + "@example.com"},
		StartTime:    start,
		EndTime:      start.Add(dur),
		Status:       models.StatusConfirmed,
	}
}

var tenAM = time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

func TestCreateIfFreeRejectsOverlap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateIfFree(ctx, testBooking("b1", "sp-1", "c1", tenAM, time.Hour)))

	tests := []struct {
		name  string
		start time.Time
		dur   time.Duration
		want  error
	}{
		{"identical slot", tenAM, time.Hour, ErrSlotTaken},
		{"partial overlap", tenAM.Add(30 * time.Minute), time.Hour, ErrSlotTaken},
		{"contained", tenAM.Add(15 * time.Minute), 30 * time.Minute, ErrSlotTaken},
		{"adjacent after", tenAM.Add(time.Hour), time.Hour, nil},
		{"adjacent before", tenAM.Add(-time.Hour), time.Hour, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBooking("nb-"+tt.name, "sp-1", "c2", tt.start, tt.dur)
			err := db.CreateIfFree(ctx, b)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateIfFreeIgnoresCancelled(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateIfFree(ctx, testBooking("b1", "sp-1", "c1", tenAM, time.Hour)))
	require.NoError(t, db.CancelBooking(ctx, "b1"))

	// The slot freed by the cancellation is bookable again, exact times
	// included.
	assert.NoError(t, db.CreateIfFree(ctx, testBooking("b2", "sp-1", "c2", tenAM, time.Hour)))
}

func TestCreateIfFreeOtherSpecialist(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateIfFree(ctx, testBooking("b1", "sp-1", "c1", tenAM, time.Hour)))
	assert.NoError(t, db.CreateIfFree(ctx, testBooking("b2", "sp-2", "c2", tenAM, time.Hour)))
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)

	const insert = `
		INSERT INTO bookings (id, specialist_id, service_id, client_id, start_time, end_time, status)
		VALUES (?, 'sp-1', 'svc-1', ?, ?, ?, 'confirmed')`
	_, err := db.Exec(insert, "b1", "c1", tenAM, tenAM.Add(time.Hour))
	require.NoError(t, err)

	// Same exact slot for the same specialist trips the partial unique
	// index, bypassing the overlap pre-check.
	_, err = db.Exec(insert, "b2", "c2", tenAM, tenAM.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("UNIQUE constraint failed: impostor")),
		"only the driver's typed constraint error qualifies")
}

func TestGetBookingNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetBooking(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBookingRoundtrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	in := testBooking("b1", "sp-1", "c1", tenAM, time.Hour)
	require.NoError(t, db.CreateIfFree(ctx, in))

	out, err := db.GetBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, in.SpecialistID, out.SpecialistID)
	assert.Equal(t, in.ClientID, out.ClientID)
	assert.Equal(t, in.Contact.Email, out.Contact.Email)
	assert.True(t, in.StartTime.Equal(out.StartTime))
	assert.True(t, in.EndTime.Equal(out.EndTime))
	assert.Equal(t, models.StatusConfirmed, out.Status)
}

func TestUpdateBookingStatusNotFound(t *testing.T) {
	db := newTestDB(t)
	err := db.UpdateBookingStatus(context.Background(), "missing", models.StatusCanceled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingsCancelledSince(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateIfFree(ctx, testBooking("b1", "sp-1", "c1", tenAM, time.Hour)))
	require.NoError(t, db.CreateIfFree(ctx, testBooking("b2", "sp-1", "c2", tenAM.Add(2*time.Hour), time.Hour)))

	mark := time.Now().Add(-time.Minute)
	ids, err := db.BookingsCancelledSince(ctx, mark)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, db.CancelBooking(ctx, "b2"))
	ids, err = db.BookingsCancelledSince(ctx, mark)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, ids)
}

func TestActiveBookingsOnDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateIfFree(ctx, testBooking("b1", "sp-1", "c1", tenAM.Add(3*time.Hour), time.Hour)))
	require.NoError(t, db.CreateIfFree(ctx, testBooking("b2", "sp-1", "c2", tenAM, time.Hour)))
	require.NoError(t, db.CreateIfFree(ctx, testBooking("b3", "sp-1", "c3", tenAM.Add(24*time.Hour), time.Hour)))
	require.NoError(t, db.CreateIfFree(ctx, testBooking("b4", "sp-1", "c4", tenAM.Add(5*time.Hour), time.Hour)))
	require.NoError(t, db.CancelBooking(ctx, "b4"))

	got, err := db.ActiveBookingsOnDate(ctx, "sp-1", tenAM)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].StartTime.Equal(tenAM), "ordered by start time")
	assert.True(t, got[1].StartTime.Equal(tenAM.Add(3*time.Hour)))
}

func TestTimeOffBetween(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.AddTimeOff(ctx, "sp-1", tenAM, tenAM.Add(2*time.Hour), "dentist"))
	require.NoError(t, db.AddTimeOff(ctx, "sp-1", tenAM.Add(48*time.Hour), tenAM.Add(50*time.Hour), "away"))

	got, err := db.TimeOffBetween(ctx, "sp-1", tenAM.Add(-time.Hour), tenAM.Add(6*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(tenAM))
}

func testEntry(id, clientID string, windowStart, windowEnd, createdAt time.Time) *models.WaitlistEntry {
	return &models.WaitlistEntry{
		ID:           id,
		ClientID:     clientID,
		Contact:      models.Contact{Email: clientID + "@example.com"},
		ServiceID:    "svc-1",
		SpecialistID: "sp-1",
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		CreatedAt:    createdAt,
	}
}

func TestWaitingEntriesWindowAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	wide := testEntry("w-late", "c1", tenAM.Add(-2*time.Hour), tenAM.Add(4*time.Hour), base.Add(2*time.Minute))
	require.NoError(t, db.AddWaitlistEntry(ctx, wide))
	wider := testEntry("w-early", "c2", tenAM.Add(-time.Hour), tenAM.Add(2*time.Hour), base)
	require.NoError(t, db.AddWaitlistEntry(ctx, wider))
	// Window ends before the slot does.
	narrow := testEntry("w-narrow", "c3", tenAM.Add(-time.Hour), tenAM.Add(30*time.Minute), base.Add(time.Minute))
	require.NoError(t, db.AddWaitlistEntry(ctx, narrow))

	got, err := db.WaitingEntries(ctx, "sp-1", "svc-1", tenAM, tenAM.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "w-early", got[0].ID, "FIFO by created_at")
	assert.Equal(t, "w-late", got[1].ID)
}

func TestClaimEntryCAS(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := testEntry("w1", "c1", tenAM, tenAM.Add(4*time.Hour), time.Now())
	require.NoError(t, db.AddWaitlistEntry(ctx, e))

	ok, err := db.ClaimEntry(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Second claim loses the race without error.
	ok, err = db.ClaimEntry(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseEntry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := testEntry("w1", "c1", tenAM, tenAM.Add(4*time.Hour), time.Now())
	require.NoError(t, db.AddWaitlistEntry(ctx, e))

	err := db.ReleaseEntry(ctx, "w1", models.WaitlistWaiting)
	assert.ErrorIs(t, err, ErrNotClaimed, "release requires a prior claim")

	ok, err := db.ClaimEntry(ctx, "w1")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Error(t, db.ReleaseEntry(ctx, "w1", models.WaitlistFulfilled), "fulfilled is not a release target")
	require.NoError(t, db.ReleaseEntry(ctx, "w1", models.WaitlistExpired))

	got, err := db.GetWaitlistEntry(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, models.WaitlistExpired, got.Status)
}

func TestFulfillEntry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := testEntry("w1", "c1", tenAM, tenAM.Add(4*time.Hour), time.Now())
	require.NoError(t, db.AddWaitlistEntry(ctx, e))

	assert.ErrorIs(t, db.FulfillEntry(ctx, "w1"), ErrNotClaimed)

	ok, err := db.ClaimEntry(ctx, "w1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, db.FulfillEntry(ctx, "w1"))

	got, err := db.GetWaitlistEntry(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, models.WaitlistFulfilled, got.Status)

	// Fulfilled entries never come back as candidates.
	entries, err := db.WaitingEntries(ctx, "sp-1", "svc-1", tenAM, tenAM.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScheduleSnapshotRoundtrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	window := models.DayWindow{
		Start:  "09:00",
		End:    "17:00",
		Breaks: []models.BreakRange{{Start: "12:00", End: "13:00"}},
	}
	require.NoError(t, db.SetWeeklyHours(ctx, "sp-1", 1, window))
	require.NoError(t, db.SetWeeklyHours(ctx, "sp-1", 2, models.DayWindow{Start: "10:00", End: "16:00"}))

	overrideDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.SetOverride(ctx, "sp-1", overrideDate, models.DayWindow{Start: "11:00", End: "15:00"}))
	closedDate := time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.SetDayOff(ctx, "sp-1", closedDate))

	snap, err := db.ScheduleSnapshot(ctx, "sp-1")
	require.NoError(t, err)

	require.Contains(t, snap.Weekly, 1)
	assert.Equal(t, "09:00", snap.Weekly[1].Start)
	require.Len(t, snap.Weekly[1].Breaks, 1)
	assert.Equal(t, "12:00", snap.Weekly[1].Breaks[0].Start)
	assert.Empty(t, snap.Weekly[2].Breaks)

	require.Contains(t, snap.Overrides, "2026-09-15")
	require.Len(t, snap.Overrides["2026-09-15"], 1)
	assert.Equal(t, "11:00", snap.Overrides["2026-09-15"][0].Start)

	// Closed day is present with zero windows, distinct from absent.
	require.Contains(t, snap.Overrides, "2026-09-16")
	assert.Empty(t, snap.Overrides["2026-09-16"])
}

func TestSetWeeklyHoursUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetWeeklyHours(ctx, "sp-1", 1, models.DayWindow{Start: "09:00", End: "17:00"}))
	require.NoError(t, db.SetWeeklyHours(ctx, "sp-1", 1, models.DayWindow{Start: "08:00", End: "14:00"}))

	snap, err := db.ScheduleSnapshot(ctx, "sp-1")
	require.NoError(t, err)
	assert.Equal(t, "08:00", snap.Weekly[1].Start)
	assert.Equal(t, "14:00", snap.Weekly[1].End)

	assert.Error(t, db.SetWeeklyHours(ctx, "sp-1", 7, models.DayWindow{Start: "09:00", End: "17:00"}))
}

func TestDeleteOverride(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.SetDayOff(ctx, "sp-1", date))
	require.NoError(t, db.DeleteOverride(ctx, "sp-1", date))

	snap, err := db.ScheduleSnapshot(ctx, "sp-1")
	require.NoError(t, err)
	assert.NotContains(t, snap.Overrides, "2026-09-15")
}

func TestSpecialistIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetWeeklyHours(ctx, "sp-b", 1, models.DayWindow{Start: "09:00", End: "17:00"}))
	require.NoError(t, db.SetWeeklyHours(ctx, "sp-a", 1, models.DayWindow{Start: "09:00", End: "17:00"}))
	require.NoError(t, db.SetWeeklyHours(ctx, "sp-a", 2, models.DayWindow{Start: "09:00", End: "17:00"}))

	ids, err := db.SpecialistIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sp-a", "sp-b"}, ids)
}
