package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora/internal/models"
)

func TestGenerateFixedSkipsConflicts(t *testing.T) {
	// One booking occupying 11:00-12:00 knocks out the 11:30 entry.
	req := models.ServiceRequirement{DurationMinutes: 60}
	idx := NewIndex(nil, nil, []models.BookingInterval{
		{StartTime: at(11, 0), EndTime: at(12, 0), Status: models.StatusConfirmed},
	})

	slots, err := GenerateFixed([]string{"09:15", "11:30", "16:00"}, day, req, idx)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, at(9, 15), slots[0].StartTime)
	assert.Equal(t, at(16, 0), slots[1].StartTime)
}

func TestGenerateFixedNoContainmentCheck(t *testing.T) {
	// Fixed times outside any working window are still evaluated; only the
	// indexed intervals can reject them.
	req := models.ServiceRequirement{DurationMinutes: 30}
	slots, err := GenerateFixed([]string{"06:00", "23:00"}, day, req, NewIndex(nil, nil, nil))
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestGenerateFixedPreservesOrderAndDuplicates(t *testing.T) {
	req := models.ServiceRequirement{DurationMinutes: 30}
	slots, err := GenerateFixed([]string{"14:00", "09:00", "14:00"}, day, req, NewIndex(nil, nil, nil))
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, at(14, 0), slots[0].StartTime)
	assert.Equal(t, at(9, 0), slots[1].StartTime)
	assert.Equal(t, at(14, 0), slots[2].StartTime)
}

func TestGenerateFixedMalformedTime(t *testing.T) {
	req := models.ServiceRequirement{DurationMinutes: 30}
	for _, bad := range []string{"9am", "25:00", "12:61", "noon", "12"} {
		_, err := GenerateFixed([]string{bad}, day, req, NewIndex(nil, nil, nil))
		assert.Error(t, err, "input %q", bad)
	}
}

func TestGenerateFixedAppliesSpan(t *testing.T) {
	req := models.ServiceRequirement{DurationMinutes: 60, BufferBeforeMinutes: 5, BufferAfterMinutes: 5}
	slots, err := GenerateFixed([]string{"10:00"}, day, req, NewIndex(nil, nil, nil))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 70*time.Minute, slots[0].EndTime.Sub(slots[0].StartTime))
}

func TestGenerateFixedBreaksStillApply(t *testing.T) {
	req := models.ServiceRequirement{DurationMinutes: 60}
	idx := NewIndex([]models.TimeRange{tr(12, 0, 13, 0)}, nil, nil)

	slots, err := GenerateFixed([]string{"11:30", "13:00"}, day, req, idx)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, at(13, 0), slots[0].StartTime)
}
