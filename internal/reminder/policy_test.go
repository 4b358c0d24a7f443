package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdo/internal/task"
)

func datePtr(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func strPtr(s string) *string { return &s }

func newDueTask(date, clock string) *task.Todo {
	return &task.Todo{
		ID:      1,
		UserID:  1,
		Title:   "write report",
		DueDate: datePtr(date),
		DueTime: strPtr(clock),
	}
}

func TestFireTime_LeadBeforeDue(t *testing.T) {
	tk := newDueTask("2025-06-01", "09:00")
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	fire, ok := FireTime(tk, now, time.UTC, DefaultLead)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC), fire)
}

func TestFireTime_NoReminder(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task *task.Todo
	}{
		{"no due date", &task.Todo{DueTime: strPtr("09:00")}},
		{"no due time", &task.Todo{DueDate: datePtr("2025-06-01")}},
		{"completed", func() *task.Todo {
			tk := newDueTask("2025-06-01", "09:00")
			tk.Completed = true
			return tk
		}()},
		{"malformed due time", newDueTask("2025-06-01", "9 o'clock")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := FireTime(tt.task, now, time.UTC, DefaultLead)
			assert.False(t, ok)
		})
	}
}

func TestFireTime_PastOrImminentNeverScheduled(t *testing.T) {
	tk := newDueTask("2025-06-01", "08:00")

	// Candidate is 07:30; now is exactly 08:00, so the candidate is in the
	// past. Nothing is scheduled.
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	_, ok := FireTime(tk, now, time.UTC, DefaultLead)
	assert.False(t, ok)

	// Boundary: candidate exactly equal to now also yields nothing.
	now = time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC)
	_, ok = FireTime(tk, now, time.UTC, DefaultLead)
	assert.False(t, ok)

	// One second earlier and it schedules.
	now = time.Date(2025, 6, 1, 7, 29, 59, 0, time.UTC)
	fire, ok := FireTime(tk, now, time.UTC, DefaultLead)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC), fire)
}

func TestDueAt_TimezoneAware(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// The same wall clock maps to different UTC instants across the spring
	// DST transition (2025-03-09 in New York).
	before, ok := DueAt(newDueTask("2025-03-08", "12:00"), ny)
	require.True(t, ok)
	after, ok := DueAt(newDueTask("2025-03-09", "12:00"), ny)
	require.True(t, ok)

	assert.Equal(t, time.Date(2025, 3, 8, 17, 0, 0, 0, time.UTC), before.UTC())
	assert.Equal(t, time.Date(2025, 3, 9, 16, 0, 0, 0, time.UTC), after.UTC())
}

func TestDueAt_AcceptsSeconds(t *testing.T) {
	due, ok := DueAt(newDueTask("2025-06-01", "09:15:00"), time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 9, 15, 0, 0, time.UTC), due)
}
