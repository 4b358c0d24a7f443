package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(sched *fakeScheduler, store *fakeStore) *Manager {
	m := NewManager(sched, store, time.UTC, DefaultLead, zerolog.Nop())
	m.Now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }
	return m
}

func TestSchedule_SubmitsAndPersistsHandle(t *testing.T) {
	sched := &fakeScheduler{}
	store := newFakeStore()
	m := newManager(sched, store)

	tk := newDueTask("2025-06-01", "09:00")
	store.tasks[tk.ID] = tk

	handle, ok := m.Schedule(context.Background(), tk)
	require.True(t, ok)
	require.NotEmpty(t, handle)

	require.Len(t, sched.submits, 1)
	sub := sched.submits[0]
	assert.Equal(t, JobType, sub.Type)
	assert.Equal(t, time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC), sub.RunAt)

	var p jobPayload
	require.NoError(t, json.Unmarshal(sub.Payload, &p))
	assert.Equal(t, tk.ID, p.TaskID)

	// Handle lands both on the in-memory task and in the store.
	require.NotNil(t, tk.ReminderJobID)
	assert.Equal(t, handle, *tk.ReminderJobID)
	require.NotNil(t, store.tasks[tk.ID].ReminderJobID)
	assert.Equal(t, handle, *store.tasks[tk.ID].ReminderJobID)
}

func TestSchedule_NothingWhenPolicyDeclines(t *testing.T) {
	sched := &fakeScheduler{}
	store := newFakeStore()
	m := newManager(sched, store)

	tk := newDueTask("2025-06-01", "09:00")
	tk.Completed = true
	store.tasks[tk.ID] = tk

	_, ok := m.Schedule(context.Background(), tk)
	assert.False(t, ok)
	assert.Empty(t, sched.submits)
	assert.Nil(t, tk.ReminderJobID)
}

func TestSchedule_SchedulerErrorIsSwallowed(t *testing.T) {
	sched := &fakeScheduler{submitErr: errors.New("scheduler down")}
	store := newFakeStore()
	m := newManager(sched, store)

	tk := newDueTask("2025-06-01", "09:00")
	store.tasks[tk.ID] = tk

	_, ok := m.Schedule(context.Background(), tk)
	assert.False(t, ok)
	assert.Nil(t, tk.ReminderJobID)
}

func TestCancel_NoHandleIsNoop(t *testing.T) {
	sched := &fakeScheduler{}
	m := newManager(sched, newFakeStore())

	tk := newDueTask("2025-06-01", "09:00")
	assert.False(t, m.Cancel(context.Background(), tk))
	assert.Empty(t, sched.cancels)
}

func TestCancel_ReturnsTrueEvenWhenSchedulerErrs(t *testing.T) {
	sched := &fakeScheduler{cancelErr: errors.New("gone")}
	m := newManager(sched, newFakeStore())

	tk := newDueTask("2025-06-01", "09:00")
	tk.ReminderJobID = strPtr("job-unknown")

	assert.True(t, m.Cancel(context.Background(), tk))
	// Field is left for the caller to clear.
	assert.NotNil(t, tk.ReminderJobID)
}

func TestReschedule_ReplacesHandle(t *testing.T) {
	sched := &fakeScheduler{}
	store := newFakeStore()
	m := newManager(sched, store)

	tk := newDueTask("2025-06-01", "10:00")
	store.tasks[tk.ID] = tk

	require.True(t, m.Reschedule(context.Background(), tk))
	first := *tk.ReminderJobID

	// Due moved from 10:00 to 14:00 before the first job fired: the old
	// handle is cancelled and only the new job stays live, at 13:30.
	*tk = *newDueTask("2025-06-01", "14:00")
	tk.ReminderJobID = &first
	require.True(t, m.Reschedule(context.Background(), tk))

	assert.Contains(t, sched.cancels, first)
	live := sched.live()
	require.Len(t, live, 1)
	assert.Equal(t, *tk.ReminderJobID, live[0])
	assert.Equal(t, time.Date(2025, 6, 1, 13, 30, 0, 0, time.UTC), sched.submits[1].RunAt)
}

func TestReschedule_Idempotent(t *testing.T) {
	sched := &fakeScheduler{}
	store := newFakeStore()
	m := newManager(sched, store)

	tk := newDueTask("2025-06-01", "09:00")
	store.tasks[tk.ID] = tk

	require.True(t, m.Reschedule(context.Background(), tk))
	require.True(t, m.Reschedule(context.Background(), tk))

	// The second call cancels the first job and schedules an equivalent
	// one; at most one handle stays live.
	assert.Len(t, sched.live(), 1)
	assert.Equal(t, sched.submits[0].RunAt, sched.submits[1].RunAt)
}

func TestReschedule_ClearsHandleWhenNoReminderApplies(t *testing.T) {
	sched := &fakeScheduler{}
	store := newFakeStore()
	m := newManager(sched, store)

	tk := newDueTask("2025-06-01", "09:00")
	store.tasks[tk.ID] = tk
	require.True(t, m.Reschedule(context.Background(), tk))

	tk.Completed = true
	assert.False(t, m.Reschedule(context.Background(), tk))

	assert.Nil(t, tk.ReminderJobID)
	assert.Nil(t, store.tasks[tk.ID].ReminderJobID)
	assert.Empty(t, sched.live())
}
