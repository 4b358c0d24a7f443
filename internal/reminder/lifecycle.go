package reminder

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"taskdo/internal/task"
)

type jobPayload struct {
	TaskID uint64 `json:"task_id"`
}

// Manager owns the schedule/cancel/reschedule lifecycle of task reminders
// and the ReminderJobID field on tasks. Scheduler and store failures are
// logged and swallowed: a task mutation must never fail because the reminder
// subsystem is degraded.
type Manager struct {
	sched Scheduler
	store Store
	loc   *time.Location
	lead  time.Duration
	log   zerolog.Logger

	// Now is overridable in tests.
	Now func() time.Time

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func NewManager(sched Scheduler, store Store, loc *time.Location, lead time.Duration, log zerolog.Logger) *Manager {
	if lead <= 0 {
		lead = DefaultLead
	}
	return &Manager{
		sched: sched,
		store: store,
		loc:   loc,
		lead:  lead,
		log:   log,
		Now:   time.Now,
		locks: make(map[uint64]*sync.Mutex),
	}
}

// lockFor serializes reminder transitions per task so two concurrent
// reschedules cannot leave two live jobs behind.
func (m *Manager) lockFor(taskID uint64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[taskID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[taskID] = l
	}
	return l
}

// Schedule submits a reminder job if the policy yields a fire instant, then
// persists the returned handle on the task. Returns the handle and whether a
// job was created.
func (m *Manager) Schedule(ctx context.Context, t *task.Todo) (string, bool) {
	fireAt, ok := FireTime(t, m.Now(), m.loc, m.lead)
	if !ok {
		m.log.Debug().Uint64("task_id", t.ID).Msg("no reminder applies")
		return "", false
	}

	payload, _ := json.Marshal(jobPayload{TaskID: t.ID})
	handle, err := m.sched.Submit(ctx, JobType, payload, fireAt)
	if err != nil {
		m.log.Error().Err(err).Uint64("task_id", t.ID).Msg("failed to submit reminder job")
		return "", false
	}

	if err := m.store.SetReminderJobID(ctx, t.ID, &handle); err != nil {
		// The job is live but the handle was lost. The executor's
		// re-validation keeps a stale job harmless.
		m.log.Error().Err(err).Uint64("task_id", t.ID).Str("job_id", handle).
			Msg("failed to persist reminder handle")
	}
	t.ReminderJobID = &handle

	m.log.Info().Uint64("task_id", t.ID).Str("job_id", handle).
		Time("fire_at", fireAt).Msg("reminder scheduled")
	return handle, true
}

// Cancel requests cancellation of the task's outstanding reminder job, if
// any. Returns false only when there is no handle to cancel; cancelling an
// unknown or already-fired handle still counts as cancelled. The handle field
// is not cleared here; the caller clears it once it decides the replacement.
func (m *Manager) Cancel(ctx context.Context, t *task.Todo) bool {
	if t.ReminderJobID == nil {
		return false
	}

	if err := m.sched.Cancel(ctx, *t.ReminderJobID, true); err != nil {
		m.log.Error().Err(err).Uint64("task_id", t.ID).Str("job_id", *t.ReminderJobID).
			Msg("failed to cancel reminder job")
	} else {
		m.log.Info().Uint64("task_id", t.ID).Str("job_id", *t.ReminderJobID).
			Msg("reminder cancelled")
	}
	return true
}

// Reschedule replaces the task's reminder with whatever the policy says it
// should be now: cancel the old job, clear the handle, schedule anew.
// Idempotent and cheap to over-call; CRUD handlers invoke it after every
// create and update. Returns whether a reminder is now scheduled.
func (m *Manager) Reschedule(ctx context.Context, t *task.Todo) bool {
	l := m.lockFor(t.ID)
	l.Lock()
	defer l.Unlock()

	if t.ReminderJobID != nil {
		m.Cancel(ctx, t)
		t.ReminderJobID = nil
		if err := m.store.SetReminderJobID(ctx, t.ID, nil); err != nil {
			m.log.Error().Err(err).Uint64("task_id", t.ID).Msg("failed to clear reminder handle")
		}
	}

	_, ok := m.Schedule(ctx, t)
	return ok
}
