package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdo/internal/auth"
	"taskdo/internal/task"
)

func newExecutor(store *fakeStore, mailer *fakeMailer) *Executor {
	e := NewExecutor(store, mailer, time.UTC, zerolog.Nop())
	e.Now = func() time.Time { return time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC) }
	return e
}

func seedOwner(store *fakeStore) {
	store.users[1] = &auth.User{ID: 1, Email: "ada@example.com", FirstName: "Ada"}
}

func TestRun_SkipMatrix(t *testing.T) {
	tests := []struct {
		name string
		seed func(store *fakeStore)
		want Outcome
	}{
		{
			name: "task missing",
			seed: func(store *fakeStore) {},
			want: OutcomeNotFound,
		},
		{
			name: "already completed",
			seed: func(store *fakeStore) {
				tk := newDueTask("2025-06-01", "09:00")
				tk.Completed = true
				store.tasks[1] = tk
			},
			want: OutcomeAlreadyCompleted,
		},
		{
			name: "due date cleared",
			seed: func(store *fakeStore) {
				tk := newDueTask("2025-06-01", "09:00")
				tk.DueDate = nil
				store.tasks[1] = tk
			},
			want: OutcomeNoDue,
		},
		{
			name: "due time cleared",
			seed: func(store *fakeStore) {
				tk := newDueTask("2025-06-01", "09:00")
				tk.DueTime = nil
				store.tasks[1] = tk
			},
			want: OutcomeNoDue,
		},
		{
			name: "due instant moved to past",
			seed: func(store *fakeStore) {
				store.tasks[1] = newDueTask("2025-06-01", "08:00")
			},
			want: OutcomeDuePassed,
		},
		{
			name: "stale due date",
			seed: func(store *fakeStore) {
				// Yesterday's due date; the job fired well past it.
				store.tasks[1] = newDueTask("2025-05-31", "23:59")
			},
			want: OutcomeDuePassed,
		},
		{
			name: "all clear",
			seed: func(store *fakeStore) {
				store.tasks[1] = newDueTask("2025-06-01", "09:00")
			},
			want: OutcomeSent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			seedOwner(store)
			tt.seed(store)
			mailer := &fakeMailer{}
			e := newExecutor(store, mailer)

			outcome, err := e.Run(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)

			if tt.want == OutcomeSent {
				require.Len(t, mailer.sent, 1)
			} else {
				assert.Empty(t, mailer.sent)
			}
		})
	}
}

func TestRun_SendsCompleteMessage(t *testing.T) {
	store := newFakeStore()
	seedOwner(store)
	tk := newDueTask("2025-06-01", "09:00")
	tk.Description = "quarterly numbers"
	tk.Priority = 3
	store.tasks[1] = tk

	mailer := &fakeMailer{}
	e := newExecutor(store, mailer)

	outcome, err := e.Run(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeSent, outcome)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Todo App Reminder: write report", msg.Subject)
	assert.Contains(t, msg.Body, "Hi Ada,")
	assert.Contains(t, msg.Body, "Task: write report")
	assert.Contains(t, msg.Body, "Description: quarterly numbers")
	assert.Contains(t, msg.Body, "Due Date: June 01, 2025")
	assert.Contains(t, msg.Body, "Due Time: 09:00 AM")
	assert.Contains(t, msg.Body, "Priority: Urgent")
}

func TestRun_LowPriorityOmitted(t *testing.T) {
	store := newFakeStore()
	seedOwner(store)
	store.tasks[1] = newDueTask("2025-06-01", "09:00")

	mailer := &fakeMailer{}
	e := newExecutor(store, mailer)

	_, err := e.Run(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.NotContains(t, mailer.sent[0].Body, "Priority:")
}

func TestRun_CompletedAfterScheduling(t *testing.T) {
	// Task due 09:00, reminder scheduled for 08:30 while the task was still
	// open; it was marked completed at 08:25. The executor at 08:30 must
	// skip and send nothing.
	store := newFakeStore()
	seedOwner(store)
	tk := newDueTask("2025-06-01", "09:00")
	tk.Completed = true
	tk.ReminderJobID = strPtr("job-1")
	store.tasks[1] = tk

	mailer := &fakeMailer{}
	e := newExecutor(store, mailer)

	outcome, err := e.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCompleted, outcome)
	assert.Empty(t, mailer.sent)
}

func TestRun_DeliveryFailureIsTerminal(t *testing.T) {
	store := newFakeStore()
	seedOwner(store)
	store.tasks[1] = newDueTask("2025-06-01", "09:00")

	mailer := &fakeMailer{sendErr: errors.New("smtp down")}
	e := newExecutor(store, mailer)

	outcome, err := e.Run(context.Background(), 1)
	require.NoError(t, err) // no retry: at-most-once delivery
	assert.Equal(t, OutcomeSendFailed, outcome)
}

func TestRun_TransientStoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")

	e := newExecutor(store, &fakeMailer{})

	_, err := e.Run(context.Background(), 1)
	assert.Error(t, err)
}

func TestHandleJob_BadPayloadIsFatal(t *testing.T) {
	e := newExecutor(newFakeStore(), &fakeMailer{})

	err := e.HandleJob(context.Background(), []byte(`not json`))
	require.Error(t, err)

	err = e.HandleJob(context.Background(), []byte(`{}`))
	require.Error(t, err)
}

func TestHandleJob_RunsFromPayload(t *testing.T) {
	store := newFakeStore()
	seedOwner(store)
	store.tasks[1] = newDueTask("2025-06-01", "09:00")
	mailer := &fakeMailer{}
	e := newExecutor(store, mailer)

	require.NoError(t, e.HandleJob(context.Background(), []byte(`{"task_id":1}`)))
	assert.Len(t, mailer.sent, 1)
}

var _ Store = (*task.Store)(nil)
