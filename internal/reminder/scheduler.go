package reminder

import (
	"context"
	"time"

	"taskdo/internal/auth"
	"taskdo/internal/task"
)

// JobType identifies reminder dispatch jobs in the deferred job queue.
const JobType = "REMINDER_DISPATCH"

// Scheduler is the deferred job facility the lifecycle manager schedules
// against. Submit returns an opaque handle; Cancel is idempotent and treats
// an unknown or already-fired handle as already cancelled.
type Scheduler interface {
	Submit(ctx context.Context, jobType string, payload []byte, runAt time.Time) (string, error)
	Cancel(ctx context.Context, handle string, terminate bool) error
}

// Store is the slice of the task store the reminder subsystem needs. Jobs
// carry only a task id; everything else is re-fetched at fire time.
type Store interface {
	Get(ctx context.Context, id uint64) (*task.Todo, error)
	SetReminderJobID(ctx context.Context, id uint64, handle *string) error
	Owner(ctx context.Context, userID uint64) (*auth.User, error)
}
