package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
}

// Submit enqueues a job to run at runAt and returns its handle.
func (r *Repo) Submit(ctx context.Context, jobType string, payload []byte, runAt time.Time) (string, error) {
	j := Job{
		Handle:  uuid.NewString(),
		Type:    jobType,
		Payload: payload,
		RunAt:   runAt,
		Status:  StatusPending,
	}
	if err := r.DB.WithContext(ctx).Create(&j).Error; err != nil {
		return "", err
	}
	return j.Handle, nil
}

// Cancel flips a pending job to CANCELLED. With terminate it also covers
// RUNNING rows, best-effort: a job already executing cannot be stopped, and
// its handler's own re-validation is what makes that safe. Unknown or
// already-finished handles are not an error.
func (r *Repo) Cancel(ctx context.Context, handle string, terminate bool) error {
	states := []string{StatusPending}
	if terminate {
		states = append(states, StatusRunning)
	}
	return r.DB.WithContext(ctx).Exec(`
update jobs
set status=?, updated_at=now()
where handle=? and status in ?`,
		StatusCancelled, handle, states).Error
}

// Claim one due job atomically using SKIP LOCKED.
// Works on Postgres.
func (r *Repo) Claim(ctx context.Context, workerID string) (*Job, error) {
	var job Job
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// requeue stuck RUNNING jobs (optional safety)
		tx.Exec(`
update jobs
set status='PENDING', locked_by=null, locked_at=null, updated_at=now()
where status='RUNNING' and locked_at is not null and locked_at < now() - interval '5 minutes'
`)

		// claim
		// FOR UPDATE SKIP LOCKED ensures no double-claim
		q := tx.Raw(`
with cte as (
  select id
  from jobs
  where status='PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update jobs
set status='RUNNING', locked_by=?, locked_at=now(), updated_at=now()
where id in (select id from cte)
returning *;
`, workerID)

		return q.Scan(&job).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *Repo) MarkDone(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).
		Exec(`update jobs set status='DONE', updated_at=now() where id=?`, id).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	return r.DB.WithContext(ctx).
		Exec(`update jobs set status='FAILED', last_error=?, updated_at=now() where id=?`, errMsg, id).Error
}

func (r *Repo) RetryLater(ctx context.Context, id uint64, attempts int, runAt time.Time, errMsg string) error {
	return r.DB.WithContext(ctx).Exec(`
update jobs
set status='PENDING',
    attempts=?,
    run_at=?,
    locked_by=null,
    locked_at=null,
    last_error=?,
    updated_at=now()
where id=?`, attempts, runAt, errMsg, id).Error
}

// PruneFinished deletes terminal jobs older than the cutoff. Returns how many
// rows went away.
func (r *Repo) PruneFinished(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Exec(`
delete from jobs
where status in ('DONE','FAILED','CANCELLED') and updated_at < ?`, olderThan)
	return res.RowsAffected, res.Error
}
