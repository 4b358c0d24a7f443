package queue

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// ErrFatal marks a handler error as permanent: the job is failed immediately
// instead of being retried.
var ErrFatal = errors.New("fatal job error")

// Handler runs one job body. A nil return marks the job done; a plain error
// gets backoff retry up to MaxAttempts; an ErrFatal-wrapped error fails it.
type Handler func(ctx context.Context, payload []byte) error

type Worker struct {
	ID       string
	Repo     *Repo
	Handlers map[string]Handler
	Interval time.Duration
	Log      zerolog.Logger
}

func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(ctx, w.ID)
			if err != nil {
				w.Log.Error().Err(err).Msg("worker claim error")
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	h, ok := w.Handlers[job.Type]
	if !ok {
		w.Log.Error().Uint64("job_id", job.ID).Str("type", job.Type).Msg("unknown job type")
		_ = w.Repo.MarkFailed(ctx, job.ID, "unknown job type")
		return
	}

	err := h(ctx, job.Payload)
	switch {
	case err == nil:
		_ = w.Repo.MarkDone(ctx, job.ID)
	case errors.Is(err, ErrFatal):
		w.Log.Error().Err(err).Uint64("job_id", job.ID).Msg("job failed permanently")
		_ = w.Repo.MarkFailed(ctx, job.ID, err.Error())
	default:
		w.retry(ctx, job, err.Error())
	}
}

func (w *Worker) retry(ctx context.Context, job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(ctx, job.ID, errMsg)
		return
	}

	next := time.Now().Add(backoff(attempts))
	w.Log.Warn().Uint64("job_id", job.ID).Int("attempts", attempts).
		Time("next_run", next).Str("error", errMsg).Msg("retrying job")
	_ = w.Repo.RetryLater(ctx, job.ID, attempts, next, errMsg)
}

// backoff grows exponentially and caps at ten minutes.
func backoff(attempts int) time.Duration {
	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	return time.Duration(sec) * time.Second
}
