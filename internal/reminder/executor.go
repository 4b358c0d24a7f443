package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"taskdo/internal/auth"
	"taskdo/internal/mail"
	"taskdo/internal/queue"
	"taskdo/internal/task"
)

// Outcome is the terminal status of one executor run. Every expected skip
// condition is an outcome, not an error.
type Outcome string

const (
	OutcomeSent             Outcome = "sent"
	OutcomeAlreadyCompleted Outcome = "already completed"
	OutcomeNoDue            Outcome = "no due date/time"
	OutcomeDuePassed        Outcome = "due time passed"
	OutcomeNotFound         Outcome = "task not found"
	OutcomeSendFailed       Outcome = "send failed"
)

// Executor is the body of a REMINDER_DISPATCH job. The payload carries only
// the task id; all decision inputs are re-fetched at fire time because the
// task may have been mutated or deleted since scheduling.
type Executor struct {
	store  Store
	mailer mail.Mailer
	loc    *time.Location
	log    zerolog.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

func NewExecutor(store Store, mailer mail.Mailer, loc *time.Location, log zerolog.Logger) *Executor {
	return &Executor{
		store:  store,
		mailer: mailer,
		loc:    loc,
		log:    log,
		Now:    time.Now,
	}
}

// HandleJob adapts Run to the queue's handler contract. Only transient store
// errors propagate (and get the queue's backoff retry); every reminder
// outcome, including a failed send, is terminal.
func (e *Executor) HandleJob(ctx context.Context, payload []byte) error {
	var p jobPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.TaskID == 0 {
		return fmt.Errorf("%w: bad reminder payload", queue.ErrFatal)
	}

	outcome, err := e.Run(ctx, p.TaskID)
	if err != nil {
		return err
	}
	e.log.Info().Uint64("task_id", p.TaskID).Str("status", string(outcome)).
		Msg("reminder job finished")
	return nil
}

// Run re-validates the task and either sends the reminder email or skips.
// The checks short-circuit in a fixed order; see each branch. The returned
// error is non-nil only for transient store failures.
func (e *Executor) Run(ctx context.Context, taskID uint64) (Outcome, error) {
	t, err := e.store.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			// Deleted since scheduling.
			return OutcomeNotFound, nil
		}
		return "", err
	}

	if t.Completed {
		return OutcomeAlreadyCompleted, nil
	}

	if t.DueDate == nil || t.DueTime == nil {
		return OutcomeNoDue, nil
	}

	now := e.Now()

	due, ok := DueAt(t, e.loc)
	if !ok {
		// Malformed due time; fail closed.
		return OutcomeNoDue, nil
	}
	if !due.After(now) {
		// Due time was edited to an earlier instant after scheduling, or
		// the job fired late.
		return OutcomeDuePassed, nil
	}

	// Redundant guard against stale due dates.
	y, m, d := now.In(e.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, e.loc)
	dy, dm, dd := t.DueDate.Date()
	if time.Date(dy, dm, dd, 0, 0, 0, 0, e.loc).Before(today) {
		return OutcomeDuePassed, nil
	}

	owner, err := e.store.Owner(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return OutcomeNotFound, nil
		}
		return "", err
	}

	subject, body := composeReminder(t, owner, due)
	if err := e.mailer.Send(ctx, owner.Email, subject, body); err != nil {
		// At-most-once: a missed send is not retried.
		e.log.Error().Err(err).Uint64("task_id", t.ID).Str("to", owner.Email).
			Msg("failed to send reminder email")
		return OutcomeSendFailed, nil
	}

	return OutcomeSent, nil
}

func composeReminder(t *task.Todo, owner *auth.User, due time.Time) (subject, body string) {
	subject = "Todo App Reminder: " + t.Title

	name := owner.FirstName
	if name == "" {
		name = owner.Email
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	b.WriteString("This is a friendly reminder about your upcoming task:\n\n")
	fmt.Fprintf(&b, "Task: %s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", t.Description)
	}
	fmt.Fprintf(&b, "Due Date: %s\n", due.Format("January 02, 2006"))
	fmt.Fprintf(&b, "Due Time: %s\n", due.Format("03:04 PM"))
	if label := task.PriorityLabel(t.Priority); label != "" {
		fmt.Fprintf(&b, "Priority: %s\n", label)
	}
	b.WriteString("\nDon't forget to complete this task on time!\n\nThank you\n")

	return subject, b.String()
}
