package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskdo/internal/auth"
	"taskdo/internal/task"
)

type submission struct {
	Handle  string
	Type    string
	Payload []byte
	RunAt   time.Time
}

type fakeScheduler struct {
	mu        sync.Mutex
	submits   []submission
	cancels   []string
	submitErr error
	cancelErr error
	seq       int
}

func (f *fakeScheduler) Submit(_ context.Context, jobType string, payload []byte, runAt time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.seq++
	handle := fmt.Sprintf("job-%d", f.seq)
	f.submits = append(f.submits, submission{Handle: handle, Type: jobType, Payload: payload, RunAt: runAt})
	return handle, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, handle string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancels = append(f.cancels, handle)
	return nil
}

// live returns the submitted handles that were never cancelled.
func (f *fakeScheduler) live() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cancelled := map[string]bool{}
	for _, h := range f.cancels {
		cancelled[h] = true
	}
	var out []string
	for _, s := range f.submits {
		if !cancelled[s.Handle] {
			out = append(out, s.Handle)
		}
	}
	return out
}

type fakeStore struct {
	mu     sync.Mutex
	tasks  map[uint64]*task.Todo
	users  map[uint64]*auth.User
	getErr error
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: map[uint64]*task.Todo{},
		users: map[uint64]*auth.User{},
	}
}

func (f *fakeStore) Get(_ context.Context, id uint64) (*task.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, task.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) SetReminderJobID(_ context.Context, id uint64, handle *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if t, ok := f.tasks[id]; ok {
		t.ReminderJobID = handle
	}
	return nil
}

func (f *fakeStore) Owner(_ context.Context, userID uint64) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, task.ErrNotFound
	}
	return u, nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}
