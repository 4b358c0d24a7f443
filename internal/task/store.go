package task

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"taskdo/internal/auth"
)

var ErrNotFound = errors.New("not found")

// Store is the gorm-backed task store used by the reminder subsystem. The
// HTTP handlers talk to the database directly; the reminder code goes through
// this narrower surface so it can be faked in tests.
type Store struct {
	DB *gorm.DB
}

// Get fetches a task by id. Returns ErrNotFound when the row is gone.
func (s *Store) Get(ctx context.Context, id uint64) (*Todo, error) {
	var t Todo
	err := s.DB.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// SetReminderJobID persists only the reminder handle column. nil clears it.
func (s *Store) SetReminderJobID(ctx context.Context, id uint64, handle *string) error {
	return s.DB.WithContext(ctx).
		Model(&Todo{}).
		Where("id = ?", id).
		Update("reminder_job_id", handle).Error
}

// Owner resolves the user a task belongs to.
func (s *Store) Owner(ctx context.Context, userID uint64) (*auth.User, error) {
	var u auth.User
	err := s.DB.WithContext(ctx).First(&u, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
