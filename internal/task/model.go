package task

import (
	"time"

	"github.com/lib/pq"
)

// List groups tasks for one user. ListType distinguishes the built-in views
// from user-created lists.
type List struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    uint64    `gorm:"index;not null"`
	Name      string    `gorm:"type:text;not null"`
	ListType  string    `gorm:"type:text;not null;default:'custom'"` // home/completed/today/personal/work/custom
	Icon      string    `gorm:"type:text;not null;default:''"`
	Color     string    `gorm:"type:text;not null;default:'#667eea'"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

type Workspace struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    uint64    `gorm:"index;not null"`
	Name      string    `gorm:"type:text;not null"`
	Color     string    `gorm:"type:text;not null;default:'#667eea'"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// Todo is a single task. Completed is the canonical completion field; the
// pending/completed status string is derived from it, never stored.
//
// ReminderJobID is the handle of the outstanding reminder job, if any. It is
// owned by the reminder lifecycle manager: nothing else reads or writes it
// except to hand it back for cancellation. At most one live handle per task.
type Todo struct {
	ID          uint64  `gorm:"primaryKey"`
	UserID      uint64  `gorm:"index;not null"`
	ListID      *uint64 `gorm:"index"`
	WorkspaceID *uint64 `gorm:"index"`

	Title       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text;not null;default:''"`
	Color       string `gorm:"type:text;not null;default:'#667eea'"`

	Completed bool `gorm:"not null;default:false"`
	Priority  int  `gorm:"not null;default:0"` // 0 low .. 3 urgent

	// DueDate carries only the calendar date; DueTime is "HH:MM" wall-clock.
	// Both must be set for a reminder to exist.
	DueDate *time.Time `gorm:"type:date"`
	DueTime *string    `gorm:"type:text"`

	Tags pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	ReminderJobID *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

func (t *Todo) Status() string {
	if t.Completed {
		return StatusCompleted
	}
	return StatusPending
}

// PriorityLabel maps the numeric priority to its display name. Zero (low)
// has no label and is omitted from reminder emails.
func PriorityLabel(p int) string {
	switch p {
	case 1:
		return "Medium"
	case 2:
		return "High"
	case 3:
		return "Urgent"
	default:
		return ""
	}
}
