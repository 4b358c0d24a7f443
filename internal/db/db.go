package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"taskdo/internal/auth"
	"taskdo/internal/queue"
	"taskdo/internal/task"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&auth.UserOTP{},
		&auth.PasswordReset{},
		&task.List{},
		&task.Workspace{},
		&task.Todo{},
		&queue.Job{},
	); err != nil {
		return err
	}

	// One reset code per (email, code)
	if err := gdb.Exec(`create unique index if not exists uq_password_resets_email_code on password_resets(email, code);`).Error; err != nil {
		return err
	}

	// Tag filter (GIN for text[])
	if err := gdb.Exec(`create index if not exists idx_todos_tags on todos using gin (tags);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_todos_user_completed on todos(user_id, completed);`,
		`create index if not exists idx_todos_user_created on todos(user_id, created_at desc);`,
		`create index if not exists idx_lists_user on lists(user_id, list_type, created_at);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
