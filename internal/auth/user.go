package auth

import "time"

type User struct {
	ID           uint64    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	FirstName    string    `gorm:"type:text;not null;default:''"`
	LastName     string    `gorm:"type:text;not null;default:''"`
	Verified     bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
}

// UserOTP holds the one-time passcode for a pending signup. At most one row
// per email; reissuing replaces the row.
type UserOTP struct {
	ID        uint64    `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Code      string    `gorm:"type:text;not null"`
	Verified  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// PasswordReset holds a reset passcode. Unique per (email, code).
type PasswordReset struct {
	ID        uint64    `gorm:"primaryKey"`
	Email     string    `gorm:"index;not null"`
	Code      string    `gorm:"type:text;not null"`
	Verified  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}
