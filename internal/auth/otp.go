package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskdo/internal/mail"
)

var (
	ErrInvalidOTP = errors.New("invalid otp")
	ErrExpiredOTP = errors.New("otp expired")
)

// OTPService issues and verifies one-time passcodes over email.
type OTPService struct {
	DB     *gorm.DB
	Mailer mail.Mailer
	Expiry time.Duration
	Log    zerolog.Logger
}

// GenerateCode returns a random 6-digit passcode.
func GenerateCode() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	code := make([]byte, 6)
	for i, v := range b {
		code[i] = '0' + v%10
	}
	return string(code)
}

// Issue replaces any existing signup OTP for the email and mails a fresh one.
// The row is removed again if delivery fails so verify cannot succeed against
// a code the user never received.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	code := GenerateCode()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&UserOTP{}).Error; err != nil {
			return err
		}
		return tx.Create(&UserOTP{Email: email, Code: code, CreatedAt: time.Now()}).Error
	})
	if err != nil {
		return err
	}

	subject := "Your Todo App Verification Code"
	body := fmt.Sprintf(`Hello,

Your OTP for registering with Todo App is: %s

This OTP will expire in %d minutes.

If you didn't request this, please ignore this email.

Best regards,
Todo App Team
`, code, int(s.Expiry.Minutes()))

	if err := s.Mailer.Send(ctx, email, subject, body); err != nil {
		s.Log.Error().Err(err).Str("email", email).Msg("failed to send otp email")
		_ = s.DB.WithContext(ctx).Where("email = ?", email).Delete(&UserOTP{}).Error
		return err
	}
	return nil
}

// Verify checks the code and expiry for the email. Expired rows are deleted.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	var row UserOTP
	err := s.DB.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if time.Since(row.CreatedAt) > s.Expiry {
		_ = s.DB.WithContext(ctx).Delete(&row).Error
		return ErrExpiredOTP
	}

	return s.DB.WithContext(ctx).Model(&row).Update("verified", true).Error
}

// Delete removes the signup OTP after the account is created.
func (s *OTPService) Delete(ctx context.Context, email string) error {
	return s.DB.WithContext(ctx).Where("email = ?", email).Delete(&UserOTP{}).Error
}

// IssueReset mails a password-reset passcode.
func (s *OTPService) IssueReset(ctx context.Context, email string) error {
	code := GenerateCode()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Create(&PasswordReset{Email: email, Code: code, CreatedAt: time.Now()}).Error
	})
	if err != nil {
		return err
	}

	subject := "Your Todo App Password Reset Code"
	body := fmt.Sprintf(`Hello,

Your password reset code for Todo App is: %s

This code will expire in %d minutes.

If you didn't request this, please ignore this email.

Best regards,
Todo App Team
`, code, int(s.Expiry.Minutes()))

	if err := s.Mailer.Send(ctx, email, subject, body); err != nil {
		s.Log.Error().Err(err).Str("email", email).Msg("failed to send reset email")
		_ = s.DB.WithContext(ctx).Where("email = ?", email).Delete(&PasswordReset{}).Error
		return err
	}
	return nil
}

// VerifyReset checks a password-reset code and consumes it on success.
func (s *OTPService) VerifyReset(ctx context.Context, email, code string) error {
	var row PasswordReset
	err := s.DB.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if time.Since(row.CreatedAt) > s.Expiry {
		_ = s.DB.WithContext(ctx).Delete(&row).Error
		return ErrExpiredOTP
	}

	return s.DB.WithContext(ctx).Delete(&row).Error
}
