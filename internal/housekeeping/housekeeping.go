package housekeeping

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskdo/internal/auth"
	"taskdo/internal/queue"
)

// Sweeper runs the periodic cleanup jobs: expired OTP rows and finished
// queue jobs.
type Sweeper struct {
	DB        *gorm.DB
	Jobs      *queue.Repo
	OTPExpiry time.Duration
	Log       zerolog.Logger
}

// Register adds the sweeps to the cron: OTPs every ten minutes, job pruning
// daily.
func (s *Sweeper) Register(c *cron.Cron) error {
	if _, err := c.AddFunc("@every 10m", s.purgeOTPs); err != nil {
		return err
	}
	if _, err := c.AddFunc("@daily", s.pruneJobs); err != nil {
		return err
	}
	return nil
}

func (s *Sweeper) purgeOTPs() {
	cutoff := time.Now().Add(-s.OTPExpiry)

	res := s.DB.Where("created_at < ?", cutoff).Delete(&auth.UserOTP{})
	if res.Error != nil {
		s.Log.Error().Err(res.Error).Msg("otp purge failed")
		return
	}
	removed := res.RowsAffected

	res = s.DB.Where("created_at < ?", cutoff).Delete(&auth.PasswordReset{})
	if res.Error != nil {
		s.Log.Error().Err(res.Error).Msg("password reset purge failed")
		return
	}
	removed += res.RowsAffected

	if removed > 0 {
		s.Log.Info().Int64("removed", removed).Msg("purged expired otps")
	}
}

func (s *Sweeper) pruneJobs() {
	cutoff := time.Now().AddDate(0, 0, -7)
	n, err := s.Jobs.PruneFinished(context.Background(), cutoff)
	if err != nil {
		s.Log.Error().Err(err).Msg("job prune failed")
		return
	}
	if n > 0 {
		s.Log.Info().Int64("removed", n).Msg("pruned finished jobs")
	}
}
