package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"taskdo/internal/auth"
	"taskdo/internal/config"
	"taskdo/internal/db"
	"taskdo/internal/housekeeping"
	httpx "taskdo/internal/http"
	"taskdo/internal/logging"
	"taskdo/internal/mail"
	"taskdo/internal/queue"
	"taskdo/internal/reminder"
	"taskdo/internal/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.AppEnv)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Warn().Msg("SMTP_HOST not set, mail goes to the log")
		mailer = &mail.LogMailer{Log: log}
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	otpSvc := &auth.OTPService{DB: gdb, Mailer: mailer, Expiry: cfg.OTPExpiry, Log: log}

	jobs := &queue.Repo{DB: gdb}
	store := &task.Store{DB: gdb}
	reminders := reminder.NewManager(jobs, store, cfg.Timezone, cfg.ReminderLead, log)
	executor := reminder.NewExecutor(store, mailer, cfg.Timezone, log)

	worker := &queue.Worker{
		ID:       "worker-1",
		Repo:     jobs,
		Interval: cfg.WorkerPollInterval,
		Log:      log,
		Handlers: map[string]queue.Handler{
			reminder.JobType: executor.HandleJob,
		},
	}

	c := cron.New(cron.WithLocation(cfg.Timezone))
	sweeper := &housekeeping.Sweeper{DB: gdb, Jobs: jobs, OTPExpiry: cfg.OTPExpiry, Log: log}
	if err := sweeper.Register(c); err != nil {
		log.Fatal().Err(err).Msg("failed to register housekeeping jobs")
	}

	r := httpx.NewRouter(cfg, gdb, jwtSvc, otpSvc, reminders, log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		worker.Run(ctx)
		return nil
	})

	c.Start()

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)

		<-c.Stop().Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("exited")
	}
}
