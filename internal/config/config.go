package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DatabaseURL string

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string

	// Timezone used to compose a task's due date and due time into an
	// absolute instant. Wall-clock composition must go through this
	// location, never a fixed offset.
	Timezone *time.Location

	ReminderLead       time.Duration
	WorkerPollInterval time.Duration
	OTPExpiry          time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:               getenv("APP_ENV", "dev"),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		JWTSecret:            mustGetenv("JWT_SECRET"),
		ReminderLead:         minutesEnv("REMINDER_LEAD_MINUTES", 30),
		WorkerPollInterval:   durationEnv("WORKER_POLL_INTERVAL", 800*time.Millisecond),
		OTPExpiry:            minutesEnv("OTP_EXPIRY_MINUTES", 10),
		SMTPHost:             getenv("SMTP_HOST", ""),
		SMTPPort:             intEnv("SMTP_PORT", 587),
		SMTPUsername:         getenv("SMTP_USERNAME", ""),
		SMTPPassword:         getenv("SMTP_PASSWORD", ""),
		SMTPFrom:             getenv("SMTP_FROM", "noreply@taskdo.local"),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	loc, err := time.LoadLocation(getenv("TIMEZONE", "Local"))
	if err != nil {
		return cfg, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = loc

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func minutesEnv(key string, defMinutes int) time.Duration {
	return time.Duration(intEnv(key, defMinutes)) * time.Minute
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
