package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskdo/internal/auth"
	"taskdo/internal/config"
	"taskdo/internal/http/handler"
	mw "taskdo/internal/http/middleware"
	"taskdo/internal/reminder"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, otpSvc *auth.OTPService, reminders *reminder.Manager, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc, OTP: otpSvc, Log: log}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/verify-otp", ah.VerifyOTP)
	r.Post("/auth/resend-otp", ah.ResendOTP)
	r.Post("/auth/login", ah.Login)
	r.Post("/auth/forgot-password", ah.ForgotPassword)
	r.Post("/auth/reset-password", ah.ResetPassword)

	me := &handler.MeHandler{DB: db}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	th := &handler.TaskHandler{DB: db, Reminders: reminders, Log: log}
	r.Route("/tasks", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", th.Create)
		r.Get("/", th.List)
		r.Get("/{id}", th.Get)
		r.Put("/{id}", th.Update)
		r.Patch("/{id}/complete", th.Complete)
		r.Delete("/{id}", th.Delete)
	})

	lh := &handler.ListHandler{DB: db, Reminders: reminders, Log: log}
	r.Route("/lists", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", lh.Create)
		r.Get("/", lh.List)
		r.Delete("/{id}", lh.Delete)
	})

	wh := &handler.WorkspaceHandler{DB: db, Reminders: reminders, Log: log}
	r.Route("/workspaces", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", wh.Create)
		r.Get("/", wh.List)
		r.Delete("/{id}", wh.Delete)
	})

	return r
}
