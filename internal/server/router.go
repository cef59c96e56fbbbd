package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"staffhub/backend/internal/audit"
	"staffhub/backend/internal/devotp"
	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/server/handler"
	"staffhub/backend/internal/server/middleware"
)

// RouterConfig carries the handlers and middleware NewRouter mounts.
type RouterConfig struct {
	Auth      *handler.AuthHandler
	Employees *handler.EmployeeHandler
	Tasks     *handler.TaskHandler
	Chat      *handler.ChatHandler
	Health    handler.HealthRunner

	Authenticator *middleware.Authenticator
	RoleGate      *middleware.RoleGate
	Audit         audit.AuditLogger

	CORSOrigins []string
	Secure      func(http.Handler) http.Handler
	// DevCodes mounts GET /dev/otp when non-nil.
	DevCodes devotp.Store
	Metrics  bool
	Log      zerolog.Logger
}

// NewRouter builds the HTTP API: /api/*, /ws, /health and optionally /metrics and /dev/otp.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(middleware.ClientIP)
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))

	if cfg.Health != nil {
		r.Get("/health", handler.Health(cfg.Health))
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.DevCodes != nil {
		r.Get("/dev/otp", handler.DevOTP(cfg.DevCodes))
	}
	r.Get("/ws", cfg.Chat.Socket)

	requireOwner := cfg.RoleGate.RequireRole(identitydomain.RoleOwner)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/otp/request", cfg.Auth.RequestOTP)
			r.Post("/otp/verify", cfg.Auth.VerifyOTP)
			r.Post("/login/email", cfg.Auth.LoginEmail)
			r.Post("/logout", cfg.Auth.Logout)
			r.Post("/invitation/validate", cfg.Auth.ValidateInvitation)
			r.Post("/invitation/complete", cfg.Auth.CompleteInvitation)
			r.With(cfg.Authenticator.Handler).Get("/me", cfg.Auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticator.Handler)
			if cfg.Audit != nil {
				r.Use(middleware.Audit(cfg.Audit))
			}

			r.Route("/employees", func(r chi.Router) {
				r.Use(requireOwner)
				r.Get("/", cfg.Employees.List)
				r.Post("/", cfg.Employees.Create)
				r.Get("/{id}", cfg.Employees.Get)
				r.Put("/{id}", cfg.Employees.Update)
				r.Delete("/{id}", cfg.Employees.Delete)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", cfg.Tasks.List)
				r.With(requireOwner).Post("/", cfg.Tasks.Create)
				r.Get("/{id}", cfg.Tasks.Get)
				r.Patch("/{id}/status", cfg.Tasks.UpdateStatus)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Get("/members", cfg.Chat.Members)
				r.Get("/rooms/{peerId}/messages", cfg.Chat.History)
			})
		})
	})
	return r
}
