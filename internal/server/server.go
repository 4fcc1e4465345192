// Package server wires the thin HTTP layer: routing, session cookies, form
// decoding, and response rendering. All business rules live in the domain
// packages; handlers here translate between HTTP and those services.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/newsletter/internal/config"
	"github.com/dmitrymomot/newsletter/internal/idempotency"
	"github.com/dmitrymomot/newsletter/internal/newsletter"
)

// SubscriptionService is the subscribe/confirm flow the public routes use.
type SubscriptionService interface {
	Subscribe(ctx context.Context, name, email string) error
	Confirm(ctx context.Context, token string) error
}

// PublishService is the idempotent publish coordinator.
type PublishService interface {
	Publish(ctx context.Context, userID uuid.UUID, key idempotency.Key, input newsletter.IssueInput, success idempotency.Response) (idempotency.Response, error)
}

// Authenticator verifies and updates admin credentials.
type Authenticator interface {
	ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error)
	Username(ctx context.Context, userID uuid.UUID) (string, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error
}

// SessionManager stores login sessions.
type SessionManager interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	UserID(ctx context.Context, token string) (uuid.UUID, error)
	Destroy(ctx context.Context, token string) error
}

// Server holds handler dependencies.
type Server struct {
	subscribers SubscriptionService
	newsletters PublishService
	auth        Authenticator
	sessions    SessionManager
	log         *slog.Logger
}

func New(
	subscribers SubscriptionService,
	newsletters PublishService,
	authSvc Authenticator,
	sessions SessionManager,
	log *slog.Logger,
) *Server {
	return &Server{
		subscribers: subscribers,
		newsletters: newsletters,
		auth:        authSvc,
		sessions:    sessions,
		log:         log,
	}
}

// Router builds the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleHome)
	r.Post("/subscriptions", s.handleSubscribe)
	r.Get("/subscriptions/confirm", s.handleConfirm)
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/password", s.handlePasswordForm)
		r.Post("/password", s.handleChangePassword)
		r.Post("/logout", s.handleLogout)
		r.Get("/newsletters", s.handleNewsletterForm)
		r.Post("/newsletters", s.handlePublishNewsletter)
	})

	return r
}

// HTTPServer builds the http.Server the process runs.
func HTTPServer(cfg config.App, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
