package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository reads and writes admin credential rows.
type UserRepository interface {
	// CredentialsByUsername returns the user's ID and stored password hash.
	// ErrInvalidCredentials if the username is unknown.
	CredentialsByUsername(ctx context.Context, username string) (uuid.UUID, string, error)

	// UsernameByID resolves the username behind a logged-in session.
	UsernameByID(ctx context.Context, userID uuid.UUID) (string, error)

	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
}

// fallbackPasswordHash is verified against when the username is unknown, so
// that lookup misses cost the same as wrong passwords (timing leveling).
const fallbackPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service verifies and updates admin credentials.
type Service struct {
	users      UserRepository
	bcryptCost int
	log        *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBcryptCost overrides the hashing cost (tests use bcrypt.MinCost).
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(users UserRepository, log *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		users:      users,
		bcryptCost: bcrypt.DefaultCost,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateCredentials checks username/password and returns the user ID.
// Failures collapse into ErrInvalidCredentials.
func (s *Service) ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error) {
	userID, hash, err := s.users.CredentialsByUsername(ctx, username)
	if errors.Is(err, ErrInvalidCredentials) {
		s.log.WarnContext(ctx, "login attempt with unknown username")
		// Burn a comparison against the fallback hash anyway.
		_ = bcrypt.CompareHashAndPassword([]byte(fallbackPasswordHash), []byte(password))
		return uuid.Nil, ErrInvalidCredentials
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("query auth credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	return userID, nil
}

// Username returns the username behind userID. A missing row is unexpected
// here since callers hold a session for that user.
func (s *Service) Username(ctx context.Context, userID uuid.UUID) (string, error) {
	username, err := s.users.UsernameByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("query username: %w", err)
	}
	return username, nil
}

// ChangePassword hashes and stores a new password for userID.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}
