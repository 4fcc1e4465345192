package auth_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/newsletter/internal/auth"
)

type mockUserRepo struct {
	userID uuid.UUID
	hash   string
}

func (m *mockUserRepo) CredentialsByUsername(ctx context.Context, username string) (uuid.UUID, string, error) {
	if username != "admin" {
		return uuid.Nil, "", auth.ErrInvalidCredentials
	}
	return m.userID, m.hash, nil
}

func (m *mockUserRepo) UsernameByID(ctx context.Context, userID uuid.UUID) (string, error) {
	return "admin", nil
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	m.hash = hash
	return nil
}

func newRepo(t *testing.T, password string) *mockUserRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockUserRepo{userID: uuid.New(), hash: string(hash)}
}

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials return the user id", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t, "correct horse battery staple")
		svc := auth.NewService(repo, slog.New(slog.DiscardHandler), auth.WithBcryptCost(bcrypt.MinCost))

		userID, err := svc.ValidateCredentials(context.Background(), "admin", "correct horse battery staple")
		require.NoError(t, err)
		assert.Equal(t, repo.userID, userID)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t, "correct horse battery staple")
		svc := auth.NewService(repo, slog.New(slog.DiscardHandler), auth.WithBcryptCost(bcrypt.MinCost))

		_, err := svc.ValidateCredentials(context.Background(), "admin", "guess")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown username is rejected identically", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t, "correct horse battery staple")
		svc := auth.NewService(repo, slog.New(slog.DiscardHandler), auth.WithBcryptCost(bcrypt.MinCost))

		_, err := svc.ValidateCredentials(context.Background(), "nobody", "guess")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestUsername(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, "correct horse battery staple")
	svc := auth.NewService(repo, slog.New(slog.DiscardHandler))

	username, err := svc.Username(context.Background(), repo.userID)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	t.Run("new password verifies, old one stops working", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t, "old password value")
		svc := auth.NewService(repo, slog.New(slog.DiscardHandler), auth.WithBcryptCost(bcrypt.MinCost))

		require.NoError(t, svc.ChangePassword(context.Background(), repo.userID, "new password value"))

		_, err := svc.ValidateCredentials(context.Background(), "admin", "new password value")
		require.NoError(t, err)

		_, err = svc.ValidateCredentials(context.Background(), "admin", "old password value")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}
