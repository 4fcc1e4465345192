package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgUserRepository is the Postgres-backed UserRepository.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) CredentialsByUsername(ctx context.Context, username string) (uuid.UUID, string, error) {
	var (
		userID uuid.UUID
		hash   string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&userID, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("query user credentials: %w", err)
	}
	return userID, hash, nil
}

func (r *PgUserRepository) UsernameByID(ctx context.Context, userID uuid.UUID) (string, error) {
	var username string
	err := r.pool.QueryRow(ctx, `
		SELECT username FROM users WHERE user_id = $1`,
		userID,
	).Scan(&username)
	if err != nil {
		return "", fmt.Errorf("query username: %w", err)
	}
	return username, nil
}

func (r *PgUserRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	if _, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2 WHERE user_id = $1`,
		userID, hash,
	); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}
