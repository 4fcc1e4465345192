package subscriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository is the Postgres-backed Repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// CreateSubscriber inserts the subscription and its token in one transaction
// so that a stored subscriber always has a resolvable confirmation token.
func (r *PgRepository) CreateSubscriber(ctx context.Context, sub Subscriber, token string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.Email, sub.Name, sub.SubscribedAt, sub.Status,
	); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)`,
		token, sub.ID,
	); err != nil {
		return fmt.Errorf("insert subscription token: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) SubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	var subscriberID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT subscriber_id FROM subscription_tokens
		WHERE subscription_token = $1`,
		token,
	).Scan(&subscriberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrUnknownToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("query subscription token: %w", err)
	}
	return subscriberID, nil
}

func (r *PgRepository) MarkConfirmed(ctx context.Context, subscriberID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET status = $2 WHERE id = $1`,
		subscriberID, StatusConfirmed,
	); err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}
