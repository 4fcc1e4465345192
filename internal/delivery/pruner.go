package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyPruner deletes idempotency records older than the retention
// window, returning how many rows were removed.
type IdempotencyPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// PgIdempotencyPruner prunes the idempotency table with a 24h retention
// window measured from created_at.
type PgIdempotencyPruner struct {
	db database
}

func NewPgIdempotencyPruner(pool *pgxpool.Pool) *PgIdempotencyPruner {
	return &PgIdempotencyPruner{db: pool}
}

func (p *PgIdempotencyPruner) PruneExpired(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `
		DELETE FROM idempotency
		WHERE (created_at + interval '1 day') < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("prune idempotency records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Pruner periodically expires idempotency records. Failures are logged and
// the loop continues; it only returns when ctx is cancelled.
type Pruner struct {
	store    IdempotencyPruner
	log      *slog.Logger
	interval time.Duration
}

// PrunerOption configures a Pruner.
type PrunerOption func(*Pruner)

// WithPruneInterval overrides the cycle interval.
func WithPruneInterval(d time.Duration) PrunerOption {
	return func(p *Pruner) { p.interval = d }
}

// NewPruner creates a retention pruner.
func NewPruner(store IdempotencyPruner, log *slog.Logger, opts ...PrunerOption) (*Pruner, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	p := &Pruner{
		store:    store,
		log:      log,
		interval: 1000 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes one prune cycle per interval until ctx is cancelled.
func (p *Pruner) Run(ctx context.Context) error {
	for {
		pruned, err := p.store.PruneExpired(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			p.log.ErrorContext(ctx, "failed to prune idempotency table",
				slog.String("error", err.Error()))
		case pruned > 0:
			p.log.InfoContext(ctx, "pruned expired idempotency records",
				slog.Int64("pruned", pruned))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}
