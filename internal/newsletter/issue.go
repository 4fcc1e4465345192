package newsletter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/newsletter/internal/subscriber"
)

// Issue is a published newsletter issue; immutable once inserted.
type Issue struct {
	ID          uuid.UUID
	Title       string
	TextContent string
	HTMLContent string
	PublishedAt time.Time
}

// IssueInput is the admin-supplied content of a new issue.
type IssueInput struct {
	Title       string
	TextContent string
	HTMLContent string
}

// IssueRepository performs the publish-side writes. Both methods run on the
// caller's transaction so they commit together with the idempotency record.
type IssueRepository interface {
	InsertIssue(ctx context.Context, tx pgx.Tx, issue Issue) error

	// EnqueueDeliveryTasks creates one pending delivery task per currently
	// confirmed subscriber and returns how many were created.
	EnqueueDeliveryTasks(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) (int64, error)
}

// PgIssueRepository is the Postgres-backed IssueRepository.
type PgIssueRepository struct{}

func NewPgIssueRepository() *PgIssueRepository {
	return &PgIssueRepository{}
}

func (PgIssueRepository) InsertIssue(ctx context.Context, tx pgx.Tx, issue Issue) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO newsletter_issues (
			newsletter_issue_id, title, text_content, html_content, published_at
		)
		VALUES ($1, $2, $3, $4, $5)`,
		issue.ID, issue.Title, issue.TextContent, issue.HTMLContent, issue.PublishedAt,
	); err != nil {
		return fmt.Errorf("insert newsletter issue: %w", err)
	}
	return nil
}

// EnqueueDeliveryTasks snapshots the confirmed subscriber set at fan-out
// time: each task starts with zero retries and is immediately eligible.
func (PgIssueRepository) EnqueueDeliveryTasks(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO issue_delivery_queue (
			newsletter_issue_id, subscriber_email, n_retries, execute_after
		)
		SELECT $1, email, 0, now()
		FROM subscriptions
		WHERE status = $2`,
		issueID, subscriber.StatusConfirmed,
	)
	if err != nil {
		return 0, fmt.Errorf("enqueue delivery tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}
