package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Claim is a dequeued task plus the open transaction holding its row lock.
// Exactly one of Delete, ScheduleRetry, or Release must be called on it.
type Claim struct {
	Task Task

	tx pgx.Tx
}

// Queue is the durable delivery queue consumed by the worker.
type Queue interface {
	// Dequeue claims one ready task, skipping rows locked by other workers.
	// Returns (nil, nil) when no unlocked eligible task exists. Selection
	// among ready tasks is arbitrary.
	Dequeue(ctx context.Context) (*Claim, error)

	// Delete removes the claimed task (terminal outcome) and commits.
	Delete(ctx context.Context, c *Claim) error

	// ScheduleRetry increments the retry counter, pushes execute_after into
	// the future by the quadratic backoff, and commits.
	ScheduleRetry(ctx context.Context, c *Claim) error

	// Release abandons the claim without changing the task; the row becomes
	// eligible again immediately.
	Release(ctx context.Context, c *Claim) error

	// IssueContent loads the newsletter content for a claimed task.
	IssueContent(ctx context.Context, c *Claim) (IssueContent, error)
}

// RetryBackoff returns the delay before the next attempt of a task that has
// failed nRetries times before this failure: the r-th failure schedules the
// task r*r seconds into the future.
func RetryBackoff(nRetries int16) time.Duration {
	r := int64(nRetries) + 1
	return time.Duration(r*r) * time.Second
}

// database is the slice of pgxpool.Pool the queue and pruner use; narrowed
// so tests can drive the claim choreography through a stub connection.
type database interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgQueue is the Postgres-backed Queue.
type PgQueue struct {
	db database
}

func NewPgQueue(pool *pgxpool.Pool) *PgQueue {
	return &PgQueue{db: pool}
}

func (q *PgQueue) Dequeue(ctx context.Context) (*Claim, error) {
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	var task Task
	err = tx.QueryRow(ctx, `
		SELECT newsletter_issue_id, subscriber_email, n_retries
		FROM issue_delivery_queue
		WHERE execute_after <= now()
		FOR UPDATE
		SKIP LOCKED
		LIMIT 1`,
	).Scan(&task.IssueID, &task.Email, &task.NRetries)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = tx.Rollback(ctx)
		return nil, nil
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("dequeue task: %w", err)
	}

	return &Claim{Task: task, tx: tx}, nil
}

func (q *PgQueue) Delete(ctx context.Context, c *Claim) error {
	if _, err := c.tx.Exec(ctx, `
		DELETE FROM issue_delivery_queue
		WHERE newsletter_issue_id = $1 AND subscriber_email = $2`,
		c.Task.IssueID, c.Task.Email,
	); err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("delete task: %w", err)
	}
	if err := c.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (q *PgQueue) ScheduleRetry(ctx context.Context, c *Claim) error {
	delay := RetryBackoff(c.Task.NRetries)
	if _, err := c.tx.Exec(ctx, `
		UPDATE issue_delivery_queue
		SET n_retries = n_retries + 1,
		    execute_after = now() + make_interval(secs => $3)
		WHERE newsletter_issue_id = $1 AND subscriber_email = $2`,
		c.Task.IssueID, c.Task.Email, delay.Seconds(),
	); err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("schedule retry: %w", err)
	}
	if err := c.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit retry: %w", err)
	}
	return nil
}

func (q *PgQueue) Release(ctx context.Context, c *Claim) error {
	return c.tx.Rollback(ctx)
}

// IssueContent reads from the pool, not the claim's transaction: the issue
// row is immutable after publish, so no lock is needed.
func (q *PgQueue) IssueContent(ctx context.Context, c *Claim) (IssueContent, error) {
	var content IssueContent
	err := q.db.QueryRow(ctx, `
		SELECT title, text_content, html_content
		FROM newsletter_issues
		WHERE newsletter_issue_id = $1`,
		c.Task.IssueID,
	).Scan(&content.Title, &content.TextContent, &content.HTMLContent)
	if err != nil {
		return IssueContent{}, fmt.Errorf("load issue content: %w", err)
	}
	return content, nil
}
