package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/newsletter/internal/email"
	"github.com/dmitrymomot/newsletter/internal/subscriber"
)

// Outcome reports what a single worker iteration achieved.
type Outcome int

const (
	// OutcomeTaskCompleted means a task was claimed and finished (delivered,
	// dropped, retried, or abandoned); the queue may hold more ready work.
	OutcomeTaskCompleted Outcome = iota

	// OutcomeEmptyQueue means no unlocked eligible task was found.
	OutcomeEmptyQueue
)

// DefaultMaxRetries bounds the retry policy. A task observed with more
// retries than this is abandoned instead of rescheduled.
const DefaultMaxRetries = 3

// Worker is the stateless delivery loop. Multiple workers may run against
// the same queue, in the same process or across processes.
type Worker struct {
	queue  Queue
	sender email.Sender
	log    *slog.Logger

	maxRetries      int16
	emptyQueueSleep time.Duration
	errorSleep      time.Duration
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithMaxRetries overrides the retry bound.
func WithMaxRetries(n int16) WorkerOption {
	return func(w *Worker) { w.maxRetries = n }
}

// WithEmptyQueueSleep overrides the idle backoff.
func WithEmptyQueueSleep(d time.Duration) WorkerOption {
	return func(w *Worker) { w.emptyQueueSleep = d }
}

// WithErrorSleep overrides the transient-error backoff.
func WithErrorSleep(d time.Duration) WorkerOption {
	return func(w *Worker) { w.errorSleep = d }
}

// NewWorker creates a delivery worker.
func NewWorker(queue Queue, sender email.Sender, log *slog.Logger, opts ...WorkerOption) (*Worker, error) {
	if queue == nil {
		return nil, ErrQueueNil
	}
	if sender == nil {
		return nil, ErrSenderNil
	}

	w := &Worker{
		queue:           queue,
		sender:          sender,
		log:             log,
		maxRetries:      DefaultMaxRetries,
		emptyQueueSleep: 10 * time.Second,
		errorSleep:      time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run drives the worker until ctx is cancelled. A completed task triggers an
// immediate next poll; an empty queue sleeps 10s; an unexpected data-access
// error sleeps 1s and retries. The loop itself never fails.
func (w *Worker) Run(ctx context.Context) error {
	for {
		outcome, err := w.TryExecuteTask(ctx)

		var pause time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.ErrorContext(ctx, "delivery iteration failed",
				slog.String("error", err.Error()))
			pause = w.errorSleep
		case outcome == OutcomeEmptyQueue:
			pause = w.emptyQueueSleep
		default:
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}

// TryExecuteTask processes at most one task: claim, validate, deliver, and
// apply the success/failure policy. All outcomes commit the claim's
// transaction; only unexpected data-access errors leave it released.
func (w *Worker) TryExecuteTask(ctx context.Context) (Outcome, error) {
	claim, err := w.queue.Dequeue(ctx)
	if err != nil {
		return OutcomeEmptyQueue, err
	}
	if claim == nil {
		return OutcomeEmptyQueue, nil
	}

	task := claim.Task
	log := w.log.With(
		slog.String("newsletter_issue_id", task.IssueID.String()),
		slog.String("subscriber_email", task.Email),
	)

	// A malformed stored address can never succeed; drop it instead of
	// burning retries.
	if _, err := subscriber.ParseEmail(task.Email); err != nil {
		log.ErrorContext(ctx, "subscriber contact details are invalid, skipping",
			slog.String("error", err.Error()))
		if err := w.queue.Delete(ctx, claim); err != nil {
			return OutcomeEmptyQueue, err
		}
		return OutcomeTaskCompleted, nil
	}

	issue, err := w.queue.IssueContent(ctx, claim)
	if err != nil {
		_ = w.queue.Release(ctx, claim)
		return OutcomeEmptyQueue, err
	}

	if sendErr := w.sender.Send(ctx, task.Email, issue.Title, issue.HTMLContent, issue.TextContent); sendErr != nil {
		log.ErrorContext(ctx, "failed to deliver issue to confirmed subscriber",
			slog.String("error", sendErr.Error()),
			slog.Int("retries", int(task.NRetries)),
			slog.Int("max_retries", int(w.maxRetries)))
		if err := w.retryOrAbandon(ctx, claim, log); err != nil {
			return OutcomeEmptyQueue, err
		}
		return OutcomeTaskCompleted, nil
	}

	if err := w.queue.Delete(ctx, claim); err != nil {
		return OutcomeEmptyQueue, err
	}
	return OutcomeTaskCompleted, nil
}

// retryOrAbandon applies the bounded retry policy to a failed attempt.
func (w *Worker) retryOrAbandon(ctx context.Context, claim *Claim, log *slog.Logger) error {
	if claim.Task.NRetries <= w.maxRetries {
		return w.queue.ScheduleRetry(ctx, claim)
	}

	// Retries exhausted: the delivery is abandoned. This is a silent
	// data-loss point for the subscriber, so it must be loud in the logs.
	log.ErrorContext(ctx, "delivery abandoned after exhausting retries",
		slog.Int("retries", int(claim.Task.NRetries)))
	return w.queue.Delete(ctx, claim)
}
