package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/newsletter/internal/idempotency"
)

// IdempotencyStore is the slice of the idempotency package the coordinator
// depends on.
type IdempotencyStore interface {
	BeginProcessing(ctx context.Context, key idempotency.Key, userID uuid.UUID) (idempotency.NextAction, error)
	SaveResponse(ctx context.Context, tx pgx.Tx, key idempotency.Key, userID uuid.UUID, resp idempotency.Response) error
}

// Service is the publish-newsletter request coordinator.
type Service struct {
	idem   IdempotencyStore
	issues IssueRepository
	log    *slog.Logger
}

func NewService(idem IdempotencyStore, issues IssueRepository, log *slog.Logger) *Service {
	return &Service{
		idem:   idem,
		issues: issues,
		log:    log,
	}
}

// Publish runs the publish operation for (userID, key). If the key was seen
// before, the cached response is returned verbatim and nothing is written.
// Otherwise the issue insert, the per-subscriber fan-out, and the response
// cache commit as one transaction; success is the only path that makes any
// of them visible.
//
// The success response is supplied by the caller: redirect and flash
// semantics belong to the HTTP layer, the coordinator only caches and
// returns what it is given.
func (s *Service) Publish(
	ctx context.Context,
	userID uuid.UUID,
	key idempotency.Key,
	input IssueInput,
	success idempotency.Response,
) (idempotency.Response, error) {
	action, err := s.idem.BeginProcessing(ctx, key, userID)
	if err != nil {
		return idempotency.Response{}, fmt.Errorf("begin idempotent processing: %w", err)
	}

	var tx pgx.Tx
	switch a := action.(type) {
	case idempotency.SavedResponse:
		s.log.InfoContext(ctx, "replaying saved response for duplicate publish",
			slog.String("user_id", userID.String()),
			slog.String("idempotency_key", key.String()))
		return a.Response, nil
	case idempotency.StartProcessing:
		tx = a.Tx
	default:
		return idempotency.Response{}, fmt.Errorf("unexpected idempotency action %T", action)
	}

	issue := Issue{
		ID:          uuid.New(),
		Title:       input.Title,
		TextContent: input.TextContent,
		HTMLContent: input.HTMLContent,
		PublishedAt: time.Now(),
	}

	if err := s.issues.InsertIssue(ctx, tx, issue); err != nil {
		_ = tx.Rollback(ctx)
		return idempotency.Response{}, fmt.Errorf("store newsletter issue: %w", err)
	}

	enqueued, err := s.issues.EnqueueDeliveryTasks(ctx, tx, issue.ID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return idempotency.Response{}, fmt.Errorf("enqueue newsletter delivery: %w", err)
	}

	if err := s.idem.SaveResponse(ctx, tx, key, userID, success); err != nil {
		_ = tx.Rollback(ctx)
		return idempotency.Response{}, fmt.Errorf("save response: %w", err)
	}

	s.log.InfoContext(ctx, "newsletter issue accepted",
		slog.String("newsletter_issue_id", issue.ID.String()),
		slog.Int64("delivery_tasks", enqueued))

	return success, nil
}
