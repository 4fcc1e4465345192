package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NextAction is the outcome of BeginProcessing: either StartProcessing,
// carrying the open transaction the request must run in, or SavedResponse,
// carrying the previously stored response to replay.
type NextAction interface {
	isNextAction()
}

// StartProcessing means no prior record existed. The caller owns Tx and must
// finish with SaveResponse (which commits) or roll it back.
type StartProcessing struct {
	Tx pgx.Tx
}

// SavedResponse means a completed record exists; Response is the stored
// outcome to return verbatim.
type SavedResponse struct {
	Response Response
}

func (StartProcessing) isNextAction() {}
func (SavedResponse) isNextAction()   {}

// database is the slice of pgxpool.Pool the store uses; narrowed so tests
// can drive the claim/replay choreography through a stub connection.
type database interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists idempotency records in Postgres.
type Store struct {
	db database
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// BeginProcessing attempts to claim (userID, key) by inserting a pending
// record inside a fresh transaction. Concurrent duplicate submissions are
// serialized on the primary key: exactly one caller gets StartProcessing,
// the rest observe the conflict and replay the saved response.
func (s *Store) BeginProcessing(ctx context.Context, key Key, userID uuid.UUID) (NextAction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO idempotency (user_id, idempotency_key, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING`,
		userID, key.String(),
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("insert idempotency record: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return StartProcessing{Tx: tx}, nil
	}

	// Record already exists: discard the transaction and replay.
	_ = tx.Rollback(ctx)

	resp, err := s.getSavedResponse(ctx, key, userID)
	if err != nil {
		return nil, err
	}
	return SavedResponse{Response: resp}, nil
}

// SaveResponse stores the response on the record inside tx and commits.
// The caller's business writes and the cached response become visible
// atomically; this is the linchpin of the exactly-once contract.
func (s *Store) SaveResponse(ctx context.Context, tx pgx.Tx, key Key, userID uuid.UUID, resp Response) error {
	headers, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE idempotency
		SET response_status_code = $3,
		    response_headers = $4,
		    response_body = $5
		WHERE user_id = $1 AND idempotency_key = $2`,
		userID, key.String(), int16(resp.StatusCode), headers, resp.Body,
	); err != nil {
		return fmt.Errorf("update idempotency record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// getSavedResponse loads the completed response for (userID, key).
// A record whose response columns are still NULL belongs to a crashed
// in-flight attempt and is surfaced as ErrPendingRecord; a record that
// disappeared since the insert conflict is ErrMissingRecord. Neither is
// treated as a fresh start.
func (s *Store) getSavedResponse(ctx context.Context, key Key, userID uuid.UUID) (Response, error) {
	var (
		statusCode *int16
		headersRaw []byte
		body       []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT response_status_code, response_headers, response_body
		FROM idempotency
		WHERE user_id = $1 AND idempotency_key = $2`,
		userID, key.String(),
	).Scan(&statusCode, &headersRaw, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Response{}, ErrMissingRecord
	}
	if err != nil {
		return Response{}, fmt.Errorf("query saved response: %w", err)
	}
	if statusCode == nil {
		return Response{}, ErrPendingRecord
	}

	var headers []HeaderPair
	if err := json.Unmarshal(headersRaw, &headers); err != nil {
		return Response{}, fmt.Errorf("unmarshal response headers: %w", err)
	}

	return Response{
		StatusCode: int(*statusCode),
		Headers:    headers,
		Body:       body,
	}, nil
}
