package idempotency

import "errors"

var (
	// ErrEmptyKey is returned when the idempotency key is empty.
	ErrEmptyKey = errors.New("idempotency: key cannot be empty")

	// ErrKeyTooLong is returned when the idempotency key exceeds the length bound.
	ErrKeyTooLong = errors.New("idempotency: key must be shorter than 50 characters")

	// ErrPendingRecord is returned when a record exists but carries no saved
	// response: a prior attempt for the same key crashed between inserting the
	// record and committing. The request is not re-executed automatically.
	ErrPendingRecord = errors.New("idempotency: record exists but no response was saved")

	// ErrMissingRecord is returned when the insert observed a conflict but the
	// record was gone by the time the saved response was read, e.g. the pruner
	// removed it in between.
	ErrMissingRecord = errors.New("idempotency: expected a saved response, found no record")
)
