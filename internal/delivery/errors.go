package delivery

import "errors"

var (
	// ErrQueueNil is returned when a nil queue is provided.
	ErrQueueNil = errors.New("delivery: queue cannot be nil")

	// ErrSenderNil is returned when a nil email sender is provided.
	ErrSenderNil = errors.New("delivery: email sender cannot be nil")

	// ErrStoreNil is returned when a nil pruner store is provided.
	ErrStoreNil = errors.New("delivery: pruner store cannot be nil")
)
