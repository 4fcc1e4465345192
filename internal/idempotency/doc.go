// Package idempotency persists the exact HTTP outcome of a request keyed by
// (user, client-supplied key), so that retransmissions replay the stored
// response instead of re-executing side effects.
//
// The contract has two halves. BeginProcessing inserts a pending record
// inside a fresh transaction and hands that transaction to the caller; the
// caller performs its business writes on it and finishes with SaveResponse,
// which stores the response and commits everything as one atomic unit.
// A crash before commit leaves neither the side effects nor the cached
// response visible. If the record already exists, the stored response is
// returned instead and no writes happen.
//
// Records expire after a retention window; see the delivery package's
// Pruner for the cleanup loop.
package idempotency
