// Package delivery drains the issue_delivery_queue table: one row per
// (issue, subscriber) created transactionally by the publish flow, consumed
// by a perpetual worker loop that claims a single ready row under
// FOR UPDATE SKIP LOCKED, attempts delivery through the email transport,
// and applies the retry policy.
//
// Correctness across replicated workers relies entirely on row-level
// locking; there is no in-process coordination, so any number of worker
// processes can share one queue. The package also hosts the retention
// pruner that expires idempotency records.
package delivery
