// Package email abstracts the outbound email transport.
//
// The delivery worker and the subscription flow depend only on the Sender
// interface; the Postmark implementation is used in production, while the
// DevSender writes emails to disk for local development. Send failures are
// reported to the caller and retried (or not) by the caller's own policy.
package email
