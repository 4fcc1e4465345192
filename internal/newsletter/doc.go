// Package newsletter coordinates the publish use case: one transaction that
// claims the idempotency key, stores the newsletter issue, fans out one
// delivery task per confirmed subscriber, and caches the HTTP response -
// committed as a single atomic unit. Duplicate submissions replay the cached
// response without touching the database again.
package newsletter
