// Package subscriber implements the visitor-facing subscription flow:
// new subscriptions start as pending, receive a confirmation email with a
// one-time token, and become confirmed when the token link is visited.
// Only confirmed subscribers receive newsletter issues.
package subscriber
