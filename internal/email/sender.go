package email

import "context"

// Sender delivers a single email to a single recipient.
type Sender interface {
	Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error
}
