package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("email: failed to send email")
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidRecipient  = errors.New("email: invalid recipient address")
)
