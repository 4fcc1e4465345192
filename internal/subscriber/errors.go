package subscriber

import "errors"

var (
	// ErrInvalidEmail is returned when an email address fails validation.
	ErrInvalidEmail = errors.New("subscriber: invalid email address")

	// ErrInvalidName is returned when a subscriber name fails validation.
	ErrInvalidName = errors.New("subscriber: invalid name")

	// ErrUnknownToken is returned when a confirmation token matches no subscriber.
	ErrUnknownToken = errors.New("subscriber: unknown subscription token")
)
