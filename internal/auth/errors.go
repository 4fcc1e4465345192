package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown usernames and wrong
	// passwords alike; callers must not be able to tell which.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrSessionNotFound is returned when a session token is unknown or expired.
	ErrSessionNotFound = errors.New("auth: session not found")
)
