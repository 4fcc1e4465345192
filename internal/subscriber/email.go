package subscriber

import (
	"fmt"
	"net/mail"
	"strings"
)

// EmailAddress is a parsed, syntactically valid subscriber email.
type EmailAddress struct {
	value string
}

// ParseEmail validates s as an email address usable for delivery.
// Beyond RFC 5322 parsing, the domain must contain a dot and neither side
// of the '@' may be empty - addresses like "user@localhost" are rejected
// since they can never receive a newsletter.
func ParseEmail(s string) (EmailAddress, error) {
	if strings.TrimSpace(s) == "" {
		return EmailAddress{}, fmt.Errorf("%w: empty address", ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return EmailAddress{}, fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}

	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" {
		return EmailAddress{}, fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return EmailAddress{}, fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}

	return EmailAddress{value: addr.Address}, nil
}

func (e EmailAddress) String() string {
	return e.value
}
