package subscriber

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 256

// forbiddenNameChars are rejected to keep stored names safe to echo into
// HTML and email templates.
var forbiddenNameChars = `/()"<>\{}`

// ParseName validates a subscriber display name.
func ParseName(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if utf8.RuneCountInString(s) > maxNameLength {
		return "", fmt.Errorf("%w: name is too long", ErrInvalidName)
	}
	if strings.ContainsAny(s, forbiddenNameChars) {
		return "", fmt.Errorf("%w: name contains forbidden characters", ErrInvalidName)
	}
	return s, nil
}
