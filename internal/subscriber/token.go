package subscriber

import "crypto/rand"

const tokenLength = 25

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newSubscriptionToken generates a random alphanumeric confirmation token.
func newSubscriptionToken() string {
	buf := make([]byte, tokenLength)
	// rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}
