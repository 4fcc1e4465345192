package subscriber_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/internal/subscriber"
)

func TestParseEmail(t *testing.T) {
	t.Parallel()

	t.Run("accepts valid addresses", func(t *testing.T) {
		t.Parallel()

		for _, addr := range []string{
			"ursula@domain.com",
			"first.last@sub.example.org",
			"user+tag@example.co",
		} {
			parsed, err := subscriber.ParseEmail(addr)
			require.NoError(t, err, addr)
			assert.Equal(t, addr, parsed.String())
		}
	})

	t.Run("rejects invalid addresses", func(t *testing.T) {
		t.Parallel()

		for _, addr := range []string{
			"",
			"   ",
			"ursuladomain.com",
			"@domain.com",
			"ursula@localhost",
			"ursula@.domain.com",
			"ursula@domain.com.",
		} {
			_, err := subscriber.ParseEmail(addr)
			assert.ErrorIs(t, err, subscriber.ErrInvalidEmail, addr)
		}
	})
}

func TestParseName(t *testing.T) {
	t.Parallel()

	t.Run("accepts a plain name", func(t *testing.T) {
		t.Parallel()

		name, err := subscriber.ParseName("Ursula Le Guin")
		require.NoError(t, err)
		assert.Equal(t, "Ursula Le Guin", name)
	})

	t.Run("rejects empty and whitespace-only names", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"", "   "} {
			_, err := subscriber.ParseName(name)
			assert.ErrorIs(t, err, subscriber.ErrInvalidName)
		}
	})

	t.Run("rejects forbidden characters", func(t *testing.T) {
		t.Parallel()

		_, err := subscriber.ParseName(`<script>alert("hi")</script>`)
		assert.ErrorIs(t, err, subscriber.ErrInvalidName)
	})
}
