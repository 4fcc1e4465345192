package idempotency

// maxKeyLength bounds client-supplied keys; longer values are rejected
// before any transaction is opened.
const maxKeyLength = 50

// Key is a validated client-supplied idempotency key.
type Key struct {
	value string
}

// NewKey validates and wraps a raw idempotency key.
func NewKey(s string) (Key, error) {
	if s == "" {
		return Key{}, ErrEmptyKey
	}
	if len(s) >= maxKeyLength {
		return Key{}, ErrKeyTooLong
	}
	return Key{value: s}, nil
}

func (k Key) String() string {
	return k.value
}
