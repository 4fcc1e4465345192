package delivery_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/newsletter/internal/delivery"
)

type fakePrunerStore struct {
	calls  atomic.Int64
	pruned int64
	err    error
}

func (s *fakePrunerStore) PruneExpired(ctx context.Context) (int64, error) {
	s.calls.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return s.pruned, nil
}

func TestPrunerRun(t *testing.T) {
	t.Parallel()

	t.Run("prunes every cycle until cancelled", func(t *testing.T) {
		t.Parallel()

		store := &fakePrunerStore{pruned: 2}
		p, err := delivery.NewPruner(store, discardLogger(),
			delivery.WithPruneInterval(time.Millisecond))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = p.Run(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.GreaterOrEqual(t, store.calls.Load(), int64(2))
	})

	t.Run("survives prune failures", func(t *testing.T) {
		t.Parallel()

		store := &fakePrunerStore{err: errors.New("connection reset")}
		p, err := delivery.NewPruner(store, discardLogger(),
			delivery.WithPruneInterval(time.Millisecond))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = p.Run(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.GreaterOrEqual(t, store.calls.Load(), int64(2))
	})

	t.Run("nil store is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := delivery.NewPruner(nil, discardLogger())
		assert.ErrorIs(t, err, delivery.ErrStoreNil)
	})
}
