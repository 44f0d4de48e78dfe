// Package storetest holds the behavioral suite every numbering.CounterStore
// implementation must pass. Memory runs it in unit tests, PostgreSQL and
// Redis run it in integration tests against real containers.
package storetest

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"policyhub/internal/core/id"
	"policyhub/internal/domain/numbering"
)

// Factory returns a store and a key that is valid for it. Backends with
// referential integrity (PostgreSQL) create the owning generator first.
type Factory func(t *testing.T) (numbering.CounterStore, numbering.CounterKey)

// RunCounterStoreContract runs the shared suite.
func RunCounterStoreContract(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("first increment initializes at 1", func(t *testing.T) {
		store, key := newStore(t)

		inc, err := store.IncrementAndGet(ctx, key, 2024, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), inc.Value)
		assert.Equal(t, numbering.Period(2024), inc.Period)
		assert.Equal(t, numbering.TransitionInit, inc.Transition)
		assert.False(t, inc.Overflowed())
	})

	t.Run("same period increments by one", func(t *testing.T) {
		store, key := newStore(t)

		for want := int64(1); want <= 5; want++ {
			inc, err := store.IncrementAndGet(ctx, key, 2024, 100)
			require.NoError(t, err)
			assert.Equal(t, want, inc.Value)
		}
	})

	t.Run("monthly period change restarts at 1", func(t *testing.T) {
		store, key := newStore(t)

		var last numbering.Increment
		for i := 0; i < 50; i++ {
			var err error
			last, err = store.IncrementAndGet(ctx, key, 202401, 999999)
			require.NoError(t, err)
		}
		require.Equal(t, int64(50), last.Value)

		inc, err := store.IncrementAndGet(ctx, key, 202402, 999999)
		require.NoError(t, err)
		assert.Equal(t, int64(1), inc.Value)
		assert.Equal(t, numbering.Period(202402), inc.Period)
		assert.Equal(t, numbering.TransitionReset, inc.Transition)
		assert.False(t, inc.Overflowed())
	})

	t.Run("value at maxValue wraps to 1", func(t *testing.T) {
		store, key := newStore(t)

		for i := 0; i < 3; i++ {
			_, err := store.IncrementAndGet(ctx, key, 0, 3)
			require.NoError(t, err)
		}

		inc, err := store.IncrementAndGet(ctx, key, 0, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(1), inc.Value)
		assert.True(t, inc.Overflowed())
		assert.Equal(t, int64(1), inc.WrapCount)

		inc, err = store.IncrementAndGet(ctx, key, 0, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(2), inc.Value)
		assert.False(t, inc.Overflowed())
		assert.Equal(t, int64(1), inc.WrapCount)
	})

	t.Run("lowered maxValue wraps immediately", func(t *testing.T) {
		store, key := newStore(t)

		for i := 0; i < 10; i++ {
			_, err := store.IncrementAndGet(ctx, key, 0, 100)
			require.NoError(t, err)
		}

		inc, err := store.IncrementAndGet(ctx, key, 0, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(1), inc.Value)
		assert.True(t, inc.Overflowed())
	})

	t.Run("tenants do not share counters", func(t *testing.T) {
		store, key := newStore(t)
		other := numbering.CounterKey{TenantID: key.TenantID + "-other", GeneratorID: key.GeneratorID}

		_, err := store.IncrementAndGet(ctx, key, 0, 100)
		require.NoError(t, err)
		_, err = store.IncrementAndGet(ctx, key, 0, 100)
		require.NoError(t, err)

		inc, err := store.IncrementAndGet(ctx, other, 0, 100)
		if err != nil {
			t.Skipf("store rejects keys without a generator: %v", err)
		}
		assert.Equal(t, int64(1), inc.Value)
	})

	t.Run("concurrent callers get distinct values", func(t *testing.T) {
		store, key := newStore(t)

		const workers, perWorker = 16, 25
		results := make([][]int64, workers)

		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			w := w
			g.Go(func() error {
				for i := 0; i < perWorker; i++ {
					inc, err := store.IncrementAndGet(gctx, key, 2024, 1_000_000)
					if err != nil {
						return err
					}
					results[w] = append(results[w], inc.Value)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		var all []int64
		for _, r := range results {
			all = append(all, r...)
		}
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

		require.Len(t, all, workers*perWorker)
		for i, v := range all {
			assert.Equal(t, int64(i+1), v, "values must be 1..N without duplicates")
		}
	})

	t.Run("seed initializes at zero and is idempotent", func(t *testing.T) {
		store, key := newStore(t)
		seeder, ok := store.(numbering.CounterSeeder)
		if !ok {
			t.Skip("store does not seed counters")
		}

		require.NoError(t, seeder.Seed(ctx, key, 2024))
		inc, err := store.IncrementAndGet(ctx, key, 2024, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), inc.Value)
		assert.Equal(t, numbering.TransitionIncrement, inc.Transition)

		require.NoError(t, seeder.Seed(ctx, key, 2024))
		inc, err = store.IncrementAndGet(ctx, key, 2024, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(2), inc.Value)
	})
}

// NewKey returns a fresh key for stores without referential integrity.
func NewKey(tenantID string) numbering.CounterKey {
	return numbering.CounterKey{TenantID: tenantID, GeneratorID: id.New()}
}
