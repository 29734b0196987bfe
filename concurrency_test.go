package vault_test

import (
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vault"
)

func TestConcurrentAllocate_NoDoubleAllocation(t *testing.T) {
	const (
		capacity = 1024
		workers  = 8
	)

	v, err := vault.New[payload](capacity)
	require.NoError(t, err)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		worker := w
		g.Go(func() error {
			for n := 0; n < capacity/workers; n++ {
				ev, err := v.Allocate()
				if err != nil {
					return err
				}
				ev.Data().Tag = fmt.Sprintf("%d_%d", worker+1, n+1)
				ev.Close()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, capacity, v.Len())
	require.Equal(t, uint64(capacity), v.OccupiedSet().GetCardinality())

	// Every allocation landed in its own slot: all tags are distinct.
	tags := make(map[string]struct{}, capacity)
	v.ForEach(func(index int, data payload) {
		tags[data.Tag] = struct{}{}
	})
	assert.Len(t, tags, capacity)

	_, err = v.Allocate()
	require.ErrorIs(t, err, vault.ErrCapacityExceeded)
}

func TestConcurrentView_NoLostUpdates(t *testing.T) {
	const (
		capacity = 64
		workers  = 8
		iters    = 500
	)

	v, err := vault.New[payload](capacity)
	require.NoError(t, err)

	for i := 0; i < capacity; i++ {
		ev, err := v.Allocate()
		require.NoError(t, err)
		ev.Close()
	}

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		seed := int64(w)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for k := 0; k < iters; k++ {
				ev, err := v.View(rng.Intn(capacity))
				if err != nil {
					return err
				}
				ev.Data().Counter++
				ev.Close()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var total int
	v.ForEach(func(index int, data payload) {
		total += data.Counter
	})
	assert.Equal(t, workers*iters, total)
}

func TestConcurrentDeallocate_Collisions(t *testing.T) {
	const (
		capacity = 512
		workers  = 8
	)

	v, err := vault.New[payload](capacity)
	require.NoError(t, err)

	for i := 0; i < capacity; i++ {
		ev, err := v.Allocate()
		require.NoError(t, err)
		ev.Close()
	}

	// Every worker walks the full index range, so each slot sees several
	// competing frees; exactly one must win per slot.
	var freed atomic.Int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for index := 0; index < capacity; index++ {
				ok, err := v.Deallocate(index)
				if err != nil {
					return err
				}
				if ok {
					freed.Add(1)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(capacity), freed.Load())
	assert.Equal(t, 0, v.Len())
}

func TestConcurrentDeallocateFunc_DrainsExactly(t *testing.T) {
	const (
		capacity = 256
		workers  = 8
		matching = capacity / workers
	)

	v, err := vault.New[payload](capacity)
	require.NoError(t, err)

	for i := 0; i < capacity; i++ {
		ev, err := v.Allocate()
		require.NoError(t, err)
		ev.Data().Counter = i % workers
		ev.Close()
	}

	pred := func(data payload) bool { return data.Counter == 2 }

	var drained atomic.Int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for v.DeallocateFunc(pred) {
				drained.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(matching), drained.Load())
	assert.False(t, v.DeallocateFunc(pred))
	assert.Equal(t, capacity-matching, v.Len())
}

func TestConcurrentMixed_AllocateAndView(t *testing.T) {
	const (
		capacity = 128
		workers  = 4
	)

	v, err := vault.New[payload](capacity)
	require.NoError(t, err)

	for i := 0; i < capacity/2; i++ {
		ev, err := v.Allocate()
		require.NoError(t, err)
		ev.Data().Tag = "seed"
		ev.Close()
	}

	// Allocators and viewers run against the same pool; the test asserts
	// final bookkeeping, not a specific interleaving.
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		seed := int64(w)

		g.Go(func() error {
			for n := 0; n < capacity/workers/2; n++ {
				ev, err := v.Allocate()
				if err != nil {
					return err
				}
				ev.Data().Tag = "fresh"
				ev.Close()
			}
			return nil
		})

		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for k := 0; k < 200; k++ {
				ev, err := v.View(rng.Intn(capacity))
				if errors.Is(err, vault.ErrNotAllocated) {
					// Viewing a hole is expected while allocators run.
					continue
				}
				if err != nil {
					return err
				}
				ev.Data().Counter++
				ev.Close()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stats := v.Stats()
	assert.Equal(t, capacity, stats.Occupied)
	assert.Equal(t, uint64(capacity), stats.Allocations)
}
