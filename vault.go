package vault

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the slot count used by the reference scenario and
// the vaultdemo driver.
const DefaultCapacity = 1024

// slot is one fixed storage unit: a payload, its own lock, and an atomic
// occupancy flag. The flag may be read without the lock; all transitions
// of it happen while the lock is held.
type slot[T any] struct {
	mu    sync.Mutex
	inUse atomic.Bool
	data  T
}

// Vault is a fixed-capacity pool of independently lockable slots.
//
// All methods are safe for concurrent use. See the package documentation
// for the locking model.
type Vault[T any] struct {
	// dir serializes the search phase of Allocate and DeallocateFunc.
	// It is never held while a view is open and never guards slot data.
	dir   sync.Mutex
	slots []slot[T]

	occupied    atomic.Int64
	allocations atomic.Uint64
	releases    atomic.Uint64
	full        atomic.Uint64

	logger  *Logger
	metrics MetricsObserver
}

// New creates a Vault with the given number of slots. The slot table is
// allocated once here and never resized.
func New[T any](capacity int, optFns ...Option) (*Vault[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(opts)
	}

	return &Vault[T]{
		slots:   make([]slot[T], capacity),
		logger:  opts.logger,
		metrics: opts.metrics,
	}, nil
}

// Cap returns the fixed slot count.
func (v *Vault[T]) Cap() int {
	return len(v.slots)
}

// Len returns the number of currently occupied slots. The count is
// maintained atomically and may be stale by the time the caller acts
// on it.
func (v *Vault[T]) Len() int {
	return int(v.occupied.Load())
}

// Allocate claims the first free slot in index order and returns a view
// into it, with the slot's lock held.
//
// The payload is left exactly as the previous tenant wrote it; callers
// must reset any fields they care about. If the pool is full,
// ErrCapacityExceeded is returned and no state changes.
//
// The occupancy flag is set before the slot's own lock is taken, so a
// concurrent DeallocateFunc scan can observe the slot as occupied with
// the previous tenant's payload until this caller writes through the
// view. Predicates must not rely on immediate visibility of fields
// written by an allocator that has not yet closed its view.
func (v *Vault[T]) Allocate() (*ElementView[T], error) {
	start := time.Now()

	v.dir.Lock()
	for i := range v.slots {
		s := &v.slots[i]
		if s.inUse.Load() {
			continue
		}

		// A plain store suffices: the directory lock excludes every
		// other scanner, and Deallocate only clears, never sets.
		s.inUse.Store(true)
		v.occupied.Add(1)
		v.dir.Unlock()

		s.mu.Lock()

		v.allocations.Add(1)
		v.metrics.OnAllocate(time.Since(start), i+1, nil)
		v.logger.LogAllocate(i, nil)

		return &ElementView[T]{slot: s}, nil
	}
	v.dir.Unlock()

	v.full.Add(1)
	v.metrics.OnAllocate(time.Since(start), len(v.slots), ErrCapacityExceeded)
	v.logger.LogAllocate(-1, ErrCapacityExceeded)

	return nil, ErrCapacityExceeded
}

// View returns a view into the slot at index, with the slot's lock held.
// It blocks until any current holder of that slot's lock releases it.
//
// If the slot is free once the lock is acquired, the lock is released
// and ErrNotAllocated is returned: callers are never handed a view into
// a free slot.
func (v *Vault[T]) View(index int) (*ElementView[T], error) {
	start := time.Now()

	if index < 0 || index >= len(v.slots) {
		err := &ErrIndexOutOfRange{Index: index, Capacity: len(v.slots)}
		v.metrics.OnView(time.Since(start), err)
		return nil, err
	}

	s := &v.slots[index]
	s.mu.Lock()
	if !s.inUse.Load() {
		s.mu.Unlock()
		v.metrics.OnView(time.Since(start), ErrNotAllocated)
		return nil, ErrNotAllocated
	}

	v.metrics.OnView(time.Since(start), nil)

	return &ElementView[T]{slot: s}, nil
}

// Deallocate frees the slot at index and reports whether it held a live
// allocation. Freeing an already-free slot is a tolerated no-op that
// returns false, letting drain loops distinguish "freed something" from
// "freed nothing" without an error.
//
// It blocks on concurrent viewers or allocators of that slot.
func (v *Vault[T]) Deallocate(index int) (bool, error) {
	if index < 0 || index >= len(v.slots) {
		return false, &ErrIndexOutOfRange{Index: index, Capacity: len(v.slots)}
	}

	s := &v.slots[index]
	s.mu.Lock()
	prior := s.inUse.Swap(false)
	s.mu.Unlock()

	if prior {
		v.occupied.Add(-1)
		v.releases.Add(1)
	}
	v.metrics.OnDeallocate(prior)
	v.logger.LogDeallocate(index, prior)

	return prior, nil
}

// DeallocateFunc frees the first occupied slot, in index order, whose
// payload satisfies pred, and reports whether a slot was freed. A false
// return means no occupied slot matched: the expected termination signal
// for drain loops, not an error.
//
// pred is evaluated against the current payload while only the directory
// lock (not the slot lock) is held, so a concurrent mutator of that
// exact slot can change the payload between the predicate's read and the
// slot-lock acquisition; the slot is still freed based on the possibly
// stale predicate result. pred must be a pure function of its argument.
func (v *Vault[T]) DeallocateFunc(pred func(data T) bool) bool {
	start := time.Now()

	v.dir.Lock()
	for i := range v.slots {
		s := &v.slots[i]
		if !s.inUse.Load() || !pred(s.data) {
			continue
		}

		// Slot lock before directory unlock, so no other directory-lock
		// user can select this slot in the same state.
		s.mu.Lock()
		v.dir.Unlock()
		prior := s.inUse.Swap(false)
		s.mu.Unlock()

		if prior {
			v.occupied.Add(-1)
			v.releases.Add(1)
		}
		v.metrics.OnDrain(time.Since(start), prior)
		v.logger.LogDeallocate(i, prior)

		return prior
	}
	v.dir.Unlock()

	v.metrics.OnDrain(time.Since(start), false)

	return false
}

// ForEach invokes visit for every occupied slot in index order, holding
// the slot's lock for the duration of the call. Unoccupied slots are
// skipped without error: enumeration is expected to race with concurrent
// frees, and holes are normal, not faults.
//
// visit receives a copy of the payload; mutate through View instead.
func (v *Vault[T]) ForEach(visit func(index int, data T)) {
	for i := range v.slots {
		s := &v.slots[i]
		s.mu.Lock()
		if !s.inUse.Load() {
			s.mu.Unlock()
			continue
		}
		visit(i, s.data)
		s.mu.Unlock()
	}
}
