package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is returned by New when capacity is not positive.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrCapacityExceeded is returned by Allocate when no free slot exists.
	// The pool performs no queueing or throttling; the caller decides
	// whether to retry, block, or fail upward.
	ErrCapacityExceeded = errors.New("capacity exceeded: no free slot")

	// ErrNotAllocated is returned by View when the target slot is free.
	// It is not necessarily fatal: the slot may have been freed by a
	// concurrent Deallocate, and the caller may retry elsewhere.
	ErrNotAllocated = errors.New("slot is not allocated")
)

// ErrIndexOutOfRange indicates a slot index outside [0, Capacity).
// This is always a caller bug and is never retried internally.
type ErrIndexOutOfRange struct {
	Index    int
	Capacity int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index out of range: %d (capacity %d)", e.Index, e.Capacity)
}
