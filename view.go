package vault

// ElementView is a scoped handle bound to exactly one slot. It holds
// that slot's lock from the moment Allocate or View returns it until
// Close, and exposes mutable access to the payload and nothing else.
//
// A view must not be copied and must be closed by the goroutine that
// obtained it. Closing a view releases the slot lock only; it does not
// change the slot's occupancy — a viewed slot can still be freed by a
// later Deallocate once the view ends.
type ElementView[T any] struct {
	slot *slot[T]
}

// Data returns a pointer to the slot's payload, valid until Close.
// Calling Data on a closed view panics.
func (ev *ElementView[T]) Data() *T {
	if ev.slot == nil {
		panic("vault: Data called on closed ElementView")
	}
	return &ev.slot.data
}

// Close releases the slot lock. It is idempotent, so it is safe to
// defer Close and also close early on some paths.
func (ev *ElementView[T]) Close() {
	if ev.slot == nil {
		return
	}
	ev.slot.mu.Unlock()
	ev.slot = nil
}
