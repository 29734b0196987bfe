// Package vault provides a fixed-capacity, thread-safe object pool for Go.
//
// A Vault owns a fixed number of slots of a homogeneous element type and
// hands out exclusive, lock-scoped views into them. Capacity is set at
// construction and never changes: slots are never created or destroyed
// afterwards, only their occupancy and contents cycle.
//
// # Quick Start
//
//	v, _ := vault.New[Session](1024)
//
//	ev, err := v.Allocate()
//	if err != nil {
//	    // vault.ErrCapacityExceeded: pool is full
//	}
//	ev.Data().User = "alice"
//	ev.Close() // releases the slot lock; the slot stays occupied
//
//	ok, _ := v.Deallocate(0) // frees the slot; ok reports whether it was live
//
// # Locking Model
//
// Vault uses two lock tiers. A single directory lock serializes only the
// search phase of Allocate and DeallocateFunc; it is never held while a
// caller has a view open. Each slot additionally carries its own lock,
// held for the lifetime of any view into it. Views on different slots
// proceed fully in parallel.
//
// The occupancy flag of each slot is an atomic boolean readable without
// the slot lock. Readers outside the owning lock may observe it with a
// transient staleness window; it is an occupancy hint, never a
// data-consistency guarantee.
//
// # Views
//
// An ElementView ties possession of a slot's lock to the lifetime of a
// handle: Data is mutable exactly until Close. Closing a view does not
// free the slot — deallocation is a separate, explicit operation.
//
// # Blocking
//
// Allocate, View, Deallocate and DeallocateFunc may block on slot locks;
// acquisition is uninterruptible. Callers that want bounded waiting can
// use AllocateWait, which layers paced retry on top of Allocate without
// changing the core contract.
package vault
