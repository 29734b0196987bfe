package vault

import "github.com/RoaringBitmap/roaring/v2"

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	// Capacity is the fixed slot count.
	Capacity int

	// Occupied is the number of slots holding live data.
	Occupied int

	// Allocations is the total number of successful Allocate calls.
	Allocations uint64

	// Releases is the total number of deallocations that freed a live
	// slot, by index or by predicate.
	Releases uint64

	// CapacityFailures is the number of Allocate calls that found the
	// pool full.
	CapacityFailures uint64
}

// Stats returns a snapshot of the pool counters. The fields are read
// individually from atomics, so the snapshot is not a single consistent
// cut under concurrent mutation; it is intended for diagnostics.
func (v *Vault[T]) Stats() Stats {
	return Stats{
		Capacity:         len(v.slots),
		Occupied:         int(v.occupied.Load()),
		Allocations:      v.allocations.Load(),
		Releases:         v.releases.Load(),
		CapacityFailures: v.full.Load(),
	}
}

// OccupiedSet returns a bitmap of the indices observed occupied during a
// single lock-free pass over the slot table. Concurrent allocations and
// frees may be missed or included; the result is a diagnostic snapshot,
// not a consistency guarantee.
func (v *Vault[T]) OccupiedSet() *roaring.Bitmap {
	bm := roaring.New()
	for i := range v.slots {
		if v.slots[i].inUse.Load() {
			bm.Add(uint32(i))
		}
	}
	return bm
}
