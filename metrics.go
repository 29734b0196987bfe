package vault

import "time"

// MetricsObserver defines the interface for observing pool events.
type MetricsObserver interface {
	// OnAllocate is called when an allocation attempt completes.
	// scanned is the number of slots inspected during the search.
	OnAllocate(duration time.Duration, scanned int, err error)

	// OnView is called when a View call completes.
	OnView(duration time.Duration, err error)

	// OnDeallocate is called when an index-targeted deallocation
	// completes. freed reports whether a live allocation was cleared.
	OnDeallocate(freed bool)

	// OnDrain is called when a predicate-based deallocation completes.
	// matched reports whether any occupied slot satisfied the predicate.
	OnDrain(duration time.Duration, matched bool)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (o *NoopMetricsObserver) OnAllocate(duration time.Duration, scanned int, err error) {}
func (o *NoopMetricsObserver) OnView(duration time.Duration, err error)                  {}
func (o *NoopMetricsObserver) OnDeallocate(freed bool)                                   {}
func (o *NoopMetricsObserver) OnDrain(duration time.Duration, matched bool)              {}
