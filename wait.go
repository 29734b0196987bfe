package vault

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRetryInterval is the pacing interval AllocateWait falls back to
// when the caller passes a non-positive interval.
const DefaultRetryInterval = time.Millisecond

// AllocateWait retries Allocate until a slot frees up or ctx is done.
//
// The core Allocate contract has no queueing or timeouts; this helper
// layers paced retry on top of it without changing that contract.
// Retries are spaced by every (DefaultRetryInterval if non-positive).
// There is no fairness across concurrent waiters: whichever retry lands
// first after a free wins the slot.
func (v *Vault[T]) AllocateWait(ctx context.Context, every time.Duration) (*ElementView[T], error) {
	if every <= 0 {
		every = DefaultRetryInterval
	}

	limiter := rate.NewLimiter(rate.Every(every), 1)
	for {
		ev, err := v.Allocate()
		if !errors.Is(err, ErrCapacityExceeded) {
			return ev, err
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
}
