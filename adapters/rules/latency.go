package rules

import (
	"context"
	"math/rand"
	"time"
)

// LatencyPolicy pads responses with an artificial thinking delay: a
// fixed base plus a random jitter in [0, Jitter). It exists purely for
// UX pacing. The zero value disables the delay, which is what every
// test uses.
type LatencyPolicy struct {
	Base   time.Duration
	Jitter time.Duration
}

// DefaultLatency matches the shipped pacing: 1s plus up to 2s jitter.
func DefaultLatency() LatencyPolicy {
	return LatencyPolicy{Base: time.Second, Jitter: 2 * time.Second}
}

// Wait blocks for the sampled delay or until ctx is cancelled.
func (p LatencyPolicy) Wait(ctx context.Context) error {
	d := p.Base
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
