package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces batch throughput in files per second. Extraction is
// CPU-bound, so pacing mostly matters when output lands on shared storage
// or a downstream consumer tails the output directory.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter. A filesPerSecond of 0 (or less) disables
// pacing entirely.
func NewLimiter(filesPerSecond float64, burst int) *Limiter {
	if filesPerSecond <= 0 {
		return &Limiter{}
	}
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(filesPerSecond), burst)}
}

// Wait blocks until the next file may start, or the context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limiter == nil {
		return ctx.Err()
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a file may start without waiting.
func (l *Limiter) Allow() bool {
	if l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}
