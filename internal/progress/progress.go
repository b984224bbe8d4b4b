// Package progress throttles verbose progress reporting so that long runs
// over large documents do not flood standard error.
package progress

import (
	"golang.org/x/time/rate"
)

type Throttle struct {
	limiter *rate.Limiter
}

// New uses 0 or a negative frequency for an unthrottled reporter.
func New(perSecond float64) *Throttle {
	if perSecond <= 0 {
		return &Throttle{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Allow is non-blocking: it reports whether a progress line may be emitted
// now. Suppressed calls are simply dropped.
func (t *Throttle) Allow() bool {
	return t.limiter.Allow()
}

// SetRate can be called at runtime.
func (t *Throttle) SetRate(perSecond float64) {
	if perSecond <= 0 {
		t.limiter.SetLimit(rate.Inf)
	} else {
		t.limiter.SetLimit(rate.Limit(perSecond))
	}
}
