// Package retrylimit provides an adaptive rate limiter and a retry loop for
// clients of slow or overloaded backends.
//
//	lim := retrylimit.NewAdaptiveLimiter(2, 0.25, 2, 0.25, 0.5)
//	err := retrylimit.Do(ctx, lim, retrylimit.Policy{Attempts: 2}, func(ctx context.Context) error {
//	    return call(ctx)
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter is a token bucket whose rate grows on success and shrinks
// when the backend signals overload.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	floor     rate.Limit
	ceiling   rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	cooloff   time.Duration
	lastError time.Time
	now       func() time.Time
}

// NewAdaptiveLimiter starts at initial requests per second, bounded by
// [floor, ceiling]. Success adds stepUp once cooloff has passed since the
// last overload; overload multiplies the rate by stepDown.
func NewAdaptiveLimiter(initial, floor, ceiling, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	floor = max(floor, 0.01)
	ceiling = max(ceiling, floor)
	initial = min(max(initial, floor), ceiling)
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burst(initial)),
		floor:    floor,
		ceiling:  ceiling,
		stepUp:   stepUp,
		stepDown: stepDown,
		cooloff:  10 * time.Second,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for the cooloff window.
func (a *AdaptiveLimiter) SetClock(now func() time.Time) {
	a.mu.Lock()
	a.now = now
	a.mu.Unlock()
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success nudges the rate up.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.now().Sub(a.lastError) > a.cooloff {
		a.set(a.limiter.Limit() + a.stepUp)
	}
}

// Overloaded cuts the rate down.
func (a *AdaptiveLimiter) Overloaded() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = a.now()
	a.set(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit returns the current requests per second.
func (a *AdaptiveLimiter) Limit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	l = min(max(l, a.floor), a.ceiling)
	if l != a.limiter.Limit() {
		a.limiter.SetLimit(l)
		a.limiter.SetBurst(burst(l))
	}
}

func burst(l rate.Limit) int {
	return max(1, int(l))
}

// StatusError is implemented by errors that carry an HTTP status.
type StatusError interface {
	error
	StatusCode() int
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// IsOverload reports whether err is a 429 or a 5xx.
func IsOverload(err error) bool {
	var se StatusError
	if !errors.As(err, &se) {
		return false
	}
	code := se.StatusCode()
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// Policy configures Do.
type Policy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	Logger   *log.Logger
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Delay <= 0 {
		p.Delay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
	return p
}

// Do runs fn until it succeeds, returns a Permanent error, ctx is done, or
// the attempts are spent. lim may be nil.
func Do(ctx context.Context, lim *AdaptiveLimiter, p Policy, fn func(context.Context) error) error {
	p = p.withDefaults()
	delay := p.Delay

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if lim != nil {
			if werr := lim.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = fn(ctx)
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if IsOverload(err) && lim != nil {
			lim.Overloaded()
		}
		if ctx.Err() != nil || attempt == p.Attempts {
			break
		}

		if p.Logger != nil {
			p.Logger.Warn("retrying", "attempt", attempt, "err", err, "sleep", delay)
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(jitter(delay)):
		}
		delay = min(delay*2, p.MaxDelay)
	}

	if p.Attempts > 1 {
		return fmt.Errorf("after %d attempts: %w", p.Attempts, err)
	}
	return err
}

// jitter adds up to 25% to d.
func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + rand.N(d/4)
}
