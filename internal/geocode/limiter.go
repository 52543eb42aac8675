package geocode

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultMinInterval is the minimum spacing between upstream calls. The
// public provider enforces an absolute maximum of one request per second
// per process; 1.1 s leaves headroom for clock skew.
const DefaultMinInterval = 1100 * time.Millisecond

// Limiter spaces outbound geocoding calls at least a minimum interval
// apart, process-wide. It is a single global limiter, not per-key: the
// upstream cap applies to the whole process, so concurrent resolver calls
// for different coordinates still serialize against one shared clock.
// Waiters are granted turns in the order they arrive.
type Limiter struct {
	interval time.Duration
	clock    clockwork.Clock

	// turn is a one-slot token channel. The holder of the token is the
	// goroutine currently being granted a turn; goroutines blocked on the
	// receive are woken FIFO by the runtime, which gives starvation-free
	// ordering without an explicit queue.
	turn chan struct{}

	// last is the time the previous turn was granted. Only the token
	// holder touches it, so no further locking is needed.
	last time.Time
}

// NewLimiter creates a Limiter. A non-positive interval falls back to the
// default; a nil clock uses real time.
func NewLimiter(interval time.Duration, clock clockwork.Clock) *Limiter {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := &Limiter{
		interval: interval,
		clock:    clock,
		turn:     make(chan struct{}, 1),
	}
	l.turn <- struct{}{}
	return l
}

// Wait suspends the caller until at least the minimum interval has elapsed
// since the previous turn was granted, then records now as the last-granted
// time and returns. Only the calling goroutine is suspended; unrelated work
// proceeds. Returns the context error if ctx is done before the turn is
// granted, in which case no turn is consumed.
func (l *Limiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.turn:
	}
	defer func() { l.turn <- struct{}{} }()

	if !l.last.IsZero() {
		if wait := l.interval - l.clock.Since(l.last); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.clock.After(wait):
			}
		}
	}

	l.last = l.clock.Now()
	return nil
}
