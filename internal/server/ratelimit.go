package server

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused key keeps its bucket.
const idleLimiterTTL = 10 * time.Minute

// keyedLimiter keeps one token bucket per caller key.
type keyedLimiter struct {
	limit     rate.Limit
	burst     int
	clock     func() time.Time
	mu        sync.Mutex
	store     map[string]*limiterEntry
	lastPrune time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// newKeyedLimiter allows perMinute requests per key per minute. It returns
// nil, which allows everything, when perMinute is not positive.
func newKeyedLimiter(perMinute int, clock func() time.Time) *keyedLimiter {
	if perMinute <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &keyedLimiter{
		limit: rate.Every(time.Minute / time.Duration(perMinute)),
		burst: perMinute,
		clock: clock,
		store: make(map[string]*limiterEntry),
	}
}

// Allow takes one token for key. When none is available it returns false
// and how long until one will be.
func (l *keyedLimiter) Allow(key string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.store[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.store[key] = entry
	}
	entry.seen = now
	l.pruneIdleLocked(now)

	r := entry.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *keyedLimiter) pruneIdleLocked(now time.Time) {
	if now.Sub(l.lastPrune) < idleLimiterTTL {
		return
	}
	l.lastPrune = now
	for key, entry := range l.store {
		if now.Sub(entry.seen) > idleLimiterTTL {
			delete(l.store, key)
		}
	}
}
