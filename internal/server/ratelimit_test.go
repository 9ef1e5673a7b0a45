package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newKeyedLimiter(6, func() time.Time { return now })

	for i := 0; i < 6; i++ {
		ok, _ := l.Allow("a")
		assert.True(t, ok, "request %d", i+1)
	}
	ok, wait := l.Allow("a")
	assert.False(t, ok)
	assert.InDelta(t, float64(10*time.Second), float64(wait), float64(time.Millisecond))

	// a denied request does not consume a token
	now = now.Add(11 * time.Second)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
	ok, _ = l.Allow("a")
	assert.False(t, ok)
}

func TestKeyedLimiter_PrunesIdleKeys(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newKeyedLimiter(1, func() time.Time { return now })

	l.Allow("a")
	l.Allow("b")
	assert.Len(t, l.store, 2)

	now = now.Add(idleLimiterTTL + time.Minute)
	ok, _ := l.Allow("b")
	assert.True(t, ok)
	assert.Len(t, l.store, 1)
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	l := newKeyedLimiter(0, nil)
	assert.Nil(t, l)
	ok, wait := l.Allow("a")
	assert.True(t, ok)
	assert.Zero(t, wait)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 30, retryAfterSeconds(30*time.Second))
	assert.Equal(t, 31, retryAfterSeconds(30*time.Second+time.Millisecond))
}
