// Package retry runs an operation with a bounded number of retries for
// failures classified as transient.
package retry

import (
	"context"
	"time"

	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/rs/zerolog"
)

const (
	// DefaultRetries is the retry budget on each side of the service boundary.
	DefaultRetries = 1
	// DefaultDelay is the pause before a retry.
	DefaultDelay = time.Second
)

// Policy retries an operation while its error is retryable and budget
// remains. The zero value never retries.
type Policy struct {
	// Retries is the number of extra attempts after the first one.
	Retries int
	// Delay is waited before each retry.
	Delay time.Duration
	// Name labels log lines ("client", "model").
	Name string
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the single-retry policy with a one second delay.
func Default(name string) Policy {
	return Policy{Retries: DefaultRetries, Delay: DefaultDelay, Name: name}
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// budget is spent or ctx is done. attempt starts at 1. The last error is
// returned unchanged.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := zerolog.Ctx(ctx)

	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if attempt > p.Retries || !editorial.IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		logger.Warn().
			Err(err).
			Str("policy", p.Name).
			Int("attempt", attempt).
			Str("kind", string(editorial.KindOf(err))).
			Dur("delay", p.Delay).
			Msg("retrying after transient failure")

		if serr := sleep(ctx, p.Delay); serr != nil {
			return err
		}
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
