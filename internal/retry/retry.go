// Package retry runs one upstream call under a bounded exponential backoff.
//
// Only failures whose failure.Kind is retryable are repeated. The delay
// sequence comes from backoff.ExponentialBackOff; an upstream retry-after
// hint replaces the computed delay for that attempt.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/gsuiteadmin/internal/failure"
)

// Defaults used by DefaultPolicy.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMultiplier  = 2.0
	DefaultJitter      = 0.1
	DefaultMaxDelay    = 30 * time.Second
	DefaultMaxElapsed  = 2 * time.Minute
)

// Event describes a scheduled retry. It is passed to Policy.OnRetry.
type Event struct {
	Attempt int // the attempt that just failed, starting at 1
	Err     *failure.Error
	Delay   time.Duration
}

// Policy bounds how often and how long a call is retried.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Jitter      float64 // randomization factor in [0,1), 0 for deterministic delays
	MaxDelay    time.Duration
	MaxElapsed  time.Duration

	// OnRetry is called before each backoff sleep.
	OnRetry func(ctx context.Context, ev Event)

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the policy used for Admin SDK calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
		Jitter:      DefaultJitter,
		MaxDelay:    DefaultMaxDelay,
		MaxElapsed:  DefaultMaxElapsed,
	}
}

// Op is one attempt of the guarded call. attempt starts at 1.
type Op func(ctx context.Context, attempt int) error

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempt or elapsed-time budget is spent. The last error is returned
// unchanged. Cancellation of ctx during a backoff sleep returns ctx.Err().
func (p Policy) Do(ctx context.Context, op Op) error {
	p = p.withDefaults()

	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: p.Jitter,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.MaxDelay,
	}
	b.Reset()

	start := p.now()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx, attempt)
		if err == nil {
			return nil
		}

		fe, ok := failure.As(err)
		if !ok || !fe.Retryable() {
			return err
		}
		if attempt >= p.MaxAttempts {
			return err
		}

		delay := b.NextBackOff()
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
		if fe.RetryAfter > 0 {
			delay = fe.RetryAfter
		}
		if p.MaxElapsed > 0 && p.now().Sub(start)+delay > p.MaxElapsed {
			return err
		}

		if p.OnRetry != nil {
			p.OnRetry(ctx, Event{Attempt: attempt, Err: fe, Delay: delay})
		}

		if serr := p.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		p.Jitter = DefaultJitter
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
