package retry

import (
	"errors"
	"math/rand"
	"time"
)

// Backoff selects the delay curve between attempts.
type Backoff string

const (
	// BackoffExponential doubles the base delay on every attempt: 1s, 2s, 4s, ...
	BackoffExponential Backoff = "exponential"
	// BackoffLinear grows the base delay arithmetically: 1s, 2s, 3s, ...
	BackoffLinear Backoff = "linear"
	// BackoffNone retries immediately.
	BackoffNone Backoff = "none"
)

// Policy configures the retry behaviour of Execute.
//
// A Policy is immutable once handed to Execute; the executor works on a
// normalized copy and never mutates the caller's value.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first one.
	// Zero means a single attempt with no retries.
	MaxRetries int
	// Backoff is the delay curve. Defaults to BackoffExponential.
	Backoff Backoff
	// BaseDelay seeds the backoff curve.
	BaseDelay time.Duration
	// MaxDelay caps every computed delay, including server hints.
	MaxDelay time.Duration

	// Rand draws jitter; must be safe for concurrent use.
	// Defaults to math/rand.Int63n.
	Rand func(n int64) int64
	// After creates the inter-attempt timer (for testing, defaults to time.After).
	After func(d time.Duration) <-chan time.Time
}

// DefaultPolicy returns a Policy with sensible defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		Backoff:    BackoffExponential,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Normalize validates the policy and fills in defaults for optional fields.
func (p *Policy) Normalize() error {
	if p.MaxRetries < 0 {
		return errors.New("retry: MaxRetries cannot be negative")
	}
	if p.Backoff == "" {
		p.Backoff = BackoffExponential
	}
	switch p.Backoff {
	case BackoffExponential, BackoffLinear, BackoffNone:
	default:
		return errors.New("retry: unknown backoff kind " + string(p.Backoff))
	}
	if p.BaseDelay <= 0 {
		return errors.New("retry: BaseDelay must be positive")
	}
	if p.MaxDelay < p.BaseDelay {
		return errors.New("retry: MaxDelay must be at least BaseDelay")
	}
	if p.Rand == nil {
		p.Rand = rand.Int63n
	}
	if p.After == nil {
		p.After = time.After
	}
	return nil
}

// Delay computes the wait before the attempt that follows attempt number
// attempt (zero-based). An explicit server hint wins over the computed
// backoff; both are clamped to MaxDelay. The policy must be normalized.
func (p Policy) Delay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		if hint > p.MaxDelay {
			return p.MaxDelay
		}
		return hint
	}

	if p.Backoff == BackoffNone {
		return 0
	}

	var base time.Duration
	switch p.Backoff {
	case BackoffLinear:
		base = p.BaseDelay * time.Duration(attempt+1)
	default: // exponential
		base = p.BaseDelay
		for i := 0; i < attempt; i++ {
			if base > p.MaxDelay {
				break
			}
			base <<= 1
		}
	}
	if base <= 0 || base > p.MaxDelay {
		// Overflow or past the cap: jitter cannot raise it further.
		return p.MaxDelay
	}

	// Uniform jitter in [0, base/2] to spread synchronized retries.
	delay := base
	if half := int64(base / 2); half > 0 {
		delay += time.Duration(p.Rand(half + 1))
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
