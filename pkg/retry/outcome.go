package retry

import (
	"context"
	"errors"
	"time"
)

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetryable
	outcomeFatal
)

// Outcome is the result of one attempt. Exactly one of the three constructors
// produces it; the zero value is not valid.
type Outcome struct {
	kind outcomeKind
	body []byte
	err  error
	hint time.Duration
}

// Success reports a completed attempt carrying the response body.
func Success(body []byte) Outcome {
	return Outcome{kind: outcomeSuccess, body: body}
}

// Retryable reports a failed attempt that is eligible for another try.
// hint, when positive, is a server-supplied delay (e.g. Retry-After) that
// takes precedence over the computed backoff.
func Retryable(err error, hint time.Duration) Outcome {
	if err == nil {
		err = errors.New("retry: attempt failed")
	}
	return Outcome{kind: outcomeRetryable, err: err, hint: hint}
}

// Fatal reports a failed attempt that must not be retried.
func Fatal(err error) Outcome {
	if err == nil {
		err = errors.New("retry: attempt failed")
	}
	return Outcome{kind: outcomeFatal, err: err}
}

// AttemptFunc performs a single attempt. attempt is zero-based.
type AttemptFunc func(ctx context.Context, attempt int) Outcome

// Execute runs fn up to p.MaxRetries+1 times, strictly sequentially, waiting
// p.Delay between attempts. It returns the body of the first successful
// attempt, or the last observed error verbatim once attempts are exhausted.
// A Fatal outcome or a cancelled context stops the sequence immediately.
func Execute(ctx context.Context, p Policy, fn AttemptFunc) ([]byte, error) {
	if err := p.Normalize(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out := fn(ctx, attempt)
		switch out.kind {
		case outcomeSuccess:
			return out.body, nil
		case outcomeFatal:
			return nil, out.err
		}

		lastErr = out.err
		if attempt == p.MaxRetries {
			break
		}

		if wait := p.Delay(attempt, out.hint); wait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-p.After(wait):
			}
		}
	}
	return nil, lastErr
}
