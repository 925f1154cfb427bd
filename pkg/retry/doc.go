// Package retry executes a single logical operation as a bounded sequence of
// sequential attempts with configurable backoff between them.
//
// The attempt function owns the transport call and reports each attempt as a
// tagged Outcome: Success carries a response body, Retryable carries an error
// eligible for another attempt (optionally with a server-supplied delay hint),
// and Fatal stops the sequence immediately. The executor never inspects the
// error itself; the caller decides retryability when building the Outcome.
//
// Basic usage:
//
//	body, err := retry.Execute(ctx, retry.DefaultPolicy(), func(ctx context.Context, attempt int) retry.Outcome {
//	    resp, err := send(ctx)
//	    if err != nil {
//	        return retry.Retryable(err, 0)
//	    }
//	    return retry.Success(resp)
//	})
//
// Delays between attempts honour an explicit server hint first, then the
// configured backoff curve with uniform jitter, clamped to Policy.MaxDelay.
// The inter-attempt wait is cancellable through the context. The random
// source and timer are injectable through Policy for deterministic tests.
package retry
