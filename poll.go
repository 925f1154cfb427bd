package humanrail

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultWaitTimeout  = 10 * time.Minute
)

// WaitForCompletion polls a task until it reaches a terminal state.
//
// A convenience for workflows that prefer polling over webhooks. Each status
// read goes through the client's retry policy; a fatal read error (e.g. the
// task was deleted) propagates immediately. The deadline bounds the whole
// wait: status reads run on a context that expires with it, so retry sleeps
// inside a fetch cannot outlive the timeout. When the deadline passes without
// a terminal state the call fails with a TimeoutError carrying the configured
// timeout. If opts is nil, the task is polled every 2 seconds for up to
// 10 minutes.
func (c *Client) WaitForCompletion(ctx context.Context, taskID string, opts *WaitOptions) (*Task, error) {
	pollInterval := defaultPollInterval
	timeout := defaultWaitTimeout
	if opts != nil {
		if opts.PollInterval > 0 {
			pollInterval = opts.PollInterval
		}
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
	}

	timeoutErr := &TimeoutError{
		APIError: APIError{
			Message: fmt.Sprintf("task %s did not reach a terminal state within %s", taskID, timeout),
		},
		Timeout: timeout,
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	deadline := time.Now().Add(timeout)
	for {
		if !time.Now().Before(deadline) {
			return nil, timeoutErr
		}

		task, err := c.GetTask(waitCtx, taskID)
		if err != nil {
			// The wait deadline cut the fetch short while the caller's
			// context is still live: that is the wait timing out, not
			// the fetch failing.
			if waitCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				return nil, timeoutErr
			}
			return nil, err
		}
		if task.Status.IsTerminal() {
			return task, nil
		}

		wait := pollInterval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-waitCtx.Done():
				timer.Stop()
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, timeoutErr
			case <-timer.C:
			}
		}
	}
}
