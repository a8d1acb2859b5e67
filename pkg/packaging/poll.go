package packaging

import (
	"context"
	"errors"
	"time"
)

// Default polling frequencies.
const (
	DefaultPublishFrequency = 10 * time.Second
	DefaultInstallFrequency = 2 * time.Second
)

// errPollTimeout is returned by Poll when the deadline passes.
var errPollTimeout = errors.New("polling timed out")

// PollOptions controls Poll.
type PollOptions struct {
	Timeout   time.Duration
	Frequency time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Poll calls check immediately and then every Frequency until it reports
// done, returns an error, or the deadline passes. The deadline is computed
// once from Timeout; check receives the time remaining until it.
func Poll(ctx context.Context, opts PollOptions, check func(ctx context.Context, remaining time.Duration) (bool, error)) error {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	freq := opts.Frequency
	if freq <= 0 {
		freq = time.Second
	}
	deadline := now().Add(opts.Timeout)

	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		remaining := max(deadline.Sub(now()), 0)
		done, err := check(ctx, remaining)
		if err != nil || done {
			return err
		}
		if remaining <= 0 {
			return errPollTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
