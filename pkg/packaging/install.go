package packaging

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// InstallOptions controls Install. A zero Timeout submits the request and
// returns without polling.
type InstallOptions struct {
	Timeout   time.Duration
	Frequency time.Duration
	Progress  *Progress
	Now       func() time.Time
}

// Install submits req to org and, when a timeout is configured, polls until
// the request leaves IN_PROGRESS/UNKNOWN. If polling times out the returned
// error is a *TimeoutError carrying the last observed request.
func Install(ctx context.Context, org Org, req InstallCreateRequest, opts InstallOptions) (*InstallRequest, error) {
	if !req.EnableRss {
		opts.Progress.warn("Remote site settings and CSP trusted sites for package %s will not be enabled", req.SubscriberPackageVersionKey)
	}

	created, err := org.CreateInstallRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create install request: %w", err)
	}
	if opts.Timeout <= 0 {
		return created, nil
	}
	if opts.Frequency <= 0 {
		opts.Frequency = DefaultInstallFrequency
	}

	last := created
	err = Poll(ctx, PollOptions{Timeout: opts.Timeout, Frequency: opts.Frequency, Now: opts.Now},
		func(ctx context.Context, remaining time.Duration) (bool, error) {
			r, err := org.InstallRequest(ctx, created.ID)
			if err != nil {
				return false, err
			}
			last = r
			opts.Progress.install(remaining, r)
			return !r.Pending(), nil
		})
	if errors.Is(err, errPollTimeout) {
		return last, &TimeoutError{Request: last}
	}
	if err != nil {
		return last, fmt.Errorf("poll install request %s: %w", created.ID, err)
	}
	return last, nil
}
