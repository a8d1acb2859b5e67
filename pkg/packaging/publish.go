package packaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
)

// Progress receives updates from long-running package operations. Any
// field may be nil.
type Progress struct {
	// Publish is called on each publish status check.
	Publish func(remaining time.Duration, status string)

	// Install is called on each install status check.
	Install func(remaining time.Duration, req *InstallRequest)

	// Warning is called for non-fatal conditions worth surfacing.
	Warning func(msg string)
}

func (p *Progress) publish(remaining time.Duration, status string) {
	if p != nil && p.Publish != nil {
		p.Publish(remaining, status)
	}
}

func (p *Progress) install(remaining time.Duration, req *InstallRequest) {
	if p != nil && p.Install != nil {
		p.Install(remaining, req)
	}
}

func (p *Progress) warn(format string, args ...any) {
	if p != nil && p.Warning != nil {
		p.Warning(fmt.Sprintf(format, args...))
	}
}

// PublishStatus returns the human-readable publish state of a version.
func PublishStatus(validation string) string {
	if validation == ValidationNoErrors {
		return "Available for installation"
	}
	return "Unavailable for installation"
}

// PublishOptions controls WaitForPublish.
type PublishOptions struct {
	Timeout         time.Duration
	Frequency       time.Duration
	InstallationKey string
	Progress        *Progress
	Now             func() time.Time
}

// WaitForPublish polls a subscriber package version until it becomes
// available for installation in org.
func WaitForPublish(ctx context.Context, org Org, id string, opts PublishOptions) (*SubscriberPackageVersion, error) {
	if opts.Frequency <= 0 {
		opts.Frequency = DefaultPublishFrequency
	}

	var last *SubscriberPackageVersion
	err := Poll(ctx, PollOptions{Timeout: opts.Timeout, Frequency: opts.Frequency, Now: opts.Now},
		func(ctx context.Context, remaining time.Duration) (bool, error) {
			v, err := org.SubscriberPackageVersion(ctx, id, opts.InstallationKey)
			if err != nil {
				return false, err
			}
			last = v
			opts.Progress.publish(remaining, PublishStatus(v.InstallValidationStatus))
			return v.InstallValidationStatus == ValidationNoErrors, nil
		})
	if errors.Is(err, errPollTimeout) {
		status := ""
		if last != nil {
			status = last.InstallValidationStatus
		}
		return last, pkgerrors.New(pkgerrors.ErrCodeTimeout,
			"package version %s was not available for installation before the publish wait elapsed (last status: %s)", id, status)
	}
	return last, err
}
