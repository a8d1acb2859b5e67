// Package cleanup deletes unreleased package versions that match a
// major.minor.patch version.
package cleanup

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
	"github.com/simplysf/simply-package/pkg/packaging"
	"github.com/simplysf/simply-package/pkg/project"
)

var matcherRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Result is the outcome of deleting one package version.
type Result struct {
	SubscriberPackageVersionID string `json:"subscriberPackageVersionId"`
	Success                    bool   `json:"success"`
	Error                      string `json:"error,omitempty"`
}

// Matcher selects versions by exact major, minor and patch.
type Matcher struct {
	Major, Minor, Patch uint64
}

// ParseMatcher parses a "major.minor.patch" matcher. Build numbers,
// pre-release tags and leading zeros are rejected.
func ParseMatcher(s string) (Matcher, error) {
	if !matcherRegex.MatchString(s) {
		return Matcher{}, pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "matcher %q must have the format major.minor.patch", s)
	}
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return Matcher{}, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidFormat, err, "matcher %q is not a valid version", s)
	}
	return Matcher{Major: v.Major(), Minor: v.Minor(), Patch: v.Patch()}, nil
}

func (m Matcher) String() string {
	return fmt.Sprintf("%d.%d.%d", m.Major, m.Minor, m.Patch)
}

// Matches reports whether v is unreleased and has the matcher's version.
func (m Matcher) Matches(v packaging.PackageVersion) bool {
	return !v.IsReleased &&
		v.Major >= 0 && uint64(v.Major) == m.Major &&
		v.Minor >= 0 && uint64(v.Minor) == m.Minor &&
		v.Patch >= 0 && uint64(v.Patch) == m.Patch
}

// Filter returns the versions m matches, in input order.
func Filter(versions []packaging.PackageVersion, m Matcher) []packaging.PackageVersion {
	var out []packaging.PackageVersion
	for _, v := range versions {
		if m.Matches(v) {
			out = append(out, v)
		}
	}
	return out
}

// Options configures a cleanup run.
type Options struct {
	Hub     packaging.Hub
	Project *project.Project

	// Package is a package alias or 0Ho id.
	Package string
	Matcher string

	Logger *log.Logger
}

// Cleaner deletes matching package versions.
type Cleaner struct {
	opts Options
}

// NewCleaner creates a Cleaner.
func NewCleaner(opts Options) *Cleaner {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Cleaner{opts: opts}
}

// Run deletes every unreleased version of the package matching the matcher.
// Deletes run concurrently; a failed delete is reported in its Result and
// never stops the others. The returned error covers only setup failures.
func (c *Cleaner) Run(ctx context.Context) ([]Result, error) {
	o := c.opts
	if o.Hub == nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodeConnection, "unable to connect to the target dev hub")
	}
	m, err := ParseMatcher(o.Matcher)
	if err != nil {
		return nil, err
	}

	pkgID := o.Package
	if o.Project != nil {
		pkgID = o.Project.PackageIDFromAlias(o.Package)
	}
	if !packaging.IsPackageID(pkgID) {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidID, "invalid package %q: expected a package alias or Package2Id", o.Package)
	}
	o.Logger.Info("Matching package versions", "major", m.Major, "minor", m.Minor, "patch", m.Patch)

	versions, err := o.Hub.ListPackageVersions(ctx, pkgID)
	if err != nil {
		return nil, fmt.Errorf("list package versions: %w", err)
	}
	targets := Filter(versions, m)
	o.Logger.Debug("Package versions selected for deletion", "count", len(targets), "of", len(versions))

	results := make([]Result, len(targets))
	var g errgroup.Group
	for i, v := range targets {
		g.Go(func() error {
			res, err := o.Hub.DeletePackageVersion(ctx, v.ID)
			results[i] = Result{SubscriberPackageVersionID: v.SubscriberPackageVersionID, Success: res.Success}
			if err != nil {
				results[i].Success = false
				results[i].Error = err.Error()
				o.Logger.Warn("Failed to delete package version", "id", v.SubscriberPackageVersionID, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
