package packaging

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
)

const latest = "LATEST"

// VersionFilter selects non-deprecated versions of one package. Nil
// segments are unconstrained. An empty Branch matches only versions
// without a branch.
type VersionFilter struct {
	Package2ID string
	Major      int
	Minor      *int
	Patch      *int
	Build      *int
	Branch     string
}

// ParseVersionFilter builds a filter from a "Major.Minor.Patch.Build"
// specifier. Segments after the major may be LATEST or omitted, and a
// trailing "-LATEST" suffix is ignored.
func ParseVersionFilter(package2ID, version, branch string) (VersionFilter, error) {
	f := VersionFilter{Package2ID: package2ID, Branch: strings.TrimSpace(branch)}

	spec := strings.ToUpper(strings.TrimSpace(version))
	spec = strings.ReplaceAll(spec, "-"+latest, "")
	parts := strings.Split(spec, ".")
	if len(parts) > 4 {
		return f, pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "version number %q has more than four segments", version)
	}

	segs := make([]*int, 4)
	for i, p := range parts {
		if p == "" || p == latest {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return f, pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "version number %q has invalid segment %q", version, p)
		}
		segs[i] = &n
	}
	if segs[0] == nil {
		return f, pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "version number %q must pin the major version", version)
	}
	f.Major = *segs[0]
	f.Minor, f.Patch, f.Build = segs[1], segs[2], segs[3]
	return f, nil
}

// Matches reports whether v satisfies the filter.
func (f VersionFilter) Matches(v PackageVersion) bool {
	switch {
	case v.IsDeprecated, v.Package2ID != "" && v.Package2ID != f.Package2ID:
		return false
	case v.Major != f.Major:
		return false
	case f.Minor != nil && v.Minor != *f.Minor:
		return false
	case f.Patch != nil && v.Patch != *f.Patch:
		return false
	case f.Build != nil && v.Build != *f.Build:
		return false
	}
	return strings.TrimSpace(v.Branch) == f.Branch
}

// SOQL renders the filter as a tooling query returning the best match first.
func (f VersionFilter) SOQL() string {
	var b strings.Builder
	b.WriteString("SELECT Id, Package2Id, SubscriberPackageVersionId, MajorVersion, MinorVersion, PatchVersion, BuildNumber, Branch, IsReleased, IsDeprecated, IsPasswordProtected ")
	b.WriteString("FROM Package2Version ")
	fmt.Fprintf(&b, "WHERE Package2Id='%s' AND MajorVersion=%d AND IsDeprecated = FALSE ", EscapeSOQL(f.Package2ID), f.Major)
	if f.Minor != nil {
		fmt.Fprintf(&b, "AND MinorVersion=%d ", *f.Minor)
	}
	if f.Patch != nil {
		fmt.Fprintf(&b, "AND PatchVersion=%d ", *f.Patch)
	}
	if f.Build != nil {
		fmt.Fprintf(&b, "AND BuildNumber=%d ", *f.Build)
	}
	if f.Branch != "" {
		fmt.Fprintf(&b, "AND Branch='%s' ", EscapeSOQL(f.Branch))
	} else {
		b.WriteString("AND Branch=NULL ")
	}
	b.WriteString("ORDER BY MajorVersion DESC, MinorVersion DESC, PatchVersion DESC, BuildNumber DESC LIMIT 1")
	return b.String()
}

// EscapeSOQL escapes a value for use inside a single-quoted SOQL literal.
func EscapeSOQL(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// Resolver resolves package version specifiers to subscriber package
// version ids using a Dev Hub.
// Results are never cached: a pinned version can be deprecated at any time,
// after which it must no longer resolve.
type Resolver struct {
	hub Hub
}

// NewResolver creates a resolver backed by hub.
func NewResolver(hub Hub) *Resolver {
	return &Resolver{hub: hub}
}

// Resolve returns the 04t id of the highest non-deprecated version of
// packageID matching version and branch. A 04t packageID is returned
// unchanged without contacting the hub.
func (r *Resolver) Resolve(ctx context.Context, packageID, version, branch string) (string, error) {
	if IsSubscriberPackageVersionID(packageID) {
		return packageID, nil
	}
	if !IsPackageID(packageID) {
		return "", pkgerrors.New(pkgerrors.ErrCodeInvalidID, "the Package2Id provided is not a valid Package2Id: %s", packageID)
	}

	filter, err := ParseVersionFilter(packageID, version, branch)
	if err != nil {
		return "", err
	}

	candidates, err := r.hub.QueryPackageVersions(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("query package versions of %s: %w", packageID, err)
	}

	var best *PackageVersion
	for i := range candidates {
		c := &candidates[i]
		if !filter.Matches(*c) || c.SubscriberPackageVersionID == "" {
			continue
		}
		if best == nil || best.Less(*c) {
			best = c
		}
	}
	if best == nil {
		return "", pkgerrors.New(pkgerrors.ErrCodeNotFound, "unable to find SubscriberPackageVersionId for dependent package %s", packageID)
	}
	return best.SubscriberPackageVersionID, nil
}
