package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
	"github.com/simplysf/simply-package/pkg/packaging"
	"github.com/simplysf/simply-package/pkg/project"
)

const pkgID = "0Ho000000000001AAA"

type fakeHub struct {
	mu       sync.Mutex
	versions []packaging.PackageVersion
	fail     map[string]error
	deleted  []string
}

func (h *fakeHub) QueryPackageVersions(ctx context.Context, f packaging.VersionFilter) ([]packaging.PackageVersion, error) {
	return nil, nil
}

func (h *fakeHub) ListPackageVersions(ctx context.Context, id string) ([]packaging.PackageVersion, error) {
	if id != pkgID {
		return nil, errors.New("unknown package")
	}
	return h.versions, nil
}

func (h *fakeHub) DeletePackageVersion(ctx context.Context, id string) (packaging.SaveResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, id)
	if err := h.fail[id]; err != nil {
		return packaging.SaveResult{}, err
	}
	return packaging.SaveResult{ID: id, Success: true}, nil
}

func version(id string, major, minor, patch int, released bool) packaging.PackageVersion {
	return packaging.PackageVersion{
		ID:                         "05i" + id,
		Package2ID:                 pkgID,
		SubscriberPackageVersionID: "04t" + id,
		Major:                      major,
		Minor:                      minor,
		Patch:                      patch,
		IsReleased:                 released,
	}
}

func TestParseMatcher(t *testing.T) {
	m, err := ParseMatcher("1.2.0")
	require.NoError(t, err)
	require.Equal(t, Matcher{Major: 1, Minor: 2, Patch: 0}, m)
	require.Equal(t, "1.2.0", m.String())

	for _, bad := range []string{"", "1.2", "1.2.0.1", "1.2.0-beta", "v1.2.0", "01.2.0", "1.x.0"} {
		_, err := ParseMatcher(bad)
		require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidFormat), "%q: got %v", bad, err)
	}
}

func TestFilterTargetsOnlyUnreleasedExactMatches(t *testing.T) {
	versions := []packaging.PackageVersion{
		version("A", 1, 2, 0, true),
		version("B", 1, 2, 0, false),
		version("C", 1, 2, 1, false),
		version("D", 1, 3, 0, false),
	}
	m, _ := ParseMatcher("1.2.0")

	got := Filter(versions, m)
	require.Len(t, got, 1)
	require.Equal(t, "04tB", got[0].SubscriberPackageVersionID)
}

func TestRunReportsPerItemResults(t *testing.T) {
	hub := &fakeHub{
		versions: []packaging.PackageVersion{
			version("A", 1, 2, 0, false),
			version("B", 1, 2, 0, false),
			version("C", 1, 2, 0, false),
			version("D", 1, 2, 0, true),
		},
		fail: map[string]error{"05iB": errors.New("version is a dependency")},
	}
	p := &project.Project{PackageAliases: map[string]string{"Core": pkgID}}

	results, err := NewCleaner(Options{Hub: hub, Project: p, Package: "Core", Matcher: "1.2.0"}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Result{
		{SubscriberPackageVersionID: "04tA", Success: true},
		{SubscriberPackageVersionID: "04tB", Success: false, Error: "version is a dependency"},
		{SubscriberPackageVersionID: "04tC", Success: true},
	}, results)
	require.ElementsMatch(t, []string{"05iA", "05iB", "05iC"}, hub.deleted)
}

func TestRunNoMatches(t *testing.T) {
	hub := &fakeHub{versions: []packaging.PackageVersion{version("A", 2, 0, 0, false)}}

	results, err := NewCleaner(Options{Hub: hub, Package: pkgID, Matcher: "1.0.0"}).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, hub.deleted)
}

func TestRunValidation(t *testing.T) {
	hub := &fakeHub{}

	_, err := NewCleaner(Options{Package: pkgID, Matcher: "1.0.0"}).Run(context.Background())
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeConnection))

	_, err = NewCleaner(Options{Hub: hub, Package: pkgID, Matcher: "1.0"}).Run(context.Background())
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidFormat))

	_, err = NewCleaner(Options{Hub: hub, Package: "Unknown", Matcher: "1.0.0"}).Run(context.Background())
	require.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidID))
}
