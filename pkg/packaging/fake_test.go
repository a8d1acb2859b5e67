package packaging

import (
	"context"
	"sync"
)

type fakeHub struct {
	mu       sync.Mutex
	versions []PackageVersion
	queries  int
	deleted  []string
	err      error
}

func (h *fakeHub) QueryPackageVersions(ctx context.Context, f VersionFilter) ([]PackageVersion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries++
	if h.err != nil {
		return nil, h.err
	}
	// Return everything unordered; the resolver must filter and rank.
	return append([]PackageVersion(nil), h.versions...), nil
}

func (h *fakeHub) ListPackageVersions(ctx context.Context, packageID string) ([]PackageVersion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []PackageVersion
	for _, v := range h.versions {
		if v.Package2ID == packageID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (h *fakeHub) DeletePackageVersion(ctx context.Context, id string) (SaveResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, id)
	return SaveResult{ID: id, Success: true}, nil
}

type fakeOrg struct {
	versions map[string]*SubscriberPackageVersion
	statuses []string // successive InstallRequest statuses
	polls    int
	created  []InstallCreateRequest
}

func (o *fakeOrg) Username() string { return "ci@example.com" }

func (o *fakeOrg) InstalledPackages(ctx context.Context) ([]InstalledPackage, error) {
	return nil, nil
}

func (o *fakeOrg) SubscriberPackageVersion(ctx context.Context, id, key string) (*SubscriberPackageVersion, error) {
	if v, ok := o.versions[id]; ok {
		return v, nil
	}
	return &SubscriberPackageVersion{ID: id}, nil
}

func (o *fakeOrg) CreateInstallRequest(ctx context.Context, req InstallCreateRequest) (*InstallRequest, error) {
	o.created = append(o.created, req)
	return &InstallRequest{ID: "0Hf000000000001AAA", Status: StatusInProgress, SubscriberPackageVersionKey: req.SubscriberPackageVersionKey}, nil
}

func (o *fakeOrg) InstallRequest(ctx context.Context, id string) (*InstallRequest, error) {
	status := o.statuses[min(o.polls, len(o.statuses)-1)]
	o.polls++
	return &InstallRequest{ID: id, Status: status}, nil
}
