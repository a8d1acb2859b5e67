package packaging

import (
	"context"
	"fmt"
)

// Install request statuses reported by the platform.
const (
	StatusSuccess    = "SUCCESS"
	StatusError      = "ERROR"
	StatusInProgress = "IN_PROGRESS"
	StatusUnknown    = "UNKNOWN"
)

// InstallValidationStatus value for a version that can be installed.
const ValidationNoErrors = "NO_ERRORS_DETECTED"

// PackageTypeUnlocked is the package type of unlocked packages.
const PackageTypeUnlocked = "Unlocked"

// Org is a subscriber org that packages are installed into.
type Org interface {
	// Username identifies the authenticated user, used in resume hints.
	Username() string

	// InstalledPackages lists the packages currently installed in the org.
	InstalledPackages(ctx context.Context) ([]InstalledPackage, error)

	// SubscriberPackageVersion fetches an installable version. The
	// installation key is required for protected versions.
	SubscriberPackageVersion(ctx context.Context, id, installationKey string) (*SubscriberPackageVersion, error)

	// CreateInstallRequest submits a PackageInstallRequest.
	CreateInstallRequest(ctx context.Context, req InstallCreateRequest) (*InstallRequest, error)

	// InstallRequest fetches the current state of a PackageInstallRequest.
	InstallRequest(ctx context.Context, id string) (*InstallRequest, error)
}

// Hub is a Dev Hub that owns package definitions and versions.
type Hub interface {
	// QueryPackageVersions returns versions matching filter, best first.
	QueryPackageVersions(ctx context.Context, filter VersionFilter) ([]PackageVersion, error)

	// ListPackageVersions returns all versions of a package.
	ListPackageVersions(ctx context.Context, packageID string) ([]PackageVersion, error)

	// DeletePackageVersion deletes an unreleased package version by its 05i id.
	DeletePackageVersion(ctx context.Context, versionID string) (SaveResult, error)
}

// InstalledPackage is one InstalledSubscriberPackage record.
type InstalledPackage struct {
	SubscriberPackageID        string `json:"subscriberPackageId"`
	SubscriberPackageVersionID string `json:"subscriberPackageVersionId"`
	PackageName                string `json:"packageName"`
	VersionNumber              string `json:"versionNumber"`
}

// SubscriberPackageVersion describes an installable build.
type SubscriberPackageVersion struct {
	ID                      string
	Name                    string
	PackageType             string
	InstallValidationStatus string
	RemoteSiteURLs          []string
	CSPTrustedSiteURLs      []string
}

// ExternalSites returns the remote site and CSP trusted site URLs the
// version declares, or nil if it declares none.
func (v *SubscriberPackageVersion) ExternalSites() []string {
	if v == nil {
		return nil
	}
	sites := make([]string, 0, len(v.RemoteSiteURLs)+len(v.CSPTrustedSiteURLs))
	sites = append(sites, v.RemoteSiteURLs...)
	sites = append(sites, v.CSPTrustedSiteURLs...)
	if len(sites) == 0 {
		return nil
	}
	return sites
}

// InstallCreateRequest is the body of a new PackageInstallRequest.
type InstallCreateRequest struct {
	ApexCompileType             string `json:"ApexCompileType,omitempty"`
	EnableRss                   bool   `json:"EnableRss"`
	Password                    string `json:"Password,omitempty"`
	SecurityType                string `json:"SecurityType,omitempty"`
	SkipHandlers                string `json:"SkipHandlers,omitempty"`
	SubscriberPackageVersionKey string `json:"SubscriberPackageVersionKey"`
	UpgradeType                 string `json:"UpgradeType,omitempty"`
}

// InstallRequest is the state of a PackageInstallRequest. Only Status and
// Errors are interpreted.
type InstallRequest struct {
	ID                          string   `json:"id"`
	Status                      string   `json:"status"`
	SubscriberPackageVersionKey string   `json:"subscriberPackageVersionKey,omitempty"`
	Errors                      []string `json:"errors,omitempty"`
}

// Pending reports whether the request has not reached a terminal status.
func (r *InstallRequest) Pending() bool {
	return r.Status == StatusInProgress || r.Status == StatusUnknown
}

// PackageVersion is one Package2Version record.
type PackageVersion struct {
	ID                         string `json:"id"`
	Package2ID                 string `json:"package2Id"`
	SubscriberPackageVersionID string `json:"subscriberPackageVersionId"`
	Major                      int    `json:"majorVersion"`
	Minor                      int    `json:"minorVersion"`
	Patch                      int    `json:"patchVersion"`
	Build                      int    `json:"buildNumber"`
	Branch                     string `json:"branch,omitempty"`
	IsReleased                 bool   `json:"isReleased"`
	IsDeprecated               bool   `json:"isDeprecated"`
	IsPasswordProtected        bool   `json:"isPasswordProtected"`
}

// VersionNumber formats the version as Major.Minor.Patch.Build.
func (v PackageVersion) VersionNumber() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Build)
}

// Less orders versions by (major, minor, patch, build).
func (v PackageVersion) Less(o PackageVersion) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	if v.Patch != o.Patch {
		return v.Patch < o.Patch
	}
	return v.Build < o.Build
}

// SaveResult is the outcome of a record update.
type SaveResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}
