package dependencies

import (
	"fmt"
	"slices"
	"strings"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
)

// InstallType selects which dependencies are attempted.
type InstallType string

const (
	InstallAll     InstallType = "All"
	InstallDelta   InstallType = "Delta"
	InstallUpgrade InstallType = "Upgrade"
)

// SecurityType selects who gets access to installed packages.
type SecurityType string

const (
	SecurityAllUsers   SecurityType = "AllUsers"
	SecurityAdminsOnly SecurityType = "AdminsOnly"
)

// APIValue returns the PackageInstallRequest SecurityType value.
func (s SecurityType) APIValue() string {
	switch s {
	case SecurityAllUsers:
		return "full"
	default:
		return "none"
	}
}

// UpgradeType selects how removed components are handled on upgrade.
type UpgradeType string

const (
	UpgradeDeprecateOnly UpgradeType = "DeprecateOnly"
	UpgradeMixed         UpgradeType = "Mixed"
	UpgradeDelete        UpgradeType = "Delete"
)

// APIValue returns the PackageInstallRequest UpgradeType value.
func (u UpgradeType) APIValue() string {
	switch u {
	case UpgradeDeprecateOnly:
		return "deprecate-only"
	case UpgradeDelete:
		return "delete-only"
	default:
		return "mixed-mode"
	}
}

// Allowed flag values.
var (
	InstallTypes  = []string{string(InstallAll), string(InstallDelta), string(InstallUpgrade)}
	SecurityTypes = []string{string(SecurityAllUsers), string(SecurityAdminsOnly)}
	UpgradeTypes  = []string{string(UpgradeDeprecateOnly), string(UpgradeMixed), string(UpgradeDelete)}
	ApexCompiles  = []string{"all", "package"}
	SkipHandlers  = []string{"FeatureEnforcement"}
)

// ValidateChoice returns an INVALID_INPUT error unless value is one of allowed.
// Empty values are accepted.
func ValidateChoice(flag, value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, value) {
		return nil
	}
	return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "invalid --%s %q (expected one of: %s)", flag, value, strings.Join(allowed, ", "))
}

// Status is the install state of one package.
type Status string

const (
	StatusPending    Status = ""
	StatusSkipped    Status = "Skipped"
	StatusInstalling Status = "Installing"
	StatusInstalled  Status = "Installed"
	StatusFailed     Status = "Failed"
)

// PackageToInstall is one entry of the install worklist.
type PackageToInstall struct {
	PackageName                string `json:"packageName"`
	Skip                       bool   `json:"skip"`
	Status                     Status `json:"status"`
	SubscriberPackageVersionID string `json:"subscriberPackageVersionId"`
}

func (p PackageToInstall) String() string {
	return fmt.Sprintf("%s (%s)", p.PackageName, p.SubscriberPackageVersionID)
}

// WithStatus returns a copy of p with status s.
func (p PackageToInstall) WithStatus(s Status) PackageToInstall {
	p.Status = s
	return p
}

// Skipped returns a copy of p marked as skipped.
func (p PackageToInstall) Skipped() PackageToInstall {
	p.Skip = true
	p.Status = StatusSkipped
	return p
}
