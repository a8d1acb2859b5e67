package dependencies

import (
	"context"
	"errors"
	"strings"
)

// Prompter asks the user to confirm install decisions.
type Prompter interface {
	// ConfirmDeleteUpgrade confirms a delete-only upgrade of an unlocked package.
	ConfirmDeleteUpgrade(ctx context.Context, pkg PackageToInstall) (bool, error)

	// EnableRemoteSites asks whether to enable the package's external sites.
	EnableRemoteSites(ctx context.Context, pkg PackageToInstall, sites []string) (bool, error)
}

// errPromptRequired is returned when a prompt is needed but none is configured.
var errPromptRequired = errors.New("confirmation required; rerun interactively or pass --no-prompt")

// PromptFuncs adapts functions to the Prompter interface.
type PromptFuncs struct {
	ConfirmDeleteUpgradeFunc func(ctx context.Context, pkg PackageToInstall) (bool, error)
	EnableRemoteSitesFunc    func(ctx context.Context, pkg PackageToInstall, sites []string) (bool, error)
}

// ConfirmDeleteUpgrade returns an error if no ConfirmDeleteUpgradeFunc is configured.
func (p PromptFuncs) ConfirmDeleteUpgrade(ctx context.Context, pkg PackageToInstall) (bool, error) {
	if p.ConfirmDeleteUpgradeFunc == nil {
		return false, errPromptRequired
	}
	return p.ConfirmDeleteUpgradeFunc(ctx, pkg)
}

// EnableRemoteSites returns an error if no EnableRemoteSitesFunc is configured.
func (p PromptFuncs) EnableRemoteSites(ctx context.Context, pkg PackageToInstall, sites []string) (bool, error) {
	if p.EnableRemoteSitesFunc == nil {
		return false, errPromptRequired
	}
	return p.EnableRemoteSitesFunc(ctx, pkg, sites)
}

// DeleteUpgradeMessage is the confirmation text for delete-only upgrades.
func DeleteUpgradeMessage(pkg PackageToInstall) string {
	return "Upgrade type Delete will permanently delete metadata removed from " + pkg.String() +
		", including custom objects and fields and their data. Continue?"
}

// RemoteSitesMessage is the confirmation text for enabling external sites.
func RemoteSitesMessage(sites []string) string {
	return "This package might send or receive data from these third-party websites:\n\n" +
		strings.Join(sites, "\n") +
		"\n\nGrant access to these third-party websites?"
}
