package dependencies

import "github.com/simplysf/simply-package/pkg/packaging"

// Worklist is an ordered set of packages keyed by subscriber package
// version id. Adding an id that is already present replaces the entry but
// keeps its original position.
type Worklist struct {
	items []PackageToInstall
	index map[string]int
}

// Add inserts or replaces p.
func (w *Worklist) Add(p PackageToInstall) {
	if w.index == nil {
		w.index = make(map[string]int)
	}
	if i, ok := w.index[p.SubscriberPackageVersionID]; ok {
		w.items[i] = p
		return
	}
	w.index[p.SubscriberPackageVersionID] = len(w.items)
	w.items = append(w.items, p)
}

// Len returns the number of entries.
func (w *Worklist) Len() int { return len(w.items) }

// Items returns a copy of the entries in order.
func (w *Worklist) Items() []PackageToInstall {
	return append([]PackageToInstall{}, w.items...)
}

// ApplyInstallType returns a copy of items with the install type policy
// applied. For Delta and Upgrade, entries whose exact subscriber package
// version id is in installed are marked skipped. All never skips.
func ApplyInstallType(items []PackageToInstall, t InstallType, installed []packaging.InstalledPackage) []PackageToInstall {
	out := append([]PackageToInstall{}, items...)
	if t != InstallDelta && t != InstallUpgrade {
		return out
	}

	present := make(map[string]bool, len(installed))
	for _, p := range installed {
		present[p.SubscriberPackageVersionID] = true
	}
	for i, p := range out {
		if present[p.SubscriberPackageVersionID] {
			out[i] = p.Skipped()
		}
	}
	return out
}

// needsInstalledList reports whether t consults the org's installed packages.
func needsInstalledList(t InstallType) bool {
	return t == InstallDelta || t == InstallUpgrade
}
