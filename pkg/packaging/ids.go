package packaging

import "strings"

// Record key prefixes.
const (
	PackageIDPrefix                  = "0Ho"
	PackageVersionIDPrefix           = "05i"
	SubscriberPackageIDPrefix        = "033"
	SubscriberPackageVersionIDPrefix = "04t"
)

// IsPackageID reports whether id is a Package2 id.
func IsPackageID(id string) bool { return strings.HasPrefix(id, PackageIDPrefix) }

// IsPackageVersionID reports whether id is a Package2Version id.
func IsPackageVersionID(id string) bool { return strings.HasPrefix(id, PackageVersionIDPrefix) }

// IsSubscriberPackageID reports whether id is a SubscriberPackage id.
func IsSubscriberPackageID(id string) bool { return strings.HasPrefix(id, SubscriberPackageIDPrefix) }

// IsSubscriberPackageVersionID reports whether id is a SubscriberPackageVersion id.
func IsSubscriberPackageVersionID(id string) bool {
	return strings.HasPrefix(id, SubscriberPackageVersionIDPrefix)
}
