package packaging

import "testing"

func TestClassifiers(t *testing.T) {
	tests := []struct {
		id                             string
		pkg, pkgVer, subPkg, subPkgVer bool
	}{
		{"", false, false, false, false},
		{"0Ho000000000001AAA", true, false, false, false},
		{"05i000000000001AAA", false, true, false, false},
		{"033000000000001AAA", false, false, true, false},
		{"04t000000000001AAA", false, false, false, true},
		{"04", false, false, false, false},
		{"0ho000000000001AAA", false, false, false, false},
		{"my-package@1.0.0", false, false, false, false},
	}

	for _, tt := range tests {
		if got := IsPackageID(tt.id); got != tt.pkg {
			t.Errorf("IsPackageID(%q) = %v, want %v", tt.id, got, tt.pkg)
		}
		if got := IsPackageVersionID(tt.id); got != tt.pkgVer {
			t.Errorf("IsPackageVersionID(%q) = %v, want %v", tt.id, got, tt.pkgVer)
		}
		if got := IsSubscriberPackageID(tt.id); got != tt.subPkg {
			t.Errorf("IsSubscriberPackageID(%q) = %v, want %v", tt.id, got, tt.subPkg)
		}
		if got := IsSubscriberPackageVersionID(tt.id); got != tt.subPkgVer {
			t.Errorf("IsSubscriberPackageVersionID(%q) = %v, want %v", tt.id, got, tt.subPkgVer)
		}
	}
}
