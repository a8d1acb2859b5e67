// Package packaging models second-generation package records and the
// operations built on them: identifier classification, version resolution
// against a Dev Hub, install request polling, and install error reporting.
//
// The package defines two narrow interfaces for the platform: [Org] for the
// subscriber org that packages are installed into, and [Hub] for the Dev Hub
// that owns package definitions. The REST implementation lives in
// pkg/integrations/salesforce; tests use in-memory fakes.
//
// # Identifiers
//
// Record ids are classified by their three-character key prefix:
//
//	0Ho  Package2 (package definition, hub scoped)
//	05i  Package2Version (package version, hub scoped)
//	033  SubscriberPackage
//	04t  SubscriberPackageVersion (installable build)
//
// # Version specifiers
//
// [Resolver] turns "Major.Minor.Patch.Build" specifiers into a concrete 04t id.
// Any segment after the major may be LATEST (or omitted), in which case the
// highest available value is chosen:
//
//	r := packaging.NewResolver(hub)
//	id, err := r.Resolve(ctx, "0Ho000000000001AAA", "2.LATEST.LATEST", "")
package packaging
