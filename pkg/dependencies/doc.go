// Package dependencies installs a project's declared package dependencies
// into a target org.
//
// [Installer.Run] discovers dependencies from the project's package
// directories, resolves Dev Hub dependencies to subscriber package version
// ids, applies the install type policy against what is already installed,
// and installs the remaining packages one at a time. The first failing
// install aborts the run; packages after it are never attempted.
//
// Install type policy is a pure function, [ApplyInstallType], so it can be
// tested without an org.
package dependencies
