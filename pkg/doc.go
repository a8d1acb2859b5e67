// Package pkg provides the libraries behind the simply command.
//
// # Overview
//
// simply works with second-generation packages. It installs the package
// dependencies a project declares into an org, and it deletes unreleased
// package versions from a Dev Hub. The pkg directory is organized into
// three areas:
//
//  1. Domain logic: [project], [packaging], [dependencies], [cleanup]
//  2. Infrastructure: [cache], [config], [errors], [httputil], [observability]
//  3. Integrations: [integrations] and its salesforce connection
//
// # Architecture
//
// The flow of "package dependencies install":
//
//	sfdx-project.json
//	         ↓
//	    [project] package (package directories, aliases)
//	         ↓
//	    [dependencies] package (worklist, install type, keys)
//	         ↓
//	    [packaging] package (resolve, publish wait, install, poll)
//	         ↓
//	    integrations/salesforce (Tooling API)
//
// "package version cleanup" goes from [cleanup] straight to the Dev Hub
// through the same packaging.Hub interface.
//
// # Quick Start
//
//	conn, err := salesforce.NewConnection(salesforce.Options{
//	    InstanceURL: "https://example.my.salesforce.com",
//	    AccessToken: token,
//	    APIVersion:  "62.0",
//	})
//	if err != nil {
//	    return err
//	}
//	proj, err := project.Resolve(".")
//	if err != nil {
//	    return err
//	}
//	items, err := dependencies.NewInstaller(dependencies.Options{
//	    Project: proj,
//	    Org:     conn,
//	}).Run(ctx)
//
// # Errors
//
// Every user-facing failure carries an [errors.Code]. The command maps
// codes to exit statuses with [errors.ExitCode].
package pkg
