package dependencies

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
	"github.com/simplysf/simply-package/pkg/packaging"
	"github.com/simplysf/simply-package/pkg/project"
)

// Options configures an install run.
type Options struct {
	Project *project.Project
	Org     packaging.Org

	// ConnectHub opens the Dev Hub connection. It is only called when the
	// project declares Dev Hub dependencies; nil means no hub is configured.
	ConnectHub func(ctx context.Context) (packaging.Hub, error)

	InstallType      InstallType
	SecurityType     SecurityType
	UpgradeType      UpgradeType
	ApexCompile      string
	Branch           string
	InstallationKeys []string
	SkipHandlers     []string
	NoPrompt         bool
	PublishWait      time.Duration
	Wait             time.Duration

	// Polling frequencies; zero uses the packaging defaults.
	PublishFrequency time.Duration
	InstallFrequency time.Duration

	Prompter Prompter
	Progress *packaging.Progress
	Logger   *log.Logger

	// Bin is the command name used in resume hints.
	Bin string
}

func (o *Options) normalize() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.InstallType == "" {
		o.InstallType = InstallUpgrade
	}
	if o.SecurityType == "" {
		o.SecurityType = SecurityAdminsOnly
	}
	if o.UpgradeType == "" {
		o.UpgradeType = UpgradeMixed
	}
	if o.Prompter == nil {
		o.Prompter = PromptFuncs{}
	}
	if o.Bin == "" {
		o.Bin = "simply"
	}
}

// Installer installs project dependencies.
type Installer struct {
	opts Options
}

// NewInstaller creates an Installer.
func NewInstaller(opts Options) *Installer {
	opts.normalize()
	return &Installer{opts: opts}
}

// Run installs the project's dependencies and returns the worklist with the
// final status of every entry. On install failure the worklist is returned
// alongside the error so callers can report partial progress.
func (in *Installer) Run(ctx context.Context) ([]PackageToInstall, error) {
	o := in.opts
	if o.Project == nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidProject, "this command must be run inside a project")
	}
	if o.Org == nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodeConnection, "unable to connect to the target org")
	}

	work, err := in.discover(ctx)
	if err != nil {
		return nil, err
	}
	if work.Len() == 0 {
		o.Logger.Info("No packages were found to install")
		return []PackageToInstall{}, nil
	}

	keys, err := ParseInstallationKeys(o.InstallationKeys, o.Project.PackageIDFromAlias)
	if err != nil {
		return nil, err
	}

	var installed []packaging.InstalledPackage
	if needsInstalledList(o.InstallType) {
		if installed, err = o.Org.InstalledPackages(ctx); err != nil {
			return nil, fmt.Errorf("list installed packages: %w", err)
		}
	}

	items := ApplyInstallType(work.Items(), o.InstallType, installed)
	for _, p := range items {
		if p.Skip {
			o.Logger.Infof("Package %s is already installed and will be skipped", p)
		}
	}

	for i, p := range items {
		if p.Skip {
			continue
		}
		status, err := in.install(ctx, p, keys[p.SubscriberPackageVersionID])
		if status != StatusPending {
			items[i] = p.WithStatus(status)
		}
		if err != nil {
			return items, err
		}
	}
	return items, nil
}

// discover builds the worklist: direct subscriber version dependencies first,
// then Dev Hub dependencies in declaration order.
func (in *Installer) discover(ctx context.Context) (*Worklist, error) {
	o := in.opts
	work := &Worklist{}

	var deferred []project.Dependency
	for _, dir := range o.Project.DirectoriesWithDependencies() {
		for _, dep := range dir.Dependencies {
			if dep.IsHubResolvable() {
				deferred = append(deferred, dep)
				continue
			}
			id := o.Project.PackageIDFromAlias(dep.Package)
			if !packaging.IsSubscriberPackageVersionID(id) {
				return nil, invalidVersionID(dep.Package)
			}
			work.Add(PackageToInstall{PackageName: dep.Package, SubscriberPackageVersionID: id})
		}
	}
	if len(deferred) == 0 {
		return work, nil
	}

	if o.ConnectHub == nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodeConnection,
			"the project has dependencies that must be resolved through a Dev Hub; specify --target-dev-hub")
	}
	hub, err := o.ConnectHub(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeConnection, err, "unable to connect to the target dev hub")
	}
	resolver := packaging.NewResolver(hub)

	o.Logger.Debug("Resolving SubscriberPackageVersionIds from the Dev Hub", "count", len(deferred))
	for _, dep := range deferred {
		pkgID := o.Project.PackageIDFromAlias(dep.Package)
		if !packaging.IsPackageID(pkgID) {
			return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidID, "invalid Package2Id for dependency %s: %s", dep.Package, pkgID)
		}
		branch := o.Branch
		if dep.Branch != "" {
			branch = dep.Branch
		}
		id, err := resolver.Resolve(ctx, pkgID, dep.VersionNumber, branch)
		if err != nil {
			return nil, err
		}
		if !packaging.IsSubscriberPackageVersionID(id) {
			return nil, invalidVersionID(dep.Package)
		}
		o.Logger.Debug("Resolved dependency", "package", dep.Package, "version", dep.VersionNumber, "id", id)
		work.Add(PackageToInstall{PackageName: dep.Package, SubscriberPackageVersionID: id})
	}
	return work, nil
}

// install installs one package and returns its resulting status.
func (in *Installer) install(ctx context.Context, p PackageToInstall, key string) (Status, error) {
	o := in.opts
	id := p.SubscriberPackageVersionID

	req := packaging.InstallCreateRequest{
		ApexCompileType:             o.ApexCompile,
		EnableRss:                   true,
		Password:                    key,
		SecurityType:                o.SecurityType.APIValue(),
		SkipHandlers:                strings.Join(o.SkipHandlers, ","),
		SubscriberPackageVersionKey: id,
		UpgradeType:                 o.UpgradeType.APIValue(),
	}

	var version *packaging.SubscriberPackageVersion
	if o.PublishWait > 0 {
		o.Logger.Infof("Waiting for package %s to be published", p)
		v, err := packaging.WaitForPublish(ctx, o.Org, id, packaging.PublishOptions{
			Timeout:         o.PublishWait,
			Frequency:       o.PublishFrequency,
			InstallationKey: key,
			Progress:        o.Progress,
		})
		if err != nil {
			return StatusPending, err
		}
		version = v
	}

	if !o.NoPrompt {
		if version == nil {
			v, err := o.Org.SubscriberPackageVersion(ctx, id, key)
			if err != nil {
				return StatusPending, fmt.Errorf("get package version %s: %w", id, err)
			}
			version = v
		}
		if o.UpgradeType == UpgradeDelete && version.PackageType == packaging.PackageTypeUnlocked {
			ok, err := o.Prompter.ConfirmDeleteUpgrade(ctx, p)
			if err != nil {
				return StatusPending, err
			}
			if !ok {
				return StatusPending, pkgerrors.New(pkgerrors.ErrCodeCanceled, "canceled package install of %s", p)
			}
		}
		if sites := version.ExternalSites(); len(sites) > 0 {
			ok, err := o.Prompter.EnableRemoteSites(ctx, p, sites)
			if err != nil {
				return StatusPending, err
			}
			req.EnableRss = ok
		}
	}

	o.Logger.Infof("Installing package %s", p)
	result, err := packaging.Install(ctx, o.Org, req, packaging.InstallOptions{
		Timeout:   o.Wait,
		Frequency: o.InstallFrequency,
		Progress:  o.Progress,
	})
	var timeout *packaging.TimeoutError
	if errors.As(err, &timeout) {
		o.Logger.Warn("Install request polling timed out", "package", p.PackageName)
		result, err = timeout.Request, nil
	}
	if err != nil {
		return StatusPending, err
	}

	switch {
	case result.Status == packaging.StatusSuccess:
		o.Logger.Infof("Successfully installed package %s", p)
		return StatusInstalled, nil
	case result.Pending():
		return StatusInstalling, pkgerrors.New(pkgerrors.ErrCodeInstallInProgress,
			"installation of package %s is currently in progress. Run \"%s package install report -i %s -o %s\" to check the status",
			p, o.Bin, result.ID, o.Org.Username())
	default:
		return StatusFailed, pkgerrors.New(pkgerrors.ErrCodeInstallFailed,
			"installation of package %s failed: %s", p, packaging.ReduceInstallErrors(result))
	}
}

func invalidVersionID(name string) error {
	return pkgerrors.New(pkgerrors.ErrCodeInvalidID, "invalid SubscriberPackageVersionId for dependency %s", name)
}
