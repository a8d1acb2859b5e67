package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simplysf/simply-package/pkg/dependencies"
	"github.com/simplysf/simply-package/pkg/packaging"
	"github.com/simplysf/simply-package/pkg/project"
)

// installFlags holds flags for the dependencies install command.
type installFlags struct {
	apexCompile  string
	apiVersion   string
	branch       string
	installType  string
	keys         []string
	noPrompt     bool
	publishWait  int
	securityType string
	skipHandlers []string
	targetDevHub string
	targetOrg    string
	upgradeType  string
	wait         int
	confirm      confirmFunc
}

// installCommand creates the "package dependencies install" command.
func (c *CLI) installCommand() *cobra.Command {
	flags := installFlags{confirm: huhConfirm}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the project's package dependencies into an org",
		Long: `Install every package dependency declared in sfdx-project.json into the target org.

Dependencies pinned to a subscriber package version id (04t) are installed
directly. Dependencies given as a package id (0Ho) with a version number are
resolved through the Dev Hub first.`,
		Example: `  simply package dependencies install -o my-scratch
  simply package dependencies install -o my-scratch -v devhub -k "MyPkg:secret" -w 60
  simply package dependencies install -o my-scratch -i Delta --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.apexCompile, "apex-compile", "a", "", "compile all Apex in the org and package, or only Apex in the package (all|package)")
	f.StringVar(&flags.apiVersion, "api-version", "", "override the API version used for requests")
	f.StringVarP(&flags.branch, "branch", "z", "", "package branch used to resolve Dev Hub dependencies")
	f.StringVarP(&flags.installType, "install-type", "i", string(dependencies.InstallUpgrade), "which dependencies to install (All|Delta|Upgrade)")
	f.StringArrayVarP(&flags.keys, "installation-key", "k", nil, "installation keys as name:key pairs, comma separated")
	f.BoolVarP(&flags.noPrompt, "no-prompt", "r", false, "do not prompt for confirmation")
	f.IntVarP(&flags.publishWait, "publish-wait", "b", 0, "minutes to wait for each package to become available")
	f.StringVarP(&flags.securityType, "security-type", "s", string(dependencies.SecurityAdminsOnly), "who can access the installed package (AllUsers|AdminsOnly)")
	f.StringSliceVarP(&flags.skipHandlers, "skip-handlers", "l", nil, "install handlers to skip (FeatureEnforcement)")
	f.StringVarP(&flags.targetDevHub, "target-dev-hub", "v", "", "username or alias of the Dev Hub org")
	f.StringVarP(&flags.targetOrg, "target-org", "o", "", "username or alias of the target org")
	f.StringVarP(&flags.upgradeType, "upgrade-type", "t", string(dependencies.UpgradeMixed), "how to treat metadata removed from unlocked packages (DeprecateOnly|Mixed|Delete)")
	f.IntVarP(&flags.wait, "wait", "w", 30, "minutes to wait for each installation to complete")
	_ = f.MarkHidden("skip-handlers")

	return cmd
}

func (f installFlags) validate() error {
	checks := []struct {
		flag, value string
		allowed     []string
	}{
		{"apex-compile", f.apexCompile, dependencies.ApexCompiles},
		{"install-type", f.installType, dependencies.InstallTypes},
		{"security-type", f.securityType, dependencies.SecurityTypes},
		{"upgrade-type", f.upgradeType, dependencies.UpgradeTypes},
	}
	for _, ch := range checks {
		if err := dependencies.ValidateChoice(ch.flag, ch.value, ch.allowed); err != nil {
			return err
		}
	}
	for _, h := range f.skipHandlers {
		if err := dependencies.ValidateChoice("skip-handlers", h, dependencies.SkipHandlers); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) runInstall(ctx context.Context, flags installFlags) error {
	if err := flags.validate(); err != nil {
		return err
	}
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	proj, err := project.Resolve(c.projectDir)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	orgName, err := orgOrDefault(flags.targetOrg, s.cfg.TargetOrg, "target-org")
	if err != nil {
		return err
	}
	org, err := s.connect(ctx, orgName, flags.apiVersion)
	if err != nil {
		return err
	}

	var connectHub func(context.Context) (packaging.Hub, error)
	if hubName := firstNonEmpty(flags.targetDevHub, s.cfg.TargetDevHub); hubName != "" {
		connectHub = func(ctx context.Context) (packaging.Hub, error) {
			hub, err := s.connect(ctx, hubName, flags.apiVersion)
			if err != nil {
				return nil, err
			}
			return hub, nil
		}
	}

	spin := newSpinnerWithContext(ctx, "Preparing install")
	spin.Start()
	defer spin.Stop()

	installer := dependencies.NewInstaller(dependencies.Options{
		Project:          proj,
		Org:              org,
		ConnectHub:       connectHub,
		InstallType:      dependencies.InstallType(flags.installType),
		SecurityType:     dependencies.SecurityType(flags.securityType),
		UpgradeType:      dependencies.UpgradeType(flags.upgradeType),
		ApexCompile:      flags.apexCompile,
		Branch:           flags.branch,
		InstallationKeys: flags.keys,
		SkipHandlers:     flags.skipHandlers,
		NoPrompt:         flags.noPrompt,
		PublishWait:      time.Duration(flags.publishWait) * time.Minute,
		Wait:             time.Duration(flags.wait) * time.Minute,
		Prompter:         newPrompter(flags.confirm, spin),
		Progress:         spinnerProgress(spin),
		Logger:           logger,
		Bin:              appName,
	})

	items, err := installer.Run(ctx)
	spin.Stop()
	if items != nil {
		if werr := c.writeInstallResults(items); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Processed %d packages", len(items)))
	return nil
}

// spinnerProgress reports polling progress on the spinner line.
func spinnerProgress(spin *Spinner) *packaging.Progress {
	return &packaging.Progress{
		Publish: func(remaining time.Duration, status string) {
			spin.SetMessage(fmt.Sprintf("%d minutes remaining until timeout. Publish status: %s", minutesLeft(remaining), status))
		},
		Install: func(remaining time.Duration, req *packaging.InstallRequest) {
			spin.SetMessage(fmt.Sprintf("%d minutes remaining until timeout. Install status: %s", minutesLeft(remaining), req.Status))
		},
		Warning: func(msg string) {
			printWarning("%s", msg)
		},
	}
}

func minutesLeft(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

func (c *CLI) writeInstallResults(items []dependencies.PackageToInstall) error {
	if c.jsonOutput {
		return writeJSON(c.stdout, items)
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([][]string, len(items))
	for i, p := range items {
		status := string(p.Status)
		if status == "" {
			status = "Pending"
		}
		rows[i] = []string{p.PackageName, p.SubscriberPackageVersionID, status}
	}
	_, err := fmt.Fprint(c.stdout, renderTable("Package Dependencies",
		[]string{"PACKAGE", "SUBSCRIBER PACKAGE VERSION ID", "STATUS"}, rows))
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
