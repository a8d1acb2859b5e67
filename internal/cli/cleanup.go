package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simplysf/simply-package/pkg/cleanup"
	"github.com/simplysf/simply-package/pkg/project"
)

// cleanupFlags holds flags for the version cleanup command.
type cleanupFlags struct {
	matcher      string
	pkg          string
	targetDevHub string
	apiVersion   string
}

// cleanupCommand creates the "package version cleanup" command.
func (c *CLI) cleanupCommand() *cobra.Command {
	var flags cleanupFlags

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete unreleased package versions matching a version number",
		Long: `Delete every unreleased version of a package whose major, minor and patch
numbers equal the matcher. Released versions are never deleted.`,
		Example: `  simply package version cleanup -p MyPkg -s 1.2.0 -v devhub
  simply package version cleanup -p 0Ho000000000001AAA -s 2.0.1 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCleanup(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.matcher, "matcher", "s", "", "major.minor.patch of the versions to delete")
	f.StringVarP(&flags.pkg, "package", "p", "", "package alias or Package2Id (0Ho)")
	f.StringVarP(&flags.targetDevHub, "target-dev-hub", "v", "", "username or alias of the Dev Hub org")
	f.StringVar(&flags.apiVersion, "api-version", "", "override the API version used for requests")
	_ = cmd.MarkFlagRequired("matcher")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}

func (c *CLI) runCleanup(ctx context.Context, flags cleanupFlags) error {
	logger := loggerFromContext(ctx)

	if _, err := cleanup.ParseMatcher(flags.matcher); err != nil {
		return err
	}

	proj, err := project.Resolve(c.projectDir)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	hubName, err := orgOrDefault(flags.targetDevHub, s.cfg.TargetDevHub, "target-dev-hub")
	if err != nil {
		return err
	}
	hub, err := s.connect(ctx, hubName, flags.apiVersion)
	if err != nil {
		return err
	}

	spin := newSpinnerWithContext(ctx, "Deleting package versions")
	spin.Start()
	results, err := cleanup.NewCleaner(cleanup.Options{
		Hub:     hub,
		Project: proj,
		Package: flags.pkg,
		Matcher: flags.matcher,
		Logger:  logger,
	}).Run(ctx)
	spin.Stop()
	if err != nil {
		return err
	}
	return c.writeCleanupResults(results)
}

func (c *CLI) writeCleanupResults(results []cleanup.Result) error {
	if c.jsonOutput {
		if results == nil {
			results = []cleanup.Result{}
		}
		return writeJSON(c.stdout, results)
	}
	if len(results) == 0 {
		printInfo("No matching package versions found")
		return nil
	}
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{r.SubscriberPackageVersionID, yesNo(r.Success), r.Error}
	}
	_, err := fmt.Fprint(c.stdout, renderTable("Package Version Cleanup Results",
		[]string{"PACKAGE VERSION ID", "SUCCESS", "ERROR"}, rows))
	return err
}
