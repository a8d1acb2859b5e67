package cli

import (
	"context"

	"github.com/spf13/cobra"

	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
	"github.com/simplysf/simply-package/pkg/packaging"
)

// reportCommand creates the "package install report" command, the resume
// target printed when an install outlives --wait.
func (c *CLI) reportCommand() *cobra.Command {
	var (
		requestID  string
		targetOrg  string
		apiVersion string
	)

	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Report the status of a package install request",
		Example: `  simply package install report -i 0Hf000000000001AAA -o my-scratch`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReport(cmd.Context(), requestID, targetOrg, apiVersion)
		},
	}

	cmd.Flags().StringVarP(&requestID, "request-id", "i", "", "id of the package install request (0Hf)")
	cmd.Flags().StringVarP(&targetOrg, "target-org", "o", "", "username or alias of the target org")
	cmd.Flags().StringVar(&apiVersion, "api-version", "", "override the API version used for requests")
	_ = cmd.MarkFlagRequired("request-id")

	return cmd
}

func (c *CLI) runReport(ctx context.Context, requestID, targetOrg, apiVersion string) error {
	if err := pkgerrors.ValidateRecordID(requestID); err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	orgName, err := orgOrDefault(targetOrg, s.cfg.TargetOrg, "target-org")
	if err != nil {
		return err
	}
	org, err := s.connect(ctx, orgName, apiVersion)
	if err != nil {
		return err
	}

	req, err := org.InstallRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if c.jsonOutput {
		if err := writeJSON(c.stdout, req); err != nil {
			return err
		}
	}

	switch {
	case req.Status == packaging.StatusSuccess:
		if !c.jsonOutput {
			printSuccess("Successfully installed package %s", req.SubscriberPackageVersionKey)
		}
		return nil
	case req.Pending():
		if !c.jsonOutput {
			printInfo("Install request %s status: %s", req.ID, req.Status)
		}
		return pkgerrors.New(pkgerrors.ErrCodeInstallInProgress, "installation of %s is still in progress", req.SubscriberPackageVersionKey)
	default:
		return pkgerrors.New(pkgerrors.ErrCodeInstallFailed, "installation of %s failed: %s",
			req.SubscriberPackageVersionKey, packaging.ReduceInstallErrors(req))
	}
}
