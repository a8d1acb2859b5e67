package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/simplysf/simply-package/pkg/cache"
	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the API response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached API responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "get cache dir")
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "open cache")
			}
			count, err := fc.Clear()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "clear cache")
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "get cache dir")
			}
			_, err = cmd.OutOrStdout().Write([]byte(dir + "\n"))
			return err
		},
	}
}
