// Package cli implements the simply command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simplysf/simply-package/pkg/buildinfo"
	"github.com/simplysf/simply-package/pkg/cache"
	"github.com/simplysf/simply-package/pkg/config"
	"github.com/simplysf/simply-package/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Global flags.
	jsonOutput bool
	projectDir string

	// stdout receives results; tests replace it.
	stdout io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Simply installs package dependencies and cleans up package versions",
		Long:         `Simply works with second-generation packages: it installs a project's package dependencies into an org and deletes unreleased package versions from a Dev Hub.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := c.Logger
			if logger.GetLevel() <= log.DebugLevel {
				logger = logger.With("run", uuid.NewString()[:8])
				observability.SetHTTPHooks(&logHTTPHooks{logger: logger})
				observability.SetCacheHooks(&logCacheHooks{logger: logger})
			}
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "format output as JSON")
	root.PersistentFlags().StringVar(&c.projectDir, "project-dir", ".", "directory inside the project")

	root.AddCommand(c.packageCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// packageCommand groups the package subcommands.
func (c *CLI) packageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Work with packages",
	}

	deps := &cobra.Command{
		Use:   "dependencies",
		Short: "Work with package dependencies",
	}
	deps.AddCommand(c.installCommand())

	version := &cobra.Command{
		Use:   "version",
		Short: "Work with package versions",
	}
	version.AddCommand(c.cleanupCommand())

	install := &cobra.Command{
		Use:   "install",
		Short: "Work with package install requests",
	}
	install.AddCommand(c.reportCommand())

	cmd.AddCommand(deps, version, install)
	return cmd
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache opens the configured cache backend. Redis failures fall back to
// the file cache.
func newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.Cache.Disabled {
		return cache.NewNullCache()
	}
	logger := loggerFromContext(ctx)
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err == nil {
			return rc
		}
		logger.Warn("Redis cache unavailable, using file cache", "err", err)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Debug("File cache unavailable", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/simply/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
