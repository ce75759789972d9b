// Package cli implements the cooktop command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cooktop/cooktop/pkg/buildinfo"
	"github.com/cooktop/cooktop/pkg/cache"
	"github.com/cooktop/cooktop/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "cooktop"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Environment variables honored by the CLI.
const (
	envRecipesPath  = "COOKTOP_RECIPES_PATH"  // colon-separated recipe roots
	envPackagesPath = "COOKTOP_PACKAGES_PATH" // installed-packages root
	envCacheDir     = "COOKTOP_CACHE_DIR"     // overrides the XDG cache location
	envRedisAddr    = "COOKTOP_REDIS_ADDR"    // use a shared Redis cache instead of files
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cooktop",
		Short:        "Cooktop resolves and cooks package recipes",
		Long:         `Cooktop is a recipe-based package cooker: it resolves a package request against a catalog of versioned recipes, reuses what is already installed, and builds the rest in dependency order.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Commands read the logger back with loggerFromContext.
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.cookCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

// newCache picks the cache backend: Redis when COOKTOP_REDIS_ADDR is set,
// otherwise a file cache under the cache directory. Failing to locate a
// cache directory silently disables caching; a failing Redis does not,
// since the operator asked for it explicitly.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if addr := os.Getenv(envRedisAddr); addr != "" {
		return cache.NewRedisCache(context.Background(), addr)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory. COOKTOP_CACHE_DIR wins, then the
// XDG standard (~/.cache/cooktop/).
func cacheDir() (string, error) {
	if dir := os.Getenv(envCacheDir); dir != "" {
		return dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// downloadDir returns the directory source archives are kept in between
// cooks, creating it if needed.
func downloadDir() (string, error) {
	base, err := cacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "downloads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// resolveFlags are the flags shared by every command that runs a resolve.
type resolveFlags struct {
	constraints []string
	recipesPath []string
	searchPath  []string
	installPath string
	noPlatform  bool
	refresh     bool
	noCache     bool
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.constraints, "constrain", "c", nil, "extra constraint, e.g. python-3.9 (repeatable)")
	cmd.Flags().StringArrayVar(&f.recipesPath, "recipes-path", nil, "recipe repository root (repeatable, default $COOKTOP_RECIPES_PATH)")
	cmd.Flags().StringArrayVar(&f.searchPath, "search-path", nil, "additional recipe root searched after the primary ones (repeatable)")
	cmd.Flags().StringVar(&f.installPath, "install-path", "", "installed-packages root (default $COOKTOP_PACKAGES_PATH)")
	cmd.Flags().BoolVar(&f.noPlatform, "no-platform-defaults", false, "do not constrain to the host platform and arch")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "rescan recipes and re-resolve, bypassing caches")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the catalog and resolve cache entirely")
}

// options assembles pipeline options for the given request, filling in
// environment defaults for paths left unset.
func (f *resolveFlags) options(request string) pipeline.Options {
	roots := f.recipesPath
	if len(roots) == 0 {
		roots = splitPathList(os.Getenv(envRecipesPath))
	}
	roots = append(roots, f.searchPath...)
	install := f.installPath
	if install == "" {
		install = os.Getenv(envPackagesPath)
	}
	return pipeline.Options{
		Request:            request,
		Constraints:        f.constraints,
		NoPlatformDefaults: f.noPlatform,
		RecipeRoots:        roots,
		InstallRoot:        install,
		Refresh:            f.refresh,
	}
}

// splitPathList splits a PATH-style list, dropping empty entries.
func splitPathList(s string) []string {
	var out []string
	for _, p := range filepath.SplitList(s) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
