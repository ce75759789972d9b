package cli

import (
	"github.com/spf13/cobra"

	"github.com/cooktop/cooktop/pkg/build"
	"github.com/cooktop/cooktop/pkg/errors"
)

// cookCommand creates the cook command: resolve a request and build
// everything the resolution needs that is not already installed.
func (c *CLI) cookCommand() *cobra.Command {
	var flags resolveFlags
	var (
		dryRun       bool
		yes          bool
		keepStaging  bool
		verboseBuild bool
	)

	cmd := &cobra.Command{
		Use:   "cook <package>",
		Short: "Resolve a package and cook what is missing",
		Long: `Cook resolves the requested package against the recipe catalog, shows
the selection split into installed and to-cook packages, and builds the
to-cook list in dependency order. Installed packages are reused as-is.

The request names a package family with an optional version prefix:

  cooktop cook usd
  cooktop cook usd-22.05 -c python-3.9`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runner, err := c.newRunner(flags.noCache)
			if err != nil {
				return err
			}

			opts := flags.options(args[0])
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			result, err := runner.Execute(ctx, opts)

			// An unconstrained package with several viable versions can
			// be disambiguated interactively instead of failing.
			for err != nil && !yes && errors.Is(err, errors.ErrCodeAmbiguousVariant) {
				choices := errors.GetOptions(err)
				if len(choices) == 0 {
					break
				}
				pick, chosen, pickErr := pickOption("Pick a version", choices)
				if pickErr != nil {
					return pickErr
				}
				if !chosen {
					break
				}
				opts.Constraints = append(opts.Constraints, pick)
				result, err = runner.Execute(ctx, opts)
			}
			if err != nil {
				printResolveFailure(err)
				return err
			}

			printSelection(result.Selection)
			printStats(len(result.Resolution.Names), len(result.Selection.ToCook), result.CacheInfo.ResolveHit)

			if len(result.Selection.ToCook) == 0 {
				printSuccess("Everything is already installed")
				return nil
			}
			if dryRun {
				printInfo("Dry run, nothing cooked")
				return nil
			}
			if !yes {
				ok, err := confirmCook(len(result.Selection.ToCook))
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Aborted")
					return nil
				}
			}

			downloads, err := downloadDir()
			if err != nil {
				return err
			}
			logger := loggerFromContext(ctx)
			exec := &build.Executor{
				InstallRoot: opts.InstallRoot,
				Fetcher:     &build.Fetcher{DownloadDir: downloads, Progress: true},
				KeepStaging: keepStaging,
				Verbose:     verboseBuild,
				Logger:      logger,
			}

			prog := newProgress(logger)
			if err := runner.CookAll(ctx, result, exec); err != nil {
				printError("Cook failed: %s", errors.UserMessage(err))
				return err
			}
			prog.done("Cooked all packages")

			printSuccess("Cooked %d packages", len(result.Selection.ToCook))
			printDetail("Install root: %s", opts.InstallRoot)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve and show the selection, cook nothing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "cook without asking for confirmation")
	cmd.Flags().BoolVar(&keepStaging, "no-cleanup", false, "keep staging areas after cooking, for debugging")
	cmd.Flags().BoolVar(&verboseBuild, "verbose-build", false, "stream build output instead of capturing it")

	return cmd
}

// printResolveFailure shows why a resolve failed, including the conflict
// chain when one is attached.
func printResolveFailure(err error) {
	printError("%s", errors.UserMessage(err))
	if chain := errors.GetChain(err); len(chain) > 0 {
		printConflict(chain)
	}
	if errors.Is(err, errors.ErrCodeAmbiguousVariant) {
		printNextStep("Disambiguate with", "cooktop cook <package> -c <family>-<version>")
	}
}
