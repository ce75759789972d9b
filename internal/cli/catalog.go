package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cooktop/cooktop/pkg/catalog"
	"github.com/cooktop/cooktop/pkg/recipe"
	"github.com/cooktop/cooktop/pkg/version"
)

// catalogCommand creates the catalog inspection command.
func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the recipe catalog",
	}

	cmd.AddCommand(c.catalogListCommand())
	cmd.AddCommand(c.catalogShowCommand())

	return cmd
}

// catalogListCommand creates the "catalog list" subcommand.
func (c *CLI) catalogListCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every package family with its newest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.scanCatalog(cmd, &flags)
			if err != nil {
				return err
			}

			families := cat.Families()
			for _, name := range families {
				recipes := cat.Lookup(name)
				line := string(name)
				if best, ok := cat.HighestFor(name, version.Any()); ok {
					line = best.Pkg.String()
				}
				fmt.Println(StyleValue.Render(line) + " " +
					StyleDim.Render(fmt.Sprintf("(%d recipes)", len(recipes))))
			}
			printDetail("%d families, %d recipes", len(families), cat.Len())
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// catalogShowCommand creates the "catalog show" subcommand.
func (c *CLI) catalogShowCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "show <family>",
		Short: "Show every recipe of one package family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.scanCatalog(cmd, &flags)
			if err != nil {
				return err
			}

			name := recipe.Name(args[0])
			recipes := cat.Lookup(name)
			if len(recipes) == 0 {
				printWarning("No recipes for %q", args[0])
				return nil
			}
			for _, rec := range recipes {
				fmt.Println(rec)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// scanCatalog loads the catalog the same way a resolve would, honoring
// the shared path flags and cache settings.
func (c *CLI) scanCatalog(cmd *cobra.Command, flags *resolveFlags) (*catalog.Catalog, error) {
	opts := flags.options("catalog")
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	store, err := newCache(flags.noCache)
	if err != nil {
		return nil, err
	}

	provider := &catalog.DirProvider{
		RecipeRoots: opts.RecipeRoots,
		InstallRoot: opts.InstallRoot,
	}
	cat, cached, err := catalog.Load(cmd.Context(), provider, catalog.LoadOptions{
		Cache:            store,
		Roots:            opts.RecipeRoots,
		IncludeInstalled: opts.InstallRoot != "",
		Refresh:          flags.refresh,
	})
	if err != nil {
		return nil, err
	}
	loggerFromContext(cmd.Context()).Debug("loaded catalog", "recipes", cat.Len(), "cached", cached)
	return cat, nil
}
