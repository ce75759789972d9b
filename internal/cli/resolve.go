package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cooktop/cooktop/pkg/render"
)

// resolveCommand creates the resolve command: run a resolution without
// cooking anything, optionally exporting the dependency graph.
func (c *CLI) resolveCommand() *cobra.Command {
	var flags resolveFlags
	var (
		dotPath  string
		svgPath  string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <package>",
		Short: "Resolve a package without cooking anything",
		Long: `Resolve runs the same resolution as cook but stops after showing the
selection. Use --dot or --svg to export the dependency graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runner, err := c.newRunner(flags.noCache)
			if err != nil {
				return err
			}

			result, err := runner.Execute(ctx, flags.options(args[0]))
			if err != nil {
				printResolveFailure(err)
				return err
			}

			printSelection(result.Selection)
			printStats(len(result.Resolution.Names), len(result.Selection.ToCook), result.CacheInfo.ResolveHit)

			if dotPath == "" && svgPath == "" {
				return nil
			}

			dot := render.ToDOT(result.Graph, render.Options{Detailed: detailed})
			if dotPath != "" {
				if err := os.WriteFile(dotPath, []byte(dot), 0644); err != nil {
					return err
				}
				printFile(dotPath)
			}
			if svgPath != "" {
				svg, err := render.RenderSVG(ctx, dot)
				if err != nil {
					return err
				}
				if err := os.WriteFile(svgPath, svg, 0644); err != nil {
					return err
				}
				printFile(svgPath)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&dotPath, "dot", "", "write the dependency graph as Graphviz DOT to this file")
	cmd.Flags().StringVar(&svgPath, "svg", "", "render the dependency graph as SVG to this file")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include variant and install state in graph labels")

	return cmd
}
