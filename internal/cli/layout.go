package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/pipeline"
)

// layoutCommand creates the layout command for laying out a saved graph
// again, e.g. after hand edits or with other separations.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Lay out a workflow graph again",
		Long: `Lay out a workflow graph again.

The input is a graph JSON file as written by 'import -f json'. Node sizes
stored in the file are kept; unsized nodes get the configured default size.
Port assignments are kept, so every edge still joins the same ports.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := pipeline.OptionsFromConfig(c.Config)
			flags := cmd.Flags()
			if !flags.Changed("engine") {
				opts.Engine = base.Engine
			}
			if !flags.Changed("rank-sep") {
				opts.RankSep = base.RankSep
			}
			if !flags.Changed("node-sep") {
				opts.NodeSep = base.NodeSep
			}
			opts.PortSize, opts.Width, opts.Height = base.PortSize, base.Width, base.Height
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "layout engine: graphviz, layered (default from config)")
	cmd.Flags().Float64Var(&opts.RankSep, "rank-sep", 0, "distance between layers (min 120)")
	cmd.Flags().Float64Var(&opts.NodeSep, "node-sep", 0, "distance between nodes in a layer (min 50)")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinner(ctx, fmt.Sprintf("Computing %s layout...", opts.Engine))
	spinner.Start()
	laid, hit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := graph.WriteFile(laid, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(laid.Nodes), len(laid.Edges), 0, hit)
	printNewline()
	printNextStep("Render", appName+" render "+output)
	return nil
}
