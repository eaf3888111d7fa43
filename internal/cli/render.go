package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vesselflow/pkg/graph"
	pkgio "github.com/matzehuels/vesselflow/pkg/io"
	"github.com/matzehuels/vesselflow/pkg/pipeline"
	"github.com/matzehuels/vesselflow/pkg/render"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output   string // output file (single format) or base path
	formats  string
	detailed bool
	noCache  bool
}

// renderCommand creates the render command for laid-out graph files.
func (c *CLI) renderCommand() *cobra.Command {
	var o renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a laid-out workflow graph",
		Long: `Render a laid-out workflow graph.

Nodes are drawn at their stored positions with their ports on the node
border; Graphviz only routes the edges between ports. Formats: ` + strings.Join(render.Formats, ", ") + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], o)
		},
	}

	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&o.detailed, "detailed", false, "label ports with their names")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, o renderOpts) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	c.Logger.Infof("Rendering %s (%d nodes, %d edges)", input, len(g.Nodes), len(g.Edges))

	opts := pipeline.OptionsFromConfig(c.Config)
	opts.Formats = parseFormats(o.formats)
	opts.Detailed = o.detailed
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		return err
	}

	var paths []string
	if len(opts.Formats) == 1 && o.output != "" && filepath.Ext(o.output) != "" {
		if err := os.WriteFile(o.output, artifacts[opts.Formats[0]], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.output, err)
		}
		paths = []string{o.output}
	} else if paths, err = writeArtifacts(basePath(o.output, input), artifacts, opts.Formats); err != nil {
		return err
	}

	printSuccess("Rendered %d format(s)", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(g.Nodes), len(g.Edges), 0, hit)
	return nil
}

// basePath derives the output base path. An empty output uses the input
// name without extension; a known format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(render.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// exportCommand writes the vessel table a graph implies, so hand edits made
// in the editor can be fed back into 'import'.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [graph.json]",
		Short: "Write the vessel table of a graph as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".vessels.csv"
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()

			vessels := pkgio.VesselsFromGraph(g)
			if err := pkgio.WriteVesselsCSV(f, vessels); err != nil {
				return err
			}
			printSuccess("Exported %d vessels", len(vessels))
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.vessels.csv)")
	return cmd
}
