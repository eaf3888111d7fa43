package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/vesselflow/pkg/io"
	"github.com/matzehuels/vesselflow/pkg/pipeline"
	"github.com/matzehuels/vesselflow/pkg/render"
	"github.com/matzehuels/vesselflow/pkg/workspace"
)

// importOpts holds the flags of the import command.
type importOpts struct {
	paths    pkgio.Paths
	output   string
	formats  string
	engine   string
	detailed bool
	noCache  bool
	refresh  bool
	save     string
}

// importCommand creates the import command: tables in, laid-out graph out.
func (c *CLI) importCommand() *cobra.Command {
	var o importOpts

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Build and lay out a workflow graph from catalog, config and vessel tables",
		Long: `Build and lay out a workflow graph.

The catalog (JSON) lists the modules of every library file, the config (JSON)
maps vessel types to modules, and the vessel table (CSV or JSON) lists the
vessels with their input and output vessels.

Validation runs first: every vessel type must map to a catalog module. The
graph is then built, laid out and rendered to each --format. Results are
cached, so a second run with the same tables is instant.`,
		Example: `  vesselflow import --catalog lib.json --config-table types.json --vessels plant.csv
  vesselflow import -c lib.json -m types.json -V plant.csv -f svg,json -o out/plant
  vesselflow import -c lib.json -m types.json -V plant.csv --save plant`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), o)
		},
	}

	cmd.Flags().StringVarP(&o.paths.Catalog, "catalog", "c", "", "module catalog (JSON)")
	cmd.Flags().StringVarP(&o.paths.Config, "config-table", "m", "", "vessel-type to module config (JSON)")
	cmd.Flags().StringVarP(&o.paths.Vessels, "vessels", "V", "", "vessel table (CSV or JSON)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output base path (default: vessel table name)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "json", "output format(s): "+strings.Join(render.Formats, ", ")+" (comma-separated)")
	cmd.Flags().StringVar(&o.engine, "engine", "", "layout engine: graphviz, layered (default from config)")
	cmd.Flags().BoolVar(&o.detailed, "detailed", false, "label ports in rendered images")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().StringVar(&o.save, "save", "", "also save the result as a workspace with this name")
	for _, f := range []string{"catalog", "config-table", "vessels"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func (c *CLI) runImport(ctx context.Context, o importOpts) error {
	prog := newProgress(c.Logger)
	in, err := pkgio.LoadInput(o.paths)
	if err != nil {
		return err
	}
	prog.step("tables read", "vessels", len(in.Vessels), "catalog_files", len(in.Catalog))

	runner, err := c.newRunner(ctx, o.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.OptionsFromConfig(c.Config)
	if o.engine != "" {
		opts.Engine = o.engine
	}
	opts.Formats = parseFormats(o.formats)
	opts.Detailed = o.detailed
	opts.Refresh = o.refresh
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Importing %d vessels...", len(in.Vessels)))
	spinner.Start()
	res, err := runner.Execute(ctx, in, opts)
	if err != nil {
		spinner.StopWithError("Import failed")
		return err
	}
	spinner.Stop()
	prog.step("pipeline done", "build", res.Stats.BuildTime, "layout", res.Stats.LayoutTime, "render", res.Stats.RenderTime)

	base := o.output
	if base == "" {
		base = strings.TrimSuffix(o.paths.Vessels, filepath.Ext(o.paths.Vessels))
	}
	paths, err := writeArtifacts(base, res.Artifacts, opts.Formats)
	if err != nil {
		return err
	}

	var saved string
	if o.save != "" {
		store, err := c.newStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		ws := workspace.New(o.save, in)
		ws.Graph = res.Graph
		if err := store.Save(ctx, ws); err != nil {
			return fmt.Errorf("save workspace: %w", err)
		}
		saved = ws.ID
	}

	prog.done(fmt.Sprintf("Imported %d vessels", len(in.Vessels)))
	printSuccess("Import complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Dropped, res.CacheInfo.LayoutHit)
	if res.Dropped > 0 {
		printWarning("%d connections found no free port and were dropped", res.Dropped)
	}
	printNewline()
	if saved != "" {
		printInfo("Saved workspace %s", StyleHighlight.Render(saved))
		printNextStep("Edit", appName+" explore "+saved)
	}
	return nil
}

// writeArtifacts writes one file per format as <base>.<format> and returns
// the paths in format order.
func writeArtifacts(base string, artifacts map[string][]byte, formats []string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		path := base + "." + f
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
