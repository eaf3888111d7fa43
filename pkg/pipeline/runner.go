package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vesselflow/pkg/cache"
	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/observability"
	"github.com/matzehuels/vesselflow/pkg/render"
	"github.com/matzehuels/vesselflow/pkg/render/nodelink"
	"github.com/matzehuels/vesselflow/pkg/workflow"
)

// Runner executes pipeline stages with caching. It holds no per-run state,
// so one Runner serves concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// LayoutTTL overrides cache.TTLLayout when positive.
	LayoutTTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means cache.DefaultKeyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// builtLayout is what the build+layout cache entry holds. Port uids are
// random per build, so the entry keeps the whole laid-out graph.
type builtLayout struct {
	Graph   graph.Snapshot `json:"graph"`
	Dropped int            `json:"dropped"`
}

// Execute runs build → layout → render. Build and layout are cached under
// the hash of the input tables and the layout options.
func (r *Runner) Execute(ctx context.Context, in workflow.Input, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	result := &Result{}

	inputData, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("hash input: %w", err)
	}
	key := r.Keyer.LayoutKey("input:"+cache.Hash(inputData), opts.LayoutKeyOpts())

	var bl builtLayout
	if !opts.Refresh && cache.GetJSON(ctx, r.Cache, key, &bl) == nil {
		result.CacheInfo.LayoutHit = true
		r.Logger.Debug("layout cache hit", "nodes", len(bl.Graph.Nodes))
	} else {
		buildStart := time.Now()
		snap, dropped, err := r.Build(ctx, in, opts)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		result.Stats.BuildTime = time.Since(buildStart)
		r.Logger.Info("built workflow",
			"nodes", len(snap.Nodes),
			"edges", len(snap.Edges),
			"dropped", dropped,
			"duration", result.Stats.BuildTime)

		layoutStart := time.Now()
		laid, err := opts.LayoutEngine().Layout(ctx, snap)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		result.Stats.LayoutTime = time.Since(layoutStart)
		r.Logger.Info("computed layout",
			"engine", opts.Engine,
			"duration", result.Stats.LayoutTime)

		bl = builtLayout{Graph: laid, Dropped: dropped}
		if err := cache.SetJSON(ctx, r.Cache, key, bl, r.layoutTTL()); err != nil {
			r.Logger.Warn("layout not cached", "err", err)
		}
	}
	result.Graph = bl.Graph
	result.Dropped = bl.Dropped
	result.Stats.NodeCount = len(bl.Graph.Nodes)
	result.Stats.EdgeCount = len(bl.Graph.Edges)
	if data, err := graph.Marshal(bl.Graph); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	if len(opts.Formats) == 0 {
		return result, nil
	}
	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, bl.Graph, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Build validates the input and builds a resolved graph with every node
// sized opts.Width x opts.Height.
func (r *Runner) Build(ctx context.Context, in workflow.Input, opts Options) (snap graph.Snapshot, dropped int, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Snapshot{}, 0, err
	}
	start := time.Now()
	observability.Pipeline().OnImportStart(ctx, len(in.Vessels))
	defer func() {
		observability.Pipeline().OnImportComplete(ctx, len(snap.Nodes), len(snap.Edges), dropped, time.Since(start), err)
	}()

	if v := workflow.Validate(in.Catalog, in.Config, in.Vessels); !v.Valid {
		return graph.Snapshot{}, 0, v.Err()
	}
	res, err := workflow.Build(in, workflow.ModeResolved)
	if err != nil {
		return graph.Snapshot{}, 0, err
	}
	for i := range res.Nodes {
		res.Nodes[i].Dimensions = graph.Dimensions{Width: opts.Width, Height: opts.Height}
	}
	if res.Dropped > 0 {
		r.Logger.Debug("edges dropped without a free port", "dropped", res.Dropped)
	}
	return graph.Snapshot{Nodes: res.Nodes, Edges: res.Edges, Viewport: graph.DefaultViewport}, res.Dropped, nil
}

// LayoutWithCacheInfo lays out an existing graph, cached under its content
// hash. Unmeasured nodes get opts.Width x opts.Height.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, snap graph.Snapshot, opts Options) (graph.Snapshot, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Snapshot{}, false, err
	}
	r.applyLogger(&opts)

	snap = snap.Clone()
	for i := range snap.Nodes {
		if !snap.Nodes[i].Dimensions.Measured() {
			snap.Nodes[i].Dimensions = graph.Dimensions{Width: opts.Width, Height: opts.Height}
		}
	}
	data, err := graph.Marshal(snap)
	if err != nil {
		return graph.Snapshot{}, false, errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	key := r.Keyer.LayoutKey(cache.Hash(data), opts.LayoutKeyOpts())

	var cached graph.Snapshot
	if !opts.Refresh && cache.GetJSON(ctx, r.Cache, key, &cached) == nil {
		return cached, true, nil
	}

	laid, err := opts.LayoutEngine().Layout(ctx, snap)
	if err != nil {
		return graph.Snapshot{}, false, err
	}
	if err := cache.SetJSON(ctx, r.Cache, key, laid, r.layoutTTL()); err != nil {
		r.Logger.Warn("layout not cached", "err", err)
	}
	return laid, false, nil
}

// Layout is LayoutWithCacheInfo without the hit flag.
func (r *Runner) Layout(ctx context.Context, snap graph.Snapshot, opts Options) (graph.Snapshot, error) {
	laid, _, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	return laid, err
}

// RenderWithCacheInfo renders every requested format of a laid-out graph.
// The hit flag is true only when every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, snap graph.Snapshot, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{render.FormatSVG}
	}

	data, err := graph.Marshal(snap)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	layoutHash := cache.Hash(data)

	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit := true
	var dot string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if out, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, cache.KeyType(key))
				artifacts[format] = out
				continue
			}
			observability.Cache().OnCacheMiss(ctx, cache.KeyType(key))
		}
		allHit = false

		var out []byte
		if format == render.FormatJSON {
			out = data
		} else {
			if dot == "" {
				dot = nodelink.ToDOT(snap, nodelink.Options{Detailed: opts.Detailed, PortSize: opts.PortSize})
			}
			if out, err = nodelink.Render(ctx, dot, format); err != nil {
				return nil, false, err
			}
		}
		artifacts[format] = out
		if err := r.Cache.Set(ctx, key, out, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, cache.KeyType(key), len(out))
		}
	}
	return artifacts, allHit, nil
}

// Render is RenderWithCacheInfo without the hit flag.
func (r *Runner) Render(ctx context.Context, snap graph.Snapshot, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, snap, opts)
	return artifacts, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) layoutTTL() time.Duration {
	if r.LayoutTTL > 0 {
		return r.LayoutTTL
	}
	return cache.TTLLayout
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
