// Package pipeline runs a workflow import headlessly: validate, build, lay
// out and render, with layouts and artifacts cached.
//
// The editor session does the same steps against a live canvas; the
// pipeline is what the CLI and the HTTP API use when no canvas exists.
// Nodes are then sized from [Options.Width] and [Options.Height].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, input, pipeline.Options{
//	    Engine:  "graphviz",
//	    Formats: []string{"svg", "json"},
//	})
//	svg := result.Artifacts["svg"]
//
// Stages can also run alone:
//
//	snap, dropped, err := runner.Build(ctx, input, opts)
//	laid, hit, err := runner.LayoutWithCacheInfo(ctx, snap, opts)
//	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, laid, opts)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vesselflow/pkg/cache"
	"github.com/matzehuels/vesselflow/pkg/config"
	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/layout"
	"github.com/matzehuels/vesselflow/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth and DefaultHeight size nodes in headless runs.
	DefaultWidth  = 200.0
	DefaultHeight = 100.0

	// DefaultEngine is the layout backend used when none is named.
	DefaultEngine = config.EngineGraphviz
)

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It is JSON-encodable for API requests.
type Options struct {
	// Layout
	Engine   string  `json:"engine,omitempty"`
	RankSep  float64 `json:"rank_sep,omitempty"`
	NodeSep  float64 `json:"node_sep,omitempty"`
	PortSize float64 `json:"port_size,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`

	// Render
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// OptionsFromConfig returns options seeded from the [layout] section.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Engine:   cfg.Layout.Engine,
		RankSep:  cfg.Layout.RankSep,
		NodeSep:  cfg.Layout.NodeSep,
		PortSize: cfg.Layout.PortSize,
		Width:    cfg.Layout.DefaultWidth,
		Height:   cfg.Layout.DefaultHeight,
	}
}

// ValidateAndSetDefaults fills zero fields and checks engine and formats.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Engine != config.EngineGraphviz && o.Engine != config.EngineLayered {
		return errors.New(errors.ErrCodeInvalidInput, "invalid engine %q (must be graphviz or layered)", o.Engine)
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	formats, err := render.ValidateFormats(o.Formats)
	if err != nil {
		return err
	}
	o.Formats = formats
	return nil
}

// Backend returns the layout backend the options name.
func (o Options) Backend() layout.Backend {
	if o.Engine == config.EngineLayered {
		return layout.LayeredBackend{}
	}
	return layout.GraphvizBackend{}
}

// LayoutEngine returns a layout engine for the options. Separations are clamped
// by the engine itself.
func (o Options) LayoutEngine() *layout.Engine {
	return layout.New(layout.Options{
		RankSep:  o.RankSep,
		NodeSep:  o.NodeSep,
		PortSize: o.PortSize,
		Backend:  o.Backend(),
		Logger:   o.Logger,
	})
}

// LayoutKeyOpts returns the cache key options for the layout stage, with
// separations as the engine will actually use them.
func (o Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	eff := o.LayoutEngine().Options()
	return cache.LayoutKeyOpts{
		Engine:   o.Engine,
		RankSep:  eff.RankSep,
		NodeSep:  eff.NodeSep,
		PortSize: eff.PortSize,
		Width:    o.Width,
		Height:   o.Height,
	}
}

// ArtifactKeyOpts returns the cache key options for one rendered format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	if o.Detailed {
		format += "+detailed"
	}
	return cache.ArtifactKeyOpts{Format: format}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the laid-out workflow.
	Graph graph.Snapshot

	// GraphHash is the content hash of Graph.
	GraphHash string

	// Dropped counts logical edges that found no free port.
	Dropped int

	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits per stage. Build and layout are cached
// together.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}
