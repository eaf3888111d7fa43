package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vesselflow/pkg/cache"
	"github.com/matzehuels/vesselflow/pkg/config"
	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/workflow"
)

func plant() workflow.Input {
	return workflow.Input{
		Catalog: workflow.Catalog{{
			Filename: "plant.mo",
			Modules: []workflow.Module{
				{ComponentName: "Tank", SourceFile: "plant.mo"},
				{ComponentName: "Pump", SourceFile: "plant.mo"},
			},
		}},
		Config: workflow.Config{
			{VesselType: "tank", ModuleFile: "plant.mo", ModuleType: "Tank"},
			{VesselType: "pump", ModuleFile: "plant.mo", ModuleType: "Pump"},
		},
		Vessels: []workflow.Vessel{
			{Name: "A", VesselType: "tank", Outputs: "B"},
			{Name: "B", VesselType: "pump", Inputs: "A", Outputs: "C"},
			{Name: "C", VesselType: "tank", Inputs: "B"},
		},
	}
}

func quietLogger() *log.Logger {
	l := log.Default().With()
	l.SetLevel(log.FatalLevel)
	return l
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	o := Options{Formats: []string{" SVG", "json"}}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Engine != DefaultEngine || o.Width != DefaultWidth || o.Height != DefaultHeight {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.Formats[0] != "svg" {
		t.Errorf("formats = %v", o.Formats)
	}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"engine", Options{Engine: "neato"}, errors.ErrCodeInvalidInput},
		{"format", Options{Formats: []string{"pdf"}}, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptions_LayoutKeyOptsClamps(t *testing.T) {
	o := Options{Engine: config.EngineLayered, RankSep: 10, NodeSep: 500}
	k := o.LayoutKeyOpts()
	if k.RankSep != 120 || k.NodeSep != 500 || k.PortSize != 10 {
		t.Errorf("key opts = %+v", k)
	}
	if o.ArtifactKeyOpts("svg") == (Options{Detailed: true}).ArtifactKeyOpts("svg") {
		t.Error("detailed flag should change the artifact key")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Layout.Engine = config.EngineLayered
	cfg.Layout.DefaultWidth = 180
	o := OptionsFromConfig(cfg)
	if o.Engine != config.EngineLayered || o.Width != 180 || o.RankSep != cfg.Layout.RankSep {
		t.Errorf("options = %+v", o)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, quietLogger())
	opts := Options{Engine: config.EngineLayered, Formats: []string{"json", "dot"}}

	first, err := r.Execute(ctx, plant(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.NodeCount != 3 || first.Stats.EdgeCount != 2 || first.Dropped != 0 {
		t.Errorf("stats = %+v dropped=%d", first.Stats, first.Dropped)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("cold run hit the cache: %+v", first.CacheInfo)
	}
	for _, n := range first.Graph.Nodes {
		if n.Style != graph.VisibleStyle || n.Dimensions.Width != DefaultWidth {
			t.Errorf("node %s: style=%+v dims=%+v", n.ID, n.Style, n.Dimensions)
		}
	}
	a, b := first.Graph.Node("A"), first.Graph.Node("B")
	if b.Position.X-(a.Position.X+a.Dimensions.Width) < 120 {
		t.Errorf("rank gap too small: A=%+v B=%+v", a.Position, b.Position)
	}
	if len(first.Artifacts["json"]) == 0 || len(first.Artifacts["dot"]) == 0 {
		t.Error("artifacts missing")
	}

	second, err := r.Execute(ctx, plant(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("warm run missed the cache: %+v", second.CacheInfo)
	}
	if second.GraphHash != first.GraphHash {
		t.Error("cached graph differs from the computed one")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, plant(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("refresh read the cache")
	}
}

func TestBuild_LogsDroppedEdges(t *testing.T) {
	tests := []struct {
		name    string
		cInputs string
		dropped int
	}{
		{"all bound", "B", 0},
		{"target without ports", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewRunner(cache.NewNullCache(), nil, log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))
			in := plant()
			in.Vessels[2].Inputs = tt.cInputs

			_, dropped, err := r.Build(context.Background(), in, Options{Engine: config.EngineLayered})
			if err != nil {
				t.Fatal(err)
			}
			if dropped != tt.dropped {
				t.Errorf("dropped = %d, want %d", dropped, tt.dropped)
			}
			logged := strings.Contains(buf.String(), "edges dropped without a free port")
			if logged != (tt.dropped > 0) {
				t.Errorf("dropped-edge log line present = %v, want %v\n%s", logged, tt.dropped > 0, buf.String())
			}
		})
	}
}

func TestExecute_ValidationFailure(t *testing.T) {
	in := plant()
	in.Config[1].ModuleType = "Compressor"
	r := NewRunner(nil, nil, quietLogger())
	_, err := r.Execute(context.Background(), in, Options{Engine: config.EngineLayered})
	if !errors.Is(err, errors.ErrCodeModuleNotFound) {
		t.Errorf("err = %v, want MODULE_NOT_FOUND", err)
	}
}

func TestLayoutWithCacheInfo(t *testing.T) {
	ctx := context.Background()
	c, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(c, nil, quietLogger())
	opts := Options{Engine: config.EngineLayered}

	snap, _, err := r.Build(ctx, plant(), opts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range snap.Nodes {
		snap.Nodes[i].Dimensions = graph.Dimensions{}
	}

	laid, hit, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil || hit {
		t.Fatalf("first layout: hit=%v err=%v", hit, err)
	}
	if !laid.Nodes[0].Dimensions.Measured() {
		t.Error("unmeasured node not sized")
	}
	again, hit, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil || !hit {
		t.Fatalf("second layout: hit=%v err=%v", hit, err)
	}
	if again.Nodes[2].Position != laid.Nodes[2].Position {
		t.Error("cached layout differs")
	}
}

func TestRender_SVG(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, quietLogger())
	res, err := r.Execute(ctx, plant(), Options{Formats: []string{"svg"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Artifacts["svg"]) == 0 {
		t.Error("empty svg")
	}
}
