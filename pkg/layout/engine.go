package layout

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/observability"
	"github.com/matzehuels/vesselflow/pkg/port"
)

const (
	// MinRankSep is the smallest gap between ranks. Smaller values let
	// ports of neighbouring ranks collide.
	MinRankSep = 120.0
	// MinNodeSep is the smallest gap between clusters of one rank.
	MinNodeSep = 50.0
	// DefaultPortSize is the footprint of a port child.
	DefaultPortSize = 10.0
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	RankSep  float64
	NodeSep  float64
	PortSize float64

	// Backend places the compound graph. Defaults to GraphvizBackend, which
	// routes each port as its own record field. LayeredBackend ranks whole
	// clusters and only spreads ports along their side.
	Backend Backend
	Logger  *log.Logger
}

// Engine lays out workflow snapshots.
type Engine struct {
	opts   Options
	logger *log.Logger
}

// New returns an engine. Separations below the minimums are raised to them.
func New(opts Options) *Engine {
	opts.RankSep = max(opts.RankSep, MinRankSep)
	opts.NodeSep = max(opts.NodeSep, MinNodeSep)
	if opts.PortSize <= 0 {
		opts.PortSize = DefaultPortSize
	}
	if opts.Backend == nil {
		opts.Backend = GraphvizBackend{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{opts: opts, logger: logger}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Layout positions every node of in and returns the laid-out snapshot. Ports
// move to the side facing what they connect to and edges follow their
// handles. Nodes become visible only when every step succeeded.
//
// in is never modified. Every failure is an *errors.Error with code
// LAYOUT_FAILED.
func (e *Engine) Layout(ctx context.Context, in graph.Snapshot) (out graph.Snapshot, err error) {
	start := time.Now()
	backend := e.opts.Backend.Name()
	observability.Pipeline().OnLayoutStart(ctx, backend, len(in.Nodes))
	defer func() {
		observability.Pipeline().OnLayoutComplete(ctx, backend, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return graph.Snapshot{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout cancelled")
	}

	out = in.Clone()
	if len(out.Nodes) == 0 {
		return out, nil
	}

	g, err := e.compound(out)
	if err != nil {
		return graph.Snapshot{}, err
	}

	pl, err := e.opts.Backend.Place(ctx, g)
	if err != nil {
		return graph.Snapshot{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "%s layout", backend)
	}

	for i := range out.Nodes {
		n := &out.Nodes[i]
		c, ok := pl.Clusters[n.ID]
		if !ok {
			return graph.Snapshot{}, errors.New(errors.ErrCodeLayoutFailed,
				"%s layout did not place node %s", backend, n.ID)
		}
		n.Position = graph.Position{
			X: c.X - n.Dimensions.Width/2,
			Y: c.Y - n.Dimensions.Height/2,
		}
	}

	lk := collectLinks(out.Edges, pl)
	renames := make(map[string]map[string]string, len(out.Nodes))
	resided := 0
	for i := range out.Nodes {
		n := &out.Nodes[i]
		ports, r := arrangePorts(*n, pl.Clusters[n.ID], pl, lk)
		n.Data.Ports = ports
		if len(r) > 0 {
			renames[n.ID] = r
			resided += len(r)
		}
	}
	rewriteHandles(out.Edges, renames)

	for i := range out.Nodes {
		out.Nodes[i].Style = graph.VisibleStyle
	}

	e.logger.Debug("layout complete", "backend", backend, "nodes", len(out.Nodes),
		"edges", len(out.Edges), "resided", resided, "duration", time.Since(start))
	return out, nil
}

// compound builds the backend input and rejects snapshots that cannot be
// laid out: unmeasured nodes, unknown sides and edges whose handles do not
// resolve.
func (e *Engine) compound(s graph.Snapshot) (Compound, error) {
	g := Compound{
		Clusters: make([]Cluster, 0, len(s.Nodes)),
		Edges:    make([]PortEdge, 0, len(s.Edges)),
		RankSep:  e.opts.RankSep,
		NodeSep:  e.opts.NodeSep,
	}

	for _, n := range s.Nodes {
		if !n.Dimensions.Measured() {
			return Compound{}, errors.Wrap(errors.ErrCodeLayoutFailed,
				errors.New(errors.ErrCodeNotMeasured, "node %s has no measured size", n.ID), "layout")
		}
		c := Cluster{ID: n.ID, Width: n.Dimensions.Width, Height: n.Dimensions.Height}
		for _, p := range n.Data.Ports {
			if !p.Type.Valid() {
				return Compound{}, errors.New(errors.ErrCodeLayoutFailed,
					"node %s: port %s has unknown side %q", n.ID, p.UID, p.Type)
			}
			c.Ports = append(c.Ports, PortNode{
				ID:     p.HandleID(),
				Side:   p.Type,
				Width:  e.opts.PortSize,
				Height: e.opts.PortSize,
			})
		}
		g.Clusters = append(g.Clusters, c)
	}

	for _, edge := range s.Edges {
		if err := checkHandle(s, edge.ID, edge.Source, edge.SourceHandle); err != nil {
			return Compound{}, err
		}
		if err := checkHandle(s, edge.ID, edge.Target, edge.TargetHandle); err != nil {
			return Compound{}, err
		}
		g.Edges = append(g.Edges, PortEdge{
			Source:     edge.Source,
			SourcePort: edge.SourceHandle,
			Target:     edge.Target,
			TargetPort: edge.TargetHandle,
		})
	}
	return g, nil
}

func checkHandle(s graph.Snapshot, edgeID, nodeID, handle string) error {
	n := s.Node(nodeID)
	if n == nil {
		return errors.New(errors.ErrCodeLayoutFailed, "edge %s: node %s not found", edgeID, nodeID)
	}
	if port.Find(n.Data.Ports, handle) < 0 {
		return errors.New(errors.ErrCodeLayoutFailed, "edge %s: node %s has no port %s", edgeID, nodeID, handle)
	}
	return nil
}
