package layout

import (
	"context"
	"fmt"

	"github.com/matzehuels/vesselflow/pkg/dag"
	"github.com/matzehuels/vesselflow/pkg/dag/transform"
)

// LayeredBackend is the native Sugiyama layout built on pkg/dag: cycle
// breaking, longest-path ranks, long-edge subdivision and barycenter
// ordering, then rank and slot coordinates. Ranks run left to right.
//
// Ports are not routed individually; they are spread along the side of the
// cluster they currently sit on.
type LayeredBackend struct {
	// SweepPasses bounds the crossing-reduction sweeps. Zero selects
	// transform.DefaultSweepPasses.
	SweepPasses int
}

// Name implements Backend.
func (LayeredBackend) Name() string { return "layered" }

// Place implements Backend.
func (b LayeredBackend) Place(ctx context.Context, g Compound) (Placement, error) {
	d := dag.New(nil)
	for _, c := range g.Clusters {
		if err := d.AddNode(dag.Node{ID: c.ID}); err != nil {
			return Placement{}, fmt.Errorf("cluster %s: %w", c.ID, err)
		}
	}
	for _, e := range g.Edges {
		if err := d.AddEdge(dag.Edge{From: e.Source, To: e.Target}); err != nil {
			return Placement{}, fmt.Errorf("edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	transform.Prepare(d, transform.Options{SweepPasses: b.SweepPasses})
	if err := ctx.Err(); err != nil {
		return Placement{}, err
	}

	sizes := make(map[string]Point, len(g.Clusters))
	for _, c := range g.Clusters {
		sizes[c.ID] = Point{X: c.Width, Y: c.Height}
	}
	// subdividers keep one port's worth of room for the edge passing through
	dummy := Point{X: 0, Y: portFootprint(g)}

	size := func(n *dag.Node) Point {
		if n.IsSubdivider() {
			return dummy
		}
		return sizes[n.ID]
	}

	rows := d.RowIDs()
	colWidth := make(map[int]float64, len(rows))
	colHeight := make(map[int]float64, len(rows))
	tallest := 0.0
	for _, r := range rows {
		nodes := d.NodesInRow(r)
		for i, n := range nodes {
			s := size(n)
			colWidth[r] = max(colWidth[r], s.X)
			colHeight[r] += s.Y
			if i > 0 {
				colHeight[r] += g.NodeSep
			}
		}
		tallest = max(tallest, colHeight[r])
	}

	pl := NewPlacement()
	x := 0.0
	for _, r := range rows {
		cx := x + colWidth[r]/2
		y := (tallest - colHeight[r]) / 2
		for _, n := range d.NodesInRow(r) {
			s := size(n)
			if !n.IsSubdivider() {
				pl.Clusters[n.ID] = Point{X: cx, Y: y + s.Y/2}
			}
			y += s.Y + g.NodeSep
		}
		x += colWidth[r] + g.RankSep
	}

	for _, c := range g.Clusters {
		for id, pt := range BoundaryPoints(c, pl.Clusters[c.ID]) {
			pl.Ports[PortKey(c.ID, id)] = pt
		}
	}
	return pl, nil
}

func portFootprint(g Compound) float64 {
	for _, c := range g.Clusters {
		for _, p := range c.Ports {
			return p.Height
		}
	}
	return DefaultPortSize
}
