package transform

import "github.com/matzehuels/vesselflow/pkg/dag"

// Result contains metrics about the preparation applied to a DAG.
// The layout engine logs it at debug level.
type Result struct {
	// CyclesReversed is the number of back edges flipped (or self-loops
	// dropped) by cycle breaking.
	CyclesReversed int

	// SubdividersAdded is the number of synthetic nodes inserted for edges
	// spanning several ranks.
	SubdividersAdded int

	// Crossings is the crossing count of the row ordering that was kept.
	Crossings int

	// MaxRow is the index of the last rank.
	MaxRow int
}

// Options configures [Prepare].
type Options struct {
	// SweepPasses is the number of barycenter sweeps. Zero means
	// DefaultSweepPasses.
	SweepPasses int
}

// DefaultSweepPasses balances crossing quality against layout latency for
// workflows of a few hundred nodes.
const DefaultSweepPasses = 8

// Prepare runs the full layered preparation in order: cycle breaking, rank
// assignment, long-edge subdivision and crossing reduction. g is modified in
// place.
func Prepare(g *dag.DAG, opts Options) Result {
	passes := opts.SweepPasses
	if passes <= 0 {
		passes = DefaultSweepPasses
	}

	var r Result
	r.CyclesReversed = BreakCycles(g)
	AssignLayers(g)
	r.SubdividersAdded = Subdivide(g)
	r.Crossings = OrderRows(g, passes)
	r.MaxRow = g.MaxRow()
	return r
}
