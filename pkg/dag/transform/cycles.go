package transform

import "github.com/matzehuels/vesselflow/pkg/dag"

// BreakCycles makes g acyclic by reversing every back edge found by a
// depth-first search. Self-loops are removed. It returns the number of edges
// that were reversed or removed.
//
// Workflows are allowed to contain feedback loops (an outlet feeding back
// into an upstream vessel). Reversing rather than deleting keeps both
// endpoints in adjacent ranks, so the loop still reads as a short hop on
// screen.
//
// The DFS starts from source nodes in insertion order, then from any node not
// yet visited, so the result is deterministic.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var backEdges []dag.Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, dag.Edge{From: node, To: child})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	seen := make(map[[2]string]bool, len(backEdges))
	for _, e := range backEdges {
		key := [2]string{e.From, e.To}
		if seen[key] {
			continue
		}
		seen[key] = true

		n := 0
		for _, c := range g.Children(e.From) {
			if c == e.To {
				n++
			}
		}
		g.RemoveEdge(e.From, e.To)
		if e.From == e.To {
			continue
		}
		for range n {
			_ = g.AddEdge(dag.Edge{From: e.To, To: e.From, Meta: dag.Metadata{MetaReversed: true}})
		}
	}
	return len(seen)
}

// MetaReversed marks edges that BreakCycles flipped.
const MetaReversed = "reversed"
