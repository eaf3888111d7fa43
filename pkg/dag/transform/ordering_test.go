package transform

import (
	"testing"

	"github.com/matzehuels/vesselflow/pkg/dag"
)

func TestOrderRows_RemovesCrossing(t *testing.T) {
	// a->y and b->x cross with the insertion order [a b] / [x y]
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "a", Row: 0})
	_ = g.AddNode(dag.Node{ID: "b", Row: 0})
	_ = g.AddNode(dag.Node{ID: "x", Row: 1})
	_ = g.AddNode(dag.Node{ID: "y", Row: 1})
	_ = g.AddEdge(dag.Edge{From: "a", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "x"})

	if before := dag.CountCrossings(g, dag.RowOrders(g)); before != 1 {
		t.Fatalf("initial crossings = %d, want 1", before)
	}

	if got := OrderRows(g, DefaultSweepPasses); got != 0 {
		t.Errorf("OrderRows() = %d, want 0", got)
	}
	if got := dag.CountCrossings(g, dag.RowOrders(g)); got != 0 {
		t.Errorf("crossings after ordering = %d, want 0", got)
	}
}

func TestOrderRows_NeverWorse(t *testing.T) {
	g := dag.New(nil)
	for _, n := range []dag.Node{
		{ID: "s1", Row: 0}, {ID: "s2", Row: 0}, {ID: "s3", Row: 0},
		{ID: "t1", Row: 1}, {ID: "t2", Row: 1}, {ID: "t3", Row: 1},
	} {
		_ = g.AddNode(n)
	}
	// complete bipartite K(3,3) has unavoidable crossings
	for _, s := range []string{"s1", "s2", "s3"} {
		for _, tgt := range []string{"t1", "t2", "t3"} {
			_ = g.AddEdge(dag.Edge{From: s, To: tgt})
		}
	}

	before := dag.CountCrossings(g, dag.RowOrders(g))
	after := OrderRows(g, DefaultSweepPasses)
	if after > before {
		t.Errorf("OrderRows() = %d, worse than initial %d", after, before)
	}
}

func TestPrepare_ProducesProperLayering(t *testing.T) {
	g := dag.New(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "c"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "d"})
	_ = g.AddEdge(dag.Edge{From: "c", To: "a"})

	Prepare(g, Options{})

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() after Prepare = %v", err)
	}
}
