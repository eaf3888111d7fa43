package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/port"
)

func node(id string, ports ...port.Port) graph.Node {
	return graph.Node{
		ID:         id,
		Type:       graph.NodeTypeModule,
		Dimensions: graph.Dimensions{Width: 200, Height: 100},
		Style:      graph.HiddenStyle,
		Data:       graph.NodeData{Name: id, Ports: ports},
	}
}

func mkPort(uid string, side port.Side) port.Port {
	return port.Port{UID: uid, Type: side}
}

func edge(id, src string, sp port.Port, dst string, tp port.Port) graph.Edge {
	return graph.Edge{ID: id, Source: src, Target: dst, SourceHandle: sp.HandleID(), TargetHandle: tp.HandleID()}
}

func pair() graph.Snapshot {
	a := mkPort("a1", port.Right)
	b := mkPort("b1", port.Left)
	return graph.Snapshot{
		Nodes: []graph.Node{node("A", a), node("B", b)},
		Edges: []graph.Edge{edge("e1", "A", a, "B", b)},
	}
}

func TestNew_ClampsSeparations(t *testing.T) {
	e := New(Options{RankSep: 10, NodeSep: 5})
	opts := e.Options()
	if opts.RankSep != MinRankSep || opts.NodeSep != MinNodeSep {
		t.Errorf("seps = %v/%v, want %v/%v", opts.RankSep, opts.NodeSep, MinRankSep, MinNodeSep)
	}
	if opts.PortSize != DefaultPortSize {
		t.Errorf("PortSize = %v", opts.PortSize)
	}
	if opts.Backend.Name() != "graphviz" {
		t.Errorf("default backend = %s", opts.Backend.Name())
	}

	e = New(Options{RankSep: 300})
	if e.Options().RankSep != 300 {
		t.Errorf("RankSep = %v, want 300", e.Options().RankSep)
	}
}

func TestLayout_LeftToRight(t *testing.T) {
	in := pair()
	out, err := New(Options{Backend: LayeredBackend{}}).Layout(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	a, b := out.Node("A"), out.Node("B")
	if gap := b.Position.X - (a.Position.X + a.Dimensions.Width); gap < MinRankSep {
		t.Errorf("rank gap = %v, want >= %v", gap, MinRankSep)
	}
	for _, n := range out.Nodes {
		if n.Style != graph.VisibleStyle {
			t.Errorf("%s style = %+v, want visible", n.ID, n.Style)
		}
	}
	if out.Edges[0].SourceHandle != in.Edges[0].SourceHandle {
		t.Errorf("handle changed for a port already facing its neighbour")
	}
}

func TestLayout_InputUntouched(t *testing.T) {
	in := pair()
	in.Nodes[0].Data.Ports[0].Type = port.Left // will be re-sided
	in.Edges[0].SourceHandle = in.Nodes[0].Data.Ports[0].HandleID()
	handle := in.Edges[0].SourceHandle

	if _, err := New(Options{Backend: LayeredBackend{}}).Layout(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if in.Nodes[0].Data.Ports[0].Type != port.Left || in.Edges[0].SourceHandle != handle {
		t.Error("input ports or edges were modified")
	}
	if in.Nodes[0].Style != graph.HiddenStyle || in.Nodes[0].Position != (graph.Position{}) {
		t.Error("input node was modified")
	}
}

func TestLayout_ResidesPortsAndRewritesHandles(t *testing.T) {
	a := mkPort("a1", port.Left) // faces away from B
	b := mkPort("b1", port.Right)
	in := graph.Snapshot{
		Nodes: []graph.Node{node("A", a), node("B", b)},
		Edges: []graph.Edge{edge("e1", "A", a, "B", b)},
	}

	out, err := New(Options{Backend: LayeredBackend{}}).Layout(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	gotA := out.Node("A").Data.Ports[0]
	gotB := out.Node("B").Data.Ports[0]
	if gotA.Type != port.Right || gotB.Type != port.Left {
		t.Fatalf("sides = %s/%s, want right/left", gotA.Type, gotB.Type)
	}
	if gotA.UID != "a1" || gotB.UID != "b1" {
		t.Error("port UIDs changed")
	}
	e := out.Edges[0]
	if e.SourceHandle != "port_right_a1" || e.TargetHandle != "port_left_b1" {
		t.Errorf("handles = %s/%s", e.SourceHandle, e.TargetHandle)
	}
	if e.ID != "e1" {
		t.Errorf("edge id changed to %s", e.ID)
	}
}

func TestLayout_UnconnectedPortsKeepSideAndFlattenOrder(t *testing.T) {
	in := graph.Snapshot{Nodes: []graph.Node{node("A",
		mkPort("l", port.Left),
		mkPort("b", port.Bottom),
		mkPort("t", port.Top),
		mkPort("r", port.Right),
	)}}

	out, err := New(Options{Backend: LayeredBackend{}}).Layout(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, p := range out.Nodes[0].Data.Ports {
		got = append(got, p.UID)
	}
	want := []string{"t", "r", "b", "l"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestLayout_SortsSideByNeighbour(t *testing.T) {
	// p2 is listed first but connects to T2, which lands below T1
	p2 := mkPort("p2", port.Right)
	p1 := mkPort("p1", port.Right)
	t1 := mkPort("t1", port.Left)
	t2 := mkPort("t2", port.Left)
	in := graph.Snapshot{
		Nodes: []graph.Node{node("S", p2, p1), node("T1", t1), node("T2", t2)},
		Edges: []graph.Edge{
			edge("e1", "S", p1, "T1", t1),
			edge("e2", "S", p2, "T2", t2),
		},
	}

	out, err := New(Options{Backend: LayeredBackend{}}).Layout(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if out.Node("T1").Position.Y >= out.Node("T2").Position.Y {
		t.Fatalf("T1 y=%v not above T2 y=%v", out.Node("T1").Position.Y, out.Node("T2").Position.Y)
	}
	ports := out.Node("S").Data.Ports
	if ports[0].UID != "p1" || ports[1].UID != "p2" {
		t.Errorf("S ports = %s,%s, want p1,p2", ports[0].UID, ports[1].UID)
	}
	for _, p := range ports {
		if p.Type != port.Right {
			t.Errorf("%s side = %s, want right", p.UID, p.Type)
		}
	}
}

func TestLayout_NoOverlap(t *testing.T) {
	var nodes []graph.Node
	var edges []graph.Edge
	ids := []string{"feed", "mix", "heat", "split", "cool", "store", "vent"}
	for _, id := range ids {
		nodes = append(nodes, node(id, mkPort(id+"_in", port.Left), mkPort(id+"_out", port.Right)))
	}
	link := func(i, j int) {
		sp := nodes[i].Data.Ports[1]
		tp := nodes[j].Data.Ports[0]
		edges = append(edges, edge(ids[i]+ids[j], ids[i], sp, ids[j], tp))
	}
	link(0, 1)
	link(1, 2)
	link(2, 3)
	link(3, 4)
	link(0, 5)
	link(3, 6)

	for _, b := range []Backend{LayeredBackend{}, GraphvizBackend{}} {
		t.Run(b.Name(), func(t *testing.T) {
			out, err := New(Options{Backend: b}).Layout(context.Background(),
				graph.Snapshot{Nodes: nodes, Edges: edges})
			if err != nil {
				t.Fatal(err)
			}
			for i := range out.Nodes {
				for j := i + 1; j < len(out.Nodes); j++ {
					if overlap(out.Nodes[i], out.Nodes[j]) {
						t.Errorf("%s overlaps %s", out.Nodes[i].ID, out.Nodes[j].ID)
					}
				}
			}
			if out.Node("feed").Position.X >= out.Node("mix").Position.X {
				t.Error("flow is not left to right")
			}
		})
	}
}

func overlap(a, b graph.Node) bool {
	return a.Position.X < b.Position.X+b.Dimensions.Width &&
		b.Position.X < a.Position.X+a.Dimensions.Width &&
		a.Position.Y < b.Position.Y+b.Dimensions.Height &&
		b.Position.Y < a.Position.Y+a.Dimensions.Height
}

func TestLayout_Cycle(t *testing.T) {
	a1, a2 := mkPort("a1", port.Right), mkPort("a2", port.Left)
	b1, b2 := mkPort("b1", port.Left), mkPort("b2", port.Right)
	in := graph.Snapshot{
		Nodes: []graph.Node{node("A", a1, a2), node("B", b1, b2)},
		Edges: []graph.Edge{
			edge("ab", "A", a1, "B", b1),
			edge("ba", "B", b2, "A", a2),
		},
	}
	out, err := New(Options{Backend: LayeredBackend{}}).Layout(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if overlap(out.Nodes[0], out.Nodes[1]) {
		t.Error("cycle endpoints overlap")
	}
}

func TestLayout_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*graph.Snapshot)
	}{
		{"unmeasured node", func(s *graph.Snapshot) { s.Nodes[1].Dimensions = graph.Dimensions{} }},
		{"missing source handle", func(s *graph.Snapshot) { s.Edges[0].SourceHandle = "port_right_nope" }},
		{"missing target node", func(s *graph.Snapshot) { s.Edges[0].Target = "ghost" }},
		{"unknown side", func(s *graph.Snapshot) { s.Nodes[0].Data.Ports[0].Type = "middle" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := pair()
			tt.mutate(&in)
			before := in.Clone()

			_, err := New(Options{Backend: LayeredBackend{}}).Layout(context.Background(), in)
			if !errors.Is(err, errors.ErrCodeLayoutFailed) {
				t.Fatalf("err = %v, want LAYOUT_FAILED", err)
			}
			if in.Nodes[0].Style != before.Nodes[0].Style || in.Edges[0] != before.Edges[0] {
				t.Error("input changed on failure")
			}
		})
	}
}

func TestLayout_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{Backend: LayeredBackend{}}).Layout(ctx, pair()); !errors.Is(err, errors.ErrCodeLayoutFailed) {
		t.Errorf("err = %v, want LAYOUT_FAILED", err)
	}
}

func TestLayout_Empty(t *testing.T) {
	out, err := New(Options{Backend: LayeredBackend{}}).Layout(context.Background(), graph.Snapshot{Viewport: graph.DefaultViewport})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Nodes) != 0 || out.Viewport != graph.DefaultViewport {
		t.Errorf("out = %+v", out)
	}
}

type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }
func (failingBackend) Place(context.Context, Compound) (Placement, error) {
	return NewPlacement(), nil // places nothing
}

func TestLayout_BackendMissesNode(t *testing.T) {
	_, err := New(Options{Backend: failingBackend{}}).Layout(context.Background(), pair())
	if !errors.Is(err, errors.ErrCodeLayoutFailed) {
		t.Errorf("err = %v, want LAYOUT_FAILED", err)
	}
}
