package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/port"
	"github.com/matzehuels/vesselflow/pkg/render"
)

func laidOut() graph.Snapshot {
	out := port.Port{UID: "o1", Type: port.Right, Name: "B"}
	in := port.Port{UID: "i1", Type: port.Left, Name: "A"}
	return graph.Snapshot{
		Nodes: []graph.Node{
			{
				ID: "A", Position: graph.Position{X: 0, Y: 0},
				Dimensions: graph.Dimensions{Width: 200, Height: 100},
				Style:      graph.VisibleStyle,
				Data:       graph.NodeData{Name: "A", Label: "Tank — plant.mo", VesselType: "tank", Ports: []port.Port{out}},
			},
			{
				ID: "B", Position: graph.Position{X: 320, Y: 0},
				Dimensions: graph.Dimensions{Width: 200, Height: 100},
				Style:      graph.VisibleStyle,
				Data:       graph.NodeData{Name: "B", Ports: []port.Port{in}},
			},
			{
				ID: "C", Style: graph.HiddenStyle,
				Data: graph.NodeData{Name: "C"},
			},
		},
		Edges: []graph.Edge{
			{ID: "e1", Source: "A", Target: "B", SourceHandle: out.HandleID(), TargetHandle: in.HandleID()},
			{ID: "e2", Source: "A", Target: "C", SourceHandle: out.HandleID(), TargetHandle: "port_left_x"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(laidOut(), Options{})

	for _, want := range []string{
		`n0 [label="A", pos="75.00,-37.50!", width=2.0833, height=1.0417];`,
		`n0_p0 [`,
		`pos="150.00,-37.50!"`,
		`n1_p0 [`,
		`n0_p0 -> n1_p0;`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "n2 ") {
		t.Error("hidden node drawn")
	}
	if strings.Contains(dot, "-> n2") {
		t.Error("edge to hidden node drawn")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(laidOut(), Options{Detailed: true})
	if !strings.Contains(dot, `label="A\nTank — plant.mo\ntype: tank"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `xlabel="B"`) {
		t.Errorf("port name missing:\n%s", dot)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	dot := ToDOT(laidOut(), Options{})

	src, err := Render(ctx, dot, render.FormatDOT)
	if err != nil || string(src) != dot {
		t.Errorf("dot format: %v", err)
	}
	if _, err := Render(ctx, dot, "pdf"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("pdf: err = %v, want UNSUPPORTED", err)
	}

	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("unexpected SVG: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("got %s\nwant %s", got, want)
	}
	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox changed")
	}
}
