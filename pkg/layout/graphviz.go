package layout

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/vesselflow/pkg/port"
)

// pointsPerInch converts between canvas units and Graphviz inches.
const pointsPerInch = 72.0

// GraphvizBackend runs Graphviz dot (rankdir=LR) in process. Each cluster
// becomes a "subgraph cluster_*" holding a fixed-size body node and one node
// per port; edges run between port nodes. Invisible edges pin left ports
// before the body and right ports after it.
//
// The cluster center is the center of its body node.
type GraphvizBackend struct{}

// Name implements Backend.
func (GraphvizBackend) Name() string { return "graphviz" }

// Place implements Backend.
func (GraphvizBackend) Place(ctx context.Context, g Compound) (Placement, error) {
	dot, names := toDOT(g)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return Placement{}, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.DOT)

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return Placement{}, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.XDOT, &buf); err != nil {
		return Placement{}, fmt.Errorf("render: %w", err)
	}

	laid, err := graphviz.ParseBytes(buf.Bytes())
	if err != nil {
		return Placement{}, fmt.Errorf("parse layout: %w", err)
	}
	defer laid.Close()

	pl := NewPlacement()
	n, err := laid.FirstNode()
	for n != nil && err == nil {
		name, nerr := n.Name()
		if nerr != nil {
			return Placement{}, fmt.Errorf("read node name: %w", nerr)
		}
		if ref, ok := names[name]; ok {
			pt, perr := parsePos(n.GetStr("pos"))
			if perr != nil {
				return Placement{}, fmt.Errorf("node %s: %w", name, perr)
			}
			if ref.handle == "" {
				pl.Clusters[ref.cluster] = pt
			} else {
				pl.Ports[PortKey(ref.cluster, ref.handle)] = pt
			}
		}
		n, err = laid.NextNode(n)
	}
	if err != nil {
		return Placement{}, fmt.Errorf("walk nodes: %w", err)
	}
	return pl, nil
}

// dotRef maps a synthetic DOT node name back to its cluster and, for port
// nodes, its handle.
type dotRef struct {
	cluster string
	handle  string
}

// toDOT writes the compound graph as DOT and returns the name table used to
// read the layout back. Node names are synthetic so ids need no escaping.
func toDOT(g Compound) (string, map[string]dotRef) {
	names := make(map[string]dotRef)
	portName := make(map[string]string)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(g.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(g.RankSep))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for i, c := range g.Clusters {
		body := fmt.Sprintf("c%d", i)
		names[body] = dotRef{cluster: c.ID}

		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		buf.WriteString("    margin=0;\n")
		fmt.Fprintf(&buf, "    %s [width=%s, height=%s];\n", body, inches(c.Width), inches(c.Height))

		var same []string
		for j, p := range c.Ports {
			name := fmt.Sprintf("c%d_p%d", i, j)
			names[name] = dotRef{cluster: c.ID, handle: p.ID}
			portName[PortKey(c.ID, p.ID)] = name

			fmt.Fprintf(&buf, "    %s [width=%s, height=%s];\n", name, inches(p.Width), inches(p.Height))
			switch p.Side {
			case port.Left:
				fmt.Fprintf(&buf, "    %s -> %s [style=invis, weight=10];\n", name, body)
			case port.Right:
				fmt.Fprintf(&buf, "    %s -> %s [style=invis, weight=10];\n", body, name)
			default:
				same = append(same, name)
			}
		}
		if len(same) > 0 {
			fmt.Fprintf(&buf, "    { rank=same; %s; %s; }\n", body, strings.Join(same, "; "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		src, okS := portName[PortKey(e.Source, e.SourcePort)]
		dst, okT := portName[PortKey(e.Target, e.TargetPort)]
		if !okS || !okT {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", src, dst)
	}

	buf.WriteString("}\n")
	return buf.String(), names
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

// parsePos reads a Graphviz node position "x,y" (points, y up) into canvas
// coordinates (y down).
func parsePos(pos string) (Point, error) {
	xs, ys, ok := strings.Cut(strings.TrimSuffix(pos, "!"), ",")
	if !ok {
		return Point{}, fmt.Errorf("malformed pos %q", pos)
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return Point{}, fmt.Errorf("malformed pos %q: %w", pos, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return Point{}, fmt.Errorf("malformed pos %q: %w", pos, err)
	}
	return Point{X: x, Y: -y}, nil
}
