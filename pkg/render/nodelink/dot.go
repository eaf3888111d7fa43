package nodelink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/layout"
)

// Options configures the drawing.
type Options struct {
	// Detailed adds the vessel type and BC type to node labels and port
	// names next to the ports.
	Detailed bool

	// PortSize is the port marker diameter in pixels. Zero means
	// layout.DefaultPortSize.
	PortSize float64
}

// pointsPerPixel maps canvas pixels onto Graphviz points.
const pointsPerPixel = 0.75

// ToDOT converts a laid-out snapshot to DOT. Every node body and port is
// pinned at its canvas position, so Graphviz only routes the edges. Hidden
// nodes are skipped together with their edges.
func ToDOT(s graph.Snapshot, opts Options) string {
	size := opts.PortSize
	if size <= 0 {
		size = layout.DefaultPortSize
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, fixedsize=true];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")

	ids := make(map[string]string, len(s.Nodes))
	handles := make(map[string]string)
	for i, n := range s.Nodes {
		if n.Style.Hidden {
			continue
		}
		id := fmt.Sprintf("n%d", i)
		ids[n.ID] = id

		c := layout.Cluster{ID: n.ID, Width: n.Dimensions.Width, Height: n.Dimensions.Height}
		for _, p := range n.Data.Ports {
			c.Ports = append(c.Ports, layout.PortNode{ID: p.HandleID(), Side: p.Type, Width: size, Height: size})
		}
		center := layout.Point{X: n.Position.X + n.Dimensions.Width/2, Y: n.Position.Y + n.Dimensions.Height/2}

		fmt.Fprintf(&buf, "  %s [label=%q, pos=\"%s!\", width=%s, height=%s];\n",
			id, nodeLabel(n, opts.Detailed), pos(center), inches(n.Dimensions.Width), inches(n.Dimensions.Height))

		points := layout.BoundaryPoints(c, center)
		for j, p := range n.Data.Ports {
			pid := fmt.Sprintf("%s_p%d", id, j)
			handles[n.ID+"/"+p.HandleID()] = pid
			attrs := []string{
				"shape=circle", "style=filled", "fillcolor=\"#555555\"", "label=\"\"",
				fmt.Sprintf("pos=\"%s!\"", pos(points[p.HandleID()])),
				fmt.Sprintf("width=%s", inches(size)), fmt.Sprintf("height=%s", inches(size)),
			}
			if opts.Detailed && p.Name != "" {
				attrs = append(attrs, fmt.Sprintf("xlabel=%q", p.Name), "fontsize=8")
			}
			fmt.Fprintf(&buf, "  %s [%s];\n", pid, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		src, okS := handles[e.Source+"/"+e.SourceHandle]
		dst, okT := handles[e.Target+"/"+e.TargetHandle]
		if !okS || !okT {
			// fall back to the bodies for edges whose ports went missing
			src, okS = ids[e.Source]
			dst, okT = ids[e.Target]
		}
		if okS && okT {
			fmt.Fprintf(&buf, "  %s -> %s;\n", src, dst)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n graph.Node, detailed bool) string {
	label := n.Data.Name
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}
	var parts []string
	if n.Data.Label != "" {
		parts = append(parts, n.Data.Label)
	}
	if n.Data.VesselType != "" {
		parts = append(parts, "type: "+n.Data.VesselType)
	}
	if n.Data.BCType != "" {
		parts = append(parts, "bc: "+n.Data.BCType)
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// pos converts a canvas point (y down, pixels) to a DOT pos (y up, points).
func pos(p layout.Point) string {
	return fmt.Sprintf("%.2f,%.2f", p.X*pointsPerPixel, -p.Y*pointsPerPixel)
}

func inches(px float64) string {
	return fmt.Sprintf("%.4f", px*pointsPerPixel/72)
}
