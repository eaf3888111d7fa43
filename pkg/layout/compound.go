package layout

import (
	"context"

	"github.com/matzehuels/vesselflow/pkg/port"
)

// =============================================================================
// Compound graph
// =============================================================================

// Compound is the graph handed to a Backend: one cluster per workflow node,
// one child per port, and edges between port children.
type Compound struct {
	Clusters []Cluster
	Edges    []PortEdge

	// RankSep is the gap between ranks along the flow direction.
	RankSep float64
	// NodeSep is the gap between clusters within a rank.
	NodeSep float64
}

// Cluster is one workflow node with its measured size.
type Cluster struct {
	ID     string
	Width  float64
	Height float64
	Ports  []PortNode
}

// PortNode is a port child of a cluster. ID is the port's handle.
type PortNode struct {
	ID     string
	Side   port.Side
	Width  float64
	Height float64
}

// PortEdge connects two port children.
type PortEdge struct {
	Source     string // source cluster
	SourcePort string // source handle
	Target     string // target cluster
	TargetPort string // target handle
}

// Cluster returns the cluster with the given id.
func (c *Compound) Cluster(id string) (*Cluster, bool) {
	for i := range c.Clusters {
		if c.Clusters[i].ID == id {
			return &c.Clusters[i], true
		}
	}
	return nil, false
}

// =============================================================================
// Placement
// =============================================================================

// Point is a canvas coordinate with y growing downwards.
type Point struct {
	X float64
	Y float64
}

// Placement is a backend's answer: centers of clusters and port children.
type Placement struct {
	Clusters map[string]Point
	// Ports is keyed by PortKey(cluster, handle).
	Ports map[string]Point
}

// NewPlacement returns an empty placement.
func NewPlacement() Placement {
	return Placement{Clusters: map[string]Point{}, Ports: map[string]Point{}}
}

// Port returns the center of a port child.
func (p Placement) Port(cluster, handle string) (Point, bool) {
	pt, ok := p.Ports[PortKey(cluster, handle)]
	return pt, ok
}

// PortKey identifies a port child across clusters.
func PortKey(cluster, handle string) string {
	return cluster + "/" + handle
}

// Backend runs the layered layout of a compound graph. Implementations
// place every cluster; ports they do not place fall back to the cluster
// center.
type Backend interface {
	Name() string
	Place(ctx context.Context, g Compound) (Placement, error)
}

// BoundaryPoints spreads the ports of c evenly along the side of the
// cluster they sit on, given the cluster center. The i-th of n ports on a
// side sits at (i+1)/(n+1) of that side.
func BoundaryPoints(c Cluster, center Point) map[string]Point {
	bySide := make(map[port.Side][]string, 4)
	for _, p := range c.Ports {
		bySide[p.Side] = append(bySide[p.Side], p.ID)
	}

	left, top := center.X-c.Width/2, center.Y-c.Height/2
	out := make(map[string]Point, len(c.Ports))
	for side, ids := range bySide {
		n := float64(len(ids) + 1)
		for i, id := range ids {
			t := float64(i+1) / n
			var pt Point
			switch side {
			case port.Left:
				pt = Point{X: left, Y: top + t*c.Height}
			case port.Right:
				pt = Point{X: left + c.Width, Y: top + t*c.Height}
			case port.Top:
				pt = Point{X: left + t*c.Width, Y: top}
			default:
				pt = Point{X: left + t*c.Width, Y: top + c.Height}
			}
			out[id] = pt
		}
	}
	return out
}
