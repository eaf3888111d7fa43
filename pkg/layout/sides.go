package layout

import (
	"math"
	"slices"
	"sort"

	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/port"
)

// SideForAngle maps an angle in degrees, measured with y growing downwards,
// to the side facing that direction. Angles are normalized to [0,360):
// [315,45) is right, [45,135) bottom, [135,225) left and [225,315) top.
func SideForAngle(deg float64) port.Side {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	switch {
	case a >= 315 || a < 45:
		return port.Right
	case a < 135:
		return port.Bottom
	case a < 225:
		return port.Left
	default:
		return port.Top
	}
}

// Angle is the direction from a to b in degrees, in (-180,180].
func Angle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
}

type endpoint struct {
	node   string
	handle string
}

// links holds, per port, the centers of the ports it connects to.
type links struct {
	out []Point
	in  []Point
}

func collectLinks(edges []graph.Edge, pl Placement) map[endpoint]*links {
	m := make(map[endpoint]*links)
	get := func(ep endpoint) *links {
		l, ok := m[ep]
		if !ok {
			l = &links{}
			m[ep] = l
		}
		return l
	}
	for _, e := range edges {
		src := endpoint{e.Source, e.SourceHandle}
		dst := endpoint{e.Target, e.TargetHandle}
		get(src).out = append(get(src).out, pl.pointOf(dst))
		get(dst).in = append(get(dst).in, pl.pointOf(src))
	}
	return m
}

func (p Placement) pointOf(ep endpoint) Point {
	if pt, ok := p.Port(ep.node, ep.handle); ok {
		return pt
	}
	return p.Clusters[ep.node]
}

func nearest(from Point, pts []Point) Point {
	best, bestD := pts[0], math.Inf(1)
	for _, pt := range pts {
		if d := math.Hypot(pt.X-from.X, pt.Y-from.Y); d < bestD {
			best, bestD = pt, d
		}
	}
	return best
}

type sidedPort struct {
	port      port.Port
	neighbour Point
	connected bool
}

// arrangePorts gives every connected port of node the side facing its
// nearest neighbour (outgoing edges first, then incoming), sorts each side
// by the neighbours' coordinates and flattens the sides top, right, bottom,
// left. It returns the new port list and the old-to-new handle renames.
func arrangePorts(node graph.Node, center Point, pl Placement, lk map[endpoint]*links) ([]port.Port, map[string]string) {
	bySide := make(map[port.Side][]sidedPort, 4)
	for _, p := range node.Data.Ports {
		sp := sidedPort{port: p}
		if l, ok := lk[endpoint{node.ID, p.HandleID()}]; ok {
			self := pl.pointOf(endpoint{node.ID, p.HandleID()})
			switch {
			case len(l.out) > 0:
				sp.neighbour, sp.connected = nearest(self, l.out), true
			case len(l.in) > 0:
				sp.neighbour, sp.connected = nearest(self, l.in), true
			}
		}
		if sp.connected {
			sp.port.Type = SideForAngle(Angle(center, sp.neighbour))
		}
		bySide[sp.port.Type] = append(bySide[sp.port.Type], sp)
	}

	renames := make(map[string]string)
	out := make([]port.Port, 0, len(node.Data.Ports))
	for _, side := range port.Sides {
		group := bySide[side]
		horizontal := side == port.Top || side == port.Bottom
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.connected != b.connected {
				return a.connected
			}
			if !a.connected {
				return false
			}
			if horizontal {
				return a.neighbour.X < b.neighbour.X
			}
			return a.neighbour.Y < b.neighbour.Y
		})
		for _, sp := range group {
			out = append(out, sp.port)
		}
	}

	for _, p := range out {
		i := slices.IndexFunc(node.Data.Ports, func(old port.Port) bool { return old.UID == p.UID })
		if old := node.Data.Ports[i]; old.Type != p.Type {
			renames[old.HandleID()] = p.HandleID()
		}
	}
	return out, renames
}

// rewriteHandles points every edge at the renamed handles of its endpoints.
func rewriteHandles(edges []graph.Edge, renames map[string]map[string]string) {
	for i := range edges {
		e := &edges[i]
		if h, ok := renames[e.Source][e.SourceHandle]; ok {
			e.SourceHandle = h
		}
		if h, ok := renames[e.Target][e.TargetHandle]; ok {
			e.TargetHandle = h
		}
	}
}
