package graph

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/vesselflow/pkg/port"
)

// =============================================================================
// Constants
// =============================================================================

// NodeTypeModule is the type tag the canvas uses to pick the module renderer.
const NodeTypeModule = "moduleNode"

// =============================================================================
// Node
// =============================================================================

// Position is a top-left canvas coordinate.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Dimensions are written only from canvas measurements, never guessed.
type Dimensions struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Measured reports whether the canvas has reported a usable size.
func (d Dimensions) Measured() bool { return d.Width > 0 && d.Height > 0 }

// Style carries the visibility placeholder used while a node waits for
// layout.
type Style struct {
	Opacity float64 `json:"opacity" bson:"opacity"`
	Hidden  bool    `json:"hidden,omitempty" bson:"hidden,omitempty"`
}

var (
	// HiddenStyle is the initial style of a freshly built node.
	HiddenStyle = Style{Opacity: 0, Hidden: true}
	// VisibleStyle is applied once layout has positioned the node.
	VisibleStyle = Style{Opacity: 1}
)

// PortLabel describes one semantic port group of a module.
type PortLabel struct {
	PortType       string `json:"portType" bson:"port_type"`
	Label          string `json:"label" bson:"label"`
	Option         string `json:"option" bson:"option"`
	IsMultiPortSum bool   `json:"isMultiPortSum" bson:"is_multi_port_sum"`
}

// NodeData is the domain payload of a node.
type NodeData struct {
	Name       string      `json:"name" bson:"name"`
	Label      string      `json:"label" bson:"label"`
	VesselType string      `json:"vessel_type,omitempty" bson:"vessel_type,omitempty"`
	BCType     string      `json:"bc_type,omitempty" bson:"bc_type,omitempty"`
	ModuleFile string      `json:"module_file" bson:"module_file"`
	ModuleType string      `json:"module_type" bson:"module_type"`
	Ports      []port.Port `json:"ports" bson:"ports"`
	PortLabels []PortLabel `json:"portLabels" bson:"port_labels"`
}

// Node is one module instance on the canvas.
type Node struct {
	ID         string     `json:"id" bson:"id"`
	Type       string     `json:"type" bson:"type"`
	Position   Position   `json:"position" bson:"position"`
	Dimensions Dimensions `json:"dimensions" bson:"dimensions"`
	Style      Style      `json:"style" bson:"style"`
	Data       NodeData   `json:"data" bson:"data"`
}

// OwnerID implements port.Owner.
func (n *Node) OwnerID() string { return n.ID }

// PortList implements port.Owner.
func (n *Node) PortList() []port.Port { return n.Data.Ports }

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Data.Ports = slices.Clone(n.Data.Ports)
	n.Data.PortLabels = slices.Clone(n.Data.PortLabels)
	return n
}

// =============================================================================
// Edges
// =============================================================================

// LogicalEdge connects two nodes before ports have been bound.
type LogicalEdge struct {
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// Edge is a connection bound to one port on each endpoint.
type Edge struct {
	ID           string `json:"id" bson:"id"`
	Source       string `json:"source" bson:"source"`
	Target       string `json:"target" bson:"target"`
	SourceHandle string `json:"sourceHandle" bson:"source_handle"`
	TargetHandle string `json:"targetHandle" bson:"target_handle"`
}

// NewEdgeID returns a unique edge id "e_<source>_<target>_<uuid>".
func NewEdgeID(source, target string) string {
	return fmt.Sprintf("e_%s_%s_%s", source, target, uuid.NewString())
}

// NewEdge binds source and target through the given ports.
func NewEdge(source, target string, sp, tp port.Port) Edge {
	return Edge{
		ID:           NewEdgeID(source, target),
		Source:       source,
		Target:       target,
		SourceHandle: sp.HandleID(),
		TargetHandle: tp.HandleID(),
	}
}

// Touches reports whether the edge is attached to nodeID.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// =============================================================================
// Viewport
// =============================================================================

// Viewport is the canvas pan and zoom.
type Viewport struct {
	X    float64 `json:"x" bson:"x"`
	Y    float64 `json:"y" bson:"y"`
	Zoom float64 `json:"zoom" bson:"zoom"`
}

// DefaultViewport is the viewport an import resets to.
var DefaultViewport = Viewport{X: 0, Y: 0, Zoom: 1}
