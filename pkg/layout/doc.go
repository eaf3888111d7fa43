// Package layout positions workflow nodes and their ports.
//
// # Compound Graph
//
// [Engine.Layout] turns a [graph.Snapshot] into a [Compound] graph: one
// [Cluster] per node, sized from the canvas measurements, holding one
// [PortNode] per port. Edges connect port nodes through their handles, so
// the layered layout sees where connections actually attach.
//
// # Backends
//
// A [Backend] places the compound graph left to right:
//
//   - [GraphvizBackend] runs Graphviz dot in process (one subgraph cluster
//     per node) and reads node positions back from the rendered output.
//   - [LayeredBackend] is the native Sugiyama pipeline from
//     [github.com/matzehuels/vesselflow/pkg/dag/transform]: cycle breaking,
//     longest-path ranks, long-edge subdivision and barycenter ordering.
//
// Separations below [MinRankSep] and [MinNodeSep] are raised to them so
// ports on neighbouring nodes never collide.
//
// # Port Sides
//
// After placement every connected port faces its nearest neighbour port,
// outgoing connections first. The angle from the node center to the
// neighbour picks the side ([SideForAngle]):
//
//	[315°, 45°)   right
//	[45°, 135°)   bottom
//	[135°, 225°)  left
//	[225°, 315°)  top
//
// Ports on each side are sorted by their neighbours' x (top, bottom) or
// y (left, right) coordinate and flattened in the order top, right, bottom,
// left. A port that changes side gets a new handle and every edge is
// rewritten to it. Unconnected ports keep their side and go last.
//
// # Ownership
//
// The engine clones its input and returns a new snapshot; the input is never
// modified. Nodes are marked visible only after every step succeeded. Any
// failure is a LAYOUT_FAILED error from
// [github.com/matzehuels/vesselflow/pkg/errors].
package layout
