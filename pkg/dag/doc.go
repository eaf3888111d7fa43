// Package dag provides the rank-organised directed graph used by the native
// layered layout backend.
//
// # Overview
//
// vesselflow lays workflows out left to right. Each workflow node becomes a
// vertex of a [DAG], each connection an edge. Vertices are grouped in rows,
// where a row is a rank (a column on screen): row 0 is the leftmost column
// and every edge points from a lower row to a higher one once the graph has
// been prepared by the [transform] subpackage.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "inlet", Row: 0})
//	g.AddNode(dag.Node{ID: "aorta", Row: 1})
//	g.AddEdge(dag.Edge{From: "inlet", To: "aorta"})
//
// Query the structure with [DAG.Children], [DAG.Parents] and
// [DAG.NodesInRow]. Node iteration follows insertion order, which keeps
// layouts deterministic for a fixed input.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count inversions with a Fenwick
// tree in O(E log V). The layered backend uses them to keep the best row
// ordering found by its barycenter sweeps.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. The layout engine builds a
// fresh DAG per pass, so no sharing happens in practice.
//
// [transform]: github.com/matzehuels/vesselflow/pkg/dag/transform
package dag
