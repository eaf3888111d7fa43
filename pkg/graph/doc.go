// Package graph defines the workflow data model shared by the builder, the
// layout engine, the editor session and every outer surface.
//
// # Core Types
//
//   - [Node]: a module instance with ports, port labels and canvas geometry
//   - [LogicalEdge]: a node-to-node connection before ports are bound
//   - [Edge]: a connection bound to one port handle on each endpoint
//   - [Snapshot]: nodes, edges and viewport as one value
//
// # Ownership
//
// A [Snapshot] is treated as immutable once handed out. Code that needs to
// change a graph clones it first ([Snapshot.Clone]) and returns the new
// value. The layout engine relies on this: a failed pass leaves the caller's
// snapshot exactly as it was.
//
// # Serialization
//
// Snapshots serialize to the JSON shape the canvas consumes:
//
//	{
//	  "nodes": [{"id": "A", "type": "moduleNode", "position": {...},
//	             "style": {"opacity": 0, "hidden": true}, "data": {...}}],
//	  "edges": [{"id": "e_A_B_...", "source": "A", "target": "B",
//	             "sourceHandle": "port_right_...", "targetHandle": "port_left_..."}],
//	  "viewport": {"x": 0, "y": 0, "zoom": 1}
//	}
//
// Common operations:
//
//	s, _ := graph.ReadFile("workflow.json")
//	graph.WriteFile(s, "out.json")
//	data, _ := graph.Marshal(s)
//
// BSON tags mirror the JSON ones for the MongoDB workspace store.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
