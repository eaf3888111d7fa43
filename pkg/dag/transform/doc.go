// Package transform prepares a [dag.DAG] for the native layered layout.
//
// # Overview
//
// Workflow graphs arrive with feedback loops, edges that skip ranks and an
// arbitrary node order. [Prepare] turns such a graph into a proper layered
// graph in four steps:
//
//   - [BreakCycles] reverses back edges found by depth-first search
//   - [AssignLayers] computes longest-path ranks (Kahn's algorithm)
//   - [Subdivide] splits edges spanning several ranks with subdivider nodes
//   - [OrderRows] reduces crossings with barycenter sweeps
//
// Each step is exported for callers that need finer control:
//
//	transform.BreakCycles(g)
//	transform.AssignLayers(g)
//	transform.Subdivide(g)
//	transform.OrderRows(g, transform.DefaultSweepPasses)
//
// All steps are deterministic for a fixed insertion order.
package transform
