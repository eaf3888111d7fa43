// Package editor ties the workflow graph, its canvas, the layout engine and
// the undo history into one editing [Session].
//
// # Sessions
//
// A [Session] owns the graph state for one open workflow. Every mutation goes
// through it and is mirrored on a [Canvas]:
//
//	s, _ := editor.New(editor.Options{Canvas: editor.NewMemoryCanvas(size)})
//	res, err := s.Import(ctx, input)
//	s.MoveNode(ctx, "T1", graph.Position{X: 40, Y: 10})
//	s.Undo(ctx)
//
// # Import
//
// [Session.Import] validates the input, builds hidden nodes, waits for the
// canvas to measure them, binds edges to free ports, runs layout and then
// reveals the result. The whole import is one undo step.
//
// If layout fails, the nodes stay hidden and the resolved edges are held.
// The caller is notified once through the [Notifier]. [Session.RetryLayout]
// finishes the import and [Session.AbortImport] restores the previous graph.
//
// [Session.Open] loads a saved graph without history. [Session.Relayout]
// lays out the current graph again as one undo step.
//
// # History
//
// Gestures map onto [history.Store] like this:
//
//   - MoveNode records a debounced command; successive moves of one node
//     collapse into a single entry.
//   - AddModule records a debounced command once the node is measured.
//   - Connect and RemoveEdge execute and record at once.
//   - RemoveNode removes edges then the node inside one transaction.
package editor
