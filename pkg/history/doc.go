// Package history implements the editor's undo/redo stack.
//
// # Commands
//
// A [Command] is either a [Func] (a redo/undo closure pair) or a [Composite]
// (an ordered batch). Composite redo runs front to back and undo back to
// front, which keeps causally dependent edits reversible: an edge added after
// its node is removed before the node.
//
// # Recording
//
// The canvas applies most edits itself and reports them afterwards, often in
// bursts (a node removal also removes its edges). [Store.AddCommand] buffers
// such reports and commits them as one entry once the debounce window
// ([DefaultDebounce], see [WithDebounce]) passes quietly. The window runs on a
// [Scheduler]: [TimerScheduler] in production and [ManualScheduler] in tests.
//
// Programmatic multi-step mutations bracket themselves with
// [Store.StartBatch] and [Store.EndBatch], or use [Store.Transact], which
// cancels the batch when the callback fails:
//
//	err := store.Transact(ctx, func(ctx context.Context) error {
//	    store.AddCommand(removeEdges)
//	    store.AddCommand(removeNode)
//	    return nil
//	})
//
// [Store.ExecuteAndAddCommand] applies a command itself and records it at
// once.
//
// # Replay
//
// [Store.Undo] moves the pointer back before running the inverse effect;
// [Store.Redo] moves it forward. While an effect runs the store is busy:
// AddCommand calls are ignored, so effects that echo as canvas changes do not
// record themselves, and concurrent Undo or Redo calls fail with [ErrBusy].
// There is no timeout; a command that never returns leaves [Store.Busy]
// true.
//
// The stack is unbounded unless [WithLimit] is given, in which case the
// oldest entries are evicted and the pointer shifts with them.
package history
