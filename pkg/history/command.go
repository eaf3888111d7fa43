package history

import (
	"context"
	"fmt"
)

// OffsetApplied is the Func.Offset marker for a command whose effect was
// already applied by the canvas before it was recorded, such as a drag that
// moved the node while the pointer was down.
const OffsetApplied = "applied"

// Command is one undoable step. The implementations are closed: Func for a
// single effect and Composite for a batch. Use a type switch over the two
// when inspecting a stack entry.
type Command interface {
	Redo(ctx context.Context) error
	Undo(ctx context.Context) error

	sealed()
}

// Func is a command built from a pair of closures. A nil closure is a no-op.
type Func struct {
	// Tag names the command in logs, e.g. "move-node".
	Tag string
	// Offset is OffsetApplied when the effect is already visible.
	Offset string

	RedoFn func(ctx context.Context) error
	UndoFn func(ctx context.Context) error
}

// Redo runs RedoFn.
func (f Func) Redo(ctx context.Context) error {
	if f.RedoFn == nil {
		return nil
	}
	return f.RedoFn(ctx)
}

// Undo runs UndoFn.
func (f Func) Undo(ctx context.Context) error {
	if f.UndoFn == nil {
		return nil
	}
	return f.UndoFn(ctx)
}

func (Func) sealed() {}

// Composite groups commands into one step. Redo replays them in order, Undo
// replays their inverses in reverse order, so a later command that depends on
// an earlier one is always undone first. The first error stops the replay.
type Composite struct {
	Commands []Command
}

// Redo runs every command's Redo front to back.
func (c Composite) Redo(ctx context.Context) error {
	for i, cmd := range c.Commands {
		if err := cmd.Redo(ctx); err != nil {
			return fmt.Errorf("redo %d of %d (%s): %w", i+1, len(c.Commands), Describe(cmd), err)
		}
	}
	return nil
}

// Undo runs every command's Undo back to front.
func (c Composite) Undo(ctx context.Context) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		cmd := c.Commands[i]
		if err := cmd.Undo(ctx); err != nil {
			return fmt.Errorf("undo %d of %d (%s): %w", i+1, len(c.Commands), Describe(cmd), err)
		}
	}
	return nil
}

func (Composite) sealed() {}

// Describe returns a short name for cmd: the tag of a Func ("func" when
// untagged) or "batch(n)" for a Composite.
func Describe(cmd Command) string {
	switch c := cmd.(type) {
	case Func:
		if c.Tag == "" {
			return "func"
		}
		return c.Tag
	case Composite:
		return fmt.Sprintf("batch(%d)", len(c.Commands))
	default:
		return "unknown"
	}
}

// Size counts the Func leaves of cmd.
func Size(cmd Command) int {
	switch c := cmd.(type) {
	case Func:
		return 1
	case Composite:
		n := 0
		for _, sub := range c.Commands {
			n += Size(sub)
		}
		return n
	default:
		return 0
	}
}
