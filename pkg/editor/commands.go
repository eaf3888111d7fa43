package editor

import (
	"context"
	"slices"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/history"
)

// =============================================================================
// Effects
// =============================================================================

// Effects mutate the session graph and mirror the change on the canvas. They
// run with s.mu held, either directly or from a history replay started by
// Undo or Redo.

func (s *Session) insertNodeLocked(ctx context.Context, n graph.Node, at int) error {
	if s.snap.NodeIndex(n.ID) >= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "node %s already exists", n.ID)
	}
	at = min(max(at, 0), len(s.snap.Nodes))
	s.snap.Nodes = slices.Insert(s.snap.Nodes, at, n.Clone())
	return s.canvas.AddNodes(ctx, []graph.Node{n})
}

func (s *Session) deleteNodeLocked(ctx context.Context, id string) error {
	i := s.snap.NodeIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s not found", id)
	}
	s.snap.Nodes = slices.Delete(s.snap.Nodes, i, i+1)
	return s.canvas.RemoveNodes(ctx, []string{id})
}

func (s *Session) insertEdgeLocked(ctx context.Context, e graph.Edge, at int) error {
	if s.snap.Node(e.Source) == nil || s.snap.Node(e.Target) == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "edge %s: endpoint missing", e.ID)
	}
	at = min(max(at, 0), len(s.snap.Edges))
	s.snap.Edges = slices.Insert(s.snap.Edges, at, e)
	return s.canvas.AddEdges(ctx, []graph.Edge{e})
}

func (s *Session) deleteEdgeLocked(ctx context.Context, id string) error {
	i := s.snap.EdgeIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "edge %s not found", id)
	}
	s.snap.Edges = slices.Delete(s.snap.Edges, i, i+1)
	return s.canvas.RemoveEdges(ctx, []string{id})
}

func (s *Session) positionLocked(ctx context.Context, id string, pos graph.Position) error {
	n := s.snap.Node(id)
	if n == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s not found", id)
	}
	n.Position = pos
	return s.canvas.UpdateNodes(ctx, []graph.Node{*n})
}

// restoreLocked replaces the whole graph, used by import undo and redo.
func (s *Session) restoreLocked(ctx context.Context, snap graph.Snapshot) error {
	s.snap = snap.Clone()
	if err := s.canvas.Reset(ctx); err != nil {
		return err
	}
	if err := s.canvas.AddNodes(ctx, s.snap.Nodes); err != nil {
		return err
	}
	if err := s.canvas.AddEdges(ctx, s.snap.Edges); err != nil {
		return err
	}
	return s.canvas.SetViewport(ctx, s.snap.Viewport)
}

// =============================================================================
// Commands
// =============================================================================

func (s *Session) addNodeCmd(n graph.Node, at int) history.Func {
	n = n.Clone()
	return history.Func{
		Tag: "add-node " + n.ID,
		RedoFn: func(ctx context.Context) error {
			return s.insertNodeLocked(ctx, n, at)
		},
		UndoFn: func(ctx context.Context) error {
			return s.deleteNodeLocked(ctx, n.ID)
		},
	}
}

func (s *Session) removeNodeCmd(n graph.Node, at int) history.Func {
	add := s.addNodeCmd(n, at)
	return history.Func{
		Tag:    "remove-node " + n.ID,
		RedoFn: add.UndoFn,
		UndoFn: add.RedoFn,
	}
}

func (s *Session) addEdgeCmd(e graph.Edge, at int) history.Func {
	return history.Func{
		Tag: "add-edge " + e.ID,
		RedoFn: func(ctx context.Context) error {
			return s.insertEdgeLocked(ctx, e, at)
		},
		UndoFn: func(ctx context.Context) error {
			return s.deleteEdgeLocked(ctx, e.ID)
		},
	}
}

func (s *Session) removeEdgeCmd(e graph.Edge, at int) history.Func {
	add := s.addEdgeCmd(e, at)
	return history.Func{
		Tag:    "remove-edge " + e.ID,
		RedoFn: add.UndoFn,
		UndoFn: add.RedoFn,
	}
}

func (s *Session) moveCmd(id string, from, to graph.Position) history.Func {
	return history.Func{
		Tag:    "move-node " + id,
		Offset: history.OffsetApplied,
		RedoFn: func(ctx context.Context) error {
			return s.positionLocked(ctx, id, to)
		},
		UndoFn: func(ctx context.Context) error {
			return s.positionLocked(ctx, id, from)
		},
	}
}

func (s *Session) replaceCmd(tag string, before, after graph.Snapshot) history.Func {
	before, after = before.Clone(), after.Clone()
	return history.Func{
		Tag: tag,
		RedoFn: func(ctx context.Context) error {
			return s.restoreLocked(ctx, after)
		},
		UndoFn: func(ctx context.Context) error {
			return s.restoreLocked(ctx, before)
		},
	}
}
