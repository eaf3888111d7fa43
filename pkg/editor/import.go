package editor

import (
	"context"
	"time"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/observability"
	"github.com/matzehuels/vesselflow/pkg/port"
	"github.com/matzehuels/vesselflow/pkg/workflow"
)

// ImportResult summarizes a successful import.
type ImportResult struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Dropped int `json:"dropped"`
}

// Import replaces the graph with one built from in, as a single undo step.
// It returns LAYOUT_PENDING without waiting while another layout runs.
//
// Validation runs first; a validation failure leaves the session untouched,
// and so does a canvas that rejects the new graph.
// The nodes are added hidden, measured by the canvas, wired to ports, laid
// out and only then revealed together with their edges.
//
// When layout fails the user is notified once, the nodes stay hidden and the
// resolved edges are held back. RetryLayout or AbortImport then finish the
// import. The error is returned as well.
func (s *Session) Import(ctx context.Context, in workflow.Input) (res ImportResult, err error) {
	if s.layoutPending.Load() {
		return ImportResult{}, errLayoutPending()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ImportResult{}, ErrClosed
	}

	start := time.Now()
	observability.Pipeline().OnImportStart(ctx, len(in.Vessels))
	defer func() {
		observability.Pipeline().OnImportComplete(ctx, res.Nodes, res.Edges, res.Dropped, time.Since(start), err)
	}()

	if v := workflow.Validate(in.Catalog, in.Config, in.Vessels); !v.Valid {
		s.logger.Debug("import rejected", "missing", v.Missing, "unmapped", v.Unmapped)
		return ImportResult{}, s.fail(ctx, v.Err())
	}

	prev := s.snap.Clone()
	if s.held != nil {
		// a held import never reached the graph; undo goes back past it
		prev = s.held.prev
		s.held = nil
	}
	s.move = nil

	s.history.CommitBatch()
	s.history.StartBatch()
	committed := false
	defer func() {
		if !committed {
			s.history.CancelBatch()
		}
	}()

	built, err := workflow.Build(in, workflow.ModeLogical)
	if err != nil {
		return ImportResult{}, s.fail(ctx, err)
	}

	s.snap = graph.Snapshot{Viewport: graph.DefaultViewport}
	if err := s.canvas.Reset(ctx); err != nil {
		return ImportResult{}, s.rollbackLocked(ctx, prev, errors.Wrap(errors.ErrCodeInternal, err, "reset canvas"))
	}
	if err := s.canvas.SetViewport(ctx, graph.DefaultViewport); err != nil {
		return ImportResult{}, s.rollbackLocked(ctx, prev, errors.Wrap(errors.ErrCodeInternal, err, "reset viewport"))
	}
	s.snap.Nodes = built.Nodes
	if err := s.canvas.AddNodes(ctx, built.Nodes); err != nil {
		return ImportResult{}, s.rollbackLocked(ctx, prev, errors.Wrap(errors.ErrCodeInternal, err, "add nodes"))
	}
	s.logger.Debug("import nodes added", "nodes", len(built.Nodes), "logical_edges", len(built.LogicalEdges))

	h := &heldImport{prev: prev}
	measureErr := s.measureLocked(ctx)

	edges, dropped := workflow.ResolveEdges(s.snap.Nodes, built.LogicalEdges, port.NewAllocator())
	if dropped > 0 {
		s.logger.Debug("import dropped edges without a free port", "dropped", dropped)
	}
	h.snap = graph.Snapshot{Nodes: s.snap.Nodes, Edges: edges, Viewport: graph.DefaultViewport}.Clone()
	h.dropped = dropped

	if measureErr != nil {
		s.held = h
		return ImportResult{}, s.fail(ctx, errors.Wrap(errors.ErrCodeLayoutFailed, measureErr, "import"))
	}
	if err := s.layoutLocked(ctx, h); err != nil {
		return ImportResult{}, err
	}

	s.history.EndBatch()
	committed = true
	res = ImportResult{Nodes: len(s.snap.Nodes), Edges: len(s.snap.Edges), Dropped: dropped}
	s.logger.Info("import complete", "nodes", res.Nodes, "edges", res.Edges,
		"dropped", res.Dropped, "duration", time.Since(start))
	return res, nil
}

// RetryLayout lays out a held import again. On success the import completes
// as one undo step.
func (s *Session) RetryLayout(ctx context.Context) (ImportResult, error) {
	if s.layoutPending.Load() {
		return ImportResult{}, errLayoutPending()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ImportResult{}, ErrClosed
	}
	if s.held == nil {
		return ImportResult{}, errors.New(errors.ErrCodeNothingToRetry, "no import is waiting for layout")
	}
	h := s.held
	if err := s.measureLocked(ctx); err != nil {
		return ImportResult{}, s.fail(ctx, errors.Wrap(errors.ErrCodeLayoutFailed, err, "retry layout"))
	}
	// measurements taken now supersede the held ones
	for i := range h.snap.Nodes {
		if n := s.snap.Node(h.snap.Nodes[i].ID); n != nil {
			h.snap.Nodes[i].Dimensions = n.Dimensions
		}
	}
	if err := s.layoutLocked(ctx, h); err != nil {
		return ImportResult{}, err
	}
	s.history.CommitBatch()
	return ImportResult{Nodes: len(s.snap.Nodes), Edges: len(s.snap.Edges), Dropped: h.dropped}, nil
}

// AbortImport drops a held import and restores the graph it replaced.
func (s *Session) AbortImport(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.held == nil {
		return errors.New(errors.ErrCodeNothingToRetry, "no import is waiting for layout")
	}
	prev := s.held.prev
	s.held = nil
	return s.restoreLocked(ctx, prev)
}

// errLayoutPending is returned instead of queuing a layout behind the one
// that is running.
func errLayoutPending() error {
	return errors.New(errors.ErrCodeLayoutPending, "a layout pass is already running")
}

// rollbackLocked puts back the graph an import replaced after the canvas
// rejected it, then reports err.
func (s *Session) rollbackLocked(ctx context.Context, prev graph.Snapshot, err error) error {
	s.held = nil
	if rerr := s.restoreLocked(ctx, prev); rerr != nil {
		s.logger.Warn("restore after failed import", "err", rerr)
	}
	return s.fail(ctx, err)
}

// measureLocked asks the canvas for the size of every unmeasured node.
func (s *Session) measureLocked(ctx context.Context) error {
	var ids []string
	for _, n := range s.snap.Nodes {
		if !n.Dimensions.Measured() {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	dims, err := s.canvas.WaitMeasured(ctx, ids)
	if err != nil {
		return err
	}
	for i := range s.snap.Nodes {
		if d, ok := dims[s.snap.Nodes[i].ID]; ok {
			s.snap.Nodes[i].Dimensions = d
		}
	}
	return nil
}

// layoutLocked runs the engine on a held import and, on success, reveals the
// result and records it. On failure the import stays held.
func (s *Session) layoutLocked(ctx context.Context, h *heldImport) error {
	s.layoutPending.Store(true)
	defer s.layoutPending.Store(false)

	out, err := s.engine.Layout(ctx, h.snap)
	if err != nil {
		s.held = h
		s.logger.Warn("layout failed; nodes stay hidden", "nodes", len(h.snap.Nodes), "err", err)
		return s.fail(ctx, err)
	}

	s.held = nil
	s.snap = out
	if err := s.canvas.UpdateNodes(ctx, out.Nodes); err != nil {
		return s.rollbackLocked(ctx, h.prev, errors.Wrap(errors.ErrCodeInternal, err, "reveal nodes"))
	}
	if err := s.canvas.AddEdges(ctx, out.Edges); err != nil {
		return s.rollbackLocked(ctx, h.prev, errors.Wrap(errors.ErrCodeInternal, err, "add edges"))
	}
	if err := s.canvas.FitView(ctx); err != nil {
		s.logger.Debug("fit view failed", "err", err)
	}
	s.history.AddCommand(s.replaceCmd("import", h.prev, out))
	return nil
}

// Open replaces the graph with a saved snapshot and clears the history.
// The snapshot is shown as is; run Relayout to lay it out again.
func (s *Session) Open(ctx context.Context, snap graph.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := snap.Validate(); err != nil {
		return s.fail(ctx, errors.Wrap(errors.ErrCodeInvalidInput, err, "open"))
	}
	s.history.Clear()
	s.held, s.move = nil, nil
	if err := s.restoreLocked(ctx, snap); err != nil {
		return s.fail(ctx, errors.Wrap(errors.ErrCodeInternal, err, "open"))
	}
	s.logger.Debug("graph opened", "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return nil
}

// Relayout lays out the current graph again as one undo step. Nodes the
// canvas has not measured yet are measured first.
func (s *Session) Relayout(ctx context.Context) error {
	if s.layoutPending.Load() {
		return errLayoutPending()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.held != nil {
		return errors.New(errors.ErrCodeImportInProgress, "an import is waiting for layout; retry or abort it first")
	}
	if err := s.measureLocked(ctx); err != nil {
		return s.fail(ctx, errors.Wrap(errors.ErrCodeLayoutFailed, err, "relayout"))
	}

	s.layoutPending.Store(true)
	defer s.layoutPending.Store(false)
	prev := s.snap.Clone()
	out, err := s.engine.Layout(ctx, prev)
	if err != nil {
		s.logger.Warn("relayout failed", "err", err)
		return s.fail(ctx, err)
	}
	s.move = nil
	s.history.CommitBatch()
	return s.history.ExecuteAndAddCommand(ctx, s.replaceCmd("layout", prev, out))
}
