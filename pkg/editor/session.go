package editor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/history"
	"github.com/matzehuels/vesselflow/pkg/layout"
)

// ErrClosed is returned by every operation on a closed session.
var ErrClosed = errors.New(errors.ErrCodeInternal, "editor session is closed")

// Options configures a Session. Canvas is required.
type Options struct {
	Canvas   Canvas
	Notifier Notifier
	Layout   *layout.Engine
	History  *history.Store
	Logger   *log.Logger
}

// Session is one open editor: the workflow graph, its canvas and its undo
// history. All public methods are serialized; command effects run on the
// caller's goroutine while the session lock is held.
//
// A Session replaces what would otherwise be process-wide editor state. Create
// one per open workflow and Close it when the workflow closes.
type Session struct {
	mu sync.Mutex

	canvas   Canvas
	notifier Notifier
	engine   *layout.Engine
	history  *history.Store
	logger   *log.Logger

	snap graph.Snapshot
	held *heldImport
	move *pendingMove

	layoutPending atomic.Bool
	closed        bool
}

// heldImport is an import whose layout failed. Nodes stay hidden on the
// canvas and the resolved edges wait here.
type heldImport struct {
	prev    graph.Snapshot // state before the import, for undo and abort
	snap    graph.Snapshot // built nodes and resolved edges
	dropped int
}

// pendingMove tracks the drag that the last pending history entry records,
// so successive moves of one node collapse into one entry.
type pendingMove struct {
	id   string
	from graph.Position
}

// New returns a session over an empty graph.
func New(opts Options) (*Session, error) {
	if opts.Canvas == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "editor: canvas is required")
	}
	s := &Session{
		canvas:   opts.Canvas,
		notifier: opts.Notifier,
		engine:   opts.Layout,
		history:  opts.History,
		logger:   opts.Logger,
		snap:     graph.Snapshot{Viewport: graph.DefaultViewport},
	}
	if s.notifier == nil {
		s.notifier = NotifierFunc(func(context.Context, error) {})
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.engine == nil {
		s.engine = layout.New(layout.Options{Logger: s.logger})
	}
	if s.history == nil {
		s.history = history.New(history.WithLogger(s.logger))
	}
	return s, nil
}

// Snapshot returns a copy of the current graph.
func (s *Session) Snapshot() graph.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// History exposes the undo stack for state queries such as CanUndo.
func (s *Session) History() *history.Store { return s.history }

// LayoutPending reports whether a layout pass is running. It is always
// cleared when the pass ends, whatever the outcome.
func (s *Session) LayoutPending() bool { return s.layoutPending.Load() }

// Held reports whether a failed import waits for RetryLayout or AbortImport.
func (s *Session) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held != nil
}

// Undo reverts the last history entry.
func (s *Session) Undo(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.move = nil
	if err := s.history.Undo(ctx); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	return nil
}

// Redo reapplies the last undone entry.
func (s *Session) Redo(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.move = nil
	if err := s.history.Redo(ctx); err != nil {
		return fmt.Errorf("redo: %w", err)
	}
	return nil
}

// Close drops the history and any held import. The canvas is left as is.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.history.Clear()
	s.held = nil
	s.move = nil
	return nil
}

func (s *Session) fail(ctx context.Context, err error) error {
	s.notifier.Notify(ctx, err)
	return err
}
