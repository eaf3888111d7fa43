package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vesselflow/pkg/observability"
)

// DefaultDebounce is the window in which AddCommand calls coalesce.
const DefaultDebounce = 25 * time.Millisecond

// ErrBusy is returned by Undo, Redo and ExecuteAndAddCommand while another
// command effect is still running.
var ErrBusy = errors.New("history: a command is already running")

// Option configures a Store.
type Option func(*Store)

// WithDebounce sets the coalescing window of AddCommand. Zero or negative
// values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLimit caps the stack at n entries, evicting the oldest. Zero means
// unbounded.
func WithLimit(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.limit = n
		}
	}
}

// WithScheduler replaces the timer used for the debounce window.
func WithScheduler(sched Scheduler) Option {
	return func(s *Store) {
		if sched != nil {
			s.sched = sched
		}
	}
}

// WithLogger sets the logger for commit and undo/redo debug lines.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is an undo/redo stack with debounced batching.
//
// Commands recorded with AddCommand collect in a pending buffer until the
// debounce window passes without another addition, then commit as a single
// entry (a Composite when there is more than one). StartBatch and EndBatch
// hold the buffer open across an arbitrary sequence of calls.
//
// The store is safe for concurrent use. Command effects run without the
// internal lock held, so effects may call back into the store; AddCommand
// calls made while an effect runs are dropped.
type Store struct {
	mu sync.Mutex

	stack   []Command
	pointer int

	pending []Command
	batch   int // open StartBatch calls
	timer   Task
	gen     uint64
	busy    bool

	debounce time.Duration
	limit    int
	sched    Scheduler
	logger   *log.Logger
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		pointer:  -1,
		debounce: DefaultDebounce,
		sched:    TimerScheduler{},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Recording
// =============================================================================

// AddCommand buffers cmd, whose effect the caller has already applied. Outside
// a manual batch it restarts the debounce window. It is a no-op while a
// command effect is running.
func (s *Store) AddCommand(cmd Command) {
	if cmd == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		s.logger.Debug("history: ignored command during replay", "command", Describe(cmd))
		return
	}
	s.pending = append(s.pending, cmd)
	if s.batch > 0 {
		return
	}
	s.stopTimerLocked()
	gen := s.gen
	s.timer = s.sched.AfterFunc(s.debounce, func() { s.fire(gen) })
}

func (s *Store) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.batch > 0 {
		return
	}
	s.timer = nil
	s.commitLocked()
}

// CommitBatch pushes the pending buffer as one entry immediately.
func (s *Store) CommitBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.commitLocked()
}

// StartBatch suspends the debounce window. Every command recorded until the
// matching EndBatch lands in one entry. Batches nest; only the outermost
// EndBatch commits.
func (s *Store) StartBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.batch++
}

// EndBatch closes a batch opened with StartBatch and commits the buffer when
// it was the outermost one.
func (s *Store) EndBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch > 0 {
		s.batch--
	}
	if s.batch == 0 {
		s.commitLocked()
	}
}

// CancelBatch closes every open batch and discards the pending buffer. Effects
// already applied are not reverted.
func (s *Store) CancelBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.batch = 0
	if len(s.pending) > 0 {
		s.logger.Debug("history: batch cancelled", "commands", len(s.pending))
	}
	s.pending = nil
}

// Transact runs fn inside a batch. The batch is cancelled when fn fails and
// committed otherwise.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	s.StartBatch()
	if err := fn(ctx); err != nil {
		s.CancelBatch()
		return err
	}
	s.EndBatch()
	return nil
}

// ExecuteAndAddCommand applies cmd and records it without waiting for the
// debounce window. Inside a manual batch it joins the batch instead. A failed
// Redo records nothing.
func (s *Store) ExecuteAndAddCommand(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	err := cmd.Redo(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		return err
	}
	if s.batch > 0 {
		s.pending = append(s.pending, cmd)
		return nil
	}
	// keep stack order: anything still debouncing was recorded first
	s.stopTimerLocked()
	s.commitLocked()
	s.pushLocked(cmd)
	return nil
}

// ReplaceLastPending swaps the most recent uncommitted command for cmd, so a
// gesture can refine its own entry. It reports false when nothing is pending.
func (s *Store) ReplaceLastPending(cmd Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 || cmd == nil {
		return false
	}
	s.pending[len(s.pending)-1] = cmd
	return true
}

// LastPendingOffsetApplied reports whether the most recent uncommitted
// command is a Func marked OffsetApplied.
func (s *Store) LastPendingOffsetApplied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return false
	}
	f, ok := s.pending[len(s.pending)-1].(Func)
	return ok && f.Offset == OffsetApplied
}

// =============================================================================
// Replay
// =============================================================================

// Undo reverts the entry at the pointer. The pointer moves before the effect
// runs, so a failing Undo never leaves it on an undone entry. Undo is a no-op
// on an empty past and returns ErrBusy while another effect runs.
func (s *Store) Undo(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.batch == 0 {
		s.stopTimerLocked()
		s.commitLocked()
	}
	if s.pointer < 0 {
		s.mu.Unlock()
		return nil
	}
	cmd := s.stack[s.pointer]
	s.pointer--
	s.busy = true
	pointer := s.pointer
	s.mu.Unlock()

	start := time.Now()
	err := cmd.Undo(ctx)

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	s.logger.Debug("history: undo", "command", Describe(cmd), "pointer", pointer,
		"duration", time.Since(start), "err", err)
	observability.History().OnUndo(ctx, pointer, err)
	return err
}

// Redo reapplies the entry after the pointer. It is a no-op when there is no
// future and returns ErrBusy while another effect runs.
func (s *Store) Redo(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.batch == 0 {
		// a pending edit has already truncated the future
		s.stopTimerLocked()
		s.commitLocked()
	}
	if len(s.pending) > 0 || s.pointer >= len(s.stack)-1 {
		s.mu.Unlock()
		return nil
	}
	s.pointer++
	cmd := s.stack[s.pointer]
	s.busy = true
	pointer := s.pointer
	s.mu.Unlock()

	start := time.Now()
	err := cmd.Redo(ctx)

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	s.logger.Debug("history: redo", "command", Describe(cmd), "pointer", pointer,
		"duration", time.Since(start), "err", err)
	observability.History().OnRedo(ctx, pointer, err)
	return err
}

// =============================================================================
// State
// =============================================================================

// CanUndo reports whether there is an entry to undo.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer >= 0
}

// CanRedo reports whether there is an undone entry to redo. Pending edits
// discard the future once committed, so it is false while any are buffered.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) == 0 && s.pointer < len(s.stack)-1
}

// Pointer is the index of the last applied entry, -1 when none.
func (s *Store) Pointer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer
}

// Len is the number of committed entries, including undone ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}

// Pending is the number of buffered, uncommitted commands.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Busy reports whether a command effect is running. A command that never
// returns keeps the store busy.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Batching reports whether a manual batch is open.
func (s *Store) Batching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch > 0
}

// Entry returns the committed entry at i.
func (s *Store) Entry(i int) (Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.stack) {
		return nil, false
	}
	return s.stack[i], true
}

// Clear drops every entry, the pending buffer and any open batch.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.stack = nil
	s.pointer = -1
	s.pending = nil
	s.batch = 0
}

// =============================================================================
// Internals
// =============================================================================

// stopTimerLocked cancels the debounce task and invalidates one that already
// started waiting for the lock.
func (s *Store) stopTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) commitLocked() {
	if len(s.pending) == 0 {
		return
	}
	batch := s.pending
	s.pending = nil

	var cmd Command
	if len(batch) == 1 {
		cmd = batch[0]
	} else {
		cmd = Composite{Commands: batch}
	}
	s.pushLocked(cmd)
	s.logger.Debug("history: commit", "command", Describe(cmd), "pointer", s.pointer, "entries", len(s.stack))
	observability.History().OnCommit(context.Background(), len(batch))
}

func (s *Store) pushLocked(cmd Command) {
	if s.pointer < len(s.stack)-1 {
		s.stack = s.stack[:s.pointer+1]
	}
	s.stack = append(s.stack, cmd)
	s.pointer++

	if s.limit > 0 && len(s.stack) > s.limit {
		evict := len(s.stack) - s.limit
		s.stack = append([]Command(nil), s.stack[evict:]...)
		s.pointer -= evict
	}
}
