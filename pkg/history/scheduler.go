package history

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs delayed, cancelable tasks. The store uses it for the
// debounce window.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// Task is a scheduled function. Stop reports whether it prevented the run.
type Task interface {
	Stop() bool
}

// TimerScheduler schedules on the runtime timer via time.AfterFunc.
type TimerScheduler struct{}

// AfterFunc calls f on its own goroutine after d.
func (TimerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// ManualScheduler runs tasks only when Advance moves its clock past their
// deadline. Tasks fire on the goroutine that calls Advance.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	s       *ManualScheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
}

// NewManualScheduler returns a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc queues f to run once the clock reaches now+d.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTask{s: s, at: s.now + d, seq: s.seq, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the clock forward by d and runs every due task in deadline
// order. Tasks are called without the scheduler lock held.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due, rest []*manualTask
	for _, t := range s.tasks {
		switch {
		case t.stopped:
		case t.at <= s.now:
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	s.tasks = rest
	for _, t := range due {
		t.stopped = true
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.f()
	}
}

// Now is the elapsed manual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending counts tasks that have neither run nor been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
