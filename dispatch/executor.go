// Package dispatch schedules collection operations and their completions.
package dispatch

import "sync"

// Executor runs completions on a caller chosen context.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) {
	f(fn)
}

var (
	// Go runs every function on a new goroutine.
	Go Executor = ExecutorFunc(func(fn func()) { go fn() })
	// Inline runs every function on the calling goroutine.
	Inline Executor = ExecutorFunc(func(fn func()) { fn() })
)

// Serial runs functions one at a time in submission order.
type Serial struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	done    chan struct{}
}

// NewSerial returns a running serial executor.
func NewSerial() *Serial {
	s := &Serial{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Execute queues fn. Functions submitted after Close are dropped.
func (s *Serial) Execute(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending = append(s.pending, fn)
	s.cond.Signal()
}

// Close stops the executor after all queued functions have run.
func (s *Serial) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()

	<-s.done
}

func (s *Serial) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		safely(fn)
	}
}
