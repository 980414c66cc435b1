package dispatch

import (
	"errors"
	"sync"

	"github.com/golang/glog"
)

// ErrClosed is returned when a task is submitted to a closed queue.
var ErrClosed = errors.New("queue closed")

type task struct {
	fn    func()
	write bool
}

// Queue runs tasks in admission order.
//
// Read tasks run concurrently with other reads. A write task waits for every
// task admitted before it and runs alone.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	tasks    []task
	closed   bool
	inflight sync.WaitGroup
	done     chan struct{}
}

// NewQueue returns a running queue.
func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Read admits a task that may run alongside other reads.
func (q *Queue) Read(fn func()) error {
	return q.push(task{fn: fn})
}

// Write admits a task that runs exclusively.
func (q *Queue) Write(fn func()) error {
	return q.push(task{fn: fn, write: true})
}

func (q *Queue) push(t task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.tasks = append(q.tasks, t)
	q.cond.Signal()
	return nil
}

// Close stops admission. Tasks already admitted still run.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Signal()
}

// Done is closed once the queue is closed and every admitted task finished.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			q.inflight.Wait()
			return
		}
		t := q.tasks[0]
		q.tasks[0] = task{}
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		if t.write {
			q.inflight.Wait()
			safely(t.fn)
			continue
		}
		q.inflight.Add(1)
		go func() {
			defer q.inflight.Done()
			safely(t.fn)
		}()
	}
}

func safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("dispatch: task panicked: %v", r)
		}
	}()
	fn()
}
