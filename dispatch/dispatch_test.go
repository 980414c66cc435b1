package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueReadsRunConcurrently(t *testing.T) {
	q := NewQueue()
	defer q.Close()

	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})
	finished := make(chan struct{}, 2)

	for i := 0; i < 2; i++ {
		require.NoError(t, q.Read(func() {
			started.Done()
			<-release
			finished <- struct{}{}
		}))
	}

	started.Wait()
	close(release)
	<-finished
	<-finished
}

func TestQueueWriteIsExclusive(t *testing.T) {
	q := NewQueue()

	var active, overlap atomic.Int32
	var order []int
	var mu sync.Mutex

	enter := func(id int, write bool) func() {
		return func() {
			n := active.Add(1)
			if write && n > 1 {
				overlap.Add(1)
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			active.Add(-1)
		}
	}

	for i := 0; i < 20; i++ {
		if i%5 == 0 {
			require.NoError(t, q.Write(enter(i, true)))
		} else {
			require.NoError(t, q.Read(enter(i, false)))
		}
	}
	q.Close()
	<-q.Done()

	assert.Zero(t, overlap.Load())
	assert.Len(t, order, 20)

	index := make(map[int]int)
	for i, id := range order {
		index[id] = i
	}
	for w := 0; w < 20; w += 5 {
		for r := 0; r < 20; r++ {
			if r < w {
				assert.Less(t, index[r], index[w], "task %d admitted before write %d", r, w)
			} else if r > w {
				assert.Greater(t, index[r], index[w], "task %d admitted after write %d", r, w)
			}
		}
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue()

	ran := make(chan struct{})
	require.NoError(t, q.Write(func() { close(ran) }))
	q.Close()

	assert.ErrorIs(t, q.Read(func() {}), ErrClosed)
	assert.ErrorIs(t, q.Write(func() {}), ErrClosed)

	<-ran
	<-q.Done()
}

func TestQueueRecoversPanic(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Write(func() { panic("boom") }))

	ran := make(chan struct{})
	require.NoError(t, q.Read(func() { close(ran) }))
	<-ran

	q.Close()
	<-q.Done()
}

func TestSerialOrder(t *testing.T) {
	s := NewSerial()

	var order []int
	for i := 0; i < 100; i++ {
		s.Execute(func() { order = append(order, i) })
	}
	s.Close()

	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}

	s.Execute(func() { order = append(order, -1) })
	assert.Len(t, order, 100)
}

func TestInline(t *testing.T) {
	ran := false
	Inline.Execute(func() { ran = true })
	assert.True(t, ran)
}
