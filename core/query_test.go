package core

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasdf/docstore/dispatch"
)

type notification struct {
	name   string
	change Changes
}

type recorder struct {
	mu     sync.Mutex
	events []notification
}

func (r *recorder) record(name string, change Changes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notification{name: name, change: change})
}

func (r *recorder) all() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.events...)
}

func (r *recorder) observer(mask Changes) Observer {
	return Observer{Fn: r.record, Executor: dispatch.Inline, Changes: mask}
}

func TestNotificationMasks(t *testing.T) {
	ctx := context.Background()

	for mask := Created; mask <= All; mask++ {
		t.Run(mask.String(), func(t *testing.T) {
			c := newTestCollection(t, Options{Storage: MemoryStorage()})

			var rec recorder
			q := c.QueryAll()
			defer q.Close()
			_, err := q.Subscribe(rec.observer(mask))
			require.NoError(t, err)

			name, err := c.Create(ctx, testDocument())
			require.NoError(t, err)
			require.NoError(t, c.Save(ctx, &Document{Name: name, Root: testDocument()}))
			require.NoError(t, c.Remove(ctx, name))

			var expect []notification
			for _, change := range []Changes{Created, Updated, Removed} {
				if mask.Has(change) {
					expect = append(expect, notification{name: name, change: change})
				}
			}
			assert.Equal(t, expect, rec.all())
		})
	}
}

func TestNotificationByName(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, Options{Storage: MemoryStorage()})

	name, err := c.Create(ctx, testDocument())
	require.NoError(t, err)

	var rec recorder
	q := c.QueryByName(name)
	defer q.Close()
	_, err = q.Subscribe(rec.observer(Updated))
	require.NoError(t, err)

	other, err := c.Create(ctx, testDocument())
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, &Document{Name: other, Root: testDocument()}))
	require.NoError(t, c.Remove(ctx, other))
	assert.Empty(t, rec.all())

	require.NoError(t, c.Save(ctx, &Document{Name: name, Root: testDocument()}))
	assert.Equal(t, []notification{{name: name, change: Updated}}, rec.all())
}

func TestNotificationOnDefaultExecutor(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, Options{Storage: MemoryStorage()})

	events := make(chan notification, 1)
	q := c.QueryAll()
	defer q.Close()
	_, err := q.Subscribe(Observer{Fn: func(name string, change Changes) {
		events <- notification{name: name, change: change}
	}})
	require.NoError(t, err)

	name, err := c.Create(ctx, testDocument())
	require.NoError(t, err)

	select {
	case n := <-events:
		assert.Equal(t, notification{name: name, change: Created}, n)
	case <-time.After(5 * time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, Options{Storage: MemoryStorage()})

	var rec recorder
	q := c.QueryAll()
	defer q.Close()

	a, err := q.Subscribe(rec.observer(All))
	require.NoError(t, err)
	b, err := q.Subscribe(rec.observer(All))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	ids, err := c.SubscriptionIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, ids)

	require.NoError(t, q.Unsubscribe(a))
	ids, err = c.SubscriptionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids)

	_, err = c.Create(ctx, testDocument())
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1)
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, Options{Storage: MemoryStorage()})

	var rec recorder
	kept := c.QueryAll()
	defer kept.Close()
	keptID, err := kept.Subscribe(rec.observer(All))
	require.NoError(t, err)

	q := c.QueryAll()
	_, err = q.Subscribe(rec.observer(All))
	require.NoError(t, err)
	_, err = q.Subscribe(rec.observer(All))
	require.NoError(t, err)
	require.NoError(t, q.Close())

	ids, err := c.SubscriptionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{keptID}, ids)

	_, err = c.Create(ctx, testDocument())
	require.NoError(t, err)
	assert.Len(t, rec.all(), 1, "only the kept query is notified")

	_, err = q.Subscribe(rec.observer(All))
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	docs, err := q.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func subscribeAndDiscard(t *testing.T, c *Collection) string {
	q := c.QueryAll()
	id, err := q.Subscribe(Observer{Fn: func(string, Changes) {}})
	require.NoError(t, err)
	return id
}

func TestDiscardedQueryReleasesSubscriptions(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, Options{Storage: MemoryStorage()})

	id := subscribeAndDiscard(t, c)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		runtime.GC()
		ids, err := c.SubscriptionIDs(ctx)
		return err == nil && len(ids) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestQueryOnClosedCollection(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Options{})

	c, err := m.Collection("documents")
	require.NoError(t, err)
	name, err := c.Create(ctx, testDocument())
	require.NoError(t, err)

	q := c.QueryAll()
	require.NoError(t, m.Close("documents"))

	_, err = q.FetchAll(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = q.FetchFirst(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = q.Subscribe(Observer{Fn: func(string, Changes) {}})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NoError(t, q.Close())

	_, err = c.Create(ctx, testDocument())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, c.Remove(ctx, name), ErrStorageUnavailable)

	done := make(chan error, 1)
	c.RemoveAsync(name, dispatch.Inline, func(err error) { done <- err })
	assert.ErrorIs(t, <-done, ErrStorageUnavailable)
}

func TestChangesString(t *testing.T) {
	assert.Equal(t, "created|removed", (Created | Removed).String())
	assert.Equal(t, "none", Changes(0).String())

	c, ok := ParseChanges([]string{"created", "Updated"})
	require.True(t, ok)
	assert.Equal(t, Created|Updated, c)

	_, ok = ParseChanges([]string{"renamed"})
	assert.False(t, ok)
}
