// MIT License
//
// Copyright (c) 2024-2026 Redis Collections Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package collections

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redis-collections/redis-collections/errors"
	"github.com/redis-collections/redis-collections/log"
	"github.com/redis-collections/redis-collections/store"
)

func TestSyncDict(t *testing.T) {
	ctx := context.TODO()

	t.Run("With local mutations persisted on sync", func(t *testing.T) {
		mem := store.NewMemory()
		dict, err := NewSyncDict[string, int](ctx, mem)
		require.NoError(t, err)

		require.NoError(t, dict.Set("a", 1))
		require.NoError(t, dict.Set("b", 2))
		assert.True(t, dict.Dirty())

		// nothing is remote before the sync
		remote, err := NewDict[string, int](mem, WithKey(dict.Key()))
		require.NoError(t, err)
		n, err := remote.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, dict.Sync(ctx))
		assert.False(t, dict.Dirty())

		value, err := remote.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 1, value)
	})

	t.Run("With syncs logged at debug level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		dict, err := NewSyncDict[string, int](ctx, store.NewMemory(),
			WithLogger(log.New(log.DebugLevel, buffer)))
		require.NoError(t, err)

		require.NoError(t, dict.Set("a", 1))
		require.NoError(t, dict.Sync(ctx))

		assert.Contains(t, buffer.String(), "synced entries=(1)")
	})

	t.Run("With a clean sync being a no-op", func(t *testing.T) {
		mem := store.NewMemory()
		dict, err := NewSyncDict[string, int](ctx, mem)
		require.NoError(t, err)
		require.NoError(t, dict.Set("a", 1))
		require.NoError(t, dict.Sync(ctx))

		// an injected failure proves no store call is made
		mem.FailNext(stderrors.New("boom"))
		require.NoError(t, dict.Sync(ctx))
	})

	t.Run("With a failed sync staying dirty and retryable", func(t *testing.T) {
		boom := stderrors.New("boom")
		mem := store.NewMemory()
		dict, err := NewSyncDict[string, int](ctx, mem)
		require.NoError(t, err)
		require.NoError(t, dict.Set("a", 1))

		mem.FailNext(boom)
		err = dict.Sync(ctx)
		require.ErrorIs(t, err, boom)
		assert.True(t, dict.Dirty())

		require.NoError(t, dict.Sync(ctx))
		assert.False(t, dict.Dirty())
	})

	t.Run("With a write landing mid-sync kept dirty", func(t *testing.T) {
		mem := store.NewMemory()
		hooked := &hookedStore{Store: mem}
		dict, err := NewSyncDict[string, int](ctx, hooked)
		require.NoError(t, err)
		require.NoError(t, dict.Set("a", 1))

		// a writer racing the in-flight sync blocks on the mutex and commits
		// only after the flush; its change must survive into the next sync
		var setErr error
		done := make(chan struct{})
		hooked.beforeHReplace = func() {
			hooked.beforeHReplace = nil
			go func() {
				defer close(done)
				setErr = dict.Set("b", 2)
			}()
		}
		require.NoError(t, dict.Sync(ctx))
		<-done
		require.NoError(t, setErr)

		assert.True(t, dict.Dirty())
		require.NoError(t, dict.Sync(ctx))
		assert.False(t, dict.Dirty())

		remote, err := NewDict[string, int](mem, WithKey(dict.Key()))
		require.NoError(t, err)
		value, err := remote.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, 2, value)
	})

	t.Run("With sync replacing remote state wholesale", func(t *testing.T) {
		mem := store.NewMemory()
		dict, err := NewSyncDict[string, int](ctx, mem)
		require.NoError(t, err)
		require.NoError(t, dict.Set("a", 1))
		require.NoError(t, dict.Sync(ctx))

		// another writer slips in an entry the local state never had
		remote, err := NewDict[string, int](mem, WithKey(dict.Key()))
		require.NoError(t, err)
		require.NoError(t, remote.Set(ctx, "foreign", 9))

		require.NoError(t, dict.Set("b", 2))
		require.NoError(t, dict.Sync(ctx))

		keys, err := remote.Keys(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, keys)
	})

	t.Run("With load replacing local state", func(t *testing.T) {
		mem := store.NewMemory()
		seed, err := NewDict[string, int](mem)
		require.NoError(t, err)
		require.NoError(t, seed.Set(ctx, "persisted", 7))

		dict, err := NewSyncDict[string, int](ctx, mem, WithKey(seed.Key()))
		require.NoError(t, err)
		require.NoError(t, dict.Set("scratch", 1))
		require.NoError(t, dict.Load(ctx))

		assert.False(t, dict.Dirty())
		assert.Equal(t, 1, dict.Len())
		value, ok := dict.Get("persisted")
		assert.True(t, ok)
		assert.Equal(t, 7, value)
	})

	t.Run("With delete tracked as a change", func(t *testing.T) {
		dict, err := NewSyncDict[string, int](ctx, store.NewMemory())
		require.NoError(t, err)
		require.NoError(t, dict.Set("a", 1))
		require.NoError(t, dict.Sync(context.TODO()))

		assert.True(t, dict.Delete("a"))
		assert.True(t, dict.Dirty())
		assert.False(t, dict.Delete("a"))
	})
}

func TestWithAutoSync(t *testing.T) {
	ctx := context.TODO()

	t.Run("With the sync running after the function", func(t *testing.T) {
		mem := store.NewMemory()
		dict, err := NewSyncDict[string, int](ctx, mem)
		require.NoError(t, err)

		err = WithAutoSync(ctx, func() error {
			return dict.Set("a", 1)
		}, dict)
		require.NoError(t, err)
		assert.False(t, dict.Dirty())
	})

	t.Run("With function and sync errors combined", func(t *testing.T) {
		boom := stderrors.New("boom")
		crash := stderrors.New("crash")
		mem := store.NewMemory()
		dict, err := NewSyncDict[string, int](ctx, mem)
		require.NoError(t, err)
		require.NoError(t, dict.Set("a", 1))

		mem.FailNext(boom)
		err = WithAutoSync(ctx, func() error {
			return crash
		}, dict)
		require.ErrorIs(t, err, crash)
		require.ErrorIs(t, err, boom)
		assert.True(t, dict.Dirty())
	})

	t.Run("With the sync firing on panic", func(t *testing.T) {
		mem := store.NewMemory()
		dict, err := NewSyncDict[string, int](ctx, mem)
		require.NoError(t, err)

		require.Panics(t, func() {
			_ = WithAutoSync(ctx, func() error {
				require.NoError(t, dict.Set("a", 1))
				panic("late failure")
			}, dict)
		})
		assert.False(t, dict.Dirty())
	})
}

func TestSyncDefaultDict(t *testing.T) {
	ctx := context.TODO()

	t.Run("With missing keys manufactured and persisted", func(t *testing.T) {
		mem := store.NewMemory()
		dict, err := NewSyncDefaultDict[string, []string](ctx, mem, func() []string {
			return []string{}
		})
		require.NoError(t, err)

		value := dict.Get("fresh")
		assert.NotNil(t, value)
		assert.True(t, dict.Dirty())

		require.NoError(t, dict.Sync(ctx))
		remote, err := NewDict[string, []string](mem, WithKey(dict.Key()))
		require.NoError(t, err)
		ok, err := remote.Contains(ctx, "fresh")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("With existing values untouched", func(t *testing.T) {
		dict, err := NewSyncDefaultDict[string, int](ctx, store.NewMemory(), func() int {
			return -1
		})
		require.NoError(t, err)

		require.NoError(t, dict.Set("k", 42))
		assert.Equal(t, 42, dict.Get("k"))
	})

	t.Run("With a nil factory rejected", func(t *testing.T) {
		_, err := NewSyncDefaultDict[string, int](ctx, store.NewMemory(), nil)
		require.ErrorIs(t, err, errors.ErrUsage)
	})
}

func TestSyncCounter(t *testing.T) {
	ctx := context.TODO()

	t.Run("With local tallies persisted in counter format", func(t *testing.T) {
		mem := store.NewMemory()
		counter, err := NewSyncCounter[string](ctx, mem)
		require.NoError(t, err)

		assert.EqualValues(t, 2, counter.Inc("hits", 2))
		counter.Update(map[string]int64{"hits": 1, "misses": 4})
		counter.Subtract(map[string]int64{"misses": 1})
		require.NoError(t, counter.Sync(ctx))

		// a proxy Counter on the same key reads the synced tallies
		remote, err := NewCounter[string](mem, WithKey(counter.Key()))
		require.NoError(t, err)
		hits, err := remote.Get(ctx, "hits")
		require.NoError(t, err)
		assert.EqualValues(t, 3, hits)
		misses, err := remote.Get(ctx, "misses")
		require.NoError(t, err)
		assert.EqualValues(t, 3, misses)
	})

	t.Run("With most common on local state", func(t *testing.T) {
		counter, err := NewSyncCounter[string](ctx, store.NewMemory())
		require.NoError(t, err)
		counter.Update(map[string]int64{"x": 1, "y": 9, "z": 5})

		top := counter.MostCommon(1)
		require.Len(t, top, 1)
		assert.Equal(t, Count[string]{Key: "y", Count: 9}, top[0])
	})
}

func TestSyncList(t *testing.T) {
	ctx := context.TODO()

	t.Run("With local edits persisted in list format", func(t *testing.T) {
		mem := store.NewMemory()
		list, err := NewSyncList[string](ctx, mem)
		require.NoError(t, err)

		require.NoError(t, list.Append("a", "b", "c"))
		require.NoError(t, list.Set(1, "B"))
		popped, err := list.Pop()
		require.NoError(t, err)
		assert.Equal(t, "c", popped)
		require.NoError(t, list.Sync(ctx))

		remote, err := NewList[string](mem, WithKey(list.Key()))
		require.NoError(t, err)
		values, err := remote.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "B"}, values)
	})

	t.Run("With local index errors", func(t *testing.T) {
		list, err := NewSyncList[int](ctx, store.NewMemory())
		require.NoError(t, err)
		_, err = list.Get(0)
		require.ErrorIs(t, err, errors.ErrIndexOutOfRange)
		_, err = list.Pop()
		require.ErrorIs(t, err, errors.ErrEmptyCollection)
	})
}

func TestSyncDeque(t *testing.T) {
	ctx := context.TODO()

	t.Run("With a local bound enforced", func(t *testing.T) {
		deque, err := NewSyncDeque[int](ctx, store.NewMemory(), WithMaxLen(3))
		require.NoError(t, err)

		require.NoError(t, deque.Append(1, 2, 3, 4))
		assert.Equal(t, []int{2, 3, 4}, deque.All())

		require.NoError(t, deque.AppendLeft(1))
		assert.Equal(t, []int{1, 2, 3}, deque.All())
	})

	t.Run("With pops at both ends persisted", func(t *testing.T) {
		mem := store.NewMemory()
		deque, err := NewSyncDeque[int](ctx, mem)
		require.NoError(t, err)
		require.NoError(t, deque.Append(1, 2, 3))

		left, err := deque.PopLeft()
		require.NoError(t, err)
		assert.Equal(t, 1, left)
		require.NoError(t, deque.Sync(ctx))

		remote, err := NewDeque[int](mem, WithKey(deque.Key()))
		require.NoError(t, err)
		values, err := remote.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, values)
	})
}

func TestSyncSet(t *testing.T) {
	ctx := context.TODO()

	t.Run("With local membership persisted in set format", func(t *testing.T) {
		mem := store.NewMemory()
		set, err := NewSyncSet[string](ctx, mem)
		require.NoError(t, err)

		added, err := set.Add("a", "b", "a")
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, 2, set.Len())

		require.NoError(t, set.Remove("b"))
		err = set.Remove("b")
		require.ErrorIs(t, err, errors.ErrKeyNotFound)

		require.NoError(t, set.Sync(ctx))

		remote, err := NewSet[string](mem, WithKey(set.Key()))
		require.NoError(t, err)
		ok, err := remote.Contains(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		n, err := remote.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("With load pulling persisted members", func(t *testing.T) {
		mem := store.NewMemory()
		seed, err := NewSet[string](mem)
		require.NoError(t, err)
		_, err = seed.Add(ctx, "x", "y")
		require.NoError(t, err)

		set, err := NewSyncSet[string](ctx, mem, WithKey(seed.Key()))
		require.NoError(t, err)
		require.NoError(t, set.Load(ctx))

		assert.Equal(t, 2, set.Len())
		assert.True(t, set.Contains("x"))
		assert.False(t, set.Dirty())
	})

	t.Run("With a member added mid-sync kept dirty", func(t *testing.T) {
		mem := store.NewMemory()
		hooked := &hookedStore{Store: mem}
		set, err := NewSyncSet[string](ctx, hooked)
		require.NoError(t, err)
		_, err = set.Add("a")
		require.NoError(t, err)

		var addErr error
		done := make(chan struct{})
		hooked.beforeSReplace = func() {
			hooked.beforeSReplace = nil
			go func() {
				defer close(done)
				_, addErr = set.Add("late")
			}()
		}
		require.NoError(t, set.Sync(ctx))
		<-done
		require.NoError(t, addErr)

		assert.True(t, set.Dirty())
		require.NoError(t, set.Sync(ctx))

		remote, err := NewSet[string](mem, WithKey(set.Key()))
		require.NoError(t, err)
		ok, err := remote.Contains(ctx, "late")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

// hookedStore wraps a store and runs a callback just before the bulk replace
// commands execute, to interleave concurrent writers at a precise point.
type hookedStore struct {
	store.Store
	beforeHReplace func()
	beforeSReplace func()
}

func (h *hookedStore) HReplace(ctx context.Context, key string, fields map[string][]byte) error {
	if h.beforeHReplace != nil {
		h.beforeHReplace()
	}
	return h.Store.HReplace(ctx, key, fields)
}

func (h *hookedStore) SReplace(ctx context.Context, key string, members [][]byte) error {
	if h.beforeSReplace != nil {
		h.beforeSReplace()
	}
	return h.Store.SReplace(ctx, key, members)
}
