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

func TestLRUDict(t *testing.T) {
	ctx := context.TODO()

	t.Run("With the least recently used entry evicted on overflow", func(t *testing.T) {
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "a", 1))
		require.NoError(t, cache.Set(ctx, "b", 2))
		require.NoError(t, cache.Set(ctx, "c", 3))

		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, local)

		// a went to the remote tier but is still readable
		value, err := cache.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 1, value)
	})

	t.Run("With reads refreshing recency", func(t *testing.T) {
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "a", 1))
		require.NoError(t, cache.Set(ctx, "b", 2))
		require.NoError(t, cache.Set(ctx, "c", 3))

		// b is now most recent, so inserting d evicts c, not b
		_, err = cache.Get(ctx, "b")
		require.NoError(t, err)
		require.NoError(t, cache.Set(ctx, "d", 4))

		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "d"}, local)
	})

	t.Run("With promotion moving the entry between tiers", func(t *testing.T) {
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "a", 1))
		require.NoError(t, cache.Set(ctx, "b", 2))
		require.NoError(t, cache.Set(ctx, "c", 3))

		// a is remote; reading it moves it back into the local tier
		_, err = cache.Get(ctx, "a")
		require.NoError(t, err)

		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a"}, local)

		// no duplicate remains remotely
		n, err := cache.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("With ordered bulk updates", func(t *testing.T) {
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)

		require.NoError(t, cache.Update(ctx,
			Item[string, int]{Key: "a", Value: 1},
			Item[string, int]{Key: "b", Value: 2},
			Item[string, int]{Key: "c", Value: 3},
			Item[string, int]{Key: "d", Value: 4},
		))

		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "d"}, local)

		items, err := cache.Items(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 4)
	})

	t.Run("With a failed eviction keeping the victim local", func(t *testing.T) {
		boom := stderrors.New("boom")
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "a", 1))
		require.NoError(t, cache.Set(ctx, "b", 2))

		mem.FailNext(boom)
		err = cache.Set(ctx, "c", 3)
		require.ErrorIs(t, err, boom)

		// the victim was not lost and the insert did not happen
		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, local)

		value, err := cache.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 1, value)
	})

	t.Run("With maxsize zero behaving as a plain proxy", func(t *testing.T) {
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(0))
		require.NoError(t, err)
		assert.Zero(t, cache.MaxSize())

		require.NoError(t, cache.Set(ctx, "a", 1))

		// repeated reads must not drain the remote tier
		for i := 0; i < 2; i++ {
			value, err := cache.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, 1, value)
		}

		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Empty(t, local)

		n, err := cache.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("With sync copying the local tier without draining it", func(t *testing.T) {
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "a", 1))
		require.NoError(t, cache.Set(ctx, "b", 2))
		require.NoError(t, cache.Sync(ctx))

		// the entries stay local and are now also visible to a plain Dict
		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, local)

		dict, err := NewDict[string, int](mem, WithKey(cache.Key()))
		require.NoError(t, err)
		n, err := dict.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		// keys present in both tiers count once
		n, err = cache.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		items, err := cache.Items(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("With evictions, syncs and clears logged at debug level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		cache, err := NewLRUDict[string, int](store.NewMemory(),
			WithMaxSize(1),
			WithLogger(log.New(log.DebugLevel, buffer)))
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "a", 1))
		require.NoError(t, cache.Set(ctx, "b", 2))
		assert.Contains(t, buffer.String(), "evicted field=(a)")

		require.NoError(t, cache.Sync(ctx))
		assert.Contains(t, buffer.String(), "synced entries=(1)")

		require.NoError(t, cache.Clear(ctx))
		assert.Contains(t, buffer.String(), "cleared key=")
	})

	t.Run("With a failed sync keeping the local tier", func(t *testing.T) {
		boom := stderrors.New("boom")
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)
		require.NoError(t, cache.Set(ctx, "a", 1))

		mem.FailNext(boom)
		err = cache.Sync(ctx)
		require.ErrorIs(t, err, boom)

		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, local)
	})

	t.Run("With deletes spanning both tiers", func(t *testing.T) {
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "a", 1))
		require.NoError(t, cache.Set(ctx, "b", 2))
		require.NoError(t, cache.Set(ctx, "c", 3))

		// a is remote, c is local
		require.NoError(t, cache.Delete(ctx, "a"))
		require.NoError(t, cache.Delete(ctx, "c"))
		err = cache.Delete(ctx, "never")
		require.ErrorIs(t, err, errors.ErrKeyNotFound)

		n, err := cache.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("With contains not touching recency", func(t *testing.T) {
		mem := store.NewMemory()
		cache, err := NewLRUDict[string, int](mem, WithMaxSize(2))
		require.NoError(t, err)

		require.NoError(t, cache.Set(ctx, "a", 1))
		require.NoError(t, cache.Set(ctx, "b", 2))

		ok, err := cache.Contains(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)

		local, err := cache.LocalKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, local)
	})

	t.Run("With a negative maxsize rejected", func(t *testing.T) {
		_, err := NewLRUDict[string, int](store.NewMemory(), WithMaxSize(-1))
		require.ErrorIs(t, err, errors.ErrInvalidMaxSize)
	})
}
