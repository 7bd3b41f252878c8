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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redis-collections/redis-collections/store"
)

func TestCounter(t *testing.T) {
	ctx := context.TODO()

	t.Run("With increments and decrements", func(t *testing.T) {
		counter, err := NewCounter[string](store.NewMemory())
		require.NoError(t, err)

		n, err := counter.Inc(ctx, "hits", 1)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = counter.Inc(ctx, "hits", 4)
		require.NoError(t, err)
		assert.EqualValues(t, 5, n)

		n, err = counter.Inc(ctx, "hits", -7)
		require.NoError(t, err)
		assert.EqualValues(t, -2, n)

		n, err = counter.Dec(ctx, "hits", 3)
		require.NoError(t, err)
		assert.EqualValues(t, -5, n)
	})

	t.Run("With absent keys counting as zero", func(t *testing.T) {
		counter, err := NewCounter[string](store.NewMemory())
		require.NoError(t, err)

		n, err := counter.Get(ctx, "never")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("With update and subtract", func(t *testing.T) {
		counter, err := NewCounter[string](store.NewMemory())
		require.NoError(t, err)

		require.NoError(t, counter.Update(ctx, map[string]int64{"a": 3, "b": 1}))
		require.NoError(t, counter.Update(ctx, map[string]int64{"a": 2}))
		require.NoError(t, counter.Subtract(ctx, map[string]int64{"b": 5}))

		a, err := counter.Get(ctx, "a")
		require.NoError(t, err)
		assert.EqualValues(t, 5, a)

		b, err := counter.Get(ctx, "b")
		require.NoError(t, err)
		assert.EqualValues(t, -4, b)
	})

	t.Run("With most common ordering by count", func(t *testing.T) {
		counter, err := NewCounter[string](store.NewMemory())
		require.NoError(t, err)
		require.NoError(t, counter.Update(ctx, map[string]int64{"x": 1, "y": 9, "z": 5}))

		top, err := counter.MostCommon(ctx, 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, Count[string]{Key: "y", Count: 9}, top[0])
		assert.Equal(t, Count[string]{Key: "z", Count: 5}, top[1])

		all, err := counter.MostCommon(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("With total and length", func(t *testing.T) {
		counter, err := NewCounter[string](store.NewMemory())
		require.NoError(t, err)
		require.NoError(t, counter.Update(ctx, map[string]int64{"a": 2, "b": 3}))

		total, err := counter.Total(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)

		n, err := counter.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("With removal returning the final count", func(t *testing.T) {
		counter, err := NewCounter[string](store.NewMemory())
		require.NoError(t, err)
		require.NoError(t, counter.Set(ctx, "k", 7))

		final, err := counter.Remove(ctx, "k")
		require.NoError(t, err)
		assert.EqualValues(t, 7, final)

		ok, err := counter.Contains(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("With concurrent writers sharing a key", func(t *testing.T) {
		mem := store.NewMemory()
		one, err := NewCounter[string](mem)
		require.NoError(t, err)
		two, err := NewCounter[string](mem, WithKey(one.Key()))
		require.NoError(t, err)

		_, err = one.Inc(ctx, "hits", 2)
		require.NoError(t, err)
		_, err = two.Inc(ctx, "hits", 3)
		require.NoError(t, err)

		n, err := one.Get(ctx, "hits")
		require.NoError(t, err)
		assert.EqualValues(t, 5, n)
	})
}
