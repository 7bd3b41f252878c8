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

	"github.com/redis-collections/redis-collections/errors"
	"github.com/redis-collections/redis-collections/store"
)

func TestSet(t *testing.T) {
	ctx := context.TODO()

	t.Run("With add membership and removal", func(t *testing.T) {
		set, err := NewSet[string](store.NewMemory())
		require.NoError(t, err)

		added, err := set.Add(ctx, "a", "b", "a")
		require.NoError(t, err)
		assert.EqualValues(t, 2, added)

		ok, err := set.Contains(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, set.Remove(ctx, "a"))
		err = set.Remove(ctx, "a")
		require.ErrorIs(t, err, errors.ErrKeyNotFound)

		removed, err := set.Discard(ctx, "b", "never")
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)
	})

	t.Run("With integral numerics as one member", func(t *testing.T) {
		set, err := NewSet[float64](store.NewMemory())
		require.NoError(t, err)

		_, err = set.Add(ctx, 1.0)
		require.NoError(t, err)
		_, err = set.Add(ctx, 1)
		require.NoError(t, err)

		n, err := set.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("With pop draining the set", func(t *testing.T) {
		set, err := NewSet[string](store.NewMemory())
		require.NoError(t, err)
		_, err = set.Add(ctx, "only")
		require.NoError(t, err)

		value, err := set.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, "only", value)

		_, err = set.Pop(ctx)
		require.ErrorIs(t, err, errors.ErrEmptyCollection)
	})

	t.Run("With local algebra across stores", func(t *testing.T) {
		left, err := NewSet[string](store.NewMemory())
		require.NoError(t, err)
		right, err := NewSet[string](store.NewMemory())
		require.NoError(t, err)

		_, err = left.Add(ctx, "a", "b")
		require.NoError(t, err)
		_, err = right.Add(ctx, "b", "c")
		require.NoError(t, err)

		union, err := left.Union(ctx, right)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, union.ToSlice())

		inter, err := left.Intersection(ctx, right)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, inter.ToSlice())

		diff, err := left.Difference(ctx, right)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, diff.ToSlice())
	})

	t.Run("With in-place algebra on one store", func(t *testing.T) {
		mem := store.NewMemory()
		left, err := NewSet[string](mem)
		require.NoError(t, err)
		right, err := NewSet[string](mem)
		require.NoError(t, err)

		_, err = left.Add(ctx, "a", "b")
		require.NoError(t, err)
		_, err = right.Add(ctx, "b", "c")
		require.NoError(t, err)

		require.NoError(t, left.UnionUpdate(ctx, right))
		members, err := left.Members(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, members.ToSlice())

		require.NoError(t, left.DifferenceUpdate(ctx, right))
		members, err = left.Members(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, members.ToSlice())
	})

	t.Run("With in-place algebra refused across stores", func(t *testing.T) {
		left, err := NewSet[string](store.NewMemory())
		require.NoError(t, err)
		right, err := NewSet[string](store.NewMemory())
		require.NoError(t, err)

		err = left.UnionUpdate(ctx, right)
		require.ErrorIs(t, err, errors.ErrCrossStore)
		err = left.IntersectionUpdate(ctx, right)
		require.ErrorIs(t, err, errors.ErrCrossStore)
	})

	t.Run("With subset superset and disjoint predicates", func(t *testing.T) {
		mem := store.NewMemory()
		small, err := NewSet[int](mem)
		require.NoError(t, err)
		big, err := NewSet[int](mem)
		require.NoError(t, err)
		other, err := NewSet[int](store.NewMemory())
		require.NoError(t, err)

		_, err = small.Add(ctx, 1, 2)
		require.NoError(t, err)
		_, err = big.Add(ctx, 1, 2, 3)
		require.NoError(t, err)
		_, err = other.Add(ctx, 9)
		require.NoError(t, err)

		ok, err := small.IsSubset(ctx, big)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = big.IsSuperset(ctx, small)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = small.IsDisjoint(ctx, other)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = small.IsDisjoint(ctx, big)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("With incremental iteration", func(t *testing.T) {
		set, err := NewSet[string](store.NewMemory())
		require.NoError(t, err)
		_, err = set.Add(ctx, "a", "b", "c")
		require.NoError(t, err)

		var seen []string
		err = set.Range(ctx, func(value string) bool {
			seen = append(seen, value)
			return true
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
	})

	t.Run("With random sampling leaving the set intact", func(t *testing.T) {
		set, err := NewSet[string](store.NewMemory())
		require.NoError(t, err)
		_, err = set.Add(ctx, "a", "b", "c")
		require.NoError(t, err)

		sample, err := set.RandomSample(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, sample, 2)

		n, err := set.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})
}
