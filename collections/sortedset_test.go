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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redis-collections/redis-collections/errors"
	"github.com/redis-collections/redis-collections/store"
)

func planets(t *testing.T) *SortedSetCounter[string] {
	t.Helper()
	z, err := NewSortedSetCounter[string](store.NewMemory())
	require.NoError(t, err)
	require.NoError(t, z.SetScores(context.TODO(),
		Scored[string]{Value: "venus", Score: 0.72},
		Scored[string]{Value: "mercury", Score: 0.39},
		Scored[string]{Value: "earth", Score: 1.0},
	))
	return z
}

func TestSortedSetCounter(t *testing.T) {
	ctx := context.TODO()

	t.Run("With members ordered by score", func(t *testing.T) {
		z := planets(t)

		items, err := z.Items(ctx, 0, -1, false)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "mercury", items[0].Value)
		assert.Equal(t, "venus", items[1].Value)
		assert.Equal(t, "earth", items[2].Value)

		reversed, err := z.Items(ctx, 0, 0, true)
		require.NoError(t, err)
		require.Len(t, reversed, 1)
		assert.Equal(t, "earth", reversed[0].Value)
	})

	t.Run("With one entry per member on overwrite", func(t *testing.T) {
		z := planets(t)
		require.NoError(t, z.SetScore(ctx, "earth", 1.5))

		n, err := z.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		score, err := z.GetScore(ctx, "earth")
		require.NoError(t, err)
		assert.Equal(t, 1.5, score)
	})

	t.Run("With get or set keeping the first score", func(t *testing.T) {
		z := planets(t)

		score, err := z.GetOrSetScore(ctx, "mars", 1.52)
		require.NoError(t, err)
		assert.Equal(t, 1.52, score)

		score, err = z.GetOrSetScore(ctx, "mars", 9.99)
		require.NoError(t, err)
		assert.Equal(t, 1.52, score)
	})

	t.Run("With score increments", func(t *testing.T) {
		z := planets(t)

		score, err := z.IncrementScore(ctx, "earth", 0.5)
		require.NoError(t, err)
		assert.Equal(t, 1.5, score)

		score, err = z.IncrementScore(ctx, "pluto", 39.5)
		require.NoError(t, err)
		assert.Equal(t, 39.5, score)
	})

	t.Run("With ranks in both directions", func(t *testing.T) {
		z := planets(t)

		rank, err := z.Rank(ctx, "mercury", false)
		require.NoError(t, err)
		assert.EqualValues(t, 0, rank)

		rank, err = z.Rank(ctx, "mercury", true)
		require.NoError(t, err)
		assert.EqualValues(t, 2, rank)

		_, err = z.Rank(ctx, "pluto", false)
		require.ErrorIs(t, err, errors.ErrKeyNotFound)
	})

	t.Run("With score range queries", func(t *testing.T) {
		z := planets(t)

		count, err := z.CountBetween(ctx, 0.5, 1.0)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		items, err := z.ItemsByScore(ctx, 0.5, 1.0, false)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "venus", items[0].Value)
		assert.Equal(t, "earth", items[1].Value)

		all, err := z.ItemsByScore(ctx, math.Inf(-1), math.Inf(1), false)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("With removals by member rank and score", func(t *testing.T) {
		z := planets(t)

		require.NoError(t, z.Remove(ctx, "venus"))
		err := z.Remove(ctx, "venus")
		require.ErrorIs(t, err, errors.ErrKeyNotFound)

		removed, err := z.DiscardByRank(ctx, 0, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		removed, err = z.DiscardByScore(ctx, 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		n, err := z.Len(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("With non-finite scores rejected", func(t *testing.T) {
		z := planets(t)

		err := z.SetScore(ctx, "bad", math.NaN())
		require.ErrorIs(t, err, errors.ErrInvalidScore)
		err = z.SetScore(ctx, "bad", math.Inf(1))
		require.ErrorIs(t, err, errors.ErrInvalidScore)

		n, err := z.Len(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("With contains and incremental iteration", func(t *testing.T) {
		z := planets(t)

		ok, err := z.Contains(ctx, "venus")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = z.Contains(ctx, "pluto")
		require.NoError(t, err)
		assert.False(t, ok)

		seen := map[string]float64{}
		err = z.Range(ctx, func(value string, score float64) bool {
			seen[value] = score
			return true
		})
		require.NoError(t, err)
		assert.Len(t, seen, 3)
		assert.Equal(t, 0.39, seen["mercury"])
	})
}
