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

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	t.Run("With string keys passing through verbatim", func(t *testing.T) {
		keys := CanonicalKey[string]()
		encoded, err := keys.EncodeKey("mercury")
		require.NoError(t, err)
		assert.Equal(t, "mercury", encoded)

		decoded, err := keys.DecodeKey(encoded)
		require.NoError(t, err)
		assert.Equal(t, "mercury", decoded)
	})

	t.Run("With integral numerics sharing one form", func(t *testing.T) {
		ints := CanonicalKey[int]()
		floats := CanonicalKey[float64]()

		fromInt, err := ints.EncodeKey(1)
		require.NoError(t, err)
		fromFloat, err := floats.EncodeKey(1.0)
		require.NoError(t, err)
		assert.Equal(t, fromInt, fromFloat)

		fromNegInt, err := ints.EncodeKey(-42)
		require.NoError(t, err)
		fromNegFloat, err := floats.EncodeKey(-42.0)
		require.NoError(t, err)
		assert.Equal(t, fromNegInt, fromNegFloat)
	})

	t.Run("With non-integral floats keeping a distinct form", func(t *testing.T) {
		floats := CanonicalKey[float64]()
		encoded, err := floats.EncodeKey(1.5)
		require.NoError(t, err)
		assert.Equal(t, "1.5", encoded)

		decoded, err := floats.DecodeKey(encoded)
		require.NoError(t, err)
		assert.Equal(t, 1.5, decoded)
	})

	t.Run("With integer round trips", func(t *testing.T) {
		keys := CanonicalKey[int64]()
		encoded, err := keys.EncodeKey(-9000)
		require.NoError(t, err)
		decoded, err := keys.DecodeKey(encoded)
		require.NoError(t, err)
		assert.EqualValues(t, -9000, decoded)
	})

	t.Run("With boolean keys", func(t *testing.T) {
		keys := CanonicalKey[bool]()
		encoded, err := keys.EncodeKey(true)
		require.NoError(t, err)
		assert.Equal(t, "true", encoded)

		decoded, err := keys.DecodeKey(encoded)
		require.NoError(t, err)
		assert.True(t, decoded)
	})

	t.Run("With struct keys falling back to an opaque form", func(t *testing.T) {
		type point struct {
			X int
			Y int
		}
		keys := CanonicalKey[point]()
		encoded, err := keys.EncodeKey(point{X: 3, Y: 4})
		require.NoError(t, err)
		require.NotEmpty(t, encoded)

		decoded, err := keys.DecodeKey(encoded)
		require.NoError(t, err)
		assert.Equal(t, point{X: 3, Y: 4}, decoded)
	})

	t.Run("With malformed input failing to decode", func(t *testing.T) {
		keys := CanonicalKey[int]()
		_, err := keys.DecodeKey("not-a-number")
		require.Error(t, err)
	})
}
