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

type payload struct {
	Name  string
	Count int
	Tags  []string
}

func TestMsgpack(t *testing.T) {
	t.Run("With struct round trip", func(t *testing.T) {
		values := Msgpack[payload]()
		want := payload{Name: "sensor-1", Count: 3, Tags: []string{"a", "b"}}

		data, err := values.Encode(want)
		require.NoError(t, err)
		got, err := values.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("With deterministic encoding of equal values", func(t *testing.T) {
		values := Msgpack[payload]()
		one, err := values.Encode(payload{Name: "x", Count: 1})
		require.NoError(t, err)
		two, err := values.Encode(payload{Name: "x", Count: 1})
		require.NoError(t, err)
		assert.Equal(t, one, two)
	})

	t.Run("With garbage failing to decode", func(t *testing.T) {
		values := Msgpack[payload]()
		_, err := values.Decode([]byte{0xc1})
		require.Error(t, err)
	})
}

func TestJSON(t *testing.T) {
	values := JSON[payload]()
	want := payload{Name: "sensor-2", Count: 9}

	data, err := values.Encode(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sensor-2")

	got, err := values.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
