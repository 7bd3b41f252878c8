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

// Package codec provides the pluggable value serialization strategies used by
// the persisted collections. A codec pair must round-trip: for every value v
// the codec accepts, Decode(Encode(v)) == v.
package codec

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts domain values to and from the opaque byte strings stored at
// the remote end. Implementations must be stateless and safe for shared use
// by many collections.
type Codec[T any] interface {
	// Encode converts a value into its stored byte representation.
	Encode(value T) ([]byte, error)
	// Decode converts stored bytes back into a value.
	Decode(data []byte) (T, error)
}

// Msgpack returns the default general-purpose codec, backed by MessagePack.
func Msgpack[T any]() Codec[T] {
	return msgpackCodec[T]{}
}

type msgpackCodec[T any] struct{}

func (msgpackCodec[T]) Encode(value T) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (msgpackCodec[T]) Decode(data []byte) (T, error) {
	var value T
	if err := msgpack.Unmarshal(data, &value); err != nil {
		return value, err
	}
	return value, nil
}

// JSON returns a codec backed by encoding/json, for deployments where stored
// values must stay readable by other tooling.
func JSON[T any]() Codec[T] {
	return jsonCodec[T]{}
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (jsonCodec[T]) Decode(data []byte) (T, error) {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return value, err
	}
	return value, nil
}
