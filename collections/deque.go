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
	stderrors "errors"

	"github.com/redis-collections/redis-collections/codec"
	"github.com/redis-collections/redis-collections/errors"
)

// Deque is a double-ended queue persisted as a remote list. Both ends push
// and pop in constant time. With WithMaxLen the deque is bounded: appending
// to a full deque drops elements from the opposite end, the way a ring buffer
// does.
type Deque[V any] struct {
	base
	values codec.Codec[V]
	maxLen int
}

// enforce compilation error
var _ persisted = (*Deque[any])(nil)

// NewDeque creates a Deque bound to the given store, unbounded unless
// WithMaxLen is given.
func NewDeque[V any](st Store, opts ...Option) (*Deque[V], error) {
	config := newOptions(opts...)
	b, err := newBase(st, config)
	if err != nil {
		return nil, err
	}
	valueCodec, err := resolveCodec[V](config.valueCodec)
	if err != nil {
		return nil, err
	}
	return &Deque[V]{
		base:   b,
		values: valueCodec,
		maxLen: config.capacity,
	}, nil
}

// MaxLen returns the configured bound, zero meaning unbounded.
func (d *Deque[V]) MaxLen() int {
	return d.maxLen
}

// Append adds the values to the right end. On a bounded deque, elements
// beyond the bound fall off the left end. The push and the trim are two
// commands; between them a concurrent reader can observe the deque above its
// bound.
func (d *Deque[V]) Append(ctx context.Context, values ...V) error {
	if len(values) == 0 {
		return nil
	}
	encoded, err := d.encodeValues(values)
	if err != nil {
		return err
	}
	if err := d.store.RPush(ctx, d.key, encoded...); err != nil {
		return err
	}
	if d.maxLen > 0 {
		return d.store.LTrim(ctx, d.key, -int64(d.maxLen), -1)
	}
	return nil
}

// AppendLeft adds the values to the left end, so the last argument ends up
// leftmost. On a bounded deque, elements beyond the bound fall off the right
// end. The push and the trim are two commands; between them a concurrent
// reader can observe the deque above its bound.
func (d *Deque[V]) AppendLeft(ctx context.Context, values ...V) error {
	if len(values) == 0 {
		return nil
	}
	encoded, err := d.encodeValues(values)
	if err != nil {
		return err
	}
	if err := d.store.LPush(ctx, d.key, encoded...); err != nil {
		return err
	}
	if d.maxLen > 0 {
		return d.store.LTrim(ctx, d.key, 0, int64(d.maxLen)-1)
	}
	return nil
}

// Pop removes and returns the rightmost element, or ErrEmptyCollection.
func (d *Deque[V]) Pop(ctx context.Context) (V, error) {
	var zero V
	data, err := d.store.RPop(ctx, d.key)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return zero, errors.ErrEmptyCollection
		}
		return zero, err
	}
	return d.decodeValue(data)
}

// PopLeft removes and returns the leftmost element, or ErrEmptyCollection.
func (d *Deque[V]) PopLeft(ctx context.Context) (V, error) {
	var zero V
	data, err := d.store.LPop(ctx, d.key)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return zero, errors.ErrEmptyCollection
		}
		return zero, err
	}
	return d.decodeValue(data)
}

// Rotate moves n elements from the right end to the left end, one at a time.
// Negative n rotates the other way. Rotating an empty deque does nothing.
func (d *Deque[V]) Rotate(ctx context.Context, n int) error {
	steps := n
	fromRight := true
	if steps < 0 {
		steps = -steps
		fromRight = false
	}
	for i := 0; i < steps; i++ {
		var data []byte
		var err error
		if fromRight {
			data, err = d.store.RPop(ctx, d.key)
		} else {
			data, err = d.store.LPop(ctx, d.key)
		}
		if err != nil {
			if stderrors.Is(err, errors.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		if fromRight {
			err = d.store.LPush(ctx, d.key, data)
		} else {
			err = d.store.RPush(ctx, d.key, data)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of elements.
func (d *Deque[V]) Len(ctx context.Context) (int64, error) {
	return d.store.LLen(ctx, d.key)
}

// All returns every element, left to right.
func (d *Deque[V]) All(ctx context.Context) ([]V, error) {
	raw, err := d.store.LRange(ctx, d.key, 0, -1)
	if err != nil {
		return nil, err
	}
	values := make([]V, len(raw))
	for i, data := range raw {
		value, err := d.decodeValue(data)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func (d *Deque[V]) encodeValues(values []V) ([][]byte, error) {
	encoded := make([][]byte, len(values))
	for i, value := range values {
		if err := guardValue(value); err != nil {
			return nil, err
		}
		data, err := d.values.Encode(value)
		if err != nil {
			return nil, errors.NewSerializationError(err)
		}
		encoded[i] = data
	}
	return encoded, nil
}

func (d *Deque[V]) decodeValue(data []byte) (V, error) {
	value, err := d.values.Decode(data)
	if err != nil {
		var zero V
		return zero, errors.NewSerializationError(err)
	}
	return value, nil
}
