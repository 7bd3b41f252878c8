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

	"github.com/redis-collections/redis-collections/codec"
	"github.com/redis-collections/redis-collections/errors"
)

// List is a sequence persisted as a remote list. Indexes follow the usual
// convention: zero-based from the head, negative from the tail. Values travel
// through the value codec.
//
// Value equality for Remove, Count and IndexOf is equality of the encoded
// bytes, so it requires the codec to encode equal values identically; the
// default MessagePack codec does.
type List[V any] struct {
	base
	values codec.Codec[V]
}

// enforce compilation error
var _ persisted = (*List[any])(nil)

// NewList creates a List bound to the given store.
func NewList[V any](st Store, opts ...Option) (*List[V], error) {
	config := newOptions(opts...)
	b, err := newBase(st, config)
	if err != nil {
		return nil, err
	}
	valueCodec, err := resolveCodec[V](config.valueCodec)
	if err != nil {
		return nil, err
	}
	return &List[V]{
		base:   b,
		values: valueCodec,
	}, nil
}

// Append adds the values to the end of the list, in argument order, in one
// atomic command.
func (l *List[V]) Append(ctx context.Context, values ...V) error {
	if len(values) == 0 {
		return nil
	}
	encoded, err := l.encodeValues(values)
	if err != nil {
		return err
	}
	return l.store.RPush(ctx, l.key, encoded...)
}

// Get returns the element at index, negative indexes counting from the tail.
// Out-of-range indexes yield ErrIndexOutOfRange.
func (l *List[V]) Get(ctx context.Context, index int64) (V, error) {
	var zero V
	data, err := l.store.LIndex(ctx, l.key, index)
	if err != nil {
		return zero, err
	}
	return l.decodeValue(data)
}

// Set overwrites the element at index. Out-of-range indexes yield
// ErrIndexOutOfRange; a list never grows through Set.
func (l *List[V]) Set(ctx context.Context, index int64, value V) error {
	data, err := l.encodeValue(value)
	if err != nil {
		return err
	}
	return l.store.LSet(ctx, l.key, index, data)
}

// Insert places value before the element at index, negative indexes counting
// from the tail. Indexes beyond either end clamp, so Insert never fails on
// range. The head and tail positions are single commands; an interior insert
// rewrites the list atomically.
func (l *List[V]) Insert(ctx context.Context, index int64, value V) error {
	data, err := l.encodeValue(value)
	if err != nil {
		return err
	}

	size, err := l.store.LLen(ctx, l.key)
	if err != nil {
		return err
	}
	pos := index
	if pos < 0 {
		pos += size
	}
	switch {
	case pos <= 0:
		return l.store.LPush(ctx, l.key, data)
	case pos >= size:
		return l.store.RPush(ctx, l.key, data)
	}

	raw, err := l.store.LRange(ctx, l.key, 0, -1)
	if err != nil {
		return err
	}
	spliced := make([][]byte, 0, len(raw)+1)
	spliced = append(spliced, raw[:pos]...)
	spliced = append(spliced, data)
	spliced = append(spliced, raw[pos:]...)
	return l.store.LReplace(ctx, l.key, spliced)
}

// Pop removes and returns the last element, or ErrEmptyCollection.
func (l *List[V]) Pop(ctx context.Context) (V, error) {
	var zero V
	data, err := l.store.RPop(ctx, l.key)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return zero, errors.ErrEmptyCollection
		}
		return zero, err
	}
	return l.decodeValue(data)
}

// Len returns the number of elements.
func (l *List[V]) Len(ctx context.Context) (int64, error) {
	return l.store.LLen(ctx, l.key)
}

// Slice returns the elements between start and stop inclusive, negative
// indexes counting from the tail. An empty selection yields an empty slice.
func (l *List[V]) Slice(ctx context.Context, start, stop int64) ([]V, error) {
	raw, err := l.store.LRange(ctx, l.key, start, stop)
	if err != nil {
		return nil, err
	}
	return l.decodeValues(raw)
}

// All returns every element in order.
func (l *List[V]) All(ctx context.Context) ([]V, error) {
	return l.Slice(ctx, 0, -1)
}

// Remove deletes the first occurrence of value, or returns ErrKeyNotFound
// when the list holds no equal element.
func (l *List[V]) Remove(ctx context.Context, value V) error {
	data, err := l.encodeValue(value)
	if err != nil {
		return err
	}
	removed, err := l.store.LRem(ctx, l.key, 1, data)
	if err != nil {
		return err
	}
	if removed == 0 {
		return errors.NewErrKeyNotFound(l.key)
	}
	return nil
}

// Count returns the number of elements equal to value.
func (l *List[V]) Count(ctx context.Context, value V) (int64, error) {
	data, err := l.encodeValue(value)
	if err != nil {
		return 0, err
	}
	raw, err := l.store.LRange(ctx, l.key, 0, -1)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, element := range raw {
		if bytes.Equal(element, data) {
			count++
		}
	}
	return count, nil
}

// IndexOf returns the index of the first element equal to value, or
// ErrKeyNotFound.
func (l *List[V]) IndexOf(ctx context.Context, value V) (int64, error) {
	data, err := l.encodeValue(value)
	if err != nil {
		return 0, err
	}
	raw, err := l.store.LRange(ctx, l.key, 0, -1)
	if err != nil {
		return 0, err
	}
	for i, element := range raw {
		if bytes.Equal(element, data) {
			return int64(i), nil
		}
	}
	return 0, errors.NewErrKeyNotFound(l.key)
}

// Trim keeps only the elements between start and stop inclusive and drops the
// rest.
func (l *List[V]) Trim(ctx context.Context, start, stop int64) error {
	return l.store.LTrim(ctx, l.key, start, stop)
}

// Extend appends every element of other to this list. The two lists may live
// on different stores; other is read in full first.
func (l *List[V]) Extend(ctx context.Context, other *List[V]) error {
	values, err := other.All(ctx)
	if err != nil {
		return err
	}
	return l.Append(ctx, values...)
}

func (l *List[V]) encodeValue(value V) ([]byte, error) {
	if err := guardValue(value); err != nil {
		return nil, err
	}
	data, err := l.values.Encode(value)
	if err != nil {
		return nil, errors.NewSerializationError(err)
	}
	return data, nil
}

func (l *List[V]) encodeValues(values []V) ([][]byte, error) {
	encoded := make([][]byte, len(values))
	for i, value := range values {
		data, err := l.encodeValue(value)
		if err != nil {
			return nil, err
		}
		encoded[i] = data
	}
	return encoded, nil
}

func (l *List[V]) decodeValue(data []byte) (V, error) {
	value, err := l.values.Decode(data)
	if err != nil {
		var zero V
		return zero, errors.NewSerializationError(err)
	}
	return value, nil
}

func (l *List[V]) decodeValues(raw [][]byte) ([]V, error) {
	values := make([]V, len(raw))
	for i, data := range raw {
		value, err := l.decodeValue(data)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}
