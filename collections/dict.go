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

// scanBatch is the COUNT hint passed to incremental scans.
const scanBatch = 100

// Item pairs a dictionary key with its value.
type Item[K comparable, V any] struct {
	Key   K
	Value V
}

// Dict is a mapping persisted as a remote hash. Keys are canonicalized to
// strings by the key codec, so keys that canonicalize equally address the
// same entry regardless of their Go type. Values travel through the value
// codec, MessagePack unless configured otherwise.
//
// A Dict holds no local state and may be shared freely between goroutines and
// processes; every method is one or a few store commands.
type Dict[K comparable, V any] struct {
	base
	keys   codec.KeyCodec[K]
	values codec.Codec[V]
}

// enforce compilation error
var _ persisted = (*Dict[string, any])(nil)

// NewDict creates a Dict bound to the given store. Without WithKey the Dict
// starts empty under a fresh random key.
func NewDict[K comparable, V any](st Store, opts ...Option) (*Dict[K, V], error) {
	config := newOptions(opts...)
	b, err := newBase(st, config)
	if err != nil {
		return nil, err
	}
	keyCodec, err := resolveKeyCodec[K](config.keyCodec)
	if err != nil {
		return nil, err
	}
	valueCodec, err := resolveCodec[V](config.valueCodec)
	if err != nil {
		return nil, err
	}
	return &Dict[K, V]{
		base:   b,
		keys:   keyCodec,
		values: valueCodec,
	}, nil
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (d *Dict[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	field, err := d.encodeKey(key)
	if err != nil {
		return zero, err
	}
	data, err := d.store.HGet(ctx, d.key, field)
	if err != nil {
		return zero, err
	}
	return d.decodeValue(data)
}

// GetDefault returns the value stored under key, or fallback when the key is
// absent. Store failures are still reported.
func (d *Dict[K, V]) GetDefault(ctx context.Context, key K, fallback V) (V, error) {
	value, err := d.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return fallback, nil
		}
		return fallback, err
	}
	return value, nil
}

// GetMany returns the values of the given keys in one round trip. Absent keys
// are simply missing from the result.
func (d *Dict[K, V]) GetMany(ctx context.Context, keys ...K) (map[K]V, error) {
	if len(keys) == 0 {
		return map[K]V{}, nil
	}
	fields := make([]string, len(keys))
	for i, key := range keys {
		field, err := d.encodeKey(key)
		if err != nil {
			return nil, err
		}
		fields[i] = field
	}
	raw, err := d.store.HMGet(ctx, d.key, fields...)
	if err != nil {
		return nil, err
	}
	found := make(map[K]V, len(keys))
	for i, data := range raw {
		if data == nil {
			continue
		}
		value, err := d.decodeValue(data)
		if err != nil {
			return nil, err
		}
		found[keys[i]] = value
	}
	return found, nil
}

// Set stores value under key, overwriting any previous value.
func (d *Dict[K, V]) Set(ctx context.Context, key K, value V) error {
	field, data, err := d.encodeEntry(key, value)
	if err != nil {
		return err
	}
	return d.store.HSet(ctx, d.key, map[string][]byte{field: data})
}

// SetDefault stores value under key only when the key is absent and returns
// the value that ends up stored there.
func (d *Dict[K, V]) SetDefault(ctx context.Context, key K, value V) (V, error) {
	var zero V
	field, data, err := d.encodeEntry(key, value)
	if err != nil {
		return zero, err
	}
	set, err := d.store.HSetNX(ctx, d.key, field, data)
	if err != nil {
		return zero, err
	}
	if set {
		return value, nil
	}
	return d.Get(ctx, key)
}

// Update stores all given entries in one atomic command.
func (d *Dict[K, V]) Update(ctx context.Context, entries map[K]V) error {
	if len(entries) == 0 {
		return nil
	}
	fields := make(map[string][]byte, len(entries))
	for key, value := range entries {
		field, data, err := d.encodeEntry(key, value)
		if err != nil {
			return err
		}
		fields[field] = data
	}
	return d.store.HSet(ctx, d.key, fields)
}

// Delete removes the entry under key, or returns ErrKeyNotFound when there is
// none.
func (d *Dict[K, V]) Delete(ctx context.Context, key K) error {
	field, err := d.encodeKey(key)
	if err != nil {
		return err
	}
	removed, err := d.store.HDel(ctx, d.key, field)
	if err != nil {
		return err
	}
	if removed == 0 {
		return errors.NewErrFieldNotFound(d.key, field)
	}
	return nil
}

// Discard removes the entries under the given keys and returns how many
// existed. Absent keys are not an error.
func (d *Dict[K, V]) Discard(ctx context.Context, keys ...K) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	fields := make([]string, len(keys))
	for i, key := range keys {
		field, err := d.encodeKey(key)
		if err != nil {
			return 0, err
		}
		fields[i] = field
	}
	return d.store.HDel(ctx, d.key, fields...)
}

// Pop removes the entry under key and returns its value, or ErrKeyNotFound.
// The read and the delete are two commands; a concurrent writer can slip a
// new value in between, in which case that value is the one deleted.
func (d *Dict[K, V]) Pop(ctx context.Context, key K) (V, error) {
	var zero V
	value, err := d.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	field, err := d.encodeKey(key)
	if err != nil {
		return zero, err
	}
	if _, err := d.store.HDel(ctx, d.key, field); err != nil {
		return zero, err
	}
	return value, nil
}

// Contains reports whether key has a value.
func (d *Dict[K, V]) Contains(ctx context.Context, key K) (bool, error) {
	field, err := d.encodeKey(key)
	if err != nil {
		return false, err
	}
	return d.store.HExists(ctx, d.key, field)
}

// Len returns the number of entries.
func (d *Dict[K, V]) Len(ctx context.Context) (int64, error) {
	return d.store.HLen(ctx, d.key)
}

// Keys returns every key. Order is unspecified.
func (d *Dict[K, V]) Keys(ctx context.Context) ([]K, error) {
	fields, err := d.store.HGetAll(ctx, d.key)
	if err != nil {
		return nil, err
	}
	keys := make([]K, 0, len(fields))
	for field := range fields {
		key, err := d.decodeKey(field)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Values returns every value. Order is unspecified.
func (d *Dict[K, V]) Values(ctx context.Context) ([]V, error) {
	fields, err := d.store.HGetAll(ctx, d.key)
	if err != nil {
		return nil, err
	}
	values := make([]V, 0, len(fields))
	for _, data := range fields {
		value, err := d.decodeValue(data)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// Items returns every entry. Order is unspecified.
func (d *Dict[K, V]) Items(ctx context.Context) ([]Item[K, V], error) {
	fields, err := d.store.HGetAll(ctx, d.key)
	if err != nil {
		return nil, err
	}
	items := make([]Item[K, V], 0, len(fields))
	for field, data := range fields {
		key, err := d.decodeKey(field)
		if err != nil {
			return nil, err
		}
		value, err := d.decodeValue(data)
		if err != nil {
			return nil, err
		}
		items = append(items, Item[K, V]{Key: key, Value: value})
	}
	return items, nil
}

// Range calls fn for each entry, fetching them incrementally so that large
// dictionaries never materialize in one response. fn returning false stops
// the walk. Entries written or removed during the walk may or may not be
// seen.
func (d *Dict[K, V]) Range(ctx context.Context, fn func(key K, value V) bool) error {
	var cursor uint64
	for {
		fields, next, err := d.store.HScan(ctx, d.key, cursor, scanBatch)
		if err != nil {
			return err
		}
		for field, data := range fields {
			key, err := d.decodeKey(field)
			if err != nil {
				return err
			}
			value, err := d.decodeValue(data)
			if err != nil {
				return err
			}
			if !fn(key, value) {
				return nil
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Copy duplicates the Dict's data under a new key on the same store and
// returns a Dict bound to it. The copy inherits the source's codecs unless
// the options override them.
func (d *Dict[K, V]) Copy(ctx context.Context, opts ...Option) (*Dict[K, V], error) {
	dup, err := NewDict[K, V](d.store, opts...)
	if err != nil {
		return nil, err
	}
	if err := d.store.Copy(ctx, d.key, dup.key); err != nil &&
		!stderrors.Is(err, errors.ErrKeyNotFound) {
		return nil, err
	}
	return dup, nil
}

func (d *Dict[K, V]) encodeKey(key K) (string, error) {
	field, err := d.keys.EncodeKey(key)
	if err != nil {
		return "", errors.NewSerializationError(err)
	}
	return field, nil
}

func (d *Dict[K, V]) decodeKey(field string) (K, error) {
	key, err := d.keys.DecodeKey(field)
	if err != nil {
		var zero K
		return zero, errors.NewSerializationError(err)
	}
	return key, nil
}

func (d *Dict[K, V]) encodeEntry(key K, value V) (string, []byte, error) {
	if err := guardValue(value); err != nil {
		return "", nil, err
	}
	field, err := d.encodeKey(key)
	if err != nil {
		return "", nil, err
	}
	data, err := d.values.Encode(value)
	if err != nil {
		return "", nil, errors.NewSerializationError(err)
	}
	return field, data, nil
}

func (d *Dict[K, V]) decodeValue(data []byte) (V, error) {
	value, err := d.values.Decode(data)
	if err != nil {
		var zero V
		return zero, errors.NewSerializationError(err)
	}
	return value, nil
}
