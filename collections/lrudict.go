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
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/redis-collections/redis-collections/codec"
	"github.com/redis-collections/redis-collections/errors"
)

// LRUDict is a Dict with a bounded local working set. Up to maxsize entries
// (WithMaxSize) live in process memory; the rest live in the remote hash. The
// local tier always holds the freshest value for the keys it contains.
//
// Reading a remote entry moves it into the local tier; inserting into a full
// local tier first evicts the least-recently-used local entry to the remote
// tier. Evictions that fail to write remotely abort the triggering operation
// and the victim stays local, so no entry is ever lost to a store outage.
//
// With maxsize zero there is no local tier and the LRUDict behaves exactly
// like a Dict.
//
// Unlike the other collections, an LRUDict has per-instance mutable state.
// Methods are safe for concurrent use within one process, but two instances
// bound to the same key do not see each other's local tiers.
type LRUDict[K comparable, V any] struct {
	base
	keys    codec.KeyCodec[K]
	values  codec.Codec[V]
	maxSize int

	mu    sync.Mutex
	local *simplelru.LRU[string, V]
}

// enforce compilation error
var _ persisted = (*LRUDict[string, any])(nil)

// NewLRUDict creates an LRUDict bound to the given store. WithMaxSize bounds
// the local tier; without it the default is 1024.
func NewLRUDict[K comparable, V any](st Store, opts ...Option) (*LRUDict[K, V], error) {
	config := newOptions(opts...)
	if !config.hasCap {
		config.capacity = 1024
		config.hasCap = true
	}
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

	cache := &LRUDict[K, V]{
		base:    b,
		keys:    keyCodec,
		values:  valueCodec,
		maxSize: config.capacity,
	}
	if cache.maxSize > 0 {
		local, err := simplelru.NewLRU[string, V](cache.maxSize, nil)
		if err != nil {
			return nil, errors.NewUsageError(err)
		}
		cache.local = local
	}
	return cache, nil
}

// MaxSize returns the bound of the local tier, zero meaning no local tier.
func (c *LRUDict[K, V]) MaxSize() int {
	return c.maxSize
}

func (c *LRUDict[K, V]) lock() {
	c.mu.Lock()
}

func (c *LRUDict[K, V]) unlock() {
	c.mu.Unlock()
}

// Get returns the value stored under key, or ErrKeyNotFound. A hit in the
// remote tier moves the entry into the local tier and marks it most recently
// used.
func (c *LRUDict[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	field, err := c.encodeKey(key)
	if err != nil {
		return zero, err
	}

	c.lock()
	defer c.unlock()

	if c.local != nil {
		if value, ok := c.local.Get(field); ok {
			return value, nil
		}
	}

	data, err := c.store.HGet(ctx, c.key, field)
	if err != nil {
		return zero, err
	}
	value, err := c.decodeValue(data)
	if err != nil {
		return zero, err
	}
	if c.local == nil {
		return value, nil
	}

	// Promotion is a move: the entry leaves the remote tier so later local
	// writes cannot be shadowed by a stale remote copy.
	if err := c.insertLocked(ctx, field, value); err != nil {
		return zero, err
	}
	if _, err := c.store.HDel(ctx, c.key, field); err != nil {
		return zero, err
	}
	c.logger.Debugf("promoted field=(%s) from key=(%s)", field, c.key)
	return value, nil
}

// Set stores value under key, overwriting any previous value in either tier.
func (c *LRUDict[K, V]) Set(ctx context.Context, key K, value V) error {
	if err := guardValue(value); err != nil {
		return err
	}
	field, err := c.encodeKey(key)
	if err != nil {
		return err
	}

	c.lock()
	defer c.unlock()

	if c.local == nil {
		data, err := c.encodeValue(value)
		if err != nil {
			return err
		}
		return c.store.HSet(ctx, c.key, map[string][]byte{field: data})
	}

	if err := c.insertLocked(ctx, field, value); err != nil {
		return err
	}
	// A stale remote copy would resurrect on the next miss.
	_, err = c.store.HDel(ctx, c.key, field)
	return err
}

// Update applies the entries in order, as if by repeated Set. Later entries
// are more recently used than earlier ones.
func (c *LRUDict[K, V]) Update(ctx context.Context, entries ...Item[K, V]) error {
	for _, entry := range entries {
		if err := c.Set(ctx, entry.Key, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the entry under key from whichever tier holds it, or returns
// ErrKeyNotFound.
func (c *LRUDict[K, V]) Delete(ctx context.Context, key K) error {
	field, err := c.encodeKey(key)
	if err != nil {
		return err
	}

	c.lock()
	defer c.unlock()

	removedLocal := false
	if c.local != nil {
		removedLocal = c.local.Remove(field)
	}
	removedRemote, err := c.store.HDel(ctx, c.key, field)
	if err != nil {
		return err
	}
	if !removedLocal && removedRemote == 0 {
		return errors.NewErrFieldNotFound(c.key, field)
	}
	return nil
}

// Contains reports whether key has a value in either tier, without touching
// recency.
func (c *LRUDict[K, V]) Contains(ctx context.Context, key K) (bool, error) {
	field, err := c.encodeKey(key)
	if err != nil {
		return false, err
	}

	c.lock()
	defer c.unlock()

	if c.local != nil && c.local.Contains(field) {
		return true, nil
	}
	return c.store.HExists(ctx, c.key, field)
}

// Len returns the number of distinct keys across both tiers. A key present in
// both (after a Sync) counts once.
func (c *LRUDict[K, V]) Len(ctx context.Context) (int64, error) {
	c.lock()
	defer c.unlock()

	if c.local == nil || c.local.Len() == 0 {
		return c.store.HLen(ctx, c.key)
	}

	var count int64
	remote := make(map[string]struct{})
	var cursor uint64
	for {
		fields, next, err := c.store.HScan(ctx, c.key, cursor, scanBatch)
		if err != nil {
			return 0, err
		}
		for field := range fields {
			if _, seen := remote[field]; !seen {
				remote[field] = struct{}{}
				count++
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	for _, field := range c.local.Keys() {
		if _, seen := remote[field]; !seen {
			count++
		}
	}
	return count, nil
}

// LocalKeys returns the keys currently in the local tier, least recently used
// first. Mostly useful to observe eviction behavior.
func (c *LRUDict[K, V]) LocalKeys() ([]K, error) {
	c.lock()
	defer c.unlock()

	if c.local == nil {
		return nil, nil
	}
	fields := c.local.Keys()
	keys := make([]K, len(fields))
	for i, field := range fields {
		key, err := c.decodeKey(field)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

// Items returns every entry from both tiers, the local tier winning for keys
// present in both. Order is unspecified.
func (c *LRUDict[K, V]) Items(ctx context.Context) ([]Item[K, V], error) {
	c.lock()
	defer c.unlock()

	fields, err := c.store.HGetAll(ctx, c.key)
	if err != nil {
		return nil, err
	}
	items := make([]Item[K, V], 0, len(fields))
	for field, data := range fields {
		if c.local != nil && c.local.Contains(field) {
			continue
		}
		key, err := c.decodeKey(field)
		if err != nil {
			return nil, err
		}
		value, err := c.decodeValue(data)
		if err != nil {
			return nil, err
		}
		items = append(items, Item[K, V]{Key: key, Value: value})
	}
	if c.local == nil {
		return items, nil
	}
	for _, field := range c.local.Keys() {
		key, err := c.decodeKey(field)
		if err != nil {
			return nil, err
		}
		value, _ := c.local.Peek(field)
		items = append(items, Item[K, V]{Key: key, Value: value})
	}
	return items, nil
}

// Sync copies every local entry to the remote tier in one command. The local
// tier stays intact; after a successful Sync the remote hash holds the whole
// dictionary.
func (c *LRUDict[K, V]) Sync(ctx context.Context) error {
	c.lock()
	defer c.unlock()

	if c.local == nil || c.local.Len() == 0 {
		return nil
	}
	fields := make(map[string][]byte, c.local.Len())
	for _, field := range c.local.Keys() {
		value, _ := c.local.Peek(field)
		data, err := c.encodeValue(value)
		if err != nil {
			return err
		}
		fields[field] = data
	}
	if err := c.store.HSet(ctx, c.key, fields); err != nil {
		return err
	}
	c.logger.Debugf("synced entries=(%d) to key=(%s)", len(fields), c.key)
	return nil
}

// Clear empties both tiers.
func (c *LRUDict[K, V]) Clear(ctx context.Context) error {
	c.lock()
	defer c.unlock()

	if c.local != nil {
		c.local.Purge()
	}
	if err := c.store.Delete(ctx, c.key); err != nil {
		return err
	}
	c.logger.Debugf("cleared key=(%s)", c.key)
	return nil
}

// insertLocked places an entry in the local tier, first evicting least
// recently used entries to the remote tier while the insert would overflow.
// A failed eviction write aborts the insert with the victim still local.
func (c *LRUDict[K, V]) insertLocked(ctx context.Context, field string, value V) error {
	for c.local.Len() >= c.maxSize && !c.local.Contains(field) {
		victimField, victimValue, ok := c.local.GetOldest()
		if !ok {
			break
		}
		data, err := c.encodeValue(victimValue)
		if err != nil {
			return err
		}
		if err := c.store.HSet(ctx, c.key, map[string][]byte{victimField: data}); err != nil {
			return err
		}
		c.local.RemoveOldest()
		c.logger.Debugf("evicted field=(%s) to key=(%s)", victimField, c.key)
	}
	c.local.Add(field, value)
	return nil
}

func (c *LRUDict[K, V]) encodeKey(key K) (string, error) {
	field, err := c.keys.EncodeKey(key)
	if err != nil {
		return "", errors.NewSerializationError(err)
	}
	return field, nil
}

func (c *LRUDict[K, V]) decodeKey(field string) (K, error) {
	key, err := c.keys.DecodeKey(field)
	if err != nil {
		var zero K
		return zero, errors.NewSerializationError(err)
	}
	return key, nil
}

func (c *LRUDict[K, V]) encodeValue(value V) ([]byte, error) {
	data, err := c.values.Encode(value)
	if err != nil {
		return nil, errors.NewSerializationError(err)
	}
	return data, nil
}

func (c *LRUDict[K, V]) decodeValue(data []byte) (V, error) {
	value, err := c.values.Decode(data)
	if err != nil {
		var zero V
		return zero, errors.NewSerializationError(err)
	}
	return value, nil
}
