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
	"sort"
	"strconv"

	"github.com/redis-collections/redis-collections/codec"
	"github.com/redis-collections/redis-collections/errors"
)

// Count pairs a counted key with its tally.
type Count[K comparable] struct {
	Key   K
	Count int64
}

// Counter tallies occurrences of keys in a remote hash. Counts live on the
// server as decimal integers and are adjusted with atomic increments, so
// concurrent writers from any number of processes never lose updates. Absent
// keys count as zero; a key whose count reaches zero stays stored until
// removed.
type Counter[K comparable] struct {
	base
	keys codec.KeyCodec[K]
}

// enforce compilation error
var _ persisted = (*Counter[string])(nil)

// NewCounter creates a Counter bound to the given store.
func NewCounter[K comparable](st Store, opts ...Option) (*Counter[K], error) {
	config := newOptions(opts...)
	b, err := newBase(st, config)
	if err != nil {
		return nil, err
	}
	keyCodec, err := resolveKeyCodec[K](config.keyCodec)
	if err != nil {
		return nil, err
	}
	return &Counter[K]{
		base: b,
		keys: keyCodec,
	}, nil
}

// Inc atomically adds delta to key's count and returns the new count. A
// negative delta decrements.
func (c *Counter[K]) Inc(ctx context.Context, key K, delta int64) (int64, error) {
	field, err := c.encodeKey(key)
	if err != nil {
		return 0, err
	}
	return c.store.HIncrBy(ctx, c.key, field, delta)
}

// Dec atomically subtracts delta from key's count and returns the new count.
func (c *Counter[K]) Dec(ctx context.Context, key K, delta int64) (int64, error) {
	return c.Inc(ctx, key, -delta)
}

// Get returns key's count. Absent keys count as zero.
func (c *Counter[K]) Get(ctx context.Context, key K) (int64, error) {
	field, err := c.encodeKey(key)
	if err != nil {
		return 0, err
	}
	data, err := c.store.HGet(ctx, c.key, field)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return parseCount(data)
}

// Set overwrites key's count.
func (c *Counter[K]) Set(ctx context.Context, key K, count int64) error {
	field, err := c.encodeKey(key)
	if err != nil {
		return err
	}
	return c.store.HSet(ctx, c.key, map[string][]byte{
		field: []byte(strconv.FormatInt(count, 10)),
	})
}

// Update adds the given counts to the stored tallies. Each key is one atomic
// increment; addition commutes, so the application order does not matter.
func (c *Counter[K]) Update(ctx context.Context, counts map[K]int64) error {
	for key, delta := range counts {
		if _, err := c.Inc(ctx, key, delta); err != nil {
			return err
		}
	}
	return nil
}

// Subtract subtracts the given counts from the stored tallies.
func (c *Counter[K]) Subtract(ctx context.Context, counts map[K]int64) error {
	for key, delta := range counts {
		if _, err := c.Inc(ctx, key, -delta); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes key's tally entirely and returns its final count. Removing
// an absent key yields zero. The read and the delete are two commands; a
// concurrent increment can slip in between, in which case the stale count is
// returned and the incremented tally is the one deleted.
func (c *Counter[K]) Remove(ctx context.Context, key K) (int64, error) {
	field, err := c.encodeKey(key)
	if err != nil {
		return 0, err
	}
	count, err := c.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if _, err := c.store.HDel(ctx, c.key, field); err != nil {
		return 0, err
	}
	return count, nil
}

// Contains reports whether key has a stored tally, regardless of its value.
func (c *Counter[K]) Contains(ctx context.Context, key K) (bool, error) {
	field, err := c.encodeKey(key)
	if err != nil {
		return false, err
	}
	return c.store.HExists(ctx, c.key, field)
}

// Len returns the number of distinct keys with a stored tally.
func (c *Counter[K]) Len(ctx context.Context) (int64, error) {
	return c.store.HLen(ctx, c.key)
}

// Total returns the sum of all stored counts.
func (c *Counter[K]) Total(ctx context.Context) (int64, error) {
	counts, err := c.Items(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range counts {
		total += entry.Count
	}
	return total, nil
}

// Items returns every stored tally. Order is unspecified.
func (c *Counter[K]) Items(ctx context.Context) ([]Count[K], error) {
	fields, err := c.store.HGetAll(ctx, c.key)
	if err != nil {
		return nil, err
	}
	counts := make([]Count[K], 0, len(fields))
	for field, data := range fields {
		key, err := c.keys.DecodeKey(field)
		if err != nil {
			return nil, errors.NewSerializationError(err)
		}
		count, err := parseCount(data)
		if err != nil {
			return nil, err
		}
		counts = append(counts, Count[K]{Key: key, Count: count})
	}
	return counts, nil
}

// MostCommon returns the n highest tallies, largest first. n <= 0 returns all
// of them. Ties order arbitrarily.
func (c *Counter[K]) MostCommon(ctx context.Context, n int) ([]Count[K], error) {
	counts, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if n > 0 && n < len(counts) {
		counts = counts[:n]
	}
	return counts, nil
}

func (c *Counter[K]) encodeKey(key K) (string, error) {
	field, err := c.keys.EncodeKey(key)
	if err != nil {
		return "", errors.NewSerializationError(err)
	}
	return field, nil
}

func parseCount(data []byte) (int64, error) {
	count, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, errors.NewSerializationError(err)
	}
	return count, nil
}
