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
	"sort"
	"strconv"
	"sync"

	uberatomic "go.uber.org/atomic"
)

// SyncCounter is a write-back Counter: tallies accumulate in process memory
// and persist in one atomic replace on Sync. The stored form matches
// Counter's, so a Counter and a SyncCounter can share a key across processes.
type SyncCounter[K comparable] struct {
	remote *Counter[K]
	mu     sync.RWMutex
	counts map[K]int64
	dirty  *uberatomic.Bool
}

// enforce compilation error
var _ Syncable = (*SyncCounter[string])(nil)

// NewSyncCounter creates a SyncCounter bound to the given store, loading the
// persisted tallies into the mirror.
func NewSyncCounter[K comparable](ctx context.Context, st Store, opts ...Option) (*SyncCounter[K], error) {
	remote, err := NewCounter[K](st, opts...)
	if err != nil {
		return nil, err
	}
	counter := &SyncCounter[K]{
		remote: remote,
		counts: make(map[K]int64),
		dirty:  uberatomic.NewBool(false),
	}
	if err := counter.Load(ctx); err != nil {
		return nil, err
	}
	return counter, nil
}

// Key returns the remote key the counter syncs to.
func (c *SyncCounter[K]) Key() string {
	return c.remote.Key()
}

// Store returns the store the counter syncs to.
func (c *SyncCounter[K]) Store() Store {
	return c.remote.Store()
}

// Load replaces the local tallies with the persisted ones and marks the
// counter clean.
func (c *SyncCounter[K]) Load(ctx context.Context) error {
	items, err := c.remote.Items(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.counts = make(map[K]int64, len(items))
	for _, item := range items {
		c.counts[item.Key] = item.Count
	}
	c.mu.Unlock()
	c.dirty.Store(false)
	return nil
}

// Inc adds delta to key's tally and returns the new count.
func (c *SyncCounter[K]) Inc(key K, delta int64) int64 {
	c.mu.Lock()
	c.counts[key] += delta
	count := c.counts[key]
	c.mu.Unlock()
	c.dirty.Store(true)
	return count
}

// Dec subtracts delta from key's tally and returns the new count.
func (c *SyncCounter[K]) Dec(key K, delta int64) int64 {
	return c.Inc(key, -delta)
}

// Get returns key's tally, zero when absent.
func (c *SyncCounter[K]) Get(key K) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[key]
}

// Set overwrites key's tally.
func (c *SyncCounter[K]) Set(key K, count int64) {
	c.mu.Lock()
	c.counts[key] = count
	c.mu.Unlock()
	c.dirty.Store(true)
}

// Update adds the given counts to the local tallies.
func (c *SyncCounter[K]) Update(counts map[K]int64) {
	c.mu.Lock()
	for key, delta := range counts {
		c.counts[key] += delta
	}
	c.mu.Unlock()
	c.dirty.Store(true)
}

// Subtract subtracts the given counts from the local tallies.
func (c *SyncCounter[K]) Subtract(counts map[K]int64) {
	c.mu.Lock()
	for key, delta := range counts {
		c.counts[key] -= delta
	}
	c.mu.Unlock()
	c.dirty.Store(true)
}

// Delete removes key's tally entirely and reports whether it existed.
func (c *SyncCounter[K]) Delete(key K) bool {
	c.mu.Lock()
	_, ok := c.counts[key]
	delete(c.counts, key)
	c.mu.Unlock()
	if ok {
		c.dirty.Store(true)
	}
	return ok
}

// Len returns the number of distinct keys with a local tally.
func (c *SyncCounter[K]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.counts)
}

// Items returns a snapshot of the local tallies. Order is unspecified.
func (c *SyncCounter[K]) Items() []Count[K] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts := make([]Count[K], 0, len(c.counts))
	for key, count := range c.counts {
		counts = append(counts, Count[K]{Key: key, Count: count})
	}
	return counts
}

// MostCommon returns the n highest local tallies, largest first. n <= 0
// returns all of them.
func (c *SyncCounter[K]) MostCommon(n int) []Count[K] {
	counts := c.Items()
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if n > 0 && n < len(counts) {
		counts = counts[:n]
	}
	return counts
}

// Dirty implements Syncable.
func (c *SyncCounter[K]) Dirty() bool {
	return c.dirty.Load()
}

// Sync implements Syncable. The write lock is held until the dirty flag is
// cleared, so a concurrent mutation either lands before the replace or
// re-dirties afterwards.
func (c *SyncCounter[K]) Sync(ctx context.Context) error {
	if !c.dirty.Load() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fields := make(map[string][]byte, len(c.counts))
	for key, count := range c.counts {
		field, err := c.remote.encodeKey(key)
		if err != nil {
			return err
		}
		fields[field] = []byte(strconv.FormatInt(count, 10))
	}
	if err := c.remote.store.HReplace(ctx, c.remote.key, fields); err != nil {
		return err
	}
	c.remote.logger.Debugf("synced tallies=(%d) to key=(%s)", len(fields), c.remote.key)
	c.dirty.Store(false)
	return nil
}
