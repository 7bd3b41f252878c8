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
	"sync"

	uberatomic "go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/redis-collections/redis-collections/errors"
)

// Syncable is the write-back contract shared by the Sync* collections. Reads
// and writes touch only process memory; Sync persists the whole state in one
// atomic replace. A failed Sync leaves the collection dirty, so a later Sync
// retries the full write.
type Syncable interface {
	// Sync persists the local state. It is a no-op when nothing changed since
	// the last successful Sync.
	Sync(ctx context.Context) error
	// Dirty reports whether local changes await persistence.
	Dirty() bool
}

// WithAutoSync runs fn and then syncs every given collection, whether fn
// succeeded, failed or panicked. The fn error and any sync errors are
// combined into one.
func WithAutoSync(ctx context.Context, fn func() error, collections ...Syncable) (err error) {
	defer func() {
		for _, c := range collections {
			err = multierr.Append(err, c.Sync(ctx))
		}
	}()
	return fn()
}

// SyncDict is a write-back Dict: an in-memory map with a remote hash behind
// it. Mutations are local and cheap; Sync replaces the remote hash with the
// local state atomically. Safe for concurrent use within one process, but
// concurrent writers behind distinct SyncDicts overwrite each other wholesale
// on Sync.
type SyncDict[K comparable, V any] struct {
	remote *Dict[K, V]
	mu     sync.RWMutex
	data   map[K]V
	dirty  *uberatomic.Bool
}

// enforce compilation error
var _ Syncable = (*SyncDict[string, any])(nil)

// NewSyncDict creates a SyncDict bound to the given store, loading the
// persisted contents into the mirror. An absent key starts the mirror empty.
func NewSyncDict[K comparable, V any](ctx context.Context, st Store, opts ...Option) (*SyncDict[K, V], error) {
	remote, err := NewDict[K, V](st, opts...)
	if err != nil {
		return nil, err
	}
	dict := &SyncDict[K, V]{
		remote: remote,
		data:   make(map[K]V),
		dirty:  uberatomic.NewBool(false),
	}
	if err := dict.Load(ctx); err != nil {
		return nil, err
	}
	return dict, nil
}

// Key returns the remote key the dictionary syncs to.
func (d *SyncDict[K, V]) Key() string {
	return d.remote.Key()
}

// Store returns the store the dictionary syncs to.
func (d *SyncDict[K, V]) Store() Store {
	return d.remote.Store()
}

// Load replaces the local state with the persisted state and marks the
// dictionary clean. Unsynced local changes are discarded.
func (d *SyncDict[K, V]) Load(ctx context.Context) error {
	items, err := d.remote.Items(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.data = make(map[K]V, len(items))
	for _, item := range items {
		d.data[item.Key] = item.Value
	}
	d.mu.Unlock()
	d.dirty.Store(false)
	return nil
}

// Get returns the value stored under key.
func (d *SyncDict[K, V]) Get(key K) (V, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	value, ok := d.data[key]
	return value, ok
}

// Set stores value under key and marks the dictionary dirty.
func (d *SyncDict[K, V]) Set(key K, value V) error {
	if err := guardValue(value); err != nil {
		return err
	}
	d.mu.Lock()
	d.data[key] = value
	d.mu.Unlock()
	d.dirty.Store(true)
	return nil
}

// Delete removes the entry under key and reports whether it existed.
func (d *SyncDict[K, V]) Delete(key K) bool {
	d.mu.Lock()
	_, ok := d.data[key]
	delete(d.data, key)
	d.mu.Unlock()
	if ok {
		d.dirty.Store(true)
	}
	return ok
}

// Len returns the number of local entries.
func (d *SyncDict[K, V]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.data)
}

// Items returns a snapshot of the local entries. Order is unspecified.
func (d *SyncDict[K, V]) Items() []Item[K, V] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	items := make([]Item[K, V], 0, len(d.data))
	for key, value := range d.data {
		items = append(items, Item[K, V]{Key: key, Value: value})
	}
	return items
}

// Dirty implements Syncable.
func (d *SyncDict[K, V]) Dirty() bool {
	return d.dirty.Load()
}

// Sync implements Syncable. The remote hash is replaced with the local state
// in one atomic command; observers see either the previous or the new state,
// never a mix. The write lock is held until the dirty flag is cleared, so a
// concurrent Set either lands before the replace or re-dirties afterwards.
func (d *SyncDict[K, V]) Sync(ctx context.Context) error {
	if !d.dirty.Load() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fields := make(map[string][]byte, len(d.data))
	for key, value := range d.data {
		field, data, err := d.remote.encodeEntry(key, value)
		if err != nil {
			return err
		}
		fields[field] = data
	}
	if err := d.remote.store.HReplace(ctx, d.remote.key, fields); err != nil {
		return err
	}
	d.remote.logger.Debugf("synced entries=(%d) to key=(%s)", len(fields), d.remote.key)
	d.dirty.Store(false)
	return nil
}

// SyncDefaultDict is a SyncDict whose reads manufacture missing values with a
// factory, the produced value being stored immediately. Because reading can
// mutate, a SyncDefaultDict is dirty after any Get of an absent key.
type SyncDefaultDict[K comparable, V any] struct {
	*SyncDict[K, V]
	factory func() V
}

// NewSyncDefaultDict creates a SyncDefaultDict with the given factory for
// missing values, loading the persisted contents into the mirror.
func NewSyncDefaultDict[K comparable, V any](ctx context.Context, st Store, factory func() V, opts ...Option) (*SyncDefaultDict[K, V], error) {
	if factory == nil {
		return nil, errors.NewUsageError(stderrors.New("factory is required"))
	}
	inner, err := NewSyncDict[K, V](ctx, st, opts...)
	if err != nil {
		return nil, err
	}
	return &SyncDefaultDict[K, V]{
		SyncDict: inner,
		factory:  factory,
	}, nil
}

// Get returns the value stored under key, inserting a factory-made value
// first when the key is absent.
func (d *SyncDefaultDict[K, V]) Get(key K) V {
	d.mu.Lock()
	defer d.mu.Unlock()
	if value, ok := d.data[key]; ok {
		return value
	}
	value := d.factory()
	d.data[key] = value
	d.dirty.Store(true)
	return value
}
