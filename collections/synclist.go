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

	uberatomic "go.uber.org/atomic"

	"github.com/redis-collections/redis-collections/errors"
)

// SyncList is a write-back List: an in-memory slice persisted in one atomic
// replace on Sync. The stored form matches List's, so a List and a SyncList
// can share a key across processes.
type SyncList[V any] struct {
	remote *List[V]
	mu     sync.RWMutex
	data   []V
	dirty  *uberatomic.Bool
}

// enforce compilation error
var _ Syncable = (*SyncList[any])(nil)

// NewSyncList creates a SyncList bound to the given store, loading the
// persisted elements into the mirror.
func NewSyncList[V any](ctx context.Context, st Store, opts ...Option) (*SyncList[V], error) {
	remote, err := NewList[V](st, opts...)
	if err != nil {
		return nil, err
	}
	list := &SyncList[V]{
		remote: remote,
		dirty:  uberatomic.NewBool(false),
	}
	if err := list.Load(ctx); err != nil {
		return nil, err
	}
	return list, nil
}

// Key returns the remote key the list syncs to.
func (l *SyncList[V]) Key() string {
	return l.remote.Key()
}

// Store returns the store the list syncs to.
func (l *SyncList[V]) Store() Store {
	return l.remote.Store()
}

// Load replaces the local elements with the persisted ones and marks the list
// clean.
func (l *SyncList[V]) Load(ctx context.Context) error {
	values, err := l.remote.All(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.data = values
	l.mu.Unlock()
	l.dirty.Store(false)
	return nil
}

// Append adds the values to the end of the list.
func (l *SyncList[V]) Append(values ...V) error {
	for _, value := range values {
		if err := guardValue(value); err != nil {
			return err
		}
	}
	l.mu.Lock()
	l.data = append(l.data, values...)
	l.mu.Unlock()
	l.dirty.Store(true)
	return nil
}

// Get returns the element at index, negative indexes counting from the tail.
func (l *SyncList[V]) Get(index int) (V, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.resolve(index)
	if !ok {
		var zero V
		return zero, errors.NewErrIndexOutOfRange(int64(index))
	}
	return l.data[pos], nil
}

// Set overwrites the element at index.
func (l *SyncList[V]) Set(index int, value V) error {
	if err := guardValue(value); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.resolve(index)
	if !ok {
		return errors.NewErrIndexOutOfRange(int64(index))
	}
	l.data[pos] = value
	l.dirty.Store(true)
	return nil
}

// Pop removes and returns the last element, or ErrEmptyCollection.
func (l *SyncList[V]) Pop() (V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.data) == 0 {
		var zero V
		return zero, errors.ErrEmptyCollection
	}
	last := len(l.data) - 1
	value := l.data[last]
	l.data = l.data[:last]
	l.dirty.Store(true)
	return value, nil
}

// Len returns the number of local elements.
func (l *SyncList[V]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.data)
}

// All returns a snapshot of the local elements in order.
func (l *SyncList[V]) All() []V {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]V(nil), l.data...)
}

// Dirty implements Syncable.
func (l *SyncList[V]) Dirty() bool {
	return l.dirty.Load()
}

// Sync implements Syncable. The write lock is held until the dirty flag is
// cleared, so a concurrent mutation either lands before the replace or
// re-dirties afterwards.
func (l *SyncList[V]) Sync(ctx context.Context) error {
	if !l.dirty.Load() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	encoded, err := l.remote.encodeValues(l.data)
	if err != nil {
		return err
	}
	if err := l.remote.store.LReplace(ctx, l.remote.key, encoded); err != nil {
		return err
	}
	l.remote.logger.Debugf("synced elements=(%d) to key=(%s)", len(encoded), l.remote.key)
	l.dirty.Store(false)
	return nil
}

// resolve maps a possibly negative index onto the slice. Callers hold a lock.
func (l *SyncList[V]) resolve(index int) (int, bool) {
	pos := index
	if pos < 0 {
		pos += len(l.data)
	}
	if pos < 0 || pos >= len(l.data) {
		return 0, false
	}
	return pos, true
}

// SyncDeque is a write-back Deque. With a bound (WithMaxLen), appends beyond
// the bound drop elements from the opposite end locally, and Sync persists at
// most maxlen elements.
type SyncDeque[V any] struct {
	remote *Deque[V]
	mu     sync.RWMutex
	data   []V
	dirty  *uberatomic.Bool
}

// enforce compilation error
var _ Syncable = (*SyncDeque[any])(nil)

// NewSyncDeque creates a SyncDeque bound to the given store, loading the
// persisted elements into the mirror.
func NewSyncDeque[V any](ctx context.Context, st Store, opts ...Option) (*SyncDeque[V], error) {
	remote, err := NewDeque[V](st, opts...)
	if err != nil {
		return nil, err
	}
	deque := &SyncDeque[V]{
		remote: remote,
		dirty:  uberatomic.NewBool(false),
	}
	if err := deque.Load(ctx); err != nil {
		return nil, err
	}
	return deque, nil
}

// Key returns the remote key the deque syncs to.
func (d *SyncDeque[V]) Key() string {
	return d.remote.Key()
}

// Store returns the store the deque syncs to.
func (d *SyncDeque[V]) Store() Store {
	return d.remote.Store()
}

// MaxLen returns the configured bound, zero meaning unbounded.
func (d *SyncDeque[V]) MaxLen() int {
	return d.remote.MaxLen()
}

// Load replaces the local elements with the persisted ones and marks the
// deque clean.
func (d *SyncDeque[V]) Load(ctx context.Context) error {
	values, err := d.remote.All(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.data = values
	d.trim()
	d.mu.Unlock()
	d.dirty.Store(false)
	return nil
}

// Append adds the values to the right end.
func (d *SyncDeque[V]) Append(values ...V) error {
	for _, value := range values {
		if err := guardValue(value); err != nil {
			return err
		}
	}
	d.mu.Lock()
	d.data = append(d.data, values...)
	d.trim()
	d.mu.Unlock()
	d.dirty.Store(true)
	return nil
}

// AppendLeft adds the values to the left end, the last argument ending up
// leftmost.
func (d *SyncDeque[V]) AppendLeft(values ...V) error {
	for _, value := range values {
		if err := guardValue(value); err != nil {
			return err
		}
	}
	d.mu.Lock()
	for _, value := range values {
		d.data = append([]V{value}, d.data...)
	}
	d.trimRight()
	d.mu.Unlock()
	d.dirty.Store(true)
	return nil
}

// Pop removes and returns the rightmost element, or ErrEmptyCollection.
func (d *SyncDeque[V]) Pop() (V, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.data) == 0 {
		var zero V
		return zero, errors.ErrEmptyCollection
	}
	last := len(d.data) - 1
	value := d.data[last]
	d.data = d.data[:last]
	d.dirty.Store(true)
	return value, nil
}

// PopLeft removes and returns the leftmost element, or ErrEmptyCollection.
func (d *SyncDeque[V]) PopLeft() (V, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.data) == 0 {
		var zero V
		return zero, errors.ErrEmptyCollection
	}
	value := d.data[0]
	d.data = d.data[1:]
	d.dirty.Store(true)
	return value, nil
}

// Len returns the number of local elements.
func (d *SyncDeque[V]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.data)
}

// All returns a snapshot of the local elements, left to right.
func (d *SyncDeque[V]) All() []V {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]V(nil), d.data...)
}

// Dirty implements Syncable.
func (d *SyncDeque[V]) Dirty() bool {
	return d.dirty.Load()
}

// Sync implements Syncable. The write lock is held until the dirty flag is
// cleared, so a concurrent mutation either lands before the replace or
// re-dirties afterwards.
func (d *SyncDeque[V]) Sync(ctx context.Context) error {
	if !d.dirty.Load() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	encoded, err := d.remote.encodeValues(d.data)
	if err != nil {
		return err
	}
	if err := d.remote.store.LReplace(ctx, d.remote.key, encoded); err != nil {
		return err
	}
	d.remote.logger.Debugf("synced elements=(%d) to key=(%s)", len(encoded), d.remote.key)
	d.dirty.Store(false)
	return nil
}

// trim drops overflow from the left end. Callers hold the lock.
func (d *SyncDeque[V]) trim() {
	if bound := d.remote.MaxLen(); bound > 0 && len(d.data) > bound {
		d.data = d.data[len(d.data)-bound:]
	}
}

// trimRight drops overflow from the right end. Callers hold the lock.
func (d *SyncDeque[V]) trimRight() {
	if bound := d.remote.MaxLen(); bound > 0 && len(d.data) > bound {
		d.data = d.data[:bound]
	}
}
