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

	mapset "github.com/deckarep/golang-set/v2"
	uberatomic "go.uber.org/atomic"

	"github.com/redis-collections/redis-collections/errors"
)

// SyncSet is a write-back Set: a local set persisted in one atomic replace on
// Sync. The stored form matches Set's, so a Set and a SyncSet can share a key
// across processes.
type SyncSet[V comparable] struct {
	remote *Set[V]
	mu     sync.RWMutex
	data   mapset.Set[V]
	dirty  *uberatomic.Bool
}

// enforce compilation error
var _ Syncable = (*SyncSet[string])(nil)

// NewSyncSet creates a SyncSet bound to the given store, loading the
// persisted members into the mirror.
func NewSyncSet[V comparable](ctx context.Context, st Store, opts ...Option) (*SyncSet[V], error) {
	remote, err := NewSet[V](st, opts...)
	if err != nil {
		return nil, err
	}
	set := &SyncSet[V]{
		remote: remote,
		data:   mapset.NewSet[V](),
		dirty:  uberatomic.NewBool(false),
	}
	if err := set.Load(ctx); err != nil {
		return nil, err
	}
	return set, nil
}

// Key returns the remote key the set syncs to.
func (s *SyncSet[V]) Key() string {
	return s.remote.Key()
}

// Store returns the store the set syncs to.
func (s *SyncSet[V]) Store() Store {
	return s.remote.Store()
}

// Load replaces the local members with the persisted ones and marks the set
// clean.
func (s *SyncSet[V]) Load(ctx context.Context) error {
	members, err := s.remote.Members(ctx)
	if err != nil {
		return err
	}
	fresh := mapset.NewSet[V]()
	members.Each(func(value V) bool {
		fresh.Add(value)
		return false
	})
	s.mu.Lock()
	s.data = fresh
	s.mu.Unlock()
	s.dirty.Store(false)
	return nil
}

// Add inserts the values and reports whether any of them was new.
func (s *SyncSet[V]) Add(values ...V) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := false
	for _, value := range values {
		if err := guardValue(value); err != nil {
			return added, err
		}
		if s.data.Add(value) {
			added = true
		}
	}
	if added {
		s.dirty.Store(true)
	}
	return added, nil
}

// Remove deletes value, or returns ErrKeyNotFound when it is not a member.
func (s *SyncSet[V]) Remove(value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.data.Contains(value) {
		return errors.NewErrKeyNotFound(s.remote.key)
	}
	s.data.Remove(value)
	s.dirty.Store(true)
	return nil
}

// Discard deletes the values that are members and reports whether any was.
func (s *SyncSet[V]) Discard(values ...V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for _, value := range values {
		if s.data.Contains(value) {
			s.data.Remove(value)
			removed = true
		}
	}
	if removed {
		s.dirty.Store(true)
	}
	return removed
}

// Contains reports membership.
func (s *SyncSet[V]) Contains(value V) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Contains(value)
}

// Len returns the local cardinality.
func (s *SyncSet[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Cardinality()
}

// Members returns a snapshot of the local members.
func (s *SyncSet[V]) Members() mapset.Set[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Dirty implements Syncable.
func (s *SyncSet[V]) Dirty() bool {
	return s.dirty.Load()
}

// Sync implements Syncable. The write lock is held until the dirty flag is
// cleared, so a concurrent mutation either lands before the replace or
// re-dirties afterwards.
func (s *SyncSet[V]) Sync(ctx context.Context) error {
	if !s.dirty.Load() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := s.remote.encodeMembers(s.data.ToSlice())
	if err != nil {
		return err
	}
	if err := s.remote.store.SReplace(ctx, s.remote.key, encoded); err != nil {
		return err
	}
	s.remote.logger.Debugf("synced members=(%d) to key=(%s)", len(encoded), s.remote.key)
	s.dirty.Store(false)
	return nil
}
