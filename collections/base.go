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

// Package collections provides Go collections persisted in a remote key-value
// store. Each collection is a thin proxy: it holds no local state beyond its
// key, and every operation translates to one or a few store commands, so two
// processes sharing a key and a store observe each other's writes.
//
// Three families are provided. The proxy collections (Dict, Counter, List,
// Deque, Set, SortedSetCounter) go to the store on every call. LRUDict keeps
// a bounded local working set and evicts least-recently-used entries to the
// store. The Sync* collections operate entirely on local state and persist in
// one atomic batch when told to.
//
// Collections are not persistent values themselves and must never be stored
// as elements of another collection; constructors and write paths reject such
// values with ErrNestedCollection.
package collections

import (
	"context"
	stderrors "errors"

	"github.com/redis-collections/redis-collections/errors"
	"github.com/redis-collections/redis-collections/log"
	"github.com/redis-collections/redis-collections/store"
)

// Store is the remote store surface the collections consume, re-exported so
// that callers constructing collections need not import the store package by
// name.
type Store = store.Store

// persisted is satisfied by every collection in this package. It exists so
// that write paths can detect a collection being used as an element value.
type persisted interface {
	// Key returns the remote key the collection is bound to.
	Key() string
	// Store returns the store the collection is bound to.
	Store() store.Store
}

// base carries the identity shared by every persisted collection.
type base struct {
	key    string
	store  store.Store
	logger log.Logger
}

func newBase(st store.Store, config *options) (base, error) {
	if st == nil {
		return base{}, errors.NewUsageError(stderrors.New("store is required"))
	}
	if err := config.Validate(); err != nil {
		return base{}, err
	}
	return base{
		key:    config.resolvedKey(),
		store:  st,
		logger: config.logger,
	}, nil
}

// Key returns the remote key the collection stores its data under. Hold on to
// it to reattach to the same data later or from another process.
func (b *base) Key() string {
	return b.key
}

// Store returns the store the collection is bound to.
func (b *base) Store() store.Store {
	return b.store
}

// Exists reports whether any data is currently stored under the collection's
// key. Empty collections occupy no remote key, so a drained collection stops
// existing.
func (b *base) Exists(ctx context.Context) (bool, error) {
	return b.store.Exists(ctx, b.key)
}

// Clear removes all of the collection's remote data.
func (b *base) Clear(ctx context.Context) error {
	if err := b.store.Delete(ctx, b.key); err != nil {
		return err
	}
	b.logger.Debugf("cleared key=(%s)", b.key)
	return nil
}

// guardValue rejects persisted collections used as element values.
func guardValue(value any) error {
	if _, ok := value.(persisted); ok {
		return errors.NewUsageError(errors.ErrNestedCollection)
	}
	return nil
}

// sameStore verifies that every collection lives on one endpoint before a
// server-side multi-key command is issued.
func sameStore(first store.Store, rest ...store.Store) error {
	for _, other := range rest {
		if !store.Same(first, other) {
			return errors.ErrCrossStore
		}
	}
	return nil
}
