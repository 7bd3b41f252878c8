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

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/redis-collections/redis-collections/codec"
	"github.com/redis-collections/redis-collections/errors"
)

// Set is an unordered collection of distinct values persisted as a remote
// set. Members are canonicalized to strings by the key codec, so values that
// canonicalize equally are one member.
//
// The read-only algebra (Union, Intersection, Difference and the predicates)
// materializes the operands locally and therefore works across sets bound to
// different stores. The in-place algebra (UnionUpdate and friends) runs as a
// single server-side command and requires every operand to live on the same
// endpoint; otherwise it fails with ErrCrossStore.
type Set[V comparable] struct {
	base
	members codec.KeyCodec[V]
}

// enforce compilation error
var _ persisted = (*Set[string])(nil)

// NewSet creates a Set bound to the given store.
func NewSet[V comparable](st Store, opts ...Option) (*Set[V], error) {
	config := newOptions(opts...)
	b, err := newBase(st, config)
	if err != nil {
		return nil, err
	}
	memberCodec, err := resolveKeyCodec[V](config.keyCodec)
	if err != nil {
		return nil, err
	}
	return &Set[V]{
		base:    b,
		members: memberCodec,
	}, nil
}

// Add inserts the values and returns how many were not already present.
func (s *Set[V]) Add(ctx context.Context, values ...V) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	encoded, err := s.encodeMembers(values)
	if err != nil {
		return 0, err
	}
	return s.store.SAdd(ctx, s.key, encoded...)
}

// Remove deletes value, or returns ErrKeyNotFound when it is not a member.
func (s *Set[V]) Remove(ctx context.Context, value V) error {
	removed, err := s.Discard(ctx, value)
	if err != nil {
		return err
	}
	if removed == 0 {
		return errors.NewErrKeyNotFound(s.key)
	}
	return nil
}

// Discard deletes the values that are members and returns how many were.
func (s *Set[V]) Discard(ctx context.Context, values ...V) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	encoded, err := s.encodeMembers(values)
	if err != nil {
		return 0, err
	}
	return s.store.SRem(ctx, s.key, encoded...)
}

// Contains reports membership.
func (s *Set[V]) Contains(ctx context.Context, value V) (bool, error) {
	member, err := s.encodeMember(value)
	if err != nil {
		return false, err
	}
	return s.store.SIsMember(ctx, s.key, member)
}

// Len returns the cardinality.
func (s *Set[V]) Len(ctx context.Context) (int64, error) {
	return s.store.SCard(ctx, s.key)
}

// Pop removes and returns one arbitrary member, or ErrEmptyCollection.
func (s *Set[V]) Pop(ctx context.Context) (V, error) {
	var zero V
	data, err := s.store.SPop(ctx, s.key)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return zero, errors.ErrEmptyCollection
		}
		return zero, err
	}
	return s.decodeMember(data)
}

// RandomSample returns up to n distinct members without removing them.
func (s *Set[V]) RandomSample(ctx context.Context, n int64) ([]V, error) {
	raw, err := s.store.SRandMember(ctx, s.key, n)
	if err != nil {
		return nil, err
	}
	return s.decodeMembers(raw)
}

// Members returns every member as a local set.
func (s *Set[V]) Members(ctx context.Context) (mapset.Set[V], error) {
	raw, err := s.store.SMembers(ctx, s.key)
	if err != nil {
		return nil, err
	}
	values, err := s.decodeMembers(raw)
	if err != nil {
		return nil, err
	}
	return mapset.NewThreadUnsafeSet(values...), nil
}

// Range calls fn for each member, fetching them incrementally. fn returning
// false stops the walk.
func (s *Set[V]) Range(ctx context.Context, fn func(value V) bool) error {
	var cursor uint64
	for {
		raw, next, err := s.store.SScan(ctx, s.key, cursor, scanBatch)
		if err != nil {
			return err
		}
		for _, data := range raw {
			value, err := s.decodeMember(data)
			if err != nil {
				return err
			}
			if !fn(value) {
				return nil
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Union returns the union of this set and the others as a local set. The
// operands may live on different stores.
func (s *Set[V]) Union(ctx context.Context, others ...*Set[V]) (mapset.Set[V], error) {
	result, operands, err := s.gatherMembers(ctx, others)
	if err != nil {
		return nil, err
	}
	for _, members := range operands {
		result = result.Union(members)
	}
	return result, nil
}

// Intersection returns the intersection of this set and the others as a
// local set.
func (s *Set[V]) Intersection(ctx context.Context, others ...*Set[V]) (mapset.Set[V], error) {
	result, operands, err := s.gatherMembers(ctx, others)
	if err != nil {
		return nil, err
	}
	for _, members := range operands {
		result = result.Intersect(members)
	}
	return result, nil
}

// Difference returns this set minus the others as a local set.
func (s *Set[V]) Difference(ctx context.Context, others ...*Set[V]) (mapset.Set[V], error) {
	result, operands, err := s.gatherMembers(ctx, others)
	if err != nil {
		return nil, err
	}
	for _, members := range operands {
		result = result.Difference(members)
	}
	return result, nil
}

// UnionUpdate replaces this set with the union of itself and the others, in
// one server-side command. Every operand must live on this set's endpoint.
func (s *Set[V]) UnionUpdate(ctx context.Context, others ...*Set[V]) error {
	keys, err := s.operandKeys(others)
	if err != nil {
		return err
	}
	_, err = s.store.SUnionStore(ctx, s.key, keys...)
	return err
}

// IntersectionUpdate replaces this set with the intersection of itself and
// the others, in one server-side command.
func (s *Set[V]) IntersectionUpdate(ctx context.Context, others ...*Set[V]) error {
	keys, err := s.operandKeys(others)
	if err != nil {
		return err
	}
	_, err = s.store.SInterStore(ctx, s.key, keys...)
	return err
}

// DifferenceUpdate removes every member of the others from this set, in one
// server-side command.
func (s *Set[V]) DifferenceUpdate(ctx context.Context, others ...*Set[V]) error {
	keys, err := s.operandKeys(others)
	if err != nil {
		return err
	}
	_, err = s.store.SDiffStore(ctx, s.key, keys...)
	return err
}

// IsSubset reports whether every member of this set is in other.
func (s *Set[V]) IsSubset(ctx context.Context, other *Set[V]) (bool, error) {
	mine, err := s.Members(ctx)
	if err != nil {
		return false, err
	}
	theirs, err := other.Members(ctx)
	if err != nil {
		return false, err
	}
	return mine.IsSubset(theirs), nil
}

// IsSuperset reports whether this set contains every member of other.
func (s *Set[V]) IsSuperset(ctx context.Context, other *Set[V]) (bool, error) {
	return other.IsSubset(ctx, s)
}

// IsDisjoint reports whether this set and other share no members.
func (s *Set[V]) IsDisjoint(ctx context.Context, other *Set[V]) (bool, error) {
	mine, err := s.Members(ctx)
	if err != nil {
		return false, err
	}
	theirs, err := other.Members(ctx)
	if err != nil {
		return false, err
	}
	return mine.Intersect(theirs).Cardinality() == 0, nil
}

// gatherMembers fetches this set's members and every other set's members
// concurrently. The operands come back in argument order.
func (s *Set[V]) gatherMembers(ctx context.Context, others []*Set[V]) (mapset.Set[V], []mapset.Set[V], error) {
	var mine mapset.Set[V]
	operands := make([]mapset.Set[V], len(others))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		mine, err = s.Members(ctx)
		return err
	})
	for i, other := range others {
		i, other := i, other
		eg.Go(func() error {
			var err error
			operands[i], err = other.Members(ctx)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return mine, operands, nil
}

// operandKeys collects the keys for a server-side multi-set command, checking
// that every operand shares this set's endpoint.
func (s *Set[V]) operandKeys(others []*Set[V]) ([]string, error) {
	keys := make([]string, 0, len(others)+1)
	keys = append(keys, s.key)
	for _, other := range others {
		if err := sameStore(s.store, other.store); err != nil {
			return nil, err
		}
		keys = append(keys, other.key)
	}
	return keys, nil
}

func (s *Set[V]) encodeMember(value V) ([]byte, error) {
	if err := guardValue(value); err != nil {
		return nil, err
	}
	member, err := s.members.EncodeKey(value)
	if err != nil {
		return nil, errors.NewSerializationError(err)
	}
	return []byte(member), nil
}

func (s *Set[V]) encodeMembers(values []V) ([][]byte, error) {
	encoded := make([][]byte, len(values))
	for i, value := range values {
		member, err := s.encodeMember(value)
		if err != nil {
			return nil, err
		}
		encoded[i] = member
	}
	return encoded, nil
}

func (s *Set[V]) decodeMember(data []byte) (V, error) {
	value, err := s.members.DecodeKey(string(data))
	if err != nil {
		var zero V
		return zero, errors.NewSerializationError(err)
	}
	return value, nil
}

func (s *Set[V]) decodeMembers(raw [][]byte) ([]V, error) {
	values := make([]V, len(raw))
	for i, data := range raw {
		value, err := s.decodeMember(data)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}
