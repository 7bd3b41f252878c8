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
	"math"

	"github.com/redis-collections/redis-collections/codec"
	"github.com/redis-collections/redis-collections/errors"
	"github.com/redis-collections/redis-collections/store"
)

// Scored pairs a member with its score.
type Scored[V comparable] struct {
	Value V
	Score float64
}

// SortedSetCounter maps distinct members to float64 scores, persisted as a
// remote sorted set. Members are kept ordered by score ascending, ties broken
// by the canonical member string, so rank queries and score-range queries are
// served by the store without fetching the whole collection.
//
// Scores must be finite; NaN and the infinities are rejected with
// ErrInvalidScore before any command is issued.
type SortedSetCounter[V comparable] struct {
	base
	members codec.KeyCodec[V]
}

// enforce compilation error
var _ persisted = (*SortedSetCounter[string])(nil)

// NewSortedSetCounter creates a SortedSetCounter bound to the given store.
func NewSortedSetCounter[V comparable](st Store, opts ...Option) (*SortedSetCounter[V], error) {
	config := newOptions(opts...)
	b, err := newBase(st, config)
	if err != nil {
		return nil, err
	}
	memberCodec, err := resolveKeyCodec[V](config.keyCodec)
	if err != nil {
		return nil, err
	}
	return &SortedSetCounter[V]{
		base:    b,
		members: memberCodec,
	}, nil
}

// SetScore upserts the member with the given score: a new member is inserted,
// an existing one has its score overwritten and is reordered accordingly.
func (z *SortedSetCounter[V]) SetScore(ctx context.Context, value V, score float64) error {
	member, err := z.encodeMember(value, score)
	if err != nil {
		return err
	}
	return z.store.ZAdd(ctx, z.key, store.ScoredMember{Member: member, Score: score})
}

// SetScores upserts many members in one atomic command.
func (z *SortedSetCounter[V]) SetScores(ctx context.Context, entries ...Scored[V]) error {
	if len(entries) == 0 {
		return nil
	}
	members := make([]store.ScoredMember, len(entries))
	for i, entry := range entries {
		member, err := z.encodeMember(entry.Value, entry.Score)
		if err != nil {
			return err
		}
		members[i] = store.ScoredMember{Member: member, Score: entry.Score}
	}
	return z.store.ZAdd(ctx, z.key, members...)
}

// GetScore returns the member's score, or ErrKeyNotFound.
func (z *SortedSetCounter[V]) GetScore(ctx context.Context, value V) (float64, error) {
	member, err := z.encodeMember(value, 0)
	if err != nil {
		return 0, err
	}
	return z.store.ZScore(ctx, z.key, member)
}

// GetOrSetScore returns the member's current score, inserting it with the
// given score first when absent.
func (z *SortedSetCounter[V]) GetOrSetScore(ctx context.Context, value V, score float64) (float64, error) {
	member, err := z.encodeMember(value, score)
	if err != nil {
		return 0, err
	}
	added, err := z.store.ZAddNX(ctx, z.key, store.ScoredMember{Member: member, Score: score})
	if err != nil {
		return 0, err
	}
	if added {
		return score, nil
	}
	return z.store.ZScore(ctx, z.key, member)
}

// IncrementScore atomically adds delta to the member's score, inserting the
// member at delta when absent, and returns the new score.
func (z *SortedSetCounter[V]) IncrementScore(ctx context.Context, value V, delta float64) (float64, error) {
	member, err := z.encodeMember(value, delta)
	if err != nil {
		return 0, err
	}
	return z.store.ZIncrBy(ctx, z.key, delta, member)
}

// Remove deletes the member, or returns ErrKeyNotFound when it is absent.
func (z *SortedSetCounter[V]) Remove(ctx context.Context, value V) error {
	removed, err := z.Discard(ctx, value)
	if err != nil {
		return err
	}
	if removed == 0 {
		return errors.NewErrKeyNotFound(z.key)
	}
	return nil
}

// Discard deletes the members that are present and returns how many were.
func (z *SortedSetCounter[V]) Discard(ctx context.Context, values ...V) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	members := make([]string, len(values))
	for i, value := range values {
		member, err := z.encodeMember(value, 0)
		if err != nil {
			return 0, err
		}
		members[i] = member
	}
	return z.store.ZRem(ctx, z.key, members...)
}

// Contains reports whether the member is present.
func (z *SortedSetCounter[V]) Contains(ctx context.Context, value V) (bool, error) {
	_, err := z.GetScore(ctx, value)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Len returns the number of members.
func (z *SortedSetCounter[V]) Len(ctx context.Context) (int64, error) {
	return z.store.ZCard(ctx, z.key)
}

// Rank returns the member's zero-based position in the score ordering,
// descending instead when reverse is set, or ErrKeyNotFound.
func (z *SortedSetCounter[V]) Rank(ctx context.Context, value V, reverse bool) (int64, error) {
	member, err := z.encodeMember(value, 0)
	if err != nil {
		return 0, err
	}
	return z.store.ZRank(ctx, z.key, member, reverse)
}

// CountBetween returns the number of members with min <= score <= max.
func (z *SortedSetCounter[V]) CountBetween(ctx context.Context, min, max float64) (int64, error) {
	return z.store.ZCount(ctx, z.key, min, max)
}

// Items returns the members between rank start and stop inclusive, negative
// ranks counting from the end, ascending by score, or descending when reverse
// is set.
func (z *SortedSetCounter[V]) Items(ctx context.Context, start, stop int64, reverse bool) ([]Scored[V], error) {
	members, err := z.store.ZRangeWithScores(ctx, z.key, start, stop, reverse)
	if err != nil {
		return nil, err
	}
	return z.decodeScored(members)
}

// ItemsByScore returns the members with min <= score <= max, ascending by
// score, or descending when reverse is set.
func (z *SortedSetCounter[V]) ItemsByScore(ctx context.Context, min, max float64, reverse bool) ([]Scored[V], error) {
	members, err := z.store.ZRangeByScore(ctx, z.key, min, max, reverse)
	if err != nil {
		return nil, err
	}
	return z.decodeScored(members)
}

// DiscardByRank removes the members between rank start and stop inclusive and
// returns how many were removed.
func (z *SortedSetCounter[V]) DiscardByRank(ctx context.Context, start, stop int64) (int64, error) {
	return z.store.ZRemRangeByRank(ctx, z.key, start, stop)
}

// DiscardByScore removes the members with min <= score <= max and returns how
// many were removed.
func (z *SortedSetCounter[V]) DiscardByScore(ctx context.Context, min, max float64) (int64, error) {
	return z.store.ZRemRangeByScore(ctx, z.key, min, max)
}

// Range calls fn for each member, fetching them incrementally. fn returning
// false stops the walk. Unlike Items, the walk makes no ordering promise.
func (z *SortedSetCounter[V]) Range(ctx context.Context, fn func(value V, score float64) bool) error {
	var cursor uint64
	for {
		members, next, err := z.store.ZScan(ctx, z.key, cursor, scanBatch)
		if err != nil {
			return err
		}
		for _, member := range members {
			value, err := z.decodeMember(member.Member)
			if err != nil {
				return err
			}
			if !fn(value, member.Score) {
				return nil
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// encodeMember canonicalizes the member and validates the score that will
// accompany it.
func (z *SortedSetCounter[V]) encodeMember(value V, score float64) (string, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return "", errors.NewUsageError(errors.NewErrInvalidScore(score))
	}
	if err := guardValue(value); err != nil {
		return "", err
	}
	member, err := z.members.EncodeKey(value)
	if err != nil {
		return "", errors.NewSerializationError(err)
	}
	return member, nil
}

func (z *SortedSetCounter[V]) decodeMember(member string) (V, error) {
	value, err := z.members.DecodeKey(member)
	if err != nil {
		var zero V
		return zero, errors.NewSerializationError(err)
	}
	return value, nil
}

func (z *SortedSetCounter[V]) decodeScored(members []store.ScoredMember) ([]Scored[V], error) {
	entries := make([]Scored[V], len(members))
	for i, member := range members {
		value, err := z.decodeMember(member.Member)
		if err != nil {
			return nil, err
		}
		entries[i] = Scored[V]{Value: value, Score: member.Score}
	}
	return entries, nil
}
