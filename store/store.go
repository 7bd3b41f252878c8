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

// Package store defines the remote key-value capability surface the
// collections are built on, together with a Redis implementation and an
// in-memory implementation sharing identical semantics.
//
// Every operation is atomic at the granularity of a single call: no caller
// ever observes a partially applied command. The Replace* operations are the
// bulk "replace all contents" primitives; an observer of the store sees
// either the pre-replace or the post-replace snapshot, never an intermediate
// state.
//
// Implementations map logical absence to errors.ErrKeyNotFound and transport
// or command failures to errors.ErrStoreUnavailable. Nothing in this package
// retries.
package store

import "context"

// ScoredMember pairs a sorted-set member with its 64-bit float score.
type ScoredMember struct {
	// Member is the canonical string form of the member.
	Member string
	// Score orders the member inside its sorted set.
	Score float64
}

// Keys groups the operations addressing whole keys, independent of the
// structure stored under them.
type Keys interface {
	// Exists reports whether the given key holds any data.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the given keys and all data stored under them. Deleting
	// an absent key is not an error.
	Delete(ctx context.Context, keys ...string) error
	// Rename moves the data stored under src to dst, overwriting dst.
	Rename(ctx context.Context, src, dst string) error
	// Copy duplicates the data stored under src to dst, overwriting dst.
	Copy(ctx context.Context, src, dst string) error
}

// Hashes groups the operations on key-addressed field/value hashes.
type Hashes interface {
	// HGet returns the value of a single field, or ErrKeyNotFound when the
	// field (or the key) is absent.
	HGet(ctx context.Context, key, field string) ([]byte, error)
	// HMGet returns the values of the given fields in order; absent fields
	// yield nil entries.
	HMGet(ctx context.Context, key string, fields ...string) ([][]byte, error)
	// HSet writes all given fields in one atomic command.
	HSet(ctx context.Context, key string, fields map[string][]byte) error
	// HSetNX writes the field only when it is absent and reports whether the
	// write happened.
	HSetNX(ctx context.Context, key, field string, value []byte) (bool, error)
	// HDel removes the given fields and returns how many existed.
	HDel(ctx context.Context, key string, fields ...string) (int64, error)
	// HExists reports whether the field is present.
	HExists(ctx context.Context, key, field string) (bool, error)
	// HGetAll returns every field of the hash; an absent key yields an empty
	// map.
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)
	// HLen returns the number of fields in the hash.
	HLen(ctx context.Context, key string) (int64, error)
	// HIncrBy atomically adds delta to the integer value of a field and
	// returns the result.
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	// HScan returns one batch of fields starting at cursor, together with the
	// cursor for the next batch; a returned cursor of zero ends the
	// enumeration. Concurrent mutation is tolerated; no snapshot guarantee.
	HScan(ctx context.Context, key string, cursor uint64, count int64) (map[string][]byte, uint64, error)
	// HReplace atomically replaces the whole hash with the given fields. An
	// empty map leaves the key deleted.
	HReplace(ctx context.Context, key string, fields map[string][]byte) error
}

// Lists groups the operations on key-addressed ordered lists.
type Lists interface {
	// LIndex returns the element at index; negative indexes count from the
	// tail. Out-of-range indexes yield ErrKeyNotFound.
	LIndex(ctx context.Context, key string, index int64) ([]byte, error)
	// LSet overwrites the element at index; out-of-range indexes yield
	// ErrIndexOutOfRange.
	LSet(ctx context.Context, key string, index int64, value []byte) error
	// LPush prepends values (leftmost argument ends up at the head).
	LPush(ctx context.Context, key string, values ...[]byte) error
	// RPush appends values in argument order.
	RPush(ctx context.Context, key string, values ...[]byte) error
	// LPop removes and returns the head, or ErrKeyNotFound when empty.
	LPop(ctx context.Context, key string) ([]byte, error)
	// RPop removes and returns the tail, or ErrKeyNotFound when empty.
	RPop(ctx context.Context, key string) ([]byte, error)
	// LLen returns the list length.
	LLen(ctx context.Context, key string) (int64, error)
	// LRange returns the elements between start and stop inclusive, with
	// negative indexes counting from the tail.
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	// LRem removes up to count occurrences of value (count < 0 removes from
	// the tail, count == 0 removes all) and returns how many were removed.
	LRem(ctx context.Context, key string, count int64, value []byte) (int64, error)
	// LTrim keeps only the elements between start and stop inclusive.
	LTrim(ctx context.Context, key string, start, stop int64) error
	// LReplace atomically replaces the whole list with the given values.
	LReplace(ctx context.Context, key string, values [][]byte) error
}

// Sets groups the operations on key-addressed unordered sets.
type Sets interface {
	// SAdd inserts members and returns how many were newly added.
	SAdd(ctx context.Context, key string, members ...[]byte) (int64, error)
	// SRem removes members and returns how many existed.
	SRem(ctx context.Context, key string, members ...[]byte) (int64, error)
	// SIsMember reports membership.
	SIsMember(ctx context.Context, key string, member []byte) (bool, error)
	// SCard returns the set cardinality.
	SCard(ctx context.Context, key string) (int64, error)
	// SMembers returns every member of the set.
	SMembers(ctx context.Context, key string) ([][]byte, error)
	// SPop removes and returns one arbitrary member, or ErrKeyNotFound when
	// the set is empty.
	SPop(ctx context.Context, key string) ([]byte, error)
	// SRandMember returns up to count distinct random members without
	// removing them.
	SRandMember(ctx context.Context, key string, count int64) ([][]byte, error)
	// SScan returns one batch of members starting at cursor; a returned
	// cursor of zero ends the enumeration.
	SScan(ctx context.Context, key string, cursor uint64, count int64) ([][]byte, uint64, error)
	// SUnionStore stores the union of the source keys under dst and returns
	// the resulting cardinality. All keys must live on this store.
	SUnionStore(ctx context.Context, dst string, keys ...string) (int64, error)
	// SInterStore stores the intersection of the source keys under dst.
	SInterStore(ctx context.Context, dst string, keys ...string) (int64, error)
	// SDiffStore stores the difference of the first key against the rest
	// under dst.
	SDiffStore(ctx context.Context, dst string, keys ...string) (int64, error)
	// SReplace atomically replaces the whole set with the given members.
	SReplace(ctx context.Context, key string, members [][]byte) error
}

// SortedSets groups the operations on key-addressed score-ordered sets.
// Members are ordered by (score ascending, member lexicographic) throughout.
type SortedSets interface {
	// ZAdd upserts the given members with their scores in one atomic command.
	ZAdd(ctx context.Context, key string, members ...ScoredMember) error
	// ZAddNX inserts the member only when absent and reports whether the
	// insert happened.
	ZAddNX(ctx context.Context, key string, member ScoredMember) (bool, error)
	// ZScore returns the member's score, or ErrKeyNotFound when absent.
	ZScore(ctx context.Context, key, member string) (float64, error)
	// ZIncrBy atomically adds delta to the member's score (inserting it at
	// delta when absent) and returns the new score.
	ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)
	// ZRem removes members and returns how many existed.
	ZRem(ctx context.Context, key string, members ...string) (int64, error)
	// ZCard returns the number of members.
	ZCard(ctx context.Context, key string) (int64, error)
	// ZRank returns the member's position in the score ordering (reverse for
	// descending), or ErrKeyNotFound when absent.
	ZRank(ctx context.Context, key, member string, reverse bool) (int64, error)
	// ZCount returns the number of members with min <= score <= max.
	ZCount(ctx context.Context, key string, min, max float64) (int64, error)
	// ZRangeWithScores returns members between rank start and stop inclusive
	// (negative ranks count from the end), ordered ascending, or descending
	// when reverse is set.
	ZRangeWithScores(ctx context.Context, key string, start, stop int64, reverse bool) ([]ScoredMember, error)
	// ZRangeByScore returns members with min <= score <= max, ordered
	// ascending, or descending when reverse is set.
	ZRangeByScore(ctx context.Context, key string, min, max float64, reverse bool) ([]ScoredMember, error)
	// ZRemRangeByRank removes members between rank start and stop inclusive
	// and returns how many were removed.
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error)
	// ZRemRangeByScore removes members with min <= score <= max and returns
	// how many were removed.
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) (int64, error)
	// ZScan returns one batch of members starting at cursor; a returned
	// cursor of zero ends the enumeration.
	ZScan(ctx context.Context, key string, cursor uint64, count int64) ([]ScoredMember, uint64, error)
	// ZReplace atomically replaces the whole sorted set with the given
	// members.
	ZReplace(ctx context.Context, key string, members []ScoredMember) error
}

// Store is the full capability surface the collections require from a remote
// key-value store.
type Store interface {
	Keys
	Hashes
	Lists
	Sets
	SortedSets

	// Endpoint identifies the remote endpoint backing this store. Two stores
	// reporting the same endpoint address the same data and may be combined
	// with single server-side commands.
	Endpoint() string
}

// Same reports whether both stores are backed by the same remote endpoint.
// Server-side operations spanning two collections are only legal when their
// stores are Same; everything else must be materialized locally first.
func Same(a, b Store) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Endpoint() != "" && a.Endpoint() == b.Endpoint()
}
