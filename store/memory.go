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

package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	uberatomic "go.uber.org/atomic"

	"github.com/redis-collections/redis-collections/errors"
)

// memorySeq numbers Memory instances so that two instances never report the
// same endpoint.
var memorySeq = uberatomic.NewInt64(0)

type entryKind int

const (
	kindHash entryKind = iota
	kindList
	kindSet
	kindZSet
)

// memoryEntry holds one key's data. Exactly one of the structure fields is
// populated, selected by kind.
type memoryEntry struct {
	kind entryKind
	hash map[string][]byte
	list [][]byte
	set  map[string][]byte
	zset map[string]float64
}

func (e *memoryEntry) empty() bool {
	switch e.kind {
	case kindHash:
		return len(e.hash) == 0
	case kindList:
		return len(e.list) == 0
	case kindSet:
		return len(e.set) == 0
	default:
		return len(e.zset) == 0
	}
}

func (e *memoryEntry) clone() *memoryEntry {
	dup := &memoryEntry{kind: e.kind}
	switch e.kind {
	case kindHash:
		dup.hash = make(map[string][]byte, len(e.hash))
		for field, value := range e.hash {
			dup.hash[field] = append([]byte(nil), value...)
		}
	case kindList:
		dup.list = make([][]byte, len(e.list))
		for i, value := range e.list {
			dup.list[i] = append([]byte(nil), value...)
		}
	case kindSet:
		dup.set = make(map[string][]byte, len(e.set))
		for member, value := range e.set {
			dup.set[member] = append([]byte(nil), value...)
		}
	default:
		dup.zset = make(map[string]float64, len(e.zset))
		for member, score := range e.zset {
			dup.zset[member] = score
		}
	}
	return dup
}

// Memory is an in-process Store with the same observable semantics as Redis.
// It backs tests and short-lived tooling that should not require a server.
// All operations are guarded by one mutex, so the atomicity guarantees of the
// interface hold trivially.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	endpoint string
	failNext error
}

// enforce compilation error
var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store with a process-unique endpoint.
func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[string]*memoryEntry),
		endpoint: fmt.Sprintf("memory://%d", memorySeq.Inc()),
	}
}

// Endpoint implements Store.
func (m *Memory) Endpoint() string {
	return m.endpoint
}

// FailNext arranges for the next store operation to fail with the given error
// without touching any data. Tests use it to exercise failure paths.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	m.failNext = err
	m.mu.Unlock()
}

// takeFailure consumes a pending injected failure. Callers hold the mutex.
func (m *Memory) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// fetch returns the entry under key, enforcing the structure kind. An absent
// key yields (nil, nil).
func (m *Memory) fetch(key string, kind entryKind) (*memoryEntry, error) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if entry.kind != kind {
		return nil, fmt.Errorf("%w: key=(%s)", errors.ErrWrongType, key)
	}
	return entry, nil
}

// obtain returns the entry under key, creating an empty one of the given kind
// when absent.
func (m *Memory) obtain(key string, kind entryKind) (*memoryEntry, error) {
	entry, err := m.fetch(key, kind)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &memoryEntry{kind: kind}
		switch kind {
		case kindHash:
			entry.hash = make(map[string][]byte)
		case kindSet:
			entry.set = make(map[string][]byte)
		case kindZSet:
			entry.zset = make(map[string]float64)
		}
		m.entries[key] = entry
	}
	return entry, nil
}

// compact drops the key when its structure has become empty, matching the
// server behavior of deleting empty aggregates.
func (m *Memory) compact(key string) {
	if entry, ok := m.entries[key]; ok && entry.empty() {
		delete(m.entries, key)
	}
}

// Exists implements Keys.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	_, ok := m.entries[key]
	return ok, nil
}

// Delete implements Keys.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// Rename implements Keys.
func (m *Memory) Rename(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	entry, ok := m.entries[src]
	if !ok {
		return errors.NewErrKeyNotFound(src)
	}
	delete(m.entries, src)
	m.entries[dst] = entry
	return nil
}

// Copy implements Keys.
func (m *Memory) Copy(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	entry, ok := m.entries[src]
	if !ok {
		return errors.NewErrKeyNotFound(src)
	}
	m.entries[dst] = entry.clone()
	return nil
}

// HGet implements Hashes.
func (m *Memory) HGet(_ context.Context, key, field string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindHash)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.NewErrFieldNotFound(key, field)
	}
	value, ok := entry.hash[field]
	if !ok {
		return nil, errors.NewErrFieldNotFound(key, field)
	}
	return append([]byte(nil), value...), nil
}

// HMGet implements Hashes.
func (m *Memory) HMGet(_ context.Context, key string, fields ...string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindHash)
	if err != nil {
		return nil, err
	}
	values := make([][]byte, len(fields))
	if entry == nil {
		return values, nil
	}
	for i, field := range fields {
		if value, ok := entry.hash[field]; ok {
			values[i] = append([]byte(nil), value...)
		}
	}
	return values, nil
}

// HSet implements Hashes.
func (m *Memory) HSet(_ context.Context, key string, fields map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	entry, err := m.obtain(key, kindHash)
	if err != nil {
		return err
	}
	for field, value := range fields {
		entry.hash[field] = append([]byte(nil), value...)
	}
	return nil
}

// HSetNX implements Hashes.
func (m *Memory) HSetNX(_ context.Context, key, field string, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	entry, err := m.obtain(key, kindHash)
	if err != nil {
		return false, err
	}
	if _, ok := entry.hash[field]; ok {
		return false, nil
	}
	entry.hash[field] = append([]byte(nil), value...)
	return true, nil
}

// HDel implements Hashes.
func (m *Memory) HDel(_ context.Context, key string, fields ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindHash)
	if err != nil || entry == nil {
		return 0, err
	}
	var removed int64
	for _, field := range fields {
		if _, ok := entry.hash[field]; ok {
			delete(entry.hash, field)
			removed++
		}
	}
	m.compact(key)
	return removed, nil
}

// HExists implements Hashes.
func (m *Memory) HExists(_ context.Context, key, field string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	entry, err := m.fetch(key, kindHash)
	if err != nil || entry == nil {
		return false, err
	}
	_, ok := entry.hash[field]
	return ok, nil
}

// HGetAll implements Hashes.
func (m *Memory) HGetAll(_ context.Context, key string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindHash)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return map[string][]byte{}, nil
	}
	fields := make(map[string][]byte, len(entry.hash))
	for field, value := range entry.hash {
		fields[field] = append([]byte(nil), value...)
	}
	return fields, nil
}

// HLen implements Hashes.
func (m *Memory) HLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindHash)
	if err != nil || entry == nil {
		return 0, err
	}
	return int64(len(entry.hash)), nil
}

// HIncrBy implements Hashes.
func (m *Memory) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.obtain(key, kindHash)
	if err != nil {
		return 0, err
	}
	var current int64
	if raw, ok := entry.hash[field]; ok {
		current, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, errors.NewUsageError(stderrors.New("hash value is not an integer"))
		}
	}
	current += delta
	entry.hash[field] = []byte(strconv.FormatInt(current, 10))
	return current, nil
}

// HScan implements Hashes. The whole hash is returned in one batch.
func (m *Memory) HScan(ctx context.Context, key string, cursor uint64, _ int64) (map[string][]byte, uint64, error) {
	if cursor != 0 {
		return map[string][]byte{}, 0, nil
	}
	fields, err := m.HGetAll(ctx, key)
	return fields, 0, err
}

// HReplace implements Hashes.
func (m *Memory) HReplace(_ context.Context, key string, fields map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.entries, key)
	if len(fields) == 0 {
		return nil
	}
	entry, _ := m.obtain(key, kindHash)
	for field, value := range fields {
		entry.hash[field] = append([]byte(nil), value...)
	}
	return nil
}

// LIndex implements Lists.
func (m *Memory) LIndex(_ context.Context, key string, index int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindList)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.NewErrIndexOutOfRange(index)
	}
	pos := index
	if pos < 0 {
		pos += int64(len(entry.list))
	}
	if pos < 0 || pos >= int64(len(entry.list)) {
		return nil, errors.NewErrIndexOutOfRange(index)
	}
	return append([]byte(nil), entry.list[pos]...), nil
}

// LSet implements Lists.
func (m *Memory) LSet(_ context.Context, key string, index int64, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	entry, err := m.fetch(key, kindList)
	if err != nil {
		return err
	}
	if entry == nil {
		return errors.NewErrIndexOutOfRange(index)
	}
	pos := index
	if pos < 0 {
		pos += int64(len(entry.list))
	}
	if pos < 0 || pos >= int64(len(entry.list)) {
		return errors.NewErrIndexOutOfRange(index)
	}
	entry.list[pos] = append([]byte(nil), value...)
	return nil
}

// LPush implements Lists.
func (m *Memory) LPush(_ context.Context, key string, values ...[]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	entry, err := m.obtain(key, kindList)
	if err != nil {
		return err
	}
	for _, value := range values {
		entry.list = append([][]byte{append([]byte(nil), value...)}, entry.list...)
	}
	return nil
}

// RPush implements Lists.
func (m *Memory) RPush(_ context.Context, key string, values ...[]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	entry, err := m.obtain(key, kindList)
	if err != nil {
		return err
	}
	for _, value := range values {
		entry.list = append(entry.list, append([]byte(nil), value...))
	}
	return nil
}

// LPop implements Lists.
func (m *Memory) LPop(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindList)
	if err != nil {
		return nil, err
	}
	if entry == nil || len(entry.list) == 0 {
		return nil, errors.NewErrKeyNotFound(key)
	}
	value := entry.list[0]
	entry.list = entry.list[1:]
	m.compact(key)
	return value, nil
}

// RPop implements Lists.
func (m *Memory) RPop(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindList)
	if err != nil {
		return nil, err
	}
	if entry == nil || len(entry.list) == 0 {
		return nil, errors.NewErrKeyNotFound(key)
	}
	last := len(entry.list) - 1
	value := entry.list[last]
	entry.list = entry.list[:last]
	m.compact(key)
	return value, nil
}

// LLen implements Lists.
func (m *Memory) LLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindList)
	if err != nil || entry == nil {
		return 0, err
	}
	return int64(len(entry.list)), nil
}

// LRange implements Lists.
func (m *Memory) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindList)
	if err != nil || entry == nil {
		return nil, err
	}
	lo, hi, ok := normalizeRange(start, stop, int64(len(entry.list)))
	if !ok {
		return nil, nil
	}
	values := make([][]byte, 0, hi-lo+1)
	for _, value := range entry.list[lo : hi+1] {
		values = append(values, append([]byte(nil), value...))
	}
	return values, nil
}

// LRem implements Lists.
func (m *Memory) LRem(_ context.Context, key string, count int64, value []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindList)
	if err != nil || entry == nil {
		return 0, err
	}
	target := string(value)
	var removed int64
	limit := count
	if limit < 0 {
		limit = -limit
	}
	keep := make([][]byte, 0, len(entry.list))
	if count >= 0 {
		for _, element := range entry.list {
			if string(element) == target && (count == 0 || removed < limit) {
				removed++
				continue
			}
			keep = append(keep, element)
		}
	} else {
		for i := len(entry.list) - 1; i >= 0; i-- {
			element := entry.list[i]
			if string(element) == target && removed < limit {
				removed++
				continue
			}
			keep = append([][]byte{element}, keep...)
		}
	}
	entry.list = keep
	m.compact(key)
	return removed, nil
}

// LTrim implements Lists.
func (m *Memory) LTrim(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	entry, err := m.fetch(key, kindList)
	if err != nil || entry == nil {
		return err
	}
	lo, hi, ok := normalizeRange(start, stop, int64(len(entry.list)))
	if !ok {
		entry.list = nil
	} else {
		entry.list = entry.list[lo : hi+1]
	}
	m.compact(key)
	return nil
}

// LReplace implements Lists.
func (m *Memory) LReplace(_ context.Context, key string, values [][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.entries, key)
	if len(values) == 0 {
		return nil
	}
	entry, _ := m.obtain(key, kindList)
	for _, value := range values {
		entry.list = append(entry.list, append([]byte(nil), value...))
	}
	return nil
}

// SAdd implements Sets.
func (m *Memory) SAdd(_ context.Context, key string, members ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	entry, err := m.obtain(key, kindSet)
	if err != nil {
		return 0, err
	}
	var added int64
	for _, member := range members {
		id := string(member)
		if _, ok := entry.set[id]; !ok {
			entry.set[id] = append([]byte(nil), member...)
			added++
		}
	}
	return added, nil
}

// SRem implements Sets.
func (m *Memory) SRem(_ context.Context, key string, members ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindSet)
	if err != nil || entry == nil {
		return 0, err
	}
	var removed int64
	for _, member := range members {
		id := string(member)
		if _, ok := entry.set[id]; ok {
			delete(entry.set, id)
			removed++
		}
	}
	m.compact(key)
	return removed, nil
}

// SIsMember implements Sets.
func (m *Memory) SIsMember(_ context.Context, key string, member []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	entry, err := m.fetch(key, kindSet)
	if err != nil || entry == nil {
		return false, err
	}
	_, ok := entry.set[string(member)]
	return ok, nil
}

// SCard implements Sets.
func (m *Memory) SCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindSet)
	if err != nil || entry == nil {
		return 0, err
	}
	return int64(len(entry.set)), nil
}

// SMembers implements Sets.
func (m *Memory) SMembers(_ context.Context, key string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindSet)
	if err != nil || entry == nil {
		return nil, err
	}
	members := make([][]byte, 0, len(entry.set))
	for _, member := range entry.set {
		members = append(members, append([]byte(nil), member...))
	}
	return members, nil
}

// SPop implements Sets. Map iteration supplies the arbitrary pick.
func (m *Memory) SPop(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindSet)
	if err != nil {
		return nil, err
	}
	if entry == nil || len(entry.set) == 0 {
		return nil, errors.NewErrKeyNotFound(key)
	}
	for id, member := range entry.set {
		delete(entry.set, id)
		m.compact(key)
		return member, nil
	}
	return nil, errors.NewErrKeyNotFound(key)
}

// SRandMember implements Sets.
func (m *Memory) SRandMember(_ context.Context, key string, count int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindSet)
	if err != nil || entry == nil {
		return nil, err
	}
	members := make([][]byte, 0, count)
	for _, member := range entry.set {
		if int64(len(members)) >= count {
			break
		}
		members = append(members, append([]byte(nil), member...))
	}
	return members, nil
}

// SScan implements Sets. The whole set is returned in one batch.
func (m *Memory) SScan(ctx context.Context, key string, cursor uint64, _ int64) ([][]byte, uint64, error) {
	if cursor != 0 {
		return nil, 0, nil
	}
	members, err := m.SMembers(ctx, key)
	return members, 0, err
}

// SUnionStore implements Sets.
func (m *Memory) SUnionStore(_ context.Context, dst string, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	result := make(map[string][]byte)
	for _, key := range keys {
		entry, err := m.fetch(key, kindSet)
		if err != nil {
			return 0, err
		}
		if entry == nil {
			continue
		}
		for id, member := range entry.set {
			result[id] = append([]byte(nil), member...)
		}
	}
	return m.storeSetResult(dst, result), nil
}

// SInterStore implements Sets.
func (m *Memory) SInterStore(_ context.Context, dst string, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	result := make(map[string][]byte)
	for i, key := range keys {
		entry, err := m.fetch(key, kindSet)
		if err != nil {
			return 0, err
		}
		if entry == nil {
			result = map[string][]byte{}
			break
		}
		if i == 0 {
			for id, member := range entry.set {
				result[id] = append([]byte(nil), member...)
			}
			continue
		}
		for id := range result {
			if _, ok := entry.set[id]; !ok {
				delete(result, id)
			}
		}
	}
	return m.storeSetResult(dst, result), nil
}

// SDiffStore implements Sets.
func (m *Memory) SDiffStore(_ context.Context, dst string, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	result := make(map[string][]byte)
	for i, key := range keys {
		entry, err := m.fetch(key, kindSet)
		if err != nil {
			return 0, err
		}
		if entry == nil {
			continue
		}
		if i == 0 {
			for id, member := range entry.set {
				result[id] = append([]byte(nil), member...)
			}
			continue
		}
		for id := range entry.set {
			delete(result, id)
		}
	}
	return m.storeSetResult(dst, result), nil
}

// storeSetResult installs a computed set under dst, deleting dst when the
// result is empty. Callers hold the mutex.
func (m *Memory) storeSetResult(dst string, result map[string][]byte) int64 {
	if len(result) == 0 {
		delete(m.entries, dst)
		return 0
	}
	m.entries[dst] = &memoryEntry{kind: kindSet, set: result}
	return int64(len(result))
}

// SReplace implements Sets.
func (m *Memory) SReplace(_ context.Context, key string, members [][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.entries, key)
	if len(members) == 0 {
		return nil
	}
	entry, _ := m.obtain(key, kindSet)
	for _, member := range members {
		entry.set[string(member)] = append([]byte(nil), member...)
	}
	return nil
}

// ZAdd implements SortedSets.
func (m *Memory) ZAdd(_ context.Context, key string, members ...ScoredMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	entry, err := m.obtain(key, kindZSet)
	if err != nil {
		return err
	}
	for _, member := range members {
		entry.zset[member.Member] = member.Score
	}
	return nil
}

// ZAddNX implements SortedSets.
func (m *Memory) ZAddNX(_ context.Context, key string, member ScoredMember) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return false, err
	}
	entry, err := m.obtain(key, kindZSet)
	if err != nil {
		return false, err
	}
	if _, ok := entry.zset[member.Member]; ok {
		return false, nil
	}
	entry.zset[member.Member] = member.Score
	return true, nil
}

// ZScore implements SortedSets.
func (m *Memory) ZScore(_ context.Context, key, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, errors.NewErrFieldNotFound(key, member)
	}
	score, ok := entry.zset[member]
	if !ok {
		return 0, errors.NewErrFieldNotFound(key, member)
	}
	return score, nil
}

// ZIncrBy implements SortedSets.
func (m *Memory) ZIncrBy(_ context.Context, key string, delta float64, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.obtain(key, kindZSet)
	if err != nil {
		return 0, err
	}
	entry.zset[member] += delta
	return entry.zset[member], nil
}

// ZRem implements SortedSets.
func (m *Memory) ZRem(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil || entry == nil {
		return 0, err
	}
	var removed int64
	for _, member := range members {
		if _, ok := entry.zset[member]; ok {
			delete(entry.zset, member)
			removed++
		}
	}
	m.compact(key)
	return removed, nil
}

// ZCard implements SortedSets.
func (m *Memory) ZCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil || entry == nil {
		return 0, err
	}
	return int64(len(entry.zset)), nil
}

// ZRank implements SortedSets.
func (m *Memory) ZRank(_ context.Context, key, member string, reverse bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, errors.NewErrFieldNotFound(key, member)
	}
	if _, ok := entry.zset[member]; !ok {
		return 0, errors.NewErrFieldNotFound(key, member)
	}
	ordered := sortedMembers(entry.zset)
	for i, candidate := range ordered {
		if candidate.Member == member {
			if reverse {
				return int64(len(ordered) - 1 - i), nil
			}
			return int64(i), nil
		}
	}
	return 0, errors.NewErrFieldNotFound(key, member)
}

// ZCount implements SortedSets.
func (m *Memory) ZCount(_ context.Context, key string, min, max float64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil || entry == nil {
		return 0, err
	}
	var count int64
	for _, score := range entry.zset {
		if score >= min && score <= max {
			count++
		}
	}
	return count, nil
}

// ZRangeWithScores implements SortedSets.
func (m *Memory) ZRangeWithScores(_ context.Context, key string, start, stop int64, reverse bool) ([]ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil || entry == nil {
		return nil, err
	}
	ordered := sortedMembers(entry.zset)
	if reverse {
		reverseMembers(ordered)
	}
	lo, hi, ok := normalizeRange(start, stop, int64(len(ordered)))
	if !ok {
		return nil, nil
	}
	return append([]ScoredMember(nil), ordered[lo:hi+1]...), nil
}

// ZRangeByScore implements SortedSets.
func (m *Memory) ZRangeByScore(_ context.Context, key string, min, max float64, reverse bool) ([]ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil || entry == nil {
		return nil, err
	}
	ordered := sortedMembers(entry.zset)
	selected := make([]ScoredMember, 0, len(ordered))
	for _, member := range ordered {
		if member.Score >= min && member.Score <= max {
			selected = append(selected, member)
		}
	}
	if reverse {
		reverseMembers(selected)
	}
	return selected, nil
}

// ZRemRangeByRank implements SortedSets.
func (m *Memory) ZRemRangeByRank(_ context.Context, key string, start, stop int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil || entry == nil {
		return 0, err
	}
	ordered := sortedMembers(entry.zset)
	lo, hi, ok := normalizeRange(start, stop, int64(len(ordered)))
	if !ok {
		return 0, nil
	}
	for _, member := range ordered[lo : hi+1] {
		delete(entry.zset, member.Member)
	}
	m.compact(key)
	return hi - lo + 1, nil
}

// ZRemRangeByScore implements SortedSets.
func (m *Memory) ZRemRangeByScore(_ context.Context, key string, min, max float64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return 0, err
	}
	entry, err := m.fetch(key, kindZSet)
	if err != nil || entry == nil {
		return 0, err
	}
	var removed int64
	for member, score := range entry.zset {
		if score >= min && score <= max {
			delete(entry.zset, member)
			removed++
		}
	}
	m.compact(key)
	return removed, nil
}

// ZScan implements SortedSets. The whole sorted set is returned in one batch.
func (m *Memory) ZScan(ctx context.Context, key string, cursor uint64, _ int64) ([]ScoredMember, uint64, error) {
	if cursor != 0 {
		return nil, 0, nil
	}
	members, err := m.ZRangeWithScores(ctx, key, 0, -1, false)
	return members, 0, err
}

// ZReplace implements SortedSets.
func (m *Memory) ZReplace(_ context.Context, key string, members []ScoredMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.entries, key)
	if len(members) == 0 {
		return nil
	}
	entry, _ := m.obtain(key, kindZSet)
	for _, member := range members {
		entry.zset[member.Member] = member.Score
	}
	return nil
}

// sortedMembers orders a zset map by (score ascending, member lexicographic).
func sortedMembers(zset map[string]float64) []ScoredMember {
	ordered := make([]ScoredMember, 0, len(zset))
	for member, score := range zset {
		ordered = append(ordered, ScoredMember{Member: member, Score: score})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score < ordered[j].Score
		}
		return ordered[i].Member < ordered[j].Member
	})
	return ordered
}

func reverseMembers(members []ScoredMember) {
	for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
		members[i], members[j] = members[j], members[i]
	}
}

// normalizeRange resolves a Redis-style inclusive (start, stop) pair against a
// structure of length n. It reports ok=false when the range selects nothing.
func normalizeRange(start, stop, n int64) (int64, int64, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n || stop < 0 {
		return 0, 0, false
	}
	return start, stop, true
}
