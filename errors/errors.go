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

// Package errors defines the error taxonomy shared by the collections and the
// store implementations. Callers are expected to discriminate with errors.Is
// against the sentinel values below.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound indicates the logical absence of a key, hash field, list
	// index or set member. It is expected in normal control flow and safe to
	// recover from.
	ErrKeyNotFound = errors.New("key not found")

	// ErrEmptyCollection is returned when popping from a collection that holds
	// no entries.
	ErrEmptyCollection = errors.New("collection is empty")

	// ErrIndexOutOfRange is returned when a list index falls outside the
	// current bounds of the remote list.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrSerialization indicates that the codec could not decode bytes read
	// from the remote store. It usually means data corruption or a codec
	// mismatch between writer and reader, and is never silently swallowed.
	ErrSerialization = errors.New("cannot decode stored value")

	// ErrStoreUnavailable indicates a connectivity or command failure at the
	// remote store. It is propagated untouched; retrying is the caller's (or
	// the client library's) responsibility, never this module's.
	ErrStoreUnavailable = errors.New("remote store unavailable")

	// ErrUsage indicates an invalid argument or an unsupported combination of
	// operands. Operations raising it are guaranteed not to have issued any
	// remote call.
	ErrUsage = errors.New("invalid usage")

	// ErrCrossStore is returned when an atomic server-side operation is
	// requested across collections bound to different remote endpoints.
	ErrCrossStore = errors.New("collections are bound to different remote stores")

	// ErrNestedCollection is returned when a persisted collection is stored as
	// a value inside another persisted collection. The semantics of such a
	// containment are deliberately left undefined.
	ErrNestedCollection = errors.New("persisted collection cannot be stored inside another persisted collection")

	// ErrInvalidScore is returned when a sorted-set score is not a finite
	// 64-bit float.
	ErrInvalidScore = errors.New("score must be a finite 64-bit float")

	// ErrInvalidMaxSize is returned when an eviction cache is created with a
	// negative capacity.
	ErrInvalidMaxSize = errors.New("maxsize must be zero or positive")

	// ErrCodecMismatch is returned when a codec supplied through options does
	// not match the collection's element type.
	ErrCodecMismatch = errors.New("codec does not match the collection element type")

	// ErrWrongType is returned when a remote key already holds a value of a
	// different structure type than the one requested.
	ErrWrongType = errors.New("remote key holds a different structure type")
)

// NewErrKeyNotFound formats an ErrKeyNotFound with the given key.
func NewErrKeyNotFound(key string) error {
	return fmt.Errorf("key=(%s) %w", key, ErrKeyNotFound)
}

// NewErrFieldNotFound formats an ErrKeyNotFound with the given key and field.
func NewErrFieldNotFound(key, field string) error {
	return fmt.Errorf("key=(%s) field=(%s) %w", key, field, ErrKeyNotFound)
}

// NewErrIndexOutOfRange formats an ErrIndexOutOfRange with the given index.
func NewErrIndexOutOfRange(index int64) error {
	return fmt.Errorf("index=(%d) %w", index, ErrIndexOutOfRange)
}

// NewErrInvalidScore formats an ErrInvalidScore with the offending score.
func NewErrInvalidScore(score float64) error {
	return fmt.Errorf("score=(%v) %w", score, ErrInvalidScore)
}

// SerializationError wraps a codec failure. It unwraps to ErrSerialization so
// that errors.Is(err, ErrSerialization) holds.
type SerializationError struct {
	err error
}

// enforce compilation error
var _ error = (*SerializationError)(nil)

// NewSerializationError creates an instance of SerializationError.
func NewSerializationError(err error) *SerializationError {
	return &SerializationError{err: errors.Join(ErrSerialization, err)}
}

// Error implements the standard error interface.
func (e *SerializationError) Error() string {
	return e.err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.err
}

// StoreUnavailableError wraps a remote-store failure. It unwraps to
// ErrStoreUnavailable so that errors.Is(err, ErrStoreUnavailable) holds.
type StoreUnavailableError struct {
	err error
}

// enforce compilation error
var _ error = (*StoreUnavailableError)(nil)

// NewStoreUnavailableError creates an instance of StoreUnavailableError.
func NewStoreUnavailableError(err error) *StoreUnavailableError {
	return &StoreUnavailableError{err: errors.Join(ErrStoreUnavailable, err)}
}

// Error implements the standard error interface.
func (e *StoreUnavailableError) Error() string {
	return e.err.Error()
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.err
}

// UsageError wraps an invalid-argument failure. It unwraps to ErrUsage so that
// errors.Is(err, ErrUsage) holds. The operation that raised it never issued a
// remote call.
type UsageError struct {
	err error
}

// enforce compilation error
var _ error = (*UsageError)(nil)

// NewUsageError creates an instance of UsageError.
func NewUsageError(err error) *UsageError {
	return &UsageError{err: errors.Join(ErrUsage, err)}
}

// Error implements the standard error interface.
func (e *UsageError) Error() string {
	return e.err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.err
}
