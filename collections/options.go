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
	stderrors "errors"
	"fmt"

	"github.com/redis-collections/redis-collections/codec"
	"github.com/redis-collections/redis-collections/errors"
	"github.com/redis-collections/redis-collections/internal/keygen"
	"github.com/redis-collections/redis-collections/log"
)

// options carries the settings shared by every collection constructor. The
// codecs are held as any because the constructors are generic and the options
// are not; each constructor asserts them back to its own element types.
type options struct {
	key        string
	prefix     string
	keyGen     func() string
	logger     log.Logger
	valueCodec any
	keyCodec   any
	capacity   int
	hasCap     bool
}

// Option configures a collection at construction time.
type Option func(*options)

func newOptions(opts ...Option) *options {
	config := &options{
		keyGen: keygen.New,
		logger: log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Validate checks the option combination for obvious mistakes.
func (o *options) Validate() error {
	if o.keyGen == nil {
		return errors.NewUsageError(stderrors.New("key generator is required"))
	}
	if o.logger == nil {
		return errors.NewUsageError(stderrors.New("logger is required"))
	}
	if o.hasCap && o.capacity < 0 {
		return errors.NewUsageError(fmt.Errorf("capacity=(%d) %w", o.capacity, errors.ErrInvalidMaxSize))
	}
	return nil
}

// resolvedKey returns the remote key for the collection, generating a fresh
// one when none was supplied, qualified with the configured prefix.
func (o *options) resolvedKey() string {
	key := o.key
	if key == "" {
		key = o.keyGen()
	}
	return keygen.Qualify(o.prefix, key)
}

// WithKey binds the collection to an existing remote key instead of a fresh
// random one. Two collections constructed with the same key and store address
// the same data.
func WithKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithPrefix prepends a namespace prefix to the collection's remote key. The
// prefix is carried verbatim, so include a trailing separator if one is
// wanted.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithKeyGenerator replaces the random key generator used when no explicit
// key is given.
func WithKeyGenerator(generate func() string) Option {
	return func(o *options) {
		o.keyGen = generate
	}
}

// WithLogger sets the logger. Collections log nothing above debug level in
// normal operation; the default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCodec replaces the default MessagePack value codec. The type parameter
// must match the collection's value type or the constructor fails with
// ErrCodecMismatch.
func WithCodec[V any](valueCodec codec.Codec[V]) Option {
	return func(o *options) {
		o.valueCodec = valueCodec
	}
}

// WithKeyCodec replaces the default canonical key codec. The type parameter
// must match the collection's key (or member) type or the constructor fails
// with ErrCodecMismatch.
func WithKeyCodec[K comparable](keyCodec codec.KeyCodec[K]) Option {
	return func(o *options) {
		o.keyCodec = keyCodec
	}
}

// WithMaxSize bounds the number of entries an eviction cache keeps locally.
// Zero keeps nothing locally and turns the cache into a plain remote proxy.
func WithMaxSize(maxSize int) Option {
	return func(o *options) {
		o.capacity = maxSize
		o.hasCap = true
	}
}

// WithMaxLen bounds a deque's length. Appends beyond the bound silently drop
// elements from the opposite end. Zero means unbounded.
func WithMaxLen(maxLen int) Option {
	return func(o *options) {
		o.capacity = maxLen
		o.hasCap = true
	}
}

// resolveCodec returns the configured value codec asserted to the collection's
// value type, or the MessagePack default when none was configured.
func resolveCodec[V any](raw any) (codec.Codec[V], error) {
	if raw == nil {
		return codec.Msgpack[V](), nil
	}
	valueCodec, ok := raw.(codec.Codec[V])
	if !ok {
		var zero V
		return nil, errors.NewUsageError(fmt.Errorf("%w: want Codec[%T]", errors.ErrCodecMismatch, zero))
	}
	return valueCodec, nil
}

// resolveKeyCodec returns the configured key codec asserted to the
// collection's key type, or the canonical default when none was configured.
func resolveKeyCodec[K comparable](raw any) (codec.KeyCodec[K], error) {
	if raw == nil {
		return codec.CanonicalKey[K](), nil
	}
	keyCodec, ok := raw.(codec.KeyCodec[K])
	if !ok {
		var zero K
		return nil, errors.NewUsageError(fmt.Errorf("%w: want KeyCodec[%T]", errors.ErrCodecMismatch, zero))
	}
	return keyCodec, nil
}
