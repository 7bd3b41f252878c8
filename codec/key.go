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

package codec

import (
	"encoding/base64"
	"math"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// KeyCodec converts collection keys and set members to and from the canonical
// string form used for remote hash fields and set members.
//
// Canonical equality classes: two keys that compare equal in the domain must
// encode to the same string. Numeric keys whose value is integral all share
// the integer form, so int(1), int64(1) and float64(1.0) address the same
// stored field; non-integral floats use the shortest decimal form; strings
// and booleans encode verbatim. Other comparable types fall back to a
// base64-wrapped MessagePack encoding.
type KeyCodec[K comparable] interface {
	// EncodeKey converts a key into its canonical string form.
	EncodeKey(key K) (string, error)
	// DecodeKey converts a canonical string back into a key.
	DecodeKey(encoded string) (K, error)
}

// CanonicalKey returns the default key codec implementing the canonicalization
// table above.
func CanonicalKey[K comparable]() KeyCodec[K] {
	return canonicalKey[K]{}
}

type canonicalKey[K comparable] struct{}

func (canonicalKey[K]) EncodeKey(key K) (string, error) {
	switch k := any(key).(type) {
	case string:
		return k, nil
	case bool:
		return strconv.FormatBool(k), nil
	case int:
		return strconv.FormatInt(int64(k), 10), nil
	case int8:
		return strconv.FormatInt(int64(k), 10), nil
	case int16:
		return strconv.FormatInt(int64(k), 10), nil
	case int32:
		return strconv.FormatInt(int64(k), 10), nil
	case int64:
		return strconv.FormatInt(k, 10), nil
	case uint:
		return strconv.FormatUint(uint64(k), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(k), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(k), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(k), 10), nil
	case uint64:
		return strconv.FormatUint(k, 10), nil
	case float32:
		return formatFloat(float64(k)), nil
	case float64:
		return formatFloat(k), nil
	default:
		data, err := msgpack.Marshal(key)
		if err != nil {
			return "", err
		}
		return base64.RawURLEncoding.EncodeToString(data), nil
	}
}

func (canonicalKey[K]) DecodeKey(encoded string) (K, error) {
	var zero K
	switch any(zero).(type) {
	case string:
		return any(encoded).(K), nil
	case bool:
		b, err := strconv.ParseBool(encoded)
		if err != nil {
			return zero, err
		}
		return any(b).(K), nil
	case int:
		n, err := strconv.ParseInt(encoded, 10, 0)
		if err != nil {
			return zero, err
		}
		return any(int(n)).(K), nil
	case int8:
		n, err := strconv.ParseInt(encoded, 10, 8)
		if err != nil {
			return zero, err
		}
		return any(int8(n)).(K), nil
	case int16:
		n, err := strconv.ParseInt(encoded, 10, 16)
		if err != nil {
			return zero, err
		}
		return any(int16(n)).(K), nil
	case int32:
		n, err := strconv.ParseInt(encoded, 10, 32)
		if err != nil {
			return zero, err
		}
		return any(int32(n)).(K), nil
	case int64:
		n, err := strconv.ParseInt(encoded, 10, 64)
		if err != nil {
			return zero, err
		}
		return any(n).(K), nil
	case uint:
		n, err := strconv.ParseUint(encoded, 10, 0)
		if err != nil {
			return zero, err
		}
		return any(uint(n)).(K), nil
	case uint8:
		n, err := strconv.ParseUint(encoded, 10, 8)
		if err != nil {
			return zero, err
		}
		return any(uint8(n)).(K), nil
	case uint16:
		n, err := strconv.ParseUint(encoded, 10, 16)
		if err != nil {
			return zero, err
		}
		return any(uint16(n)).(K), nil
	case uint32:
		n, err := strconv.ParseUint(encoded, 10, 32)
		if err != nil {
			return zero, err
		}
		return any(uint32(n)).(K), nil
	case uint64:
		n, err := strconv.ParseUint(encoded, 10, 64)
		if err != nil {
			return zero, err
		}
		return any(n).(K), nil
	case float32:
		f, err := strconv.ParseFloat(encoded, 32)
		if err != nil {
			return zero, err
		}
		return any(float32(f)).(K), nil
	case float64:
		f, err := strconv.ParseFloat(encoded, 64)
		if err != nil {
			return zero, err
		}
		return any(f).(K), nil
	default:
		data, err := base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			return zero, err
		}
		var key K
		if err := msgpack.Unmarshal(data, &key); err != nil {
			return zero, err
		}
		return key, nil
	}
}

// formatFloat reduces integral floats to the integer form so that they share
// a storage field with their integer equivalents.
func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
