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

// Package keygen generates the remote keys under which collections store
// their data.
package keygen

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a collision-resistant random key: the hex form of a random
// UUID. Collections created without an explicit key receive one of these,
// so their identity survives only as long as the caller remembers it.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Qualify prepends the prefix to the key verbatim. The prefix carries its own
// separator, if any; an empty prefix leaves the key untouched.
func Qualify(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + key
}
