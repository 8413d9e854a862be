// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hopscotch

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// HashFunc computes a 64-bit hash for a key. Implementations need not be
// cryptographically strong, only well-distributed.
type HashFunc[K any] func(key K) uint64

// EqualFunc reports whether two keys are equal under the table's notion of
// equality.
type EqualFunc[K comparable] func(a, b K) bool

// defaultEqual is used when no EqualFunc is supplied.
func defaultEqual[K comparable](a, b K) bool {
	return a == b
}

// defaultHasher returns the table's default HashFunc, built on
// hash/maphash.Comparable. Hashing an arbitrary comparable type parameter
// requires either compiler support (what maphash.Comparable provides) or
// reaching into Go runtime internals, which is not a supportable default.
func defaultHasher[K comparable]() HashFunc[K] {
	seed := maphash.MakeSeed()
	return func(key K) uint64 {
		return maphash.Comparable(seed, key)
	}
}

// StringHasher returns a HashFunc for string keys backed by xxhash, a fast
// non-cryptographic hash carried into this module's domain stack from
// G-M-twostay/go-utils's HopMap, which uses xxhash for exactly this
// purpose. Prefer this over the default hasher when string keys dominate
// and the extra throughput matters more than avoiding a dependency.
func StringHasher() HashFunc[string] {
	return func(key string) uint64 {
		return xxhash.Sum64String(key)
	}
}

// BytesHasher returns a HashFunc for []byte keys backed by xxhash.
func BytesHasher() HashFunc[[]byte] {
	return func(key []byte) uint64 {
		return xxhash.Sum64(key)
	}
}

// truncateHash keeps the low 32 bits of a hash for use as the per-bucket
// cached hash. 32 bits is wide enough to make false equality probes rare
// while costing only 4 bytes per bucket.
func truncateHash(h uint64) uint32 {
	return uint32(h)
}
