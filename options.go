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

// Option configures a Table at construction time: hashing, equality,
// neighborhood size, hash caching, growth policy, load-factor bounds,
// overflow shape, and allocation.
type Option[K comparable, V any] interface {
	apply(t *Table[K, V])
}

type optionFunc[K comparable, V any] func(t *Table[K, V])

func (f optionFunc[K, V]) apply(t *Table[K, V]) { f(t) }

// WithHash overrides the table's hash function. Without this option the
// table uses a default hasher built on hash/maphash.Comparable.
func WithHash[K comparable, V any](hash HashFunc[K]) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) { t.hash = hash })
}

// WithEqual overrides the table's key-equality function. Without this
// option the table uses Go's built-in == on K.
func WithEqual[K comparable, V any](eq EqualFunc[K]) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) { t.equal = eq })
}

// WithGrowthPolicy overrides the table's GrowthPolicy. The default is
// PowerOfTwoPolicy{Factor: 2}.
func WithGrowthPolicy[K comparable, V any](policy GrowthPolicy) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) { t.policy = policy })
}

// WithNeighborhoodSize sets H, the maximum probe distance within which any
// entry must reside. Must be in [1, 64]; the default is 32. Larger values
// pack more densely at the cost of a slower worst-case insertion (more
// bits to scan, more potential displacement).
func WithNeighborhoodSize[K comparable, V any](h int) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) {
		if h < 1 {
			h = 1
		}
		if h > maxNeighborhoodSize {
			h = maxNeighborhoodSize
		}
		t.neighborhoodSize = h
	})
}

// WithStoreHash enables caching each bucket's truncated hash,
// accelerating rehash and collision comparison. Disabled by default. Every
// bucket carries the 4-byte hash field whether or not this option is
// enabled; disabling it only leaves the field unfilled and unconsulted.
func WithStoreHash[K comparable, V any](enabled bool) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) { t.storeHash = enabled })
}

// WithMaxLoadFactor sets the bucket-array load (entries held in the bucket
// array divided by bucket count) above which the table forces a rehash.
// Overflow entries do not count toward it. The default is 0.95.
func WithMaxLoadFactor[K comparable, V any](alpha float64) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) { t.maxLoadFactor = alpha })
}

// WithMinLoadFactor sets the minimum-load threshold recorded on the
// table. The default is 0.1. Nothing triggers an automatic shrink from
// this threshold (erase never rehashes); it is observable configuration
// only.
func WithMinLoadFactor[K comparable, V any](alpha float64) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) { t.minLoadFactor = alpha })
}

// WithOverflowThreshold sets how many overflow entries accumulate beyond
// the last rehash's baseline before the table prefers growing over
// continuing to overflow. The default is 16.
func WithOverflowThreshold[K comparable, V any](n int) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) { t.overflowThreshold = n })
}

// WithSortedOverflow selects the ordered-overflow shape in place of the
// default unordered list, using less as the key-ordering relation.
// Overflow lookups become ordered instead of linear and the overflow
// phase of iteration yields keys in ascending order.
func WithSortedOverflow[K comparable, V any](less LessFunc[K]) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) {
		t.overflowFactory = func() overflowStore[K, V] { return newSortedOverflow[K, V](less) }
	})
}

// WithAllocator overrides the table's bucket Allocator. The default
// allocator uses make() and performs no explicit reclamation.
func WithAllocator[K comparable, V any](a Allocator[K, V]) Option[K, V] {
	return optionFunc[K, V](func(t *Table[K, V]) { t.allocator = a })
}
