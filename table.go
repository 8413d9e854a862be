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
	"fmt"
	"math"
	"math/bits"

	"github.com/cockroachdb/errors"
)

const (
	debug = false

	defaultNeighborhoodSize  = 32
	defaultMaxLoadFactor     = 0.95
	defaultMinLoadFactor     = 0.1
	defaultOverflowThreshold = 16
)

// Table is a hopscotch hash table mapping keys of type K to values of type
// V. The zero Table is not usable; construct with New, FromMap, or
// FromItems.
//
// A Table is not safe for concurrent use: multiple readers are fine against
// an unchanging table, but any mutation requires exclusive access. Growth
// that exceeds what the configured GrowthPolicy can represent panics with
// an error satisfying errors.Is(err, ErrExcessiveCapacity); the explicit
// capacity operations Reserve and Rehash return that error instead.
type Table[K comparable, V any] struct {
	// buckets is the bucket array: capacity home slots plus H-1 tail
	// padding slots that may hold displaced entries but are never home to
	// any entry. Nil until the first insertion when capacity is 0.
	buckets  []Bucket[K, V]
	capacity uint64
	// size counts live entries in the bucket array and the overflow store
	// together.
	size     int
	overflow overflowStore[K, V]
	// overflowBaseline is the overflow size observed at the last rehash
	// (or construction). Growth is forced when the overflow store gains
	// overflowThreshold entries beyond this baseline and growing would
	// actually remap at least one of them; see emplaceNew.
	overflowBaseline int

	hash              HashFunc[K]
	equal             EqualFunc[K]
	policy            GrowthPolicy
	allocator         Allocator[K, V]
	overflowFactory   func() overflowStore[K, V]
	neighborhoodSize  int
	storeHash         bool
	maxLoadFactor     float64
	minLoadFactor     float64
	overflowThreshold int
}

// Entry is a view of a single table entry: the key by value (immutable, a
// stored key never changes once inserted) and the value by pointer
// (mutable in place).
type Entry[K comparable, V any] struct {
	Key   K
	Value *V
}

// Item is a key-value pair used for bulk construction and insertion, the
// initializer-list analog.
type Item[K comparable, V any] struct {
	Key   K
	Value V
}

// New constructs a Table with space reserved for initialCapacity entries.
// Pass 0 to defer bucket-array allocation to the first insertion.
//
// New panics with an error satisfying errors.Is(err, ErrExcessiveCapacity)
// if initialCapacity exceeds what the configured growth policy can
// represent, and on malformed options (e.g. a non-power-of-two growth
// factor).
func New[K comparable, V any](initialCapacity int, options ...Option[K, V]) *Table[K, V] {
	t := &Table[K, V]{
		policy:            PowerOfTwoPolicy{},
		neighborhoodSize:  defaultNeighborhoodSize,
		maxLoadFactor:     defaultMaxLoadFactor,
		minLoadFactor:     defaultMinLoadFactor,
		overflowThreshold: defaultOverflowThreshold,
	}
	for _, op := range options {
		op.apply(t)
	}
	if t.hash == nil {
		t.hash = defaultHasher[K]()
	}
	if t.equal == nil {
		t.equal = defaultEqual[K]
	}
	if t.allocator == nil {
		t.allocator = defaultAllocator[K, V]{}
	}
	if t.overflowFactory == nil {
		t.overflowFactory = func() overflowStore[K, V] { return newListOverflow[K, V]() }
	}
	if t.maxLoadFactor <= 0 || t.maxLoadFactor > 1 {
		panic(errors.Newf("hopscotch: max load factor %f outside (0, 1]", t.maxLoadFactor))
	}
	if p, ok := t.policy.(PowerOfTwoPolicy); ok && p.Factor != 0 && !validatePowerOfTwoFactor(p.Factor) {
		panic(errors.Newf("hopscotch: power-of-two growth factor %d is not a power of two", p.Factor))
	}
	t.overflow = t.overflowFactory()
	if initialCapacity > 0 {
		c, err := t.policy.InitialCapacity(maxUint64(uint64(initialCapacity), uint64(t.neighborhoodSize)))
		if err != nil {
			panic(err)
		}
		t.buckets = t.allocBuckets(c)
		t.capacity = c
	}
	return t
}

// FromMap constructs a Table holding a copy of every entry of m.
func FromMap[K comparable, V any](m map[K]V, options ...Option[K, V]) *Table[K, V] {
	t := New[K, V](len(m), options...)
	for k, v := range m {
		t.Insert(k, v)
	}
	return t
}

// FromItems constructs a Table from a slice of key-value items. Later
// duplicates of a key do not overwrite earlier ones, matching Insert.
func FromItems[K comparable, V any](items []Item[K, V], options ...Option[K, V]) *Table[K, V] {
	t := New[K, V](len(items), options...)
	for _, it := range items {
		t.Insert(it.Key, it.Value)
	}
	return t
}

func (t *Table[K, V]) allocBuckets(capacity uint64) []Bucket[K, V] {
	n := int(capacity) + t.neighborhoodSize - 1
	b := t.allocator.AllocBuckets(n)
	if b == nil || len(b) < n {
		panic(errors.Mark(errors.Newf("hopscotch: allocator returned %d buckets, want %d", len(b), n),
			ErrAllocationFailure))
	}
	return b[:n]
}

// Len returns the number of entries in the table, bucket array and
// overflow combined.
func (t *Table[K, V]) Len() int {
	return t.size
}

// IsEmpty reports whether the table holds no entries.
func (t *Table[K, V]) IsEmpty() bool {
	return t.size == 0
}

// MaxSize returns the largest number of entries the table can in principle
// hold.
func (t *Table[K, V]) MaxSize() int {
	return math.MaxInt
}

// BucketCount returns the logical capacity of the bucket array, excluding
// the neighborhood tail padding. Zero before the first insertion when
// constructed with capacity 0.
func (t *Table[K, V]) BucketCount() int {
	return int(t.capacity)
}

// OverflowSize returns the number of entries currently held in the
// overflow store rather than the bucket array.
func (t *Table[K, V]) OverflowSize() int {
	if t.overflow == nil {
		return 0
	}
	return t.overflow.len()
}

// LoadFactor returns size divided by bucket count, or 0 for an unallocated
// table.
func (t *Table[K, V]) LoadFactor() float64 {
	if t.capacity == 0 {
		return 0
	}
	return float64(t.size) / float64(t.capacity)
}

// MaxLoadFactor returns the bucket-array load (entries held in the bucket
// array divided by bucket count) above which insertion forces a rehash.
// Overflow entries do not count toward it, so LoadFactor, which counts
// them, can exceed it.
func (t *Table[K, V]) MaxLoadFactor() float64 {
	return t.maxLoadFactor
}

// MinLoadFactor returns the configured minimum-load threshold. It is
// observable configuration only; erase never triggers a shrink.
func (t *Table[K, V]) MinLoadFactor() float64 {
	return t.minLoadFactor
}

// NeighborhoodSize returns H, the configured maximum probe distance.
func (t *Table[K, V]) NeighborhoodSize() int {
	return t.neighborhoodSize
}

// Hash returns the table's hash function.
func (t *Table[K, V]) Hash() HashFunc[K] {
	return t.hash
}

// KeyEqual returns the table's key-equality function.
func (t *Table[K, V]) KeyEqual() EqualFunc[K] {
	return t.equal
}

// findSlot scans the home bucket's neighborhood bitmap for key, returning
// the bucket-array index of the match. Requires capacity > 0.
func (t *Table[K, V]) findSlot(key K, hash uint64) (int, bool) {
	home := int(t.policy.IndexFor(hash, t.capacity))
	truncated := truncateHash(hash)
	bm := t.buckets[home].bitmap
	for bm != 0 {
		off := bits.TrailingZeros64(bm)
		cand := &t.buckets[home+off]
		if !t.storeHash || cand.equalHash(truncated) {
			if t.equal(cand.key, key) {
				return home + off, true
			}
		}
		bm &^= uint64(1) << off
	}
	return 0, false
}

// findPtr returns a pointer to the value stored for key, or nil.
func (t *Table[K, V]) findPtr(key K, hash uint64) *V {
	if t.size == 0 {
		return nil
	}
	if t.capacity > 0 {
		if idx, ok := t.findSlot(key, hash); ok {
			return &t.buckets[idx].val
		}
	}
	if t.overflow.len() > 0 {
		if p, ok := t.overflow.findPtr(key, t.equal); ok {
			return p
		}
	}
	return nil
}

// Get returns the value mapped to key.
func (t *Table[K, V]) Get(key K) (V, bool) {
	return t.GetWithHash(key, t.hash(key))
}

// GetWithHash is Get with a caller-precomputed hash of key.
func (t *Table[K, V]) GetWithHash(key K, hash uint64) (V, bool) {
	if p := t.findPtr(key, hash); p != nil {
		return *p, true
	}
	var zero V
	return zero, false
}

// Find returns a pointer to the value mapped to key, mutable in place, or
// nil if key is absent. The pointer is invalidated by any mutation that
// may rehash or displace entries.
func (t *Table[K, V]) Find(key K) *V {
	return t.findPtr(key, t.hash(key))
}

// FindWithHash is Find with a caller-precomputed hash of key.
func (t *Table[K, V]) FindWithHash(key K, hash uint64) *V {
	return t.findPtr(key, hash)
}

// Contains reports whether key is present.
func (t *Table[K, V]) Contains(key K) bool {
	return t.Find(key) != nil
}

// ContainsWithHash is Contains with a caller-precomputed hash of key.
func (t *Table[K, V]) ContainsWithHash(key K, hash uint64) bool {
	return t.findPtr(key, hash) != nil
}

// Count returns the number of entries with the given key: 0 or 1.
func (t *Table[K, V]) Count(key K) int {
	if t.Contains(key) {
		return 1
	}
	return 0
}

// CountWithHash is Count with a caller-precomputed hash of key.
func (t *Table[K, V]) CountWithHash(key K, hash uint64) int {
	if t.ContainsWithHash(key, hash) {
		return 1
	}
	return 0
}

// At returns the value mapped to key, or an error satisfying
// errors.Is(err, ErrKeyNotFound) if key is absent.
func (t *Table[K, V]) At(key K) (V, error) {
	return t.AtWithHash(key, t.hash(key))
}

// AtWithHash is At with a caller-precomputed hash of key.
func (t *Table[K, V]) AtWithHash(key K, hash uint64) (V, error) {
	if p := t.findPtr(key, hash); p != nil {
		return *p, nil
	}
	var zero V
	return zero, keyNotFoundf("hopscotch: key %v not in table", key)
}

// EqualRange returns the range of entries matching key: a one-element
// slice on a hit, nil on a miss.
func (t *Table[K, V]) EqualRange(key K) []Entry[K, V] {
	return t.EqualRangeWithHash(key, t.hash(key))
}

// EqualRangeWithHash is EqualRange with a caller-precomputed hash of key.
func (t *Table[K, V]) EqualRangeWithHash(key K, hash uint64) []Entry[K, V] {
	if p := t.findPtr(key, hash); p != nil {
		return []Entry[K, V]{{Key: key, Value: p}}
	}
	return nil
}

// All calls yield for every entry in the table, bucket array first and
// overflow second, until yield returns false. Yield must not mutate the
// table.
func (t *Table[K, V]) All(yield func(key K, value V) bool) {
	for i := range t.buckets {
		if t.buckets[i].isOccupied() {
			if !yield(t.buckets[i].key, t.buckets[i].val) {
				return
			}
		}
	}
	if t.overflow != nil {
		t.overflow.each(yield)
	}
}

// Equal reports whether t and o hold the same entries under the supplied
// value equality, independent of iteration order. Each of t's keys is
// looked up in o with o's hash and key equality.
func (t *Table[K, V]) Equal(o *Table[K, V], sameValue func(a, b V) bool) bool {
	if t.size != o.size {
		return false
	}
	equal := true
	t.All(func(k K, v V) bool {
		p := o.Find(k)
		if p == nil || !sameValue(v, *p) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// EqualTables reports whether two tables with comparable values hold the
// same entries, independent of order.
func EqualTables[K comparable, V comparable](a, b *Table[K, V]) bool {
	return a.Equal(b, func(x, y V) bool { return x == y })
}

// Swap exchanges the complete contents and configuration of t and o.
func (t *Table[K, V]) Swap(o *Table[K, V]) {
	*t, *o = *o, *t
}

// Clone returns an independent copy of the table: same configuration, same
// entries, separately owned storage.
func (t *Table[K, V]) Clone() *Table[K, V] {
	c := &Table[K, V]{}
	*c = *t
	if t.buckets != nil {
		c.buckets = t.allocator.AllocBuckets(len(t.buckets))
		copy(c.buckets, t.buckets)
	}
	if t.overflow != nil {
		c.overflow = t.overflow.clone()
	}
	return c
}

// Clear destroys every entry but keeps the bucket array's capacity.
func (t *Table[K, V]) Clear() {
	for i := range t.buckets {
		t.buckets[i] = Bucket[K, V]{}
	}
	t.overflow = t.overflowFactory()
	t.size = 0
	t.overflowBaseline = 0
}

// Close releases the bucket array back to the allocator. Only needed when
// a custom Allocator requires explicit frees; the table is empty and
// reusable afterwards.
func (t *Table[K, V]) Close() {
	if t.buckets != nil {
		t.allocator.FreeBuckets(t.buckets)
		t.buckets = nil
	}
	t.capacity = 0
	t.size = 0
	t.overflow = t.overflowFactory()
	t.overflowBaseline = 0
}

// FindAs looks key-like value q up without converting it to K, for
// equality functions that transparently compare K against other types.
// The caller supplies the hash of q, which must be consistent with the
// table's hash function over equal keys. Insertion deliberately has no
// heterogeneous form.
func FindAs[K comparable, V any, Q any](
	t *Table[K, V], q Q, hash uint64, eq func(stored K, query Q) bool,
) (*V, bool) {
	if t.size == 0 {
		return nil, false
	}
	if t.capacity > 0 {
		home := int(t.policy.IndexFor(hash, t.capacity))
		truncated := truncateHash(hash)
		bm := t.buckets[home].bitmap
		for bm != 0 {
			off := bits.TrailingZeros64(bm)
			cand := &t.buckets[home+off]
			if !t.storeHash || cand.equalHash(truncated) {
				if eq(cand.key, q) {
					return &cand.val, true
				}
			}
			bm &^= uint64(1) << off
		}
	}
	for _, it := range t.overflow.entries() {
		if eq(it.key, q) {
			return &it.val, true
		}
	}
	return nil, false
}

// AtAs is the heterogeneous form of At.
func AtAs[K comparable, V any, Q any](
	t *Table[K, V], q Q, hash uint64, eq func(stored K, query Q) bool,
) (V, error) {
	if p, ok := FindAs(t, q, hash, eq); ok {
		return *p, nil
	}
	var zero V
	return zero, keyNotFoundf("hopscotch: key %v not in table", q)
}

// EraseAs is the heterogeneous form of Erase, returning the number of
// erased entries (0 or 1).
func EraseAs[K comparable, V any, Q any](
	t *Table[K, V], q Q, hash uint64, eq func(stored K, query Q) bool,
) int {
	if t.size == 0 {
		return 0
	}
	if t.capacity > 0 {
		home := int(t.policy.IndexFor(hash, t.capacity))
		truncated := truncateHash(hash)
		bm := t.buckets[home].bitmap
		for bm != 0 {
			off := bits.TrailingZeros64(bm)
			cand := &t.buckets[home+off]
			if !t.storeHash || cand.equalHash(truncated) {
				if eq(cand.key, q) {
					t.eraseSlot(home+off, home)
					return 1
				}
			}
			bm &^= uint64(1) << off
		}
	}
	for _, it := range t.overflow.entries() {
		if eq(it.key, q) {
			if t.overflow.erase(it.key, t.equal) {
				t.size--
				return 1
			}
			return 0
		}
	}
	return 0
}

// checkInvariants verifies the structural invariants of the table,
// panicking on any violation. Called from mutating operations when debug
// is enabled and directly from tests.
func (t *Table[K, V]) checkInvariants() {
	occupied := 0
	for p := range t.buckets {
		b := &t.buckets[p]
		if b.isOccupied() {
			occupied++
			home := int(t.policy.IndexFor(t.hash(b.key), t.capacity))
			if p < home || p >= home+t.neighborhoodSize {
				panic(fmt.Sprintf("hopscotch: slot %d outside neighborhood [%d, %d)",
					p, home, home+t.neighborhoodSize))
			}
			if !t.buckets[home].hasOwnerAt(uint(p - home)) {
				panic(fmt.Sprintf("hopscotch: home %d does not own occupied slot %d", home, p))
			}
			if t.storeHash && !b.equalHash(truncateHash(t.hash(b.key))) {
				panic(fmt.Sprintf("hopscotch: slot %d cached hash is stale", p))
			}
		}
		bm := b.bitmap
		for bm != 0 {
			off := bits.TrailingZeros64(bm)
			owned := p + off
			if owned >= len(t.buckets) || !t.buckets[owned].isOccupied() {
				panic(fmt.Sprintf("hopscotch: bucket %d owns empty slot %d", p, owned))
			}
			ownedHome := int(t.policy.IndexFor(t.hash(t.buckets[owned].key), t.capacity))
			if ownedHome != p {
				panic(fmt.Sprintf("hopscotch: bucket %d owns slot %d whose home is %d",
					p, owned, ownedHome))
			}
			bm &^= uint64(1) << off
		}
	}
	if occupied+t.OverflowSize() != t.size {
		panic(fmt.Sprintf("hopscotch: size %d != %d occupied + %d overflow",
			t.size, occupied, t.OverflowSize()))
	}
	seen := make(map[K]struct{}, t.size)
	t.All(func(k K, _ V) bool {
		if _, dup := seen[k]; dup {
			panic(fmt.Sprintf("hopscotch: duplicate key %v", k))
		}
		seen[k] = struct{}{}
		return true
	})
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
