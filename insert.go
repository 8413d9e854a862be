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
	"math/bits"
)

// Insert adds key to val if key is absent. It returns a pointer to the value
// resident in the table (the existing one on a duplicate) and whether an
// insertion took place. The pointer is invalidated by any later mutation
// that may rehash or displace entries.
func (t *Table[K, V]) Insert(key K, val V) (*V, bool) {
	h := t.hash(key)
	if p := t.findPtr(key, h); p != nil {
		return p, false
	}
	return t.emplaceNew(key, h, val), true
}

// Emplace is Insert under the name the associative-container surface
// expects. Go constructs arguments before the call, so there is no
// piecewise-construction distinction to preserve.
func (t *Table[K, V]) Emplace(key K, val V) (*V, bool) {
	return t.Insert(key, val)
}

// TryEmplace adds key mapped to build() if key is absent. build runs only
// after the duplicate check misses, so constructing the value can be
// arbitrarily expensive without penalizing duplicate inserts.
func (t *Table[K, V]) TryEmplace(key K, build func() V) (*V, bool) {
	h := t.hash(key)
	if p := t.findPtr(key, h); p != nil {
		return p, false
	}
	return t.emplaceNew(key, h, build()), true
}

// InsertOrAssign adds key to val, overwriting the value if key is already
// present. The bool reports whether an insertion (rather than an
// assignment) took place.
func (t *Table[K, V]) InsertOrAssign(key K, val V) (*V, bool) {
	h := t.hash(key)
	if p := t.findPtr(key, h); p != nil {
		*p = val
		return p, false
	}
	return t.emplaceNew(key, h, val), true
}

// InsertWithHint is Insert with an optimistic position hint: if hint
// already refers to an entry with the given key the duplicate check
// short-circuits. Correctness does not depend on hint quality.
func (t *Table[K, V]) InsertWithHint(hint Entry[K, V], key K, val V) (*V, bool) {
	if hint.Value != nil && t.equal(hint.Key, key) {
		return hint.Value, false
	}
	return t.Insert(key, val)
}

// InsertItems inserts every item, reserving capacity for the whole batch
// up front. Duplicate keys keep their existing values, matching Insert.
func (t *Table[K, V]) InsertItems(items ...Item[K, V]) {
	if err := t.Reserve(t.size + len(items)); err != nil {
		panic(err)
	}
	for _, it := range items {
		t.Insert(it.Key, it.Value)
	}
}

// GetOrInsert returns a pointer to the value mapped to key, inserting a
// zero value first if key is absent.
func (t *Table[K, V]) GetOrInsert(key K) *V {
	p, _ := t.TryEmplace(key, func() V { var zero V; return zero })
	return p
}

// GetOrInsertWithHash is GetOrInsert with a caller-precomputed hash of
// key. The hash must equal what the table's hash function would produce
// for key, since it determines where a missing entry is inserted.
func (t *Table[K, V]) GetOrInsertWithHash(key K, hash uint64) *V {
	if p := t.findPtr(key, hash); p != nil {
		return p
	}
	var zero V
	return t.emplaceNew(key, hash, zero)
}

// emplaceNew places a key known to be absent. It grows the table when the
// bucket-array load would exceed the max load factor or when the overflow
// store has accumulated overflowThreshold entries past its post-rehash
// baseline (and growing would remap at least one of them), then walks the
// neighborhood placement algorithm, falling back to the overflow store
// when displacement fails and growing provably cannot help.
func (t *Table[K, V]) emplaceNew(key K, hash uint64, val V) *V {
	if t.capacity == 0 {
		c, err := t.policy.InitialCapacity(uint64(t.neighborhoodSize))
		if err != nil {
			panic(err)
		}
		t.buckets = t.allocBuckets(c)
		t.capacity = c
	}
	arrayResident := t.size - t.overflow.len()
	if float64(arrayResident+1) > t.maxLoadFactor*float64(t.capacity) {
		t.growNext()
	} else if t.overflow.len() >= t.overflowBaseline+t.overflowThreshold {
		if t.overflowRemapsOnGrow() {
			t.growNext()
		} else {
			// Growing would leave every overflow entry exactly where it
			// is; raise the baseline instead of rehashing in vain.
			t.overflowBaseline = t.overflow.len()
		}
	}
	for {
		if p, ok := t.placeInNeighborhood(key, val, hash); ok {
			t.size++
			if debug {
				t.checkInvariants()
			}
			return p
		}
		home := int(t.policy.IndexFor(hash, t.capacity))
		if !t.neighborhoodRemapsOnGrow(home) {
			if debug {
				fmt.Printf("emplace %v: neighborhood %d saturated, overflowing\n", key, home)
			}
			p, _ := t.overflow.getOrInsert(key, func() V { return val }, t.equal)
			t.size++
			return p
		}
		t.growNext()
	}
}

// placeInNeighborhood runs the neighborhood scan and displacement search:
// linear-probe from home for the first empty slot, then repeatedly
// displace closer entries into it until it lands within the neighborhood.
// Reports failure when no empty slot exists before the array tail or no
// legal displacement remains.
func (t *Table[K, V]) placeInNeighborhood(key K, val V, hash uint64) (*V, bool) {
	home := int(t.policy.IndexFor(hash, t.capacity))
	empty := home
	for ; empty < len(t.buckets) && t.buckets[empty].isOccupied(); empty++ {
	}
	if empty == len(t.buckets) {
		return nil, false
	}
	for empty-home >= t.neighborhoodSize {
		if !t.moveCloser(&empty) {
			return nil, false
		}
	}
	t.buckets[empty].install(key, val, hash, t.storeHash)
	t.buckets[home].setOwner(uint(empty - home))
	return &t.buckets[empty].val, true
}

// moveCloser opens a slot nearer to some home bucket by moving an entry
// from a lower index into the empty slot at *empty, provided the move
// keeps that entry within its own home's neighborhood. On success *empty
// is updated to the vacated (lower) index.
func (t *Table[K, V]) moveCloser(empty *int) bool {
	start := *empty - (t.neighborhoodSize - 1)
	if start < 0 {
		start = 0
	}
	for home := start; home < *empty; home++ {
		owner := &t.buckets[home]
		bm := owner.bitmap
		for bm != 0 {
			off := bits.TrailingZeros64(bm)
			candidate := home + off
			if candidate >= *empty {
				break
			}
			src := &t.buckets[candidate]
			t.buckets[*empty].install(src.key, src.val, uint64(src.hash), t.storeHash)
			src.evict()
			owner.clearOwner(uint(off))
			owner.setOwner(uint(*empty - home))
			*empty = candidate
			return true
		}
	}
	return false
}

// neighborhoodRemapsOnGrow reports whether growing to the policy's next
// capacity would move at least one entry of home's (saturated)
// neighborhood to a different home bucket. When it would not (every
// entry hashes to the same home at the larger capacity too), rehashing
// cannot relieve the neighborhood and the overflow store is the only
// useful destination.
func (t *Table[K, V]) neighborhoodRemapsOnGrow(home int) bool {
	next, err := t.policy.NextCapacity(t.capacity)
	if err != nil {
		return false
	}
	useCached := t.storeHash && cachedHashSufficient(t.policy, t.capacity) &&
		cachedHashSufficient(t.policy, next)
	for i := 0; i < t.neighborhoodSize; i++ {
		b := &t.buckets[home+i]
		if !b.isOccupied() {
			return true
		}
		var h uint64
		if useCached {
			h = uint64(b.hash)
		} else {
			h = t.hash(b.key)
		}
		if t.policy.IndexFor(h, t.capacity) != t.policy.IndexFor(h, next) {
			return true
		}
	}
	return false
}

// overflowRemapsOnGrow reports whether growing to the policy's next
// capacity would change the home bucket of at least one overflow entry.
func (t *Table[K, V]) overflowRemapsOnGrow() bool {
	next, err := t.policy.NextCapacity(t.capacity)
	if err != nil {
		return false
	}
	remaps := false
	t.overflow.each(func(k K, _ V) bool {
		h := t.hash(k)
		if t.policy.IndexFor(h, t.capacity) != t.policy.IndexFor(h, next) {
			remaps = true
			return false
		}
		return true
	})
	return remaps
}
