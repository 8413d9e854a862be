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

import "math"

// cachedHashSufficient reports whether a bucket's truncated cached hash
// selects the same home bucket as the full hash would at the given
// capacity. Only the power-of-two policy masks exclusively low bits, and
// only while the mask fits the truncated width; every other combination
// must recompute the full hash on rehash.
func cachedHashSufficient(policy GrowthPolicy, capacity uint64) bool {
	_, ok := policy.(PowerOfTwoPolicy)
	return ok && capacity <= uint64(1)<<32
}

// growNext rehashes to the policy's next capacity, panicking with an
// error satisfying errors.Is(err, ErrExcessiveCapacity) when the policy
// refuses further growth.
func (t *Table[K, V]) growNext() {
	next, err := t.policy.NextCapacity(t.capacity)
	if err != nil {
		panic(err)
	}
	t.rehashTo(next)
}

// rehashTo moves every entry into a freshly allocated bucket array of the
// given capacity, draining the overflow store into the new table as well.
// The new storage is fully built before it replaces the old, so a panic
// from a user hash function mid-move leaves the original table intact.
func (t *Table[K, V]) rehashTo(newCapacity uint64) {
	fresh := Table[K, V]{
		hash:              t.hash,
		equal:             t.equal,
		policy:            t.policy,
		allocator:         t.allocator,
		overflowFactory:   t.overflowFactory,
		neighborhoodSize:  t.neighborhoodSize,
		storeHash:         t.storeHash,
		maxLoadFactor:     t.maxLoadFactor,
		minLoadFactor:     t.minLoadFactor,
		overflowThreshold: t.overflowThreshold,
		capacity:          newCapacity,
		overflow:          t.overflowFactory(),
	}
	fresh.buckets = t.allocBuckets(newCapacity)

	useCached := t.storeHash && cachedHashSufficient(t.policy, t.capacity) &&
		cachedHashSufficient(t.policy, newCapacity)
	for i := range t.buckets {
		b := &t.buckets[i]
		if !b.isOccupied() {
			continue
		}
		var h uint64
		if useCached {
			h = uint64(b.hash)
		} else {
			h = t.hash(b.key)
		}
		fresh.placeOrOverflow(b.key, b.val, h)
	}
	if t.overflow != nil {
		t.overflow.each(func(k K, v V) bool {
			fresh.placeOrOverflow(k, v, t.hash(k))
			return true
		})
	}

	old := t.buckets
	t.buckets = fresh.buckets
	t.capacity = newCapacity
	t.overflow = fresh.overflow
	t.overflowBaseline = fresh.overflow.len()
	if old != nil {
		t.allocator.FreeBuckets(old)
	}
	if debug {
		t.checkInvariants()
	}
}

// placeOrOverflow is the single-entry re-insertion used while draining
// into a fresh table during rehash. Keys are known unique, so there is no
// duplicate check; a placement failure goes straight to the overflow
// store rather than growing again mid-drain.
func (t *Table[K, V]) placeOrOverflow(key K, val V, hash uint64) {
	if _, ok := t.placeInNeighborhood(key, val, hash); !ok {
		t.overflow.insert(key, val, t.equal)
	}
	t.size++
}

// Reserve grows the table so that n entries fit without exceeding the max
// load factor and without intermediate rehashes. It never shrinks.
func (t *Table[K, V]) Reserve(n int) error {
	if n <= 0 {
		return nil
	}
	need := uint64(math.Ceil(float64(n) / t.maxLoadFactor))
	c, err := t.policy.InitialCapacity(maxUint64(need, uint64(t.neighborhoodSize)))
	if err != nil {
		return err
	}
	if c > t.capacity {
		if t.buckets == nil {
			t.buckets = t.allocBuckets(c)
			t.capacity = c
		} else {
			t.rehashTo(c)
		}
	}
	return nil
}

// Rehash sets the bucket count to the smallest policy-compatible capacity
// that is at least bucketCount and still large enough for the current
// size. Unlike Reserve it may shrink the bucket array.
func (t *Table[K, V]) Rehash(bucketCount int) error {
	if bucketCount < 0 {
		bucketCount = 0
	}
	need := uint64(math.Ceil(float64(t.size) / t.maxLoadFactor))
	hint := maxUint64(maxUint64(uint64(bucketCount), need), uint64(t.neighborhoodSize))
	c, err := t.policy.InitialCapacity(hint)
	if err != nil {
		return err
	}
	if c != t.capacity {
		t.rehashTo(c)
	}
	return nil
}
