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

// Iterator is a forward cursor over the table's entries: the bucket array
// first, then the overflow store in that store's defined order (insertion
// order for the list shape, key order for the sorted shape). The boundary
// between the two regions is crossed exactly once.
//
// Usage follows the scanner idiom:
//
//	it := t.Iter()
//	for it.Next() {
//		use(it.Key(), it.Value())
//	}
//
// Any table mutation other than erasing through EraseIter/EraseRange
// invalidates the iterator.
type Iterator[K comparable, V any] struct {
	t *Table[K, V]
	// idx is the current bucket-array position; len(t.buckets) means the
	// cursor has crossed into the overflow phase.
	idx int
	// ofItems snapshots the overflow store's items, in its defined order,
	// at iterator creation. The pointers are the store's stable storage,
	// so values read and written through them are live.
	ofItems []*overflowItem[K, V]
	ofIdx   int
}

// Iter returns an iterator positioned before the first entry.
func (t *Table[K, V]) Iter() *Iterator[K, V] {
	var items []*overflowItem[K, V]
	if t.overflow != nil && t.overflow.len() > 0 {
		items = t.overflow.entries()
	}
	return &Iterator[K, V]{t: t, idx: -1, ofItems: items, ofIdx: -1}
}

// End returns the past-the-end position, for use with EraseRange.
func (t *Table[K, V]) End() *Iterator[K, V] {
	it := t.Iter()
	it.idx = len(t.buckets)
	it.ofIdx = len(it.ofItems)
	return it
}

// Next advances to the next entry, reporting whether one exists.
func (it *Iterator[K, V]) Next() bool {
	if it.idx < len(it.t.buckets) {
		for it.idx++; it.idx < len(it.t.buckets); it.idx++ {
			if it.t.buckets[it.idx].isOccupied() {
				return true
			}
		}
	}
	if it.ofIdx < len(it.ofItems) {
		it.ofIdx++
	}
	return it.ofIdx < len(it.ofItems)
}

// Key returns the current entry's key. Keys are immutable once stored.
func (it *Iterator[K, V]) Key() K {
	if it.inOverflow() {
		return it.ofItems[it.ofIdx].key
	}
	return it.t.buckets[it.idx].key
}

// Value returns a pointer to the current entry's value, mutable in place.
func (it *Iterator[K, V]) Value() *V {
	if it.inOverflow() {
		return &it.ofItems[it.ofIdx].val
	}
	return &it.t.buckets[it.idx].val
}

// Entry returns the current entry as a key/value view.
func (it *Iterator[K, V]) Entry() Entry[K, V] {
	return Entry[K, V]{Key: it.Key(), Value: it.Value()}
}

func (it *Iterator[K, V]) inOverflow() bool {
	return it.idx >= len(it.t.buckets)
}

func (it *Iterator[K, V]) exhausted() bool {
	return it.inOverflow() && it.ofIdx >= len(it.ofItems)
}

// samePos reports whether two iterators over the same table state refer
// to the same position. All exhausted/end positions compare equal.
func (it *Iterator[K, V]) samePos(o *Iterator[K, V]) bool {
	if it.exhausted() || o.exhausted() {
		return it.exhausted() && o.exhausted()
	}
	if it.inOverflow() != o.inOverflow() {
		return false
	}
	if it.inOverflow() {
		return it.ofIdx == o.ofIdx
	}
	return it.idx == o.idx
}
