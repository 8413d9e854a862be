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

// Erase removes key from the table, returning the number of entries
// removed (0 or 1). Erase never rehashes and never shifts other entries:
// a vacated bucket-array slot stays empty until a later insertion or
// rehash reuses it.
func (t *Table[K, V]) Erase(key K) int {
	return t.EraseWithHash(key, t.hash(key))
}

// EraseWithHash is Erase with a caller-precomputed hash of key.
func (t *Table[K, V]) EraseWithHash(key K, hash uint64) int {
	if t.size == 0 {
		return 0
	}
	if t.capacity > 0 {
		if idx, ok := t.findSlot(key, hash); ok {
			home := int(t.policy.IndexFor(hash, t.capacity))
			t.eraseSlot(idx, home)
			return 1
		}
	}
	if t.overflow.len() > 0 && t.overflow.erase(key, t.equal) {
		t.size--
		return 1
	}
	return 0
}

// eraseSlot destroys the entry at bucket-array index idx owned by home.
func (t *Table[K, V]) eraseSlot(idx, home int) {
	t.buckets[home].clearOwner(uint(idx - home))
	t.buckets[idx].evict()
	t.size--
	if debug {
		t.checkInvariants()
	}
}

// EraseIter removes the entry the iterator is currently positioned on.
// The iterator remains usable: the next call to Next advances to the
// element that followed the erased one. EraseIter must only be called
// after Next has returned true.
func (t *Table[K, V]) EraseIter(it *Iterator[K, V]) {
	if it.inOverflow() {
		item := it.ofItems[it.ofIdx]
		if t.overflow.erase(item.key, t.equal) {
			t.size--
		}
		return
	}
	key := t.buckets[it.idx].key
	home := int(t.policy.IndexFor(t.hash(key), t.capacity))
	t.eraseSlot(it.idx, home)
}

// EraseRange removes every entry in [from, to), returning the number of
// entries erased. Both iterators must have been obtained from this table
// with no intervening mutation; from must be positioned on an element (or
// exhausted) and to must be a later position or End. An equal pair is a
// no-op. The range may span the boundary between the bucket array and the
// overflow store.
func (t *Table[K, V]) EraseRange(from, to *Iterator[K, V]) int {
	n := 0
	for !from.samePos(to) {
		t.EraseIter(from)
		n++
		if !from.Next() {
			break
		}
	}
	return n
}
