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

// Set is the key-only projection of Table: a Table[K, struct{}] with the
// value-shaped operations dropped.
type Set[K comparable] struct {
	t *Table[K, struct{}]
}

// NewSet constructs a Set with space reserved for initialCapacity keys.
// Options are the same as New's, typed over struct{} values.
func NewSet[K comparable](initialCapacity int, options ...Option[K, struct{}]) *Set[K] {
	return &Set[K]{t: New[K, struct{}](initialCapacity, options...)}
}

// Insert adds key, reporting whether it was absent.
func (s *Set[K]) Insert(key K) bool {
	_, inserted := s.t.Insert(key, struct{}{})
	return inserted
}

// Contains reports whether key is present.
func (s *Set[K]) Contains(key K) bool {
	return s.t.Contains(key)
}

// Erase removes key, reporting whether it was present.
func (s *Set[K]) Erase(key K) bool {
	return s.t.Erase(key) == 1
}

// Len returns the number of keys in the set.
func (s *Set[K]) Len() int {
	return s.t.Len()
}

// IsEmpty reports whether the set holds no keys.
func (s *Set[K]) IsEmpty() bool {
	return s.t.IsEmpty()
}

// OverflowSize returns the number of keys held in the overflow store.
func (s *Set[K]) OverflowSize() int {
	return s.t.OverflowSize()
}

// Clear removes every key but keeps capacity.
func (s *Set[K]) Clear() {
	s.t.Clear()
}

// Reserve grows the set to fit n keys without intermediate rehashes.
func (s *Set[K]) Reserve(n int) error {
	return s.t.Reserve(n)
}

// Each calls yield for every key until yield returns false.
func (s *Set[K]) Each(yield func(key K) bool) {
	s.t.All(func(k K, _ struct{}) bool {
		return yield(k)
	})
}

// Clone returns an independent copy of the set.
func (s *Set[K]) Clone() *Set[K] {
	return &Set[K]{t: s.t.Clone()}
}

// Equal reports whether both sets hold the same keys.
func (s *Set[K]) Equal(o *Set[K]) bool {
	return s.t.Equal(o.t, func(a, b struct{}) bool { return true })
}
