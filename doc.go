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

// Package hopscotch is a Go implementation of hopscotch hashing, an
// open-addressed hash table design where every key can only ever be found
// within a bounded "neighborhood" of H consecutive buckets starting at its
// home bucket. See Herlihy, Shavit & Tzafrir, "Hopscotch Hashing" (2008).
//
// # Hopscotch hashing
//
// Like a Swiss table or a classic linear-probing table, a hopscotch table
// stores entries directly in a flat bucket array and resolves collisions by
// open addressing rather than chaining. The distinguishing idea is the
// neighborhood invariant: an entry whose home bucket is b is guaranteed to
// live in one of the H buckets starting at b, never further away. Each
// bucket carries a small bitmap recording which of its H neighbors is
// currently "owned" by it, so a lookup touches exactly one bitmap and at
// most H candidate slots, with no chasing of probe sequences across the
// whole table the way linear probing does at high load factors.
//
// Insertion is the interesting part: if the bucket array has an empty slot
// but it falls outside the new key's neighborhood, the table walks entries
// backward from that empty slot toward the home bucket, displacing each one
// found to be legally movable closer, until either the empty slot lands
// inside the neighborhood or no further displacement is possible. When
// displacement is exhausted and growing the table is undesirable, the entry
// falls back to a small overflow container instead, trading a linear or
// ordered scan for a small minority of pathological keys rather than
// rehashing the whole table.
//
// # Implementation
//
// Table[K, V] holds the bucket array and, in the degenerate case where
// neighborhoods repeatedly collide, an overflow store. Hashing, equality,
// the bucket-index growth policy, the neighborhood width, and the overflow
// shape are all pluggable via functional options (see options.go) rather
// than compile-time type parameters, since Go generics have no integer
// template-parameter equivalent.
//
// Set[K] is the obvious key-only projection of Table[K, V]: a Table[K,
// struct{}] with the mapped-value-shaped operations dropped.
package hopscotch
