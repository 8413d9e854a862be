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

// Allocator is a caller-pluggable source of bucket-array storage. The
// default allocator uses Go's builtin make() and leaves reclamation to the
// garbage collector.
//
// If an allocator manages memory outside the garbage collector's reach and
// requires buckets to be explicitly freed, Table.Close must be called to
// ensure FreeBuckets runs on the table's current and any retired arrays.
type Allocator[K comparable, V any] interface {
	// AllocBuckets returns a slice equivalent to make([]Bucket[K,V], n).
	AllocBuckets(n int) []Bucket[K, V]

	// FreeBuckets optionally releases the memory backing a slice
	// previously returned by AllocBuckets.
	FreeBuckets(v []Bucket[K, V])
}

type defaultAllocator[K comparable, V any] struct{}

func (defaultAllocator[K, V]) AllocBuckets(n int) []Bucket[K, V] {
	return make([]Bucket[K, V], n)
}

func (defaultAllocator[K, V]) FreeBuckets(v []Bucket[K, V]) {}
