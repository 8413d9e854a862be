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

import "github.com/google/btree"

// LessFunc orders keys for the sorted-overflow variant. It plays the role
// the key-ordering relation plays for the hopscotch_sc_map flavor of the
// original design: the bucket-array phase of iteration is unchanged, but
// overflow entries are stored and yielded in key order.
type LessFunc[K comparable] func(a, b K) bool

// sortedOverflow is the ordered overflow shape, backed by google/btree's
// generic BTreeG. The tree holds *overflowItem pointers so that findPtr and
// getOrInsert hand out stable value pointers, same as the list shape.
type sortedOverflow[K comparable, V any] struct {
	less LessFunc[K]
	tree *btree.BTreeG[*overflowItem[K, V]]
}

const sortedOverflowDegree = 8

func newSortedOverflow[K comparable, V any](less LessFunc[K]) *sortedOverflow[K, V] {
	return &sortedOverflow[K, V]{
		less: less,
		tree: btree.NewG(sortedOverflowDegree, func(a, b *overflowItem[K, V]) bool {
			return less(a.key, b.key)
		}),
	}
}

// The eq arguments below are unused: lookups here are ordered, driven by
// the LessFunc, matching the "ordered lookup" allowance for the sorted
// variant.

func (o *sortedOverflow[K, V]) insert(key K, val V, eq EqualFunc[K]) bool {
	probe := &overflowItem[K, V]{key: key}
	if it, ok := o.tree.Get(probe); ok {
		it.val = val
		return true
	}
	probe.val = val
	o.tree.ReplaceOrInsert(probe)
	return false
}

func (o *sortedOverflow[K, V]) findPtr(key K, eq EqualFunc[K]) (*V, bool) {
	if it, ok := o.tree.Get(&overflowItem[K, V]{key: key}); ok {
		return &it.val, true
	}
	return nil, false
}

func (o *sortedOverflow[K, V]) getOrInsert(key K, build func() V, eq EqualFunc[K]) (*V, bool) {
	probe := &overflowItem[K, V]{key: key}
	if it, ok := o.tree.Get(probe); ok {
		return &it.val, false
	}
	probe.val = build()
	o.tree.ReplaceOrInsert(probe)
	return &probe.val, true
}

func (o *sortedOverflow[K, V]) erase(key K, eq EqualFunc[K]) bool {
	_, ok := o.tree.Delete(&overflowItem[K, V]{key: key})
	return ok
}

func (o *sortedOverflow[K, V]) len() int {
	return o.tree.Len()
}

func (o *sortedOverflow[K, V]) each(yield func(K, V) bool) {
	o.tree.Ascend(func(it *overflowItem[K, V]) bool {
		return yield(it.key, it.val)
	})
}

func (o *sortedOverflow[K, V]) entries() []*overflowItem[K, V] {
	s := make([]*overflowItem[K, V], 0, o.tree.Len())
	o.tree.Ascend(func(it *overflowItem[K, V]) bool {
		s = append(s, it)
		return true
	})
	return s
}

func (o *sortedOverflow[K, V]) clone() overflowStore[K, V] {
	c := newSortedOverflow[K, V](o.less)
	o.tree.Ascend(func(it *overflowItem[K, V]) bool {
		c.tree.ReplaceOrInsert(&overflowItem[K, V]{key: it.key, val: it.val})
		return true
	})
	return c
}
