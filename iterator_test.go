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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// overflowTable builds a table whose entries are split between the bucket
// array and the overflow store, by pinning every key's hash to a small
// constant so the neighborhood saturates.
func overflowTable(t *testing.T, count int, opts ...Option[int, int]) *Table[int, int] {
	t.Helper()
	opts = append([]Option[int, int]{
		WithHash[int, int](func(key int) uint64 { return 3 }),
		WithNeighborhoodSize[int, int](4),
	}, opts...)
	m := New[int, int](0, opts...)
	for i := 0; i < count; i++ {
		m.Insert(i, i*10)
	}
	require.Equal(t, count, m.Len())
	require.Greater(t, m.OverflowSize(), 0)
	require.Less(t, m.OverflowSize(), count)
	return m
}

func TestIteratorWalksBothRegions(t *testing.T) {
	m := overflowTable(t, 50)

	seen := make(map[int]int)
	crossings := 0
	prevOverflow := false
	it := m.Iter()
	for it.Next() {
		if it.inOverflow() != prevOverflow {
			crossings++
			prevOverflow = it.inOverflow()
		}
		seen[it.Key()] = *it.Value()
	}
	require.Equal(t, m.toBuiltinMap(), seen)
	require.Len(t, seen, 50)
	// The bucket-array/overflow boundary is crossed exactly once.
	require.Equal(t, 1, crossings)

	// An exhausted iterator stays exhausted.
	require.False(t, it.Next())
}

func TestIteratorEmptyTable(t *testing.T) {
	m := New[int, int](0)
	it := m.Iter()
	require.False(t, it.Next())
	require.True(t, it.samePos(m.End()))
}

func TestIteratorValueMutation(t *testing.T) {
	m := overflowTable(t, 20)

	it := m.Iter()
	for it.Next() {
		*it.Value() += 7
	}
	for i := 0; i < 20; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i*10+7, v)
	}
}

func TestIteratorSortedOverflowOrder(t *testing.T) {
	m := overflowTable(t, 40,
		WithSortedOverflow[int, int](func(a, b int) bool { return a < b }))

	// The overflow phase yields keys in ascending order; the bucket-array
	// phase is position-ordered and unaffected by the overflow shape.
	var overflowKeys []int
	it := m.Iter()
	for it.Next() {
		if it.inOverflow() {
			overflowKeys = append(overflowKeys, it.Key())
		}
	}
	require.Equal(t, m.OverflowSize(), len(overflowKeys))
	require.True(t, sort.IntsAreSorted(overflowKeys))
}

func TestEraseIter(t *testing.T) {
	m := overflowTable(t, 30)
	e := m.toBuiltinMap()

	// Erase every entry with an even key while iterating, including ones
	// on both sides of the region boundary.
	it := m.Iter()
	for it.Next() {
		if it.Key()%2 == 0 {
			delete(e, it.Key())
			m.EraseIter(it)
		}
	}
	require.Equal(t, e, m.toBuiltinMap())
	require.Equal(t, 15, m.Len())
	m.checkInvariants()
}

func TestEraseRangeEmpty(t *testing.T) {
	m := FromItems([]Item[int, int]{{1, 1}, {2, 2}, {3, 3}})

	// erase(begin, begin) is a no-op.
	from := m.Iter()
	require.True(t, from.Next())
	to := m.Iter()
	require.True(t, to.Next())
	require.Equal(t, 0, m.EraseRange(from, to))
	require.Equal(t, 3, m.Len())

	// erase(end, end) is a no-op too.
	require.Equal(t, 0, m.EraseRange(m.End(), m.End()))
	require.Equal(t, 3, m.Len())
}

func TestEraseRangeAll(t *testing.T) {
	m := New[int, int](0)
	for i := 0; i < 1000; i++ {
		m.Insert(i, i)
	}

	from := m.Iter()
	from.Next()
	require.Equal(t, 1000, m.EraseRange(from, m.End()))
	require.Equal(t, 0, m.Len())
	require.False(t, m.Iter().Next())
	m.checkInvariants()

	// Subsequent insertions succeed.
	_, inserted := m.Insert(5, 50)
	require.True(t, inserted)
	require.Equal(t, 1, m.Len())
}

func TestEraseRangeAcrossBoundary(t *testing.T) {
	m := overflowTable(t, 40)

	// Erase everything from the third element on; the range spans from
	// the bucket array into the overflow store.
	from := m.Iter()
	for i := 0; i < 3; i++ {
		require.True(t, from.Next())
	}
	kept := []int{0, 0}
	{
		it := m.Iter()
		it.Next()
		kept[0] = it.Key()
		it.Next()
		kept[1] = it.Key()
	}

	require.Equal(t, 38, m.EraseRange(from, m.End()))
	require.Equal(t, 2, m.Len())
	require.True(t, m.Contains(kept[0]))
	require.True(t, m.Contains(kept[1]))
	m.checkInvariants()
}

func TestEraseRangePartial(t *testing.T) {
	m := FromItems([]Item[int, int]{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}})

	// Erase the middle three of five.
	from := m.Iter()
	from.Next()
	from.Next()
	to := m.Iter()
	for i := 0; i < 5; i++ {
		to.Next()
	}
	require.Equal(t, 3, m.EraseRange(from, to))
	require.Equal(t, 2, m.Len())
	m.checkInvariants()
}
