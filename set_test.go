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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetBasic(t *testing.T) {
	s := NewSet[string](0)

	require.True(t, s.IsEmpty())
	require.True(t, s.Insert("a"))
	require.True(t, s.Insert("b"))
	require.False(t, s.Insert("a"))
	require.Equal(t, 2, s.Len())
	require.True(t, s.Contains("a"))
	require.False(t, s.Contains("c"))

	require.True(t, s.Erase("a"))
	require.False(t, s.Erase("a"))
	require.Equal(t, 1, s.Len())

	s.Clear()
	require.True(t, s.IsEmpty())
}

func TestSetEach(t *testing.T) {
	s := NewSet[int](0)
	for i := 0; i < 100; i++ {
		s.Insert(i)
	}

	seen := make(map[int]bool)
	s.Each(func(k int) bool {
		seen[k] = true
		return true
	})
	require.Len(t, seen, 100)

	// Early exit.
	n := 0
	s.Each(func(int) bool {
		n++
		return n < 10
	})
	require.Equal(t, 10, n)
}

func TestSetCloneEqual(t *testing.T) {
	s := NewSet[int](0)
	for i := 0; i < 50; i++ {
		s.Insert(i)
	}

	c := s.Clone()
	require.True(t, s.Equal(c))

	c.Insert(100)
	require.False(t, s.Equal(c))
	require.False(t, s.Contains(100))
}

func TestSetOverflow(t *testing.T) {
	// Pathological hash pushes keys into overflow; set semantics hold.
	s := NewSet[int](0,
		WithHash[int, struct{}](func(int) uint64 { return 7 }),
		WithNeighborhoodSize[int, struct{}](4))
	for i := 0; i < 30; i++ {
		require.True(t, s.Insert(i))
	}
	require.Greater(t, s.OverflowSize(), 0)
	for i := 0; i < 30; i++ {
		require.True(t, s.Contains(i))
		require.False(t, s.Insert(i))
	}
	require.NoError(t, s.Reserve(1000))
	require.Equal(t, 30, s.Len())
}
