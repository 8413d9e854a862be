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
	"math/rand"
	"testing"
)

var benchSizes = []int{16, 1024, 65536}

func benchPolicies() []struct {
	name   string
	policy GrowthPolicy
} {
	return []struct {
		name   string
		policy GrowthPolicy
	}{
		{"pow2", PowerOfTwoPolicy{}},
		{"prime", PrimePolicy{}},
		{"modulo", ModuloPolicy{}},
	}
}

func BenchmarkGetHit(b *testing.B) {
	for _, p := range benchPolicies() {
		for _, size := range benchSizes {
			b.Run(fmt.Sprintf("%s/%d", p.name, size), func(b *testing.B) {
				m := New[int64, int64](size, WithGrowthPolicy[int64, int64](p.policy))
				keys := make([]int64, size)
				for i := range keys {
					keys[i] = rand.Int63()
					m.Insert(keys[i], int64(i))
				}
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					_, ok := m.Get(keys[i&(len(keys)-1)])
					if !ok {
						b.Fatal("expected hit")
					}
				}
			})
		}
	}
}

func BenchmarkGetMiss(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprint(size), func(b *testing.B) {
			m := New[int64, int64](size)
			for i := 0; i < size; i++ {
				m.Insert(rand.Int63(), int64(i))
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, ok := m.Get(-int64(i) - 1)
				if ok {
					b.Fatal("unexpected hit")
				}
			}
		})
	}
}

func BenchmarkInsertGrow(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprint(size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				m := New[int64, int64](0)
				for j := 0; j < size; j++ {
					m.Insert(int64(j), int64(j))
				}
			}
		})
	}
}

func BenchmarkInsertPreReserved(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprint(size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				m := New[int64, int64](size)
				for j := 0; j < size; j++ {
					m.Insert(int64(j), int64(j))
				}
			}
		})
	}
}

func BenchmarkStoreHashRehash(b *testing.B) {
	for _, stored := range []bool{false, true} {
		b.Run(fmt.Sprintf("storehash=%t", stored), func(b *testing.B) {
			m := New[int64, int64](0, WithStoreHash[int64, int64](stored))
			const n = 65536
			for i := int64(0); i < n; i++ {
				m.Insert(i, i)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				// Alternate between two capacities to force a full rehash
				// every iteration.
				if err := m.Rehash(m.BucketCount() * 2); err != nil {
					b.Fatal(err)
				}
				if err := m.Rehash(0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEraseInsertChurn(b *testing.B) {
	m := New[int64, int64](0)
	const n = 16384
	for i := int64(0); i < n; i++ {
		m.Insert(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := int64(i % n)
		m.Erase(k)
		m.Insert(k, k)
	}
}
