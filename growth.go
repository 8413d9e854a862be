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

import "math/bits"

// GrowthPolicy translates a hash into a home-bucket index within [0,
// capacity) and advises the table on the next capacity to grow to. The
// neighborhood tail padding (H-1 extra slots past capacity) is added by the
// table itself; a GrowthPolicy only ever sees the "logical" capacity.
type GrowthPolicy interface {
	// IndexFor returns the home bucket index for hash within [0, capacity).
	IndexFor(hash uint64, capacity uint64) uint64

	// NextCapacity returns the capacity to grow to from capacity. It
	// returns ErrExcessiveCapacity if capacity cannot be grown further.
	NextCapacity(capacity uint64) (uint64, error)

	// InitialCapacity returns the smallest capacity this policy can
	// represent that is at least hint. It returns ErrExcessiveCapacity
	// if hint exceeds the policy's representable maximum.
	InitialCapacity(hint uint64) (uint64, error)
}

// PowerOfTwoPolicy is the default GrowthPolicy. Capacities are powers of
// two; IndexFor masks the hash with capacity-1.
type PowerOfTwoPolicy struct {
	// Factor is the growth multiplier applied on each resize. It must be
	// a power of two; the zero value is treated as 2.
	Factor uint64
}

const maxPowerOfTwoCapacity = uint64(1) << 62

func (p PowerOfTwoPolicy) factor() uint64 {
	if p.Factor == 0 {
		return 2
	}
	return p.Factor
}

// IndexFor implements GrowthPolicy.
func (p PowerOfTwoPolicy) IndexFor(hash uint64, capacity uint64) uint64 {
	return hash & (capacity - 1)
}

// NextCapacity implements GrowthPolicy.
func (p PowerOfTwoPolicy) NextCapacity(capacity uint64) (uint64, error) {
	f := p.factor()
	if capacity == 0 {
		return 1, nil
	}
	if capacity > maxPowerOfTwoCapacity/f {
		return 0, excessiveCapacityf("power-of-two policy cannot grow past %d (requested factor %d of %d)",
			maxPowerOfTwoCapacity, f, capacity)
	}
	return capacity * f, nil
}

// InitialCapacity implements GrowthPolicy.
func (p PowerOfTwoPolicy) InitialCapacity(hint uint64) (uint64, error) {
	if hint <= 1 {
		return 1, nil
	}
	if hint > maxPowerOfTwoCapacity {
		return 0, excessiveCapacityf("power-of-two policy cannot represent capacity %d (max %d)",
			hint, maxPowerOfTwoCapacity)
	}
	return uint64(1) << bits.Len64(hint-1), nil
}

// validatePowerOfTwoFactor reports whether factor is a valid growth factor
// for PowerOfTwoPolicy: a power of two, at least 2.
func validatePowerOfTwoFactor(factor uint64) bool {
	if factor < 2 {
		return false
	}
	return factor&(factor-1) == 0
}

// primeTable is a fixed, monotonically increasing table of capacities used
// by PrimePolicy, mirroring tsl::hh::prime_growth_policy's table of primes.
var primeTable = [...]uint64{
	5, 17, 29, 37, 53, 97, 193, 389, 769, 1543, 3079, 6151, 12289, 24593,
	49157, 98317, 196613, 393241, 786433, 1572869, 3145739, 6291469,
	12582917, 25165843, 50331653, 100663319, 201326611, 402653189,
	805306457, 1610612741, 3221225473, 4294967291,
}

// primeModFuncs holds one closure per entry of primeTable, each computing
// `hash % p` for its entry p. The divisor is a value captured by the
// closure, not a compile-time constant, so every call still performs a
// general 64-bit division.
var primeModFuncs = buildPrimeModFuncs()

func buildPrimeModFuncs() []func(uint64) uint64 {
	fns := make([]func(uint64) uint64, len(primeTable))
	for i, p := range primeTable {
		p := p
		fns[i] = func(h uint64) uint64 { return h % p }
	}
	return fns
}

func primeIndex(capacity uint64) int {
	for i, p := range primeTable {
		if p == capacity {
			return i
		}
	}
	return -1
}

// PrimePolicy draws capacities from a fixed table of primes. The
// distribution of h mod prime tolerates poor hash functions better than a
// power-of-two mask, at the cost of a division on every index. IndexFor
// finds capacity's entry in primeTable by a linear search on each call.
type PrimePolicy struct{}

// IndexFor implements GrowthPolicy.
func (PrimePolicy) IndexFor(hash uint64, capacity uint64) uint64 {
	if i := primeIndex(capacity); i >= 0 {
		return primeModFuncs[i](hash)
	}
	return hash % capacity
}

// NextCapacity implements GrowthPolicy.
func (PrimePolicy) NextCapacity(capacity uint64) (uint64, error) {
	i := primeIndex(capacity)
	if i+1 >= len(primeTable) {
		return 0, excessiveCapacityf("prime policy cannot grow past %d", primeTable[len(primeTable)-1])
	}
	return primeTable[i+1], nil
}

// InitialCapacity implements GrowthPolicy.
func (PrimePolicy) InitialCapacity(hint uint64) (uint64, error) {
	for _, p := range primeTable {
		if p >= hint {
			return p, nil
		}
	}
	return 0, excessiveCapacityf("prime policy cannot represent capacity %d (max %d)",
		hint, primeTable[len(primeTable)-1])
}

// ModuloPolicy advances capacities by an arbitrary ratio and indexes with a
// general modulo, trading lookup speed for finer memory granularity.
type ModuloPolicy struct {
	// Num/Den is the growth ratio applied on resize; the zero value is
	// treated as 2/1.
	Num, Den uint64
}

func (m ModuloPolicy) ratio() (uint64, uint64) {
	if m.Num == 0 || m.Den == 0 {
		return 2, 1
	}
	return m.Num, m.Den
}

// IndexFor implements GrowthPolicy.
func (m ModuloPolicy) IndexFor(hash uint64, capacity uint64) uint64 {
	return hash % capacity
}

const maxModuloCapacity = uint64(1) << 62

// NextCapacity implements GrowthPolicy.
func (m ModuloPolicy) NextCapacity(capacity uint64) (uint64, error) {
	if capacity == 0 {
		return 1, nil
	}
	num, den := m.ratio()
	// ceil(capacity * num / den), checked for overflow.
	if capacity > maxModuloCapacity/num {
		return 0, excessiveCapacityf("modulo policy cannot grow %d by ratio %d/%d past %d",
			capacity, num, den, maxModuloCapacity)
	}
	scaled := capacity * num
	next := scaled/den + boolToUint64(scaled%den != 0)
	if next <= capacity {
		next = capacity + 1
	}
	if next > maxModuloCapacity {
		return 0, excessiveCapacityf("modulo policy cannot grow %d past %d", capacity, maxModuloCapacity)
	}
	return next, nil
}

// InitialCapacity implements GrowthPolicy.
func (m ModuloPolicy) InitialCapacity(hint uint64) (uint64, error) {
	if hint == 0 {
		return 1, nil
	}
	if hint > maxModuloCapacity {
		return 0, excessiveCapacityf("modulo policy cannot represent capacity %d (max %d)",
			hint, maxModuloCapacity)
	}
	return hint, nil
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
