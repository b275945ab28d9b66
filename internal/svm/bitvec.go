/*
 * Copyright 2024 Silica Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package svm

import (
	"fmt"
	"strings"
)

// BitVec is a dense register set sized at construction. All binary
// operations require both operands to be the same size.
type BitVec struct {
	nb   int
	bits []uint64
}

func newBitVec(nb int) BitVec {
	return BitVec{
		nb:   nb,
		bits: make([]uint64, (nb+63)/64),
	}
}

func (self BitVec) Test(i int) bool {
	if i < 0 || i >= self.nb {
		panic(fmt.Sprintf("svm: bit index out of range: %d / %d", i, self.nb))
	}
	return self.bits[i/64]&(1<<(uint(i)%64)) != 0
}

func (self BitVec) Set(i int) {
	if i < 0 || i >= self.nb {
		panic(fmt.Sprintf("svm: bit index out of range: %d / %d", i, self.nb))
	}
	self.bits[i/64] |= 1 << (uint(i) % 64)
}

func (self BitVec) clearAll() {
	for i := range self.bits {
		self.bits[i] = 0
	}
}

func (self BitVec) copyFrom(v BitVec) {
	copy(self.bits, v.bits)
}

func (self BitVec) eq(v BitVec) bool {
	for i := range self.bits {
		if self.bits[i] != v.bits[i] {
			return false
		}
	}
	return true
}

/* self |= v */
func (self BitVec) or(v BitVec) {
	for i := range self.bits {
		self.bits[i] |= v.bits[i]
	}
}

/* self |= a &^ b */
func (self BitVec) orDiff(a BitVec, b BitVec) {
	for i := range self.bits {
		self.bits[i] |= a.bits[i] &^ b.bits[i]
	}
}

func (self BitVec) String() string {
	rr := make([]string, 0, self.nb)
	for i := 0; i < self.nb; i++ {
		if self.Test(i) {
			rr = append(rr, fmt.Sprintf("r%d", i))
		}
	}
	return "{" + strings.Join(rr, ", ") + "}"
}
