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
)

const _EdgeInline = 4

// EdgeList is a small set of block indices. Up to _EdgeInline entries are
// stored inline; past that the list spills to a heap slice and never moves
// back, so At never has to guess where an index lives mid-iteration.
type EdgeList struct {
	n      int
	inline [_EdgeInline]uint32
	spill  []uint32
}

func (self *EdgeList) Len() int {
	return self.n
}

// At returns the i-th block index. Indexing past Len is an internal
// consistency error.
func (self *EdgeList) At(i int) int {
	if i < 0 || i >= self.n {
		panic(fmt.Sprintf("svm: edge index out of range: %d / %d", i, self.n))
	}
	if self.spill != nil {
		return int(self.spill[i])
	}
	return int(self.inline[i])
}

// Add inserts a block index, ignoring duplicates.
func (self *EdgeList) Add(bb int) {
	for i := 0; i < self.n; i++ {
		if self.At(i) == bb {
			return
		}
	}

	/* spill to the heap once the inline storage is full */
	if self.spill == nil && self.n == _EdgeInline {
		self.spill = append(make([]uint32, 0, 2*_EdgeInline), self.inline[:self.n]...)
	}

	/* append to whichever storage is active */
	if self.spill != nil {
		self.spill = append(self.spill, uint32(bb))
	} else {
		self.inline[self.n] = uint32(bb)
	}
	self.n++
}

func (self *EdgeList) reset() {
	self.n = 0
	self.spill = nil
}

func (self *EdgeList) String() string {
	s := make([]byte, 0, 16)
	s = append(s, '{')
	for i := 0; i < self.n; i++ {
		if i != 0 {
			s = append(s, ", "...)
		}
		s = fmt.Appendf(s, "%d", self.At(i))
	}
	return string(append(s, '}'))
}
