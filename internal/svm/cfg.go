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
	"sort"

	"github.com/oleiade/lane"
)

// BasicBlock is a contiguous, inclusive range [First, Last] of the owning
// function's instruction stream, with its control edges and liveness sets.
type BasicBlock struct {
	Id      int
	First   int
	Last    int
	Returns bool
	Aborts  bool
	In      EdgeList
	Out     EdgeList
	LiveIn  BitVec
	LiveOut BitVec
	VarKill BitVec
}

// CFG is the derived control-flow graph of one function. Block ranges are
// sorted and cover every instruction index exactly once.
type CFG struct {
	fn     *Func
	Blocks []BasicBlock
}

func (self *CFG) addEdge(from int, to int) {
	self.Blocks[from].Out.Add(to)
	self.Blocks[to].In.Add(from)
}

// BlockOf returns the block covering instruction index i. An index not
// covered by any block means an earlier pass broke the partition
// invariant, which is not recoverable.
func (self *CFG) BlockOf(i int) *BasicBlock {
	n := sort.Search(len(self.Blocks), func(b int) bool {
		return self.Blocks[b].Last >= i
	})
	if n == len(self.Blocks) || self.Blocks[n].First > i {
		panic(fmt.Sprintf("svm: no basic block covers instruction %d", i))
	}
	return &self.Blocks[n]
}

// Reachable marks every block reachable from the entry block with BFS.
func (self *CFG) Reachable() []bool {
	q := lane.NewQueue()
	seen := make([]bool, len(self.Blocks))

	/* empty function */
	if len(self.Blocks) == 0 {
		return seen
	}

	/* walk the edges breadth-first */
	seen[0] = true
	for q.Enqueue(0); !q.Empty(); {
		bb := &self.Blocks[q.Dequeue().(int)]
		for i := 0; i < bb.Out.Len(); i++ {
			if to := bb.Out.At(i); !seen[to] {
				seen[to] = true
				q.Enqueue(to)
			}
		}
	}
	return seen
}

func buildCFG(fn *Func) *CFG {
	ins := fn.Ins
	nb := 0

	/* first scan: count the blocks */
	split := true
	for i := range ins {
		if split || ins[i].Target {
			nb++
		}
		split = isTerminator(ins, i)
	}

	/* second scan: assign ranges, terminal flags and fallthrough edges */
	p := newCFG(fn, nb)
	bi := 0
	first := 0
	for i := range ins {
		if i+1 < len(ins) && !isTerminator(ins, i) && !ins[i+1].Target {
			continue
		}

		/* close the current block */
		bb := &p.Blocks[bi]
		bb.Id = bi
		bb.First = first
		bb.Last = i

		/* classify the terminal instruction */
		switch ins[i].Op {
		case OP_ret:
			bb.Returns = true
		case OP_abort:
			bb.Aborts = true
		}

		/* fall through to the next block unless control cannot continue:
		 * conditional jumps and case dispatches keep their fallthrough */
		if bi+1 < nb && !bb.Returns && !bb.Aborts {
			if ins[i].Op != OP_jmp || ins[i].Cc != CC_none {
				p.addEdge(bi, bi+1)
			}
		}
		first = i + 1
		bi++
	}

	/* third scan: resolve explicit jump and case targets */
	for bi := range p.Blocks {
		bb := &p.Blocks[bi]
		for i := bb.First; i <= bb.Last; i++ {
			switch ins[i].Op {
			case OP_jmp:
				p.addEdge(bi, p.BlockOf(ins[i].A1.Label()).Id)
			case OP_case:
				p.addEdge(bi, p.BlockOf(ins[i].A2.Label()).Id)
			}
		}
	}

	/* derive the liveness sets */
	computeLiveness(p)
	return p
}
