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

// computeLiveness populates LiveIn, LiveOut and VarKill for every block
// with the textbook iterative backward analysis: a forward local scan per
// block, then a reverse-order fixed point over the block list.
func computeLiveness(p *CFG) {
	nr := p.fn.NRegs

	/* local pass: upward-exposed uses and kills per block */
	for bi := range p.Blocks {
		bb := &p.Blocks[bi]
		bb.LiveIn = newBitVec(nr)
		bb.LiveOut = newBitVec(nr)
		bb.VarKill = newBitVec(nr)

		for i := bb.First; i <= bb.Last; i++ {
			v := &p.fn.Ins[i]

			/* a register read before any kill in this block is upward-exposed */
			use := func(a Value) {
				if a.Kind == K_reg && !bb.VarKill.Test(int(a.Rv)) {
					bb.LiveIn.Set(int(a.Rv))
				}
			}
			use(v.A1)
			use(v.A2)

			/* structured ops read their own result register as a count
			 * or selector before anything is written */
			if _OpTab[v.Op].selfrd {
				use(v.Rd)
			}

			/* result definition kills the register from here down */
			if v.writesRd() {
				bb.VarKill.Set(int(v.Rd.Rv))
			}
		}
	}

	/* global fixed point, visiting blocks in reverse order */
	tmp := newBitVec(nr)
	for changed := true; changed; {
		changed = false
		for bi := len(p.Blocks) - 1; bi >= 0; bi-- {
			bb := &p.Blocks[bi]

			/* candidate liveout is the union over all successors S of
			 * (S.liveout \ S.varkill) | S.livein */
			tmp.clearAll()
			for i := 0; i < bb.Out.Len(); i++ {
				s := &p.Blocks[bb.Out.At(i)]
				tmp.or(s.LiveIn)
				tmp.orDiff(s.LiveOut, s.VarKill)
			}

			/* replace on change */
			if !tmp.eq(bb.LiveOut) {
				bb.LiveOut.copyFrom(tmp)
				changed = true
			}
		}
	}

	/* fold the converged liveout back into livein */
	for bi := range p.Blocks {
		bb := &p.Blocks[bi]
		bb.LiveIn.orDiff(bb.LiveOut, bb.VarKill)
	}
}
