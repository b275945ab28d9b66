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

// PassDeadCode removes instructions whose results are never observed.
// This is a single global pass, not a fixed point: a chain of dead
// definitions feeding only each other may need another run to disappear
// completely.
type PassDeadCode struct{}

func (PassDeadCode) Apply(fn *Func) {
	uses := make([]int32, fn.NRegs)

	/* first scan: count every observation of every register, explicit
	 * operands plus the structured ops' implicit self-reads */
	for i := range fn.Ins {
		p := &fn.Ins[i]
		if p.A1.Kind == K_reg {
			uses[p.A1.Rv]++
		}
		if p.A2.Kind == K_reg {
			uses[p.A2.Rv]++
		}
		if _OpTab[p.Op].selfrd && p.Rd.Kind == K_reg {
			uses[p.Rd.Rv]++
		}
	}

	/* second scan: retire definitions nobody reads; flag writers are
	 * kept since flag liveness is not tracked */
	for i := range fn.Ins {
		p := &fn.Ins[i]
		if !p.writesRd() {
			continue
		}
		if _OpTab[p.Op].impure || _OpTab[p.Op].wflags {
			continue
		}
		if uses[p.Rd.Rv] == 0 {
			p.nop()
		}
	}
}
