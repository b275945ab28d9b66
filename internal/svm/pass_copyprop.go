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

// PassCopyProp substitutes register operands with their most specific
// known equivalent, an immediate or another register, following chains of
// moves. It only substitutes; simplification is value numbering's job.
type PassCopyProp struct{}

func (PassCopyProp) Apply(fn *Func) {
	subst := make([]Value, fn.NRegs)

	/* equivalences do not survive control-flow joins */
	reset := func() {
		for i := range subst {
			subst[i] = Value{}
		}
	}

	split := true
	for i := range fn.Ins {
		p := &fn.Ins[i]
		if split || p.Target {
			reset()
		}
		split = isTerminator(fn.Ins, i)

		/* rewrite the source operands through the map; the map always
		 * holds fully resolved values, so one step suffices */
		if p.A1.Kind == K_reg && subst[p.A1.Rv].Kind != K_invalid {
			p.A1 = subst[p.A1.Rv]
		}
		if p.A2.Kind == K_reg && subst[p.A2.Rv].Kind != K_invalid {
			p.A2 = subst[p.A2.Rv]
		}

		/* a move installs a new equivalence for its destination, any
		 * other write invalidates only the written register */
		if p.Op == OP_mov {
			if p.A1.Kind == K_reg && p.A1.Rv == p.Rd.Rv {
				subst[p.Rd.Rv] = Value{}
			} else {
				subst[p.Rd.Rv] = p.A1
			}
		} else if p.writesRd() {
			subst[p.Rd.Rv] = Value{}
		}
	}
}
