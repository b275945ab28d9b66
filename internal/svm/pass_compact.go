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

// PassCompact removes all no-op instructions, rewriting every label
// through the old-to-new index map and recomputing the target markers.
// It must run last: it is the only pass that moves instructions.
type PassCompact struct{}

func (PassCompact) Apply(fn *Func) {
	n := len(fn.Ins)
	idx := make([]int, n)

	/* map every old index to its new position; a removed instruction
	 * maps to the next surviving one */
	w := 0
	for i := range fn.Ins {
		idx[i] = w
		if fn.Ins[i].Op != OP_nop {
			w++
		}
	}

	/* slide the survivors down, dropping stale target markers */
	j := 0
	for i := range fn.Ins {
		if fn.Ins[i].Op == OP_nop {
			continue
		}
		fn.Ins[j] = fn.Ins[i]
		fn.Ins[j].Target = false
		j++
	}
	fn.Ins = fn.Ins[:w]

	/* rewrite the labels and re-mark the destinations */
	relabel := func(v Value) Value {
		old := v.Label()
		if idx[old] >= w {
			panic(fmt.Sprintf("svm: compact: label %d has no surviving destination", old))
		}
		fn.Ins[idx[old]].Target = true
		return VLabel(idx[old])
	}
	for i := range fn.Ins {
		p := &fn.Ins[i]
		if p.A1.Kind == K_label {
			p.A1 = relabel(p.A1)
		}
		if p.A2.Kind == K_label {
			p.A2 = relabel(p.A2)
		}
	}

	/* block boundaries moved */
	fn.InvalidateCFG()
}
