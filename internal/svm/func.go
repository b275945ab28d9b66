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

// Func is one lowered function: a flat, mutable instruction stream plus
// the number of virtual registers in use. The CFG is derived state, built
// on demand and owned exclusively by this function.
type Func struct {
	Name  string
	Ins   []Ir
	NRegs int
	cfg   *CFG
}

// CFG returns the function's control-flow graph, building it if absent.
// The returned graph is valid until the next pass that changes control
// flow; such passes invalidate it and callers must request it again.
func (self *Func) CFG() *CFG {
	if self.cfg == nil {
		self.cfg = buildCFG(self)
	}
	return self.cfg
}

// InvalidateCFG discards the cached CFG, if any.
func (self *Func) InvalidateCFG() {
	if self.cfg != nil {
		freeCFG(self.cfg)
		self.cfg = nil
	}
}

func (self *Func) Disassemble() string {
	ss := make([]string, 0, len(self.Ins)+1)

	/* print every instruction, marking control-transfer destinations */
	for i := range self.Ins {
		if self.Ins[i].Target {
			ss = append(ss, fmt.Sprintf("%06x | L%d:", i, i))
		}
		ss = append(ss, fmt.Sprintf("%06x |     %s", i, self.Ins[i].Disassemble()))
	}

	/* join them together */
	return fmt.Sprintf(
		"%s {\n%s\n}",
		self.Name,
		strings.Join(ss, "\n"),
	)
}
