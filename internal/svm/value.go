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

// Reg is a virtual register index, assigned densely by the lowering stage.
type Reg uint32

// Handle is an opaque reference to an entity outside the instruction
// stream, such as a runtime function or a signal object.
type Handle uint32

type ValueKind uint8

const (
	K_invalid ValueKind = iota // operand not present
	K_reg                      // virtual register
	K_int                      // 64-bit integer immediate
	K_float                    // floating immediate
	K_label                    // instruction index
	K_handle                   // opaque handle
)

// Value is one instruction operand. The kind determines which payload
// field is meaningful; everything else is garbage and must not be read.
type Value struct {
	Kind ValueKind
	Rv   Reg
	Iv   int64
	Fv   float64
}

func VNone() Value           { return Value{} }
func VReg(r Reg) Value       { return Value{Kind: K_reg, Rv: r} }
func VInt(v int64) Value     { return Value{Kind: K_int, Iv: v} }
func VFloat(v float64) Value { return Value{Kind: K_float, Fv: v} }
func VLabel(i int) Value     { return Value{Kind: K_label, Iv: int64(i)} }
func VHandle(h Handle) Value { return Value{Kind: K_handle, Iv: int64(h)} }

func (self Value) IsReg() bool   { return self.Kind == K_reg }
func (self Value) IsConst() bool { return self.Kind == K_int }

// Label returns the instruction index this operand refers to.
func (self Value) Label() int {
	if self.Kind != K_label {
		panic(fmt.Sprintf("svm: operand is not a label: %s", self))
	}
	return int(self.Iv)
}

func (self Value) String() string {
	switch self.Kind {
	case K_invalid:
		return "(invalid)"
	case K_reg:
		return fmt.Sprintf("%%r%d", self.Rv)
	case K_int:
		return fmt.Sprintf("$%d", self.Iv)
	case K_float:
		return fmt.Sprintf("$%g", self.Fv)
	case K_label:
		return fmt.Sprintf("@%d", self.Iv)
	case K_handle:
		return fmt.Sprintf("#%d", self.Iv)
	default:
		panic(fmt.Sprintf("svm: invalid value kind: %d", self.Kind))
	}
}
