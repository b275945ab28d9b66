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

type OpCode uint8

const (
	OP_nop   OpCode = iota // no operation
	OP_mov                 // A1 -> Rd
	OP_add                 // A1 + A2 -> Rd
	OP_sub                 // A1 - A2 -> Rd
	OP_mul                 // A1 * A2 -> Rd
	OP_div                 // A1 / A2 -> Rd
	OP_neg                 // -A1 -> Rd
	OP_exp                 // A1 ** A2 -> Rd
	OP_clamp               // max(A1, 0) -> Rd
	OP_shl                 // A1 << A2 -> Rd
	OP_and                 // A1 & A2 -> Rd
	OP_or                  // A1 | A2 -> Rd
	OP_cmp                 // A1 <cc> A2 -> %flags
	OP_csel                // %flags ? A1 : A2 -> Rd
	OP_cset                // i64(%flags) -> Rd
	OP_cneg                // %flags ? -A1 : A1 -> Rd
	OP_jmp                 // A1.PC -> PC, conditional on %flags when cc is t/f
	OP_call                // call A1 handle, clobbers Rd and %flags
	OP_ret                 // return A1 if present
	OP_copy                // memcpy(A2, A1, Rd), count left in Rd
	OP_zero                // memset(A1, 0, Rd), count left in Rd
	OP_case                // if (Rd == A1) A2.PC -> PC
	OP_abort               // abort the simulation
)

type OpSize uint8

const (
	SZ_none OpSize = iota // width left to the operand
	SZ_8
	SZ_16
	SZ_32
	SZ_64
)

// Width returns the operand width in bits; unspecified sizes fold at
// full 64-bit precision.
func (self OpSize) Width() uint {
	switch self {
	case SZ_none:
		return 64
	case SZ_8:
		return 8
	case SZ_16:
		return 16
	case SZ_32:
		return 32
	case SZ_64:
		return 64
	default:
		panic(fmt.Sprintf("svm: invalid operand size: %d", self))
	}
}

type CondCode uint8

const (
	CC_none CondCode = iota
	CC_t             // %flags set
	CC_f             // %flags clear
	CC_eq
	CC_ne
	CC_lt
	CC_le
	CC_gt
	CC_ge
)

var _CcNames = [...]string{
	CC_none: "",
	CC_t:    "t",
	CC_f:    "f",
	CC_eq:   "eq",
	CC_ne:   "ne",
	CC_lt:   "lt",
	CC_le:   "le",
	CC_gt:   "gt",
	CC_ge:   "ge",
}

func (self CondCode) String() string {
	if int(self) < len(_CcNames) {
		return _CcNames[self]
	}
	panic(fmt.Sprintf("svm: invalid condition code: %d", self))
}

// _OpInfo classifies one opcode. The table is a read-only contract shared
// with the interpreter and the native emitter; passes must not consult
// anything else to decide what an opcode reads or writes implicitly.
type _OpInfo struct {
	wflags bool // writes the %flags pseudo-register
	impure bool // has effects beyond Rd, never removable
	term   bool // ends the function
	abort  bool // aborting terminal
	selfrd bool // reads its own result register
	rdsel  bool // Rd is read-only (a selector, not a definition)
}

var _OpTab = [...]_OpInfo{
	OP_nop:   {},
	OP_mov:   {},
	OP_add:   {},
	OP_sub:   {},
	OP_mul:   {},
	OP_div:   {},
	OP_neg:   {},
	OP_exp:   {},
	OP_clamp: {},
	OP_shl:   {},
	OP_and:   {},
	OP_or:    {},
	OP_cmp:   {wflags: true, impure: true},
	OP_csel:  {},
	OP_cset:  {},
	OP_cneg:  {},
	OP_jmp:   {impure: true},
	OP_call:  {impure: true},
	OP_ret:   {impure: true, term: true},
	OP_copy:  {impure: true, selfrd: true},
	OP_zero:  {impure: true, selfrd: true},
	OP_case:  {impure: true, selfrd: true, rdsel: true},
	OP_abort: {impure: true, term: true, abort: true},
}

var _OpNames = [...]string{
	OP_nop:   "nop",
	OP_mov:   "mov",
	OP_add:   "add",
	OP_sub:   "sub",
	OP_mul:   "mul",
	OP_div:   "div",
	OP_neg:   "neg",
	OP_exp:   "exp",
	OP_clamp: "clamp",
	OP_shl:   "shl",
	OP_and:   "and",
	OP_or:    "or",
	OP_cmp:   "cmp",
	OP_csel:  "csel",
	OP_cset:  "cset",
	OP_cneg:  "cneg",
	OP_jmp:   "jmp",
	OP_call:  "call",
	OP_ret:   "ret",
	OP_copy:  "copy",
	OP_zero:  "zero",
	OP_case:  "case",
	OP_abort: "abort",
}

func (self OpCode) String() string {
	if int(self) < len(_OpNames) {
		return _OpNames[self]
	}
	panic(fmt.Sprintf("svm: invalid OpCode: 0x%02x", uint8(self)))
}

// Ir is one instruction of the flat stream. Position in the stream is the
// instruction's address; label operands refer to positions, never to
// pointers, so the stream can be compacted by index rewriting alone.
type Ir struct {
	Op     OpCode
	Sz     OpSize
	Cc     CondCode
	A1     Value
	A2     Value
	Rd     Value // K_reg or K_invalid
	Target bool  // some control transfer lands here
}

// writesRd reports whether the instruction defines its result register.
// OP_case carries a register in Rd but only reads it.
func (self *Ir) writesRd() bool {
	return self.Rd.Kind == K_reg && !_OpTab[self.Op].rdsel
}

// nop converts the instruction into a no-op in place. The Target flag is
// left alone: control may still land on this position until the stream is
// compacted.
func (self *Ir) nop() {
	self.Op = OP_nop
	self.Sz = SZ_none
	self.Cc = CC_none
	self.A1 = Value{}
	self.A2 = Value{}
	self.Rd = Value{}
}

// mov rewrites the instruction into a move of v to the current result
// register, preserving the Target flag.
func (self *Ir) mov(v Value) {
	self.Op = OP_mov
	self.Sz = SZ_none
	self.Cc = CC_none
	self.A1 = v
	self.A2 = Value{}
}

func (self *Ir) suffix() string {
	switch self.Sz {
	case SZ_none:
		return ""
	case SZ_8:
		return ".b"
	case SZ_16:
		return ".w"
	case SZ_32:
		return ".l"
	case SZ_64:
		return ".q"
	default:
		panic(fmt.Sprintf("svm: invalid operand size: %d", self.Sz))
	}
}

func (self *Ir) mnemonic() string {
	if self.Cc == CC_none {
		return self.Op.String() + self.suffix()
	}
	return self.Op.String() + "." + self.Cc.String() + self.suffix()
}

func (self *Ir) Disassemble() string {
	switch self.Op {
	case OP_nop:
		return "nop"
	case OP_ret:
		if self.A1.Kind == K_invalid {
			return "ret"
		}
		return fmt.Sprintf("%-7s %s", "ret", self.A1)
	case OP_abort:
		return "abort"
	case OP_cmp:
		return fmt.Sprintf("%-7s %s, %s", self.mnemonic(), self.A1, self.A2)
	case OP_jmp:
		return fmt.Sprintf("%-7s %s", self.mnemonic(), self.A1)
	case OP_case:
		return fmt.Sprintf("%-7s %s, %s, %s", "case", self.Rd, self.A1, self.A2)
	case OP_copy:
		return fmt.Sprintf("%-7s %s, %s, %s", "copy", self.A1, self.A2, self.Rd)
	case OP_zero:
		return fmt.Sprintf("%-7s %s, %s", "zero", self.A1, self.Rd)
	case OP_mov, OP_neg, OP_clamp, OP_cset, OP_cneg, OP_call:
		if self.A1.Kind == K_invalid {
			return fmt.Sprintf("%-7s %s", self.mnemonic(), self.Rd)
		}
		return fmt.Sprintf("%-7s %s, %s", self.mnemonic(), self.A1, self.Rd)
	case OP_add, OP_sub, OP_mul, OP_div, OP_exp, OP_shl, OP_and, OP_or, OP_csel:
		return fmt.Sprintf("%-7s %s, %s, %s", self.mnemonic(), self.A1, self.A2, self.Rd)
	default:
		panic(fmt.Sprintf("svm: invalid OpCode: 0x%02x", uint8(self.Op)))
	}
}

// isTerminator reports whether the instruction at i ends a basic block: an
// OP_jmp of any condition, a return, an abort, or the last entry of a
// contiguous run of case dispatches.
func isTerminator(ins []Ir, i int) bool {
	switch ins[i].Op {
	case OP_jmp, OP_ret, OP_abort:
		return true
	case OP_case:
		return i+1 >= len(ins) || ins[i+1].Op != OP_case
	default:
		return false
	}
}
