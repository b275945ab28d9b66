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

type _LabelRef struct {
	i    int    // referencing instruction
	a2   bool   // label lives in A2 rather than A1
	name string // label name
}

// Builder assembles a flat instruction stream with named labels, patching
// forward references at Build time. It is the lowering stage's emission
// surface and the test suite's program notation. A builder must not be
// reused after Build.
type Builder struct {
	ins   []Ir
	refs  map[string]int
	pends []_LabelRef
}

func CreateBuilder() *Builder {
	return newBuilder()
}

// add appends one instruction. The returned pointer is for immediate
// tweaking (size class, condition code) and is invalidated by the next
// emission.
func (self *Builder) add(p Ir) *Ir {
	self.ins = append(self.ins, p)
	return &self.ins[len(self.ins)-1]
}

// Label binds name to the next emitted instruction.
func (self *Builder) Label(name string) {
	if _, ok := self.refs[name]; ok {
		panic(fmt.Sprintf("svm: label redefined: %s", name))
	}
	self.refs[name] = len(self.ins)
}

func (self *Builder) ref(name string, a2 bool) {
	self.pends = append(self.pends, _LabelRef{
		i:    len(self.ins) - 1,
		a2:   a2,
		name: name,
	})
}

func (self *Builder) NOP() *Ir {
	return self.add(Ir{Op: OP_nop})
}

func (self *Builder) MOV(a Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_mov, A1: a, Rd: VReg(rd)})
}

func (self *Builder) ADD(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_add, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) SUB(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_sub, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) MUL(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_mul, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) DIV(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_div, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) NEG(a Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_neg, A1: a, Rd: VReg(rd)})
}

func (self *Builder) EXP(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_exp, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) CLAMP(a Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_clamp, A1: a, Rd: VReg(rd)})
}

func (self *Builder) SHL(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_shl, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) AND(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_and, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) OR(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_or, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) CMP(cc CondCode, a Value, b Value) *Ir {
	return self.add(Ir{Op: OP_cmp, Cc: cc, A1: a, A2: b})
}

func (self *Builder) CSEL(a Value, b Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_csel, Cc: CC_t, A1: a, A2: b, Rd: VReg(rd)})
}

func (self *Builder) CSET(rd Reg) *Ir {
	return self.add(Ir{Op: OP_cset, Cc: CC_t, Rd: VReg(rd)})
}

func (self *Builder) CNEG(a Value, rd Reg) *Ir {
	return self.add(Ir{Op: OP_cneg, Cc: CC_t, A1: a, Rd: VReg(rd)})
}

func (self *Builder) JMP(to string) *Ir {
	p := self.add(Ir{Op: OP_jmp})
	self.ref(to, false)
	return p
}

func (self *Builder) JCC(cc CondCode, to string) *Ir {
	p := self.add(Ir{Op: OP_jmp, Cc: cc})
	self.ref(to, false)
	return p
}

func (self *Builder) CALL(h Handle, rd Reg) *Ir {
	return self.add(Ir{Op: OP_call, A1: VHandle(h), Rd: VReg(rd)})
}

func (self *Builder) RET(a Value) *Ir {
	return self.add(Ir{Op: OP_ret, A1: a})
}

func (self *Builder) ABORT() *Ir {
	return self.add(Ir{Op: OP_abort})
}

func (self *Builder) COPY(src Value, dst Value, cnt Reg) *Ir {
	return self.add(Ir{Op: OP_copy, A1: src, A2: dst, Rd: VReg(cnt)})
}

func (self *Builder) ZERO(dst Value, cnt Reg) *Ir {
	return self.add(Ir{Op: OP_zero, A1: dst, Rd: VReg(cnt)})
}

func (self *Builder) CASE(v int64, to string, sel Reg) *Ir {
	p := self.add(Ir{Op: OP_case, A1: VInt(v), Rd: VReg(sel)})
	self.ref(to, true)
	return p
}

// Build resolves every label reference to its instruction index, marks the
// referenced positions as control-transfer targets, and returns the
// finished function. Referencing an undefined label is fatal. The register
// count is derived from the highest register mentioned anywhere.
func (self *Builder) Build(name string) *Func {
	ins := self.ins
	self.ins = nil

	/* patch the pending label references */
	for _, r := range self.pends {
		to, ok := self.refs[r.name]
		if !ok {
			panic(fmt.Sprintf("svm: undefined label: %s", r.name))
		}
		if to >= len(ins) {
			panic(fmt.Sprintf("svm: label beyond the last instruction: %s", r.name))
		}
		if r.a2 {
			ins[r.i].A2 = VLabel(to)
		} else {
			ins[r.i].A1 = VLabel(to)
		}
		ins[to].Target = true
	}

	/* derive the register count */
	nr := 0
	reg := func(v Value) {
		if v.Kind == K_reg && int(v.Rv)+1 > nr {
			nr = int(v.Rv) + 1
		}
	}
	for i := range ins {
		reg(ins[i].A1)
		reg(ins[i].A2)
		reg(ins[i].Rd)
	}

	/* release the builder */
	freeBuilder(self)
	return &Func{
		Name:  name,
		Ins:   ins,
		NRegs: nr,
	}
}
