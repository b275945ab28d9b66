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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bytedance/gopkg/util/xxhash3"
)

const (
	_VnSmall    = 64 // well-known value numbers for constants 0..63
	_VtProbeMax = 16 // linear probe bound of the value table
)

// _ValEntry records one previously seen computation: the canonical tuple,
// the register that first produced it, and the value number of the result.
// The entry is stale once that register no longer holds the value.
type _ValEntry struct {
	op  OpCode
	sz  OpSize
	cc  CondCode
	vn1 uint32
	vn2 uint32
	rd  Reg
	vn  uint32
}

// _Valnum is the transient state of one value-numbering pass. Register
// value numbers reset at every block entry; constants keep their numbers
// for the whole pass since they never change meaning.
type _Valnum struct {
	fn    *Func
	regvn []uint32 // register -> value number, last slot is %flags
	next  uint32
	small [_VnSmall]uint32
	cvn   map[int64]uint32
	vnc   map[uint32]int64
	tab   []_ValEntry
	mask  uint32
	dirty bool // control flow was changed
}

func newValnum(fn *Func) *_Valnum {
	nt := 64
	for nt < 2*len(fn.Ins) {
		nt <<= 1
	}
	return &_Valnum{
		fn:    fn,
		regvn: make([]uint32, fn.NRegs+1),
		cvn:   make(map[int64]uint32),
		vnc:   make(map[uint32]int64),
		tab:   make([]_ValEntry, nt),
		mask:  uint32(nt - 1),
	}
}

func (self *_Valnum) reset() {
	for i := range self.regvn {
		self.regvn[i] = 0
	}
}

func (self *_Valnum) newvn() uint32 {
	self.next++
	return self.next
}

/* value number of a register, assigning a fresh one on first sight */
func (self *_Valnum) vnof(r Reg) uint32 {
	if self.regvn[r] == 0 {
		self.regvn[r] = self.newvn()
	}
	return self.regvn[r]
}

/* value number of a constant */
func (self *_Valnum) constvn(v int64) uint32 {
	if v >= 0 && v < _VnSmall {
		if self.small[v] == 0 {
			self.small[v] = self.newvn()
			self.vnc[self.small[v]] = v
		}
		return self.small[v]
	}
	vn, ok := self.cvn[v]
	if !ok {
		vn = self.newvn()
		self.cvn[v] = vn
		self.vnc[vn] = v
	}
	return vn
}

/* constant behind a value number, if any */
func (self *_Valnum) constof(vn uint32) (int64, bool) {
	if vn == 0 {
		return 0, false
	}
	v, ok := self.vnc[vn]
	return v, ok
}

/* value number of an operand; floats, labels and handles do not number */
func (self *_Valnum) vnvalue(v Value) (uint32, bool) {
	switch v.Kind {
	case K_reg:
		return self.vnof(v.Rv), true
	case K_int:
		return self.constvn(v.Iv), true
	default:
		return 0, false
	}
}

/* statically known integer behind an operand */
func (self *_Valnum) valueof(v Value) (int64, bool) {
	switch v.Kind {
	case K_int:
		return v.Iv, true
	case K_reg:
		return self.constof(self.regvn[v.Rv])
	default:
		return 0, false
	}
}

func (self *_Valnum) flagsKnown() (bool, bool) {
	v, ok := self.constof(self.regvn[self.fn.NRegs])
	return v != 0, ok
}

func (self *_Valnum) clobber(rd Value) {
	if rd.Kind == K_reg {
		self.regvn[rd.Rv] = self.newvn()
	}
}

/* rewrite into a move of v and account for the new value of Rd */
func (self *_Valnum) rewriteMov(p *Ir, v Value) {
	p.mov(v)
	self.stepMov(p)
}

func (self *_Valnum) stepMov(p *Ir) {
	rd := p.Rd.Rv

	/* move onto itself */
	if p.A1.Kind == K_reg && p.A1.Rv == rd {
		p.nop()
		return
	}

	/* move of a value the destination already holds */
	if vn, ok := self.vnvalue(p.A1); ok {
		if self.regvn[rd] == vn {
			p.nop()
			return
		}
		self.regvn[rd] = vn
	} else {
		self.regvn[rd] = self.newvn()
	}
}

// number performs generic value numbering of the canonical tuple, turning
// a repeated computation into a move from the register that first produced
// it. Stale table slots are reclaimed on the way.
func (self *_Valnum) number(p *Ir, vn1 uint32, vn2 uint32) {
	var key [11]byte
	key[0] = byte(p.Op)
	key[1] = byte(p.Sz)
	key[2] = byte(p.Cc)
	binary.LittleEndian.PutUint32(key[3:], vn1)
	binary.LittleEndian.PutUint32(key[7:], vn2)

	/* bounded linear probe */
	h := uint32(xxhash3.Hash(key[:]))
	reuse := -1
	for i := 0; i < _VtProbeMax; i++ {
		e := &self.tab[(h+uint32(i))&self.mask]

		/* never-used slot ends the chain */
		if e.vn == 0 {
			if reuse < 0 {
				reuse = int((h + uint32(i)) & self.mask)
			}
			break
		}

		/* the producing register was overwritten, reclaim the slot */
		if self.regvn[e.rd] != e.vn {
			if reuse < 0 {
				reuse = int((h + uint32(i)) & self.mask)
			}
			continue
		}

		/* live entry with the same tuple: the value already exists */
		if e.op == p.Op && e.sz == p.Sz && e.cc == p.Cc && e.vn1 == vn1 && e.vn2 == vn2 {
			if e.rd == p.Rd.Rv {
				p.nop()
			} else {
				p.mov(VReg(e.rd))
			}
			self.regvn[p.Rd.Rv] = e.vn
			return
		}
	}

	/* fresh value; remember where it lives unless the probe window is full */
	vn := self.newvn()
	self.regvn[p.Rd.Rv] = vn
	if reuse >= 0 {
		self.tab[reuse] = _ValEntry{
			op:  p.Op,
			sz:  p.Sz,
			cc:  p.Cc,
			vn1: vn1,
			vn2: vn2,
			rd:  p.Rd.Rv,
			vn:  vn,
		}
	}
}

/* compile-time fold of statically known operands; overflow declines */
func (self *_Valnum) fold(p *Ir) bool {
	x, ok := self.valueof(p.A1)
	if !ok {
		return false
	}

	/* unary operators only consume A1 */
	y := int64(0)
	if p.A2.Kind != K_invalid {
		if y, ok = self.valueof(p.A2); !ok {
			return false
		}
	}

	r, ok := foldArith(p.Op, p.Sz, x, y)
	if !ok {
		return false
	}
	self.rewriteMov(p, VInt(r))
	return true
}

/* algebraic identities; returns true when the instruction was retired */
func (self *_Valnum) identity(p *Ir) bool {
	c2, k2 := self.valueof(p.A2)
	switch p.Op {
	case OP_add:
		if k2 && c2 == 0 {
			self.rewriteMov(p, p.A1)
			return true
		}

	case OP_sub:
		if k2 && c2 == 0 {
			self.rewriteMov(p, p.A1)
			return true
		}
		if c1, k1 := self.valueof(p.A1); k1 && c1 == 0 {
			/* 0 - x is a negation */
			p.Op = OP_neg
			p.A1 = p.A2
			p.A2 = Value{}
		}

	case OP_mul:
		if k2 {
			switch {
			case c2 == 0:
				self.rewriteMov(p, VInt(0))
				return true
			case c2 == 1:
				self.rewriteMov(p, p.A1)
				return true
			case isPow2(c2) && p.Sz == SZ_none:
				p.Op = OP_shl
				p.A2 = VInt(log2i(c2))
			}
		}

	case OP_div:
		if k2 && c2 == 1 {
			self.rewriteMov(p, p.A1)
			return true
		}

	case OP_exp:
		if c1, k1 := self.valueof(p.A1); k1 && c1 == 2 {
			/* 2 ** x == 1 << x */
			p.Op = OP_shl
			p.A1 = VInt(1)
		}
	}
	return false
}

func (self *_Valnum) stepArith(p *Ir) {
	if self.fold(p) {
		return
	}

	/* canonicalize commutative operands so a known constant sits on the
	 * right, then try the algebraic identities */
	if _, k1 := self.valueof(p.A1); k1 && isCommutative(p.Op) {
		if _, k2 := self.valueof(p.A2); !k2 {
			p.A1, p.A2 = p.A2, p.A1
		}
	}
	if self.identity(p) {
		return
	}

	/* generic numbering; operands outside the value domain make the
	 * result an opaque fresh value */
	vn1, ok1 := self.vnvalue(p.A1)
	vn2, ok2 := self.vnvalue(p.A2)
	if !ok1 || (!ok2 && p.A2.Kind != K_invalid) {
		self.clobber(p.Rd)
		return
	}
	if isCommutative(p.Op) && vn2 < vn1 {
		vn1, vn2 = vn2, vn1
	}
	self.number(p, vn1, vn2)
}

func (self *_Valnum) stepCmp(p *Ir) {
	x, ok1 := self.valueof(p.A1)
	y, ok2 := self.valueof(p.A2)

	/* a constant comparison leaves a known boolean in the flags slot,
	 * anything else makes the flags opaque */
	if ok1 && ok2 {
		self.regvn[self.fn.NRegs] = self.constvn(b2i(evalCmp(p.Cc, x, y)))
	} else {
		self.regvn[self.fn.NRegs] = self.newvn()
	}
}

func (self *_Valnum) stepFlagUse(p *Ir) {
	t, known := self.flagsKnown()
	if !known {
		self.clobber(p.Rd)
		return
	}

	/* CC_t consumes the flags as-is, CC_f inverted */
	cond := t
	if p.Cc == CC_f {
		cond = !t
	}

	switch p.Op {
	case OP_csel:
		if cond {
			self.rewriteMov(p, p.A1)
		} else {
			self.rewriteMov(p, p.A2)
		}
	case OP_cset:
		self.rewriteMov(p, VInt(b2i(cond)))
	case OP_cneg:
		if !cond {
			self.rewriteMov(p, p.A1)
			return
		}
		p.Op = OP_neg
		p.Cc = CC_none
		self.stepArith(p)
	}
}

func (self *_Valnum) stepJmp(i int, p *Ir) {
	if p.Cc != CC_none {
		t, known := self.flagsKnown()
		if !known {
			return
		}

		/* statically resolved branch: either always or never taken */
		cond := t
		if p.Cc == CC_f {
			cond = !t
		}
		if !cond {
			p.nop()
			self.dirty = true
			return
		}
		p.Cc = CC_none
		self.dirty = true
	}
	self.thread(i, p)
}

// thread collapses chains of unconditional jumps and deletes a jump whose
// sole target is the next instruction. Self-loops are left alone; the hop
// bound keeps longer cycles from spinning.
func (self *_Valnum) thread(i int, p *Ir) {
	ins := self.fn.Ins
	to := p.A1.Label()

	for hops := 0; hops < len(ins); hops++ {
		if to == i {
			break
		}
		q := &ins[to]
		if q.Op != OP_jmp || q.Cc != CC_none {
			break
		}
		if nt := q.A1.Label(); nt != to {
			to = nt
		} else {
			break
		}
	}

	if to != p.A1.Label() {
		p.A1 = VLabel(to)
		ins[to].Target = true
		self.dirty = true
	}
	if to == i+1 {
		p.nop()
		self.dirty = true
	}
}

func (self *_Valnum) step(i int, p *Ir) {
	switch p.Op {
	case OP_nop, OP_ret, OP_abort, OP_case:
		/* case only reads its selector */
	case OP_mov:
		self.stepMov(p)
	case OP_add, OP_sub, OP_mul, OP_div, OP_neg, OP_exp, OP_clamp, OP_shl, OP_and, OP_or:
		self.stepArith(p)
	case OP_cmp:
		self.stepCmp(p)
	case OP_csel, OP_cset, OP_cneg:
		self.stepFlagUse(p)
	case OP_jmp:
		self.stepJmp(i, p)
	case OP_call:
		self.clobber(p.Rd)
		self.regvn[self.fn.NRegs] = self.newvn()
	case OP_copy, OP_zero:
		self.clobber(p.Rd)
	default:
		panic(fmt.Sprintf("svm: valnum: invalid OpCode: 0x%02x", uint8(p.Op)))
	}
}

// PassValnum is the local value-numbering optimizer: one forward pass per
// function performing constant folding, algebraic simplification,
// redundant-computation elimination, conditional simplification and jump
// threading. The cached CFG is invalidated when control flow changes.
type PassValnum struct{}

func (PassValnum) Apply(fn *Func) {
	st := newValnum(fn)
	split := true
	for i := range fn.Ins {
		p := &fn.Ins[i]
		if split || p.Target {
			st.reset()
		}
		st.step(i, p)
		split = isTerminator(fn.Ins, i)
	}
	if st.dirty {
		fn.InvalidateCFG()
	}
}

func foldArith(op OpCode, sz OpSize, x int64, y int64) (int64, bool) {
	w := sz.Width()
	switch op {
	case OP_add:
		r := x + y
		if (x^r)&(y^r) < 0 {
			return 0, false
		}
		return r, fitsWidth(r, w)

	case OP_sub:
		r := x - y
		if (x^y)&(x^r) < 0 {
			return 0, false
		}
		return r, fitsWidth(r, w)

	case OP_mul:
		r, ok := mulWithCheck(x, y)
		if !ok {
			return 0, false
		}
		return r, fitsWidth(r, w)

	case OP_div:
		if y == 0 || (x == math.MinInt64 && y == -1) {
			return 0, false
		}
		return x / y, fitsWidth(x/y, w)

	case OP_neg:
		if x == math.MinInt64 {
			return 0, false
		}
		return -x, fitsWidth(-x, w)

	case OP_exp:
		return foldExp(x, y, w)

	case OP_clamp:
		if x < 0 {
			return 0, true
		}
		return x, true

	case OP_shl:
		if y < 0 || y >= 64 {
			return 0, false
		}
		r := x << uint(y)
		if r>>uint(y) != x {
			return 0, false
		}
		return r, fitsWidth(r, w)

	case OP_and:
		return x & y, fitsWidth(x&y, w)

	case OP_or:
		return x | y, fitsWidth(x|y, w)

	default:
		panic(fmt.Sprintf("svm: fold: invalid OpCode: 0x%02x", uint8(op)))
	}
}

func mulWithCheck(x int64, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, false
	}
	r := x * y
	if r/y != x {
		return 0, false
	}
	return r, true
}

func foldExp(x int64, y int64, w uint) (int64, bool) {
	if y < 0 {
		return 0, false
	}

	/* trivial bases would otherwise iterate forever */
	switch x {
	case 0:
		return b2i(y == 0), true
	case 1:
		return 1, true
	case -1:
		if y&1 != 0 {
			return -1, true
		}
		return 1, true
	}

	r := int64(1)
	for ; y > 0; y-- {
		var ok bool
		if r, ok = mulWithCheck(r, x); !ok {
			return 0, false
		}
	}
	return r, fitsWidth(r, w)
}

func evalCmp(cc CondCode, x int64, y int64) bool {
	switch cc {
	case CC_eq:
		return x == y
	case CC_ne:
		return x != y
	case CC_lt:
		return x < y
	case CC_le:
		return x <= y
	case CC_gt:
		return x > y
	case CC_ge:
		return x >= y
	default:
		panic(fmt.Sprintf("svm: invalid compare condition: %d", cc))
	}
}
