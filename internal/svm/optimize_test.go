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
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/bytedance/gopkg/lang/fastrand"
	"github.com/stretchr/testify/require"
)

func TestOptimize_Collapse(t *testing.T) {
	p := CreateBuilder()
	p.MUL(VReg(0), VInt(1), 1)
	p.ADD(VReg(1), VInt(0), 2)
	p.RET(VReg(2))
	fn := p.Build("collapse")
	Optimize(fn)
	println(fn.Disassemble())

	/* x * 1 + 0 is x; the whole body collapses into the return */
	require.Len(t, fn.Ins, 1)
	require.Equal(t, OP_ret, fn.Ins[0].Op)
	require.Equal(t, VReg(0), fn.Ins[0].A1)
}

func TestOptimize_StaticSelect(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VInt(10), 0)
	p.MOV(VInt(20), 1)
	p.CMP(CC_gt, VInt(3), VInt(5))
	p.CSEL(VReg(0), VReg(1), 2)
	p.RET(VReg(2))
	fn := p.Build("select")
	Optimize(fn)
	println(fn.Disassemble())

	/* the compare is kept for its flags, everything else constant-folds
	 * into the return operand */
	require.Len(t, fn.Ins, 2)
	require.Equal(t, OP_cmp, fn.Ins[0].Op)
	require.Equal(t, OP_ret, fn.Ins[1].Op)
	require.Equal(t, VInt(20), fn.Ins[1].A1)
}

func TestOptimize_DeadBranch(t *testing.T) {
	p := CreateBuilder()
	p.CMP(CC_lt, VInt(3), VInt(5))
	p.JCC(CC_f, "slow")
	p.MOV(VInt(1), 0)
	p.JMP("done")
	p.Label("slow")
	p.MOV(VInt(2), 0)
	p.Label("done")
	p.RET(VReg(0))
	fn := p.Build("deadbranch")
	Optimize(fn)
	println(fn.Disassemble())

	/* the untaken arm survives as unreachable code, but the branch into
	 * it is gone */
	for i := range fn.Ins {
		require.NotEqual(t, OP_nop, fn.Ins[i].Op)
		if fn.Ins[i].Op == OP_jmp {
			require.Equal(t, CC_none, fn.Ins[i].Cc)
		}
	}
}

func verifyCFG(t *testing.T, fn *Func) {
	g := fn.CFG()
	require.NotEmpty(t, g.Blocks)

	/* block ranges partition the stream in order */
	next := 0
	for bi := range g.Blocks {
		bb := &g.Blocks[bi]
		require.Equal(t, bi, bb.Id)
		require.Equal(t, next, bb.First)
		require.GreaterOrEqual(t, bb.Last, bb.First)
		next = bb.Last + 1
		for i := bb.First; i <= bb.Last; i++ {
			require.Same(t, bb, g.BlockOf(i))
		}
	}
	require.Equal(t, len(fn.Ins), next)

	/* edges are symmetric */
	for bi := range g.Blocks {
		bb := &g.Blocks[bi]
		for i := 0; i < bb.Out.Len(); i++ {
			require.Contains(t, edges(&g.Blocks[bb.Out.At(i)].In), bi)
		}
		for i := 0; i < bb.In.Len(); i++ {
			require.Contains(t, edges(&g.Blocks[bb.In.At(i)].Out), bi)
		}
	}

	/* the converged liveout is exactly the union of the successors'
	 * merged livein */
	for bi := range g.Blocks {
		bb := &g.Blocks[bi]
		want := newBitVec(fn.NRegs)
		for i := 0; i < bb.Out.Len(); i++ {
			want.or(g.Blocks[bb.Out.At(i)].LiveIn)
		}
		require.True(t, want.eq(bb.LiveOut), "bb_%d: liveout %s != %s", bi, bb.LiveOut.String(), want.String())
	}
}

func randomFunc(name string) *Func {
	n := 8 + fastrand.Intn(48)
	nr := 4 + fastrand.Intn(6)
	ins := make([]Ir, n, n+1)
	reg := func() Value {
		return VReg(Reg(fastrand.Intn(nr)))
	}
	val := func() Value {
		if fastrand.Intn(3) == 0 {
			return VInt(int64(fastrand.Intn(65) - 32))
		}
		return reg()
	}
	ccs := []CondCode{CC_eq, CC_ne, CC_lt, CC_le, CC_gt, CC_ge}

	for i := range ins {
		switch fastrand.Intn(12) {
		case 0:
			ins[i] = Ir{Op: OP_mov, A1: val(), Rd: reg()}
		case 1:
			ins[i] = Ir{Op: OP_add, A1: val(), A2: val(), Rd: reg()}
		case 2:
			ins[i] = Ir{Op: OP_sub, A1: val(), A2: val(), Rd: reg()}
		case 3:
			ins[i] = Ir{Op: OP_mul, A1: val(), A2: val(), Rd: reg()}
		case 4:
			ins[i] = Ir{Op: OP_cmp, Cc: ccs[fastrand.Intn(len(ccs))], A1: val(), A2: val()}
		case 5:
			ins[i] = Ir{Op: OP_csel, Cc: CC_t, A1: val(), A2: val(), Rd: reg()}
		case 6:
			ins[i] = Ir{Op: OP_jmp, A1: VLabel(fastrand.Intn(n))}
		case 7:
			cc := CC_t
			if fastrand.Intn(2) == 0 {
				cc = CC_f
			}
			ins[i] = Ir{Op: OP_jmp, Cc: cc, A1: VLabel(fastrand.Intn(n))}
		case 8:
			ins[i] = Ir{Op: OP_case, A1: VInt(int64(fastrand.Intn(4))), A2: VLabel(fastrand.Intn(n)), Rd: reg()}
		case 9:
			ins[i] = Ir{Op: OP_zero, A1: reg(), Rd: reg()}
		case 10:
			ins[i] = Ir{Op: OP_ret, A1: val()}
		default:
			ins[i] = Ir{Op: OP_and, A1: val(), A2: val(), Rd: reg()}
		}
	}

	/* close the stream and mark every referenced position */
	ins = append(ins, Ir{Op: OP_ret})
	for i := range ins {
		switch ins[i].Op {
		case OP_jmp:
			ins[ins[i].A1.Label()].Target = true
		case OP_case:
			ins[ins[i].A2.Label()].Target = true
		}
	}
	return &Func{Name: name, Ins: ins, NRegs: nr}
}

func TestOptimize_Random(t *testing.T) {
	faker := gofakeit.New(0x5f3759df)
	for round := 0; round < 500; round++ {
		fn := randomFunc(fmt.Sprintf("%s_%d", faker.Word(), round))
		size := len(fn.Ins)
		Optimize(fn)

		/* the stream only ever shrinks, never keeps a no-op, and every
		 * label lands on a marked instruction */
		require.LessOrEqual(t, len(fn.Ins), size)
		for i := range fn.Ins {
			p := &fn.Ins[i]
			require.NotEqual(t, OP_nop, p.Op)
			if p.A1.Kind == K_label {
				require.True(t, fn.Ins[p.A1.Label()].Target, "%s: ins %d", fn.Name, i)
			}
			if p.A2.Kind == K_label {
				require.True(t, fn.Ins[p.A2.Label()].Target, "%s: ins %d", fn.Name, i)
			}
		}
		verifyCFG(t, fn)
	}
}
