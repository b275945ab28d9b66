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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompact_Slide(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VInt(1), 0)
	p.NOP()
	p.JMP("end")
	p.NOP()
	p.NOP()
	p.Label("end")
	p.RET(VReg(0))
	fn := p.Build("slide")
	PassCompact{}.Apply(fn)
	println(fn.Disassemble())

	require.Len(t, fn.Ins, 3)
	require.Equal(t, OP_mov, fn.Ins[0].Op)
	require.Equal(t, OP_jmp, fn.Ins[1].Op)
	require.Equal(t, VLabel(2), fn.Ins[1].A1)
	require.Equal(t, OP_ret, fn.Ins[2].Op)
	require.False(t, fn.Ins[0].Target)
	require.False(t, fn.Ins[1].Target)
	require.True(t, fn.Ins[2].Target)
}

func TestCompact_LabelOntoRemoved(t *testing.T) {
	fn := &Func{
		Name: "relabel",
		Ins: []Ir{
			{Op: OP_jmp, A1: VLabel(1)},
			{Op: OP_nop, Target: true},
			{Op: OP_ret},
		},
	}
	PassCompact{}.Apply(fn)

	/* a label on a removed instruction moves to the next survivor */
	require.Len(t, fn.Ins, 2)
	require.Equal(t, VLabel(1), fn.Ins[0].A1)
	require.Equal(t, OP_ret, fn.Ins[1].Op)
	require.True(t, fn.Ins[1].Target)
}

func TestCompact_StaleTarget(t *testing.T) {
	fn := &Func{
		Name: "staletarget",
		Ins: []Ir{
			{Op: OP_mov, A1: VInt(1), Rd: VReg(0), Target: true},
			{Op: OP_ret, A1: VReg(0)},
		},
		NRegs: 1,
	}
	PassCompact{}.Apply(fn)

	/* nothing references the position anymore */
	require.False(t, fn.Ins[0].Target)
}

func TestCompact_CaseLabel(t *testing.T) {
	p := CreateBuilder()
	p.CASE(1, "one", 0)
	p.NOP()
	p.RET(VNone())
	p.Label("one")
	p.RET(VInt(1))
	fn := p.Build("caselabel")
	PassCompact{}.Apply(fn)

	require.Len(t, fn.Ins, 3)
	require.Equal(t, VLabel(2), fn.Ins[0].A2)
	require.True(t, fn.Ins[2].Target)
}

func TestCompact_DanglingLabel(t *testing.T) {
	fn := &Func{
		Name: "dangling",
		Ins: []Ir{
			{Op: OP_jmp, A1: VLabel(1)},
			{Op: OP_nop, Target: true},
		},
	}
	require.Panics(t, func() { PassCompact{}.Apply(fn) })
}

func TestCompact_InvalidatesCFG(t *testing.T) {
	p := CreateBuilder()
	p.NOP()
	p.RET(VNone())
	fn := p.Build("invalidate")
	fn.CFG()
	PassCompact{}.Apply(fn)

	require.Nil(t, fn.cfg)
	require.Len(t, fn.CFG().Blocks, 1)
}
