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

func TestCopyProp_Chain(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VReg(0), 1)
	p.MOV(VReg(1), 2)
	p.ADD(VReg(2), VReg(1), 3)
	p.RET(VReg(3))
	fn := p.Build("chain")
	PassCopyProp{}.Apply(fn)

	/* the map holds resolved values, chains collapse to the origin */
	require.Equal(t, VReg(0), fn.Ins[1].A1)
	require.Equal(t, VReg(0), fn.Ins[2].A1)
	require.Equal(t, VReg(0), fn.Ins[2].A2)
}

func TestCopyProp_Const(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VInt(5), 1)
	p.ADD(VReg(1), VReg(0), 2)
	p.RET(VReg(2))
	fn := p.Build("const")
	PassCopyProp{}.Apply(fn)

	/* substitution only; folding is value numbering's job */
	require.Equal(t, OP_add, fn.Ins[1].Op)
	require.Equal(t, VInt(5), fn.Ins[1].A1)
	require.Equal(t, VReg(0), fn.Ins[1].A2)
}

func TestCopyProp_RetOperand(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VReg(0), 1)
	p.RET(VReg(1))
	fn := p.Build("retop")
	PassCopyProp{}.Apply(fn)

	require.Equal(t, VReg(0), fn.Ins[1].A1)
}

func TestCopyProp_Invalidate(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VReg(0), 1)
	p.ADD(VReg(2), VReg(2), 1)
	p.SUB(VReg(1), VReg(0), 3)
	p.RET(VReg(3))
	fn := p.Build("invalidate")
	PassCopyProp{}.Apply(fn)

	/* redefining %r1 kills its equivalence, nothing else */
	require.Equal(t, VReg(1), fn.Ins[2].A1)
}

func TestCopyProp_SelfMove(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VReg(0), 1)
	p.MOV(VReg(1), 1)
	p.ADD(VReg(1), VInt(1), 2)
	p.RET(VReg(2))
	fn := p.Build("selfmove")
	PassCopyProp{}.Apply(fn)

	/* the second move is substituted to %r0 -> %r1 before it is recorded,
	 * so the equivalence survives it */
	require.Equal(t, VReg(0), fn.Ins[1].A1)
	require.Equal(t, VReg(0), fn.Ins[2].A1)
}

func TestCopyProp_ResetAtTarget(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VReg(0), 1)
	p.CMP(CC_eq, VReg(5), VReg(6))
	p.JCC(CC_t, "join")
	p.Label("join")
	p.ADD(VReg(1), VReg(0), 2)
	p.RET(VReg(2))
	fn := p.Build("resettarget")
	PassCopyProp{}.Apply(fn)

	/* equivalences do not survive into a join block */
	require.Equal(t, VReg(1), fn.Ins[3].A1)
}

func TestCopyProp_ResetAfterTerminator(t *testing.T) {
	p := CreateBuilder()
	p.MOV(VReg(0), 1)
	p.RET(VReg(1))
	p.ADD(VReg(1), VInt(1), 2)
	p.RET(VReg(2))
	fn := p.Build("resetterm")
	PassCopyProp{}.Apply(fn)

	require.Equal(t, VReg(0), fn.Ins[1].A1)
	require.Equal(t, VReg(1), fn.Ins[2].A1)
}
