// Copyright (c) 2025 The Dartlift Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package lift

import (
	"dartlift/disasm"
	"dartlift/lift/il"
)

// -----------------------------------------------------------------------------
// Frame Recognizers
// Prolog/epilog idioms, stack bookkeeping and parameter marshaling.

// stp fp, lr, [sp, #-N]!  ;  mov fp, sp
func (lifter *Lifter) matchEnterFrame() (il.ILInstr, int) {
	i0, i1 := lifter.at(0), lifter.at(1)
	if i0 == nil || i1 == nil || !i0.IsOp("stp") {
		return nil, 0
	}
	r0, r1 := i0.Reg(0), i0.Reg(1)
	if !framePair(r0, r1) {
		return nil, 0
	}
	mem, ok := i0.Mem(2)
	if !ok || mem.Base != disasm.SP || mem.Mode != disasm.AddrPreIndex || mem.Disp >= 0 {
		return nil, 0
	}
	if !i1.IsOp("mov") || i1.Reg(0) != disasm.FP || i1.Reg(1) != disasm.SP {
		return nil, 0
	}
	lifter.inFrame = true
	return il.NewEnterFrame(i0.Addr, i1.End()), 2
}

// mov sp, fp  ;  ldp fp, lr, [sp], #N
func (lifter *Lifter) matchLeaveFrame() (il.ILInstr, int) {
	i0, i1 := lifter.at(0), lifter.at(1)
	if i0 == nil || i1 == nil {
		return nil, 0
	}
	if !i0.IsOp("mov") || i0.Reg(0) != disasm.SP || i0.Reg(1) != disasm.FP {
		return nil, 0
	}
	if !i1.IsOp("ldp") || !framePair(i1.Reg(0), i1.Reg(1)) {
		return nil, 0
	}
	mem, ok := i1.Mem(2)
	if !ok || mem.Base != disasm.SP || mem.Mode != disasm.AddrPostIndex || mem.Disp <= 0 {
		return nil, 0
	}
	lifter.inFrame = false
	return il.NewLeaveFrame(i0.Addr, i1.End()), 2
}

func framePair(r0, r1 disasm.Reg) bool {
	return (r0 == disasm.FP && r1 == disasm.LR) || (r0 == disasm.LR && r1 == disasm.FP)
}

// sub sp, sp, #N  (inside a frame)
func (lifter *Lifter) matchAllocStack() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !lifter.inFrame || !i0.IsOp("sub") {
		return nil, 0
	}
	if i0.Reg(0) != disasm.SP || i0.Reg(1) != disasm.SP {
		return nil, 0
	}
	size, ok := i0.Imm(2)
	if !ok || size <= 0 {
		return nil, 0
	}
	return il.NewAllocateStack(i0.Addr, i0.End(), size), 1
}

// ldr tmp, [THR, #stack_limit]  ;  cmp sp, tmp  ;  b.ls overflow
func (lifter *Lifter) matchCheckStackOverflow() (il.ILInstr, int) {
	i0, i1, i2 := lifter.at(0), lifter.at(1), lifter.at(2)
	if i0 == nil || i1 == nil || i2 == nil || !i0.IsOp("ldr") {
		return nil, 0
	}
	tmp := i0.Reg(0)
	mem, ok := i0.Mem(1)
	if tmp == disasm.NoReg || !ok || mem.Base != disasm.THR {
		return nil, 0
	}
	if !lifter.env.Thread.IsName(mem.Disp, "stack_limit") {
		return nil, 0
	}
	if !i1.IsOp("cmp") || i1.Reg(0) != disasm.SP || i1.Reg(1) != tmp {
		return nil, 0
	}
	if !i2.IsOp("b.ls") {
		return nil, 0
	}
	branch, ok := i2.Target(0)
	if !ok {
		return nil, 0
	}
	lifter.killReg(tmp)
	return il.NewCheckStackOverflow(i0.Addr, i2.End(), branch), 3
}

// A run of  ldr xN, [fp, #off]  with off >= 16: incoming arguments being
// materialized from the caller frame.
func (lifter *Lifter) matchSetupParameters() (il.ILInstr, int) {
	var params []*il.VarItem
	n := 0
	for {
		insn := lifter.at(n)
		if insn == nil || !insn.IsOp("ldr") {
			break
		}
		dst := insn.Reg(0)
		mem, ok := insn.Mem(1)
		if dst == disasm.NoReg || !ok || mem.Base != disasm.FP ||
			mem.Mode != disasm.AddrOffset || mem.Disp < 16 {
			break
		}
		idx := int((mem.Disp - 16) / 8)
		item := il.NewVarItem(il.NewRegStorage(dst), il.NewVarParam(idx))
		params = append(params, item)
		lifter.setRegValue(dst, il.NewVarParam(idx))
		n++
	}
	if n == 0 {
		return nil, 0
	}
	i0 := lifter.at(0)
	last := lifter.at(n - 1)
	return il.NewSetupParameters(i0.Addr, last.End(), params), n
}

// str xR, [sp, #-16]!  /  ldr xR, [sp], #16
func (lifter *Lifter) matchSaveRestoreRegister() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil {
		return nil, 0
	}
	r := i0.Reg(0)
	mem, ok := i0.Mem(1)
	if r == disasm.NoReg || !ok || mem.Base != disasm.SP {
		return nil, 0
	}
	if i0.IsOp("str") && mem.Mode == disasm.AddrPreIndex && mem.Disp < 0 {
		return il.NewSaveRegister(i0.Addr, i0.End(), r), 1
	}
	if i0.IsOp("ldr") && mem.Mode == disasm.AddrPostIndex && mem.Disp > 0 {
		lifter.killReg(r)
		return il.NewRestoreRegister(i0.Addr, i0.End(), r), 1
	}
	return nil, 0
}
