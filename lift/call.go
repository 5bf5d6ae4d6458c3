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
	"dartlift/dartvm"
	"dartlift/disasm"
	"dartlift/lift/il"
)

// -----------------------------------------------------------------------------
// Call Recognizers
// Runtime-entry calls, dispatch-table calls, direct calls and the related
// data movement.

// ldr tmp, [THR, #off]  ;  blr tmp
// The immediately preceding run of MoveReg nodes is the parameter setup for
// the leaf helper; it is folded out of the top level into the composite.
func (lifter *Lifter) matchCallLeafRuntime() (il.ILInstr, int) {
	i0, i1 := lifter.at(0), lifter.at(1)
	if i0 == nil || i1 == nil || !i0.IsOp("ldr") {
		return nil, 0
	}
	tmp := i0.Reg(0)
	mem, ok := i0.Mem(1)
	if tmp == disasm.NoReg || !ok || mem.Base != disasm.THR ||
		mem.Mode != disasm.AddrOffset {
		return nil, 0
	}
	if !i1.IsOp("blr") || i1.Reg(0) != tmp {
		return nil, 0
	}
	leaf := lifter.env.Thread.LeafFuncAt(mem.Disp)

	// fold the adjacent mov chain
	var movs []*il.MoveRegInstr
	start := i0.Addr
	for n := len(lifter.out); n > 0; n-- {
		mov, isMov := lifter.out[n-1].(*il.MoveRegInstr)
		if !isMov || mov.End() != start {
			break
		}
		movs = append([]*il.MoveRegInstr{mov}, movs...)
		start = mov.Start()
		lifter.out = lifter.out[:n-1]
	}

	lifter.killReg(tmp)
	lifter.killReg(disasm.ResultReg)
	return il.NewCallLeafRuntime(start, i1.End(), mem.Disp, movs, leaf), 2
}

// add tmp, dispatch_table, x0, lsl #3  ;  ldr tmp2, [tmp, #off]  ;  blr tmp2
func (lifter *Lifter) matchGdtCall() (il.ILInstr, int) {
	i0, i1, i2 := lifter.at(0), lifter.at(1), lifter.at(2)
	if i0 == nil || i1 == nil || i2 == nil || !i0.IsOp("add") || i0.NumArgs() != 3 {
		return nil, 0
	}
	tmp := i0.Reg(0)
	shifted := i0.Args[2]
	if tmp == disasm.NoReg || i0.Reg(1) != disasm.DispatchTable ||
		shifted.Kind != disasm.OpRegShift || shifted.Reg != disasm.ClassIdReg ||
		shifted.Shift != "lsl" || shifted.Amt != 3 {
		return nil, 0
	}
	if !i1.IsOp("ldr") {
		return nil, 0
	}
	tmp2 := i1.Reg(0)
	mem, ok := i1.Mem(1)
	if tmp2 == disasm.NoReg || !ok || mem.Base != tmp {
		return nil, 0
	}
	if !i2.IsOp("blr") || i2.Reg(0) != tmp2 {
		return nil, 0
	}
	lifter.killReg(tmp)
	lifter.killReg(tmp2)
	lifter.killReg(disasm.ResultReg)
	return il.NewGdtCall(i0.Addr, i2.End(), mem.Disp), 3
}

// ldr x4, [PP, #args_desc]  ;  ldur x2, [x0, #entry]  ;  blr x2
func (lifter *Lifter) matchClosureCall() (il.ILInstr, int) {
	i0, i1, i2 := lifter.at(0), lifter.at(1), lifter.at(2)
	if i0 == nil || i1 == nil || i2 == nil || !i0.IsOp("ldr") {
		return nil, 0
	}
	if i0.Reg(0) != disasm.ArgsDescReg {
		return nil, 0
	}
	mem0, ok := i0.Mem(1)
	if !ok || mem0.Base != disasm.PP {
		return nil, 0
	}
	entry, found := lifter.env.Pool.At(mem0.Disp)
	if !found || entry.Kind != dartvm.PoolArgsDesc {
		return nil, 0
	}
	if !i1.IsOp("ldur", "ldr") {
		return nil, 0
	}
	fn := i1.Reg(0)
	mem1, ok := i1.Mem(1)
	if fn == disasm.NoReg || !ok || mem1.Base != disasm.ResultReg ||
		mem1.Disp != dartvm.ClosureEntryPointOffset {
		return nil, 0
	}
	if !i2.IsOp("blr") || i2.Reg(0) != fn {
		return nil, 0
	}
	lifter.killReg(fn)
	lifter.killReg(disasm.ResultReg)
	desc := entry.ArgsDesc
	return il.NewClosureCall(i0.Addr, i2.End(), desc.NumArgs, desc.NumTypeArgs), 3
}

// ldr x8, [PP, #type]  ;  ldr x9, [x8, #stub_entry]  ;  blr x9
// or, for types without a specialized stub,
// ldr x8, [PP, #type]  ;  bl <runtime type-test stub>
// The as-check: calls the type's test stub against the value in x0.
func (lifter *Lifter) matchTestType() (il.ILInstr, int) {
	i0, i1, i2 := lifter.at(0), lifter.at(1), lifter.at(2)
	if i0 == nil || i1 == nil || !i0.IsOp("ldr") {
		return nil, 0
	}
	typeReg := i0.Reg(0)
	mem0, ok := i0.Mem(1)
	if typeReg == disasm.NoReg || !ok || mem0.Base != disasm.PP {
		return nil, 0
	}
	entry, found := lifter.env.Pool.At(mem0.Disp)
	if !found || entry.Kind != dartvm.PoolType {
		return nil, 0
	}
	if i1.IsOp("bl") {
		target, ok := i1.Target(0)
		if !ok || !lifter.env.TypeTestRuntimeStubs.Contains(target) {
			return nil, 0
		}
		lifter.killReg(typeReg)
		return il.NewTestType(i0.Addr, i1.End(), disasm.ResultReg, entry.Type.Name), 2
	}
	if i2 == nil || !i1.IsOp("ldr", "ldur") {
		return nil, 0
	}
	stub := i1.Reg(0)
	mem1, ok := i1.Mem(1)
	if stub == disasm.NoReg || !ok || mem1.Base != typeReg ||
		mem1.Disp != dartvm.TypeTestStubEntryPointOffset {
		return nil, 0
	}
	if !i2.IsOp("blr") || i2.Reg(0) != stub {
		return nil, 0
	}
	lifter.killReg(typeReg)
	lifter.killReg(stub)
	return il.NewTestType(i0.Addr, i2.End(), disasm.ResultReg, entry.Type.Name), 3
}

// ldr x0, [PP, #type]  ;  bl InitAsync
func (lifter *Lifter) matchInitAsync() (il.ILInstr, int) {
	i0, i1 := lifter.at(0), lifter.at(1)
	if i0 == nil || i1 == nil || !i0.IsOp("ldr") || i0.Reg(0) != disasm.ResultReg {
		return nil, 0
	}
	mem, ok := i0.Mem(1)
	if !ok || mem.Base != disasm.PP {
		return nil, 0
	}
	entry, found := lifter.env.Pool.At(mem.Disp)
	if !found || entry.Kind != dartvm.PoolType {
		return nil, 0
	}
	if !i1.IsOp("bl") {
		return nil, 0
	}
	target, ok := i1.Target(0)
	if !ok || !lifter.env.InitAsyncStubs.Contains(target) {
		return nil, 0
	}
	lifter.killReg(disasm.ResultReg)
	return il.NewInitAsync(i0.Addr, i1.End(), entry.Type), 2
}

// bl addr: a direct call, resolved against the function database when the
// target is known.
func (lifter *Lifter) matchCall() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("bl") {
		return nil, 0
	}
	target, ok := i0.Target(0)
	if !ok {
		return nil, 0
	}
	fn := lifter.env.FunctionAt(target)
	lifter.killReg(disasm.ResultReg)
	return il.NewCall(i0.Addr, i0.End(), fn, target), 1
}

// movz/mov rD, #imm: a plain immediate materialization.
func (lifter *Lifter) matchLoadImm() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("movz", "mov") || i0.NumArgs() != 2 {
		return nil, 0
	}
	dst := i0.Reg(0)
	imm, ok := i0.Imm(1)
	if dst == disasm.NoReg || !ok {
		return nil, 0
	}
	item := il.NewVarItem(il.NewSmallImmStorage(imm), il.NewVarInteger(imm, dartvm.MintCid))
	lifter.setRegValue(dst, il.NewVarInteger(imm, dartvm.MintCid))
	return il.NewLoadValue(i0.Addr, i0.End(), dst, item), 1
}

// mov rD, rS  /  orr rD, xzr, rS
func (lifter *Lifter) matchMoveReg() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil {
		return nil, 0
	}
	var dst, src disasm.Reg
	switch {
	case i0.IsOp("mov") && i0.NumArgs() == 2:
		dst, src = i0.Reg(0), i0.Reg(1)
	case i0.IsOp("orr") && i0.NumArgs() == 3 && i0.Reg(1).IsZero():
		dst, src = i0.Reg(0), i0.Reg(2)
	default:
		return nil, 0
	}
	if dst == disasm.NoReg || src == disasm.NoReg {
		return nil, 0
	}
	lifter.setReg(dst, lifter.getReg(src))
	return il.NewMoveReg(i0.Addr, i0.End(), dst, src), 1
}

// ret
func (lifter *Lifter) matchReturn() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("ret") {
		return nil, 0
	}
	return il.NewReturn(i0.Addr, i0.End()), 1
}

// ldr rD, [THR, #off]: a named runtime field read, kept as a LoadValue of an
// expression so downstream printers show the slot name.
func (lifter *Lifter) matchThreadLoad() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("ldr", "ldur") {
		return nil, 0
	}
	dst := i0.Reg(0)
	mem, ok := i0.Mem(1)
	if dst == disasm.NoReg || !ok || mem.Base != disasm.THR ||
		mem.Mode != disasm.AddrOffset || mem.Index != disasm.NoReg {
		return nil, 0
	}
	name := lifter.env.Thread.OffsetName(mem.Disp)
	item := il.NewVarItem(il.NewThreadStorage(mem.Disp), il.NewVarExpression(name))
	lifter.setRegValue(dst, il.NewVarExpression(name))
	return il.NewLoadValue(i0.Addr, i0.End(), dst, item), 1
}
