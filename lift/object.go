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
	"dartlift/utils"
	"fmt"
)

// -----------------------------------------------------------------------------
// Object Recognizers
// Class ids, boxing, allocation, field/array access and pool traffic.

// movz wD, #tagged(SmiCid)  ;  tbz xO, #0, +8  ;  ldr wD, [xO, #cid]
// The composite is emitted only when all three match contiguously and the
// smi branch skips exactly the class-id load.
func (lifter *Lifter) matchLoadTaggedClassIdMayBeSmi() (il.ILInstr, int) {
	i0, i1, i2 := lifter.at(0), lifter.at(1), lifter.at(2)
	if i0 == nil || i1 == nil || i2 == nil {
		return nil, 0
	}
	if !i0.IsOp("movz", "mov") {
		return nil, 0
	}
	cidReg := i0.Reg(0)
	imm, ok := i0.Imm(1)
	if cidReg == disasm.NoReg || !ok || imm != dartvm.TaggedSmi(int64(dartvm.SmiCid)) {
		return nil, 0
	}
	if !i1.IsOp("tbz") {
		return nil, 0
	}
	obj := i1.Reg(0)
	if bit, ok := i1.Imm(1); !ok || bit != 0 || obj == disasm.NoReg {
		return nil, 0
	}
	branch, ok := i1.Target(2)
	if !ok || branch != i2.End() {
		return nil, 0
	}
	if !i2.IsOp("ldr", "ldur") {
		return nil, 0
	}
	cidReg2 := i2.Reg(0)
	mem, ok := i2.Mem(1)
	if cidReg2 == disasm.NoReg || cidReg2.Index() != cidReg.Index() ||
		!ok || mem.Base != obj.X() || mem.Disp != dartvm.ClassIdOffset {
		return nil, 0
	}

	loadImm := il.NewLoadValue(i0.Addr, i0.End(), cidReg,
		il.NewVarItem(il.NewImmStorage(), il.NewVarCid(dartvm.SmiCid, true)))
	branchIL := il.NewBranchIfSmi(i1.Addr, i1.End(), obj, branch)
	loadCid := il.NewLoadClassId(i2.Addr, i2.End(), obj, cidReg2)
	lifter.setRegValue(cidReg, il.NewVarCid(dartvm.IllegalCid, true))
	return il.NewLoadTaggedClassIdMayBeSmi(i0.Addr, i2.End(), loadImm, branchIL, loadCid), 3
}

// tbz xO, #0, addr  (standalone smi check)
func (lifter *Lifter) matchBranchIfSmi() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("tbz") {
		return nil, 0
	}
	obj := i0.Reg(0)
	bit, ok := i0.Imm(1)
	if obj == disasm.NoReg || !ok || bit != 0 {
		return nil, 0
	}
	branch, ok := i0.Target(2)
	if !ok {
		return nil, 0
	}
	return il.NewBranchIfSmi(i0.Addr, i0.End(), obj, branch), 1
}

// ldr wD, [xO, #cid]  (standalone class-id load)
func (lifter *Lifter) matchLoadClassId() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("ldr", "ldur") {
		return nil, 0
	}
	cidReg := i0.Reg(0)
	mem, ok := i0.Mem(1)
	if cidReg == disasm.NoReg || !ok || mem.Disp != dartvm.ClassIdOffset ||
		mem.Base == disasm.SP || mem.Index != disasm.NoReg {
		return nil, 0
	}
	lifter.setRegValue(cidReg, il.NewVarCid(dartvm.IllegalCid, false))
	return il.NewLoadClassId(i0.Addr, i0.End(), mem.Base, cidReg), 1
}

// adds xD, xS, xS  ;  b.vc +N  ;  bl AllocateMint
func (lifter *Lifter) matchBoxInt64() (il.ILInstr, int) {
	i0, i1, i2 := lifter.at(0), lifter.at(1), lifter.at(2)
	if i0 == nil || i1 == nil || i2 == nil || !i0.IsOp("adds") {
		return nil, 0
	}
	dst, src := i0.Reg(0), i0.Reg(1)
	if dst == disasm.NoReg || src == disasm.NoReg || i0.Reg(2) != src {
		return nil, 0
	}
	if !i1.IsOp("b.vc") || !i2.IsOp("bl") {
		return nil, 0
	}
	target, ok := i2.Target(0)
	if !ok || !lifter.env.AllocMintStubs.Contains(target) {
		return nil, 0
	}
	// the box keeps the source's integer value when it is known
	if item := lifter.getReg(src); item != nil {
		if iv, isInt := item.Val.(*il.VarInteger); isInt && iv.HasValue() {
			lifter.setRegValue(dst, il.NewVarInteger(iv.Value(), dartvm.IntegerCid))
		} else {
			lifter.setRegValue(dst, il.NewVarIntegerUnknown())
		}
	} else {
		lifter.setRegValue(dst, il.NewVarIntegerUnknown())
	}
	return il.NewBoxInt64(i0.Addr, i2.End(), dst, src), 3
}

// sbfx xD, xO, #1, #31  (unbox a smi to a 32-bit int)
func (lifter *Lifter) matchLoadInt32() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("sbfx") {
		return nil, 0
	}
	dst, src := i0.Reg(0), i0.Reg(1)
	lsb, ok0 := i0.Imm(2)
	width, ok1 := i0.Imm(3)
	if dst == disasm.NoReg || src == disasm.NoReg || !ok0 || !ok1 ||
		lsb != dartvm.SmiTagSize || width != 31 {
		return nil, 0
	}
	lifter.setRegValue(dst, il.NewVarIntegerUnknown())
	return il.NewLoadInt32(i0.Addr, i0.End(), dst, src), 1
}

// add xD, heap_base, xD, uxtw  (compressed-pointer decompression)
func (lifter *Lifter) matchDecompressPointer() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("add") || i0.NumArgs() != 3 {
		return nil, 0
	}
	dst := i0.Reg(0)
	if dst == disasm.NoReg {
		return nil, 0
	}
	arg2 := i0.Args[2]
	if i0.Reg(1) == disasm.HeapBase && arg2.Kind == disasm.OpRegExt &&
		arg2.Reg.Index() == dst.Index() {
		return il.NewDecompressPointer(i0.Addr, i0.End(), il.NewRegStorage(dst)), 1
	}
	// the writeback form: add xD, xD, heap_base, lsl #32
	if i0.Reg(1) == dst && arg2.Kind == disasm.OpRegShift &&
		arg2.Reg == disasm.HeapBase && arg2.Amt == 32 {
		return il.NewDecompressPointer(i0.Addr, i0.End(), il.NewRegStorage(dst)), 1
	}
	return nil, 0
}

// bl <allocation stub>
func (lifter *Lifter) matchAllocateObject() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("bl") {
		return nil, 0
	}
	target, ok := i0.Target(0)
	if !ok {
		return nil, 0
	}
	cls := lifter.env.AllocStubs[target]
	if cls == nil {
		return nil, 0
	}
	lifter.setRegValue(disasm.ResultReg, il.NewVarInstance(cls))
	return il.NewAllocateObject(i0.Addr, i0.End(), disasm.ResultReg, cls), 1
}

// bl <allocate-context stub>: closures capture their variables in a fresh
// context object returned in r0.
func (lifter *Lifter) matchAllocateContext() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("bl") {
		return nil, 0
	}
	target, ok := i0.Target(0)
	if !ok || !lifter.env.AllocContextStubs.Contains(target) {
		return nil, 0
	}
	cls := lifter.env.ClassOf(dartvm.ContextCid)
	if cls == nil {
		return nil, 0
	}
	lifter.setRegValue(disasm.ResultReg, il.NewVarInstance(cls))
	return il.NewAllocateObject(i0.Addr, i0.End(), disasm.ResultReg, cls), 1
}

// bl <write-barrier stub>; pairs with the preceding store when adjacent.
func (lifter *Lifter) matchWriteBarrier() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("bl") {
		return nil, 0
	}
	target, ok := i0.Target(0)
	if !ok {
		return nil, 0
	}
	isArray := lifter.env.ArrayWBStubs.Contains(target)
	if !isArray && !lifter.env.WriteBarrierStubs.Contains(target) {
		return nil, 0
	}
	obj, val := disasm.WBObjectReg, disasm.WBValueReg
	if n := len(lifter.out); n > 0 && lifter.out[n-1].End() == i0.Addr {
		switch prev := lifter.out[n-1].(type) {
		case *il.StoreFieldInstr:
			obj, val = prev.Obj, prev.Val
		case *il.StoreArrayElementInstr:
			obj, val = prev.Arr, prev.Val
			isArray = true
		}
	}
	return il.NewWriteBarrier(i0.Addr, i0.End(), obj.X(), val.X(), isArray), 1
}

// ldr tmp, [THR, #field_table_values]  ;  ldr/str rX, [tmp, #off]
func (lifter *Lifter) matchStaticField() (il.ILInstr, int) {
	i0, i1 := lifter.at(0), lifter.at(1)
	if i0 == nil || i1 == nil || !i0.IsOp("ldr") {
		return nil, 0
	}
	tbl := i0.Reg(0)
	mem0, ok := i0.Mem(1)
	if tbl == disasm.NoReg || !ok || mem0.Base != disasm.THR ||
		!lifter.env.Thread.IsName(mem0.Disp, "field_table_values") {
		return nil, 0
	}
	mem1, ok := i1.Mem(1)
	if !ok || mem1.Base != tbl || mem1.Mode != disasm.AddrOffset {
		return nil, 0
	}
	r := i1.Reg(0)
	if r == disasm.NoReg || !i1.IsOp("ldr", "ldur", "str", "stur") {
		return nil, 0
	}
	lifter.killReg(tbl)
	if i1.Op[0] == 'l' {
		lifter.killReg(r)
		return il.NewLoadStaticField(i0.Addr, i1.End(), r, mem1.Disp), 2
	}
	return il.NewStoreStaticField(i0.Addr, i1.End(), r, mem1.Disp), 2
}

// The late-init guard: load the static slot, compare against the sentinel
// and call the init stub with the field from the pool.
//
//	ldr tmp, [THR, #field_table_values]
//	ldr rD,  [tmp, #off]
//	ldr tmp2, [PP, #sentinel]
//	cmp rD, tmp2
//	b.ne done
//	ldr x2, [PP, #field]
//	bl  InitLateStaticField
func (lifter *Lifter) matchInitLateStaticField() (il.ILInstr, int) {
	i0, i1 := lifter.at(0), lifter.at(1)
	i2, i3, i4 := lifter.at(2), lifter.at(3), lifter.at(4)
	i5, i6 := lifter.at(5), lifter.at(6)
	if i6 == nil || !i0.IsOp("ldr") || !i1.IsOp("ldr") {
		return nil, 0
	}
	tbl := i0.Reg(0)
	mem0, ok := i0.Mem(1)
	if tbl == disasm.NoReg || !ok || mem0.Base != disasm.THR ||
		!lifter.env.Thread.IsName(mem0.Disp, "field_table_values") {
		return nil, 0
	}
	dst := i1.Reg(0)
	mem1, ok := i1.Mem(1)
	if dst == disasm.NoReg || !ok || mem1.Base != tbl {
		return nil, 0
	}
	if !i2.IsOp("ldr") {
		return nil, 0
	}
	sentinelReg := i2.Reg(0)
	mem2, ok := i2.Mem(1)
	if !ok || mem2.Base != disasm.PP {
		return nil, 0
	}
	if entry, found := lifter.env.Pool.At(mem2.Disp); !found || entry.Kind != dartvm.PoolSentinel {
		return nil, 0
	}
	if !i3.IsOp("cmp") || i3.Reg(0) != dst || i3.Reg(1) != sentinelReg {
		return nil, 0
	}
	if !i4.IsOp("b.ne") || !i5.IsOp("ldr") {
		return nil, 0
	}
	mem5, ok := i5.Mem(1)
	if !ok || mem5.Base != disasm.PP {
		return nil, 0
	}
	fieldEntry, found := lifter.env.Pool.At(mem5.Disp)
	if !found || fieldEntry.Kind != dartvm.PoolField {
		return nil, 0
	}
	if !i6.IsOp("bl") {
		return nil, 0
	}
	target, ok := i6.Target(0)
	if !ok || !lifter.env.InitLateStaticStubs.Contains(target) {
		return nil, 0
	}
	lifter.killReg(tbl)
	lifter.killReg(sentinelReg)
	expr := il.NewVarExpression(fieldEntry.Field.String())
	lifter.setRegValue(dst, expr)
	return il.NewInitLateStaticField(i0.Addr, i6.End(), dst, fieldEntry.Field), 7
}

// str xS, [PP, #off]
func (lifter *Lifter) matchStoreObjectPool() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("str", "stur") {
		return nil, 0
	}
	src := i0.Reg(0)
	mem, ok := i0.Mem(1)
	if src == disasm.NoReg || !ok || mem.Base != disasm.PP ||
		mem.Mode != disasm.AddrOffset || mem.Index != disasm.NoReg {
		return nil, 0
	}
	return il.NewStoreObjectPool(i0.Addr, i0.End(), src, mem.Disp), 1
}

// ldr rD, [PP, #off]: materialize a pool constant.
func (lifter *Lifter) matchPoolLoad() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("ldr", "ldur") {
		return nil, 0
	}
	dst := i0.Reg(0)
	mem, ok := i0.Mem(1)
	if dst == disasm.NoReg || !ok || mem.Base != disasm.PP ||
		mem.Mode != disasm.AddrOffset || mem.Index != disasm.NoReg {
		return nil, 0
	}
	item := il.NewVarItem(il.NewPoolStorage(mem.Disp), lifter.poolValue(mem.Disp))
	// the register file gets its own copy of the value; the emitted node owns
	// the item above exclusively
	lifter.setRegValue(dst, lifter.poolValue(mem.Disp))
	return il.NewLoadValue(i0.Addr, i0.End(), dst, item), 1
}

// -----------------------------------------------------------------------------
// Fields and arrays

// add tmp, rA, rI, lsl #k  ;  ldr/str rX, [tmp, #disp]
// and the untyped single-instruction form  ldr rX, [rA, rI, lsl #k].
func (lifter *Lifter) matchArrayElement() (il.ILInstr, int) {
	i0, i1 := lifter.at(0), lifter.at(1)
	if i0 == nil {
		return nil, 0
	}
	// single-instruction indexed access
	if i0.IsOp("ldr", "str", "ldrb", "strb", "ldrh", "strh") {
		mem, ok := i0.Mem(1)
		if ok && mem.Index != disasm.NoReg && !baseIsReserved(mem.Base) {
			r := i0.Reg(0)
			if r == disasm.NoReg {
				return nil, 0
			}
			op := il.ArrayOp{
				Size:    accessSize(i0.Op, r),
				IsLoad:  i0.Op[0] == 'l',
				ArrType: il.ArrayTypeUnknown,
			}
			idx := il.NewRegStorage(mem.Index)
			if op.IsLoad {
				lifter.killReg(r)
				return il.NewLoadArrayElement(i0.Addr, i0.End(), r, mem.Base, idx, op), 1
			}
			return il.NewStoreArrayElement(i0.Addr, i0.End(), r, mem.Base, idx, op), 1
		}
	}
	// scaled address computation followed by the access
	if i1 == nil || !i0.IsOp("add") || i0.NumArgs() != 3 {
		return nil, 0
	}
	tmp, arr := i0.Reg(0), i0.Reg(1)
	shifted := i0.Args[2]
	if tmp == disasm.NoReg || arr == disasm.NoReg || shifted.Kind != disasm.OpRegShift ||
		shifted.Shift != "lsl" || baseIsReserved(arr) {
		return nil, 0
	}
	if !i1.IsOp("ldr", "str", "ldur", "stur", "ldrb", "strb", "ldrh", "strh") {
		return nil, 0
	}
	r := i1.Reg(0)
	mem, ok := i1.Mem(1)
	if r == disasm.NoReg || !ok || mem.Base != tmp || mem.Disp < 0 {
		return nil, 0
	}
	op := il.ArrayOp{
		Size:    accessSize(i1.Op, r),
		IsLoad:  i1.Op[0] == 'l',
		ArrType: lifter.arrayTypeOf(arr),
	}
	idx := il.NewRegStorage(shifted.Reg)
	lifter.killReg(tmp)
	if op.IsLoad {
		lifter.killReg(r)
		return il.NewLoadArrayElement(i0.Addr, i1.End(), r, arr, idx, op), 2
	}
	return il.NewStoreArrayElement(i0.Addr, i1.End(), r, arr, idx, op), 2
}

func baseIsReserved(r disasm.Reg) bool {
	return utils.Any(r.X(), disasm.SP, disasm.FP, disasm.PP, disasm.THR,
		disasm.DispatchTable, disasm.HeapBase)
}

// accessSize derives the element width from the mnemonic and register view.
func accessSize(op string, r disasm.Reg) uint8 {
	switch {
	case op == "ldrb" || op == "strb":
		return 1
	case op == "ldrh" || op == "strh":
		return 2
	case r.IsW():
		return 4
	}
	return 8
}

// arrayTypeOf classifies an access through the tracked value of the array
// register, escaping to Unknown when nothing is known.
func (lifter *Lifter) arrayTypeOf(arr disasm.Reg) il.ArrayType {
	item := lifter.getReg(arr)
	if item == nil || item.Val == nil {
		return il.ArrayTypeUnknown
	}
	switch val := item.Val.(type) {
	case *il.VarArray:
		if val.ElemCid.IsTypedData() {
			return typedDataKind(val.ElemCid)
		}
		return il.ArrayTypeList
	case *il.VarGrowableArray:
		return il.ArrayTypeList
	case *il.VarInstance:
		if val.Class.Id.IsTypedData() {
			return typedDataKind(val.Class.Id)
		}
	}
	return il.ArrayTypeUnknown
}

func typedDataKind(cid dartvm.Cid) il.ArrayType {
	switch cid {
	case dartvm.TypedDataInt8ArrayCid, dartvm.TypedDataInt16ArrayCid,
		dartvm.TypedDataInt32ArrayCid, dartvm.TypedDataInt64ArrayCid:
		return il.ArrayTypeTypedSigned
	case dartvm.TypedDataUint8ArrayCid, dartvm.TypedDataUint16ArrayCid,
		dartvm.TypedDataUint32ArrayCid, dartvm.TypedDataUint64ArrayCid:
		return il.ArrayTypeTypedUnsigned
	}
	return il.ArrayTypeTypedUnknown
}

// ldr/str rX, [rO, #off]: a plain object-relative slot access. The offset
// must sit past the header and the base must not be one of the reserved
// runtime registers.
func (lifter *Lifter) matchFieldAccess() (il.ILInstr, int) {
	i0 := lifter.at(0)
	if i0 == nil || !i0.IsOp("ldr", "ldur", "str", "stur") {
		return nil, 0
	}
	r := i0.Reg(0)
	mem, ok := i0.Mem(1)
	if r == disasm.NoReg || !ok || mem.Index != disasm.NoReg ||
		mem.Mode != disasm.AddrOffset || baseIsReserved(mem.Base) ||
		mem.Disp < dartvm.InstanceFirstFieldOffset-dartvm.HeapObjectTag {
		return nil, 0
	}
	if i0.Op[0] == 'l' {
		expr := il.NewVarExpression(fmt.Sprintf("%v->field_%x", mem.Base, mem.Disp))
		lifter.setRegValue(r, expr)
		return il.NewLoadField(i0.Addr, i0.End(), r, mem.Base, mem.Disp), 1
	}
	return il.NewStoreField(i0.Addr, i0.End(), r, mem.Base, mem.Disp), 1
}
