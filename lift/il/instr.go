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
package il

import (
	"dartlift/dartvm"
	"dartlift/disasm"
	"dartlift/utils"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// IL Instructions
// The closed set of operations the lifter emits. Every node covers a byte
// range [Start, End) of the machine code it was lifted from. Nodes are
// immutable once emitted; composite nodes own their children exclusively and
// a child never appears at the top level or under two parents.

type ILKind int

const (
	ILUnknown ILKind = iota
	ILEnterFrame
	ILLeaveFrame
	ILAllocateStack
	ILCheckStackOverflow
	ILCallLeafRuntime
	ILLoadValue
	ILStoreObjectPool
	ILClosureCall
	ILMoveReg
	ILDecompressPointer
	ILSaveRegister
	ILRestoreRegister
	ILSetupParameters
	ILInitAsync
	ILGdtCall
	ILCall
	ILReturn
	ILBranchIfSmi
	ILLoadClassId
	ILLoadTaggedClassIdMayBeSmi
	ILBoxInt64
	ILLoadInt32
	ILAllocateObject
	ILLoadArrayElement
	ILStoreArrayElement
	ILLoadField
	ILStoreField
	ILInitLateStaticField
	ILLoadStaticField
	ILStoreStaticField
	ILWriteBarrier
	ILTestType
)

func (kind ILKind) String() string {
	switch kind {
	case ILUnknown:
		return "Unknown"
	case ILEnterFrame:
		return "EnterFrame"
	case ILLeaveFrame:
		return "LeaveFrame"
	case ILAllocateStack:
		return "AllocateStack"
	case ILCheckStackOverflow:
		return "CheckStackOverflow"
	case ILCallLeafRuntime:
		return "CallLeafRuntime"
	case ILLoadValue:
		return "LoadValue"
	case ILStoreObjectPool:
		return "StoreObjectPool"
	case ILClosureCall:
		return "ClosureCall"
	case ILMoveReg:
		return "MoveReg"
	case ILDecompressPointer:
		return "DecompressPointer"
	case ILSaveRegister:
		return "SaveRegister"
	case ILRestoreRegister:
		return "RestoreRegister"
	case ILSetupParameters:
		return "SetupParameters"
	case ILInitAsync:
		return "InitAsync"
	case ILGdtCall:
		return "GdtCall"
	case ILCall:
		return "Call"
	case ILReturn:
		return "Return"
	case ILBranchIfSmi:
		return "BranchIfSmi"
	case ILLoadClassId:
		return "LoadClassId"
	case ILLoadTaggedClassIdMayBeSmi:
		return "LoadTaggedClassIdMayBeSmi"
	case ILBoxInt64:
		return "BoxInt64"
	case ILLoadInt32:
		return "LoadInt32"
	case ILAllocateObject:
		return "AllocateObject"
	case ILLoadArrayElement:
		return "LoadArrayElement"
	case ILStoreArrayElement:
		return "StoreArrayElement"
	case ILLoadField:
		return "LoadField"
	case ILStoreField:
		return "StoreField"
	case ILInitLateStaticField:
		return "InitLateStaticField"
	case ILLoadStaticField:
		return "LoadStaticField"
	case ILStoreStaticField:
		return "StoreStaticField"
	case ILWriteBarrier:
		return "WriteBarrier"
	case ILTestType:
		return "TestType"
	}
	return "<Unknown>"
}

type ILInstr interface {
	Kind() ILKind
	Start() uint64
	End() uint64
	String() string
}

type ilBase struct {
	start uint64
	end   uint64
}

func newBase(start, end uint64) ilBase {
	utils.Assert(start < end, "bad IL range [0x%x, 0x%x)", start, end)
	utils.Assert((end-start)%disasm.InstrSize == 0,
		"IL range [0x%x, 0x%x) not a multiple of %d", start, end, disasm.InstrSize)
	return ilBase{start, end}
}

func (b *ilBase) Start() uint64 { return b.start }
func (b *ilBase) End() uint64   { return b.end }

// -----------------------------------------------------------------------------
// Frame and stack

type UnknownInstr struct {
	ilBase
	Raw string
}

func NewUnknown(start, end uint64, raw string) *UnknownInstr {
	return &UnknownInstr{newBase(start, end), raw}
}

func (instr *UnknownInstr) Kind() ILKind { return ILUnknown }
func (instr *UnknownInstr) String() string {
	return fmt.Sprintf("unknown  ; %s", instr.Raw)
}

type EnterFrameInstr struct {
	ilBase
}

func NewEnterFrame(start, end uint64) *EnterFrameInstr {
	return &EnterFrameInstr{newBase(start, end)}
}

func (instr *EnterFrameInstr) Kind() ILKind   { return ILEnterFrame }
func (instr *EnterFrameInstr) String() string { return "EnterFrame" }

type LeaveFrameInstr struct {
	ilBase
}

func NewLeaveFrame(start, end uint64) *LeaveFrameInstr {
	return &LeaveFrameInstr{newBase(start, end)}
}

func (instr *LeaveFrameInstr) Kind() ILKind   { return ILLeaveFrame }
func (instr *LeaveFrameInstr) String() string { return "LeaveFrame" }

type AllocateStackInstr struct {
	ilBase
	Size int64
}

func NewAllocateStack(start, end uint64, size int64) *AllocateStackInstr {
	return &AllocateStackInstr{newBase(start, end), size}
}

func (instr *AllocateStackInstr) Kind() ILKind { return ILAllocateStack }
func (instr *AllocateStackInstr) String() string {
	return fmt.Sprintf("AllocStack(0x%x)", instr.Size)
}

type CheckStackOverflowInstr struct {
	ilBase
	Branch uint64 // overflow-handler branch target
}

func NewCheckStackOverflow(start, end, branch uint64) *CheckStackOverflowInstr {
	return &CheckStackOverflowInstr{newBase(start, end), branch}
}

func (instr *CheckStackOverflowInstr) Kind() ILKind   { return ILCheckStackOverflow }
func (instr *CheckStackOverflowInstr) String() string { return "CheckStackOverflow" }

// -----------------------------------------------------------------------------
// Data movement

type LoadValueInstr struct {
	ilBase
	Dst  disasm.Reg
	Item *VarItem
}

func NewLoadValue(start, end uint64, dst disasm.Reg, item *VarItem) *LoadValueInstr {
	return &LoadValueInstr{newBase(start, end), dst, item}
}

func (instr *LoadValueInstr) Kind() ILKind { return ILLoadValue }
func (instr *LoadValueInstr) String() string {
	return fmt.Sprintf("%v = %v", instr.Dst, instr.Item)
}

type StoreObjectPoolInstr struct {
	ilBase
	Src    disasm.Reg
	Offset int64
}

func NewStoreObjectPool(start, end uint64, src disasm.Reg, off int64) *StoreObjectPoolInstr {
	return &StoreObjectPoolInstr{newBase(start, end), src, off}
}

func (instr *StoreObjectPoolInstr) Kind() ILKind { return ILStoreObjectPool }
func (instr *StoreObjectPoolInstr) String() string {
	return fmt.Sprintf("StoreObjectPool: PP+0x%x = %v", instr.Offset, instr.Src)
}

type MoveRegInstr struct {
	ilBase
	Dst disasm.Reg
	Src disasm.Reg
}

func NewMoveReg(start, end uint64, dst, src disasm.Reg) *MoveRegInstr {
	return &MoveRegInstr{newBase(start, end), dst, src}
}

func (instr *MoveRegInstr) Kind() ILKind { return ILMoveReg }
func (instr *MoveRegInstr) String() string {
	return fmt.Sprintf("mov %v, %v", instr.Dst, instr.Src)
}

type DecompressPointerInstr struct {
	ilBase
	Stor VarStorage
}

func NewDecompressPointer(start, end uint64, stor VarStorage) *DecompressPointerInstr {
	return &DecompressPointerInstr{newBase(start, end), stor}
}

func (instr *DecompressPointerInstr) Kind() ILKind { return ILDecompressPointer }
func (instr *DecompressPointerInstr) String() string {
	return fmt.Sprintf("DecompressPointer %s", instr.Stor.Name())
}

type SaveRegisterInstr struct {
	ilBase
	Reg disasm.Reg
}

func NewSaveRegister(start, end uint64, r disasm.Reg) *SaveRegisterInstr {
	return &SaveRegisterInstr{newBase(start, end), r}
}

func (instr *SaveRegisterInstr) Kind() ILKind { return ILSaveRegister }
func (instr *SaveRegisterInstr) String() string {
	return fmt.Sprintf("SaveReg %v", instr.Reg)
}

type RestoreRegisterInstr struct {
	ilBase
	Reg disasm.Reg
}

func NewRestoreRegister(start, end uint64, r disasm.Reg) *RestoreRegisterInstr {
	return &RestoreRegisterInstr{newBase(start, end), r}
}

func (instr *RestoreRegisterInstr) Kind() ILKind { return ILRestoreRegister }
func (instr *RestoreRegisterInstr) String() string {
	return fmt.Sprintf("RestoreReg %v", instr.Reg)
}

type SetupParametersInstr struct {
	ilBase
	Params []*VarItem // register storages holding Param values
}

func NewSetupParameters(start, end uint64, params []*VarItem) *SetupParametersInstr {
	return &SetupParametersInstr{newBase(start, end), params}
}

func (instr *SetupParametersInstr) Kind() ILKind { return ILSetupParameters }
func (instr *SetupParametersInstr) String() string {
	var sb strings.Builder
	sb.WriteString("SetupParameters(")
	for i, p := range instr.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = %v", p.Storage.Name(), p)
	}
	sb.WriteString(")")
	return sb.String()
}

// -----------------------------------------------------------------------------
// Calls

// CallLeafRuntimeInstr owns the MoveReg parameter setup that preceded the
// call; those nodes are removed from the top level when folded in.
type CallLeafRuntimeInstr struct {
	ilBase
	ThrOffset int64
	MovILs    []*MoveRegInstr
	Func      *dartvm.LeafFunc // nil when the thread slot is not in the table
}

func NewCallLeafRuntime(start, end uint64, thrOff int64, movs []*MoveRegInstr,
	fn *dartvm.LeafFunc) *CallLeafRuntimeInstr {
	instr := &CallLeafRuntimeInstr{newBase(start, end), thrOff, movs, fn}
	for _, mov := range movs {
		utils.Assert(mov.Start() >= start && mov.End() <= end,
			"child [0x%x, 0x%x) outside composite [0x%x, 0x%x)",
			mov.Start(), mov.End(), start, end)
	}
	return instr
}

func (instr *CallLeafRuntimeInstr) Kind() ILKind { return ILCallLeafRuntime }
func (instr *CallLeafRuntimeInstr) String() string {
	if instr.Func == nil {
		return fmt.Sprintf("CallRuntime_thr_0x%x()", instr.ThrOffset)
	}
	return instr.Func.String()
}

type ClosureCallInstr struct {
	ilBase
	NArgs     int
	NTypeArgs int
}

func NewClosureCall(start, end uint64, nArgs, nTypeArgs int) *ClosureCallInstr {
	return &ClosureCallInstr{newBase(start, end), nArgs, nTypeArgs}
}

func (instr *ClosureCallInstr) Kind() ILKind { return ILClosureCall }
func (instr *ClosureCallInstr) String() string {
	return fmt.Sprintf("r0 = ClosureCall(%d, %d)", instr.NArgs, instr.NTypeArgs)
}

type GdtCallInstr struct {
	ilBase
	Offset int64
}

func NewGdtCall(start, end uint64, off int64) *GdtCallInstr {
	return &GdtCallInstr{newBase(start, end), off}
}

func (instr *GdtCallInstr) Kind() ILKind { return ILGdtCall }
func (instr *GdtCallInstr) String() string {
	return fmt.Sprintf("r0 = GDT[cid_x0 + 0x%x]()", instr.Offset)
}

type CallInstr struct {
	ilBase
	Func *dartvm.Function // nil when the target has no metadata
	Addr uint64
}

func NewCall(start, end uint64, fn *dartvm.Function, addr uint64) *CallInstr {
	return &CallInstr{newBase(start, end), fn, addr}
}

func (instr *CallInstr) Kind() ILKind { return ILCall }
func (instr *CallInstr) String() string {
	if instr.Func == nil {
		return fmt.Sprintf("r0 = call 0x%x", instr.Addr)
	}
	return fmt.Sprintf("r0 = %s()", instr.Func.Name)
}

type ReturnInstr struct {
	ilBase
}

func NewReturn(start, end uint64) *ReturnInstr {
	return &ReturnInstr{newBase(start, end)}
}

func (instr *ReturnInstr) Kind() ILKind   { return ILReturn }
func (instr *ReturnInstr) String() string { return "ret" }

type InitAsyncInstr struct {
	ilBase
	RetType *dartvm.DartType
}

func NewInitAsync(start, end uint64, retType *dartvm.DartType) *InitAsyncInstr {
	return &InitAsyncInstr{newBase(start, end), retType}
}

func (instr *InitAsyncInstr) Kind() ILKind { return ILInitAsync }
func (instr *InitAsyncInstr) String() string {
	if instr.RetType == nil {
		return "InitAsync() -> ?"
	}
	return fmt.Sprintf("InitAsync() -> %s", instr.RetType.Name)
}

// -----------------------------------------------------------------------------
// Class ids and boxing

type BranchIfSmiInstr struct {
	ilBase
	Obj    disasm.Reg
	Branch uint64
}

func NewBranchIfSmi(start, end uint64, obj disasm.Reg, branch uint64) *BranchIfSmiInstr {
	return &BranchIfSmiInstr{newBase(start, end), obj, branch}
}

func (instr *BranchIfSmiInstr) Kind() ILKind { return ILBranchIfSmi }
func (instr *BranchIfSmiInstr) String() string {
	return fmt.Sprintf("BranchIfSmi(%v, 0x%x)", instr.Obj, instr.Branch)
}

type LoadClassIdInstr struct {
	ilBase
	Obj    disasm.Reg
	CidReg disasm.Reg
}

func NewLoadClassId(start, end uint64, obj, cidReg disasm.Reg) *LoadClassIdInstr {
	return &LoadClassIdInstr{newBase(start, end), obj, cidReg}
}

func (instr *LoadClassIdInstr) Kind() ILKind { return ILLoadClassId }
func (instr *LoadClassIdInstr) String() string {
	return fmt.Sprintf("%v = LoadClassId(%v)", instr.CidReg, instr.Obj)
}

// LoadTaggedClassIdMayBeSmiInstr is the three-node composite
//
//	cid = is_smi(obj) ? tagged(SmiCid) : load_class_id(obj)
//
// It uniquely owns its children; none of them is ever emitted standalone.
type LoadTaggedClassIdMayBeSmiInstr struct {
	ilBase
	LoadImm *LoadValueInstr
	Branch  *BranchIfSmiInstr
	LoadCid *LoadClassIdInstr
}

func NewLoadTaggedClassIdMayBeSmi(start, end uint64, loadImm *LoadValueInstr,
	branch *BranchIfSmiInstr, loadCid *LoadClassIdInstr) *LoadTaggedClassIdMayBeSmiInstr {
	instr := &LoadTaggedClassIdMayBeSmiInstr{newBase(start, end), loadImm, branch, loadCid}
	for _, child := range []ILInstr{loadImm, branch, loadCid} {
		utils.Assert(child.Start() >= start && child.End() <= end,
			"child [0x%x, 0x%x) outside composite [0x%x, 0x%x)",
			child.Start(), child.End(), start, end)
	}
	return instr
}

func (instr *LoadTaggedClassIdMayBeSmiInstr) Kind() ILKind {
	return ILLoadTaggedClassIdMayBeSmi
}

func (instr *LoadTaggedClassIdMayBeSmiInstr) String() string {
	return fmt.Sprintf("%v = LoadTaggedClassIdMayBeSmi(%v)",
		instr.LoadCid.CidReg, instr.LoadCid.Obj)
}

type BoxInt64Instr struct {
	ilBase
	Obj disasm.Reg
	Src disasm.Reg
}

func NewBoxInt64(start, end uint64, obj, src disasm.Reg) *BoxInt64Instr {
	return &BoxInt64Instr{newBase(start, end), obj, src}
}

func (instr *BoxInt64Instr) Kind() ILKind { return ILBoxInt64 }
func (instr *BoxInt64Instr) String() string {
	return fmt.Sprintf("%v = BoxInt64(%v)", instr.Obj, instr.Src)
}

type LoadInt32Instr struct {
	ilBase
	Dst    disasm.Reg
	SrcObj disasm.Reg
}

func NewLoadInt32(start, end uint64, dst, srcObj disasm.Reg) *LoadInt32Instr {
	return &LoadInt32Instr{newBase(start, end), dst, srcObj}
}

func (instr *LoadInt32Instr) Kind() ILKind { return ILLoadInt32 }
func (instr *LoadInt32Instr) String() string {
	return fmt.Sprintf("%v = LoadInt32(%v)", instr.Dst, instr.SrcObj)
}

// -----------------------------------------------------------------------------
// Objects, fields and arrays

type AllocateObjectInstr struct {
	ilBase
	Dst   disasm.Reg
	Class *dartvm.Class
}

func NewAllocateObject(start, end uint64, dst disasm.Reg, cls *dartvm.Class) *AllocateObjectInstr {
	return &AllocateObjectInstr{newBase(start, end), dst, cls}
}

func (instr *AllocateObjectInstr) Kind() ILKind { return ILAllocateObject }
func (instr *AllocateObjectInstr) String() string {
	return fmt.Sprintf("r0 = inline_Allocate%s()", instr.Class.Name)
}

type ArrayType int

const (
	ArrayTypeList ArrayType = iota
	ArrayTypeTypedUnknown
	ArrayTypeTypedSigned
	ArrayTypeTypedUnsigned
	ArrayTypeUnknown
)

func (at ArrayType) String() string {
	switch at {
	case ArrayTypeList:
		return "List"
	case ArrayTypeTypedUnknown:
		return "TypedUnknown"
	case ArrayTypeTypedSigned:
		return "TypedSigned"
	case ArrayTypeTypedUnsigned:
		return "TypedUnsigned"
	case ArrayTypeUnknown:
		return "Unknown"
	}
	return "<Unknown>"
}

type ArrayOp struct {
	Size    uint8 // element size in bytes
	IsLoad  bool
	ArrType ArrayType
}

// SizeLog2 returns log2 of the element size, 255 for unrecognized sizes.
func (op ArrayOp) SizeLog2() uint8 {
	switch op.Size {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	}
	return 255
}

func (op ArrayOp) String() string {
	dir := "store"
	if op.IsLoad {
		dir = "load"
	}
	return fmt.Sprintf("ArrayOp(%d, %s, %v)", op.Size, dir, op.ArrType)
}

type LoadArrayElementInstr struct {
	ilBase
	Dst disasm.Reg
	Arr disasm.Reg
	Idx VarStorage // register or small immediate
	Op  ArrayOp
}

func NewLoadArrayElement(start, end uint64, dst, arr disasm.Reg, idx VarStorage,
	op ArrayOp) *LoadArrayElementInstr {
	utils.Assert(op.IsLoad, "array op direction mismatch")
	return &LoadArrayElementInstr{newBase(start, end), dst, arr, idx, op}
}

func (instr *LoadArrayElementInstr) Kind() ILKind { return ILLoadArrayElement }
func (instr *LoadArrayElementInstr) String() string {
	return fmt.Sprintf("ArrayLoad: %v = %v[%s]  ; %v",
		instr.Dst, instr.Arr, instr.Idx.Name(), instr.Op)
}

type StoreArrayElementInstr struct {
	ilBase
	Val disasm.Reg
	Arr disasm.Reg
	Idx VarStorage
	Op  ArrayOp
}

func NewStoreArrayElement(start, end uint64, val, arr disasm.Reg, idx VarStorage,
	op ArrayOp) *StoreArrayElementInstr {
	utils.Assert(!op.IsLoad, "array op direction mismatch")
	return &StoreArrayElementInstr{newBase(start, end), val, arr, idx, op}
}

func (instr *StoreArrayElementInstr) Kind() ILKind { return ILStoreArrayElement }
func (instr *StoreArrayElementInstr) String() string {
	return fmt.Sprintf("ArrayStore: %v[%s] = %v  ; %v",
		instr.Arr, instr.Idx.Name(), instr.Val, instr.Op)
}

type LoadFieldInstr struct {
	ilBase
	Dst    disasm.Reg
	Obj    disasm.Reg
	Offset int64
}

func NewLoadField(start, end uint64, dst, obj disasm.Reg, off int64) *LoadFieldInstr {
	return &LoadFieldInstr{newBase(start, end), dst, obj, off}
}

func (instr *LoadFieldInstr) Kind() ILKind { return ILLoadField }
func (instr *LoadFieldInstr) String() string {
	return fmt.Sprintf("LoadField: %v = %v->field_%x", instr.Dst, instr.Obj, instr.Offset)
}

type StoreFieldInstr struct {
	ilBase
	Val    disasm.Reg
	Obj    disasm.Reg
	Offset int64
}

func NewStoreField(start, end uint64, val, obj disasm.Reg, off int64) *StoreFieldInstr {
	return &StoreFieldInstr{newBase(start, end), val, obj, off}
}

func (instr *StoreFieldInstr) Kind() ILKind { return ILStoreField }
func (instr *StoreFieldInstr) String() string {
	return fmt.Sprintf("StoreField: %v->field_%x = %v", instr.Obj, instr.Offset, instr.Val)
}

type InitLateStaticFieldInstr struct {
	ilBase
	Dst   disasm.Reg
	Field *dartvm.Field
}

func NewInitLateStaticField(start, end uint64, dst disasm.Reg,
	field *dartvm.Field) *InitLateStaticFieldInstr {
	return &InitLateStaticFieldInstr{newBase(start, end), dst, field}
}

func (instr *InitLateStaticFieldInstr) Kind() ILKind { return ILInitLateStaticField }
func (instr *InitLateStaticFieldInstr) String() string {
	return fmt.Sprintf("InitLateStaticField: %v = %s", instr.Dst, instr.Field)
}

type LoadStaticFieldInstr struct {
	ilBase
	Dst         disasm.Reg
	FieldOffset int64
}

func NewLoadStaticField(start, end uint64, dst disasm.Reg, off int64) *LoadStaticFieldInstr {
	return &LoadStaticFieldInstr{newBase(start, end), dst, off}
}

func (instr *LoadStaticFieldInstr) Kind() ILKind { return ILLoadStaticField }
func (instr *LoadStaticFieldInstr) String() string {
	return fmt.Sprintf("LoadStaticField: %v = static_field_%x", instr.Dst, instr.FieldOffset)
}

type StoreStaticFieldInstr struct {
	ilBase
	Val         disasm.Reg
	FieldOffset int64
}

func NewStoreStaticField(start, end uint64, val disasm.Reg, off int64) *StoreStaticFieldInstr {
	return &StoreStaticFieldInstr{newBase(start, end), val, off}
}

func (instr *StoreStaticFieldInstr) Kind() ILKind { return ILStoreStaticField }
func (instr *StoreStaticFieldInstr) String() string {
	return fmt.Sprintf("StoreStaticField: static_field_%x = %v", instr.FieldOffset, instr.Val)
}

type WriteBarrierInstr struct {
	ilBase
	Obj     disasm.Reg
	Val     disasm.Reg
	IsArray bool
}

func NewWriteBarrier(start, end uint64, obj, val disasm.Reg, isArray bool) *WriteBarrierInstr {
	return &WriteBarrierInstr{newBase(start, end), obj, val, isArray}
}

func (instr *WriteBarrierInstr) Kind() ILKind { return ILWriteBarrier }
func (instr *WriteBarrierInstr) String() string {
	if instr.IsArray {
		return fmt.Sprintf("ArrayWriteBarrier(%v, %v)", instr.Obj, instr.Val)
	}
	return fmt.Sprintf("WriteBarrier(%v, %v)", instr.Obj, instr.Val)
}

type TestTypeInstr struct {
	ilBase
	Src      disasm.Reg
	TypeName string
}

func NewTestType(start, end uint64, src disasm.Reg, typeName string) *TestTypeInstr {
	return &TestTypeInstr{newBase(start, end), src, typeName}
}

func (instr *TestTypeInstr) Kind() ILKind { return ILTestType }
func (instr *TestTypeInstr) String() string {
	return fmt.Sprintf("TestType(%v, %q)", instr.Src, instr.TypeName)
}
