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
	"fmt"
	"strings"
	"testing"
)

func liftText(t *testing.T, env *dartvm.Env, src string) []il.ILInstr {
	t.Helper()
	insns, err := disasm.ParseListing(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return LiftFunction(env, insns)
}

func liftExpect(t *testing.T, env *dartvm.Env, src string, expect ...string) []il.ILInstr {
	t.Helper()
	seq := liftText(t, env, src)
	if len(seq) != len(expect) {
		t.Fatalf("IL count: got %d want %d\n== IL:\n%s", len(seq), len(expect), Dump(seq))
	}
	for i := range expect {
		if seq[i].String() != expect[i] {
			t.Errorf("IL[%d]: got %q want %q", i, seq[i].String(), expect[i])
		}
	}
	return seq
}

func TestPrologCollapse(t *testing.T) {
	src := `
	0x1000: stp x29, x30, [sp, #-16]!
	0x1004: mov x29, sp
	`
	seq := liftExpect(t, dartvm.NewEnv(), src, "EnterFrame")
	if seq[0].Kind() != il.ILEnterFrame {
		t.Errorf("kind: got %v", seq[0].Kind())
	}
	if seq[0].Start() != 0x1000 || seq[0].End() != 0x1008 {
		t.Errorf("range: got [0x%x, 0x%x)", seq[0].Start(), seq[0].End())
	}
}

func TestPoolLoadSmi(t *testing.T) {
	env := dartvm.NewEnv()
	env.Pool.SetSmi(0x28, 42)
	src := `0x1000: ldr x0, [x27, #0x28]`
	seq := liftExpect(t, env, src, "x0 = 42")
	load := seq[0].(*il.LoadValueInstr)
	if load.Item.Storage.Name() != "PP+0x28" {
		t.Errorf("storage: got %q", load.Item.Storage.Name())
	}
	iv := il.AsInteger(load.Item.Val)
	if iv.Val != 84 || iv.Value() != 42 {
		t.Errorf("smi decode: raw %d value %d", iv.Val, iv.Value())
	}
}

func TestTaggedCidComposite(t *testing.T) {
	tagged := dartvm.TaggedSmi(int64(dartvm.SmiCid))
	src := fmt.Sprintf(`
	0x1000: movz w1, #%d
	0x1004: tbz x0, #0, +8
	0x1008: ldr w1, [x0, #-1]
	`, tagged)
	seq := liftExpect(t, dartvm.NewEnv(), src, "w1 = LoadTaggedClassIdMayBeSmi(x0)")
	comp := seq[0].(*il.LoadTaggedClassIdMayBeSmiInstr)
	if comp.Start() != 0x1000 || comp.End() != 0x100c {
		t.Errorf("range: got [0x%x, 0x%x)", comp.Start(), comp.End())
	}
	for _, child := range []il.ILInstr{comp.LoadImm, comp.Branch, comp.LoadCid} {
		if child.Start() < comp.Start() || child.End() > comp.End() {
			t.Errorf("child [0x%x, 0x%x) escapes composite", child.Start(), child.End())
		}
	}
	if comp.LoadCid.CidReg != disasm.W1 || comp.LoadCid.Obj != disasm.X0 {
		t.Errorf("composite regs: cid %v obj %v", comp.LoadCid.CidReg, comp.LoadCid.Obj)
	}
}

// The composite must not form when the smi branch does not skip exactly the
// class-id load; each component then stands alone.
func TestTaggedCidNotContiguous(t *testing.T) {
	tagged := dartvm.TaggedSmi(int64(dartvm.SmiCid))
	src := fmt.Sprintf(`
	0x1000: movz w1, #%d
	0x1004: tbz x0, #0, +16
	0x1008: ldr w1, [x0, #-1]
	`, tagged)
	seq := liftText(t, dartvm.NewEnv(), src)
	if len(seq) != 3 {
		t.Fatalf("IL count: got %d\n%s", len(seq), Dump(seq))
	}
	if seq[1].Kind() != il.ILBranchIfSmi || seq[2].Kind() != il.ILLoadClassId {
		t.Errorf("components: %v %v", seq[1].Kind(), seq[2].Kind())
	}
}

func TestLeafRuntimeCallFoldsMovs(t *testing.T) {
	env := dartvm.NewEnv()
	env.Thread.SetLeafFunc(0x730, &dartvm.LeafFunc{
		Name: "double_to_int", Ret: "int", Params: []string{"double"},
	})
	src := `
	0x1000: mov x0, x3
	0x1004: mov x1, x4
	0x1008: ldr x16, [x26, #0x730]
	0x100c: blr x16
	`
	seq := liftExpect(t, env, src, "CallRuntime_double_to_int(double) -> int")
	call := seq[0].(*il.CallLeafRuntimeInstr)
	if call.Start() != 0x1000 || call.End() != 0x1010 {
		t.Errorf("range: got [0x%x, 0x%x)", call.Start(), call.End())
	}
	if len(call.MovILs) != 2 {
		t.Fatalf("movs: got %d", len(call.MovILs))
	}
	if call.MovILs[0].String() != "mov x0, x3" || call.MovILs[1].String() != "mov x1, x4" {
		t.Errorf("mov order: %v, %v", call.MovILs[0], call.MovILs[1])
	}
}

func TestLeafRuntimeCallUnknownOffset(t *testing.T) {
	src := `
	0x1000: ldr x16, [x26, #0x740]
	0x1004: blr x16
	`
	liftExpect(t, dartvm.NewEnv(), src, "CallRuntime_thr_0x740()")
}

func TestFieldStoreWithWriteBarrier(t *testing.T) {
	env := dartvm.NewEnv()
	env.WriteBarrierStubs.Add(0x9000)
	src := `
	0x1000: str x1, [x0, #0x10]
	0x1004: bl 0x9000
	`
	seq := liftExpect(t, env, src,
		"StoreField: x0->field_10 = x1",
		"WriteBarrier(x0, x1)")
	wb := seq[1].(*il.WriteBarrierInstr)
	if wb.IsArray {
		t.Errorf("write barrier marked as array")
	}
}

func TestUnresolvedDirectCall(t *testing.T) {
	seq := liftExpect(t, dartvm.NewEnv(), `0x1000: bl 0xdeadbeef`, "r0 = call 0xdeadbeef")
	call := seq[0].(*il.CallInstr)
	if call.Func != nil || call.Addr != 0xdeadbeef {
		t.Errorf("call payload: fn %v addr 0x%x", call.Func, call.Addr)
	}
}

func TestResolvedDirectCall(t *testing.T) {
	env := dartvm.NewEnv()
	env.AddFunction(&dartvm.Function{Name: "main", Addr: 0x4000})
	liftExpect(t, env, `0x1000: bl 0x4000`, "r0 = main()")
}

func TestCheckStackOverflow(t *testing.T) {
	src := `
	0x1000: ldr x16, [x26, #0x38]
	0x1004: cmp sp, x16
	0x1008: b.ls 0x2000
	`
	seq := liftExpect(t, dartvm.NewEnv(), src, "CheckStackOverflow")
	chk := seq[0].(*il.CheckStackOverflowInstr)
	if chk.Branch != 0x2000 {
		t.Errorf("branch: got 0x%x", chk.Branch)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	src := `
	0x1000: stp x29, x30, [sp, #-16]!
	0x1004: mov x29, sp
	0x1008: sub sp, sp, #0x20
	0x100c: mov sp, x29
	0x1010: ldp x29, x30, [sp], #16
	0x1014: ret
	`
	liftExpect(t, dartvm.NewEnv(), src,
		"EnterFrame", "AllocStack(0x20)", "LeaveFrame", "ret")
}

func TestAllocateObject(t *testing.T) {
	env := dartvm.NewEnv()
	cls := &dartvm.Class{Id: 100, Name: "Foo"}
	env.AddClass(cls)
	env.AllocStubs[0x7000] = cls
	liftExpect(t, env, `0x1000: bl 0x7000`, "r0 = inline_AllocateFoo()")
}

func TestAllocateContext(t *testing.T) {
	env := dartvm.NewEnv()
	env.AllocContextStubs.Add(0x7100)
	seq := liftExpect(t, env, `0x1000: bl 0x7100`, "r0 = inline_Allocate_Context()")
	alloc := seq[0].(*il.AllocateObjectInstr)
	if alloc.Class.Id != dartvm.ContextCid {
		t.Errorf("class: got %v", alloc.Class.Id)
	}
}

func TestPoolRecordLoad(t *testing.T) {
	env := dartvm.NewEnv()
	env.Pool.SetRecord(0x48, "(int, String)")
	seq := liftExpect(t, env, `0x1000: ldr x0, [x27, #0x48]`, "x0 = (int, String)")
	load := seq[0].(*il.LoadValueInstr)
	if load.Item.Val.RawTypeId() != dartvm.RecordTypeCid {
		t.Errorf("type id: got %v", load.Item.Val.RawTypeId())
	}
}

func TestGdtCall(t *testing.T) {
	src := `
	0x1000: add x16, x21, x0, lsl #3
	0x1004: ldr x17, [x16, #0x40]
	0x1008: blr x17
	`
	liftExpect(t, dartvm.NewEnv(), src, "r0 = GDT[cid_x0 + 0x40]()")
}

func TestArrayLoadUntyped(t *testing.T) {
	src := `
	0x1000: add x16, x1, x2, lsl #3
	0x1004: ldr x0, [x16, #0xf]
	`
	seq := liftExpect(t, dartvm.NewEnv(), src,
		"ArrayLoad: x0 = x1[x2]  ; ArrayOp(8, load, Unknown)")
	load := seq[0].(*il.LoadArrayElementInstr)
	if load.Op.SizeLog2() != 3 {
		t.Errorf("size log2: got %d", load.Op.SizeLog2())
	}
}

func TestArrayLoadFromKnownPoolArray(t *testing.T) {
	env := dartvm.NewEnv()
	env.Pool.Set(0x30, &dartvm.PoolEntry{Kind: dartvm.PoolArray, ElemCid: dartvm.StringCid, Length: -1})
	src := `
	0x1000: ldr x1, [x27, #0x30]
	0x1004: add x16, x1, x2, lsl #3
	0x1008: ldr x0, [x16, #0xf]
	`
	seq := liftText(t, env, src)
	if len(seq) != 2 {
		t.Fatalf("IL count: got %d\n%s", len(seq), Dump(seq))
	}
	load := seq[1].(*il.LoadArrayElementInstr)
	if load.Op.ArrType != il.ArrayTypeList {
		t.Errorf("array type: got %v", load.Op.ArrType)
	}
}

func TestArrayStoreByte(t *testing.T) {
	src := `
	0x1000: add x16, x3, x4, lsl #0
	0x1004: strb w0, [x16, #0x17]
	`
	liftExpect(t, dartvm.NewEnv(), src,
		"ArrayStore: x3[x4] = w0  ; ArrayOp(1, store, Unknown)")
}

func TestStaticFieldAccess(t *testing.T) {
	src := `
	0x1000: ldr x16, [x26, #0x68]
	0x1004: ldr x0, [x16, #0x30]
	0x1008: ldr x16, [x26, #0x68]
	0x100c: str x1, [x16, #0x30]
	`
	liftExpect(t, dartvm.NewEnv(), src,
		"LoadStaticField: x0 = static_field_30",
		"StoreStaticField: static_field_30 = x1")
}

func TestInitLateStaticField(t *testing.T) {
	env := dartvm.NewEnv()
	owner := &dartvm.Class{Id: 101, Name: "Config"}
	field := &dartvm.Field{Name: "instance", Owner: owner, IsStatic: true, IsLate: true}
	env.Pool.SetSentinel(0x18)
	env.Pool.SetField(0x20, field)
	env.InitLateStaticStubs.Add(0x6000)
	src := `
	0x1000: ldr x16, [x26, #0x68]
	0x1004: ldr x0, [x16, #0x30]
	0x1008: ldr x17, [x27, #0x18]
	0x100c: cmp x0, x17
	0x1010: b.ne 0x1020
	0x1014: ldr x2, [x27, #0x20]
	0x1018: bl 0x6000
	`
	liftExpect(t, env, src, "InitLateStaticField: x0 = Config.instance")
}

func TestTestTypeSequence(t *testing.T) {
	env := dartvm.NewEnv()
	env.Pool.SetType(0x40, env.TypeNamed("String"))
	src := `
	0x1000: ldr x8, [x27, #0x40]
	0x1004: ldr x9, [x8, #0x8]
	0x1008: blr x9
	`
	liftExpect(t, env, src, `TestType(x0, "String")`)
}

func TestTestTypeViaRuntimeStub(t *testing.T) {
	env := dartvm.NewEnv()
	env.Pool.SetType(0x40, env.TypeNamed("List<int>"))
	env.TypeTestRuntimeStubs.Add(0x5100)
	src := `
	0x1000: ldr x8, [x27, #0x40]
	0x1004: bl 0x5100
	`
	liftExpect(t, env, src, `TestType(x0, "List<int>")`)
}

func TestClosureCall(t *testing.T) {
	env := dartvm.NewEnv()
	env.Pool.SetArgsDesc(0x50, &dartvm.ArgumentsDescriptor{NumArgs: 2})
	src := `
	0x1000: ldr x4, [x27, #0x50]
	0x1004: ldur x2, [x0, #0x38]
	0x1008: blr x2
	`
	liftExpect(t, env, src, "r0 = ClosureCall(2, 0)")
}

func TestInitAsync(t *testing.T) {
	env := dartvm.NewEnv()
	env.Pool.SetType(0x60, env.TypeNamed("Future<int>"))
	env.InitAsyncStubs.Add(0x5000)
	src := `
	0x1000: ldr x0, [x27, #0x60]
	0x1004: bl 0x5000
	`
	liftExpect(t, env, src, "InitAsync() -> Future<int>")
}

func TestSetupParameters(t *testing.T) {
	src := `
	0x1000: ldr x0, [fp, #16]
	0x1004: ldr x1, [fp, #24]
	`
	liftExpect(t, dartvm.NewEnv(), src, "SetupParameters(x0 = arg0, x1 = arg1)")
}

func TestSaveRestoreRegister(t *testing.T) {
	src := `
	0x1000: str x19, [sp, #-16]!
	0x1004: ldr x19, [sp], #16
	`
	liftExpect(t, dartvm.NewEnv(), src, "SaveReg x19", "RestoreReg x19")
}

func TestDecompressPointer(t *testing.T) {
	liftExpect(t, dartvm.NewEnv(), `0x1000: add x0, x28, x0, uxtw`,
		"DecompressPointer x0")
}

func TestStoreObjectPool(t *testing.T) {
	liftExpect(t, dartvm.NewEnv(), `0x1000: str x0, [x27, #0x28]`,
		"StoreObjectPool: PP+0x28 = x0")
}

func TestBoxAndUnbox(t *testing.T) {
	env := dartvm.NewEnv()
	env.AllocMintStubs.Add(0x8000)
	src := `
	0x1000: adds x0, x2, x2
	0x1004: b.vc +12
	0x1008: bl 0x8000
	0x100c: sbfx x1, x0, #1, #31
	`
	liftExpect(t, env, src, "x0 = BoxInt64(x2)", "x1 = LoadInt32(x0)")
}

func TestMoveRegForms(t *testing.T) {
	src := `
	0x1000: mov x0, x5
	0x1004: orr x1, xzr, x6
	`
	liftExpect(t, dartvm.NewEnv(), src, "mov x0, x5", "mov x1, x6")
}

func TestUnknownFallback(t *testing.T) {
	seq := liftExpect(t, dartvm.NewEnv(), `0x1000: fadd d0, d1, d2`,
		"unknown  ; fadd d0, d1, d2")
	if seq[0].Kind() != il.ILUnknown {
		t.Errorf("kind: got %v", seq[0].Kind())
	}
}

func TestEmptyStream(t *testing.T) {
	seq := LiftFunction(dartvm.NewEnv(), nil)
	if len(seq) != 0 {
		t.Errorf("IL count: got %d", len(seq))
	}
}

// Every emitted node covers a 4-byte-aligned, non-empty range and top-level
// start addresses never decrease.
func TestAddressInvariants(t *testing.T) {
	env := dartvm.NewEnv()
	env.Pool.SetSmi(0x28, 7)
	src := `
	0x1000: stp x29, x30, [sp, #-16]!
	0x1004: mov x29, sp
	0x1008: sub sp, sp, #0x10
	0x100c: ldr x0, [x27, #0x28]
	0x1010: str x1, [x0, #0x10]
	0x1014: bl 0xcafe00
	0x1018: mov sp, x29
	0x101c: ldp x29, x30, [sp], #16
	0x1020: ret
	`
	seq := liftText(t, env, src)
	var prev uint64
	for i, node := range seq {
		if node.Start() >= node.End() {
			t.Errorf("IL[%d]: empty range [0x%x, 0x%x)", i, node.Start(), node.End())
		}
		if (node.End()-node.Start())%4 != 0 {
			t.Errorf("IL[%d]: unaligned range", i)
		}
		if node.Start() < prev {
			t.Errorf("IL[%d]: start 0x%x decreases below 0x%x", i, node.Start(), prev)
		}
		prev = node.Start()
	}
}
