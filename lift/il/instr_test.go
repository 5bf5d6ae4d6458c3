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
	"testing"
)

func TestArrayOpSizeLog2(t *testing.T) {
	cases := map[uint8]uint8{1: 0, 2: 1, 4: 2, 8: 3, 3: 255, 16: 255, 0: 255}
	for size, want := range cases {
		op := ArrayOp{Size: size, IsLoad: true}
		if got := op.SizeLog2(); got != want {
			t.Errorf("SizeLog2(%d): got %d want %d", size, got, want)
		}
	}
}

func TestRangeConstructorAsserts(t *testing.T) {
	assertPanics := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: no panic", name)
			}
		}()
		f()
	}
	assertPanics("empty range", func() { NewReturn(0x1000, 0x1000) })
	assertPanics("inverted range", func() { NewReturn(0x1008, 0x1000) })
	assertPanics("unaligned range", func() { NewReturn(0x1000, 0x1002) })
}

func TestCompositeChildContainment(t *testing.T) {
	loadImm := NewLoadValue(0x1000, 0x1004, disasm.W1,
		NewVarItem(NewImmStorage(), NewVarCid(dartvm.SmiCid, true)))
	branch := NewBranchIfSmi(0x1004, 0x1008, disasm.X0, 0x100c)
	loadCid := NewLoadClassId(0x1008, 0x100c, disasm.X0, disasm.W1)
	comp := NewLoadTaggedClassIdMayBeSmi(0x1000, 0x100c, loadImm, branch, loadCid)
	if comp.String() != "w1 = LoadTaggedClassIdMayBeSmi(x0)" {
		t.Errorf("string: got %q", comp.String())
	}

	defer func() {
		if recover() == nil {
			t.Errorf("escaping child accepted")
		}
	}()
	NewLoadTaggedClassIdMayBeSmi(0x1004, 0x100c, loadImm, branch, loadCid)
}

func TestLeafCallStringForms(t *testing.T) {
	lf := &dartvm.LeafFunc{Name: "double_to_int", Ret: "int", Params: []string{"double"}}
	call := NewCallLeafRuntime(0x1000, 0x1008, 0x730, nil, lf)
	if call.String() != "CallRuntime_double_to_int(double) -> int" {
		t.Errorf("known leaf: got %q", call.String())
	}
	// an offset missing from the thread table must still render
	unknown := NewCallLeafRuntime(0x1000, 0x1008, 0x740, nil, nil)
	if unknown.String() != "CallRuntime_thr_0x740()" {
		t.Errorf("unknown leaf: got %q", unknown.String())
	}
}

func TestNodeStringForms(t *testing.T) {
	cases := []struct {
		node ILInstr
		want string
	}{
		{NewEnterFrame(0x1000, 0x1008), "EnterFrame"},
		{NewLeaveFrame(0x1000, 0x1008), "LeaveFrame"},
		{NewAllocateStack(0x1000, 0x1004, 0x20), "AllocStack(0x20)"},
		{NewCheckStackOverflow(0x1000, 0x100c, 0x2000), "CheckStackOverflow"},
		{NewMoveReg(0x1000, 0x1004, disasm.X0, disasm.X3), "mov x0, x3"},
		{NewCall(0x1000, 0x1004, nil, 0xdeadbeef), "r0 = call 0xdeadbeef"},
		{NewReturn(0x1000, 0x1004), "ret"},
		{NewBranchIfSmi(0x1000, 0x1004, disasm.X0, 0x101c), "BranchIfSmi(x0, 0x101c)"},
		{NewLoadClassId(0x1000, 0x1004, disasm.X0, disasm.W1), "w1 = LoadClassId(x0)"},
		{NewBoxInt64(0x1000, 0x100c, disasm.X0, disasm.X2), "x0 = BoxInt64(x2)"},
		{NewLoadInt32(0x1000, 0x1004, disasm.W0, disasm.X1), "w0 = LoadInt32(x1)"},
		{NewLoadField(0x1000, 0x1004, disasm.X0, disasm.X1, 0xf), "LoadField: x0 = x1->field_f"},
		{NewStoreField(0x1000, 0x1004, disasm.X0, disasm.X1, 0x10), "StoreField: x1->field_10 = x0"},
		{NewLoadStaticField(0x1000, 0x1008, disasm.X0, 0x30), "LoadStaticField: x0 = static_field_30"},
		{NewStoreStaticField(0x1000, 0x1008, disasm.X0, 0x30), "StoreStaticField: static_field_30 = x0"},
		{NewStoreObjectPool(0x1000, 0x1004, disasm.X0, 0x28), "StoreObjectPool: PP+0x28 = x0"},
		{NewWriteBarrier(0x1000, 0x1004, disasm.X0, disasm.X1, false), "WriteBarrier(x0, x1)"},
		{NewWriteBarrier(0x1000, 0x1004, disasm.X0, disasm.X1, true), "ArrayWriteBarrier(x0, x1)"},
		{NewGdtCall(0x1000, 0x100c, 0x40), "r0 = GDT[cid_x0 + 0x40]()"},
		{NewClosureCall(0x1000, 0x100c, 2, 1), "r0 = ClosureCall(2, 1)"},
		{NewTestType(0x1000, 0x100c, disasm.X0, "String"), `TestType(x0, "String")`},
		{NewUnknown(0x1000, 0x1004, "fadd d0, d1, d2"), "unknown  ; fadd d0, d1, d2"},
		{NewDecompressPointer(0x1000, 0x1004, NewRegStorage(disasm.X0)), "DecompressPointer x0"},
		{NewSaveRegister(0x1000, 0x1004, disasm.X19), "SaveReg x19"},
		{NewRestoreRegister(0x1000, 0x1004, disasm.X19), "RestoreReg x19"},
	}
	for _, c := range cases {
		if got := c.node.String(); got != c.want {
			t.Errorf("%v: got %q want %q", c.node.Kind(), got, c.want)
		}
	}
}

func TestSetupParametersString(t *testing.T) {
	params := []*VarItem{
		NewVarItem(NewRegStorage(disasm.X0), NewVarParam(0)),
		NewVarItem(NewRegStorage(disasm.X1), NewVarParam(1)),
	}
	node := NewSetupParameters(0x1000, 0x1008, params)
	if node.String() != "SetupParameters(x0 = arg0, x1 = arg1)" {
		t.Errorf("got %q", node.String())
	}
}
