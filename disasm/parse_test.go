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
package disasm

import (
	"strings"
	"testing"
)

func parseOne(t *testing.T, line string) Instruction {
	t.Helper()
	insn, ok, err := ParseLine(line)
	if err != nil || !ok {
		t.Fatalf("ParseLine(%q): ok=%v err=%v", line, ok, err)
	}
	return insn
}

func TestParsePreIndexPair(t *testing.T) {
	insn := parseOne(t, "0x1000: stp x29, x30, [sp, #-16]!")
	if insn.Addr != 0x1000 || insn.Op != "stp" || insn.NumArgs() != 3 {
		t.Fatalf("decoded: %v", insn.String())
	}
	if insn.Reg(0) != FP || insn.Reg(1) != LR {
		t.Errorf("regs: %v, %v", insn.Reg(0), insn.Reg(1))
	}
	mem, ok := insn.Mem(2)
	if !ok || mem.Base != SP || mem.Mode != AddrPreIndex || mem.Disp != -16 {
		t.Errorf("mem: %+v", mem)
	}
}

func TestParsePostIndex(t *testing.T) {
	insn := parseOne(t, "0x1004: ldp x29, x30, [sp], #16")
	mem, ok := insn.Mem(2)
	if !ok || mem.Mode != AddrPostIndex || mem.Disp != 16 {
		t.Errorf("mem: %+v", mem)
	}
}

func TestParseIndexedMem(t *testing.T) {
	insn := parseOne(t, "0x1008: ldr w0, [x1, x2, lsl #2]")
	if insn.Reg(0) != W0 {
		t.Errorf("dst: %v", insn.Reg(0))
	}
	mem, ok := insn.Mem(1)
	if !ok || mem.Base != X1 || mem.Index != X2 || mem.Scale != 2 {
		t.Errorf("mem: %+v", mem)
	}
}

func TestParseShiftedRegOperand(t *testing.T) {
	insn := parseOne(t, "0x100c: add x16, x21, x0, lsl #3")
	if insn.NumArgs() != 3 {
		t.Fatalf("args: %d", insn.NumArgs())
	}
	arg := insn.Args[2]
	if arg.Kind != OpRegShift || arg.Reg != X0 || arg.Shift != "lsl" || arg.Amt != 3 {
		t.Errorf("shifted: %+v", arg)
	}
}

func TestParseExtendedRegOperand(t *testing.T) {
	insn := parseOne(t, "0x1010: add x0, x28, x0, uxtw")
	arg := insn.Args[2]
	if arg.Kind != OpRegExt || arg.Reg != X0 || arg.Shift != "uxtw" {
		t.Errorf("extended: %+v", arg)
	}
}

func TestParseImmediateForms(t *testing.T) {
	insn := parseOne(t, "0x1000: sub sp, sp, #0x20")
	if imm, ok := insn.Imm(2); !ok || imm != 0x20 {
		t.Errorf("hex imm: %v", insn.Args[2])
	}
	insn = parseOne(t, "0x1000: tbz x0, #0, +8")
	tgt, ok := insn.Target(2)
	if !ok || tgt != 0x1008 {
		t.Errorf("relative target: 0x%x ok=%v", tgt, ok)
	}
	insn = parseOne(t, "0x1000: bl 0xdeadbeef")
	tgt, ok = insn.Target(0)
	if !ok || tgt != 0xdeadbeef {
		t.Errorf("absolute target: 0x%x ok=%v", tgt, ok)
	}
}

func TestParseNegativeDisp(t *testing.T) {
	insn := parseOne(t, "0x1000: ldr w1, [x0, #-1]")
	mem, ok := insn.Mem(1)
	if !ok || mem.Disp != -1 {
		t.Errorf("mem: %+v", mem)
	}
}

func TestParseSkipsNonCode(t *testing.T) {
	src := `
	; a function
	// another comment

	0x1000: ret
	`
	insns, err := ParseListing(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(insns) != 1 || insns[0].Op != "ret" {
		t.Fatalf("insns: %v", insns)
	}
}

func TestParseUnknownOperandDegrades(t *testing.T) {
	insn := parseOne(t, "0x1000: fadd d0, d1, d2")
	if insn.NumArgs() != 3 {
		t.Fatalf("args: %d", insn.NumArgs())
	}
	for _, arg := range insn.Args {
		if arg.Kind != OpLabel {
			t.Errorf("operand not degraded: %+v", arg)
		}
	}
}

func TestRegisterNames(t *testing.T) {
	cases := map[Reg]string{
		X0: "x0", X3: "x3", W0: "w0", W1: "w1",
		SP: "sp", FP: "fp", LR: "lr", XZR: "xzr", WZR: "wzr",
	}
	for r, want := range cases {
		if r.String() != want {
			t.Errorf("String(%d): got %q want %q", int(r), r.String(), want)
		}
		if ParseReg(want) != r {
			t.Errorf("ParseReg(%q): got %v", want, ParseReg(want))
		}
	}
}

func TestRegisterViews(t *testing.T) {
	if W3.X() != X3 || X3.W() != W3 {
		t.Errorf("view conversion broken")
	}
	if W3.Index() != X3.Index() {
		t.Errorf("views have different indices")
	}
	if X0.OperandBytes() != 8 || W0.OperandBytes() != 4 {
		t.Errorf("operand widths wrong")
	}
}
