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
)

const DebugPrintIL = false
const DebugPrintRegFile = false

// -----------------------------------------------------------------------------
// Lifter
// Walks the decoded-instruction stream of one function and pattern-matches
// windows of instructions against the runtime's code idioms. The first
// recognizer that matches consumes its window and emits one IL node; when
// none matches, a single Unknown node is emitted and the stream advances by
// one instruction. The register file tracks the last value written to each
// machine register and is reset at every function boundary.

type Lifter struct {
	env   *dartvm.Env
	insns []disasm.Instruction
	pos   int
	out   []il.ILInstr
	regs  [disasm.NumRegs]*il.VarItem

	inFrame bool
}

type matcher func(*Lifter) (il.ILInstr, int)

// Recognizers in priority order. Longer idioms come before the short
// patterns they embed, so a composite always wins over its components.
var matchers = []matcher{
	(*Lifter).matchEnterFrame,
	(*Lifter).matchLeaveFrame,
	(*Lifter).matchAllocStack,
	(*Lifter).matchCheckStackOverflow,
	(*Lifter).matchLoadTaggedClassIdMayBeSmi,
	(*Lifter).matchSetupParameters,
	(*Lifter).matchInitLateStaticField,
	(*Lifter).matchStaticField,
	(*Lifter).matchInitAsync,
	(*Lifter).matchTestType,
	(*Lifter).matchClosureCall,
	(*Lifter).matchCallLeafRuntime,
	(*Lifter).matchGdtCall,
	(*Lifter).matchAllocateObject,
	(*Lifter).matchAllocateContext,
	(*Lifter).matchWriteBarrier,
	(*Lifter).matchCall,
	(*Lifter).matchBranchIfSmi,
	(*Lifter).matchLoadClassId,
	(*Lifter).matchBoxInt64,
	(*Lifter).matchLoadInt32,
	(*Lifter).matchDecompressPointer,
	(*Lifter).matchArrayElement,
	(*Lifter).matchStoreObjectPool,
	(*Lifter).matchPoolLoad,
	(*Lifter).matchThreadLoad,
	(*Lifter).matchSaveRestoreRegister,
	(*Lifter).matchFieldAccess,
	(*Lifter).matchLoadImm,
	(*Lifter).matchMoveReg,
	(*Lifter).matchReturn,
}

func NewLifter(env *dartvm.Env) *Lifter {
	return &Lifter{env: env}
}

// LiftFunction lifts one function's instruction stream to IL.
func LiftFunction(env *dartvm.Env, insns []disasm.Instruction) []il.ILInstr {
	lifter := NewLifter(env)
	return lifter.Lift(insns)
}

func (lifter *Lifter) Lift(insns []disasm.Instruction) []il.ILInstr {
	lifter.insns = insns
	lifter.pos = 0
	lifter.out = nil
	lifter.inFrame = false
	for i := range lifter.regs {
		lifter.regs[i] = nil
	}

	for lifter.pos < len(lifter.insns) {
		node, consumed := lifter.matchOne()
		lifter.out = append(lifter.out, node)
		lifter.pos += consumed
		if DebugPrintIL {
			fmt.Printf("0x%x-0x%x: %v\n", node.Start(), node.End(), node)
		}
		if DebugPrintRegFile {
			lifter.printRegFile()
		}
	}
	return lifter.out
}

func (lifter *Lifter) matchOne() (il.ILInstr, int) {
	for _, match := range matchers {
		if node, consumed := match(lifter); node != nil {
			return node, consumed
		}
	}
	// No idiom recognized: one Unknown node per machine instruction. A write
	// to a register we cannot interpret invalidates its tracked value.
	insn := lifter.at(0)
	if len(insn.Args) > 0 && insn.Args[0].Kind == disasm.OpReg {
		lifter.killReg(insn.Args[0].Reg)
	}
	return il.NewUnknown(insn.Addr, insn.End(), insn.Raw), 1
}

// at returns the instruction k slots ahead of the window head, nil past the
// end of the stream.
func (lifter *Lifter) at(k int) *disasm.Instruction {
	if lifter.pos+k >= len(lifter.insns) {
		return nil
	}
	return &lifter.insns[lifter.pos+k]
}

// -----------------------------------------------------------------------------
// Register file

func (lifter *Lifter) setReg(r disasm.Reg, item *il.VarItem) {
	if r == disasm.NoReg || r.IsZero() || r.X() == disasm.SP {
		return
	}
	lifter.regs[r.Index()] = item
}

func (lifter *Lifter) getReg(r disasm.Reg) *il.VarItem {
	if r == disasm.NoReg {
		return nil
	}
	return lifter.regs[r.Index()]
}

func (lifter *Lifter) killReg(r disasm.Reg) {
	lifter.setReg(r, nil)
}

// setRegValue binds a fresh item holding val to register r.
func (lifter *Lifter) setRegValue(r disasm.Reg, val il.VarValue) {
	lifter.setReg(r, il.NewVarItem(il.NewRegStorage(r), val))
}

func (lifter *Lifter) printRegFile() {
	for i, item := range lifter.regs {
		if item != nil {
			fmt.Printf("  %v: %v\n", disasm.Reg(i), item)
		}
	}
}

// -----------------------------------------------------------------------------
// Pool decoding

// poolValue decodes a pool entry into a lattice value. Unknown entry kinds
// become expressions with an illegal type id, refinable later.
func (lifter *Lifter) poolValue(off int64) il.VarValue {
	entry, ok := lifter.env.Pool.At(off)
	if !ok {
		return il.NewVarExpression(fmt.Sprintf("pool_0x%x", off))
	}
	switch entry.Kind {
	case dartvm.PoolNull:
		return il.NewVarNull()
	case dartvm.PoolBool:
		return il.NewVarBoolean(entry.BoolVal)
	case dartvm.PoolInt:
		if entry.Tagged {
			return il.NewVarInteger(entry.IntVal, dartvm.SmiCid)
		}
		return il.NewVarInteger(entry.IntVal, dartvm.MintCid)
	case dartvm.PoolDouble:
		return il.NewVarDouble(entry.DoubleVal)
	case dartvm.PoolString:
		return il.NewVarString(entry.StrVal)
	case dartvm.PoolArray:
		return il.NewVarArrayPool(off)
	case dartvm.PoolFunction:
		return il.NewVarFunctionCode(entry.Func)
	case dartvm.PoolField:
		return il.NewVarField(entry.Field)
	case dartvm.PoolClass:
		return il.NewVarCid(entry.Class.Id, false)
	case dartvm.PoolType:
		return il.NewVarType(entry.Type)
	case dartvm.PoolTypeArguments:
		return il.NewVarTypeArguments(entry.String())
	case dartvm.PoolUnlinkedCall:
		return il.NewVarUnlinkedCall(entry.Unlinked)
	case dartvm.PoolSentinel:
		return il.NewVarSentinel()
	case dartvm.PoolSubtypeTestCache:
		return il.NewVarSubtypeTestCache()
	case dartvm.PoolArgsDesc:
		expr := il.NewVarExpression(fmt.Sprintf("ArgsDesc(%d)", entry.ArgsDesc.NumArgs))
		expr.SetType(dartvm.ArgsDescCid)
		return expr
	case dartvm.PoolRecord:
		return il.NewVarRecordType(entry.StrVal)
	}
	return il.NewVarExpression(fmt.Sprintf("pool_0x%x", off))
}

// -----------------------------------------------------------------------------
// Output helpers

// Dump renders an IL sequence with address ranges, one node per line.
func Dump(seq []il.ILInstr) string {
	var sb strings.Builder
	for _, node := range seq {
		fmt.Fprintf(&sb, "0x%x-0x%x: %v\n", node.Start(), node.End(), node)
	}
	return sb.String()
}
