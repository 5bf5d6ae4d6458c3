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
	"dartlift/disasm"
	"dartlift/utils"
	"fmt"
)

// -----------------------------------------------------------------------------
// Storage Locator
// Names where a tracked value currently lives. A plain value type compared by
// structural equality.

type StorageKind int

const (
	StorExpression StorageKind = iota
	StorRegister
	StorLocal
	StorArgument
	StorStatic
	StorPool
	StorThread
	StorInInstruction
	StorImmediate
	StorSmallImm
	StorCall
	StorField
	StorUninit
)

func (kind StorageKind) String() string {
	switch kind {
	case StorExpression:
		return "Expression"
	case StorRegister:
		return "Register"
	case StorLocal:
		return "Local"
	case StorArgument:
		return "Argument"
	case StorStatic:
		return "Static"
	case StorPool:
		return "Pool"
	case StorThread:
		return "Thread"
	case StorInInstruction:
		return "InInstruction"
	case StorImmediate:
		return "Immediate"
	case StorSmallImm:
		return "SmallImm"
	case StorCall:
		return "Call"
	case StorField:
		return "Field"
	case StorUninit:
		return "Uninit"
	}
	return "<Unknown>"
}

type VarStorage struct {
	Kind   StorageKind
	Reg    disasm.Reg
	Offset int64 // Local, Pool, Thread, Static
	ArgIdx int   // Argument
	Imm    int64 // SmallImm
}

func NewRegStorage(r disasm.Reg) VarStorage {
	return VarStorage{Kind: StorRegister, Reg: r}
}

func NewLocalStorage(off int64) VarStorage {
	return VarStorage{Kind: StorLocal, Offset: off}
}

func NewPoolStorage(off int64) VarStorage {
	return VarStorage{Kind: StorPool, Offset: off}
}

func NewThreadStorage(off int64) VarStorage {
	return VarStorage{Kind: StorThread, Offset: off}
}

func NewStaticStorage(off int64) VarStorage {
	return VarStorage{Kind: StorStatic, Offset: off}
}

func NewArgStorage(idx int) VarStorage {
	return VarStorage{Kind: StorArgument, ArgIdx: idx}
}

func NewImmStorage() VarStorage {
	return VarStorage{Kind: StorImmediate}
}

func NewSmallImmStorage(v int64) VarStorage {
	return VarStorage{Kind: StorSmallImm, Imm: v}
}

func NewCallStorage() VarStorage {
	return VarStorage{Kind: StorCall}
}

func NewFieldStorage() VarStorage {
	return VarStorage{Kind: StorField}
}

func NewExprStorage() VarStorage {
	return VarStorage{Kind: StorExpression}
}

func NewUninitStorage() VarStorage {
	return VarStorage{Kind: StorUninit}
}

// EqualsReg reports whether this storage is exactly the given register.
func (stor VarStorage) EqualsReg(r disasm.Reg) bool {
	return stor.Kind == StorRegister && stor.Reg == r
}

func (stor VarStorage) IsImmediate() bool {
	return stor.Kind == StorImmediate
}

// IsPredefinedValue is true for storages whose content is fixed before the
// function runs (literals and pool constants).
func (stor VarStorage) IsPredefinedValue() bool {
	return stor.Kind == StorImmediate || stor.Kind == StorPool
}

// Name is the short stable mnemonic used in golden output.
func (stor VarStorage) Name() string {
	switch stor.Kind {
	case StorExpression:
		return "expr"
	case StorRegister:
		return stor.Reg.String()
	case StorLocal:
		if stor.Offset < 0 {
			return fmt.Sprintf("fp-0x%x", -stor.Offset)
		}
		return fmt.Sprintf("fp+0x%x", stor.Offset)
	case StorArgument:
		return fmt.Sprintf("arg%d", stor.ArgIdx)
	case StorStatic:
		return fmt.Sprintf("static_field_%x", stor.Offset)
	case StorPool:
		return fmt.Sprintf("PP+0x%x", stor.Offset)
	case StorThread:
		return fmt.Sprintf("THR+0x%x", stor.Offset)
	case StorInInstruction:
		return "instr"
	case StorImmediate:
		return "imm"
	case StorSmallImm:
		return fmt.Sprintf("smallimm(%d)", stor.Imm)
	case StorCall:
		return "ret"
	case StorField:
		return "field"
	case StorUninit:
		return "uninit"
	}
	utils.ShouldNotReachHere()
	return ""
}
