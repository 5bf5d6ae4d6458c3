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
package dartvm

import (
	"fmt"
)

// -----------------------------------------------------------------------------
// Object Pool
// The per-image constant pool addressed through the PP register. The pool
// walker decodes each slot into a typed entry; the lifter only reads them.

type PoolEntryKind int

const (
	PoolNull PoolEntryKind = iota
	PoolBool
	PoolInt
	PoolDouble
	PoolString
	PoolArray
	PoolFunction
	PoolField
	PoolClass
	PoolType
	PoolTypeArguments
	PoolUnlinkedCall
	PoolSentinel
	PoolSubtypeTestCache
	PoolArgsDesc
	PoolRecord
	PoolImmediate
	PoolUnknown
)

func (kind PoolEntryKind) String() string {
	switch kind {
	case PoolNull:
		return "Null"
	case PoolBool:
		return "Bool"
	case PoolInt:
		return "Int"
	case PoolDouble:
		return "Double"
	case PoolString:
		return "String"
	case PoolArray:
		return "Array"
	case PoolFunction:
		return "Function"
	case PoolField:
		return "Field"
	case PoolClass:
		return "Class"
	case PoolType:
		return "Type"
	case PoolTypeArguments:
		return "TypeArguments"
	case PoolUnlinkedCall:
		return "UnlinkedCall"
	case PoolSentinel:
		return "Sentinel"
	case PoolSubtypeTestCache:
		return "SubtypeTestCache"
	case PoolArgsDesc:
		return "ArgsDesc"
	case PoolRecord:
		return "Record"
	case PoolImmediate:
		return "Immediate"
	}
	return "<Unknown>"
}

// PoolEntry is one decoded pool slot. Kind selects which payload field is
// meaningful; reference payloads borrow from the Env tables.
type PoolEntry struct {
	Kind PoolEntryKind

	BoolVal   bool
	IntVal    int64
	Tagged    bool // IntVal is stored in smi representation
	DoubleVal float64
	StrVal    string
	Func      *Function
	Field     *Field
	Class     *Class
	Type      *DartType
	Unlinked  *UnlinkedCall
	ArgsDesc  *ArgumentsDescriptor
	ElemCid   Cid // element class of a PoolArray entry
	Length    int // -1 when unknown
}

func (e *PoolEntry) String() string {
	switch e.Kind {
	case PoolNull:
		return "Null"
	case PoolBool:
		return fmt.Sprintf("%v", e.BoolVal)
	case PoolInt:
		if e.Tagged {
			return fmt.Sprintf("%d", UntagSmi(e.IntVal))
		}
		return fmt.Sprintf("%d", e.IntVal)
	case PoolDouble:
		return fmt.Sprintf("%v", e.DoubleVal)
	case PoolString:
		return fmt.Sprintf("%q", e.StrVal)
	case PoolType:
		return e.Type.Name
	case PoolRecord:
		return e.StrVal
	default:
		return e.Kind.String()
	}
}

type ObjectPool struct {
	entries map[int64]*PoolEntry
	maxOff  int64
}

func NewObjectPool() *ObjectPool {
	return &ObjectPool{entries: make(map[int64]*PoolEntry)}
}

// Set records the decoded entry at the given byte offset. Population happens
// before lifting; offsets follow the [PP, #off] encoding in code.
func (pool *ObjectPool) Set(off int64, e *PoolEntry) {
	pool.entries[off] = e
	if off > pool.maxOff {
		pool.maxOff = off
	}
}

func (pool *ObjectPool) At(off int64) (*PoolEntry, bool) {
	e, ok := pool.entries[off]
	return e, ok
}

func (pool *ObjectPool) MaxOffset() int64 {
	return pool.maxOff
}

// Convenience setters used by the loader and by tests.

func (pool *ObjectPool) SetSmi(off int64, v int64) {
	pool.Set(off, &PoolEntry{Kind: PoolInt, IntVal: TaggedSmi(v), Tagged: true})
}

func (pool *ObjectPool) SetMint(off int64, v int64) {
	pool.Set(off, &PoolEntry{Kind: PoolInt, IntVal: v})
}

func (pool *ObjectPool) SetString(off int64, s string) {
	pool.Set(off, &PoolEntry{Kind: PoolString, StrVal: s})
}

func (pool *ObjectPool) SetDouble(off int64, v float64) {
	pool.Set(off, &PoolEntry{Kind: PoolDouble, DoubleVal: v})
}

func (pool *ObjectPool) SetNull(off int64) {
	pool.Set(off, &PoolEntry{Kind: PoolNull})
}

func (pool *ObjectPool) SetBool(off int64, v bool) {
	pool.Set(off, &PoolEntry{Kind: PoolBool, BoolVal: v})
}

func (pool *ObjectPool) SetSentinel(off int64) {
	pool.Set(off, &PoolEntry{Kind: PoolSentinel})
}

func (pool *ObjectPool) SetType(off int64, t *DartType) {
	pool.Set(off, &PoolEntry{Kind: PoolType, Type: t})
}

func (pool *ObjectPool) SetField(off int64, f *Field) {
	pool.Set(off, &PoolEntry{Kind: PoolField, Field: f})
}

func (pool *ObjectPool) SetArgsDesc(off int64, d *ArgumentsDescriptor) {
	pool.Set(off, &PoolEntry{Kind: PoolArgsDesc, ArgsDesc: d})
}

// SetRecord stores a record constant by its rendered shape text.
func (pool *ObjectPool) SetRecord(off int64, text string) {
	pool.Set(off, &PoolEntry{Kind: PoolRecord, StrVal: text})
}
