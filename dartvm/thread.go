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
// Thread Layout
// The per-thread runtime block addressed through the THR register. Code
// reaches runtime state and cached entry points at fixed offsets from it.

// LeafFunc describes a runtime helper callable without re-entering managed
// code, as cached in a thread slot.
type LeafFunc struct {
	Name   string
	Ret    string
	Params []string
}

func (lf *LeafFunc) String() string {
	s := fmt.Sprintf("CallRuntime_%s(", lf.Name)
	for i, p := range lf.Params {
		if i > 0 {
			s += ", "
		}
		s += p
	}
	s += fmt.Sprintf(") -> %s", lf.Ret)
	return s
}

type ThreadLayout struct {
	names     map[int64]string
	leafFuncs map[int64]*LeafFunc
	maxOffset int64
}

// Well-known thread offsets for the 64-bit ARM target. A handful of core
// slots are fixed here; the rest come from the loaded layout table.
const (
	ThreadStackLimitOffset       int64 = 0x38
	ThreadWriteBarrierEntryPoint int64 = 0xE0
	ThreadFieldTableValuesOffset int64 = 0x68
	ThreadHeapBaseOffset         int64 = 0x48
	ThreadIsolateOffset          int64 = 0x50
	ThreadDispatchTableOffset    int64 = 0x58
)

func NewThreadLayout() *ThreadLayout {
	tl := &ThreadLayout{
		names:     make(map[int64]string),
		leafFuncs: make(map[int64]*LeafFunc),
	}
	tl.SetName(ThreadStackLimitOffset, "stack_limit")
	tl.SetName(ThreadWriteBarrierEntryPoint, "write_barrier_entry_point")
	tl.SetName(ThreadFieldTableValuesOffset, "field_table_values")
	tl.SetName(ThreadHeapBaseOffset, "heap_base")
	tl.SetName(ThreadIsolateOffset, "isolate")
	tl.SetName(ThreadDispatchTableOffset, "dispatch_table")
	return tl
}

func (tl *ThreadLayout) SetName(off int64, name string) {
	tl.names[off] = name
	if off > tl.maxOffset {
		tl.maxOffset = off
	}
}

func (tl *ThreadLayout) SetLeafFunc(off int64, lf *LeafFunc) {
	tl.leafFuncs[off] = lf
	tl.SetName(off, lf.Name)
}

// OffsetName names a thread slot, falling back to a hex form for slots the
// layout table does not cover.
func (tl *ThreadLayout) OffsetName(off int64) string {
	if name, ok := tl.names[off]; ok {
		return name
	}
	return fmt.Sprintf("thr_0x%x", off)
}

// LeafFuncAt returns the leaf helper cached at off, nil when the slot is not
// a leaf entry point.
func (tl *ThreadLayout) LeafFuncAt(off int64) *LeafFunc {
	return tl.leafFuncs[off]
}

func (tl *ThreadLayout) IsName(off int64, name string) bool {
	return tl.names[off] == name
}

func (tl *ThreadLayout) MaxOffset() int64 {
	return tl.maxOffset
}
