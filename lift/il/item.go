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

// VarItem pairs a value with the storage it lives in. The item owns its
// value; moving the item to a new storage moves the value with it.
type VarItem struct {
	Storage VarStorage
	Val     VarValue
}

func NewVarItem(stor VarStorage, val VarValue) *VarItem {
	return &VarItem{Storage: stor, Val: val}
}

// MoveTo rebinds the item to a new storage, transferring value ownership.
func (item *VarItem) MoveTo(stor VarStorage) *VarItem {
	moved := &VarItem{Storage: stor, Val: item.Val}
	item.Val = nil
	return moved
}

func (item *VarItem) String() string {
	if item.Val == nil {
		// diagnostic marker, not a crash: the item lost its value
		return "BUG_NO_ASSIGN_VALUE"
	}
	return item.Val.String()
}
