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
	"dartlift/utils"
	"fmt"
)

// -----------------------------------------------------------------------------
// Value Lattice
// What the lifter knows about the content of a storage site. A closed family:
// every variant embeds varBase for the raw type id, and a variant overrides
// TypeId when it can report something more refined (an instance reports its
// class, an expression its attached cid).

type VarValue interface {
	// RawTypeId is the statically declared type id of the variant.
	RawTypeId() dartvm.Cid
	// TypeId is the most refined type id known for the value.
	TypeId() dartvm.Cid
	// HasValue distinguishes "type known" from "type and value known".
	HasValue() bool
	String() string
}

type varBase struct {
	typeId   dartvm.Cid
	hasValue bool
}

func (v *varBase) RawTypeId() dartvm.Cid { return v.typeId }
func (v *varBase) TypeId() dartvm.Cid    { return v.typeId }
func (v *varBase) HasValue() bool        { return v.hasValue }

// -----------------------------------------------------------------------------
// Variants

type VarNull struct {
	varBase
}

func NewVarNull() *VarNull {
	return &VarNull{varBase{dartvm.NullCid, true}}
}

func (v *VarNull) String() string { return "Null" }

type VarBoolean struct {
	varBase
	Val bool
}

func NewVarBoolean(val bool) *VarBoolean {
	return &VarBoolean{varBase{dartvm.BoolCid, true}, val}
}

func (v *VarBoolean) String() string {
	if !v.hasValue {
		return "bool"
	}
	return fmt.Sprintf("%v", v.Val)
}

type VarInteger struct {
	varBase
	// Val holds the raw word: smi-tagged when IntTypeId is SmiCid.
	Val       int64
	IntTypeId dartvm.Cid
}

func NewVarInteger(val int64, intTid dartvm.Cid) *VarInteger {
	utils.Assert(intTid.IsIntType(), "bad int type id %d", intTid)
	return &VarInteger{varBase{dartvm.IntegerCid, true}, val, intTid}
}

func NewVarIntegerUnknown() *VarInteger {
	return &VarInteger{varBase{dartvm.IntegerCid, false}, 0, dartvm.IntegerCid}
}

// Value undoes the smi tag when the refined type is smi.
func (v *VarInteger) Value() int64 {
	if v.IntTypeId == dartvm.SmiCid {
		return dartvm.UntagSmi(v.Val)
	}
	return v.Val
}

// SetIntType narrows the refined integer id.
func (v *VarInteger) SetIntType(tid dartvm.Cid) {
	utils.Assert(tid.IsIntType(), "bad int type id %d", tid)
	v.IntTypeId = tid
}

// SetSmiIfInt narrows to smi only from the broad integer id.
func (v *VarInteger) SetSmiIfInt() {
	if v.IntTypeId == dartvm.IntegerCid {
		v.IntTypeId = dartvm.SmiCid
	}
}

func (v *VarInteger) String() string {
	if !v.hasValue {
		return "int"
	}
	return fmt.Sprintf("%d", v.Value())
}

type VarDouble struct {
	varBase
	Val       float64
	DblTypeId dartvm.Cid
}

func NewVarDouble(val float64) *VarDouble {
	return &VarDouble{varBase{dartvm.DoubleCid, true}, val, dartvm.DoubleCid}
}

func (v *VarDouble) String() string {
	if !v.hasValue {
		return "double"
	}
	return fmt.Sprintf("%v", v.Val)
}

type VarString struct {
	varBase
	Val string
}

func NewVarString(val string) *VarString {
	return &VarString{varBase{dartvm.StringCid, true}, val}
}

func (v *VarString) String() string { return fmt.Sprintf("%q", v.Val) }

type VarFunctionCode struct {
	varBase
	Func *dartvm.Function
}

func NewVarFunctionCode(fn *dartvm.Function) *VarFunctionCode {
	return &VarFunctionCode{varBase{dartvm.FunctionCid, true}, fn}
}

func (v *VarFunctionCode) String() string { return v.Func.Name }

type VarField struct {
	varBase
	Field *dartvm.Field
}

func NewVarField(field *dartvm.Field) *VarField {
	return &VarField{varBase{dartvm.FieldCid, true}, field}
}

func (v *VarField) String() string { return v.Field.String() }

// VarExpression is the escape hatch for values only describable as text. Its
// reported type id starts at IllegalCid and may be refined later.
type VarExpression struct {
	varBase
	Text string
	cid  dartvm.Cid
}

func NewVarExpression(text string) *VarExpression {
	return &VarExpression{varBase{dartvm.ExpressionCid, true}, text, dartvm.IllegalCid}
}

func (v *VarExpression) TypeId() dartvm.Cid { return v.cid }

func (v *VarExpression) SetType(cid dartvm.Cid) { v.cid = cid }

func (v *VarExpression) String() string { return v.Text }

// VarArray is either a pool-resident constant array (PoolOffset >= 0) or an
// abstract array of known element type. Length is -1 when unknown.
type VarArray struct {
	varBase
	PoolOffset int64
	ElemCid    dartvm.Cid
	Length     int64
}

func NewVarArrayPool(off int64) *VarArray {
	return &VarArray{varBase{dartvm.ArrayCid, true}, off, dartvm.IllegalCid, -1}
}

func NewVarArray(elemCid dartvm.Cid, length int64) *VarArray {
	return &VarArray{varBase{dartvm.ArrayCid, false}, -1, elemCid, length}
}

func (v *VarArray) String() string {
	if v.PoolOffset >= 0 {
		return fmt.Sprintf("Array@PP+0x%x", v.PoolOffset)
	}
	if v.Length >= 0 {
		return fmt.Sprintf("Array<%v>[%d]", v.ElemCid, v.Length)
	}
	return fmt.Sprintf("Array<%v>", v.ElemCid)
}

type VarGrowableArray struct {
	varBase
	ElemCid dartvm.Cid
}

func NewVarGrowableArray(elemCid dartvm.Cid) *VarGrowableArray {
	return &VarGrowableArray{varBase{dartvm.GrowableObjectArrayCid, false}, elemCid}
}

func (v *VarGrowableArray) String() string {
	return fmt.Sprintf("GrowableArray<%v>", v.ElemCid)
}

type VarUnlinkedCall struct {
	varBase
	Stub *dartvm.UnlinkedCall
}

func NewVarUnlinkedCall(stub *dartvm.UnlinkedCall) *VarUnlinkedCall {
	return &VarUnlinkedCall{varBase{dartvm.UnlinkedCallCid, true}, stub}
}

func (v *VarUnlinkedCall) String() string {
	return fmt.Sprintf("UnlinkedCall_%s", v.Stub.Selector)
}

// VarInstance reports the class id of its class as the refined type id.
type VarInstance struct {
	varBase
	Class *dartvm.Class
}

func NewVarInstance(cls *dartvm.Class) *VarInstance {
	utils.Assert(cls != nil, "instance without class")
	return &VarInstance{varBase{dartvm.InstanceCid, false}, cls}
}

func (v *VarInstance) TypeId() dartvm.Cid { return v.Class.Id }

func (v *VarInstance) String() string {
	return fmt.Sprintf("Instance_%s", v.Class.Name)
}

type VarType struct {
	varBase
	Type *dartvm.DartType
}

func NewVarType(t *dartvm.DartType) *VarType {
	return &VarType{varBase{dartvm.TypeCid, true}, t}
}

func (v *VarType) String() string { return v.Type.Name }

type VarRecordType struct {
	varBase
	Text string
}

func NewVarRecordType(text string) *VarRecordType {
	return &VarRecordType{varBase{dartvm.RecordTypeCid, true}, text}
}

func (v *VarRecordType) String() string { return v.Text }

type VarTypeParameter struct {
	varBase
	Name string
}

func NewVarTypeParameter(name string) *VarTypeParameter {
	return &VarTypeParameter{varBase{dartvm.TypeParameterCid, true}, name}
}

func (v *VarTypeParameter) String() string { return v.Name }

type VarFunctionType struct {
	varBase
	Text string
}

func NewVarFunctionType(text string) *VarFunctionType {
	return &VarFunctionType{varBase{dartvm.FunctionTypeCid, true}, text}
}

func (v *VarFunctionType) String() string { return v.Text }

type VarTypeArguments struct {
	varBase
	Text string
}

func NewVarTypeArguments(text string) *VarTypeArguments {
	return &VarTypeArguments{varBase{dartvm.TypeArgumentsCid, true}, text}
}

func (v *VarTypeArguments) String() string { return v.Text }

type VarSentinel struct {
	varBase
}

func NewVarSentinel() *VarSentinel {
	return &VarSentinel{varBase{dartvm.SentinelCid, true}}
}

func (v *VarSentinel) String() string { return "Sentinel" }

type VarSubtypeTestCache struct {
	varBase
}

func NewVarSubtypeTestCache() *VarSubtypeTestCache {
	return &VarSubtypeTestCache{varBase{dartvm.SubtypeTestCacheCid, false}}
}

func (v *VarSubtypeTestCache) String() string { return "SubtypeTestCache" }

// VarCid represents a class id as a value, possibly already in smi form.
// Its value is known exactly when the cid is not IllegalCid.
type VarCid struct {
	varBase
	Cid   dartvm.Cid
	IsSmi bool
}

func NewVarCid(cid dartvm.Cid, isSmi bool) *VarCid {
	return &VarCid{varBase{dartvm.ClassCid, cid != dartvm.IllegalCid}, cid, isSmi}
}

func (v *VarCid) HasValue() bool { return v.Cid != dartvm.IllegalCid }

func (v *VarCid) String() string {
	if v.IsSmi {
		return fmt.Sprintf("TaggedCid_%d", int32(v.Cid))
	}
	return fmt.Sprintf("cid_%d", int32(v.Cid))
}

type VarParam struct {
	varBase
	Idx int
}

func NewVarParam(idx int) *VarParam {
	return &VarParam{varBase{dartvm.ParameterCid, false}, idx}
}

func (v *VarParam) String() string { return fmt.Sprintf("arg%d", v.Idx) }

// -----------------------------------------------------------------------------
// Guarded downcasts. Mismatch is a programmer error; use a type assertion with
// the comma-ok form for skippable cases.

func AsInteger(v VarValue) *VarInteger {
	iv, ok := v.(*VarInteger)
	utils.Assert(ok, "not an integer value: %v", v)
	return iv
}

func AsParam(v VarValue) *VarParam {
	pv, ok := v.(*VarParam)
	utils.Assert(ok, "not a parameter value: %v", v)
	return pv
}
