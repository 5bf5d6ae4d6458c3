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

// -----------------------------------------------------------------------------
// Class Ids
// Non-negative cids are the runtime's stable class identifiers as found in the
// AOT snapshot. Negative cids never appear in the image; they are synthetic
// kinds the lifter attaches to values it tracks.

type Cid int32

const (
	IllegalCid Cid = iota
	NullCid
	ClassCid
	TypeArgumentsCid
	FunctionCid
	FieldCid
	UnlinkedCallCid
	SentinelCid
	SubtypeTestCacheCid
	IntegerCid
	SmiCid
	MintCid
	DoubleCid
	BoolCid
	StringCid
	ArrayCid
	GrowableObjectArrayCid
	TypedDataInt8ArrayCid
	TypedDataUint8ArrayCid
	TypedDataInt16ArrayCid
	TypedDataUint16ArrayCid
	TypedDataInt32ArrayCid
	TypedDataUint32ArrayCid
	TypedDataInt64ArrayCid
	TypedDataUint64ArrayCid
	TypedDataFloat32ArrayCid
	TypedDataFloat64ArrayCid
	RecordTypeCid
	RecordCid
	TypeCid
	FunctionTypeCid
	TypeParameterCid
	ClosureCid
	ContextCid
	InstanceCid
	NumPredefinedCids
)

// Synthetic cids used only inside the lifter.
const (
	ExpressionCid       Cid = -1000
	TaggedCidCid        Cid = -1001
	NativeIntCid        Cid = -1002
	NativeDoubleCid     Cid = -1003
	ParameterCid        Cid = -1004
	ArgsDescCid         Cid = -1005
	CurrNumNameParamCid Cid = -1006
)

// Object layout constants for the 64-bit ARM target.
const (
	SmiTagSize    = 1
	SmiTagMask    = 1
	HeapObjectTag = 1
	WordSize      = 8

	// Offset of the class-id load relative to a tagged object pointer. The
	// header word sits at -HeapObjectTag and the cid occupies its low half.
	ClassIdOffset = -1

	// Untagged offset of the payload of a fixed-length array object.
	ArrayDataOffset = 0x10
	// Untagged offset of an instance's first field slot.
	InstanceFirstFieldOffset = 0x8
	// Displacement of a closure object's cached entry point from the tagged
	// closure pointer, as encoded in the load.
	ClosureEntryPointOffset = 0x38
	// Displacement of a type object's test-stub entry point from the tagged
	// type pointer, as encoded in the load.
	TypeTestStubEntryPointOffset = 0x8
)

func (cid Cid) IsSynthetic() bool {
	return cid < 0
}

func (cid Cid) IsTypedData() bool {
	return cid >= TypedDataInt8ArrayCid && cid <= TypedDataFloat64ArrayCid
}

func (cid Cid) IsIntType() bool {
	return cid == IntegerCid || cid == SmiCid || cid == MintCid
}

// TaggedSmi encodes v in the runtime's smi representation.
func TaggedSmi(v int64) int64 {
	return v << SmiTagSize
}

// UntagSmi decodes a smi-tagged word back to its integer value.
func UntagSmi(v int64) int64 {
	return v >> SmiTagSize
}

func (cid Cid) String() string {
	switch cid {
	case IllegalCid:
		return "Illegal"
	case NullCid:
		return "Null"
	case ClassCid:
		return "Class"
	case TypeArgumentsCid:
		return "TypeArguments"
	case FunctionCid:
		return "Function"
	case FieldCid:
		return "Field"
	case UnlinkedCallCid:
		return "UnlinkedCall"
	case SentinelCid:
		return "Sentinel"
	case SubtypeTestCacheCid:
		return "SubtypeTestCache"
	case IntegerCid:
		return "int"
	case SmiCid:
		return "Smi"
	case MintCid:
		return "Mint"
	case DoubleCid:
		return "double"
	case BoolCid:
		return "bool"
	case StringCid:
		return "String"
	case ArrayCid:
		return "Array"
	case GrowableObjectArrayCid:
		return "GrowableArray"
	case RecordTypeCid:
		return "RecordType"
	case RecordCid:
		return "Record"
	case TypeCid:
		return "Type"
	case FunctionTypeCid:
		return "FunctionType"
	case TypeParameterCid:
		return "TypeParameter"
	case ClosureCid:
		return "Closure"
	case ContextCid:
		return "Context"
	case InstanceCid:
		return "Instance"
	case ExpressionCid:
		return "Expression"
	case TaggedCidCid:
		return "TaggedCid"
	case NativeIntCid:
		return "NativeInt"
	case NativeDoubleCid:
		return "NativeDouble"
	case ParameterCid:
		return "Parameter"
	case ArgsDescCid:
		return "ArgsDesc"
	case CurrNumNameParamCid:
		return "CurrNumNameParam"
	}
	if cid.IsTypedData() {
		return "TypedData"
	}
	return "<Unknown>"
}
