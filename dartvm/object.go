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
	"dartlift/utils"
	"fmt"
)

// -----------------------------------------------------------------------------
// Runtime Metadata
// Classes, fields, functions and types are decoded from the snapshot by the
// loader before lifting starts. The lifter holds borrowed pointers into these
// tables and never mutates them.

type Class struct {
	Id           Cid
	Name         string
	SuperId      Cid
	InstanceSize int
}

func (c *Class) String() string {
	return c.Name
}

type Field struct {
	Name     string
	Owner    *Class
	Offset   int
	IsStatic bool
	IsLate   bool
}

func (f *Field) String() string {
	if f.Owner != nil {
		return fmt.Sprintf("%s.%s", f.Owner.Name, f.Name)
	}
	return f.Name
}

type Function struct {
	Name string
	Addr uint64
	Size int
}

func (fn *Function) String() string {
	return fn.Name
}

type DartType struct {
	Name string
}

func (t *DartType) String() string {
	return t.Name
}

// UnlinkedCall is the dispatch stub recorded in the pool for a call site that
// was not devirtualized at compile time.
type UnlinkedCall struct {
	Selector string
}

// ArgumentsDescriptor mirrors the runtime's argument-count metadata passed to
// closure and dynamic calls.
type ArgumentsDescriptor struct {
	NumArgs     int
	NumTypeArgs int
	Names       []string
}

// -----------------------------------------------------------------------------
// Environment
// Env aggregates every read-only table the lifter queries: the metadata
// databases, the object pool, the thread layout and the stub address tables.

type Env struct {
	Classes     map[Cid]*Class
	ClassByName map[string]*Class
	Functions   map[uint64]*Function
	Fields      map[int]*Field
	Types       map[string]*DartType

	Pool   *ObjectPool
	Thread *ThreadLayout

	AllocStubs           map[uint64]*Class
	AllocContextStubs    *utils.Set[uint64]
	WriteBarrierStubs    *utils.Set[uint64]
	ArrayWBStubs         *utils.Set[uint64]
	AllocMintStubs       *utils.Set[uint64]
	InitLateStaticStubs  *utils.Set[uint64]
	InitAsyncStubs       *utils.Set[uint64]
	TypeTestRuntimeStubs *utils.Set[uint64]
}

func NewEnv() *Env {
	env := &Env{
		Classes:              make(map[Cid]*Class),
		ClassByName:          make(map[string]*Class),
		Functions:            make(map[uint64]*Function),
		Fields:               make(map[int]*Field),
		Types:                make(map[string]*DartType),
		Pool:                 NewObjectPool(),
		Thread:               NewThreadLayout(),
		AllocStubs:           make(map[uint64]*Class),
		AllocContextStubs:    utils.NewSet[uint64](),
		WriteBarrierStubs:    utils.NewSet[uint64](),
		ArrayWBStubs:         utils.NewSet[uint64](),
		AllocMintStubs:       utils.NewSet[uint64](),
		InitLateStaticStubs:  utils.NewSet[uint64](),
		InitAsyncStubs:       utils.NewSet[uint64](),
		TypeTestRuntimeStubs: utils.NewSet[uint64](),
	}
	env.registerPredefinedClasses()
	return env
}

// registerPredefinedClasses seeds the class table with the runtime's core
// classes so that cid-keyed lookups resolve even for images whose class
// cluster was not walked.
func (env *Env) registerPredefinedClasses() {
	predef := []struct {
		id   Cid
		name string
	}{
		{NullCid, "Null"},
		{ClassCid, "Class"},
		{TypeArgumentsCid, "TypeArguments"},
		{FunctionCid, "Function"},
		{FieldCid, "Field"},
		{SentinelCid, "Sentinel"},
		{SmiCid, "_Smi"},
		{MintCid, "_Mint"},
		{DoubleCid, "_Double"},
		{BoolCid, "bool"},
		{StringCid, "_OneByteString"},
		{ArrayCid, "_List"},
		{GrowableObjectArrayCid, "_GrowableList"},
		{TypeCid, "_Type"},
		{FunctionTypeCid, "_FunctionType"},
		{TypeParameterCid, "_TypeParameter"},
		{RecordTypeCid, "_RecordType"},
		{ClosureCid, "_Closure"},
		{ContextCid, "_Context"},
	}
	for _, p := range predef {
		env.AddClass(&Class{Id: p.id, Name: p.name})
	}
}

func (env *Env) AddClass(c *Class) {
	env.Classes[c.Id] = c
	env.ClassByName[c.Name] = c
}

func (env *Env) AddFunction(fn *Function) {
	env.Functions[fn.Addr] = fn
}

// ClassOf returns the class for cid, or nil if the table has no entry.
func (env *Env) ClassOf(cid Cid) *Class {
	return env.Classes[cid]
}

// FunctionAt resolves a call target address to function metadata, nil on miss.
func (env *Env) FunctionAt(addr uint64) *Function {
	return env.Functions[addr]
}

func (env *Env) TypeNamed(name string) *DartType {
	if t, ok := env.Types[name]; ok {
		return t
	}
	t := &DartType{Name: name}
	env.Types[name] = t
	return t
}
