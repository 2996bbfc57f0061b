// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package ast

import "fmt"

// Kind is a bitset over the scalar type tower (spec §3 "Types"),
// mirroring the teacher's expr.TypeSet bitset-of-ion-types: the
// numeric tower byte ⊂ int ⊂ {decimal, float} and the bool/char
// joins (spec §4.3) are expressed as bit unions so that "join type"
// computation is a handful of bitwise operations rather than a
// hand-written table of every pair.
type Kind uint32

const (
	KVoid Kind = 1 << iota
	KBool
	KByte
	KUByte
	KInt
	KUInt
	KFloat
	KDecimal
	KChar
	KText
	KFile
	KEnum
	KArray
	KMap
	KIterator
	KNamed
	KProtocol
	KCell
	KProcess
	KProcedure
	KThread
)

// KUnsigned is the unsigned half of the integer tower.
const KUnsigned = KUByte | KUInt

// KInteger is the whole integer tower (spec §4.3: "mixed
// signed/unsigned promotes to signed").
const KInteger = KUnsigned | KByte | KInt

// KNumeric is every numeric kind; decimal and float join to float
// (spec §4.3).
const KNumeric = KInteger | KFloat | KDecimal

func (k Kind) String() string {
	switch k {
	case KVoid:
		return "void"
	case KBool:
		return "bool"
	case KByte:
		return "byte"
	case KUByte:
		return "ubyte"
	case KInt:
		return "int"
	case KUInt:
		return "uint"
	case KFloat:
		return "float"
	case KDecimal:
		return "decimal"
	case KChar:
		return "char"
	case KText:
		return "text"
	case KFile:
		return "file"
	case KEnum:
		return "enum"
	case KArray:
		return "array"
	case KMap:
		return "map"
	case KIterator:
		return "iterator"
	case KNamed:
		return "named"
	case KProtocol:
		return "protocol"
	case KCell, KProcess, KProcedure, KThread:
		return "closure"
	default:
		return fmt.Sprintf("kind(%#x)", uint32(k))
	}
}

// Polarity distinguishes a map's client/server role (spec §3
// "map (domain → range, optional server/client polarity)").
type Polarity int

const (
	NoPolarity Polarity = iota
	ClientMap
	ServerMap
)

// Type is the full type of a value: Kind plus whatever structure
// that Kind requires. Composite kinds (array, map, iterator, enum,
// named) carry children; scalar kinds use only Kind.
type Type struct {
	Kind Kind

	// Array: Elem is the range type, Lo/Hi are the integer bounds.
	Elem   *Type
	Lo, Hi int

	// Map/Iterator: Domain -> Range.
	Domain   *Type
	Range    *Type
	Polarity Polarity

	// Enum: the defining declaration (see decl.go EnumDecl).
	Enum *EnumDecl

	// Named: an unresolved or resolved reference to a user type.
	Name string
	Def  Node // resolved target, set by bind
}

func Scalar(k Kind) *Type { return &Type{Kind: k} }

var (
	TVoid    = Scalar(KVoid)
	TBool    = Scalar(KBool)
	TByte    = Scalar(KByte)
	TUByte   = Scalar(KUByte)
	TInt     = Scalar(KInt)
	TUInt    = Scalar(KUInt)
	TFloat   = Scalar(KFloat)
	TDecimal = Scalar(KDecimal)
	TChar    = Scalar(KChar)
	TText    = Scalar(KText)
	TFile    = Scalar(KFile)
)

// Equal reports whether two types denote the same type, resolving
// through Named references.
func (t *Type) Equal(u *Type) bool {
	if t == nil || u == nil {
		return t == u
	}
	t, u = t.resolved(), u.resolved()
	if t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case KArray:
		return t.Lo == u.Lo && t.Hi == u.Hi && t.Elem.Equal(u.Elem)
	case KMap, KIterator:
		return t.Polarity == u.Polarity && t.Domain.Equal(u.Domain) && t.Range.Equal(u.Range)
	case KEnum:
		return t.Enum == u.Enum
	default:
		return true
	}
}

// ResolvedKind returns the Kind of t after following Named
// references to their underlying type; check's join/coercion logic
// works on resolved kinds so a named alias for int behaves exactly
// like int.
func (t *Type) ResolvedKind() Kind {
	if t == nil {
		return KVoid
	}
	return t.resolved().Kind
}

func (t *Type) resolved() *Type {
	for t != nil && t.Kind == KNamed && t.Def != nil {
		if d, ok := t.Def.(interface{ Underlying() *Type }); ok {
			t = d.Underlying()
			continue
		}
		break
	}
	return t
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KArray:
		return fmt.Sprintf("array[%d..%d] of %s", t.Lo, t.Hi, t.Elem)
	case KMap:
		return fmt.Sprintf("map %s -> %s", t.Domain, t.Range)
	case KIterator:
		return fmt.Sprintf("iterator %s -> %s", t.Domain, t.Range)
	case KEnum:
		if t.Enum != nil {
			return t.Enum.Name
		}
		return "enum"
	case KNamed:
		return t.Name
	default:
		return t.Kind.String()
	}
}

// Contains reports whether k is one of the kinds t's resolved
// type can take; used by check/port rules that only care about
// a coarse kind (e.g. "is this a signal", "is this numeric").
func (t *Type) Contains(k Kind) bool {
	if t == nil {
		return false
	}
	return t.resolved().Kind&k != 0
}
