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

package check

import (
	"strconv"

	"github.com/loom-lang/loomc/ast"
)

// join computes the binary-operator join type (spec §4.3 "Coercion
// rules are applied symmetrically around binary operators to a join
// type"): bool+bool->bool, equal char+char->char else text for a
// character/text mix, numeric joins respect the tower byte subset
// int subset {decimal, float}.
func join(a, b *ast.Type) *ast.Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	ak, bk := a.ResolvedKind(), b.ResolvedKind()
	switch {
	case ak == bk:
		return a
	case (ak == ast.KChar || ak == ast.KText) && (bk == ast.KChar || bk == ast.KText):
		return ast.TText
	case ak&ast.KNumeric != 0 && bk&ast.KNumeric != 0:
		return numericJoin(ak, bk)
	default:
		return a
	}
}

// numericJoin implements the tower rule: decimal and float join to
// float; mixed signed/unsigned promotes to signed (spec §4.3
// "Integer arithmetic on unsigned is performed in unsigned; mixed
// signed/unsigned promotes to signed").
func numericJoin(a, b ast.Kind) *ast.Type {
	if a == ast.KFloat || b == ast.KFloat {
		return ast.TFloat
	}
	if a == ast.KDecimal || b == ast.KDecimal {
		return ast.TDecimal
	}
	if a&ast.KUnsigned != 0 && b&ast.KUnsigned != 0 {
		return ast.TUInt
	}
	return ast.TInt
}

// coerce turns an expression of type from into type to, per spec
// §4.3 "Coercion insertion": identical types pass through, an
// in-range integer literal is rewritten in place (an out-of-range
// one aimed at byte/ubyte/uint is rejected), otherwise the
// cheapest ConvTable row is wrapped as an ast.Convert; if none
// exists, coerce raises a fatal diagnostic and returns e unchanged.
func (c *Checker) coerce(e ast.Node, from, to *ast.Type) ast.Node {
	if to == nil || from == nil || e == nil {
		return e
	}
	if from.Equal(to) {
		return e
	}
	fk, tk := from.ResolvedKind(), to.ResolvedKind()
	if lit, ok := e.(*ast.NumberLit); ok {
		if rewriteLiteral(lit, tk) {
			lit.SetTyped(to)
			return lit
		}
		if !lit.IsFraction && tk&(ast.KByte|ast.KUByte|ast.KUInt) != 0 {
			c.bag.Errorf(e, "literal %s is out of range for %s", lit.Text, to)
			return e
		}
	}
	if u, ok := e.(*ast.UnOp); ok && u.Op == "-" && tk&(ast.KByte|ast.KUByte|ast.KUInt) != 0 {
		if lit, ok := u.Operand.(*ast.NumberLit); ok && !lit.IsFraction {
			if !rewriteLiteral(&ast.NumberLit{Text: "-" + lit.Text}, tk) {
				c.bag.Errorf(e, "literal -%s is out of range for %s", lit.Text, to)
				return e
			}
		}
	}
	backend, cost := bestConversion(fk, tk)
	if cost == Unreachable {
		c.bag.Errorf(e, "cannot convert %s to %s", from, to)
		return e
	}
	conv := &ast.Convert{Backend: backend, Arg: e}
	conv.SetTyped(to)
	return conv
}

// rewriteLiteral applies the in-range literal-rewrite rule (spec
// §4.3 "rewrites a literal in place if the target range admits it
// (integer->byte, integer->ubyte, integer->uint with range
// checks)").
func rewriteLiteral(lit *ast.NumberLit, target ast.Kind) bool {
	if lit.IsFraction {
		return false
	}
	v, err := strconv.ParseInt(lit.Text, 10, 64)
	if err != nil {
		return false
	}
	switch target {
	case ast.KByte:
		return v >= byteLo && v <= byteHi
	case ast.KUByte:
		return v >= ubyteLo && v <= ubyteHi
	case ast.KUInt:
		return v >= 0
	case ast.KInt:
		return true
	default:
		return false
	}
}
