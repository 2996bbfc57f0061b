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

import "github.com/loom-lang/loomc/ast"

// builtinConvNames are the overloaded user-level conversion
// functions named in spec §4.3 ("bool, int, text, format, ...");
// called with one argument, the checker picks the cheapest ConvTable
// row converting the argument's type to the named target.
var builtinConvNames = map[string]ast.Kind{
	"bool":    ast.KBool,
	"byte":    ast.KByte,
	"ubyte":   ast.KUByte,
	"int":     ast.KInt,
	"uint":    ast.KUInt,
	"float":   ast.KFloat,
	"decimal": ast.KDecimal,
	"char":    ast.KChar,
	"text":    ast.KText,
}

// checkExpr infers and records e's type, inserting any coercions its
// subexpressions need, and returns the inferred type.
func (c *Checker) checkExpr(e ast.Node) *ast.Type {
	switch n := e.(type) {
	case nil:
		return nil
	case *ast.BoolLit:
		n.SetTyped(ast.TBool)
	case *ast.CharLit:
		n.SetTyped(ast.TChar)
	case *ast.TextLit:
		n.SetTyped(ast.TText)
	case *ast.NumberLit:
		// spec §4.3 "numeric literals are integer if no decimal
		// point or exponent, otherwise decimal".
		if n.IsFraction {
			n.SetTyped(ast.TDecimal)
		} else {
			n.SetTyped(ast.TInt)
		}
	case *ast.Name:
		n.SetTyped(defType(n.Definition))
	case *ast.BinOp:
		c.checkBinOp(n)
	case *ast.UnOp:
		n.SetTyped(c.checkExpr(n.Operand))
	case *ast.Cond:
		c.checkExpr(n.If)
		tt := c.checkExpr(n.Then)
		et := c.checkExpr(n.Else)
		jt := join(tt, et)
		n.Then = c.coerce(n.Then, tt, jt)
		n.Else = c.coerce(n.Else, et, jt)
		n.SetTyped(jt)
	case *ast.Call:
		c.checkCall(n)
	case *ast.Convert:
		c.checkExpr(n.Arg)
	case *ast.Subscript:
		c.checkSubscript(n)
	case *ast.Subrange:
		c.checkSubrange(n)
	case *ast.Dot:
		c.checkExpr(n.Port)
		c.checkPortOp(n, n.Port, n.FieldDef, false)
		n.SetTyped(fieldType(n.FieldDef))
	case *ast.Query:
		// a query is a non-blocking peek at readiness, not the
		// field's value (spec glossary "query"); it always yields
		// bool.
		c.checkExpr(n.Port)
		c.checkPortOp(n, n.Port, n.FieldDef, false)
		n.SetTyped(ast.TBool)
	case *ast.IterOp:
		c.checkIterOp(n)
	}
	return typedType(e)
}

func (c *Checker) checkBinOp(n *ast.BinOp) {
	lt := c.checkExpr(n.Left)
	rt := c.checkExpr(n.Right)
	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		jt := join(lt, rt)
		n.Left = c.coerce(n.Left, lt, jt)
		n.Right = c.coerce(n.Right, rt, jt)
		n.SetTyped(ast.TBool)
	case "and", "or":
		n.Left = c.coerce(n.Left, lt, ast.TBool)
		n.Right = c.coerce(n.Right, rt, ast.TBool)
		n.SetTyped(ast.TBool)
	default:
		jt := join(lt, rt)
		n.Left = c.coerce(n.Left, lt, jt)
		n.Right = c.coerce(n.Right, rt, jt)
		n.SetTyped(jt)
	}
}

// checkCall resolves an overloaded builtin conversion function by
// minimal insertion cost, or coerces arguments against a resolved
// user-level target's parameter types (spec §4.3 "for overloaded
// user-level functions the checker picks the overload minimizing
// insertions, using MAX_CONV as unreachable").
func (c *Checker) checkCall(n *ast.Call) {
	argTypes := make([]*ast.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.checkExpr(a)
	}
	if target, ok := builtinConvNames[n.Name]; ok && len(n.Args) == 1 {
		from := argTypes[0].ResolvedKind()
		if from == target {
			n.SetTyped(ast.Scalar(target))
			return
		}
		backend, cost := bestConversion(from, target)
		if cost == Unreachable {
			c.bag.Errorf(n, "no conversion from %s to %s", argTypes[0], ast.Scalar(target))
			return
		}
		n.Args[0] = &ast.Convert{Backend: backend, Arg: n.Args[0]}
		n.SetTyped(ast.Scalar(target))
		return
	}
	switch target := n.Target.(type) {
	case *ast.Procedure:
		for i, p := range target.Params {
			if i < len(n.Args) && !p.IsPort {
				n.Args[i] = c.coerce(n.Args[i], argTypes[i], p.Type)
			}
		}
		n.SetTyped(target.Ret)
	case *ast.ExternalRoutine:
		for i, pt := range target.Params {
			if i < len(n.Args) {
				n.Args[i] = c.coerce(n.Args[i], argTypes[i], pt)
			}
		}
		n.SetTyped(target.Ret)
	default:
		c.bag.Errorf(n, "call to unresolved routine %q", n.Name)
	}
}

// checkSubscript implements spec §4.3's "Range/array/map rules":
// text subscript yields char, array subscript yields its range type,
// map subscript yields its range type with a domain-typed index.
func (c *Checker) checkSubscript(n *ast.Subscript) {
	bt := c.checkExpr(n.Base)
	it := c.checkExpr(n.Index)
	if bt == nil {
		return
	}
	switch bt.ResolvedKind() {
	case ast.KText:
		n.Index = c.coerce(n.Index, it, ast.TInt)
		n.SetTyped(ast.TChar)
	case ast.KArray:
		n.Index = c.coerce(n.Index, it, ast.TInt)
		n.SetTyped(bt.Elem)
	case ast.KMap:
		n.Index = c.coerce(n.Index, it, bt.Domain)
		n.SetTyped(bt.Range)
	default:
		c.bag.Errorf(n, "cannot subscript a value of type %s", bt)
	}
}

// checkSubrange enforces "Subrange [i..j] is allowed only on text in
// an r-value position" (spec §4.3).
func (c *Checker) checkSubrange(n *ast.Subrange) {
	bt := c.checkExpr(n.Base)
	lt := c.checkExpr(n.Lo)
	ht := c.checkExpr(n.Hi)
	if bt != nil && bt.ResolvedKind() != ast.KText {
		c.bag.Errorf(n, "subrange is only legal on a text value")
	}
	n.Lo = c.coerce(n.Lo, lt, ast.TInt)
	n.Hi = c.coerce(n.Hi, ht, ast.TInt)
	n.SetTyped(ast.TText)
}

func (c *Checker) checkIterOp(n *ast.IterOp) {
	t := c.checkExpr(n.Of)
	switch n.Kind {
	case ast.IterStart, ast.IterFinish, ast.IterStep:
		n.SetTyped(ast.TInt)
	case ast.IterKey:
		if t != nil && t.ResolvedKind() == ast.KMap {
			n.SetTyped(t.Domain)
		} else {
			n.SetTyped(ast.TInt)
		}
	case ast.IterValue:
		if t == nil {
			return
		}
		switch t.ResolvedKind() {
		case ast.KMap:
			n.SetTyped(t.Range)
		case ast.KArray:
			n.SetTyped(t.Elem)
		case ast.KText:
			n.SetTyped(ast.TChar)
		default:
			n.SetTyped(t)
		}
	}
}

// checkPortOp enforces spec §4.3's "Port and role checks": a client
// may send a query field and receive a reply field; a server may
// send a reply field and receive a query field.
func (c *Checker) checkPortOp(n ast.Node, portExpr ast.Node, field *ast.Field, isSend bool) {
	name, ok := portExpr.(*ast.Name)
	if !ok || field == nil {
		return
	}
	param, ok := name.Definition.(*ast.Param)
	if !ok || !param.IsPort {
		return
	}
	switch {
	case isSend && param.Role == ast.RoleClient && field.IsReply:
		c.bag.Errorf(n, "client port %q cannot send reply field %q", param.Name, field.Name)
	case isSend && param.Role == ast.RoleServer && !field.IsReply:
		c.bag.Errorf(n, "server port %q cannot send query field %q", param.Name, field.Name)
	case !isSend && param.Role == ast.RoleClient && !field.IsReply:
		c.bag.Errorf(n, "client port %q cannot receive query field %q", param.Name, field.Name)
	case !isSend && param.Role == ast.RoleServer && field.IsReply:
		c.bag.Errorf(n, "server port %q cannot receive reply field %q", param.Name, field.Name)
	}
}
