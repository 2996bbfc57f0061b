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

// Package emit renders a flattened basic-block program (flow.Block)
// as the target-language switch-on-program-counter body that a
// runtime.Writer interleaves into a runtime-support template (spec §4.6
// "Output", §6). Grounded on
// original_source/src/basicblocks.cpp's operator<<(ostream&, Block),
// which this package's Block renders as one "case N:" arm.
package emit

import (
	"fmt"
	"strings"

	"github.com/loom-lang/loomc/ast"
)

// Expr renders n as a target-language expression.
func Expr(w *strings.Builder, n ast.Node) {
	switch e := n.(type) {
	case nil:
		w.WriteString("/* nil */")
	case *ast.BoolLit:
		if e.Value {
			w.WriteString("true")
		} else {
			w.WriteString("false")
		}
	case *ast.CharLit:
		fmt.Fprintf(w, "%q", e.Value)
	case *ast.TextLit:
		fmt.Fprintf(w, "%q", e.Value)
	case *ast.NumberLit:
		w.WriteString(e.Text)
	case *ast.Name:
		w.WriteString(e.Text)
	case *ast.BinOp:
		w.WriteByte('(')
		Expr(w, e.Left)
		fmt.Fprintf(w, " %s ", binOpText(e.Op))
		Expr(w, e.Right)
		w.WriteByte(')')
	case *ast.UnOp:
		w.WriteString(unOpText(e.Op))
		Expr(w, e.Operand)
	case *ast.Cond:
		w.WriteByte('(')
		Expr(w, e.If)
		w.WriteString(" ? ")
		Expr(w, e.Then)
		w.WriteString(" : ")
		Expr(w, e.Else)
		w.WriteByte(')')
	case *ast.Call:
		w.WriteString(e.Name)
		w.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				w.WriteString(", ")
			}
			Expr(w, a)
		}
		w.WriteByte(')')
	case *ast.Convert:
		fmt.Fprintf(w, "%s(", e.Backend)
		Expr(w, e.Arg)
		w.WriteByte(')')
	case *ast.Subscript:
		Expr(w, e.Base)
		w.WriteByte('[')
		Expr(w, e.Index)
		w.WriteByte(']')
	case *ast.Subrange:
		Expr(w, e.Base)
		w.WriteString(".slice(")
		Expr(w, e.Lo)
		w.WriteString(", ")
		Expr(w, e.Hi)
		w.WriteByte(')')
	case *ast.Dot:
		Expr(w, e.Port)
		fmt.Fprintf(w, ".recv(%q)", e.FieldName)
	case *ast.Query:
		Expr(w, e.Port)
		fmt.Fprintf(w, ".ready(%q)", e.FieldName)
	case *ast.IterOp:
		w.WriteString(iterOpText(e.Kind))
		w.WriteByte('(')
		Expr(w, e.Of)
		w.WriteByte(')')
	case *ast.SendOption:
		fmt.Fprintf(w, "sendReady(%q)", commFieldName(e.Owner))
	case *ast.ReceiveOption:
		fmt.Fprintf(w, "recvReady(%q)", commFieldName(e.Owner))
	default:
		fmt.Fprintf(w, "/* unhandled expr %T */", n)
	}
}

func binOpText(op string) string {
	switch op {
	case "and":
		return "&&"
	case "or":
		return "||"
	default:
		return op
	}
}

func unOpText(op string) string {
	switch op {
	case "not":
		return "!"
	default:
		return op
	}
}

// commFieldName extracts the field name from a select option's
// communication (always a *ast.Send or *ast.Receive — check rejects
// any other Comm kind) for use in a queue-readiness test.
func commFieldName(o *ast.Option) string {
	switch c := o.Comm.(type) {
	case *ast.Send:
		return c.FieldName
	case *ast.Receive:
		return c.FieldName
	default:
		return ""
	}
}

func iterOpText(k ast.IterKind) string {
	switch k {
	case ast.IterStart:
		return "iterStart"
	case ast.IterFinish:
		return "iterFinish"
	case ast.IterKey:
		return "iterKey"
	case ast.IterValue:
		return "iterValue"
	case ast.IterStep:
		return "iterStep"
	default:
		return "iterOp"
	}
}
