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

package emit

import (
	"fmt"
	"strings"

	"github.com/loom-lang/loomc/ast"
)

// Stmt renders one straight-line statement (everything a block can
// hold other than the control markers handled specially by Block:
// ast.BranchTest, ast.CompTest, ast.CompMatch). Grounded on
// original_source/src/basicblocks.cpp's operator<<, which likewise
// writes each statement with BaseNode::write before the block's
// transfer/unlock epilogue.
func Stmt(w *strings.Builder, n ast.Node, indent string) {
	w.WriteString(indent)
	switch s := n.(type) {
	case *ast.Send:
		Expr(w, s.Port)
		fmt.Fprintf(w, ".send(%q", s.FieldName)
		if s.Value != nil {
			w.WriteString(", ")
			Expr(w, s.Value)
		}
		w.WriteString(");\n")
	case *ast.Receive:
		if s.Dest != nil {
			Expr(w, s.Dest)
			w.WriteString(" = ")
		}
		Expr(w, s.Port)
		fmt.Fprintf(w, ".recv(%q);\n", s.FieldName)
	case *ast.DeclAssign:
		if s.IsDecl {
			w.WriteString("var ")
		}
		w.WriteString(s.Name)
		w.WriteString(" = ")
		Expr(w, s.Value)
		w.WriteString(";\n")
	case *ast.ExprStmt:
		Expr(w, s.X)
		w.WriteString(";\n")
	case *ast.Remove:
		w.WriteString("remove();\n")
	case *ast.ThreadStart:
		fmt.Fprintf(w, "threadStart(%q);\n", s.Owner.Target)
	case *ast.ThreadStop:
		fmt.Fprintf(w, "threadStop(%q);\n", s.Owner.Target)
	case *ast.CompInit:
		fmt.Fprintf(w, "var %s_iter = ", s.Head.Var)
		w.WriteString("iterStart(")
		Expr(w, s.Head.Collection)
		w.WriteString(");\n")
	case *ast.CompStep:
		fmt.Fprintf(w, "%s_iter.advance();\n", s.Head.Var)
	case *ast.Select:
		// The select node itself is a dispatch marker: the guard/
		// execute block pairs flow.Build opened after it carry the
		// actual option logic (DESIGN.md's documented simplification
		// over a true runtime option table).
		fmt.Fprintf(w, "// select #%d dispatched via the following guard blocks\n", s.SelectNum)
	default:
		fmt.Fprintf(w, "/* unhandled stmt %T */\n", n)
	}
}
