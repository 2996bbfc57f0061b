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
	"github.com/loom-lang/loomc/flow"
)

// Block renders one flow.Block as a "case N:" arm: its straight-line
// statements, then its epilogue (a two-way test, an unconditional
// "pc = Transfer", or "return"/"break" per Unlock), matching
// original_source/src/basicblocks.cpp's operator<<(ostream&, Block).
func Block(w *strings.Builder, b *flow.Block) {
	fmt.Fprintf(w, "case %d:\n{\n", b.Start)

	wroteTransfer := false
	for _, s := range b.Stmts {
		switch n := s.(type) {
		case *ast.BranchTest:
			writeBranch(w, n.Cond, b.Transfer, b.AltTransfer)
			wroteTransfer = true
		case *ast.CompTest, *ast.CompMatch:
			writeCompBranch(w, n, b.Transfer, b.AltTransfer)
			wroteTransfer = true
		default:
			Stmt(w, s, "    ")
		}
	}

	if !wroteTransfer {
		if b.WriteTransfer {
			fmt.Fprintf(w, "    pc = %d;\n", b.Transfer)
		}
		if b.Unlock {
			w.WriteString("    return;\n")
		} else {
			w.WriteString("    break;\n")
		}
	} else if b.Unlock {
		// A two-way test block never also unlocks (spec §4.6: unlock
		// is set by communication/termination blocks, which are
		// always one-way), but render defensively rather than drop
		// the return.
		w.WriteString("    return;\n")
	}
	w.WriteString("}\n")
}

func writeBranch(w *strings.Builder, cond ast.Node, trueLabel, falseLabel int) {
	w.WriteString("    if (")
	Expr(w, cond)
	fmt.Fprintf(w, ") { pc = %d; } else { pc = %d; }\n", trueLabel, falseLabel)
}

// writeCompBranch renders a for/any loop's termination test or match
// predicate. CompTest asks the iterator for another element; CompMatch
// has no separate filter expression in this AST (a plain for/any
// enumerates every element), so it renders as an unconditional match —
// documented in DESIGN.md as a deliberate scope limitation rather than
// a silently-wrong guess at filter syntax this grammar does not expose.
func writeCompBranch(w *strings.Builder, n ast.Node, trueLabel, falseLabel int) {
	switch c := n.(type) {
	case *ast.CompTest:
		fmt.Fprintf(w, "    if (%s_iter.hasNext()) { pc = %d; } else { pc = %d; }\n", c.Head.Var, trueLabel, falseLabel)
	case *ast.CompMatch:
		fmt.Fprintf(w, "    if (true) { pc = %d; } else { pc = %d; }\n", trueLabel, falseLabel)
	}
}
