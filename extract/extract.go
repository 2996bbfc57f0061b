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

// Package extract implements communication extraction (spec §4.1):
// hoisting every dot/query subexpression that is not already the
// whole of some statement-level position into a fresh temp_k
// declaration inserted immediately before the statement that used
// it, so every later stage sees communications only as top-level
// statements with a well-defined basic-block position. Grounded on
// original_source/src/extract.cpp.
package extract

import (
	"fmt"

	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/diag"
)

// Extractor rewrites a Program's closure bodies in place. It runs
// before bind (spec §2's stage order), so it never touches scope or
// Name.Definition: the synthesized temp_k references are ordinary
// use-occurrence Names left for bind to resolve like any other.
type Extractor struct {
	bag     *diag.Bag
	counter int
}

func New(bag *diag.Bag) *Extractor { return &Extractor{bag: bag} }

// Run extracts communications from every process/procedure/thread
// body in prog.
func (e *Extractor) Run(prog *ast.Program) error {
	return e.bag.Run(func() {
		for _, d := range prog.Defs {
			switch n := d.(type) {
			case *ast.Process:
				n.Body = e.extractStmts(n.Body)
			case *ast.Procedure:
				n.Body = e.extractStmts(n.Body)
			case *ast.Thread:
				n.Body = e.extractStmts(n.Body)
			}
		}
	})
}

func (e *Extractor) extractStmts(stmts []ast.Node) []ast.Node {
	var out []ast.Node
	for _, s := range stmts {
		out = append(out, e.extractStmt(s)...)
	}
	return out
}

// extractBody rewrites a statement used in a single-statement body
// position (If.Then, Loop.Body, Option.Body, ...). Such positions
// are typed as a bare Node because the parser may hand back either
// a *ast.Seq or (synthetically, in tests) a single statement; both
// are normalized to a *ast.Seq so later stages have one shape to
// walk.
func (e *Extractor) extractBody(body ast.Node) ast.Node {
	if body == nil {
		return nil
	}
	if seq, ok := body.(*ast.Seq); ok {
		seq.Stmts = e.extractStmts(seq.Stmts)
		return seq
	}
	out := e.extractStmt(body)
	if len(out) == 1 {
		return out[0]
	}
	return &ast.Seq{Stmts: out}
}

func (e *Extractor) extractStmt(s ast.Node) []ast.Node {
	switch n := s.(type) {
	case nil:
		return nil
	case *ast.Skip, *ast.Exit, *ast.Remove:
		return []ast.Node{s}
	case *ast.Seq:
		n.Stmts = e.extractStmts(n.Stmts)
		return []ast.Node{n}
	case *ast.If:
		return e.extractIf(n)
	case *ast.Cases:
		return e.extractCases(n)
	case *ast.Loop:
		n.Body = e.extractBody(n.Body)
		return []ast.Node{n}
	case *ast.For:
		temps := e.extractComprehension(n.Head)
		n.Body = e.extractBody(n.Body)
		return append(temps, n)
	case *ast.Any:
		temps := e.extractComprehension(n.Head)
		n.Body = e.extractBody(n.Body)
		n.Else = e.extractBody(n.Else)
		return append(temps, n)
	case *ast.Select:
		// Guard must not communicate at all (enforced by check's
		// communicates scan) so it is left untouched here rather
		// than hoisted out from under that check. A select
		// option's Comm value is likewise left untouched: a
		// nested communication there would need to run only once
		// this option is chosen, and Option has no pre-Comm
		// statement list to hoist into — out of scope, see
		// DESIGN.md.
		for _, o := range n.Options {
			o.Body = e.extractBody(o.Body)
		}
		return []ast.Node{n}
	case *ast.DeclAssign:
		if n.Value == nil {
			return []ast.Node{n}
		}
		var temps []ast.Node
		n.Value, temps = e.extract(n.Value, true)
		return append(temps, n)
	case *ast.Send:
		var temps []ast.Node
		if n.Value != nil {
			// Not root: "lhs := rhs where both sides are dots is
			// split into two separate communications mediated by
			// one temporary" (spec §4.1) — a Send's own Value may
			// never itself directly be another communication.
			n.Value, temps = e.extract(n.Value, false)
		}
		return append(temps, n)
	case *ast.Receive:
		// Dest and Port are never extractable positions.
		return []ast.Node{n}
	case *ast.Start:
		var temps []ast.Node
		for _, c := range n.Calls {
			for i, a := range c.In {
				var t []ast.Node
				c.In[i], t = e.extract(a, false)
				temps = append(temps, t...)
			}
		}
		n.Body = e.extractBody(n.Body)
		return append(temps, n)
	case *ast.ExprStmt:
		n.X, _ = e.extract(n.X, true)
		return []ast.Node{n}
	default:
		return []ast.Node{s}
	}
}

// extractIf desugars ElseIfs into a right-nested Else-If chain so
// each later condition gets its own properly scoped statement
// position to hoist into — an ElseIf's condition runs only when
// every earlier one was false, so its hoisted temporary must live
// inside that nested Else, never at the outer If's level.
func (e *Extractor) extractIf(n *ast.If) []ast.Node {
	if len(n.ElseIfs) > 0 {
		head := n.ElseIfs[0]
		nested := &ast.If{Cond: head.Cond, Then: head.Body, ElseIfs: n.ElseIfs[1:], Else: n.Else}
		n.ElseIfs = nil
		n.Else = &ast.Seq{Stmts: []ast.Node{nested}}
	}
	var temps []ast.Node
	n.Cond, temps = e.extract(n.Cond, false)
	n.Then = e.extractBody(n.Then)
	if n.Else != nil {
		n.Else = e.extractBody(n.Else)
	}
	return append(temps, n)
}

func (e *Extractor) extractCases(n *ast.Cases) []ast.Node {
	var temps []ast.Node
	n.Subject, temps = e.extract(n.Subject, false)
	for i := range n.Arms {
		// Arm Values are left untouched: they are expected to be
		// constant-foldable (check's folding pass), and hoisting
		// one would be unsound anyway — a later arm's label must
		// not evaluate as a side effect of reaching this statement.
		n.Arms[i].Body = e.extractBody(n.Arms[i].Body)
	}
	if n.Default != nil {
		n.Default = e.extractBody(n.Default)
	}
	return append(temps, n)
}

func (e *Extractor) extractComprehension(h *ast.Comprehension) []ast.Node {
	var temps []ast.Node
	extract1 := func(field *ast.Node) {
		if *field == nil {
			return
		}
		var t []ast.Node
		*field, t = e.extract(*field, false)
		temps = append(temps, t...)
	}
	extract1(&h.Collection)
	extract1(&h.Start)
	extract1(&h.Finish)
	extract1(&h.Step)
	return temps
}

// extract rewrites expr bottom-up, hoisting any dot/query
// subexpression that is not in root position into a fresh temp_k
// declaration. root marks a position that is already a legal
// statement-level communication site (a DeclAssign's or ExprStmt's
// whole expression) — a bare dot/query found there is left alone
// rather than wrapped in a redundant temporary.
func (e *Extractor) extract(expr ast.Node, root bool) (ast.Node, []ast.Node) {
	switch n := expr.(type) {
	case nil:
		return nil, nil
	case *ast.Dot:
		n.Port, _ = e.extract(n.Port, true)
		if root {
			return n, nil
		}
		return e.hoist(n)
	case *ast.Query:
		n.Port, _ = e.extract(n.Port, true)
		if root {
			return n, nil
		}
		return e.hoist(n)
	case *ast.BinOp:
		var t1, t2 []ast.Node
		n.Left, t1 = e.extract(n.Left, false)
		n.Right, t2 = e.extract(n.Right, false)
		return n, append(t1, t2...)
	case *ast.UnOp:
		var t []ast.Node
		n.Operand, t = e.extract(n.Operand, false)
		return n, t
	case *ast.Cond:
		if communicates(n.Then) || communicates(n.Else) {
			e.bag.Errorf(n, "branches of a conditional expression must not contain communications")
		}
		var t1, t2, t3 []ast.Node
		n.Then, t1 = e.extract(n.Then, false)
		n.If, t2 = e.extract(n.If, false)
		n.Else, t3 = e.extract(n.Else, false)
		return n, append(append(t1, t2...), t3...)
	case *ast.Call:
		var all []ast.Node
		for i, a := range n.Args {
			var t []ast.Node
			n.Args[i], t = e.extract(a, false)
			all = append(all, t...)
		}
		return n, all
	case *ast.Convert:
		var t []ast.Node
		n.Arg, t = e.extract(n.Arg, false)
		return n, t
	case *ast.Subscript:
		// "Subscripts rewrite only the index (the base need not
		// be hoisted)" (spec §4.1).
		n.Base, _ = e.extract(n.Base, true)
		var t []ast.Node
		n.Index, t = e.extract(n.Index, false)
		return n, t
	case *ast.Subrange:
		n.Base, _ = e.extract(n.Base, true)
		var tl, th []ast.Node
		n.Lo, tl = e.extract(n.Lo, false)
		n.Hi, th = e.extract(n.Hi, false)
		return n, append(tl, th...)
	case *ast.IterOp:
		var t []ast.Node
		n.Of, t = e.extract(n.Of, false)
		return n, t
	default:
		return expr, nil
	}
}

func (e *Extractor) hoist(value ast.Node) (ast.Node, []ast.Node) {
	e.counter++
	name := fmt.Sprintf("temp_%d", e.counter)
	decl := &ast.DeclAssign{Name: name, IsDecl: true, Value: value}
	ref := &ast.Name{Text: name}
	return ref, []ast.Node{decl}
}

// communicates reports whether e contains a dot or query
// subexpression anywhere below it. Grounded on check/stmt.go's
// identically named helper (both exist independently: extract runs
// before check and must not import it).
func communicates(e ast.Node) bool {
	found := false
	ast.Walk(ast.VisitFunc(func(n ast.Node) bool {
		if found || n == nil {
			return false
		}
		switch n.(type) {
		case *ast.Dot, *ast.Query:
			found = true
			return false
		}
		return true
	}), e)
	return found
}
