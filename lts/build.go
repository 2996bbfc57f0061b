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

package lts

import "github.com/loom-lang/loomc/ast"

// Build constructs the LTS for a protocol operator tree, per the
// recursive rules of spec §4.4, then eliminates epsilon edges via
// Collapse. body is rooted at *ast.Field or one of the Proto* nodes.
func Build(body ast.Node) *LTS {
	l := newLTS()
	s, f := buildProto(l, body)
	l.Start, l.Finish = s, f
	return Collapse(l)
}

func buildProto(l *LTS, n ast.Node) (State, State) {
	switch t := n.(type) {
	case nil:
		s := l.newState()
		return s, s
	case *ast.Field:
		s, f := l.newState(), l.newState()
		if t.Name == "?" {
			// a field literally named "?" denotes the wildcard
			// "any other message" branch (spec §4.4 Conformance:
			// "The wildcard label ... introduced by the `?`
			// operator"), distinct from the postfix ProtoOpt
			// operator below which is pure epsilon optionality.
			l.addEdge(s, Label{Wildcard: true}, f)
			return s, f
		}
		l.addEdge(s, Label{Field: t}, f)
		return s, f
	case *ast.ProtoSeq:
		if len(t.Elems) == 0 {
			s := l.newState()
			return s, s
		}
		start, prevFinish := buildProto(l, t.Elems[0])
		for _, e := range t.Elems[1:] {
			s, f := buildProto(l, e)
			l.addEps(prevFinish, s)
			prevFinish = f
		}
		return start, prevFinish
	case *ast.ProtoAlt:
		start, finish := l.newState(), l.newState()
		for _, b := range t.Branches {
			s, f := buildProto(l, b)
			l.addEps(start, s)
			l.addEps(f, finish)
		}
		return start, finish
	case *ast.ProtoOpt:
		// p? : p alongside a direct epsilon start->finish (spec §4.4).
		s, f := buildProto(l, t.Elem)
		l.addEps(s, f)
		return s, f
	case *ast.ProtoStar:
		// p*: one copy plus an epsilon back-edge finish->start,
		// wrapped so the whole thing may also be skipped.
		s, f := buildProto(l, t.Elem)
		l.addEps(f, s)
		start, finish := l.newState(), l.newState()
		l.addEps(start, s)
		l.addEps(f, finish)
		l.addEps(start, finish)
		return start, finish
	case *ast.ProtoPlus:
		// p+: two copies in sequence with the second having a
		// back-edge (spec §4.4), i.e. p ; p*.
		s1, f1 := buildProto(l, t.Elem)
		s2, f2 := buildProto(l, t.Elem)
		l.addEps(f1, s2)
		l.addEps(f2, s2)
		return s1, f2
	default:
		s := l.newState()
		return s, s
	}
}

// loopCtx tracks the enclosing loop's end state so Exit statements
// can be compiled to a jump there (spec §4.4 "Exit transitions from
// within a loop jump to the loop-end state").
type loopCtx struct {
	end    State
	active bool
}

// BuildProcessBody constructs the LTS observed on port from a
// process/procedure/thread body (spec §4.4 "Process body -> LTS"):
// transitions are generated only for dot/query operations on port;
// operations on other ports, and every other statement kind, collapse
// to epsilon.
func BuildProcessBody(body []ast.Node, port *ast.Param) *LTS {
	l := newLTS()
	start := l.newState()
	finish := buildStmts(l, body, port, start, loopCtx{})
	l.Start, l.Finish = start, finish
	return Collapse(l)
}

// buildStmts threads a single "current state" through a statement
// list, returning the state reached after the last statement.
func buildStmts(l *LTS, stmts []ast.Node, port *ast.Param, cur State, lc loopCtx) State {
	for _, s := range stmts {
		cur = buildStmt(l, s, port, cur, lc)
	}
	return cur
}

func buildStmt(l *LTS, s ast.Node, port *ast.Param, cur State, lc loopCtx) State {
	switch n := s.(type) {
	case nil, *ast.Skip, *ast.Remove:
		return cur
	case *ast.Exit:
		if lc.active {
			l.addEps(cur, lc.end)
		}
		return cur
	case *ast.Seq:
		return buildStmts(l, n.Stmts, port, cur, lc)
	case *ast.If:
		finish := l.newState()
		thenEnd := buildStmt(l, n.Then, port, cur, lc)
		l.addEps(thenEnd, finish)
		for _, ei := range n.ElseIfs {
			end := buildStmt(l, ei.Body, port, cur, lc)
			l.addEps(end, finish)
		}
		if n.Else != nil {
			end := buildStmt(l, n.Else, port, cur, lc)
			l.addEps(end, finish)
		} else {
			l.addEps(cur, finish)
		}
		return finish
	case *ast.Cases:
		finish := l.newState()
		for _, arm := range n.Arms {
			end := buildStmt(l, arm.Body, port, cur, lc)
			l.addEps(end, finish)
		}
		if n.Default != nil {
			end := buildStmt(l, n.Default, port, cur, lc)
			l.addEps(end, finish)
		} else {
			l.addEps(cur, finish)
		}
		return finish
	case *ast.Loop:
		start := l.newState()
		end := l.newState()
		l.addEps(cur, start)
		bodyEnd := buildStmt(l, n.Body, port, start, loopCtx{end: end, active: true})
		l.addEps(bodyEnd, start)
		return end
	case *ast.For:
		start := l.newState()
		end := l.newState()
		l.addEps(cur, start)
		bodyEnd := buildStmt(l, n.Body, port, start, loopCtx{end: end, active: true})
		l.addEps(bodyEnd, start)
		l.addEps(start, end)
		return end
	case *ast.Any:
		start := l.newState()
		end := l.newState()
		l.addEps(cur, start)
		bodyEnd := buildStmt(l, n.Body, port, start, loopCtx{end: end, active: true})
		l.addEps(bodyEnd, end)
		elseEnd := buildStmt(l, n.Else, port, start, lc)
		l.addEps(elseEnd, end)
		return end
	case *ast.Select:
		finish := l.newState()
		for _, o := range n.Options {
			optStart := cur
			if o.Comm != nil {
				optStart = buildStmt(l, o.Comm, port, cur, lc)
			}
			end := buildStmt(l, o.Body, port, optStart, lc)
			l.addEps(end, finish)
		}
		return finish
	case *ast.Send:
		return buildComm(l, n.Port, n.FieldDef, port, cur)
	case *ast.Receive:
		return buildComm(l, n.Port, n.FieldDef, port, cur)
	case *ast.Start:
		return buildStmt(l, n.Body, port, cur, lc)
	default:
		return cur
	}
}

func buildComm(l *LTS, portExpr ast.Node, field *ast.Field, watched *ast.Param, cur State) State {
	name, ok := portExpr.(*ast.Name)
	if !ok {
		return cur
	}
	p, ok := name.Definition.(*ast.Param)
	if !ok || p != watched {
		// a communication on any other port is invisible to this
		// port's LTS (spec §4.4 "operations on other ports become
		// epsilon-transitions that collapse away").
		return cur
	}
	next := l.newState()
	l.addEdge(cur, Label{Field: field}, next)
	return next
}
