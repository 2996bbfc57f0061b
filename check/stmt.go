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

func (c *Checker) checkStmts(stmts []ast.Node, ctx *context) {
	for _, s := range stmts {
		c.checkStmt(s, ctx)
	}
}

func (c *Checker) checkStmt(s ast.Node, ctx *context) {
	switch n := s.(type) {
	case nil, *ast.Skip, *ast.Remove:
	case *ast.Seq:
		c.checkStmts(n.Stmts, ctx)
	case *ast.Exit:
		if !ctx.loop {
			c.bag.Errorf(n, "exit used outside a loop")
		}
	case *ast.If:
		c.checkExpr(n.Cond)
		c.checkStmt(n.Then, ctx)
		for i := range n.ElseIfs {
			c.checkExpr(n.ElseIfs[i].Cond)
			c.checkStmt(n.ElseIfs[i].Body, ctx)
		}
		if n.Else != nil {
			c.checkStmt(n.Else, ctx)
		}
	case *ast.Cases:
		c.checkExpr(n.Subject)
		for _, arm := range n.Arms {
			for _, v := range arm.Values {
				c.checkExpr(v)
			}
			c.checkStmt(arm.Body, ctx)
		}
		if n.Default != nil {
			c.checkStmt(n.Default, ctx)
		}
	case *ast.Loop:
		c.checkStmt(n.Body, &context{loop: true})
	case *ast.For:
		c.checkComprehension(n.Head)
		c.checkStmt(n.Body, &context{loop: true})
	case *ast.Any:
		c.checkComprehension(n.Head)
		c.checkStmt(n.Body, &context{loop: true})
		if n.Else != nil {
			c.checkStmt(n.Else, ctx)
		}
	case *ast.Select:
		for _, o := range n.Options {
			c.checkOption(o, ctx)
		}
	case *ast.DeclAssign:
		c.checkDeclAssign(n)
	case *ast.Send:
		c.checkSend(n)
	case *ast.Receive:
		c.checkReceive(n)
	case *ast.Start:
		c.checkStart(n)
		c.checkStmt(n.Body, ctx)
	case *ast.ExprStmt:
		c.checkExpr(n.X)
	}
}

func (c *Checker) checkDeclAssign(n *ast.DeclAssign) {
	var vt *ast.Type
	if n.Value != nil {
		vt = c.checkExpr(n.Value)
	}
	if n.IsDecl {
		if n.Type == nil {
			n.Type = vt
		} else if n.Value != nil {
			n.Value = c.coerce(n.Value, vt, n.Type)
		}
		n.SetTyped(n.Type)
		return
	}
	target := defType(n.Reference)
	if n.Value != nil {
		n.Value = c.coerce(n.Value, vt, target)
	}
	n.SetTyped(target)
}

func (c *Checker) checkSend(n *ast.Send) {
	c.checkExpr(n.Port)
	c.checkPortOp(n, n.Port, n.FieldDef, true)
	if call, ok := n.Value.(*ast.Call); ok && call.Name == "file_read" {
		c.bag.Errorf(n, "cannot send the result of file_read directly; assign to a variable first")
	}
	if n.Value != nil {
		vt := c.checkExpr(n.Value)
		n.Value = c.coerce(n.Value, vt, fieldType(n.FieldDef))
	}
}

func (c *Checker) checkReceive(n *ast.Receive) {
	c.checkExpr(n.Port)
	c.checkPortOp(n, n.Port, n.FieldDef, false)
	if n.Dest != nil {
		c.checkExpr(n.Dest)
	}
}

func (c *Checker) checkStart(n *ast.Start) {
	for _, call := range n.Calls {
		th, _ := call.Def.(*ast.Thread)
		for i, a := range call.In {
			at := c.checkExpr(a)
			if th != nil && i < len(th.In) {
				call.In[i] = c.coerce(a, at, th.In[i].Type)
			}
		}
	}
}

// checkOption enforces "A guard in a select option must not
// communicate" (spec §4.3).
func (c *Checker) checkOption(o *ast.Option, ctx *context) {
	if o.Guard != nil {
		if communicates(o.Guard) {
			c.bag.Errorf(o, "a select option's guard must not communicate")
		}
		c.checkExpr(o.Guard)
	}
	if o.Comm != nil {
		c.checkStmt(o.Comm, ctx)
	}
	c.checkStmt(o.Body, ctx)
}

// communicates reports whether e contains a dot or query
// subexpression anywhere below it.
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

// checkComprehension types the for/any loop variable, inferring it
// from the collection's domain/range type when not declared
// explicitly, defaulting to integer for anonymous ranges (spec §4.3
// "For/any").
func (c *Checker) checkComprehension(cc *ast.Comprehension) {
	if cc.Collection != nil {
		c.checkExpr(cc.Collection)
	}
	for _, e := range []ast.Node{cc.Start, cc.Finish, cc.Step} {
		if e != nil {
			c.checkExpr(e)
		}
	}
	if cc.VarType != nil {
		return
	}
	ct := typedType(cc.Collection)
	switch cc.Form {
	case ast.FormMapDomain:
		if ct != nil {
			cc.VarType = ct.Domain
		}
	case ast.FormMapRange:
		if ct != nil {
			cc.VarType = ct.Range
		}
	case ast.FormArrayDomain, ast.FormTextDomain:
		cc.VarType = ast.TInt
	case ast.FormArrayRange:
		if ct != nil {
			cc.VarType = ct.Elem
		}
	case ast.FormTextRange:
		cc.VarType = ast.TChar
	case ast.FormEnum:
		cc.VarType = ct
	default: // FormRange
		cc.VarType = ast.TInt
	}
}
