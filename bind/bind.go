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

package bind

import (
	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/diag"
)

// Binder walks a Program and links every use-occurrence Name (and
// every Dot/Query field reference) to its one definition (spec
// §4.2, invariant 2).
type Binder struct {
	bag     *diag.Bag
	externs map[string]*ast.ExternalRoutine
}

func New(bag *diag.Bag) *Binder {
	return &Binder{bag: bag, externs: make(map[string]*ast.ExternalRoutine)}
}

// Bind performs name binding over prog in place and returns any
// accumulated error (spec §7: Bind is a Throw-capable stage since
// an unresolved use is fatal and must not corrupt downstream
// stages, per spec §4.2 "exhausting the chain without a hit is a
// fatal error unless the caller is a try-bind").
func (b *Binder) Bind(prog *ast.Program) error {
	return b.bag.Run(func() {
		b.declareTop(prog)
		for _, d := range prog.Defs {
			b.bindDef(d)
			if k, ok := d.(*ast.Constant); ok {
				b.bindExpr(k.Init, prog)
			}
		}
		b.bindInst(prog.Start, prog)
	})
}

func (b *Binder) declareTop(prog *ast.Program) {
	for _, d := range prog.Defs {
		name := topName(d)
		if name == "" {
			continue
		}
		if prior := declare(prog, name, d); prior != nil {
			b.bag.Errorf(d, "%q is already declared in this scope", name)
		}
		if er, ok := d.(*ast.ExternalRoutine); ok {
			b.externs[er.Name] = er
		}
		if ed, ok := d.(*ast.EnumDecl); ok {
			b.declareEnumValues(ed)
		}
	}
}

func (b *Binder) declareEnumValues(ed *ast.EnumDecl) {
	ed.ValueDef = make([]*ast.EnumValue, len(ed.Values))
	for i, name := range ed.Values {
		ev := &ast.EnumValue{Name: name, Index: i, Owner: ed}
		ed.ValueDef[i] = ev
		if prior := ed.Declare(name, ev); prior != nil {
			b.bag.Errorf(ed, "enum value %q is declared twice in %q", name, ed.Name)
		}
	}
}

func topName(d ast.Node) string {
	switch n := d.(type) {
	case *ast.Cell:
		return n.Name
	case *ast.Process:
		return n.Name
	case *ast.Procedure:
		return n.Name
	case *ast.Thread:
		return n.Name
	case *ast.ExternalRoutine:
		return n.Name
	case *ast.ProtocolDef:
		return n.Name
	case *ast.Constant:
		return n.Name
	case *ast.EnumDecl:
		return n.Name
	default:
		return ""
	}
}

func (b *Binder) bindDef(d ast.Node) {
	switch n := d.(type) {
	case *ast.Cell:
		b.declareParams(n, n.Params)
		for _, sub := range n.Body {
			if inst, ok := sub.(*ast.CellInst); ok {
				b.bindInst(inst, n)
			}
		}
	case *ast.Process:
		b.declareParams(n, n.Params)
		b.bindStmts(n.Body, n)
	case *ast.Procedure:
		b.declareParams(n, n.Params)
		b.bindStmts(n.Body, n)
	case *ast.Thread:
		params := append(append([]*ast.Param{}, n.In...), n.Out...)
		if n.Channel != nil {
			params = append(params, n.Channel)
		}
		b.declareParams(n, params)
		b.bindStmts(n.Body, n)
	case *ast.ProtocolDef:
		// field names are not declared in any scope: a field
		// name is reachable only through its protocol root
		// (spec invariant 4), and bindPortField finds it by
		// scanning ProtocolDef.Fields, never through the
		// lexical scope chain.
	case *ast.Constant:
		// Init is bound against program scope by Bind, so a
		// reference to another constant reaches check's fold.
	}
}

func (b *Binder) declareParams(owner ast.Scoped, params []*ast.Param) {
	st, ok := owner.(interface {
		Declare(string, ast.Node) ast.Node
	})
	if !ok {
		return
	}
	for _, p := range params {
		if prior := st.Declare(p.Name, p); prior != nil {
			b.bag.Errorf(p, "parameter %q is already declared", p.Name)
		}
		if p.IsPort {
			b.resolveNamedType(p.Type, owner)
		}
	}
}

// resolveNamedType links a *ast.Type{Kind: KNamed} to the
// top-level ProtocolDef/EnumDecl it names (spec §4.2: type names
// resolve through the same scope chain as value names; a protocol
// reference on a port parameter must land on a ProtocolDef before
// check's port/role rules can run).
func (b *Binder) resolveNamedType(t *ast.Type, owner ast.Scoped) {
	if t == nil || t.Kind != ast.KNamed || t.Def != nil {
		return
	}
	def, _ := lookUp(owner, t.Name)
	if def == nil {
		b.bag.Errorf(owner, "undefined protocol or type %q", t.Name)
		return
	}
	t.Def = def
}

func (b *Binder) bindInst(inst *ast.CellInst, owner ast.Scoped) {
	if inst == nil {
		return
	}
	def, _ := lookUp(owner, inst.Target)
	if def == nil {
		b.bag.Throwf(inst, "undefined cell or process %q", inst.Target)
	}
	inst.Def = def
	for _, a := range inst.Args {
		b.bindExpr(a, owner)
	}
}

func (b *Binder) bindStmts(stmts []ast.Node, owner ast.Scoped) {
	for _, s := range stmts {
		b.bindStmt(s, owner)
	}
}

func (b *Binder) bindStmt(s ast.Node, owner ast.Scoped) {
	switch n := s.(type) {
	case *ast.Seq:
		for _, st := range n.Stmts {
			b.bindStmt(st, n)
		}
	case *ast.Skip, *ast.Exit, *ast.Remove:
		// leaves
	case *ast.If:
		b.bindExpr(n.Cond, owner)
		b.bindStmt(n.Then, owner)
		for _, ei := range n.ElseIfs {
			b.bindExpr(ei.Cond, owner)
			b.bindStmt(ei.Body, owner)
		}
		if n.Else != nil {
			b.bindStmt(n.Else, owner)
		}
	case *ast.Cases:
		b.bindExpr(n.Subject, owner)
		for _, arm := range n.Arms {
			for _, v := range arm.Values {
				b.bindExpr(v, owner)
			}
			b.bindStmt(arm.Body, owner)
		}
		if n.Default != nil {
			b.bindStmt(n.Default, owner)
		}
	case *ast.Loop:
		b.bindStmt(n.Body, owner)
	case *ast.For:
		b.bindComprehension(n.Head, owner)
		b.bindStmt(n.Body, n.Head)
	case *ast.Any:
		b.bindComprehension(n.Head, owner)
		b.bindStmt(n.Body, n.Head)
		b.bindStmt(n.Else, owner)
	case *ast.Select:
		for _, opt := range n.Options {
			b.bindOption(opt, owner)
		}
	case *ast.DeclAssign:
		if n.IsDecl {
			if prior := declare(owner, n.Name, n); prior != nil {
				b.bag.Errorf(n, "%q is already declared in this scope", n.Name)
			}
		} else {
			def, _ := lookUp(owner, n.Name)
			if def == nil {
				b.bag.Throwf(n, "undefined name %q", n.Name)
			}
			n.Reference = def
		}
		if n.Value != nil {
			b.bindExpr(n.Value, owner)
		}
	case *ast.Send:
		b.bindExpr(n.Port, owner)
		if n.Value != nil {
			b.bindExpr(n.Value, owner)
		}
		b.bindPortField(n.Port, n.FieldName, func(f *ast.Field) { n.FieldDef = f })
	case *ast.Receive:
		b.bindExpr(n.Port, owner)
		if n.Dest != nil {
			b.bindExpr(n.Dest, owner)
		}
		b.bindPortField(n.Port, n.FieldName, func(f *ast.Field) { n.FieldDef = f })
	case *ast.Start:
		for _, c := range n.Calls {
			def, _ := lookUp(owner, c.Target)
			if def == nil {
				b.bag.Throwf(c, "undefined thread %q", c.Target)
			}
			c.Def = def
			for _, a := range c.In {
				b.bindExpr(a, owner)
			}
		}
		b.bindStmt(n.Body, owner)
	case *ast.ExprStmt:
		b.bindExpr(n.X, owner)
	}
}

func (b *Binder) bindOption(o *ast.Option, owner ast.Scoped) {
	if o.Guard != nil {
		b.bindExpr(o.Guard, owner)
	}
	if o.Comm != nil {
		b.bindStmt(o.Comm, owner)
	}
	b.bindStmt(o.Body, o)
}

func (b *Binder) bindComprehension(c *ast.Comprehension, owner ast.Scoped) {
	if c.Collection != nil {
		b.bindExpr(c.Collection, owner)
	}
	if c.Start != nil {
		b.bindExpr(c.Start, owner)
	}
	if c.Finish != nil {
		b.bindExpr(c.Finish, owner)
	}
	if c.Step != nil {
		b.bindExpr(c.Step, owner)
	}
	if prior := declare(c, c.Var, c); prior != nil {
		b.bag.Errorf(c, "%q is already declared in this scope", c.Var)
	}
}

// bindPortField resolves fieldName against the protocol bound to
// portExpr, not against the enclosing lexical scope (spec §4.2
// "Dot and query nodes bind specially").
func (b *Binder) bindPortField(portExpr ast.Node, fieldName string, set func(*ast.Field)) {
	name, ok := portExpr.(*ast.Name)
	if !ok {
		return
	}
	param, ok := name.Definition.(*ast.Param)
	if !ok || !param.IsPort || param.Type == nil || param.Type.Def == nil {
		return
	}
	proto, ok := param.Type.Def.(*ast.ProtocolDef)
	if !ok {
		return
	}
	for _, f := range proto.Fields {
		if f.Name == fieldName {
			set(f)
			return
		}
	}
	b.bag.Errorf(name, "protocol %q has no field %q", proto.Name, fieldName)
}

func (b *Binder) bindExpr(e ast.Node, owner ast.Scoped) {
	switch n := e.(type) {
	case nil:
		return
	case *ast.Name:
		if n.DefiningOccurrence {
			return
		}
		def, _ := lookUp(owner, n.Text)
		if def == nil {
			b.bag.Throwf(n, "undefined name %q", n.Text)
			return
		}
		n.Definition = def
	case *ast.BinOp:
		b.bindExpr(n.Left, owner)
		b.bindExpr(n.Right, owner)
	case *ast.UnOp:
		b.bindExpr(n.Operand, owner)
	case *ast.Cond:
		b.bindExpr(n.Then, owner)
		b.bindExpr(n.If, owner)
		b.bindExpr(n.Else, owner)
	case *ast.Call:
		def, _ := lookUp(owner, n.Name)
		if def == nil {
			// try-bind: an external routine may be supplied
			// later via +Cf; leave Target nil rather than
			// throwing (spec §4.2).
			if er, ok := b.externs[n.Name]; ok {
				def = er
			}
		}
		n.Target = def
		for _, a := range n.Args {
			b.bindExpr(a, owner)
		}
	case *ast.Convert:
		b.bindExpr(n.Arg, owner)
	case *ast.Subscript:
		b.bindExpr(n.Base, owner)
		b.bindExpr(n.Index, owner)
	case *ast.Subrange:
		b.bindExpr(n.Base, owner)
		b.bindExpr(n.Lo, owner)
		b.bindExpr(n.Hi, owner)
	case *ast.Dot:
		b.bindExpr(n.Port, owner)
		b.bindPortField(n.Port, n.FieldName, func(f *ast.Field) { n.FieldDef = f })
	case *ast.Query:
		b.bindExpr(n.Port, owner)
		b.bindPortField(n.Port, n.FieldName, func(f *ast.Field) { n.FieldDef = f })
	case *ast.IterOp:
		b.bindExpr(n.Of, owner)
	case *ast.BoolLit, *ast.CharLit, *ast.TextLit, *ast.NumberLit:
		// leaves
	}
}
