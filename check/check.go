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

// Package check implements the semantic check stage (spec §4.3):
// duplicate-name checking left over from bind, type inference,
// coercion insertion, range/array/map rules, port and role rules,
// instance matching (with protocol field tying), and for/any form
// inference. The traversal style mirrors the teacher's checker/
// checkwalk pattern in expr/check.go: a small struct threading a
// handful of context flags, dispatching over a closed node set by
// type switch.
package check

import (
	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/diag"
	"github.com/loom-lang/loomc/lts"
)

// Checker holds the diagnostic sink and the program-wide field tie
// set (spec §9 Design Notes; ast.FieldSet).
type Checker struct {
	bag  *diag.Bag
	prog *ast.Program
}

func New(bag *diag.Bag) *Checker { return &Checker{bag: bag} }

// Check runs the full semantic check over prog, which must already
// be bound (bind.Bind). It is a Throw-capable stage like bind: an
// Emergency or Throwf unwinds immediately, while ordinary mistakes
// accumulate in the Bag.
func (c *Checker) Check(prog *ast.Program) error {
	c.prog = prog
	return c.bag.Run(func() {
		for _, d := range prog.Defs {
			if p, ok := d.(*ast.ProtocolDef); ok {
				c.checkProtocol(p)
			}
		}
		for _, d := range prog.Defs {
			if _, ok := d.(*ast.ProtocolDef); ok {
				continue
			}
			c.checkDef(d)
		}
		c.checkInst(prog.Start)
	})
}

func (c *Checker) checkDef(d ast.Node) {
	switch n := d.(type) {
	case *ast.Cell:
		c.checkCell(n)
	case *ast.Process:
		c.checkStmts(n.Body, &context{})
	case *ast.Procedure:
		c.checkStmts(n.Body, &context{})
	case *ast.Thread:
		c.checkStmts(n.Body, &context{})
	case *ast.Constant:
		c.checkConstant(n)
	case *ast.EnumDecl:
		// values are declared and deduplicated by bind.declareEnumValues.
	case *ast.ExternalRoutine:
		// no body to check.
	}
}

// checkProtocol allocates a FieldSet slot for every field the
// protocol declares and rejects a field name repeated within one
// protocol (spec §4.3 "Duplicate-name check ... protocol fields
// ... open fresh sets"). Slots must exist before any instance
// matching runs, which is why protocols are checked in a first pass
// (Check, above).
func (c *Checker) checkProtocol(p *ast.ProtocolDef) {
	seen := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		if seen[f.Name] {
			c.bag.Errorf(p, "field %q is declared twice in protocol %q", f.Name, p.Name)
			continue
		}
		seen[f.Name] = true
		c.prog.Fields.NewSlot(f)
	}
}

// checkCell enforces spec §4.3's cell port-count rule: "every
// non-parameter port must end with exactly one server and one
// client after counting uses".
func (c *Checker) checkCell(cell *ast.Cell) {
	isParam := make(map[string]bool, len(cell.Params))
	for _, p := range cell.Params {
		if p.IsPort {
			isParam[p.Name] = true
		}
	}
	type count struct{ server, client int }
	counts := make(map[string]*count)
	for _, sub := range cell.Body {
		inst, ok := sub.(*ast.CellInst)
		if !ok {
			continue
		}
		c.checkInst(inst)
		target := targetParams(inst.Def)
		for i, arg := range inst.Args {
			if i >= len(target) || !target[i].IsPort {
				continue
			}
			name, ok := arg.(*ast.Name)
			if !ok || isParam[name.Text] {
				continue
			}
			ct := counts[name.Text]
			if ct == nil {
				ct = &count{}
				counts[name.Text] = ct
			}
			switch target[i].Role {
			case ast.RoleServer:
				ct.server++
			case ast.RoleClient:
				ct.client++
			}
		}
	}
	for name, ct := range counts {
		if ct.server != 1 || ct.client != 1 {
			c.bag.Errorf(cell, "internal port %q must have exactly one server and one client use, found %d server(s) and %d client(s)", name, ct.server, ct.client)
		}
	}
}

func targetParams(def ast.Node) []*ast.Param {
	switch d := def.(type) {
	case *ast.Cell:
		return d.Params
	case *ast.Process:
		return d.Params
	}
	return nil
}

// checkInst implements instance matching (spec §4.3): positional
// argument/parameter matching, port-protocol conformance, field
// tying, and alias-parameter enforcement.
func (c *Checker) checkInst(inst *ast.CellInst) {
	if inst == nil {
		return
	}
	params := targetParams(inst.Def)
	for i, arg := range inst.Args {
		if i >= len(params) {
			continue
		}
		param := params[i]
		if param.IsPort {
			c.checkPortArg(inst, param, arg)
			continue
		}
		at := c.checkExpr(arg)
		inst.Args[i] = c.coerce(arg, at, param.Type)
		if param.Alias {
			if _, ok := inst.Args[i].(*ast.Name); !ok {
				c.bag.Errorf(inst, "argument for alias parameter %q must be a name", param.Name)
			}
		}
	}
}

// checkPortArg resolves the caller's port argument to its own
// protocol and checks conformance against the parameter's protocol
// under the rule appropriate to the parameter's role (spec §4.3: "at
// a server parameter the caller's argument must serve the
// parameter's protocol; at a client parameter the parameter must
// serve the argument"). Matched field names are tied into one
// equivalence class (spec §4.3, §9 Design Notes).
func (c *Checker) checkPortArg(inst *ast.CellInst, param *ast.Param, arg ast.Node) {
	name, ok := arg.(*ast.Name)
	if !ok {
		return
	}
	argParam, ok := name.Definition.(*ast.Param)
	if !ok || !argParam.IsPort || argParam.Type == nil || param.Type == nil {
		return
	}
	argProto, ok1 := argParam.Type.Def.(*ast.ProtocolDef)
	paramProto, ok2 := param.Type.Def.(*ast.ProtocolDef)
	if !ok1 || !ok2 {
		return
	}
	c.tieFields(argProto, paramProto)

	argLTS := lts.Build(argProto.Body)
	paramLTS := lts.Build(paramProto.Body)
	var server, protocol *lts.LTS
	if param.Role == ast.RoleServer {
		server, protocol = argLTS, paramLTS
	} else {
		server, protocol = paramLTS, argLTS
	}
	if !lts.Conforms(server, protocol) {
		c.bag.Warnf(inst, "argument protocol %q does not conform to parameter protocol %q on port %q (spec: refinement mismatches are warnings, not errors)", argProto.Name, paramProto.Name, param.Name)
	}
}

func (c *Checker) tieFields(a, b *ast.ProtocolDef) {
	byName := make(map[string]*ast.Field, len(b.Fields))
	for _, f := range b.Fields {
		byName[f.Name] = f
	}
	for _, f := range a.Fields {
		if other, ok := byName[f.Name]; ok {
			c.prog.Fields.Union(f.TieIndex(), other.TieIndex())
		}
	}
}

// checkConstant enforces the supplemented pervasive-constant rule
// (spec §7 Supplemented features, SPEC_FULL §7): the initializer
// must fold to a literal at check time.
func (c *Checker) checkConstant(n *ast.Constant) {
	t := c.checkExpr(n.Init)
	folded, ok := fold(n.Init)
	if !ok {
		c.bag.Errorf(n, "constant %q initializer must be a foldable literal expression", n.Name)
		return
	}
	n.Folded = folded
	if n.Type == nil {
		n.Type = t
	} else {
		n.Init = c.coerce(n.Init, t, n.Type)
	}
}

// fold evaluates a constant initializer at check time: a literal, or
// a reference to another already-folded pervasive constant (spec §7,
// original_source/src/check.cpp's treatment of const as compile-time
// substitution).
func fold(e ast.Node) (ast.Node, bool) {
	switch n := e.(type) {
	case *ast.BoolLit, *ast.CharLit, *ast.TextLit, *ast.NumberLit:
		return n, true
	case *ast.Name:
		if k, ok := n.Definition.(*ast.Constant); ok && k.Folded != nil {
			return k.Folded, true
		}
	}
	return nil, false
}

func defType(def ast.Node) *ast.Type {
	switch d := def.(type) {
	case *ast.Param:
		return d.Type
	case *ast.DeclAssign:
		return d.Type
	case *ast.Comprehension:
		return d.VarType
	case *ast.Constant:
		return d.Type
	case *ast.EnumValue:
		return &ast.Type{Kind: ast.KEnum, Enum: d.Owner}
	default:
		return nil
	}
}

func fieldType(f *ast.Field) *ast.Type {
	if f == nil || f.Type == nil {
		return ast.TVoid
	}
	return f.Type
}

func typedType(n ast.Node) *ast.Type {
	if n == nil {
		return nil
	}
	if tn, ok := n.(ast.TypedNode); ok {
		return tn.Typed()
	}
	return nil
}
