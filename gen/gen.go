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

// Package gen implements the code preparation pass (spec §4.5): field
// numbering (tie-ring resolution via ast.FieldSet) and closure-owner
// name qualification. Basic-block label numbering is assigned later,
// on the fly, by flow.Build, since this target textually emits
// closures as named structs rather than indexed records — see
// DESIGN.md's `gen` entry for why no separate block/variable-numbering
// pass is needed here.
package gen

import "github.com/loom-lang/loomc/ast"

// Pass numbers fields and qualifies closure ownership over one
// program. Grounded on original_source/src/gen.cpp's ProtocolNode::gen
// (field numbering) and DefNode::gen (owning-entity propagation via
// GenData.entity), adapted to Go's explicit-struct-field style instead
// of a context object threaded through virtual gen() calls.
type Pass struct {
	buildID string
}

// New returns a Pass carrying buildID, which BuildID reports; the
// pass itself writes the ID nowhere.
func New(buildID string) *Pass { return &Pass{buildID: buildID} }

// BuildID returns the identifier this pass was constructed with.
func (p *Pass) BuildID() string { return p.buildID }

// Run numbers every field in prog's program-wide FieldSet and sets
// the ClosureName of every top-level cell/process/procedure/thread,
// and of every definition nested in a cell body, to that definition's
// own name (see qualify). prog.Fields must already
// be fully populated (check.Checker.Check allocates every protocol
// field's slot before instance matching runs).
func (p *Pass) Run(prog *ast.Program) {
	p.numberFields(prog)
	for _, d := range prog.Defs {
		p.qualify(d)
	}
}

// numberFields assigns each field's FieldNum from its tie-class's
// position among ast.Program.Fields.Classes(): the class is the same
// union-find structure instance matching (spec §4.3) unions across
// matched ports, so every field tied to another keeps one shared
// number, and untied fields are numbered by the order their owning
// protocol was declared and its fields appear in document order
// (spec §4.5 "fields already tied ... keep the lowest number in the
// equivalence class").
func (p *Pass) numberFields(prog *ast.Program) {
	for k, class := range prog.Fields.Classes() {
		for _, slot := range class {
			prog.Fields.Representative(slot).FieldNum = k
		}
	}
}

// qualify sets the ClosureName of a Cell, Process, Procedure or
// Thread to its own Name. For a Cell it then visits the cell body's
// entries, skipping CellInst nodes; process, procedure and thread
// bodies are not visited.
func (p *Pass) qualify(d ast.Node) {
	switch n := d.(type) {
	case *ast.Cell:
		n.ClosureName = n.Name
		for _, sub := range n.Body {
			if inst, ok := sub.(*ast.CellInst); ok {
				_ = inst // instances reference their target by name; no qualification needed here
				continue
			}
			p.qualify(sub)
		}
	case *ast.Process:
		n.ClosureName = n.Name
	case *ast.Procedure:
		n.ClosureName = n.Name
	case *ast.Thread:
		n.ClosureName = n.Name
	}
}
