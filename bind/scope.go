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

// Package bind implements name binding (spec §4.2): each use of a
// name is linked to its one definition by walking the scope chain
// (ast.Scoped.Outer) outward from the current scope, mirroring the
// teacher's Trace.resolve/Trace.scope map in plan/pir/scope.go,
// generalized from "a path resolves against a Trace" to "a name
// resolves against a chain of ast.Scoped nodes".
package bind

import (
	"github.com/loom-lang/loomc/ast"
)

// lookUp walks s and its outer chain looking for name, returning
// the definition and the Scoped node that owns it, or (nil, nil)
// if the chain is exhausted (spec §4.2 "Each node type defines
// lookUp(name) that returns either a definition in this scope or
// none").
func lookUp(s ast.Scoped, name string) (ast.Node, ast.Scoped) {
	for cur := s; cur != nil; cur = cur.Outer() {
		if st, ok := cur.(interface{ LookUp(string) ast.Node }); ok {
			if def := st.LookUp(name); def != nil {
				return def, cur
			}
		}
	}
	return nil, nil
}

// declare records name -> def directly in s, returning the prior
// definition (non-nil) if name was already declared in s (spec
// §4.3 "Duplicate-name check").
func declare(s ast.Scoped, name string, def ast.Node) ast.Node {
	if st, ok := s.(interface {
		Declare(string, ast.Node) ast.Node
	}); ok {
		return st.Declare(name, def)
	}
	return nil
}
