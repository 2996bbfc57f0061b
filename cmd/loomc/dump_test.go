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

package main

import (
	"strings"
	"testing"

	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/check"
	"github.com/loom-lang/loomc/diag"
	"github.com/loom-lang/loomc/parse"
)

func mustParseUnit(t *testing.T, src string) *ast.Program {
	t.Helper()
	bag := diag.NewBag(false)
	gen := &ast.IDGen{}
	prog, err := parse.Parse("test.loom", []byte(src), bag, gen)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if bag.Failed() {
		t.Fatalf("Parse recorded errors: %v", bag.Errors())
	}
	return prog
}

func TestTreeDumpIndentsNestedNodes(t *testing.T) {
	prog := mustParseUnit(t, `
process Worker() =
	a := 1;
end
start Worker();
`)
	out := treeDump(prog)
	if !strings.Contains(out, "*ast.Program") {
		t.Fatalf("expected the root Program node to appear, got:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected more than one dumped node, got:\n%s", out)
	}
	if strings.HasPrefix(lines[0], " ") {
		t.Fatalf("root line should not be indented: %q", lines[0])
	}
	indented := false
	for _, l := range lines[1:] {
		if strings.HasPrefix(l, "  ") {
			indented = true
			break
		}
	}
	if !indented {
		t.Fatalf("expected at least one child node indented deeper than the root, got:\n%s", out)
	}
}

func TestDumpFuncTablesListsEveryRow(t *testing.T) {
	out := dumpFuncTables()
	if !strings.HasPrefix(out, "source\ttarget\tbackend\tcost\n") {
		t.Fatalf("missing header line, got:\n%s", out)
	}
	lineCount := strings.Count(out, "\n")
	if lineCount != len(check.ConvTable)+1 {
		t.Fatalf("got %d lines, want header + one per ConvTable row", lineCount)
	}
}
