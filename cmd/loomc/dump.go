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
	"fmt"
	"os"
	"strings"

	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/check"
	"github.com/loom-lang/loomc/flow"
	"github.com/loom-lang/loomc/internal/clog"
	"github.com/loom-lang/loomc/runtime"
)

// treeDump renders prog as an indented node listing: one line per
// node, its Go type name standing in for the original's per-node
// operator<< overloads (spec §9 Design Notes: the printed form exists
// for humans reading a "+A"/"+L*" dump, never reparsed), indented by
// nesting depth via ast.Walk.
func treeDump(prog *ast.Program) string {
	var sb strings.Builder
	depth := 0
	var visit ast.Visitor
	visit = ast.VisitFunc(func(n ast.Node) bool {
		if n == nil {
			return false
		}
		fmt.Fprintf(&sb, "%s%T @%s\n", strings.Repeat("  ", depth), n, n.Pos())
		depth++
		return true
	})
	// ast.Walk doesn't call back on exit, so wrap depth bookkeeping
	// in a Visitor that restores depth after each subtree instead.
	ast.Walk(depthTracker{inner: visit, depth: &depth}, prog)
	return sb.String()
}

// depthTracker restores depth to its pre-call value after each
// child's subtree finishes, since ast.Visitor has no "leaving a node"
// hook of its own.
type depthTracker struct {
	inner ast.Visitor
	depth *int
}

func (d depthTracker) Visit(n ast.Node) ast.Visitor {
	before := *d.depth
	w := d.inner.Visit(n)
	if w == nil {
		return nil
	}
	return subtreeVisitor{next: w, depth: d.depth, restore: before + 1}
}

type subtreeVisitor struct {
	next    ast.Visitor
	depth   *int
	restore int
}

func (s subtreeVisitor) Visit(n ast.Node) ast.Visitor {
	*s.depth = s.restore
	return depthTracker{inner: s.next, depth: s.depth}.Visit(n)
}

// dumpBytes writes data to path, zstd-compressing it first via
// runtime.CompressDump when it is large enough to be worth it
// (runtime.DumpSizeThreshold), appending ".zst" to the path in that
// case so a reader can tell without opening the file.
func dumpBytes(path string, data []byte) error {
	out, compressed := runtime.CompressDump(data)
	if compressed {
		path += ".zst"
	}
	return os.WriteFile(path, out, 0644)
}

// dumpFuncTables renders the curated conversion-function table "+F"
// asks for (spec §6 "+F|-F dump the built-in function/coercion
// tables"): check.ConvTable is the same table check.Checker.coerce
// consults, so this dump always matches what a later check run would
// actually accept.
func dumpFuncTables() string {
	var sb strings.Builder
	sb.WriteString("source\ttarget\tbackend\tcost\n")
	for _, row := range check.ConvTable {
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%d\n", row.Source, row.Target, row.Backend, row.Cost)
	}
	return sb.String()
}

// dumpBlockList renders one line per flow.Block, in the shape "+B"
// asks for: label, statement count, and its transfer/altTransfer labels.
func dumpBlockList(blocks []*flow.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		fmt.Fprintf(&sb, "block %d: %d stmt(s), transfer=%d altTransfer=%d\n",
			b.Start, len(b.Stmts), b.Transfer, b.AltTransfer)
	}
	return sb.String()
}

func traceStage(enabled bool, format string, args ...interface{}) {
	if enabled {
		clog.Trace(format, args...)
	}
}
