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

package flow

import (
	"testing"

	"github.com/loom-lang/loomc/ast"
)

func findBlock(blocks []*Block, start int) *Block {
	for _, b := range blocks {
		if b.Start == start {
			return b
		}
	}
	return nil
}

func TestBuildSendsGetOwnBlocks(t *testing.T) {
	send := &ast.Send{FieldName: "ping"}
	proc := &ast.Process{Name: "P", Body: []ast.Node{send, send}}
	prog := &ast.Program{Defs: []ast.Node{proc}}

	blocks := Build(prog)

	var foundSend int
	for _, b := range blocks {
		for _, s := range b.Stmts {
			if s == ast.Node(send) {
				foundSend++
				if !b.Unlock {
					t.Fatalf("block holding a Send must set Unlock")
				}
			}
		}
	}
	if foundSend == 0 {
		t.Fatalf("expected at least one block to carry the Send statement")
	}
}

func TestBuildClosureEntryIsTagged(t *testing.T) {
	proc := &ast.Process{Name: "Worker"}
	prog := &ast.Program{Defs: []ast.Node{proc}}

	blocks := Build(prog)
	if len(blocks) == 0 {
		t.Fatalf("expected at least one block")
	}
	if blocks[0].Closure != ast.Node(proc) {
		t.Fatalf("expected entry block's Closure to be the Process, got %v", blocks[0].Closure)
	}
	if blocks[0].Unlock != true || blocks[0].WriteTransfer != false {
		t.Fatalf("an empty body's single block must be the closure's terminal block (Unlock, no transfer)")
	}
}

func TestBuildExitDropsTrailingDeadCode(t *testing.T) {
	trailing := &ast.Send{FieldName: "unreachable"}
	loop := &ast.Loop{
		Body: &ast.Seq{Stmts: []ast.Node{&ast.Exit{}, trailing}},
	}
	proc := &ast.Process{Name: "P", Body: []ast.Node{loop}}
	prog := &ast.Program{Defs: []ast.Node{proc}}

	blocks := Build(prog)
	for _, b := range blocks {
		for _, s := range b.Stmts {
			if s == ast.Node(trailing) {
				t.Fatalf("statement following Exit must be eliminated as dead code")
			}
		}
	}
	for _, b := range blocks {
		if b.Start < 0 {
			t.Fatalf("Optimize must drop every negative-start block, found %d", b.Start)
		}
	}
}

func TestBuildIfConverges(t *testing.T) {
	thenSend := &ast.Send{FieldName: "yes"}
	elseSend := &ast.Send{FieldName: "no"}
	after := &ast.Send{FieldName: "after"}
	ifStmt := &ast.If{
		Cond: &ast.Name{Text: "cond"},
		Then: &ast.Seq{Stmts: []ast.Node{thenSend}},
		Else: &ast.Seq{Stmts: []ast.Node{elseSend}},
	}
	proc := &ast.Process{Name: "P", Body: []ast.Node{ifStmt, after}}
	prog := &ast.Program{Defs: []ast.Node{proc}}

	blocks := Build(prog)

	var testBlk *Block
	for _, b := range blocks {
		for _, s := range b.Stmts {
			if _, ok := s.(*ast.BranchTest); ok {
				testBlk = b
			}
		}
	}
	if testBlk == nil {
		t.Fatalf("expected a BranchTest marker block for the If")
	}
	if testBlk.Transfer == 0 || testBlk.AltTransfer == 0 {
		t.Fatalf("a two-way test block must set both Transfer and AltTransfer")
	}
	if testBlk.WriteTransfer {
		t.Fatalf("a two-way test block must not WriteTransfer")
	}

	thenBlk := findBlock(blocks, testBlk.Transfer)
	elseBlk := findBlock(blocks, testBlk.AltTransfer)
	if thenBlk == nil || elseBlk == nil {
		t.Fatalf("then/else blocks must survive optimization")
	}
	if thenBlk.Transfer != elseBlk.Transfer {
		t.Fatalf("then and else branches must converge on the same end block, got %d and %d",
			thenBlk.Transfer, elseBlk.Transfer)
	}
}

func TestOptimizeMergesEmptyFallthrough(t *testing.T) {
	a := &Block{Start: 1, Stmts: []ast.Node{&ast.Skip{}}, Transfer: 2, WriteTransfer: true, Closure: &ast.Process{Name: "P"}}
	b := &Block{Start: 2, Transfer: 3, WriteTransfer: true} // empty, pure fallthrough
	c := &Block{Start: 3, Stmts: []ast.Node{&ast.Remove{}}, Unlock: true}

	out := Optimize([]*Block{a, b, c})

	if findBlock(out, 2) != nil {
		t.Fatalf("empty fallthrough block must be merged away")
	}
	head := findBlock(out, 1)
	if head == nil {
		t.Fatalf("block 1 must survive")
	}
	if head.Transfer != 3 {
		t.Fatalf("block 1's transfer must be retargeted past the merged block, got %d", head.Transfer)
	}
}

func TestOptimizeDropsUnreferencedBlock(t *testing.T) {
	entry := &Block{Start: 1, Stmts: []ast.Node{&ast.Remove{}}, Closure: &ast.Process{Name: "P"}}
	orphan := &Block{Start: 2, Stmts: []ast.Node{&ast.Send{FieldName: "never"}}}

	out := Optimize([]*Block{entry, orphan})

	if findBlock(out, 2) != nil {
		t.Fatalf("an unreferenced, non-closure-entry block must be dropped")
	}
	if findBlock(out, 1) == nil {
		t.Fatalf("the closure entry block must always survive")
	}
}

func TestBuildSelectAssignsSelectNum(t *testing.T) {
	opt := &ast.Option{Comm: &ast.Send{FieldName: "ack"}, Body: &ast.Seq{}}
	sel := &ast.Select{Options: []*ast.Option{opt}}
	proc := &ast.Process{Name: "P", Body: []ast.Node{sel}}
	prog := &ast.Program{Defs: []ast.Node{proc}}

	Build(prog)

	if sel.SelectNum != 1 {
		t.Fatalf("expected the first select in a closure to be numbered 1, got %d", sel.SelectNum)
	}
}
