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

package extract

import (
	"testing"

	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/diag"
)

func runOn(stmts []ast.Node) ([]ast.Node, *diag.Bag) {
	bag := diag.NewBag(false)
	e := New(bag)
	return e.extractStmts(stmts), bag
}

func TestExtractHoistsNestedDot(t *testing.T) {
	port := &ast.Name{Text: "a"}
	dot := &ast.Dot{Port: port, FieldName: "f"}
	bin := &ast.BinOp{Op: "+", Left: dot, Right: &ast.NumberLit{Text: "1"}}
	decl := &ast.DeclAssign{Name: "x", IsDecl: true, Value: bin}

	out, bag := runOn([]ast.Node{decl})
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.Errors())
	}
	if len(out) != 2 {
		t.Fatalf("expected a hoisted temp plus the original statement, got %d stmts", len(out))
	}
	temp, ok := out[0].(*ast.DeclAssign)
	if !ok || !temp.IsDecl || temp.Value != ast.Node(dot) {
		t.Fatalf("expected out[0] to be temp_1 := <the dot>, got %#v", out[0])
	}
	if bin.Left == ast.Node(dot) {
		t.Fatalf("BinOp.Left must be replaced by a reference to the temp, not the original dot")
	}
	ref, ok := bin.Left.(*ast.Name)
	if !ok || ref.Text != temp.Name {
		t.Fatalf("BinOp.Left must reference %q, got %#v", temp.Name, bin.Left)
	}
}

func TestExtractLeavesBareReceiveAsIs(t *testing.T) {
	dot := &ast.Dot{Port: &ast.Name{Text: "a"}, FieldName: "f"}
	decl := &ast.DeclAssign{Name: "x", IsDecl: true, Value: dot}

	out, bag := runOn([]ast.Node{decl})
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.Errors())
	}
	if len(out) != 1 {
		t.Fatalf("a bare receive-as-declaration must not be hoisted into a redundant temp, got %d stmts", len(out))
	}
	if out[0].(*ast.DeclAssign).Value != ast.Node(dot) {
		t.Fatalf("DeclAssign.Value must stay the original dot")
	}
}

func TestExtractSplitsSendOfAReceive(t *testing.T) {
	recvDot := &ast.Dot{Port: &ast.Name{Text: "b"}, FieldName: "in"}
	send := &ast.Send{Port: &ast.Name{Text: "a"}, FieldName: "out", Value: recvDot}

	out, bag := runOn([]ast.Node{send})
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.Errors())
	}
	if len(out) != 2 {
		t.Fatalf("a send-of-a-dot must split into a temp receive plus the send, got %d stmts", len(out))
	}
	temp, ok := out[0].(*ast.DeclAssign)
	if !ok || temp.Value != ast.Node(recvDot) {
		t.Fatalf("expected the hoisted temp to carry the original receive dot")
	}
	if send.Value == ast.Node(recvDot) {
		t.Fatalf("Send.Value must no longer directly be the dot")
	}
}

func TestExtractDesugarsElseIfsIntoNestedElse(t *testing.T) {
	ifStmt := &ast.If{
		Cond: &ast.Name{Text: "p1"},
		Then: &ast.Seq{},
		ElseIfs: []ast.ElseIf{
			{Cond: &ast.Name{Text: "p2"}, Body: &ast.Seq{}},
		},
		Else: &ast.Seq{},
	}

	out, bag := runOn([]ast.Node{ifStmt})
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.Errors())
	}
	if len(out) != 1 {
		t.Fatalf("expected the If statement unchanged in count, got %d", len(out))
	}
	top := out[0].(*ast.If)
	if len(top.ElseIfs) != 0 {
		t.Fatalf("ElseIfs must be desugared away, found %d remaining", len(top.ElseIfs))
	}
	elseSeq, ok := top.Else.(*ast.Seq)
	if !ok || len(elseSeq.Stmts) != 1 {
		t.Fatalf("expected Else to wrap exactly one nested If, got %#v", top.Else)
	}
	if _, ok := elseSeq.Stmts[0].(*ast.If); !ok {
		t.Fatalf("expected the nested statement to be an If, got %#v", elseSeq.Stmts[0])
	}
}

func TestExtractRejectsConditionalWithCommunicationOnBothArms(t *testing.T) {
	cond := &ast.Cond{
		Then: &ast.Dot{Port: &ast.Name{Text: "a"}, FieldName: "f"},
		If:   &ast.Name{Text: "p"},
		Else: &ast.Dot{Port: &ast.Name{Text: "b"}, FieldName: "g"},
	}
	decl := &ast.DeclAssign{Name: "x", IsDecl: true, Value: cond}

	_, bag := runOn([]ast.Node{decl})
	if !bag.Failed() {
		t.Fatalf("expected an error for a conditional with communications on both arms")
	}
}

func TestExtractRejectsConditionalWithOneCommunicatingArm(t *testing.T) {
	// Only one arm communicating is still rejected: hoisting would run
	// the receive unconditionally, ahead of the branch that decides
	// whether it should run at all.
	cond := &ast.Cond{
		Then: &ast.Dot{Port: &ast.Name{Text: "a"}, FieldName: "f"},
		If:   &ast.Name{Text: "p"},
		Else: &ast.NumberLit{Text: "0"},
	}
	decl := &ast.DeclAssign{Name: "x", IsDecl: true, Value: cond}

	_, bag := runOn([]ast.Node{decl})
	if !bag.Failed() {
		t.Fatalf("expected an error for a conditional with a communication on only one arm")
	}
}

func TestExtractLeavesSelectGuardUntouchedForCheckToReject(t *testing.T) {
	guardDot := &ast.Query{Port: &ast.Name{Text: "a"}, FieldName: "ready"}
	opt := &ast.Option{
		Guard: guardDot,
		Comm:  &ast.Send{Port: &ast.Name{Text: "a"}, FieldName: "ack"},
		Body:  &ast.Seq{},
	}
	sel := &ast.Select{Options: []*ast.Option{opt}}

	out, bag := runOn([]ast.Node{sel})
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.Errors())
	}
	if len(out) != 1 {
		t.Fatalf("expected the Select unchanged in count, got %d", len(out))
	}
	if opt.Guard != ast.Node(guardDot) {
		t.Fatalf("a select option's Guard must be left untouched so check can still reject it")
	}
}

func TestExtractSubscriptOnlyHoistsIndex(t *testing.T) {
	baseDot := &ast.Dot{Port: &ast.Name{Text: "a"}, FieldName: "arr"}
	idxDot := &ast.Dot{Port: &ast.Name{Text: "b"}, FieldName: "i"}
	sub := &ast.Subscript{Base: baseDot, Index: idxDot}
	decl := &ast.DeclAssign{Name: "x", IsDecl: true, Value: sub}

	out, bag := runOn([]ast.Node{decl})
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.Errors())
	}
	if len(out) != 2 {
		t.Fatalf("expected exactly one hoisted temp (for the index only), got %d stmts", len(out))
	}
	if sub.Base != ast.Node(baseDot) {
		t.Fatalf("Subscript.Base must not be hoisted")
	}
	if sub.Index == ast.Node(idxDot) {
		t.Fatalf("Subscript.Index must be hoisted")
	}
}
