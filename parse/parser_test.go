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

package parse

import (
	"testing"

	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/diag"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	bag := diag.NewBag(false)
	gen := &ast.IDGen{}
	prog, err := Parse("test.loom", []byte(src), bag, gen)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if bag.Failed() {
		t.Fatalf("Parse recorded errors: %v", bag.Errors())
	}
	return prog
}

func TestTokenizeIdentifiersAndKeywords(t *testing.T) {
	toks, err := tokenize("t", []byte("cell Foo ( x : channel P ) = end"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []struct {
		kind Kind
		text string
	}{
		{Keyword, "cell"}, {Ident, "Foo"}, {Punct, "("}, {Ident, "x"},
		{Punct, ":"}, {Keyword, "channel"}, {Ident, "P"}, {Punct, ")"},
		{Punct, "="}, {Keyword, "end"}, {EOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Fatalf("token %d: got {%v %q}, want {%v %q}", i, toks[i].Kind, toks[i].Text, w.kind, w.text)
		}
	}
}

func TestTokenizeOperatorsPreferLongestMatch(t *testing.T) {
	toks, err := tokenize("t", []byte(":= == != <= >= -> .."))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{":=", "==", "!=", "<=", ">=", "->", ".."}
	for i, w := range want {
		if toks[i].Text != w {
			t.Fatalf("token %d: got %q, want %q", i, toks[i].Text, w)
		}
	}
}

func TestTokenizeSkipsCommentsAndDecodesEscapes(t *testing.T) {
	toks, err := tokenize("t", []byte("# a comment\n\"a\\nb\" 'x'"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[0].Kind != TextLit || toks[0].Text != "a\nb" {
		t.Fatalf("got %+v, want decoded text literal", toks[0])
	}
	if toks[1].Kind != CharLit || toks[1].Text != "x" {
		t.Fatalf("got %+v, want char literal", toks[1])
	}
}

func TestParseProtocolDef(t *testing.T) {
	prog := mustParse(t, `
protocol P = a : Int ; ^b : Int end
start Main();
`)
	if len(prog.Defs) != 1 {
		t.Fatalf("got %d defs, want 1", len(prog.Defs))
	}
	pd, ok := prog.Defs[0].(*ast.ProtocolDef)
	if !ok {
		t.Fatalf("got %T, want *ast.ProtocolDef", prog.Defs[0])
	}
	if len(pd.Fields) != 2 || pd.Fields[0].Name != "a" || !pd.Fields[1].IsReply {
		t.Fatalf("unexpected fields: %+v", pd.Fields)
	}
	seq, ok := pd.Body.(*ast.ProtoSeq)
	if !ok || len(seq.Elems) != 2 {
		t.Fatalf("got %#v, want a two-element ProtoSeq", pd.Body)
	}
}

func TestParseProtocolOperatorPrecedence(t *testing.T) {
	// '*' binds tighter than ';' which binds tighter than '|':
	// a* ; b | c  ==  (a* ; b) | c
	prog := mustParse(t, `
protocol P = a * ; b | c end
start Main();
`)
	pd := prog.Defs[0].(*ast.ProtocolDef)
	alt, ok := pd.Body.(*ast.ProtoAlt)
	if !ok || len(alt.Branches) != 2 {
		t.Fatalf("got %#v, want a two-branch ProtoAlt", pd.Body)
	}
	seq, ok := alt.Branches[0].(*ast.ProtoSeq)
	if !ok || len(seq.Elems) != 2 {
		t.Fatalf("got %#v, want a two-element ProtoSeq in the first branch", alt.Branches[0])
	}
	if _, ok := seq.Elems[0].(*ast.ProtoStar); !ok {
		t.Fatalf("got %#v, want a* to parse as ProtoStar", seq.Elems[0])
	}
}

func TestParseProcessSendAndReceive(t *testing.T) {
	prog := mustParse(t, `
protocol P = a : Int ; ^b : Int end
process Worker(p : server P) =
	x := p.a?;
	p.b!x;
end
start Main();
`)
	pr := prog.Defs[1].(*ast.Process)
	if len(pr.Body) != 2 {
		t.Fatalf("got %d stmts, want 2", len(pr.Body))
	}
	recv, ok := pr.Body[0].(*ast.Receive)
	if !ok || recv.FieldName != "a" {
		t.Fatalf("got %#v, want a Receive of field a", pr.Body[0])
	}
	if dest, ok := recv.Dest.(*ast.Name); !ok || dest.Text != "x" {
		t.Fatalf("got dest %#v, want Name x", recv.Dest)
	}
	send, ok := pr.Body[1].(*ast.Send)
	if !ok || send.FieldName != "b" {
		t.Fatalf("got %#v, want a Send of field b", pr.Body[1])
	}
	if _, ok := send.Value.(*ast.Name); !ok {
		t.Fatalf("got value %#v, want Name x", send.Value)
	}
}

func TestParseSignalSendAndReceiveOmitValue(t *testing.T) {
	prog := mustParse(t, `
protocol P = ping end
process Worker(p : client P) =
	p.ping!;
	p.ping?;
end
start Main();
`)
	pr := prog.Defs[1].(*ast.Process)
	send := pr.Body[0].(*ast.Send)
	if send.Value != nil {
		t.Fatalf("got non-nil signal send value %#v", send.Value)
	}
	recv := pr.Body[1].(*ast.Receive)
	if recv.Dest != nil {
		t.Fatalf("got non-nil signal receive dest %#v", recv.Dest)
	}
}

func TestParseIfElifElse(t *testing.T) {
	prog := mustParse(t, `
process Worker() =
	if x == 1 then
		skip;
	elif x == 2 then
		skip;
	else
		skip;
	end
end
start Main();
`)
	pr := prog.Defs[0].(*ast.Process)
	ifs := pr.Body[0].(*ast.If)
	if len(ifs.ElseIfs) != 1 {
		t.Fatalf("got %d elifs, want 1", len(ifs.ElseIfs))
	}
	if ifs.Else == nil {
		t.Fatalf("expected an else body")
	}
}

func TestParseDeclAssignDistinguishesDeclFromPlainAssign(t *testing.T) {
	prog := mustParse(t, `
process Worker() =
	x : Int := 1;
	x := 2;
end
start Main();
`)
	pr := prog.Defs[0].(*ast.Process)
	decl := pr.Body[0].(*ast.DeclAssign)
	if !decl.IsDecl || decl.Type == nil {
		t.Fatalf("got %+v, want a declaring assignment with a type", decl)
	}
	plain := pr.Body[1].(*ast.DeclAssign)
	if plain.IsDecl || plain.Type != nil {
		t.Fatalf("got %+v, want a plain assignment with no type", plain)
	}
}

func TestParseForComprehensionRangeForm(t *testing.T) {
	prog := mustParse(t, `
process Worker() =
	for i in 1 to 10 do
		skip;
	end
end
start Main();
`)
	pr := prog.Defs[0].(*ast.Process)
	f := pr.Body[0].(*ast.For)
	if f.Head.Form != ast.FormRange {
		t.Fatalf("got form %v, want FormRange", f.Head.Form)
	}
	if f.Head.Start == nil || f.Head.Finish == nil {
		t.Fatalf("got %+v, want Start and Finish set", f.Head)
	}
}

func TestParseAnyComprehensionIndexesForm(t *testing.T) {
	prog := mustParse(t, `
process Worker() =
	any i in indexes xs do
		skip;
	else
		skip;
	end
end
start Main();
`)
	pr := prog.Defs[0].(*ast.Process)
	a := pr.Body[0].(*ast.Any)
	if a.Head.Form != ast.FormArrayDomain {
		t.Fatalf("got form %v, want FormArrayDomain", a.Head.Form)
	}
	if a.Else == nil {
		t.Fatalf("expected an else body")
	}
}

func TestParseSelectWithGuardAndBareOption(t *testing.T) {
	prog := mustParse(t, `
protocol P = a end
process Worker(p : server P, q : server P) =
	select fair
	| ready -> p.a?;
		skip;
	| q.a?;
		skip;
	end
end
start Main();
`)
	pr := prog.Defs[1].(*ast.Process)
	sel := pr.Body[0].(*ast.Select)
	if sel.Policy != ast.PolicyFair {
		t.Fatalf("got policy %v, want PolicyFair", sel.Policy)
	}
	if len(sel.Options) != 2 {
		t.Fatalf("got %d options, want 2", len(sel.Options))
	}
	if sel.Options[0].Guard == nil {
		t.Fatalf("expected the first option to carry a guard")
	}
	if sel.Options[1].Guard != nil {
		t.Fatalf("expected the second option to have no guard, got %#v", sel.Options[1].Guard)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	// a + b * c should parse as a + (b * c)
	prog := mustParse(t, `
process Worker() =
	x := a + b * c;
end
start Main();
`)
	pr := prog.Defs[0].(*ast.Process)
	da := pr.Body[0].(*ast.DeclAssign)
	top, ok := da.Value.(*ast.BinOp)
	if !ok || top.Op != "+" {
		t.Fatalf("got %#v, want a top-level '+'", da.Value)
	}
	if _, ok := top.Right.(*ast.BinOp); !ok {
		t.Fatalf("got right %#v, want a nested BinOp for b * c", top.Right)
	}
}

func TestParseIterOpKeywords(t *testing.T) {
	// Each of the five IterOp keywords must scan as a Keyword (not a
	// plain Ident) and parse as a function-call-like form over an
	// iterator expression.
	prog := mustParse(t, `
process Worker() =
	a := start(it);
	b := finish(it);
	c := key(it);
	d := value(it);
	e := step(it);
end
start Main();
`)
	pr := prog.Defs[0].(*ast.Process)
	want := []ast.IterKind{ast.IterStart, ast.IterFinish, ast.IterKey, ast.IterValue, ast.IterStep}
	for i, k := range want {
		da := pr.Body[i].(*ast.DeclAssign)
		op, ok := da.Value.(*ast.IterOp)
		if !ok {
			t.Fatalf("stmt %d: got %#v, want *ast.IterOp", i, da.Value)
		}
		if op.Kind != k {
			t.Fatalf("stmt %d: got kind %v, want %v", i, op.Kind, k)
		}
		if _, ok := op.Of.(*ast.Name); !ok {
			t.Fatalf("stmt %d: got Of %#v, want *ast.Name", i, op.Of)
		}
	}
}

func TestParseDotExpressionVsStatementReceive(t *testing.T) {
	// p.a? as a nested expression is a Query, not a statement Receive.
	prog := mustParse(t, `
protocol P = a end
process Worker(p : server P) =
	x := p.a? and true;
end
start Main();
`)
	pr := prog.Defs[1].(*ast.Process)
	da := pr.Body[0].(*ast.DeclAssign)
	bin := da.Value.(*ast.BinOp)
	if _, ok := bin.Left.(*ast.Query); !ok {
		t.Fatalf("got %#v, want a Query on the left of 'and'", bin.Left)
	}
}

func TestParseStartThreads(t *testing.T) {
	prog := mustParse(t, `
thread T(x : Int; y : Int) channel c : Int =
	skip;
end
process Worker() =
	start T(1 -> y) do
		skip;
	end
end
start Main();
`)
	pr := prog.Defs[1].(*ast.Process)
	st := pr.Body[0].(*ast.Start)
	if len(st.Calls) != 1 || st.Calls[0].Target != "T" {
		t.Fatalf("got %+v, want one call to T", st.Calls)
	}
	if len(st.Calls[0].Out) != 1 || st.Calls[0].Out[0] != "y" {
		t.Fatalf("got out %+v, want [y]", st.Calls[0].Out)
	}
}

func TestParseArrayMapIteratorTypes(t *testing.T) {
	prog := mustParse(t, `
process Worker(xs : array[0..9] of Int, m : map client Int -> Text) =
	skip;
end
start Main();
`)
	pr := prog.Defs[0].(*ast.Process)
	arr := pr.Params[0].Type
	if arr.Kind != ast.KArray || arr.Lo != 0 || arr.Hi != 9 || arr.Elem.Kind != ast.KInt {
		t.Fatalf("got %+v, want array[0..9] of Int", arr)
	}
	m := pr.Params[1].Type
	if m.Kind != ast.KMap || m.Polarity != ast.ClientMap || m.Domain.Kind != ast.KInt || m.Range.Kind != ast.KText {
		t.Fatalf("got %+v, want map client Int -> Text", m)
	}
}

func TestParseEnumDecl(t *testing.T) {
	prog := mustParse(t, `
enum Color = Red, Green, Blue end
start Main();
`)
	e := prog.Defs[0].(*ast.EnumDecl)
	want := []string{"Red", "Green", "Blue"}
	if len(e.Values) != len(want) {
		t.Fatalf("got %v, want %v", e.Values, want)
	}
	for i := range want {
		if e.Values[i] != want[i] {
			t.Fatalf("got %v, want %v", e.Values, want)
		}
	}
}

func TestParseSyntaxErrorIsRecoverable(t *testing.T) {
	bag := diag.NewBag(false)
	gen := &ast.IDGen{}
	_, err := Parse("test.loom", []byte("cell ("), bag, gen)
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	if !bag.Failed() {
		t.Fatalf("expected the bag to record the error")
	}
}

func TestParseNestedScopesChainToEnclosingProcess(t *testing.T) {
	prog := mustParse(t, `
process Worker() =
	loop
		if true then
			skip;
		end
	end
end
start Main();
`)
	pr := prog.Defs[0].(*ast.Process)
	loop := pr.Body[0].(*ast.Loop)
	body := loop.Body.(*ast.Seq)
	if body.Outer() != ast.Scoped(pr) {
		t.Fatalf("got loop body outer %#v, want the enclosing process", body.Outer())
	}
	ifStmt := body.Stmts[0].(*ast.If)
	then := ifStmt.Then.(*ast.Seq)
	if then.Outer() != ast.Scoped(body) {
		t.Fatalf("got if-then outer %#v, want the enclosing loop body Seq", then.Outer())
	}
}
