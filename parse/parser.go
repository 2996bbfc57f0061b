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
	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/diag"
)

// posNode lets the parser raise diag.Bag diagnostics (which require
// an ast.Node for position reporting) before a single real AST node
// exists yet to attach one to.
type posNode struct {
	seq int64
	pos ast.Pos
}

func (p posNode) SeqNum() int64 { return p.seq }
func (p posNode) Pos() ast.Pos  { return p.pos }

// Parser turns a flat Token slice into an *ast.Program, one
// recursive-descent production per grammar rule, mirroring
// parser.cpp's Parser::parseX methods and its check/match helpers.
type Parser struct {
	bag   *diag.Bag
	gen   *ast.IDGen
	toks  []Token
	i     int
	scope ast.Scoped // nearest enclosing Scoped node, for Outer() chains bind walks
}

// Parse scans file's source and parses it into an *ast.Program.
// Lexical errors are returned directly; syntax errors are recorded on
// bag and returned via bag.Run the same way every other stage reports
// Fatal diagnostics (spec §7).
func Parse(file string, src []byte, bag *diag.Bag, gen *ast.IDGen) (*ast.Program, error) {
	toks, err := tokenize(file, src)
	if err != nil {
		return nil, err
	}
	p := &Parser{bag: bag, gen: gen, toks: toks}
	var prog *ast.Program
	runErr := bag.Run(func() {
		prog = p.parseProgram()
	})
	if runErr != nil {
		return nil, runErr
	}
	return prog, nil
}

func (p *Parser) cur() Token  { return p.toks[p.i] }
func (p *Parser) peek(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}
func (p *Parser) advance() Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *Parser) atKeyword(text string) bool { return p.cur().is(Keyword, text) }
func (p *Parser) atPunct(text string) bool   { return p.cur().is(Punct, text) }
func (p *Parser) atEOF() bool                { return p.cur().Kind == EOF }

func (p *Parser) matchKeyword(text string) bool {
	if p.atKeyword(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchPunct(text string) bool {
	if p.atPunct(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) fail(at ast.Pos, format string, args ...interface{}) {
	p.bag.Throwf(posNode{seq: p.gen.Next(), pos: at}, format, args...)
}

func (p *Parser) expectKeyword(text string) Token {
	if !p.atKeyword(text) {
		p.fail(p.cur().Pos, "expected keyword %q, found %q", text, p.cur().Text)
	}
	return p.advance()
}

func (p *Parser) expectPunct(text string) Token {
	if !p.atPunct(text) {
		p.fail(p.cur().Pos, "expected %q, found %q", text, p.cur().Text)
	}
	return p.advance()
}

func (p *Parser) expectIdent() Token {
	if p.cur().Kind != Ident {
		p.fail(p.cur().Pos, "expected an identifier, found %q", p.cur().Text)
	}
	return p.advance()
}

// ---- top level ----

func (p *Parser) parseProgram() *ast.Program {
	start := p.cur().Pos
	prog := ast.NewProgram(p.gen, start)
	declare := func(name string, def Node) {
		if prior := prog.Declare(name, def); prior != nil {
			p.bag.Errorf(def, "%q redeclared", name)
		}
	}
	for !p.atEOF() {
		switch {
		case p.matchKeyword("import"):
			p.parseImport()

		case p.atKeyword("protocol"):
			d := p.parseProtocolDef()
			prog.Defs = append(prog.Defs, d)
			declare(d.Name, d)

		case p.atKeyword("cell"):
			d := p.parseCell(prog)
			prog.Defs = append(prog.Defs, d)
			declare(d.Name, d)

		case p.atKeyword("process"):
			d := p.parseProcess(prog)
			prog.Defs = append(prog.Defs, d)
			declare(d.Name, d)

		case p.atKeyword("procedure"):
			d := p.parseProcedure(prog)
			prog.Defs = append(prog.Defs, d)
			declare(d.Name, d)

		case p.atKeyword("thread"):
			d := p.parseThread(prog)
			prog.Defs = append(prog.Defs, d)
			declare(d.Name, d)

		case p.atKeyword("enum"):
			d := p.parseEnumDecl(prog)
			prog.Defs = append(prog.Defs, d)
			declare(d.Name, d)

		case p.atKeyword("constant"):
			d := p.parseConstant()
			prog.Defs = append(prog.Defs, d)
			declare(d.Name, d)

		case p.atKeyword("extern"):
			d := p.parseExternalRoutine()
			prog.Defs = append(prog.Defs, d)
			declare(d.Name, d)

		case p.atKeyword("start"):
			prog.Start = p.parseCellInst()
			p.expectPunct(";")

		default:
			p.fail(p.cur().Pos, "unexpected token %q at top level", p.cur().Text)
		}
	}
	return prog
}

// Node is a local alias kept for readability in declare's signature
// without importing ast twice under two names.
type Node = ast.Node

func (p *Parser) parseImport() {
	for {
		p.expectIdent()
		if p.matchPunct(",") {
			continue
		}
		break
	}
	p.matchPunct(";")
}

// parseCellInst parses `start Name ( Args ) ` without its trailing
// ';', shared between the program-level start instance and (via
// parseThreadCall's argument list, which reuses parseArgList) nothing
// else — CellInst.Target is resolved against cell/process defs by
// bind, not here.
func (p *Parser) parseCellInst() *ast.CellInst {
	pos := p.expectKeyword("start").Pos
	name := p.expectIdent()
	p.expectPunct("(")
	args := p.parseArgList()
	p.expectPunct(")")
	_ = pos
	return &ast.CellInst{Target: name.Text, Args: args}
}

func (p *Parser) parseArgList() []ast.Node {
	var args []ast.Node
	if p.atPunct(")") {
		return args
	}
	for {
		args = append(args, p.parseExpr())
		if p.matchPunct(",") {
			continue
		}
		break
	}
	return args
}

// ---- declarations ----

func (p *Parser) parseParamList() []*ast.Param {
	var params []*ast.Param
	p.expectPunct("(")
	if !p.atPunct(")") {
		for {
			params = append(params, p.parseParam())
			if p.matchPunct(",") {
				continue
			}
			break
		}
	}
	p.expectPunct(")")
	return params
}

func (p *Parser) parseParam() *ast.Param {
	pos := p.cur().Pos
	alias := p.matchKeyword("alias")
	name := p.expectIdent()
	p.expectPunct(":")
	role := ast.RoleChannel
	isPort := false
	switch {
	case p.matchKeyword("client"):
		role, isPort = ast.RoleClient, true
	case p.matchKeyword("server"):
		role, isPort = ast.RoleServer, true
	case p.matchKeyword("channel"):
		role, isPort = ast.RoleChannel, true
	}
	typ := p.parseType()
	param := &ast.Param{Name: name.Text, Type: typ, Role: role, IsPort: isPort, Alias: alias}
	_ = pos
	return param
}

func (p *Parser) parseType() *ast.Type {
	switch {
	case p.matchKeyword("unsigned"):
		switch {
		case p.matchKeyword("Byte"):
			return ast.Scalar(ast.KUByte)
		case p.matchKeyword("Int"), p.atKeyword("Integer"):
			p.matchKeyword("Integer")
			return ast.Scalar(ast.KUInt)
		default:
			p.fail(p.cur().Pos, "expected Byte or Int after 'unsigned'")
		}

	case p.atKeyword("array"):
		p.advance()
		p.expectPunct("[")
		lo := p.expectNumberInt()
		p.expectPunct("..")
		hi := p.expectNumberInt()
		p.expectPunct("]")
		p.expectKeyword("of")
		elem := p.parseType()
		return &ast.Type{Kind: ast.KArray, Lo: lo, Hi: hi, Elem: elem}

	case p.atKeyword("map"):
		p.advance()
		pol := ast.NoPolarity
		switch {
		case p.matchKeyword("client"):
			pol = ast.ClientMap
		case p.matchKeyword("server"):
			pol = ast.ServerMap
		}
		dom := p.parseType()
		p.expectPunct("->")
		rng := p.parseType()
		return &ast.Type{Kind: ast.KMap, Domain: dom, Range: rng, Polarity: pol}

	case p.atKeyword("iterator"):
		p.advance()
		dom := p.parseType()
		p.expectPunct("->")
		rng := p.parseType()
		return &ast.Type{Kind: ast.KIterator, Domain: dom, Range: rng}

	case p.cur().Kind == Keyword:
		if k, ok := typeKeywords[p.cur().Text]; ok {
			p.advance()
			return ast.Scalar(k)
		}

	case p.cur().Kind == Ident:
		name := p.advance()
		return &ast.Type{Kind: ast.KNamed, Name: name.Text}
	}
	p.fail(p.cur().Pos, "expected a type, found %q", p.cur().Text)
	return nil
}

func (p *Parser) expectNumberInt() int {
	tok := p.cur()
	if tok.Kind != Number {
		p.fail(tok.Pos, "expected an integer, found %q", tok.Text)
	}
	p.advance()
	n := 0
	neg := false
	text := tok.Text
	if len(text) > 0 && text[0] == '-' {
		neg = true
		text = text[1:]
	}
	for _, c := range text {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func (p *Parser) parseProtocolDef() *ast.ProtocolDef {
	pos := p.expectKeyword("protocol").Pos
	name := p.expectIdent()
	p.expectPunct("=")
	var fields []*ast.Field
	body := p.parseProtocolAlt(&fields)
	p.expectKeyword("end")
	return &ast.ProtocolDef{Name: name.Text, Body: body, Fields: fields}
}

func (p *Parser) parseProtocolAlt(fields *[]*ast.Field) ast.Node {
	branches := []ast.Node{p.parseProtocolSeq(fields)}
	for p.matchPunct("|") {
		branches = append(branches, p.parseProtocolSeq(fields))
	}
	if len(branches) == 1 {
		return branches[0]
	}
	return &ast.ProtoAlt{Branches: branches}
}

func (p *Parser) parseProtocolSeq(fields *[]*ast.Field) ast.Node {
	elems := []ast.Node{p.parseProtocolPostfix(fields)}
	for p.matchPunct(";") {
		elems = append(elems, p.parseProtocolPostfix(fields))
	}
	if len(elems) == 1 {
		return elems[0]
	}
	return &ast.ProtoSeq{Elems: elems}
}

func (p *Parser) parseProtocolPostfix(fields *[]*ast.Field) ast.Node {
	n := p.parseProtocolFactor(fields)
	for {
		switch {
		case p.matchPunct("*"):
			n = &ast.ProtoStar{Elem: n}
		case p.matchPunct("+"):
			n = &ast.ProtoPlus{Elem: n}
		case p.matchPunct("?"):
			n = &ast.ProtoOpt{Elem: n}
		default:
			return n
		}
	}
}

func (p *Parser) parseProtocolFactor(fields *[]*ast.Field) ast.Node {
	if p.matchPunct("(") {
		n := p.parseProtocolAlt(fields)
		p.expectPunct(")")
		return n
	}
	isReply := p.matchPunct("^")
	name := p.expectIdent()
	var typ *ast.Type
	if p.matchPunct(":") {
		typ = p.parseType()
	}
	f := &ast.Field{Name: name.Text, Type: typ, IsReply: isReply}
	*fields = append(*fields, f)
	return f
}

func (p *Parser) parseCell(outer ast.Scoped) *ast.Cell {
	p.expectKeyword("cell")
	name := p.expectIdent()
	params := p.parseParamList()
	p.expectPunct("=")
	c := ast.NewCell(p.gen, p.toks[p.i].Pos, outer, name.Text)
	c.Params = params
	prevScope := p.scope
	p.scope = c
	defer func() { p.scope = prevScope }()
	for !p.atKeyword("end") {
		if p.matchKeyword("channel") {
			pname := p.expectIdent()
			p.expectPunct(":")
			typ := p.parseType()
			p.expectPunct(";")
			c.Body = append(c.Body, &ast.Param{Name: pname.Text, Type: typ, Role: ast.RoleChannel, IsPort: true})
			continue
		}
		sub := p.parseCellInst2()
		p.expectPunct(";")
		c.Body = append(c.Body, sub)
	}
	p.expectKeyword("end")
	return c
}

// parseCellInst2 parses a sub-instance `Name ( Args )` inside a cell
// body, where Name is the process/cell type being instantiated (cell
// bodies name no local variable for the instance: matching happens by
// which of the cell's own channels each instance's Args reference,
// spec §4.3 "Instance matching").
func (p *Parser) parseCellInst2() *ast.CellInst {
	name := p.expectIdent()
	p.expectPunct("(")
	args := p.parseArgList()
	p.expectPunct(")")
	return &ast.CellInst{Target: name.Text, Args: args}
}

func (p *Parser) parseProcess(outer ast.Scoped) *ast.Process {
	p.expectKeyword("process")
	name := p.expectIdent()
	params := p.parseParamList()
	p.expectPunct("=")
	pr := ast.NewProcess(p.gen, p.toks[p.i].Pos, outer, name.Text)
	pr.Params = params
	prevScope := p.scope
	p.scope = pr
	pr.Body = p.parseStmtList()
	p.scope = prevScope
	p.expectKeyword("end")
	return pr
}

func (p *Parser) parseProcedure(outer ast.Scoped) *ast.Procedure {
	p.expectKeyword("procedure")
	name := p.expectIdent()
	params := p.parseParamList()
	var ret *ast.Type
	if p.matchPunct(":") {
		ret = p.parseType()
	}
	p.expectPunct("=")
	pr := ast.NewProcedure(p.gen, p.toks[p.i].Pos, outer, name.Text)
	pr.Params = params
	pr.Ret = ret
	prevScope := p.scope
	p.scope = pr
	pr.Body = p.parseStmtList()
	p.scope = prevScope
	p.expectKeyword("end")
	return pr
}

func (p *Parser) parseThread(outer ast.Scoped) *ast.Thread {
	p.expectKeyword("thread")
	name := p.expectIdent()
	t := ast.NewThread(p.gen, p.toks[p.i].Pos, outer, name.Text)
	p.expectPunct("(")
	if !p.atPunct(";") && !p.atPunct(")") {
		for {
			t.In = append(t.In, p.parseParam())
			if p.matchPunct(",") {
				continue
			}
			break
		}
	}
	p.expectPunct(";")
	if !p.atPunct(")") {
		for {
			t.Out = append(t.Out, p.parseParam())
			if p.matchPunct(",") {
				continue
			}
			break
		}
	}
	p.expectPunct(")")
	p.expectKeyword("channel")
	chName := p.expectIdent()
	p.expectPunct(":")
	chType := p.parseType()
	t.Channel = &ast.Param{Name: chName.Text, Type: chType, Role: ast.RoleChannel, IsPort: true}
	p.expectPunct("=")
	prevScope := p.scope
	p.scope = t
	t.Body = p.parseStmtList()
	p.scope = prevScope
	p.expectKeyword("end")
	return t
}

func (p *Parser) parseEnumDecl(outer ast.Scoped) *ast.EnumDecl {
	p.expectKeyword("enum")
	name := p.expectIdent()
	p.expectPunct("=")
	e := ast.NewEnumDecl(p.gen, p.toks[p.i].Pos, outer, name.Text)
	for {
		v := p.expectIdent()
		e.Values = append(e.Values, v.Text)
		if p.matchPunct(",") {
			continue
		}
		break
	}
	p.expectKeyword("end")
	return e
}

func (p *Parser) parseConstant() *ast.Constant {
	p.expectKeyword("constant")
	name := p.expectIdent()
	p.expectPunct(":")
	typ := p.parseType()
	p.expectPunct("=")
	val := p.parseExpr()
	p.expectPunct(";")
	return &ast.Constant{Name: name.Text, Type: typ, Init: val}
}

func (p *Parser) parseExternalRoutine() *ast.ExternalRoutine {
	p.expectKeyword("extern")
	name := p.expectIdent()
	p.expectPunct("(")
	var params []*ast.Type
	if !p.atPunct(")") {
		for {
			params = append(params, p.parseType())
			if p.matchPunct(",") {
				continue
			}
			break
		}
	}
	p.expectPunct(")")
	var ret *ast.Type
	if p.matchPunct(":") {
		ret = p.parseType()
	}
	p.expectPunct(";")
	return &ast.ExternalRoutine{Name: name.Text, Params: params, Ret: ret}
}

// ---- statements ----

// parseStmtList parses a flat statement list for a process/procedure/
// thread body (not wrapped in a *ast.Seq, matching ast.Process.Body
// etc.'s []Node shape), stopping before 'end'.
func (p *Parser) parseStmtList() []ast.Node {
	var stmts []ast.Node
	for !p.atKeyword("end") {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

// parseSeq parses a nested statement block into a *ast.Seq (If.Then,
// Loop.Body, and similar single-body positions all want this shape
// per their field comments). Its Outer is whatever p.scope holds on
// entry, which the caller arranges: a bare control-flow body (if/
// cases/loop/start) keeps the enclosing scope, while a for/any body
// temporarily replaces it with the Comprehension and a select
// option's body with the Option.
func (p *Parser) parseSeq() *ast.Seq {
	seq := ast.NewSeq(p.gen, p.cur().Pos, p.scope)
	prevScope := p.scope
	p.scope = seq
	for p.atBlockStop() == false {
		seq.Stmts = append(seq.Stmts, p.parseStmt())
	}
	p.scope = prevScope
	return seq
}

func (p *Parser) atBlockStop() bool {
	return p.atKeyword("end") || p.atKeyword("else") || p.atKeyword("elif") ||
		p.atKeyword("case") || p.atPunct("|") || p.atEOF()
}

func (p *Parser) parseStmt() ast.Node {
	switch {
	case p.matchKeyword("skip"):
		p.expectPunct(";")
		return &ast.Skip{}
	case p.matchKeyword("exit"):
		p.expectPunct(";")
		return &ast.Exit{}
	case p.matchKeyword("remove"):
		p.expectPunct(";")
		return &ast.Remove{}
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("cases"):
		return p.parseCases()
	case p.atKeyword("loop"):
		return p.parseLoop()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("any"):
		return p.parseAny()
	case p.atKeyword("select"):
		return p.parseSelect()
	case p.atKeyword("start"):
		return p.parseStart()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) parseIf() ast.Node {
	n := &ast.If{}
	p.expectKeyword("if")
	n.Cond = p.parseExpr()
	p.expectKeyword("then")
	n.Then = p.parseSeq()
	for p.matchKeyword("elif") {
		cond := p.parseExpr()
		p.expectKeyword("then")
		body := p.parseSeq()
		n.ElseIfs = append(n.ElseIfs, ast.ElseIf{Cond: cond, Body: body})
	}
	if p.matchKeyword("else") {
		n.Else = p.parseSeq()
	}
	p.expectKeyword("end")
	return n
}

func (p *Parser) parseCases() ast.Node {
	n := &ast.Cases{}
	p.expectKeyword("cases")
	n.Subject = p.parseExpr()
	for p.matchKeyword("case") {
		var arm ast.CaseArm
		for {
			arm.Values = append(arm.Values, p.parseExpr())
			if p.matchPunct(",") {
				continue
			}
			break
		}
		p.expectPunct(":")
		arm.Body = p.parseSeq()
		n.Arms = append(n.Arms, arm)
	}
	if p.matchKeyword("else") {
		n.Default = p.parseSeq()
	}
	p.expectKeyword("end")
	return n
}

func (p *Parser) parseLoop() ast.Node {
	p.expectKeyword("loop")
	body := p.parseSeq()
	p.expectKeyword("end")
	return &ast.Loop{Body: body}
}

func (p *Parser) parseFor() ast.Node {
	p.expectKeyword("for")
	head := p.parseComprehension()
	p.expectKeyword("do")
	prevScope := p.scope
	p.scope = head
	body := p.parseSeq()
	p.scope = prevScope
	p.expectKeyword("end")
	return &ast.For{Head: head, Body: body}
}

func (p *Parser) parseAny() ast.Node {
	p.expectKeyword("any")
	head := p.parseComprehension()
	p.expectKeyword("do")
	prevScope := p.scope
	p.scope = head
	body := p.parseSeq()
	p.scope = prevScope
	var els ast.Node
	if p.matchKeyword("else") {
		els = p.parseSeq()
	}
	p.expectKeyword("end")
	return &ast.Any{Head: head, Body: body, Else: els}
}

// parseComprehension implements spec glossary "Comprehension":
//
//	Var [':' Type] ['in' Collection] ['such' 'that' Expr]
//
// Absence of 'in' means an enum-set comprehension over VarType's
// values (original_source's EnumSetNode, spec §3 "enum-set").
func (p *Parser) parseComprehension() *ast.Comprehension {
	name := p.expectIdent()
	c := ast.NewComprehension(p.gen, name.Pos, nil, name.Text)
	if p.matchPunct(":") {
		c.VarType = p.parseType()
	}
	if p.matchKeyword("in") {
		p.parseCollectionInto(c)
	} else {
		c.Form = ast.FormEnum
	}
	if p.matchKeyword("such") {
		p.matchKeyword("that")
		_ = p.parseExpr() // side predicate: no dedicated AST slot yet, see DESIGN.md
	}
	return c
}

// parseCollectionInto fills in c's Form/Collection/Start/Finish/Step
// from the 'in' clause. 'indexes' always yields FormArrayDomain — the
// parser cannot tell an array from text apart without type
// information, so true text-domain iteration is not distinguishable
// here (documented limitation, see DESIGN.md).
func (p *Parser) parseCollectionInto(c *ast.Comprehension) {
	switch {
	case p.matchKeyword("domain"):
		c.Form = ast.FormMapDomain
		c.Collection = p.parseExpr()
	case p.matchKeyword("range"):
		c.Form = ast.FormMapRange
		c.Collection = p.parseExpr()
	case p.matchKeyword("indexes"):
		c.Form = ast.FormArrayDomain
		c.Collection = p.parseExpr()
	default:
		start := p.parseExpr()
		if p.matchKeyword("to") {
			c.Form = ast.FormRange
			c.Start = start
			c.Finish = p.parseExpr()
			c.Closed = true
			c.Ascending = true
			if p.matchKeyword("step") {
				c.Step = p.parseExpr()
			}
			return
		}
		c.Form = ast.FormArrayRange
		c.Collection = start
	}
}

func (p *Parser) parsePolicy() ast.SelectPolicy {
	switch {
	case p.matchKeyword("fair"):
		return ast.PolicyFair
	case p.matchKeyword("ordered"):
		return ast.PolicyOrdered
	case p.matchKeyword("random"):
		return ast.PolicyRandom
	default:
		return ast.PolicyFair
	}
}

func (p *Parser) parseSelect() ast.Node {
	p.expectKeyword("select")
	sel := &ast.Select{Policy: p.parsePolicy()}
	for p.matchPunct("|") {
		o := ast.NewOption(p.gen, p.cur().Pos, p.scope)
		if !isCommStart(p) {
			o.Guard = p.parseExpr()
			p.expectPunct("->")
		}
		o.Comm = p.parseComm()
		p.expectPunct(";")
		prevScope := p.scope
		p.scope = o
		o.Body = p.parseSeq()
		p.scope = prevScope
		sel.Options = append(sel.Options, o)
	}
	p.expectKeyword("end")
	return sel
}

// isCommStart reports whether the upcoming tokens already begin a
// bare communication (Ident '.' Ident, or Ident ':=' Ident '.' Ident)
// with no guard expression in front of it.
func isCommStart(p *Parser) bool {
	if p.cur().Kind != Ident {
		return false
	}
	if p.peek(1).is(Punct, ".") {
		return true
	}
	if p.peek(1).is(Punct, ":=") && p.peek(2).Kind == Ident && p.peek(3).is(Punct, ".") {
		return true
	}
	return false
}

func (p *Parser) parseStart() ast.Node {
	p.expectKeyword("start")
	n := &ast.Start{}
	for p.cur().Kind == Ident {
		n.Calls = append(n.Calls, p.parseThreadCall())
		if p.matchPunct(",") {
			continue
		}
		break
	}
	p.expectKeyword("do")
	n.Body = p.parseSeq()
	p.expectKeyword("end")
	return n
}

func (p *Parser) parseThreadCall() *ast.ThreadCall {
	target := p.expectIdent()
	tc := &ast.ThreadCall{Target: target.Text}
	p.expectPunct("(")
	tc.In = p.parseArgList()
	if p.matchPunct("->") {
		for {
			n := p.expectIdent()
			tc.Out = append(tc.Out, n.Text)
			if p.matchPunct(",") {
				continue
			}
			break
		}
	}
	p.expectPunct(")")
	return tc
}

// parseComm parses a Send (port.field ['!' Expr]) or Receive
// ([Dest ':='] port.field '?'), used both as a standalone statement
// and inside a select option.
func (p *Parser) parseComm() ast.Node {
	var dest *ast.Name
	if p.cur().Kind == Ident && p.peek(1).is(Punct, ":=") {
		tok := p.advance()
		dest = &ast.Name{Text: tok.Text}
		p.advance() // ':='
	}
	portTok := p.expectIdent()
	port := &ast.Name{Text: portTok.Text}
	p.expectPunct(".")
	field := p.expectIdent()
	switch {
	case p.matchPunct("!"):
		var val ast.Node
		if !p.atPunct(";") {
			val = p.parseExpr()
		}
		if dest != nil {
			p.fail(portTok.Pos, "a send cannot assign a destination variable")
		}
		return &ast.Send{Port: port, FieldName: field.Text, Value: val}
	case p.matchPunct("?"):
		return &ast.Receive{Dest: dest, Port: port, FieldName: field.Text}
	default:
		p.fail(p.cur().Pos, "expected '!' (send) or '?' (receive) after %s.%s", portTok.Text, field.Text)
		return nil
	}
}

// parseSimpleStmt disambiguates declaration/assignment, send,
// receive, and bare expression statements, all of which start with an
// identifier.
//
// "ident . ident '?'" also starts a Query used mid-expression (e.g.
// "x := p.a? and true;"), so a bare or dest-assigning receive only
// commits when the '?' is directly followed by ';' — the shape a
// statement-level receive always has, since it takes no further
// operand. A '!' is unambiguous (Send never appears as a sub-
// expression), so it always commits.
func (p *Parser) parseSimpleStmt() ast.Node {
	if p.cur().Kind == Ident && p.peek(1).is(Punct, ".") &&
		(p.peek(3).is(Punct, "!") || (p.peek(3).is(Punct, "?") && p.peek(4).is(Punct, ";"))) {
		n := p.parseComm()
		p.expectPunct(";")
		return n
	}
	if p.cur().Kind == Ident && p.peek(1).is(Punct, ":=") && p.peek(2).Kind == Ident && p.peek(3).is(Punct, ".") &&
		(p.peek(5).is(Punct, "!") || (p.peek(5).is(Punct, "?") && p.peek(6).is(Punct, ";"))) {
		n := p.parseComm()
		p.expectPunct(";")
		return n
	}
	if p.cur().Kind == Ident && (p.peek(1).is(Punct, ":=") || p.peek(1).is(Punct, ":")) {
		name := p.advance()
		da := &ast.DeclAssign{Name: name.Text}
		if p.matchPunct(":") {
			da.Type = p.parseType()
			da.IsDecl = true
			p.expectPunct(":=")
		} else {
			p.expectPunct(":=")
		}
		da.Value = p.parseExpr()
		p.expectPunct(";")
		return da
	}
	x := p.parseExpr()
	p.expectPunct(";")
	return &ast.ExprStmt{X: x}
}

// ---- expressions ----

func (p *Parser) parseExpr() ast.Node { return p.parseCond() }

func (p *Parser) parseCond() ast.Node {
	then := p.parseOr()
	if p.matchKeyword("if") {
		cond := p.parseOr()
		p.expectKeyword("else")
		els := p.parseCond()
		return &ast.Cond{Then: then, If: cond, Else: els}
	}
	return then
}

func (p *Parser) parseOr() ast.Node {
	n := p.parseAnd()
	for p.matchKeyword("or") {
		n = &ast.BinOp{Op: "or", Left: n, Right: p.parseAnd()}
	}
	return n
}

func (p *Parser) parseAnd() ast.Node {
	n := p.parseNot()
	for p.matchKeyword("and") {
		n = &ast.BinOp{Op: "and", Left: n, Right: p.parseNot()}
	}
	return n
}

func (p *Parser) parseNot() ast.Node {
	if p.matchKeyword("not") {
		return &ast.UnOp{Op: "not", Operand: p.parseNot()}
	}
	return p.parseRel()
}

var relOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *Parser) parseRel() ast.Node {
	n := p.parseAdd()
	if p.cur().Kind == Punct && relOps[p.cur().Text] {
		op := p.advance().Text
		n = &ast.BinOp{Op: op, Left: n, Right: p.parseAdd()}
	}
	return n
}

func (p *Parser) parseAdd() ast.Node {
	n := p.parseMul()
	for p.atPunct("+") || p.atPunct("-") {
		op := p.advance().Text
		n = &ast.BinOp{Op: op, Left: n, Right: p.parseMul()}
	}
	return n
}

var mulOps = map[string]bool{"*": true, "/": true}

func (p *Parser) parseMul() ast.Node {
	n := p.parseUnary()
	for (p.cur().Kind == Punct && mulOps[p.cur().Text]) ||
		p.atKeyword("div") || p.atKeyword("mod") || p.atKeyword("rem") {
		op := p.advance().Text
		n = &ast.BinOp{Op: op, Left: n, Right: p.parseUnary()}
	}
	return n
}

func (p *Parser) parseUnary() ast.Node {
	if p.matchPunct("-") {
		return &ast.UnOp{Op: "-", Operand: p.parseUnary()}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Node {
	n := p.parsePrimary()
	for {
		switch {
		case p.matchPunct("."):
			field := p.expectIdent()
			if p.matchPunct("?") {
				n = &ast.Query{Port: n, FieldName: field.Text}
			} else {
				n = &ast.Dot{Port: n, FieldName: field.Text}
			}
		case p.matchPunct("["):
			idx := p.parseExpr()
			if p.matchPunct("..") {
				hi := p.parseExpr()
				p.expectPunct("]")
				n = &ast.Subrange{Base: n, Lo: idx, Hi: hi}
			} else {
				p.expectPunct("]")
				n = &ast.Subscript{Base: n, Index: idx}
			}
		default:
			return n
		}
	}
}

var iterFuncs = map[string]ast.IterKind{
	"start": ast.IterStart, "finish": ast.IterFinish,
	"key": ast.IterKey, "value": ast.IterValue, "step": ast.IterStep,
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.cur()
	if kind, ok := iterFuncs[tok.Text]; ok && tok.Kind == Keyword {
		if p.peek(1).is(Punct, "(") {
			p.advance()
			p.expectPunct("(")
			of := p.parseExpr()
			p.expectPunct(")")
			return &ast.IterOp{Kind: kind, Of: of}
		}
		p.fail(tok.Pos, "unexpected keyword %q in expression", tok.Text)
	}
	switch {
	case tok.Kind == Number:
		p.advance()
		isFrac := false
		for _, c := range tok.Text {
			if c == '.' || c == 'e' || c == 'E' {
				isFrac = true
				break
			}
		}
		return &ast.NumberLit{Text: tok.Text, IsFraction: isFrac}

	case tok.is(Keyword, "true"):
		p.advance()
		return &ast.BoolLit{Value: true}

	case tok.is(Keyword, "false"):
		p.advance()
		return &ast.BoolLit{Value: false}

	case tok.Kind == CharLit:
		p.advance()
		r := rune(0)
		for _, c := range tok.Text {
			r = c
			break
		}
		return &ast.CharLit{Value: r}

	case tok.Kind == TextLit:
		p.advance()
		return &ast.TextLit{Value: tok.Text}

	case tok.Kind == Ident:
		p.advance()
		if p.matchPunct("(") {
			args := p.parseArgList()
			p.expectPunct(")")
			return &ast.Call{Name: tok.Text, Args: args}
		}
		return &ast.Name{Text: tok.Text}

	case p.matchPunct("("):
		n := p.parseExpr()
		p.expectPunct(")")
		return n
	}
	p.fail(tok.Pos, "unexpected token %q in expression", tok.Text)
	return nil
}
