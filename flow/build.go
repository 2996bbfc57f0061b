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

import "github.com/loom-lang/loomc/ast"

// Build flattens every process/procedure/thread body in prog into
// one combined, dead-code-eliminated block list. Block labels are
// unique across the whole program (spec §4.6: a single program
// counter numbering space), matching
// original_source/src/basicblocks.cpp's global blockNumber counter;
// select numbering (ast.Select.SelectNum) resets per closure,
// matching that file's selCounter.
func Build(prog *ast.Program) []*Block {
	b := &builder{}
	for _, d := range prog.Defs {
		switch n := d.(type) {
		case *ast.Process:
			b.buildClosure(n, n.Body)
		case *ast.Procedure:
			b.buildClosure(n, n.Body)
		case *ast.Thread:
			b.buildClosure(n, n.Body)
		}
	}
	return Optimize(b.blocks)
}

type builder struct {
	blocks  []*Block
	next    int
	selNum  int
	loopEnd int // 0 when not inside a loop/for/any
}

func (b *builder) label() int {
	b.next++
	return b.next
}

// openBlock appends a new block with a pre-reserved label to the
// list and returns it as the block now under construction.
func (b *builder) openBlock(start int, closure ast.Node) *Block {
	blk := &Block{Start: start, WriteTransfer: true, Closure: closure}
	b.blocks = append(b.blocks, blk)
	return blk
}

func (b *builder) newBlock(closure ast.Node) *Block {
	return b.openBlock(b.label(), closure)
}

// deadBlock opens an unreachable block (negative Start) to collect
// any statements textually following an Exit within the same
// sequence; Optimize drops it outright (spec §4.6 "blocks ... with a
// negative start are dropped").
func (b *builder) deadBlock() *Block {
	blk := &Block{Start: -1}
	b.blocks = append(b.blocks, blk)
	return blk
}

func (b *builder) buildClosure(closure ast.Node, body []ast.Node) {
	b.selNum = 0
	cur := b.newBlock(closure)
	cur = b.emitStmts(cur, body)
	cur.Stmts = append(cur.Stmts, &ast.Remove{})
	cur.WriteTransfer = false
	cur.Unlock = true
}

func (b *builder) emitStmts(cur *Block, stmts []ast.Node) *Block {
	for _, s := range stmts {
		cur = b.emitStmt(cur, s)
	}
	return cur
}

func (b *builder) emitStmt(cur *Block, s ast.Node) *Block {
	switch n := s.(type) {
	case nil, *ast.Skip, *ast.Remove:
		return cur
	case *ast.Seq:
		return b.emitStmts(cur, n.Stmts)
	case *ast.Exit:
		if b.loopEnd != 0 {
			cur.Transfer = b.loopEnd
			cur.WriteTransfer = true
		}
		return b.deadBlock()
	case *ast.If:
		return b.emitIf(cur, n)
	case *ast.Cases:
		return b.emitCases(cur, n)
	case *ast.Loop:
		return b.emitLoop(cur, n)
	case *ast.For:
		return b.emitFor(cur, n)
	case *ast.Any:
		return b.emitAny(cur, n)
	case *ast.Select:
		return b.emitSelect(cur, n)
	case *ast.Send:
		cur.Stmts = append(cur.Stmts, n)
		cur.Unlock = true
		return b.closeInto(cur)
	case *ast.Receive:
		cur.Stmts = append(cur.Stmts, n)
		cur.Unlock = true
		return b.closeInto(cur)
	case *ast.Start:
		return b.emitStart(cur, n)
	default:
		// DeclAssign, ExprStmt: plain straight-line statements.
		cur.Stmts = append(cur.Stmts, s)
		return cur
	}
}

// closeInto finalizes cur with a one-way transfer to a freshly
// opened block and returns the new block as current. Every
// communication gets its own block (spec §4.6 "Send/Receive: own
// block, set unlock").
func (b *builder) closeInto(cur *Block) *Block {
	next := b.newBlock(nil)
	cur.Transfer = next.Start
	return next
}

func seqStmts(n ast.Node) []ast.Node {
	if n == nil {
		return nil
	}
	if s, ok := n.(*ast.Seq); ok {
		return s.Stmts
	}
	return []ast.Node{n}
}

func andGuard(guard, test ast.Node) ast.Node {
	switch {
	case guard == nil:
		return test
	case test == nil:
		return guard
	default:
		return &ast.BinOp{Op: "and", Left: guard, Right: test}
	}
}

func equalsAny(subject ast.Node, values []ast.Node) ast.Node {
	var acc ast.Node
	for _, v := range values {
		eq := &ast.BinOp{Op: "==", Left: subject, Right: v}
		if acc == nil {
			acc = eq
		} else {
			acc = &ast.BinOp{Op: "or", Left: acc, Right: eq}
		}
	}
	return acc
}

// emitIf lowers an If (plus its ElseIfs/Else) into a chain of
// two-way test blocks, one per condition, all converging on a
// shared end block (spec §4.6 "If/elif: after each condition, emit
// a two-way block ... continue past the statement into ifEnd").
func (b *builder) emitIf(cur *Block, n *ast.If) *Block {
	end := b.label()
	arms := make([]ast.ElseIf, 0, 1+len(n.ElseIfs))
	arms = append(arms, ast.ElseIf{Cond: n.Cond, Body: n.Then})
	arms = append(arms, n.ElseIfs...)

	testBlk := cur
	for i, arm := range arms {
		testBlk.Stmts = append(testBlk.Stmts, &ast.BranchTest{Cond: arm.Cond})
		testBlk.WriteTransfer = false

		thenBlk := b.newBlock(nil)
		testBlk.Transfer = thenBlk.Start
		thenEnd := b.emitStmts(thenBlk, seqStmts(arm.Body))
		thenEnd.Transfer = end
		thenEnd.WriteTransfer = true

		if i < len(arms)-1 {
			nextTest := b.newBlock(nil)
			testBlk.AltTransfer = nextTest.Start
			testBlk = nextTest
			continue
		}
		if n.Else != nil {
			elseBlk := b.newBlock(nil)
			testBlk.AltTransfer = elseBlk.Start
			elseEnd := b.emitStmts(elseBlk, seqStmts(n.Else))
			elseEnd.Transfer = end
			elseEnd.WriteTransfer = true
		} else {
			testBlk.AltTransfer = end
		}
	}
	return b.openBlock(end, nil)
}

// emitCases lowers a Cases into an equality test chain, one arm per
// case, with Default as the unconditional tail when no arm matches.
func (b *builder) emitCases(cur *Block, n *ast.Cases) *Block {
	end := b.label()
	testBlk := cur
	for _, arm := range n.Arms {
		testBlk.Stmts = append(testBlk.Stmts, &ast.BranchTest{Cond: equalsAny(n.Subject, arm.Values)})
		testBlk.WriteTransfer = false

		bodyBlk := b.newBlock(nil)
		testBlk.Transfer = bodyBlk.Start
		bodyEnd := b.emitStmts(bodyBlk, seqStmts(arm.Body))
		bodyEnd.Transfer = end
		bodyEnd.WriteTransfer = true

		nextTest := b.newBlock(nil)
		testBlk.AltTransfer = nextTest.Start
		testBlk = nextTest
	}
	if n.Default != nil {
		defEnd := b.emitStmts(testBlk, seqStmts(n.Default))
		defEnd.Transfer = end
		defEnd.WriteTransfer = true
	} else {
		testBlk.Transfer = end
	}
	return b.openBlock(end, nil)
}

// emitLoop lowers an unconditional Loop: label the head, run the
// body, transfer back; Exit within the body jumps to loopEnd (spec
// §4.6 "Loop").
func (b *builder) emitLoop(cur *Block, n *ast.Loop) *Block {
	start := b.label()
	cur.Transfer = start
	bodyBlk := b.openBlock(start, nil)

	prevEnd := b.loopEnd
	end := b.label()
	b.loopEnd = end

	bodyEnd := b.emitStmts(bodyBlk, seqStmts(n.Body))
	bodyEnd.Transfer = start
	bodyEnd.WriteTransfer = true

	b.loopEnd = prevEnd
	return b.openBlock(end, nil)
}

// emitFor lowers a for-loop into init / termination-test / match /
// body / step blocks (spec §4.6 "For/any").
func (b *builder) emitFor(cur *Block, n *ast.For) *Block {
	cur.Stmts = append(cur.Stmts, &ast.CompInit{Head: n.Head})

	testLabel, end, matchLabel, stepLabel, bodyLabel :=
		b.label(), b.label(), b.label(), b.label(), b.label()
	cur.Transfer = testLabel

	testBlk := b.openBlock(testLabel, nil)
	testBlk.Stmts = append(testBlk.Stmts, &ast.CompTest{Head: n.Head})
	testBlk.WriteTransfer = false
	testBlk.Transfer = matchLabel
	testBlk.AltTransfer = end

	matchBlk := b.openBlock(matchLabel, nil)
	matchBlk.Stmts = append(matchBlk.Stmts, &ast.CompMatch{Head: n.Head})
	matchBlk.WriteTransfer = false
	matchBlk.Transfer = bodyLabel
	matchBlk.AltTransfer = stepLabel

	prevEnd := b.loopEnd
	b.loopEnd = end
	bodyBlk := b.openBlock(bodyLabel, nil)
	bodyEnd := b.emitStmts(bodyBlk, seqStmts(n.Body))
	bodyEnd.Transfer = stepLabel
	bodyEnd.WriteTransfer = true
	b.loopEnd = prevEnd

	stepBlk := b.openBlock(stepLabel, nil)
	stepBlk.Stmts = append(stepBlk.Stmts, &ast.CompStep{Head: n.Head})
	stepBlk.Transfer = testLabel

	return b.openBlock(end, nil)
}

// emitAny lowers any/else: the first matching element runs Body and
// exits the loop directly; exhausting the collection without a
// match runs Else (spec §4.6 "Any adds an else-branch block before
// the tail").
func (b *builder) emitAny(cur *Block, n *ast.Any) *Block {
	cur.Stmts = append(cur.Stmts, &ast.CompInit{Head: n.Head})

	testLabel, end, elseLabel, matchLabel, stepLabel, bodyLabel :=
		b.label(), b.label(), b.label(), b.label(), b.label(), b.label()
	cur.Transfer = testLabel

	testBlk := b.openBlock(testLabel, nil)
	testBlk.Stmts = append(testBlk.Stmts, &ast.CompTest{Head: n.Head})
	testBlk.WriteTransfer = false
	testBlk.Transfer = matchLabel
	testBlk.AltTransfer = elseLabel

	matchBlk := b.openBlock(matchLabel, nil)
	matchBlk.Stmts = append(matchBlk.Stmts, &ast.CompMatch{Head: n.Head})
	matchBlk.WriteTransfer = false
	matchBlk.Transfer = bodyLabel
	matchBlk.AltTransfer = stepLabel

	prevEnd := b.loopEnd
	b.loopEnd = end
	bodyBlk := b.openBlock(bodyLabel, nil)
	bodyEnd := b.emitStmts(bodyBlk, seqStmts(n.Body))
	bodyEnd.Transfer = end
	bodyEnd.WriteTransfer = true
	b.loopEnd = prevEnd

	stepBlk := b.openBlock(stepLabel, nil)
	stepBlk.Stmts = append(stepBlk.Stmts, &ast.CompStep{Head: n.Head})
	stepBlk.Transfer = testLabel

	elseBlk := b.openBlock(elseLabel, nil)
	elseEnd := b.emitStmts(elseBlk, seqStmts(n.Else))
	elseEnd.Transfer = end
	elseEnd.WriteTransfer = true

	return b.openBlock(end, nil)
}

// emitSelect lowers a select into one guard/execute block pair per
// option (spec §4.6 "the first block contains a single select node
// whose successor is computed at runtime from the option table;
// each option contributes a test-guard block ... and an
// execute-branch block"). The option table itself (built by the
// runtime package from SelectNum and each option's guard/queue
// test) owns the nondeterministic dispatch; the guard chain
// constructed here exists so an emitter targeting a plain
// switch-on-pc interpreter also has a valid, if less efficient,
// fallback path — a documented simplification over computing the
// table purely at runtime.
func (b *builder) emitSelect(cur *Block, n *ast.Select) *Block {
	b.selNum++
	n.SelectNum = b.selNum
	cur.Stmts = append(cur.Stmts, n)
	cur.WriteTransfer = false

	end := b.label()
	for _, o := range n.Options {
		guardBlk := b.newBlock(nil)
		execLabel := b.label()

		var queueTest ast.Node
		switch o.Comm.(type) {
		case *ast.Send:
			queueTest = &ast.SendOption{Owner: o}
		case *ast.Receive:
			queueTest = &ast.ReceiveOption{Owner: o}
		}
		guardBlk.Stmts = append(guardBlk.Stmts, &ast.BranchTest{Cond: andGuard(o.Guard, queueTest)})
		guardBlk.WriteTransfer = false
		guardBlk.Transfer = execLabel
		guardBlk.AltTransfer = end

		execBlk := b.openBlock(execLabel, nil)
		if o.Comm != nil {
			execBlk.Stmts = append(execBlk.Stmts, o.Comm)
			execBlk.Unlock = true
		}
		bodyEnd := b.emitStmts(execBlk, seqStmts(o.Body))
		bodyEnd.Transfer = end
		bodyEnd.WriteTransfer = true
	}
	return b.openBlock(end, nil)
}

// emitStart brackets the launched threads' Body with
// ThreadStart/ThreadStop markers (spec §3 "thread-start /
// thread-stop"); the threads themselves are built as their own
// closures by Build's top-level loop.
func (b *builder) emitStart(cur *Block, n *ast.Start) *Block {
	for _, call := range n.Calls {
		cur.Stmts = append(cur.Stmts, &ast.ThreadStart{Owner: call})
	}
	cur = b.emitStmts(cur, seqStmts(n.Body))
	for _, call := range n.Calls {
		cur.Stmts = append(cur.Stmts, &ast.ThreadStop{Owner: call})
	}
	return cur
}
