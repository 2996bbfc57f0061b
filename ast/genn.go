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

package ast

// The nodes in this file are never produced by the parser; they
// are synthesized by flow.Build out of a Comprehension or Option
// to give each lowered fragment (init/termination-test/step/
// match-predicate, the select guards, thread bracketing) its own
// Node identity and Pos for diagnostics and block labeling (spec
// §3 "Compiler-generated").

// CompInit initializes the loop-carried state for one comprehension
// form (e.g. the cursor for a range, or the map iterator handle).
type CompInit struct {
	base
	Head *Comprehension
}

func (c *CompInit) walkChildren(Visitor)            {}
func (c *CompInit) rewriteChildren(Rewriter) Node { return c }

// CompTest is the termination test of a for/any loop (spec §4.6
// "a block for the termination test (two-way to end/match)").
type CompTest struct {
	base
	Head *Comprehension
}

func (c *CompTest) walkChildren(Visitor)            {}
func (c *CompTest) rewriteChildren(Rewriter) Node { return c }

// CompMatch is the match predicate evaluated once the termination
// test passes (spec §4.6 "another for the match predicate
// (two-way to step/body)"); it is always rendered as true, since a
// Comprehension carries no filter predicate.
type CompMatch struct {
	base
	Head *Comprehension
}

func (c *CompMatch) walkChildren(Visitor)            {}
func (c *CompMatch) rewriteChildren(Rewriter) Node { return c }

// CompStep advances the loop-carried state (spec §4.6 "a step
// block").
type CompStep struct {
	base
	Head *Comprehension
}

func (c *CompStep) walkChildren(Visitor)            {}
func (c *CompStep) rewriteChildren(Rewriter) Node { return c }

// SendOption/ReceiveOption wrap a Select's Option's communication
// with the queue-readiness test flow.Build must AND into the
// option's guard block (spec §4.6 "a test-guard block (condition:
// option guard AND its first statement's queue test)").
type SendOption struct {
	base
	Owner *Option
}

func (s *SendOption) walkChildren(Visitor)            {}
func (s *SendOption) rewriteChildren(Rewriter) Node { return s }

type ReceiveOption struct {
	base
	Owner *Option
}

func (r *ReceiveOption) walkChildren(Visitor)            {}
func (r *ReceiveOption) rewriteChildren(Rewriter) Node { return r }

// ThreadStart/ThreadStop bracket a Start statement's launched
// threads (spec §3 "thread-start / thread-stop").
type ThreadStart struct {
	base
	Owner *ThreadCall
}

func (t *ThreadStart) walkChildren(Visitor)            {}
func (t *ThreadStart) rewriteChildren(Rewriter) Node { return t }

type ThreadStop struct {
	base
	Owner *ThreadCall
}

func (t *ThreadStop) walkChildren(Visitor)            {}
func (t *ThreadStop) rewriteChildren(Rewriter) Node { return t }

// BranchTest marks a two-way test block emitted for an If condition
// or a Cases arm (spec §4.6 "after each condition, emit a two-way
// block"): flow.Build sets the owning block's Transfer/AltTransfer to
// the true/false successor labels and clears WriteTransfer, since the
// generated code computes the next program counter directly from Cond
// rather than writing a fixed transfer.
type BranchTest struct {
	base
	Cond Node
}

func (b *BranchTest) walkChildren(v Visitor) { Walk(v, b.Cond) }
func (b *BranchTest) rewriteChildren(r Rewriter) Node {
	b.Cond = Rewrite(r, b.Cond)
	return b
}
