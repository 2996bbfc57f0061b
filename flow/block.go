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

// Package flow flattens a closure's statement tree into the
// basic-block form a switch-on-program-counter interpreter or target
// emitter consumes (spec §4.6). Grounded on
// original_source/src/basicblocks.cpp's BasicBlock/optimize pair: the
// block shape and the dead-code-elimination fixpoint are carried
// over directly, the construction rules are reworked from that
// file's per-node genBlocks methods into one Go switch.
package flow

import "github.com/loom-lang/loomc/ast"

// Block is one basic block: a label, a straight-line statement run,
// and how control leaves it (spec §4.6 block shape).
type Block struct {
	// Start is this block's label. A negative Start marks a block
	// constructed along an unreachable path (e.g. statements
	// following an Exit); Optimize drops these unconditionally.
	Start int

	// Stmts is the straight-line statement run, plus any control
	// marker (ast.BranchTest, a *ast.Select, a for/any fragment)
	// that determines how the block ends.
	Stmts []ast.Node

	// Transfer is the unconditional (or "true") successor label.
	// Zero means "falls through to whatever Optimize leaves it
	// pointing at" only for blocks still under construction; every
	// finished block has a non-zero Transfer unless it is the last
	// block of a closure (WriteTransfer false, Unlock true).
	Transfer int

	// AltTransfer is the "false" successor for a two-way block
	// (ast.BranchTest present); zero when the block is one-way.
	AltTransfer int

	// WriteTransfer tells the emitter whether to materialize a
	// plain "pc = Transfer" assignment. It is false for two-way
	// blocks (the test itself picks the successor) and for a
	// closure's final block (execution ends, not transfers).
	WriteTransfer bool

	// Unlock marks a block that performs a blocking communication
	// or terminates its closure; the runtime releases the process
	// lock around such a block (spec §4.6, SPEC_FULL §6.6).
	Unlock bool

	// Closure is non-nil only on a closure's entry block, naming
	// the Process/Procedure/Thread this block list starts (spec
	// §4.5 ClosureName, carried here to key the switch-case
	// dispatch table per closure).
	Closure ast.Node
}
