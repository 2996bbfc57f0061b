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

// Optimize runs the dead-code-elimination fixpoint from
// original_source/src/basicblocks.cpp's optimize(): drop
// unreachable (negative-start) blocks, merge empty non-unlock
// blocks into their successor, then drop blocks whose label no
// reachable transfer (or implicit select/option reference) still
// points at, repeating until a full pass changes nothing.
func Optimize(blocks []*Block) []*Block {
	for {
		var changed1, changed2, changed3 bool
		blocks, changed1 = dropUnreachable(blocks)
		blocks, changed2 = mergeEmpty(blocks)
		blocks, changed3 = dropUnreferenced(blocks)
		if !changed1 && !changed2 && !changed3 {
			return blocks
		}
	}
}

func dropUnreachable(blocks []*Block) ([]*Block, bool) {
	out := blocks[:0:0]
	changed := false
	for _, blk := range blocks {
		if blk.Start < 0 {
			changed = true
			continue
		}
		out = append(out, blk)
	}
	return out, changed
}

// mergeEmpty folds a block with no statements and no unlock into
// whatever referenced it: every other block's Transfer/AltTransfer
// pointing at the empty block's label is rewritten to the empty
// block's own Transfer, and if the empty block owned a closure entry
// that ownership moves to the block it merges into (spec §4.6
// "merge empty non-unlock-changing blocks into their successor").
func mergeEmpty(blocks []*Block) ([]*Block, bool) {
	changed := false
	byStart := make(map[int]*Block, len(blocks))
	for _, blk := range blocks {
		byStart[blk.Start] = blk
	}

	var out []*Block
	for _, blk := range blocks {
		if len(blk.Stmts) != 0 || blk.Unlock || blk.AltTransfer != 0 {
			out = append(out, blk)
			continue
		}
		// blk is a pure fallthrough: retarget every reference to
		// blk.Start at blk.Transfer instead, and drop blk.
		for _, other := range blocks {
			if other == blk {
				continue
			}
			if other.Transfer == blk.Start {
				other.Transfer = blk.Transfer
			}
			if other.AltTransfer == blk.Start {
				other.AltTransfer = blk.Transfer
			}
		}
		if blk.Closure != nil {
			if succ, ok := byStart[blk.Transfer]; ok {
				succ.Closure = blk.Closure
			}
		}
		changed = true
	}
	if !changed {
		return blocks, false
	}
	return out, true
}

// dropUnreferenced removes any non-closure-entry block whose label
// is not the target of a live Transfer/AltTransfer and is not
// implicitly addressed by a select/option statement (spec §4.6
// "including option/send-option/receive-option statement addresses
// as implicit references").
func dropUnreferenced(blocks []*Block) ([]*Block, bool) {
	used := make(map[int]bool, len(blocks))
	for _, blk := range blocks {
		if blk.Transfer != 0 {
			used[blk.Transfer] = true
		}
		if blk.AltTransfer != 0 {
			used[blk.AltTransfer] = true
		}
		for _, s := range blk.Stmts {
			if sel, ok := s.(*ast.Select); ok {
				markOptionTargets(sel, used)
			}
		}
	}

	var out []*Block
	changed := false
	for _, blk := range blocks {
		if blk.Closure == nil && !used[blk.Start] {
			changed = true
			continue
		}
		out = append(out, blk)
	}
	if !changed {
		return blocks, false
	}
	return out, true
}

// markOptionTargets is a placeholder hook: this pass does not yet
// synthesize a separate option-dispatch table with its own labels
// (the guard/execute blocks emitSelect opens are already ordinary
// Transfer/AltTransfer targets, so they are covered by the generic
// scan above). Kept so a future runtime table gains a single place
// to register any additional implicit reference it needs preserved.
func markOptionTargets(sel *ast.Select, used map[int]bool) {
	_ = sel
	_ = used
}
