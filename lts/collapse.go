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

package lts

// Collapse eliminates epsilon edges by merging their endpoints into
// one equivalence class via union-find (spec §4.4 "after
// construction, epsilon-edges are eliminated by equivalence-class
// merging of their endpoints"), mirroring the closure computation in
// the teacher's autom.Nfa2Dfa subset construction, simplified: Loom
// protocols need no general subset construction because every
// non-epsilon transition is already deterministic by construction
// (one label per field at a given state).
func Collapse(l *LTS) *LTS {
	parent := make([]int, l.n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}
	for from, tos := range l.eps {
		for _, to := range tos {
			union(int(from), int(to))
		}
	}

	out := newLTS()
	remap := make(map[int]State)
	repOf := func(i int) State {
		r := find(i)
		s, ok := remap[r]
		if !ok {
			s = out.newState()
			remap[r] = s
		}
		return s
	}
	for from, edges := range l.edges {
		nf := repOf(int(from))
		for _, e := range edges {
			nt := repOf(int(e.To))
			out.addEdge(nf, e.Label, nt)
		}
	}
	out.Start = repOf(int(l.Start))
	out.Finish = repOf(int(l.Finish))
	return out
}
