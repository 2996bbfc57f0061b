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

// Package lts builds labeled transition systems for protocols and
// process bodies and decides the refinement/conformance relation
// between them (spec §4.4). Construction is modeled directly on the
// teacher's regexp2.NFAStore: states are small integers private to
// one store, and transitions are adjacency lists keyed by state,
// generalized from regexp2's byte-range edges to Loom's
// field-labeled edges.
package lts

import "github.com/loom-lang/loomc/ast"

// State indexes a state within one LTS's private store.
type State int

// Label is either a concrete field transition or the wildcard
// introduced by the `?` protocol operator (spec §4.4 "The wildcard
// label represents a nondeterministic 'other' branch").
type Label struct {
	Field    *ast.Field
	Wildcard bool
}

func (l Label) matches(o Label) bool {
	if l.Wildcard || o.Wildcard {
		return false
	}
	if l.Field == nil || o.Field == nil {
		return l.Field == o.Field
	}
	return l.Field.Name == o.Field.Name
}

// Edge is one labeled transition to State To.
type Edge struct {
	Label Label
	To    State
}

// LTS is a labeled transition system: Start and Finish are the
// distinguished entry/exit states (spec glossary "LTS").
type LTS struct {
	n      int
	edges  map[State][]Edge
	eps    map[State][]State
	Start  State
	Finish State
}

func newLTS() *LTS {
	return &LTS{edges: make(map[State][]Edge), eps: make(map[State][]State)}
}

func (l *LTS) newState() State {
	s := State(l.n)
	l.n++
	return s
}

func (l *LTS) addEdge(from State, lbl Label, to State) {
	l.edges[from] = append(l.edges[from], Edge{Label: lbl, To: to})
}

func (l *LTS) addEps(from, to State) {
	l.eps[from] = append(l.eps[from], to)
}

// Edges returns the concrete (non-epsilon) transitions leaving s, in
// construction order.
func (l *LTS) Edges(s State) []Edge { return l.edges[s] }

// NumStates reports how many states l has.
func (l *LTS) NumStates() int { return l.n }
