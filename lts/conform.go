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

// Conforms decides the refinement relation of spec §4.4: server
// conforms to protocol iff there is an injection m from protocol's
// states into server's states with m(protocol.Start) = server.Start,
// m(protocol.Finish) = server.Finish, and for every labeled
// transition p1 -a-> p2 in protocol whose label is not the wildcard,
// m(p1) -a-> m(p2) exists in server. Decision is depth-first
// state-pair extension with backtracking.
//
// Per SPEC_FULL §6.4/§12 (Open Question #2), the wildcard label
// never contributes a free transition on the server side: it is
// simply never required, it is never permitted to match an
// unvalidated server transition either.
func Conforms(server, protocol *LTS) bool {
	mapping := make(map[State]State)
	used := make(map[State]bool)
	mapping[protocol.Start] = server.Start
	used[server.Start] = true
	if !extend(server, protocol, protocol.Start, mapping, used) {
		return false
	}
	fin, ok := mapping[protocol.Finish]
	return ok && fin == server.Finish
}

func extend(server, protocol *LTS, p State, mapping map[State]State, used map[State]bool) bool {
	sp := mapping[p]
	for _, pe := range protocol.Edges(p) {
		if pe.Label.Wildcard {
			continue
		}
		to, found := matchEdge(server, sp, pe.Label)
		if !found {
			return false
		}
		if existing, ok := mapping[pe.To]; ok {
			if existing != to {
				return false
			}
			continue
		}
		if used[to] {
			return false
		}
		mapping[pe.To] = to
		used[to] = true
		if !extend(server, protocol, pe.To, mapping, used) {
			return false
		}
	}
	return true
}

// matchEdge finds the (unique, by construction) server transition
// from sp carrying the same field label as lbl.
func matchEdge(server *LTS, sp State, lbl Label) (State, bool) {
	for _, se := range server.Edges(sp) {
		if se.Label.matches(lbl) {
			return se.To, true
		}
	}
	return 0, false
}
