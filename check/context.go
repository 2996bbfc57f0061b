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

package check

// context is the small thread-local record spec §4.3's CheckData
// carries through the walk, trimmed to the flags that change Go
// control flow (the type/name-set pieces are carried on the nodes
// themselves, via ast.TypedNode and bind's scope tables): loop
// legalizes Exit. A select option's guard is checked by the
// separate communicates scan, not through a flag here.
type context struct {
	loop bool
}
