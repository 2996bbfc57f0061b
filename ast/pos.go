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

// Package ast implements the typed, heterogeneous syntax tree
// shared by every stage of the loomc pipeline.
//
// Every node satisfies the Node interface and carries a
// monotonically increasing Seq assigned at construction, so
// that later stages (bind, check, gen) can attach side-tables
// keyed by node identity instead of mutating shared fields.
package ast

import "fmt"

// Pos is a source position used only for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int // byte offset into File's source buffer
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IDGen hands out strictly increasing node sequence numbers
// for one compilation unit. It is not safe for concurrent use;
// the compiler is single-threaded (spec §5).
type IDGen struct {
	next int64
}

func (g *IDGen) Next() int64 {
	g.next++
	return g.next
}
