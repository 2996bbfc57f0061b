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

package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/loom-lang/loomc/ast"
)

// Render writes err's message followed by the offending source
// line and a caret at its column (spec §7 "Each diagnostic renders
// the offending source line with a caret at the column, then the
// text").
func Render(w io.Writer, err error, lines []string) {
	var at ast.Pos
	switch e := err.(type) {
	case *Fatal:
		at = e.At
	case *Warning:
		at = e.At
	default:
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintln(w, err.Error())
	if at.Line-1 < 0 || at.Line-1 >= len(lines) {
		return
	}
	line := lines[at.Line-1]
	fmt.Fprintln(w, line)
	col := at.Column - 1
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	fmt.Fprintln(w, strings.Repeat(" ", col)+"^")
}
