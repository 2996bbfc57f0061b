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

package emit

import (
	"io"
	"strings"

	"github.com/loom-lang/loomc/flow"
	"github.com/loom-lang/loomc/runtime"
)

// StepFunctionMarker is the runtime-support template section the
// compiled switch-on-program-counter body is fed into (spec §6
// "Output"; the runtime-support file documents which of its "//*X"
// sections is the process step function).
const StepFunctionMarker = 'P'

// Program renders every block in order and feeds the result into w
// under StepFunctionMarker, then writes the fully composed output
// (template sections interleaved with generated code) to out.
func Program(out io.Writer, w *runtime.Writer, blocks []*flow.Block) (int64, error) {
	var text strings.Builder
	for _, b := range blocks {
		Block(&text, b)
	}
	w.Feed(StepFunctionMarker, []byte(text.String()))
	return w.WriteTo(out)
}
