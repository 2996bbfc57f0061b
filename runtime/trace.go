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

package runtime

import (
	"fmt"
	"strings"

	"golang.org/x/sys/cpu"
)

// TraceHeader returns the "+T" trace output's leading diagnostic line:
// the build ID under compilation and the host's detected SIMD feature
// set. Purely informational — nothing in the compiler branches on it.
func TraceHeader(buildID string) string {
	var feats []string
	if cpu.X86.HasAVX2 {
		feats = append(feats, "avx2")
	}
	if cpu.X86.HasAVX512 {
		feats = append(feats, "avx512")
	}
	if cpu.ARM64.HasASIMD {
		feats = append(feats, "asimd")
	}
	if len(feats) == 0 {
		feats = append(feats, "none")
	}
	return fmt.Sprintf("build %s host-features=%s", buildID, strings.Join(feats, ","))
}
