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

import "github.com/loom-lang/loomc/compr"

// DumpSizeThreshold is the size in bytes above which a "+A"/"+B"/"+Z"
// diagnostic dump is zstd-compressed before being written out.
const DumpSizeThreshold = 64 * 1024

// CompressDump zstd-compresses data when it is larger than
// DumpSizeThreshold, returning the (possibly) compressed bytes and
// whether compression was applied. Small dumps are returned verbatim:
// compression overhead isn't worth it below the threshold, and leaving
// them uncompressed keeps "+A"/"+B" dumps human-readable in the common
// case of inspecting a single closure's blocks.
func CompressDump(data []byte) ([]byte, bool) {
	if len(data) <= DumpSizeThreshold {
		return data, false
	}
	c := compr.Compression("zstd")
	return c.Compress(data, nil), true
}
