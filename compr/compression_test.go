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

package compr

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestZstd(t *testing.T) {
	comp := Compression("zstd")
	if _, ok := comp.(zstdCompressor); !ok {
		t.Fatalf("bad compressor for zstd: %T", comp)
	} else if n := comp.Name(); n != "zstd" {
		t.Fatalf("bad compressor name %q", n)
	}

	src := bytes.Repeat([]byte("foo"), 1000)
	cmp := comp.Compress(src, nil)

	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	got, err := dec.DecodeAll(cmp, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, src) {
		t.Error("mismatch")
	}
}

func TestCompressionUnknownNameReturnsNil(t *testing.T) {
	if c := Compression("s2"); c != nil {
		t.Fatalf("Compression(%q) = %v, want nil", "s2", c)
	}
}
