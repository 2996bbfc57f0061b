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
	"bytes"
	"strings"
	"testing"
)

const sampleTemplate = "1\n" +
	"//*H\n" +
	"#include <runtime.h>\n" +
	"//*P\n" +
	"// process declarations go here\n" +
	"//*M\n" +
	"int main() {\n" +
	"  scheduler_run();\n" +
	"}\n"

func TestParseTemplateOrderAndSections(t *testing.T) {
	tmpl, err := Parse(strings.NewReader(sampleTemplate))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := string(tmpl.Order), "HPM"; got != want {
		t.Fatalf("marker order = %q, want %q", got, want)
	}
	if !bytes.Contains(tmpl.Section('H'), []byte("runtime.h")) {
		t.Fatalf("section H missing its static content: %q", tmpl.Section('H'))
	}
	if !bytes.Contains(tmpl.Section('M'), []byte("scheduler_run")) {
		t.Fatalf("section M missing its static content: %q", tmpl.Section('M'))
	}
}

func TestParseTemplateRejectsWrongVersion(t *testing.T) {
	bad := "99\n//*H\nfoo\n"
	if _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected an error for a mismatched version line")
	}
}

func TestParseTemplateRejectsMissingMarkers(t *testing.T) {
	bad := "1\njust some text with no markers\n"
	if _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected an error for a template with no section markers")
	}
}

func TestWriterInterleavesFedCode(t *testing.T) {
	tmpl, err := Parse(strings.NewReader(sampleTemplate))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	w := NewWriter(tmpl)
	w.Feed('P', []byte("class Worker { /* generated */ };\n"))

	var out bytes.Buffer
	if _, err := w.WriteTo(&out); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	text := out.String()
	hIdx := strings.Index(text, "runtime.h")
	pIdx := strings.Index(text, "process declarations")
	genIdx := strings.Index(text, "generated")
	mIdx := strings.Index(text, "scheduler_run")
	if hIdx < 0 || pIdx < 0 || genIdx < 0 || mIdx < 0 {
		t.Fatalf("expected all sections and fed text present, got: %q", text)
	}
	if !(hIdx < pIdx && pIdx < genIdx && genIdx < mIdx) {
		t.Fatalf("expected H, then P's static text, then fed code, then M, in order; got: %q", text)
	}
}

func TestWriterOmitsFeedForUnfedMarkers(t *testing.T) {
	tmpl, err := Parse(strings.NewReader(sampleTemplate))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	w := NewWriter(tmpl)

	var out bytes.Buffer
	if _, err := w.WriteTo(&out); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	want := "#include <runtime.h>\n" +
		"// process declarations go here\n" +
		"int main() {\n" +
		"  scheduler_run();\n" +
		"}\n"
	if out.String() != want {
		t.Fatalf("with nothing fed, output should equal the template's static text verbatim (markers stripped), got %q", out.String())
	}
}

func TestTraceHeaderIncludesBuildID(t *testing.T) {
	h := TraceHeader("abc-123")
	if !strings.Contains(h, "abc-123") {
		t.Fatalf("expected trace header to include the build ID, got %q", h)
	}
}

func TestCompressDumpLeavesSmallDumpsAlone(t *testing.T) {
	small := []byte("a small dump")
	out, compressed := CompressDump(small)
	if compressed {
		t.Fatalf("a dump under the threshold must not be compressed")
	}
	if !bytes.Equal(out, small) {
		t.Fatalf("uncompressed dump must be returned verbatim")
	}
}

func TestCompressDumpCompressesLargeDumps(t *testing.T) {
	large := bytes.Repeat([]byte("x"), DumpSizeThreshold+1)
	out, compressed := CompressDump(large)
	if !compressed {
		t.Fatalf("a dump over the threshold must be compressed")
	}
	if bytes.Equal(out, large) {
		t.Fatalf("compressed output should differ from the highly-repetitive input")
	}
}
