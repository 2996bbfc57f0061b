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

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunSucceedsOnValidProgram(t *testing.T) {
	dir := withTempDir(t)
	mustWrite(t, filepath.Join(dir, "Main.e"), "process Worker() =\n\tx := 1;\nend\nstart Worker();\n")
	mustWrite(t, filepath.Join(dir, "runtime-support.tmpl"), pipelineTestTemplate)

	if code := run([]string{"Main"}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
}

func TestRunReturnsNonZeroForUnknownOption(t *testing.T) {
	dir := withTempDir(t)
	mustWrite(t, filepath.Join(dir, "Main.e"), "process Worker() = end\nstart Worker();\n")

	if code := run([]string{"+Q", "Main"}); code == 0 {
		t.Fatalf("run() = 0, want non-zero for an unknown option")
	}
}

func TestRunWithOnlyDumpFuncsNeedsNoSourceFile(t *testing.T) {
	if code := run([]string{"+F"}); code != 0 {
		t.Fatalf("run() = %d, want 0 for a bare +F with no compilation", code)
	}
}

func TestRunWithNoArgsReportsUsage(t *testing.T) {
	if code := run(nil); code == 0 {
		t.Fatalf("run() = 0, want non-zero for no arguments at all")
	}
}

func TestRunStripsUnitSuffix(t *testing.T) {
	dir := withTempDir(t)
	mustWrite(t, filepath.Join(dir, "Main.e"), "process Worker() = end\nstart Worker();\n")
	mustWrite(t, filepath.Join(dir, "runtime-support.tmpl"), pipelineTestTemplate)

	if code := run([]string{"Main.e"}); code != 0 {
		t.Fatalf("run() = %d, want 0 when the root is given with its .e suffix", code)
	}
	if _, err := os.Stat("Main.out"); err != nil {
		t.Fatalf("expected default output file Main.out to exist: %v", err)
	}
}
