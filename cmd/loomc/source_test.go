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
	"strings"
	"testing"
)

func TestUnwrapLiterateKeepsOnlyCodeBlocks(t *testing.T) {
	src := "intro text\n" +
		"\\begin{code}\n" +
		"process P() = end\n" +
		"\\end{code}\n" +
		"more prose\n" +
		"\\begin{code}\n" +
		"start P();\n" +
		"\\end{code}\n"
	got := string(unwrapLiterate([]byte(src)))
	want := "process P() = end\nstart P();\n"
	if got != want {
		t.Fatalf("unwrapLiterate = %q, want %q", got, want)
	}
}

func TestFindImportsParsesCommaList(t *testing.T) {
	src := "import Queue, Buffer;\nprocess P() = end\n"
	got := findImports([]byte(src))
	want := []string{"Queue", "Buffer"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("findImports = %v, want %v", got, want)
	}
}

func TestFindImportsIgnoresNonLeadingImport(t *testing.T) {
	src := "-- see import Foo; in a comment, not a real import\nprocess P() = end\n"
	got := findImports([]byte(src))
	if len(got) != 0 {
		t.Fatalf("findImports = %v, want none (the line doesn't start with import)", got)
	}
}

func TestLoadUnitResolvesImportsBeforeRoot(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "Queue.e"), "process Queue() = end\n")
	mustWrite(t, filepath.Join(dir, "Main.e"), "import Queue;\nprocess Main() = end\n")

	files, err := loadUnit("Main", []string{dir})
	if err != nil {
		t.Fatalf("loadUnit: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if !strings.HasSuffix(files[0].path, "Queue.e") {
		t.Fatalf("files[0] = %s, want Queue.e to load before the importing file", files[0].path)
	}
	if !strings.HasSuffix(files[1].path, "Main.e") {
		t.Fatalf("files[1] = %s, want Main.e last", files[1].path)
	}
}

func TestLoadUnitDetectsImportCycle(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "A.e"), "import B;\nprocess A() = end\n")
	mustWrite(t, filepath.Join(dir, "B.e"), "import A;\nprocess B() = end\n")

	if _, err := loadUnit("A", []string{dir}); err == nil {
		t.Fatalf("expected an import cycle error")
	}
}

func TestLoadUnitFallsBackToLiterateTex(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "Main.tex"), "prose\n\\begin{code}\nprocess Main() = end\n\\end{code}\n")

	files, err := loadUnit("Main", []string{dir})
	if err != nil {
		t.Fatalf("loadUnit: %v", err)
	}
	if len(files) != 1 || string(files[0].text) != "process Main() = end\n" {
		t.Fatalf("got %v", files)
	}
}

func TestConcatUnitJoinsInOrderWithSeparatingNewlines(t *testing.T) {
	files := []sourceFile{
		{path: "a", text: []byte("a-text")},
		{path: "b", text: []byte("b-text")},
	}
	got := string(concatUnit(files))
	want := "a-text\nb-text\n"
	if got != want {
		t.Fatalf("concatUnit = %q, want %q", got, want)
	}
}

func mustWrite(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
