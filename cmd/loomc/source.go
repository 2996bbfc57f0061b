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
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// unwrapLiterate extracts the lines between "\begin{code}" and
// "\end{code}" markers from a literate ".tex" source, discarding
// everything else, so the rest of the pipeline never has to know the
// envelope existed. Grounded on original_source/src/mec.cpp's
// extract(): a two-state (skipping/copying) line scan, not a general
// LaTeX parser.
func unwrapLiterate(src []byte) []byte {
	var out bytes.Buffer
	copying := false
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case !copying && strings.HasPrefix(line, `\begin{code}`):
			copying = true
		case copying && strings.HasPrefix(line, `\end{code}`):
			copying = false
		case copying:
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.Bytes()
}

// sourceFile is one file contributing to a translation unit: its path
// as resolved on disk and its (already literate-unwrapped, if needed)
// text.
type sourceFile struct {
	path string
	text []byte
}

// loadUnit resolves root the way original_source/src/mec.cpp's
// readFiles does: root.e if present, else root.tex run through
// unwrapLiterate, recursing into every "import Name;" statement found
// at the start of a line before the importing file itself is
// appended — so files list in the dependency order the original
// scanner needed (imports fully read before the file that imports
// them).
//
// Cycle detection hashes each resolved file's raw content with
// blake2b instead of comparing paths: two import statements that
// resolve to the same file through different relative paths (or a
// root re-imported under a different search root once loom.yaml
// search roots are in play) must still be caught as the same file.
func loadUnit(root string, roots []string) ([]sourceFile, error) {
	l := &loader{
		roots: roots,
		seen:  make(map[[32]byte]bool),
		stack: make(map[[32]byte]string),
	}
	if err := l.load(root); err != nil {
		return nil, err
	}
	return l.files, nil
}

type loader struct {
	roots []string
	files []sourceFile
	seen  map[[32]byte]bool   // fully loaded files, by content hash
	stack map[[32]byte]string // files currently being loaded, for cycle detection
}

func (l *loader) load(root string) error {
	path, text, err := l.readRoot(root)
	if err != nil {
		return err
	}
	hash := blake2b.Sum256(text)
	if l.seen[hash] {
		return nil // already fully loaded via another import path
	}
	if prior, onStack := l.stack[hash]; onStack {
		return fmt.Errorf("import cycle: %q imports back to %q", path, prior)
	}
	l.stack[hash] = path
	defer delete(l.stack, hash)

	for _, imp := range findImports(text) {
		if err := l.load(imp); err != nil {
			return err
		}
	}

	l.seen[hash] = true
	l.files = append(l.files, sourceFile{path: path, text: text})
	return nil
}

// readRoot loads root.e if it exists in any search root, else
// root.tex run through unwrapLiterate, mirroring readFiles' own
// .e-then-.tex fallback.
func (l *loader) readRoot(root string) (path string, text []byte, err error) {
	for _, dir := range l.searchDirs() {
		efn := joinRoot(dir, root+".e")
		if data, err := os.ReadFile(efn); err == nil {
			return efn, data, nil
		}
	}
	for _, dir := range l.searchDirs() {
		tfn := joinRoot(dir, root+".tex")
		if data, err := os.ReadFile(tfn); err == nil {
			return tfn, unwrapLiterate(data), nil
		}
	}
	return "", nil, fmt.Errorf("failed to open either %q or %q", root+".e", root+".tex")
}

func (l *loader) searchDirs() []string {
	if len(l.roots) == 0 {
		return []string{""}
	}
	return l.roots
}

func joinRoot(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + string(os.PathSeparator) + name
}

// findImports scans text for "import Name, Name2;" statements
// appearing as the first non-blank token of a line, mirroring
// mec.cpp's checkFile: a hand-rolled comma list terminated by ';',
// not a general statement parse (the real parser parses this syntax
// again properly once all files are concatenated into one token
// stream).
func findImports(text []byte) []string {
	var out []string
	for _, line := range strings.Split(string(text), "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "import") {
			continue
		}
		rest := trimmed[len("import"):]
		semi := strings.IndexByte(rest, ';')
		if semi < 0 {
			continue
		}
		for _, name := range strings.Split(rest[:semi], ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// concatUnit joins every file in a resolved unit (imports first, the
// root file last, per loadUnit's dependency order) into one source
// buffer handed to a single parse.Parse call — mirroring mec.cpp's
// own flat "list<Token> tokens" built by scanning every resolved
// file in turn before one Parser::parseProgram() call runs over all
// of them. Positions inside the result are reported against the root
// file name; per-import-file positions are a finer grain than the
// original tracked too (its Scanner tagged every token with its own
// source file, which parse.Parse's single file-name parameter does
// not currently preserve across a concatenated unit — see DESIGN.md).
func concatUnit(files []sourceFile) []byte {
	var out bytes.Buffer
	for _, f := range files {
		out.Write(f.text)
		out.WriteByte('\n')
	}
	return out.Bytes()
}
