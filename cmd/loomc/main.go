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
	"fmt"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run drives argument processing the way mec.cpp's own main loop
// does: walk argv left to right, letting each "+X"/"-X" token mutate
// the shared options in place and each bare token name a root file to
// compile immediately with whatever options are in effect at that
// point, rather than parsing the whole line before acting on any of
// it. It returns the process exit code instead of calling os.Exit
// directly so tests can drive it without terminating the test binary.
func run(args []string) int {
	m, err := loadManifest()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	o := &options{}
	failed := false
	compiled := false

	for _, arg := range args {
		if isOption(arg) {
			if err := o.parseOption(arg); err != nil {
				fmt.Fprintln(os.Stderr, err)
				failed = true
			}
			continue
		}
		compiled = true
		root := stripUnitSuffix(arg)
		if err := compileUnit(root, o, m); err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
		}
	}

	if !compiled && o.dumpFuncs {
		// "+F" may be given with no source file at all, mirroring
		// mec.cpp's showFuncs branch firing independently of whether
		// a root was also named on the line; compileUnit never ran to
		// print it, so do it here instead.
		fmt.Print(dumpFuncTables())
		return 0
	}
	if !compiled {
		fmt.Fprintln(os.Stderr, "usage: loomc [+-option ...] root ...")
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

// stripUnitSuffix drops a literal ".e" or ".tex" suffix from a root
// argument, so "loomc foo.e" and "loomc foo" resolve the same unit
// (mec.cpp accepts both spellings on its command line).
func stripUnitSuffix(root string) string {
	root = strings.TrimSuffix(root, ".tex")
	root = strings.TrimSuffix(root, ".e")
	return root
}
