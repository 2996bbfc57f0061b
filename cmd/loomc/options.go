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

// Command loomc compiles Loom source into a target-language file by
// driving parse/extract/bind/check/gen/flow/runtime/emit in order,
// stopping after any stage that records an error (spec §7). The
// command surface (spec §6) uses '+'/'-' prefixed options rather than
// the standard library's "-flag" convention, grounded directly on
// original_source/src/mec.cpp's compile(): an argument's first byte
// selects "on" ('+') or "off" ('-'), its second byte selects the
// option, and any remainder is the option's own argument (a file name
// for "C" and "O", a digit string for "T", a letter run for "L").
package main

import (
	"fmt"
	"strconv"
	"strings"
)

// options collects every compiler flag's current value, mirroring
// mec.cpp's scattered globals (drawAST, showBasicBlocks, ...) as one
// struct instead of package-level state, so a test can construct a
// fresh options per case.
type options struct {
	dumpAST     bool     // +A|-A
	dumpBlocks  bool     // +B|-B
	inlineFuncs []string // +Cf, may repeat
	dumpFuncs   bool     // +F|-F
	logParse    bool     // +LP
	logExtract  bool     // +LE
	logBind     bool     // +LB
	logCheck    bool     // +LC
	logGen      bool     // +LG
	outFile     string   // +Of
	runtimeDir  string   // +Pd
	runInProc   bool     // +R
	tracing     bool     // +Tn
	maxCycles   int      // +Tn's n, 0 = unlimited
	warnings    bool     // +W|-W
	dumpIR      bool     // +Z|-Z
}

// parseOption applies one '+'/'-' led argument to o. It reports an
// error for an unrecognized option letter instead of silently
// ignoring it, unlike mec.cpp's compile() which only logs to stderr
// and carries on; a malformed command line should stop the compiler
// before it burns a whole pipeline run on the wrong flags.
func (o *options) parseOption(arg string) error {
	if len(arg) < 2 {
		return fmt.Errorf("unknown option %q", arg)
	}
	on := arg[0] == '+'
	letter := arg[1]
	rest := arg[2:]
	switch letter {
	case 'a', 'A':
		o.dumpAST = on
	case 'b', 'B':
		o.dumpBlocks = on
	case 'c', 'C':
		if !on || rest == "" {
			return fmt.Errorf("+C requires a file name, e.g. +Cfuncs.c")
		}
		o.inlineFuncs = append(o.inlineFuncs, unquote(rest))
	case 'f', 'F':
		o.dumpFuncs = on
	case 'l', 'L':
		if on {
			for _, c := range strings.ToUpper(rest) {
				switch c {
				case 'P':
					o.logParse = true
				case 'E':
					o.logExtract = true
				case 'B':
					o.logBind = true
				case 'C':
					o.logCheck = true
				case 'G':
					o.logGen = true
				default:
					return fmt.Errorf("unknown +L suboption %q", string(c))
				}
			}
		}
	case 'o', 'O':
		if !on || rest == "" {
			return fmt.Errorf("+O requires a file name, e.g. +Oout.c")
		}
		o.outFile = unquote(rest)
	case 'p', 'P':
		if on {
			o.runtimeDir = rest
		}
	case 'r', 'R':
		o.runInProc = on
	case 't', 'T':
		o.tracing = on
		if on && rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil {
				return fmt.Errorf("unknown option %q: %q is not a decimal cycle count", arg, rest)
			}
			o.maxCycles = n
		}
	case 'w', 'W':
		o.warnings = on
	case 'z', 'Z':
		o.dumpIR = on
	default:
		return fmt.Errorf("unknown option %q", arg)
	}
	return nil
}

// unquote strips one matching pair of surrounding double quotes, the
// shape mec.cpp's "c == '\"'" branches accept for file names
// containing spaces.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func isOption(arg string) bool {
	return len(arg) > 0 && (arg[0] == '+' || arg[0] == '-')
}
