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

import "testing"

func TestParseOptionTogglesBooleans(t *testing.T) {
	o := &options{}
	if err := o.parseOption("+A"); err != nil {
		t.Fatalf("+A: %v", err)
	}
	if !o.dumpAST {
		t.Fatalf("+A should set dumpAST")
	}
	if err := o.parseOption("-A"); err != nil {
		t.Fatalf("-A: %v", err)
	}
	if o.dumpAST {
		t.Fatalf("-A should clear dumpAST")
	}
}

func TestParseOptionLSuboptionsAreCaseInsensitive(t *testing.T) {
	o := &options{}
	if err := o.parseOption("+Lpebcg"); err != nil {
		t.Fatalf("+Lpebcg: %v", err)
	}
	if !(o.logParse && o.logExtract && o.logBind && o.logCheck && o.logGen) {
		t.Fatalf("expected every +L suboption set, got %+v", o)
	}
}

func TestParseOptionLRejectsUnknownSuboption(t *testing.T) {
	o := &options{}
	if err := o.parseOption("+Lx"); err == nil {
		t.Fatalf("expected an error for an unknown +L suboption")
	}
}

func TestParseOptionOutputFileQuoted(t *testing.T) {
	o := &options{}
	if err := o.parseOption(`+O"with space.c"`); err != nil {
		t.Fatalf("+O: %v", err)
	}
	if o.outFile != "with space.c" {
		t.Fatalf("outFile = %q, want %q", o.outFile, "with space.c")
	}
}

func TestParseOptionCRequiresFileName(t *testing.T) {
	o := &options{}
	if err := o.parseOption("+C"); err == nil {
		t.Fatalf("expected an error when +C has no file name")
	}
	if err := o.parseOption("-Cfoo.c"); err == nil {
		t.Fatalf("expected an error for -C (inlining cannot be turned off per file)")
	}
}

func TestParseOptionCAccumulates(t *testing.T) {
	o := &options{}
	if err := o.parseOption("+Ca.c"); err != nil {
		t.Fatalf("+Ca.c: %v", err)
	}
	if err := o.parseOption("+Cb.c"); err != nil {
		t.Fatalf("+Cb.c: %v", err)
	}
	if len(o.inlineFuncs) != 2 || o.inlineFuncs[0] != "a.c" || o.inlineFuncs[1] != "b.c" {
		t.Fatalf("inlineFuncs = %v, want [a.c b.c]", o.inlineFuncs)
	}
}

func TestParseOptionTWithCycleCount(t *testing.T) {
	o := &options{}
	if err := o.parseOption("+T25"); err != nil {
		t.Fatalf("+T25: %v", err)
	}
	if !o.tracing || o.maxCycles != 25 {
		t.Fatalf("tracing=%v maxCycles=%d, want true 25", o.tracing, o.maxCycles)
	}
}

func TestParseOptionTWithoutCountLeavesMaxCyclesZero(t *testing.T) {
	o := &options{}
	if err := o.parseOption("+T"); err != nil {
		t.Fatalf("+T: %v", err)
	}
	if !o.tracing || o.maxCycles != 0 {
		t.Fatalf("tracing=%v maxCycles=%d, want true 0", o.tracing, o.maxCycles)
	}
}

func TestParseOptionRejectsUnknownLetter(t *testing.T) {
	o := &options{}
	if err := o.parseOption("+Q"); err == nil {
		t.Fatalf("expected an error for an unknown option letter")
	}
}

func TestIsOption(t *testing.T) {
	cases := map[string]bool{
		"+A": true, "-Z": true, "foo.e": false, "": false,
	}
	for arg, want := range cases {
		if got := isOption(arg); got != want {
			t.Fatalf("isOption(%q) = %v, want %v", arg, got, want)
		}
	}
}
