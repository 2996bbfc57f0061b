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

	"github.com/google/uuid"

	"github.com/loom-lang/loomc/ast"
	"github.com/loom-lang/loomc/bind"
	"github.com/loom-lang/loomc/check"
	"github.com/loom-lang/loomc/diag"
	"github.com/loom-lang/loomc/emit"
	"github.com/loom-lang/loomc/extract"
	"github.com/loom-lang/loomc/flow"
	"github.com/loom-lang/loomc/gen"
	"github.com/loom-lang/loomc/internal/clog"
	"github.com/loom-lang/loomc/parse"
	"github.com/loom-lang/loomc/runtime"
)

// defaultRuntimeTemplate is the runtime-support template file read
// when neither "+Pd" nor loom.yaml's runtimeTemplate names one,
// mirroring mec.cpp's "prelude.cpp" default (spec §6 Design Notes).
const defaultRuntimeTemplate = "runtime-support.tmpl"

// compileUnit runs the full pipeline over the translation unit rooted
// at root (spec §2's stage order: parse, extract, bind, check, gen,
// flow, emit), stopping after any stage that records a Fatal (spec §7
// "if the counter is non-zero, subsequent stages are skipped"). It
// writes dumps for whichever of +A/+B/+F/+L*/+Z were requested and,
// unless +R was given, writes the composed target-language file.
func compileUnit(root string, o *options, m *manifest) error {
	fmt.Fprintf(os.Stderr, "Root = %s\n", root)

	if o.dumpFuncs {
		clog.Dump("%s", dumpFuncTables())
	}

	unit, err := loadUnit(root, m.SearchRoots)
	if err != nil {
		return err
	}
	src := concatUnit(unit)

	bag := diag.NewBag(o.warnings)
	idgen := &ast.IDGen{}
	prog, err := parse.Parse(root, src, bag, idgen)
	if err != nil {
		return reportAndStop(bag, src, err)
	}
	traceStage(o.logParse, "parsed %d top-level definitions", len(prog.Defs))
	if o.logParse {
		clog.Dump("AST after parsing:\n%s", treeDump(prog))
	}
	if o.dumpAST {
		if err := dumpBytes(root+".ast", []byte(treeDump(prog))); err != nil {
			return err
		}
	}
	if bag.Failed() {
		return stageFailed(bag, src, "parse")
	}

	ext := extract.New(bag)
	if err := ext.Run(prog); err != nil {
		return reportAndStop(bag, src, err)
	}
	if o.logExtract {
		clog.Dump("AST after extraction:\n%s", treeDump(prog))
	}
	if bag.Failed() {
		return stageFailed(bag, src, "extract")
	}

	binder := bind.New(bag)
	if err := binder.Bind(prog); err != nil {
		return reportAndStop(bag, src, err)
	}
	if o.logBind {
		clog.Dump("AST after binding:\n%s", treeDump(prog))
	}
	if bag.Failed() {
		return stageFailed(bag, src, "bind")
	}

	checker := check.New(bag)
	if err := checker.Check(prog); err != nil {
		return reportAndStop(bag, src, err)
	}
	if o.logCheck {
		clog.Dump("AST after check:\n%s", treeDump(prog))
	}
	if bag.Failed() {
		return stageFailed(bag, src, "check")
	}
	if o.warnings {
		for _, w := range bag.Warnings() {
			fmt.Fprintln(os.Stderr, w)
		}
	}

	buildID := uuid.New().String()
	genPass := gen.New(buildID)
	genPass.Run(prog)
	if o.logGen {
		clog.Dump("AST after gen (build %s):\n%s", buildID, treeDump(prog))
	}

	blocks := flow.Build(prog)
	if o.dumpBlocks {
		if err := dumpBytes(root+".blocks", []byte(dumpBlockList(blocks))); err != nil {
			return err
		}
	}
	if o.dumpIR {
		if err := dumpBytes(root+".ir", []byte(lowLevelDump(blocks))); err != nil {
			return err
		}
	}

	if o.tracing {
		fmt.Fprintln(os.Stderr, runtime.TraceHeader(buildID))
	}

	if o.runInProc {
		// spec §6 "+R compile and execute in-process (skips textual
		// emission)": loomc has no in-process VM for the emitted
		// target language (out of scope, see DESIGN.md), so +R
		// still runs the full pipeline above for its diagnostics but
		// stops short of emission rather than faking execution.
		fmt.Fprintln(os.Stderr, "+R: in-process execution is not supported by this build; compilation completed with no output file")
		return nil
	}

	tmplPath := o.runtimeDir
	if tmplPath == "" {
		tmplPath = m.RuntimeTemplate
	}
	if tmplPath == "" {
		tmplPath = defaultRuntimeTemplate
	}
	tf, err := os.Open(tmplPath)
	if err != nil {
		return fmt.Errorf("failed to open runtime-support template %q: %w", tmplPath, err)
	}
	defer tf.Close()
	tmpl, err := runtime.Parse(tf)
	if err != nil {
		return err
	}
	w := runtime.NewWriter(tmpl)
	for _, f := range o.inlineFuncs {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("+C: %w", err)
		}
		w.Feed('H', []byte(fmt.Sprintf("// Function definitions from %q\n", f)))
		w.Feed('H', data)
	}

	outPath := o.outFile
	if outPath == "" {
		outPath = root + ".out"
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := emit.Program(out, w, blocks); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	return nil
}

// stageFailed reports every diagnostic in bag (spec §7 "recoverable,
// added to an error counter; compilation continues so additional
// errors can be reported") and returns the sentinel error that stops
// the pipeline after stage.
func stageFailed(bag *diag.Bag, src []byte, stage string) error {
	lines := strings.Split(string(src), "\n")
	for _, e := range bag.Errors() {
		diag.Render(os.Stderr, e, lines)
	}
	return fmt.Errorf("%s: %d error(s)", stage, len(bag.Errors()))
}

// reportAndStop renders a Throw-severity error (spec §7) the same way
// as an accumulated one, then returns it so main can set the process
// exit code.
func reportAndStop(bag *diag.Bag, src []byte, err error) error {
	lines := strings.Split(string(src), "\n")
	diag.Render(os.Stderr, err, lines)
	for _, e := range bag.Errors() {
		if e == err {
			continue
		}
		diag.Render(os.Stderr, e, lines)
	}
	return err
}

// lowLevelDump renders the "+Z" low-level intermediate code dump:
// one line per block's raw statement list, textually emitted exactly
// as emit.Block would but without the runtime template wrapped
// around it, for inspecting gen/flow's output in isolation.
func lowLevelDump(blocks []*flow.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		emit.Block(&sb, b)
	}
	return sb.String()
}
