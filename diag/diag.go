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

// Package diag implements the compiler's diagnostic model (spec
// §7): recoverable errors accumulate in a Bag so a stage can
// report more than one mistake per run, Throw errors unwind the
// current stage immediately, and Emergency marks an internal
// invariant violation that must never be guessed away.
package diag

import (
	"fmt"

	"github.com/loom-lang/loomc/ast"
)

// Fatal is a recoverable compile error: it increments the bag's
// error counter but does not stop the current stage's traversal
// (spec §7 "Recoverable").
type Fatal struct {
	At  ast.Pos
	Msg string
}

func (f *Fatal) Error() string {
	return fmt.Sprintf("%s: %s", f.At, f.Msg)
}

// Warning never increments the error counter (spec §7
// "Warnings do not increment the counter").
type Warning struct {
	At  ast.Pos
	Msg string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: warning: %s", w.At, w.Msg)
}

// Emergency names the offending node and method for an internal
// invariant violated during traversal (spec §7 "emergency stop").
type Emergency struct {
	NodeSeq int64
	Method  string
	Msg     string
}

func (e *Emergency) Error() string {
	return fmt.Sprintf("emergency stop: node #%d in %s: %s", e.NodeSeq, e.Method, e.Msg)
}

// abort is the sentinel panic value used to unwind a Throw; it is
// never allowed to escape Bag.Run, which recovers it.
type abort struct{ err error }

// Errorf records a recoverable Fatal at n's position.
func (b *Bag) Errorf(n ast.Node, format string, args ...interface{}) {
	b.errs = append(b.errs, &Fatal{At: n.Pos(), Msg: fmt.Sprintf(format, args...)})
}

// Warnf records a Warning; it never affects Bag.Failed.
func (b *Bag) Warnf(n ast.Node, format string, args ...interface{}) {
	if !b.warn {
		return
	}
	b.warnings = append(b.warnings, &Warning{At: n.Pos(), Msg: fmt.Sprintf(format, args...)})
}

// Throwf records a Fatal and unwinds the current Bag.Run call
// (spec §7 "Throw ... unwinds the current stage; useful for
// binding errors that would otherwise corrupt the tree").
func (b *Bag) Throwf(n ast.Node, format string, args ...interface{}) {
	err := &Fatal{At: n.Pos(), Msg: fmt.Sprintf(format, args...)}
	b.errs = append(b.errs, err)
	panic(abort{err})
}

// Panic raises an Emergency (an internal invariant violation); it always
// throws, regardless of Bag state, because the tree may now be
// inconsistent (spec §7).
func Panic(nodeSeq int64, method, msg string) {
	panic(abort{&Emergency{NodeSeq: nodeSeq, Method: method, Msg: msg}})
}

// Bag accumulates diagnostics for one compilation stage (spec §7;
// mirrors the teacher's Trace.err / checkwalk.errors accumulators
// in plan/pir/build.go and expr/check.go).
type Bag struct {
	errs     []error
	warnings []error
	warn     bool // +W: emit protocol-conformance and other warnings
}

func NewBag(emitWarnings bool) *Bag { return &Bag{warn: emitWarnings} }

// Failed reports whether any Fatal has been recorded (spec §7
// "if the counter is non-zero, subsequent stages are skipped").
func (b *Bag) Failed() bool { return len(b.errs) > 0 }

// Errors returns every recorded Fatal, in report order.
func (b *Bag) Errors() []error { return b.errs }

// Warnings returns every recorded Warning.
func (b *Bag) Warnings() []error { return b.warnings }

// Combine folds every Fatal into a single error, mirroring the
// teacher's (*Trace).combine in plan/pir/build.go.
func (b *Bag) Combine() error {
	switch len(b.errs) {
	case 0:
		return nil
	case 1:
		return b.errs[0]
	default:
		return fmt.Errorf("%w (and %d other errors)", b.errs[0], len(b.errs)-1)
	}
}

// Run executes fn, recovering an abort panic raised by Throwf or
// Panic so that a Throw unwinds only the current stage rather than
// the whole process (spec §7). Any other panic propagates.
func (b *Bag) Run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if a, ok := r.(abort); ok {
				err = a.err
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
