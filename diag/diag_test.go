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

package diag

import (
	"errors"
	"strings"
	"testing"

	"github.com/loom-lang/loomc/ast"
)

func TestBagAccumulatesRecoverableErrors(t *testing.T) {
	b := NewBag(false)
	n := &testNode{pos: ast.Pos{Line: 1, Column: 1}}
	b.Errorf(n, "first problem")
	b.Errorf(n, "second problem")

	if !b.Failed() {
		t.Fatalf("Bag should be Failed after two Errorf calls")
	}
	if len(b.Errors()) != 2 {
		t.Fatalf("got %d errors, want 2", len(b.Errors()))
	}
	combined := b.Combine()
	if !strings.Contains(combined.Error(), "and 1 other errors") {
		t.Fatalf("Combine() = %q, want it to mention the suppressed error", combined.Error())
	}
}

func TestWarningsNeverFail(t *testing.T) {
	b := NewBag(true)
	n := &testNode{pos: ast.Pos{Line: 1, Column: 1}}
	b.Warnf(n, "suspicious but not fatal")
	if b.Failed() {
		t.Fatalf("a Warning must never mark the Bag as Failed")
	}
	if len(b.Warnings()) != 1 {
		t.Fatalf("got %d warnings, want 1", len(b.Warnings()))
	}
}

func TestWarningsSuppressedWithoutFlag(t *testing.T) {
	b := NewBag(false)
	n := &testNode{pos: ast.Pos{Line: 1, Column: 1}}
	b.Warnf(n, "suppressed")
	if len(b.Warnings()) != 0 {
		t.Fatalf("warnings should be suppressed when emitWarnings is false")
	}
}

func TestThrowUnwindsOnlyCurrentStage(t *testing.T) {
	b := NewBag(false)
	n := &testNode{pos: ast.Pos{Line: 2, Column: 3}}
	ran := false
	err := b.Run(func() {
		b.Throwf(n, "binding would corrupt the tree")
		ran = true // must never execute
	})
	if ran {
		t.Fatalf("code after Throwf executed; Throw must unwind immediately")
	}
	if err == nil {
		t.Fatalf("Run should return the thrown error")
	}
	var fe *Fatal
	if !errors.As(err, &fe) {
		t.Fatalf("Run returned %T, want *Fatal", err)
	}
}

func TestEmergencyPanicsWithNodeContext(t *testing.T) {
	b := NewBag(false)
	err := b.Run(func() {
		Panic(42, "check.Visit", "unexpected node kind")
	})
	var em *Emergency
	if !errors.As(err, &em) {
		t.Fatalf("Run returned %T, want *Emergency", err)
	}
	if em.NodeSeq != 42 || em.Method != "check.Visit" {
		t.Fatalf("Emergency lost node context: %+v", em)
	}
}

// testNode is a minimal ast.Node for diag tests.
type testNode struct{ pos ast.Pos }

func (t *testNode) Pos() ast.Pos    { return t.pos }
func (t *testNode) SeqNum() int64   { return 0 }
