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

// Package clog is loomc's thin logging wrapper. The teacher's own
// go.mod carries no structured-logging dependency; it logs with
// plain fmt.Fprintf/log.Printf close to the CLI (see
// cmd/sneller/main.go). loomc follows the same convention instead
// of introducing a third-party logger that nothing in the example
// pack actually imports for its own binaries.
package clog

import (
	"log"
	"os"
)

var std = log.New(os.Stderr, "", 0)

// SetOutput redirects every level's destination.
func SetOutput(l *log.Logger) { std = l }

// Trace logs a stage trace line. It applies no gating itself; the
// CLI's stage tracing calls it only when +LP is on.
func Trace(format string, args ...interface{}) {
	std.Printf("trace: "+format, args...)
}

// Warn logs a protocol-conformance or other warning; it applies no
// gating itself.
func Warn(format string, args ...interface{}) {
	std.Printf("warning: "+format, args...)
}

// Dump logs a +A/+B/+F/+L* tree/table dump line.
func Dump(format string, args ...interface{}) {
	std.Printf(format, args...)
}
