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

// Package runtime assembles the final target-language output by
// interleaving compiled block-list text with segments of a
// runtime-support template file (spec §6, Design Notes). The template
// format is unchanged from the original: named section markers of the
// form "//*X" (X a single uppercase letter) delimit fragments copied
// verbatim, and the template's first line carries a decimal version
// number checked against TemplateVersion. The fragile part — locating
// those markers textually in the output — is retained only as a
// parser; composing the final text is done by Writer feeding parsed
// fragments instead of seeking through a half-written file.
package runtime

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TemplateVersion is the decimal version number a runtime-support
// template's first line must declare. Bumped whenever a section
// marker is added, removed, or its expected content changes shape.
const TemplateVersion = 1

const markerPrefix = "//*"

// Template holds a parsed runtime-support file: the static text
// between consecutive "//*X" markers, keyed by the marker letter, plus
// Order recording the sequence the markers appeared in (a Writer walks
// Order, not the map, so output section order matches the template's).
type Template struct {
	Order    []byte
	Sections map[byte][]byte
}

// Parse reads a runtime-support template from r. The first line must
// be a decimal integer equal to TemplateVersion; anything else aborts
// with an error rather than silently emitting code against a
// runtime-support file the compiler was not built for.
func Parse(r io.Reader) (*Template, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !sc.Scan() {
		return nil, fmt.Errorf("runtime template: empty file, expected a version line")
	}
	version, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, fmt.Errorf("runtime template: first line must be a decimal version number: %w", err)
	}
	if version != TemplateVersion {
		return nil, fmt.Errorf("runtime template: version %d does not match compiler's expected version %d", version, TemplateVersion)
	}

	tmpl := &Template{Sections: make(map[byte][]byte)}
	var cur byte
	have := false
	var buf strings.Builder

	flush := func() {
		if have {
			tmpl.Sections[cur] = []byte(buf.String())
		}
		buf.Reset()
	}

	for sc.Scan() {
		line := sc.Text()
		if marker, ok := parseMarker(line); ok {
			flush()
			if _, dup := tmpl.Sections[marker]; dup {
				return nil, fmt.Errorf("runtime template: marker %q repeated", string(marker))
			}
			cur = marker
			have = true
			tmpl.Order = append(tmpl.Order, marker)
			continue
		}
		if have {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("runtime template: %w", err)
	}
	if len(tmpl.Order) == 0 {
		return nil, fmt.Errorf("runtime template: no \"//*X\" section markers found")
	}
	return tmpl, nil
}

// parseMarker reports whether line is exactly a "//*X" section marker
// and, if so, returns X.
func parseMarker(line string) (byte, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, markerPrefix) {
		return 0, false
	}
	rest := trimmed[len(markerPrefix):]
	if len(rest) != 1 || rest[0] < 'A' || rest[0] > 'Z' {
		return 0, false
	}
	return rest[0], true
}

// Section returns the static text of marker, or nil if the template
// has no such section.
func (t *Template) Section(marker byte) []byte { return t.Sections[marker] }
