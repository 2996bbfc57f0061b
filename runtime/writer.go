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

package runtime

import "io"

// Writer composes a Template's static sections with generated code fed
// in by the code generator, in the order the template's markers
// appeared. A code generator calls Feed once per marker it has
// generated text for (typically the section that documents where
// process/procedure bodies belong); markers the generator never feeds
// are emitted with only their static template text.
type Writer struct {
	tmpl *Template
	fed  map[byte][]byte
}

// NewWriter returns a Writer over tmpl with no fed sections yet.
func NewWriter(tmpl *Template) *Writer {
	return &Writer{tmpl: tmpl, fed: make(map[byte][]byte)}
}

// Feed appends generated text after marker's static template content.
// Calling Feed more than once for the same marker appends in call
// order, so a code generator may feed one closure's emitted block list
// at a time as it finishes each one.
func (w *Writer) Feed(marker byte, text []byte) {
	w.fed[marker] = append(w.fed[marker], text...)
}

// WriteTo writes every section in the template's marker order,
// immediately followed by whatever was fed for that marker, to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	var total int64
	for _, marker := range w.tmpl.Order {
		n, err := out.Write(w.tmpl.Sections[marker])
		total += int64(n)
		if err != nil {
			return total, err
		}
		if fed, ok := w.fed[marker]; ok {
			n, err = out.Write(fed)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}
