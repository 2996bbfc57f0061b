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

// Package parse implements the lexical scanner and recursive-descent
// parser that the rest of loomc treats as an external collaborator
// (spec §1): it turns Loom source text into an *ast.Program. Grounded
// on original_source/src/scanner.cpp (keyword table, character
// classification) and original_source/src/parser.cpp (recursive-
// descent structure, one parseX per grammar production).
package parse

import "github.com/loom-lang/loomc/ast"

// Kind classifies a Token. The keyword kinds mirror scanner.cpp's
// KW_* enumerators; operators and punctuation are collapsed to the
// literal they spell since loomc's grammar never needs to tell two
// single-character punctuation tokens apart by anything but text.
type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	CharLit
	TextLit
	Keyword
	Punct
)

// Token is one lexeme: its Kind, the exact text scanned (the
// keyword/operator spelling, the identifier name, or the literal's
// unescaped value), and its source Pos.
type Token struct {
	Kind Kind
	Text string
	Pos  ast.Pos
}

func (t Token) is(kind Kind, text string) bool { return t.Kind == kind && t.Text == text }

// keywords mirrors Scanner::Scanner's keyword table in scanner.cpp.
// Two spellings map to one logical keyword the same way "Bool" and
// "Boolean" both scan as KW_BOOL there.
var keywords = map[string]bool{
	"Bool": true, "Boolean": true, "Byte": true, "Decimal": true,
	"enum": true, "enumeration": true, "Float": true,
	"Int": true, "Integer": true, "Char": true, "Character": true,
	"Text": true, "InputFile": true, "OutputFile": true, "Void": true,
	"unsigned": true, "array": true, "map": true, "iterator": true, "of": true,

	"alias": true, "and": true, "any": true, "cases": true, "cell": true,
	"channel": true, "client": true, "constant": true, "copy": true,
	"div": true, "do": true, "domain": true,
	"elif": true, "else": true, "end": true, "exit": true, "extern": true,
	"fair": true, "false": true, "finish": true, "for": true,
	"if": true, "import": true, "in": true,
	"key": true, "loop": true, "mod": true, "not": true,
	"or": true, "ordered": true,
	"procedure": true, "process": true, "protocol": true,
	"random": true, "range": true, "rem": true,
	"select": true, "server": true, "share": true, "skip": true,
	"start": true, "step": true, "such": true,
	"that": true, "then": true, "thread": true, "to": true, "true": true,
	"value": true, "while": true, "indexes": true, "case": true, "remove": true,
}

// typeKeywords are the keyword spellings that name a scalar Kind
// directly, used by Parser.parseType.
var typeKeywords = map[string]ast.Kind{
	"Bool": ast.KBool, "Boolean": ast.KBool,
	"Byte": ast.KByte,
	"Int":  ast.KInt, "Integer": ast.KInt,
	"Float": ast.KFloat, "Decimal": ast.KDecimal,
	"Char": ast.KChar, "Character": ast.KChar,
	"Text": ast.KText, "Void": ast.KVoid,
	"InputFile": ast.KFile, "OutputFile": ast.KFile,
}
