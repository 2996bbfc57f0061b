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

package parse

import (
	"fmt"
	"strings"

	"github.com/loom-lang/loomc/ast"
)

// lexer turns source text into a flat token slice, grounded on
// scanner.cpp's single forward-scanning Scanner: identifiers/keywords,
// numbers, char/text literals with backslash escapes, line comments
// introduced by "#", and the fixed operator/punctuation set the
// grammar needs. It has no lookahead state of its own; Parser does
// all the lookahead over the resulting slice.
type lexer struct {
	file string
	src  []byte
	pos  int
	line int
	col  int
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1}
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%s:%d:%d: %s", l.file, l.line, l.col, fmt.Sprintf(format, args...))
}

func (l *lexer) here() ast.Pos {
	return ast.Pos{File: l.file, Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func isIdentStart(b byte) bool { return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isIdentCont(b byte) bool  { return isIdentStart(b) || (b >= '0' && b <= '9') }
func isDigit(b byte) bool      { return b >= '0' && b <= '9' }
func isSpace(b byte) bool      { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

// tokenize scans all of src, returning a token slice terminated by
// one EOF token.
func tokenize(file string, src []byte) ([]Token, error) {
	l := newLexer(file, src)
	var toks []Token
	for {
		l.skipTrivia()
		p := l.here()
		if l.pos >= len(l.src) {
			toks = append(toks, Token{Kind: EOF, Pos: p})
			return toks, nil
		}
		b := l.peekByte()
		switch {
		case isIdentStart(b):
			start := l.pos
			for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
				l.advance()
			}
			text := string(l.src[start:l.pos])
			kind := Ident
			if keywords[text] {
				kind = Keyword
			}
			toks = append(toks, Token{Kind: kind, Text: text, Pos: p})

		case isDigit(b):
			text, err := l.scanNumber()
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: Number, Text: text, Pos: p})

		case b == '\'':
			text, err := l.scanQuoted('\'')
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: CharLit, Text: text, Pos: p})

		case b == '"':
			text, err := l.scanQuoted('"')
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TextLit, Text: text, Pos: p})

		default:
			text, err := l.scanOperator()
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: Punct, Text: text, Pos: p})
		}
	}
}

// skipTrivia consumes whitespace and "#..." line comments, mirroring
// scanner.cpp's own treatment of '#' as the comment leader.
func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		b := l.peekByte()
		if isSpace(b) {
			l.advance()
			continue
		}
		if b == '#' {
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
			continue
		}
		return
	}
}

func (l *lexer) scanNumber() (string, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peekByte()) {
		l.advance()
	}
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.advance()
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		l.advance()
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.advance()
		}
		if isDigit(l.peekByte()) {
			for l.pos < len(l.src) && isDigit(l.peekByte()) {
				l.advance()
			}
		} else {
			l.pos = save
		}
	}
	return string(l.src[start:l.pos]), nil
}

// scanQuoted reads a ' or " delimited literal, decoding the backslash
// escapes \n, \t and \r; any other escaped character (including \\,
// \' and \") stands for itself, so \x is not a hex escape.
func (l *lexer) scanQuoted(term byte) (string, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf("unterminated literal")
		}
		b := l.peekByte()
		if b == term {
			l.advance()
			return sb.String(), nil
		}
		if b == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				return "", l.errorf("unterminated escape")
			}
			switch e := l.advance(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(e)
			default:
				sb.WriteByte(e)
			}
			continue
		}
		sb.WriteByte(l.advance())
	}
}

// operators in longest-match-first order; scanOperator falls back to
// a single-character token for bare punctuation.
var multiByteOps = []string{
	":=", "==", "!=", "<=", ">=", "<<", ">>", "->", "..",
}

func (l *lexer) scanOperator() (string, error) {
	for _, op := range multiByteOps {
		if l.hasPrefix(op) {
			for range op {
				l.advance()
			}
			return op, nil
		}
	}
	b := l.advance()
	switch b {
	case '+', '-', '*', '/', '%', '=', '<', '>', '(', ')', '{', '}', '[', ']',
		',', ';', ':', '.', '|', '?', '^', '!', '&':
		return string(b), nil
	default:
		return "", l.errorf("illegal character %q", b)
	}
}

func (l *lexer) hasPrefix(s string) bool {
	if l.pos+len(s) > len(l.src) {
		return false
	}
	return string(l.src[l.pos:l.pos+len(s)]) == s
}
