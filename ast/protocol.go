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

package ast

// ProtocolDef names a protocol expression so it can be referenced
// from a port declaration (spec glossary "Protocol").
type ProtocolDef struct {
	base
	Name   string
	Body   Node // a protocol operator tree, rooted at *Seq/*Alt/*Star/*Plus/*Opt/*Field
	Fields []*Field // all field declarations reachable from Body, in document order
}

func (p *ProtocolDef) walkChildren(v Visitor)    { Walk(v, p.Body) }
func (p *ProtocolDef) rewriteChildren(r Rewriter) Node {
	p.Body = Rewrite(r, p.Body)
	return p
}

// Field declares a single named message (spec §3 "Field
// declaration (query field; reply field marked with caret)").
// A Field with Type == nil is a signal (spec glossary "Field").
type Field struct {
	base
	Name    string
	Type    *Type
	IsReply bool // caret-marked

	// FieldNum is the representative index after gen's tie-ring
	// resolution (spec §4.5, realized via ast.FieldSet).
	FieldNum int
	tieIndex int // index into the owning Program's FieldSet; -1 until assigned
}

func (f *Field) walkChildren(v Visitor)          {}
func (f *Field) rewriteChildren(r Rewriter) Node { return f }

// TieIndex/SetTieIndex let gen and bind record this field's slot
// in the program-wide union-find structure that replaces the
// original cyclic tie-ring (spec §9 Design Notes).
func (f *Field) TieIndex() int        { return f.tieIndex }
func (f *Field) SetTieIndex(i int)    { f.tieIndex = i }

// protocol operator nodes (spec §3 "Protocol operators").

type ProtoSeq struct {
	base
	Elems []Node
}

func (s *ProtoSeq) walkChildren(v Visitor) {
	for _, e := range s.Elems {
		Walk(v, e)
	}
}
func (s *ProtoSeq) rewriteChildren(r Rewriter) Node {
	for i, e := range s.Elems {
		s.Elems[i] = Rewrite(r, e)
	}
	return s
}

type ProtoAlt struct {
	base
	Branches []Node
}

func (a *ProtoAlt) walkChildren(v Visitor) {
	for _, b := range a.Branches {
		Walk(v, b)
	}
}
func (a *ProtoAlt) rewriteChildren(r Rewriter) Node {
	for i, b := range a.Branches {
		a.Branches[i] = Rewrite(r, b)
	}
	return a
}

type ProtoOpt struct {
	base
	Elem Node
}

func (o *ProtoOpt) walkChildren(v Visitor) { Walk(v, o.Elem) }
func (o *ProtoOpt) rewriteChildren(r Rewriter) Node {
	o.Elem = Rewrite(r, o.Elem)
	return o
}

type ProtoStar struct {
	base
	Elem Node
}

func (s *ProtoStar) walkChildren(v Visitor) { Walk(v, s.Elem) }
func (s *ProtoStar) rewriteChildren(r Rewriter) Node {
	s.Elem = Rewrite(r, s.Elem)
	return s
}

type ProtoPlus struct {
	base
	Elem Node
}

func (p *ProtoPlus) walkChildren(v Visitor) { Walk(v, p.Elem) }
func (p *ProtoPlus) rewriteChildren(r Rewriter) Node {
	p.Elem = Rewrite(r, p.Elem)
	return p
}
