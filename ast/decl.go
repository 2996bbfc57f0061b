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

// Role is a port's participation role (spec §3 invariant 3).
type Role int

const (
	RoleChannel Role = iota
	RoleClient
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleChannel:
		return "channel"
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return "role?"
	}
}

// Program is the root node: a list of top-level definitions plus
// the cell instantiation that starts execution.
type Program struct {
	base
	Defs  []Node // *Cell, *Process, *Procedure, *Thread, *ExternalRoutine, *ProtocolDef, *Constant
	Start *CellInst

	// Fields is the program-wide tie-ring replacement (spec §9
	// Design Notes): every protocol field declaration is allocated
	// a slot here, and instance matching (spec §4.3) unions slots
	// across matched ports instead of splicing a cyclic ring.
	Fields FieldSet

	scopeTable // name -> def within this file scope
}

func NewProgram(g *IDGen, p Pos) *Program {
	pr := &Program{base: newBase(g, p)}
	pr.scopeTable.init()
	return pr
}

func (pr *Program) Outer() Scoped { return nil }

func (pr *Program) walkChildren(v Visitor) {
	for _, d := range pr.Defs {
		Walk(v, d)
	}
	Walk(v, pr.Start)
}

func (pr *Program) rewriteChildren(r Rewriter) Node {
	for i, d := range pr.Defs {
		pr.Defs[i] = Rewrite(r, d)
	}
	if pr.Start != nil {
		pr.Start = Rewrite(r, pr.Start).(*CellInst)
	}
	return pr
}

// scopeTable is embedded by every Scoped node; it holds the set
// of defining occurrences introduced directly in this scope,
// keyed by name (spec §4.2, §4.3 "Duplicate-name check").
type scopeTable struct {
	names map[string]Node
}

func (s *scopeTable) init() { s.names = make(map[string]Node) }

// Declare records name -> def in this scope. It returns the
// previous definition (non-nil) if name was already declared,
// so the caller (bind) can raise a duplicate-name diagnostic.
func (s *scopeTable) Declare(name string, def Node) (prior Node) {
	if s.names == nil {
		s.init()
	}
	prior = s.names[name]
	if prior == nil {
		s.names[name] = def
	}
	return prior
}

// LookUp returns the definition bound to name directly in this
// scope, or nil.
func (s *scopeTable) LookUp(name string) Node {
	if s.names == nil {
		return nil
	}
	return s.names[name]
}

// Param is a formal parameter of a cell, process, procedure, or
// thread: either a port (with a Role and a protocol Type) or a
// plain value parameter.
type Param struct {
	base
	Name     string
	Type     *Type // for value params, or the protocol type for ports
	Role     Role
	IsPort   bool
	Alias    bool // spec §4.3 "alias parameter forces its argument to be a name"
	ownerDef Node
}

func (p *Param) walkChildren(v Visitor)        {}
func (p *Param) rewriteChildren(r Rewriter) Node { return p }

// Cell aggregates ports and sub-instances (spec glossary "Cell").
type Cell struct {
	base
	Name    string
	Params  []*Param
	Body    []Node // []*CellInst plus internal channel declarations
	outer   Scoped
	scopeTable
	ClosureName string // set by gen (spec §4.5)
}

func NewCell(g *IDGen, p Pos, outer Scoped, name string) *Cell {
	c := &Cell{base: newBase(g, p), Name: name, outer: outer}
	c.scopeTable.init()
	return c
}

func (c *Cell) Outer() Scoped { return c.outer }

func (c *Cell) walkChildren(v Visitor) {
	for _, p := range c.Params {
		Walk(v, p)
	}
	for _, b := range c.Body {
		Walk(v, b)
	}
}

func (c *Cell) rewriteChildren(r Rewriter) Node {
	for i, p := range c.Params {
		c.Params[i] = Rewrite(r, p).(*Param)
	}
	for i, b := range c.Body {
		c.Body[i] = Rewrite(r, b)
	}
	return c
}

// Process is a stateful behavioral unit (spec glossary "Process").
type Process struct {
	base
	Name        string
	Params      []*Param
	Body        []Node // statements
	outer       Scoped
	scopeTable
	ClosureName string
}

func NewProcess(g *IDGen, p Pos, outer Scoped, name string) *Process {
	pr := &Process{base: newBase(g, p), Name: name, outer: outer}
	pr.scopeTable.init()
	return pr
}

func (p *Process) Outer() Scoped { return p.outer }

func (p *Process) walkChildren(v Visitor) {
	for _, pa := range p.Params {
		Walk(v, pa)
	}
	for _, s := range p.Body {
		Walk(v, s)
	}
}

func (p *Process) rewriteChildren(r Rewriter) Node {
	for i, pa := range p.Params {
		p.Params[i] = Rewrite(r, pa).(*Param)
	}
	for i, s := range p.Body {
		p.Body[i] = Rewrite(r, s)
	}
	return p
}

// Procedure is a stateless routine: like Process but never
// suspends at a cooperative boundary (spec glossary "Procedure").
type Procedure struct {
	base
	Name        string
	Params      []*Param
	Ret         *Type
	Body        []Node
	outer       Scoped
	scopeTable
	ClosureName string
}

func NewProcedure(g *IDGen, p Pos, outer Scoped, name string) *Procedure {
	pr := &Procedure{base: newBase(g, p), Name: name, outer: outer}
	pr.scopeTable.init()
	return pr
}

func (p *Procedure) Outer() Scoped { return p.outer }

func (p *Procedure) walkChildren(v Visitor) {
	for _, pa := range p.Params {
		Walk(v, pa)
	}
	for _, s := range p.Body {
		Walk(v, s)
	}
}

func (p *Procedure) rewriteChildren(r Rewriter) Node {
	for i, pa := range p.Params {
		p.Params[i] = Rewrite(r, pa).(*Param)
	}
	for i, s := range p.Body {
		p.Body[i] = Rewrite(r, s)
	}
	return p
}

// Thread owns a dedicated channel and completes when its
// caller's stop block runs (spec glossary "Thread").
type Thread struct {
	base
	Name        string
	In, Out     []*Param
	Channel     *Param
	Body        []Node
	outer       Scoped
	scopeTable
	ClosureName string
}

func NewThread(g *IDGen, p Pos, outer Scoped, name string) *Thread {
	t := &Thread{base: newBase(g, p), Name: name, outer: outer}
	t.scopeTable.init()
	return t
}

func (t *Thread) Outer() Scoped { return t.outer }

func (t *Thread) walkChildren(v Visitor) {
	for _, pa := range t.In {
		Walk(v, pa)
	}
	for _, pa := range t.Out {
		Walk(v, pa)
	}
	for _, s := range t.Body {
		Walk(v, s)
	}
}

func (t *Thread) rewriteChildren(r Rewriter) Node {
	for i, pa := range t.In {
		t.In[i] = Rewrite(r, pa).(*Param)
	}
	for i, pa := range t.Out {
		t.Out[i] = Rewrite(r, pa).(*Param)
	}
	for i, s := range t.Body {
		t.Body[i] = Rewrite(r, s)
	}
	return t
}

// ExternalRoutine is a stub for a target-language function that
// loomc does not define a body for; its name may stay unbound
// until call-site resolution (spec §4.2 "try-bind").
type ExternalRoutine struct {
	base
	Name   string
	Params []*Type
	Ret    *Type
}

func (e *ExternalRoutine) walkChildren(v Visitor)          {}
func (e *ExternalRoutine) rewriteChildren(r Rewriter) Node { return e }

// Constant is a pervasive, read-only process-wide value (spec
// §5(c), §7 supplemented features): its initializer must be
// foldable at check time.
type Constant struct {
	base
	Name    string
	Type    *Type
	Init    Node // expression
	Folded  Node // literal, set by check once folding succeeds
}

func (c *Constant) walkChildren(v Visitor) { Walk(v, c.Init) }

func (c *Constant) rewriteChildren(r Rewriter) Node {
	c.Init = Rewrite(r, c.Init)
	return c
}

// EnumDecl declares an enumeration type and its ordered values
// (spec §3 "enumeration").
type EnumDecl struct {
	base
	Name     string
	Values   []string
	ValueDef []*EnumValue
	outer    Scoped
	scopeTable
}

func NewEnumDecl(g *IDGen, p Pos, outer Scoped, name string) *EnumDecl {
	e := &EnumDecl{base: newBase(g, p), Name: name, outer: outer}
	e.scopeTable.init()
	return e
}

func (e *EnumDecl) Outer() Scoped             { return e.outer }
func (e *EnumDecl) walkChildren(v Visitor)    {}
func (e *EnumDecl) Underlying() *Type         { return &Type{Kind: KEnum, Enum: e} }
func (e *EnumDecl) rewriteChildren(r Rewriter) Node { return e }

// EnumValue is the defining occurrence of one enumeration value
// (spec §4.2 "Definition nodes pass a pointer to themselves as the
// new chain head ... so enumeration value names ... see the
// enclosing definition"). It is never produced by the parser for
// any other declaration kind; EnumDecl synthesizes one per name in
// Values during bind.
type EnumValue struct {
	base
	Name  string
	Index int
	Owner *EnumDecl
}

func (v *EnumValue) walkChildren(Visitor)            {}
func (v *EnumValue) rewriteChildren(Rewriter) Node { return v }

// CellInst instantiates a cell or process at program scope
// (spec §3 "cell instantiation").
type CellInst struct {
	base
	Target string
	Def    Node // resolved *Cell or *Process, set by bind
	Args   []Node
}

func (c *CellInst) walkChildren(v Visitor) {
	for _, a := range c.Args {
		Walk(v, a)
	}
}

func (c *CellInst) rewriteChildren(r Rewriter) Node {
	for i, a := range c.Args {
		c.Args[i] = Rewrite(r, a)
	}
	return c
}
