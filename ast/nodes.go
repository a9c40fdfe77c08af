// Package ast holds the raw declaration and condition trees produced by the
// syntax layer and consumed by the analyzer.
package ast

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// File represents a parsed compilation unit
type File struct {
	Pos          lexer.Position
	Declarations []*Declaration `parser:"@@*"`
}

// Declaration is one top-level declaration. Exactly one field is set.
type Declaration struct {
	Pos       lexer.Position
	Ontology  *OntologyDecl  `parser:"  @@"`
	Agent     *AgentDecl     `parser:"| @@"`
	Behaviour *BehaviourDecl `parser:"| @@"`
}

// Name returns the declared name
func (d *Declaration) Name() string {
	switch {
	case d.Ontology != nil:
		return d.Ontology.Name
	case d.Agent != nil:
		return d.Agent.Name
	case d.Behaviour != nil:
		return d.Behaviour.Name
	default:
		return ""
	}
}

// Keyword returns the keyword introducing the declaration
func (d *Declaration) Keyword() string {
	switch {
	case d.Ontology != nil:
		return "ontology"
	case d.Agent != nil:
		return "agent"
	case d.Behaviour != nil:
		return "behaviour"
	default:
		return ""
	}
}

// OntologyDecl declares an ontology and its elements
type OntologyDecl struct {
	Pos      lexer.Position
	Name     string             `parser:"'ontology' @Ident"`
	Extends  *TypeRef           `parser:"('extends' @@)?"`
	Elements []*OntologyElement `parser:"('{' @@* '}')?"`
}

// OntologyElement is a concept, predicate, action or proposition
type OntologyElement struct {
	Pos     lexer.Position
	Kind    string   `parser:"@('concept' | 'predicate' | 'action' | 'proposition')"`
	Name    string   `parser:"@Ident"`
	Fields  []*Field `parser:"('(' (@@ (',' @@)*)? ')')?"`
	Extends *TypeRef `parser:"('extends' @@)?"`
}

// Field is a named, typed slot of an ontology element
type Field struct {
	Pos  lexer.Position
	Name string   `parser:"@Ident 'as'"`
	Type *TypeRef `parser:"@@"`
}

// AgentDecl declares an agent type
type AgentDecl struct {
	Pos     lexer.Position
	Name    string     `parser:"'agent' @Ident"`
	Extends *TypeRef   `parser:"('extends' @@)?"`
	Uses    []*TypeRef `parser:"('uses' 'ontology' @@ (',' @@)*)?"`
	Members []*Member  `parser:"('{' @@* '}')?"`
}

// BehaviourDecl declares a top-level behaviour
type BehaviourDecl struct {
	Pos      lexer.Position
	Flavour  string     `parser:"@('cyclic' | 'oneshot')?"`
	Name     string     `parser:"'behaviour' @Ident"`
	Extends  *TypeRef   `parser:"('extends' @@)?"`
	ForAgent *TypeRef   `parser:"('for' 'agent' @@)?"`
	Uses     []*TypeRef `parser:"('uses' 'ontology' @@ (',' @@)*)?"`
	Members  []*Member  `parser:"('{' @@* '}')?"`
}

// Member is a property or an event handler of an agent or behaviour
type Member struct {
	Pos      lexer.Position
	Property *Property `parser:"  @@"`
	Handler  *Handler  `parser:"| @@"`
}

// Property declares a typed member
type Property struct {
	Pos  lexer.Position
	Name string   `parser:"'property' @Ident 'as'"`
	Type *TypeRef `parser:"@@"`
}

// Handler is an event handler such as "on create" or "on message"
type Handler struct {
	Pos   lexer.Position
	Event string     `parser:"'on' @('create' | 'execute' | 'message' | 'destroy' | 'percept')"`
	When  *Condition `parser:"('when' @@)?"`
	Body  []*Stmt    `parser:"('{' @@* '}')?"`
}

// Stmt is a statement inside a handler body
type Stmt struct {
	Pos   lexer.Position
	Var   *VarStmt   `parser:"  @@"`
	If    *IfStmt    `parser:"| @@"`
	Check *CheckStmt `parser:"| @@"`
}

// VarStmt declares a local variable
type VarStmt struct {
	Pos  lexer.Position
	Name string   `parser:"'var' @Ident 'as'"`
	Type *TypeRef `parser:"@@"`
}

// IfStmt is a conditional with an optional else branch
type IfStmt struct {
	Pos  lexer.Position
	Cond *Condition `parser:"'if' @@"`
	Then []*Stmt    `parser:"'{' @@* '}'"`
	Else []*Stmt    `parser:"('else' '{' @@* '}')?"`
}

// CheckStmt evaluates a condition for its narrowing effect only
type CheckStmt struct {
	Pos  lexer.Position
	Cond *Condition `parser:"'check' @@"`
}

// TypeRef is a raw, unresolved type reference. Exactly one field is set.
type TypeRef struct {
	Pos  lexer.Position
	List *TypeRef `parser:"  'list' 'of' @@"`
	Set  *TypeRef `parser:"| 'set' 'of' @@"`
	Map  *MapRef  `parser:"| @@"`
	Name string   `parser:"| @Ident"`
}

// MapRef is the key/value pair of a map type reference
type MapRef struct {
	Pos   lexer.Position
	Key   *TypeRef `parser:"'map' 'of' @@"`
	Value *TypeRef `parser:"'to' @@"`
}

// Named builds a simple type reference, mostly for tests and built-in wiring
func Named(name string) *TypeRef {
	return &TypeRef{Name: name}
}

// Key returns a canonical, unambiguous form used for memoization.
// References that differ only in position share a key.
func (r *TypeRef) Key() string {
	if r == nil {
		return ""
	}
	switch {
	case r.List != nil:
		return "list(" + r.List.Key() + ")"
	case r.Set != nil:
		return "set(" + r.Set.Key() + ")"
	case r.Map != nil:
		return "map(" + r.Map.Key.Key() + "," + r.Map.Value.Key() + ")"
	default:
		return r.Name
	}
}

// String renders the reference in source form
func (r *TypeRef) String() string {
	if r == nil {
		return "<nil>"
	}
	switch {
	case r.List != nil:
		return "list of " + r.List.String()
	case r.Set != nil:
		return "set of " + r.Set.String()
	case r.Map != nil:
		return "map of " + r.Map.Key.String() + " to " + r.Map.Value.String()
	default:
		return r.Name
	}
}

// Condition is a disjunction of conjunctions
type Condition struct {
	Pos lexer.Position
	Or  []*Conjunction `parser:"@@ ('or' @@)*"`
}

// Conjunction is a sequence of operands joined by "and"
type Conjunction struct {
	Pos lexer.Position
	And []*Operand `parser:"@@ ('and' @@)*"`
}

// Operand is a parenthesized condition or a (possibly type-checked) path
type Operand struct {
	Pos   lexer.Position
	Group *Condition `parser:"  '(' @@ ')'"`
	Check *Check     `parser:"| @@"`
}

// Check is a property access with an optional "is Type" test
type Check struct {
	Pos  lexer.Position
	Path *Path    `parser:"@@"`
	Type *TypeRef `parser:"('is' @@)?"`
}

// Path is a dotted field-access chain such as msg.content.sender
type Path struct {
	Pos      lexer.Position
	Segments []string `parser:"@Ident ('.' @Ident)*"`
}

// String renders the path in source form
func (p *Path) String() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.Segments, ".")
}
