package types

import (
	"fmt"

	"github.com/jadescript/jadescript-go/ast"
	"github.com/jadescript/jadescript-go/lazy"
)

// CollectionKind distinguishes list, set and map collections
type CollectionKind int

const (
	ListCollection CollectionKind = iota
	SetCollection
	MapCollection
)

// CollectionType is a parameterized list, set or map type
type CollectionType struct {
	base
	Collection CollectionKind
	Key        Type // map key type, nil otherwise
	Elem       Type // element or map value type
}

func newCollection(kind CollectionKind, key, elem Type) *CollectionType {
	var name string
	switch kind {
	case ListCollection:
		name = "list of " + elem.String()
	case SetCollection:
		name = "set of " + elem.String()
	default:
		name = "map of " + key.String() + " to " + elem.String()
	}
	t := &CollectionType{
		base:       base{name: name, kind: KindCollection, super: noSupertype()},
		Collection: kind,
		Key:        key,
		Elem:       elem,
	}
	t.ns = lazy.Of(newNamespace(t, Member{Name: "size", Type: Integer, Kind: MemberBuiltin}))
	return t
}

// ID identifies the collection through its parameters' identities
func (t *CollectionType) ID() string {
	switch t.Collection {
	case ListCollection:
		return "list(" + t.Elem.ID() + ")"
	case SetCollection:
		return "set(" + t.Elem.ID() + ")"
	default:
		return "map(" + t.Key.ID() + "," + t.Elem.ID() + ")"
	}
}

// UserDefinedAgentType is an agent declared in source
type UserDefinedAgentType struct {
	base
	Decl       *ast.AgentDecl
	ontologies *lazy.Value[[]Type]
}

func newUserAgent(s *Solver, decl *ast.AgentDecl) *UserDefinedAgentType {
	t := &UserDefinedAgentType{
		base: base{name: decl.Name, kind: KindAgent},
		Decl: decl,
	}
	t.super = lazy.New(func() (Type, error) {
		if decl.Extends == nil {
			return Agent, nil
		}
		return s.resolveKind(decl.Extends, KindAgent, Agent), nil
	})
	t.ns = lazy.New(func() (*Namespace, error) {
		return newNamespace(t, s.properties(decl.Members)...), nil
	})
	t.ontologies = lazy.New(func() ([]Type, error) {
		return s.resolveOntologies(decl.Uses), nil
	})
	return t
}

// SuperAgentType returns the explicit supertype, or the root Agent type
// when none is declared or the declared one is not an agent.
func (t *UserDefinedAgentType) SuperAgentType() Type {
	return t.super.MustGet()
}

// UsedOntologies returns the ontologies of the "uses ontology" clause that
// resolved to ontology types, in declaration order.
func (t *UserDefinedAgentType) UsedOntologies() []Type {
	return t.ontologies.MustGet()
}

// OntologyType is an ontology declared in source
type OntologyType struct {
	base
	Decl *ast.OntologyDecl
}

func newOntology(s *Solver, decl *ast.OntologyDecl) *OntologyType {
	t := &OntologyType{
		base: base{name: decl.Name, kind: KindOntology},
		Decl: decl,
	}
	t.super = lazy.New(func() (Type, error) {
		if decl.Extends == nil {
			return Ontology, nil
		}
		return s.resolveKind(decl.Extends, KindOntology, Ontology), nil
	})
	t.ns = lazy.New(func() (*Namespace, error) {
		members := make([]Member, 0, len(decl.Elements))
		for _, el := range decl.Elements {
			elType, err := s.ResolveName(el.Name)
			if err != nil {
				return nil, err
			}
			members = append(members, Member{Name: el.Name, Type: elType, Kind: MemberElement})
		}
		return newNamespace(t, members...), nil
	})
	return t
}

// SuperOntologyType returns the explicit supertype or the root Ontology
func (t *OntologyType) SuperOntologyType() Type {
	return t.super.MustGet()
}

// OntologyElementType is a concept, predicate, action or proposition
// declared inside an ontology.
type OntologyElementType struct {
	base
	Decl     *ast.OntologyElement
	Category Type // Concept, Predicate, Action or Proposition
	owner    string
	solver   *Solver
}

func newOntologyElement(s *Solver, owner *ast.OntologyDecl, decl *ast.OntologyElement) *OntologyElementType {
	root := elementRoot(decl.Kind)
	t := &OntologyElementType{
		base:     base{name: decl.Name, kind: KindOntologyElement},
		Decl:     decl,
		Category: root,
		owner:    owner.Name,
		solver:   s,
	}
	t.super = lazy.New(func() (Type, error) {
		if decl.Extends == nil {
			return root, nil
		}
		return s.resolveKind(decl.Extends, KindOntologyElement, root), nil
	})
	t.ns = lazy.New(func() (*Namespace, error) {
		members := make([]Member, 0, len(decl.Fields))
		for _, f := range decl.Fields {
			members = append(members, Member{Name: f.Name, Type: s.ResolvePermissive(f.Type, nil), Kind: MemberField})
		}
		return newNamespace(t, members...), nil
	})
	return t
}

// Ontology returns the ontology declaring this element
func (t *OntologyElementType) Ontology() (Type, error) {
	return t.solver.ResolveName(t.owner)
}

// BehaviourType is a behaviour declared in source
type BehaviourType struct {
	base
	Decl       *ast.BehaviourDecl
	forAgent   *lazy.Value[Type]
	ontologies *lazy.Value[[]Type]
}

func newBehaviour(s *Solver, decl *ast.BehaviourDecl) *BehaviourType {
	root := behaviourRoot(decl.Flavour)
	t := &BehaviourType{
		base: base{name: decl.Name, kind: KindBehaviour},
		Decl: decl,
	}
	t.super = lazy.New(func() (Type, error) {
		if decl.Extends == nil {
			return root, nil
		}
		return s.resolveKind(decl.Extends, KindBehaviour, root), nil
	})
	t.ns = lazy.New(func() (*Namespace, error) {
		return newNamespace(t, s.properties(decl.Members)...), nil
	})
	t.forAgent = lazy.New(func() (Type, error) {
		if decl.ForAgent == nil {
			return Agent, nil
		}
		return s.resolveKind(decl.ForAgent, KindAgent, Agent), nil
	})
	t.ontologies = lazy.New(func() ([]Type, error) {
		return s.resolveOntologies(decl.Uses), nil
	})
	return t
}

// SuperBehaviourType returns the explicit supertype or the flavour's root
func (t *BehaviourType) SuperBehaviourType() Type {
	return t.super.MustGet()
}

// ForAgentType returns the agent named in the "for agent" clause, or the
// root Agent type.
func (t *BehaviourType) ForAgentType() Type {
	return t.forAgent.MustGet()
}

// UsedOntologies returns the resolved ontologies of the "uses" clause
func (t *BehaviourType) UsedOntologies() []Type {
	return t.ontologies.MustGet()
}

// Placeholder stands in for a declaration that is missing or erroneous.
// It keeps the analyzer total; asking it for members or supertypes fails.
type Placeholder struct {
	base
}

// NewPlaceholder creates a placeholder named after the missing reference
func NewPlaceholder(name string) *Placeholder {
	t := &Placeholder{base: base{name: name, kind: KindPlaceholder}}
	err := fmt.Errorf("%w: %s", ErrUninitializedDeclaration, name)
	t.ns = lazy.New(func() (*Namespace, error) { return nil, err })
	t.super = lazy.New(func() (Type, error) { return nil, err })
	return t
}
