// Package types provides the semantic type model for Jadescript and the
// solver that maps raw type references onto it.
package types

import (
	"github.com/jadescript/jadescript-go/lazy"
)

// Kind is the family a type belongs to
type Kind int

const (
	// KindBasic covers primitive built-ins such as integer and text
	KindBasic Kind = iota
	// KindCollection covers list, set and map types
	KindCollection
	// KindAgent covers the root agent type and user agents
	KindAgent
	// KindOntology covers the root ontology type and user ontologies
	KindOntology
	// KindOntologyElement covers concepts, predicates, actions and propositions
	KindOntologyElement
	// KindBehaviour covers behaviour roots and user behaviours
	KindBehaviour
	// KindPlaceholder marks a stand-in for a missing or erroneous declaration
	KindPlaceholder
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindCollection:
		return "collection"
	case KindAgent:
		return "agent"
	case KindOntology:
		return "ontology"
	case KindOntologyElement:
		return "element"
	case KindBehaviour:
		return "behaviour"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Type is a semantic type. The set of implementations is closed:
// *BuiltinType, *CollectionType, *UserDefinedAgentType, *OntologyType,
// *OntologyElementType, *BehaviourType and *Placeholder.
type Type interface {
	// Name is the declared or built-in name
	Name() string
	// Kind is the type family
	Kind() Kind
	// ID is unique among the types of one solver plus the built-ins
	ID() string
	// String renders the type in source form
	String() string
	// Namespace returns the members visible on values of this type
	Namespace() (*Namespace, error)
	// Supertype returns the direct supertype, if any
	Supertype() (Type, bool, error)

	isType()
}

// base carries the fields every type node shares. Namespace and supertype
// are computed at most once.
type base struct {
	name  string
	kind  Kind
	ns    *lazy.Value[*Namespace]
	super *lazy.Value[Type]
}

func (b *base) Name() string   { return b.name }
func (b *base) Kind() Kind     { return b.kind }
func (b *base) ID() string     { return b.kind.String() + ":" + b.name }
func (b *base) String() string { return b.name }
func (*base) isType()          {}

func (b *base) Namespace() (*Namespace, error) {
	return b.ns.Get()
}

func (b *base) Supertype() (Type, bool, error) {
	t, err := b.super.Get()
	if err != nil {
		return nil, false, err
	}
	return t, t != nil, nil
}

func noSupertype() *lazy.Value[Type] {
	return lazy.Of[Type](nil)
}

func fixedSupertype(t Type) *lazy.Value[Type] {
	return lazy.Of(t)
}

// IsPlaceholder reports whether t is a stand-in for a missing declaration
func IsPlaceholder(t Type) bool {
	_, ok := t.(*Placeholder)
	return ok
}
