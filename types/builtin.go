package types

import (
	"sort"

	"github.com/jadescript/jadescript-go/lazy"
)

// BuiltinType is a type provided by the agent runtime library. Built-ins
// are process-wide singletons shared by every solver.
type BuiltinType struct {
	base
}

func newBuiltin(name string, kind Kind, super Type, members func() []Member) *BuiltinType {
	t := &BuiltinType{base: base{name: name, kind: kind}}
	if super == nil {
		t.super = noSupertype()
	} else {
		t.super = fixedSupertype(super)
	}
	t.ns = lazy.New(func() (*Namespace, error) {
		var ms []Member
		if members != nil {
			ms = members()
		}
		return newNamespace(t, ms...), nil
	})
	return t
}

// Basic types
var (
	Integer      = newBuiltin("integer", KindBasic, nil, nil)
	Real         = newBuiltin("real", KindBasic, nil, nil)
	Boolean      = newBuiltin("boolean", KindBasic, nil, nil)
	Duration     = newBuiltin("duration", KindBasic, nil, nil)
	Timestamp    = newBuiltin("timestamp", KindBasic, nil, nil)
	Performative = newBuiltin("performative", KindBasic, nil, nil)
	Any          = newBuiltin("any", KindBasic, nil, nil)

	Text = newBuiltin("text", KindBasic, nil, func() []Member {
		return []Member{{Name: "length", Type: Integer, Kind: MemberBuiltin}}
	})
	AID = newBuiltin("aid", KindBasic, nil, func() []Member {
		return []Member{
			{Name: "name", Type: Text, Kind: MemberBuiltin},
			{Name: "platform", Type: Text, Kind: MemberBuiltin},
		}
	})
)

// Root types of the declaration families
var (
	Agent = newBuiltin("Agent", KindAgent, nil, func() []Member {
		return []Member{
			{Name: "name", Type: Text, Kind: MemberBuiltin},
			{Name: "aid", Type: AID, Kind: MemberBuiltin},
		}
	})
	Ontology         = newBuiltin("Ontology", KindOntology, nil, nil)
	Behaviour        = newBuiltin("Behaviour", KindBehaviour, nil, nil)
	CyclicBehaviour  = newBuiltin("CyclicBehaviour", KindBehaviour, Behaviour, nil)
	OneShotBehaviour = newBuiltin("OneShotBehaviour", KindBehaviour, Behaviour, nil)
	Concept          = newBuiltin("Concept", KindOntologyElement, nil, nil)
	Predicate        = newBuiltin("Predicate", KindOntologyElement, nil, nil)
	Action           = newBuiltin("Action", KindOntologyElement, nil, nil)
	Proposition      = newBuiltin("Proposition", KindOntologyElement, nil, nil)

	// Message is the type of the message bound inside "on message" handlers
	Message = newBuiltin("Message", KindBasic, nil, func() []Member {
		return []Member{
			{Name: "sender", Type: AID, Kind: MemberBuiltin},
			{Name: "performative", Type: Performative, Kind: MemberBuiltin},
			{Name: "content", Type: Any, Kind: MemberBuiltin},
			{Name: "ontology", Type: Text, Kind: MemberBuiltin},
		}
	})
)

var builtins = func() map[string]*BuiltinType {
	all := []*BuiltinType{
		Integer, Real, Boolean, Duration, Timestamp, Performative, Any, Text, AID,
		Agent, Ontology, Behaviour, CyclicBehaviour, OneShotBehaviour,
		Concept, Predicate, Action, Proposition, Message,
	}
	m := make(map[string]*BuiltinType, len(all))
	for _, t := range all {
		m[t.Name()] = t
	}
	return m
}()

// Builtin looks up a built-in type by name
func Builtin(name string) (Type, bool) {
	t, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return t, true
}

// Builtins returns every built-in type sorted by name
func Builtins() []Type {
	out := make([]Type, 0, len(builtins))
	for _, t := range builtins {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// elementRoot maps an ontology element keyword to its root type
func elementRoot(keyword string) Type {
	switch keyword {
	case "predicate":
		return Predicate
	case "action":
		return Action
	case "proposition":
		return Proposition
	default:
		return Concept
	}
}

// behaviourRoot maps a behaviour flavour to its default supertype
func behaviourRoot(flavour string) Type {
	switch flavour {
	case "cyclic":
		return CyclicBehaviour
	case "oneshot":
		return OneShotBehaviour
	default:
		return Behaviour
	}
}
