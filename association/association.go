// Package association records which ontologies, agents and behaviours are
// implicitly reachable from a declaration context.
package association

import (
	"sort"
	"strings"

	"github.com/jadescript/jadescript-go/types"
)

// Role tells how a type became reachable
type Role int

const (
	// RoleCurrent marks the type of the declaration being analyzed
	RoleCurrent Role = iota
	// RoleUsing marks types reached through a "uses ontology" clause
	RoleUsing
	// RoleForClause marks types reached through a "for agent" clause
	RoleForClause
)

// String returns the string representation of the role
func (r Role) String() string {
	switch r {
	case RoleCurrent:
		return "current"
	case RoleUsing:
		return "using"
	case RoleForClause:
		return "for"
	default:
		return "unknown"
	}
}

// Association is a (Type, Role) fact. Equal pairs are interchangeable.
type Association struct {
	Type types.Type
	Role Role
}

// String renders the association as "role Name"
func (a Association) String() string {
	return a.Role.String() + " " + a.Type.String()
}

// Set is an immutable set of associations. The zero value is empty.
type Set struct {
	items map[Association]struct{}
}

// NewSet builds a set, dropping duplicates and associations without a type
func NewSet(items ...Association) Set {
	if len(items) == 0 {
		return Set{}
	}
	m := make(map[Association]struct{}, len(items))
	for _, a := range items {
		if a.Type == nil {
			continue
		}
		m[a] = struct{}{}
	}
	return Set{items: m}
}

// Of builds a set tagging every type with role
func Of(role Role, ts ...types.Type) Set {
	items := make([]Association, 0, len(ts))
	for _, t := range ts {
		items = append(items, Association{Type: t, Role: role})
	}
	return NewSet(items...)
}

// Len returns the number of associations
func (s Set) Len() int {
	return len(s.items)
}

// Contains reports membership
func (s Set) Contains(a Association) bool {
	_, ok := s.items[a]
	return ok
}

// Union returns a new set holding the members of s and others
func (s Set) Union(others ...Set) Set {
	items := s.Slice()
	for _, o := range others {
		items = append(items, o.Slice()...)
	}
	return NewSet(items...)
}

// OfRole returns the subset with the given role
func (s Set) OfRole(role Role) Set {
	var items []Association
	for a := range s.items {
		if a.Role == role {
			items = append(items, a)
		}
	}
	return NewSet(items...)
}

// Types returns the member types in Slice order
func (s Set) Types() []types.Type {
	sorted := s.Slice()
	out := make([]types.Type, len(sorted))
	for i, a := range sorted {
		out[i] = a.Type
	}
	return out
}

// Equal compares by value; order never matters
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for a := range s.items {
		if !other.Contains(a) {
			return false
		}
	}
	return true
}

// Slice returns the members ordered by role, then type name, then type ID
func (s Set) Slice() []Association {
	out := make([]Association, 0, len(s.items))
	for a := range s.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		if out[i].Type.Name() != out[j].Type.Name() {
			return out[i].Type.Name() < out[j].Type.Name()
		}
		return out[i].Type.ID() < out[j].Type.ID()
	})
	return out
}

// String renders the set as "{role Name, ...}"
func (s Set) String() string {
	parts := make([]string, 0, s.Len())
	for _, a := range s.Slice() {
		parts = append(parts, a.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
