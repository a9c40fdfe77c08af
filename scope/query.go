package scope

import (
	"errors"
	"fmt"

	"github.com/jadescript/jadescript-go/association"
	"github.com/jadescript/jadescript-go/descriptor"
	"github.com/jadescript/jadescript-go/narrowing"
	"github.com/jadescript/jadescript-go/types"
)

// AgentReference is the name of the implicit agent self-reference
const AgentReference = "agent"

var (
	// ErrUnknownSymbol is matched by every *UnknownSymbolError
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrAgentReference is returned when "agent" is used where no agent
	// instance exists yet, or at all
	ErrAgentReference = errors.New("agent reference not available here")
)

// UnknownSymbolError reports a name or member that cannot be found
type UnknownSymbolError struct {
	Name  string
	Owner types.Type // nil for unqualified names
}

func (e *UnknownSymbolError) Error() string {
	if e.Owner != nil {
		return fmt.Sprintf("%s has no member %q", e.Owner.Name(), e.Name)
	}
	return fmt.Sprintf("unknown symbol %q", e.Name)
}

// Is makes errors.Is(err, ErrUnknownSymbol) hold
func (e *UnknownSymbolError) Is(target error) bool {
	return target == ErrUnknownSymbol
}

// SearchSupertype walks outward to the nearest declaration with a type
// and returns the search target of that type's supertype. Nodes without a
// notion of supertype report false instead of failing.
func (n *Node) SearchSupertype() (types.Searchable, bool, error) {
	for cur := n; cur != nil; cur = cur.Outer() {
		var t types.Type
		switch c := cur.Data.(type) {
		case *FileContext:
			return nil, false, nil
		case *OntologyContext:
			t = c.Ontology
		case *AgentContext:
			t = c.Agent
		case *BehaviourContext:
			t = c.Behaviour
		default:
			continue
		}
		ns, err := t.Namespace()
		if err != nil {
			return nil, false, err
		}
		super, ok := ns.SuperSearchable()
		return super, ok, nil
	}
	return nil, false, nil
}

// CurrentAssociations returns the type of the declaration being analyzed
func (n *Node) CurrentAssociations() association.Set {
	return n.current.MustGet()
}

// UsingAssociations returns the types reachable through "uses" clauses
func (n *Node) UsingAssociations() association.Set {
	return n.using.MustGet()
}

// ForClauseAssociations returns the types reachable through "for" clauses
func (n *Node) ForClauseAssociations() association.Set {
	return n.forView.MustGet()
}

// Associations returns the union of the three views
func (n *Node) Associations() association.Set {
	return n.CurrentAssociations().Union(n.UsingAssociations(), n.ForClauseAssociations())
}

func (n *Node) computeCurrent() association.Set {
	switch c := n.Data.(type) {
	case *OntologyContext:
		return association.Of(association.RoleCurrent, c.Ontology)
	case *AgentContext:
		return association.Of(association.RoleCurrent, c.Agent)
	case *BehaviourContext:
		return association.Of(association.RoleCurrent, c.Behaviour)
	case *HandlerContext, *BlockContext:
		return n.Outer().CurrentAssociations()
	default:
		return association.Set{}
	}
}

func (n *Node) computeUsing() association.Set {
	switch c := n.Data.(type) {
	case *FileContext, *OntologyContext:
		return association.Set{}
	case *AgentContext:
		return association.Of(association.RoleUsing, c.Ontologies...).Union(n.Outer().UsingAssociations())
	case *BehaviourContext:
		return association.Of(association.RoleUsing, c.Ontologies...).Union(n.Outer().UsingAssociations())
	default:
		return n.Outer().UsingAssociations()
	}
}

func (n *Node) computeFor() association.Set {
	switch c := n.Data.(type) {
	case *FileContext, *OntologyContext:
		return association.Set{}
	case *ForAgentContext:
		own := append([]types.Type{c.Agent}, c.Ontologies...)
		return association.Of(association.RoleForClause, own...).Union(n.Outer().ForClauseAssociations())
	default:
		return n.Outer().ForClauseAssociations()
	}
}

// CanUseAgentReference reports whether "agent" may be used at n
func (n *Node) CanUseAgentReference() bool {
	for cur := n; cur != nil; cur = cur.Outer() {
		switch c := cur.Data.(type) {
		case *FileContext, *OntologyContext:
			return false
		case *AgentContext, *ForAgentContext, *BehaviourContext:
			return true
		case *HandlerContext:
			return c.Event != EventCreate
		}
	}
	return false
}

// AgentType returns the agent type of the nearest agent-scoped ancestor
func (n *Node) AgentType() (types.Type, bool) {
	for cur := n; cur != nil; cur = cur.Outer() {
		switch c := cur.Data.(type) {
		case *AgentContext:
			return c.Agent, true
		case *ForAgentContext:
			return c.Agent, true
		}
	}
	return nil, false
}

// ResolveSymbol finds an unqualified name: block locals innermost first,
// then handler parameters, then members of the enclosing behaviour and
// agent, and finally the implicit agent reference.
func (n *Node) ResolveSymbol(name string) (types.Member, error) {
	for cur := n; cur != nil; cur = cur.Outer() {
		switch c := cur.Data.(type) {
		case *BlockContext:
			if m, ok := c.Lookup(name); ok {
				return m, nil
			}
		case *HandlerContext:
			for _, p := range c.Params {
				if p.Name == name {
					return p, nil
				}
			}
		case *BehaviourContext:
			if m, ok, err := searchMember(c.Behaviour, name); err != nil || ok {
				return m, err
			}
		case *AgentContext:
			if m, ok, err := searchMember(c.Agent, name); err != nil || ok {
				return m, err
			}
		}
	}

	if name == AgentReference {
		agent, ok := n.AgentType()
		if !ok || !n.CanUseAgentReference() {
			return types.Member{}, ErrAgentReference
		}
		return types.Member{Name: AgentReference, Type: agent, Kind: types.MemberBuiltin}, nil
	}
	return types.Member{}, &UnknownSymbolError{Name: name}
}

func searchMember(t types.Type, name string) (types.Member, bool, error) {
	ns, err := t.Namespace()
	if err != nil {
		return types.Member{}, false, err
	}
	m, ok := ns.SearchName(name)
	return m, ok, nil
}

// Refinement returns the narrowed type recorded for d. Every fact on the
// chain holds at n, so when several blocks refine d the most specific
// type wins; the innermost one breaks ties between unrelated types.
func (n *Node) Refinement(d descriptor.Descriptor) (types.Type, bool) {
	var out types.Type
	for cur := n; cur != nil; cur = cur.Outer() {
		b, ok := cur.Data.(*BlockContext)
		if !ok {
			continue
		}
		t, found := b.Facts.Refinement(d)
		switch {
		case !found:
		case out == nil:
			out = t
		default:
			out = types.MoreSpecific(out, t)
		}
	}
	return out, out != nil
}

// TypeOfPath computes the type of a field-access chain, applying the
// refinements in scope to every prefix of the chain.
func (n *Node) TypeOfPath(path []string) (types.Type, error) {
	return n.TypeOfPathUnder(narrowing.None, path)
}

// TypeOfPathUnder is TypeOfPath with extra facts that hold in addition to
// the ones recorded on the chain, such as those established by the left
// operands of a conjunction.
func (n *Node) TypeOfPathUnder(extra narrowing.Facts, path []string) (types.Type, error) {
	if len(path) == 0 {
		return nil, &UnknownSymbolError{Name: ""}
	}
	root, err := n.ResolveSymbol(path[0])
	if err != nil {
		return nil, err
	}
	t := n.refined(extra, path[:1], root.Type)
	for i := 1; i < len(path); i++ {
		m, ok, err := searchMember(t, path[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &UnknownSymbolError{Name: path[i], Owner: t}
		}
		t = n.refined(extra, path[:i+1], m.Type)
	}
	return t, nil
}

func (n *Node) refined(extra narrowing.Facts, prefix []string, declared types.Type) types.Type {
	chain, err := descriptor.NewPropertyChain(prefix...)
	if err != nil {
		return declared
	}
	scoped, inScope := n.Refinement(chain)
	if t, ok := extra.Refinement(chain); ok {
		if inScope {
			return types.MoreSpecific(t, scoped)
		}
		return t
	}
	if inScope {
		return scoped
	}
	return declared
}

// Stack-level shorthands for the current node

// SearchSupertype queries the current node
func (s *Stack) SearchSupertype() (types.Searchable, bool, error) {
	return s.Current().SearchSupertype()
}

// CurrentAssociations queries the current node
func (s *Stack) CurrentAssociations() association.Set {
	return s.Current().CurrentAssociations()
}

// UsingAssociations queries the current node
func (s *Stack) UsingAssociations() association.Set {
	return s.Current().UsingAssociations()
}

// ForClauseAssociations queries the current node
func (s *Stack) ForClauseAssociations() association.Set {
	return s.Current().ForClauseAssociations()
}

// CanUseAgentReference queries the current node
func (s *Stack) CanUseAgentReference() bool {
	return s.Current().CanUseAgentReference()
}

// DebugDump renders the chain from the root to the current node
func (s *Stack) DebugDump() string {
	return s.Current().DebugDump()
}
