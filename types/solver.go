package types

import (
	"sync"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/jadescript/jadescript-go/ast"
	"github.com/jadescript/jadescript-go/diagnostic"
)

// declaration is the raw source of a user-defined type name
type declaration struct {
	pos       lexer.Position
	agent     *ast.AgentDecl
	ontology  *ast.OntologyDecl
	element   *ast.OntologyElement
	owner     *ast.OntologyDecl
	behaviour *ast.BehaviourDecl
}

// Solver maps raw type references of one compilation unit to type nodes.
// Resolving the same reference twice yields the same node. Built-in types
// are shared with every other solver; everything else is private to the
// unit.
type Solver struct {
	sink *diagnostic.Sink

	// decls maps declared names to their raw declarations
	decls map[string]declaration

	// cache maps TypeRef keys to resolved nodes
	cache map[string]Type

	// placeholders keeps permissive fallbacks identity-stable
	placeholders map[string]*Placeholder

	mu sync.Mutex
}

// NewSolver indexes the declarations of file. Duplicate names and names
// shadowing built-ins are reported to sink; the first declaration wins.
func NewSolver(file *ast.File, sink *diagnostic.Sink) *Solver {
	s := &Solver{
		sink:         sink,
		decls:        make(map[string]declaration),
		cache:        make(map[string]Type),
		placeholders: make(map[string]*Placeholder),
	}
	if file == nil {
		return s
	}
	for _, d := range file.Declarations {
		switch {
		case d.Ontology != nil:
			s.declare(d.Ontology.Name, declaration{pos: d.Pos, ontology: d.Ontology})
			for _, el := range d.Ontology.Elements {
				s.declare(el.Name, declaration{pos: el.Pos, element: el, owner: d.Ontology})
			}
		case d.Agent != nil:
			s.declare(d.Agent.Name, declaration{pos: d.Pos, agent: d.Agent})
		case d.Behaviour != nil:
			s.declare(d.Behaviour.Name, declaration{pos: d.Pos, behaviour: d.Behaviour})
		}
	}
	return s
}

func (s *Solver) declare(name string, d declaration) {
	if _, ok := builtins[name]; ok {
		s.sink.Errorf(d.pos, diagnostic.CodeDuplicateDeclaration, "%q redeclares a built-in type", name)
		return
	}
	if prev, ok := s.decls[name]; ok {
		s.sink.Errorf(d.pos, diagnostic.CodeDuplicateDeclaration, "%q already declared at line %d", name, prev.pos.Line)
		return
	}
	s.decls[name] = d
}

// IsDeclared reports whether name is declared in source or built in
func (s *Solver) IsDeclared(name string) bool {
	if _, ok := builtins[name]; ok {
		return true
	}
	_, ok := s.decls[name]
	return ok
}

// Resolve maps ref strictly, failing with *UnresolvedTypeError
func (s *Solver) Resolve(ref *ast.TypeRef) (Type, error) {
	if ref == nil {
		return nil, &UnresolvedTypeError{Name: "<nil>"}
	}

	key := ref.Key()
	if t, ok := builtins[key]; ok {
		return t, nil
	}
	if t, ok := s.cached(key); ok {
		return t, nil
	}

	var (
		t   Type
		err error
	)
	switch {
	case ref.List != nil:
		t, err = s.collection(ListCollection, nil, ref.List)
	case ref.Set != nil:
		t, err = s.collection(SetCollection, nil, ref.Set)
	case ref.Map != nil:
		t, err = s.collection(MapCollection, ref.Map.Key, ref.Map.Value)
	default:
		t, err = s.build(ref.Name, ref.Pos)
	}
	if err != nil {
		return nil, err
	}
	return s.store(key, t), nil
}

// ResolveName resolves a plain type name
func (s *Solver) ResolveName(name string) (Type, error) {
	return s.Resolve(ast.Named(name))
}

// ResolvePermissive never fails. When ref cannot be resolved it records a
// diagnostic and returns bound, or a placeholder when bound is nil.
func (s *Solver) ResolvePermissive(ref *ast.TypeRef, bound Type) Type {
	t, err := s.Resolve(ref)
	if err == nil {
		return t
	}
	s.report(ref, err)
	if bound != nil {
		return bound
	}
	return s.placeholder(ref.String())
}

func (s *Solver) report(ref *ast.TypeRef, err error) {
	var pos lexer.Position
	if ref != nil {
		pos = ref.Pos
	}
	s.sink.Errorf(pos, diagnostic.CodeUnresolvedType, "%v", err)
}

// resolveKind resolves ref permissively and additionally requires the
// result to belong to kind, falling back to bound otherwise.
func (s *Solver) resolveKind(ref *ast.TypeRef, kind Kind, bound Type) Type {
	t := s.ResolvePermissive(ref, bound)
	if t.Kind() != kind {
		s.sink.Errorf(ref.Pos, diagnostic.CodeUnresolvedType, "%s is not %s type", t.Name(), article(kind))
		return bound
	}
	return t
}

func (s *Solver) resolveOntologies(refs []*ast.TypeRef) []Type {
	out := make([]Type, 0, len(refs))
	for _, ref := range refs {
		t, err := s.Resolve(ref)
		if err != nil {
			s.report(ref, err)
			continue
		}
		if t.Kind() != KindOntology {
			s.sink.Errorf(ref.Pos, diagnostic.CodeUnresolvedType, "%s is not an ontology type", t.Name())
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *Solver) properties(members []*ast.Member) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.Property == nil {
			continue
		}
		out = append(out, Member{
			Name: m.Property.Name,
			Type: s.ResolvePermissive(m.Property.Type, nil),
			Kind: MemberProperty,
		})
	}
	return out
}

func (s *Solver) collection(kind CollectionKind, keyRef, elemRef *ast.TypeRef) (Type, error) {
	elem, err := s.Resolve(elemRef)
	if err != nil {
		return nil, err
	}
	var key Type
	if keyRef != nil {
		if key, err = s.Resolve(keyRef); err != nil {
			return nil, err
		}
	}
	return newCollection(kind, key, elem), nil
}

// build creates the node of a declared name without forcing any of its
// lazy fields, so mutually referring declarations never recurse here.
func (s *Solver) build(name string, pos lexer.Position) (Type, error) {
	d, ok := s.decls[name]
	if !ok {
		return nil, &UnresolvedTypeError{Name: name, Pos: pos}
	}
	switch {
	case d.agent != nil:
		return newUserAgent(s, d.agent), nil
	case d.ontology != nil:
		return newOntology(s, d.ontology), nil
	case d.element != nil:
		return newOntologyElement(s, d.owner, d.element), nil
	case d.behaviour != nil:
		return newBehaviour(s, d.behaviour), nil
	default:
		return nil, &UnresolvedTypeError{Name: name, Pos: pos}
	}
}

func (s *Solver) cached(key string) (Type, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.cache[key]
	return t, ok
}

// store caches t under key unless another node won the race, in which case
// that node is returned.
func (s *Solver) store(key string, t Type) Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[key]; ok {
		return existing
	}
	s.cache[key] = t
	return t
}

func (s *Solver) placeholder(name string) *Placeholder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.placeholders[name]; ok {
		return p
	}
	p := NewPlaceholder(name)
	s.placeholders[name] = p
	return p
}

func article(k Kind) string {
	switch k {
	case KindAgent:
		return "an agent"
	case KindOntology:
		return "an ontology"
	case KindOntologyElement:
		return "an ontology element"
	case KindBehaviour:
		return "a behaviour"
	default:
		return "a " + k.String()
	}
}
