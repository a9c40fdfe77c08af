package types

import (
	"sync"
	"testing"

	"github.com/jadescript/jadescript-go/ast"
	"github.com/jadescript/jadescript-go/diagnostic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unitSource = `
ontology Market {
  concept Stock(symbol as text, price as real)
  predicate Owns(owner as aid, stock as Stock)
  concept Bond extends Stock
}
ontology Derived extends Market
agent Base { property budget as real }
agent Trader extends Base uses ontology Market, Missing {
  property wishlist as list of Stock
  property broken as Nowhere
}
agent Lonely
agent Odd extends Market
cyclic behaviour Watch for agent Trader uses ontology Derived
oneshot behaviour Once
behaviour Plain for agent Ghost
agent A extends B
agent B extends A
`

func newTestSolver(t *testing.T, src string) (*Solver, *diagnostic.Sink) {
	t.Helper()
	file, err := ast.ParseString("unit.jade", src)
	require.NoError(t, err)
	sink := diagnostic.NewSink("unit.jade")
	return NewSolver(file, sink), sink
}

func mustResolve(t *testing.T, s *Solver, name string) Type {
	t.Helper()
	typ, err := s.ResolveName(name)
	require.NoError(t, err)
	return typ
}

func TestResolveIsIdentityStable(t *testing.T) {
	s, _ := newTestSolver(t, unitSource)

	first := mustResolve(t, s, "Trader")
	second, err := s.Resolve(&ast.TypeRef{Name: "Trader", Pos: first.(*UserDefinedAgentType).Decl.Pos})
	require.NoError(t, err)
	assert.Same(t, first, second)

	list1, err := s.Resolve(&ast.TypeRef{List: ast.Named("Stock")})
	require.NoError(t, err)
	list2, err := s.Resolve(&ast.TypeRef{List: ast.Named("Stock")})
	require.NoError(t, err)
	assert.Same(t, list1, list2)
	assert.Equal(t, "list of Stock", list1.String())
	assert.Equal(t, "list(element:Stock)", list1.ID())
}

func TestBuiltinsAreSharedAcrossSolvers(t *testing.T) {
	s1, _ := newTestSolver(t, "agent X")
	s2, _ := newTestSolver(t, "agent Y")

	assert.Same(t, mustResolve(t, s1, "integer"), mustResolve(t, s2, "integer"))
	assert.Same(t, Agent, mustResolve(t, s1, "Agent"))
}

func TestStrictResolutionFails(t *testing.T) {
	s, _ := newTestSolver(t, unitSource)

	_, err := s.ResolveName("Nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedType)

	var unresolved *UnresolvedTypeError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "Nowhere", unresolved.Name)

	_, err = s.Resolve(&ast.TypeRef{Map: &ast.MapRef{Key: ast.Named("text"), Value: ast.Named("Nowhere")}})
	assert.ErrorIs(t, err, ErrUnresolvedType)
}

func TestPermissiveResolution(t *testing.T) {
	s, sink := newTestSolver(t, unitSource)
	before := sink.Len()

	got := s.ResolvePermissive(ast.Named("Nowhere"), Agent)
	assert.Same(t, Agent, got)

	p1 := s.ResolvePermissive(ast.Named("Nowhere"), nil)
	p2 := s.ResolvePermissive(ast.Named("Nowhere"), nil)
	assert.True(t, IsPlaceholder(p1))
	assert.Same(t, p1, p2)
	assert.Equal(t, before+3, sink.Len())

	_, err := p1.Namespace()
	assert.ErrorIs(t, err, ErrUninitializedDeclaration)
	_, _, err = p1.Supertype()
	assert.ErrorIs(t, err, ErrUninitializedDeclaration)
}

func TestAgentSupertypes(t *testing.T) {
	s, sink := newTestSolver(t, unitSource)

	lonely := mustResolve(t, s, "Lonely").(*UserDefinedAgentType)
	assert.Same(t, Agent, lonely.SuperAgentType())

	trader := mustResolve(t, s, "Trader").(*UserDefinedAgentType)
	assert.Same(t, mustResolve(t, s, "Base"), trader.SuperAgentType())

	odd := mustResolve(t, s, "Odd").(*UserDefinedAgentType)
	assert.Same(t, Agent, odd.SuperAgentType())
	assert.True(t, sink.HasErrors())

	ontologies := trader.UsedOntologies()
	require.Len(t, ontologies, 1)
	assert.Equal(t, "Market", ontologies[0].Name())
}

func TestCircularSupertypesResolveLazily(t *testing.T) {
	s, _ := newTestSolver(t, unitSource)

	a := mustResolve(t, s, "A").(*UserDefinedAgentType)
	b := mustResolve(t, s, "B").(*UserDefinedAgentType)
	assert.Same(t, b, a.SuperAgentType())
	assert.Same(t, a, b.SuperAgentType())

	chain, err := SupertypeChain(a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSupertypeCycle)
	assert.Len(t, chain, 2)
	assert.Equal(t, "supertype cycle: A -> B -> A", err.Error())

	_, found := mustNamespace(t, a).SearchName("missing")
	assert.False(t, found)
}

func mustNamespace(t *testing.T, typ Type) *Namespace {
	t.Helper()
	ns, err := typ.Namespace()
	require.NoError(t, err)
	return ns
}

func TestNamespaceIsMemoized(t *testing.T) {
	s, _ := newTestSolver(t, unitSource)
	trader := mustResolve(t, s, "Trader")

	assert.Same(t, mustNamespace(t, trader), mustNamespace(t, trader))

	ns := mustNamespace(t, trader)
	wishlist, ok := ns.Lookup("wishlist")
	require.True(t, ok)
	assert.Equal(t, "list of Stock", wishlist.Type.String())

	broken, ok := ns.Lookup("broken")
	require.True(t, ok)
	assert.True(t, IsPlaceholder(broken.Type))

	budget, ok := ns.SearchName("budget")
	require.True(t, ok)
	assert.Same(t, Real, budget.Type)

	name, ok := ns.SearchName("name")
	require.True(t, ok)
	assert.Same(t, Text, name.Type)
}

func TestOntologyNamespace(t *testing.T) {
	s, _ := newTestSolver(t, unitSource)
	market := mustResolve(t, s, "Market").(*OntologyType)

	assert.Same(t, Ontology, market.SuperOntologyType())

	ns := mustNamespace(t, market)
	assert.Len(t, ns.Members(), 3)
	super, ok := ns.SuperSearchable()
	require.True(t, ok)
	assert.Same(t, mustNamespace(t, Ontology), super)

	derived := mustResolve(t, s, "Derived").(*OntologyType)
	assert.Same(t, market, derived.SuperOntologyType())
	stock, ok := mustNamespace(t, derived).SearchName("Stock")
	require.True(t, ok)
	assert.Same(t, mustResolve(t, s, "Stock"), stock.Type)
}

func TestOntologyElements(t *testing.T) {
	s, _ := newTestSolver(t, unitSource)

	owns := mustResolve(t, s, "Owns").(*OntologyElementType)
	assert.Same(t, Predicate, owns.Category)
	super, ok, err := owns.Supertype()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, Predicate, super)

	owner, err := owns.Ontology()
	require.NoError(t, err)
	assert.Equal(t, "Market", owner.Name())

	stock := mustResolve(t, s, "Stock")
	field, ok := mustNamespace(t, owns).Lookup("stock")
	require.True(t, ok)
	assert.Same(t, stock, field.Type)

	bond := mustResolve(t, s, "Bond")
	assert.True(t, IsSubtype(bond, stock))
	assert.True(t, IsSubtype(bond, Concept))
	assert.False(t, IsSubtype(stock, bond))
}

func TestBehaviourTypes(t *testing.T) {
	s, sink := newTestSolver(t, unitSource)

	watch := mustResolve(t, s, "Watch").(*BehaviourType)
	assert.Same(t, CyclicBehaviour, watch.SuperBehaviourType())
	assert.Same(t, mustResolve(t, s, "Trader"), watch.ForAgentType())
	require.Len(t, watch.UsedOntologies(), 1)
	assert.Equal(t, "Derived", watch.UsedOntologies()[0].Name())

	once := mustResolve(t, s, "Once").(*BehaviourType)
	assert.Same(t, OneShotBehaviour, once.SuperBehaviourType())
	assert.Same(t, Agent, once.ForAgentType())

	before := sink.Len()
	plain := mustResolve(t, s, "Plain").(*BehaviourType)
	assert.Same(t, Behaviour, plain.SuperBehaviourType())
	assert.Same(t, Agent, plain.ForAgentType())
	assert.Equal(t, before+1, sink.Len())

	assert.True(t, IsSubtype(watch, Behaviour))
}

func TestDuplicateDeclarations(t *testing.T) {
	s, sink := newTestSolver(t, "agent X\nontology X\nagent integer")

	x := mustResolve(t, s, "X")
	assert.Equal(t, KindAgent, x.Kind())

	diags := sink.All()
	require.Len(t, diags, 2)
	assert.Equal(t, diagnostic.CodeDuplicateDeclaration, diags[0].Code)
	assert.Contains(t, diags[1].Message, "built-in")
	assert.True(t, s.IsDeclared("X"))
	assert.True(t, s.IsDeclared("text"))
	assert.False(t, s.IsDeclared("Y"))
}

func TestCommonSupertype(t *testing.T) {
	s, _ := newTestSolver(t, unitSource)
	stock := mustResolve(t, s, "Stock")
	bond := mustResolve(t, s, "Bond")
	owns := mustResolve(t, s, "Owns")

	assert.Same(t, stock, CommonSupertype(bond, stock))
	assert.Same(t, stock, CommonSupertype(stock, bond))
	assert.Same(t, Any, CommonSupertype(owns, stock))
	assert.Same(t, Behaviour, CommonSupertype(CyclicBehaviour, OneShotBehaviour))
	assert.Same(t, bond, MoreSpecific(stock, bond))
	assert.Same(t, owns, MoreSpecific(owns, stock))
	assert.True(t, IsSubtype(Integer, Any))
}

func TestConcurrentBuiltinNamespace(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Namespace, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ns, _ := Message.Namespace()
			results[i] = ns
		}(i)
	}
	wg.Wait()
	for _, ns := range results {
		assert.Same(t, results[0], ns)
	}
	sender, ok := results[0].Lookup("sender")
	require.True(t, ok)
	assert.Same(t, AID, sender.Type)
}
