package scope

import (
	"strings"
	"testing"

	"github.com/jadescript/jadescript-go/association"
	"github.com/jadescript/jadescript-go/ast"
	"github.com/jadescript/jadescript-go/descriptor"
	"github.com/jadescript/jadescript-go/diagnostic"
	"github.com/jadescript/jadescript-go/lazy"
	"github.com/jadescript/jadescript-go/narrowing"
	"github.com/jadescript/jadescript-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketSource = `
ontology O1 {
	concept Item (price as integer)
	concept Gift (wrap as text) extends Item
}

ontology O2

agent Ag uses ontology O1, O2 {
	property stock as integer
	on create { }
}

cyclic behaviour B for agent Ag uses ontology O1 {
	property item as Item
	on message { }
}
`

type world struct {
	solver *types.Solver
	o1, o2 types.Type
	ag     types.Type
	b      types.Type
	gift   types.Type
}

func newWorld(t *testing.T) world {
	t.Helper()
	file, err := ast.ParseString("market.jade", marketSource)
	require.NoError(t, err)
	sink := diagnostic.NewSink("market.jade")
	s := types.NewSolver(file, sink)

	get := func(name string) types.Type {
		typ, err := s.ResolveName(name)
		require.NoError(t, err)
		return typ
	}
	w := world{solver: s, o1: get("O1"), o2: get("O2"), ag: get("Ag"), b: get("B"), gift: get("Gift")}
	require.Equal(t, 0, sink.Len(), sink.All())
	return w
}

func push(t *testing.T, s *Stack, ctx Context) *Node {
	t.Helper()
	n, err := s.Push(ctx)
	require.NoError(t, err)
	return n
}

// behaviourChain builds file > for agent Ag [O1, O2] > behaviour B
func behaviourChain(t *testing.T, w world) (*Stack, *Node, *Node) {
	s := NewStack("market", "market.jade")
	forAgent := push(t, s, &ForAgentContext{Agent: w.ag, Ontologies: []types.Type{w.o1, w.o2}})
	behaviour := push(t, s, &BehaviourContext{Behaviour: w.b, Ontologies: w.b.(*types.BehaviourType).UsedOntologies()})
	return s, forAgent, behaviour
}

func TestFileContext(t *testing.T) {
	s := NewStack("market", "market.jade")
	root := s.Current()

	assert.Same(t, root, s.Root())
	assert.Equal(t, NoParent, root.Parent)
	assert.Equal(t, "file market.jade", root.Label)
	assert.False(t, s.CanUseAgentReference())
	assert.Equal(t, 0, s.CurrentAssociations().Len())
	assert.Equal(t, 0, s.UsingAssociations().Len())
	assert.Equal(t, 0, s.ForClauseAssociations().Len())

	super, ok, err := s.SearchSupertype()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, super)

	assert.ErrorIs(t, s.Pop(), ErrPopRoot)
}

func TestOntologyContext(t *testing.T) {
	w := newWorld(t)
	s := NewStack("market", "market.jade")
	n := push(t, s, &OntologyContext{Ontology: w.o1})

	assert.Equal(t, "O1", n.Data.(*OntologyContext).OntologyName())
	assert.False(t, n.CanUseAgentReference())
	assert.True(t, n.CurrentAssociations().Equal(association.Of(association.RoleCurrent, w.o1)))
	assert.Equal(t, 0, n.UsingAssociations().Len())
	assert.Equal(t, 0, n.ForClauseAssociations().Len())

	ns, err := w.o1.Namespace()
	require.NoError(t, err)
	want, wantOK := ns.SuperSearchable()
	require.True(t, wantOK)

	got, ok, err := n.SearchSupertype()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, want, got)

	rootNS, err := types.Ontology.Namespace()
	require.NoError(t, err)
	assert.Same(t, rootNS, got)
}

func TestAgentContext(t *testing.T) {
	w := newWorld(t)
	agent := w.ag.(*types.UserDefinedAgentType)
	assert.Same(t, types.Agent, agent.SuperAgentType())

	s := NewStack("market", "market.jade")
	n := push(t, s, &AgentContext{Agent: w.ag, Ontologies: agent.UsedOntologies()})

	assert.True(t, n.CanUseAgentReference())
	assert.True(t, n.CurrentAssociations().Equal(association.Of(association.RoleCurrent, w.ag)))
	assert.True(t, n.UsingAssociations().Equal(association.Of(association.RoleUsing, w.o1, w.o2)))
	assert.Equal(t, 0, n.ForClauseAssociations().Len())

	super, ok, err := n.SearchSupertype()
	require.NoError(t, err)
	require.True(t, ok)
	agentNS, err := types.Agent.Namespace()
	require.NoError(t, err)
	assert.Same(t, agentNS, super)
}

func TestBehaviourUnderAgentScope(t *testing.T) {
	w := newWorld(t)
	_, forAgent, behaviour := behaviourChain(t, w)

	assert.True(t, behaviour.CurrentAssociations().Equal(association.Of(association.RoleCurrent, w.b)))
	assert.Equal(t, 1, behaviour.CurrentAssociations().Len())
	assert.Equal(t, 0, forAgent.CurrentAssociations().Len())

	wantFor := association.Of(association.RoleForClause, w.ag, w.o1, w.o2)
	assert.True(t, forAgent.ForClauseAssociations().Equal(wantFor))
	assert.True(t, behaviour.ForClauseAssociations().Equal(forAgent.ForClauseAssociations()))
	assert.True(t, behaviour.UsingAssociations().Equal(association.Of(association.RoleUsing, w.o1)))

	assert.True(t, behaviour.CanUseAgentReference())
	agent, ok := behaviour.AgentType()
	require.True(t, ok)
	assert.Same(t, w.ag, agent)

	super, ok, err := behaviour.SearchSupertype()
	require.NoError(t, err)
	require.True(t, ok)
	cyclicNS, err := types.CyclicBehaviour.Namespace()
	require.NoError(t, err)
	assert.Same(t, cyclicNS, super)
}

func TestAssociationsAreStable(t *testing.T) {
	w := newWorld(t)
	_, _, behaviour := behaviourChain(t, w)

	first := behaviour.Associations()
	second := behaviour.Associations()
	assert.True(t, first.Equal(second))
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, "{current B, using O1, for Ag, for O1, for O2}", first.String())
}

func TestHandlerAndBlockInheritance(t *testing.T) {
	w := newWorld(t)
	s := NewStack("market", "market.jade")
	agent := push(t, s, &AgentContext{Agent: w.ag, Ontologies: []types.Type{w.o1}})
	create := push(t, s, NewHandler(EventCreate))
	body := push(t, s, NewBlock("body", narrowing.None))

	assert.False(t, create.CanUseAgentReference())
	assert.False(t, body.CanUseAgentReference())
	assert.True(t, body.CurrentAssociations().Equal(agent.CurrentAssociations()))
	assert.True(t, body.UsingAssociations().Equal(agent.UsingAssociations()))

	_, err := body.ResolveSymbol(AgentReference)
	assert.ErrorIs(t, err, ErrAgentReference)

	require.NoError(t, s.Pop())
	require.NoError(t, s.Pop())
	assert.Same(t, agent, s.Current())
	assert.Same(t, body, s.Node(body.ID))

	execute := push(t, s, NewHandler(EventExecute))
	assert.True(t, execute.CanUseAgentReference())
	m, err := execute.ResolveSymbol(AgentReference)
	require.NoError(t, err)
	assert.Same(t, w.ag, m.Type)
}

func TestInvalidNesting(t *testing.T) {
	w := newWorld(t)
	s := NewStack("market", "market.jade")

	_, err := s.Push(&BehaviourContext{Behaviour: w.b})
	assert.ErrorIs(t, err, ErrInvalidNesting)
	_, err = s.Push(NewHandler(EventExecute))
	assert.ErrorIs(t, err, ErrInvalidNesting)
	_, err = s.Push(&OntologyContext{})
	assert.ErrorIs(t, err, ErrInvalidNesting)
	_, err = s.Push(nil)
	assert.ErrorIs(t, err, ErrInvalidNesting)
	_, err = s.Push((*OntologyContext)(nil))
	assert.ErrorIs(t, err, ErrInvalidNesting)
	_, err = s.Push((*AgentContext)(nil))
	assert.ErrorIs(t, err, ErrInvalidNesting)

	push(t, s, &OntologyContext{Ontology: w.o1})
	_, err = s.Push(NewBlock("body", narrowing.None))
	assert.ErrorIs(t, err, ErrInvalidNesting)
	assert.Equal(t, 2, s.Len())
}

func TestResolveSymbol(t *testing.T) {
	w := newWorld(t)
	s, _, _ := behaviourChain(t, w)
	push(t, s, NewHandler(EventMessage))
	body := push(t, s, NewBlock("body", narrowing.None))

	require.NoError(t, s.Declare("count", types.Integer))
	assert.ErrorIs(t, s.Declare("count", types.Text), ErrDuplicateSymbol)

	m, err := body.ResolveSymbol("count")
	require.NoError(t, err)
	assert.Same(t, types.Integer, m.Type)

	m, err = body.ResolveSymbol("message")
	require.NoError(t, err)
	assert.Same(t, types.Message, m.Type)

	m, err = body.ResolveSymbol("item")
	require.NoError(t, err)
	assert.Equal(t, types.MemberProperty, m.Kind)

	_, err = body.ResolveSymbol("nothing")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	require.NoError(t, s.Pop())
	assert.ErrorIs(t, s.Declare("late", types.Integer), ErrNotInBlock)
}

func TestTypeOfPathAppliesRefinements(t *testing.T) {
	w := newWorld(t)
	s, _, _ := behaviourChain(t, w)
	handler := push(t, s, NewHandler(EventMessage))

	sender, err := handler.TypeOfPath([]string{"message", "sender", "name"})
	require.NoError(t, err)
	assert.Same(t, types.Text, sender)

	_, err = handler.TypeOfPath([]string{"item", "wrap"})
	var unknown *UnknownSymbolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "wrap", unknown.Name)
	assert.Equal(t, "Item", unknown.Owner.Name())
	assert.EqualError(t, err, `Item has no member "wrap"`)

	item := descriptor.Must(descriptor.NewPropertyChain("item"))
	facts := narrowing.WhenTrue(descriptor.Must(descriptor.NewTypeCheck(item, w.gift)))
	then := push(t, s, NewBlock("then", facts))

	refined, ok := then.Refinement(item)
	require.True(t, ok)
	assert.Same(t, w.gift, refined)

	wrap, err := then.TypeOfPath([]string{"item", "wrap"})
	require.NoError(t, err)
	assert.Same(t, types.Text, wrap)

	price, err := then.TypeOfPath([]string{"item", "price"})
	require.NoError(t, err)
	assert.Same(t, types.Integer, price)
}

func TestDebugDump(t *testing.T) {
	w := newWorld(t)
	s := NewStack("market", "market.jade")
	push(t, s, &OntologyContext{Ontology: w.o1})

	want := strings.Join([]string{
		`FileContext "file market.jade" {`,
		`  module: market`,
		`  file: market.jade`,
		`  agent reference: false`,
		`  current associations: none`,
		`  using associations: none`,
		`  for associations: none`,
		`  OntologyDeclarationContext "ontology O1" {`,
		`    ontology: O1`,
		`    agent reference: false`,
		`    current associations {`,
		`      current O1`,
		`    }`,
		`    using associations: none`,
		`    for associations: none`,
		`  }`,
		`}`,
	}, "\n") + "\n"

	assert.Equal(t, want, s.DebugDump())
	assert.Equal(t, s.DebugDump(), s.DebugDump())
}

func TestDebugDumpOrdersOuterToInner(t *testing.T) {
	w := newWorld(t)
	s, _, _ := behaviourChain(t, w)
	push(t, s, NewHandler(EventMessage))

	first := s.DebugDump()
	assert.Equal(t, first, s.DebugDump())

	file := strings.Index(first, "FileContext")
	forAgent := strings.Index(first, "ForAgentDeclarationContext")
	behaviour := strings.Index(first, "TopLevelBehaviourDeclarationContext")
	handler := strings.Index(first, "EventHandlerContext")
	assert.True(t, file < forAgent && forAgent < behaviour && behaviour < handler, first)
	assert.Contains(t, first, "        param message: Message\n")
	assert.True(t, strings.HasSuffix(first, "    }\n  }\n}\n"), first)
}

func TestDeclareSpansContinuations(t *testing.T) {
	w := newWorld(t)
	s, _, _ := behaviourChain(t, w)
	push(t, s, NewHandler(EventExecute))
	push(t, s, NewBlock("body", narrowing.None))
	require.NoError(t, s.Declare("a", types.Integer))

	item := descriptor.Must(descriptor.NewPropertyChain("item"))
	learned := narrowing.WhenTrue(descriptor.Must(descriptor.NewTypeCheck(item, w.gift)))
	after := push(t, s, NewContinuation("after check", learned))
	assert.True(t, after.Data.(*BlockContext).Continuation)

	assert.ErrorIs(t, s.Declare("a", types.Text), ErrDuplicateSymbol)
	require.NoError(t, s.Declare("b", types.Text))

	// a nested user block may shadow
	push(t, s, NewBlock("then", narrowing.None))
	require.NoError(t, s.Declare("a", types.Text))
	m, err := s.Current().ResolveSymbol("a")
	require.NoError(t, err)
	assert.Same(t, types.Text, m.Type)
}

func TestRefinementKeepsMostSpecificAcrossBlocks(t *testing.T) {
	w := newWorld(t)
	s, _, _ := behaviourChain(t, w)
	push(t, s, NewHandler(EventExecute))

	itemType, err := w.solver.ResolveName("Item")
	require.NoError(t, err)
	item := descriptor.Must(descriptor.NewPropertyChain("item"))
	isGift := narrowing.WhenTrue(descriptor.Must(descriptor.NewTypeCheck(item, w.gift)))
	isItem := narrowing.WhenTrue(descriptor.Must(descriptor.NewTypeCheck(item, itemType)))

	push(t, s, NewBlock("body", isGift))
	inner := push(t, s, NewContinuation("after check", isItem))

	refined, ok := inner.Refinement(item)
	require.True(t, ok)
	assert.Same(t, w.gift, refined)

	wrap, err := inner.TypeOfPath([]string{"item", "wrap"})
	require.NoError(t, err)
	assert.Same(t, types.Text, wrap)

	// conjunction facts cannot widen what the chain already knows
	wrap, err = inner.TypeOfPathUnder(isItem, []string{"item", "wrap"})
	require.NoError(t, err)
	assert.Same(t, types.Text, wrap)
}

func TestDebugDumpForcesAssociationViews(t *testing.T) {
	w := newWorld(t)
	s := NewStack("market", "market.jade")
	n := push(t, s, &OntologyContext{Ontology: w.o1})
	assert.Equal(t, lazy.StateUninitialized, n.current.State())

	first := s.DebugDump()
	assert.Equal(t, lazy.StateComputed, n.current.State())
	assert.Equal(t, lazy.StateComputed, n.using.State())
	assert.Equal(t, lazy.StateComputed, n.forView.State())
	assert.Equal(t, first, s.DebugDump())
}
