package narrowing

import (
	"testing"

	"github.com/jadescript/jadescript-go/ast"
	"github.com/jadescript/jadescript-go/descriptor"
	"github.com/jadescript/jadescript-go/diagnostic"
	"github.com/jadescript/jadescript-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zoo = `
ontology Zoo {
	concept Animal
	concept Dog extends Animal
	concept Cat extends Animal
	concept Rock
}
`

type fixture struct {
	animal, dog, cat, rock types.Type
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	file, err := ast.ParseString("zoo.jade", zoo)
	require.NoError(t, err)
	s := types.NewSolver(file, diagnostic.NewSink("zoo.jade"))

	get := func(name string) types.Type {
		typ, err := s.ResolveName(name)
		require.NoError(t, err)
		return typ
	}
	return fixture{animal: get("Animal"), dog: get("Dog"), cat: get("Cat"), rock: get("Rock")}
}

func path(p ...string) descriptor.Descriptor {
	return descriptor.Must(descriptor.NewPropertyChain(p...))
}

func is(d descriptor.Descriptor, t types.Type) descriptor.Descriptor {
	return descriptor.Must(descriptor.NewTypeCheck(d, t))
}

func and(ds ...descriptor.Descriptor) descriptor.Descriptor {
	return descriptor.Must(descriptor.NewAnd(ds...))
}

func or(ds ...descriptor.Descriptor) descriptor.Descriptor {
	return descriptor.Must(descriptor.NewOr(ds...))
}

func TestWhenTrueTypeCheck(t *testing.T) {
	f := newFixture(t)

	facts := WhenTrue(is(path("x"), f.dog))
	require.Equal(t, 1, facts.Len())

	got, ok := facts.Refinement(path("x"))
	require.True(t, ok)
	assert.Same(t, f.dog, got)

	_, ok = facts.Refinement(path("y"))
	assert.False(t, ok)
}

func TestWhenTrueConjunction(t *testing.T) {
	f := newFixture(t)

	facts := WhenTrue(and(is(path("x"), f.animal), is(path("y"), f.rock), is(path("x"), f.dog)))
	assert.Equal(t, 2, facts.Len())

	x, _ := facts.Refinement(path("x"))
	assert.Same(t, f.dog, x)
	y, _ := facts.Refinement(path("y"))
	assert.Same(t, f.rock, y)
}

func TestWhenTrueDisjunction(t *testing.T) {
	f := newFixture(t)

	facts := WhenTrue(or(
		and(is(path("x"), f.dog), is(path("y"), f.rock)),
		is(path("x"), f.cat),
	))
	require.Equal(t, 1, facts.Len())
	x, _ := facts.Refinement(path("x"))
	assert.Same(t, f.animal, x)

	siblings := WhenTrue(or(is(path("x"), f.dog), is(path("x"), f.rock)))
	x, _ = siblings.Refinement(path("x"))
	assert.Same(t, types.Concept, x)

	unrelated := WhenTrue(or(is(path("x"), f.dog), is(path("x"), types.Integer)))
	x, _ = unrelated.Refinement(path("x"))
	assert.Same(t, types.Any, x)
}

func TestWhenTrueBareChain(t *testing.T) {
	assert.Equal(t, 0, WhenTrue(path("ready")).Len())
	assert.Equal(t, 0, WhenTrue(nil).Len())
}

func TestMergeAndExtend(t *testing.T) {
	f := newFixture(t)

	thenFacts := Of(map[descriptor.Descriptor]types.Type{path("x"): f.dog, path("y"): f.rock})
	elseFacts := Of(map[descriptor.Descriptor]types.Type{path("x"): f.cat})

	joined := Merge(thenFacts, elseFacts)
	assert.Equal(t, "{x: Animal}", joined.String())

	outer := Of(map[descriptor.Descriptor]types.Type{path("x"): f.animal, path("z"): f.rock})
	inner := Of(map[descriptor.Descriptor]types.Type{path("x"): f.dog})
	layered := Extend(outer, inner)
	assert.Equal(t, "{x: Dog, z: Rock}", layered.String())

	// inputs are untouched
	assert.Equal(t, "{x: Animal, z: Rock}", outer.String())
}

func TestZeroFacts(t *testing.T) {
	var f Facts
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, "{}", f.String())
	_, ok := f.Refinement(path("x"))
	assert.False(t, ok)
	assert.Equal(t, 0, Merge(f, None).Len())
}

func TestConjoinKeepsMoreSpecific(t *testing.T) {
	f := newFixture(t)

	known := WhenTrue(is(path("x"), f.dog))
	widened := Conjoin(known, WhenTrue(and(is(path("x"), f.animal), is(path("y"), f.rock))))
	assert.Equal(t, "{x: Dog, y: Rock}", widened.String())

	narrowed := Conjoin(WhenTrue(is(path("x"), f.animal)), known)
	assert.Equal(t, "{x: Dog}", narrowed.String())

	// unrelated types keep the left operand
	assert.Equal(t, "{x: Dog}", Conjoin(known, WhenTrue(is(path("x"), f.rock))).String())
	assert.Equal(t, 0, Conjoin(None, None).Len())
}
