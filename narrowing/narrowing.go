// Package narrowing derives the type refinements that hold while a
// condition is known to be true.
package narrowing

import (
	"strings"

	"github.com/jadescript/jadescript-go/descriptor"
	"github.com/jadescript/jadescript-go/types"
)

// Facts maps checked-expression descriptors to the type they are known to
// have. Facts are immutable; every operation returns a new value. The zero
// value holds no facts.
type Facts struct {
	m *descriptor.Map[types.Type]
}

// None is the empty fact set
var None = Facts{}

// Of builds facts from explicit pairs, mostly for tests
func Of(pairs map[descriptor.Descriptor]types.Type) Facts {
	m := &descriptor.Map[types.Type]{}
	for d, t := range pairs {
		m.Set(d, t)
	}
	return Facts{m: m}
}

// Len returns the number of refined expressions
func (f Facts) Len() int {
	return f.m.Len()
}

// Refinement returns the type d is known to have
func (f Facts) Refinement(d descriptor.Descriptor) (types.Type, bool) {
	return f.m.Get(d)
}

// Range visits the facts in key order until fn returns false
func (f Facts) Range(fn func(d descriptor.Descriptor, t types.Type) bool) {
	f.m.Range(fn)
}

// String renders the facts as "{x: T, y.z: U}"
func (f Facts) String() string {
	var parts []string
	f.Range(func(d descriptor.Descriptor, t types.Type) bool {
		parts = append(parts, d.String()+": "+t.String())
		return true
	})
	return "{" + strings.Join(parts, ", ") + "}"
}

func (f Facts) with(d descriptor.Descriptor, t types.Type) Facts {
	m := f.m.Clone()
	m.Set(d, t)
	return Facts{m: m}
}

// WhenTrue returns what holds when d evaluates to true
func WhenTrue(d descriptor.Descriptor) Facts {
	switch x := d.(type) {
	case *descriptor.TypeCheck:
		return None.with(x.Checked(), x.Type())
	case *descriptor.And:
		out := None
		for _, c := range x.Children() {
			out = Conjoin(out, WhenTrue(c))
		}
		return out
	case *descriptor.Or:
		children := x.Children()
		if len(children) == 0 {
			return None
		}
		out := WhenTrue(children[0])
		for _, c := range children[1:] {
			out = Merge(out, WhenTrue(c))
		}
		return out
	default:
		return None
	}
}

// Conjoin is what holds when both a and b hold: their union, where a key
// present in both keeps the more specific type.
func Conjoin(a, b Facts) Facts {
	out := a.m.Clone()
	b.Range(func(d descriptor.Descriptor, t types.Type) bool {
		if prev, ok := out.Get(d); ok {
			t = types.MoreSpecific(prev, t)
		}
		out.Set(d, t)
		return true
	})
	return Facts{m: out}
}

// Merge joins the facts of two control-flow paths. Only expressions refined
// on both paths survive, widened to their common supertype.
func Merge(a, b Facts) Facts {
	out := &descriptor.Map[types.Type]{}
	a.Range(func(d descriptor.Descriptor, t types.Type) bool {
		if other, ok := b.Refinement(d); ok {
			out.Set(d, types.CommonSupertype(t, other))
		}
		return true
	})
	return Facts{m: out}
}

// Extend layers inner over outer; inner wins on shared keys
func Extend(outer, inner Facts) Facts {
	out := outer.m.Clone()
	inner.Range(func(d descriptor.Descriptor, t types.Type) bool {
		out.Set(d, t)
		return true
	})
	return Facts{m: out}
}
