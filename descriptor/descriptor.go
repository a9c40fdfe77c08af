// Package descriptor models boolean conditions as immutable, structurally
// comparable trees. Descriptors key the type refinements known to hold
// under a condition.
//
// Children of And and Or are compared as ordered sequences: And(a, b) and
// And(b, a) are different keys. Callers that want commutative merging must
// normalize child order before construction.
package descriptor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jadescript/jadescript-go/types"
)

// ErrInvalidDescriptor is matched by every *InvalidDescriptorError
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// InvalidDescriptorError reports a constructor precondition violation
type InvalidDescriptorError struct {
	Node   string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid %s descriptor: %s", e.Node, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidDescriptor) hold
func (e *InvalidDescriptorError) Is(target error) bool {
	return target == ErrInvalidDescriptor
}

// Descriptor is one of *Or, *And, *TypeCheck or *PropertyChain
type Descriptor interface {
	String() string
	isDescriptor()
}

// Or is a disjunction
type Or struct {
	children []Descriptor
}

// And is a conjunction
type And struct {
	children []Descriptor
}

// TypeCheck asserts that Checked evaluates to a value of Type
type TypeCheck struct {
	checked Descriptor
	typ     types.Type
}

// PropertyChain is a field-access path such as msg.content.sender
type PropertyChain struct {
	path []string
}

func (*Or) isDescriptor()            {}
func (*And) isDescriptor()           {}
func (*TypeCheck) isDescriptor()     {}
func (*PropertyChain) isDescriptor() {}

// NewOr builds a disjunction of children in the given order
func NewOr(children ...Descriptor) (*Or, error) {
	if err := checkChildren("or", children); err != nil {
		return nil, err
	}
	return &Or{children: append([]Descriptor{}, children...)}, nil
}

// NewAnd builds a conjunction of children in the given order
func NewAnd(children ...Descriptor) (*And, error) {
	if err := checkChildren("and", children); err != nil {
		return nil, err
	}
	return &And{children: append([]Descriptor{}, children...)}, nil
}

func checkChildren(node string, children []Descriptor) error {
	for i, c := range children {
		if c == nil {
			return &InvalidDescriptorError{Node: node, Reason: fmt.Sprintf("child %d is nil", i)}
		}
	}
	return nil
}

// NewTypeCheck builds "checked is t"
func NewTypeCheck(checked Descriptor, t types.Type) (*TypeCheck, error) {
	if checked == nil {
		return nil, &InvalidDescriptorError{Node: "type check", Reason: "checked expression is nil"}
	}
	if t == nil {
		return nil, &InvalidDescriptorError{Node: "type check", Reason: "type is nil"}
	}
	return &TypeCheck{checked: checked, typ: t}, nil
}

// NewPropertyChain builds a non-empty access path
func NewPropertyChain(path ...string) (*PropertyChain, error) {
	if len(path) == 0 {
		return nil, &InvalidDescriptorError{Node: "property chain", Reason: "path is empty"}
	}
	for i, seg := range path {
		if seg == "" {
			return nil, &InvalidDescriptorError{Node: "property chain", Reason: fmt.Sprintf("segment %d is empty", i)}
		}
	}
	return &PropertyChain{path: append([]string{}, path...)}, nil
}

// Must panics on a constructor error; intended for literals in tests and
// built-in tables.
func Must[D Descriptor](d D, err error) D {
	if err != nil {
		panic(err)
	}
	return d
}

// Children returns a copy of the disjuncts
func (o *Or) Children() []Descriptor { return append([]Descriptor{}, o.children...) }

// Children returns a copy of the conjuncts
func (a *And) Children() []Descriptor { return append([]Descriptor{}, a.children...) }

// Checked returns the expression being tested
func (c *TypeCheck) Checked() Descriptor { return c.checked }

// Type returns the tested type
func (c *TypeCheck) Type() types.Type { return c.typ }

// Path returns a copy of the access path
func (p *PropertyChain) Path() []string { return append([]string{}, p.path...) }

// Prefix returns the chain made of the first n segments
func (p *PropertyChain) Prefix(n int) *PropertyChain {
	if n <= 0 || n > len(p.path) {
		return p
	}
	return &PropertyChain{path: append([]string{}, p.path[:n]...)}
}

func (o *Or) String() string {
	return join(o.children, " or ", false)
}

func (a *And) String() string {
	return join(a.children, " and ", true)
}

func (c *TypeCheck) String() string {
	return c.checked.String() + " is " + c.typ.String()
}

func (p *PropertyChain) String() string {
	return strings.Join(p.path, ".")
}

func join(children []Descriptor, sep string, groupOr bool) string {
	parts := make([]string, len(children))
	for i, c := range children {
		s := c.String()
		_, isOr := c.(*Or)
		_, isAnd := c.(*And)
		if (groupOr && isOr) || (!groupOr && isAnd && len(children) > 1) {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}
