package descriptor

import (
	"github.com/jadescript/jadescript-go/ast"
	"github.com/jadescript/jadescript-go/types"
)

// Resolver maps the type reference of an "is" test to a type
type Resolver func(ref *ast.TypeRef) types.Type

// FromCondition builds the descriptor of a raw condition. Single-child
// conjunctions and disjunctions collapse into their child, so "(a is T)"
// and "a is T" yield equal descriptors.
func FromCondition(cond *ast.Condition, resolve Resolver) (Descriptor, error) {
	if cond == nil || len(cond.Or) == 0 {
		return nil, &InvalidDescriptorError{Node: "condition", Reason: "condition is empty"}
	}

	disjuncts := make([]Descriptor, 0, len(cond.Or))
	for _, conj := range cond.Or {
		d, err := fromConjunction(conj, resolve)
		if err != nil {
			return nil, err
		}
		disjuncts = append(disjuncts, d)
	}
	if len(disjuncts) == 1 {
		return disjuncts[0], nil
	}
	return NewOr(disjuncts...)
}

func fromConjunction(conj *ast.Conjunction, resolve Resolver) (Descriptor, error) {
	if conj == nil || len(conj.And) == 0 {
		return nil, &InvalidDescriptorError{Node: "and", Reason: "conjunction is empty"}
	}

	conjuncts := make([]Descriptor, 0, len(conj.And))
	for _, op := range conj.And {
		d, err := fromOperand(op, resolve)
		if err != nil {
			return nil, err
		}
		conjuncts = append(conjuncts, d)
	}
	if len(conjuncts) == 1 {
		return conjuncts[0], nil
	}
	return NewAnd(conjuncts...)
}

func fromOperand(op *ast.Operand, resolve Resolver) (Descriptor, error) {
	switch {
	case op == nil:
		return nil, &InvalidDescriptorError{Node: "operand", Reason: "operand is nil"}
	case op.Group != nil:
		return FromCondition(op.Group, resolve)
	case op.Check == nil || op.Check.Path == nil:
		return nil, &InvalidDescriptorError{Node: "operand", Reason: "operand has no path"}
	}

	chain, err := NewPropertyChain(op.Check.Path.Segments...)
	if err != nil {
		return nil, err
	}
	if op.Check.Type == nil {
		return chain, nil
	}
	return NewTypeCheck(chain, resolve(op.Check.Type))
}
