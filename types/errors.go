package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

var (
	// ErrUnresolvedType is matched by every *UnresolvedTypeError
	ErrUnresolvedType = errors.New("unresolved type")
	// ErrSupertypeCycle is matched by every *CycleError
	ErrSupertypeCycle = errors.New("supertype cycle")
	// ErrUninitializedDeclaration is returned when a placeholder is asked
	// to take part in real analysis
	ErrUninitializedDeclaration = errors.New("uninitialized declaration used")
)

// UnresolvedTypeError reports a reference that names no known type
type UnresolvedTypeError struct {
	Name string
	Pos  lexer.Position
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("cannot resolve type %q", e.Name)
}

// Is makes errors.Is(err, ErrUnresolvedType) hold
func (e *UnresolvedTypeError) Is(target error) bool {
	return target == ErrUnresolvedType
}

// CycleError reports a supertype chain that loops back on itself. Chain
// ends with the first repeated type.
type CycleError struct {
	Chain []Type
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Chain))
	for i, t := range e.Chain {
		names[i] = t.Name()
	}
	return "supertype cycle: " + strings.Join(names, " -> ")
}

// Is makes errors.Is(err, ErrSupertypeCycle) hold
func (e *CycleError) Is(target error) bool {
	return target == ErrSupertypeCycle
}
