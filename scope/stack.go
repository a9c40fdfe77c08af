package scope

import (
	"errors"
	"fmt"

	"github.com/jadescript/jadescript-go/association"
	"github.com/jadescript/jadescript-go/lazy"
	"github.com/jadescript/jadescript-go/types"
)

var (
	// ErrInvalidNesting is returned when a context is pushed under a parent
	// that cannot contain it
	ErrInvalidNesting = errors.New("invalid context nesting")
	// ErrPopRoot is returned when popping the file context
	ErrPopRoot = errors.New("cannot pop the root context")
	// ErrNotInBlock is returned when declaring a local outside a block
	ErrNotInBlock = errors.New("locals can only be declared inside a block")
	// ErrDuplicateSymbol is returned when a block already declares a name
	ErrDuplicateSymbol = errors.New("symbol already declared")
)

// NodeID is a handle into the stack's arena
type NodeID int

// NoParent is the parent handle of the root node
const NoParent NodeID = -1

// Node is one entry of the context chain. It holds a handle to its outer
// node, never a pointer, and a reference to the arena so queries can walk
// upward. Association views are computed once per node.
type Node struct {
	ID     NodeID
	Parent NodeID
	Depth  int
	Label  string
	Data   Context

	stack   *Stack
	current *lazy.Value[association.Set]
	using   *lazy.Value[association.Set]
	forView *lazy.Value[association.Set]
}

// Stack owns every node of one compilation unit. Popped nodes stay in the
// arena so their handles remain valid for later queries. A Stack is meant
// for a single goroutine.
type Stack struct {
	nodes   []*Node
	current NodeID
}

// NewStack creates a stack whose root is the file context
func NewStack(module, fileName string) *Stack {
	s := &Stack{current: NoParent}
	s.add(&FileContext{Module: module, FileName: fileName}, NoParent)
	return s
}

func (s *Stack) add(ctx Context, parent NodeID) *Node {
	n := &Node{
		ID:     NodeID(len(s.nodes)),
		Parent: parent,
		Label:  ctx.Label(),
		Data:   ctx,
		stack:  s,
	}
	if p := s.Node(parent); p != nil {
		n.Depth = p.Depth + 1
	}
	n.current = lazy.New(func() (association.Set, error) { return n.computeCurrent(), nil })
	n.using = lazy.New(func() (association.Set, error) { return n.computeUsing(), nil })
	n.forView = lazy.New(func() (association.Set, error) { return n.computeFor(), nil })
	s.nodes = append(s.nodes, n)
	s.current = n.ID
	return n
}

// Push enters ctx as a child of the current node
func (s *Stack) Push(ctx Context) (*Node, error) {
	if isNil(ctx) {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidNesting)
	}
	parent := s.Current()
	if !canNest(parent.Data, ctx) {
		return nil, fmt.Errorf("%w: %s cannot contain %s", ErrInvalidNesting, variant(parent.Data), variant(ctx))
	}
	if err := validate(ctx); err != nil {
		return nil, err
	}
	return s.add(ctx, parent.ID), nil
}

// Pop leaves the current node
func (s *Stack) Pop() error {
	cur := s.Current()
	if cur.Parent == NoParent {
		return ErrPopRoot
	}
	s.current = cur.Parent
	return nil
}

// Current returns the innermost node
func (s *Stack) Current() *Node {
	return s.nodes[s.current]
}

// Root returns the file node
func (s *Stack) Root() *Node {
	return s.nodes[0]
}

// Node returns the node with the given handle, or nil
func (s *Stack) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(s.nodes) {
		return nil
	}
	return s.nodes[id]
}

// Len returns the number of nodes ever pushed, the root included
func (s *Stack) Len() int {
	return len(s.nodes)
}

// Declare adds a local to the current block. A name already declared in
// the same lexical block, continuations included, is a duplicate.
func (s *Stack) Declare(name string, t types.Type) error {
	b, ok := s.Current().Data.(*BlockContext)
	if !ok {
		return ErrNotInBlock
	}
	for cur := s.Current(); cur != nil; cur = cur.Outer() {
		owner, ok := cur.Data.(*BlockContext)
		if !ok {
			break
		}
		if _, dup := owner.Lookup(name); dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSymbol, name)
		}
		if !owner.Continuation {
			break
		}
	}
	if !b.declare(types.Member{Name: name, Type: t, Kind: types.MemberProperty}) {
		return fmt.Errorf("%w: %s", ErrDuplicateSymbol, name)
	}
	return nil
}

// Outer returns the enclosing node, or nil at the root
func (n *Node) Outer() *Node {
	return n.stack.Node(n.Parent)
}

// Chain returns the nodes from the root down to n
func (n *Node) Chain() []*Node {
	chain := make([]*Node, n.Depth+1)
	for cur := n; cur != nil; cur = cur.Outer() {
		chain[cur.Depth] = cur
	}
	return chain
}

func canNest(parent, child Context) bool {
	switch parent.(type) {
	case *FileContext:
		switch child.(type) {
		case *OntologyContext, *AgentContext, *ForAgentContext:
			return true
		}
	case *AgentContext:
		_, ok := child.(*HandlerContext)
		return ok
	case *ForAgentContext:
		_, ok := child.(*BehaviourContext)
		return ok
	case *BehaviourContext:
		_, ok := child.(*HandlerContext)
		return ok
	case *HandlerContext, *BlockContext:
		_, ok := child.(*BlockContext)
		return ok
	}
	return false
}

// isNil reports a nil interface or a nil pointer of any variant
func isNil(ctx Context) bool {
	switch c := ctx.(type) {
	case nil:
		return true
	case *FileContext:
		return c == nil
	case *OntologyContext:
		return c == nil
	case *AgentContext:
		return c == nil
	case *ForAgentContext:
		return c == nil
	case *BehaviourContext:
		return c == nil
	case *HandlerContext:
		return c == nil
	case *BlockContext:
		return c == nil
	}
	return false
}

func validate(ctx Context) error {
	var missing string
	switch c := ctx.(type) {
	case *OntologyContext:
		if c.Ontology == nil {
			missing = "ontology type"
		}
	case *AgentContext:
		if c.Agent == nil {
			missing = "agent type"
		}
	case *ForAgentContext:
		if c.Agent == nil {
			missing = "agent type"
		}
	case *BehaviourContext:
		if c.Behaviour == nil {
			missing = "behaviour type"
		}
	}
	if missing != "" {
		return fmt.Errorf("%w: %s without %s", ErrInvalidNesting, variant(ctx), missing)
	}
	return nil
}
