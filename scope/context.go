// Package scope implements the context stack the analyzer descends through:
// one node per file, declaration, handler and block, each holding a handle
// to its outer node in an arena owned by the Stack.
package scope

import (
	"github.com/jadescript/jadescript-go/narrowing"
	"github.com/jadescript/jadescript-go/types"
)

// Context is the variant data of a node. The set of implementations is
// closed: *FileContext, *OntologyContext, *AgentContext, *ForAgentContext,
// *BehaviourContext, *HandlerContext and *BlockContext.
type Context interface {
	// Label is the human-readable name used in logs and dumps
	Label() string
	isContext()
}

// FileContext is the root of every stack
type FileContext struct {
	Module   string
	FileName string
}

// OntologyContext wraps a resolved ontology declaration
type OntologyContext struct {
	Ontology types.Type
}

// AgentContext wraps a resolved agent declaration and the ontologies it uses
type AgentContext struct {
	Agent      types.Type
	Ontologies []types.Type
}

// ForAgentContext scopes a top-level behaviour to the agent it is declared
// for, together with the ontologies visible to that agent.
type ForAgentContext struct {
	Agent      types.Type
	Ontologies []types.Type
}

// BehaviourContext wraps a resolved behaviour declaration. It always sits
// directly under a ForAgentContext.
type BehaviourContext struct {
	Behaviour  types.Type
	Ontologies []types.Type
}

// HandlerContext is an event handler body such as "on message"
type HandlerContext struct {
	Event  string
	Params []types.Member
}

// BlockContext is a statement block. Facts are the refinements known to
// hold inside it; locals are added as declarations are met.
type BlockContext struct {
	Name  string
	Facts narrowing.Facts
	// Continuation marks a block that carries on the statements of its
	// parent block after a narrowing statement. It shares the parent's
	// lexical scope.
	Continuation bool

	locals []types.Member
	index  map[string]int
}

// Event names of HandlerContext
const (
	EventCreate  = "create"
	EventExecute = "execute"
	EventMessage = "message"
	EventDestroy = "destroy"
	EventPercept = "percept"
)

// NewHandler builds the context of an event handler, binding the implicit
// parameters the event carries.
func NewHandler(event string) *HandlerContext {
	h := &HandlerContext{Event: event}
	switch event {
	case EventMessage:
		h.Params = []types.Member{{Name: "message", Type: types.Message, Kind: types.MemberBuiltin}}
	case EventPercept:
		h.Params = []types.Member{{Name: "percept", Type: types.Any, Kind: types.MemberBuiltin}}
	}
	return h
}

// NewBlock builds an empty block carrying facts
func NewBlock(name string, facts narrowing.Facts) *BlockContext {
	return &BlockContext{Name: name, Facts: facts, index: make(map[string]int)}
}

// NewContinuation builds a block that continues its parent after facts
// were learned
func NewContinuation(name string, facts narrowing.Facts) *BlockContext {
	b := NewBlock(name, facts)
	b.Continuation = true
	return b
}

// Lookup finds a local declared in this block
func (b *BlockContext) Lookup(name string) (types.Member, bool) {
	i, ok := b.index[name]
	if !ok {
		return types.Member{}, false
	}
	return b.locals[i], true
}

// Locals returns the block's locals in declaration order
func (b *BlockContext) Locals() []types.Member {
	return append([]types.Member{}, b.locals...)
}

func (b *BlockContext) declare(m types.Member) bool {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if _, dup := b.index[m.Name]; dup {
		return false
	}
	b.index[m.Name] = len(b.locals)
	b.locals = append(b.locals, m)
	return true
}

// OntologyName returns the name of the wrapped ontology
func (c *OntologyContext) OntologyName() string {
	return c.Ontology.Name()
}

func (c *FileContext) Label() string      { return "file " + c.FileName }
func (c *OntologyContext) Label() string  { return "ontology " + c.Ontology.Name() }
func (c *AgentContext) Label() string     { return "agent " + c.Agent.Name() }
func (c *ForAgentContext) Label() string  { return "for agent " + c.Agent.Name() }
func (c *BehaviourContext) Label() string { return "behaviour " + c.Behaviour.Name() }
func (c *HandlerContext) Label() string   { return "on " + c.Event }
func (c *BlockContext) Label() string     { return "block " + c.Name }

func (*FileContext) isContext()      {}
func (*OntologyContext) isContext()  {}
func (*AgentContext) isContext()     {}
func (*ForAgentContext) isContext()  {}
func (*BehaviourContext) isContext() {}
func (*HandlerContext) isContext()   {}
func (*BlockContext) isContext()     {}

// variant returns the name printed on dump opening lines
func variant(c Context) string {
	switch c.(type) {
	case *FileContext:
		return "FileContext"
	case *OntologyContext:
		return "OntologyDeclarationContext"
	case *AgentContext:
		return "AgentDeclarationContext"
	case *ForAgentContext:
		return "ForAgentDeclarationContext"
	case *BehaviourContext:
		return "TopLevelBehaviourDeclarationContext"
	case *HandlerContext:
		return "EventHandlerContext"
	case *BlockContext:
		return "BlockContext"
	default:
		return "UnknownContext"
	}
}
