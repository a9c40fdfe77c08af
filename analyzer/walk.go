package analyzer

import (
	"errors"
	"log/slog"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/jadescript/jadescript-go/ast"
	"github.com/jadescript/jadescript-go/descriptor"
	"github.com/jadescript/jadescript-go/diagnostic"
	"github.com/jadescript/jadescript-go/narrowing"
	"github.com/jadescript/jadescript-go/scope"
	"github.com/jadescript/jadescript-go/types"
)

// walker descends one unit. It is not safe for concurrent use.
type walker struct {
	unit   *Unit
	logger *slog.Logger
}

func (w *walker) stack() *scope.Stack    { return w.unit.Stack }
func (w *walker) solver() *types.Solver  { return w.unit.Solver }
func (w *walker) sink() *diagnostic.Sink { return w.unit.Diagnostics }

// declaration analyzes one top-level declaration. An error aborts only this
// declaration; it is reported once and the stack is unwound to the root.
func (w *walker) declaration(d *ast.Declaration) {
	info := DeclarationInfo{Name: d.Name(), Keyword: d.Keyword(), Pos: d.Pos, Node: scope.NoParent}

	t, err := w.solver().ResolveName(info.Name)
	if err != nil || !declaredBy(t, d) {
		// duplicates and built-in shadowing were reported by the solver
		w.logger.Debug("Skipping declaration", slog.String("name", info.Name))
		return
	}
	info.Type = t

	root := w.stack().Root().ID
	switch {
	case d.Ontology != nil:
		err = w.ontology(t.(*types.OntologyType))
	case d.Agent != nil:
		err = w.agent(t.(*types.UserDefinedAgentType))
	case d.Behaviour != nil:
		err = w.behaviour(t.(*types.BehaviourType))
	}
	info.Node = w.stack().Current().ID
	w.unwind(root)

	if err != nil {
		info.Err = err
		w.report(d.Pos, info.Name, err)
	}
	w.unit.Declarations = append(w.unit.Declarations, info)
}

func declaredBy(t types.Type, d *ast.Declaration) bool {
	switch x := t.(type) {
	case *types.OntologyType:
		return x.Decl == d.Ontology
	case *types.UserDefinedAgentType:
		return x.Decl == d.Agent
	case *types.BehaviourType:
		return x.Decl == d.Behaviour
	default:
		return false
	}
}

func (w *walker) report(pos lexer.Position, name string, err error) {
	code := diagnostic.CodeUninitializedDeclaration
	switch {
	case errors.Is(err, types.ErrSupertypeCycle):
		code = diagnostic.CodeSupertypeCycle
	case errors.Is(err, descriptor.ErrInvalidDescriptor):
		code = diagnostic.CodeInvalidDescriptor
	case errors.Is(err, scope.ErrInvalidNesting):
		code = diagnostic.CodeInvalidNesting
	case errors.Is(err, types.ErrUnresolvedType):
		code = diagnostic.CodeUnresolvedType
	}
	w.sink().Errorf(pos, code, "%s: %v", name, err)
}

func (w *walker) push(ctx scope.Context) (*scope.Node, error) {
	n, err := w.stack().Push(ctx)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("Entered context", slog.String("context", n.Label), slog.Int("depth", n.Depth))
	return n, nil
}

// unwind pops until id is the current node
func (w *walker) unwind(id scope.NodeID) {
	for w.stack().Current().ID != id {
		if err := w.stack().Pop(); err != nil {
			return
		}
	}
}

// hierarchy forces the namespace of t and checks its supertype chain
func hierarchy(t types.Type) error {
	if _, err := types.SupertypeChain(t); err != nil {
		return err
	}
	_, err := t.Namespace()
	return err
}

func (w *walker) ontology(o *types.OntologyType) error {
	if _, err := w.push(&scope.OntologyContext{Ontology: o}); err != nil {
		return err
	}
	if err := hierarchy(o); err != nil {
		return err
	}
	ns, err := o.Namespace()
	if err != nil {
		return err
	}
	for _, m := range ns.Members() {
		el, ok := m.Type.(*types.OntologyElementType)
		if !ok || el.Decl == nil {
			continue
		}
		if err := hierarchy(el); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) agent(a *types.UserDefinedAgentType) error {
	if _, err := w.push(&scope.AgentContext{Agent: a, Ontologies: a.UsedOntologies()}); err != nil {
		return err
	}
	if err := hierarchy(a); err != nil {
		return err
	}
	return w.handlers(a.Decl.Members)
}

func (w *walker) behaviour(b *types.BehaviourType) error {
	agent := b.ForAgentType()
	var agentOntologies []types.Type
	if ua, ok := agent.(*types.UserDefinedAgentType); ok {
		agentOntologies = ua.UsedOntologies()
	}
	if _, err := w.push(&scope.ForAgentContext{Agent: agent, Ontologies: agentOntologies}); err != nil {
		return err
	}
	if _, err := w.push(&scope.BehaviourContext{Behaviour: b, Ontologies: b.UsedOntologies()}); err != nil {
		return err
	}
	if err := hierarchy(b); err != nil {
		return err
	}
	return w.handlers(b.Decl.Members)
}

func (w *walker) handlers(members []*ast.Member) error {
	for _, m := range members {
		if m.Handler == nil {
			continue
		}
		if err := w.handler(m.Handler); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) handler(h *ast.Handler) error {
	n, err := w.push(scope.NewHandler(h.Event))
	if err != nil {
		return err
	}
	defer w.unwind(n.Parent)

	facts := narrowing.None
	if h.When != nil {
		if facts, err = w.condition(h.When); err != nil {
			return err
		}
	}
	_, err = w.block("body", facts, h.Body)
	return err
}

// block runs stmts in a new block carrying facts and returns every fact
// known at its end, facts included.
func (w *walker) block(name string, facts narrowing.Facts, stmts []*ast.Stmt) (narrowing.Facts, error) {
	n, err := w.push(scope.NewBlock(name, facts))
	if err != nil {
		return narrowing.None, err
	}
	defer w.unwind(n.Parent)

	gained, err := w.statements(stmts)
	return narrowing.Conjoin(facts, gained), err
}

// statements returns the facts established by the statements themselves.
// New facts open a nested block for the statements that follow.
func (w *walker) statements(stmts []*ast.Stmt) (narrowing.Facts, error) {
	gained := narrowing.None
	for _, st := range stmts {
		var learned narrowing.Facts
		switch {
		case st.Var != nil:
			t := w.solver().ResolvePermissive(st.Var.Type, nil)
			if err := w.stack().Declare(st.Var.Name, t); err != nil {
				w.sink().Errorf(st.Var.Pos, diagnostic.CodeDuplicateDeclaration, "%v", err)
			}
		case st.Check != nil:
			facts, err := w.condition(st.Check.Cond)
			if err != nil {
				return gained, err
			}
			learned = facts
		case st.If != nil:
			facts, err := w.conditional(st.If)
			if err != nil {
				return gained, err
			}
			learned = facts
		}
		if learned.Len() > 0 {
			if _, err := w.push(scope.NewContinuation("after "+stmtLabel(st), learned)); err != nil {
				return gained, err
			}
			gained = narrowing.Conjoin(gained, learned)
		}
	}
	return gained, nil
}

func stmtLabel(st *ast.Stmt) string {
	if st.If != nil {
		return "if"
	}
	return "check"
}

// conditional analyzes both branches and returns the facts that hold on
// every path leaving the statement.
func (w *walker) conditional(st *ast.IfStmt) (narrowing.Facts, error) {
	facts, err := w.condition(st.Cond)
	if err != nil {
		return narrowing.None, err
	}
	thenFacts, err := w.block("then", facts, st.Then)
	if err != nil {
		return narrowing.None, err
	}
	if st.Else == nil {
		return narrowing.None, nil
	}
	elseFacts, err := w.block("else", narrowing.None, st.Else)
	if err != nil {
		return narrowing.None, err
	}
	return narrowing.Merge(thenFacts, elseFacts), nil
}

// condition builds the descriptor of cond, checks every path it mentions
// against the current node and returns what holds when it is true.
func (w *walker) condition(cond *ast.Condition) (narrowing.Facts, error) {
	d, err := descriptor.FromCondition(cond, func(ref *ast.TypeRef) types.Type {
		return w.solver().ResolvePermissive(ref, nil)
	})
	if err != nil {
		return narrowing.None, err
	}

	positions := make(map[string]lexer.Position)
	collectPaths(cond, positions)
	if err := w.checkPaths(d, narrowing.None, positions); err != nil {
		return narrowing.None, err
	}

	facts := narrowing.WhenTrue(d)
	w.unit.Conditions = append(w.unit.Conditions, ConditionInfo{
		Pos:        cond.Pos,
		Node:       w.stack().Current().ID,
		Descriptor: d,
		Facts:      facts,
	})
	return facts, nil
}

func collectPaths(cond *ast.Condition, out map[string]lexer.Position) {
	if cond == nil {
		return
	}
	for _, conj := range cond.Or {
		for _, op := range conj.And {
			switch {
			case op.Group != nil:
				collectPaths(op.Group, out)
			case op.Check != nil && op.Check.Path != nil:
				key := op.Check.Path.String()
				if _, seen := out[key]; !seen {
					out[key] = op.Check.Pos
				}
			}
		}
	}
}

// checkPaths resolves every property chain of d. Within a conjunction the
// facts of earlier operands apply to later ones. Unknown symbols and
// misplaced agent references become diagnostics; anything else aborts.
func (w *walker) checkPaths(d descriptor.Descriptor, facts narrowing.Facts, positions map[string]lexer.Position) error {
	switch x := d.(type) {
	case *descriptor.And:
		local := facts
		for _, c := range x.Children() {
			if err := w.checkPaths(c, local, positions); err != nil {
				return err
			}
			local = narrowing.Conjoin(local, narrowing.WhenTrue(c))
		}
	case *descriptor.Or:
		for _, c := range x.Children() {
			if err := w.checkPaths(c, facts, positions); err != nil {
				return err
			}
		}
	case *descriptor.TypeCheck:
		return w.checkPaths(x.Checked(), facts, positions)
	case *descriptor.PropertyChain:
		pos := positions[x.String()]
		_, err := w.stack().Current().TypeOfPathUnder(facts, x.Path())
		switch {
		case err == nil:
		case errors.Is(err, scope.ErrUnknownSymbol):
			w.sink().Errorf(pos, diagnostic.CodeUnknownSymbol, "%v", err)
		case errors.Is(err, scope.ErrAgentReference):
			w.sink().Errorf(pos, diagnostic.CodeAgentReference, "%s: %v", x, err)
		default:
			return err
		}
	}
	return nil
}
