package scope

import (
	"fmt"
	"io"
	"strings"

	"github.com/jadescript/jadescript-go/association"
	"github.com/jadescript/jadescript-go/types"
)

// DebugDump renders the chain from the root down to n
func (n *Node) DebugDump() string {
	var b strings.Builder
	_ = n.Dump(&b)
	return b.String()
}

// Dump writes the chain from the root down to n. Every node opens a block
// after its parent's attributes, so the output reads outer to inner; the
// closing lines follow in reverse. Dumping never changes the stack, but it
// forces the association views of every node on the chain; they are
// computed at most once, so later queries see the same sets.
func (n *Node) Dump(w io.Writer) error {
	d := &dumper{w: w}
	chain := n.Chain()
	for _, node := range chain {
		d.open(node)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		d.linef(chain[i].Depth, "}")
	}
	return d.err
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) linef(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s"+format+"\n", append([]any{strings.Repeat("  ", depth)}, args...)...)
}

func (d *dumper) open(n *Node) {
	d.linef(n.Depth, "%s %q {", variant(n.Data), n.Label)
	in := n.Depth + 1

	switch c := n.Data.(type) {
	case *FileContext:
		d.linef(in, "module: %s", c.Module)
		d.linef(in, "file: %s", c.FileName)
	case *OntologyContext:
		d.linef(in, "ontology: %s", c.Ontology)
	case *AgentContext:
		d.linef(in, "agent: %s", c.Agent)
		d.linef(in, "ontologies: %s", typeList(c.Ontologies))
	case *ForAgentContext:
		d.linef(in, "agent: %s", c.Agent)
		d.linef(in, "ontologies: %s", typeList(c.Ontologies))
	case *BehaviourContext:
		d.linef(in, "behaviour: %s", c.Behaviour)
		d.linef(in, "ontologies: %s", typeList(c.Ontologies))
	case *HandlerContext:
		d.linef(in, "event: %s", c.Event)
		for _, p := range c.Params {
			d.linef(in, "param %s: %s", p.Name, p.Type)
		}
	case *BlockContext:
		for _, l := range c.locals {
			d.linef(in, "local %s: %s", l.Name, l.Type)
		}
		if c.Facts.Len() > 0 {
			d.linef(in, "facts: %s", c.Facts)
		}
	}
	d.linef(in, "agent reference: %t", n.CanUseAgentReference())

	d.associations(in, "current", n.CurrentAssociations())
	d.associations(in, "using", n.UsingAssociations())
	d.associations(in, "for", n.ForClauseAssociations())
}

func (d *dumper) associations(depth int, view string, set association.Set) {
	if set.Len() == 0 {
		d.linef(depth, "%s associations: none", view)
		return
	}
	d.linef(depth, "%s associations {", view)
	for _, a := range set.Slice() {
		d.linef(depth+1, "%s", a)
	}
	d.linef(depth, "}")
}

func typeList(ts []types.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return "[" + strings.Join(names, ", ") + "]"
}
