package trace

import (
	"fmt"

	"github.com/matzehuels/scalargraph/pkg/dag"
	"github.com/matzehuels/scalargraph/pkg/scalar"
)

// Metadata keys set on export vertices by [ToDAG].
const (
	MetaValue  = "value"   // scalar held by the node
	MetaOp     = "op"      // operation name ("leaf", "add", ...)
	MetaNodeID = "node_id" // position of the node on its tape
)

// ToDAG maps a trace onto an export graph.
//
// Every trace node becomes a value vertex labelled "data <value>". Every
// node produced by an operation also gets an operator vertex labelled with
// the operator symbol, and an edge from the operator vertex to its value
// vertex. Each trace edge (c, n) becomes an edge from c's value vertex to
// n's operator vertex (or to n's value vertex when n is a leaf).
//
// Vertex names come from labels in allocation order: for each node in trace
// order, the value vertex first, then its operator vertex. In value mode,
// edge endpoints are resolved to the trace node sharing their key, which can
// make the export graph cyclic when a node shares its value with an ancestor.
func ToDAG[T scalar.Number](t *Trace[T], labels *dag.Labeler) (*dag.DAG, error) {
	if labels == nil {
		labels = dag.NewLabeler("")
	}
	g := dag.New(dag.Metadata{"dedup": t.Dedup.String()})

	valueVertex := make(map[scalar.Value[T]]string, len(t.Nodes))
	opVertex := make(map[scalar.Value[T]]string)

	for _, n := range t.Nodes {
		vid := labels.Next()
		if err := g.AddNode(dag.Node{
			ID:    vid,
			Kind:  dag.NodeKindValue,
			Label: "data " + scalar.Format(n.Data()),
			Meta: dag.Metadata{
				MetaValue:  n.Data(),
				MetaOp:     n.Op().Name(),
				MetaNodeID: int(n.ID()),
			},
		}); err != nil {
			return nil, fmt.Errorf("value vertex %s: %w", vid, err)
		}
		valueVertex[n] = vid

		if n.IsLeaf() {
			continue
		}
		oid := labels.Next()
		if err := g.AddNode(dag.Node{
			ID:    oid,
			Kind:  dag.NodeKindOperator,
			Label: n.Op().String(),
			Meta:  dag.Metadata{MetaOp: n.Op().Name()},
		}); err != nil {
			return nil, fmt.Errorf("operator vertex %s: %w", oid, err)
		}
		opVertex[n] = oid
		if err := g.AddEdge(dag.Edge{From: oid, To: vid}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", oid, vid, err)
		}
	}

	resolve := func(v scalar.Value[T]) (scalar.Value[T], bool) {
		if _, ok := valueVertex[v]; ok {
			return v, true
		}
		return t.Representative(v)
	}

	for _, e := range t.Edges {
		from, ok := resolve(e.From)
		if !ok {
			return nil, fmt.Errorf("edge source %v: %w", e.From, dag.ErrUnknownSourceNode)
		}
		to, ok := resolve(e.To)
		if !ok {
			return nil, fmt.Errorf("edge target %v: %w", e.To, dag.ErrUnknownTargetNode)
		}
		target, isOp := opVertex[to]
		if !isOp {
			target = valueVertex[to]
		}
		if err := g.AddEdge(dag.Edge{From: valueVertex[from], To: target}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", valueVertex[from], target, err)
		}
	}

	return g, nil
}
