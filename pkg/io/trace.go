package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/matzehuels/scalargraph/pkg/scalar"
	"github.com/matzehuels/scalargraph/pkg/trace"
)

// ErrNotReplayable is returned by [ReadTraceJSON] for traces that cannot be
// rebuilt on a tape, such as value-keyed traces.
var ErrNotReplayable = errors.New("trace cannot be replayed")

type traceDoc struct {
	Dedup string      `json:"dedup"`
	Root  *int        `json:"root,omitempty"`
	Nodes []traceNode `json:"nodes"`
	Edges []traceEdge `json:"edges"`
}

type traceNode struct {
	ID       int    `json:"id"`
	Value    number `json:"value"`
	Op       string `json:"op"`
	Operands []int  `json:"operands,omitempty"`
}

type traceEdge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// WriteTraceJSON encodes a trace as JSON and writes it to w, in the trace's
// own node and edge order.
func WriteTraceJSON[T scalar.Number](t *trace.Trace[T], w io.Writer) error {
	out := traceDoc{
		Dedup: t.Dedup.String(),
		Nodes: make([]traceNode, len(t.Nodes)),
		Edges: make([]traceEdge, len(t.Edges)),
	}
	if t.Root.IsValid() {
		root := int(t.Root.ID())
		out.Root = &root
	}
	for i, n := range t.Nodes {
		tn := traceNode{ID: int(n.ID()), Value: numberOf(n.Data()), Op: n.Op().Name()}
		for _, c := range n.Children() {
			tn.Operands = append(tn.Operands, int(c.ID()))
		}
		out.Nodes[i] = tn
	}
	for i, e := range t.Edges {
		out.Edges[i] = traceEdge{From: int(e.From.ID()), To: int(e.To.ID())}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadTraceJSON decodes a trace document and rebuilds its nodes on a new
// tape of T, returning the rebuilt root. A value that T cannot hold, such as
// a fraction or "NaN" on an integer tape, is an error. Nodes are constructed in tape
// order, so every operand exists before the node that consumes it.
//
// An empty document yields the zero Value. A value-keyed document, or one
// whose operands are missing from its node list, fails with
// [ErrNotReplayable].
func ReadTraceJSON[T scalar.Number](r io.Reader) (scalar.Value[T], error) {
	var zero scalar.Value[T]

	var data traceDoc
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return zero, fmt.Errorf("decode: %w", err)
	}
	mode, err := trace.ParseMode(data.Dedup)
	if err != nil {
		return zero, fmt.Errorf("decode: %w", err)
	}
	if mode != trace.DedupByIdentity {
		return zero, fmt.Errorf("%s-keyed trace: %w", mode, ErrNotReplayable)
	}
	if data.Root == nil {
		return zero, nil
	}

	nodes := slices.Clone(data.Nodes)
	slices.SortFunc(nodes, func(a, b traceNode) int { return a.ID - b.ID })

	tp := scalar.NewTape[T]()
	built := make(map[int]scalar.Value[T], len(nodes))
	for _, n := range nodes {
		if _, dup := built[n.ID]; dup {
			return zero, fmt.Errorf("node %d: duplicate id", n.ID)
		}
		op, err := scalar.ParseOperation(n.Op)
		if err != nil {
			return zero, fmt.Errorf("node %d: %w", n.ID, err)
		}
		value, err := scalar.Parse[T](string(n.Value))
		if err != nil {
			return zero, fmt.Errorf("node %d: value: %w", n.ID, err)
		}
		operands := make([]scalar.Value[T], len(n.Operands))
		for i, id := range n.Operands {
			v, ok := built[id]
			if !ok {
				return zero, fmt.Errorf("node %d: operand %d: %w", n.ID, id, ErrNotReplayable)
			}
			operands[i] = v
		}
		v, err := tp.Construct(value, op, operands...)
		if err != nil {
			return zero, fmt.Errorf("node %d: %w", n.ID, err)
		}
		built[n.ID] = v
	}

	root, ok := built[*data.Root]
	if !ok {
		return zero, fmt.Errorf("root %d: %w", *data.Root, ErrNotReplayable)
	}
	return root, nil
}
