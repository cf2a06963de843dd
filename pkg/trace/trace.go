package trace

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/scalargraph/pkg/scalar"
)

// Mode selects the key a trace deduplicates nodes and edges by.
type Mode int

const (
	// DedupByIdentity keys nodes by the node itself. Two nodes are merged
	// only if they are the same node.
	DedupByIdentity Mode = iota

	// DedupByValue keys nodes by [scalar.Value.CompareKey], the scalar they
	// hold. Distinct nodes that happen to hold equal values are merged,
	// equal-valued operands of one node collapse to the first of them, and
	// edges are keyed by their From node alone. This is lossy; it exists to
	// reproduce value-ordered set semantics exactly.
	DedupByValue
)

// String returns "identity" or "value".
func (m Mode) String() string {
	switch m {
	case DedupByIdentity:
		return "identity"
	case DedupByValue:
		return "value"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "identity" or "value". The empty string is identity.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "identity":
		return DedupByIdentity, nil
	case "value":
		return DedupByValue, nil
	}
	return DedupByIdentity, fmt.Errorf("unknown dedup mode %q (must be 'identity' or 'value')", s)
}

// Options configures [ExtractWith].
type Options struct {
	// Dedup selects node identity. The zero value is DedupByIdentity.
	Dedup Mode
}

// Edge records that From was consumed to produce To.
type Edge[T scalar.Number] struct {
	From scalar.Value[T]
	To   scalar.Value[T]
}

// Trace is a deduplicated snapshot of the nodes and edges reachable from a
// root. Nodes are ordered by value, ties broken by node ID; edges by the
// From value, then the To value, then IDs. Discovery order is not kept.
//
// A Trace is never modified after extraction. Callers must not modify the
// Nodes or Edges slices.
type Trace[T scalar.Number] struct {
	Root  scalar.Value[T]
	Dedup Mode
	Nodes []scalar.Value[T]
	Edges []Edge[T]
}

// Extract walks the history of root with identity deduplication.
func Extract[T scalar.Number](root scalar.Value[T]) *Trace[T] {
	return ExtractWith(root, Options{})
}

// ExtractWith walks the history of root depth-first and returns every node
// and edge it finds, each once under the configured key.
//
// The walk visits each key at most once, so its cost is linear in the size
// of the graph even when subexpressions are shared. It uses an explicit
// stack and cannot overflow on deep chains. A leaf root yields a trace with
// one node and no edges; the zero Value yields an empty trace.
func ExtractWith[T scalar.Number](root scalar.Value[T], opts Options) *Trace[T] {
	t := &Trace[T]{Root: root, Dedup: opts.Dedup}
	if !root.IsValid() {
		return t
	}
	if opts.Dedup == DedupByValue {
		t.Nodes, t.Edges = walk(root, valueKey[T], valueChildren[T], func(e Edge[T]) key[T] { return valueKey(e.From) })
	} else {
		t.Nodes, t.Edges = walk(root, identityKey[T], identityChildren[T], func(e Edge[T]) Edge[T] { return e })
	}
	slices.SortFunc(t.Nodes, compareNodes[T])
	slices.SortFunc(t.Edges, func(a, b Edge[T]) int {
		if c := compareNodes(a.From, b.From); c != 0 {
			return c
		}
		return compareNodes(a.To, b.To)
	})
	return t
}

type frame[T scalar.Number] struct {
	node     scalar.Value[T]
	children []scalar.Value[T]
	next     int
}

// walk is the recursive memoized visit written with an explicit stack:
// visiting n marks it, then for each child c records edge (c, n) and visits
// c before moving on to the next child.
func walk[T scalar.Number, K, EK comparable](
	root scalar.Value[T],
	key func(scalar.Value[T]) K,
	children func(scalar.Value[T]) []scalar.Value[T],
	edgeKey func(Edge[T]) EK,
) ([]scalar.Value[T], []Edge[T]) {
	visited := make(map[K]struct{})
	seenEdges := make(map[EK]struct{})
	var nodes []scalar.Value[T]
	var edges []Edge[T]
	var stack []frame[T]

	visit := func(n scalar.Value[T]) {
		k := key(n)
		if _, ok := visited[k]; ok {
			return
		}
		visited[k] = struct{}{}
		nodes = append(nodes, n)
		stack = append(stack, frame[T]{node: n, children: children(n)})
	}

	visit(root)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.children) {
			stack = stack[:len(stack)-1]
			continue
		}
		c := top.children[top.next]
		top.next++
		e := Edge[T]{From: c, To: top.node}
		if ek := edgeKey(e); !has(seenEdges, ek) {
			seenEdges[ek] = struct{}{}
			edges = append(edges, e)
		}
		visit(c)
	}
	return nodes, edges
}

func has[K comparable](m map[K]struct{}, k K) bool {
	_, ok := m[k]
	return ok
}

func identityKey[T scalar.Number](v scalar.Value[T]) scalar.Value[T] { return v }

// key is a map-safe form of a compare key. All NaNs share one key, matching
// cmp.Compare.
type key[T scalar.Number] struct {
	v   T
	nan bool
}

func valueKey[T scalar.Number](v scalar.Value[T]) key[T] {
	k := v.CompareKey()
	if k != k {
		return key[T]{nan: true}
	}
	return key[T]{v: k}
}

func identityChildren[T scalar.Number](v scalar.Value[T]) []scalar.Value[T] { return v.Children() }

// valueChildren returns the operands as a value-ordered set: the first
// operand with a given value wins and the result is sorted by value.
func valueChildren[T scalar.Number](v scalar.Value[T]) []scalar.Value[T] {
	var out []scalar.Value[T]
	for _, c := range v.Children() {
		if !slices.ContainsFunc(out, func(o scalar.Value[T]) bool { return sameKey(o, c) }) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b scalar.Value[T]) int { return cmp.Compare(a.CompareKey(), b.CompareKey()) })
	return out
}

func sameKey[T scalar.Number](a, b scalar.Value[T]) bool {
	return cmp.Compare(a.CompareKey(), b.CompareKey()) == 0
}

func compareNodes[T scalar.Number](a, b scalar.Value[T]) int {
	if c := cmp.Compare(a.CompareKey(), b.CompareKey()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID(), b.ID())
}

// NodeCount returns the number of nodes in the trace.
func (t *Trace[T]) NodeCount() int { return len(t.Nodes) }

// EdgeCount returns the number of edges in the trace.
func (t *Trace[T]) EdgeCount() int { return len(t.Edges) }

// match compares two nodes under the trace's dedup key.
func (t *Trace[T]) match(a, b scalar.Value[T]) bool {
	if t.Dedup == DedupByValue {
		return sameKey(a, b)
	}
	return a == b
}

// HasNode reports whether v, or a node sharing its key, is in the trace.
func (t *Trace[T]) HasNode(v scalar.Value[T]) bool {
	_, ok := t.Representative(v)
	return ok
}

// Representative returns the trace node that stands for v under the trace's
// key. In identity mode that is v itself.
func (t *Trace[T]) Representative(v scalar.Value[T]) (scalar.Value[T], bool) {
	if !v.IsValid() {
		return scalar.Value[T]{}, false
	}
	for _, n := range t.Nodes {
		if t.match(n, v) {
			return n, true
		}
	}
	return scalar.Value[T]{}, false
}

// HasEdge reports whether the trace holds an edge from → to under its key.
// In value mode an edge matches on its From key alone, mirroring how edges
// were deduplicated.
func (t *Trace[T]) HasEdge(from, to scalar.Value[T]) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	for _, e := range t.Edges {
		if !t.match(e.From, from) {
			continue
		}
		if t.Dedup == DedupByValue || t.match(e.To, to) {
			return true
		}
	}
	return false
}

// Operators returns the nodes that were produced by an operation.
func (t *Trace[T]) Operators() []scalar.Value[T] {
	var out []scalar.Value[T]
	for _, n := range t.Nodes {
		if !n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out
}
