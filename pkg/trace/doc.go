// Package trace extracts the computation history behind a scalar value.
//
// # Overview
//
// [Extract] walks the operands of a root [scalar.Value] depth-first and
// collects every node and every "operand → result" edge it meets, each once.
// The walk is memoized, so a graph with shared subexpressions is traversed in
// time linear in its size rather than unrolled into a tree.
//
//	tp := scalar.NewTape[float64]()
//	a, b := tp.Leaf(1), tp.Leaf(2)
//	r := scalar.Add(a, b)
//
//	t := trace.Extract(r)
//	// t.Nodes: a, b, r   t.Edges: (a→r), (b→r)
//
// # Deduplication
//
// By default nodes are keyed by identity. [DedupByValue] keys them by the
// scalar they hold instead: two unrelated nodes that both hold 2.0 collapse
// into one entry, and so do their edges. That mode is kept for fidelity with
// value-ordered containers and should not be used when the exact history
// matters.
//
// # Ordering
//
// Output is sorted by value (ties by node ID), not by discovery order, so two
// traces over graphs with the same values serialize identically.
//
// # Export
//
// [ToDAG] turns a trace into the [dag.DAG] export graph that the nodelink
// renderer hands to Graphviz.
package trace
