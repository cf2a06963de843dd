// Package io provides JSON import and export for export graphs and traces.
//
// # Overview
//
// Two documents are supported. The graph document is the vertex/edge model
// of a [dag.DAG], exactly what the nodelink renderer draws. The trace
// document is the scalar history behind it: every node with its value, its
// operation, and the tape IDs of its operands. A trace document can be read
// back into a fresh tape, which is how a computation is shipped between
// processes without re-running it.
//
// # Graph Format
//
//	{
//	  "meta": {"dedup": "identity"},
//	  "nodes": [
//	    {"id": "node0", "label": "data 1.0000", "meta": {"value": 1, "op": "leaf", "node_id": 0}},
//	    {"id": "node2", "label": "data 3.0000", "meta": {"value": 3, "op": "add", "node_id": 2}},
//	    {"id": "node3", "kind": "operator", "label": "+", "meta": {"op": "add"}}
//	  ],
//	  "edges": [
//	    {"from": "node3", "to": "node2"},
//	    {"from": "node0", "to": "node3"}
//	  ]
//	}
//
// Node fields:
//   - id: Unique vertex name (required)
//   - kind: "operator" for operator vertices, omitted for value vertices
//   - label: Display text (falls back to id)
//   - meta: Freeform object; the keys written by trace.ToDAG are "value",
//     "op" and "node_id"
//
// Use [WriteJSON]/[ExportJSON] to write and [ReadJSON]/[ImportJSON] to read.
// Reading rejects duplicate IDs and edges to unknown vertices. It does not
// reject cycles, because a value-keyed export graph may legitimately contain
// one; call [dag.DAG.Validate] when acyclicity matters.
//
// # Trace Format
//
//	{
//	  "dedup": "identity",
//	  "root": 2,
//	  "nodes": [
//	    {"id": 0, "value": 1, "op": "leaf"},
//	    {"id": 1, "value": 2, "op": "leaf"},
//	    {"id": 2, "value": 3, "op": "add", "operands": [0, 1]}
//	  ],
//	  "edges": [{"from": 0, "to": 2}, {"from": 1, "to": 2}]
//	}
//
// IDs are tape positions. Values are JSON numbers carrying every digit of
// the tape's type, so 64-bit integers survive unchanged. Infinities and NaN
// are written as the strings "+Inf", "-Inf" and "NaN"; the same applies to
// numeric metadata in the graph document.
//
// Use [WriteTraceJSON] to write a trace and [ReadTraceJSON] to rebuild it on
// a new tape of the caller's numeric type. Only identity-keyed traces can be rebuilt: a
// value-keyed trace drops operands that share a value and cannot be replayed.
//
// # Concurrency
//
// All functions in this package are safe to call concurrently with other
// readers of the same DAG or trace, but not with concurrent modifications.
package io
