// Package dag provides the export graph: the vertex/edge model a rendering
// engine draws.
//
// # Overview
//
// A trace of scalar computations (see package trace) is mapped onto a DAG
// of string-named vertices before it is handed to Graphviz. Every scalar
// node becomes a value vertex, and every node produced by an operation gets
// a second operator vertex so the rendered picture separates values from
// the operations that combine them:
//
//	a ──┐
//	    ├──> (+) ──> r
//	b ──┘
//
// # Basic Usage
//
// Create a graph with [New], add vertices with [DAG.AddNode] and edges with
// [DAG.AddEdge]. Vertex IDs must be unique; a [Labeler] hands out synthetic
// names of the form "<base><counter>":
//
//	g := dag.New(nil)
//	l := dag.NewLabeler("node")
//	a, r := l.Next(), l.Next()
//	g.AddNode(dag.Node{ID: a, Label: "data 1.0000"})
//	g.AddNode(dag.Node{ID: r, Label: "data 3.0000"})
//	g.AddEdge(dag.Edge{From: a, To: r})
//
// Query the structure with [DAG.Children], [DAG.Parents], [DAG.Sources] and
// [DAG.Sinks]. [DAG.Validate] reports dangling edges and cycles. A trace
// extracted with value-keyed deduplication can fold a node onto one of its
// own ancestors, and Validate is how that shows up.
//
// # Metadata
//
// Nodes, edges and the graph itself carry [Metadata] maps. Vertex metadata
// holds Graphviz attributes (shape, color) plus the scalar the vertex came
// from; graph metadata holds graph attributes such as rankdir.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
