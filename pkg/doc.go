// Package pkg provides the libraries of scalargraph, which records the
// arithmetic history of scalar values and draws it as a graph.
//
// # Overview
//
// Every value built from add, subtract, multiply and divide remembers the
// operation and operands that produced it. The history is extracted as a
// deduplicated trace and rendered with Graphviz. The pkg directory is
// organized into these areas:
//
//  1. [scalar] - Values and the tape that records their history
//  2. [trace] - Extraction of the nodes and edges behind a value
//  3. [dag] - The vertex/edge export graph handed to renderers
//  4. [render/nodelink] - Graph building, layout and file output
//  5. [io], [cache], [config], [errors], [observability] - Supporting
//     serialization, artifact caching, TOML configuration, coded errors
//     and instrumentation hooks
//
// # Architecture
//
//	arithmetic on scalar.Value
//	         ↓
//	    [trace] package (deduplicated DFS over operands)
//	         ↓
//	    [dag] package (value and operator vertices)
//	         ↓
//	    [render/nodelink] package (Graphviz engine)
//	         ↓
//	    PNG/SVG/DOT output
//
// # Quick Start
//
//	tp := scalar.NewTape[float64]()
//	a, b := tp.Leaf(1), tp.Leaf(2)
//	r := scalar.Add(a, b)
//
//	engine, _ := nodelink.NewGraphvizEngine(ctx)
//	defer engine.Close()
//
//	e := nodelink.NewExporter(engine, nodelink.Options{}, nil, nil, nil)
//	err := nodelink.Export(ctx, e, r, "g", "graph.png")
//
// [scalar]: github.com/matzehuels/scalargraph/pkg/scalar
// [trace]: github.com/matzehuels/scalargraph/pkg/trace
// [dag]: github.com/matzehuels/scalargraph/pkg/dag
// [render/nodelink]: github.com/matzehuels/scalargraph/pkg/render/nodelink
// [io]: github.com/matzehuels/scalargraph/pkg/io
// [cache]: github.com/matzehuels/scalargraph/pkg/cache
// [config]: github.com/matzehuels/scalargraph/pkg/config
// [errors]: github.com/matzehuels/scalargraph/pkg/errors
// [observability]: github.com/matzehuels/scalargraph/pkg/observability
package pkg
