// Package nodelink renders scalar computation histories as node-link
// diagrams.
//
// # Overview
//
// An [Exporter] takes the root of a computation, extracts its history with
// the trace package, and draws it with a layout [Engine]. Every scalar node
// appears as a box labelled with its value; every node produced by an
// operation also gets an ellipse labelled with the operator, so the diagram
// reads "operands -> operator -> result".
//
// # Usage
//
//	engine, err := nodelink.NewGraphvizEngine(ctx)
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	e := nodelink.NewExporter(engine, nodelink.Options{}, nil, nil, logger)
//	g, err := nodelink.Build(ctx, e, result, "g")
//	if err != nil {
//	    return err
//	}
//	defer g.Close()
//	err = e.Render(ctx, g, "graph.png")
//
// [Export] does the three steps in one call.
//
// # Engines
//
// [GraphvizEngine] runs Graphviz in-process through
// [github.com/goccy/go-graphviz]; no Graphviz installation is required. The
// engine is an explicit handle: open one per program (or per test) and close
// it when done. Its methods are serialized, so one engine may be shared, but
// renders do not run in parallel.
//
// # Formats
//
// PNG, SVG and DOT output are supported. With [Options.Format] unset the
// format follows the file extension and falls back to PNG.
//
// # Errors
//
// Failures carry codes from the errors package: CONTEXT_INIT when the engine
// could not be opened or is closed, EMPTY_GRAPH when there is nothing to
// render, RENDER_FAILED when the engine fails, and INVALID_* for bad names,
// paths and options.
//
// # DOT Format
//
// [ToDOT] produces the same DOT source the Graphviz engine renders. It is
// used as the artifact cache key and can be saved for external tools.
package nodelink
