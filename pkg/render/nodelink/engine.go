package nodelink

import "context"

// Vertex names a vertex inside an engine [Graph].
type Vertex string

// Engine is the layout and rendering backend the exporter drives.
//
// An Engine owns every graph it opens and must outlive them. Implementations
// are not required to be safe for concurrent use; [GraphvizEngine]
// serializes its calls internally.
type Engine interface {
	// OpenGraph creates an empty graph.
	OpenGraph(name string, directed bool) (Graph, error)

	// Layout prepares g for rendering with the named layout algorithm.
	// An engine that lays out while rendering may only validate and record
	// the algorithm here.
	Layout(ctx context.Context, g Graph, algorithm string) error

	// RenderToFile writes g to fileName in the given format.
	RenderToFile(ctx context.Context, g Graph, format Format, fileName string) error

	// Close releases the engine. Graphs opened by it become unusable.
	Close() error
}

// Graph is a graph under construction inside an [Engine].
type Graph interface {
	// AddVertex creates a vertex with the given unique name.
	AddVertex(name string) (Vertex, error)

	// AddEdge connects two vertices. When allowParallel is false and the
	// edge already exists, AddEdge does nothing.
	AddEdge(from, to Vertex, label string, allowParallel bool) error

	// SetAttribute sets a graph-level attribute such as rankdir.
	SetAttribute(key, value string)

	// SetVertexAttribute sets an attribute on one vertex.
	SetVertexAttribute(v Vertex, key, value string)

	// SetDefaultVertexAttribute sets an attribute on every vertex that does
	// not override it.
	SetDefaultVertexAttribute(key, value string)

	VertexCount() int
	EdgeCount() int

	// Close releases the graph. It is safe to call more than once.
	Close() error
}
