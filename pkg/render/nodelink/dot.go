package nodelink

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/scalargraph/pkg/dag"
	"github.com/matzehuels/scalargraph/pkg/errors"
)

// Vertex attributes set by the exporter.
const (
	ShapeValue    = "box"
	ShapeOperator = "ellipse"
)

type attr struct{ key, value string }

// attrList keeps attributes in the order they were first set.
type attrList []attr

func (l *attrList) set(key, value string) {
	for i := range *l {
		if (*l)[i].key == key {
			(*l)[i].value = value
			return
		}
	}
	*l = append(*l, attr{key, value})
}

func (l attrList) get(key string) (string, bool) {
	for _, a := range l {
		if a.key == key {
			return a.value, true
		}
	}
	return "", false
}

func (l attrList) String() string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = fmt.Sprintf("%s=%q", a.key, a.value)
	}
	return strings.Join(parts, ", ")
}

type dotVertex struct {
	name  string
	attrs attrList
}

type dotEdge struct {
	from, to string
	label    string
}

// dotGraph is a [Graph] that accumulates a DOT description. It backs both
// [GraphvizEngine] and [ToDOT].
type dotGraph struct {
	owner    *GraphvizEngine
	name     string
	directed bool
	layout   string
	closed   bool

	graphAttrs attrList
	defaults   attrList
	vertices   []dotVertex
	index      map[string]int
	edges      []dotEdge
	edgeSet    map[[2]string]struct{}
}

func newDOTGraph(name string, directed bool) *dotGraph {
	return &dotGraph{
		name:     name,
		directed: directed,
		index:    make(map[string]int),
		edgeSet:  make(map[[2]string]struct{}),
	}
}

var errGraphClosed = errors.New(errors.ErrCodeInternal, "graph is closed")

func (g *dotGraph) AddVertex(name string) (Vertex, error) {
	if g.closed {
		return "", errGraphClosed
	}
	if name == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "vertex name must not be empty")
	}
	if _, ok := g.index[name]; ok {
		return "", errors.New(errors.ErrCodeInvalidInput, "duplicate vertex %q", name)
	}
	g.index[name] = len(g.vertices)
	g.vertices = append(g.vertices, dotVertex{name: name})
	return Vertex(name), nil
}

func (g *dotGraph) AddEdge(from, to Vertex, label string, allowParallel bool) error {
	if g.closed {
		return errGraphClosed
	}
	for _, v := range []Vertex{from, to} {
		if _, ok := g.index[string(v)]; !ok {
			return errors.New(errors.ErrCodeInvalidInput, "unknown vertex %q", v)
		}
	}
	key := [2]string{string(from), string(to)}
	if _, ok := g.edgeSet[key]; ok && !allowParallel {
		return nil
	}
	g.edgeSet[key] = struct{}{}
	g.edges = append(g.edges, dotEdge{from: string(from), to: string(to), label: label})
	return nil
}

func (g *dotGraph) SetAttribute(key, value string) {
	g.graphAttrs.set(key, value)
}

func (g *dotGraph) SetVertexAttribute(v Vertex, key, value string) {
	if i, ok := g.index[string(v)]; ok {
		g.vertices[i].attrs.set(key, value)
	}
}

func (g *dotGraph) SetDefaultVertexAttribute(key, value string) {
	g.defaults.set(key, value)
}

func (g *dotGraph) VertexCount() int { return len(g.vertices) }
func (g *dotGraph) EdgeCount() int   { return len(g.edges) }

func (g *dotGraph) Close() error {
	g.closed = true
	return nil
}

// String renders the accumulated description as DOT source.
func (g *dotGraph) String() string {
	kind, arrow := "graph", "--"
	if g.directed {
		kind, arrow = "digraph", "->"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %q {\n", kind, g.name)
	for _, a := range g.graphAttrs {
		fmt.Fprintf(&buf, "  %s=%q;\n", a.key, a.value)
	}
	if len(g.defaults) > 0 {
		fmt.Fprintf(&buf, "  node [%s];\n", g.defaults)
	}
	buf.WriteString("\n")

	for _, v := range g.vertices {
		if len(v.attrs) == 0 {
			fmt.Fprintf(&buf, "  %q;\n", v.name)
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", v.name, v.attrs)
	}

	buf.WriteString("\n")
	for _, e := range g.edges {
		if e.label == "" {
			fmt.Fprintf(&buf, "  %q %s %q;\n", e.from, arrow, e.to)
			continue
		}
		fmt.Fprintf(&buf, "  %q %s %q [label=%q];\n", e.from, arrow, e.to, e.label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// populate copies an export graph into an engine graph: value vertices are
// boxes, operator vertices ellipses, and every vertex is named by its DAG
// ID and labelled with its display label. It returns the vertices in DAG
// insertion order.
func populate(g Graph, d *dag.DAG, opts Options) ([]Vertex, error) {
	g.SetAttribute("rankdir", opts.Rankdir)
	g.SetDefaultVertexAttribute("shape", ShapeValue)

	nodes := d.Nodes()
	vertices := make([]Vertex, 0, len(nodes))
	byID := make(map[string]Vertex, len(nodes))
	for _, n := range nodes {
		v, err := g.AddVertex(n.ID)
		if err != nil {
			return nil, fmt.Errorf("vertex %s: %w", n.ID, err)
		}
		g.SetVertexAttribute(v, "label", n.DisplayLabel())
		if n.IsOperator() {
			g.SetVertexAttribute(v, "shape", ShapeOperator)
		}
		byID[n.ID] = v
		vertices = append(vertices, v)
	}

	for _, e := range d.Edges() {
		if err := g.AddEdge(byID[e.From], byID[e.To], "", false); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return vertices, nil
}

// ToDOT converts an export graph to Graphviz DOT source, laid out the same
// way [Build] lays it out. The graph is named by the "name" entry of the
// DAG's metadata, or "G".
func ToDOT(d *dag.DAG, opts Options) string {
	opts.SetDefaults()
	name, _ := d.Meta()["name"].(string)
	if name == "" {
		name = "G"
	}
	g := newDOTGraph(name, true)
	if _, err := populate(g, d, opts); err != nil {
		// A DAG never holds duplicate IDs or dangling edges.
		panic(err)
	}
	return g.String()
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg element so the drawing starts at
// the origin and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
