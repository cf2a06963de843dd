package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/scalargraph/pkg/errors"
)

// DefaultLayout is the layout algorithm used when none is configured.
const DefaultLayout = "dot"

var layouts = map[string]graphviz.Layout{
	"circo":     graphviz.CIRCO,
	"dot":       graphviz.DOT,
	"fdp":       graphviz.FDP,
	"neato":     graphviz.NEATO,
	"osage":     graphviz.OSAGE,
	"patchwork": graphviz.PATCHWORK,
	"sfdp":      graphviz.SFDP,
	"twopi":     graphviz.TWOPI,
}

// graphviz.XDOT is named after xdot but selects the plain "dot" renderer
// (its value is "dot"), which emits no _draw_ operations.
var gvFormats = map[Format]graphviz.Format{
	FormatPNG: graphviz.PNG,
	FormatSVG: graphviz.SVG,
	FormatDOT: graphviz.XDOT,
}

// ValidateLayout reports whether name is a layout algorithm Graphviz knows.
func ValidateLayout(name string) error {
	if _, ok := layouts[name]; !ok {
		return errors.New(errors.ErrCodeInvalidLayout, "unknown layout %q", name)
	}
	return nil
}

// GraphvizEngine is an [Engine] backed by github.com/goccy/go-graphviz,
// which runs Graphviz in-process. Graphs are accumulated as DOT source and
// parsed by Graphviz when they are rendered.
//
// All methods are serialized by a mutex. After Close every method returns
// an error with code CONTEXT_INIT.
type GraphvizEngine struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

// NewGraphvizEngine opens a Graphviz context. A failure carries the
// CONTEXT_INIT code; there is nothing to render with.
func NewGraphvizEngine(ctx context.Context) (*GraphvizEngine, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeContextInit, err, "init graphviz")
	}
	return &GraphvizEngine{gv: gv}, nil
}

func (e *GraphvizEngine) checkOpen() error {
	if e.gv == nil {
		return errors.New(errors.ErrCodeContextInit, "graphviz context is closed")
	}
	return nil
}

// own returns g as a graph opened by this engine.
func (e *GraphvizEngine) own(g Graph) (*dotGraph, error) {
	dg, ok := g.(*dotGraph)
	if !ok || dg.owner != e {
		return nil, errors.New(errors.ErrCodeInternal, "graph was not opened by this engine")
	}
	if dg.closed {
		return nil, errGraphClosed
	}
	return dg, nil
}

// OpenGraph creates an empty graph owned by the engine.
func (e *GraphvizEngine) OpenGraph(name string, directed bool) (Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	g := newDOTGraph(name, directed)
	g.owner = e
	return g, nil
}

// Layout validates the algorithm and records it on the graph. It does no
// layout work: go-graphviz has no separate layout call, so positions are
// computed by RenderToFile with the recorded algorithm.
func (e *GraphvizEngine) Layout(ctx context.Context, g Graph, algorithm string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOpen(); err != nil {
		return err
	}
	dg, err := e.own(g)
	if err != nil {
		return err
	}
	if err := ValidateLayout(algorithm); err != nil {
		return err
	}
	dg.layout = algorithm
	return nil
}

// RenderToFile lays out g and writes it to fileName. SVG output has its
// viewBox normalized to start at the origin.
func (e *GraphvizEngine) RenderToFile(ctx context.Context, g Graph, format Format, fileName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOpen(); err != nil {
		return err
	}
	dg, err := e.own(g)
	if err != nil {
		return err
	}
	gvFormat, ok := gvFormats[format]
	if !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	layout := dg.layout
	if layout == "" {
		layout = DefaultLayout
	}

	parsed, err := graphviz.ParseBytes([]byte(dg.String()))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := e.gv.SetLayout(layouts[layout]).Render(ctx, parsed, gvFormat, &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	data := buf.Bytes()
	if format == FormatSVG {
		data = normalizeViewBox(data)
	}
	if err := os.WriteFile(fileName, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fileName, err)
	}
	return nil
}

// Close releases the Graphviz context. It is safe to call more than once.
func (e *GraphvizEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gv == nil {
		return nil
	}
	err := e.gv.Close()
	e.gv = nil
	return err
}

var _ Engine = (*GraphvizEngine)(nil)
