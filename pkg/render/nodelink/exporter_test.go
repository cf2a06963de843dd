package nodelink

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scalargraph/pkg/cache"
	"github.com/matzehuels/scalargraph/pkg/errors"
	"github.com/matzehuels/scalargraph/pkg/observability"
	"github.com/matzehuels/scalargraph/pkg/scalar"
	"github.com/matzehuels/scalargraph/pkg/trace"
)

// fakeEngine records every call and writes "fake <format>" on render.
type fakeEngine struct {
	graphs    []*fakeGraph
	layouts   []string
	renders   []renderCall
	layoutErr error
	renderErr error
}

type renderCall struct {
	format Format
	file   string
}

func (e *fakeEngine) OpenGraph(name string, directed bool) (Graph, error) {
	g := &fakeGraph{
		name:     name,
		directed: directed,
		attrs:    map[string]string{},
		defaults: map[string]string{},
		vattrs:   map[Vertex]map[string]string{},
	}
	e.graphs = append(e.graphs, g)
	return g, nil
}

func (e *fakeEngine) Layout(_ context.Context, _ Graph, algorithm string) error {
	e.layouts = append(e.layouts, algorithm)
	return e.layoutErr
}

func (e *fakeEngine) RenderToFile(_ context.Context, _ Graph, format Format, fileName string) error {
	e.renders = append(e.renders, renderCall{format, fileName})
	if e.renderErr != nil {
		return e.renderErr
	}
	return os.WriteFile(fileName, []byte("fake "+string(format)), 0o644)
}

func (e *fakeEngine) Close() error { return nil }

type fakeGraph struct {
	name     string
	directed bool
	attrs    map[string]string
	defaults map[string]string
	vertices []Vertex
	vattrs   map[Vertex]map[string]string
	edges    [][2]Vertex
	closes   int
}

func (g *fakeGraph) AddVertex(name string) (Vertex, error) {
	v := Vertex(name)
	g.vertices = append(g.vertices, v)
	g.vattrs[v] = map[string]string{}
	return v, nil
}

func (g *fakeGraph) AddEdge(from, to Vertex, _ string, allowParallel bool) error {
	e := [2]Vertex{from, to}
	if !allowParallel && slices.Contains(g.edges, e) {
		return nil
	}
	g.edges = append(g.edges, e)
	return nil
}

func (g *fakeGraph) SetAttribute(key, value string)                 { g.attrs[key] = value }
func (g *fakeGraph) SetVertexAttribute(v Vertex, key, value string) { g.vattrs[v][key] = value }
func (g *fakeGraph) SetDefaultVertexAttribute(key, value string)    { g.defaults[key] = value }
func (g *fakeGraph) VertexCount() int                               { return len(g.vertices) }
func (g *fakeGraph) EdgeCount() int                                 { return len(g.edges) }
func (g *fakeGraph) Close() error                                   { g.closes++; return nil }

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func bufferLogger(buf *bytes.Buffer) *log.Logger {
	return log.NewWithOptions(buf, log.Options{Level: log.DebugLevel})
}

func addition() scalar.Value[float64] {
	tp := scalar.NewTape[float64]()
	return scalar.Add(tp.Leaf(1), tp.Leaf(2))
}

func TestBuildSingleAddition(t *testing.T) {
	ctx := context.Background()
	fe := &fakeEngine{}
	e := NewExporter(fe, Options{}, nil, nil, discardLogger())

	g, err := Build(ctx, e, addition(), "g")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	defer g.Close()

	if len(fe.graphs) != 1 {
		t.Fatalf("opened %d graphs, want 1", len(fe.graphs))
	}
	fg := fe.graphs[0]
	if fg.name != "g" || !fg.directed {
		t.Errorf("graph = %q directed=%v, want \"g\" directed", fg.name, fg.directed)
	}
	if fg.defaults["shape"] != "box" {
		t.Errorf("default shape = %q, want box", fg.defaults["shape"])
	}
	if fg.attrs["rankdir"] != "TB" {
		t.Errorf("rankdir = %q, want TB", fg.attrs["rankdir"])
	}

	want := []Vertex{"node0", "node1", "node2", "node3"}
	if !slices.Equal(g.Vertices, want) {
		t.Errorf("Vertices = %v, want %v", g.Vertices, want)
	}

	labels := map[Vertex]string{
		"node0": "data 1.0000",
		"node1": "data 2.0000",
		"node2": "data 3.0000",
		"node3": "+",
	}
	for v, label := range labels {
		if got := fg.vattrs[v]["label"]; got != label {
			t.Errorf("label of %s = %q, want %q", v, got, label)
		}
	}
	if fg.vattrs["node3"]["shape"] != "ellipse" {
		t.Errorf("operator shape = %q, want ellipse", fg.vattrs["node3"]["shape"])
	}
	if _, ok := fg.vattrs["node0"]["shape"]; ok {
		t.Error("value vertices should use the default shape")
	}

	wantEdges := [][2]Vertex{{"node3", "node2"}, {"node0", "node3"}, {"node1", "node3"}}
	if len(fg.edges) != len(wantEdges) {
		t.Fatalf("edges = %v, want %v", fg.edges, wantEdges)
	}
	for _, e := range wantEdges {
		if !slices.Contains(fg.edges, e) {
			t.Errorf("missing edge %v", e)
		}
	}

	if !slices.Equal(fe.layouts, []string{"dot"}) {
		t.Errorf("layouts = %v, want [dot]", fe.layouts)
	}
	if g.TraceNodes != 3 || g.TraceEdges != 2 {
		t.Errorf("trace = %d nodes, %d edges; want 3, 2", g.TraceNodes, g.TraceEdges)
	}
	if g.Root != "node2" || g.Inputs != 2 {
		t.Errorf("Root = %q, Inputs = %d; want node2, 2", g.Root, g.Inputs)
	}

	path := filepath.Join(t.TempDir(), "out.png")
	if err := e.Render(ctx, g, path); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(fe.renders) != 1 || fe.renders[0] != (renderCall{FormatPNG, path}) {
		t.Errorf("renders = %v", fe.renders)
	}
}

func TestRenderNilGraph(t *testing.T) {
	ctx := context.Background()
	fe := &fakeEngine{}
	var buf bytes.Buffer
	e := NewExporter(fe, Options{}, nil, nil, bufferLogger(&buf))
	path := filepath.Join(t.TempDir(), "out.png")

	for _, g := range []*ExportableGraph{nil, {}} {
		err := e.Render(ctx, g, path)
		if !errors.Is(err, errors.ErrCodeEmptyGraph) {
			t.Errorf("Render(%v) error = %v, want EMPTY_GRAPH", g, err)
		}
	}

	if len(fe.renders) != 0 {
		t.Errorf("engine was called %d times", len(fe.renders))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Render of an empty graph should not create a file")
	}
	if !strings.Contains(buf.String(), "failed to render") {
		t.Errorf("log missing failure: %q", buf.String())
	}
}

func TestRenderEngineFailure(t *testing.T) {
	ctx := context.Background()
	cause := stderrors.New("layout exploded")
	fe := &fakeEngine{renderErr: cause}
	var buf bytes.Buffer
	e := NewExporter(fe, Options{}, nil, nil, bufferLogger(&buf))

	g, err := Build(ctx, e, addition(), "g")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	defer g.Close()

	path := filepath.Join(t.TempDir(), "out.png")
	err = e.Render(ctx, g, path)
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Fatalf("Render() error = %v, want RENDER_FAILED", err)
	}
	if !stderrors.Is(err, cause) {
		t.Error("RENDER_FAILED should wrap the engine error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q should name the file", err)
	}
	if len(fe.renders) != 1 {
		t.Errorf("engine called %d times, want 1 (no retry)", len(fe.renders))
	}
	if !strings.Contains(buf.String(), "failed to render") {
		t.Errorf("log missing failure: %q", buf.String())
	}
}

func TestRenderLogsSuccess(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	e := NewExporter(&fakeEngine{}, Options{}, nil, nil, bufferLogger(&buf))

	path := filepath.Join(t.TempDir(), "out.svg")
	if err := Export(ctx, e, addition(), "g", path); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"rendered graph", path, "built graph", "extracted trace"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %q", want, out)
		}
	}
}

func TestContextLoggerWins(t *testing.T) {
	var own, scoped bytes.Buffer
	e := NewExporter(&fakeEngine{}, Options{}, nil, nil, bufferLogger(&own))
	ctx := WithLogger(context.Background(), bufferLogger(&scoped))

	if err := Export(ctx, e, addition(), "g", filepath.Join(t.TempDir(), "out.png")); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if own.Len() != 0 {
		t.Errorf("exporter logger should be unused: %q", own.String())
	}
	if !strings.Contains(scoped.String(), "rendered graph") {
		t.Errorf("context logger missing output: %q", scoped.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != log.Default() {
		t.Error("LoggerFromContext without a logger should return log.Default()")
	}
	l := discardLogger()
	if LoggerFromContext(WithLogger(context.Background(), l)) != l {
		t.Error("LoggerFromContext should return the attached logger")
	}
}

func TestRenderInvalidPath(t *testing.T) {
	ctx := context.Background()
	fe := &fakeEngine{}
	e := NewExporter(fe, Options{}, nil, nil, discardLogger())

	g, err := Build(ctx, e, addition(), "g")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	defer g.Close()

	if err := e.Render(ctx, g, ""); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Render(\"\") error = %v, want INVALID_PATH", err)
	}
	if len(fe.renders) != 0 {
		t.Error("engine should not be called for an invalid path")
	}
}

func TestBuildInvalidName(t *testing.T) {
	fe := &fakeEngine{}
	e := NewExporter(fe, Options{}, nil, nil, discardLogger())

	_, err := Build(context.Background(), e, addition(), "")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Build(\"\") error = %v, want INVALID_INPUT", err)
	}
	if len(fe.graphs) != 0 {
		t.Error("no graph should be opened for an invalid name")
	}
}

func TestBuildNoEngine(t *testing.T) {
	e := NewExporter(nil, Options{}, nil, nil, discardLogger())
	_, err := Build(context.Background(), e, addition(), "g")
	if !errors.Is(err, errors.ErrCodeContextInit) {
		t.Errorf("Build() error = %v, want CONTEXT_INIT", err)
	}
}

func TestNilExporter(t *testing.T) {
	ctx := context.Background()
	var e *Exporter

	if _, err := Build(ctx, e, addition(), "g"); !errors.Is(err, errors.ErrCodeContextInit) {
		t.Errorf("Build() error = %v, want CONTEXT_INIT", err)
	}
	if err := Export(ctx, e, addition(), "g", filepath.Join(t.TempDir(), "g.png")); !errors.Is(err, errors.ErrCodeContextInit) {
		t.Errorf("Export() error = %v, want CONTEXT_INIT", err)
	}

	g := &ExportableGraph{Name: "g", Graph: &fakeGraph{}}
	if err := e.Render(WithLogger(ctx, discardLogger()), g, filepath.Join(t.TempDir(), "g.png")); !errors.Is(err, errors.ErrCodeContextInit) {
		t.Errorf("Render() error = %v, want CONTEXT_INIT", err)
	}
}

func TestBuildReleasesGraphOnFailure(t *testing.T) {
	fe := &fakeEngine{layoutErr: errors.New(errors.ErrCodeInvalidLayout, "no such layout")}
	e := NewExporter(fe, Options{}, nil, nil, discardLogger())

	g, err := Build(context.Background(), e, addition(), "g")
	if err == nil {
		t.Fatal("Build() should fail when layout fails")
	}
	if g != nil {
		t.Error("Build() should not return a graph on failure")
	}
	if fe.graphs[0].closes != 1 {
		t.Errorf("half-built graph closed %d times, want 1", fe.graphs[0].closes)
	}
}

func TestBuildCounterRestarts(t *testing.T) {
	ctx := context.Background()
	e := NewExporter(&fakeEngine{}, Options{LabelBase: "v"}, nil, nil, discardLogger())

	for i := 0; i < 2; i++ {
		g, err := Build(ctx, e, addition(), "g")
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		if g.Vertices[0] != "v0" || g.Vertices[len(g.Vertices)-1] != "v3" {
			t.Errorf("build %d: Vertices = %v", i, g.Vertices)
		}
		g.Close()
	}
}

func TestBuildLeafRoot(t *testing.T) {
	fe := &fakeEngine{}
	e := NewExporter(fe, Options{}, nil, nil, discardLogger())
	tp := scalar.NewTape[int]()

	g, err := Build(context.Background(), e, tp.Leaf(7), "leaf")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	defer g.Close()

	fg := fe.graphs[0]
	if fg.VertexCount() != 1 || fg.EdgeCount() != 0 {
		t.Errorf("graph = %d vertices, %d edges; want 1, 0", fg.VertexCount(), fg.EdgeCount())
	}
	if fg.vattrs["node0"]["label"] != "data 7" {
		t.Errorf("label = %q, want \"data 7\"", fg.vattrs["node0"]["label"])
	}
	if g.Root != "node0" || g.Inputs != 1 {
		t.Errorf("Root = %q, Inputs = %d; want node0, 1", g.Root, g.Inputs)
	}
}

func TestBuildValueDedup(t *testing.T) {
	tp := scalar.NewTape[float64]()
	a := tp.Leaf(1)
	b := tp.Leaf(2)
	c := tp.Leaf(2)
	r := scalar.Add(a, scalar.Subtract(b, c))

	// In value mode r (1) shares its key with a, so the root folds into a
	// cycle and the graph has no sink.
	tests := []struct {
		mode    trace.Mode
		nodes   int
		hasRoot bool
	}{
		{trace.DedupByIdentity, 5, true},
		{trace.DedupByValue, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			e := NewExporter(&fakeEngine{}, Options{Dedup: tt.mode}, nil, nil, discardLogger())
			g, err := Build(context.Background(), e, r, "g")
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			defer g.Close()
			if g.TraceNodes != tt.nodes {
				t.Errorf("TraceNodes = %d, want %d", g.TraceNodes, tt.nodes)
			}
			if (g.Root != "") != tt.hasRoot {
				t.Errorf("Root = %q, want present=%v", g.Root, tt.hasRoot)
			}
		})
	}
}

func TestExportClosesGraph(t *testing.T) {
	fe := &fakeEngine{}
	e := NewExporter(fe, Options{}, nil, nil, discardLogger())

	if err := Export(context.Background(), e, addition(), "g", filepath.Join(t.TempDir(), "out.png")); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if fe.graphs[0].closes != 1 {
		t.Errorf("graph closed %d times, want 1", fe.graphs[0].closes)
	}

	fe.renderErr = stderrors.New("boom")
	if err := Export(context.Background(), e, addition(), "g", filepath.Join(t.TempDir(), "out.png")); err == nil {
		t.Fatal("Export() should fail")
	}
	if fe.graphs[1].closes != 1 {
		t.Errorf("graph closed %d times after failure, want 1", fe.graphs[1].closes)
	}
}

func TestExportableGraphClose(t *testing.T) {
	ctx := context.Background()
	fe := &fakeEngine{}
	e := NewExporter(fe, Options{}, nil, nil, discardLogger())

	g, err := Build(ctx, e, addition(), "g")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if fe.graphs[0].closes != 1 {
		t.Errorf("engine graph closed %d times, want 1", fe.graphs[0].closes)
	}

	err = e.Render(ctx, g, filepath.Join(t.TempDir(), "out.png"))
	if !errors.Is(err, errors.ErrCodeEmptyGraph) {
		t.Errorf("Render() after Close error = %v, want EMPTY_GRAPH", err)
	}

	var nilGraph *ExportableGraph
	if err := nilGraph.Close(); err != nil {
		t.Errorf("nil Close() error: %v", err)
	}
}

func TestRenderFormatSelection(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		file   string
		want   Format
	}{
		{"from extension", "", "out.svg", FormatSVG},
		{"gv extension", "", "out.gv", FormatDOT},
		{"unknown extension", "", "out.bin", FormatPNG},
		{"explicit wins", FormatDOT, "out.png", FormatDOT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := &fakeEngine{}
			e := NewExporter(fe, Options{Format: tt.format}, nil, nil, discardLogger())
			if err := Export(context.Background(), e, addition(), "g", filepath.Join(t.TempDir(), tt.file)); err != nil {
				t.Fatalf("Export() error: %v", err)
			}
			if fe.renders[0].format != tt.want {
				t.Errorf("format = %v, want %v", fe.renders[0].format, tt.want)
			}
		})
	}
}

func TestRenderArtifactCache(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	c, err := cache.NewFileCache(cacheDir)
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	fe := &fakeEngine{}
	e := NewExporter(fe, Options{}, c, nil, discardLogger())
	dir := t.TempDir()

	g, err := Build(ctx, e, addition(), "g")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	defer g.Close()

	first := filepath.Join(dir, "first.png")
	if err := e.Render(ctx, g, first); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	second := filepath.Join(dir, "second.png")
	if err := e.Render(ctx, g, second); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(fe.renders) != 1 {
		t.Errorf("engine called %d times, want 1", len(fe.renders))
	}
	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if !bytes.Equal(a, b) || len(a) == 0 {
		t.Errorf("cached artifact %q differs from original %q", b, a)
	}
	stored, err := filepath.Glob(filepath.Join(cacheDir, "*.png"))
	if err != nil || len(stored) != 1 {
		t.Fatalf("cache holds %v (err %v), want one .png entry", stored, err)
	}
	if raw, _ := os.ReadFile(stored[0]); !bytes.Equal(raw, a) {
		t.Errorf("cache entry %q is not the raw artifact %q", raw, a)
	}

	// Another format is another artifact.
	if err := e.Render(ctx, g, filepath.Join(dir, "third.svg")); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(fe.renders) != 2 {
		t.Errorf("engine called %d times, want 2", len(fe.renders))
	}

	// Another graph is another artifact.
	tp := scalar.NewTape[float64]()
	other, err := Build(ctx, e, scalar.Multiply(tp.Leaf(3), tp.Leaf(4)), "g")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	defer other.Close()
	if err := e.Render(ctx, other, filepath.Join(dir, "fourth.png")); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(fe.renders) != 3 {
		t.Errorf("engine called %d times, want 3", len(fe.renders))
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"unknown layout", Options{Layout: "spring"}, errors.ErrCodeInvalidLayout},
		{"unknown format", Options{Format: "gif"}, errors.ErrCodeInvalidFormat},
		{"unknown rankdir", Options{Rankdir: "XY"}, errors.ErrCodeInvalidInput},
		{"unknown dedup", Options{Dedup: trace.Mode(7)}, errors.ErrCodeInvalidInput},
		{"negative ttl", Options{CacheTTL: -time.Second}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); !errors.Is(err, tt.code) {
				t.Errorf("Validate() error = %v, want %v", err, tt.code)
			}

			fe := &fakeEngine{}
			e := NewExporter(fe, tt.opts, nil, nil, discardLogger())
			if _, err := Build(context.Background(), e, addition(), "g"); !errors.Is(err, tt.code) {
				t.Errorf("Build() error = %v, want %v", err, tt.code)
			}
			if len(fe.graphs) != 0 {
				t.Error("no graph should be opened for invalid options")
			}
		})
	}

	valid := Options{Layout: "neato", Format: FormatSVG, Rankdir: "LR", Dedup: trace.DedupByValue, CacheTTL: time.Hour}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

type recordingHooks struct {
	observability.NoopExportHooks
	observability.NoopTraceHooks
	builds, renders, extracts int
	vertices                  int
	renderErr                 error
}

func (h *recordingHooks) OnExtract(context.Context, int, int, time.Duration) { h.extracts++ }

func (h *recordingHooks) OnBuildComplete(_ context.Context, _ string, vertices int, _ time.Duration, _ error) {
	h.builds++
	h.vertices = vertices
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, _, _ string, _ time.Duration, err error) {
	h.renders++
	h.renderErr = err
}

func TestExportHooks(t *testing.T) {
	t.Cleanup(observability.Reset)
	h := &recordingHooks{}
	observability.SetExportHooks(h)
	observability.SetTraceHooks(h)

	fe := &fakeEngine{renderErr: stderrors.New("boom")}
	e := NewExporter(fe, Options{}, nil, nil, discardLogger())
	err := Export(context.Background(), e, addition(), "g", filepath.Join(t.TempDir(), "out.png"))
	if err == nil {
		t.Fatal("Export() should fail")
	}

	if h.extracts != 1 || h.builds != 1 || h.renders != 1 {
		t.Errorf("hooks: extracts=%d builds=%d renders=%d, want 1 each", h.extracts, h.builds, h.renders)
	}
	if h.vertices != 4 {
		t.Errorf("OnBuildComplete vertices = %d, want 4", h.vertices)
	}
	if !errors.Is(h.renderErr, errors.ErrCodeRenderFailed) {
		t.Errorf("OnRenderComplete err = %v, want RENDER_FAILED", h.renderErr)
	}
}
