package nodelink

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scalargraph/pkg/cache"
	"github.com/matzehuels/scalargraph/pkg/dag"
	"github.com/matzehuels/scalargraph/pkg/errors"
	"github.com/matzehuels/scalargraph/pkg/observability"
	"github.com/matzehuels/scalargraph/pkg/scalar"
	"github.com/matzehuels/scalargraph/pkg/trace"
)

// DefaultRankdir lays graphs out top to bottom.
const DefaultRankdir = "TB"

var rankdirs = map[string]bool{"TB": true, "BT": true, "LR": true, "RL": true}

// Options configures an [Exporter].
type Options struct {
	// LabelBase prefixes vertex names; vertices are named LabelBase0,
	// LabelBase1, ... in allocation order. Default "node".
	LabelBase string

	// Layout is the Graphviz layout algorithm. Default "dot".
	Layout string

	// Format is the output format. When empty, Render infers it from the
	// file extension and falls back to PNG.
	Format Format

	// Rankdir is the Graphviz rank direction. Default "TB".
	Rankdir string

	// Dedup selects how the trace behind a graph identifies nodes.
	Dedup trace.Mode

	// CacheTTL bounds the lifetime of cached artifacts. Zero keeps them
	// until they are deleted.
	CacheTTL time.Duration
}

// SetDefaults fills in unset fields.
func (o *Options) SetDefaults() {
	if o.LabelBase == "" {
		o.LabelBase = dag.DefaultLabelBase
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if o.Rankdir == "" {
		o.Rankdir = DefaultRankdir
	}
}

// Validate checks every set field.
func (o *Options) Validate() error {
	if o.Layout != "" {
		if err := ValidateLayout(o.Layout); err != nil {
			return err
		}
	}
	if o.Format != "" && !o.Format.Valid() {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (must be png, svg or dot)", o.Format)
	}
	if o.Rankdir != "" && !rankdirs[o.Rankdir] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown rankdir %q (must be TB, BT, LR or RL)", o.Rankdir)
	}
	if o.Dedup != trace.DedupByIdentity && o.Dedup != trace.DedupByValue {
		return errors.New(errors.ErrCodeInvalidInput, "unknown dedup mode %v", o.Dedup)
	}
	if o.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache TTL must not be negative")
	}
	return nil
}

// Exporter turns scalar histories into rendered graph files.
//
// An Exporter holds no per-graph state: every [Build] starts its own vertex
// counter at zero. It is as safe for concurrent use as its Engine.
type Exporter struct {
	Engine  Engine
	Options Options
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewExporter creates an exporter that draws with engine.
// If c is nil, rendered artifacts are not cached.
// If keyer is nil, a DefaultKeyer is used.
// If logger is nil, log.Default() is used.
func NewExporter(engine Engine, opts Options, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Exporter {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{
		Engine:  engine,
		Options: opts,
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
	}
}

// logger prefers a logger attached to ctx.
func (e *Exporter) logger(ctx context.Context) *log.Logger {
	if l, ok := loggerFrom(ctx); ok {
		return l
	}
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

func (e *Exporter) options() (Options, error) {
	opts := e.Options
	opts.SetDefaults()
	return opts, opts.Validate()
}

func (e *Exporter) keyer() cache.Keyer {
	if e.Keyer == nil {
		return cache.NewDefaultKeyer()
	}
	return e.Keyer
}

// ExportableGraph is a graph built inside an engine and ready to render.
type ExportableGraph struct {
	Name     string
	Graph    Graph    // engine handle; nil once closed
	Vertices []Vertex // in allocation order
	DAG      *dag.DAG // the export graph the engine graph was built from
	Layout   string

	// Root is the value vertex of the root, the graph's only sink. It is
	// empty when value keying folded the root into a cycle.
	Root   Vertex
	// Inputs counts the leaf value vertices.
	Inputs int

	// Size of the trace the graph was built from.
	TraceNodes int
	TraceEdges int
}

// Close releases the engine graph. Calling it again does nothing.
func (g *ExportableGraph) Close() error {
	if g == nil || g.Graph == nil {
		return nil
	}
	err := g.Graph.Close()
	g.Graph = nil
	return err
}

// Build extracts the history of root and builds it as a directed graph
// named graphName inside the exporter's engine.
//
// Each trace node becomes a value vertex (a box labelled "data <value>");
// each node produced by an operation also gets an operator vertex (an
// ellipse labelled with the operator symbol). Edges run from operand values
// to the consuming operator and from the operator to its result. Vertices
// are named "<LabelBase><n>" with n counting from zero for every call.
//
// On failure any half-built graph is closed before Build returns.
func Build[T scalar.Number](ctx context.Context, e *Exporter, root scalar.Value[T], graphName string) (_ *ExportableGraph, err error) {
	if e == nil || e.Engine == nil {
		return nil, errors.New(errors.ErrCodeContextInit, "exporter has no engine")
	}
	if err := errors.ValidateGraphName(graphName); err != nil {
		return nil, err
	}
	opts, err := e.options()
	if err != nil {
		return nil, err
	}
	logger := e.logger(ctx)

	start := time.Now()
	vertexCount := 0
	observability.Export().OnBuildStart(ctx, graphName)
	defer func() {
		observability.Export().OnBuildComplete(ctx, graphName, vertexCount, time.Since(start), err)
	}()

	t := trace.ExtractWith(root, trace.Options{Dedup: opts.Dedup})
	observability.Trace().OnExtract(ctx, t.NodeCount(), t.EdgeCount(), time.Since(start))
	logger.Debug("extracted trace",
		"graph", graphName,
		"nodes", t.NodeCount(),
		"edges", t.EdgeCount(),
		"dedup", opts.Dedup)

	d, err := trace.ToDAG(t, dag.NewLabeler(opts.LabelBase))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "map trace of %s", graphName)
	}
	d.Meta()["name"] = graphName

	g, err := e.Engine.OpenGraph(graphName, true)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = g.Close()
		}
	}()

	vertices, err := populate(g, d, opts)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", graphName, err)
	}
	if err = e.Engine.Layout(ctx, g, opts.Layout); err != nil {
		return nil, err
	}
	vertexCount = len(vertices)

	var rootVertex Vertex
	if sinks := d.Sinks(); len(sinks) == 1 {
		rootVertex = Vertex(sinks[0].ID)
	}
	inputs := len(d.Sources())

	logger.Debug("built graph",
		"graph", graphName,
		"root", rootVertex,
		"inputs", inputs,
		"vertices", g.VertexCount(),
		"edges", g.EdgeCount(),
		"layout", opts.Layout,
		"duration", time.Since(start))

	return &ExportableGraph{
		Name:       graphName,
		Graph:      g,
		Vertices:   vertices,
		DAG:        d,
		Layout:     opts.Layout,
		Root:       rootVertex,
		Inputs:     inputs,
		TraceNodes: t.NodeCount(),
		TraceEdges: t.EdgeCount(),
	}, nil
}

// Render writes g to fileName.
//
// A nil or closed graph fails with EMPTY_GRAPH before any I/O. An engine
// failure is returned as RENDER_FAILED wrapping the engine's error; it is
// not retried. When the exporter has a cache, a previously rendered
// artifact for the same DOT source, format and layout is written without
// calling the engine.
func (e *Exporter) Render(ctx context.Context, g *ExportableGraph, fileName string) (err error) {
	logger := e.logger(ctx)

	if g == nil || g.Graph == nil {
		err := errors.New(errors.ErrCodeEmptyGraph, "no graph to render to %s", fileName)
		logger.Error("failed to render", "file", fileName, "err", err)
		return err
	}
	if e == nil || e.Engine == nil {
		return errors.New(errors.ErrCodeContextInit, "exporter has no engine")
	}
	if err := errors.ValidateOutputPath(fileName); err != nil {
		return err
	}
	opts, err := e.options()
	if err != nil {
		return err
	}
	format := opts.Format
	if format == "" {
		format = DefaultFormat
		if f, ok := FormatFromPath(fileName); ok {
			format = f
		}
	}

	start := time.Now()
	observability.Export().OnRenderStart(ctx, fileName, format.String())
	defer func() {
		observability.Export().OnRenderComplete(ctx, fileName, format.String(), time.Since(start), err)
	}()

	var key string
	if e.Cache != nil && g.DAG != nil {
		key = e.keyer().ArtifactKey([]byte(ToDOT(g.DAG, opts)), cache.ArtifactKeyOpts{
			Format: format.String(),
			Layout: g.Layout,
		})
		if hit, err := e.renderCached(ctx, key, fileName); err != nil {
			logger.Error("failed to render", "file", fileName, "err", err)
			return err
		} else if hit {
			logger.Info("rendered graph",
				"file", fileName,
				"format", format,
				"vertices", len(g.Vertices),
				"cached", true)
			return nil
		}
	}

	if rerr := e.Engine.RenderToFile(ctx, g.Graph, format, fileName); rerr != nil {
		logger.Error("failed to render", "file", fileName, "err", rerr)
		return errors.Wrap(errors.ErrCodeRenderFailed, rerr, "render %s", fileName)
	}

	if key != "" {
		e.storeArtifact(ctx, logger, key, fileName, opts.CacheTTL)
	}

	logger.Info("rendered graph",
		"file", fileName,
		"format", format,
		"vertices", len(g.Vertices),
		"duration", time.Since(start))
	return nil
}

// renderCached writes the cached artifact for key to fileName, if any.
// A failing cache read is treated as a miss.
func (e *Exporter) renderCached(ctx context.Context, key, fileName string) (bool, error) {
	data, hit, err := e.Cache.Get(ctx, key)
	if err != nil {
		e.logger(ctx).Warn("artifact cache read failed", "err", err)
		hit = false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return false, nil
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	if err := os.WriteFile(fileName, data, 0o644); err != nil {
		return false, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", fileName)
	}
	return true, nil
}

// storeArtifact reads back a freshly rendered file and caches it. Failures
// are logged and dropped.
func (e *Exporter) storeArtifact(ctx context.Context, logger *log.Logger, key, fileName string, ttl time.Duration) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		logger.Warn("artifact cache write skipped", "file", fileName, "err", err)
		return
	}
	if err := e.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("artifact cache write failed", "file", fileName, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "artifact", len(data))
}

// Export builds the history of root, renders it to fileName and releases
// the graph, on every path.
func Export[T scalar.Number](ctx context.Context, e *Exporter, root scalar.Value[T], graphName, fileName string) error {
	g, err := Build(ctx, e, root, graphName)
	if err != nil {
		return err
	}
	defer g.Close()
	return e.Render(ctx, g, fileName)
}
