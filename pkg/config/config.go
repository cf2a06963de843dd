// Package config loads exporter settings from TOML.
//
// A configuration file has three tables, all optional:
//
//	[graph]
//	name = "history"
//	label_base = "node"
//	dedup = "identity"   # or "value"
//	rankdir = "TB"
//
//	[render]
//	format = "png"       # png, svg or dot
//	layout = "dot"
//	output = "graph.png"
//
//	[cache]
//	dir = ".cache/scalargraph"   # empty disables caching
//	ttl = "24h"
//	scope = "docs:"
//
// Missing keys keep the values from [Default]. Unknown keys are an error.
package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/scalargraph/pkg/cache"
	"github.com/matzehuels/scalargraph/pkg/errors"
	"github.com/matzehuels/scalargraph/pkg/render/nodelink"
	"github.com/matzehuels/scalargraph/pkg/trace"
)

// Config is the full exporter configuration.
type Config struct {
	Graph  GraphConfig  `toml:"graph"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
}

// GraphConfig controls how a computation is turned into a graph.
type GraphConfig struct {
	Name      string `toml:"name"`
	LabelBase string `toml:"label_base"`
	Dedup     string `toml:"dedup"`
	Rankdir   string `toml:"rankdir"`
}

// RenderConfig controls the output file.
type RenderConfig struct {
	Format string `toml:"format"`
	Layout string `toml:"layout"`
	Output string `toml:"output"`
}

// CacheConfig controls the rendered-artifact cache.
type CacheConfig struct {
	Dir   string   `toml:"dir"`
	TTL   Duration `toml:"ttl"`
	Scope string   `toml:"scope"`
}

// Duration is a time.Duration written as a string such as "90m".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used for missing keys.
func Default() Config {
	return Config{
		Graph: GraphConfig{
			Name:      "graph",
			LabelBase: "node",
			Dedup:     trace.DedupByIdentity.String(),
			Rankdir:   nodelink.DefaultRankdir,
		},
		Render: RenderConfig{
			Format: string(nodelink.DefaultFormat),
			Layout: nodelink.DefaultLayout,
			Output: "graph.png",
		},
	}
}

// Load reads and validates the TOML file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over [Default] and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg to w as TOML.
func (c Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Validate checks every field. Failures carry the INVALID_CONFIG code and
// name the offending key.
func (c Config) Validate() error {
	invalid := func(key string, err error) error {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", key)
	}
	if err := errors.ValidateGraphName(c.Graph.Name); err != nil {
		return invalid("graph.name", err)
	}
	if err := errors.ValidateOutputPath(c.Render.Output); err != nil {
		return invalid("render.output", err)
	}
	if c.Cache.TTL < 0 {
		return invalid("cache.ttl", fmt.Errorf("must not be negative"))
	}
	if c.Cache.Scope != "" && !cache.ValidKey(c.Cache.Scope) {
		return invalid("cache.scope", fmt.Errorf("%q: use letters, digits and . _ : -", c.Cache.Scope))
	}
	if _, err := c.ExporterOptions(); err != nil {
		return err
	}
	return nil
}

// ExporterOptions maps the configuration onto exporter options.
func (c Config) ExporterOptions() (nodelink.Options, error) {
	invalid := func(key string, err error) error {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", key)
	}

	mode, err := trace.ParseMode(c.Graph.Dedup)
	if err != nil {
		return nodelink.Options{}, invalid("graph.dedup", err)
	}
	format, err := nodelink.ParseFormat(c.Render.Format)
	if err != nil {
		return nodelink.Options{}, invalid("render.format", err)
	}

	opts := nodelink.Options{
		LabelBase: c.Graph.LabelBase,
		Layout:    c.Render.Layout,
		Format:    format,
		Rankdir:   strings.ToUpper(c.Graph.Rankdir),
		Dedup:     mode,
		CacheTTL:  time.Duration(c.Cache.TTL),
	}
	if opts.Layout != "" {
		if err := nodelink.ValidateLayout(opts.Layout); err != nil {
			return nodelink.Options{}, invalid("render.layout", err)
		}
	}
	if err := (&nodelink.Options{Rankdir: opts.Rankdir}).Validate(); err != nil {
		return nodelink.Options{}, invalid("graph.rankdir", err)
	}
	return opts, nil
}

// NewCache opens the configured artifact cache and its keyer. An empty
// cache.dir yields a nil Cache, which turns caching off.
func (c Config) NewCache() (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if c.Cache.Scope != "" {
		keyer = cache.NewScopedKeyer(keyer, c.Cache.Scope)
	}
	if c.Cache.Dir == "" {
		return nil, keyer, nil
	}
	fc, err := cache.NewFileCache(c.Cache.Dir)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.dir")
	}
	return fc, keyer, nil
}
