package nodelink

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/scalargraph/pkg/errors"
)

// Format is an output file format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"

	// FormatDOT is Graphviz's "dot" output: the graph's DOT source with the
	// computed layout added as pos, bb, width and height attributes. It is
	// not xdot and carries no drawing operations.
	FormatDOT Format = "dot"
)

// DefaultFormat is used when neither the options nor the file name decide.
const DefaultFormat = FormatPNG

var formatExtensions = map[string]Format{
	".png": FormatPNG,
	".svg": FormatSVG,
	".dot": FormatDOT,
	".gv":  FormatDOT,
}

// String returns the format name.
func (f Format) String() string { return string(f) }

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatPNG, FormatSVG, FormatDOT:
		return true
	}
	return false
}

// ParseFormat parses a format name case-insensitively. The empty string is
// [DefaultFormat].
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return DefaultFormat, nil
	}
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (must be png, svg or dot)", s)
	}
	return f, nil
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, ok := formatExtensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}
