// Package render groups the renderers for scalar computation graphs.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage draws a computation as a directed graph: one box
// per value, one ellipse per operation, edges from operands through the
// operator to the result. Layout and rasterization are done by Graphviz,
// running in-process.
//
// Output formats are PNG, SVG and DOT.
//
// [nodelink]: github.com/matzehuels/scalargraph/pkg/render/nodelink
package render
