package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/scalargraph/pkg/dag"
	"github.com/matzehuels/scalargraph/pkg/trace"
)

var kindFromString = map[string]dag.NodeKind{
	"value":    dag.NodeKindValue,
	"operator": dag.NodeKindOperator,
}

// ReadJSON decodes a JSON graph from r into a DAG.
//
// Each node must have an "id" field. Optional fields:
//   - kind: "value" (default) or "operator"
//   - label: display text
//   - meta: object with arbitrary key-value pairs
//
// Each edge must have "from" and "to" fields that reference node IDs.
//
// ReadJSON returns an error if the JSON is malformed, a node has an empty
// or duplicate ID, a node has an unknown kind, or an edge references an
// unknown node ID. Errors are wrapped with context describing which node or
// edge caused the problem; use errors.Is to check for specific DAG errors.
//
// Integral JSON numbers in metadata decode as int64 (uint64 when too large
// for int64) and other numbers as float64. The strings "+Inf", "-Inf" and
// "NaN" under a node's "value" key decode as float64. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	meta, err := decodeMeta(data.Meta)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g := dag.New(meta)
	for _, n := range data.Nodes {
		nodeMeta, err := decodeMeta(n.Meta, trace.MetaValue)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		nd := dag.Node{ID: n.ID, Label: n.Label, Meta: nodeMeta}
		if n.Kind != "" {
			k, ok := kindFromString[n.Kind]
			if !ok {
				return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
			}
			nd.Kind = k
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}

	return g, nil
}

// ImportJSON reads a JSON file at path and returns the decoded DAG.
//
// ImportJSON returns the same validation errors as [ReadJSON], wrapped with
// the file path when the file cannot be opened.
func ImportJSON(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
