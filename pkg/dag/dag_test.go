package dag

import (
	"errors"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New(nil)

	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want ErrDuplicateNodeID", err)
	}

	n, ok := g.Node("a")
	if !ok {
		t.Fatal("Node(a) not found")
	}
	if n.Meta == nil {
		t.Error("AddNode should initialize Meta")
	}
}

func TestAddEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"valid", Edge{From: "a", To: "b"}, nil},
		{"unknown source", Edge{From: "x", To: "b"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "a", To: "x"}, ErrUnknownTargetNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddEdge(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge() = %v, want %v", err, tt.want)
			}
		})
	}

	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if g.Edges()[0].Meta == nil {
		t.Error("AddEdge should initialize Meta")
	}
}

func TestNodesInsertionOrder(t *testing.T) {
	g := New(nil)
	ids := []string{"node3", "node0", "node7", "node1"}
	for _, id := range ids {
		_ = g.AddNode(Node{ID: id})
	}
	got := NodeIDs(g.Nodes())
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("Nodes() order = %v, want %v", got, ids)
		}
	}
}

func TestSourcesSinks(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"a", "b", "op", "r"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "a", To: "op"})
	_ = g.AddEdge(Edge{From: "b", To: "op"})
	_ = g.AddEdge(Edge{From: "op", To: "r"})

	if got := NodeIDs(g.Sources()); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Sources() = %v, want [a b]", got)
	}
	if got := NodeIDs(g.Sinks()); len(got) != 1 || got[0] != "r" {
		t.Errorf("Sinks() = %v, want [r]", got)
	}
}

func TestValidate(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		g := New(nil)
		_ = g.AddNode(Node{ID: "a"})
		_ = g.AddNode(Node{ID: "b"})
		_ = g.AddEdge(Edge{From: "a", To: "b"})
		if err := g.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		g := New(nil)
		_ = g.AddNode(Node{ID: "v"})
		_ = g.AddNode(Node{ID: "op", Kind: NodeKindOperator})
		_ = g.AddEdge(Edge{From: "v", To: "op"})
		_ = g.AddEdge(Edge{From: "op", To: "v"})
		if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
			t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
		}
	})

	t.Run("dangling edge", func(t *testing.T) {
		g := New(nil)
		_ = g.AddNode(Node{ID: "a"})
		_ = g.AddNode(Node{ID: "b"})
		_ = g.AddEdge(Edge{From: "a", To: "b"})
		delete(g.nodes, "b")
		if err := g.Validate(); !errors.Is(err, ErrInvalidEdgeEndpoint) {
			t.Errorf("Validate() = %v, want ErrInvalidEdgeEndpoint", err)
		}
	})
}

func TestNodeKind(t *testing.T) {
	if NodeKindValue.String() != "value" || NodeKindOperator.String() != "operator" {
		t.Errorf("NodeKind strings = %q, %q", NodeKindValue, NodeKindOperator)
	}
	if !(Node{Kind: NodeKindOperator}).IsOperator() {
		t.Error("IsOperator() should be true for operator vertices")
	}
}

func TestLabelerUnique(t *testing.T) {
	l := NewLabeler("v")
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := l.Next()
		if seen[name] {
			t.Fatalf("Labeler repeated %q", name)
		}
		seen[name] = true
	}
	if l.Issued() != 100 {
		t.Errorf("Issued() = %d, want 100", l.Issued())
	}
}
