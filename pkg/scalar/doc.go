// Package scalar records the arithmetic history of scalar values.
//
// # Overview
//
// Every value produced by this package remembers how it was made: the
// operation that produced it and the operands it consumed. Composing values
// therefore grows a directed acyclic graph whose root is the latest result
// and whose leaves are the raw inputs.
//
// Values live on a [Tape], an append-only arena. A [Value] is a small handle
// (tape pointer plus [NodeID]) and is comparable with ==, which makes it the
// natural identity key for maps and sets. Operands are stored as IDs that
// are always lower than the ID of the node that consumes them, so the graph
// cannot contain a cycle and [Tape.Validate] can check that mechanically.
//
// # Usage
//
//	tp := scalar.NewTape[float64]()
//	a := tp.Leaf(1.0)
//	b := tp.Leaf(2.0)
//	r := scalar.Add(a, b) // r.Data() == 3, r.Op() == scalar.OpAdd
//
// The method forms a.Add(b), a.Sub(b), a.Mul(b) and a.Div(b) are equivalent
// to the package functions.
//
// # Gradients
//
// Each node carries a gradient slot ([Value.Grad]) that is always zero. No
// operation in this package writes it.
//
// # Concurrency
//
// A Tape is not safe for concurrent construction. Once no more values are
// appended, any number of goroutines may read and traverse it.
package scalar
