package scalar

import (
	"errors"
	"fmt"
)

var (
	// ErrOperandsMismatch is returned when a node breaks the rule that
	// leaves have no operands and every other operation has some.
	ErrOperandsMismatch = errors.New("operation does not match operand count")

	// ErrForeignOperand is returned by [Tape.Construct] when an operand is
	// the zero Value or was allocated on a different tape.
	ErrForeignOperand = errors.New("operand does not belong to this tape")

	// ErrUnknownOperation is returned for operation codes or names outside
	// the declared set.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrCycle is returned by [Tape.Validate] when a node references an
	// operand that was not allocated before it.
	ErrCycle = errors.New("operand does not precede its consumer")
)

// NodeID is the position of a node on its tape.
type NodeID int

type entry[T Number] struct {
	data     T
	grad     T
	op       Operation
	operands []NodeID
}

// Tape is an append-only arena of scalar nodes.
//
// The zero value is ready to use. A Tape is not safe for concurrent
// construction; see the package documentation.
type Tape[T Number] struct {
	entries []entry[T]
}

// NewTape returns an empty tape.
func NewTape[T Number]() *Tape[T] {
	return &Tape[T]{}
}

// Len returns the number of nodes allocated on the tape.
func (t *Tape[T]) Len() int { return len(t.entries) }

// Node returns the node with the given ID, or false if no such node exists.
func (t *Tape[T]) Node(id NodeID) (Value[T], bool) {
	if id < 0 || int(id) >= len(t.entries) {
		return Value[T]{}, false
	}
	return Value[T]{tape: t, id: id}, true
}

// Leaf allocates an input value with no operands.
func (t *Tape[T]) Leaf(v T) Value[T] {
	return t.push(v, OpLeaf, nil)
}

// Construct allocates a node with an explicit operation and operands.
//
// Called with no operands and [OpLeaf] it is equivalent to [Tape.Leaf] and
// cannot fail. Otherwise the operation must be a non-leaf operation with at
// least one operand, and every operand must live on t. The value is stored
// as given; Construct does not recompute it from the operands.
func (t *Tape[T]) Construct(v T, op Operation, operands ...Value[T]) (Value[T], error) {
	if !op.Valid() {
		return Value[T]{}, fmt.Errorf("%w: %d", ErrUnknownOperation, uint8(op))
	}
	if op.IsLeaf() != (len(operands) == 0) {
		return Value[T]{}, fmt.Errorf("%w: %s with %d operands", ErrOperandsMismatch, op.Name(), len(operands))
	}
	ids := make([]NodeID, len(operands))
	for i, o := range operands {
		if o.tape != t {
			return Value[T]{}, fmt.Errorf("%w: operand %d", ErrForeignOperand, i)
		}
		ids[i] = o.id
	}
	return t.push(v, op, ids), nil
}

func (t *Tape[T]) push(v T, op Operation, operands []NodeID) Value[T] {
	id := NodeID(len(t.entries))
	t.entries = append(t.entries, entry[T]{data: v, op: op, operands: operands})
	return Value[T]{tape: t, id: id}
}

// Validate checks the structural invariants of every node on the tape:
// operands precede their consumer, and only leaves have no operands.
func (t *Tape[T]) Validate() error {
	for i, e := range t.entries {
		if e.op.IsLeaf() != (len(e.operands) == 0) {
			return fmt.Errorf("node %d: %w", i, ErrOperandsMismatch)
		}
		for _, o := range e.operands {
			if o < 0 || int(o) >= i {
				return fmt.Errorf("node %d -> %d: %w", i, o, ErrCycle)
			}
		}
	}
	return nil
}

// Value is a handle to one node on a [Tape].
//
// Values are comparable: two handles are equal exactly when they refer to
// the same node. The zero Value refers to nothing; see [Value.IsValid].
type Value[T Number] struct {
	tape *Tape[T]
	id   NodeID
}

// IsValid reports whether v refers to a node.
func (v Value[T]) IsValid() bool { return v.tape != nil }

// ID returns the node's position on its tape.
func (v Value[T]) ID() NodeID { return v.id }

// Tape returns the tape v was allocated on.
func (v Value[T]) Tape() *Tape[T] { return v.tape }

// Data returns the forward-computed scalar.
func (v Value[T]) Data() T { return v.entry().data }

// Grad returns the gradient slot. It is always zero.
func (v Value[T]) Grad() T { return v.entry().grad }

// Op returns the operation that produced v.
func (v Value[T]) Op() Operation { return v.entry().op }

// IsLeaf reports whether v is an input value.
func (v Value[T]) IsLeaf() bool { return v.entry().op.IsLeaf() }

// CompareKey returns the key used by value-keyed containers: the scalar
// itself. Distinct nodes with equal data share a key.
func (v Value[T]) CompareKey() T { return v.entry().data }

// Children returns the direct operands in the order they were given.
// The slice is freshly allocated on every call.
func (v Value[T]) Children() []Value[T] {
	ops := v.entry().operands
	out := make([]Value[T], len(ops))
	for i, id := range ops {
		out[i] = Value[T]{tape: v.tape, id: id}
	}
	return out
}

// String implements fmt.Stringer.
func (v Value[T]) String() string {
	if !v.IsValid() {
		return "Value(<nil>)"
	}
	e := v.entry()
	if e.op.IsLeaf() {
		return fmt.Sprintf("Value(data=%v)", e.data)
	}
	return fmt.Sprintf("Value(data=%v, op=%s, children=%d)", e.data, e.op, len(e.operands))
}

func (v Value[T]) entry() *entry[T] {
	return &v.tape.entries[v.id]
}
