package scalar

// Add returns a new node holding a+b with operands {a, b}.
func Add[T Number](a, b Value[T]) Value[T] {
	t := sameTape(a, b)
	return t.push(a.Data()+b.Data(), OpAdd, []NodeID{a.id, b.id})
}

// Subtract returns a new node holding a-b with operands {a, b}.
func Subtract[T Number](a, b Value[T]) Value[T] {
	t := sameTape(a, b)
	return t.push(a.Data()-b.Data(), OpSubtract, []NodeID{a.id, b.id})
}

// Multiply returns a new node holding a*b with operands {a, b}.
func Multiply[T Number](a, b Value[T]) Value[T] {
	t := sameTape(a, b)
	return t.push(a.Data()*b.Data(), OpMultiply, []NodeID{a.id, b.id})
}

// Divide returns a new node holding a/b with operands {a, b}.
// Division by zero behaves like native Go division for T.
func Divide[T Number](a, b Value[T]) Value[T] {
	t := sameTape(a, b)
	return t.push(a.Data()/b.Data(), OpDivide, []NodeID{a.id, b.id})
}

// Sum folds vs left to right with [Add]. It returns the zero Value for no
// arguments and vs[0] itself for one.
func Sum[T Number](vs ...Value[T]) Value[T] {
	if len(vs) == 0 {
		return Value[T]{}
	}
	acc := vs[0]
	for _, v := range vs[1:] {
		acc = Add(acc, v)
	}
	return acc
}

// Add is shorthand for [Add](v, o).
func (v Value[T]) Add(o Value[T]) Value[T] { return Add(v, o) }

// Sub is shorthand for [Subtract](v, o).
func (v Value[T]) Sub(o Value[T]) Value[T] { return Subtract(v, o) }

// Mul is shorthand for [Multiply](v, o).
func (v Value[T]) Mul(o Value[T]) Value[T] { return Multiply(v, o) }

// Div is shorthand for [Divide](v, o).
func (v Value[T]) Div(o Value[T]) Value[T] { return Divide(v, o) }

// sameTape panics when a and b cannot be combined. Mixing tapes is a
// programming error in the same class as dereferencing nil.
func sameTape[T Number](a, b Value[T]) *Tape[T] {
	if a.tape == nil || b.tape == nil {
		panic("scalar: operand is the zero Value")
	}
	if a.tape != b.tape {
		panic("scalar: operands belong to different tapes")
	}
	return a.tape
}

// Reachable returns root and every node reachable from it through
// [Value.Children], each exactly once, in depth-first pre-order.
// It returns nil for the zero Value.
func Reachable[T Number](root Value[T]) []Value[T] {
	if !root.IsValid() {
		return nil
	}
	seen := make(map[NodeID]bool)
	var out []Value[T]
	stack := []Value[T]{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n.id] {
			continue
		}
		seen[n.id] = true
		out = append(out, n)
		ops := n.entry().operands
		for i := len(ops) - 1; i >= 0; i-- {
			stack = append(stack, Value[T]{tape: n.tape, id: ops[i]})
		}
	}
	return out
}
