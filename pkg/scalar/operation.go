package scalar

import (
	"fmt"
	"strconv"
)

// Number is the set of numeric types a [Tape] can hold.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Operation identifies how a node was produced.
type Operation uint8

const (
	// OpLeaf marks an input value with no producing operation.
	OpLeaf Operation = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
)

var opSymbols = [...]string{
	OpLeaf:     "",
	OpAdd:      "+",
	OpSubtract: "-",
	OpMultiply: "*",
	OpDivide:   "/",
}

var opNames = [...]string{
	OpLeaf:     "leaf",
	OpAdd:      "add",
	OpSubtract: "subtract",
	OpMultiply: "multiply",
	OpDivide:   "divide",
}

// String returns the operator symbol, or "" for [OpLeaf].
func (op Operation) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Operation(%d)", uint8(op))
	}
	return opSymbols[op]
}

// Name returns the lower-case operation name ("leaf", "add", ...).
func (op Operation) Name() string {
	if !op.Valid() {
		return fmt.Sprintf("operation(%d)", uint8(op))
	}
	return opNames[op]
}

// IsLeaf reports whether op is [OpLeaf].
func (op Operation) IsLeaf() bool { return op == OpLeaf }

// Valid reports whether op is one of the declared operations.
func (op Operation) Valid() bool { return int(op) < len(opSymbols) }

// ParseOperation accepts either the symbol or the name of an operation.
// The empty string parses as [OpLeaf].
func ParseOperation(s string) (Operation, error) {
	for i := range opSymbols {
		if s == opSymbols[i] || s == opNames[i] {
			return Operation(i), nil
		}
	}
	return OpLeaf, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// Format renders v for display: four decimals for floating-point types,
// plain digits for integers.
func Format[T Number](v T) string {
	var zero, one T = 0, 1
	switch {
	case one/2 != zero:
		return strconv.FormatFloat(float64(v), 'f', 4, 64)
	case zero-one < zero:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatUint(uint64(v), 10)
	}
}

// FormatExact renders v so that [Parse] returns it unchanged. Integers keep
// every digit and floats use the shortest form that round-trips; the
// non-finite floats render as "+Inf", "-Inf" and "NaN".
func FormatExact[T Number](v T) string {
	var zero, one T = 0, 1
	switch {
	case one/2 != zero:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case zero-one < zero:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatUint(uint64(v), 10)
	}
}

// Parse reads a value written by [FormatExact]. Floating-point types also
// accept "Inf" and any case of "inf" and "nan". Integers that do not fit T
// fail with [strconv.ErrRange].
func Parse[T Number](s string) (T, error) {
	var zero, one T = 0, 1
	switch {
	case one/2 != zero:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, err
		}
		return T(f), nil
	case zero-one < zero:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return zero, err
		}
		if int64(T(i)) != i {
			return zero, &strconv.NumError{Func: "Parse", Num: s, Err: strconv.ErrRange}
		}
		return T(i), nil
	default:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return zero, err
		}
		if uint64(T(u)) != u {
			return zero, &strconv.NumError{Func: "Parse", Num: s, Err: strconv.ErrRange}
		}
		return T(u), nil
	}
}
