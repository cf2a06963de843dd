package io

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/matzehuels/scalargraph/pkg/scalar"
)

// number holds a scalar in its exact text form. Finite values are written
// as JSON numbers with every digit kept. Infinities and NaN have no JSON
// number form and are written as the strings "+Inf", "-Inf" and "NaN".
type number string

func numberOf[T scalar.Number](v T) number {
	return number(scalar.FormatExact(v))
}

func (n number) nonFinite() bool {
	return n == "+Inf" || n == "-Inf" || n == "NaN"
}

func (n number) MarshalJSON() ([]byte, error) {
	if n.nonFinite() {
		return json.Marshal(string(n))
	}
	if _, err := strconv.ParseFloat(string(n), 64); err != nil {
		return nil, fmt.Errorf("invalid number %q", string(n))
	}
	return []byte(n), nil
}

func (n *number) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if v := number(s); v.nonFinite() {
			*n = v
			return nil
		}
		return fmt.Errorf("invalid number %q", s)
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = number(num)
	return nil
}

// encodeMeta returns m with numeric values replaced by their exact form, so
// non-finite floats can be encoded.
func encodeMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = encodeMetaValue(v)
	}
	return out
}

func encodeMetaValue(v any) any {
	switch x := v.(type) {
	case float64:
		return numberOf(x)
	case float32:
		return numberOf(x)
	case int:
		return numberOf(x)
	case int8:
		return numberOf(x)
	case int16:
		return numberOf(x)
	case int32:
		return numberOf(x)
	case int64:
		return numberOf(x)
	case uint:
		return numberOf(x)
	case uint8:
		return numberOf(x)
	case uint16:
		return numberOf(x)
	case uint32:
		return numberOf(x)
	case uint64:
		return numberOf(x)
	case map[string]any:
		return encodeMeta(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = encodeMetaValue(e)
		}
		return out
	}
	return v
}

// decodeMeta converts the json.Number values of a metadata object read with
// UseNumber: integers become int64 (uint64 above its range), everything else
// float64. The strings "+Inf", "-Inf" and "NaN" under valueKeys become
// float64.
func decodeMeta(m map[string]any, valueKeys ...string) (map[string]any, error) {
	for k, v := range m {
		d, err := decodeMetaValue(v)
		if err != nil {
			return nil, fmt.Errorf("meta %s: %w", k, err)
		}
		if s, ok := d.(string); ok && number(s).nonFinite() && slices.Contains(valueKeys, k) {
			d, _ = strconv.ParseFloat(s, 64)
		}
		m[k] = d
	}
	return m, nil
}

func decodeMetaValue(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return u, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case map[string]any:
		return decodeMeta(x)
	case []any:
		for i, e := range x {
			d, err := decodeMetaValue(e)
			if err != nil {
				return nil, err
			}
			x[i] = d
		}
		return x, nil
	}
	return v, nil
}
