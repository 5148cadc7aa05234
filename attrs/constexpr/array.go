package constexpr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"strconv"
)

// Array is an ordered PHP array. Keys are int64 or string; numeric string
// keys are normalized to integers the way PHP does.
type Array struct {
	keys   []any
	values []Value
	index  map[any]int
	next   int64
	// hasNext is false until the first integer key is stored.
	hasNext bool
}

// NewArray returns an empty array.
func NewArray() *Array {
	return &Array{index: make(map[any]int)}
}

// ListOf returns a list holding values with keys 0..n-1.
func ListOf(values ...Value) *Array {
	a := NewArray()
	for _, v := range values {
		_ = a.Append(v)
	}
	return a
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.keys)
}

// Append stores v under the next free integer key.
func (a *Array) Append(v Value) error {
	key := int64(0)
	if a.hasNext {
		if a.next == math.MinInt64 {
			return fmt.Errorf("Cannot add element to the array as the next element is already occupied")
		}
		key = a.next
	}
	a.store(key, v)
	return nil
}

// Set stores v under key after normalizing it.
func (a *Array) Set(key Value, v Value) error {
	k, err := NormalizeKey(key)
	if err != nil {
		return err
	}
	a.store(k, v)
	return nil
}

func (a *Array) store(key any, v Value) {
	if i, ok := a.index[key]; ok {
		a.values[i] = v
	} else {
		a.index[key] = len(a.keys)
		a.keys = append(a.keys, key)
		a.values = append(a.values, v)
	}

	if n, ok := key.(int64); ok && (!a.hasNext || n >= a.next) {
		a.hasNext = true
		if n == math.MaxInt64 {
			a.next = math.MinInt64
		} else {
			a.next = n + 1
		}
	}
}

// Get returns the value stored under key.
func (a *Array) Get(key Value) (Value, bool) {
	k, err := NormalizeKey(key)
	if err != nil {
		return nil, false
	}
	i, ok := a.index[k]
	if !ok {
		return nil, false
	}
	return a.values[i], true
}

// All iterates over key/value pairs in insertion order.
func (a *Array) All() iter.Seq2[any, Value] {
	return func(yield func(any, Value) bool) {
		for i, k := range a.keys {
			if !yield(k, a.values[i]) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (a *Array) Keys() []any {
	return append([]any(nil), a.keys...)
}

// Values returns the values in insertion order.
func (a *Array) Values() []Value {
	return append([]Value(nil), a.values...)
}

// IsList reports whether the keys are exactly 0..n-1 in order.
func (a *Array) IsList() bool {
	for i, k := range a.keys {
		if n, ok := k.(int64); !ok || n != int64(i) {
			return false
		}
	}
	return true
}

// Copy returns a shallow copy. Nested arrays are shared; values are never
// mutated after evaluation.
func (a *Array) Copy() *Array {
	c := &Array{
		keys:    append([]any(nil), a.keys...),
		values:  append([]Value(nil), a.values...),
		index:   make(map[any]int, len(a.index)),
		next:    a.next,
		hasNext: a.hasNext,
	}
	for k, i := range a.index {
		c.index[k] = i
	}
	return c
}

// Export converts the array into plain Go values: lists become []any and
// other arrays map[string]any. Nested arrays are converted too.
func (a *Array) Export() any {
	if a.IsList() {
		out := make([]any, len(a.values))
		for i, v := range a.values {
			out[i] = Export(v)
		}
		return out
	}
	out := make(map[string]any, len(a.keys))
	for i, k := range a.keys {
		out[keyString(k)] = Export(a.values[i])
	}
	return out
}

// Export converts a value into plain Go values.
func Export(v Value) any {
	if arr, ok := v.(*Array); ok {
		return arr.Export()
	}
	return v
}

// MarshalJSON encodes lists as JSON arrays and other arrays as objects with
// keys in insertion order.
func (a *Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if a.IsList() {
		buf.WriteByte('[')
		for i, v := range a.values {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalValue(v)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}

	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(keyString(k))
		buf.Write(kb)
		buf.WriteByte(':')
		b, err := marshalValue(a.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		// JSON has no representation for these.
		return json.Marshal(formatFloat(f))
	}
	return json.Marshal(v)
}

func keyString(k any) string {
	if n, ok := k.(int64); ok {
		return strconv.FormatInt(n, 10)
	}
	return k.(string)
}

// NormalizeKey converts a value into an array key: integers and canonical
// decimal strings become int64, floats are truncated, booleans become 0 or 1
// and null becomes "".
func NormalizeKey(key Value) (any, error) {
	switch k := key.(type) {
	case int64:
		return k, nil
	case string:
		if n, ok := canonicalInt(k); ok {
			return n, nil
		}
		return k, nil
	case float64:
		if math.IsNaN(k) || math.IsInf(k, 0) {
			return int64(0), nil
		}
		return int64(k), nil
	case bool:
		if k {
			return int64(1), nil
		}
		return int64(0), nil
	case nil:
		return "", nil
	default:
		return nil, fmt.Errorf("Illegal offset type %s", TypeName(key))
	}
}

// canonicalInt reports whether s is the canonical decimal form of an int64:
// no leading zeros, no plus sign and no "-0".
func canonicalInt(s string) (int64, bool) {
	if s == "" || len(s) > 20 {
		return 0, false
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if digits == "" || (digits[0] == '0' && (len(digits) > 1 || s[0] == '-')) {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
