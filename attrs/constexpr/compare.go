package constexpr

import (
	"strings"
)

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	switch x := a.(type) {
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			if y.keys[i] != k || !StrictEquals(x.values[i], y.values[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		if _, ok := b.(*Array); ok {
			return false
		}
		return a == b
	}
}

// LooseEquals implements == with PHP 8 comparison rules.
func LooseEquals(a, b Value) bool {
	if x, ok := a.(*Array); ok {
		y, ok := b.(*Array)
		if !ok {
			if b == nil || isBool(b) {
				return ToBool(a) == ToBool(b)
			}
			return false
		}
		if x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			v, ok := y.index[k]
			if !ok || !LooseEquals(x.values[i], y.values[v]) {
				return false
			}
		}
		return true
	}
	if _, ok := b.(*Array); ok {
		return LooseEquals(b, a)
	}
	return Compare(a, b) == 0
}

// Compare implements <=> for values. Arrays compare by size and then
// element-wise; an array is greater than any scalar.
func Compare(a, b Value) int {
	switch {
	case isBool(a) || isBool(b):
		return cmpBool(ToBool(a), ToBool(b))
	case a == nil && b == nil:
		return 0
	case a == nil:
		if s, ok := b.(string); ok {
			return cmpString("", s)
		}
		return cmpBool(false, ToBool(b))
	case b == nil:
		if s, ok := a.(string); ok {
			return cmpString(s, "")
		}
		return cmpBool(ToBool(a), false)
	}

	xa, aArr := a.(*Array)
	xb, bArr := b.(*Array)
	switch {
	case aArr && bArr:
		return compareArrays(xa, xb)
	case aArr:
		return 1
	case bArr:
		return -1
	}

	sa, aStr := a.(string)
	sb, bStr := b.(string)
	switch {
	case aStr && bStr:
		na, okA := isNumericString(sa)
		nb, okB := isNumericString(sb)
		if okA && okB {
			return cmpNumber(na, nb)
		}
		return cmpString(sa, sb)
	case aStr:
		if na, ok := isNumericString(sa); ok {
			return cmpNumber(na, b)
		}
		return cmpString(sa, ToString(b))
	case bStr:
		if nb, ok := isNumericString(sb); ok {
			return cmpNumber(a, nb)
		}
		return cmpString(ToString(a), sb)
	}
	return cmpNumber(a, b)
}

func compareArrays(a, b *Array) int {
	if a.Len() != b.Len() {
		return cmpInt(int64(a.Len()), int64(b.Len()))
	}
	for i, k := range a.keys {
		j, ok := b.index[k]
		if !ok {
			return 1
		}
		if c := Compare(a.values[i], b.values[j]); c != 0 {
			return c
		}
	}
	return 0
}

func cmpNumber(a, b Value) int {
	ia, aInt := a.(int64)
	ib, bInt := b.(int64)
	if aInt && bInt {
		return cmpInt(ia, ib)
	}
	fa, fb := toFloat(a), toFloat(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func cmpString(a, b string) int {
	return strings.Compare(a, b)
}

func isBool(v Value) bool {
	_, ok := v.(bool)
	return ok
}
