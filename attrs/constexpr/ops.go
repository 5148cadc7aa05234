package constexpr

import (
	"errors"
	"fmt"
	"math"
)

// unsupportedOp marks operators that are not constant-foldable at all, as
// opposed to foldable operators applied to bad operands.
type unsupportedOp struct {
	op string
}

func (e *unsupportedOp) Error() string {
	return "unsupported operator " + e.op
}

var (
	errDivisionByZero = errors.New("Division by zero")
	errModuloByZero   = errors.New("Modulo by zero")
	errNegativeShift  = errors.New("Bit shift by negative number")
)

func binaryOp(op string, x, y Value) (Value, error) {
	switch op {
	case "==":
		return LooseEquals(x, y), nil
	case "!=", "<>":
		return !LooseEquals(x, y), nil
	case "===":
		return StrictEquals(x, y), nil
	case "!==":
		return !StrictEquals(x, y), nil
	case "<":
		return Compare(x, y) < 0, nil
	case "<=":
		return Compare(x, y) <= 0, nil
	case ">":
		return Compare(x, y) > 0, nil
	case ">=":
		return Compare(x, y) >= 0, nil
	case "<=>":
		return int64(Compare(x, y)), nil
	case "xor":
		return ToBool(x) != ToBool(y), nil
	case ".":
		return ToString(x) + ToString(y), nil
	case "+":
		if a, ok := x.(*Array); ok {
			b, ok := y.(*Array)
			if !ok {
				return nil, operandError(op, x, y)
			}
			return arrayUnion(a, b), nil
		}
		return arith(op, x, y)
	case "-", "*", "/", "**":
		return arith(op, x, y)
	case "%", "<<", ">>":
		return intOp(op, x, y)
	case "&", "|", "^":
		if a, ok := x.(string); ok {
			if b, ok := y.(string); ok {
				return bytewise(op, a, b), nil
			}
		}
		return intOp(op, x, y)
	}
	return nil, &unsupportedOp{op: op}
}

func operandError(op string, x, y Value) error {
	return fmt.Errorf("Unsupported operand types: %s %s %s", TypeName(x), op, TypeName(y))
}

func arrayUnion(a, b *Array) *Array {
	out := a.Copy()
	for k, v := range b.All() {
		if _, ok := out.index[k]; !ok {
			out.store(k, v)
		}
	}
	return out
}

func arith(op string, x, y Value) (Value, error) {
	a, okA := toNumber(x)
	b, okB := toNumber(y)
	if !okA || !okB {
		return nil, operandError(op, x, y)
	}

	ia, aInt := a.(int64)
	ib, bInt := b.(int64)
	if aInt && bInt {
		switch op {
		case "+":
			if s := ia + ib; (s > ia) == (ib > 0) {
				return s, nil
			}
		case "-":
			if d := ia - ib; (d < ia) == (ib > 0) {
				return d, nil
			}
		case "*":
			if p, ok := mulInt(ia, ib); ok {
				return p, nil
			}
		case "/":
			if ib == 0 {
				return nil, errDivisionByZero
			}
			if ia%ib == 0 && !(ia == math.MinInt64 && ib == -1) {
				return ia / ib, nil
			}
		case "**":
			if ib >= 0 {
				if p, ok := powInt(ia, ib); ok {
					return p, nil
				}
			}
		}
	}

	fa, fb := toFloat(a), toFloat(b)
	switch op {
	case "+":
		return fa + fb, nil
	case "-":
		return fa - fb, nil
	case "*":
		return fa * fb, nil
	case "/":
		if fb == 0 {
			return nil, errDivisionByZero
		}
		return fa / fb, nil
	default:
		return math.Pow(fa, fb), nil
	}
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return p, true
}

func powInt(base, exp int64) (int64, bool) {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, ok := mulInt(result, base)
			if !ok {
				return 0, false
			}
			result = r
		}
		exp >>= 1
		if exp > 0 {
			b, ok := mulInt(base, base)
			if !ok {
				return 0, false
			}
			base = b
		}
	}
	return result, true
}

func intOp(op string, x, y Value) (Value, error) {
	a, okA := toNumber(x)
	b, okB := toNumber(y)
	if !okA || !okB {
		return nil, operandError(op, x, y)
	}
	ia, ib := toInt(a), toInt(b)

	switch op {
	case "%":
		if ib == 0 {
			return nil, errModuloByZero
		}
		if ib == -1 {
			return int64(0), nil
		}
		return ia % ib, nil
	case "<<":
		if ib < 0 {
			return nil, errNegativeShift
		}
		if ib >= 64 {
			return int64(0), nil
		}
		return int64(uint64(ia) << uint(ib)), nil
	case ">>":
		if ib < 0 {
			return nil, errNegativeShift
		}
		if ib >= 64 {
			if ia < 0 {
				return int64(-1), nil
			}
			return int64(0), nil
		}
		return ia >> uint(ib), nil
	case "&":
		return ia & ib, nil
	case "|":
		return ia | ib, nil
	default:
		return ia ^ ib, nil
	}
}

// bytewise applies a bitwise operator to two strings byte by byte. & and ^
// truncate to the shorter operand, | pads it.
func bytewise(op string, a, b string) string {
	n := min(len(a), len(b))
	if op == "|" {
		n = max(len(a), len(b))
	}
	out := make([]byte, n)
	for i := range out {
		var ca, cb byte
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		switch op {
		case "&":
			out[i] = ca & cb
		case "|":
			out[i] = ca | cb
		default:
			out[i] = ca ^ cb
		}
	}
	return string(out)
}

func negate(v Value) Value {
	switch x := v.(type) {
	case int64:
		if x == math.MinInt64 {
			return -float64(x)
		}
		return -x
	case float64:
		return -x
	}
	return v
}
