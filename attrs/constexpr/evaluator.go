// Package constexpr folds PHP constant expressions into values. Nodes it
// cannot fold are handed to a fallback supplied by the caller.
package constexpr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/satishbabariya/phpattr/attrs/ast"
)

// Error is a failure to fold a node.
type Error struct {
	Node ast.Expr
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// FallbackFunc evaluates nodes the folder does not understand.
type FallbackFunc func(ast.Expr) (Value, error)

// Evaluator folds constant expressions. The zero value rejects every node
// it cannot fold itself.
type Evaluator struct {
	Fallback FallbackFunc
}

// New returns an evaluator using fallback for unknown nodes.
func New(fallback FallbackFunc) *Evaluator {
	return &Evaluator{Fallback: fallback}
}

// Evaluate folds expr into a value.
func (e *Evaluator) Evaluate(expr ast.Expr) (Value, error) {
	switch n := expr.(type) {
	case *ast.IntLit:
		return n.Value, nil
	case *ast.FloatLit:
		return n.Value, nil
	case *ast.StringLit:
		return n.Value, nil
	case *ast.ArrayLit:
		return e.evalArray(n)
	case *ast.ConstFetch:
		switch strings.ToLower(n.Name) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
	case *ast.ClassConstFetch:
		if n.Name == "class" && !isRelativeClass(n.Class) {
			return n.Class, nil
		}
	case *ast.Unary:
		return e.evalUnary(n)
	case *ast.Binary:
		return e.evalBinary(n)
	case *ast.Ternary:
		return e.evalTernary(n)
	case *ast.ArrayDimFetch:
		v, _, err := e.evalDim(n)
		return v, err
	}
	return e.fallback(expr)
}

func (e *Evaluator) fallback(expr ast.Expr) (Value, error) {
	if e.Fallback == nil {
		return nil, errorf(expr, "Expression of type %T cannot be evaluated", expr)
	}
	return e.Fallback(expr)
}

func isRelativeClass(name string) bool {
	return name == "self" || name == "static" || name == "parent"
}

func (e *Evaluator) evalArray(n *ast.ArrayLit) (Value, error) {
	arr := NewArray()
	for _, item := range n.Items {
		v, err := e.Evaluate(item.Value)
		if err != nil {
			return nil, err
		}

		if item.Unpack {
			src, ok := v.(*Array)
			if !ok {
				return nil, errorf(item.Value, "Only arrays can be unpacked")
			}
			for k, elem := range src.All() {
				var err error
				if _, isInt := k.(int64); isInt {
					err = arr.Append(elem)
				} else {
					err = arr.Set(k, elem)
				}
				if err != nil {
					return nil, errorf(item.Value, "%s", err)
				}
			}
			continue
		}

		if item.Key == nil {
			if err := arr.Append(v); err != nil {
				return nil, errorf(item.Value, "%s", err)
			}
			continue
		}
		key, err := e.Evaluate(item.Key)
		if err != nil {
			return nil, err
		}
		if err := arr.Set(key, v); err != nil {
			return nil, errorf(item.Key, "%s", err)
		}
	}
	return arr, nil
}

func (e *Evaluator) evalUnary(n *ast.Unary) (Value, error) {
	x, err := e.Evaluate(n.X)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "!":
		return !ToBool(x), nil
	case "+":
		num, ok := toNumber(x)
		if !ok {
			return nil, errorf(n, "Unsupported operand types: %s * int", TypeName(x))
		}
		return num, nil
	case "-":
		num, ok := toNumber(x)
		if !ok {
			return nil, errorf(n, "Unsupported operand types: %s * int", TypeName(x))
		}
		return negate(num), nil
	case "~":
		switch v := x.(type) {
		case int64:
			return ^v, nil
		case float64:
			return ^floatToInt(v), nil
		case string:
			b := []byte(v)
			for i := range b {
				b[i] = ^b[i]
			}
			return string(b), nil
		}
		return nil, errorf(n, "Cannot perform bitwise not on %s", TypeName(x))
	}
	return e.fallback(n)
}

func (e *Evaluator) evalBinary(n *ast.Binary) (Value, error) {
	// Short-circuit operators evaluate the right operand lazily.
	switch n.Op {
	case "&&", "and":
		x, err := e.Evaluate(n.X)
		if err != nil || !ToBool(x) {
			return false, err
		}
		y, err := e.Evaluate(n.Y)
		return ToBool(y), err
	case "||", "or":
		x, err := e.Evaluate(n.X)
		if err != nil {
			return nil, err
		}
		if ToBool(x) {
			return true, nil
		}
		y, err := e.Evaluate(n.Y)
		return ToBool(y), err
	case "??":
		x, err := e.evalQuiet(n.X)
		if err != nil {
			return nil, err
		}
		if x != nil {
			return x, nil
		}
		return e.Evaluate(n.Y)
	}

	x, err := e.Evaluate(n.X)
	if err != nil {
		return nil, err
	}
	y, err := e.Evaluate(n.Y)
	if err != nil {
		return nil, err
	}

	v, err := binaryOp(n.Op, x, y)
	if err != nil {
		var unsupported *unsupportedOp
		if errors.As(err, &unsupported) {
			return e.fallback(n)
		}
		return nil, errorf(n, "%s", err)
	}
	return v, nil
}

// evalQuiet evaluates the left side of ??, where a missing array key yields
// null instead of an error.
func (e *Evaluator) evalQuiet(expr ast.Expr) (Value, error) {
	if dim, ok := expr.(*ast.ArrayDimFetch); ok {
		v, found, err := e.evalDimQuiet(dim)
		if err != nil || !found {
			return nil, err
		}
		return v, nil
	}
	return e.Evaluate(expr)
}

func (e *Evaluator) evalTernary(n *ast.Ternary) (Value, error) {
	cond, err := e.Evaluate(n.Cond)
	if err != nil {
		return nil, err
	}
	if ToBool(cond) {
		if n.Then == nil {
			return cond, nil
		}
		return e.Evaluate(n.Then)
	}
	return e.Evaluate(n.Else)
}

func (e *Evaluator) evalDim(n *ast.ArrayDimFetch) (Value, bool, error) {
	v, found, err := e.evalDimQuiet(n)
	if err != nil {
		return nil, false, err
	}
	if !found {
		dim, _ := e.Evaluate(n.Dim)
		return nil, false, errorf(n, "Undefined array key %s", describeKey(dim))
	}
	return v, true, nil
}

func (e *Evaluator) evalDimQuiet(n *ast.ArrayDimFetch) (Value, bool, error) {
	if n.Dim == nil {
		return nil, false, errorf(n, "Cannot use [] for reading")
	}

	var container Value
	var err error
	if inner, ok := n.Var.(*ast.ArrayDimFetch); ok {
		var found bool
		container, found, err = e.evalDimQuiet(inner)
		if err != nil || !found {
			return nil, false, err
		}
	} else {
		container, err = e.Evaluate(n.Var)
		if err != nil {
			return nil, false, err
		}
	}

	dim, err := e.Evaluate(n.Dim)
	if err != nil {
		return nil, false, err
	}

	switch c := container.(type) {
	case *Array:
		key, kerr := NormalizeKey(dim)
		if kerr != nil {
			return nil, false, errorf(n.Dim, "Cannot access offset of type %s on array", TypeName(dim))
		}
		v, ok := c.Get(key)
		return v, ok, nil
	case string:
		idx, ok := dim.(int64)
		if !ok {
			num, isNum := isNumericString(ToString(dim))
			idx, ok = num.(int64)
			if !isNum || !ok {
				return nil, false, errorf(n.Dim, "Cannot access offset of type %s on string", TypeName(dim))
			}
		}
		if idx < 0 {
			idx += int64(len(c))
		}
		if idx < 0 || idx >= int64(len(c)) {
			return nil, false, nil
		}
		return c[idx : idx+1], true, nil
	case nil:
		return nil, false, nil
	}
	return nil, false, errorf(n, "Cannot use a scalar value as an array")
}

func describeKey(v Value) string {
	if s, ok := v.(string); ok {
		return `"` + s + `"`
	}
	return ToString(v)
}

func errorf(node ast.Expr, format string, args ...any) *Error {
	return &Error{Node: node, Msg: fmt.Sprintf(format, args...)}
}
