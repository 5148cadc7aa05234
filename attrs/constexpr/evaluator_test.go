package constexpr_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/constexpr"
	"github.com/satishbabariya/phpattr/attrs/parsing"
)

func eval(t *testing.T, src string) (constexpr.Value, error) {
	t.Helper()
	expr, err := parsing.New().ParseExpression("expr.php", src)
	require.NoError(t, err, src)
	return constexpr.New(nil).Evaluate(expr)
}

func mustEval(t *testing.T, src string) constexpr.Value {
	t.Helper()
	v, err := eval(t, src)
	require.NoError(t, err, src)
	return v
}

func TestEvaluateScalars(t *testing.T) {
	tests := []struct {
		src  string
		want constexpr.Value
	}{
		{"42", int64(42)},
		{"0x1F", int64(31)},
		{"0b101", int64(5)},
		{"0o17", int64(15)},
		{"017", int64(15)},
		{"1_000_000", int64(1000000)},
		{"1.5", 1.5},
		{"1e3", 1000.0},
		{"9223372036854775808", 9223372036854775808.0},
		{"'it\\'s'", "it's"},
		{`"tab\there"`, "tab\there"},
		{`"\x41\101\u{1F600}"`, "AA\U0001F600"},
		{"TRUE", true},
		{"false", false},
		{"null", nil},
		{`\true`, true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, mustEval(t, tt.src))
		})
	}
}

func TestEvaluateOperators(t *testing.T) {
	tests := []struct {
		src  string
		want constexpr.Value
	}{
		{"1 + 2 * 3", int64(7)},
		{"(1 + 2) * 3", int64(9)},
		{"7 / 2", 3.5},
		{"8 / 2", int64(4)},
		{"7 % 3", int64(1)},
		{"-7 % 3", int64(-1)},
		{"2 ** 10", int64(1024)},
		{"2 ** -1", 0.5},
		{"2 ** 3 ** 2", int64(512)},
		{"-2 ** 2", int64(-4)},
		{"9223372036854775807 + 1", 9223372036854775808.0},
		{"'a' . 'b' . 1", "ab1"},
		{"'x' . 1.0", "x1"},
		{"'x' . 0.1", "x0.1"},
		{"'x' . 1e20", "x1.0E+20"},
		{"'x' . true . null", "x1"},
		{"1 << 3", int64(8)},
		{"-16 >> 2", int64(-4)},
		{"6 & 3", int64(2)},
		{"6 | 3", int64(7)},
		{"6 ^ 3", int64(5)},
		{"~0", int64(-1)},
		{"'ab' | '  '", "ab"},
		{"!0", true},
		{"1 && 0", false},
		{"0 || 'a'", true},
		{"true xor true", false},
		{"1 == '1'", true},
		{"'abc' == 0", false},
		{"null == false", true},
		{"'1e1' == '10'", true},
		{"1 === 1.0", false},
		{"[1, 2] == [1, 2]", true},
		{"[1, 2] === [1 => 2, 0 => 1]", false},
		{"[1, 2] == [1 => 2, 0 => 1]", true},
		{"1 <=> 2", int64(-1)},
		{"'b' > 'a'", true},
		{"1 <> 2", true},
		{"0 ?: 'fallback'", "fallback"},
		{"1 ? 'yes' : 'no'", "yes"},
		{"null ?? 'default'", "default"},
		{"[1][5] ?? 'missing'", "missing"},
		{"['a' => ['b' => 1]]['a']['c'] ?? 2", int64(2)},
		{"[10, 20][1]", int64(20)},
		{"'hello'[-1]", "o"},
		{"+'5'", int64(5)},
		{"-'2.5'", -2.5},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, mustEval(t, tt.src))
		})
	}
}

func TestEvaluateArrays(t *testing.T) {
	v := mustEval(t, "[5 => 'a', 'b', '7' => 'c', '07' => 'd', true => 'e', null => 'f', 1.9 => 'g', ...['x', 'k' => 'y']]")
	arr, ok := v.(*constexpr.Array)
	require.True(t, ok)

	assert.Equal(t, []any{int64(5), int64(6), int64(7), "07", int64(1), "", int64(8), "k"}, arr.Keys())
	assert.Equal(t, []constexpr.Value{"a", "b", "c", "d", "g", "f", "x", "y"}, arr.Values())
	assert.False(t, arr.IsList())

	out, err := json.Marshal(arr)
	require.NoError(t, err)
	assert.Equal(t, `{"5":"a","6":"b","7":"c","07":"d","1":"g","":"f","8":"x","k":"y"}`, string(out))

	list := mustEval(t, "array(1, [2, 3])").(*constexpr.Array)
	assert.True(t, list.IsList())
	assert.Equal(t, []any{int64(1), []any{int64(2), int64(3)}}, list.Export())

	union := mustEval(t, "['a' => 1, 'b' => 2] + ['b' => 3, 'c' => 4]").(*constexpr.Array)
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2), "c": int64(4)}, union.Export())
}

func TestEvaluateNegativeKeys(t *testing.T) {
	arr := mustEval(t, "[-5 => 'a', 'b']").(*constexpr.Array)
	assert.Equal(t, []any{int64(-5), int64(-4)}, arr.Keys())
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"1 / 0", "Division by zero"},
		{"1 % 0", "Modulo by zero"},
		{"1 << -1", "Bit shift by negative number"},
		{"'abc' + 1", "Unsupported operand types: string + int"},
		{"[1] + 1", "Unsupported operand types: array + int"},
		{"[1][3]", "Undefined array key 3"},
		{"['a' => 1]['b']", `Undefined array key "b"`},
		{"[][]", "Cannot use [] for reading"},
		{"[...1]", "Only arrays can be unpacked"},
		{"[[1] => 2]", "Illegal offset type array"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := eval(t, tt.src)
			require.Error(t, err)

			var evalErr *constexpr.Error
			require.True(t, errors.As(err, &evalErr))
			assert.Equal(t, tt.msg, evalErr.Msg)
			assert.NotNil(t, evalErr.Node)
		})
	}
}

func TestEvaluateUsesFallback(t *testing.T) {
	expr, err := parsing.New().ParseExpression("expr.php", "PREFIX . '_' . __LINE__ . Foo::class")
	require.NoError(t, err)

	var seen []string
	e := constexpr.New(func(node ast.Expr) (constexpr.Value, error) {
		seen = append(seen, node.String())
		switch n := node.(type) {
		case *ast.ConstFetch:
			return "app", nil
		case *ast.MagicConst:
			return int64(n.Pos.Line), nil
		}
		return nil, errors.New("unexpected")
	})

	v, err := e.Evaluate(expr)
	require.NoError(t, err)
	assert.Equal(t, "app_1Foo", v)
	assert.Equal(t, []string{"PREFIX", "__LINE__"}, seen)
}

func TestEvaluateFallbackForUnsupportedNodes(t *testing.T) {
	for _, src := range []string{"$var", "strlen('a')", "new Foo()", "self::class", "Foo::BAR", "(int) '5'", "(array) 1", "@1", `"x{$y}"`, "$a = 1"} {
		t.Run(src, func(t *testing.T) {
			expr, err := parsing.New().ParseExpression("expr.php", src)
			require.NoError(t, err)

			sentinel := errors.New("not constant")
			var got ast.Expr
			_, err = constexpr.New(func(node ast.Expr) (constexpr.Value, error) {
				got = node
				return nil, sentinel
			}).Evaluate(expr)

			assert.ErrorIs(t, err, sentinel)
			assert.NotNil(t, got)
		})
	}
}

func TestEvaluateClassNameConstant(t *testing.T) {
	assert.Equal(t, `App\Entity\User`, mustEval(t, `\App\Entity\User::class`))
	assert.Equal(t, "Foo", mustEval(t, "Foo::class"))
	assert.Equal(t, "Foo_id", mustEval(t, "Foo::class . '_id'"))

	for _, src := range []string{"self::class", "static::class", "parent::class"} {
		_, err := eval(t, src)
		assert.Error(t, err, src)
	}
}

func TestEvaluateShortCircuitSkipsFallback(t *testing.T) {
	expr, err := parsing.New().ParseExpression("expr.php", "false && $x")
	require.NoError(t, err)

	v, err := constexpr.New(func(ast.Expr) (constexpr.Value, error) {
		return nil, errors.New("should not be called")
	}).Evaluate(expr)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestToStringFloats(t *testing.T) {
	tests := map[float64]string{
		0.1 + 0.2:     "0.3",
		100:           "100",
		-1.5:          "-1.5",
		1e14:          "1.0E+14",
		123456789.125: "123456789.125",
		0.0001:        "0.0001",
		0.00001:       "1.0E-5",
		1.5e-7:        "1.5E-7",
		math.Inf(1):   "INF",
	}
	for f, want := range tests {
		assert.Equal(t, want, constexpr.ToString(f), "%v", f)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   constexpr.Value
		want any
	}{
		{"12", int64(12)},
		{"-3", int64(-3)},
		{"-0", "-0"},
		{"012", "012"},
		{"1.5", "1.5"},
		{" 1", " 1"},
		{"9223372036854775808", "9223372036854775808"},
		{2.9, int64(2)},
		{false, int64(0)},
		{nil, ""},
	}
	for _, tt := range tests {
		got, err := constexpr.NormalizeKey(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}

	_, err := constexpr.NormalizeKey(constexpr.NewArray())
	assert.Error(t, err)
}
