package evaluator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/constexpr"
	"github.com/satishbabariya/phpattr/attrs/diagnostics"
	"github.com/satishbabariya/phpattr/attrs/parsing"
)

// functionGroups parses src and returns the attribute groups of its first
// function.
func functionGroups(t *testing.T, path, src string) []*ast.AttributeGroup {
	t.Helper()
	file, err := parsing.New().ParseString(path, src)
	require.NoError(t, err)
	fns := file.Functions()
	require.NotEmpty(t, fns)
	return fns[0].AttrGroups
}

func collect(t *testing.T, path, src string, ctx Context) ([]*Prototype, error) {
	t.Helper()
	return Collect(ParseAttributes(path, functionGroups(t, path, src), ctx))
}

func TestPositionalAndNamedArguments(t *testing.T) {
	protos, err := collect(t, "/app/a.php", "<?php\n#[Attr(1, 2, key: 3)]\nfunction f() {}\n", nil)
	require.NoError(t, err)
	require.Len(t, protos, 1)

	args := protos[0].Arguments
	assert.Equal(t, "Attr", protos[0].Name)
	assert.Equal(t, []constexpr.Value{int64(1), int64(2)}, args.Positional())
	assert.Equal(t, []string{"key"}, args.Names())

	v, ok := args.Lookup("key")
	require.True(t, ok)
	assert.Equal(t, int64(3), v)

	first, ok := args.At(0)
	require.True(t, ok)
	assert.Equal(t, int64(1), first)

	_, ok = args.At(2)
	assert.False(t, ok)
	assert.Equal(t, 3, args.Len())
	assert.Equal(t, "1, 2, key: 3", args.String())
}

func TestPositionalAfterNamed(t *testing.T) {
	src := "<?php\n#[Attr(\n    key: 1,\n    2\n)]\nfunction f() {}\n"
	_, err := collect(t, "/app/a.php", src, nil)

	var orderErr *diagnostics.ArgumentOrderError
	require.True(t, errors.As(err, &orderErr))
	assert.False(t, orderErr.Duplicate)
	assert.Equal(t, "/app/a.php", orderErr.File)
	assert.Equal(t, 4, orderErr.Line)
	assert.Equal(t, "Cannot use positional argument after named argument in /app/a.php:4", err.Error())
}

func TestDuplicateNamedArgument(t *testing.T) {
	src := "<?php\n#[Attr(key: 1,\n  key: 2)]\nfunction f() {}\n"
	_, err := collect(t, "/app/a.php", src, nil)

	var orderErr *diagnostics.ArgumentOrderError
	require.True(t, errors.As(err, &orderErr))
	assert.True(t, orderErr.Duplicate)
	assert.Equal(t, "key", orderErr.Name)
	assert.Equal(t, 3, orderErr.Line)
}

func TestMagicConstants(t *testing.T) {
	src := `<?php
#[Attr(
    file: __FILE__,
    dir: __DIR__,
    line: __LINE__,
    method: __METHOD__,
    function: __FUNCTION__,
    class: __CLASS__,
    trait: __TRAIT__,
    ns: __NAMESPACE__,
    property: __PROPERTY__,
    nested: [__LINE__ => __CLASS__ . '::x'],
)]
function f() {}
`
	ctx := Context{
		CtxNamespace: "App",
		CtxFunction:  "foo",
		CtxClass:     `App\Service`,
	}
	protos, err := collect(t, `C:\www/src\Service.php`, src, ctx)
	require.NoError(t, err)
	require.Len(t, protos, 1)

	args := protos[0].Arguments
	lookup := func(name string) constexpr.Value {
		v, ok := args.Lookup(name)
		require.True(t, ok, name)
		return v
	}

	assert.Equal(t, `C:\www/src\Service.php`, lookup("file"))
	assert.Equal(t, `C:\www/src`, lookup("dir"))
	assert.Equal(t, int64(5), lookup("line"))
	assert.Equal(t, `App\foo`, lookup("method"))
	assert.Equal(t, "foo", lookup("function"))
	assert.Equal(t, `App\Service`, lookup("class"))
	assert.Equal(t, "", lookup("trait"))
	assert.Equal(t, "App", lookup("ns"))
	assert.Equal(t, "", lookup("property"))

	nested, ok := lookup("nested").(*constexpr.Array)
	require.True(t, ok)
	v, ok := nested.Get(int64(12))
	require.True(t, ok)
	assert.Equal(t, `App\Service::x`, v)
}

func TestMethodConstantWithoutNamespace(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want string
	}{
		{name: "namespace and function", ctx: Context{CtxNamespace: "App", CtxFunction: "foo"}, want: `App\foo`},
		{name: "empty namespace", ctx: Context{CtxNamespace: "", CtxFunction: "foo"}, want: "foo"},
		{name: "no function", ctx: Context{CtxNamespace: "App"}, want: `App\`},
		{name: "empty context", ctx: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Resolve(&ast.MagicConst{Kind: ast.MagicMethod, Name: "__METHOD__"}, tt.ctx, "/a.php")
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestNonConstantExpressions(t *testing.T) {
	tests := []struct {
		name string
		arg  string
	}{
		{name: "variable", arg: "$value"},
		{name: "function call", arg: "strlen('abc')"},
		{name: "static call", arg: "Foo::bar()"},
		{name: "new", arg: "new Foo()"},
		{name: "class constant", arg: "Foo::BAR"},
		{name: "global constant", arg: "PHP_EOL"},
		{name: "nested in array", arg: "[1, 2, $x]"},
		{name: "interpolation", arg: `"id {$id}"`},
		{name: "closure", arg: "fn() => 1"},
		{name: "property fetch", arg: "$this->name"},
		{name: "int cast", arg: "(int) '5'"},
		{name: "array cast", arg: "(array) 1"},
		{name: "string cast", arg: "(string) 1.5"},
		{name: "silence", arg: "@1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "<?php\n\n#[Attr(1,\n  " + tt.arg + ")]\nfunction f() {}\n"
			_, err := collect(t, "/app/a.php", src, nil)

			var constErr *diagnostics.ConstantExpressionError
			require.True(t, errors.As(err, &constErr), "got %v", err)
			assert.Equal(t, "/app/a.php", constErr.File)
			assert.Equal(t, 4, constErr.Line)
			assert.Empty(t, constErr.Reason)
			assert.Equal(t, "Constant expression contains invalid operations in /app/a.php:4", err.Error())
		})
	}
}

func TestFoldingFailureIsConstantExpressionError(t *testing.T) {
	_, err := collect(t, "/app/a.php", "<?php\n#[Attr(1 / 0)]\nfunction f() {}\n", nil)

	var constErr *diagnostics.ConstantExpressionError
	require.True(t, errors.As(err, &constErr))
	assert.Equal(t, "Division by zero", constErr.Reason)
	assert.Equal(t, 2, constErr.Line)
}

func TestUnpackingIsRejected(t *testing.T) {
	_, err := collect(t, "/app/a.php", "<?php\n#[Attr(...[1, 2])]\nfunction f() {}\n", nil)

	var constErr *diagnostics.ConstantExpressionError
	require.True(t, errors.As(err, &constErr))
	assert.Contains(t, constErr.Reason, "unpacking")
}

func TestEmptyArgumentList(t *testing.T) {
	protos, err := collect(t, "/a.php", "<?php\n#[First, Second()]\nfunction f() {}\n", nil)
	require.NoError(t, err)
	require.Len(t, protos, 2)

	for _, p := range protos {
		assert.Equal(t, 0, p.Arguments.Len())
		assert.Empty(t, p.Arguments.Positional())
	}
}

func TestSourceOrderAcrossGroups(t *testing.T) {
	src := "<?php\nuse Lib\\Tag;\n#[A(1), B]\n#[Tag('x')]\n#[\\C]\nfunction f() {}\n"
	protos, err := collect(t, "/a.php", src, nil)
	require.NoError(t, err)

	var names []string
	var lines []int
	for _, p := range protos {
		names = append(names, p.Name)
		lines = append(lines, p.Line)
	}
	assert.Equal(t, []string{"A", "B", `Lib\Tag`, "C"}, names)
	assert.Equal(t, []int{3, 3, 4, 5}, lines)
}

func TestErrorSurfacesAtOffendingElement(t *testing.T) {
	src := "<?php\n#[Good(1)]\n#[Bad($x)]\n#[Never]\nfunction f() {}\n"
	groups := functionGroups(t, "/a.php", src)

	var got []string
	var gotErr error
	for proto, err := range ParseAttributes("/a.php", groups, nil) {
		if err != nil {
			gotErr = err
			continue
		}
		got = append(got, proto.Name)
	}

	assert.Equal(t, []string{"Good"}, got)
	var constErr *diagnostics.ConstantExpressionError
	require.True(t, errors.As(gotErr, &constErr))
	assert.Equal(t, 3, constErr.Line)
}

func TestEarlyBreakStopsEvaluation(t *testing.T) {
	groups := functionGroups(t, "/a.php", "<?php\n#[First]\n#[Second($x)]\nfunction f() {}\n")

	count := 0
	for proto, err := range ParseAttributes("/a.php", groups, nil) {
		require.NoError(t, err)
		assert.Equal(t, "First", proto.Name)
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestIdempotentEvaluation(t *testing.T) {
	src := "<?php\n#[Route(path: __DIR__ . '/x', methods: ['GET', 'POST'], line: __LINE__)]\n#[Other(__METHOD__)]\nfunction f() {}\n"
	groups := functionGroups(t, "/srv/app.php", src)
	ctx := Context{CtxNamespace: "App", CtxFunction: "f"}

	first, err := Collect(ParseAttributes("/srv/app.php", groups, ctx))
	require.NoError(t, err)
	second, err := Collect(ParseAttributes("/srv/app.php", groups, ctx))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestNoGroupsYieldsNothing(t *testing.T) {
	protos, err := Collect(ParseAttributes("/a.php", nil, nil))
	require.NoError(t, err)
	assert.Empty(t, protos)
}

func TestArgumentsJSON(t *testing.T) {
	protos, err := collect(t, "/a.php", "<?php\n#[A('x', [1, 'k' => true], z: null, a: 1.5)]\nfunction f() {}\n", nil)
	require.NoError(t, err)

	out, err := json.Marshal(protos[0].Arguments)
	require.NoError(t, err)
	assert.Equal(t, `{"positional":["x",{"0":1,"k":true}],"named":{"z":null,"a":1.5}}`, string(out))

	empty, err := json.Marshal(NewArguments())
	require.NoError(t, err)
	assert.Equal(t, `{"positional":[],"named":{}}`, string(empty))
}

func TestArgumentsBind(t *testing.T) {
	protos, err := collect(t, "/a.php", "<?php\n#[Route('/users', name: 'users')]\nfunction f() {}\n", nil)
	require.NoError(t, err)
	args := protos[0].Arguments

	bound, err := args.Bind([]string{"path", "name", "methods"})
	require.NoError(t, err)
	assert.Equal(t, map[string]constexpr.Value{"path": "/users", "name": "users"}, bound)

	_, err = args.Bind([]string{"name", "path"})
	assert.EqualError(t, err, "named parameter $name overwrites previous argument")

	_, err = args.Bind([]string{"path"})
	assert.EqualError(t, err, "unknown named parameter $name")

	_, err = args.Bind(nil)
	assert.Error(t, err)
}

func TestDirname(t *testing.T) {
	tests := map[string]string{
		"/var/www/index.php":  "/var/www",
		`C:\www\index.php`:    `C:\www`,
		`/var\www/index.php`:  `/var\www`,
		"/index.php":          "/",
		"index.php":           ".",
		"/var/www/":           "/var",
		"/var//www//file.php": "/var//www",
		"/":                   "/",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Dirname(in), in)
	}
}
