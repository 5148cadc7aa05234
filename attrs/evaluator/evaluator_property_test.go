//go:build property
// +build property

package evaluator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/diagnostics"
	"github.com/satishbabariya/phpattr/attrs/parsing"
)

func groupsOf(src string) ([]*ast.AttributeGroup, error) {
	file, err := parsing.New().ParseString("prop.php", src)
	if err != nil {
		return nil, err
	}
	fns := file.Functions()
	if len(fns) == 0 {
		return nil, fmt.Errorf("no function parsed")
	}
	return fns[0].AttrGroups, nil
}

// TestArgumentProperties checks argument assembly for generated argument lists
func TestArgumentProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: positional values keep their order and named values their keys
	properties.Property("positional then named", prop.ForAll(
		func(positional []int64, key string, named int64) bool {
			parts := make([]string, 0, len(positional)+1)
			for _, v := range positional {
				parts = append(parts, fmt.Sprint(v))
			}
			parts = append(parts, fmt.Sprintf("%s: %d", key, named))

			groups, err := groupsOf("<?php\n#[Attr(" + strings.Join(parts, ", ") + ")]\nfunction f() {}\n")
			if err != nil {
				return false
			}
			protos, err := Collect(ParseAttributes("prop.php", groups, nil))
			if err != nil || len(protos) != 1 {
				return false
			}

			args := protos[0].Arguments
			got := args.Positional()
			if len(got) != len(positional) {
				return false
			}
			for i, v := range positional {
				if got[i] != v {
					return false
				}
			}
			v, ok := args.Lookup(key)
			return ok && v == named
		},
		gen.SliceOfN(4, gen.Int64Range(0, 1<<40)),
		gen.RegexMatch(`^[a-z][a-zA-Z0-9_]{0,8}$`),
		gen.Int64Range(0, 1<<40),
	))

	// Property: a positional argument after a named one fails on its own line
	properties.Property("positional after named", prop.ForAll(
		func(blank int) bool {
			src := "<?php\n#[Attr(key: 1," + strings.Repeat("\n", blank+1) + "2)]\nfunction f() {}\n"
			groups, err := groupsOf(src)
			if err != nil {
				return false
			}
			_, err = Collect(ParseAttributes("prop.php", groups, nil))
			orderErr, ok := err.(*diagnostics.ArgumentOrderError)
			return ok && orderErr.Line == 3+blank
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

// TestMagicConstantProperties checks magic constants for generated paths and lines
func TestMagicConstantProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	segment := gen.RegexMatch(`^[a-zA-Z0-9_.-]{1,8}$`)
	separator := gen.RegexMatch(`^[/\\]$`)

	// Property: __FILE__ is the path exactly as given
	properties.Property("file is the input path", prop.ForAll(
		func(segments []string, seps []string) bool {
			path := joinMixed(segments, seps)
			v, err := Resolve(&ast.MagicConst{Kind: ast.MagicFile, Name: "__FILE__"}, nil, path)
			return err == nil && v == path
		},
		gen.SliceOfN(4, segment),
		gen.SliceOfN(4, separator),
	))

	// Property: __DIR__ is everything before the last separator
	properties.Property("dir is the directory portion", prop.ForAll(
		func(segments []string, seps []string, name string) bool {
			dir := "/" + joinMixed(segments, seps)
			v, err := Resolve(&ast.MagicConst{Kind: ast.MagicDir, Name: "__DIR__"}, nil, dir+seps[0]+name)
			return err == nil && v == dir
		},
		gen.SliceOfN(3, segment),
		gen.SliceOfN(3, separator),
		segment,
	))

	// Property: __LINE__ is the line the constant appears on
	properties.Property("line is the source line", prop.ForAll(
		func(blank int) bool {
			src := "<?php\n#[Attr(" + strings.Repeat("\n", blank) + "__LINE__)]\nfunction f() {}\n"
			groups, err := groupsOf(src)
			if err != nil {
				return false
			}
			protos, err := Collect(ParseAttributes("prop.php", groups, nil))
			if err != nil {
				return false
			}
			v, _ := protos[0].Arguments.At(0)
			return v == int64(2+blank)
		},
		gen.IntRange(0, 50),
	))

	// Property: __METHOD__ never starts with a separator
	properties.Property("method has no leading separator", prop.ForAll(
		func(namespace, function string) bool {
			ctx := Context{CtxNamespace: namespace, CtxFunction: function}
			v, err := Resolve(&ast.MagicConst{Kind: ast.MagicMethod, Name: "__METHOD__"}, ctx, "prop.php")
			if err != nil {
				return false
			}
			s := v.(string)
			if namespace == "" {
				return s == function
			}
			return s == namespace+`\`+function && !strings.HasPrefix(s, `\`)
		},
		gen.RegexMatch(`^([A-Z][a-z]{0,5}(\\[A-Z][a-z]{0,5}){0,2})?$`),
		gen.RegexMatch(`^[a-z][a-zA-Z]{0,8}$`),
	))

	properties.TestingRun(t)
}

func joinMixed(segments, seps []string) string {
	var sb strings.Builder
	for i, s := range segments {
		if i > 0 {
			sb.WriteString(seps[i%len(seps)])
		}
		sb.WriteString(s)
	}
	return sb.String()
}
